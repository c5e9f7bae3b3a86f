package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingStatus - статус стога.
type ListingStatus string

const (
	AvailableListing     ListingStatus = "available"      // Стог доступен для предложений
	UnderContractListing ListingStatus = "under_contract" // По стогу заключен контракт
	DepletedListing      ListingStatus = "depleted"       // Стог распродан
)

// Listing представляет модель стога сена, выставленного организацией-производителем.
type Listing struct {
	ID               string              `json:"id"`
	OrganizationID   string              `json:"organizationId"`
	StackID          string              `json:"stackId"`
	PricePerTon      decimal.Decimal     `json:"pricePerTon"`
	EstimatedTons    decimal.NullDecimal `json:"estimatedTons"`
	Status           ListingStatus       `json:"status"`
	FirmPrice        bool                `json:"firmPrice"`
	IsDeliveredPrice bool                `json:"isDeliveredPrice"`
	Description      string              `json:"description"`
	CreatedByID      string              `json:"createdById"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// ListingRequest представляет структуру запроса для создания стога.
type ListingRequest struct {
	PricePerTon      decimal.Decimal     `json:"pricePerTon"`
	EstimatedTons    decimal.NullDecimal `json:"estimatedTons"`
	FirmPrice        bool                `json:"firmPrice"`
	IsDeliveredPrice bool                `json:"isDeliveredPrice"`
	Description      string              `json:"description"`
}

// ListingFilter - параметры выборки стогов.
type ListingFilter struct {
	Statuses       []ListingStatus
	OrganizationID string
	Limit          int
	Offset         int
}
