package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	POStatus string // Статус заказа на поставку
	POSide   string // Сторона контракта
)

const (
	DraftPO     POStatus = "DRAFT"     // Ожидает подписей
	ActivePO    POStatus = "ACTIVE"    // Подписан обеими сторонами
	CompletedPO POStatus = "COMPLETED" // Поставка завершена

	BuyerSide  POSide = "buyer"
	GrowerSide POSide = "grower"
)

// PurchaseOrder представляет модель заказа на поставку (контракта).
type PurchaseOrder struct {
	ID                 string              `json:"id"`
	PONumber           *string             `json:"poNumber"`
	BuyerOrgID         string              `json:"buyerOrgId"`
	GrowerOrgID        string              `json:"growerOrgId"`
	ContractedTons     decimal.Decimal     `json:"contractedTons"`
	PricePerTon        decimal.Decimal     `json:"pricePerTon"`
	DeliveredTons      decimal.Decimal     `json:"deliveredTons"`
	Status             POStatus            `json:"status"`
	SignedByBuyerID    *string             `json:"signedByBuyerId"`
	SignedByGrowerID   *string             `json:"signedByGrowerId"`
	SignedAt           *time.Time          `json:"signedAt"`
	CompletedAt        *time.Time          `json:"completedAt"`
	DeliveryStartDate  *time.Time          `json:"deliveryStartDate"`
	DeliveryEndDate    *time.Time          `json:"deliveryEndDate"`
	MaxMoisturePercent decimal.NullDecimal `json:"maxMoisturePercent"`
	QualityNotes       *string             `json:"qualityNotes"`
	Center             *string             `json:"center"`
	HayClass           *string             `json:"hayClass"`
	CreatedByID        string              `json:"createdById"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// FullySigned сообщает, подписан ли заказ обеими сторонами.
func (po *PurchaseOrder) FullySigned() bool {
	return po.SignedByBuyerID != nil && po.SignedByGrowerID != nil
}

// HasAnySignature сообщает, поставлена ли хотя бы одна подпись.
func (po *PurchaseOrder) HasAnySignature() bool {
	return po.SignedByBuyerID != nil || po.SignedByGrowerID != nil
}

// IsParticipant проверяет, является ли организация стороной заказа.
func (po *PurchaseOrder) IsParticipant(orgID string) bool {
	return orgID == po.BuyerOrgID || orgID == po.GrowerOrgID
}

// SideOf возвращает сторону контракта, которую представляет организация.
func (po *PurchaseOrder) SideOf(orgID string) (POSide, bool) {
	switch orgID {
	case po.BuyerOrgID:
		return BuyerSide, true
	case po.GrowerOrgID:
		return GrowerSide, true
	}
	return "", false
}

// Redacted возвращает копию заказа, в которой номер скрыт, пока не поставлены обе подписи.
func (po *PurchaseOrder) Redacted() *PurchaseOrder {
	out := *po
	if !po.FullySigned() {
		out.PONumber = nil
	}
	return &out
}

// POStack связывает заказ со стогом, из которого он выполняется.
type POStack struct {
	ID              string          `json:"id"`
	PurchaseOrderID string          `json:"purchaseOrderId"`
	ListingID       string          `json:"listingId"`
	AllocatedTons   decimal.Decimal `json:"allocatedTons"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// TermsUpdate представляет структуру запроса для изменения условий заказа.
type TermsUpdate struct {
	DeliveryStartDate  *time.Time          `json:"deliveryStartDate"`
	DeliveryEndDate    *time.Time          `json:"deliveryEndDate"`
	MaxMoisturePercent decimal.NullDecimal `json:"maxMoisturePercent"`
	QualityNotes       *string             `json:"qualityNotes"`
}

// Empty сообщает, что в запросе нет ни одного поля.
func (u TermsUpdate) Empty() bool {
	return u.DeliveryStartDate == nil && u.DeliveryEndDate == nil && !u.MaxMoisturePercent.Valid && u.QualityNotes == nil
}

// CenterUpdate представляет структуру запроса для назначения центра и класса сена.
type CenterUpdate struct {
	Center   *string `json:"center"`
	HayClass *string `json:"hayClass"`
}

// SignRequest представляет структуру запроса для подписи.
type SignRequest struct {
	TypedName      string  `json:"typedName"`
	SignatureImage *string `json:"signatureImage"`
}

// Signature - подпись стороны, восстановленная из журнала аудита.
type Signature struct {
	Side           POSide    `json:"side"`
	UserID         string    `json:"userId"`
	TypedName      string    `json:"typedName"`
	SignatureImage *string   `json:"signatureImage"`
	SignedAt       time.Time `json:"signedAt"`
}

// POSignatures - подписи обеих сторон заказа.
type POSignatures struct {
	Buyer  *Signature `json:"buyer"`
	Grower *Signature `json:"grower"`
}
