package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PoundsPerTon - делитель для перевода веса нетто из фунтов в тонны.
var PoundsPerTon = decimal.NewFromInt(2000)

// Load представляет модель одной поставки (взвешивания) по заказу.
type Load struct {
	ID               string          `json:"id"`
	LoadNumber       string          `json:"loadNumber"`
	PurchaseOrderID  string          `json:"purchaseOrderId"`
	ListingID        string          `json:"listingId"`
	GrossWeight      decimal.Decimal `json:"grossWeight"`
	TareWeight       decimal.Decimal `json:"tareWeight"`
	TotalBaleCount   int             `json:"totalBaleCount"`
	WetBalesCount    int             `json:"wetBalesCount"`
	DeliveryDatetime time.Time       `json:"deliveryDatetime"`
	EnteredByID      string          `json:"enteredById"`
	Location         *string         `json:"location"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// NetWeight возвращает вес нетто в фунтах.
func (l *Load) NetWeight() decimal.Decimal {
	return l.GrossWeight.Sub(l.TareWeight)
}

// NetTons возвращает вес нетто в тоннах без округления.
func (l *Load) NetTons() decimal.Decimal {
	return l.NetWeight().Div(PoundsPerTon)
}

// LoadView - поставка с производными полями.
type LoadView struct {
	Load
	NetWeight     decimal.Decimal `json:"netWeight"`
	NetTons       decimal.Decimal `json:"netTons"`
	AvgBaleWeight decimal.Decimal `json:"avgBaleWeight"`
}

// NewLoadView вычисляет производные поля поставки.
func NewLoadView(l Load) LoadView {
	avg := decimal.Zero
	if l.TotalBaleCount > 0 {
		avg = l.NetWeight().Div(decimal.NewFromInt(int64(l.TotalBaleCount))).Round(2)
	}
	return LoadView{
		Load:          l,
		NetWeight:     l.NetWeight(),
		NetTons:       l.NetTons().Round(2),
		AvgBaleWeight: avg,
	}
}

// LoadRequest представляет структуру запроса для регистрации поставки.
type LoadRequest struct {
	TotalBaleCount   int             `json:"totalBaleCount"`
	WetBalesCount    int             `json:"wetBalesCount"`
	GrossWeight      decimal.Decimal `json:"grossWeight"`
	TareWeight       decimal.Decimal `json:"tareWeight"`
	Location         *string         `json:"location"`
	DeliveryDatetime *time.Time      `json:"deliveryDatetime"`
}

// LoadUpdate представляет структуру запроса для частичного изменения поставки.
type LoadUpdate struct {
	TotalBaleCount   *int             `json:"totalBaleCount"`
	WetBalesCount    *int             `json:"wetBalesCount"`
	GrossWeight      *decimal.Decimal `json:"grossWeight"`
	TareWeight       *decimal.Decimal `json:"tareWeight"`
	Location         *string          `json:"location"`
	DeliveryDatetime *time.Time       `json:"deliveryDatetime"`
}

// LoadEdit - запись об изменении одного поля поставки.
type LoadEdit struct {
	ID         string    `json:"id"`
	LoadID     string    `json:"loadId"`
	FieldName  string    `json:"fieldName"`
	OldValue   string    `json:"oldValue"`
	NewValue   string    `json:"newValue"`
	EditedByID string    `json:"editedById"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DeliverySummary - сверка поставленного объема с контрактом. Носит справочный характер.
type DeliverySummary struct {
	PurchaseOrderID string          `json:"purchaseOrderId"`
	Status          POStatus        `json:"status"`
	ContractedTons  decimal.Decimal `json:"contractedTons"`
	DeliveredTons   decimal.Decimal `json:"deliveredTons"`
	LoggedTons      decimal.Decimal `json:"loggedTons"`
	RemainingTons   decimal.Decimal `json:"remainingTons"`
	Variance        decimal.Decimal `json:"variance"`
	LoadCount       int             `json:"loadCount"`
}
