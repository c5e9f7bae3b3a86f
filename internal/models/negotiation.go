package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NegotiationStatus - статус предложения в ветке переговоров.
type NegotiationStatus string

const (
	PendingNegotiation   NegotiationStatus = "pending"   // Ожидает ответа второй стороны
	CounteredNegotiation NegotiationStatus = "countered" // На предложение сделано встречное
	AcceptedNegotiation  NegotiationStatus = "accepted"  // Предложение принято
	RejectedNegotiation  NegotiationStatus = "rejected"  // Предложение отклонено
)

// NegotiationTransitions - допустимые переходы статусов предложения.
var NegotiationTransitions = map[NegotiationStatus][]NegotiationStatus{
	PendingNegotiation:   {CounteredNegotiation, AcceptedNegotiation, RejectedNegotiation},
	CounteredNegotiation: {},
	AcceptedNegotiation:  {},
	RejectedNegotiation:  {},
}

// Negotiation представляет одно предложение в ветке переговоров по стогу.
// У корня ветки ParentID пустой, у всех остальных узлов он равен ID корня.
type Negotiation struct {
	ID                 string              `json:"id"`
	ListingID          string              `json:"listingId"`
	BuyerOrgID         string              `json:"buyerOrgId"`
	GrowerOrgID        string              `json:"growerOrgId"`
	OfferedPricePerTon decimal.Decimal     `json:"offeredPricePerTon"`
	OfferedTons        decimal.NullDecimal `json:"offeredTons"`
	Message            *string             `json:"message"`
	OfferedByOrgID     string              `json:"offeredByOrgId"`
	OfferedByUserID    string              `json:"offeredByUserId"`
	Status             NegotiationStatus   `json:"status"`
	ParentID           *string             `json:"parentId"`
	PurchaseOrderID    *string             `json:"purchaseOrderId"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// ThreadID возвращает идентификатор ветки, то есть ID ее корня.
func (n *Negotiation) ThreadID() string {
	if n.ParentID != nil {
		return *n.ParentID
	}
	return n.ID
}

// IsParticipant проверяет, является ли организация стороной переговоров.
func (n *Negotiation) IsParticipant(orgID string) bool {
	return orgID == n.BuyerOrgID || orgID == n.GrowerOrgID
}

// Counterparty возвращает организацию, которой адресовано предложение.
func (n *Negotiation) Counterparty() string {
	if n.OfferedByOrgID == n.BuyerOrgID {
		return n.GrowerOrgID
	}
	return n.BuyerOrgID
}

// OfferRequest представляет структуру запроса для предложения и встречного предложения.
type OfferRequest struct {
	OfferedPricePerTon decimal.Decimal     `json:"offeredPricePerTon"`
	OfferedTons        decimal.NullDecimal `json:"offeredTons"`
	Message            *string             `json:"message"`
}

// NegotiationAcceptance - результат принятия предложения.
type NegotiationAcceptance struct {
	Negotiation   *Negotiation   `json:"negotiation"`
	PurchaseOrder *PurchaseOrder `json:"purchaseOrder"`
}
