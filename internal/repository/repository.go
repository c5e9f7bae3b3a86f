package repository

import (
	"github.com/senyabanana/hay-exchange/internal/db"
)

// Repositories объединяет репозитории, работающие через один Querier.
// Внутри транзакции все они видят одни и те же незафиксированные изменения.
type Repositories struct {
	Listings       ListingRepository
	Negotiations   NegotiationRepository
	PurchaseOrders PurchaseOrderRepository
	Loads          LoadRepository
	Audit          AuditRepository
	Sequences      SequenceRepository
}

// New создает набор репозиториев поверх q.
func New(q db.Querier) *Repositories {
	return &Repositories{
		Listings:       NewListingRepository(q),
		Negotiations:   NewNegotiationRepository(q),
		PurchaseOrders: NewPurchaseOrderRepository(q),
		Loads:          NewLoadRepository(q),
		Audit:          NewAuditRepository(q),
		Sequences:      NewSequenceRepository(q),
	}
}

func lockClause(q db.Querier, forUpdate bool) string {
	if !forUpdate {
		return ""
	}
	return q.Dialect().ForUpdate()
}
