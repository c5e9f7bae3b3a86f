package models

import "time"

type (
	AuditAction string // Действие, записанное в журнал аудита
	EntityType  string // Тип сущности, к которой относится запись
)

const (
	AuditSignPO               AuditAction = "SIGN_PO"
	AuditAcceptListingAndSign AuditAction = "ACCEPT_LISTING_AND_SIGN"
	AuditUpdatePOTerms        AuditAction = "UPDATE_PO_TERMS"
	AuditClosePO              AuditAction = "CLOSE_PO"
	AuditLogDelivery          AuditAction = "LOG_DELIVERY"
	AuditEditLoad             AuditAction = "EDIT_LOAD"

	PurchaseOrderEntity EntityType = "purchase_order"
	LoadEntity          EntityType = "load"
)

// AuditEntry - запись журнала аудита. Журнал только пополняется.
type AuditEntry struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actorId"`
	ActorOrgID string         `json:"actorOrgId"`
	Action     AuditAction    `json:"action"`
	EntityType EntityType     `json:"entityType"`
	EntityID   string         `json:"entityId"`
	OldValue   map[string]any `json:"oldValue"`
	NewValue   map[string]any `json:"newValue"`
	CreatedAt  time.Time      `json:"createdAt"`
}
