package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/senyabanana/hay-exchange/internal/db"
	"github.com/senyabanana/hay-exchange/internal/models"
	"github.com/senyabanana/hay-exchange/internal/repository"

	"github.com/google/uuid"
)

// Clock возвращает текущее время. В тестах подменяется.
type Clock func() time.Time

// SystemClock - текущее время в UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// runInTx выполняет fn в одной транзакции и переводит ошибки хранилища в ErrorResponse.
func runInTx(ctx context.Context, database db.DB, fn func(repos *repository.Repositories) error) error {
	err := database.WithTx(ctx, func(q db.Querier) error {
		return fn(repository.New(q))
	})
	return translateError(err)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	var errorResponse *models.ErrorResponse
	switch {
	case errors.As(err, &errorResponse):
		return errorResponse
	case errors.Is(err, db.ErrConcurrentUpdate):
		return models.BadRequest("the record was changed by another request")
	case errors.Is(err, db.ErrUniqueViolation):
		return models.Conflict("a record with the same number already exists, retry the request")
	case errors.Is(err, db.ErrNotFound):
		return models.NotFound("record not found")
	}
	return fmt.Errorf("storage: %w", err)
}

// notFound возвращает NOT_FOUND для отсутствующей строки, остальные ошибки без изменений.
func notFound(err error, message string) error {
	if errors.Is(err, db.ErrNotFound) {
		return models.NotFound(message)
	}
	return err
}

func requireReader(actor models.Actor) error {
	if !actor.Valid() {
		return models.NewErrorResponse(http.StatusUnauthorized, "unknown user, organization or role")
	}
	return nil
}

func requireWriter(actor models.Actor) error {
	if err := requireReader(actor); err != nil {
		return err
	}
	if !actor.CanWrite() {
		return models.Forbidden("role VIEWER can not modify data")
	}
	return nil
}

func requireAdmin(actor models.Actor) error {
	if err := requireReader(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return models.Forbidden("only ADMIN can perform this action")
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

// auditEntry готовит запись журнала от имени actor.
func auditEntry(actor models.Actor, action models.AuditAction, entityType models.EntityType, entityID string, oldValue, newValue map[string]any, at time.Time) *models.AuditEntry {
	return &models.AuditEntry{
		ID:         newID(),
		ActorID:    actor.UserID,
		ActorOrgID: actor.OrganizationID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		OldValue:   oldValue,
		NewValue:   newValue,
		CreatedAt:  at,
	}
}

// loadPurchaseOrderForParticipant читает заказ и проверяет, что организация actor - его сторона.
func loadPurchaseOrderForParticipant(ctx context.Context, repos *repository.Repositories, poID string, actor models.Actor, forUpdate bool) (*models.PurchaseOrder, error) {
	po, err := repos.PurchaseOrders.GetPurchaseOrder(ctx, poID, forUpdate)
	if err != nil {
		return nil, notFound(err, "purchase order not found")
	}
	if !po.IsParticipant(actor.OrganizationID) {
		return nil, models.Forbidden("your organization is not a party to this purchase order")
	}
	return po, nil
}
