package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/senyabanana/hay-exchange/internal/db"
	"github.com/senyabanana/hay-exchange/internal/models"
)

// AuditRepository - интерфейс журнала аудита. Журнал только пополняется.
type AuditRepository interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
	ListByEntity(ctx context.Context, entityType models.EntityType, entityID string, actions ...models.AuditAction) ([]models.AuditEntry, error)
}

// SQLAuditRepository - реализация AuditRepository для базы данных.
type SQLAuditRepository struct {
	DB db.Querier
}

// NewAuditRepository создает новый экземпляр SQLAuditRepository.
func NewAuditRepository(q db.Querier) *SQLAuditRepository {
	return &SQLAuditRepository{DB: q}
}

// Append добавляет запись в журнал.
func (r *SQLAuditRepository) Append(ctx context.Context, e *models.AuditEntry) error {
	oldValue, err := marshalPayload(e.OldValue)
	if err != nil {
		return err
	}
	newValue, err := marshalPayload(e.NewValue)
	if err != nil {
		return err
	}

	query := `INSERT INTO audit_logs (id, actor_id, actor_org_id, action, entity_type, entity_id, old_value, new_value, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.DB.Exec(ctx, query,
		e.ID,
		e.ActorID,
		e.ActorOrgID,
		e.Action,
		e.EntityType,
		e.EntityID,
		oldValue,
		newValue,
		e.CreatedAt)
	return err
}

// ListByEntity возвращает записи по сущности в хронологическом порядке.
// Если actions заданы, возвращаются только записи с этими действиями.
func (r *SQLAuditRepository) ListByEntity(ctx context.Context, entityType models.EntityType, entityID string, actions ...models.AuditAction) ([]models.AuditEntry, error) {
	query := `SELECT id, actor_id, actor_org_id, action, entity_type, entity_id, old_value, new_value, created_at
	          FROM audit_logs
	          WHERE entity_type = $1 AND entity_id = $2`
	args := []interface{}{entityType, entityID}

	if len(actions) > 0 {
		names := make([]string, len(actions))
		for i, a := range actions {
			names[i] = string(a)
		}
		clause, clauseArgs := r.DB.Dialect().InStrings("action", 3, names)
		query += " AND " + clause
		args = append(args, clauseArgs...)
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		var oldValue, newValue *string
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorOrgID, &e.Action, &e.EntityType, &e.EntityID, &oldValue, &newValue, &e.CreatedAt); err != nil {
			return nil, err
		}
		if e.OldValue, err = unmarshalPayload(oldValue); err != nil {
			return nil, err
		}
		if e.NewValue, err = unmarshalPayload(newValue); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func marshalPayload(payload map[string]any) (*string, error) {
	if payload == nil {
		return nil, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal audit payload: %w", err)
	}
	s := string(b)
	return &s, nil
}

func unmarshalPayload(raw *string) (map[string]any, error) {
	if raw == nil {
		return nil, nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(*raw), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal audit payload: %w", err)
	}
	return payload, nil
}
