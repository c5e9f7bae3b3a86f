package repository

import (
	"context"

	"github.com/senyabanana/hay-exchange/internal/db"
	"github.com/senyabanana/hay-exchange/internal/models"
)

const loadColumns = `id, load_number, purchase_order_id, listing_id, gross_weight, tare_weight, total_bale_count,
	wet_bales_count, delivery_datetime, entered_by_id, quality_notes, created_at, updated_at`

// LoadRepository - интерфейс для работы с поставками.
type LoadRepository interface {
	CreateLoad(ctx context.Context, l *models.Load) error
	GetLoad(ctx context.Context, loadID string, forUpdate bool) (*models.Load, error)
	ListLoads(ctx context.Context, poID string) ([]models.Load, error)
	UpdateLoad(ctx context.Context, l *models.Load) error
	CreateLoadEdit(ctx context.Context, e *models.LoadEdit) error
	ListLoadEdits(ctx context.Context, loadID string) ([]models.LoadEdit, error)
}

// SQLLoadRepository - реализация LoadRepository для базы данных.
type SQLLoadRepository struct {
	DB db.Querier
}

// NewLoadRepository создает новый экземпляр SQLLoadRepository.
func NewLoadRepository(q db.Querier) *SQLLoadRepository {
	return &SQLLoadRepository{DB: q}
}

// CreateLoad сохраняет новую поставку.
func (r *SQLLoadRepository) CreateLoad(ctx context.Context, l *models.Load) error {
	query := `INSERT INTO loads (` + loadColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.DB.Exec(
		ctx,
		query,
		l.ID,
		l.LoadNumber,
		l.PurchaseOrderID,
		l.ListingID,
		l.GrossWeight,
		l.TareWeight,
		l.TotalBaleCount,
		l.WetBalesCount,
		l.DeliveryDatetime,
		l.EnteredByID,
		l.Location,
		l.CreatedAt,
		l.UpdatedAt)
	return err
}

// GetLoad получает поставку по ID.
func (r *SQLLoadRepository) GetLoad(ctx context.Context, loadID string, forUpdate bool) (*models.Load, error) {
	query := `SELECT ` + loadColumns + ` FROM loads WHERE id = $1` + lockClause(r.DB, forUpdate)
	return scanLoad(r.DB.QueryRow(ctx, query, loadID))
}

// ListLoads возвращает поставки по заказу в порядке регистрации.
func (r *SQLLoadRepository) ListLoads(ctx context.Context, poID string) ([]models.Load, error) {
	query := `SELECT ` + loadColumns + ` FROM loads WHERE purchase_order_id = $1 ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.Query(ctx, query, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loads := []models.Load{}
	for rows.Next() {
		l, err := scanLoad(rows)
		if err != nil {
			return nil, err
		}
		loads = append(loads, *l)
	}
	return loads, rows.Err()
}

// UpdateLoad сохраняет измененные поля поставки.
func (r *SQLLoadRepository) UpdateLoad(ctx context.Context, l *models.Load) error {
	query := `
		UPDATE loads
		SET gross_weight = $1, tare_weight = $2, total_bale_count = $3, wet_bales_count = $4,
		    delivery_datetime = $5, quality_notes = $6, updated_at = $7
		WHERE id = $8`
	affected, err := r.DB.Exec(ctx, query,
		l.GrossWeight,
		l.TareWeight,
		l.TotalBaleCount,
		l.WetBalesCount,
		l.DeliveryDatetime,
		l.Location,
		l.UpdatedAt,
		l.ID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return db.ErrNotFound
	}
	return nil
}

// CreateLoadEdit записывает изменение одного поля поставки.
func (r *SQLLoadRepository) CreateLoadEdit(ctx context.Context, e *models.LoadEdit) error {
	query := `INSERT INTO load_edits (id, load_id, field_name, old_value, new_value, edited_by_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.Exec(ctx, query, e.ID, e.LoadID, e.FieldName, e.OldValue, e.NewValue, e.EditedByID, e.CreatedAt)
	return err
}

// ListLoadEdits возвращает историю изменений поставки.
func (r *SQLLoadRepository) ListLoadEdits(ctx context.Context, loadID string) ([]models.LoadEdit, error) {
	query := `SELECT id, load_id, field_name, old_value, new_value, edited_by_id, created_at
	          FROM load_edits WHERE load_id = $1
	          ORDER BY created_at ASC, field_name ASC`
	rows, err := r.DB.Query(ctx, query, loadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	edits := []models.LoadEdit{}
	for rows.Next() {
		var e models.LoadEdit
		if err := rows.Scan(&e.ID, &e.LoadID, &e.FieldName, &e.OldValue, &e.NewValue, &e.EditedByID, &e.CreatedAt); err != nil {
			return nil, err
		}
		edits = append(edits, e)
	}
	return edits, rows.Err()
}

func scanLoad(row db.Row) (*models.Load, error) {
	var l models.Load
	err := row.Scan(
		&l.ID,
		&l.LoadNumber,
		&l.PurchaseOrderID,
		&l.ListingID,
		&l.GrossWeight,
		&l.TareWeight,
		&l.TotalBaleCount,
		&l.WetBalesCount,
		&l.DeliveryDatetime,
		&l.EnteredByID,
		&l.Location,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
