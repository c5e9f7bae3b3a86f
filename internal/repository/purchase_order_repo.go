package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/senyabanana/hay-exchange/internal/db"
	"github.com/senyabanana/hay-exchange/internal/models"

	"github.com/shopspring/decimal"
)

const purchaseOrderColumns = `id, po_number, buyer_org_id, grower_org_id, contracted_tons, price_per_ton, delivered_tons,
	status, signed_by_buyer_id, signed_by_grower_id, signed_at, completed_at, delivery_start_date, delivery_end_date,
	max_moisture_percent, quality_notes, center, hay_class, created_by_id, created_at, updated_at`

// PurchaseOrderRepository - интерфейс для работы с заказами на поставку.
type PurchaseOrderRepository interface {
	CreatePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error
	GetPurchaseOrder(ctx context.Context, poID string, forUpdate bool) (*models.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, orgID string, status models.POStatus, limit, offset int) ([]models.PurchaseOrder, error)
	UpdateTerms(ctx context.Context, po *models.PurchaseOrder) error
	UpdateSignatures(ctx context.Context, po *models.PurchaseOrder) error
	Complete(ctx context.Context, po *models.PurchaseOrder) error
	UpdateCenter(ctx context.Context, po *models.PurchaseOrder) error
	UpdateDeliveredTons(ctx context.Context, poID string, deliveredTons decimal.Decimal, at time.Time) error
	CreateStack(ctx context.Context, stack *models.POStack) error
	ListStacks(ctx context.Context, poID string) ([]models.POStack, error)
}

// SQLPurchaseOrderRepository - реализация PurchaseOrderRepository для базы данных.
type SQLPurchaseOrderRepository struct {
	DB db.Querier
}

// NewPurchaseOrderRepository создает новый экземпляр SQLPurchaseOrderRepository.
func NewPurchaseOrderRepository(q db.Querier) *SQLPurchaseOrderRepository {
	return &SQLPurchaseOrderRepository{DB: q}
}

// CreatePurchaseOrder сохраняет новый заказ.
func (r *SQLPurchaseOrderRepository) CreatePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error {
	query := `INSERT INTO purchase_orders (` + purchaseOrderColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err := r.DB.Exec(
		ctx,
		query,
		po.ID,
		po.PONumber,
		po.BuyerOrgID,
		po.GrowerOrgID,
		po.ContractedTons,
		po.PricePerTon,
		po.DeliveredTons,
		po.Status,
		po.SignedByBuyerID,
		po.SignedByGrowerID,
		po.SignedAt,
		po.CompletedAt,
		po.DeliveryStartDate,
		po.DeliveryEndDate,
		po.MaxMoisturePercent,
		po.QualityNotes,
		po.Center,
		po.HayClass,
		po.CreatedByID,
		po.CreatedAt,
		po.UpdatedAt)
	return err
}

// GetPurchaseOrder получает заказ по ID без сокрытия номера.
func (r *SQLPurchaseOrderRepository) GetPurchaseOrder(ctx context.Context, poID string, forUpdate bool) (*models.PurchaseOrder, error) {
	query := `SELECT ` + purchaseOrderColumns + ` FROM purchase_orders WHERE id = $1` + lockClause(r.DB, forUpdate)
	return scanPurchaseOrder(r.DB.QueryRow(ctx, query, poID))
}

// ListPurchaseOrders возвращает заказы, в которых участвует организация.
func (r *SQLPurchaseOrderRepository) ListPurchaseOrders(ctx context.Context, orgID string, status models.POStatus, limit, offset int) ([]models.PurchaseOrder, error) {
	query := `SELECT ` + purchaseOrderColumns + `
	          FROM purchase_orders
	          WHERE (buyer_org_id = $1 OR grower_org_id = $1)`
	args := []interface{}{orgID}
	argIndex := 2

	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, status)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.PurchaseOrder{}
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *po)
	}
	return orders, rows.Err()
}

// UpdateTerms сохраняет условия поставки. Условия меняются только у черновика без подписей.
func (r *SQLPurchaseOrderRepository) UpdateTerms(ctx context.Context, po *models.PurchaseOrder) error {
	query := `
		UPDATE purchase_orders
		SET delivery_start_date = $1, delivery_end_date = $2, max_moisture_percent = $3, quality_notes = $4, updated_at = $5
		WHERE id = $6 AND status = $7 AND signed_by_buyer_id IS NULL AND signed_by_grower_id IS NULL`
	return r.exec(ctx, query,
		po.DeliveryStartDate,
		po.DeliveryEndDate,
		po.MaxMoisturePercent,
		po.QualityNotes,
		po.UpdatedAt,
		po.ID,
		models.DraftPO)
}

// UpdateSignatures сохраняет подписи, статус и время подписания черновика.
func (r *SQLPurchaseOrderRepository) UpdateSignatures(ctx context.Context, po *models.PurchaseOrder) error {
	query := `
		UPDATE purchase_orders
		SET signed_by_buyer_id = $1, signed_by_grower_id = $2, status = $3, signed_at = $4, updated_at = $5
		WHERE id = $6 AND status = $7`
	return r.exec(ctx, query,
		po.SignedByBuyerID,
		po.SignedByGrowerID,
		po.Status,
		po.SignedAt,
		po.UpdatedAt,
		po.ID,
		models.DraftPO)
}

// Complete переводит активный заказ в статус COMPLETED.
func (r *SQLPurchaseOrderRepository) Complete(ctx context.Context, po *models.PurchaseOrder) error {
	query := `
		UPDATE purchase_orders
		SET delivered_tons = $1, status = $2, completed_at = $3, updated_at = $4
		WHERE id = $5 AND status = $6`
	return r.exec(ctx, query,
		po.DeliveredTons,
		models.CompletedPO,
		po.CompletedAt,
		po.UpdatedAt,
		po.ID,
		models.ActivePO)
}

// UpdateCenter сохраняет центр и класс сена.
func (r *SQLPurchaseOrderRepository) UpdateCenter(ctx context.Context, po *models.PurchaseOrder) error {
	query := `UPDATE purchase_orders SET center = $1, hay_class = $2, updated_at = $3 WHERE id = $4`
	return r.exec(ctx, query, po.Center, po.HayClass, po.UpdatedAt, po.ID)
}

// UpdateDeliveredTons сохраняет накопленный объем поставок.
func (r *SQLPurchaseOrderRepository) UpdateDeliveredTons(ctx context.Context, poID string, deliveredTons decimal.Decimal, at time.Time) error {
	query := `UPDATE purchase_orders SET delivered_tons = $1, updated_at = $2 WHERE id = $3`
	return r.exec(ctx, query, deliveredTons, at, poID)
}

// CreateStack связывает заказ со стогом.
func (r *SQLPurchaseOrderRepository) CreateStack(ctx context.Context, s *models.POStack) error {
	query := `INSERT INTO po_stacks (id, purchase_order_id, listing_id, allocated_tons, created_at)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.Exec(ctx, query, s.ID, s.PurchaseOrderID, s.ListingID, s.AllocatedTons, s.CreatedAt)
	return err
}

// ListStacks возвращает стоги заказа в порядке привязки.
func (r *SQLPurchaseOrderRepository) ListStacks(ctx context.Context, poID string) ([]models.POStack, error) {
	query := `SELECT id, purchase_order_id, listing_id, allocated_tons, created_at
	          FROM po_stacks WHERE purchase_order_id = $1
	          ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.Query(ctx, query, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stacks := []models.POStack{}
	for rows.Next() {
		var s models.POStack
		if err := rows.Scan(&s.ID, &s.PurchaseOrderID, &s.ListingID, &s.AllocatedTons, &s.CreatedAt); err != nil {
			return nil, err
		}
		stacks = append(stacks, s)
	}
	return stacks, rows.Err()
}

func (r *SQLPurchaseOrderRepository) exec(ctx context.Context, query string, args ...any) error {
	affected, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if affected == 0 {
		return db.ErrConcurrentUpdate
	}
	return nil
}

func scanPurchaseOrder(row db.Row) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := row.Scan(
		&po.ID,
		&po.PONumber,
		&po.BuyerOrgID,
		&po.GrowerOrgID,
		&po.ContractedTons,
		&po.PricePerTon,
		&po.DeliveredTons,
		&po.Status,
		&po.SignedByBuyerID,
		&po.SignedByGrowerID,
		&po.SignedAt,
		&po.CompletedAt,
		&po.DeliveryStartDate,
		&po.DeliveryEndDate,
		&po.MaxMoisturePercent,
		&po.QualityNotes,
		&po.Center,
		&po.HayClass,
		&po.CreatedByID,
		&po.CreatedAt,
		&po.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &po, nil
}
