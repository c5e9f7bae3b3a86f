package repository

import (
	"context"
	"time"

	"github.com/senyabanana/hay-exchange/internal/db"
	"github.com/senyabanana/hay-exchange/internal/models"
)

const negotiationColumns = `id, listing_id, buyer_org_id, grower_org_id, offered_price_per_ton, offered_tons, message,
	offered_by_org_id, offered_by_user_id, status, parent_id, purchase_order_id, created_at, updated_at`

// NegotiationRepository - интерфейс для работы с переговорами.
type NegotiationRepository interface {
	CreateNegotiation(ctx context.Context, n *models.Negotiation) error
	GetNegotiation(ctx context.Context, negotiationID string, forUpdate bool) (*models.Negotiation, error)
	ListThread(ctx context.Context, rootID string) ([]models.Negotiation, error)
	ListThreadRoots(ctx context.Context, orgID string, limit, offset int) ([]models.Negotiation, error)
	TransitionStatus(ctx context.Context, negotiationID string, from, to models.NegotiationStatus, at time.Time) error
	SetPurchaseOrder(ctx context.Context, negotiationID, purchaseOrderID string, at time.Time) error
}

// SQLNegotiationRepository - реализация NegotiationRepository для базы данных.
type SQLNegotiationRepository struct {
	DB db.Querier
}

// NewNegotiationRepository создает новый экземпляр SQLNegotiationRepository.
func NewNegotiationRepository(q db.Querier) *SQLNegotiationRepository {
	return &SQLNegotiationRepository{DB: q}
}

// CreateNegotiation сохраняет новое предложение.
func (r *SQLNegotiationRepository) CreateNegotiation(ctx context.Context, n *models.Negotiation) error {
	query := `INSERT INTO negotiations (` + negotiationColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.DB.Exec(
		ctx,
		query,
		n.ID,
		n.ListingID,
		n.BuyerOrgID,
		n.GrowerOrgID,
		n.OfferedPricePerTon,
		n.OfferedTons,
		n.Message,
		n.OfferedByOrgID,
		n.OfferedByUserID,
		n.Status,
		n.ParentID,
		n.PurchaseOrderID,
		n.CreatedAt,
		n.UpdatedAt)
	return err
}

// GetNegotiation получает предложение по ID.
func (r *SQLNegotiationRepository) GetNegotiation(ctx context.Context, negotiationID string, forUpdate bool) (*models.Negotiation, error) {
	query := `SELECT ` + negotiationColumns + ` FROM negotiations WHERE id = $1` + lockClause(r.DB, forUpdate)
	return scanNegotiation(r.DB.QueryRow(ctx, query, negotiationID))
}

// ListThread возвращает корень ветки и все ответы на него в хронологическом порядке.
// При равном времени создания корень идет первым.
func (r *SQLNegotiationRepository) ListThread(ctx context.Context, rootID string) ([]models.Negotiation, error) {
	query := `SELECT ` + negotiationColumns + `
	          FROM negotiations
	          WHERE id = $1 OR parent_id = $1
	          ORDER BY created_at ASC, (parent_id IS NOT NULL) ASC, id ASC`
	return r.query(ctx, query, rootID)
}

// ListThreadRoots возвращает корни веток, в которых участвует организация.
func (r *SQLNegotiationRepository) ListThreadRoots(ctx context.Context, orgID string, limit, offset int) ([]models.Negotiation, error) {
	query := `SELECT ` + negotiationColumns + `
	          FROM negotiations
	          WHERE parent_id IS NULL AND (buyer_org_id = $1 OR grower_org_id = $1)
	          ORDER BY created_at DESC, id ASC
	          LIMIT $2 OFFSET $3`
	return r.query(ctx, query, orgID, limit, offset)
}

// TransitionStatus меняет статус предложения, только если текущий статус равен from.
// Если статус уже изменил другой запрос, возвращается db.ErrConcurrentUpdate.
func (r *SQLNegotiationRepository) TransitionStatus(ctx context.Context, negotiationID string, from, to models.NegotiationStatus, at time.Time) error {
	query := `UPDATE negotiations SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	affected, err := r.DB.Exec(ctx, query, to, at, negotiationID, from)
	if err != nil {
		return err
	}
	if affected == 0 {
		return db.ErrConcurrentUpdate
	}
	return nil
}

// SetPurchaseOrder связывает принятое предложение с созданным заказом.
func (r *SQLNegotiationRepository) SetPurchaseOrder(ctx context.Context, negotiationID, purchaseOrderID string, at time.Time) error {
	query := `UPDATE negotiations SET purchase_order_id = $1, updated_at = $2 WHERE id = $3 AND purchase_order_id IS NULL`
	affected, err := r.DB.Exec(ctx, query, purchaseOrderID, at, negotiationID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return db.ErrConcurrentUpdate
	}
	return nil
}

func (r *SQLNegotiationRepository) query(ctx context.Context, query string, args ...any) ([]models.Negotiation, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	negotiations := []models.Negotiation{}
	for rows.Next() {
		n, err := scanNegotiation(rows)
		if err != nil {
			return nil, err
		}
		negotiations = append(negotiations, *n)
	}
	return negotiations, rows.Err()
}

func scanNegotiation(row db.Row) (*models.Negotiation, error) {
	var n models.Negotiation
	err := row.Scan(
		&n.ID,
		&n.ListingID,
		&n.BuyerOrgID,
		&n.GrowerOrgID,
		&n.OfferedPricePerTon,
		&n.OfferedTons,
		&n.Message,
		&n.OfferedByOrgID,
		&n.OfferedByUserID,
		&n.Status,
		&n.ParentID,
		&n.PurchaseOrderID,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
