package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/senyabanana/hay-exchange/internal/db"
	"github.com/senyabanana/hay-exchange/internal/models"
)

const listingColumns = `id, organization_id, stack_id, price_per_ton, estimated_tons, status, firm_price,
	is_delivered_price, description, created_by_id, created_at, updated_at`

// ListingRepository - интерфейс для работы со стогами.
type ListingRepository interface {
	CreateListing(ctx context.Context, listing *models.Listing) error
	GetListing(ctx context.Context, listingID string, forUpdate bool) (*models.Listing, error)
	ListListings(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error)
	UpdateListingStatus(ctx context.Context, listingID string, from, to models.ListingStatus, at time.Time) error
}

// SQLListingRepository - реализация ListingRepository для базы данных.
type SQLListingRepository struct {
	DB db.Querier
}

// NewListingRepository создает новый экземпляр SQLListingRepository.
func NewListingRepository(q db.Querier) *SQLListingRepository {
	return &SQLListingRepository{DB: q}
}

// CreateListing сохраняет новый стог.
func (r *SQLListingRepository) CreateListing(ctx context.Context, l *models.Listing) error {
	query := `INSERT INTO listings (` + listingColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.DB.Exec(
		ctx,
		query,
		l.ID,
		l.OrganizationID,
		l.StackID,
		l.PricePerTon,
		l.EstimatedTons,
		l.Status,
		l.FirmPrice,
		l.IsDeliveredPrice,
		l.Description,
		l.CreatedByID,
		l.CreatedAt,
		l.UpdatedAt)
	return err
}

// GetListing получает стог по ID. С forUpdate строка блокируется до конца транзакции.
func (r *SQLListingRepository) GetListing(ctx context.Context, listingID string, forUpdate bool) (*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1` + lockClause(r.DB, forUpdate)
	return scanListing(r.DB.QueryRow(ctx, query, listingID))
}

// ListListings возвращает список стогов по фильтру.
func (r *SQLListingRepository) ListListings(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings`
	var filters []string
	var args []interface{}
	argIndex := 1

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		clause, clauseArgs := r.DB.Dialect().InStrings("status", argIndex, statuses)
		filters = append(filters, clause)
		args = append(args, clauseArgs...)
		argIndex += len(clauseArgs)
	}

	if filter.OrganizationID != "" {
		filters = append(filters, fmt.Sprintf("organization_id = $%d", argIndex))
		args = append(args, filter.OrganizationID)
		argIndex++
	}

	if len(filters) > 0 {
		query += " WHERE " + strings.Join(filters, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY stack_id LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := []models.Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *listing)
	}
	return listings, rows.Err()
}

// UpdateListingStatus меняет статус стога, только если текущий статус равен from.
func (r *SQLListingRepository) UpdateListingStatus(ctx context.Context, listingID string, from, to models.ListingStatus, at time.Time) error {
	query := `UPDATE listings SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	affected, err := r.DB.Exec(ctx, query, to, at, listingID, from)
	if err != nil {
		return err
	}
	if affected == 0 {
		return db.ErrConcurrentUpdate
	}
	return nil
}

func scanListing(row db.Row) (*models.Listing, error) {
	var l models.Listing
	err := row.Scan(
		&l.ID,
		&l.OrganizationID,
		&l.StackID,
		&l.PricePerTon,
		&l.EstimatedTons,
		&l.Status,
		&l.FirmPrice,
		&l.IsDeliveredPrice,
		&l.Description,
		&l.CreatedByID,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
