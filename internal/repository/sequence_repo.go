package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/senyabanana/hay-exchange/internal/db"
)

const (
	stackIDSequence    = "stack_id"
	poNumberSequence   = "po_number"
	loadNumberSequence = "load_number"
)

// SequenceRepository выдает человекочитаемые номера стогов, заказов и поставок.
type SequenceRepository interface {
	NextStackID(ctx context.Context) (string, error)
	NextPONumber(ctx context.Context) (string, error)
	NextLoadNumber(ctx context.Context) (string, error)
}

// SQLSequenceRepository - реализация SequenceRepository на таблице sequences.
// Значение увеличивается одним UPDATE ... RETURNING, поэтому два запроса не получат один номер.
type SQLSequenceRepository struct {
	DB db.Querier
}

// NewSequenceRepository создает новый экземпляр SQLSequenceRepository.
func NewSequenceRepository(q db.Querier) *SQLSequenceRepository {
	return &SQLSequenceRepository{DB: q}
}

// NextStackID возвращает следующий номер стога: 100001, 100002, ...
func (r *SQLSequenceRepository) NextStackID(ctx context.Context) (string, error) {
	v, err := r.next(ctx, stackIDSequence)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(v, 10), nil
}

// NextPONumber возвращает следующий номер заказа: PO-10001, PO-10002, ...
func (r *SQLSequenceRepository) NextPONumber(ctx context.Context) (string, error) {
	v, err := r.next(ctx, poNumberSequence)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PO-%d", v), nil
}

// NextLoadNumber возвращает следующий номер поставки: LD-1001, LD-1002, ...
func (r *SQLSequenceRepository) NextLoadNumber(ctx context.Context) (string, error) {
	v, err := r.next(ctx, loadNumberSequence)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("LD-%d", v), nil
}

func (r *SQLSequenceRepository) next(ctx context.Context, name string) (int64, error) {
	var value int64
	query := `UPDATE sequences SET value = value + 1 WHERE name = $1 RETURNING value`
	if err := r.DB.QueryRow(ctx, query, name).Scan(&value); err != nil {
		return 0, fmt.Errorf("next value of sequence %s: %w", name, err)
	}
	return value, nil
}
