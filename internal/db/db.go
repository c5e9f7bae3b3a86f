package db

import (
	"context"
	"errors"
)

var (
	// ErrNotFound возвращается, когда запрос не нашел ни одной строки.
	ErrNotFound = errors.New("record not found")

	// ErrUniqueViolation возвращается при нарушении ограничения уникальности.
	ErrUniqueViolation = errors.New("unique constraint violation")

	// ErrConcurrentUpdate возвращается, когда условное обновление не затронуло ни одной строки,
	// потому что состояние строки уже изменил другой запрос.
	ErrConcurrentUpdate = errors.New("row was modified concurrently")
)

// Row - одна строка результата запроса.
type Row interface {
	Scan(dest ...any) error
}

// Rows - курсор по результату запроса.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Dialect описывает различия SQL между поддерживаемыми базами данных.
type Dialect interface {
	Name() string
	// ForUpdate возвращает суффикс блокировки строки для SELECT внутри транзакции.
	ForUpdate() string
	// InStrings строит условие "column входит в values", нумеруя параметры с argIndex.
	InStrings(column string, argIndex int, values []string) (string, []any)
}

// Querier выполняет запросы вне транзакции или внутри нее.
// Запросы пишутся с плейсхолдерами $1, $2, ...
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Dialect() Dialect
}

// DB - хранилище с поддержкой транзакций.
type DB interface {
	Querier

	// WithTx выполняет fn в одной транзакции. Если fn возвращает ошибку, транзакция
	// откатывается, иначе фиксируется.
	WithTx(ctx context.Context, fn func(q Querier) error) error

	Close()
}
