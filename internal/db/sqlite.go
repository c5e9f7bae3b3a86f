package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mattn/go-sqlite3"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

// SQLite - реализация DB поверх SQLite. Используется для локального запуска и в тестах.
type SQLite struct {
	db *sql.DB
	sqlQuerier
}

// NewSQLite открывает базу SQLite по пути dbPath и применяет схему.
// Для базы в памяти используйте ":memory:".
func NewSQLite(dbPath string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_txlock=immediate&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite допускает одного писателя, а база ":memory:" живет в пределах одного соединения.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLite{db: conn, sqlQuerier: sqlQuerier{ex: conn}}, nil
}

// WithTx выполняет fn в транзакции.
func (s *SQLite) WithTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlQuerier{ex: tx}); err != nil {
		return err
	}
	return mapSQLiteError(tx.Commit())
}

// Close закрывает базу.
func (s *SQLite) Close() {
	s.db.Close()
}

type sqlExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqlQuerier struct {
	ex sqlExecutor
}

func (q *sqlQuerier) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.ex.ExecContext(ctx, Rebind(query), args...)
	if err != nil {
		return 0, mapSQLiteError(err)
	}
	return res.RowsAffected()
}

func (q *sqlQuerier) QueryRow(ctx context.Context, query string, args ...any) Row {
	return sqlRow{row: q.ex.QueryRowContext(ctx, Rebind(query), args...)}
}

func (q *sqlQuerier) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := q.ex.QueryContext(ctx, Rebind(query), args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	return sqlRows{rows: rows}, nil
}

func (q *sqlQuerier) Dialect() Dialect {
	return sqliteDialect{}
}

// Rebind переводит плейсхолдеры $n в нумерованные параметры SQLite ?n.
func Rebind(query string) string {
	return placeholderRe.ReplaceAllString(query, "?${1}")
}

type sqlRow struct {
	row *sql.Row
}

func (r sqlRow) Scan(dest ...any) error {
	return mapSQLiteError(r.row.Scan(dest...))
}

type sqlRows struct {
	rows *sql.Rows
}

func (r sqlRows) Next() bool             { return r.rows.Next() }
func (r sqlRows) Scan(dest ...any) error { return mapSQLiteError(r.rows.Scan(dest...)) }
func (r sqlRows) Err() error             { return mapSQLiteError(r.rows.Err()) }
func (r sqlRows) Close()                 { _ = r.rows.Close() }

func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return fmt.Errorf("%w: %s", ErrUniqueViolation, sqliteErr.Error())
	}
	return err
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) ForUpdate() string { return "" }

func (sqliteDialect) InStrings(column string, argIndex int, values []string) (string, []any) {
	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = fmt.Sprintf("$%d", argIndex+i)
		args[i] = v
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")), args
}
