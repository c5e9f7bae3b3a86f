package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/hay-exchange/internal/router/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

// Postgres - реализация DB поверх пула соединений pgx.
type Postgres struct {
	pool *pgxpool.Pool
	pgQuerier
}

// InitDb инициализирует подключение к базе данных и возвращает пул соединений.
func InitDb(cfg config.Config) (*Postgres, error) {
	dbUser := cfg.PostgresUser
	dbPassword := cfg.PostgresPass
	dbHost := cfg.PostgresHost
	dbPort := cfg.PostgresPort
	dbName := cfg.PostgresDB

	if dbUser == "" || dbPassword == "" || dbHost == "" || dbPort == "" || dbName == "" {
		return nil, fmt.Errorf("one or more database connection environment variables are missing")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}
	if cfg.PostgresMaxConns > 0 {
		poolCfg.MaxConns = cfg.PostgresMaxConns
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &Postgres{pool: pool, pgQuerier: pgQuerier{ex: pool}}, nil
}

// WithTx выполняет fn в транзакции READ COMMITTED.
func (p *Postgres) WithTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgQuerier{ex: tx}); err != nil {
		return err
	}
	return mapPgError(tx.Commit(ctx))
}

// Close закрывает пул соединений.
func (p *Postgres) Close() {
	p.pool.Close()
}

type pgExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgQuerier struct {
	ex pgExecutor
}

func (q *pgQuerier) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := q.ex.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapPgError(err)
	}
	return tag.RowsAffected(), nil
}

func (q *pgQuerier) QueryRow(ctx context.Context, query string, args ...any) Row {
	return pgRow{row: q.ex.QueryRow(ctx, query, args...)}
}

func (q *pgQuerier) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := q.ex.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	return pgRows{rows: rows}, nil
}

func (q *pgQuerier) Dialect() Dialect {
	return postgresDialect{}
}

type pgRow struct {
	row pgx.Row
}

func (r pgRow) Scan(dest ...any) error {
	return mapPgError(r.row.Scan(dest...))
}

type pgRows struct {
	rows pgx.Rows
}

func (r pgRows) Next() bool             { return r.rows.Next() }
func (r pgRows) Scan(dest ...any) error { return mapPgError(r.rows.Scan(dest...)) }
func (r pgRows) Err() error             { return mapPgError(r.rows.Err()) }
func (r pgRows) Close()                 { r.rows.Close() }

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrUniqueViolation, pgErr.ConstraintName)
	}
	return err
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) ForUpdate() string { return " FOR UPDATE" }

func (postgresDialect) InStrings(column string, argIndex int, values []string) (string, []any) {
	return fmt.Sprintf("%s = ANY($%d)", column, argIndex), []any{pq.Array(values)}
}
