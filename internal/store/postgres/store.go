// Package postgres reads products from and writes resolved rows to a PostgreSQL
// product database.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
	"github.com/ShoMaruoka/color-size-tool/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// PoolConfig tunes the connection pool. Zero values keep pgx defaults.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store provides PostgreSQL-backed product access.
type Store struct {
	db     DBTX
	pool   *pgxpool.Pool
	logger *slog.Logger
	now    func() time.Time
}

// New wraps an existing connection or transaction.
func New(db DBTX, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger, now: time.Now}
}

// Open connects a pool to databaseURL and verifies it with a ping.
func Open(ctx context.Context, databaseURL string, cfg PoolConfig, logger *slog.Logger) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	logger.Info("connected to product database", "database", poolConfig.ConnConfig.Database)

	s := New(pool, logger)
	s.pool = pool
	return s, nil
}

// Close releases the pool, if the store owns one.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Migrate creates the product tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("exec schema: %w", err)
	}
	return nil
}

// FetchProducts returns the products matching filter.
func (s *Store) FetchProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.ProductRecord, error) {
	query, args := store.ProductQuery(store.PostgresDialect, filter)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ProductRecord, error) {
		var key, color, size, composite string
		if err := row.Scan(&key, &color, &size, &composite); err != nil {
			return domain.ProductRecord{}, err
		}
		return store.ProductRecord(key, color, size, composite), nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}

	s.logger.Debug("products fetched", "records", len(records))
	return records, nil
}

// upsertResolvedSQL writes every record in one round trip using parallel arrays.
const upsertResolvedSQL = `
INSERT INTO resolved_products (product_key, color_id, size_id, status, resolved_at)
SELECT k, c, z, st, $5
FROM unnest($1::text[], $2::bigint[], $3::bigint[], $4::text[]) AS t(k, c, z, st)
ON CONFLICT (product_key) DO UPDATE SET
	color_id = EXCLUDED.color_id,
	size_id = EXCLUDED.size_id,
	status = EXCLUDED.status,
	resolved_at = EXCLUDED.resolved_at`

// Persist upserts resolved rows keyed by product key.
func (s *Store) Persist(ctx context.Context, records []domain.ResolvedRecord) error {
	if len(records) == 0 {
		return nil
	}

	keys := make([]string, len(records))
	colorIDs := make([]*int64, len(records))
	sizeIDs := make([]*int64, len(records))
	statuses := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.ProductKey
		colorIDs[i] = r.ColorID
		sizeIDs[i] = r.SizeID
		statuses[i] = string(r.Status)
	}

	tag, err := s.db.Exec(ctx, upsertResolvedSQL, keys, colorIDs, sizeIDs, statuses, s.now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return store.ErrNotFound.WithMessage("resolved record references an unknown product").WithCause(err)
		}
		return fmt.Errorf("upsert resolved products: %w", err)
	}

	s.logger.Info("resolved products persisted", "records", tag.RowsAffected())
	return nil
}

const foreignKeyViolation = "23503"
