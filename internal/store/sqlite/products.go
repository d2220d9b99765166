package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
	"github.com/ShoMaruoka/color-size-tool/internal/store"
)

// ProductRow is a raw product as imported from upstream.
type ProductRow struct {
	ProductKey string `json:"product_key" yaml:"product_key"`
	ColorName  string `json:"color_name" yaml:"color_name"`
	SizeName   string `json:"size_name" yaml:"size_name"`
	Composite  string `json:"composite_name" yaml:"composite_name"`
}

// FetchProducts returns the products matching filter.
func (s *Store) FetchProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.ProductRecord, error) {
	query, args := store.ProductQuery(store.SQLiteDialect, filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	records := []domain.ProductRecord{}
	for rows.Next() {
		var key, color, size, composite string
		if err := rows.Scan(&key, &color, &size, &composite); err != nil {
			return nil, err
		}
		records = append(records, store.ProductRecord(key, color, size, composite))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.logger.Debug("products fetched", "records", len(records))
	return records, nil
}

// ImportProducts upserts raw product rows.
func (s *Store) ImportProducts(ctx context.Context, products []ProductRow) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(s.now())
	for _, p := range products {
		if strings.TrimSpace(p.ProductKey) == "" {
			return 0, store.ErrInvalidInput.WithMessage("product key is required")
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (product_key, color_name, size_name, composite_name, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(product_key) DO UPDATE SET
				color_name = excluded.color_name,
				size_name = excluded.size_name,
				composite_name = excluded.composite_name,
				updated_at = excluded.updated_at`,
			p.ProductKey, p.ColorName, p.SizeName, p.Composite, now, now,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert product %s: %w", p.ProductKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(products), nil
}

// Persist upserts resolved rows keyed by product key.
func (s *Store) Persist(ctx context.Context, records []domain.ResolvedRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(s.now())
	for _, r := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO resolved_products (product_key, color_id, size_id, status, resolved_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(product_key) DO UPDATE SET
				color_id = excluded.color_id,
				size_id = excluded.size_id,
				status = excluded.status,
				resolved_at = excluded.resolved_at`,
			r.ProductKey,
			nullableInt64(r.ColorID),
			nullableInt64(r.SizeID),
			string(r.Status),
			now,
		)
		if err != nil {
			if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
				return store.ErrNotFound.WithMessage(fmt.Sprintf("product %s not found", r.ProductKey))
			}
			return fmt.Errorf("upsert resolved product %s: %w", r.ProductKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("resolved products persisted", "records", len(records))
	return nil
}

// GetResolved returns the stored resolution of one product.
// Returns store.ErrNotFound if the product has not been written.
func (s *Store) GetResolved(ctx context.Context, productKey string) (domain.ResolvedRecord, error) {
	var (
		r       domain.ResolvedRecord
		colorID sql.NullInt64
		sizeID  sql.NullInt64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT product_key, color_id, size_id, status
		FROM resolved_products WHERE product_key = ?`, productKey,
	).Scan(&r.ProductKey, &colorID, &sizeID, &r.Status)
	if err == sql.ErrNoRows {
		return r, store.ErrNotFound
	}
	if err != nil {
		return r, err
	}

	r.ColorID = int64Ptr(colorID)
	r.SizeID = int64Ptr(sizeID)
	return r, nil
}
