package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/campaign-insights/internal/domain"
	"github.com/ignite/campaign-insights/internal/service/brand"
)

const brandSchema = `
CREATE TABLE IF NOT EXISTS brand_industries (
	brand      TEXT PRIMARY KEY,
	industry   TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// BrandRepo implements brand.Repository against PostgreSQL.
type BrandRepo struct{ db *sql.DB }

// NewBrandRepo creates a Postgres-backed brand repository.
func NewBrandRepo(db *sql.DB) *BrandRepo { return &BrandRepo{db: db} }

// EnsureSchema creates the brand table if it is missing.
func (r *BrandRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, brandSchema); err != nil {
		return fmt.Errorf("ensure brand schema: %w", err)
	}
	return nil
}

func (r *BrandRepo) List(ctx context.Context) ([]domain.Brand, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT brand, industry, updated_at
		FROM brand_industries
		ORDER BY brand
	`)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	var out []domain.Brand
	for rows.Next() {
		var b domain.Brand
		if err := rows.Scan(&b.Brand, &b.Industry, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	return out, nil
}

func (r *BrandRepo) Upsert(ctx context.Context, b domain.Brand) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO brand_industries (brand, industry, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (brand) DO UPDATE
		SET industry = EXCLUDED.industry, updated_at = NOW()
	`, b.Brand, b.Industry)
	if err != nil {
		return fmt.Errorf("upsert brand: %w", err)
	}
	return nil
}

func (r *BrandRepo) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM brand_industries WHERE brand = $1`, name)
	if err != nil {
		return fmt.Errorf("delete brand: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete brand: %w", err)
	}
	if n == 0 {
		return brand.ErrNotFound
	}
	return nil
}
