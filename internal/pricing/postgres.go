package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shrimpquote_backend/platform/apperr"
)

// PostgresRepository implements Writer against the price tables.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a Postgres-backed price repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Compile-time check that PostgresRepository implements Writer.
var _ Writer = (*PostgresRepository)(nil)

func (r *PostgresRepository) BasePrice(ctx context.Context, product, size string) (float64, error) {
	query := `SELECT usd_per_kg FROM base_prices WHERE product = $1 AND size = $2`

	var price float64
	err := r.pool.QueryRow(ctx, query, canonProduct(product), size).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		available, sizesErr := r.AvailableSizes(ctx, product)
		if sizesErr != nil {
			available = nil
		}
		return 0, notFoundPrice(product, size, available)
	}
	if err != nil {
		return 0, fmt.Errorf("base price lookup: %w", err)
	}
	return price, nil
}

func (r *PostgresRepository) AvailableSizes(ctx context.Context, product string) ([]string, error) {
	query := `SELECT size FROM base_prices WHERE product = $1 ORDER BY size`

	rows, err := r.pool.Query(ctx, query, canonProduct(product))
	if err != nil {
		return nil, fmt.Errorf("available sizes: %w", err)
	}
	defer rows.Close()

	var sizes []string
	for rows.Next() {
		var size string
		if err := rows.Scan(&size); err != nil {
			return nil, fmt.Errorf("available sizes scan: %w", err)
		}
		sizes = append(sizes, size)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("available sizes rows: %w", err)
	}
	if len(sizes) == 0 {
		return nil, apperr.NotFound("unknown product " + product)
	}
	return sizes, nil
}

func (r *PostgresRepository) FixedCost(ctx context.Context) (float64, error) {
	var cost float64
	err := r.pool.QueryRow(ctx, `SELECT fixed_cost FROM pricing_defaults`).Scan(&cost)
	if err != nil {
		return 0, fmt.Errorf("fixed cost lookup: %w", err)
	}
	return cost, nil
}

func (r *PostgresRepository) FreightRate(ctx context.Context, destination string) (float64, error) {
	query := `SELECT usd_per_kg FROM freight_rates WHERE destination = $1`

	var rate float64
	err := r.pool.QueryRow(ctx, query, strings.ToLower(destination)).Scan(&rate)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.NotFound("no freight rate for " + destination)
	}
	if err != nil {
		return 0, fmt.Errorf("freight rate lookup: %w", err)
	}
	return rate, nil
}

func (r *PostgresRepository) UpsertBasePrice(ctx context.Context, product, size string, usdPerKg float64) error {
	query := `
		INSERT INTO base_prices (product, size, usd_per_kg)
		VALUES ($1, $2, $3)
		ON CONFLICT (product, size)
		DO UPDATE SET usd_per_kg = EXCLUDED.usd_per_kg, updated_at = now()`

	if _, err := r.pool.Exec(ctx, query, canonProduct(product), size, usdPerKg); err != nil {
		return fmt.Errorf("upsert base price: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetFixedCost(ctx context.Context, usdPerKg float64) error {
	query := `UPDATE pricing_defaults SET fixed_cost = $1, updated_at = now()`

	if _, err := r.pool.Exec(ctx, query, usdPerKg); err != nil {
		return fmt.Errorf("set fixed cost: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpsertFreightRate(ctx context.Context, destination string, usdPerKg float64) error {
	query := `
		INSERT INTO freight_rates (destination, usd_per_kg)
		VALUES ($1, $2)
		ON CONFLICT (destination)
		DO UPDATE SET usd_per_kg = EXCLUDED.usd_per_kg, updated_at = now()`

	if _, err := r.pool.Exec(ctx, query, strings.ToLower(destination), usdPerKg); err != nil {
		return fmt.Errorf("upsert freight rate: %w", err)
	}
	return nil
}
