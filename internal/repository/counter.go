package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avelinak/atelier-shop/internal/domain/order"
)

// The upsert both seeds a missing counter row and increments an existing one
// in a single atomic statement, so concurrent callers always observe
// distinct values.
const nextSequenceSQL = `INSERT INTO counters (name, seq) VALUES ($1, 1)
	ON CONFLICT (name) DO UPDATE SET seq = counters.seq + 1
	RETURNING seq`

var _ order.Sequence = (*CounterRepository)(nil)

// CounterRepository hands out named monotonic sequence values backed by a
// PostgreSQL counters table.
type CounterRepository struct {
	pool *pgxpool.Pool
	name string
}

// NewCounterRepository returns a CounterRepository for the named counter.
func NewCounterRepository(pool *pgxpool.Pool, name string) *CounterRepository {
	return &CounterRepository{pool: pool, name: name}
}

// Next returns the next value of the counter, starting from 1.
func (r *CounterRepository) Next(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.pool.QueryRow(ctx, nextSequenceSQL, r.name).Scan(&seq); err != nil {
		return 0, fmt.Errorf("incrementing counter %q: %w", r.name, err)
	}
	return seq, nil
}
