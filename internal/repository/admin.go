package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avelinak/atelier-shop/internal/domain/notify"
)

const (
	listAdminTokensSQL = `SELECT device_token FROM admin_devices WHERE device_token <> ''`

	upsertAdminDeviceSQL = `INSERT INTO admin_devices (id, name, device_token)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name, device_token = EXCLUDED.device_token, updated_at = now()`
)

var _ notify.AdminDirectory = (*AdminRepository)(nil)

// AdminRepository resolves admin push tokens from PostgreSQL.
type AdminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository returns an AdminRepository that uses the given pool.
func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

// AdminTokens returns the device tokens of all admin devices that have one
// registered.
func (r *AdminRepository) AdminTokens(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listAdminTokensSQL)
	if err != nil {
		return nil, fmt.Errorf("listing admin tokens: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// RegisterDevice stores or refreshes an admin device token.
func (r *AdminRepository) RegisterDevice(ctx context.Context, id, name, token string) error {
	_, err := r.pool.Exec(ctx, upsertAdminDeviceSQL, id, name, token)
	if err != nil {
		return fmt.Errorf("registering admin device %q: %w", id, err)
	}
	return nil
}
