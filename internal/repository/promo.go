package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avelinak/atelier-shop/internal/domain/promo"
)

const (
	promoColumns = `id, code, description, discount_type, discount_value, minimum_purchase,
		start_date, end_date, usage_limit, used_count, is_active, created_at, updated_at`

	getPromoByCodeSQL = `SELECT ` + promoColumns + `
		FROM promo_codes WHERE UPPER(code) = UPPER($1)`

	getPromoByIDSQL = `SELECT ` + promoColumns + `
		FROM promo_codes WHERE id = $1`

	listPromosSQL = `SELECT ` + promoColumns + `
		FROM promo_codes ORDER BY created_at DESC`

	insertPromoSQL = `INSERT INTO promo_codes (id, code, description, discount_type,
		discount_value, minimum_purchase, start_date, end_date, usage_limit, is_active)
		VALUES ($1, UPPER($2), $3, $4, $5, $6, $7, $8, $9, $10)`

	updatePromoSQL = `UPDATE promo_codes SET
		code = UPPER($2), description = $3, discount_type = $4, discount_value = $5,
		minimum_purchase = $6, start_date = $7, end_date = $8, usage_limit = $9,
		is_active = $10, updated_at = now()
		WHERE id = $1`

	deletePromoSQL = `DELETE FROM promo_codes WHERE id = $1`

	importPromoSQL = `INSERT INTO promo_codes (id, code, description, discount_type,
		discount_value, minimum_purchase, start_date, end_date, usage_limit, is_active)
		VALUES ($1, UPPER($2), $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (code) DO NOTHING`

	// The WHERE clause makes the increment conditional: of two concurrent
	// redemptions racing for the last remaining use, exactly one matches.
	redeemPromoSQL = `UPDATE promo_codes
		SET used_count = used_count + 1, updated_at = now()
		WHERE UPPER(code) = UPPER($1)
		AND (usage_limit IS NULL OR used_count < usage_limit)`
)

var _ promo.Repository = (*PromoRepository)(nil)

// PromoRepository implements promo.Repository backed by PostgreSQL.
type PromoRepository struct {
	pool *pgxpool.Pool
}

// NewPromoRepository returns a PromoRepository that uses the given pool.
func NewPromoRepository(pool *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{pool: pool}
}

// FindByCode looks up a promo code case-insensitively. Returns
// promo.ErrNotFound when no such code exists.
func (r *PromoRepository) FindByCode(ctx context.Context, code string) (*promo.PromoCode, error) {
	rows, err := r.pool.Query(ctx, getPromoByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding promo code %q: %w", code, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPromoCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrNotFound
		}
		return nil, fmt.Errorf("finding promo code %q: %w", code, err)
	}
	return &p, nil
}

// Redeem atomically increments the usage counter while it is below the
// limit. Returns promo.ErrUsageLimitReached when the code exists but is
// exhausted, promo.ErrNotFound when it does not exist.
func (r *PromoRepository) Redeem(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, redeemPromoSQL, code)
	if err != nil {
		return fmt.Errorf("redeeming promo code %q: %w", code, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Distinguish an exhausted code from a missing one.
	if _, err := r.FindByCode(ctx, code); err != nil {
		return err
	}
	return promo.ErrUsageLimitReached
}

// List returns all promo codes, newest first.
func (r *PromoRepository) List(ctx context.Context) ([]promo.PromoCode, error) {
	rows, err := r.pool.Query(ctx, listPromosSQL)
	if err != nil {
		return nil, fmt.Errorf("listing promo codes: %w", err)
	}
	return pgx.CollectRows(rows, scanPromoCode)
}

// GetByID returns a single promo code by its identifier.
func (r *PromoRepository) GetByID(ctx context.Context, id string) (*promo.PromoCode, error) {
	rows, err := r.pool.Query(ctx, getPromoByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting promo code %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPromoCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrNotFound
		}
		return nil, fmt.Errorf("getting promo code %q: %w", id, err)
	}
	return &p, nil
}

// Create inserts a new promo code, storing the code uppercase.
func (r *PromoRepository) Create(ctx context.Context, p *promo.PromoCode) error {
	_, err := r.pool.Exec(ctx, insertPromoSQL,
		p.ID, p.Code, p.Description, string(p.DiscountType),
		p.DiscountValue, p.MinimumPurchase, p.StartDate, p.EndDate,
		p.UsageLimit, p.IsActive,
	)
	if err != nil {
		return fmt.Errorf("creating promo code %q: %w", p.Code, err)
	}
	return nil
}

// Import inserts a promo code, silently keeping the existing row when the
// code is already present. Used by the bulk ingest tool.
func (r *PromoRepository) Import(ctx context.Context, p *promo.PromoCode) error {
	_, err := r.pool.Exec(ctx, importPromoSQL,
		p.ID, p.Code, p.Description, string(p.DiscountType),
		p.DiscountValue, p.MinimumPurchase, p.StartDate, p.EndDate,
		p.UsageLimit, p.IsActive,
	)
	if err != nil {
		return fmt.Errorf("importing promo code %q: %w", p.Code, err)
	}
	return nil
}

// Update persists all mutable promo code fields.
func (r *PromoRepository) Update(ctx context.Context, p *promo.PromoCode) error {
	tag, err := r.pool.Exec(ctx, updatePromoSQL,
		p.ID, p.Code, p.Description, string(p.DiscountType),
		p.DiscountValue, p.MinimumPurchase, p.StartDate, p.EndDate,
		p.UsageLimit, p.IsActive,
	)
	if err != nil {
		return fmt.Errorf("updating promo code %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return promo.ErrNotFound
	}
	return nil
}

// Delete removes a promo code by ID.
func (r *PromoRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deletePromoSQL, id)
	if err != nil {
		return fmt.Errorf("deleting promo code %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return promo.ErrNotFound
	}
	return nil
}

func scanPromoCode(row pgx.CollectableRow) (promo.PromoCode, error) {
	var (
		p            promo.PromoCode
		discountType string
	)
	err := row.Scan(
		&p.ID, &p.Code, &p.Description, &discountType, &p.DiscountValue,
		&p.MinimumPurchase, &p.StartDate, &p.EndDate, &p.UsageLimit,
		&p.UsedCount, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	p.DiscountType = promo.DiscountType(discountType)
	return p, err
}
