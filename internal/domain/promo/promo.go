package promo

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported promo code discount strategies.
type DiscountType string

const (
	// DiscountPercentage takes a percentage off the cart subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed takes a fixed monetary amount off the cart subtotal.
	DiscountFixed DiscountType = "fixed"
	// DiscountShipping waives the shipping fee. The validator only signals
	// this; the caller mutates the fee.
	DiscountShipping DiscountType = "shipping"
)

var (
	// ErrNotFound is returned when a code does not exist, is inactive, or is
	// outside its validity window. The three cases are deliberately
	// indistinguishable to callers.
	ErrNotFound = errors.New("invalid or expired promo code")
	// ErrUsageLimitReached is returned when a limited code is exhausted.
	ErrUsageLimitReached = errors.New("promo code has reached its usage limit")
	// ErrEndBeforeStart is returned when a code's end date does not follow
	// its start date.
	ErrEndBeforeStart = errors.New("end date must be after start date")
	// ErrPercentageTooLarge is returned for percentage values above 100.
	ErrPercentageTooLarge = errors.New("percentage discount cannot exceed 100%")
	// ErrValueNegative is returned for negative discount values.
	ErrValueNegative = errors.New("discount value must not be negative")
)

// MinimumPurchaseError indicates the cart subtotal is below the code's
// minimum purchase requirement.
type MinimumPurchaseError struct {
	Minimum decimal.Decimal
}

func (e *MinimumPurchaseError) Error() string {
	return fmt.Sprintf("minimum purchase of %s required to use this promo code", e.Minimum)
}

// PromoCode defines a redeemable discount code. Codes are stored uppercase
// and matched case-insensitively.
type PromoCode struct {
	ID              string
	Code            string
	Description     string
	DiscountType    DiscountType
	DiscountValue   decimal.Decimal
	MinimumPurchase decimal.Decimal
	StartDate       time.Time
	EndDate         time.Time
	UsageLimit      *int
	UsedCount       int
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CheckValid validates the code's own field constraints, used on create and
// update.
func (p *PromoCode) CheckValid() error {
	if p.DiscountValue.IsNegative() {
		return ErrValueNegative
	}
	if p.DiscountType == DiscountPercentage && p.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return ErrPercentageTooLarge
	}
	if !p.EndDate.After(p.StartDate) {
		return ErrEndBeforeStart
	}
	return nil
}

// Repository provides lookup, administration, and redemption of promo codes.
type Repository interface {
	// FindByCode matches case-insensitively and returns ErrNotFound when no
	// such code exists.
	FindByCode(ctx context.Context, code string) (*PromoCode, error)
	// Redeem increments the usage counter in one conditional atomic
	// statement: the increment only happens while used_count is still below
	// the usage limit, so two concurrent redemptions of the last remaining
	// use cannot both succeed. Returns ErrUsageLimitReached when the
	// condition fails.
	Redeem(ctx context.Context, code string) error

	List(ctx context.Context) ([]PromoCode, error)
	GetByID(ctx context.Context, id string) (*PromoCode, error)
	Create(ctx context.Context, p *PromoCode) error
	Update(ctx context.Context, p *PromoCode) error
	Delete(ctx context.Context, id string) error
}
