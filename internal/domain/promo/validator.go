package promo

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Validation is the result of a successful promo code check.
//
// Discount is normalized for uniform application by the caller:
//   - percentage codes return their percentage as-is;
//   - fixed codes with a minimum purchase are converted to the equivalent
//     percentage of that minimum, (value / minimum) * 100;
//   - fixed codes without a minimum purchase return the absolute amount
//     (Type stays "fixed" so the caller applies it flat; converting would
//     divide by zero);
//   - shipping codes return 100, signalling "waive the shipping fee".
type Validation struct {
	Discount        decimal.Decimal
	Type            DiscountType
	MinimumPurchase decimal.Decimal
}

// Validator checks promo codes against their activity flag, validity window,
// usage limit, and minimum purchase. It is read-only: redemption counting
// happens separately when an order is finalized.
type Validator struct {
	repo Repository
	now  func() time.Time
}

// NewValidator creates a Validator backed by the given repository.
func NewValidator(repo Repository) *Validator {
	return &Validator{repo: repo, now: time.Now}
}

// Validate checks the given code and, when subtotal is non-nil, the minimum
// purchase requirement against it. The code is matched case-insensitively.
func (v *Validator) Validate(ctx context.Context, code string, subtotal *decimal.Decimal) (*Validation, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrNotFound
	}

	pc, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup promo code")
	}

	now := v.now()
	if !pc.IsActive || now.Before(pc.StartDate) || !now.Before(pc.EndDate) {
		return nil, ErrNotFound
	}

	if pc.UsageLimit != nil && pc.UsedCount >= *pc.UsageLimit {
		return nil, ErrUsageLimitReached
	}

	if subtotal != nil && subtotal.LessThan(pc.MinimumPurchase) {
		return nil, &MinimumPurchaseError{Minimum: pc.MinimumPurchase}
	}

	result := &Validation{
		Type:            pc.DiscountType,
		MinimumPurchase: pc.MinimumPurchase,
	}

	switch pc.DiscountType {
	case DiscountPercentage:
		result.Discount = pc.DiscountValue
	case DiscountFixed:
		if pc.MinimumPurchase.IsPositive() {
			result.Discount = pc.DiscountValue.Div(pc.MinimumPurchase).Mul(hundred)
			result.Type = DiscountPercentage
		} else {
			result.Discount = pc.DiscountValue
		}
	case DiscountShipping:
		result.Discount = hundred
	default:
		return nil, errors.Errorf("unsupported discount type: %q", pc.DiscountType)
	}

	return result, nil
}
