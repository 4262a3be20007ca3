package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Sentinel errors for discount administration.
var (
	ErrInvalidDiscountValue = errors.New("invalid discount value")
	ErrPercentageTooLarge   = errors.New("percentage discount cannot exceed 100%")
	ErrNoProductsMatched    = errors.New("no products found to update")
)

// Target selects the product set a bulk discount operation applies to.
// The zero value targets the whole catalog.
type Target struct {
	ProductID string
	Category  string
}

// Service implements catalog administration: bulk discount application and
// reset across a target set of products.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a catalog Service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// resolve loads the products matched by the target.
func (s *Service) resolve(ctx context.Context, t Target) ([]Product, error) {
	switch {
	case t.ProductID != "":
		p, err := s.repo.GetByID(ctx, t.ProductID)
		if err != nil {
			return nil, err
		}
		return []Product{*p}, nil
	case t.Category != "":
		return s.repo.ListByCategory(ctx, t.Category)
	default:
		return s.repo.List(ctx)
	}
}

// ApplyDiscount puts every targeted product on sale. The pre-discount price
// is captured in OriginalPrice (seeded from the current price on first
// application), the sale price is computed from the discount type, and the
// discount fields are persisted. Product updates run concurrently; the first
// failure aborts the group.
func (s *Service) ApplyDiscount(
	ctx context.Context,
	t Target,
	value decimal.Decimal,
	discountType DiscountType,
	endDate *time.Time,
) ([]Product, error) {
	if !value.IsPositive() {
		return nil, ErrInvalidDiscountValue
	}
	if discountType == DiscountPercentage && value.GreaterThan(hundred) {
		return nil, ErrPercentageTooLarge
	}

	products, err := s.resolve(ctx, t)
	if err != nil {
		return nil, errors.Wrap(err, "resolve target")
	}
	if len(products) == 0 {
		return nil, ErrNoProductsMatched
	}

	now := s.now()
	updated := make([]Product, len(products))

	g, ctx := errgroup.WithContext(ctx)
	for i, p := range products {
		g.Go(func() error {
			original := basePrice(p)
			var price decimal.Decimal
			if discountType == DiscountFixed {
				price = original.Sub(value)
				if price.IsNegative() {
					price = decimal.Zero
				}
			} else {
				price = original.Mul(decimal.NewFromInt(1).Sub(value.Div(hundred)))
			}

			p.OriginalPrice = &original
			p.Price = price.Round(2)
			p.DiscountPercentage = value
			p.DiscountType = discountType
			p.DiscountEndDate = endDate

			p = ApplyExpiryPolicy(p, now)
			if err := s.repo.Update(ctx, &p); err != nil {
				return errors.Wrapf(err, "update product %s", p.ID)
			}
			updated[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return updated, nil
}

// ResetDiscount takes every targeted product off sale: the price is restored
// from OriginalPrice when present and all discount fields are cleared.
func (s *Service) ResetDiscount(ctx context.Context, t Target) ([]Product, error) {
	products, err := s.resolve(ctx, t)
	if err != nil {
		return nil, errors.Wrap(err, "resolve target")
	}
	if len(products) == 0 {
		return nil, ErrNoProductsMatched
	}

	now := s.now()
	updated := make([]Product, len(products))

	g, ctx := errgroup.WithContext(ctx)
	for i, p := range products {
		g.Go(func() error {
			if p.OriginalPrice != nil {
				p.Price = *p.OriginalPrice
				p.OriginalPrice = nil
			}
			p.DiscountPercentage = decimal.Zero
			p.DiscountType = DiscountPercentage
			p.DiscountEndDate = nil
			p.IsBlackFridayDeal = false

			p = ApplyExpiryPolicy(p, now)
			if err := s.repo.Update(ctx, &p); err != nil {
				return errors.Wrapf(err, "update product %s", p.ID)
			}
			updated[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return updated, nil
}
