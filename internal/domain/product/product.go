package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// DiscountType enumerates the supported product discount strategies.
type DiscountType string

const (
	// DiscountPercentage stores the discounted price directly in Price and
	// keeps the percentage for display.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed stores the absolute amount off in the DiscountPercentage
	// field. Inherited data layout, kept for compatibility with existing rows.
	DiscountFixed DiscountType = "fixed"
)

// Product represents a catalog item available for purchase.
//
// Optional fields use pointers: nil means the field is absent, never
// "key omitted". OriginalPrice is only set while a discount is applied and
// holds the pre-discount price.
type Product struct {
	ID                 string
	Name               string
	Description        string
	Price              decimal.Decimal
	OriginalPrice      *decimal.Decimal
	DiscountPercentage decimal.Decimal
	DiscountType       DiscountType
	DiscountEndDate    *time.Time
	IsBlackFridayDeal  bool
	Colors             []string
	Sizes              []string
	Images             []string
	Category           string
	Categories         []string
	SalesCount         int64
	Stock              int
	SoldOut            bool
	Hidden             bool
	Rating             float64
	ReviewCount        int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	ListByCategory(ctx context.Context, category string) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Update(ctx context.Context, p *Product) error
	// IncrementSales adjusts the sales counter by delta in a single atomic
	// statement, clamped at zero.
	IncrementSales(ctx context.Context, id string, delta int) error
}
