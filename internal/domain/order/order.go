package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/avelinak/atelier-shop/internal/domain/promo"
)

// Status is the fulfilment state of an order. Transitions are admin-triggered
// direct sets; any status may move to any other, including backward.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// ParseStatus maps a literal status string to a Status, rejecting anything
// outside the five known values.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), nil
	default:
		return "", &InvalidStatusError{Status: s}
	}
}

// Sentinel errors for order validation.
var (
	ErrEmptyItems = errors.New("no products in order")
	ErrNotFound   = errors.New("order not found")
)

// InvalidQuantityError indicates a line item with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// InvalidPriceError indicates a line item with a negative captured price.
type InvalidPriceError struct {
	ProductID string
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("price must not be negative for product %s", e.ProductID)
}

// ProductNotFoundError indicates a line item referencing an unknown product.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// MissingCustomerInfoError indicates a required customer field was not
// provided.
type MissingCustomerInfoError struct {
	Field string
}

func (e *MissingCustomerInfoError) Error() string {
	return fmt.Sprintf("missing customer information: %s", e.Field)
}

// InvalidStatusError indicates a status string outside the known enum.
type InvalidStatusError struct {
	Status string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid order status %q", e.Status)
}

// LineItem is one product position within an order. Price is captured at
// order time and never re-read from the catalog.
type LineItem struct {
	ProductID     string          `json:"productId"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	SelectedColor string          `json:"selectedColor,omitempty"`
	SelectedSize  string          `json:"selectedSize,omitempty"`
}

// Discount is a promo discount attached to an order. For percentage type
// Value is percentage points of the subtotal; for fixed type it is an
// absolute amount.
type Discount struct {
	Type  promo.DiscountType `json:"type"`
	Value decimal.Decimal    `json:"value"`
}

// Order is a placed customer order. Number is the human-readable sequential
// identifier assigned exactly once at creation.
type Order struct {
	ID                  string
	Number              int64
	Items               []LineItem
	Subtotal            decimal.Decimal
	PromoCode           string
	PromoDiscount       *Discount
	ShippingFee         decimal.Decimal
	TotalAmount         decimal.Decimal
	CustomerName        string
	CustomerEmail       string
	PhoneNumber         string
	Address             string
	SpecialInstructions string
	Status              Status
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Stats summarizes the order book for the admin dashboard.
type Stats struct {
	TotalOrders  int64
	TotalRevenue decimal.Decimal
	ByStatus     map[Status]int64
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	// GetByID returns ErrNotFound when no such order exists.
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	ListByEmail(ctx context.Context, email string) ([]Order, error)
	Update(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*Stats, error)
}

// Sequence hands out order numbers. Next must be atomic at the storage
// layer: concurrent calls never observe the same value.
type Sequence interface {
	Next(ctx context.Context) (int64, error)
}

// Notifier receives order lifecycle events. Implementations are best-effort
// and must never propagate delivery failures back to the caller.
type Notifier interface {
	OrderCreated(ctx context.Context, o *Order)
	OrderStatusChanged(ctx context.Context, o *Order)
}

var defaultShippingFee = decimal.NewFromInt(5)

// discountAmount computes the monetary discount a promo grants on the given
// subtotal: percentage of the subtotal, or the fixed amount, never negative.
func discountAmount(subtotal decimal.Decimal, d *Discount) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	var amount decimal.Decimal
	switch d.Type {
	case promo.DiscountFixed:
		amount = d.Value
	default:
		amount = subtotal.Mul(d.Value).Div(decimal.NewFromInt(100))
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// computeTotal applies the order total invariant:
// total = subtotal - discount + shipping, floored at zero, 2 decimal places.
func computeTotal(subtotal decimal.Decimal, d *Discount, shipping decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discountAmount(subtotal, d)).Add(shipping)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return total.Round(2)
}
