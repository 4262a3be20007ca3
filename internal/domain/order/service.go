package order

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/avelinak/atelier-shop/internal/domain/product"
	"github.com/avelinak/atelier-shop/internal/domain/promo"
)

// CreateRequest holds the input for placing an order. Subtotal and line item
// prices are trusted as submitted; the service stores them verbatim.
type CreateRequest struct {
	Items               []LineItem
	Subtotal            decimal.Decimal
	ShippingFee         *decimal.Decimal
	PromoCode           string
	PromoDiscount       *Discount
	CustomerName        string
	CustomerEmail       string
	PhoneNumber         string
	Address             string
	SpecialInstructions string
}

// CreateResult holds a placed order together with product snapshots for
// client display.
type CreateResult struct {
	Order    *Order
	Products []product.Product
}

// Service implements the order lifecycle: creation, status updates, and
// deletion, with best-effort side effects (sales counters, promo redemption,
// admin notifications) that never fail the primary operation.
type Service struct {
	orders   Repository
	products product.Repository
	promos   promo.Repository
	seq      Sequence
	notifier Notifier
}

// NewService creates an order Service with the required collaborators.
func NewService(
	orders Repository,
	products product.Repository,
	promos promo.Repository,
	seq Sequence,
	notifier Notifier,
) *Service {
	return &Service{
		orders:   orders,
		products: products,
		promos:   promos,
		seq:      seq,
		notifier: notifier,
	}
}

// Create validates the request, assigns the next order number, persists the
// order, and then runs the best-effort pipeline: sales counters, promo
// redemption, admin notification. Validation failures happen before any
// mutation; pipeline failures are logged and swallowed.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity < 1 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		if item.Price.IsNegative() {
			return nil, &InvalidPriceError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	if err := validateCustomer(req); err != nil {
		return nil, err
	}

	// Batch existence check; prices stay as submitted.
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}
	snapshots := make([]product.Product, 0, len(req.Items))
	for _, item := range req.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		snapshots = append(snapshots, p)
	}

	shipping := defaultShippingFee
	if req.ShippingFee != nil {
		shipping = *req.ShippingFee
	}

	number, err := s.seq.Next(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "assign order number")
	}

	o := &Order{
		ID:                  uuid.New().String(),
		Number:              number,
		Items:               req.Items,
		Subtotal:            req.Subtotal,
		PromoCode:           strings.ToUpper(strings.TrimSpace(req.PromoCode)),
		PromoDiscount:       req.PromoDiscount,
		ShippingFee:         shipping,
		TotalAmount:         computeTotal(req.Subtotal, req.PromoDiscount, shipping),
		CustomerName:        req.CustomerName,
		CustomerEmail:       strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
		PhoneNumber:         req.PhoneNumber,
		Address:             req.Address,
		SpecialInstructions: req.SpecialInstructions,
		Status:              StatusPending,
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.afterCreate(ctx, o)

	return &CreateResult{Order: o, Products: snapshots}, nil
}

// afterCreate runs the best-effort steps that follow a successful persist.
// Failures are logged; nothing is rolled back.
func (s *Service) afterCreate(ctx context.Context, o *Order) {
	lg := zctx.From(ctx)

	for _, item := range o.Items {
		if err := s.products.IncrementSales(ctx, item.ProductID, item.Quantity); err != nil {
			lg.Error("increment sales count",
				zap.String("order_id", o.ID),
				zap.String("product_id", item.ProductID),
				zap.Error(err),
			)
		}
	}

	if o.PromoCode != "" {
		if err := s.promos.Redeem(ctx, o.PromoCode); err != nil {
			lg.Error("redeem promo code",
				zap.String("order_id", o.ID),
				zap.String("promo_code", o.PromoCode),
				zap.Error(err),
			)
		}
	}

	s.notifier.OrderCreated(ctx, o)
}

func validateCustomer(req CreateRequest) error {
	switch {
	case strings.TrimSpace(req.CustomerName) == "":
		return &MissingCustomerInfoError{Field: "customerName"}
	case strings.TrimSpace(req.PhoneNumber) == "":
		return &MissingCustomerInfoError{Field: "phoneNumber"}
	case strings.TrimSpace(req.Address) == "":
		return &MissingCustomerInfoError{Field: "address"}
	}
	return nil
}
