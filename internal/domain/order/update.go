package order

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Patch carries optional field updates for an order. Nil fields are left
// untouched.
type Patch struct {
	Status              *string
	ShippingFee         *decimal.Decimal
	PromoCode           *string
	PromoDiscount       *Discount
	SpecialInstructions *string
	Address             *string
	PhoneNumber         *string
	Subtotal            *decimal.Decimal
}

// touchesTotal reports whether the patch requires recomputing the total.
func (p Patch) touchesTotal() bool {
	return p.ShippingFee != nil || p.PromoDiscount != nil || p.Subtotal != nil
}

// Update applies the patch to the order, recomputes the total when subtotal,
// shipping fee, or promo discount changed, and dispatches a status-change
// notification when the status actually moved.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previousStatus := o.Status

	if patch.Status != nil {
		status, err := ParseStatus(*patch.Status)
		if err != nil {
			return nil, err
		}
		o.Status = status
	}
	if patch.ShippingFee != nil {
		o.ShippingFee = *patch.ShippingFee
	}
	if patch.PromoCode != nil {
		o.PromoCode = strings.ToUpper(strings.TrimSpace(*patch.PromoCode))
	}
	if patch.PromoDiscount != nil {
		o.PromoDiscount = patch.PromoDiscount
	}
	if patch.SpecialInstructions != nil {
		o.SpecialInstructions = *patch.SpecialInstructions
	}
	if patch.Address != nil {
		o.Address = *patch.Address
	}
	if patch.PhoneNumber != nil {
		o.PhoneNumber = *patch.PhoneNumber
	}
	if patch.Subtotal != nil {
		o.Subtotal = *patch.Subtotal
	}

	if patch.touchesTotal() {
		// At this point the stored discount value is already normalized to
		// percentage points of the subtotal; fixed amounts were converted at
		// validation time.
		o.TotalAmount = computeTotal(o.Subtotal, o.PromoDiscount, o.ShippingFee)
	}

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}

	if o.Status != previousStatus {
		s.notifier.OrderStatusChanged(ctx, o)
	}

	return o, nil
}

// Delete reverses the sales counter increments for every line item and then
// removes the order. Counter reversal is best-effort and not transactional
// with the delete.
func (s *Service) Delete(ctx context.Context, id string) error {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}

	lg := zctx.From(ctx)
	for _, item := range o.Items {
		if err := s.products.IncrementSales(ctx, item.ProductID, -item.Quantity); err != nil {
			lg.Error("reverse sales count",
				zap.String("order_id", o.ID),
				zap.String("product_id", item.ProductID),
				zap.Error(err),
			)
		}
	}

	if err := s.orders.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete order")
	}
	return nil
}
