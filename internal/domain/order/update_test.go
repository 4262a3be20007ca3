package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelinak/atelier-shop/internal/domain/promo"
)

func strPtr(s string) *string                   { return &s }
func decPtr(d decimal.Decimal) *decimal.Decimal { return &d }

func storedOrder(f *fixture) *Order {
	o := &Order{
		ID:          "ord-1",
		Number:      7,
		Items:       []LineItem{{ProductID: "p1", Quantity: 2, Price: decimal.NewFromInt(10)}},
		Subtotal:    decimal.NewFromInt(20),
		ShippingFee: decimal.NewFromInt(5),
		TotalAmount: decimal.NewFromInt(25),
		Status:      StatusPending,
	}
	f.orders.byID[o.ID] = o
	return o
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Update(context.Background(), "nope", Patch{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_InvalidStatus(t *testing.T) {
	f := newFixture()
	storedOrder(f)

	_, err := f.svc.Update(context.Background(), "ord-1", Patch{Status: strPtr("teleported")})

	var isErr *InvalidStatusError
	require.ErrorAs(t, err, &isErr)
	assert.Equal(t, "teleported", isErr.Status)
	assert.Empty(t, f.notifier.statusChanged)
}

func TestUpdate_PromoCodeUppercased(t *testing.T) {
	f := newFixture()
	storedOrder(f)

	updated, err := f.svc.Update(context.Background(), "ord-1", Patch{PromoCode: strPtr("  save10 ")})
	require.NoError(t, err)

	// Stored the same way Create stores it, so lookups and Redeem match.
	assert.Equal(t, "SAVE10", updated.PromoCode)
}

func TestUpdate_StatusChangeNotifiesOnce(t *testing.T) {
	f := newFixture()
	storedOrder(f)

	updated, err := f.svc.Update(context.Background(), "ord-1", Patch{Status: strPtr("Shipped")})
	require.NoError(t, err)

	assert.Equal(t, StatusShipped, updated.Status)
	// Total untouched: status alone never triggers a recompute.
	assert.True(t, decimal.NewFromInt(25).Equal(updated.TotalAmount))
	require.Len(t, f.notifier.statusChanged, 1)
	assert.Same(t, updated, f.notifier.statusChanged[0])
}

func TestUpdate_SameStatusDoesNotNotify(t *testing.T) {
	f := newFixture()
	storedOrder(f)

	_, err := f.svc.Update(context.Background(), "ord-1", Patch{Status: strPtr("Pending")})
	require.NoError(t, err)
	assert.Empty(t, f.notifier.statusChanged)
}

func TestUpdate_RecomputesTotal(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
		total string
	}{
		{
			name:  "subtotal change",
			patch: Patch{Subtotal: decPtr(decimal.NewFromInt(100))},
			total: "105",
		},
		{
			name:  "shipping change",
			patch: Patch{ShippingFee: decPtr(decimal.Zero)},
			total: "20",
		},
		{
			name: "percentage discount applied",
			patch: Patch{
				PromoDiscount: &Discount{Type: promo.DiscountPercentage, Value: decimal.NewFromInt(50)},
			},
			total: "15",
		},
		{
			name: "fixed discount exceeding subtotal floors total at zero",
			patch: Patch{
				PromoDiscount: &Discount{Type: promo.DiscountFixed, Value: decimal.NewFromInt(100)},
			},
			total: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			storedOrder(f)

			updated, err := f.svc.Update(context.Background(), "ord-1", tt.patch)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.total).Equal(updated.TotalAmount),
				"total %s", updated.TotalAmount)
		})
	}
}

func TestUpdate_UntouchedFieldsKeepTotal(t *testing.T) {
	f := newFixture()
	storedOrder(f)

	updated, err := f.svc.Update(context.Background(), "ord-1", Patch{
		Address:             strPtr("2 New Lane"),
		SpecialInstructions: strPtr("leave at door"),
	})
	require.NoError(t, err)

	assert.Equal(t, "2 New Lane", updated.Address)
	assert.Equal(t, "leave at door", updated.SpecialInstructions)
	assert.True(t, decimal.NewFromInt(25).Equal(updated.TotalAmount))
}

func TestUpdate_PersistFailure(t *testing.T) {
	f := newFixture()
	storedOrder(f)
	f.orders.updateErr = errors.New("db write failed")

	_, err := f.svc.Update(context.Background(), "ord-1", Patch{Status: strPtr("Shipped")})

	require.Error(t, err)
	assert.Empty(t, f.notifier.statusChanged, "failed update must not notify")
}

func TestDelete_ReversesSalesCounts(t *testing.T) {
	f := newFixture()
	f.products.sales = map[string]int{"p1": 5}
	storedOrder(f)

	err := f.svc.Delete(context.Background(), "ord-1")
	require.NoError(t, err)

	assert.Equal(t, 3, f.products.sales["p1"])
	assert.Equal(t, []string{"ord-1"}, f.orders.deleted)
}

func TestDelete_CounterFailureStillDeletes(t *testing.T) {
	f := newFixture()
	storedOrder(f)
	f.products.incErr = errors.New("update failed")

	err := f.svc.Delete(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ord-1"}, f.orders.deleted)
}

func TestDelete_NotFound(t *testing.T) {
	f := newFixture()
	err := f.svc.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
