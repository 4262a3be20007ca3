package product

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// basePrice returns the pre-discount price: OriginalPrice when a discount has
// captured it, Price otherwise.
func basePrice(p Product) decimal.Decimal {
	if p.OriginalPrice != nil {
		return *p.OriginalPrice
	}
	return p.Price
}

// HasActiveDiscount reports whether p carries a discount that is currently in
// effect: a nonzero discount value with an end date that has not passed.
func HasActiveDiscount(p Product, now time.Time) bool {
	return p.DiscountPercentage.IsPositive() &&
		p.DiscountEndDate != nil &&
		now.Before(*p.DiscountEndDate)
}

// CurrentPrice returns the effective sale price of p at the given time.
//
// For an active fixed discount the absolute amount (stored in
// DiscountPercentage) is subtracted from the base price, floored at zero.
// For an active percentage discount Price already holds the discounted value,
// written when the discount was applied. With no active discount the base
// price applies.
func CurrentPrice(p Product, now time.Time) decimal.Decimal {
	if HasActiveDiscount(p, now) {
		if p.DiscountType == DiscountFixed {
			price := basePrice(p).Sub(p.DiscountPercentage)
			if price.IsNegative() {
				return decimal.Zero
			}
			return price
		}
		return p.Price
	}
	return basePrice(p)
}

// DiscountAmount returns how much the active discount saves off the base
// price, or zero when no discount is in effect.
func DiscountAmount(p Product, now time.Time) decimal.Decimal {
	if !HasActiveDiscount(p, now) {
		return decimal.Zero
	}
	if p.DiscountType == DiscountFixed {
		return p.DiscountPercentage
	}
	return basePrice(p).Mul(p.DiscountPercentage).Div(hundred)
}

// ApplyExpiryPolicy returns a copy of p with an expired discount cleared and
// category fields normalized. It runs on every write path; there is no
// background sweep, so a product that is never written again keeps showing
// its discounted price after expiry.
func ApplyExpiryPolicy(p Product, now time.Time) Product {
	if p.DiscountEndDate != nil && now.After(*p.DiscountEndDate) {
		p.DiscountPercentage = decimal.Zero
		p.DiscountType = DiscountPercentage
		if p.OriginalPrice != nil {
			p.Price = *p.OriginalPrice
			p.OriginalPrice = nil
		}
		p.DiscountEndDate = nil
		p.IsBlackFridayDeal = false
	}

	// The primary category is always a member of the categories set, and a
	// missing primary falls back to the first listed category.
	if p.Category != "" && !slices.Contains(p.Categories, p.Category) {
		p.Categories = append(p.Categories, p.Category)
	}
	if p.Category == "" && len(p.Categories) > 0 {
		p.Category = p.Categories[0]
	}

	return p
}
