package types

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DiscountTier grants Discount (a fraction of the line subtotal) once an
// order line reaches MinQty units.
type DiscountTier struct {
	MinQty   int             `json:"min_qty" validate:"gt=0"`
	Discount decimal.Decimal `json:"discount"`
}

// DiscountTiers is stored as a JSON column on products.
type DiscountTiers []DiscountTier

// Rate returns the discount of the highest tier whose MinQty is at most qty.
// Tiers do not need to be sorted.
func (t DiscountTiers) Rate(qty int) decimal.Decimal {
	rate := decimal.Zero
	best := 0
	for _, tier := range t {
		if tier.MinQty <= qty && tier.MinQty > best {
			best = tier.MinQty
			rate = tier.Discount
		}
	}
	return rate
}

// Sorted returns a copy ordered by MinQty ascending.
func (t DiscountTiers) Sorted() DiscountTiers {
	out := make(DiscountTiers, len(t))
	copy(out, t)
	sort.SliceStable(out, func(i, j int) bool { return out[i].MinQty < out[j].MinQty })
	return out
}
