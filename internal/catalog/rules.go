package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/codcrm-backend/pkg/types"
	"github.com/angelmondragon/codcrm-backend/pkg/validate"
)

var one = decimal.NewFromInt(1)

// TierDiscountRate returns the rate of the highest tier whose min_qty is at
// most qty, zero when no tier applies.
func TierDiscountRate(tiers types.DiscountTiers, qty int) decimal.Decimal {
	return tiers.Rate(qty)
}

// checkTiers records one violation per offending tier field. Tiers must be
// given in strictly ascending min_qty order.
func checkTiers(v validate.Violations, tiers types.DiscountTiers) {
	prev := 0
	for i, tier := range tiers {
		field := fmt.Sprintf("discount_tiers[%d]", i)
		if tier.MinQty <= 0 {
			v.Add(field+".min_qty", "must be greater than 0")
		} else if i > 0 && tier.MinQty <= prev {
			v.Addf(field+".min_qty", "must be greater than the previous tier (%d)", prev)
		}
		if !tier.Discount.GreaterThan(decimal.Zero) || !tier.Discount.LessThan(one) {
			v.Add(field+".discount", "must be between 0 and 1 exclusive")
		}
		prev = tier.MinQty
	}
}

// checkCrossSell rejects self references and duplicates by index.
func checkCrossSell(v validate.Violations, self uuid.UUID, ids []uuid.UUID) {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for i, id := range ids {
		field := fmt.Sprintf("cross_sell_ids[%d]", i)
		if id == uuid.Nil {
			v.Add(field, "is required")
			continue
		}
		if id == self {
			v.Add(field, "cannot reference the product itself")
			continue
		}
		if _, dup := seen[id]; dup {
			v.Add(field, "is duplicated")
			continue
		}
		seen[id] = struct{}{}
	}
}
