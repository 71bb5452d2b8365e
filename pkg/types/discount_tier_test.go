package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDiscountTiersRate(t *testing.T) {
	tiers := DiscountTiers{
		{MinQty: 5, Discount: decimal.RequireFromString("0.10")},
		{MinQty: 2, Discount: decimal.RequireFromString("0.05")},
		{MinQty: 10, Discount: decimal.RequireFromString("0.20")},
	}

	cases := map[int]string{0: "0", 1: "0", 2: "0.05", 4: "0.05", 5: "0.1", 9: "0.1", 10: "0.2", 50: "0.2"}
	for qty, want := range cases {
		assert.Truef(t, tiers.Rate(qty).Equal(decimal.RequireFromString(want)), "qty %d: got %s want %s", qty, tiers.Rate(qty), want)
	}
	assert.True(t, DiscountTiers(nil).Rate(3).IsZero())
}

func TestDiscountTiersSorted(t *testing.T) {
	tiers := DiscountTiers{{MinQty: 5}, {MinQty: 2}, {MinQty: 3}}
	sorted := tiers.Sorted()

	assert.Equal(t, []int{2, 3, 5}, []int{sorted[0].MinQty, sorted[1].MinQty, sorted[2].MinQty})
	assert.Equal(t, 5, tiers[0].MinQty)
}
