package orders

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/validate"
)

// ComputeTotal returns Σ(item.subtotal − item.discount) − orderDiscount.
func ComputeTotal(items []models.OrderItem, orderDiscount decimal.Decimal) decimal.Decimal {
	return itemsNet(items).Sub(orderDiscount)
}

func itemsNet(items []models.OrderItem) decimal.Decimal {
	net := decimal.Zero
	for _, item := range items {
		net = net.Add(item.Subtotal().Sub(item.Discount))
	}
	return net
}

// checkOrder validates the order as a whole: every line and the order
// discount against the lines.
func checkOrder(v validate.Violations, items []models.OrderItem, orderDiscount decimal.Decimal) {
	if len(items) == 0 {
		v.Add("items", "must contain at least one item")
	}
	for i, item := range items {
		checkItem(v, fmt.Sprintf("items[%d]", i), item)
	}
	v.NonNegative("discount", orderDiscount)
	if orderDiscount.GreaterThan(itemsNet(items)) {
		v.Add("discount", "must not exceed the items total")
	}
}

func checkItem(v validate.Violations, prefix string, item models.OrderItem) {
	v.Check(item.Quantity >= 1, prefix+".quantity", "must be at least 1")
	v.NonNegative(prefix+".unit_price", item.UnitPrice)
	v.NonNegative(prefix+".discount", item.Discount)
	if item.Discount.GreaterThan(item.Subtotal()) {
		v.Add(prefix+".discount", "must not exceed the line subtotal")
	}
}
