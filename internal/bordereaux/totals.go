package bordereaux

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
)

// Totals are the cached sums a bordereau carries for its shipments.
type Totals struct {
	CODAmount decimal.Decimal
	Shipping  decimal.Decimal
	Count     int
}

// ComputeTotals sums cod_amount and shipping_cost over shipments.
func ComputeTotals(shipments []models.Shipment) Totals {
	totals := Totals{CODAmount: decimal.Zero, Shipping: decimal.Zero}
	for _, s := range shipments {
		totals.CODAmount = totals.CODAmount.Add(s.CODAmount)
		totals.Shipping = totals.Shipping.Add(s.ShippingCost)
		totals.Count++
	}
	return totals
}

func (t Totals) columns() map[string]any {
	return map[string]any{
		"total_cod_amount": t.CODAmount,
		"total_shipping":   t.Shipping,
		"shipment_count":   t.Count,
	}
}

func (t Totals) matches(b *models.Bordereau) bool {
	return t.CODAmount.Equal(b.TotalCODAmount) && t.Shipping.Equal(b.TotalShipping) && t.Count == b.ShipmentCount
}
