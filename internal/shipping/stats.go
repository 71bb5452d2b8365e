package shipping

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryWindow is the pickup and delivery time of one shipment.
type DeliveryWindow struct {
	PickedUpAt  *time.Time
	DeliveredAt *time.Time
}

var day = decimal.NewFromInt(int64(24 * time.Hour))

// AvgDeliveryDays is the mean of delivered_at − picked_up_at in days over the
// windows that have both timestamps, rounded to two places. Zero when none do.
func AvgDeliveryDays(windows []DeliveryWindow) decimal.Decimal {
	total := decimal.Zero
	count := int64(0)
	for _, w := range windows {
		if w.PickedUpAt == nil || w.DeliveredAt == nil {
			continue
		}
		elapsed := w.DeliveredAt.Sub(*w.PickedUpAt)
		if elapsed < 0 {
			continue
		}
		total = total.Add(decimal.NewFromInt(int64(elapsed)))
		count++
	}
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(day).Div(decimal.NewFromInt(count)).Round(2)
}
