package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
)

var hundred = decimal.NewFromInt(100)

// CostPerLead is amount / leads, zero without leads. The ratio is not rounded.
func CostPerLead(amount decimal.Decimal, leads int64) decimal.Decimal {
	if leads <= 0 {
		return decimal.Zero
	}
	return amount.Div(decimal.NewFromInt(leads))
}

// ROAS is revenue / spend rounded to two places, zero without spend.
func ROAS(revenue, spend decimal.Decimal) decimal.Decimal {
	if spend.IsZero() {
		return decimal.Zero
	}
	return revenue.Div(spend).Round(2)
}

func ratio(part, whole int64) decimal.Decimal {
	if whole <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).Div(decimal.NewFromInt(whole)).Round(4)
}

// Figures are the raw sums the summary is computed from.
type Figures struct {
	AdSpend       decimal.Decimal
	Leads         int64
	OrdersCreated int64
	Delivered     int64
	Returned      int64
	Revenue       decimal.Decimal
	ProductCost   decimal.Decimal
	ShippingCost  decimal.Decimal
	FixedCosts    decimal.Decimal
}

// FixedCosts prorates monthly over the inclusive days from..to. Each day
// carries monthly divided by the length of its calendar month.
func FixedCosts(monthly decimal.Decimal, from, to time.Time) decimal.Decimal {
	from, to = Day(from), Day(to)
	if monthly.IsZero() || to.Before(from) {
		return decimal.Zero
	}
	total := decimal.Zero
	for day := from; !day.After(to); {
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		next := first.AddDate(0, 1, 0)
		last := next.AddDate(0, 0, -1)
		if last.After(to) {
			last = to
		}
		days := decimal.NewFromInt(int64(last.Sub(day).Hours()/24) + 1)
		length := decimal.NewFromInt(int64(next.Sub(first).Hours() / 24))
		total = total.Add(monthly.Mul(days).Div(length))
		day = next
	}
	return total.Round(2)
}

// Fees charges confirmation and packaging per delivered order, the return
// fee per returned order and the COD percentage of revenue.
func Fees(f Figures, settings *models.SystemCostSettings) decimal.Decimal {
	delivered := decimal.NewFromInt(f.Delivered)
	returned := decimal.NewFromInt(f.Returned)
	perDelivered := settings.ConfirmationFee.Add(settings.PackagingFee).Mul(delivered)
	perReturned := settings.ReturnFee.Mul(returned)
	cod := f.Revenue.Mul(settings.CODFeePercent).Div(hundred)
	return perDelivered.Add(perReturned).Add(cod).Round(2)
}

// Summarize derives the profit summary from figures and settings.
func Summarize(f Figures, settings *models.SystemCostSettings) Summary {
	fees := Fees(f, settings)
	profit := f.Revenue.Sub(f.ProductCost).Sub(f.ShippingCost).Sub(f.AdSpend).Sub(fees).Sub(f.FixedCosts)
	return Summary{
		AdSpend:          f.AdSpend,
		Leads:            f.Leads,
		CostPerLead:      CostPerLead(f.AdSpend, f.Leads),
		OrdersCreated:    f.OrdersCreated,
		Delivered:        f.Delivered,
		Returned:         f.Returned,
		Revenue:          f.Revenue,
		ProductCost:      f.ProductCost,
		ShippingCost:     f.ShippingCost,
		Fees:             fees,
		FixedCosts:       f.FixedCosts,
		Profit:           profit.Round(2),
		ROAS:             ROAS(f.Revenue, f.AdSpend),
		ConfirmationRate: ratio(f.Delivered, f.OrdersCreated),
	}
}
