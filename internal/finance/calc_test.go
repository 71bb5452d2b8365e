package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCostPerLead(t *testing.T) {
	assert.True(t, dec("12.5").Equal(CostPerLead(dec("250"), 20)))
	assert.True(t, dec("25").Equal(CostPerLead(dec("100"), 4)))
	third := CostPerLead(dec("100"), 3)
	assert.True(t, third.GreaterThan(dec("33.33")))
	assert.True(t, dec("33.33").Equal(third.Round(2)))
	assert.True(t, CostPerLead(dec("250"), 0).IsZero())
}

func TestROAS(t *testing.T) {
	assert.True(t, dec("3.2").Equal(ROAS(dec("800"), dec("250"))))
	assert.True(t, ROAS(dec("800"), decimal.Zero).IsZero())
}

func TestSummarize(t *testing.T) {
	settings := &models.SystemCostSettings{
		ConfirmationFee: dec("5"),
		PackagingFee:    dec("3"),
		ReturnFee:       dec("10"),
		CODFeePercent:   dec("2.5"),
	}
	figures := Figures{
		AdSpend:       dec("200"),
		Leads:         40,
		OrdersCreated: 10,
		Delivered:     4,
		Returned:      1,
		Revenue:       dec("1000"),
		ProductCost:   dec("300"),
		ShippingCost:  dec("175"),
	}
	summary := Summarize(figures, settings)

	// 4*(5+3) + 1*10 + 2.5% of 1000
	assert.True(t, dec("67").Equal(summary.Fees))
	assert.True(t, dec("258").Equal(summary.Profit))
	assert.True(t, dec("5").Equal(summary.CostPerLead))
	assert.True(t, dec("5").Equal(summary.ROAS))
	assert.True(t, dec("0.4").Equal(summary.ConfirmationRate))
}

func TestSummarizeEmptyRangeIsZero(t *testing.T) {
	summary := Summarize(Figures{}, &models.SystemCostSettings{})
	assert.True(t, summary.Profit.IsZero())
	assert.True(t, summary.ROAS.IsZero())
	assert.True(t, summary.CostPerLead.IsZero())
	assert.True(t, summary.ConfirmationRate.IsZero())
}

func TestFixedCostsProratesByCalendarMonth(t *testing.T) {
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }

	assert.True(t, dec("310").Equal(FixedCosts(dec("310"), day(time.May, 1), day(time.May, 31))))
	assert.True(t, dec("100").Equal(FixedCosts(dec("310"), day(time.May, 1), day(time.May, 10))))
	// 300/30 for April 30 plus 300/31 for May 1
	assert.True(t, dec("19.68").Equal(FixedCosts(dec("300"), day(time.April, 30), day(time.May, 1))))
	assert.True(t, dec("600").Equal(FixedCosts(dec("300"), day(time.April, 1), day(time.May, 31))))
	assert.True(t, FixedCosts(decimal.Zero, day(time.May, 1), day(time.May, 31)).IsZero())
	assert.True(t, FixedCosts(dec("300"), day(time.May, 2), day(time.May, 1)).IsZero())
}

func TestSummarizeSubtractsFixedCosts(t *testing.T) {
	summary := Summarize(Figures{Revenue: dec("1000"), ProductCost: dec("300"), FixedCosts: dec("100")}, &models.SystemCostSettings{})
	assert.True(t, dec("100").Equal(summary.FixedCosts))
	assert.True(t, dec("600").Equal(summary.Profit))
}
