package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
)

const dateLayout = "2006-01-02"

type TransactionDTO struct {
	ID          uuid.UUID             `json:"id"`
	Type        enums.TransactionType `json:"type"`
	Amount      decimal.Decimal       `json:"amount"`
	OrderID     *uuid.UUID            `json:"order_id,omitempty"`
	Description *string               `json:"description,omitempty"`
	OccurredAt  time.Time             `json:"occurred_at"`
	CreatedBy   *uuid.UUID            `json:"created_by,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

type CreateTransactionInput struct {
	Type        string          `json:"type" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	OrderID     *uuid.UUID      `json:"order_id,omitempty"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=1000"`
	OccurredAt  *time.Time      `json:"occurred_at,omitempty"`
}

type TransactionListParams struct {
	pagination.Params
	Type *enums.TransactionType
	From *time.Time
	To   *time.Time
}

type AdSpendDTO struct {
	ID             uuid.UUID        `json:"id"`
	Date           string           `json:"date"`
	Platform       enums.LeadSource `json:"platform"`
	Campaign       string           `json:"campaign"`
	Amount         decimal.Decimal  `json:"amount"`
	LeadsGenerated int              `json:"leads_generated"`
	Revenue        decimal.Decimal  `json:"revenue"`
	CostPerLead    decimal.Decimal  `json:"cost_per_lead"`
	ROAS           decimal.Decimal  `json:"roas"`
	Notes          *string          `json:"notes,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type AdSpendInput struct {
	Date           string           `json:"date" validate:"required,datetime=2006-01-02"`
	Platform       string           `json:"platform" validate:"required"`
	Campaign       string           `json:"campaign" validate:"required,max=200"`
	Amount         decimal.Decimal  `json:"amount"`
	LeadsGenerated int              `json:"leads_generated" validate:"gte=0"`
	Revenue        *decimal.Decimal `json:"revenue,omitempty"`
	Notes          *string          `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type AdSpendListParams struct {
	From     *time.Time
	To       *time.Time
	Platform *enums.LeadSource
}

type SettingsDTO struct {
	ConfirmationFee   decimal.Decimal `json:"confirmation_fee"`
	PackagingFee      decimal.Decimal `json:"packaging_fee"`
	ReturnFee         decimal.Decimal `json:"return_fee"`
	CODFeePercent     decimal.Decimal `json:"cod_fee_percent"`
	MonthlyFixedCosts decimal.Decimal `json:"monthly_fixed_costs"`
	UpdatedBy         *uuid.UUID      `json:"updated_by,omitempty"`
	UpdatedAt         *time.Time      `json:"updated_at,omitempty"`
}

type UpdateSettingsInput struct {
	ConfirmationFee   *decimal.Decimal `json:"confirmation_fee,omitempty"`
	PackagingFee      *decimal.Decimal `json:"packaging_fee,omitempty"`
	ReturnFee         *decimal.Decimal `json:"return_fee,omitempty"`
	CODFeePercent     *decimal.Decimal `json:"cod_fee_percent,omitempty"`
	MonthlyFixedCosts *decimal.Decimal `json:"monthly_fixed_costs,omitempty"`
}

// Summary is the profit picture for an inclusive date range.
type Summary struct {
	From             string          `json:"from"`
	To               string          `json:"to"`
	AdSpend          decimal.Decimal `json:"ad_spend"`
	Leads            int64           `json:"leads"`
	CostPerLead      decimal.Decimal `json:"cost_per_lead"`
	OrdersCreated    int64           `json:"orders_created"`
	Delivered        int64           `json:"delivered"`
	Returned         int64           `json:"returned"`
	Revenue          decimal.Decimal `json:"revenue"`
	ProductCost      decimal.Decimal `json:"product_cost"`
	ShippingCost     decimal.Decimal `json:"shipping_cost"`
	Fees             decimal.Decimal `json:"fees"`
	FixedCosts       decimal.Decimal `json:"fixed_costs"`
	Profit           decimal.Decimal `json:"profit"`
	ROAS             decimal.Decimal `json:"roas"`
	ConfirmationRate decimal.Decimal `json:"confirmation_rate"`
}

func transactionFromModel(m *models.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:          m.ID,
		Type:        m.Type,
		Amount:      m.Amount,
		OrderID:     m.OrderID,
		Description: m.Description,
		OccurredAt:  m.OccurredAt,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
	}
}

func transactionCursor(t TransactionDTO) pagination.Cursor {
	return pagination.Cursor{CreatedAt: t.CreatedAt, ID: t.ID}
}

func adSpendFromModel(m *models.DailyAdSpend) AdSpendDTO {
	return AdSpendDTO{
		ID:             m.ID,
		Date:           m.Date.UTC().Format(dateLayout),
		Platform:       m.Platform,
		Campaign:       m.Campaign,
		Amount:         m.Amount,
		LeadsGenerated: m.LeadsGenerated,
		Revenue:        m.Revenue,
		CostPerLead:    CostPerLead(m.Amount, int64(m.LeadsGenerated)),
		ROAS:           ROAS(m.Revenue, m.Amount),
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func settingsFromModel(m *models.SystemCostSettings) SettingsDTO {
	dto := SettingsDTO{
		ConfirmationFee:   m.ConfirmationFee,
		PackagingFee:      m.PackagingFee,
		ReturnFee:         m.ReturnFee,
		CODFeePercent:     m.CODFeePercent,
		MonthlyFixedCosts: m.MonthlyFixedCosts,
		UpdatedBy:         m.UpdatedBy,
	}
	if !m.UpdatedAt.IsZero() {
		updated := m.UpdatedAt
		dto.UpdatedAt = &updated
	}
	return dto
}
