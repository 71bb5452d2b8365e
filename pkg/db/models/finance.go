package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/pkg/enums"
)

// Blacklist blocks a normalised phone number from leads and calls.
type Blacklist struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Phone     string                `gorm:"column:phone;not null;uniqueIndex"`
	Reason    enums.BlacklistReason `gorm:"column:reason;type:text;not null"`
	Notes     *string               `gorm:"column:notes"`
	CreatedBy *uuid.UUID            `gorm:"column:created_by;type:uuid"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Blacklist) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}

// Transaction is a ledger entry. OrderID is a plain id with no foreign key.
type Transaction struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Type        enums.TransactionType `gorm:"column:type;type:text;not null;index"`
	Amount      decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	OrderID     *uuid.UUID            `gorm:"column:order_id;type:uuid"`
	Description *string               `gorm:"column:description"`
	OccurredAt  time.Time             `gorm:"column:occurred_at;not null;index"`
	CreatedBy   *uuid.UUID            `gorm:"column:created_by;type:uuid"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (t *Transaction) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}

// DailyAdSpend is one day of spend for a platform campaign. Cost per lead
// is derived on read.
type DailyAdSpend struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Date           time.Time        `gorm:"column:date;type:date;not null;uniqueIndex:idx_daily_ad_spend_key"`
	Platform       enums.LeadSource `gorm:"column:platform;type:text;not null;uniqueIndex:idx_daily_ad_spend_key"`
	Campaign       string           `gorm:"column:campaign;not null;uniqueIndex:idx_daily_ad_spend_key"`
	Amount         decimal.Decimal  `gorm:"column:amount;type:numeric(12,2);not null"`
	LeadsGenerated int              `gorm:"column:leads_generated;not null"`
	Revenue        decimal.Decimal  `gorm:"column:revenue;type:numeric(12,2);not null"`
	Notes          *string          `gorm:"column:notes"`
	CreatedBy      *uuid.UUID       `gorm:"column:created_by;type:uuid"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *DailyAdSpend) BeforeCreate(*gorm.DB) error {
	assignID(&d.ID)
	return nil
}

// SystemCostSettingsID is the primary key of the single settings row.
const SystemCostSettingsID = 1

// SystemCostSettings holds the per-order fees used by the profit summary.
type SystemCostSettings struct {
	ID                int             `gorm:"column:id;primaryKey;autoIncrement:false"`
	ConfirmationFee   decimal.Decimal `gorm:"column:confirmation_fee;type:numeric(12,2);not null"`
	PackagingFee      decimal.Decimal `gorm:"column:packaging_fee;type:numeric(12,2);not null"`
	ReturnFee         decimal.Decimal `gorm:"column:return_fee;type:numeric(12,2);not null"`
	CODFeePercent     decimal.Decimal `gorm:"column:cod_fee_percent;type:numeric(5,2);not null"`
	MonthlyFixedCosts decimal.Decimal `gorm:"column:monthly_fixed_costs;type:numeric(12,2);not null"`
	UpdatedBy         *uuid.UUID      `gorm:"column:updated_by;type:uuid"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (SystemCostSettings) TableName() string { return "system_cost_settings" }
