package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	"github.com/angelmondragon/codcrm-backend/pkg/types"
)

// Category groups products for reporting.
type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// Product is a sellable catalog entry. Price and cost are per unit.
type Product struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID    *uuid.UUID          `gorm:"column:category_id;type:uuid"`
	Category      *Category           `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	Name          string              `gorm:"column:name;not null"`
	SKU           string              `gorm:"column:sku;not null;uniqueIndex"`
	Description   *string             `gorm:"column:description"`
	Price         decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Cost          decimal.Decimal     `gorm:"column:cost;type:numeric(12,2);not null"`
	Stock         int                 `gorm:"column:stock;not null"`
	IsActive      bool                `gorm:"column:is_active;not null"`
	CrossSellIDs  []uuid.UUID         `gorm:"column:cross_sell_ids;type:jsonb;serializer:json"`
	DiscountTiers types.DiscountTiers `gorm:"column:discount_tiers;type:jsonb;serializer:json"`
	Variants      []ProductVariant    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Movements     []StockMovement     `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// ProductVariant is a size/colour option with its own sku and stock.
type ProductVariant struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID        `gorm:"column:product_id;type:uuid;not null;index"`
	Name      string           `gorm:"column:name;not null"`
	SKU       string           `gorm:"column:sku;not null;uniqueIndex"`
	Price     *decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	Stock     int              `gorm:"column:stock;not null"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	assignID(&v.ID)
	return nil
}

// StockMovement is an append-only stock ledger row. Delta is signed.
type StockMovement struct {
	ID         uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID               `gorm:"column:product_id;type:uuid;not null;index"`
	VariantID  *uuid.UUID              `gorm:"column:variant_id;type:uuid"`
	Type       enums.StockMovementType `gorm:"column:type;type:text;not null"`
	Delta      int                     `gorm:"column:delta;not null"`
	StockAfter int                     `gorm:"column:stock_after;not null"`
	Reason     *string                 `gorm:"column:reason"`
	ActorID    *uuid.UUID              `gorm:"column:actor_id;type:uuid"`
	CreatedAt  time.Time               `gorm:"column:created_at;autoCreateTime"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}
