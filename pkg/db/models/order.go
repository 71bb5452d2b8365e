package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/pkg/enums"
)

// Order is a cash-on-delivery order. Total is derived from its items and is
// only written by the recompute path.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Number        string            `gorm:"column:number;not null;uniqueIndex"`
	LeadID        *uuid.UUID        `gorm:"column:lead_id;type:uuid;index"`
	CustomerName  string            `gorm:"column:customer_name;not null"`
	CustomerPhone string            `gorm:"column:customer_phone;not null;index"`
	City          string            `gorm:"column:city;not null"`
	Address       string            `gorm:"column:address;not null"`
	Status        enums.OrderStatus `gorm:"column:status;type:text;not null;index"`
	Discount      decimal.Decimal   `gorm:"column:discount;type:numeric(12,2);not null"`
	Total         decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	Notes         *string           `gorm:"column:notes"`
	CreatedBy     *uuid.UUID        `gorm:"column:created_by;type:uuid"`
	UpdatedBy     *uuid.UUID        `gorm:"column:updated_by;type:uuid"`
	ConfirmedAt   *time.Time        `gorm:"column:confirmed_at"`
	ShippedAt     *time.Time        `gorm:"column:shipped_at"`
	DeliveredAt   *time.Time        `gorm:"column:delivered_at"`
	ReturnedAt    *time.Time        `gorm:"column:returned_at"`
	CancelledAt   *time.Time        `gorm:"column:cancelled_at"`
	Items         []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History       []OrderHistory    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// OrderItem snapshots the product at the time it was added.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	VariantID   *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	ProductName string          `gorm:"column:product_name;not null"`
	SKU         string          `gorm:"column:sku;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	UnitCost    decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2);not null"`
	Discount    decimal.Decimal `gorm:"column:discount;type:numeric(12,2);not null"`
	Position    int             `gorm:"column:position;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// Subtotal is quantity times unit price, before the line discount.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderHistory is one immutable status change. FromStatus is nil for the
// creation row.
type OrderHistory struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	FromStatus *enums.OrderStatus `gorm:"column:from_status;type:text"`
	ToStatus   enums.OrderStatus  `gorm:"column:to_status;type:text;not null"`
	ActorID    *uuid.UUID         `gorm:"column:actor_id;type:uuid"`
	Note       *string            `gorm:"column:note"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (h *OrderHistory) BeforeCreate(*gorm.DB) error {
	assignID(&h.ID)
	return nil
}
