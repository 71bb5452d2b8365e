package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/pkg/enums"
)

// Courier is a delivery company collecting cash on behalf of the shop.
type Courier struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Code      string          `gorm:"column:code;not null;uniqueIndex"`
	Phone     *string         `gorm:"column:phone"`
	BaseRate  decimal.Decimal `gorm:"column:base_rate;type:numeric(12,2);not null"`
	IsActive  bool            `gorm:"column:is_active;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Courier) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// Shipment hands one order to a courier. BordereauID is set while the
// shipment sits on a pickup manifest.
type Shipment struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Order          *Order               `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CourierID      uuid.UUID            `gorm:"column:courier_id;type:uuid;not null;index"`
	Courier        *Courier             `gorm:"foreignKey:CourierID;constraint:OnDelete:RESTRICT"`
	BordereauID    *uuid.UUID           `gorm:"column:bordereau_id;type:uuid;index"`
	TrackingNumber string               `gorm:"column:tracking_number;not null;uniqueIndex"`
	Status         enums.ShipmentStatus `gorm:"column:status;type:text;not null;index"`
	CODAmount      decimal.Decimal      `gorm:"column:cod_amount;type:numeric(12,2);not null"`
	ShippingCost   decimal.Decimal      `gorm:"column:shipping_cost;type:numeric(12,2);not null"`
	PickedUpAt     *time.Time           `gorm:"column:picked_up_at"`
	DeliveredAt    *time.Time           `gorm:"column:delivered_at"`
	ReturnedAt     *time.Time           `gorm:"column:returned_at"`
	Tracking       []ShipmentTracking   `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Shipment) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// ShipmentTracking is an append-only tracking event. FromStatus is nil for
// informational events.
type ShipmentTracking struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	ShipmentID uuid.UUID             `gorm:"column:shipment_id;type:uuid;not null;index"`
	FromStatus *enums.ShipmentStatus `gorm:"column:from_status;type:text"`
	Status     enums.ShipmentStatus  `gorm:"column:status;type:text;not null"`
	Location   *string               `gorm:"column:location"`
	Note       *string               `gorm:"column:note"`
	ActorID    *uuid.UUID            `gorm:"column:actor_id;type:uuid"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (t *ShipmentTracking) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}
