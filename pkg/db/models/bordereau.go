package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/pkg/enums"
)

// Bordereau is a courier pickup manifest. The total columns are caches of
// the contained shipments and are written by the recompute path only.
type Bordereau struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Number         string                `gorm:"column:number;not null;uniqueIndex"`
	CourierID      uuid.UUID             `gorm:"column:courier_id;type:uuid;not null;index"`
	Courier        *Courier              `gorm:"foreignKey:CourierID;constraint:OnDelete:RESTRICT"`
	PickupDate     time.Time             `gorm:"column:pickup_date;not null"`
	Status         enums.BordereauStatus `gorm:"column:status;type:text;not null;index"`
	TotalCODAmount decimal.Decimal       `gorm:"column:total_cod_amount;type:numeric(12,2);not null"`
	TotalShipping  decimal.Decimal       `gorm:"column:total_shipping;type:numeric(12,2);not null"`
	ShipmentCount  int                   `gorm:"column:shipment_count;not null"`
	Notes          *string               `gorm:"column:notes"`
	CreatedBy      *uuid.UUID            `gorm:"column:created_by;type:uuid"`
	PickedUpAt     *time.Time            `gorm:"column:picked_up_at"`
	ClosedAt       *time.Time            `gorm:"column:closed_at"`
	Shipments      []Shipment            `gorm:"foreignKey:BordereauID;constraint:OnDelete:SET NULL"`
	History        []BordereauHistory    `gorm:"foreignKey:BordereauID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Bordereau) TableName() string { return "bordereaux" }

func (b *Bordereau) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}

type BordereauHistory struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	BordereauID uuid.UUID              `gorm:"column:bordereau_id;type:uuid;not null;index"`
	FromStatus  *enums.BordereauStatus `gorm:"column:from_status;type:text"`
	ToStatus    enums.BordereauStatus  `gorm:"column:to_status;type:text;not null"`
	ActorID     *uuid.UUID             `gorm:"column:actor_id;type:uuid"`
	Note        *string                `gorm:"column:note"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (BordereauHistory) TableName() string { return "bordereau_histories" }

func (h *BordereauHistory) BeforeCreate(*gorm.DB) error {
	assignID(&h.ID)
	return nil
}
