package shipping

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
)

type CourierDTO struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Code      string          `json:"code"`
	Phone     *string         `json:"phone,omitempty"`
	BaseRate  decimal.Decimal `json:"base_rate"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type CreateCourierInput struct {
	Name     string          `json:"name" validate:"required,max=120"`
	Code     string          `json:"code" validate:"required,max=32"`
	Phone    *string         `json:"phone,omitempty" validate:"omitempty,max=32"`
	BaseRate decimal.Decimal `json:"base_rate"`
	IsActive *bool           `json:"is_active,omitempty"`
}

type UpdateCourierInput struct {
	Name     *string          `json:"name,omitempty" validate:"omitempty,max=120"`
	Code     *string          `json:"code,omitempty" validate:"omitempty,max=32"`
	Phone    *string          `json:"phone,omitempty" validate:"omitempty,max=32"`
	BaseRate *decimal.Decimal `json:"base_rate,omitempty"`
	IsActive *bool            `json:"is_active,omitempty"`
}

// CourierStats summarises a courier's delivery performance.
type CourierStats struct {
	CourierID       uuid.UUID       `json:"courier_id"`
	Shipments       int64           `json:"shipments"`
	Delivered       int64           `json:"delivered"`
	Returned        int64           `json:"returned"`
	InFlight        int64           `json:"in_flight"`
	AvgDeliveryDays decimal.Decimal `json:"avg_delivery_days"`
}

type TrackingDTO struct {
	ID         uuid.UUID             `json:"id"`
	FromStatus *enums.ShipmentStatus `json:"from_status,omitempty"`
	Status     enums.ShipmentStatus  `json:"status"`
	Location   *string               `json:"location,omitempty"`
	Note       *string               `json:"note,omitempty"`
	ActorID    *uuid.UUID            `json:"actor_id,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
}

type ShipmentDTO struct {
	ID             uuid.UUID            `json:"id"`
	OrderID        uuid.UUID            `json:"order_id"`
	CourierID      uuid.UUID            `json:"courier_id"`
	BordereauID    *uuid.UUID           `json:"bordereau_id,omitempty"`
	TrackingNumber string               `json:"tracking_number"`
	Status         enums.ShipmentStatus `json:"status"`
	CODAmount      decimal.Decimal      `json:"cod_amount"`
	ShippingCost   decimal.Decimal      `json:"shipping_cost"`
	PickedUpAt     *time.Time           `json:"picked_up_at,omitempty"`
	DeliveredAt    *time.Time           `json:"delivered_at,omitempty"`
	ReturnedAt     *time.Time           `json:"returned_at,omitempty"`
	Tracking       []TrackingDTO        `json:"tracking,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// CreateShipmentInput hands an order to a courier. CODAmount defaults to the
// order total and ShippingCost to the courier base rate.
type CreateShipmentInput struct {
	OrderID        uuid.UUID        `json:"order_id" validate:"required"`
	CourierID      uuid.UUID        `json:"courier_id" validate:"required"`
	TrackingNumber string           `json:"tracking_number" validate:"required,max=64"`
	CODAmount      *decimal.Decimal `json:"cod_amount,omitempty"`
	ShippingCost   *decimal.Decimal `json:"shipping_cost,omitempty"`
}

type TransitionInput struct {
	Status   string  `json:"status"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=200"`
	Note     *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

type TrackingEventInput struct {
	Location *string `json:"location,omitempty" validate:"omitempty,max=200"`
	Note     *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

type ShipmentListParams struct {
	pagination.Params
	Status      *enums.ShipmentStatus
	CourierID   *uuid.UUID
	BordereauID *uuid.UUID
	// Unassigned limits the list to shipments on no bordereau.
	Unassigned bool
}

func courierFromModel(m *models.Courier) CourierDTO {
	return CourierDTO{
		ID:        m.ID,
		Name:      m.Name,
		Code:      m.Code,
		Phone:     m.Phone,
		BaseRate:  m.BaseRate,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func trackingFromModel(m *models.ShipmentTracking) TrackingDTO {
	return TrackingDTO{
		ID:         m.ID,
		FromStatus: m.FromStatus,
		Status:     m.Status,
		Location:   m.Location,
		Note:       m.Note,
		ActorID:    m.ActorID,
		CreatedAt:  m.CreatedAt,
	}
}

func shipmentFromModel(m *models.Shipment) ShipmentDTO {
	dto := ShipmentDTO{
		ID:             m.ID,
		OrderID:        m.OrderID,
		CourierID:      m.CourierID,
		BordereauID:    m.BordereauID,
		TrackingNumber: m.TrackingNumber,
		Status:         m.Status,
		CODAmount:      m.CODAmount,
		ShippingCost:   m.ShippingCost,
		PickedUpAt:     m.PickedUpAt,
		DeliveredAt:    m.DeliveredAt,
		ReturnedAt:     m.ReturnedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	for i := range m.Tracking {
		dto.Tracking = append(dto.Tracking, trackingFromModel(&m.Tracking[i]))
	}
	return dto
}

func shipmentCursor(s ShipmentDTO) pagination.Cursor {
	return pagination.Cursor{CreatedAt: s.CreatedAt, ID: s.ID}
}
