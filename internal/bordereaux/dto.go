package bordereaux

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
)

type ShipmentLine struct {
	ID             uuid.UUID            `json:"id"`
	OrderID        uuid.UUID            `json:"order_id"`
	TrackingNumber string               `json:"tracking_number"`
	Status         enums.ShipmentStatus `json:"status"`
	CODAmount      decimal.Decimal      `json:"cod_amount"`
	ShippingCost   decimal.Decimal      `json:"shipping_cost"`
}

type HistoryDTO struct {
	ID         uuid.UUID              `json:"id"`
	FromStatus *enums.BordereauStatus `json:"from_status,omitempty"`
	ToStatus   enums.BordereauStatus  `json:"to_status"`
	ActorID    *uuid.UUID             `json:"actor_id,omitempty"`
	Note       *string                `json:"note,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

type BordereauDTO struct {
	ID             uuid.UUID             `json:"id"`
	Number         string                `json:"number"`
	CourierID      uuid.UUID             `json:"courier_id"`
	PickupDate     time.Time             `json:"pickup_date"`
	Status         enums.BordereauStatus `json:"status"`
	TotalCODAmount decimal.Decimal       `json:"total_cod_amount"`
	TotalShipping  decimal.Decimal       `json:"total_shipping"`
	ShipmentCount  int                   `json:"shipment_count"`
	Notes          *string               `json:"notes,omitempty"`
	CreatedBy      *uuid.UUID            `json:"created_by,omitempty"`
	PickedUpAt     *time.Time            `json:"picked_up_at,omitempty"`
	ClosedAt       *time.Time            `json:"closed_at,omitempty"`
	Shipments      []ShipmentLine        `json:"shipments,omitempty"`
	History        []HistoryDTO          `json:"history,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

type CreateInput struct {
	CourierID  uuid.UUID `json:"courier_id" validate:"required"`
	PickupDate time.Time `json:"pickup_date" validate:"required"`
	Notes      *string   `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type ShipmentsInput struct {
	ShipmentIDs []uuid.UUID `json:"shipment_ids" validate:"required,min=1"`
}

type TransitionInput struct {
	Status string  `json:"status"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

type ListParams struct {
	pagination.Params
	Status    *enums.BordereauStatus
	CourierID *uuid.UUID
}

func fromModel(m *models.Bordereau) BordereauDTO {
	dto := BordereauDTO{
		ID:             m.ID,
		Number:         m.Number,
		CourierID:      m.CourierID,
		PickupDate:     m.PickupDate,
		Status:         m.Status,
		TotalCODAmount: m.TotalCODAmount,
		TotalShipping:  m.TotalShipping,
		ShipmentCount:  m.ShipmentCount,
		Notes:          m.Notes,
		CreatedBy:      m.CreatedBy,
		PickedUpAt:     m.PickedUpAt,
		ClosedAt:       m.ClosedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	for _, s := range m.Shipments {
		dto.Shipments = append(dto.Shipments, ShipmentLine{
			ID:             s.ID,
			OrderID:        s.OrderID,
			TrackingNumber: s.TrackingNumber,
			Status:         s.Status,
			CODAmount:      s.CODAmount,
			ShippingCost:   s.ShippingCost,
		})
	}
	for _, h := range m.History {
		dto.History = append(dto.History, HistoryDTO{
			ID:         h.ID,
			FromStatus: h.FromStatus,
			ToStatus:   h.ToStatus,
			ActorID:    h.ActorID,
			Note:       h.Note,
			CreatedAt:  h.CreatedAt,
		})
	}
	return dto
}

func cursorOf(b BordereauDTO) pagination.Cursor {
	return pagination.Cursor{CreatedAt: b.CreatedAt, ID: b.ID}
}
