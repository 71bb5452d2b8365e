package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
)

type ItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	Net         decimal.Decimal `json:"net"`
	Position    int             `json:"position"`
}

type HistoryDTO struct {
	ID         uuid.UUID          `json:"id"`
	FromStatus *enums.OrderStatus `json:"from_status,omitempty"`
	ToStatus   enums.OrderStatus  `json:"to_status"`
	ActorID    *uuid.UUID         `json:"actor_id,omitempty"`
	Note       *string            `json:"note,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

type OrderDTO struct {
	ID            uuid.UUID         `json:"id"`
	Number        string            `json:"number"`
	LeadID        *uuid.UUID        `json:"lead_id,omitempty"`
	CustomerName  string            `json:"customer_name"`
	CustomerPhone string            `json:"customer_phone"`
	City          string            `json:"city"`
	Address       string            `json:"address"`
	Status        enums.OrderStatus `json:"status"`
	Discount      decimal.Decimal   `json:"discount"`
	Total         decimal.Decimal   `json:"total"`
	Notes         *string           `json:"notes,omitempty"`
	CreatedBy     *uuid.UUID        `json:"created_by,omitempty"`
	ConfirmedAt   *time.Time        `json:"confirmed_at,omitempty"`
	ShippedAt     *time.Time        `json:"shipped_at,omitempty"`
	DeliveredAt   *time.Time        `json:"delivered_at,omitempty"`
	ReturnedAt    *time.Time        `json:"returned_at,omitempty"`
	CancelledAt   *time.Time        `json:"cancelled_at,omitempty"`
	Items         []ItemDTO         `json:"items,omitempty"`
	History       []HistoryDTO      `json:"history,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ItemInput adds a product line. UnitPrice and Discount override the
// catalog price and the quantity tier discount when present.
type ItemInput struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	VariantID *uuid.UUID       `json:"variant_id,omitempty"`
	Quantity  int              `json:"quantity" validate:"gte=1"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Discount  *decimal.Decimal `json:"discount,omitempty"`
}

type CreateOrderInput struct {
	LeadID        *uuid.UUID       `json:"lead_id,omitempty"`
	CustomerName  string           `json:"customer_name" validate:"required,max=200"`
	CustomerPhone string           `json:"customer_phone" validate:"required"`
	City          string           `json:"city" validate:"required,max=120"`
	Address       string           `json:"address" validate:"required,max=500"`
	Notes         *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Discount      *decimal.Decimal `json:"discount,omitempty"`
	Items         []ItemInput      `json:"items" validate:"required,min=1,dive"`
}

type UpdateOrderInput struct {
	CustomerName  *string          `json:"customer_name,omitempty" validate:"omitempty,max=200"`
	CustomerPhone *string          `json:"customer_phone,omitempty"`
	City          *string          `json:"city,omitempty" validate:"omitempty,max=120"`
	Address       *string          `json:"address,omitempty" validate:"omitempty,max=500"`
	Notes         *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Discount      *decimal.Decimal `json:"discount,omitempty"`
}

type UpdateItemInput struct {
	Quantity  *int             `json:"quantity,omitempty" validate:"omitempty,gte=1"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Discount  *decimal.Decimal `json:"discount,omitempty"`
}

type TransitionInput struct {
	Status string  `json:"status"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

type ListParams struct {
	pagination.Params
	Status *enums.OrderStatus
	LeadID *uuid.UUID
	Search string
}

func itemFromModel(m *models.OrderItem) ItemDTO {
	subtotal := m.Subtotal()
	return ItemDTO{
		ID:          m.ID,
		ProductID:   m.ProductID,
		VariantID:   m.VariantID,
		ProductName: m.ProductName,
		SKU:         m.SKU,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		UnitCost:    m.UnitCost,
		Subtotal:    subtotal,
		Discount:    m.Discount,
		Net:         subtotal.Sub(m.Discount),
		Position:    m.Position,
	}
}

func historyFromModel(m *models.OrderHistory) HistoryDTO {
	return HistoryDTO{
		ID:         m.ID,
		FromStatus: m.FromStatus,
		ToStatus:   m.ToStatus,
		ActorID:    m.ActorID,
		Note:       m.Note,
		CreatedAt:  m.CreatedAt,
	}
}

func fromModel(m *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:            m.ID,
		Number:        m.Number,
		LeadID:        m.LeadID,
		CustomerName:  m.CustomerName,
		CustomerPhone: m.CustomerPhone,
		City:          m.City,
		Address:       m.Address,
		Status:        m.Status,
		Discount:      m.Discount,
		Total:         m.Total,
		Notes:         m.Notes,
		CreatedBy:     m.CreatedBy,
		ConfirmedAt:   m.ConfirmedAt,
		ShippedAt:     m.ShippedAt,
		DeliveredAt:   m.DeliveredAt,
		ReturnedAt:    m.ReturnedAt,
		CancelledAt:   m.CancelledAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	for i := range m.Items {
		dto.Items = append(dto.Items, itemFromModel(&m.Items[i]))
	}
	for i := range m.History {
		dto.History = append(dto.History, historyFromModel(&m.History[i]))
	}
	return dto
}

func cursorOf(o OrderDTO) pagination.Cursor {
	return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
}
