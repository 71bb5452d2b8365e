package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
	"github.com/angelmondragon/codcrm-backend/pkg/types"
)

type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateCategoryInput struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type VariantDTO struct {
	ID        uuid.UUID        `json:"id"`
	ProductID uuid.UUID        `json:"product_id"`
	Name      string           `json:"name"`
	SKU       string           `json:"sku"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Stock     int              `json:"stock"`
	CreatedAt time.Time        `json:"created_at"`
}

type ProductDTO struct {
	ID            uuid.UUID           `json:"id"`
	CategoryID    *uuid.UUID          `json:"category_id,omitempty"`
	Name          string              `json:"name"`
	SKU           string              `json:"sku"`
	Description   *string             `json:"description,omitempty"`
	Price         decimal.Decimal     `json:"price"`
	Cost          decimal.Decimal     `json:"cost"`
	Stock         int                 `json:"stock"`
	IsActive      bool                `json:"is_active"`
	CrossSellIDs  []uuid.UUID         `json:"cross_sell_ids"`
	DiscountTiers types.DiscountTiers `json:"discount_tiers"`
	Variants      []VariantDTO        `json:"variants"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type CreateProductInput struct {
	CategoryID    *uuid.UUID          `json:"category_id,omitempty"`
	Name          string              `json:"name" validate:"required,max=200"`
	SKU           string              `json:"sku" validate:"required,max=64"`
	Description   *string             `json:"description,omitempty"`
	Price         decimal.Decimal     `json:"price"`
	Cost          decimal.Decimal     `json:"cost"`
	Stock         int                 `json:"stock" validate:"gte=0"`
	IsActive      *bool               `json:"is_active,omitempty"`
	CrossSellIDs  []uuid.UUID         `json:"cross_sell_ids,omitempty"`
	DiscountTiers types.DiscountTiers `json:"discount_tiers,omitempty"`
}

// UpdateProductInput is a partial update. CategoryID accepts an explicit null.
// Stock is changed through stock movements only.
type UpdateProductInput struct {
	CategoryID    types.NullableUUID   `json:"category_id"`
	Name          *string              `json:"name,omitempty"`
	SKU           *string              `json:"sku,omitempty"`
	Description   *string              `json:"description,omitempty"`
	Price         *decimal.Decimal     `json:"price,omitempty"`
	Cost          *decimal.Decimal     `json:"cost,omitempty"`
	IsActive      *bool                `json:"is_active,omitempty"`
	CrossSellIDs  *[]uuid.UUID         `json:"cross_sell_ids,omitempty"`
	DiscountTiers *types.DiscountTiers `json:"discount_tiers,omitempty"`
}

type CreateVariantInput struct {
	Name  string           `json:"name" validate:"required,max=120"`
	SKU   string           `json:"sku" validate:"required,max=64"`
	Price *decimal.Decimal `json:"price,omitempty"`
	Stock int              `json:"stock" validate:"gte=0"`
}

// StockMovementInput moves stock of a product, or of one of its variants when
// VariantID is set. Quantity is positive for in/out and a signed, non-zero
// delta for adjustment.
type StockMovementInput struct {
	Type      string     `json:"type"`
	Quantity  int        `json:"quantity"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Reason    *string    `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type StockMovementDTO struct {
	ID         uuid.UUID               `json:"id"`
	ProductID  uuid.UUID               `json:"product_id"`
	VariantID  *uuid.UUID              `json:"variant_id,omitempty"`
	Type       enums.StockMovementType `json:"type"`
	Delta      int                     `json:"delta"`
	StockAfter int                     `json:"stock_after"`
	Reason     *string                 `json:"reason,omitempty"`
	ActorID    *uuid.UUID              `json:"actor_id,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}

type ProductListParams struct {
	pagination.Params
	CategoryID *uuid.UUID
	Active     *bool
	Search     string
}

func categoryFromModel(m *models.Category) CategoryDTO {
	return CategoryDTO{ID: m.ID, Name: m.Name, Description: m.Description, CreatedAt: m.CreatedAt}
}

func variantFromModel(m *models.ProductVariant) VariantDTO {
	return VariantDTO{
		ID:        m.ID,
		ProductID: m.ProductID,
		Name:      m.Name,
		SKU:       m.SKU,
		Price:     m.Price,
		Stock:     m.Stock,
		CreatedAt: m.CreatedAt,
	}
}

func productFromModel(m *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:            m.ID,
		CategoryID:    m.CategoryID,
		Name:          m.Name,
		SKU:           m.SKU,
		Description:   m.Description,
		Price:         m.Price,
		Cost:          m.Cost,
		Stock:         m.Stock,
		IsActive:      m.IsActive,
		CrossSellIDs:  m.CrossSellIDs,
		DiscountTiers: m.DiscountTiers,
		Variants:      make([]VariantDTO, 0, len(m.Variants)),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if dto.CrossSellIDs == nil {
		dto.CrossSellIDs = []uuid.UUID{}
	}
	if dto.DiscountTiers == nil {
		dto.DiscountTiers = types.DiscountTiers{}
	}
	for i := range m.Variants {
		dto.Variants = append(dto.Variants, variantFromModel(&m.Variants[i]))
	}
	return dto
}

func movementFromModel(m *models.StockMovement) StockMovementDTO {
	return StockMovementDTO{
		ID:         m.ID,
		ProductID:  m.ProductID,
		VariantID:  m.VariantID,
		Type:       m.Type,
		Delta:      m.Delta,
		StockAfter: m.StockAfter,
		Reason:     m.Reason,
		ActorID:    m.ActorID,
		CreatedAt:  m.CreatedAt,
	}
}

func productCursor(p ProductDTO) pagination.Cursor {
	return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
}
