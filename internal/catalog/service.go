package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/pkg/actor"
	"github.com/angelmondragon/codcrm-backend/pkg/db"
	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
	"github.com/angelmondragon/codcrm-backend/pkg/logger"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
	"github.com/angelmondragon/codcrm-backend/pkg/validate"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the product catalog and its stock ledger.
type Service interface {
	CreateCategory(ctx context.Context, act actor.Actor, input CreateCategoryInput) (*CategoryDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	CreateProduct(ctx context.Context, act actor.Actor, input CreateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, params ProductListParams) (*pagination.Page[ProductDTO], error)
	UpdateProduct(ctx context.Context, act actor.Actor, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	CreateVariant(ctx context.Context, act actor.Actor, productID uuid.UUID, input CreateVariantInput) (*VariantDTO, error)
	MoveStock(ctx context.Context, act actor.Actor, productID uuid.UUID, input StockMovementInput) (*StockMovementDTO, error)
	MoveStockTx(ctx context.Context, tx *gorm.DB, act actor.Actor, productID uuid.UUID, input StockMovementInput) (*models.StockMovement, error)
	ListMovements(ctx context.Context, productID uuid.UUID) ([]StockMovementDTO, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) CreateCategory(ctx context.Context, act actor.Actor, input CreateCategoryInput) (*CategoryDTO, error) {
	if err := act.Require(actor.AreaCatalog); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	category := &models.Category{Name: input.Name, Description: input.Description}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, db.TranslateError(err, "category")
	}
	dto := categoryFromModel(category)
	return &dto, nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, db.TranslateError(err, "category")
	}
	out := make([]CategoryDTO, len(rows))
	for i := range rows {
		out[i] = categoryFromModel(&rows[i])
	}
	return out, nil
}

func (s *service) CreateProduct(ctx context.Context, act actor.Actor, input CreateProductInput) (*ProductDTO, error) {
	if err := act.Require(actor.AreaCatalog); err != nil {
		return nil, err
	}
	product := &models.Product{
		CategoryID:    input.CategoryID,
		Name:          strings.TrimSpace(input.Name),
		SKU:           strings.TrimSpace(input.SKU),
		Description:   input.Description,
		Price:         input.Price,
		Cost:          input.Cost,
		Stock:         input.Stock,
		IsActive:      true,
		CrossSellIDs:  input.CrossSellIDs,
		DiscountTiers: input.DiscountTiers,
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	v := validate.New()
	input.Name, input.SKU = product.Name, product.SKU
	v.Struct(input)
	if err := s.checkProduct(ctx, v, product); err != nil {
		return nil, err
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, db.TranslateError(err, "product")
	}
	s.logg.Info(s.logg.WithEntity(ctx, "product", product.ID.String()), "product created")
	return s.GetProduct(ctx, product.ID)
}

// checkProduct validates the whole product, including its references.
func (s *service) checkProduct(ctx context.Context, v validate.Violations, product *models.Product) error {
	v.Check(product.Name != "", "name", "is required")
	v.Check(product.SKU != "", "sku", "is required")
	v.NonNegative("price", product.Price)
	v.NonNegative("cost", product.Cost)
	v.Check(product.Stock >= 0, "stock", "must be greater than or equal to 0")
	checkTiers(v, product.DiscountTiers)
	checkCrossSell(v, product.ID, product.CrossSellIDs)
	if err := v.Err(); err != nil {
		return err
	}

	if product.CategoryID != nil {
		exists, err := s.repo.CategoryExists(ctx, *product.CategoryID)
		if err != nil {
			return db.TranslateError(err, "category")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeInvalidData, "category does not exist").
				WithDetails(map[string]string{"category_id": product.CategoryID.String()})
		}
	}
	if len(product.CrossSellIDs) > 0 {
		found, err := s.repo.CountProducts(ctx, product.CrossSellIDs)
		if err != nil {
			return db.TranslateError(err, "product")
		}
		if int(found) != len(product.CrossSellIDs) {
			return pkgerrors.New(pkgerrors.CodeInvalidData, "cross-sell products do not exist").
				WithDetails(map[string]string{"cross_sell_ids": "must reference existing products"})
		}
	}
	return nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, db.TranslateError(err, "product")
	}
	dto := productFromModel(product)
	return &dto, nil
}

func (s *service) ListProducts(ctx context.Context, params ProductListParams) (*pagination.Page[ProductDTO], error) {
	if err := pagination.CheckCursor(params.Cursor); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListProducts(ctx, params)
	if err != nil {
		return nil, db.TranslateError(err, "product")
	}
	items := make([]ProductDTO, len(rows))
	for i := range rows {
		items[i] = productFromModel(&rows[i])
	}
	page := pagination.Build(items, params.Limit, productCursor)
	return &page, nil
}

func (s *service) UpdateProduct(ctx context.Context, act actor.Actor, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if err := act.Require(actor.AreaCatalog); err != nil {
		return nil, err
	}
	current, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, db.TranslateError(err, "product")
	}
	product := *current
	product.Variants = nil

	if input.CategoryID.Valid {
		product.CategoryID = input.CategoryID.Value
	}
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.SKU != nil {
		product.SKU = strings.TrimSpace(*input.SKU)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Cost != nil {
		product.Cost = *input.Cost
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.CrossSellIDs != nil {
		product.CrossSellIDs = *input.CrossSellIDs
	}
	if input.DiscountTiers != nil {
		product.DiscountTiers = *input.DiscountTiers
	}

	if err := s.checkProduct(ctx, validate.New(), &product); err != nil {
		return nil, err
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.FindProductForUpdate(ctx, id)
		if err != nil {
			return db.TranslateError(err, "product")
		}
		// stock may have moved since the read above
		product.Stock = locked.Stock
		return db.TranslateError(repo.SaveProduct(ctx, &product), "product")
	}); err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, id)
}

func (s *service) CreateVariant(ctx context.Context, act actor.Actor, productID uuid.UUID, input CreateVariantInput) (*VariantDTO, error) {
	if err := act.Require(actor.AreaCatalog); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	input.SKU = strings.TrimSpace(input.SKU)
	v := validate.New()
	v.Struct(input)
	v.NonNegativePtr("price", input.Price)
	if err := v.Err(); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindProduct(ctx, productID); err != nil {
		return nil, db.TranslateError(err, "product")
	}
	variant := &models.ProductVariant{
		ProductID: productID,
		Name:      input.Name,
		SKU:       input.SKU,
		Price:     input.Price,
		Stock:     input.Stock,
	}
	if err := s.repo.CreateVariant(ctx, variant); err != nil {
		return nil, db.TranslateError(err, "variant")
	}
	dto := variantFromModel(variant)
	return &dto, nil
}

func (s *service) MoveStock(ctx context.Context, act actor.Actor, productID uuid.UUID, input StockMovementInput) (*StockMovementDTO, error) {
	if err := act.Require(actor.AreaCatalog); err != nil {
		return nil, err
	}
	var movement *models.StockMovement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		movement, err = s.MoveStockTx(ctx, tx, act, productID, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	dto := movementFromModel(movement)
	return &dto, nil
}

// MoveStockTx applies one stock movement inside tx. It does not check the
// actor's area.
func (s *service) MoveStockTx(ctx context.Context, tx *gorm.DB, act actor.Actor, productID uuid.UUID, input StockMovementInput) (*models.StockMovement, error) {
	kind := enums.StockMovementType(strings.ToLower(strings.TrimSpace(input.Type)))
	v := validate.New()
	v.Struct(input)
	v.Enum("type", kind)
	delta := input.Quantity
	switch kind {
	case enums.StockMovementTypeIn:
		v.Check(input.Quantity > 0, "quantity", "must be greater than 0")
	case enums.StockMovementTypeOut:
		v.Check(input.Quantity > 0, "quantity", "must be greater than 0")
		delta = -input.Quantity
	case enums.StockMovementTypeAdjustment:
		v.Check(input.Quantity != 0, "quantity", "must not be 0")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	movement := &models.StockMovement{
		ProductID: productID,
		VariantID: input.VariantID,
		Type:      kind,
		Delta:     delta,
		Reason:    input.Reason,
		ActorID:   act.Ref(),
	}
	repo := s.repo.WithTx(tx)
	product, err := repo.FindProductForUpdate(ctx, productID)
	if err != nil {
		return nil, db.TranslateError(err, "product")
	}
	current := product.Stock
	var write func() error
	if input.VariantID != nil {
		variant, err := repo.FindVariantForUpdate(ctx, productID, *input.VariantID)
		if err != nil {
			return nil, db.TranslateError(err, "variant")
		}
		current = variant.Stock
		write = func() error { return repo.SetVariantStock(ctx, variant.ID, movement.StockAfter) }
	} else {
		write = func() error { return repo.SetProductStock(ctx, product.ID, movement.StockAfter) }
	}

	movement.StockAfter = current + delta
	if movement.StockAfter < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidData, "stock cannot go below zero").
			WithDetails(map[string]any{"stock": current, "delta": delta})
	}
	if err := write(); err != nil {
		return nil, db.TranslateError(err, "product")
	}
	if err := repo.CreateMovement(ctx, movement); err != nil {
		return nil, db.TranslateError(err, "stock movement")
	}

	s.logg.Info(s.logg.WithFields(s.logg.WithEntity(ctx, "product", productID.String()), map[string]any{
		"type":        kind,
		"delta":       delta,
		"stock_after": movement.StockAfter,
	}), "stock moved")
	return movement, nil
}

func (s *service) ListMovements(ctx context.Context, productID uuid.UUID) ([]StockMovementDTO, error) {
	if _, err := s.repo.FindProduct(ctx, productID); err != nil {
		return nil, db.TranslateError(err, "product")
	}
	rows, err := s.repo.ListMovements(ctx, productID)
	if err != nil {
		return nil, db.TranslateError(err, "stock movement")
	}
	out := make([]StockMovementDTO, len(rows))
	for i := range rows {
		out[i] = movementFromModel(&rows[i])
	}
	return out, nil
}

// PriceFor returns the unit price of a product line, preferring the
// variant override.
func PriceFor(product *models.Product, variant *models.ProductVariant) decimal.Decimal {
	if variant != nil && variant.Price != nil {
		return *variant.Price
	}
	return product.Price
}
