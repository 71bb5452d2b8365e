package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/codcrm-backend/pkg/actor"
	"github.com/angelmondragon/codcrm-backend/pkg/db"
	"github.com/angelmondragon/codcrm-backend/pkg/db/dbtest"
	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
	"github.com/angelmondragon/codcrm-backend/pkg/types"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	conn := dbtest.Open(t, &models.Category{}, &models.Product{}, &models.ProductVariant{}, &models.StockMovement{})
	svc, err := NewService(NewRepository(conn), db.Wrap(conn), nil)
	require.NoError(t, err)
	return svc
}

func manager() actor.Actor {
	return actor.New(uuid.New(), enums.UserRoleManager)
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createProduct(t *testing.T, svc Service, sku string, stock int) *ProductDTO {
	t.Helper()
	product, err := svc.CreateProduct(context.Background(), manager(), CreateProductInput{
		Name:  "Argan oil " + sku,
		SKU:   sku,
		Price: money("149.00"),
		Cost:  money("40.50"),
		Stock: stock,
	})
	require.NoError(t, err)
	return product
}

func TestCreateCategoryUniqueName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, manager(), CreateCategoryInput{Name: "Beauty"})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, manager(), CreateCategoryInput{Name: " Beauty "})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDuplicate))

	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateProductDefaultsAndValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	product := createProduct(t, svc, "ARG-1", 10)
	assert.True(t, product.IsActive)
	assert.Empty(t, product.Variants)
	assert.Empty(t, product.CrossSellIDs)

	_, err := svc.CreateProduct(ctx, manager(), CreateProductInput{
		Name:  "Bad",
		SKU:   "BAD-1",
		Price: money("-1"),
		Cost:  money("-2"),
		Stock: -3,
		DiscountTiers: types.DiscountTiers{
			{MinQty: 3, Discount: money("0.1")},
			{MinQty: 2, Discount: money("1.5")},
		},
	})
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details := pkgerrors.As(err).Details().(map[string]string)
	for _, field := range []string{"price", "cost", "stock", "discount_tiers[1].min_qty", "discount_tiers[1].discount"} {
		assert.Contains(t, details, field)
	}

	_, err = svc.CreateProduct(ctx, manager(), CreateProductInput{Name: "Dup", SKU: "ARG-1", Price: money("1"), Cost: money("1")})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDuplicate))
}

func TestCreateProductRequiresCatalogArea(t *testing.T) {
	svc := newTestService(t)
	agent := actor.New(uuid.New(), enums.UserRoleCallCenter)
	_, err := svc.CreateProduct(context.Background(), agent, CreateProductInput{Name: "X", SKU: "X", Price: money("1"), Cost: money("1")})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestCreateProductRejectsUnknownReferences(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	missing := uuid.New()

	_, err := svc.CreateProduct(ctx, manager(), CreateProductInput{Name: "X", SKU: "X-1", Price: money("1"), Cost: money("1"), CategoryID: &missing})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidData))

	_, err = svc.CreateProduct(ctx, manager(), CreateProductInput{Name: "X", SKU: "X-2", Price: money("1"), Cost: money("1"), CrossSellIDs: []uuid.UUID{missing}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidData))
}

func TestUpdateProductPartial(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	main := createProduct(t, svc, "MAIN", 4)
	extra := createProduct(t, svc, "EXTRA", 0)

	price := money("129.99")
	inactive := false
	tiers := types.DiscountTiers{{MinQty: 2, Discount: money("0.05")}, {MinQty: 4, Discount: money("0.15")}}
	cross := []uuid.UUID{extra.ID}
	updated, err := svc.UpdateProduct(ctx, manager(), main.ID, UpdateProductInput{
		Price:         &price,
		IsActive:      &inactive,
		DiscountTiers: &tiers,
		CrossSellIDs:  &cross,
	})
	require.NoError(t, err)
	assert.True(t, price.Equal(updated.Price))
	assert.False(t, updated.IsActive)
	assert.Equal(t, main.Name, updated.Name)
	assert.Equal(t, 4, updated.Stock)
	require.Len(t, updated.DiscountTiers, 2)
	assert.True(t, money("0.15").Equal(TierDiscountRate(updated.DiscountTiers, 6)))
	assert.Equal(t, []uuid.UUID{extra.ID}, updated.CrossSellIDs)

	self := []uuid.UUID{main.ID}
	_, err = svc.UpdateProduct(ctx, manager(), main.ID, UpdateProductInput{CrossSellIDs: &self})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateProduct(ctx, manager(), uuid.New(), UpdateProductInput{Price: &price})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestMoveStockKeepsLedger(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	product := createProduct(t, svc, "STK", 5)

	in, err := svc.MoveStock(ctx, manager(), product.ID, StockMovementInput{Type: "in", Quantity: 10})
	require.NoError(t, err)
	assert.Equal(t, 15, in.StockAfter)

	out, err := svc.MoveStock(ctx, manager(), product.ID, StockMovementInput{Type: "out", Quantity: 6})
	require.NoError(t, err)
	assert.Equal(t, -6, out.Delta)
	assert.Equal(t, 9, out.StockAfter)

	adj, err := svc.MoveStock(ctx, manager(), product.ID, StockMovementInput{Type: "adjustment", Quantity: -2})
	require.NoError(t, err)
	assert.Equal(t, 7, adj.StockAfter)

	_, err = svc.MoveStock(ctx, manager(), product.ID, StockMovementInput{Type: "out", Quantity: 8})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidData))

	_, err = svc.MoveStock(ctx, manager(), product.ID, StockMovementInput{Type: "adjustment"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	stored, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.Stock)

	movements, err := svc.ListMovements(ctx, product.ID)
	require.NoError(t, err)
	assert.Len(t, movements, 3)
}

func TestVariantStockIsSeparate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	product := createProduct(t, svc, "TSHIRT", 0)

	override := money("99")
	variant, err := svc.CreateVariant(ctx, manager(), product.ID, CreateVariantInput{Name: "Size M", SKU: "TSHIRT-M", Price: &override, Stock: 3})
	require.NoError(t, err)

	moved, err := svc.MoveStock(ctx, manager(), product.ID, StockMovementInput{Type: "out", Quantity: 2, VariantID: &variant.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, moved.StockAfter)

	stored, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Stock)
	require.Len(t, stored.Variants, 1)
	assert.Equal(t, 1, stored.Variants[0].Stock)

	_, err = svc.CreateVariant(ctx, manager(), product.ID, CreateVariantInput{Name: "Size L", SKU: "TSHIRT-M"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDuplicate))
}

func TestPriceForPrefersVariant(t *testing.T) {
	override := money("80")
	product := &models.Product{Price: money("100")}
	assert.True(t, money("100").Equal(PriceFor(product, nil)))
	assert.True(t, money("100").Equal(PriceFor(product, &models.ProductVariant{})))
	assert.True(t, override.Equal(PriceFor(product, &models.ProductVariant{Price: &override})))
}
