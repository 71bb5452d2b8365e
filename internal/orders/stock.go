package orders

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/internal/catalog"
	"github.com/angelmondragon/codcrm-backend/pkg/actor"
	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
)

// StockLedger moves catalog stock inside the order's transaction.
type StockLedger interface {
	MoveStockTx(ctx context.Context, tx *gorm.DB, act actor.Actor, productID uuid.UUID, input catalog.StockMovementInput) (*models.StockMovement, error)
}

// stockKey identifies one stock counter: the variant's when set, the
// product's otherwise.
type stockKey struct {
	product uuid.UUID
	variant uuid.UUID
}

type stockLine struct {
	sku string
	qty int
}

// demand sums item quantities per stock counter. Lines whose product was
// removed from the catalog hold no stock.
func demand(items []models.OrderItem) map[stockKey]stockLine {
	out := make(map[stockKey]stockLine, len(items))
	for _, item := range items {
		if item.ProductID == nil {
			continue
		}
		key := stockKey{product: *item.ProductID}
		if item.VariantID != nil {
			key.variant = *item.VariantID
		}
		line := out[key]
		line.sku = item.SKU
		line.qty += item.Quantity
		out[key] = line
	}
	return out
}

// holdsStock reports whether an order in status has its items taken out of
// stock.
func holdsStock(status enums.OrderStatus) bool {
	switch status {
	case enums.OrderStatusConfirmed, enums.OrderStatusProcessing, enums.OrderStatusShipped, enums.OrderStatusDelivered:
		return true
	}
	return false
}

// moveStock applies the difference between two demands, visiting counters in
// sorted order.
func (s *service) moveStock(ctx context.Context, tx *gorm.DB, act actor.Actor, order *models.Order, before, after map[stockKey]stockLine) error {
	keys := make([]stockKey, 0, len(before)+len(after))
	seen := make(map[stockKey]bool, len(before)+len(after))
	for _, m := range []map[stockKey]stockLine{before, after} {
		for key := range m {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].product != keys[j].product {
			return keys[i].product.String() < keys[j].product.String()
		}
		return keys[i].variant.String() < keys[j].variant.String()
	})

	for _, key := range keys {
		delta := after[key].qty - before[key].qty
		if delta == 0 {
			continue
		}
		input := catalog.StockMovementInput{Type: string(enums.StockMovementTypeOut), Quantity: delta}
		reason := "reserved for order " + order.Number
		if delta < 0 {
			input = catalog.StockMovementInput{Type: string(enums.StockMovementTypeIn), Quantity: -delta}
			reason = "released by order " + order.Number
		}
		input.Reason = &reason
		if key.variant != uuid.Nil {
			variant := key.variant
			input.VariantID = &variant
		}

		_, err := s.stock.MoveStockTx(ctx, tx, act, key.product, input)
		if err != nil {
			if delta > 0 && pkgerrors.IsCode(err, pkgerrors.CodeInvalidData) {
				sku := after[key].sku
				return pkgerrors.Newf(pkgerrors.CodeInvalidData, "insufficient stock for %s", sku).
					WithDetails(map[string]any{"sku": sku, "requested": delta})
			}
			return err
		}
	}
	return nil
}
