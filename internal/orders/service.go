package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/internal/blacklist"
	"github.com/angelmondragon/codcrm-backend/internal/catalog"
	"github.com/angelmondragon/codcrm-backend/pkg/actor"
	"github.com/angelmondragon/codcrm-backend/pkg/db"
	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
	"github.com/angelmondragon/codcrm-backend/pkg/logger"
	"github.com/angelmondragon/codcrm-backend/pkg/metrics"
	"github.com/angelmondragon/codcrm-backend/pkg/numbering"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
	"github.com/angelmondragon/codcrm-backend/pkg/statemachine"
	"github.com/angelmondragon/codcrm-backend/pkg/validate"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// LeadConverter marks the originating lead as won in the order's transaction.
type LeadConverter interface {
	MarkWonTx(ctx context.Context, tx *gorm.DB, act actor.Actor, id uuid.UUID, note string) error
}

// PhoneBlocker reports whether a customer phone is blacklisted.
type PhoneBlocker interface {
	IsBlacklisted(ctx context.Context, phone string) (bool, error)
}

// Service manages COD orders.
type Service interface {
	Create(ctx context.Context, act actor.Actor, input CreateOrderInput) (*OrderDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, params ListParams) (*pagination.Page[OrderDTO], error)
	Update(ctx context.Context, act actor.Actor, id uuid.UUID, input UpdateOrderInput) (*OrderDTO, error)
	AddItem(ctx context.Context, act actor.Actor, id uuid.UUID, input ItemInput) (*OrderDTO, error)
	UpdateItem(ctx context.Context, act actor.Actor, id, itemID uuid.UUID, input UpdateItemInput) (*OrderDTO, error)
	RemoveItem(ctx context.Context, act actor.Actor, id, itemID uuid.UUID) (*OrderDTO, error)
	Transition(ctx context.Context, act actor.Actor, id uuid.UUID, input TransitionInput) (*OrderDTO, error)
	Recompute(ctx context.Context, act actor.Actor, id uuid.UUID) (*OrderDTO, error)
	// LockTx loads the order FOR UPDATE inside tx.
	LockTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	// TransitionTx moves the order and appends its history row inside tx.
	TransitionTx(ctx context.Context, tx *gorm.DB, act actor.Actor, id uuid.UUID, target enums.OrderStatus, note *string) (*models.Order, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	leads    LeadConverter
	blocker  PhoneBlocker
	stock    StockLedger
	logg     *logger.Logger
	recorder *metrics.Recorder
	now      func() time.Time
}

func NewService(repo Repository, tx txRunner, leads LeadConverter, blocker PhoneBlocker, stock StockLedger, logg *logger.Logger, recorder *metrics.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if leads == nil {
		return nil, fmt.Errorf("lead converter required")
	}
	if blocker == nil {
		return nil, fmt.Errorf("blacklist checker required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     repo,
		tx:       tx,
		leads:    leads,
		blocker:  blocker,
		stock:    stock,
		logg:     logg,
		recorder: recorder,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, act actor.Actor, input CreateOrderInput) (*OrderDTO, error) {
	if err := act.Require(actor.AreaOrders); err != nil {
		return nil, err
	}
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	input.City = strings.TrimSpace(input.City)
	input.Address = strings.TrimSpace(input.Address)

	v := validate.New()
	v.Struct(input)
	phone, ok := blacklist.NormalizePhone(input.CustomerPhone)
	if input.CustomerPhone != "" && !ok {
		v.Add("customer_phone", "must be 8 to 15 digits with an optional leading +")
	}
	for i, item := range input.Items {
		v.Check(item.ProductID != uuid.Nil, fmt.Sprintf("items[%d].product_id", i), "is required")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	if err := s.ensureNotBlacklisted(ctx, phone); err != nil {
		return nil, err
	}

	items, err := s.buildItems(ctx, s.repo, input.Items, 0)
	if err != nil {
		return nil, err
	}
	discount := decimal.Zero
	if input.Discount != nil {
		discount = *input.Discount
	}
	v = validate.New()
	checkOrder(v, items, discount)
	if err := v.Err(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	number, err := numbering.Generate(numbering.OrderPrefix, now, 6)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
	}
	order := &models.Order{
		Number:        number,
		LeadID:        input.LeadID,
		CustomerName:  input.CustomerName,
		CustomerPhone: phone,
		City:          input.City,
		Address:       input.Address,
		Status:        statemachine.Order.Initial(),
		Discount:      discount,
		Total:         ComputeTotal(items, discount),
		Notes:         input.Notes,
		CreatedBy:     act.Ref(),
		UpdatedBy:     act.Ref(),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if order.LeadID != nil {
			if err := s.leads.MarkWonTx(ctx, tx, act, *order.LeadID, "converted to order "+number); err != nil {
				return err
			}
		}
		if err := repo.Create(ctx, order); err != nil {
			return db.TranslateError(err, "order")
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return db.TranslateError(err, "order item")
		}
		return s.appendHistory(ctx, repo, act, order.ID, nil, order.Status, nil)
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(s.logg.WithEntity(ctx, "order", order.ID.String()), map[string]any{
		"number": order.Number,
		"total":  order.Total.String(),
	}), "order created")
	return s.Get(ctx, order.ID)
}

func (s *service) ensureNotBlacklisted(ctx context.Context, phone string) error {
	blocked, err := s.blocker.IsBlacklisted(ctx, phone)
	if err != nil {
		return err
	}
	if blocked {
		return blacklist.ErrBlacklisted(phone)
	}
	return nil
}

// buildItems snapshots the catalog for each input line. Missing or inactive
// products are reported per line index.
func (s *service) buildItems(ctx context.Context, repo Repository, inputs []ItemInput, firstPosition int) ([]models.OrderItem, error) {
	problems := validate.New()
	items := make([]models.OrderItem, 0, len(inputs))
	for i, input := range inputs {
		prefix := fmt.Sprintf("items[%d]", i)
		item, problem, err := s.buildItem(ctx, repo, input)
		if err != nil {
			return nil, err
		}
		if problem != "" {
			problems.Add(prefix+".product_id", problem)
			continue
		}
		item.Position = firstPosition + i
		items = append(items, item)
	}
	if err := problems.ErrWithCode(pkgerrors.CodeInvalidData, "order references unavailable products"); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *service) buildItem(ctx context.Context, repo Repository, input ItemInput) (models.OrderItem, string, error) {
	product, err := repo.FindProduct(ctx, input.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.OrderItem{}, "does not exist", nil
	}
	if err != nil {
		return models.OrderItem{}, "", db.TranslateError(err, "product")
	}
	if !product.IsActive {
		return models.OrderItem{}, "is inactive", nil
	}

	var variant *models.ProductVariant
	if input.VariantID != nil {
		variant, err = repo.FindVariant(ctx, product.ID, *input.VariantID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.OrderItem{}, "variant does not belong to the product", nil
		}
		if err != nil {
			return models.OrderItem{}, "", db.TranslateError(err, "variant")
		}
	}

	productID := product.ID
	item := models.OrderItem{
		ProductID:   &productID,
		VariantID:   input.VariantID,
		ProductName: product.Name,
		SKU:         product.SKU,
		Quantity:    input.Quantity,
		UnitPrice:   catalog.PriceFor(product, variant),
		UnitCost:    product.Cost,
	}
	if variant != nil {
		item.ProductName = product.Name + " - " + variant.Name
		item.SKU = variant.SKU
	}
	if input.UnitPrice != nil {
		item.UnitPrice = *input.UnitPrice
	}
	if input.Discount != nil {
		item.Discount = *input.Discount
	} else {
		rate := catalog.TierDiscountRate(product.DiscountTiers, item.Quantity)
		item.Discount = item.Subtotal().Mul(rate).Round(2)
	}
	return item, "", nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.TranslateError(err, "order")
	}
	dto := fromModel(order)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*pagination.Page[OrderDTO], error) {
	if err := pagination.CheckCursor(params.Cursor); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, db.TranslateError(err, "order")
	}
	items := make([]OrderDTO, len(rows))
	for i := range rows {
		items[i] = fromModel(&rows[i])
	}
	page := pagination.Build(items, params.Limit, cursorOf)
	return &page, nil
}

func (s *service) Update(ctx context.Context, act actor.Actor, id uuid.UUID, input UpdateOrderInput) (*OrderDTO, error) {
	if err := act.Require(actor.AreaOrders); err != nil {
		return nil, err
	}
	v := validate.New()
	v.Struct(input)
	var phone string
	if input.CustomerPhone != nil {
		normalized, ok := blacklist.NormalizePhone(*input.CustomerPhone)
		v.Check(ok, "customer_phone", "must be 8 to 15 digits with an optional leading +")
		phone = normalized
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	if input.CustomerPhone != nil {
		if err := s.ensureNotBlacklisted(ctx, phone); err != nil {
			return nil, err
		}
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			return db.TranslateError(err, "order")
		}
		if statemachine.Order.IsTerminal(order.Status) {
			return pkgerrors.Newf(pkgerrors.CodeInvalidData, "order is %s and can no longer change", order.Status)
		}
		if input.Discount != nil && !itemsEditable(order.Status) {
			return errItemsLocked(order.Status)
		}

		if input.CustomerName != nil {
			order.CustomerName = strings.TrimSpace(*input.CustomerName)
		}
		if input.CustomerPhone != nil {
			order.CustomerPhone = phone
		}
		if input.City != nil {
			order.City = strings.TrimSpace(*input.City)
		}
		if input.Address != nil {
			order.Address = strings.TrimSpace(*input.Address)
		}
		if input.Notes != nil {
			order.Notes = input.Notes
		}
		if input.Discount != nil {
			order.Discount = *input.Discount
		}

		items, err := repo.ListItems(ctx, id)
		if err != nil {
			return db.TranslateError(err, "order item")
		}
		v := validate.New()
		v.Check(order.CustomerName != "", "customer_name", "is required")
		v.Check(order.City != "", "city", "is required")
		v.Check(order.Address != "", "address", "is required")
		checkOrder(v, items, order.Discount)
		if err := v.Err(); err != nil {
			return err
		}

		updates := map[string]any{
			"customer_name":  order.CustomerName,
			"customer_phone": order.CustomerPhone,
			"city":           order.City,
			"address":        order.Address,
			"notes":          order.Notes,
			"discount":       order.Discount,
			"total":          ComputeTotal(items, order.Discount),
			"updated_by":     act.Ref(),
		}
		return db.TranslateError(repo.Update(ctx, id, updates), "order")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func itemsEditable(status enums.OrderStatus) bool {
	return status == enums.OrderStatusNew || status == enums.OrderStatusConfirmed
}

func errItemsLocked(status enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidData, "order items can only change while the order is NEW or CONFIRMED").
		WithDetails(map[string]string{"status": string(status)})
}

// mutateItems runs fn on the locked order's items and rewrites the total from
// whatever items remain. Stock already reserved follows the new quantities.
func (s *service) mutateItems(ctx context.Context, act actor.Actor, id uuid.UUID, fn func(repo Repository, order *models.Order, items []models.OrderItem) ([]models.OrderItem, error)) (*OrderDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			return db.TranslateError(err, "order")
		}
		if !itemsEditable(order.Status) {
			return errItemsLocked(order.Status)
		}
		items, err := repo.ListItems(ctx, id)
		if err != nil {
			return db.TranslateError(err, "order item")
		}
		before := demand(items)
		items, err = fn(repo, order, items)
		if err != nil {
			return err
		}
		if holdsStock(order.Status) {
			if err := s.moveStock(ctx, tx, act, order, before, demand(items)); err != nil {
				return err
			}
		}
		return s.writeTotal(ctx, repo, act, order, items)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) writeTotal(ctx context.Context, repo Repository, act actor.Actor, order *models.Order, items []models.OrderItem) error {
	order.Total = ComputeTotal(items, order.Discount)
	return db.TranslateError(repo.Update(ctx, order.ID, map[string]any{
		"total":      order.Total,
		"updated_by": act.Ref(),
	}), "order")
}

func (s *service) AddItem(ctx context.Context, act actor.Actor, id uuid.UUID, input ItemInput) (*OrderDTO, error) {
	if err := act.Require(actor.AreaOrders); err != nil {
		return nil, err
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	built, err := s.buildItems(ctx, s.repo, []ItemInput{input}, 0)
	if err != nil {
		return nil, err
	}
	item := built[0]

	return s.mutateItems(ctx, act, id, func(repo Repository, order *models.Order, items []models.OrderItem) ([]models.OrderItem, error) {
		item.OrderID = order.ID
		for _, existing := range items {
			if existing.Position >= item.Position {
				item.Position = existing.Position + 1
			}
		}
		items = append(items, item)
		v := validate.New()
		checkOrder(v, items, order.Discount)
		if err := v.Err(); err != nil {
			return nil, err
		}
		if err := repo.CreateItems(ctx, []models.OrderItem{item}); err != nil {
			return nil, db.TranslateError(err, "order item")
		}
		return items, nil
	})
}

func (s *service) UpdateItem(ctx context.Context, act actor.Actor, id, itemID uuid.UUID, input UpdateItemInput) (*OrderDTO, error) {
	if err := act.Require(actor.AreaOrders); err != nil {
		return nil, err
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	return s.mutateItems(ctx, act, id, func(repo Repository, order *models.Order, items []models.OrderItem) ([]models.OrderItem, error) {
		idx := -1
		for i := range items {
			if items[i].ID == itemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		item := &items[idx]
		if input.Quantity != nil {
			item.Quantity = *input.Quantity
		}
		if input.UnitPrice != nil {
			item.UnitPrice = *input.UnitPrice
		}
		if input.Discount != nil {
			item.Discount = *input.Discount
		}
		v := validate.New()
		checkOrder(v, items, order.Discount)
		if err := v.Err(); err != nil {
			return nil, err
		}
		if err := repo.UpdateItem(ctx, item); err != nil {
			return nil, db.TranslateError(err, "order item")
		}
		return items, nil
	})
}

func (s *service) RemoveItem(ctx context.Context, act actor.Actor, id, itemID uuid.UUID) (*OrderDTO, error) {
	if err := act.Require(actor.AreaOrders); err != nil {
		return nil, err
	}
	return s.mutateItems(ctx, act, id, func(repo Repository, order *models.Order, items []models.OrderItem) ([]models.OrderItem, error) {
		remaining := make([]models.OrderItem, 0, len(items))
		found := false
		for _, item := range items {
			if item.ID == itemID {
				found = true
				continue
			}
			remaining = append(remaining, item)
		}
		if !found {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		if len(remaining) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidData, "order must keep at least one item")
		}
		v := validate.New()
		checkOrder(v, remaining, order.Discount)
		if err := v.Err(); err != nil {
			return nil, err
		}
		if err := repo.DeleteItem(ctx, order.ID, itemID); err != nil {
			return nil, db.TranslateError(err, "order item")
		}
		return remaining, nil
	})
}

func (s *service) Transition(ctx context.Context, act actor.Actor, id uuid.UUID, input TransitionInput) (*OrderDTO, error) {
	if err := act.Require(actor.AreaOrders); err != nil {
		return nil, err
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	target, err := enums.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(input.Status)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]string{"status": "is not an allowed value"})
	}
	if shipmentOwned(target) {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidTransition, "%s is set by the order's shipment", target).
			WithDetails(map[string]string{"to": string(target)})
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.TransitionTx(ctx, tx, act, id, target, input.Note)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// shipmentOwned reports statuses only the shipment flow may set.
func shipmentOwned(status enums.OrderStatus) bool {
	switch status {
	case enums.OrderStatusShipped, enums.OrderStatusDelivered, enums.OrderStatusReturned:
		return true
	}
	return false
}

func (s *service) LockTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.WithTx(tx).FindForUpdate(ctx, id)
	if err != nil {
		return nil, db.TranslateError(err, "order")
	}
	return order, nil
}

func (s *service) TransitionTx(ctx context.Context, tx *gorm.DB, act actor.Actor, id uuid.UUID, target enums.OrderStatus, note *string) (*models.Order, error) {
	repo := s.repo.WithTx(tx)
	order, err := repo.FindForUpdate(ctx, id)
	if err != nil {
		return nil, db.TranslateError(err, "order")
	}
	from := order.Status
	if err := statemachine.Order.Transition(from, target); err != nil {
		return nil, err
	}
	if target == enums.OrderStatusCancelled {
		shipped, err := repo.HasShipment(ctx, id)
		if err != nil {
			return nil, db.TranslateError(err, "shipment")
		}
		if shipped {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "order has a shipment; delete the shipment before cancelling").
				WithDetails(map[string]string{"from": string(from), "to": string(target)})
		}
	}
	if holdsStock(from) != holdsStock(target) {
		items, err := repo.ListItems(ctx, id)
		if err != nil {
			return nil, db.TranslateError(err, "order item")
		}
		var before, after map[stockKey]stockLine
		if holdsStock(target) {
			after = demand(items)
		} else {
			before = demand(items)
		}
		if err := s.moveStock(ctx, tx, act, order, before, after); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	updates := map[string]any{"status": target, "updated_by": act.Ref()}
	switch target {
	case enums.OrderStatusConfirmed:
		updates["confirmed_at"] = now
		order.ConfirmedAt = &now
	case enums.OrderStatusShipped:
		updates["shipped_at"] = now
		order.ShippedAt = &now
	case enums.OrderStatusDelivered:
		updates["delivered_at"] = now
		order.DeliveredAt = &now
	case enums.OrderStatusReturned:
		updates["returned_at"] = now
		order.ReturnedAt = &now
	case enums.OrderStatusCancelled:
		updates["cancelled_at"] = now
		order.CancelledAt = &now
	}
	if err := repo.Update(ctx, id, updates); err != nil {
		return nil, db.TranslateError(err, "order")
	}
	if err := s.appendHistory(ctx, repo, act, id, &from, target, note); err != nil {
		return nil, err
	}
	order.Status = target

	s.recorder.Transition("order", string(from), string(target))
	s.logg.Info(s.logg.WithFields(s.logg.WithEntity(ctx, "order", id.String()), map[string]any{
		"from": from,
		"to":   target,
	}), "order status changed")
	return order, nil
}

func (s *service) appendHistory(ctx context.Context, repo Repository, act actor.Actor, orderID uuid.UUID, from *enums.OrderStatus, to enums.OrderStatus, note *string) error {
	entry := &models.OrderHistory{
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    act.Ref(),
		Note:       note,
	}
	return db.TranslateError(repo.CreateHistory(ctx, entry), "order history")
}

func (s *service) Recompute(ctx context.Context, act actor.Actor, id uuid.UUID) (*OrderDTO, error) {
	if err := act.Require(actor.AreaOrders); err != nil {
		return nil, err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			return db.TranslateError(err, "order")
		}
		items, err := repo.ListItems(ctx, id)
		if err != nil {
			return db.TranslateError(err, "order item")
		}
		total := ComputeTotal(items, order.Discount)
		if total.Equal(order.Total) {
			return nil
		}
		s.logg.Warn(s.logg.WithFields(s.logg.WithEntity(ctx, "order", id.String()), map[string]any{
			"stored":   order.Total.String(),
			"computed": total.String(),
		}), "order total drifted")
		return s.writeTotal(ctx, repo, act, order, items)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}
