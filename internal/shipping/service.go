package shipping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/pkg/actor"
	"github.com/angelmondragon/codcrm-backend/pkg/db"
	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
	"github.com/angelmondragon/codcrm-backend/pkg/logger"
	"github.com/angelmondragon/codcrm-backend/pkg/metrics"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
	"github.com/angelmondragon/codcrm-backend/pkg/statemachine"
	"github.com/angelmondragon/codcrm-backend/pkg/validate"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// OrderFlow is the part of the orders service shipments drive.
type OrderFlow interface {
	LockTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	TransitionTx(ctx context.Context, tx *gorm.DB, act actor.Actor, id uuid.UUID, target enums.OrderStatus, note *string) (*models.Order, error)
}

// orderTargets maps shipment statuses that settle the order.
var orderTargets = map[enums.ShipmentStatus]enums.OrderStatus{
	enums.ShipmentStatusPickedUp:  enums.OrderStatusShipped,
	enums.ShipmentStatusDelivered: enums.OrderStatusDelivered,
	enums.ShipmentStatusReturned:  enums.OrderStatusReturned,
}

// Service manages couriers and the shipments handed to them.
type Service interface {
	CreateCourier(ctx context.Context, act actor.Actor, input CreateCourierInput) (*CourierDTO, error)
	UpdateCourier(ctx context.Context, act actor.Actor, id uuid.UUID, input UpdateCourierInput) (*CourierDTO, error)
	GetCourier(ctx context.Context, id uuid.UUID) (*CourierDTO, error)
	ListCouriers(ctx context.Context, active *bool) ([]CourierDTO, error)
	CourierStats(ctx context.Context, id uuid.UUID) (*CourierStats, error)
	CreateShipment(ctx context.Context, act actor.Actor, input CreateShipmentInput) (*ShipmentDTO, error)
	GetShipment(ctx context.Context, id uuid.UUID) (*ShipmentDTO, error)
	ListShipments(ctx context.Context, params ShipmentListParams) (*pagination.Page[ShipmentDTO], error)
	// DeleteShipment withdraws a PENDING shipment that is not on a bordereau,
	// letting its order be cancelled or shipped again.
	DeleteShipment(ctx context.Context, act actor.Actor, id uuid.UUID) error
	Transition(ctx context.Context, act actor.Actor, id uuid.UUID, input TransitionInput) (*ShipmentDTO, error)
	AddTrackingEvent(ctx context.Context, act actor.Actor, id uuid.UUID, input TrackingEventInput) (*TrackingDTO, error)
	// TransitionTx moves the shipment, appends tracking and drives the order
	// inside tx.
	TransitionTx(ctx context.Context, tx *gorm.DB, act actor.Actor, id uuid.UUID, target enums.ShipmentStatus, location, note *string) (*models.Shipment, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	orders   OrderFlow
	logg     *logger.Logger
	recorder *metrics.Recorder
	now      func() time.Time
}

func NewService(repo Repository, tx txRunner, orders OrderFlow, logg *logger.Logger, recorder *metrics.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipping repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order flow required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, orders: orders, logg: logg, recorder: recorder, now: time.Now}, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *service) CreateCourier(ctx context.Context, act actor.Actor, input CreateCourierInput) (*CourierDTO, error) {
	if err := act.Require(actor.AreaShipping); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Code = normalizeCode(input.Code)
	v := validate.New()
	v.Struct(input)
	v.NonNegative("base_rate", input.BaseRate)
	if err := v.Err(); err != nil {
		return nil, err
	}
	courier := &models.Courier{
		Name:     input.Name,
		Code:     input.Code,
		Phone:    input.Phone,
		BaseRate: input.BaseRate,
		IsActive: true,
	}
	if input.IsActive != nil {
		courier.IsActive = *input.IsActive
	}
	if err := s.repo.CreateCourier(ctx, courier); err != nil {
		return nil, db.TranslateError(err, "courier")
	}
	dto := courierFromModel(courier)
	return &dto, nil
}

func (s *service) UpdateCourier(ctx context.Context, act actor.Actor, id uuid.UUID, input UpdateCourierInput) (*CourierDTO, error) {
	if err := act.Require(actor.AreaShipping); err != nil {
		return nil, err
	}
	v := validate.New()
	v.Struct(input)
	v.NonNegativePtr("base_rate", input.BaseRate)
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		v.Check(name != "", "name", "is required")
		updates["name"] = name
	}
	if input.Code != nil {
		code := normalizeCode(*input.Code)
		v.Check(code != "", "code", "is required")
		updates["code"] = code
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	if input.Phone != nil {
		updates["phone"] = input.Phone
	}
	if input.BaseRate != nil {
		updates["base_rate"] = *input.BaseRate
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateCourier(ctx, id, updates); err != nil {
			return nil, db.TranslateError(err, "courier")
		}
	}
	return s.GetCourier(ctx, id)
}

func (s *service) GetCourier(ctx context.Context, id uuid.UUID) (*CourierDTO, error) {
	courier, err := s.repo.FindCourier(ctx, id)
	if err != nil {
		return nil, db.TranslateError(err, "courier")
	}
	dto := courierFromModel(courier)
	return &dto, nil
}

func (s *service) ListCouriers(ctx context.Context, active *bool) ([]CourierDTO, error) {
	rows, err := s.repo.ListCouriers(ctx, active)
	if err != nil {
		return nil, db.TranslateError(err, "courier")
	}
	out := make([]CourierDTO, len(rows))
	for i := range rows {
		out[i] = courierFromModel(&rows[i])
	}
	return out, nil
}

func (s *service) CourierStats(ctx context.Context, id uuid.UUID) (*CourierStats, error) {
	if _, err := s.repo.FindCourier(ctx, id); err != nil {
		return nil, db.TranslateError(err, "courier")
	}
	counts, err := s.repo.CountByStatus(ctx, id)
	if err != nil {
		return nil, db.TranslateError(err, "shipment")
	}
	windows, err := s.repo.DeliveryWindows(ctx, id)
	if err != nil {
		return nil, db.TranslateError(err, "shipment")
	}
	stats := &CourierStats{
		CourierID:       id,
		Delivered:       counts[enums.ShipmentStatusDelivered],
		Returned:        counts[enums.ShipmentStatusReturned],
		AvgDeliveryDays: AvgDeliveryDays(windows),
	}
	for _, n := range counts {
		stats.Shipments += n
	}
	stats.InFlight = stats.Shipments - stats.Delivered - stats.Returned
	return stats, nil
}

func (s *service) CreateShipment(ctx context.Context, act actor.Actor, input CreateShipmentInput) (*ShipmentDTO, error) {
	if err := act.Require(actor.AreaShipping); err != nil {
		return nil, err
	}
	input.TrackingNumber = strings.TrimSpace(input.TrackingNumber)
	v := validate.New()
	v.Struct(input)
	v.Check(input.OrderID != uuid.Nil, "order_id", "is required")
	v.Check(input.CourierID != uuid.Nil, "courier_id", "is required")
	v.NonNegativePtr("cod_amount", input.CODAmount)
	v.NonNegativePtr("shipping_cost", input.ShippingCost)
	if err := v.Err(); err != nil {
		return nil, err
	}

	courier, err := s.repo.FindCourier(ctx, input.CourierID)
	if err != nil {
		return nil, db.TranslateError(err, "courier")
	}
	if !courier.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidData, "courier is inactive").
			WithDetails(map[string]string{"courier_id": courier.ID.String()})
	}

	var shipment *models.Shipment
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.orders.LockTx(ctx, tx, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusConfirmed && order.Status != enums.OrderStatusProcessing {
			return pkgerrors.New(pkgerrors.CodeInvalidData, "only CONFIRMED or PROCESSING orders can be shipped").
				WithDetails(map[string]string{"order_id": order.ID.String(), "status": string(order.Status)})
		}
		exists, err := repo.ShipmentExistsForOrder(ctx, order.ID)
		if err != nil {
			return db.TranslateError(err, "shipment")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeDuplicate, "order already has a shipment").
				WithDetails(map[string]string{"order_id": order.ID.String()})
		}

		shipment = &models.Shipment{
			OrderID:        order.ID,
			CourierID:      courier.ID,
			TrackingNumber: input.TrackingNumber,
			Status:         statemachine.Shipment.Initial(),
			CODAmount:      order.Total,
			ShippingCost:   courier.BaseRate,
		}
		if input.CODAmount != nil {
			shipment.CODAmount = *input.CODAmount
		}
		if input.ShippingCost != nil {
			shipment.ShippingCost = *input.ShippingCost
		}
		if err := repo.CreateShipment(ctx, shipment); err != nil {
			return db.TranslateError(err, "shipment")
		}
		if err := repo.CreateTracking(ctx, &models.ShipmentTracking{
			ShipmentID: shipment.ID,
			Status:     shipment.Status,
			ActorID:    act.Ref(),
		}); err != nil {
			return db.TranslateError(err, "shipment tracking")
		}
		if order.Status == enums.OrderStatusConfirmed {
			note := "shipment " + shipment.TrackingNumber + " created"
			if _, err := s.orders.TransitionTx(ctx, tx, act, order.ID, enums.OrderStatusProcessing, &note); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(s.logg.WithEntity(ctx, "shipment", shipment.ID.String()), map[string]any{
		"order_id":   shipment.OrderID,
		"courier_id": shipment.CourierID,
	}), "shipment created")
	return s.GetShipment(ctx, shipment.ID)
}

func (s *service) GetShipment(ctx context.Context, id uuid.UUID) (*ShipmentDTO, error) {
	shipment, err := s.repo.FindShipment(ctx, id)
	if err != nil {
		return nil, db.TranslateError(err, "shipment")
	}
	dto := shipmentFromModel(shipment)
	return &dto, nil
}

func (s *service) ListShipments(ctx context.Context, params ShipmentListParams) (*pagination.Page[ShipmentDTO], error) {
	if err := pagination.CheckCursor(params.Cursor); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListShipments(ctx, params)
	if err != nil {
		return nil, db.TranslateError(err, "shipment")
	}
	items := make([]ShipmentDTO, len(rows))
	for i := range rows {
		items[i] = shipmentFromModel(&rows[i])
	}
	page := pagination.Build(items, params.Limit, shipmentCursor)
	return &page, nil
}

func (s *service) DeleteShipment(ctx context.Context, act actor.Actor, id uuid.UUID) error {
	if err := act.Require(actor.AreaShipping); err != nil {
		return err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shipment, err := repo.FindShipmentForUpdate(ctx, id)
		if err != nil {
			return db.TranslateError(err, "shipment")
		}
		if shipment.Status != enums.ShipmentStatusPending {
			return pkgerrors.Newf(pkgerrors.CodeInvalidData, "shipment is %s and can no longer be deleted", shipment.Status)
		}
		if shipment.BordereauID != nil {
			return pkgerrors.New(pkgerrors.CodeInvalidData, "shipment is on a bordereau; remove it from the bordereau first").
				WithDetails(map[string]string{"bordereau_id": shipment.BordereauID.String()})
		}
		return db.TranslateError(repo.DeleteShipment(ctx, id), "shipment")
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithEntity(ctx, "shipment", id.String()), "shipment deleted")
	return nil
}

func (s *service) Transition(ctx context.Context, act actor.Actor, id uuid.UUID, input TransitionInput) (*ShipmentDTO, error) {
	if err := act.Require(actor.AreaShipping); err != nil {
		return nil, err
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	target, err := enums.ParseShipmentStatus(strings.ToUpper(strings.TrimSpace(input.Status)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipment status").
			WithDetails(map[string]string{"status": "is not an allowed value"})
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.TransitionTx(ctx, tx, act, id, target, input.Location, input.Note)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetShipment(ctx, id)
}

func (s *service) TransitionTx(ctx context.Context, tx *gorm.DB, act actor.Actor, id uuid.UUID, target enums.ShipmentStatus, location, note *string) (*models.Shipment, error) {
	repo := s.repo.WithTx(tx)
	shipment, err := repo.FindShipmentForUpdate(ctx, id)
	if err != nil {
		return nil, db.TranslateError(err, "shipment")
	}
	from := shipment.Status
	if err := statemachine.Shipment.Transition(from, target); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	updates := map[string]any{"status": target}
	switch target {
	case enums.ShipmentStatusPickedUp:
		updates["picked_up_at"] = now
		shipment.PickedUpAt = &now
	case enums.ShipmentStatusDelivered:
		updates["delivered_at"] = now
		shipment.DeliveredAt = &now
	case enums.ShipmentStatusReturned:
		updates["returned_at"] = now
		shipment.ReturnedAt = &now
	}
	if err := repo.UpdateShipment(ctx, id, updates); err != nil {
		return nil, db.TranslateError(err, "shipment")
	}
	if err := repo.CreateTracking(ctx, &models.ShipmentTracking{
		ShipmentID: id,
		FromStatus: &from,
		Status:     target,
		Location:   location,
		Note:       note,
		ActorID:    act.Ref(),
	}); err != nil {
		return nil, db.TranslateError(err, "shipment tracking")
	}
	shipment.Status = target

	if orderStatus, ok := orderTargets[target]; ok {
		msg := fmt.Sprintf("shipment %s %s", shipment.TrackingNumber, strings.ToLower(string(target)))
		if _, err := s.orders.TransitionTx(ctx, tx, act, shipment.OrderID, orderStatus, &msg); err != nil {
			return nil, err
		}
	}

	s.recorder.Transition("shipment", string(from), string(target))
	s.logg.Info(s.logg.WithFields(s.logg.WithEntity(ctx, "shipment", id.String()), map[string]any{
		"from": from,
		"to":   target,
	}), "shipment status changed")
	return shipment, nil
}

func (s *service) AddTrackingEvent(ctx context.Context, act actor.Actor, id uuid.UUID, input TrackingEventInput) (*TrackingDTO, error) {
	if err := act.Require(actor.AreaShipping); err != nil {
		return nil, err
	}
	v := validate.New()
	v.Struct(input)
	v.Check(input.Location != nil || input.Note != nil, "note", "location or note is required")
	if err := v.Err(); err != nil {
		return nil, err
	}
	shipment, err := s.repo.FindShipment(ctx, id)
	if err != nil {
		return nil, db.TranslateError(err, "shipment")
	}
	event := &models.ShipmentTracking{
		ShipmentID: id,
		Status:     shipment.Status,
		Location:   input.Location,
		Note:       input.Note,
		ActorID:    act.Ref(),
	}
	if err := s.repo.CreateTracking(ctx, event); err != nil {
		return nil, db.TranslateError(err, "shipment tracking")
	}
	dto := trackingFromModel(event)
	return &dto, nil
}
