package shipping

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/internal/catalog"
	"github.com/angelmondragon/codcrm-backend/internal/leads"
	"github.com/angelmondragon/codcrm-backend/internal/orders"
	"github.com/angelmondragon/codcrm-backend/pkg/actor"
	"github.com/angelmondragon/codcrm-backend/pkg/db"
	"github.com/angelmondragon/codcrm-backend/pkg/db/dbtest"
	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
)

type openPhones struct{}

func (openPhones) IsBlacklisted(context.Context, string) (bool, error) { return false, nil }

type anyUser struct{}

func (anyUser) Exists(context.Context, uuid.UUID) (bool, error) { return true, nil }

type fixture struct {
	conn    *gorm.DB
	svc     Service
	orders  orders.Service
	ops     actor.Actor
	product models.Product
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t, models.All()...)
	runner := db.Wrap(conn)
	leadSvc, err := leads.NewService(leads.NewRepository(conn), runner, openPhones{}, anyUser{}, nil, nil)
	require.NoError(t, err)
	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn), runner, nil)
	require.NoError(t, err)
	orderSvc, err := orders.NewService(orders.NewRepository(conn), runner, leadSvc, openPhones{}, catalogSvc, nil, nil)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), runner, orderSvc, nil, nil)
	require.NoError(t, err)

	f := &fixture{
		conn:   conn,
		svc:    svc,
		orders: orderSvc,
		ops:    actor.New(uuid.New(), enums.UserRoleFulfillment),
		clock:  time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	svc.(*service).now = func() time.Time { return f.clock }

	f.product = models.Product{Name: "Serum", SKU: "SER-1", Price: decimal.NewFromInt(120), Cost: decimal.NewFromInt(30), Stock: 100, IsActive: true}
	require.NoError(t, conn.Create(&f.product).Error)
	return f
}

func (f *fixture) order(t *testing.T, confirm bool) *orders.OrderDTO {
	t.Helper()
	ctx := context.Background()
	order, err := f.orders.Create(ctx, f.ops, orders.CreateOrderInput{
		CustomerName:  "Imane",
		CustomerPhone: "+212622000111",
		City:          "Marrakech",
		Address:       "5 Derb Sidi",
		Items:         []orders.ItemInput{{ProductID: f.product.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	if confirm {
		order, err = f.orders.Transition(ctx, f.ops, order.ID, orders.TransitionInput{Status: "CONFIRMED"})
		require.NoError(t, err)
	}
	return order
}

func (f *fixture) courier(t *testing.T, code string) *CourierDTO {
	t.Helper()
	courier, err := f.svc.CreateCourier(context.Background(), f.ops, CreateCourierInput{
		Name:     "Courier " + code,
		Code:     code,
		BaseRate: decimal.NewFromInt(35),
	})
	require.NoError(t, err)
	return courier
}

func (f *fixture) ship(t *testing.T, courierID uuid.UUID, tracking string) *ShipmentDTO {
	t.Helper()
	order := f.order(t, true)
	shipment, err := f.svc.CreateShipment(context.Background(), f.ops, CreateShipmentInput{
		OrderID:        order.ID,
		CourierID:      courierID,
		TrackingNumber: tracking,
	})
	require.NoError(t, err)
	return shipment
}

func (f *fixture) orderStatus(t *testing.T, id uuid.UUID) enums.OrderStatus {
	t.Helper()
	order, err := f.orders.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotEmpty(t, order.History)
	assert.Equal(t, order.Status, order.History[len(order.History)-1].ToStatus)
	return order.Status
}

func TestCourierCodeIsNormalisedAndUnique(t *testing.T) {
	f := newFixture(t)
	courier := f.courier(t, " amana ")
	assert.Equal(t, "AMANA", courier.Code)
	assert.True(t, courier.IsActive)

	_, err := f.svc.CreateCourier(context.Background(), f.ops, CreateCourierInput{Name: "Dup", Code: "Amana"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDuplicate))

	rate := decimal.NewFromInt(-1)
	_, err = f.svc.UpdateCourier(context.Background(), f.ops, courier.ID, UpdateCourierInput{BaseRate: &rate})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	inactive := false
	updated, err := f.svc.UpdateCourier(context.Background(), f.ops, courier.ID, UpdateCourierInput{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "AMANA", updated.Code)
}

func TestCreateShipmentDefaultsAndMovesOrder(t *testing.T) {
	f := newFixture(t)
	courier := f.courier(t, "AMANA")
	shipment := f.ship(t, courier.ID, "AM-0001")

	assert.Equal(t, enums.ShipmentStatusPending, shipment.Status)
	assert.True(t, decimal.NewFromInt(120).Equal(shipment.CODAmount))
	assert.True(t, decimal.NewFromInt(35).Equal(shipment.ShippingCost))
	require.Len(t, shipment.Tracking, 1)
	assert.Nil(t, shipment.Tracking[0].FromStatus)
	assert.Equal(t, enums.OrderStatusProcessing, f.orderStatus(t, shipment.OrderID))

	_, err := f.svc.CreateShipment(context.Background(), f.ops, CreateShipmentInput{
		OrderID: shipment.OrderID, CourierID: courier.ID, TrackingNumber: "AM-0002",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDuplicate))
}

func TestCreateShipmentRejectsUnconfirmedOrder(t *testing.T) {
	f := newFixture(t)
	courier := f.courier(t, "AMANA")
	order := f.order(t, false)

	_, err := f.svc.CreateShipment(context.Background(), f.ops, CreateShipmentInput{
		OrderID: order.ID, CourierID: courier.ID, TrackingNumber: "AM-1",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidData))
	assert.Equal(t, enums.OrderStatusNew, f.orderStatus(t, order.ID))
}

func TestCreateShipmentRejectsInactiveCourier(t *testing.T) {
	f := newFixture(t)
	inactive := false
	courier, err := f.svc.CreateCourier(context.Background(), f.ops, CreateCourierInput{Name: "Old", Code: "OLD", IsActive: &inactive})
	require.NoError(t, err)
	order := f.order(t, true)

	_, err = f.svc.CreateShipment(context.Background(), f.ops, CreateShipmentInput{OrderID: order.ID, CourierID: courier.ID, TrackingNumber: "X"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidData))
}

func TestDeliveryDrivesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courier := f.courier(t, "AMANA")
	shipment := f.ship(t, courier.ID, "AM-0001")

	_, err := f.svc.Transition(ctx, f.ops, shipment.ID, TransitionInput{Status: "DELIVERED"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))

	location := "Casablanca hub"
	picked, err := f.svc.Transition(ctx, f.ops, shipment.ID, TransitionInput{Status: "picked_up", Location: &location})
	require.NoError(t, err)
	assert.NotNil(t, picked.PickedUpAt)
	assert.Equal(t, enums.OrderStatusShipped, f.orderStatus(t, shipment.OrderID))

	_, err = f.svc.Transition(ctx, f.ops, shipment.ID, TransitionInput{Status: "IN_TRANSIT"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, f.orderStatus(t, shipment.OrderID))

	delivered, err := f.svc.Transition(ctx, f.ops, shipment.ID, TransitionInput{Status: "DELIVERED"})
	require.NoError(t, err)
	assert.NotNil(t, delivered.DeliveredAt)
	require.Len(t, delivered.Tracking, 4)
	assert.Equal(t, "Casablanca hub", *delivered.Tracking[1].Location)
	assert.Equal(t, enums.OrderStatusDelivered, f.orderStatus(t, shipment.OrderID))

	_, err = f.svc.Transition(ctx, f.ops, shipment.ID, TransitionInput{Status: "RETURNED"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))
}

func TestReturnDrivesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courier := f.courier(t, "AMANA")
	shipment := f.ship(t, courier.ID, "AM-0001")

	_, err := f.svc.Transition(ctx, f.ops, shipment.ID, TransitionInput{Status: "PICKED_UP"})
	require.NoError(t, err)
	returned, err := f.svc.Transition(ctx, f.ops, shipment.ID, TransitionInput{Status: "RETURNED"})
	require.NoError(t, err)
	assert.NotNil(t, returned.ReturnedAt)
	assert.Equal(t, enums.OrderStatusReturned, f.orderStatus(t, shipment.OrderID))
	assert.Equal(t, 100, f.stock(t))
}

func (f *fixture) stock(t *testing.T) int {
	t.Helper()
	var product models.Product
	require.NoError(t, f.conn.First(&product, "id = ?", f.product.ID).Error)
	return product.Stock
}

func TestCancelWaitsForShipmentDeletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courier := f.courier(t, "AMANA")
	shipment := f.ship(t, courier.ID, "AM-0001")
	assert.Equal(t, 99, f.stock(t))

	_, err := f.orders.Transition(ctx, f.ops, shipment.OrderID, orders.TransitionInput{Status: "CANCELLED"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))
	assert.Equal(t, enums.OrderStatusProcessing, f.orderStatus(t, shipment.OrderID))

	require.NoError(t, f.svc.DeleteShipment(ctx, f.ops, shipment.ID))
	_, err = f.svc.GetShipment(ctx, shipment.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	var events int64
	require.NoError(t, f.conn.Model(&models.ShipmentTracking{}).Where("shipment_id = ?", shipment.ID).Count(&events).Error)
	assert.Zero(t, events)

	_, err = f.orders.Transition(ctx, f.ops, shipment.OrderID, orders.TransitionInput{Status: "CANCELLED"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, f.orderStatus(t, shipment.OrderID))
	assert.Equal(t, 100, f.stock(t))
}

func TestDeleteShipmentOnlyWhilePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courier := f.courier(t, "AMANA")
	shipment := f.ship(t, courier.ID, "AM-0001")
	_, err := f.svc.Transition(ctx, f.ops, shipment.ID, TransitionInput{Status: "PICKED_UP"})
	require.NoError(t, err)

	err = f.svc.DeleteShipment(ctx, f.ops, shipment.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidData))

	err = f.svc.DeleteShipment(ctx, f.ops, uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = f.svc.DeleteShipment(ctx, actor.New(uuid.New(), enums.UserRoleCallCenter), shipment.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestManualShippedCannotPreemptPickup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courier := f.courier(t, "AMANA")
	shipment := f.ship(t, courier.ID, "AM-0001")

	for _, status := range []string{"SHIPPED", "DELIVERED"} {
		_, err := f.orders.Transition(ctx, f.ops, shipment.OrderID, orders.TransitionInput{Status: status})
		require.Error(t, err, status)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition), status)
	}
	assert.Equal(t, enums.OrderStatusProcessing, f.orderStatus(t, shipment.OrderID))

	_, err := f.svc.Transition(ctx, f.ops, shipment.ID, TransitionInput{Status: "PICKED_UP"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, f.orderStatus(t, shipment.OrderID))
}

func TestOrderRejectionRollsBackShipmentMove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courier := f.courier(t, "AMANA")
	shipment := f.ship(t, courier.ID, "AM-0001")

	require.NoError(t, f.conn.Model(&models.Order{}).Where("id = ?", shipment.OrderID).
		Update("status", enums.OrderStatusDelivered).Error)

	_, err := f.svc.Transition(ctx, f.ops, shipment.ID, TransitionInput{Status: "PICKED_UP"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))

	stored, err := f.svc.GetShipment(ctx, shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusPending, stored.Status)
	assert.Len(t, stored.Tracking, 1)
}

func TestAddTrackingEventKeepsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courier := f.courier(t, "AMANA")
	shipment := f.ship(t, courier.ID, "AM-0001")

	_, err := f.svc.AddTrackingEvent(ctx, f.ops, shipment.ID, TrackingEventInput{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	note := "customer asked for evening delivery"
	event, err := f.svc.AddTrackingEvent(ctx, f.ops, shipment.ID, TrackingEventInput{Note: &note})
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusPending, event.Status)
	assert.Nil(t, event.FromStatus)

	stored, err := f.svc.GetShipment(ctx, shipment.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Tracking, 2)
}

func TestCourierStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courier := f.courier(t, "AMANA")

	empty, err := f.svc.CourierStats(ctx, courier.ID)
	require.NoError(t, err)
	assert.True(t, empty.AvgDeliveryDays.IsZero())
	assert.Zero(t, empty.Shipments)

	deliver := func(tracking string, days int) {
		shipment := f.ship(t, courier.ID, tracking)
		f.clock = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		_, err := f.svc.Transition(ctx, f.ops, shipment.ID, TransitionInput{Status: "PICKED_UP"})
		require.NoError(t, err)
		f.clock = f.clock.Add(time.Duration(days) * 24 * time.Hour)
		_, err = f.svc.Transition(ctx, f.ops, shipment.ID, TransitionInput{Status: "DELIVERED"})
		require.NoError(t, err)
	}
	deliver("AM-1", 1)
	deliver("AM-2", 3)
	f.ship(t, courier.ID, "AM-3")

	stats, err := f.svc.CourierStats(ctx, courier.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Shipments)
	assert.Equal(t, int64(2), stats.Delivered)
	assert.Equal(t, int64(1), stats.InFlight)
	assert.True(t, decimal.NewFromInt(2).Equal(stats.AvgDeliveryDays), stats.AvgDeliveryDays.String())
}

func TestListUnassignedShipments(t *testing.T) {
	f := newFixture(t)
	courier := f.courier(t, "AMANA")
	f.ship(t, courier.ID, "AM-1")
	f.ship(t, courier.ID, "AM-2")

	page, err := f.svc.ListShipments(context.Background(), ShipmentListParams{CourierID: &courier.ID, Unassigned: true})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}
