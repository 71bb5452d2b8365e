package bordereaux

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/internal/catalog"
	"github.com/angelmondragon/codcrm-backend/internal/leads"
	"github.com/angelmondragon/codcrm-backend/internal/orders"
	"github.com/angelmondragon/codcrm-backend/internal/shipping"
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
	conn     *gorm.DB
	svc      Service
	orders   orders.Service
	shipping shipping.Service
	ops      actor.Actor
	product  models.Product
	seq      int
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
	shipSvc, err := shipping.NewService(shipping.NewRepository(conn), runner, orderSvc, nil, nil)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), runner, shipSvc, nil, nil)
	require.NoError(t, err)

	f := &fixture{
		conn:     conn,
		svc:      svc,
		orders:   orderSvc,
		shipping: shipSvc,
		ops:      actor.New(uuid.New(), enums.UserRoleFulfillment),
	}
	f.product = models.Product{Name: "Serum", SKU: "SER-1", Price: decimal.NewFromInt(120), Cost: decimal.NewFromInt(30), Stock: 100, IsActive: true}
	require.NoError(t, conn.Create(&f.product).Error)
	return f
}

func (f *fixture) courier(t *testing.T, code string) *shipping.CourierDTO {
	t.Helper()
	courier, err := f.shipping.CreateCourier(context.Background(), f.ops, shipping.CreateCourierInput{
		Name:     "Courier " + code,
		Code:     code,
		BaseRate: decimal.NewFromInt(35),
	})
	require.NoError(t, err)
	return courier
}

func (f *fixture) ship(t *testing.T, courierID uuid.UUID) *shipping.ShipmentDTO {
	t.Helper()
	ctx := context.Background()
	f.seq++
	order, err := f.orders.Create(ctx, f.ops, orders.CreateOrderInput{
		CustomerName:  fmt.Sprintf("Customer %d", f.seq),
		CustomerPhone: "+21262200011" + strconv.Itoa(f.seq%10),
		City:          "Rabat",
		Address:       "12 Rue Oued",
		Items:         []orders.ItemInput{{ProductID: f.product.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = f.orders.Transition(ctx, f.ops, order.ID, orders.TransitionInput{Status: "CONFIRMED"})
	require.NoError(t, err)
	shipment, err := f.shipping.CreateShipment(ctx, f.ops, shipping.CreateShipmentInput{
		OrderID:        order.ID,
		CourierID:      courierID,
		TrackingNumber: fmt.Sprintf("TRK-%03d", f.seq),
	})
	require.NoError(t, err)
	return shipment
}

func (f *fixture) draft(t *testing.T, courierID uuid.UUID) *BordereauDTO {
	t.Helper()
	b, err := f.svc.Create(context.Background(), f.ops, CreateInput{
		CourierID:  courierID,
		PickupDate: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return b
}

func TestCreateStartsDraft(t *testing.T) {
	f := newFixture(t)
	courier := f.courier(t, "AMANA")
	b := f.draft(t, courier.ID)

	assert.Regexp(t, `^BRD-\d{8}-[A-Z2-9]{4}$`, b.Number)
	assert.Equal(t, enums.BordereauStatusDraft, b.Status)
	assert.Zero(t, b.ShipmentCount)
	assert.True(t, b.TotalCODAmount.IsZero())
	require.Len(t, b.History, 1)
	assert.Nil(t, b.History[0].FromStatus)
	assert.Equal(t, enums.BordereauStatusDraft, b.History[0].ToStatus)

	_, err := f.svc.Create(context.Background(), f.ops, CreateInput{CourierID: uuid.New(), PickupDate: time.Now()})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Create(context.Background(), actor.New(uuid.New(), enums.UserRoleCallCenter), CreateInput{CourierID: courier.ID, PickupDate: time.Now()})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestAddShipmentsRecomputesTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courier := f.courier(t, "AMANA")
	b := f.draft(t, courier.ID)
	first := f.ship(t, courier.ID)
	second := f.ship(t, courier.ID)

	got, err := f.svc.AddShipments(ctx, f.ops, b.ID, ShipmentsInput{ShipmentIDs: []uuid.UUID{first.ID, second.ID, first.ID}})
	require.NoError(t, err)
	assert.Equal(t, 2, got.ShipmentCount)
	assert.True(t, decimal.NewFromInt(240).Equal(got.TotalCODAmount))
	assert.True(t, decimal.NewFromInt(70).Equal(got.TotalShipping))
	assert.Len(t, got.Shipments, 2)

	got, err = f.svc.RemoveShipment(ctx, f.ops, b.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ShipmentCount)
	assert.True(t, decimal.NewFromInt(120).Equal(got.TotalCODAmount))

	_, err = f.svc.RemoveShipment(ctx, f.ops, b.ID, first.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAddShipmentsRejectsIneligible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	amana := f.courier(t, "AMANA")
	other := f.courier(t, "OTHER")
	b := f.draft(t, amana.ID)
	taken := f.draft(t, amana.ID)

	foreign := f.ship(t, other.ID)
	onOther := f.ship(t, amana.ID)
	_, err := f.svc.AddShipments(ctx, f.ops, taken.ID, ShipmentsInput{ShipmentIDs: []uuid.UUID{onOther.ID}})
	require.NoError(t, err)
	moved := f.ship(t, amana.ID)
	_, err = f.shipping.Transition(ctx, f.ops, moved.ID, shipping.TransitionInput{Status: "PICKED_UP"})
	require.NoError(t, err)

	_, err = f.svc.AddShipments(ctx, f.ops, b.ID, ShipmentsInput{ShipmentIDs: []uuid.UUID{foreign.ID, onOther.ID, moved.ID, uuid.New()}})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInvalidData, typed.Code())
	assert.Equal(t, map[string]string{
		"shipment_ids[0]": "belongs to another courier",
		"shipment_ids[1]": "is already on a bordereau",
		"shipment_ids[2]": "is not PENDING",
		"shipment_ids[3]": "does not exist",
	}, typed.Details())

	current, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, current.ShipmentCount)
}

func TestReadyRequiresShipmentsAndFreezesMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courier := f.courier(t, "AMANA")
	b := f.draft(t, courier.ID)

	_, err := f.svc.Transition(ctx, f.ops, b.ID, TransitionInput{Status: "READY"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidData))

	shipment := f.ship(t, courier.ID)
	_, err = f.svc.AddShipments(ctx, f.ops, b.ID, ShipmentsInput{ShipmentIDs: []uuid.UUID{shipment.ID}})
	require.NoError(t, err)

	_, err = f.svc.Transition(ctx, f.ops, b.ID, TransitionInput{Status: "CLOSED"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))

	ready, err := f.svc.Transition(ctx, f.ops, b.ID, TransitionInput{Status: "ready"})
	require.NoError(t, err)
	assert.Equal(t, enums.BordereauStatusReady, ready.Status)

	_, err = f.svc.RemoveShipment(ctx, f.ops, b.ID, shipment.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidData))
	late := f.ship(t, courier.ID)
	_, err = f.svc.AddShipments(ctx, f.ops, b.ID, ShipmentsInput{ShipmentIDs: []uuid.UUID{late.ID}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidData))
}

func TestPickupCascadesToShipmentsAndOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courier := f.courier(t, "AMANA")
	b := f.draft(t, courier.ID)
	first := f.ship(t, courier.ID)
	second := f.ship(t, courier.ID)
	_, err := f.svc.AddShipments(ctx, f.ops, b.ID, ShipmentsInput{ShipmentIDs: []uuid.UUID{first.ID, second.ID}})
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, f.ops, b.ID, TransitionInput{Status: "READY"})
	require.NoError(t, err)

	picked, err := f.svc.Transition(ctx, f.ops, b.ID, TransitionInput{Status: "PICKED_UP"})
	require.NoError(t, err)
	assert.Equal(t, enums.BordereauStatusPickedUp, picked.Status)
	assert.NotNil(t, picked.PickedUpAt)
	for _, line := range picked.Shipments {
		assert.Equal(t, enums.ShipmentStatusPickedUp, line.Status)
		order, err := f.orders.Get(ctx, line.OrderID)
		require.NoError(t, err)
		assert.Equal(t, enums.OrderStatusShipped, order.Status)
	}

	closed, err := f.svc.Transition(ctx, f.ops, b.ID, TransitionInput{Status: "CLOSED"})
	require.NoError(t, err)
	assert.NotNil(t, closed.ClosedAt)
	require.Len(t, closed.History, 4)
	for i := 1; i < len(closed.History); i++ {
		require.NotNil(t, closed.History[i].FromStatus)
		assert.Equal(t, closed.History[i-1].ToStatus, *closed.History[i].FromStatus)
	}
}

func TestPickupFailureRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courier := f.courier(t, "AMANA")
	b := f.draft(t, courier.ID)
	healthy := f.ship(t, courier.ID)
	broken := f.ship(t, courier.ID)
	_, err := f.svc.AddShipments(ctx, f.ops, b.ID, ShipmentsInput{ShipmentIDs: []uuid.UUID{healthy.ID, broken.ID}})
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, f.ops, b.ID, TransitionInput{Status: "READY"})
	require.NoError(t, err)
	require.NoError(t, f.conn.Model(&models.Order{}).Where("id = ?", broken.OrderID).
		Update("status", enums.OrderStatusDelivered).Error)

	_, err = f.svc.Transition(ctx, f.ops, b.ID, TransitionInput{Status: "PICKED_UP"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Contains(t, typed.Details(), broken.TrackingNumber)

	current, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BordereauStatusReady, current.Status)
	assert.Nil(t, current.PickedUpAt)
	for _, line := range current.Shipments {
		assert.Equal(t, enums.ShipmentStatusPending, line.Status)
	}
	order, err := f.orders.Get(ctx, healthy.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, order.Status)
}

func TestAddShipmentsRejectsOrderOutsideProcessing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courier := f.courier(t, "AMANA")
	b := f.draft(t, courier.ID)
	shipment := f.ship(t, courier.ID)
	require.NoError(t, f.conn.Model(&models.Order{}).Where("id = ?", shipment.OrderID).
		Update("status", enums.OrderStatusCancelled).Error)

	_, err := f.svc.AddShipments(ctx, f.ops, b.ID, ShipmentsInput{ShipmentIDs: []uuid.UUID{shipment.ID}})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, map[string]string{"shipment_ids[0]": "order is CANCELLED"}, typed.Details())
}

func TestCancelledOrderCannotStrandBordereau(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courier := f.courier(t, "AMANA")
	b := f.draft(t, courier.ID)
	kept := f.ship(t, courier.ID)
	dropped := f.ship(t, courier.ID)
	_, err := f.svc.AddShipments(ctx, f.ops, b.ID, ShipmentsInput{ShipmentIDs: []uuid.UUID{kept.ID, dropped.ID}})
	require.NoError(t, err)

	_, err = f.orders.Transition(ctx, f.ops, dropped.OrderID, orders.TransitionInput{Status: "CANCELLED"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))
	err = f.shipping.DeleteShipment(ctx, f.ops, dropped.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidData))

	_, err = f.svc.RemoveShipment(ctx, f.ops, b.ID, dropped.ID)
	require.NoError(t, err)
	require.NoError(t, f.shipping.DeleteShipment(ctx, f.ops, dropped.ID))
	cancelled, err := f.orders.Transition(ctx, f.ops, dropped.OrderID, orders.TransitionInput{Status: "CANCELLED"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)

	_, err = f.svc.Transition(ctx, f.ops, b.ID, TransitionInput{Status: "READY"})
	require.NoError(t, err)
	picked, err := f.svc.Transition(ctx, f.ops, b.ID, TransitionInput{Status: "PICKED_UP"})
	require.NoError(t, err)
	assert.Equal(t, enums.BordereauStatusPickedUp, picked.Status)
	require.Len(t, picked.Shipments, 1)
	assert.Equal(t, kept.ID, picked.Shipments[0].ID)

	var product models.Product
	require.NoError(t, f.conn.First(&product, "id = ?", f.product.ID).Error)
	assert.Equal(t, 99, product.Stock)
}

func TestRecomputeRepairsDriftAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courier := f.courier(t, "AMANA")
	b := f.draft(t, courier.ID)
	shipment := f.ship(t, courier.ID)
	_, err := f.svc.AddShipments(ctx, f.ops, b.ID, ShipmentsInput{ShipmentIDs: []uuid.UUID{shipment.ID}})
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(&models.Bordereau{}).Where("id = ?", b.ID).
		Updates(map[string]any{"total_cod_amount": decimal.NewFromInt(1), "shipment_count": 9}).Error)

	first, err := f.svc.Recompute(ctx, f.ops, b.ID)
	require.NoError(t, err)
	second, err := f.svc.Recompute(ctx, f.ops, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.ShipmentCount)
	assert.True(t, decimal.NewFromInt(120).Equal(first.TotalCODAmount))
	assert.Equal(t, first.ShipmentCount, second.ShipmentCount)
	assert.True(t, first.TotalCODAmount.Equal(second.TotalCODAmount))
	assert.True(t, first.TotalShipping.Equal(second.TotalShipping))
}

func TestListFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courier := f.courier(t, "AMANA")
	f.draft(t, courier.ID)
	b := f.draft(t, courier.ID)
	shipment := f.ship(t, courier.ID)
	_, err := f.svc.AddShipments(ctx, f.ops, b.ID, ShipmentsInput{ShipmentIDs: []uuid.UUID{shipment.ID}})
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, f.ops, b.ID, TransitionInput{Status: "READY"})
	require.NoError(t, err)

	ready := enums.BordereauStatusReady
	page, err := f.svc.List(ctx, ListParams{Status: &ready})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, b.ID, page.Items[0].ID)

	page, err = f.svc.List(ctx, ListParams{CourierID: &courier.ID})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestManifestExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courier := f.courier(t, "AMANA")
	b := f.draft(t, courier.ID)
	first := f.ship(t, courier.ID)
	second := f.ship(t, courier.ID)
	_, err := f.svc.AddShipments(ctx, f.ops, b.ID, ShipmentsInput{ShipmentIDs: []uuid.UUID{first.ID, second.ID}})
	require.NoError(t, err)

	manifest, err := f.svc.Manifest(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Number+".xlsx", manifest.FileName())
	assert.Equal(t, "Courier AMANA (AMANA)", manifest.Courier)
	require.Len(t, manifest.Lines, 2)
	assert.Equal(t, "TRK-001", manifest.Lines[0].TrackingNumber)
	assert.Equal(t, "Customer 1", manifest.Lines[0].Customer)
	assert.Equal(t, "Rabat", manifest.Lines[0].City)

	var buf bytes.Buffer
	require.NoError(t, WriteManifest(&buf, manifest))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(manifestSheet)
	require.NoError(t, err)
	require.Len(t, rows, 9)
	assert.Equal(t, []string{"Bordereau", b.Number}, rows[0])
	assert.Equal(t, "2024-05-02", rows[2][1])
	assert.Equal(t, "Tracking", rows[5][0])
	assert.Equal(t, "TRK-001", rows[6][0])
	assert.Equal(t, "TRK-002", rows[7][0])
	assert.Equal(t, "Total", rows[8][0])
	assert.Equal(t, "2 shipments", rows[8][1])
	total, err := strconv.ParseFloat(rows[8][4], 64)
	require.NoError(t, err)
	assert.InDelta(t, 240, total, 0.001)
}
