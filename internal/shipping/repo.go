package shipping

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/codcrm-backend/pkg/db"
	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
)

// Repository persists couriers, shipments and tracking events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateCourier(ctx context.Context, courier *models.Courier) error
	FindCourier(ctx context.Context, id uuid.UUID) (*models.Courier, error)
	ListCouriers(ctx context.Context, active *bool) ([]models.Courier, error)
	UpdateCourier(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CountByStatus(ctx context.Context, courierID uuid.UUID) (map[enums.ShipmentStatus]int64, error)
	DeliveryWindows(ctx context.Context, courierID uuid.UUID) ([]DeliveryWindow, error)
	CreateShipment(ctx context.Context, shipment *models.Shipment) error
	FindShipment(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	FindShipmentForUpdate(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	ShipmentExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	ListShipments(ctx context.Context, params ShipmentListParams) ([]models.Shipment, error)
	UpdateShipment(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// DeleteShipment removes the shipment and its tracking events.
	DeleteShipment(ctx context.Context, id uuid.UUID) error
	CreateTracking(ctx context.Context, event *models.ShipmentTracking) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateCourier(ctx context.Context, courier *models.Courier) error {
	return r.db.WithContext(ctx).Create(courier).Error
}

func (r *repository) FindCourier(ctx context.Context, id uuid.UUID) (*models.Courier, error) {
	var courier models.Courier
	if err := r.db.WithContext(ctx).First(&courier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &courier, nil
}

func (r *repository) ListCouriers(ctx context.Context, active *bool) ([]models.Courier, error) {
	query := r.db.WithContext(ctx).Model(&models.Courier{})
	if active != nil {
		query = query.Where("is_active = ?", *active)
	}
	var couriers []models.Courier
	err := query.Order("name ASC").Find(&couriers).Error
	return couriers, err
}

func (r *repository) UpdateCourier(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.Courier{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CountByStatus(ctx context.Context, courierID uuid.UUID) (map[enums.ShipmentStatus]int64, error) {
	var rows []struct {
		Status enums.ShipmentStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Shipment{}).
		Select("status, COUNT(*) AS count").
		Where("courier_id = ?", courierID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.ShipmentStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *repository) DeliveryWindows(ctx context.Context, courierID uuid.UUID) ([]DeliveryWindow, error) {
	var shipments []models.Shipment
	err := r.db.WithContext(ctx).
		Select("picked_up_at", "delivered_at").
		Where("courier_id = ? AND status = ?", courierID, enums.ShipmentStatusDelivered).
		Find(&shipments).Error
	if err != nil {
		return nil, err
	}
	windows := make([]DeliveryWindow, len(shipments))
	for i, s := range shipments {
		windows[i] = DeliveryWindow{PickedUpAt: s.PickedUpAt, DeliveredAt: s.DeliveredAt}
	}
	return windows, nil
}

func (r *repository) CreateShipment(ctx context.Context, shipment *models.Shipment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(shipment).Error
}

func (r *repository) FindShipment(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.db.WithContext(ctx).
		Preload("Tracking", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		First(&shipment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *repository) FindShipmentForUpdate(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := db.ForUpdate(r.db.WithContext(ctx)).First(&shipment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *repository) ShipmentExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Shipment{}).Where("order_id = ?", orderID).Count(&count).Error
	return count > 0, err
}

func (r *repository) ListShipments(ctx context.Context, params ShipmentListParams) ([]models.Shipment, error) {
	query := r.db.WithContext(ctx).Model(&models.Shipment{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.CourierID != nil {
		query = query.Where("courier_id = ?", *params.CourierID)
	}
	if params.BordereauID != nil {
		query = query.Where("bordereau_id = ?", *params.BordereauID)
	} else if params.Unassigned {
		query = query.Where("bordereau_id IS NULL")
	}
	query, err := pagination.Apply(query, params.Params)
	if err != nil {
		return nil, err
	}
	var rows []models.Shipment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateShipment(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.Shipment{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) DeleteShipment(ctx context.Context, id uuid.UUID) error {
	conn := r.db.WithContext(ctx)
	if err := conn.Where("shipment_id = ?", id).Delete(&models.ShipmentTracking{}).Error; err != nil {
		return err
	}
	result := conn.Delete(&models.Shipment{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CreateTracking(ctx context.Context, event *models.ShipmentTracking) error {
	return r.db.WithContext(ctx).Create(event).Error
}
