package bordereaux

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/codcrm-backend/pkg/db"
	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
)

// Repository persists bordereaux, their history and shipment membership.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, b *models.Bordereau) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bordereau, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Bordereau, error)
	FindManifest(ctx context.Context, id uuid.UUID) (*models.Bordereau, error)
	List(ctx context.Context, params ListParams) ([]models.Bordereau, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CreateHistory(ctx context.Context, h *models.BordereauHistory) error
	FindCourier(ctx context.Context, id uuid.UUID) (*models.Courier, error)
	// FindShipmentsForUpdate locks the shipments and loads their orders.
	FindShipmentsForUpdate(ctx context.Context, ids []uuid.UUID) ([]models.Shipment, error)
	ListShipments(ctx context.Context, bordereauID uuid.UUID) ([]models.Shipment, error)
	Attach(ctx context.Context, bordereauID uuid.UUID, shipmentIDs []uuid.UUID) error
	Detach(ctx context.Context, bordereauID, shipmentID uuid.UUID) error
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

func (r *repository) Create(ctx context.Context, b *models.Bordereau) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(b).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Bordereau, error) {
	var b models.Bordereau
	err := r.db.WithContext(ctx).
		Preload("Shipments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Bordereau, error) {
	var b models.Bordereau
	if err := db.ForUpdate(r.db.WithContext(ctx)).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) FindManifest(ctx context.Context, id uuid.UUID) (*models.Bordereau, error) {
	var b models.Bordereau
	err := r.db.WithContext(ctx).
		Preload("Courier").
		Preload("Shipments", func(db *gorm.DB) *gorm.DB { return db.Order("tracking_number ASC") }).
		Preload("Shipments.Order").
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]models.Bordereau, error) {
	query := r.db.WithContext(ctx).Model(&models.Bordereau{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.CourierID != nil {
		query = query.Where("courier_id = ?", *params.CourierID)
	}
	query, err := pagination.Apply(query, params.Params)
	if err != nil {
		return nil, err
	}
	var rows []models.Bordereau
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.Bordereau{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CreateHistory(ctx context.Context, h *models.BordereauHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *repository) FindCourier(ctx context.Context, id uuid.UUID) (*models.Courier, error) {
	var courier models.Courier
	if err := r.db.WithContext(ctx).First(&courier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &courier, nil
}

func (r *repository) FindShipmentsForUpdate(ctx context.Context, ids []uuid.UUID) ([]models.Shipment, error) {
	var rows []models.Shipment
	err := db.ForUpdate(r.db.WithContext(ctx)).Preload("Order").Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

func (r *repository) ListShipments(ctx context.Context, bordereauID uuid.UUID) ([]models.Shipment, error) {
	var rows []models.Shipment
	err := r.db.WithContext(ctx).
		Where("bordereau_id = ?", bordereauID).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Attach(ctx context.Context, bordereauID uuid.UUID, shipmentIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Shipment{}).
		Where("id IN ? AND bordereau_id IS NULL", shipmentIDs).
		Update("bordereau_id", bordereauID).Error
}

func (r *repository) Detach(ctx context.Context, bordereauID, shipmentID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Shipment{}).
		Where("id = ? AND bordereau_id = ?", shipmentID, bordereauID).
		Update("bordereau_id", nil)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
