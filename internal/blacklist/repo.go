package blacklist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
)

// Repository persists blacklisted phone numbers.
type Repository interface {
	Create(ctx context.Context, entry *models.Blacklist) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Blacklist, error)
	ExistsPhone(ctx context.Context, phone string) (bool, error)
	List(ctx context.Context, params ListParams) ([]models.Blacklist, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, entry *models.Blacklist) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Blacklist, error) {
	var entry models.Blacklist
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ExistsPhone(ctx context.Context, phone string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Blacklist{}).Where("phone = ?", phone).Count(&count).Error
	return count > 0, err
}

func (r *repository) List(ctx context.Context, params ListParams) ([]models.Blacklist, error) {
	query := r.db.WithContext(ctx).Model(&models.Blacklist{})
	if params.Reason != nil {
		query = query.Where("reason = ?", *params.Reason)
	}
	if params.Phone != "" {
		query = query.Where("phone LIKE ?", "%"+params.Phone+"%")
	}
	query, err := pagination.Apply(query, params.Params)
	if err != nil {
		return nil, err
	}
	var rows []models.Blacklist
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Blacklist{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
