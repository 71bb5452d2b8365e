package leads

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/pkg/db"
	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
)

// Repository persists leads and their append-only note trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, lead *models.Lead) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	List(ctx context.Context, params ListParams) ([]models.Lead, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CreateNote(ctx context.Context, note *models.LeadNote) error
	CreateCall(ctx context.Context, call *models.CallNote) error
	ListNotes(ctx context.Context, leadID uuid.UUID) ([]models.LeadNote, error)
	ListCalls(ctx context.Context, leadID uuid.UUID) ([]models.CallNote, error)
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

func (r *repository) Create(ctx context.Context, lead *models.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	if err := r.db.WithContext(ctx).First(&lead, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

// FindForUpdate loads the lead with a row lock on Postgres.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	if err := db.ForUpdate(r.db.WithContext(ctx)).First(&lead, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]models.Lead, error) {
	query := r.db.WithContext(ctx).Model(&models.Lead{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Source != nil {
		query = query.Where("source = ?", *params.Source)
	}
	if params.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *params.AssignedTo)
	}
	if params.Search != "" {
		like := "%" + params.Search + "%"
		query = query.Where("(name LIKE ? OR phone LIKE ?)", like, like)
	}
	query, err := pagination.Apply(query, params.Params)
	if err != nil {
		return nil, err
	}
	var rows []models.Lead
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.Lead{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CreateNote(ctx context.Context, note *models.LeadNote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *repository) CreateCall(ctx context.Context, call *models.CallNote) error {
	return r.db.WithContext(ctx).Create(call).Error
}

func (r *repository) ListNotes(ctx context.Context, leadID uuid.UUID) ([]models.LeadNote, error) {
	var notes []models.LeadNote
	err := r.db.WithContext(ctx).Where("lead_id = ?", leadID).Order("created_at ASC").Order("id ASC").Find(&notes).Error
	return notes, err
}

func (r *repository) ListCalls(ctx context.Context, leadID uuid.UUID) ([]models.CallNote, error) {
	var calls []models.CallNote
	err := r.db.WithContext(ctx).Where("lead_id = ?", leadID).Order("created_at ASC").Order("id ASC").Find(&calls).Error
	return calls, err
}
