package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
)

// Repository persists the ledger, ad spend and cost settings and reads the
// figures the summary is built from.
type Repository interface {
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	ListTransactions(ctx context.Context, params TransactionListParams) ([]models.Transaction, error)
	OrderExists(ctx context.Context, id uuid.UUID) (bool, error)
	CreateAdSpend(ctx context.Context, spend *models.DailyAdSpend) error
	UpsertAdSpend(ctx context.Context, spend *models.DailyAdSpend) error
	FindAdSpend(ctx context.Context, date time.Time, platform enums.LeadSource, campaign string) (*models.DailyAdSpend, error)
	ListAdSpend(ctx context.Context, params AdSpendListParams) ([]models.DailyAdSpend, error)
	FindSettings(ctx context.Context) (*models.SystemCostSettings, error)
	SaveSettings(ctx context.Context, settings *models.SystemCostSettings) error
	Figures(ctx context.Context, from, to time.Time) (*Figures, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *repository) ListTransactions(ctx context.Context, params TransactionListParams) ([]models.Transaction, error) {
	query := r.db.WithContext(ctx).Model(&models.Transaction{})
	if params.Type != nil {
		query = query.Where("type = ?", *params.Type)
	}
	if params.From != nil {
		query = query.Where("occurred_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("occurred_at < ?", *params.To)
	}
	query, err := pagination.Apply(query, params.Params)
	if err != nil {
		return nil, err
	}
	var rows []models.Transaction
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) OrderExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateAdSpend(ctx context.Context, spend *models.DailyAdSpend) error {
	return r.db.WithContext(ctx).Create(spend).Error
}

func (r *repository) UpsertAdSpend(ctx context.Context, spend *models.DailyAdSpend) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}, {Name: "platform"}, {Name: "campaign"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "leads_generated", "revenue", "notes", "updated_at"}),
	}).Create(spend).Error
}

func (r *repository) FindAdSpend(ctx context.Context, date time.Time, platform enums.LeadSource, campaign string) (*models.DailyAdSpend, error) {
	var spend models.DailyAdSpend
	err := r.db.WithContext(ctx).
		Where("date = ? AND platform = ? AND campaign = ?", date, platform, campaign).
		First(&spend).Error
	if err != nil {
		return nil, err
	}
	return &spend, nil
}

func (r *repository) ListAdSpend(ctx context.Context, params AdSpendListParams) ([]models.DailyAdSpend, error) {
	query := r.db.WithContext(ctx).Model(&models.DailyAdSpend{})
	if params.From != nil {
		query = query.Where("date >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("date <= ?", *params.To)
	}
	if params.Platform != nil {
		query = query.Where("platform = ?", *params.Platform)
	}
	var rows []models.DailyAdSpend
	err := query.Order("date ASC").Order("platform ASC").Order("campaign ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) FindSettings(ctx context.Context) (*models.SystemCostSettings, error) {
	var settings models.SystemCostSettings
	if err := r.db.WithContext(ctx).First(&settings, "id = ?", models.SystemCostSettingsID).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *repository) SaveSettings(ctx context.Context, settings *models.SystemCostSettings) error {
	settings.ID = models.SystemCostSettingsID
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"confirmation_fee", "packaging_fee", "return_fee", "cod_fee_percent",
			"monthly_fixed_costs", "updated_by", "updated_at",
		}),
	}).Create(settings).Error
}

// Figures sums every input of the summary for [from, to). Money is summed
// in decimal from the rows themselves.
func (r *repository) Figures(ctx context.Context, from, to time.Time) (*Figures, error) {
	q := r.db.WithContext(ctx)
	figures := &Figures{
		AdSpend:      decimal.Zero,
		Revenue:      decimal.Zero,
		ProductCost:  decimal.Zero,
		ShippingCost: decimal.Zero,
	}

	var spends []models.DailyAdSpend
	if err := q.Select("amount", "leads_generated").
		Where("date >= ? AND date < ?", from, to).
		Find(&spends).Error; err != nil {
		return nil, err
	}
	for _, s := range spends {
		figures.AdSpend = figures.AdSpend.Add(s.Amount)
		figures.Leads += int64(s.LeadsGenerated)
	}

	if err := q.Model(&models.Order{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&figures.OrdersCreated).Error; err != nil {
		return nil, err
	}

	var delivered []models.Order
	if err := q.Select("id", "total").
		Where("status = ? AND delivered_at >= ? AND delivered_at < ?", enums.OrderStatusDelivered, from, to).
		Find(&delivered).Error; err != nil {
		return nil, err
	}
	var returned []models.Order
	if err := q.Select("id").
		Where("status = ? AND returned_at >= ? AND returned_at < ?", enums.OrderStatusReturned, from, to).
		Find(&returned).Error; err != nil {
		return nil, err
	}
	figures.Delivered = int64(len(delivered))
	figures.Returned = int64(len(returned))

	deliveredIDs := make([]uuid.UUID, 0, len(delivered))
	for _, o := range delivered {
		figures.Revenue = figures.Revenue.Add(o.Total)
		deliveredIDs = append(deliveredIDs, o.ID)
	}
	settledIDs := append([]uuid.UUID{}, deliveredIDs...)
	for _, o := range returned {
		settledIDs = append(settledIDs, o.ID)
	}

	if len(deliveredIDs) > 0 {
		var items []models.OrderItem
		if err := q.Select("quantity", "unit_cost").
			Where("order_id IN ?", deliveredIDs).
			Find(&items).Error; err != nil {
			return nil, err
		}
		for _, item := range items {
			figures.ProductCost = figures.ProductCost.Add(item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	if len(settledIDs) > 0 {
		var shipments []models.Shipment
		if err := q.Select("shipping_cost").
			Where("order_id IN ?", settledIDs).
			Find(&shipments).Error; err != nil {
			return nil, err
		}
		for _, s := range shipments {
			figures.ShippingCost = figures.ShippingCost.Add(s.ShippingCost)
		}
	}
	return figures, nil
}
