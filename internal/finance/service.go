package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/pkg/actor"
	"github.com/angelmondragon/codcrm-backend/pkg/db"
	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
	"github.com/angelmondragon/codcrm-backend/pkg/logger"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
	"github.com/angelmondragon/codcrm-backend/pkg/validate"
)

// Service records money movements and reports profitability.
type Service interface {
	CreateTransaction(ctx context.Context, act actor.Actor, input CreateTransactionInput) (*TransactionDTO, error)
	ListTransactions(ctx context.Context, params TransactionListParams) (*pagination.Page[TransactionDTO], error)
	CreateAdSpend(ctx context.Context, act actor.Actor, input AdSpendInput) (*AdSpendDTO, error)
	UpsertAdSpend(ctx context.Context, act actor.Actor, input AdSpendInput) (*AdSpendDTO, error)
	ListAdSpend(ctx context.Context, params AdSpendListParams) ([]AdSpendDTO, error)
	GetSettings(ctx context.Context) (*SettingsDTO, error)
	UpdateSettings(ctx context.Context, act actor.Actor, input UpdateSettingsInput) (*SettingsDTO, error)
	Summary(ctx context.Context, from, to time.Time) (*Summary, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("finance repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *service) CreateTransaction(ctx context.Context, act actor.Actor, input CreateTransactionInput) (*TransactionDTO, error) {
	if err := act.Require(actor.AreaFinance); err != nil {
		return nil, err
	}
	kind := enums.TransactionType(strings.ToLower(strings.TrimSpace(input.Type)))
	v := validate.New()
	v.Struct(input)
	v.Enum("type", kind)
	v.NonNegative("amount", input.Amount)
	if err := v.Err(); err != nil {
		return nil, err
	}
	if input.OrderID != nil {
		exists, err := s.repo.OrderExists(ctx, *input.OrderID)
		if err != nil {
			return nil, db.TranslateError(err, "order")
		}
		if !exists {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
				WithDetails(map[string]string{"order_id": input.OrderID.String()})
		}
	}
	txn := &models.Transaction{
		Type:        kind,
		Amount:      input.Amount,
		OrderID:     input.OrderID,
		Description: input.Description,
		OccurredAt:  s.now().UTC(),
		CreatedBy:   act.Ref(),
	}
	if input.OccurredAt != nil {
		txn.OccurredAt = input.OccurredAt.UTC()
	}
	if err := s.repo.CreateTransaction(ctx, txn); err != nil {
		return nil, db.TranslateError(err, "transaction")
	}
	s.logg.Info(s.logg.WithFields(s.logg.WithEntity(ctx, "transaction", txn.ID.String()), map[string]any{
		"type":   txn.Type,
		"amount": txn.Amount.String(),
	}), "transaction recorded")
	dto := transactionFromModel(txn)
	return &dto, nil
}

func (s *service) ListTransactions(ctx context.Context, params TransactionListParams) (*pagination.Page[TransactionDTO], error) {
	if err := pagination.CheckCursor(params.Cursor); err != nil {
		return nil, err
	}
	if params.From != nil && params.To != nil && params.To.Before(*params.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid range").
			WithDetails(map[string]string{"to": "must not be before from"})
	}
	rows, err := s.repo.ListTransactions(ctx, params)
	if err != nil {
		return nil, db.TranslateError(err, "transaction")
	}
	items := make([]TransactionDTO, len(rows))
	for i := range rows {
		items[i] = transactionFromModel(&rows[i])
	}
	page := pagination.Build(items, params.Limit, transactionCursor)
	return &page, nil
}

func (s *service) adSpendModel(act actor.Actor, input AdSpendInput) (*models.DailyAdSpend, error) {
	if err := act.Require(actor.AreaFinance); err != nil {
		return nil, err
	}
	input.Campaign = strings.TrimSpace(input.Campaign)
	platform := enums.LeadSource(strings.ToLower(strings.TrimSpace(input.Platform)))
	v := validate.New()
	v.Struct(input)
	v.Enum("platform", platform)
	v.NonNegative("amount", input.Amount)
	v.NonNegativePtr("revenue", input.Revenue)
	date, err := time.Parse(dateLayout, input.Date)
	if input.Date != "" && err != nil {
		v.Add("date", "must be a date in YYYY-MM-DD form")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	spend := &models.DailyAdSpend{
		Date:           Day(date),
		Platform:       platform,
		Campaign:       input.Campaign,
		Amount:         input.Amount,
		LeadsGenerated: input.LeadsGenerated,
		Revenue:        decimal.Zero,
		Notes:          input.Notes,
		CreatedBy:      act.Ref(),
	}
	if input.Revenue != nil {
		spend.Revenue = *input.Revenue
	}
	return spend, nil
}

func (s *service) CreateAdSpend(ctx context.Context, act actor.Actor, input AdSpendInput) (*AdSpendDTO, error) {
	spend, err := s.adSpendModel(act, input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateAdSpend(ctx, spend); err != nil {
		return nil, db.TranslateError(err, "ad spend")
	}
	dto := adSpendFromModel(spend)
	return &dto, nil
}

func (s *service) UpsertAdSpend(ctx context.Context, act actor.Actor, input AdSpendInput) (*AdSpendDTO, error) {
	spend, err := s.adSpendModel(act, input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertAdSpend(ctx, spend); err != nil {
		return nil, db.TranslateError(err, "ad spend")
	}
	stored, err := s.repo.FindAdSpend(ctx, spend.Date, spend.Platform, spend.Campaign)
	if err != nil {
		return nil, db.TranslateError(err, "ad spend")
	}
	s.logg.Info(s.logg.WithFields(s.logg.WithEntity(ctx, "ad_spend", stored.ID.String()), map[string]any{
		"date":     stored.Date.Format(dateLayout),
		"platform": stored.Platform,
		"campaign": stored.Campaign,
	}), "ad spend saved")
	dto := adSpendFromModel(stored)
	return &dto, nil
}

func (s *service) ListAdSpend(ctx context.Context, params AdSpendListParams) ([]AdSpendDTO, error) {
	rows, err := s.repo.ListAdSpend(ctx, params)
	if err != nil {
		return nil, db.TranslateError(err, "ad spend")
	}
	out := make([]AdSpendDTO, len(rows))
	for i := range rows {
		out[i] = adSpendFromModel(&rows[i])
	}
	return out, nil
}

func defaultSettings() *models.SystemCostSettings {
	return &models.SystemCostSettings{
		ID:                models.SystemCostSettingsID,
		ConfirmationFee:   decimal.Zero,
		PackagingFee:      decimal.Zero,
		ReturnFee:         decimal.Zero,
		CODFeePercent:     decimal.Zero,
		MonthlyFixedCosts: decimal.Zero,
	}
}

func (s *service) settings(ctx context.Context) (*models.SystemCostSettings, error) {
	settings, err := s.repo.FindSettings(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defaultSettings(), nil
	}
	if err != nil {
		return nil, db.TranslateError(err, "cost settings")
	}
	return settings, nil
}

func (s *service) GetSettings(ctx context.Context) (*SettingsDTO, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return nil, err
	}
	dto := settingsFromModel(settings)
	return &dto, nil
}

func (s *service) UpdateSettings(ctx context.Context, act actor.Actor, input UpdateSettingsInput) (*SettingsDTO, error) {
	if err := act.Require(actor.AreaFinance); err != nil {
		return nil, err
	}
	v := validate.New()
	v.NonNegativePtr("confirmation_fee", input.ConfirmationFee)
	v.NonNegativePtr("packaging_fee", input.PackagingFee)
	v.NonNegativePtr("return_fee", input.ReturnFee)
	v.NonNegativePtr("monthly_fixed_costs", input.MonthlyFixedCosts)
	if input.CODFeePercent != nil {
		v.Check(!input.CODFeePercent.IsNegative() && input.CODFeePercent.LessThanOrEqual(hundred), "cod_fee_percent", "must be between 0 and 100")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	settings, err := s.settings(ctx)
	if err != nil {
		return nil, err
	}
	if input.ConfirmationFee != nil {
		settings.ConfirmationFee = *input.ConfirmationFee
	}
	if input.PackagingFee != nil {
		settings.PackagingFee = *input.PackagingFee
	}
	if input.ReturnFee != nil {
		settings.ReturnFee = *input.ReturnFee
	}
	if input.CODFeePercent != nil {
		settings.CODFeePercent = *input.CODFeePercent
	}
	if input.MonthlyFixedCosts != nil {
		settings.MonthlyFixedCosts = *input.MonthlyFixedCosts
	}
	settings.UpdatedBy = act.Ref()
	settings.UpdatedAt = s.now().UTC()
	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return nil, db.TranslateError(err, "cost settings")
	}
	s.logg.Info(ctx, "cost settings updated")
	return s.GetSettings(ctx)
}

// Summary covers the calendar days from..to inclusive.
func (s *service) Summary(ctx context.Context, from, to time.Time) (*Summary, error) {
	from, to = Day(from), Day(to)
	if to.Before(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid range").
			WithDetails(map[string]string{"to": "must not be before from"})
	}
	settings, err := s.settings(ctx)
	if err != nil {
		return nil, err
	}
	figures, err := s.repo.Figures(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, db.TranslateError(err, "summary")
	}
	figures.FixedCosts = FixedCosts(settings.MonthlyFixedCosts, from, to)
	summary := Summarize(*figures, settings)
	summary.From = from.Format(dateLayout)
	summary.To = to.Format(dateLayout)
	return &summary, nil
}
