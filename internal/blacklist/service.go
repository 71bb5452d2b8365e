package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/codcrm-backend/pkg/actor"
	"github.com/angelmondragon/codcrm-backend/pkg/db"
	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
	"github.com/angelmondragon/codcrm-backend/pkg/logger"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
	"github.com/angelmondragon/codcrm-backend/pkg/redis"
	"github.com/angelmondragon/codcrm-backend/pkg/validate"
)

const (
	cacheHit  = "1"
	cacheMiss = "0"
)

// Service manages the phone blacklist.
type Service interface {
	Add(ctx context.Context, act actor.Actor, input AddInput) (*EntryDTO, error)
	Remove(ctx context.Context, act actor.Actor, id uuid.UUID) error
	List(ctx context.Context, params ListParams) (*pagination.Page[EntryDTO], error)
	IsBlacklisted(ctx context.Context, phone string) (bool, error)
}

type service struct {
	repo  Repository
	cache redis.Cache
	ttl   time.Duration
	logg  *logger.Logger
}

// NewService builds the blacklist service. cache may be nil, in which case
// every lookup goes to the database.
func NewService(repo Repository, cache redis.Cache, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("blacklist repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, cache: cache, ttl: ttl, logg: logg}, nil
}

func (s *service) Add(ctx context.Context, act actor.Actor, input AddInput) (*EntryDTO, error) {
	if err := act.Require(actor.AreaBlacklist); err != nil {
		return nil, err
	}

	v := validate.New()
	v.Struct(input)
	phone, ok := NormalizePhone(input.Phone)
	if input.Phone != "" && !ok {
		v.Add("phone", "must be 8 to 15 digits with an optional leading +")
	}
	reason := enums.BlacklistReason(input.Reason)
	if input.Reason == "" {
		reason = enums.BlacklistReasonOther
	}
	v.Enum("reason", reason)
	if err := v.Err(); err != nil {
		return nil, err
	}

	entry := &models.Blacklist{
		Phone:     phone,
		Reason:    reason,
		Notes:     input.Notes,
		CreatedBy: act.Ref(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, db.TranslateError(err, "blacklist entry")
	}
	s.invalidate(ctx, phone)

	s.logg.Info(s.logg.WithEntity(ctx, "blacklist", entry.ID.String()), "phone blacklisted")
	dto := fromModel(entry)
	return &dto, nil
}

func (s *service) Remove(ctx context.Context, act actor.Actor, id uuid.UUID) error {
	if err := act.Require(actor.AreaBlacklist); err != nil {
		return err
	}
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return db.TranslateError(err, "blacklist entry")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return db.TranslateError(err, "blacklist entry")
	}
	s.invalidate(ctx, entry.Phone)
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*pagination.Page[EntryDTO], error) {
	if err := pagination.CheckCursor(params.Cursor); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, db.TranslateError(err, "blacklist entry")
	}
	items := make([]EntryDTO, len(rows))
	for i := range rows {
		items[i] = fromModel(&rows[i])
	}
	page := pagination.Build(items, params.Limit, cursorOf)
	return &page, nil
}

// IsBlacklisted reports whether phone (in any accepted format) is blocked.
// Unparseable numbers are never blacklisted.
func (s *service) IsBlacklisted(ctx context.Context, phone string) (bool, error) {
	normalized, ok := NormalizePhone(phone)
	if !ok {
		return false, nil
	}

	if s.cache != nil {
		value, err := s.cache.Get(ctx, s.cache.BlacklistKey(normalized))
		switch {
		case err == nil:
			return value == cacheHit, nil
		case !redis.IsMiss(err):
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "blacklist cache read failed")
		}
	}

	found, err := s.repo.ExistsPhone(ctx, normalized)
	if err != nil {
		return false, db.TranslateError(err, "blacklist entry")
	}

	if s.cache != nil {
		value := cacheMiss
		if found {
			value = cacheHit
		}
		if err := s.cache.Set(ctx, s.cache.BlacklistKey(normalized), value, s.ttl); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "blacklist cache write failed")
		}
	}
	return found, nil
}

func (s *service) invalidate(ctx context.Context, phone string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.BlacklistKey(phone)); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "blacklist cache invalidation failed")
	}
}

// ErrBlacklisted is the error surfaced when an operation targets a blocked phone.
func ErrBlacklisted(phone string) error {
	return pkgerrors.New(pkgerrors.CodeForbidden, "phone is blacklisted").
		WithDetails(map[string]string{"phone": phone})
}
