package users

import (
	"context"
	"errors"
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
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
	"github.com/angelmondragon/codcrm-backend/pkg/security"
	"github.com/angelmondragon/codcrm-backend/pkg/validate"
)

const tempPasswordLength = 12

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// Service manages CRM operator accounts.
type Service interface {
	Create(ctx context.Context, act actor.Actor, input CreateUserInput) (*CreatedUser, error)
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	List(ctx context.Context, params ListParams) (*pagination.Page[UserDTO], error)
	Update(ctx context.Context, act actor.Actor, id uuid.UUID, input UpdateUserInput) (*UserDTO, error)
	Deactivate(ctx context.Context, act actor.Actor, id uuid.UUID) (*UserDTO, error)
	Delete(ctx context.Context, act actor.Actor, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// IsActive reports whether the user exists and may still sign in.
	IsActive(ctx context.Context, id uuid.UUID) (bool, error)
	Authenticate(ctx context.Context, email, password string) (*UserDTO, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	hasher passwordHasher
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the users service with the required dependencies.
func NewService(repo Repository, tx txRunner, hasher passwordHasher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if hasher == nil {
		return nil, fmt.Errorf("password hasher required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, hasher: hasher, logg: logg, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, act actor.Actor, input CreateUserInput) (*CreatedUser, error) {
	if err := act.Require(actor.AreaUsers); err != nil {
		return nil, err
	}

	input.Email = normalizeEmail(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)
	v := validate.New()
	v.Struct(input)
	role, roleErr := enums.ParseUserRole(input.Role)
	if input.Role != "" && roleErr != nil {
		v.Add("role", "is not an allowed value")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	password := input.Password
	temporary := ""
	if password == "" {
		generated, err := security.TempPassword(tempPasswordLength)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
		}
		password, temporary = generated, generated
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password").
			WithDetails(map[string]string{"password": err.Error()})
	}

	user := &models.User{
		Email:        input.Email,
		FullName:     input.FullName,
		Phone:        trimmedPtr(input.Phone),
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, db.TranslateError(err, "user")
	}

	s.logg.Info(s.logg.WithEntity(ctx, "user", user.ID.String()), "user created")
	return &CreatedUser{User: FromModel(user), TemporaryPassword: temporary}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateUserError(err)
	}
	return FromModel(user), nil
}

func (s *service) List(ctx context.Context, params ListParams) (*pagination.Page[UserDTO], error) {
	if err := pagination.CheckCursor(params.Cursor); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, db.TranslateError(err, "user")
	}
	items := make([]UserDTO, len(rows))
	for i := range rows {
		items[i] = *FromModel(&rows[i])
	}
	page := pagination.Build(items, params.Limit, cursorOf)
	return &page, nil
}

func (s *service) Update(ctx context.Context, act actor.Actor, id uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	if err := act.Require(actor.AreaUsers); err != nil {
		return nil, err
	}

	v := validate.New()
	v.Struct(input)
	updates := map[string]any{}
	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		v.Check(name != "", "full_name", "is required")
		updates["full_name"] = name
	}
	if input.Phone != nil {
		updates["phone"] = trimmedPtr(input.Phone)
	}
	if input.Role != nil {
		role, err := enums.ParseUserRole(*input.Role)
		if err != nil {
			v.Add("role", "is not an allowed value")
		}
		if act.UserID == id && role != act.Role {
			v.Add("role", "cannot change your own role")
		}
		updates["role"] = role
	}
	if input.IsActive != nil {
		if act.UserID == id && !*input.IsActive {
			v.Add("is_active", "cannot deactivate yourself")
		}
		updates["is_active"] = *input.IsActive
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	if input.Password != nil {
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid password").
				WithDetails(map[string]string{"password": err.Error()})
		}
		updates["password_hash"] = hash
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, translateUserError(err)
		}
	}
	return s.Get(ctx, id)
}

func (s *service) Deactivate(ctx context.Context, act actor.Actor, id uuid.UUID) (*UserDTO, error) {
	inactive := false
	return s.Update(ctx, act, id, UpdateUserInput{IsActive: &inactive})
}

// Delete purges the user. Their call notes are kept and pointed at the
// unknown agent; leads assigned to them become unassigned.
func (s *service) Delete(ctx context.Context, act actor.Actor, id uuid.UUID) error {
	if err := act.Require(actor.AreaUsers); err != nil {
		return err
	}
	if act.UserID == id {
		return pkgerrors.New(pkgerrors.CodeInvalidData, "cannot delete yourself")
	}

	var notes, leads int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return translateUserError(err)
		}
		var err error
		if notes, err = repo.ReassignCallNotes(ctx, id, models.UnknownAgentID); err != nil {
			return db.TranslateError(err, "call note")
		}
		if leads, err = repo.UnassignLeads(ctx, id); err != nil {
			return db.TranslateError(err, "lead")
		}
		if _, err := repo.Delete(ctx, id); err != nil {
			return db.TranslateError(err, "user")
		}
		return nil
	})
	if err != nil {
		return err
	}

	ctx = s.logg.WithFields(s.logg.WithEntity(ctx, "user", id.String()), map[string]any{
		"reassigned_call_notes": notes,
		"unassigned_leads":      leads,
	})
	s.logg.Info(ctx, "user deleted")
	return nil
}

func (s *service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return false, db.TranslateError(err, "user")
	}
	return ok, nil
}

func (s *service) IsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, db.TranslateError(err, "user")
	}
	return user.IsActive, nil
}

// Authenticate checks credentials for an active user and stamps last_login_at.
func (s *service) Authenticate(ctx context.Context, email, password string) (*UserDTO, error) {
	invalid := pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")

	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid
		}
		return nil, db.TranslateError(err, "user")
	}
	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok || !user.IsActive {
		return nil, invalid
	}

	now := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, db.TranslateError(err, "user")
	}
	user.LastLoginAt = &now
	return FromModel(user), nil
}

func translateUserError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeUserNotFound, "user not found")
	}
	return db.TranslateError(err, "user")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
