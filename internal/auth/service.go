package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/codcrm-backend/internal/users"
	pkgAuth "github.com/angelmondragon/codcrm-backend/pkg/auth"
	"github.com/angelmondragon/codcrm-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
	"github.com/angelmondragon/codcrm-backend/pkg/logger"
	"github.com/angelmondragon/codcrm-backend/pkg/validate"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

// Authenticator verifies operator credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*users.UserDTO, error)
}

type service struct {
	users  Authenticator
	jwtCfg config.JWTConfig
	logg   *logger.Logger
	now    func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(authenticator Authenticator, jwtCfg config.JWTConfig, logg *logger.Logger) (Service, error) {
	if authenticator == nil {
		return nil, fmt.Errorf("authenticator is required")
	}
	if jwtCfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		users:  authenticator,
		jwtCfg: jwtCfg,
		logg:   logg,
		now:    time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, err
	}

	now := s.now().UTC()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	logCtx := s.logg.WithUserID(ctx, user.ID.String())
	logCtx = s.logg.WithActorRole(logCtx, string(user.Role))
	s.logg.Info(logCtx, "auth.login")

	return &LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
		User:        user,
	}, nil
}
