package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/codcrm-backend/internal/users"
	pkgAuth "github.com/angelmondragon/codcrm-backend/pkg/auth"
	"github.com/angelmondragon/codcrm-backend/pkg/config"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
)

type stubAuthenticator struct {
	user *users.UserDTO
	err  error
}

func (s stubAuthenticator) Authenticate(_ context.Context, email, password string) (*users.UserDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	if email != s.user.Email || password != "agent-secret" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "bad password")
	}
	return s.user, nil
}

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "codcrm", ExpirationMinutes: 30}

func TestLoginMintsTokenForRole(t *testing.T) {
	user := &users.UserDTO{ID: uuid.New(), Email: "agent@example.com", Role: enums.UserRoleCallCenter, IsActive: true}
	svc, err := NewService(stubAuthenticator{user: user}, testJWT, nil)
	require.NoError(t, err)
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time { return fixed }

	resp, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "agent-secret"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, fixed.Add(30*time.Minute), resp.ExpiresAt)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLoginTokenParsesBack(t *testing.T) {
	user := &users.UserDTO{ID: uuid.New(), Email: "mgr@example.com", Role: enums.UserRoleManager, IsActive: true}
	svc, err := NewService(stubAuthenticator{user: user}, testJWT, nil)
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "agent-secret"})
	require.NoError(t, err)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, enums.UserRoleManager, claims.Actor().Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	user := &users.UserDTO{ID: uuid.New(), Email: "agent@example.com", Role: enums.UserRoleCallCenter}
	svc, err := NewService(stubAuthenticator{user: user}, testJWT, nil)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "wrong"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	assert.Equal(t, invalidCredentialsMessage, pkgerrors.As(err).Message())

	_, err = svc.Login(context.Background(), LoginRequest{Email: "not-an-email", Password: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestLoginPassesThroughStorageErrors(t *testing.T) {
	dbErr := pkgerrors.Wrap(pkgerrors.CodeDatabase, errors.New("conn refused"), "lookup user")
	svc, err := NewService(stubAuthenticator{err: dbErr}, testJWT, nil)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "a@b.io", Password: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDatabase))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, testJWT, nil)
	assert.Error(t, err)
	_, err = NewService(stubAuthenticator{}, config.JWTConfig{}, nil)
	assert.Error(t, err)
}
