package users

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/pkg/actor"
	"github.com/angelmondragon/codcrm-backend/pkg/db"
	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
)

type stubHasher struct{}

func (stubHasher) Hash(password string) (string, error) {
	if len(password) < 8 {
		return "", errors.New("password too short")
	}
	return "hashed:" + password, nil
}

func (stubHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "hashed:"+password, nil
}

func adminActor() actor.Actor {
	return actor.New(uuid.New(), enums.UserRoleAdmin)
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := setupUsersTestDB(t)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn), stubHasher{}, nil)
	require.NoError(t, err)
	return svc, conn
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestCreateUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, adminActor(), CreateUserInput{
		Email:    "  Nadia@Example.com ",
		FullName: "Nadia",
		Role:     "agent",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "nadia@example.com", created.User.Email)
	assert.Equal(t, enums.UserRoleCallCenter, created.User.Role)
	assert.True(t, created.User.IsActive)
	assert.Empty(t, created.TemporaryPassword)

	_, err = svc.Create(ctx, adminActor(), CreateUserInput{Email: "nadia@example.com", FullName: "Other", Role: "viewer", Password: "correct-horse"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDuplicate), "got %v", err)
}

func TestCreateUserGeneratesTemporaryPassword(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), adminActor(), CreateUserInput{Email: "tmp@x.io", FullName: "Tmp", Role: "viewer"})
	require.NoError(t, err)
	assert.Len(t, created.TemporaryPassword, tempPasswordLength)

	user, err := svc.Authenticate(context.Background(), "TMP@x.io", created.TemporaryPassword)
	require.NoError(t, err)
	assert.NotNil(t, user.LastLoginAt)
}

func TestCreateUserReportsEveryViolation(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), adminActor(), CreateUserInput{Email: "not-an-email", Role: "owner"})

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	details, ok := appErr.Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "full_name")
	assert.Contains(t, details, "role")
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), actor.New(uuid.New(), enums.UserRoleManager), CreateUserInput{Email: "a@x.io", FullName: "A", Role: "viewer"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.Create(context.Background(), actor.Actor{}, CreateUserInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestGetMissingUser(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUserNotFound))
}

func TestUpdateAndDeactivate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	admin := adminActor()
	created, err := svc.Create(ctx, admin, CreateUserInput{Email: "u@x.io", FullName: "U", Role: "viewer", Password: "password123"})
	require.NoError(t, err)

	name := "Updated Name"
	role := "marketing"
	updated, err := svc.Update(ctx, admin, created.User.ID, UpdateUserInput{FullName: &name, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "Updated Name", updated.FullName)
	assert.Equal(t, enums.UserRoleMarketing, updated.Role)

	active, err := svc.IsActive(ctx, created.User.ID)
	require.NoError(t, err)
	assert.True(t, active)

	deactivated, err := svc.Deactivate(ctx, admin, created.User.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	active, err = svc.IsActive(ctx, created.User.ID)
	require.NoError(t, err)
	assert.False(t, active)
	active, err = svc.IsActive(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, active)

	_, err = svc.Authenticate(ctx, "u@x.io", "password123")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Update(ctx, admin, uuid.New(), UpdateUserInput{FullName: &name})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUserNotFound))
}

func TestDeleteAgentKeepsCallNotes(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	agent := seedUser(t, conn, "agent@x.io", enums.UserRoleCallCenter)

	lead := &models.Lead{Name: "Karim", Phone: "+212622222222", Source: enums.LeadSourceTikTok, Status: enums.LeadStatusContacted, AssignedTo: &agent.ID}
	require.NoError(t, conn.Create(lead).Error)
	for _, outcome := range []enums.CallOutcome{enums.CallOutcomeNoAnswer, enums.CallOutcomeBusy} {
		require.NoError(t, conn.Create(&models.CallNote{LeadID: lead.ID, AgentID: agent.ID, Outcome: outcome}).Error)
	}

	require.NoError(t, svc.Delete(ctx, adminActor(), agent.ID))

	var notes []models.CallNote
	require.NoError(t, conn.Where("lead_id = ?", lead.ID).Find(&notes).Error)
	require.Len(t, notes, 2)
	for _, note := range notes {
		assert.Equal(t, models.UnknownAgentID, note.AgentID)
	}

	var reloaded models.Lead
	require.NoError(t, conn.First(&reloaded, "id = ?", lead.ID).Error)
	assert.Nil(t, reloaded.AssignedTo)

	err := svc.Delete(ctx, adminActor(), agent.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUserNotFound))
}

func TestDeleteSelfIsRejected(t *testing.T) {
	svc, _ := newTestService(t)
	admin := adminActor()
	err := svc.Delete(context.Background(), admin, admin.UserID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidData))
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Authenticate(context.Background(), "ghost@x.io", "whatever-password")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid credentials"))
}

func TestListRejectsBadCursor(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.List(context.Background(), ListParams{})
	require.NoError(t, err)

	params := ListParams{}
	params.Cursor = "%%%"
	_, err = svc.List(context.Background(), params)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
