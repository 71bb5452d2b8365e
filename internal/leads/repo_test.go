package leads

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/pkg/db/dbtest"
	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
)

func TestRepositorySearchMatchesNameOrPhone(t *testing.T) {
	conn := dbtest.Open(t, &models.User{}, &models.Lead{}, &models.LeadNote{}, &models.CallNote{})
	repo := NewRepository(conn)
	ctx := context.Background()

	for _, l := range []models.Lead{
		{Name: "Yassine", Phone: "+212600000001", Source: enums.LeadSourceTikTok, Status: enums.LeadStatusNew},
		{Name: "Nadia", Phone: "+212600000002", Source: enums.LeadSourceTikTok, Status: enums.LeadStatusNew},
		{Name: "Karim", Phone: "+212611111111", Source: enums.LeadSourceWhatsApp, Status: enums.LeadStatusLost},
	} {
		lead := l
		require.NoError(t, repo.Create(ctx, &lead))
	}

	rows, err := repo.List(ctx, ListParams{Search: "6000"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = repo.List(ctx, ListParams{Search: "Kar"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Karim", rows[0].Name)

	lost := enums.LeadStatusLost
	rows, err = repo.List(ctx, ListParams{Status: &lost})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRepositoryUpdateMissingLead(t *testing.T) {
	conn := dbtest.Open(t, &models.User{}, &models.Lead{})
	err := NewRepository(conn).Update(context.Background(), uuid.New(), map[string]any{"name": "x"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
