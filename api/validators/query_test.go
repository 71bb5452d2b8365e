package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/codcrm-backend/pkg/errors"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
)

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/orders?cursor=abc", nil)
	params, err := ParsePagination(r)
	require.NoError(t, err)
	assert.Equal(t, pagination.DefaultLimit, params.Limit)
	assert.Equal(t, "abc", params.Cursor)

	r = httptest.NewRequest(http.MethodGet, "/orders?limit=500", nil)
	_, err = ParsePagination(r)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryDate(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/summary?from=2024-05-01&to=05/02/2024", nil)

	from, err := ParseQueryDate(r, "from")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), *from)

	_, err = ParseQueryDate(r, "to")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	missing, err := ParseQueryDate(r, "since")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestParseQueryUUIDAndBool(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/products?category_id=nope&active=true", nil)

	_, err := ParseQueryUUID(r, "category_id")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	active, err := ParseQueryBool(r, "active")
	require.NoError(t, err)
	assert.True(t, *active)
}

func TestParseURLUUID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/orders/x", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "not-a-uuid")
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	_, err := ParseURLUUID(r, "id")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

type noteBody struct {
	Note string `json:"note"`
}

func TestDecodeJSONBody(t *testing.T) {
	var body noteBody
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"note":"call back"}`))
	require.NoError(t, DecodeJSONBody(httptest.NewRecorder(), r, &body))
	assert.Equal(t, "call back", body.Note)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"note":"x","extra":1}`))
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(httptest.NewRecorder(), r, &noteBody{}), pkgerrors.CodeValidation))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(httptest.NewRecorder(), r, &noteBody{}), pkgerrors.CodeValidation))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"note":"a"}{"note":"b"}`))
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(httptest.NewRecorder(), r, &noteBody{}), pkgerrors.CodeValidation))
}
