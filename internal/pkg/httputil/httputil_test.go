package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	ServiceUnavailable(rec, "no_snapshot", "campaign data not loaded yet")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "no_snapshot", body.Code)
	assert.Equal(t, "campaign data not loaded yet", body.Error)
}

func TestInternalErrorHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	InternalError(rec, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestDecode(t *testing.T) {
	var dst struct {
		Brand string `json:"brand"`
	}

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"brand":"Acme"}`))
	assert.True(t, Decode(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, "Acme", dst.Brand)

	rec := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{`))
	assert.False(t, Decode(rec, req, &dst))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?a=true&b=0&c=maybe", nil)

	v, err := QueryBool(req, "a")
	require.NoError(t, err)
	assert.True(t, v)

	v, err = QueryBool(req, "b")
	require.NoError(t, err)
	assert.False(t, v)

	v, err = QueryBool(req, "missing")
	require.NoError(t, err)
	assert.False(t, v)

	_, err = QueryBool(req, "c")
	assert.Error(t, err)
}

func TestQueryIntSet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?years=2023,2024&years=2022&bad=20x", nil)

	years, err := QueryIntSet(req, "years")
	require.NoError(t, err)
	assert.Len(t, years, 3)
	assert.Contains(t, years, 2022)

	empty, err := QueryIntSet(req, "none")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = QueryIntSet(req, "bad")
	assert.Error(t, err)
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=x", nil)

	n, err := QueryInt(req, "page", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = QueryInt(req, "missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = QueryInt(req, "limit", 10)
	assert.Error(t, err)
}
