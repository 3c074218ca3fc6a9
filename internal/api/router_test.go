package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/gocatalog/internal/api"
	"github.com/jonesrussell/gocatalog/internal/handlers"
	"github.com/jonesrussell/gocatalog/internal/models"
	"github.com/jonesrussell/gocatalog/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyStore struct{}

func (emptyStore) List(context.Context) ([]models.Asset, error) { return []models.Asset{}, nil }

func (emptyStore) GetByURL(context.Context, string) (*models.Asset, error) {
	return nil, nil
}

func (emptyStore) Upsert(context.Context, *models.Asset) error { return nil }

func (emptyStore) SetFavorite(context.Context, string, bool) (*models.Asset, error) {
	return nil, nil
}

type nopRefresher struct{}

func (nopRefresher) Resolve(context.Context, *models.Asset, *models.Asset) error { return nil }

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	handler := handlers.NewAssetHandler(emptyStore{}, nopRefresher{}, testhelpers.NewTestLogger())

	return api.NewRouter(handler, testhelpers.NewTestLogger(), []string{"http://localhost:3000"})
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestRequestIDAssigned(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDPreserved(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "client-supplied")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "client-supplied", w.Header().Get("X-Request-ID"))
}

func TestAssetsRouteWired(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/assets", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Zero(t, resp.Count)
}
