package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/gocatalog/internal/database"
	"github.com/jonesrussell/gocatalog/internal/handlers"
	"github.com/jonesrussell/gocatalog/internal/models"
	"github.com/jonesrussell/gocatalog/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	assets  map[string]*models.Asset
	listErr error
	upserts []models.Asset
}

func newFakeStore(assets ...*models.Asset) *fakeStore {
	s := &fakeStore{assets: make(map[string]*models.Asset)}
	for _, a := range assets {
		s.assets[a.URL] = a
	}
	return s
}

func (s *fakeStore) List(_ context.Context) ([]models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.Asset, 0, len(s.assets))
	for _, a := range s.assets {
		out = append(out, *a)
	}
	return out, nil
}

func (s *fakeStore) GetByURL(_ context.Context, url string) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.assets[url]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, database.ErrAssetNotFound
}

func (s *fakeStore) Upsert(_ context.Context, asset *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upserts = append(s.upserts, *asset)
	copied := *asset
	s.assets[asset.URL] = &copied
	return nil
}

func (s *fakeStore) SetFavorite(_ context.Context, url string, favorite bool) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assets[url]
	if !ok {
		return nil, database.ErrAssetNotFound
	}
	a.Favorite = favorite
	copied := *a
	return &copied, nil
}

type fakeRefresher struct {
	started chan struct{}
	release chan struct{}
	err     error
}

func newFakeRefresher() *fakeRefresher {
	return &fakeRefresher{}
}

// newBlockingRefresher makes Resolve block until release is closed, so a
// refresh can be held in flight from the test.
func newBlockingRefresher() *fakeRefresher {
	return &fakeRefresher{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (r *fakeRefresher) Resolve(_ context.Context, asset *models.Asset, _ *models.Asset) error {
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.release != nil {
		<-r.release
	}
	if r.err != nil {
		return r.err
	}
	asset.Summary = "refreshed"
	return nil
}

func setupRouter(store *fakeStore, refresher handlers.Refresher) *gin.Engine {
	gin.SetMode(gin.TestMode)

	handler := handlers.NewAssetHandler(store, refresher, testhelpers.NewTestLogger())

	router := gin.New()
	router.GET("/api/assets", handler.List)
	router.POST("/api/assets/favorite", handler.Favorite)
	router.POST("/api/assets/refresh", handler.Refresh)

	return router
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestListAssets(t *testing.T) {
	store := newFakeStore(
		&models.Asset{URL: "https://example.org/asset/1", Title: "One"},
		&models.Asset{URL: "https://example.org/asset/2", Title: "Two"},
	)
	router := setupRouter(store, newFakeRefresher())

	w := doJSON(router, http.MethodGet, "/api/assets", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Assets []models.Asset `json:"assets"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Len(t, resp.Assets, 2)
}

func TestListAssetsStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("disk on fire")
	router := setupRouter(store, newFakeRefresher())

	w := doJSON(router, http.MethodGet, "/api/assets", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestFavoriteToggle(t *testing.T) {
	store := newFakeStore(&models.Asset{URL: "https://example.org/asset/1"})
	router := setupRouter(store, newFakeRefresher())

	w := doJSON(router, http.MethodPost, "/api/assets/favorite", gin.H{
		"url":      "https://example.org/asset/1",
		"favorite": true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var asset models.Asset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &asset))
	assert.True(t, asset.Favorite)
}

func TestFavoriteUnknownAsset(t *testing.T) {
	router := setupRouter(newFakeStore(), newFakeRefresher())

	w := doJSON(router, http.MethodPost, "/api/assets/favorite", gin.H{
		"url":      "https://example.org/missing",
		"favorite": true,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFavoriteMissingURL(t *testing.T) {
	router := setupRouter(newFakeStore(), newFakeRefresher())

	w := doJSON(router, http.MethodPost, "/api/assets/favorite", gin.H{"favorite": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshUnknownAsset(t *testing.T) {
	router := setupRouter(newFakeStore(), newFakeRefresher())

	w := doJSON(router, http.MethodPost, "/api/assets/refresh", gin.H{
		"url": "https://example.org/missing",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRefreshMissingURL(t *testing.T) {
	router := setupRouter(newFakeStore(), newFakeRefresher())

	w := doJSON(router, http.MethodPost, "/api/assets/refresh", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshReturnsRefreshedRecord(t *testing.T) {
	store := newFakeStore(&models.Asset{URL: "https://example.org/asset/1", Favorite: true})
	router := setupRouter(store, newFakeRefresher())

	w := doJSON(router, http.MethodPost, "/api/assets/refresh", gin.H{
		"url": "https://example.org/asset/1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var asset models.Asset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &asset))
	assert.Equal(t, "refreshed", asset.Summary)
	assert.True(t, asset.Favorite, "refresh must not clear the favorite flag")
	assert.False(t, asset.CrawledAt.IsZero())

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.upserts, 1)
	assert.Equal(t, "refreshed", store.assets["https://example.org/asset/1"].Summary)
}

func TestRefreshFailureIsServerError(t *testing.T) {
	store := newFakeStore(&models.Asset{URL: "https://example.org/asset/1"})
	refresher := newFakeRefresher()
	refresher.err = errors.New("model unavailable")
	router := setupRouter(store, refresher)

	w := doJSON(router, http.MethodPost, "/api/assets/refresh", gin.H{
		"url": "https://example.org/asset/1",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.upserts, "a failed refresh must not persist")
}

func TestRefreshRejectsConcurrentRefresh(t *testing.T) {
	store := newFakeStore(&models.Asset{URL: "https://example.org/asset/1"})
	refresher := newBlockingRefresher()
	router := setupRouter(store, refresher)

	body := gin.H{"url": "https://example.org/asset/1"}

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- doJSON(router, http.MethodPost, "/api/assets/refresh", body)
	}()

	// Wait for the first refresh to be in flight.
	select {
	case <-refresher.started:
	case <-time.After(time.Second):
		t.Fatal("refresh never started")
	}

	w := doJSON(router, http.MethodPost, "/api/assets/refresh", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	close(refresher.release)

	select {
	case w = <-first:
	case <-time.After(time.Second):
		t.Fatal("first refresh never finished")
	}
	assert.Equal(t, http.StatusOK, w.Code)

	// The guard frees up once the refresh completes.
	w = doJSON(router, http.MethodPost, "/api/assets/refresh", body)
	assert.Equal(t, http.StatusOK, w.Code)

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.upserts, 2)
	assert.Equal(t, "refreshed", store.assets["https://example.org/asset/1"].Summary)
}
