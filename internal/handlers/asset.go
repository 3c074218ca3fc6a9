// Package handlers implements the HTTP handlers of the catalog API.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/gocatalog/internal/database"
	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/models"
)

// Refresher re-enriches a single asset.
type Refresher interface {
	Resolve(ctx context.Context, asset *models.Asset, existing *models.Asset) error
}

// AssetStore is the persistence surface the handlers use.
type AssetStore interface {
	List(ctx context.Context) ([]models.Asset, error)
	GetByURL(ctx context.Context, url string) (*models.Asset, error)
	Upsert(ctx context.Context, asset *models.Asset) error
	SetFavorite(ctx context.Context, url string, favorite bool) (*models.Asset, error)
}

// AssetHandler serves the asset endpoints.
type AssetHandler struct {
	store     AssetStore
	refresher Refresher
	guard     *RefreshGuard
	logger    logger.Logger
}

// NewAssetHandler creates the asset endpoints handler.
func NewAssetHandler(store AssetStore, refresher Refresher, log logger.Logger) *AssetHandler {
	return &AssetHandler{
		store:     store,
		refresher: refresher,
		guard:     NewRefreshGuard(),
		logger:    log,
	}
}

// List returns every stored asset, most starred first.
func (h *AssetHandler) List(c *gin.Context) {
	assets, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list assets",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list assets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assets": assets,
		"count":  len(assets),
	})
}

type favoriteRequest struct {
	URL      string `json:"url" binding:"required"`
	Favorite bool   `json:"favorite"`
}

// Favorite flips the favorite flag on one asset.
func (h *AssetHandler) Favorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid request body",
			logger.String("error", err.Error()),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	asset, err := h.store.SetFavorite(c.Request.Context(), req.URL, req.Favorite)
	if err != nil {
		if errors.Is(err, database.ErrAssetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
			return
		}
		h.logger.Error("Failed to update favorite",
			logger.String("url", req.URL),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update favorite"})
		return
	}

	c.JSON(http.StatusOK, asset)
}

type refreshRequest struct {
	URL string `json:"url" binding:"required"`
}

// Refresh re-enriches one asset and returns the refreshed record. A second
// refresh of the same asset while one is in flight is rejected with 429.
func (h *AssetHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid request body",
			logger.String("error", err.Error()),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if !h.guard.TryAcquire(req.URL) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Refresh already in progress"})
		return
	}
	defer h.guard.Release(req.URL)

	ctx := c.Request.Context()

	existing, err := h.store.GetByURL(ctx, req.URL)
	if err != nil {
		if errors.Is(err, database.ErrAssetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
			return
		}
		h.logger.Error("Failed to load asset",
			logger.String("url", req.URL),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load asset"})
		return
	}

	// The stored row is passed with a nil prior so the freshness gate cannot
	// skip the re-fetch.
	asset := *existing
	if err := h.refresher.Resolve(ctx, &asset, nil); err != nil {
		h.logger.Error("Asset refresh failed",
			logger.String("url", req.URL),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh asset"})
		return
	}

	asset.CrawledAt = time.Now()
	if err := h.store.Upsert(ctx, &asset); err != nil {
		h.logger.Error("Asset refresh persist failed",
			logger.String("url", req.URL),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh asset"})
		return
	}

	h.logger.Info("Asset refreshed",
		logger.String("url", req.URL),
	)

	// Read back so server-assigned columns are current.
	updated, err := h.store.GetByURL(ctx, req.URL)
	if err != nil {
		c.JSON(http.StatusOK, asset)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// RefreshGuard tracks which assets have a refresh in flight.
type RefreshGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewRefreshGuard creates an empty guard.
func NewRefreshGuard() *RefreshGuard {
	return &RefreshGuard{active: make(map[string]struct{})}
}

// TryAcquire marks the URL as refreshing. It reports false when a refresh is
// already in flight.
func (g *RefreshGuard) TryAcquire(url string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.active[url]; busy {
		return false
	}
	g.active[url] = struct{}{}

	return true
}

// Release clears the in-flight mark.
func (g *RefreshGuard) Release(url string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.active, url)
}
