// Package catalog reads and parses pages of the asset library listing.
package catalog

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jonesrussell/gocatalog/internal/fetcher"
	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/models"
)

// Fetcher issues outbound GET requests.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts fetcher.Options) fetcher.Result
}

// Reader fetches one page of the catalog listing at a time.
type Reader struct {
	fetcher  Fetcher
	logger   logger.Logger
	baseURL  string
	siteRoot string
}

// NewReader creates a reader for the catalog at baseURL.
func NewReader(f Fetcher, log logger.Logger, baseURL string) (*Reader, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog base URL: %w", err)
	}

	return &Reader{
		fetcher:  f,
		logger:   log,
		baseURL:  baseURL,
		siteRoot: parsed.Scheme + "://" + parsed.Host,
	}, nil
}

// ReadPage fetches and parses one page of the catalog, most recently updated
// first. A failed page fetch yields an empty slice; the orchestrator treats
// that as end of catalog, not as a run failure.
func (r *Reader) ReadPage(ctx context.Context, page int) []models.Asset {
	pageURL := fmt.Sprintf("%s?sort=updated&page=%d", r.baseURL, page)

	result := r.fetcher.Fetch(ctx, pageURL, fetcher.Options{})
	if !result.OK() {
		r.logger.Error("failed to fetch catalog page", logger.Int("page", page))
		return nil
	}

	assets, err := ParseAssets(result.Body, r.siteRoot, r.baseURL)
	if err != nil {
		r.logger.Error("failed to parse catalog page",
			logger.Int("page", page),
			logger.Error(err),
		)
		return nil
	}

	return assets
}
