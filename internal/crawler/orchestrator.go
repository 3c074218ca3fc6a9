// Package crawler drives full crawl runs over the catalog: paging through
// the listing, enriching each asset, and persisting the results.
package crawler

import (
	"context"
	"errors"
	"time"

	"github.com/jonesrussell/gocatalog/internal/database"
	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/models"
)

// PageReader fetches one parsed page of the catalog listing.
type PageReader interface {
	ReadPage(ctx context.Context, page int) []models.Asset
}

// Resolver enriches a single asset.
type Resolver interface {
	Resolve(ctx context.Context, asset *models.Asset, existing *models.Asset) error
}

// AssetStore persists assets and answers point lookups.
type AssetStore interface {
	GetByURL(ctx context.Context, url string) (*models.Asset, error)
	Upsert(ctx context.Context, asset *models.Asset) error
}

// Config bounds a crawl run.
type Config struct {
	// MaxPage is the highest 0-indexed listing page a run walks, so MaxPage=N
	// covers N+1 pages. Zero means no cap.
	MaxPage int
	// MaxAssets caps how many assets a run processes. Zero means no cap.
	MaxAssets int
	// ItemDelay is the pause between consecutive assets.
	ItemDelay time.Duration
}

// Orchestrator runs crawls. A run always completes with progress counters;
// per-asset failures are counted, logged, and skipped over.
type Orchestrator struct {
	reader   PageReader
	resolver Resolver
	store    AssetStore
	logger   logger.Logger
	cfg      Config

	now func() time.Time
}

// New creates an orchestrator.
func New(reader PageReader, resolver Resolver, store AssetStore, log logger.Logger, cfg Config) *Orchestrator {
	return &Orchestrator{
		reader:   reader,
		resolver: resolver,
		store:    store,
		logger:   log,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run walks the catalog from page zero (the listing is 0-indexed, and with
// the updated-first sort page zero holds the newest assets) until a ceiling
// is hit or a page comes back empty. Assets already crawled today are counted
// as skipped without touching the network.
func (o *Orchestrator) Run(ctx context.Context) (models.CrawlProgress, error) {
	var progress models.CrawlProgress
	if o.cfg.MaxPage > 0 {
		progress.TotalPages = o.cfg.MaxPage + 1
	}

	for page := 0; o.cfg.MaxPage == 0 || page <= o.cfg.MaxPage; page++ {
		if err := ctx.Err(); err != nil {
			return progress, err
		}
		if o.assetCeilingReached(&progress) {
			o.logger.Info("asset ceiling reached", logger.Int("max", o.cfg.MaxAssets))
			break
		}

		progress.CurrentPage = page
		assets := o.reader.ReadPage(ctx, page)
		if len(assets) == 0 {
			o.logger.Info("catalog exhausted", logger.Int("page", page))
			break
		}
		if o.cfg.MaxPage == 0 {
			progress.TotalPages = page + 1
		}

		o.logger.Info("processing catalog page",
			logger.Int("page", page),
			logger.Int("assets", len(assets)),
		)

		if err := o.processPage(ctx, assets, &progress); err != nil {
			return progress, err
		}
	}

	o.logger.Info("crawl finished",
		logger.Int("processed", progress.TotalProcessed),
		logger.Int("skipped", progress.Skipped),
		logger.Int("errors", progress.Errors),
		logger.Int("pages", progress.TotalPages),
	)

	return progress, nil
}

// processPage handles the assets of one listing page, stopping mid-page when
// the asset ceiling is reached.
func (o *Orchestrator) processPage(ctx context.Context, assets []models.Asset, progress *models.CrawlProgress) error {
	for i := range assets {
		if o.assetCeilingReached(progress) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		o.processAsset(ctx, &assets[i], progress)

		if err := o.pause(ctx); err != nil {
			return err
		}
	}

	return nil
}

// assetCeilingReached reports whether the run has processed its asset budget.
// Checked before every asset and before every page fetch, so a ceiling hit at
// a page boundary never requests another listing page.
func (o *Orchestrator) assetCeilingReached(progress *models.CrawlProgress) bool {
	return o.cfg.MaxAssets > 0 && progress.TotalProcessed >= o.cfg.MaxAssets
}

// processAsset enriches and persists one asset, updating the counters.
func (o *Orchestrator) processAsset(ctx context.Context, asset *models.Asset, progress *models.CrawlProgress) {
	existing, err := o.store.GetByURL(ctx, asset.URL)
	if err != nil && !errors.Is(err, database.ErrAssetNotFound) {
		o.logger.Error("asset lookup failed",
			logger.String("url", asset.URL),
			logger.Error(err),
		)
		progress.Errors++
		return
	}

	if o.crawledToday(existing) {
		o.logger.Debug("asset already crawled today", logger.String("url", asset.URL))
		progress.Skipped++
		return
	}

	if err := o.resolver.Resolve(ctx, asset, existing); err != nil {
		o.logger.Error("asset enrichment failed",
			logger.String("url", asset.URL),
			logger.Error(err),
		)
		progress.Errors++
		return
	}

	asset.CrawledAt = o.now()
	if err := o.store.Upsert(ctx, asset); err != nil {
		o.logger.Error("asset persist failed",
			logger.String("url", asset.URL),
			logger.Error(err),
		)
		progress.Errors++
		return
	}

	progress.TotalProcessed++
}

// crawledToday reports whether the stored row was crawled on the current
// calendar day.
func (o *Orchestrator) crawledToday(existing *models.Asset) bool {
	if existing == nil {
		return false
	}

	y1, m1, d1 := existing.CrawledAt.Date()
	y2, m2, d2 := o.now().Date()

	return y1 == y2 && m1 == m2 && d1 == d2
}

// pause waits the configured politeness delay, honoring cancellation.
func (o *Orchestrator) pause(ctx context.Context) error {
	if o.cfg.ItemDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(o.cfg.ItemDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
