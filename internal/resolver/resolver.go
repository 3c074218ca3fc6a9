// Package resolver enriches catalog assets with repository data: it locates
// the source repository from the asset detail page, dispatches to the
// matching hosting provider, and summarizes new content.
package resolver

import (
	"context"
	"fmt"

	"github.com/jonesrussell/gocatalog/internal/catalog"
	"github.com/jonesrussell/gocatalog/internal/fetcher"
	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/models"
	"github.com/jonesrussell/gocatalog/internal/provider"
)

// Fetcher issues outbound GET requests.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts fetcher.Options) fetcher.Result
}

// Dispatcher maps repository URLs to hosting providers.
type Dispatcher interface {
	ForURL(repoURL string) (provider.Provider, bool)
}

// Summarizer condenses repository content into a short description.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Resolver enriches one asset at a time. The only error it surfaces is a
// summarization failure; every upstream miss degrades to partial data.
type Resolver struct {
	fetcher    Fetcher
	providers  Dispatcher
	summarizer Summarizer
	logger     logger.Logger
	userAgent  string
}

// New creates a resolver. summarizer may be nil, which disables
// summarization entirely.
func New(f Fetcher, providers Dispatcher, summarizer Summarizer, log logger.Logger, userAgent string) *Resolver {
	return &Resolver{
		fetcher:    f,
		providers:  providers,
		summarizer: summarizer,
		logger:     log,
		userAgent:  userAgent,
	}
}

// Resolve fills the enrichment fields of asset in place. existing is the
// previously stored row for the same URL, or nil on first sight.
//
// An existing row that already carries a repository URL and whose version and
// update stamp are unchanged short-circuits the whole pipeline: the stored
// enrichment is copied over without any network traffic.
func (r *Resolver) Resolve(ctx context.Context, asset *models.Asset, existing *models.Asset) error {
	if isFresh(asset, existing) {
		asset.CopyEnrichment(existing)
		r.logger.Debug("asset unchanged, reusing stored enrichment",
			logger.String("url", asset.URL),
		)
		return nil
	}

	repoURL := r.findRepoURL(ctx, asset.URL)
	if repoURL == "" {
		return nil
	}
	asset.RepoURL = repoURL

	prov, ok := r.providers.ForURL(repoURL)
	if !ok {
		r.logger.Debug("repository host not supported",
			logger.String("repo_url", repoURL),
		)
		return nil
	}

	enrichment, err := prov.FetchEnrichment(ctx, repoURL)
	asset.Stars = enrichment.Stars
	asset.LastCommit = enrichment.LastCommit
	if err != nil {
		r.logger.Warn("repository enrichment failed",
			logger.String("repo_url", repoURL),
			logger.Error(err),
		)
		asset.RepoContent = models.ContentErrorSentinel
		return nil
	}
	asset.RepoContent = enrichment.Content

	return r.summarize(ctx, asset, existing)
}

// isFresh reports whether the stored row already covers this asset revision.
func isFresh(asset *models.Asset, existing *models.Asset) bool {
	return existing != nil &&
		existing.RepoURL != "" &&
		existing.Version == asset.Version &&
		existing.LastUpdated == asset.LastUpdated
}

// findRepoURL fetches the asset detail page and extracts the repository
// link. Missing pages and pages without a link both yield an empty string.
func (r *Resolver) findRepoURL(ctx context.Context, assetURL string) string {
	page := r.fetcher.Fetch(ctx, assetURL, fetcher.Options{
		UserAgent:    r.userAgent,
		SkipNotFound: true,
	})
	if !page.OK() {
		r.logger.Debug("asset detail page unavailable",
			logger.String("url", assetURL),
		)
		return ""
	}

	return catalog.ExtractRepoURL(page.Body)
}

// summarize produces the asset summary. Content identical to the stored row
// reuses the stored summary; genuinely new content goes to the summarizer,
// whose failure is the one error a resolve can surface.
func (r *Resolver) summarize(ctx context.Context, asset *models.Asset, existing *models.Asset) error {
	if r.summarizer == nil || asset.RepoContent == "" {
		return nil
	}

	// Byte-equal content always reuses the stored summary, even an empty one;
	// the summarizer is only charged for genuinely new content.
	if existing != nil && existing.RepoContent == asset.RepoContent {
		asset.Summary = existing.Summary
		return nil
	}

	summary, err := r.summarizer.Summarize(ctx, asset.RepoContent)
	if err != nil {
		return fmt.Errorf("summarize %s: %w", asset.URL, err)
	}
	asset.Summary = summary

	return nil
}
