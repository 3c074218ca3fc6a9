// Package provider implements the per-host repository adapters that
// normalize heterogeneous hosting APIs and HTML into a common enrichment
// shape.
package provider

import (
	"context"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/jonesrussell/gocatalog/internal/fetcher"
	"github.com/jonesrussell/gocatalog/internal/logger"
)

// Enrichment is the normalized result of resolving a repository URL.
type Enrichment struct {
	// Content is the README-equivalent text, markdown-normalized.
	Content string
	// Stars is the popularity count reported by the host.
	Stars int
	// LastCommit is the last-activity timestamp in the host's own format.
	LastCommit string
}

// Provider fetches the enrichment for one hosting service.
type Provider interface {
	FetchEnrichment(ctx context.Context, repoURL string) (Enrichment, error)
}

// Fetcher issues outbound GET requests.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts fetcher.Options) fetcher.Result
}

// Config holds the per-provider credentials and identity strings.
type Config struct {
	GithubToken     string
	GithubUserAgent string
	GitlabToken     string
	GitlabUserAgent string
	UserAgent       string
}

// tableEntry pairs a host substring with its provider.
type tableEntry struct {
	host     string
	provider Provider
}

// Table dispatches repository URLs to the fixed set of known providers.
// Matching is ordered, first match wins.
type Table struct {
	entries []tableEntry
}

// NewTable builds the dispatch table over the known hosting providers.
func NewTable(f Fetcher, log logger.Logger, cfg Config) *Table {
	conv := newMarkdownConverter()

	return &Table{
		entries: []tableEntry{
			{host: "github.com", provider: NewGithub(f, log, conv, cfg.GithubToken, cfg.GithubUserAgent)},
			{host: "gitlab.com", provider: NewGitlab(f, log, conv, cfg.GitlabToken, cfg.GitlabUserAgent)},
			{host: "codeberg.org", provider: NewCodeberg(f, log, conv, cfg.UserAgent)},
		},
	}
}

// ForURL returns the provider responsible for the repository URL, if any.
func (t *Table) ForURL(repoURL string) (Provider, bool) {
	for _, entry := range t.entries {
		if strings.Contains(repoURL, entry.host) {
			return entry.provider, true
		}
	}

	return nil, false
}

// newMarkdownConverter builds the converter used to normalize README HTML
// into markdown text.
func newMarkdownConverter() *md.Converter {
	return md.NewConverter("", true, nil)
}

// selectionMarkdown converts the matched README container to markdown text.
// An empty selection yields an empty string.
func selectionMarkdown(sel *goquery.Selection, conv *md.Converter) string {
	if sel.Length() == 0 {
		return ""
	}

	return strings.TrimSpace(conv.Convert(sel))
}
