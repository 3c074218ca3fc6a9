package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/jonesrussell/gocatalog/internal/fetcher"
	"github.com/jonesrussell/gocatalog/internal/logger"
)

// githubAPIVersion pins the REST API version header.
const githubAPIVersion = "2022-11-28"

// defaultGithubAPIBase is the structured API endpoint.
const defaultGithubAPIBase = "https://api.github.com"

// githubReadmeSelector matches the rendered README container on a repository
// page.
const githubReadmeSelector = "article.markdown-body.entry-content.container-lg"

// githubRepoPattern extracts owner and repository from a github.com URL.
var githubRepoPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/?#]+)`)

// ErrNoRepoPath is returned when a repository URL carries no owner/repo path.
var ErrNoRepoPath = errors.New("repository URL has no recognizable path")

// Github resolves github.com repositories: popularity and last-push come
// from the structured API, README content from the rendered HTML page. API
// failure degrades stars and activity to zero values, never fatally.
type Github struct {
	fetcher   Fetcher
	logger    logger.Logger
	converter *md.Converter
	token     string
	userAgent string
	apiBase   string
}

// NewGithub creates the github.com adapter.
func NewGithub(f Fetcher, log logger.Logger, conv *md.Converter, token, userAgent string) *Github {
	return &Github{
		fetcher:   f,
		logger:    log,
		converter: conv,
		token:     token,
		userAgent: userAgent,
		apiBase:   defaultGithubAPIBase,
	}
}

// githubRepo is the subset of the repos API response the crawler reads.
type githubRepo struct {
	StargazersCount int    `json:"stargazers_count"`
	PushedAt        string `json:"pushed_at"`
}

// FetchEnrichment implements Provider.
func (g *Github) FetchEnrichment(ctx context.Context, repoURL string) (Enrichment, error) {
	var enrichment Enrichment

	match := githubRepoPattern.FindStringSubmatch(repoURL)
	if match == nil {
		return enrichment, fmt.Errorf("github: %w: %s", ErrNoRepoPath, repoURL)
	}

	enrichment.Stars, enrichment.LastCommit = g.fetchAPIData(ctx, match[1], match[2])

	page := g.fetcher.Fetch(ctx, repoURL, fetcher.Options{UserAgent: g.userAgent})
	if !page.OK() {
		return enrichment, fmt.Errorf("github: fetch repository page: %s", repoURL)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return enrichment, fmt.Errorf("github: parse repository page: %w", err)
	}

	enrichment.Content = selectionMarkdown(doc.Find(githubReadmeSelector), g.converter)

	return enrichment, nil
}

// fetchAPIData reads stars and last-push from the repos API. Any failure
// degrades to zero values.
func (g *Github) fetchAPIData(ctx context.Context, owner, repo string) (stars int, lastCommit string) {
	apiURL := fmt.Sprintf("%s/repos/%s/%s", g.apiBase, owner, repo)

	result := g.fetcher.Fetch(ctx, apiURL, fetcher.Options{
		UserAgent:   g.userAgent,
		BearerToken: g.token,
		APIVersion:  githubAPIVersion,
	})
	if !result.OK() {
		g.logger.Warn("github API unavailable, degrading stats",
			logger.String("url", apiURL),
		)
		return 0, ""
	}

	var data githubRepo
	if err := json.Unmarshal(result.Body, &data); err != nil {
		g.logger.Warn("github API response unreadable",
			logger.String("url", apiURL),
			logger.Error(err),
		)
		return 0, ""
	}

	return data.StargazersCount, data.PushedAt
}
