package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/jonesrussell/gocatalog/internal/fetcher"
	"github.com/jonesrussell/gocatalog/internal/logger"
)

// defaultGitlabBase is the gitlab.com origin.
const defaultGitlabBase = "https://gitlab.com"

// gitlabReadmeSelector matches the rendered README container on a repository
// page, used only when the raw README fetch fails.
const gitlabReadmeSelector = ".file-content.js-markup-content.md"

// gitlabReadmeNames are the raw README candidates tried in order on the
// default branch.
var gitlabReadmeNames = []string{"README.md", "readme.md", "README", "readme"}

// Gitlab resolves gitlab.com repositories, including nested group projects.
// The projects API supplies the default branch and stats; README content is
// fetched raw from the default branch, falling back to HTML extraction.
type Gitlab struct {
	fetcher   Fetcher
	logger    logger.Logger
	converter *md.Converter
	token     string
	userAgent string
	base      string
}

// NewGitlab creates the gitlab.com adapter.
func NewGitlab(f Fetcher, log logger.Logger, conv *md.Converter, token, userAgent string) *Gitlab {
	return &Gitlab{
		fetcher:   f,
		logger:    log,
		converter: conv,
		token:     token,
		userAgent: userAgent,
		base:      defaultGitlabBase,
	}
}

// gitlabProject is the subset of the projects API response the crawler reads.
type gitlabProject struct {
	DefaultBranch  string `json:"default_branch"`
	StarCount      int    `json:"star_count"`
	LastActivityAt string `json:"last_activity_at"`
}

// FetchEnrichment implements Provider.
func (g *Gitlab) FetchEnrichment(ctx context.Context, repoURL string) (Enrichment, error) {
	var enrichment Enrichment

	projectPath, err := gitlabProjectPath(repoURL)
	if err != nil {
		return enrichment, err
	}

	project := g.fetchProject(ctx, projectPath)
	if project != nil {
		enrichment.Stars = project.StarCount
		enrichment.LastCommit = project.LastActivityAt

		enrichment.Content = g.fetchRawReadme(ctx, projectPath, project.DefaultBranch)
	}

	if enrichment.Content == "" {
		enrichment.Content = g.fetchHTMLReadme(ctx, repoURL)
	}

	return enrichment, nil
}

// gitlabProjectPath resolves the project path (possibly nested groups) from
// the repository URL.
func gitlabProjectPath(repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err != nil {
		return "", fmt.Errorf("gitlab: parse repository URL: %w", err)
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return "", fmt.Errorf("gitlab: %w: %s", ErrNoRepoPath, repoURL)
	}

	return path, nil
}

// fetchProject reads the project record from the API. Any failure degrades
// to nil so stats stay at their defaults.
func (g *Gitlab) fetchProject(ctx context.Context, projectPath string) *gitlabProject {
	apiURL := fmt.Sprintf("%s/api/v4/projects/%s", g.base, url.PathEscape(projectPath))

	result := g.fetcher.Fetch(ctx, apiURL, fetcher.Options{
		UserAgent:   g.userAgent,
		BearerToken: g.token,
	})
	if !result.OK() {
		g.logger.Warn("gitlab API unavailable, degrading stats",
			logger.String("url", apiURL),
		)
		return nil
	}

	var project gitlabProject
	if err := json.Unmarshal(result.Body, &project); err != nil {
		g.logger.Warn("gitlab API response unreadable",
			logger.String("url", apiURL),
			logger.Error(err),
		)
		return nil
	}

	return &project
}

// fetchRawReadme tries the raw README candidates on the given branch and
// returns the first that succeeds, or an empty string.
func (g *Gitlab) fetchRawReadme(ctx context.Context, projectPath, branch string) string {
	if branch == "" {
		return ""
	}

	for _, name := range gitlabReadmeNames {
		rawURL := fmt.Sprintf("%s/%s/-/raw/%s/%s", g.base, projectPath, branch, name)

		result := g.fetcher.Fetch(ctx, rawURL, fetcher.Options{
			UserAgent:    g.userAgent,
			SkipNotFound: true,
		})
		if result.OK() && len(result.Body) > 0 {
			return string(result.Body)
		}
	}

	return ""
}

// fetchHTMLReadme extracts README text from the repository HTML page.
func (g *Gitlab) fetchHTMLReadme(ctx context.Context, repoURL string) string {
	page := g.fetcher.Fetch(ctx, repoURL, fetcher.Options{UserAgent: g.userAgent})
	if !page.OK() {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return ""
	}

	return selectionMarkdown(doc.Find(gitlabReadmeSelector), g.converter)
}
