package provider

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/jonesrussell/gocatalog/internal/fetcher"
	"github.com/jonesrussell/gocatalog/internal/logger"
)

// Markers on a codeberg.org repository page.
const (
	codebergReadmeSelector = "#readme .markup.markdown"
	codebergStarsSelector  = `a[href*="/stars"]`
	codebergCommitSelector = ".commit-list .age relative-time"
)

// Codeberg resolves codeberg.org repositories from HTML alone; the host
// exposes no structured API path the crawler uses.
type Codeberg struct {
	fetcher   Fetcher
	logger    logger.Logger
	converter *md.Converter
	userAgent string
}

// NewCodeberg creates the codeberg.org adapter.
func NewCodeberg(f Fetcher, log logger.Logger, conv *md.Converter, userAgent string) *Codeberg {
	return &Codeberg{
		fetcher:   f,
		logger:    log,
		converter: conv,
		userAgent: userAgent,
	}
}

// FetchEnrichment implements Provider.
func (c *Codeberg) FetchEnrichment(ctx context.Context, repoURL string) (Enrichment, error) {
	var enrichment Enrichment

	page := c.fetcher.Fetch(ctx, repoURL, fetcher.Options{UserAgent: c.userAgent})
	if !page.OK() {
		return enrichment, fmt.Errorf("codeberg: fetch repository page: %s", repoURL)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return enrichment, fmt.Errorf("codeberg: parse repository page: %w", err)
	}

	enrichment.Content = selectionMarkdown(doc.Find(codebergReadmeSelector), c.converter)
	enrichment.Stars = parseStars(doc)
	enrichment.LastCommit, _ = doc.Find(codebergCommitSelector).First().Attr("datetime")

	return enrichment, nil
}

// parseStars reads the star count from its anchor marker. Non-numeric text
// coerces to zero.
func parseStars(doc *goquery.Document) int {
	text := strings.TrimSpace(doc.Find(codebergStarsSelector).First().Text())
	if text == "" {
		return 0
	}

	stars, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}

	return stars
}
