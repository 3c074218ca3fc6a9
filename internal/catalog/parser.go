package catalog

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonesrussell/gocatalog/internal/models"
)

// Support level labels derived from the badge classes on a listing entry.
const (
	supportFeatured  = "Featured"
	supportCommunity = "Community"
	supportTesting   = "Testing"
)

// ParseAssets extracts the catalog entries from one listing page, in document
// order. Missing markers degrade individual fields to empty strings; a page
// without entries yields an empty slice.
func ParseAssets(html []byte, siteRoot, baseURL string) ([]models.Asset, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	var assets []models.Asset
	doc.Find(".asset-item").Each(func(_ int, sel *goquery.Selection) {
		version, lastUpdated := parseVersionDate(sel)

		assets = append(assets, models.Asset{
			Title:        strings.TrimSpace(sel.Find(".asset-title h4").Text()),
			URL:          siteRoot + attrOrEmpty(sel.Find(".asset-header"), "href"),
			Author:       strings.TrimSpace(sel.Find(".asset-footer a").Text()),
			AuthorURL:    baseURL + attrOrEmpty(sel.Find(".asset-footer a"), "href"),
			Version:      version,
			LastUpdated:  lastUpdated,
			Category:     strings.TrimSpace(sel.Find(".asset-tags .label-primary").Text()),
			GodotVersion: strings.TrimSpace(sel.Find(".asset-tags .label-info").Text()),
			SupportLevel: parseSupportLevel(sel),
			License:      strings.TrimSpace(sel.Find(".asset-tags .label-default").Text()),
			IconURL:      attrOrEmpty(sel.Find(".media-object"), "src"),
		})
	})

	return assets, nil
}

// ExtractRepoURL finds the linked repository URL on an asset detail page.
// Returns an empty string when the marker is missing; many catalog entries
// have no linked repository.
func ExtractRepoURL(html []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ""
	}

	return attrOrEmpty(doc.Find("a.btn.btn-default"), "href")
}

// parseVersionDate splits the composite "version | date" footer field.
func parseVersionDate(sel *goquery.Selection) (version, lastUpdated string) {
	text := sel.Find(".asset-footer span").Text()

	parts := strings.SplitN(text, "|", 2)
	version = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		lastUpdated = strings.TrimSpace(parts[1])
	}

	return version, lastUpdated
}

// parseSupportLevel classifies the entry by which of three mutually exclusive
// badge classes is present.
func parseSupportLevel(sel *goquery.Selection) string {
	if strings.TrimSpace(sel.Find(".asset-tags .label-danger").Text()) != "" {
		return supportFeatured
	}
	if strings.TrimSpace(sel.Find(".asset-tags .label-success").Text()) != "" {
		return supportCommunity
	}
	if strings.TrimSpace(sel.Find(".asset-tags .label-default").Text()) != "" {
		return supportTesting
	}

	return ""
}

// attrOrEmpty returns the attribute value of the first matched element.
func attrOrEmpty(sel *goquery.Selection, attr string) string {
	val, _ := sel.First().Attr(attr)
	return val
}
