package catalog_test

import (
	"fmt"
	"testing"

	"github.com/jonesrussell/gocatalog/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSiteRoot = "https://example.org"
	testBaseURL  = "https://example.org/asset-library/asset"
)

// listingEntry renders one catalog entry in the listing page markup.
func listingEntry(n int, supportClass string) string {
	return fmt.Sprintf(`
<div class="asset-item">
  <a class="asset-header" href="/asset-library/asset/%d">
    <img class="media-object" src="https://cdn.example.org/icon%d.png">
    <div class="asset-title"><h4>Asset %d</h4></div>
  </a>
  <div class="asset-tags">
    <span class="label label-primary">Tools</span>
    <span class="label label-info">4.2</span>
    <span class="label %s">MIT</span>
  </div>
  <div class="asset-footer">
    <a href="/asset-library/author/%d">Author %d</a>
    <span>1.%d.0 | 2024-0%d-01</span>
  </div>
</div>`, n, n, n, supportClass, n, n, n, n)
}

func TestParseAssetsExtractsFieldsInDocumentOrder(t *testing.T) {
	html := `<html><body>` +
		listingEntry(1, "label-danger") +
		listingEntry(2, "label-success") +
		listingEntry(3, "label-default") +
		`</body></html>`

	assets, err := catalog.ParseAssets([]byte(html), testSiteRoot, testBaseURL)
	require.NoError(t, err)
	require.Len(t, assets, 3)

	first := assets[0]
	assert.Equal(t, "Asset 1", first.Title)
	assert.Equal(t, testSiteRoot+"/asset-library/asset/1", first.URL)
	assert.Equal(t, "Author 1", first.Author)
	assert.Equal(t, testBaseURL+"/asset-library/author/1", first.AuthorURL)
	assert.Equal(t, "1.1.0", first.Version)
	assert.Equal(t, "2024-01-01", first.LastUpdated)
	assert.Equal(t, "Tools", first.Category)
	assert.Equal(t, "4.2", first.GodotVersion)
	assert.Equal(t, "https://cdn.example.org/icon1.png", first.IconURL)

	assert.Equal(t, "Asset 2", assets[1].Title)
	assert.Equal(t, "Asset 3", assets[2].Title)
}

func TestParseAssetsSupportLevels(t *testing.T) {
	tests := []struct {
		name         string
		supportClass string
		want         string
	}{
		{name: "featured", supportClass: "label-danger", want: "Featured"},
		{name: "community", supportClass: "label-success", want: "Community"},
		{name: "testing", supportClass: "label-default", want: "Testing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assets, err := catalog.ParseAssets([]byte(listingEntry(1, tt.supportClass)), testSiteRoot, testBaseURL)
			require.NoError(t, err)
			require.Len(t, assets, 1)
			assert.Equal(t, tt.want, assets[0].SupportLevel)
		})
	}
}

func TestParseAssetsEmptyPage(t *testing.T) {
	assets, err := catalog.ParseAssets([]byte("<html><body></body></html>"), testSiteRoot, testBaseURL)
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestParseAssetsMissingMarkersDegrade(t *testing.T) {
	html := `<div class="asset-item"><div class="asset-title"><h4>Bare</h4></div></div>`

	assets, err := catalog.ParseAssets([]byte(html), testSiteRoot, testBaseURL)
	require.NoError(t, err)
	require.Len(t, assets, 1)

	assert.Equal(t, "Bare", assets[0].Title)
	assert.Empty(t, assets[0].Author)
	assert.Empty(t, assets[0].Version)
	assert.Empty(t, assets[0].LastUpdated)
	assert.Empty(t, assets[0].SupportLevel)
	assert.Empty(t, assets[0].IconURL)
}

func TestExtractRepoURL(t *testing.T) {
	html := `<html><body>
<a class="btn btn-default" href="https://github.com/owner/repo">View Source</a>
</body></html>`

	assert.Equal(t, "https://github.com/owner/repo", catalog.ExtractRepoURL([]byte(html)))
	assert.Empty(t, catalog.ExtractRepoURL([]byte("<html><body></body></html>")))
}
