// Package models defines the data structures shared across the crawler,
// storage, and API layers.
package models

import "time"

// ContentErrorSentinel is stored in RepoContent when repository content
// extraction failed. The API surfaces it so the frontend can distinguish
// failed fetches from entries that simply have no linked repository.
const ContentErrorSentinel = "error"

// Asset is one catalog entry, enriched with repository data once its detail
// page has been resolved. URL is the canonical detail-page URL and the unique
// identifying key across all stored assets.
type Asset struct {
	ID           int64     `db:"id"            json:"id"`
	Title        string    `db:"title"         json:"title"`
	URL          string    `db:"url"           json:"url"`
	Author       string    `db:"author"        json:"author"`
	AuthorURL    string    `db:"author_url"    json:"authorUrl"`
	Version      string    `db:"version"       json:"version"`
	LastUpdated  string    `db:"last_updated"  json:"lastUpdated"`
	Category     string    `db:"category"      json:"category"`
	GodotVersion string    `db:"godot_version" json:"godotVersion"`
	SupportLevel string    `db:"support_level" json:"supportLevel"`
	License      string    `db:"license"       json:"license"`
	IconURL      string    `db:"icon_url"      json:"iconUrl"`
	RepoURL      string    `db:"repo_url"      json:"repoUrl"`
	RepoContent  string    `db:"repo_content"  json:"repoContent"`
	Summary      string    `db:"summary"       json:"summary"`
	Stars        int       `db:"stars"         json:"stars"`
	LastCommit   string    `db:"last_commit"   json:"lastCommit"`
	CrawledAt    time.Time `db:"crawled_at"    json:"crawledAt"`
	Favorite     bool      `db:"favorite"      json:"favorite"`
	CreatedAt    time.Time `db:"created_at"    json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at"    json:"updatedAt"`
}

// CopyEnrichment copies the enrichable fields from an existing record. Used
// when a freshness gate decides the repository state is unchanged.
func (a *Asset) CopyEnrichment(existing *Asset) {
	a.RepoURL = existing.RepoURL
	a.RepoContent = existing.RepoContent
	a.Summary = existing.Summary
	a.Stars = existing.Stars
	a.LastCommit = existing.LastCommit
}

// CrawlProgress holds run-scoped counters for one orchestrator run. It is
// never persisted.
type CrawlProgress struct {
	TotalProcessed int `json:"totalProcessed"`
	CurrentPage    int `json:"currentPage"`
	TotalPages     int `json:"totalPages"`
	Skipped        int `json:"skipped"`
	Errors         int `json:"errors"`
}
