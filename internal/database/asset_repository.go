package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/gocatalog/internal/models"
)

// ErrAssetNotFound is returned when no asset exists for the given URL.
var ErrAssetNotFound = errors.New("asset not found")

// assetSelectColumns lists columns for SELECT queries on assets.
const assetSelectColumns = `id, title, url, author, author_url, version, last_updated,
	category, godot_version, support_level, license, icon_url, repo_url,
	repo_content, summary, stars, last_commit, crawled_at, favorite,
	created_at, updated_at`

// AssetRepository handles database operations for catalog assets.
type AssetRepository struct {
	db *sqlx.DB
}

// NewAssetRepository creates a new asset repository.
func NewAssetRepository(db *sqlx.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// GetByURL returns the asset with the given identifying URL, or
// ErrAssetNotFound.
func (r *AssetRepository) GetByURL(ctx context.Context, url string) (*models.Asset, error) {
	query := `SELECT ` + assetSelectColumns + ` FROM assets WHERE url = ?`

	var asset models.Asset
	err := r.db.GetContext(ctx, &asset, query, url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select asset: %w", err)
	}

	return &asset, nil
}

// Upsert inserts the asset or, when a row with the same URL exists, updates
// every enrichable field. The favorite flag is owned by the favorite toggle
// and is never written here: inserts rely on the column default, updates
// leave the stored value untouched.
func (r *AssetRepository) Upsert(ctx context.Context, asset *models.Asset) error {
	query := `
		INSERT INTO assets (
			title, url, author, author_url, version, last_updated,
			category, godot_version, support_level, license, icon_url,
			repo_url, repo_content, summary, stars, last_commit, crawled_at
		) VALUES (
			:title, :url, :author, :author_url, :version, :last_updated,
			:category, :godot_version, :support_level, :license, :icon_url,
			:repo_url, :repo_content, :summary, :stars, :last_commit, :crawled_at
		)
		ON CONFLICT (url) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			author_url = excluded.author_url,
			version = excluded.version,
			last_updated = excluded.last_updated,
			category = excluded.category,
			godot_version = excluded.godot_version,
			support_level = excluded.support_level,
			license = excluded.license,
			icon_url = excluded.icon_url,
			repo_url = excluded.repo_url,
			repo_content = excluded.repo_content,
			summary = excluded.summary,
			stars = excluded.stars,
			last_commit = excluded.last_commit,
			crawled_at = excluded.crawled_at,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := r.db.NamedExecContext(ctx, query, asset); err != nil {
		return fmt.Errorf("upsert asset: %w", err)
	}

	return nil
}

// List returns all assets ordered by stars descending.
func (r *AssetRepository) List(ctx context.Context) ([]models.Asset, error) {
	query := `SELECT ` + assetSelectColumns + ` FROM assets ORDER BY stars DESC`

	assets := []models.Asset{}
	if err := r.db.SelectContext(ctx, &assets, query); err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	return assets, nil
}

// SetFavorite updates the favorite flag for the asset with the given URL and
// returns the updated record.
func (r *AssetRepository) SetFavorite(ctx context.Context, url string, favorite bool) (*models.Asset, error) {
	query := `UPDATE assets SET favorite = ?, updated_at = CURRENT_TIMESTAMP WHERE url = ?`

	result, err := r.db.ExecContext(ctx, query, favorite, url)
	if err != nil {
		return nil, fmt.Errorf("update favorite: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrAssetNotFound
	}

	return r.GetByURL(ctx, url)
}
