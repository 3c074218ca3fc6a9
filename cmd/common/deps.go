// Package common holds the dependency bootstrap shared by the subcommands.
package common

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/gocatalog/internal/catalog"
	"github.com/jonesrussell/gocatalog/internal/config"
	"github.com/jonesrussell/gocatalog/internal/crawler"
	"github.com/jonesrussell/gocatalog/internal/database"
	"github.com/jonesrussell/gocatalog/internal/fetcher"
	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/jonesrussell/gocatalog/internal/provider"
	"github.com/jonesrussell/gocatalog/internal/resolver"
	"github.com/jonesrussell/gocatalog/internal/summarizer"
)

// Deps holds the dependencies every subcommand starts from.
type Deps struct {
	Config *config.Config
	Logger logger.Logger
}

// NewDeps loads configuration and creates the logger. The debug flag forces
// debug logging regardless of configuration.
func NewDeps(cfgFile string, debug bool) (*Deps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if debug {
		cfg.Debug = true
	}

	log, err := logger.New(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &Deps{Config: cfg, Logger: log}, nil
}

// OpenDatabase opens the configured asset database.
func OpenDatabase(ctx context.Context, deps *Deps) (*sqlx.DB, error) {
	db, err := database.Open(ctx, deps.Config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return db, nil
}

// NewResolver wires the fetcher, provider table, and optional summarizer
// into an asset resolver.
func NewResolver(deps *Deps) (*resolver.Resolver, *fetcher.Fetcher, error) {
	cfg := deps.Config

	f, err := fetcher.New(fetcher.Config{
		MaxRetries:     cfg.Crawler.MaxRetries,
		RetryDelayBase: cfg.Crawler.RetryDelayBase,
		Proxy:          cfg.Crawler.Proxy,
		UserAgent:      config.DefaultUserAgent,
	}, deps.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create fetcher: %w", err)
	}

	providers := provider.NewTable(f, deps.Logger, provider.Config{
		GithubToken:     cfg.Crawler.GithubToken,
		GithubUserAgent: cfg.Crawler.GithubUserAgent,
		GitlabToken:     cfg.Crawler.GitlabToken,
		GitlabUserAgent: cfg.Crawler.GitlabUserAgent,
		UserAgent:       config.DefaultUserAgent,
	})

	var sum resolver.Summarizer
	if cfg.AI.Enabled {
		sum = summarizer.New(summarizer.Config{
			BaseURL: cfg.AI.BaseURL,
			APIKey:  cfg.AI.APIKey,
			Model:   cfg.AI.Model,
			Prompt:  cfg.AI.Prompt,
		})
	}

	return resolver.New(f, providers, sum, deps.Logger, config.DefaultUserAgent), f, nil
}

// NewOrchestrator assembles the full crawl pipeline on top of the given
// repository.
func NewOrchestrator(deps *Deps, repo *database.AssetRepository) (*crawler.Orchestrator, error) {
	res, f, err := NewResolver(deps)
	if err != nil {
		return nil, err
	}

	reader, err := catalog.NewReader(f, deps.Logger, deps.Config.Crawler.AssetURL)
	if err != nil {
		return nil, fmt.Errorf("create catalog reader: %w", err)
	}

	return crawler.New(reader, res, repo, deps.Logger, crawler.Config{
		MaxPage:   deps.Config.Crawler.MaxPage,
		MaxAssets: deps.Config.Crawler.MaxAssets,
		ItemDelay: deps.Config.Crawler.ItemDelay,
	}), nil
}
