// Package crawl implements the one-shot crawl command.
package crawl

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jonesrussell/gocatalog/cmd/common"
	"github.com/jonesrussell/gocatalog/internal/database"
	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/spf13/cobra"
)

// Command returns the crawl command.
func Command(deps func() (*common.Deps, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Run one crawl over the asset catalog",
		Long: `Walk the asset catalog page by page, enrich every asset with
repository data, and persist the results. The run stops at the configured
page or asset ceiling, or when the catalog is exhausted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := deps()
			if err != nil {
				return err
			}
			defer func() { _ = d.Logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, d)
		},
	}
}

func run(ctx context.Context, deps *common.Deps) error {
	db, err := common.OpenDatabase(ctx, deps)
	if err != nil {
		return err
	}
	defer db.Close()

	orchestrator, err := common.NewOrchestrator(deps, database.NewAssetRepository(db))
	if err != nil {
		return err
	}

	progress, err := orchestrator.Run(ctx)
	if err != nil {
		return fmt.Errorf("crawl: %w", err)
	}

	deps.Logger.Info("crawl complete",
		logger.Int("processed", progress.TotalProcessed),
		logger.Int("skipped", progress.Skipped),
		logger.Int("errors", progress.Errors),
	)

	return nil
}
