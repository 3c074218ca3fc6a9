// Package scheduler implements the recurring crawl command.
package scheduler

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jonesrussell/gocatalog/cmd/common"
	"github.com/jonesrussell/gocatalog/internal/database"
	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

// Command returns the scheduler command.
func Command(deps func() (*common.Deps, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "scheduler",
		Short: "Run crawls on the configured cron schedule",
		Long: `Start the scheduler and run a full crawl on the configured cron
schedule. The scheduler runs continuously until interrupted with Ctrl+C.`,
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

	c := cron.New()
	_, err = c.AddFunc(deps.Config.Crawler.Schedule, func() {
		deps.Logger.Info("scheduled crawl starting")

		progress, runErr := orchestrator.Run(ctx)
		if runErr != nil {
			deps.Logger.Error("scheduled crawl aborted", logger.Error(runErr))
			return
		}

		deps.Logger.Info("scheduled crawl complete",
			logger.Int("processed", progress.TotalProcessed),
			logger.Int("skipped", progress.Skipped),
			logger.Int("errors", progress.Errors),
		)
	})
	if err != nil {
		return fmt.Errorf("invalid crawl schedule %q: %w", deps.Config.Crawler.Schedule, err)
	}

	deps.Logger.Info("scheduler started",
		logger.String("schedule", deps.Config.Crawler.Schedule),
	)
	c.Start()

	<-ctx.Done()

	deps.Logger.Info("scheduler stopping")
	<-c.Stop().Done()

	return nil
}
