// Package httpd implements the HTTP API server command.
package httpd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonesrussell/gocatalog/cmd/common"
	"github.com/jonesrussell/gocatalog/internal/api"
	"github.com/jonesrussell/gocatalog/internal/database"
	"github.com/jonesrussell/gocatalog/internal/handlers"
	"github.com/jonesrussell/gocatalog/internal/logger"
	"github.com/spf13/cobra"
)

const (
	readHeaderTimeout      = 10 * time.Second
	defaultShutdownTimeout = 30 * time.Second
)

// Command returns the httpd command.
func Command(deps func() (*common.Deps, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Start the catalog API server",
		Long: `Serve the stored catalog over HTTP: listing, favorites, and
on-demand refresh of individual assets. The server runs until interrupted.`,
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

	repo := database.NewAssetRepository(db)

	res, _, err := common.NewResolver(deps)
	if err != nil {
		return err
	}

	assetHandler := handlers.NewAssetHandler(repo, res, deps.Logger)
	router := api.NewRouter(assetHandler, deps.Logger, deps.Config.Server.CORSOrigins)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		deps.Logger.Info("HTTP server starting", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	deps.Logger.Info("HTTP server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	return nil
}
