package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"redis-queue/database"
	"redis-queue/pkg/logger"
	"redis-queue/router"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP producer/consumer API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == 0 {
				port = cfg.Server.Port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			q, err := connectQueue(ctx)
			if err != nil {
				return err
			}
			defer q.Close()

			archive, err := database.NewArchiveManager(ctx, cfg.Archive)
			if err != nil {
				return err
			}

			go archive.SweepExpired(ctx, cfg.Archive.SweepInterval())

			srv := &http.Server{
				Addr:    fmt.Sprintf(":%d", port),
				Handler: router.SetupRouter(q, archive.Repo(), cfg.Queue.ResultTTLDuration()),
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Infof("Queue API starting on port %d", port)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("failed to start server: %w", err)
				}
			case <-ctx.Done():
			}

			logger.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Errorf("Error shutting down server: %v", err)
			}
			if err := archive.Close(shutdownCtx); err != nil {
				logger.Errorf("Error closing database: %v", err)
			}

			logger.Info("Server exited")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")
	return cmd
}
