package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"redis-queue/database"
	"redis-queue/pkg/worker"

	"github.com/spf13/cobra"
)

func newWorkerCmd() *cobra.Command {
	var (
		count       int
		handlerName string
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume tasks and send results back through job channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			newHandler, ok := worker.Handlers[handlerName]
			if !ok {
				return fmt.Errorf("unknown handler %q", handlerName)
			}
			if count == 0 {
				count = cfg.Worker.Count
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

			pool := worker.NewWorkerPool(count, q, newHandler(q), archive.Repo(), worker.Options{
				BlockTimeout: cfg.Queue.BlockTimeoutDuration(),
				ResultTTL:    cfg.Queue.ResultTTLDuration(),
				Retention:    cfg.Archive.RetentionDuration(),
			})
			pool.Start()

			<-ctx.Done()
			pool.Stop()

			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return archive.Close(closeCtx)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of workers (default from config)")
	cmd.Flags().StringVar(&handlerName, "handler", "echo", "task handler: echo or hash")
	return cmd
}
