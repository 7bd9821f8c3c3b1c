package cmd

import (
	"context"
	"fmt"
	"os"

	"redis-queue/config"
	"redis-queue/pkg/logger"
	"redis-queue/pkg/queue"

	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "redis-queue",
	Short:         "Deduplicating task queue on Redis with per-task result channels",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			if err := os.Setenv("CONFIG_PATH", configPath); err != nil {
				return err
			}
		}
		c, err := config.NewConfig()
		if err != nil {
			return err
		}
		cfg = c
		logger.InitWithConfig(cfg.Log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config (overrides CONFIG_PATH)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newWorkerCmd())
	rootCmd.AddCommand(newPutCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newSizeCmd())
	rootCmd.AddCommand(newClearCmd())
	rootCmd.AddCommand(newResultCmd())
}

// Execute runs the CLI.
func Execute() {
	defer logger.Close()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		logger.Close()
		os.Exit(1)
	}
}

// connectQueue 根据配置创建并连接 Redis 队列
func connectQueue(ctx context.Context) (*queue.Queue, error) {
	q := queue.New(cfg.Queue.Name, queue.WithNamespace(cfg.Queue.Namespace))
	if err := q.Connect(ctx, queue.RedisDialer(cfg.RedisOptions())); err != nil {
		return nil, err
	}
	logger.Infof("Connected to Redis %s, queue %s", cfg.Redis.Addr, q.Key())
	return q, nil
}
