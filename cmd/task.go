package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"redis-queue/model"

	"github.com/spf13/cobra"
)

func newPutCmd() *cobra.Command {
	var (
		payload   string
		unique    bool
		uniqueKey string
		wait      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "put",
		Short: "Enqueue a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !json.Valid([]byte(payload)) {
				return fmt.Errorf("payload is not valid JSON")
			}
			task, err := model.NewTask(json.RawMessage(payload))
			if err != nil {
				return err
			}
			task.Unique = unique
			task.UniqueKey = uniqueKey

			q, err := connectQueue(cmd.Context())
			if err != nil {
				return err
			}
			defer q.Close()

			job, err := q.Put(cmd.Context(), task)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), job.UID)

			if wait <= 0 {
				return nil
			}
			ok, err := job.Wait(cmd.Context(), wait)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no result for %s within %s", job.UID, wait)
			}
			result, err := job.Result(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&payload, "payload", "{}", "task payload as JSON")
	cmd.Flags().BoolVar(&unique, "unique", false, "reject the task if an equal one is already queued")
	cmd.Flags().StringVar(&uniqueKey, "unique-key", "", "hash this key instead of the payload")
	cmd.Flags().DurationVar(&wait, "wait", 0, "wait this long for the result")
	return cmd
}

func newGetCmd() *cobra.Command {
	var (
		block   bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Dequeue one task",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := connectQueue(cmd.Context())
			if err != nil {
				return err
			}
			defer q.Close()

			task, err := q.Get(cmd.Context(), block, timeout)
			if err != nil {
				return err
			}
			if task == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "queue empty")
				return nil
			}
			return printJSON(cmd, task)
		},
	}

	cmd.Flags().BoolVar(&block, "block", false, "wait for a task")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "blocking wait limit, 0 waits forever")
	return cmd
}

func newSizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "Print the queue length",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := connectQueue(cmd.Context())
			if err != nil {
				return err
			}
			defer q.Close()

			size, err := q.Size(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), size)
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all queued tasks and dedup reservations",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := connectQueue(cmd.Context())
			if err != nil {
				return err
			}
			defer q.Close()

			return q.Clear(cmd.Context())
		},
	}
}

func newResultCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "result <uid>",
		Short: "Read the result of a task (one-shot)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := connectQueue(cmd.Context())
			if err != nil {
				return err
			}
			defer q.Close()

			job := q.Job(args[0])
			if wait > 0 {
				if _, err := job.Wait(cmd.Context(), wait); err != nil {
					return err
				}
			}
			result, err := job.Result(cmd.Context())
			if err != nil {
				return err
			}
			if result == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no result")
				return nil
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "wait this long for the result")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
