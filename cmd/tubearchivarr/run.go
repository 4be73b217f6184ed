package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/ramonskie/tubearchivarr/internal/storage"
	"github.com/spf13/cobra"
)

func taskNames() []string {
	return []string{
		string(storage.JobTypeProgressPush),
		string(storage.JobTypeProgressPull),
		string(storage.JobTypePlaylistsPush),
		string(storage.JobTypePlaylistsPull),
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "run <task>",
		Short:     "Run one reconciliation task now and print its job record",
		Long:      "Runs a task synchronously, ignoring its enabled flag. Tasks: " + strings.Join(taskNames(), ", ") + ".",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: taskNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			initLogging("cli", true)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			a.membership.Refresh(ctx)

			job, runErr := a.scheduler.RunSync(ctx, storage.JobType(args[0]), "cli")

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(job); err != nil {
				return err
			}

			if runErr != nil {
				return fmt.Errorf("task %s %s: %w", args[0], job.Status, runErr)
			}
			return nil
		},
	}
}
