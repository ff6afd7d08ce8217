package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.ule.co/platform/core"
	"go.uber.org/fx"
)

func newCronCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cron",
		Short: "Run periodic jobs once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newCronDeleteAccountsCommand(opts))

	return cmd
}

func newCronDeleteAccountsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-accounts",
		Short: "Execute every account deletion whose grace period has ended",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}

			var job core.DeletionJob

			app := fx.New(
				opts.appOptions(cfg, logger),
				fx.Populate(&job),
			)
			if err := app.Err(); err != nil {
				return err
			}

			if err := app.Start(ctx); err != nil {
				return err
			}
			defer func() {
				_ = app.Stop(context.WithoutCancel(ctx))
			}()

			summary, err := job.Run(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(summary.Report()); err != nil {
				return err
			}

			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d deletions failed", summary.Failed, summary.Total)
			}

			return nil
		},
	}
}
