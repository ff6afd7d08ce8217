package main

import (
	"github.com/spf13/cobra"
	"go.ule.co/platform/api"
	"go.ule.co/platform/service"
	"go.uber.org/fx"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the in-process schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}

			app := fx.New(
				opts.appOptions(cfg, logger),
				api.Module,
				service.ServerModule,
			)

			fatalOnError(logger, "Failed to build application", app.Err())

			app.Run()

			return nil
		},
	}
}
