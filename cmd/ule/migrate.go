package main

import (
	"path"

	"github.com/spf13/cobra"
	"go.ule.co/platform/db"
	"go.uber.org/zap"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}

			dbCfg := cfg.Config().Core.DB

			conn, err := db.Open(dbCfg, path.Dir(cfg.ConfigFile()), logger)
			if err != nil {
				return err
			}

			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := db.Migrate(conn.WithContext(cmd.Context())); err != nil {
				return err
			}

			logger.Info("database migrated", zap.String("type", dbCfg.Type))

			return nil
		},
	}
}
