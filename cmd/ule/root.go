package main

import (
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.ule.co/platform/config"
	"go.ule.co/platform/core"
	"go.ule.co/platform/db"
	"go.ule.co/platform/event"
	"go.ule.co/platform/mailer"
	"go.ule.co/platform/service"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type rootOptions struct {
	configFile string
	fxDebug    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "ule",
		Short:         "Ule platform services",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to the config file (searched in the default locations when empty)")
	cmd.PersistentFlags().BoolVar(&opts.fxDebug, "fx-debug", false, "Enable fx framework debug logging")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newCronCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))

	return cmd
}

// load reads and validates the config and builds the root logger from it.
func (o *rootOptions) load() (*config.ManagerDefault, *core.Logger, error) {
	var managerOpts []config.ManagerOption
	if o.configFile != "" {
		managerOpts = append(managerOpts, config.WithConfigFile(o.configFile))
	}

	cfg, err := config.NewManager(managerOpts...)
	if err != nil {
		return nil, nil, err
	}

	if err := cfg.Init(); err != nil {
		return nil, nil, err
	}

	logger := core.NewLogger(cfg)
	logger.SetLevelFromConfig()

	return cfg, logger, nil
}

// appOptions are shared by every command that builds an fx application.
func (o *rootOptions) appOptions(cfg config.Manager, logger *core.Logger) fx.Option {
	fxLogger := fx.WithLogger(func() fxevent.Logger {
		log := &fxevent.ZapLogger{Logger: logger.Logger}
		log.UseLogLevel(zapcore.DebugLevel)
		log.UseErrorLevel(zapcore.ErrorLevel)
		return log
	})

	// fx's own console logger prints the full provide and invoke graph.
	if o.fxDebug {
		fxLogger = fx.Options()
	}

	return fx.Options(
		fxLogger,
		fx.Provide(func() config.Manager { return cfg }),
		fx.Provide(func() *core.Logger { return logger }),
		fx.Provide(func() clockwork.Clock { return clockwork.NewRealClock() }),
		db.Module,
		event.Module,
		mailer.Module,
		service.Module,
	)
}

func fatalOnError(logger *core.Logger, msg string, err error) {
	if err != nil {
		logger.Fatal(msg, zap.Error(err))
	}
}
