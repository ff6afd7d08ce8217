package service

import (
	"context"

	"github.com/jonboulle/clockwork"
	"go.ule.co/platform/config"
	"go.ule.co/platform/core"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module wires the deletion lifecycle. It has no listeners of its own, so
// one-shot commands can use it without starting servers.
var Module = fx.Module("service",
	fx.Options(
		fx.Provide(
			NewMetrics,
			NewLocker,
			fx.Annotate(NewUserService, fx.As(new(core.UserService))),
			fx.Annotate(NewStorageService, fx.As(new(core.StorageService))),
			fx.Annotate(NewPrivacyLogService, fx.As(new(core.PrivacyLogService))),
			fx.Annotate(NewDeletionService, fx.As(new(core.DeletionService))),
			fx.Annotate(NewDeletionJob, fx.As(new(core.DeletionJob))),
		),
		fx.Invoke(NewDeletionNotifier),
	),
)

// ServerModule adds the HTTP listener and the in-process schedule.
var ServerModule = fx.Module("server",
	fx.Options(
		fx.Provide(NewHTTPService),
		fx.Provide(fx.Annotate(NewCronService, fx.As(new(core.CronService)))),
		fx.Invoke(func(*HTTPServiceDefault, core.CronService) {}),
	),
)

type LockerParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Config    config.Manager
	Db        *gorm.DB
	Clock     clockwork.Clock
	Logger    *core.Logger
}

// NewLocker returns the lock backend selected by core.cron.lock_backend.
func NewLocker(params LockerParams) core.Locker {
	cfg := params.Config.Config().Core

	if cfg.Cron.LockBackend == config.LockBackendRedis {
		client := cfg.Clustered.Redis.Client()
		params.Lifecycle.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})

		return NewRedisLocker(client, params.Logger)
	}

	return NewDatabaseLocker(DatabaseLockerParams{
		Db:     params.Db,
		Clock:  params.Clock,
		Logger: params.Logger,
	})
}
