package service

import (
	"context"
	"time"

	redislock "github.com/go-co-op/gocron-redis-lock/v2"
	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"go.ule.co/platform/config"
	"go.ule.co/platform/core"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var _ core.CronService = (*CronServiceDefault)(nil)

type CronServiceParams struct {
	fx.In
	Config config.Manager
	Clock  clockwork.Clock
	Logger *core.Logger
	Job    core.DeletionJob
}

// CronServiceDefault triggers the deletion job on the configured schedule.
// It is an alternative to the external HTTP trigger; both share the job lock.
type CronServiceDefault struct {
	config    config.Manager
	clock     clockwork.Clock
	logger    *core.Logger
	job       core.DeletionJob
	scheduler gocron.Scheduler
}

func NewCronService(lc fx.Lifecycle, params CronServiceParams) *CronServiceDefault {
	cron := &CronServiceDefault{
		config: params.Config,
		clock:  params.Clock,
		logger: params.Logger,
		job:    params.Job,
	}

	lc.Append(fx.Hook{
		OnStart: cron.Start,
		OnStop:  cron.Stop,
	})

	return cron
}

func newScheduler(cm config.Manager, clock clockwork.Clock) (gocron.Scheduler, error) {
	cfg := cm.Config().Core
	options := []gocron.SchedulerOption{
		gocron.WithClock(clock),
		gocron.WithLocation(time.UTC),
	}

	if cfg.ClusterEnabled() && cfg.Clustered.RedisEnabled() {
		locker, err := redislock.NewRedisLocker(cfg.Clustered.Redis.Client(), redislock.WithTries(1), redislock.WithExpiry(core.DeleteAccountsLockTTL))
		if err != nil {
			return nil, err
		}

		options = append(options, gocron.WithDistributedLocker(locker))
	}

	return gocron.NewScheduler(options...)
}

func (c *CronServiceDefault) Start(_ context.Context) error {
	cfg := c.config.Config().Core.Cron
	if !cfg.Enabled {
		c.logger.Debug("in-process schedule disabled")
		return nil
	}

	scheduler, err := newScheduler(c.config, c.clock)
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.CronJob(cfg.Schedule, false),
		gocron.NewTask(c.runDeletionJob),
		gocron.WithName(core.DeleteAccountsJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return err
	}

	c.scheduler = scheduler
	c.scheduler.Start()

	c.logger.Info("deletion job scheduled", zap.String("schedule", cfg.Schedule))

	return nil
}

func (c *CronServiceDefault) Stop(_ context.Context) error {
	if c.scheduler == nil {
		return nil
	}

	return c.scheduler.Shutdown()
}

func (c *CronServiceDefault) runDeletionJob() {
	summary, err := c.job.Run(context.Background())
	if err != nil {
		c.logger.Error("scheduled deletion job failed", zap.Error(err))
		return
	}

	if summary.Skipped {
		c.logger.Info("scheduled deletion job skipped, lock held elsewhere")
	}
}
