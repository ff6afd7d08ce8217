package service

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"
	"go.ule.co/platform/config"
	"go.ule.co/platform/core"
	"go.ule.co/platform/db/models"
	"go.ule.co/platform/service/internal/user"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var _ core.DeletionJob = (*DeletionJobDefault)(nil)

type DeletionJobParams struct {
	fx.In
	Db       *gorm.DB
	Config   config.Manager
	Clock    clockwork.Clock
	Logger   *core.Logger
	Locker   core.Locker
	Deletion core.DeletionService
	Metrics  *Metrics
}

// DeletionJobDefault is the single entry point of the deletion batch, shared
// by the HTTP trigger, the scheduler and the CLI.
type DeletionJobDefault struct {
	db       *gorm.DB
	config   config.Manager
	clock    clockwork.Clock
	logger   *core.Logger
	locker   core.Locker
	deletion core.DeletionService
	metrics  *Metrics
}

func NewDeletionJob(params DeletionJobParams) *DeletionJobDefault {
	return &DeletionJobDefault{
		db:       params.Db,
		config:   params.Config,
		clock:    params.Clock,
		logger:   params.Logger,
		locker:   params.Locker,
		deletion: params.Deletion,
		metrics:  params.Metrics,
	}
}

func (j *DeletionJobDefault) Run(ctx context.Context) (*core.DeletionJobSummary, error) {
	startedAt := j.clock.Now().UTC()

	summary, err := user.ProcessDeletionRequests(ctx, user.ProcessDeletionParams{
		Locker:   j.locker,
		Deletion: j.deletion,
		Clock:    j.clock,
		Logger:   j.logger,
		Workers:  j.config.Config().Core.Cron.Workers,
	})

	if j.metrics != nil {
		j.metrics.observeRun(summary, err)
	}

	if summary != nil {
		j.recordRun(ctx, startedAt, summary)
	}

	return summary, err
}

// recordRun is best effort: a lost history row never fails the job.
func (j *DeletionJobDefault) recordRun(ctx context.Context, startedAt time.Time, summary *core.DeletionJobSummary) {
	run := models.CronRun{
		Job:        core.DeleteAccountsJobName,
		StartedAt:  startedAt,
		DurationMs: summary.Duration.Milliseconds(),
		Skipped:    summary.Skipped,
		Total:      summary.Total,
		Succeeded:  summary.Succeeded,
		Failed:     summary.Failed,
		Failures: datatypes.NewJSONType(lo.Map(summary.Failures, func(f core.DeletionFailure, _ int) models.CronRunFailure {
			return models.CronRunFailure{RequestID: f.RequestID, Error: f.Error}
		})),
	}

	if err := j.db.WithContext(context.WithoutCancel(ctx)).Create(&run).Error; err != nil {
		j.logger.Error("failed to record cron run", zap.Error(core.NewPrivacyError(core.ErrKeyCronRunNotRecorded, err)))
	}
}
