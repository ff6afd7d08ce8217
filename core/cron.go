package core

import "context"

// CronService runs jobs on an in-process schedule.
type CronService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
