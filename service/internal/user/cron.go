package user

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.ule.co/platform/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type ProcessDeletionParams struct {
	Locker   core.Locker
	Deletion core.DeletionService
	Clock    clockwork.Clock
	Logger   *core.Logger
	Workers  int
}

type deletionResult struct {
	requestID string
	err       error
}

// ProcessDeletionRequests executes every due deletion request while holding
// the job lock. A lock held elsewhere returns a skipped summary. Work runs on
// a context detached from ctx so a dropped trigger never stops a purge halfway.
func ProcessDeletionRequests(ctx context.Context, params ProcessDeletionParams) (summary *core.DeletionJobSummary, err error) {
	logger := params.Logger
	start := params.Clock.Now()

	acquired, err := params.Locker.Acquire(ctx, core.DeleteAccountsLockName, core.DeleteAccountsLockTTL)
	if err != nil {
		logger.Error("Failed to acquire deletion job lock", zap.Error(err))
		if !core.IsPrivacyError(err) {
			err = core.NewPrivacyError(core.ErrKeyLockUnavailable, err)
		}
		return nil, err
	}

	if !acquired {
		logger.Info("Deletion job already running elsewhere, skipping")
		return &core.DeletionJobSummary{
			Skipped:  true,
			Failures: []core.DeletionFailure{},
		}, nil
	}

	execCtx := context.WithoutCancel(ctx)

	defer func() {
		if releaseErr := params.Locker.Release(execCtx, core.DeleteAccountsLockName); releaseErr != nil {
			logger.Error("Failed to release deletion job lock", zap.Error(releaseErr))
		}

		if summary != nil {
			summary.Duration = params.Clock.Since(start)
		}
	}()

	requests, err := params.Deletion.DueRequests(execCtx)
	if err != nil {
		logger.Error("Failed to get due deletion requests", zap.Error(err))
		return nil, err
	}

	results := make([]deletionResult, len(requests))

	group := new(errgroup.Group)
	group.SetLimit(max(1, params.Workers))

	for i, request := range requests {
		group.Go(func() error {
			results[i] = deletionResult{
				requestID: request.ID,
				err:       executeIsolated(execCtx, params.Deletion, request.ID),
			}
			return nil
		})
	}

	_ = group.Wait()

	summary = &core.DeletionJobSummary{
		Total:    len(requests),
		Failures: []core.DeletionFailure{},
	}

	for _, result := range results {
		if result.err == nil {
			summary.Succeeded++
			continue
		}

		summary.Failed++
		summary.Failures = append(summary.Failures, core.DeletionFailure{
			RequestID: result.requestID,
			Error:     result.err.Error(),
		})
		logger.Error("Failed to delete account", zap.String("request_id", result.requestID), zap.Error(result.err))
	}

	logger.Info("Deletion job finished",
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)

	return summary, nil
}

// executeIsolated turns a panic in one deletion into that item's error.
func executeIsolated(ctx context.Context, deletion core.DeletionService, requestID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return deletion.ExecuteDeletion(ctx, requestID)
}
