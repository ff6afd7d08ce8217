package core

import (
	"context"
	"time"

	"go.ule.co/platform/db/models"
)

const (
	// DeletionGracePeriod separates confirmation from execution. It is fixed
	// policy, not a per-call option.
	DeletionGracePeriod = 30 * 24 * time.Hour

	DeleteAccountsJobName  = "delete-accounts"
	DeleteAccountsLockName = "cron:delete-accounts"
	DeleteAccountsLockTTL  = 5 * time.Minute

	// DeletionTokenBytes is the entropy of a confirmation token before hex encoding.
	DeletionTokenBytes = 32
)

type DeletionService interface {
	// RequestDeletion opens a deletion flow for userID and returns the
	// confirmation token. An already active flow returns its existing token.
	RequestDeletion(ctx context.Context, userID uint, reason *string, sourceIP string) (string, error)

	// ConfirmDeletion moves the pending request matching userID and token into
	// the grace period and returns the execution date.
	ConfirmDeletion(ctx context.Context, userID uint, token string, sourceIP string) (time.Time, error)

	// CancelDeletion removes any active request of userID. Calling it without
	// an active request is not an error.
	CancelDeletion(ctx context.Context, userID uint, sourceIP string) error

	// GetStatus returns the active request of userID or nil.
	GetStatus(ctx context.Context, userID uint) (*models.DeletionRequest, error)

	// ExecuteDeletion permanently removes the account behind a due request.
	ExecuteDeletion(ctx context.Context, requestID string) error

	// DueRequests lists grace period requests whose execution date has passed.
	DueRequests(ctx context.Context) ([]models.DeletionRequest, error)
}

type DeletionFailure struct {
	RequestID string `json:"requestId"`
	Error     string `json:"error"`
}

// DeletionJobSummary is the outcome of one pass of the deletion job.
type DeletionJobSummary struct {
	Skipped   bool
	Total     int
	Succeeded int
	Failed    int
	Failures  []DeletionFailure
	Duration  time.Duration
}

// DeletionJobReport is the wire form of a DeletionJobSummary, shared by the
// trigger endpoint and the CLI.
type DeletionJobReport struct {
	Success   bool              `json:"success"`
	Skipped   bool              `json:"skipped"`
	Total     int               `json:"total"`
	Succeeded int               `json:"exitosas"`
	Failed    int               `json:"fallidas"`
	Errors    []DeletionFailure `json:"errores"`
	Duration  string            `json:"duracion"`
}

func (s *DeletionJobSummary) Report() DeletionJobReport {
	failures := s.Failures
	if failures == nil {
		failures = []DeletionFailure{}
	}

	return DeletionJobReport{
		Success:   true,
		Skipped:   s.Skipped,
		Total:     s.Total,
		Succeeded: s.Succeeded,
		Failed:    s.Failed,
		Errors:    failures,
		Duration:  s.Duration.String(),
	}
}

type DeletionJob interface {
	// Run executes every due request under the job lock. A lock held elsewhere
	// yields a skipped summary and no error.
	Run(ctx context.Context) (*DeletionJobSummary, error)
}
