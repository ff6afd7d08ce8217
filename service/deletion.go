package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	gevent "github.com/gookit/event"
	"github.com/jonboulle/clockwork"
	"go.ule.co/platform/core"
	"go.ule.co/platform/db"
	"go.ule.co/platform/db/models"
	"go.ule.co/platform/event"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var _ core.DeletionService = (*DeletionServiceDefault)(nil)

var (
	errDeletionRequestMissing = errors.New("no pending deletion request matches")
	errDeletionRequestGone    = errors.New("deletion request changed before purge")
)

type deletionEventFunc func(em *gevent.Manager, user *models.User, request models.DeletionRequest) error

type DeletionServiceParams struct {
	fx.In
	Db         *gorm.DB
	Clock      clockwork.Clock
	Logger     *core.Logger
	Users      core.UserService
	Storage    core.StorageService
	PrivacyLog core.PrivacyLogService
	Events     *gevent.Manager `optional:"true"`
}

type DeletionServiceDefault struct {
	db         *gorm.DB
	clock      clockwork.Clock
	logger     *core.Logger
	users      core.UserService
	storage    core.StorageService
	privacyLog core.PrivacyLogService
	events     *gevent.Manager
}

func NewDeletionService(params DeletionServiceParams) *DeletionServiceDefault {
	return &DeletionServiceDefault{
		db:         params.Db,
		clock:      params.Clock,
		logger:     params.Logger,
		users:      params.Users,
		storage:    params.Storage,
		privacyLog: params.PrivacyLog,
		events:     params.Events,
	}
}

func (d *DeletionServiceDefault) RequestDeletion(ctx context.Context, userID uint, reason *string, sourceIP string) (string, error) {
	exists, user, err := d.users.AccountExists(ctx, userID)
	if err != nil {
		return "", err
	}

	if !exists {
		return "", core.NewPrivacyError(core.ErrKeyUserNotFound, nil)
	}

	existing, err := d.GetStatus(ctx, userID)
	if err != nil {
		return "", err
	}

	if existing != nil {
		return existing.Token, nil
	}

	token, err := newDeletionToken()
	if err != nil {
		return "", core.NewPrivacyError(core.ErrKeyTokenGenerationFailed, err)
	}

	request := models.DeletionRequest{
		UserID:      userID,
		State:       models.DeletionStatePending,
		Token:       token,
		Reason:      reason,
		SourceIP:    sourceIP,
		RequestedAt: d.clock.Now().UTC(),
	}

	err = db.RetryableTransaction(ctx, d.db, func(tx *gorm.DB) error {
		if err := tx.Create(&request).Error; err != nil {
			return err
		}

		return d.privacyLog.RecordTx(tx, models.NewPrivacyLog(userID, "Solicitud de eliminación de cuenta", sourceIP, models.PrivacyLogMetadata{
			Requested: &models.DeletionRequestedMetadata{
				RequestID: request.ID,
				Reason:    reason,
			},
		}))
	})
	if err != nil {
		// Lost a race against a concurrent request for the same user.
		if db.IsDuplicateKeyError(err) {
			winner, findErr := d.GetStatus(ctx, userID)
			if findErr == nil && winner != nil {
				return winner.Token, nil
			}
		}

		return "", asPrivacyError(core.ErrKeyDeletionRequestFailed, err)
	}

	d.fire(event.FireDeletionRequestedEvent, user, request)

	return token, nil
}

func (d *DeletionServiceDefault) ConfirmDeletion(ctx context.Context, userID uint, token string, sourceIP string) (time.Time, error) {
	if token == "" {
		return time.Time{}, core.NewPrivacyError(core.ErrKeyDeletionRequestNotFound, nil)
	}

	now := d.clock.Now().UTC()
	executionDate := now.Add(core.DeletionGracePeriod)

	var confirmed models.DeletionRequest

	err := db.RetryableTransaction(ctx, d.db, func(tx *gorm.DB) error {
		result := tx.Model(&models.DeletionRequest{}).
			Where("user_id = ? AND token = ? AND state = ?", userID, token, models.DeletionStatePending).
			Updates(map[string]any{
				"state":          models.DeletionStateGracePeriod,
				"confirmed_at":   now,
				"execution_date": executionDate,
				"updated_at":     now,
			})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return errDeletionRequestMissing
		}

		if err := tx.Where("user_id = ?", userID).First(&confirmed).Error; err != nil {
			return err
		}

		return d.privacyLog.RecordTx(tx, models.NewPrivacyLog(userID, "Eliminación de cuenta confirmada", sourceIP, models.PrivacyLogMetadata{
			Confirmed: &models.DeletionConfirmedMetadata{
				RequestID:     confirmed.ID,
				ConfirmedAt:   now,
				ExecutionDate: executionDate,
			},
		}))
	})
	if err != nil {
		if errors.Is(err, errDeletionRequestMissing) {
			return time.Time{}, core.NewPrivacyError(core.ErrKeyDeletionRequestNotFound, nil)
		}

		return time.Time{}, asPrivacyError(core.ErrKeyDatabaseOperationFailed, err)
	}

	d.fire(event.FireDeletionConfirmedEvent, d.lookupUser(ctx, userID), confirmed)

	return executionDate, nil
}

func (d *DeletionServiceDefault) CancelDeletion(ctx context.Context, userID uint, sourceIP string) error {
	var removed *models.DeletionRequest

	err := db.RetryableTransaction(ctx, d.db, func(tx *gorm.DB) error {
		removed = nil

		var request models.DeletionRequest
		if err := tx.Where("user_id = ?", userID).First(&request).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		result := tx.Where("id = ?", request.ID).Delete(&models.DeletionRequest{})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return nil
		}

		removed = &request

		return d.privacyLog.RecordTx(tx, models.NewPrivacyLog(userID, "Solicitud de eliminación cancelada", sourceIP, models.PrivacyLogMetadata{
			Cancelled: &models.DeletionCancelledMetadata{
				RequestID:     request.ID,
				PreviousState: request.State,
			},
		}))
	})
	if err != nil {
		return asPrivacyError(core.ErrKeyDatabaseOperationFailed, err)
	}

	if removed != nil {
		d.fire(event.FireDeletionCancelledEvent, d.lookupUser(ctx, userID), *removed)
	}

	return nil
}

func (d *DeletionServiceDefault) GetStatus(ctx context.Context, userID uint) (*models.DeletionRequest, error) {
	var request models.DeletionRequest

	err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, core.NewPrivacyError(core.ErrKeyDatabaseOperationFailed, err)
	}

	return &request, nil
}

func (d *DeletionServiceDefault) DueRequests(ctx context.Context) ([]models.DeletionRequest, error) {
	var requests []models.DeletionRequest

	err := d.db.WithContext(ctx).
		Where("state = ? AND execution_date <= ?", models.DeletionStateGracePeriod, d.clock.Now().UTC()).
		Order("execution_date asc").
		Find(&requests).Error
	if err != nil {
		return nil, core.NewPrivacyError(core.ErrKeyDatabaseOperationFailed, err)
	}

	return requests, nil
}

// ExecuteDeletion logs the attempt, removes stored objects and then purges
// the account rows in one transaction together with the executed entry.
// Objects go first so a failed purge can be retried by the next run without
// orphaning files.
func (d *DeletionServiceDefault) ExecuteDeletion(ctx context.Context, requestID string) error {
	var request models.DeletionRequest

	err := d.db.WithContext(ctx).Where("id = ?", requestID).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.NewPrivacyError(core.ErrKeyDeletionRequestNotFound, nil)
		}
		return core.NewPrivacyError(core.ErrKeyDatabaseOperationFailed, err)
	}

	now := d.clock.Now().UTC()
	if !request.Due(now) {
		return core.NewPrivacyError(core.ErrKeyDeletionNotDue, nil)
	}

	_, user, err := d.users.AccountExists(ctx, request.UserID)
	if err != nil {
		return d.failExecution(ctx, request, err)
	}

	keys, err := d.users.DocumentKeys(ctx, request.UserID)
	if err != nil {
		return d.failExecution(ctx, request, err)
	}

	err = d.privacyLog.Record(ctx, models.NewPrivacyLog(request.UserID, "Inicio de eliminación de cuenta", "", models.PrivacyLogMetadata{
		Started: &models.DeletionStartedMetadata{
			RequestID:     request.ID,
			ExecutionDate: *request.ExecutionDate,
			Documents:     len(keys),
		},
	}))
	if err != nil {
		return d.failExecution(ctx, request, err)
	}

	if err := d.storage.DeleteObjects(ctx, keys); err != nil {
		return d.failExecution(ctx, request, err)
	}

	err = db.RetryableTransaction(ctx, d.db, func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND state = ? AND execution_date <= ?", request.ID, models.DeletionStateGracePeriod, now).
			Delete(&models.DeletionRequest{})
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return errDeletionRequestGone
		}

		if err := d.users.PurgeAccountTx(tx, request.UserID); err != nil {
			return err
		}

		return d.privacyLog.RecordTx(tx, models.NewPrivacyLog(request.UserID, "Cuenta eliminada", "", models.PrivacyLogMetadata{
			Executed: &models.DeletionExecutedMetadata{
				RequestID:     request.ID,
				ExecutionDate: *request.ExecutionDate,
				Documents:     len(keys),
			},
		}))
	})
	if err != nil {
		if errors.Is(err, errDeletionRequestGone) {
			return d.failExecution(ctx, request, core.NewPrivacyError(core.ErrKeyDeletionRequestNotFound, err))
		}
		return d.failExecution(ctx, request, err)
	}

	d.logger.Info("account deleted",
		zap.String("request", request.ID),
		zap.Uint("user", request.UserID),
		zap.Int("documents", len(keys)),
	)

	d.fire(event.FireDeletionExecutedEvent, user, request)

	return nil
}

// failExecution records the failed attempt and returns the error to report.
// The audit write uses a context that outlives the caller.
func (d *DeletionServiceDefault) failExecution(ctx context.Context, request models.DeletionRequest, cause error) error {
	d.logger.Error("account deletion failed",
		zap.String("request", request.ID),
		zap.Uint("user", request.UserID),
		zap.Error(cause),
	)

	err := d.privacyLog.Record(context.WithoutCancel(ctx), models.NewPrivacyLog(request.UserID, "Falló la eliminación de la cuenta", "", models.PrivacyLogMetadata{
		Failed: &models.DeletionFailedMetadata{
			RequestID: request.ID,
			Error:     cause.Error(),
		},
	}))
	if err != nil {
		d.logger.Error("failed to record deletion failure", zap.String("request", request.ID), zap.Error(err))
	}

	return asPrivacyError(core.ErrKeyDeletionExecuteFailed, cause)
}

func (d *DeletionServiceDefault) lookupUser(ctx context.Context, userID uint) *models.User {
	_, user, err := d.users.AccountExists(ctx, userID)
	if err != nil {
		d.logger.Warn("user lookup for event failed", zap.Uint("user", userID), zap.Error(err))
	}

	return user
}

// fire publishes after commit. Listener errors never undo the state change.
func (d *DeletionServiceDefault) fire(fn deletionEventFunc, user *models.User, request models.DeletionRequest) {
	if err := fn(d.events, user, request); err != nil {
		d.logger.Error("deletion event listener failed", zap.String("request", request.ID), zap.Error(err))
	}
}

func newDeletionToken() (string, error) {
	buf := make([]byte, core.DeletionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(buf), nil
}

// asPrivacyError keeps an existing PrivacyError and wraps anything else under key.
func asPrivacyError(key core.PrivacyErrorType, err error) error {
	if core.IsPrivacyError(err) {
		return err
	}

	return core.NewPrivacyError(key, err)
}
