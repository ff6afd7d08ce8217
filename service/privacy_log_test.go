package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.ule.co/platform/core"
	"go.ule.co/platform/db/models"
	"gorm.io/gorm"
)

func TestPrivacyLogList(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	record := func(userID uint, metadata models.PrivacyLogMetadata) {
		require.NoError(t, env.privacyLog.Record(ctx, models.NewPrivacyLog(userID, "", "", metadata)))
		env.clock.Advance(time.Minute)
	}

	record(1, models.PrivacyLogMetadata{Requested: &models.DeletionRequestedMetadata{RequestID: "a"}})
	record(2, models.PrivacyLogMetadata{Requested: &models.DeletionRequestedMetadata{RequestID: "b"}})
	record(1, models.PrivacyLogMetadata{Cancelled: &models.DeletionCancelledMetadata{RequestID: "a", PreviousState: models.DeletionStatePending}})

	t.Run("newest first", func(t *testing.T) {
		entries, err := env.privacyLog.List(ctx, core.PrivacyLogFilter{})
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, models.PrivacyActionDeletionCancelled, entries[0].Action)
		assert.True(t, entries[0].CreatedAt.After(entries[2].CreatedAt))
	})

	t.Run("by user", func(t *testing.T) {
		entries, err := env.privacyLog.List(ctx, core.PrivacyLogFilter{UserID: 1})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("by action", func(t *testing.T) {
		entries, err := env.privacyLog.List(ctx, core.PrivacyLogFilter{Action: models.PrivacyActionDeletionRequested})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("limit", func(t *testing.T) {
		entries, err := env.privacyLog.List(ctx, core.PrivacyLogFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestPrivacyLogRejectsMismatchedMetadata(t *testing.T) {
	env := newTestEnv(t)

	entry := models.NewPrivacyLog(1, "", "", models.PrivacyLogMetadata{Requested: &models.DeletionRequestedMetadata{RequestID: "a"}})
	entry.Action = models.PrivacyActionDeletionExecuted

	err := env.privacyLog.Record(context.Background(), entry)
	assert.True(t, core.IsPrivacyErrorType(err, core.ErrKeyPrivacyLogFailed))
	assert.ErrorIs(t, err, models.ErrPrivacyLogMetadataInvalid)
}

func TestPrivacyLogRecordRetriesWhileLocked(t *testing.T) {
	env := newTestEnv(t)

	attempts := 0
	require.NoError(t, env.db.Callback().Create().Before("gorm:create").Register("test:locked_once", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*models.PrivacyLog); !ok {
			return
		}

		attempts++
		if attempts == 1 {
			_ = tx.AddError(errors.New("database is locked"))
		}
	}))

	entry := models.NewPrivacyLog(1, "", "", models.PrivacyLogMetadata{Requested: &models.DeletionRequestedMetadata{RequestID: "a"}})
	require.NoError(t, env.privacyLog.Record(context.Background(), entry))

	assert.Equal(t, 2, attempts)

	entries, err := env.privacyLog.List(context.Background(), core.PrivacyLogFilter{UserID: 1})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
