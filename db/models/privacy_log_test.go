package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.ule.co/platform/db/dbtest"
	"go.ule.co/platform/db/models"
	"gorm.io/datatypes"
)

func TestPrivacyLogActionFollowsMetadata(t *testing.T) {
	entry := models.NewPrivacyLog(7, "confirmada", "10.0.0.1", models.PrivacyLogMetadata{
		Confirmed: &models.DeletionConfirmedMetadata{RequestID: "req-1"},
	})

	assert.Equal(t, models.PrivacyActionDeletionConfirmed, entry.Action)
	assert.NoError(t, entry.Validate())

	started := models.NewPrivacyLog(7, "inicio", "", models.PrivacyLogMetadata{
		Started: &models.DeletionStartedMetadata{RequestID: "req-1", Documents: 2},
	})

	assert.Equal(t, models.PrivacyActionDeletionStarted, started.Action)
	assert.NoError(t, started.Validate())
}

func TestPrivacyLogRejectsMismatchedMetadata(t *testing.T) {
	tests := []struct {
		name     string
		action   models.PrivacyAction
		metadata models.PrivacyLogMetadata
	}{
		{
			name:   "empty",
			action: models.PrivacyActionDeletionRequested,
		},
		{
			name:     "wrong kind",
			action:   models.PrivacyActionDeletionExecuted,
			metadata: models.PrivacyLogMetadata{Cancelled: &models.DeletionCancelledMetadata{RequestID: "r"}},
		},
		{
			name:     "attempt recorded as executed",
			action:   models.PrivacyActionDeletionExecuted,
			metadata: models.PrivacyLogMetadata{Started: &models.DeletionStartedMetadata{RequestID: "r"}},
		},
		{
			name:   "two kinds",
			action: models.PrivacyActionDeletionFailed,
			metadata: models.PrivacyLogMetadata{
				Failed:   &models.DeletionFailedMetadata{RequestID: "r"},
				Executed: &models.DeletionExecutedMetadata{RequestID: "r"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &models.PrivacyLog{UserID: 1, Action: tt.action, Metadata: datatypes.NewJSONType(tt.metadata)}
			assert.ErrorIs(t, entry.Validate(), models.ErrPrivacyLogMetadataInvalid)
		})
	}
}

func TestPrivacyLogIsAppendOnly(t *testing.T) {
	db := dbtest.Open(t)

	executionDate := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	entry := models.NewPrivacyLog(42, "ejecutada", "", models.PrivacyLogMetadata{
		Executed: &models.DeletionExecutedMetadata{RequestID: "req-42", ExecutionDate: executionDate, Documents: 3},
	})
	require.NoError(t, db.Create(entry).Error)

	var stored models.PrivacyLog
	require.NoError(t, db.First(&stored, entry.ID).Error)
	require.NotNil(t, stored.Metadata.Data().Executed)
	assert.Equal(t, 3, stored.Metadata.Data().Executed.Documents)
	assert.True(t, executionDate.Equal(stored.Metadata.Data().Executed.ExecutionDate))

	err := db.Model(&stored).Update("description", "changed").Error
	assert.ErrorIs(t, err, models.ErrPrivacyLogImmutable)

	err = db.Delete(&stored).Error
	assert.ErrorIs(t, err, models.ErrPrivacyLogImmutable)

	var count int64
	require.NoError(t, db.Model(&models.PrivacyLog{}).Where("user_id = ?", 42).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPrivacyLogCreateValidates(t *testing.T) {
	db := dbtest.Open(t)

	entry := &models.PrivacyLog{UserID: 1, Action: models.PrivacyActionDeletionCancelled}
	assert.ErrorIs(t, db.Create(entry).Error, models.ErrPrivacyLogMetadataInvalid)
}
