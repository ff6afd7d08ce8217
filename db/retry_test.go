package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func fastRetries(t *testing.T) {
	t.Helper()

	initial, attempts := retryInitialBackoff, retryMaxAttempts
	retryInitialBackoff = time.Millisecond
	retryMaxAttempts = 4

	t.Cleanup(func() {
		retryInitialBackoff, retryMaxAttempts = initial, attempts
	})
}

func TestIsLockError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("database is locked"), true},
		{errors.New("Error 1213: Deadlock found when trying to get lock"), true},
		{errors.New("Error 1205: Lock wait timeout exceeded"), true},
		{errors.New("pq: too many connections for role"), true},
		{errors.New("record not found"), false},
		{errors.New("UNIQUE constraint failed: users.email"), false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, isLockError(tt.err))
		})
	}
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.False(t, IsDuplicateKeyError(nil))
	assert.True(t, IsDuplicateKeyError(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.True(t, IsDuplicateKeyError(errors.New("UNIQUE constraint failed: deletion_requests.user_id")))
	assert.True(t, IsDuplicateKeyError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_deletion_requests_user_id"`)))
	assert.False(t, IsDuplicateKeyError(&mysql.MySQLError{Number: 1213}))
	assert.False(t, IsDuplicateKeyError(errors.New("connection refused")))
}

func TestRetryOnLockRetriesUntilSuccess(t *testing.T) {
	fastRetries(t)

	calls := 0
	err := RetryOnLock(&gorm.DB{Statement: &gorm.Statement{Context: context.Background()}}, func(db *gorm.DB) *gorm.DB {
		calls++
		if calls < 3 {
			return &gorm.DB{Error: errors.New("database is locked")}
		}
		return &gorm.DB{}
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryOnLockStopsOnOtherErrors(t *testing.T) {
	fastRetries(t)

	calls := 0
	boom := errors.New("syntax error")
	err := RetryOnLock(&gorm.DB{Statement: &gorm.Statement{Context: context.Background()}}, func(db *gorm.DB) *gorm.DB {
		calls++
		return &gorm.DB{Error: boom}
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryOnLockGivesUp(t *testing.T) {
	fastRetries(t)

	calls := 0
	err := RetryOnLock(&gorm.DB{Statement: &gorm.Statement{Context: context.Background()}}, func(db *gorm.DB) *gorm.DB {
		calls++
		return &gorm.DB{Error: errors.New("database is locked")}
	})

	require.Error(t, err)
	assert.Equal(t, retryMaxAttempts, calls)
}

func TestRetryHonoursContext(t *testing.T) {
	fastRetries(t)
	retryInitialBackoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry(ctx, func() error {
		return errors.New("deadlock detected")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
