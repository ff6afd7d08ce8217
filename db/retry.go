package db

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const mysqlErrDuplicateEntry = 1062

var (
	retryInitialBackoff = 100 * time.Millisecond
	retryMaxBackoff     = 10 * time.Second
	retryMaxAttempts    = 8
)

// RetryOnLock reruns operation while the database reports lock contention.
func RetryOnLock(db *gorm.DB, operation func(*gorm.DB) *gorm.DB) error {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	return retry(ctx, func() error {
		return operation(db).Error
	})
}

// RetryableTransaction runs operation in a transaction, restarting the whole
// transaction when it fails on lock contention.
func RetryableTransaction(ctx context.Context, db *gorm.DB, operation func(tx *gorm.DB) error) error {
	return retry(ctx, func() error {
		return db.WithContext(ctx).Transaction(operation)
	})
}

func retry(ctx context.Context, fn func() error) error {
	attempt := 0

	for {
		err := fn()
		if err == nil {
			return nil
		}

		if !isLockError(err) || attempt+1 >= retryMaxAttempts {
			return err
		}

		backoff := float64(retryInitialBackoff) * math.Pow(2, float64(attempt))
		jitter := rand.Float64() * float64(retryInitialBackoff)
		sleepDuration := time.Duration(math.Min(backoff+jitter, float64(retryMaxBackoff)))

		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(sleepDuration):
		}

		attempt++
	}
}

// isLockError checks if the given error is a database lock error
func isLockError(err error) bool {
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "deadlock") ||
		strings.Contains(errMsg, "lock wait timeout") ||
		strings.Contains(errMsg, "database is locked") ||
		strings.Contains(errMsg, "database table is locked") ||
		strings.Contains(errMsg, "too many connections")
}

// IsDuplicateKeyError reports a unique constraint violation on any supported driver.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "unique constraint failed") ||
		strings.Contains(errMsg, "duplicate key value") ||
		strings.Contains(errMsg, "duplicate entry")
}
