package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.ule.co/platform/core"
	"go.ule.co/platform/db"
	"go.ule.co/platform/db/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ core.Locker = (*DatabaseLocker)(nil)

var errLockTTLInvalid = errors.New("lock ttl must be positive")

// MySQL has no conditional ON CONFLICT, so every column is guarded with IF.
// expires_at is assigned last because later assignments see earlier ones.
const mysqlAcquireLockSQL = `INSERT INTO distributed_locks (name, holder, acquired_at, expires_at) VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
	holder = IF(expires_at < ?, VALUES(holder), holder),
	acquired_at = IF(expires_at < ?, VALUES(acquired_at), acquired_at),
	expires_at = IF(expires_at < ?, VALUES(expires_at), expires_at)`

type DatabaseLockerParams struct {
	fx.In
	Db     *gorm.DB
	Clock  clockwork.Clock
	Logger *core.Logger
}

// DatabaseLocker keeps locks as rows of distributed_locks. Acquisition is a
// single conditional upsert so two instances can never both observe a free
// lock and both take it.
type DatabaseLocker struct {
	db     *gorm.DB
	clock  clockwork.Clock
	logger *core.Logger

	// holders maps lock name to the token of the run in this process that
	// holds it. A name stays reserved until Release, expired or not.
	holders sync.Map
}

func NewDatabaseLocker(params DatabaseLockerParams) *DatabaseLocker {
	return &DatabaseLocker{
		db:     params.Db,
		clock:  params.Clock,
		logger: params.Logger,
	}
}

func (l *DatabaseLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, errLockTTLInvalid
	}

	holder := uuid.NewString()

	// A run of this process still holds name, even if its row has expired.
	if _, busy := l.holders.LoadOrStore(name, holder); busy {
		return false, nil
	}

	now := l.clock.Now().UTC()
	lock := models.DistributedLock{
		Name:       name,
		Holder:     holder,
		AcquiredAt: now,
		ExpiresAt:  now.Add(ttl),
	}

	var result *gorm.DB

	switch l.db.Dialector.Name() {
	case "mysql":
		result = l.db.WithContext(ctx).Exec(mysqlAcquireLockSQL, lock.Name, lock.Holder, lock.AcquiredAt, lock.ExpiresAt, now, now, now)
	default:
		result = l.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"holder", "acquired_at", "expires_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Lt{Column: clause.Column{Table: lock.TableName(), Name: "expires_at"}, Value: now},
			}},
		}).Create(&lock)
	}

	if result.Error != nil {
		l.holders.CompareAndDelete(name, holder)
		l.logger.Error("lock store unavailable", zap.String("lock", name), zap.Error(result.Error))
		return false, core.NewPrivacyError(core.ErrKeyLockUnavailable, result.Error)
	}

	if result.RowsAffected == 0 {
		l.holders.CompareAndDelete(name, holder)
		return false, nil
	}

	return true, nil
}

func (l *DatabaseLocker) Release(ctx context.Context, name string) error {
	holder, ok := l.holders.LoadAndDelete(name)
	if !ok {
		return nil
	}

	var deleted int64

	err := db.RetryOnLock(l.db.WithContext(ctx), func(tx *gorm.DB) *gorm.DB {
		result := tx.Where("name = ? AND holder = ?", name, holder).Delete(&models.DistributedLock{})
		deleted = result.RowsAffected
		return result
	})
	if err != nil {
		return core.NewPrivacyError(core.ErrKeyLockUnavailable, err)
	}

	if deleted == 0 {
		l.logger.Warn("lock expired before release", zap.String("lock", name))
	}

	return nil
}
