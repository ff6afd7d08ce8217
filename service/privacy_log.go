package service

import (
	"context"

	"github.com/jonboulle/clockwork"
	"go.ule.co/platform/core"
	"go.ule.co/platform/db"
	"go.ule.co/platform/db/models"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var _ core.PrivacyLogService = (*PrivacyLogServiceDefault)(nil)

const (
	privacyLogDefaultLimit = 100
	privacyLogMaxLimit     = 500
)

type PrivacyLogServiceParams struct {
	fx.In
	Db    *gorm.DB
	Clock clockwork.Clock
}

type PrivacyLogServiceDefault struct {
	db    *gorm.DB
	clock clockwork.Clock
}

func NewPrivacyLogService(params PrivacyLogServiceParams) *PrivacyLogServiceDefault {
	return &PrivacyLogServiceDefault{
		db:    params.Db,
		clock: params.Clock,
	}
}

// Record writes entry on its own, retrying while the table is locked.
func (p *PrivacyLogServiceDefault) Record(ctx context.Context, entry *models.PrivacyLog) error {
	p.stamp(entry)

	err := db.RetryOnLock(p.db.WithContext(ctx), func(tx *gorm.DB) *gorm.DB {
		return tx.Create(entry)
	})
	if err != nil {
		return core.NewPrivacyError(core.ErrKeyPrivacyLogFailed, err)
	}

	return nil
}

func (p *PrivacyLogServiceDefault) RecordTx(tx *gorm.DB, entry *models.PrivacyLog) error {
	p.stamp(entry)

	if err := tx.Create(entry).Error; err != nil {
		return core.NewPrivacyError(core.ErrKeyPrivacyLogFailed, err)
	}

	return nil
}

func (p *PrivacyLogServiceDefault) stamp(entry *models.PrivacyLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = p.clock.Now().UTC()
	}
}

func (p *PrivacyLogServiceDefault) List(ctx context.Context, filter core.PrivacyLogFilter) ([]models.PrivacyLog, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = privacyLogDefaultLimit
	}
	if limit > privacyLogMaxLimit {
		limit = privacyLogMaxLimit
	}

	query := p.db.WithContext(ctx).Model(&models.PrivacyLog{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}

	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	var entries []models.PrivacyLog
	if err := query.Order("created_at desc").Order("id desc").Limit(limit).Find(&entries).Error; err != nil {
		return nil, core.NewPrivacyError(core.ErrKeyDatabaseOperationFailed, err)
	}

	return entries, nil
}
