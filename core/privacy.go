package core

import (
	"context"

	"go.ule.co/platform/db/models"
	"gorm.io/gorm"
)

type PrivacyLogFilter struct {
	UserID uint
	Action models.PrivacyAction
	Limit  int
}

type PrivacyLogService interface {
	Record(ctx context.Context, entry *models.PrivacyLog) error
	// RecordTx writes entry as part of a caller owned transaction.
	RecordTx(tx *gorm.DB, entry *models.PrivacyLog) error
	List(ctx context.Context, filter PrivacyLogFilter) ([]models.PrivacyLog, error)
}
