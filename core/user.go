package core

import (
	"context"

	"go.ule.co/platform/db/models"
	"gorm.io/gorm"
)

type UserService interface {
	AccountExists(ctx context.Context, id uint) (bool, *models.User, error)
	DocumentKeys(ctx context.Context, userID uint) ([]string, error)
	// PurgeAccountTx hard deletes the user and every record it owns inside tx.
	PurgeAccountTx(tx *gorm.DB, userID uint) error
}
