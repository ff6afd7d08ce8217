package service

import (
	"context"
	"errors"

	"go.ule.co/platform/core"
	"go.ule.co/platform/db/models"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var _ core.UserService = (*UserServiceDefault)(nil)

// ownedModels lists every table keyed by user_id that an account purge empties.
var ownedModels = []any{
	&models.Document{},
	&models.CalendarReminder{},
	&models.PilaContribution{},
	&models.ElectronicInvoice{},
	&models.AdvisoryMessage{},
}

type UserServiceParams struct {
	fx.In
	Db *gorm.DB
}

type UserServiceDefault struct {
	db *gorm.DB
}

func NewUserService(params UserServiceParams) *UserServiceDefault {
	return &UserServiceDefault{
		db: params.Db,
	}
}

func (u UserServiceDefault) AccountExists(ctx context.Context, id uint) (bool, *models.User, error) {
	var user models.User

	err := u.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil, nil
		}
		return false, nil, core.NewPrivacyError(core.ErrKeyDatabaseOperationFailed, err)
	}

	return true, &user, nil
}

func (u UserServiceDefault) DocumentKeys(ctx context.Context, userID uint) ([]string, error) {
	var keys []string

	err := u.db.WithContext(ctx).Model(&models.Document{}).
		Unscoped().
		Where("user_id = ?", userID).
		Pluck("storage_key", &keys).Error
	if err != nil {
		return nil, core.NewPrivacyError(core.ErrKeyDatabaseOperationFailed, err)
	}

	return keys, nil
}

// PurgeAccountTx removes owned rows and the user, soft deleted rows included.
// A user that is already gone is not an error.
func (u UserServiceDefault) PurgeAccountTx(tx *gorm.DB, userID uint) error {
	for _, model := range ownedModels {
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(model).Error; err != nil {
			return err
		}
	}

	return tx.Unscoped().Delete(&models.User{}, userID).Error
}
