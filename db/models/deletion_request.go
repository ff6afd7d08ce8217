package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeletionRequestState string

const (
	DeletionStatePending     DeletionRequestState = "PENDIENTE"
	DeletionStateGracePeriod DeletionRequestState = "EN_PERIODO_GRACIA"

	// Terminal states are never stored: completion and cancellation remove the row.
	DeletionStateCompleted DeletionRequestState = "COMPLETADA"
	DeletionStateCancelled DeletionRequestState = "CANCELADA"
)

func init() {
	registerModel(&DeletionRequest{})
}

// DeletionRequest is the single active account deletion flow of a user.
type DeletionRequest struct {
	ID            string               `gorm:"primaryKey;size:36"`
	UserID        uint                 `gorm:"uniqueIndex;not null"`
	State         DeletionRequestState `gorm:"size:32;index;not null"`
	Token         string               `gorm:"size:64;uniqueIndex;not null"`
	Reason        *string              `gorm:"size:500"`
	SourceIP      string               `gorm:"size:64"`
	RequestedAt   time.Time            `gorm:"not null"`
	ConfirmedAt   *time.Time
	ExecutionDate *time.Time `gorm:"index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r *DeletionRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	return nil
}

func (r *DeletionRequest) InGracePeriod() bool {
	return r.State == DeletionStateGracePeriod
}

// Due reports whether the grace period is over at now.
func (r *DeletionRequest) Due(now time.Time) bool {
	return r.InGracePeriod() && r.ExecutionDate != nil && !r.ExecutionDate.After(now)
}
