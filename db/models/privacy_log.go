package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PrivacyAction string

const (
	PrivacyActionDeletionRequested PrivacyAction = "SOLICITUD_ELIMINACION"
	PrivacyActionDeletionConfirmed PrivacyAction = "ELIMINACION_CONFIRMADA"
	PrivacyActionDeletionCancelled PrivacyAction = "ELIMINACION_CANCELADA"
	PrivacyActionDeletionStarted   PrivacyAction = "ELIMINACION_EN_CURSO"
	PrivacyActionDeletionExecuted  PrivacyAction = "ELIMINACION_EJECUTADA"
	PrivacyActionDeletionFailed    PrivacyAction = "ELIMINACION_FALLIDA"
)

var (
	ErrPrivacyLogImmutable       = errors.New("privacy log entries are append-only")
	ErrPrivacyLogMetadataInvalid = errors.New("privacy log metadata does not match action")
)

func init() {
	registerModel(&PrivacyLog{})
}

// PrivacyLog is the audit trail of privacy relevant actions. UserID carries no
// foreign key so entries outlive the account they describe.
type PrivacyLog struct {
	ID          uint          `gorm:"primarykey"`
	UserID      uint          `gorm:"index;not null"`
	Action      PrivacyAction `gorm:"size:64;index;not null"`
	Description string        `gorm:"size:500"`
	Metadata    datatypes.JSONType[PrivacyLogMetadata]
	SourceIP    string    `gorm:"size:64"`
	CreatedAt   time.Time `gorm:"index"`
}

// PrivacyLogMetadata holds exactly one payload, the one matching the entry action.
type PrivacyLogMetadata struct {
	Requested *DeletionRequestedMetadata `json:"solicitud,omitempty"`
	Confirmed *DeletionConfirmedMetadata `json:"confirmacion,omitempty"`
	Cancelled *DeletionCancelledMetadata `json:"cancelacion,omitempty"`
	Started   *DeletionStartedMetadata   `json:"inicio,omitempty"`
	Executed  *DeletionExecutedMetadata  `json:"ejecucion,omitempty"`
	Failed    *DeletionFailedMetadata    `json:"fallo,omitempty"`
}

type DeletionRequestedMetadata struct {
	RequestID string  `json:"solicitudId"`
	Reason    *string `json:"motivo,omitempty"`
}

type DeletionConfirmedMetadata struct {
	RequestID     string    `json:"solicitudId"`
	ConfirmedAt   time.Time `json:"fechaConfirmacion"`
	ExecutionDate time.Time `json:"fechaEjecucion"`
}

type DeletionCancelledMetadata struct {
	RequestID     string               `json:"solicitudId"`
	PreviousState DeletionRequestState `json:"estadoAnterior"`
}

// DeletionStartedMetadata marks one execution attempt. It is written before
// any data is removed; only a later executed entry proves completion.
type DeletionStartedMetadata struct {
	RequestID     string    `json:"solicitudId"`
	ExecutionDate time.Time `json:"fechaEjecucion"`
	Documents     int       `json:"documentos"`
}

type DeletionExecutedMetadata struct {
	RequestID     string    `json:"solicitudId"`
	ExecutionDate time.Time `json:"fechaEjecucion"`
	Documents     int       `json:"documentos"`
}

type DeletionFailedMetadata struct {
	RequestID string `json:"solicitudId"`
	Error     string `json:"error"`
}

func (m PrivacyLogMetadata) action() (PrivacyAction, int) {
	var action PrivacyAction
	set := 0

	if m.Requested != nil {
		action, set = PrivacyActionDeletionRequested, set+1
	}
	if m.Confirmed != nil {
		action, set = PrivacyActionDeletionConfirmed, set+1
	}
	if m.Cancelled != nil {
		action, set = PrivacyActionDeletionCancelled, set+1
	}
	if m.Started != nil {
		action, set = PrivacyActionDeletionStarted, set+1
	}
	if m.Executed != nil {
		action, set = PrivacyActionDeletionExecuted, set+1
	}
	if m.Failed != nil {
		action, set = PrivacyActionDeletionFailed, set+1
	}

	return action, set
}

// Validate checks the tagged union against the entry action.
func (l *PrivacyLog) Validate() error {
	action, set := l.Metadata.Data().action()
	if set != 1 || action != l.Action {
		return fmt.Errorf("%w: %s", ErrPrivacyLogMetadataInvalid, l.Action)
	}

	return nil
}

func (l *PrivacyLog) BeforeCreate(tx *gorm.DB) error {
	return l.Validate()
}

func (l *PrivacyLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrPrivacyLogImmutable
}

func (l *PrivacyLog) BeforeDelete(tx *gorm.DB) error {
	return ErrPrivacyLogImmutable
}

func NewPrivacyLog(userID uint, description string, sourceIP string, metadata PrivacyLogMetadata) *PrivacyLog {
	action, _ := metadata.action()

	return &PrivacyLog{
		UserID:      userID,
		Action:      action,
		Description: description,
		Metadata:    datatypes.NewJSONType(metadata),
		SourceIP:    sourceIP,
	}
}
