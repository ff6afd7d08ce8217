package privacy

import (
	"time"

	"go.ule.co/platform/db/models"
)

type DeletionRequestRequest struct {
	Reason *string `json:"motivoEliminacion" validate:"omitempty,max=500"`
}

type ConfirmDeletionRequest struct {
	Token string `json:"token" validate:"required,len=64,hexadecimal"`
}

type DeletionRequestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

type ConfirmDeletionResponse struct {
	Success       bool      `json:"success"`
	Message       string    `json:"message"`
	ExecutionDate time.Time `json:"fechaEjecucion"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DeletionRequestInfo is the client view of a request. The confirmation
// token is never echoed back here.
type DeletionRequestInfo struct {
	ID            string                      `json:"id"`
	State         models.DeletionRequestState `json:"estado"`
	Reason        *string                     `json:"motivoEliminacion,omitempty"`
	RequestedAt   time.Time                   `json:"fechaSolicitud"`
	ConfirmedAt   *time.Time                  `json:"fechaConfirmacion,omitempty"`
	ExecutionDate *time.Time                  `json:"fechaEjecucion,omitempty"`
}

type DeletionStatusResponse struct {
	Request   *DeletionRequestInfo `json:"solicitud"`
	HasActive bool                 `json:"tieneSolicitudActiva"`
}

func newDeletionRequestInfo(request *models.DeletionRequest) *DeletionRequestInfo {
	if request == nil {
		return nil
	}

	return &DeletionRequestInfo{
		ID:            request.ID,
		State:         request.State,
		Reason:        request.Reason,
		RequestedAt:   request.RequestedAt,
		ConfirmedAt:   request.ConfirmedAt,
		ExecutionDate: request.ExecutionDate,
	}
}
