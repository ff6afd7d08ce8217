package core

import (
	"errors"
	"fmt"
	"net/http"
)

type PrivacyErrorType string

const (
	// Deletion workflow errors
	ErrKeyDeletionRequestNotFound PrivacyErrorType = "ErrDeletionRequestNotFound"
	ErrKeyDeletionRequestFailed   PrivacyErrorType = "ErrDeletionRequestFailed"
	ErrKeyDeletionNotDue          PrivacyErrorType = "ErrDeletionNotDue"
	ErrKeyDeletionExecuteFailed   PrivacyErrorType = "ErrDeletionExecuteFailed"
	ErrKeyTokenGenerationFailed   PrivacyErrorType = "ErrTokenGenerationFailed"

	// Account errors
	ErrKeyUserNotFound PrivacyErrorType = "ErrUserNotFound"

	// Request errors
	ErrKeyInvalidRequest PrivacyErrorType = "ErrInvalidRequest"
	ErrKeyUnauthorized   PrivacyErrorType = "ErrUnauthorized"

	// Job errors
	ErrKeyLockUnavailable    PrivacyErrorType = "ErrLockUnavailable"
	ErrKeyObjectPurgeFailed  PrivacyErrorType = "ErrObjectPurgeFailed"
	ErrKeyPrivacyLogFailed   PrivacyErrorType = "ErrPrivacyLogFailed"
	ErrKeyCronRunNotRecorded PrivacyErrorType = "ErrCronRunNotRecorded"

	// General errors
	ErrKeyDatabaseOperationFailed PrivacyErrorType = "ErrDatabaseOperationFailed"
)

var defaultErrorMessages = map[PrivacyErrorType]string{
	ErrKeyDeletionRequestNotFound: "La solicitud de eliminación no existe o el token no es válido.",
	ErrKeyDeletionRequestFailed:   "No fue posible registrar la solicitud de eliminación.",
	ErrKeyDeletionNotDue:          "La solicitud de eliminación aún no puede ejecutarse.",
	ErrKeyDeletionExecuteFailed:   "No fue posible eliminar la cuenta.",
	ErrKeyTokenGenerationFailed:   "No fue posible generar el token de confirmación.",

	ErrKeyUserNotFound: "El usuario no existe.",

	ErrKeyInvalidRequest: "La solicitud no es válida.",
	ErrKeyUnauthorized:   "No autorizado.",

	ErrKeyLockUnavailable:    "No fue posible adquirir el bloqueo del proceso.",
	ErrKeyObjectPurgeFailed:  "No fue posible eliminar los documentos almacenados.",
	ErrKeyPrivacyLogFailed:   "No fue posible registrar el evento de privacidad.",
	ErrKeyCronRunNotRecorded: "No fue posible registrar la ejecución del proceso.",

	ErrKeyDatabaseOperationFailed: "Ocurrió un error interno.",
}

var (
	ErrorCodeToHttpStatus = map[PrivacyErrorType]int{
		ErrKeyDeletionRequestNotFound: http.StatusBadRequest,
		ErrKeyDeletionRequestFailed:   http.StatusInternalServerError,
		ErrKeyDeletionNotDue:          http.StatusConflict,
		ErrKeyDeletionExecuteFailed:   http.StatusInternalServerError,
		ErrKeyTokenGenerationFailed:   http.StatusInternalServerError,

		ErrKeyUserNotFound: http.StatusNotFound,

		ErrKeyInvalidRequest: http.StatusBadRequest,
		ErrKeyUnauthorized:   http.StatusUnauthorized,

		ErrKeyLockUnavailable:    http.StatusInternalServerError,
		ErrKeyObjectPurgeFailed:  http.StatusInternalServerError,
		ErrKeyPrivacyLogFailed:   http.StatusInternalServerError,
		ErrKeyCronRunNotRecorded: http.StatusInternalServerError,

		ErrKeyDatabaseOperationFailed: http.StatusInternalServerError,
	}
)

type PrivacyError struct {
	Key     PrivacyErrorType // A unique identifier for the error type
	Message string           // Human-readable error message
	Err     error            // Underlying error, if any
}

func (e *PrivacyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PrivacyError) Unwrap() error {
	return e.Err
}

func (e *PrivacyError) IsErrorType(key PrivacyErrorType) bool {
	return e.Key == key
}

func (e *PrivacyError) HttpStatus() int {
	if status, exists := ErrorCodeToHttpStatus[e.Key]; exists {
		return status
	}
	return http.StatusInternalServerError
}

func NewPrivacyError(key PrivacyErrorType, err error, customMessage ...string) *PrivacyError {
	message, exists := defaultErrorMessages[key]
	if !exists {
		message = "Ocurrió un error desconocido."
	}
	if len(customMessage) > 0 {
		message = customMessage[0]
	}
	return &PrivacyError{
		Key:     key,
		Message: message,
		Err:     err,
	}
}

func IsPrivacyError(err error) bool {
	return AsPrivacyError(err) != nil
}

// AsPrivacyError unwraps err until a PrivacyError is found.
func AsPrivacyError(err error) *PrivacyError {
	if err == nil {
		return nil
	}

	var perr *PrivacyError
	if errors.As(err, &perr) {
		return perr
	}

	return nil
}

func IsPrivacyErrorType(err error, key PrivacyErrorType) bool {
	perr := AsPrivacyError(err)
	return perr != nil && perr.IsErrorType(key)
}
