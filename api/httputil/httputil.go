// Package httputil holds the request helpers shared by every API: JSON
// encoding, validated decoding and mapping of PrivacyError to responses.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"

	"go.ule.co/platform/core"
	"go.uber.org/zap"
)

type RequestContext struct {
	Request        *http.Request
	ResponseWriter http.ResponseWriter
}

type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   string       `json:"error"`
	Errors  []FieldError `json:"errores,omitempty"`
}

func Context(r *http.Request, w http.ResponseWriter) RequestContext {
	return RequestContext{
		Request:        r,
		ResponseWriter: w,
	}
}

// Encode writes v as a 200 JSON response.
func (c RequestContext) Encode(v any) {
	c.EncodeStatus(http.StatusOK, v)
}

func (c RequestContext) EncodeStatus(status int, v any) {
	c.ResponseWriter.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.ResponseWriter.WriteHeader(status)
	_ = json.NewEncoder(c.ResponseWriter).Encode(v)
}

// Error writes err's message with status.
func (c RequestContext) Error(err error, status int) {
	c.EncodeStatus(status, ErrorResponse{Error: err.Error()})
}

// Decode reads and validates the JSON body into v. An empty body decodes as
// an empty object. On failure the 400 response is already written.
func (c RequestContext) Decode(v any) error {
	if c.Request.Body != nil {
		err := json.NewDecoder(c.Request.Body).Decode(v)
		if err != nil && !errors.Is(err, io.EOF) {
			c.EncodeStatus(http.StatusBadRequest, ErrorResponse{
				Error: core.NewPrivacyError(core.ErrKeyInvalidRequest, err).Message,
			})
			return err
		}
	}

	if fields := Validate(v); len(fields) > 0 {
		c.EncodeStatus(http.StatusBadRequest, ErrorResponse{
			Error:  core.NewPrivacyError(core.ErrKeyInvalidRequest, nil).Message,
			Errors: fields,
		})
		return errValidationFailed
	}

	return nil
}

// PrivacyError answers with the status and message of a PrivacyError. Any
// other error becomes a generic 500 and is logged.
func (c RequestContext) PrivacyError(err error, logger *zap.Logger) {
	status := http.StatusInternalServerError
	message := core.NewPrivacyError(core.ErrKeyDatabaseOperationFailed, nil).Message

	if perr := core.AsPrivacyError(err); perr != nil {
		status = perr.HttpStatus()
		message = perr.Message
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}

	c.EncodeStatus(status, ErrorResponse{Error: message})
}

// ClientIP is the remote host of the request. Proxy headers are resolved
// before this point by the router's proxy middleware.
func (c RequestContext) ClientIP() string {
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}

	return host
}
