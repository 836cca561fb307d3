// Package dto provides data transfer objects for HTTP requests/responses
package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/workhive/workhive-server/internal/infrastructure/observability"
	"github.com/workhive/workhive-server/internal/utils/platformerrors"
)

// Response is a generic API response wrapper
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo holds error information
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// ListData wraps a collection payload with its total count
type ListData struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
}

// RespondData writes a success envelope
func RespondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

// RespondError maps the error classification to an HTTP status and writes an
// error envelope. Unclassified errors become 500s with a generic message so
// internals never leak.
func RespondError(c *gin.Context, err error) {
	errType := platformerrors.TypeOf(err)
	status := statusFor(errType)

	message := "internal server error"
	if status < http.StatusInternalServerError {
		message = err.Error()
	}

	observability.RecordError(c.Request.Context(), err)

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    string(errType),
			Message: message,
			TraceID: observability.GetTraceID(c.Request.Context()),
		},
	})
}

func statusFor(errType platformerrors.ErrorType) int {
	switch errType {
	case platformerrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case platformerrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case platformerrors.ErrorTypeConflict:
		return http.StatusConflict
	case platformerrors.ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	case platformerrors.ErrorTypeNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
