// Package platformerrors carries error classification across layers so the
// transport layer can map failures to responses without string matching.
package platformerrors

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type Layer string

const (
	LayerDomain     Layer = "domain"
	LayerRepository Layer = "repository"
	LayerTransport  Layer = "transport"
	LayerInfra      Layer = "infrastructure"
)

type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeConflict       ErrorType = "conflict"
	ErrorTypeUnavailable    ErrorType = "unavailable"
	ErrorTypeInternal       ErrorType = "internal"
	ErrorTypeNotImplemented ErrorType = "not_implemented"
)

// PlatformError is the error value every layer returns upward. TraceID is a
// stable per-call-site code used to locate the origin in logs.
type PlatformError struct {
	Layer   Layer
	Type    ErrorType
	Message string
	Cause   error
	TraceID string
}

func (e *PlatformError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PlatformError) Unwrap() error { return e.Cause }

// NewError builds a classified error at the given layer.
func NewError(ctx context.Context, layer Layer, errType ErrorType, message string, cause error, traceID string) error {
	return &PlatformError{
		Layer:   layer,
		Type:    errType,
		Message: message,
		Cause:   cause,
		TraceID: traceID,
	}
}

// AsError wraps err preserving an existing classification. Unclassified
// errors are inspected for well-known sentinel values before defaulting to
// internal.
func AsError(ctx context.Context, layer Layer, err error, message string) error {
	if err == nil {
		return nil
	}
	var pe *PlatformError
	if errors.As(err, &pe) {
		return &PlatformError{
			Layer:   layer,
			Type:    pe.Type,
			Message: message,
			Cause:   err,
			TraceID: pe.TraceID,
		}
	}
	return &PlatformError{
		Layer:   layer,
		Type:    classify(err),
		Message: message,
		Cause:   err,
	}
}

func classify(err error) ErrorType {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrorTypeNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrorTypeConflict
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrorTypeUnavailable
	default:
		return ErrorTypeInternal
	}
}

// TypeOf returns the classification of err, or ErrorTypeInternal when err
// carries none.
func TypeOf(err error) ErrorType {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.Type
	}
	return classify(err)
}

// IsType reports whether err is classified as errType.
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}
