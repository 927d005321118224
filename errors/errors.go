package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode identifies an application error category
type ErrorCode string

const (
	ErrorCode_INTERNAL           ErrorCode = "INTERNAL"
	ErrorCode_INVALID_ARGUMENT   ErrorCode = "INVALID_ARGUMENT"
	ErrorCode_NOT_FOUND          ErrorCode = "NOT_FOUND"
	ErrorCode_ALREADY_EXISTS     ErrorCode = "ALREADY_EXISTS"
	ErrorCode_UPLOAD_TOO_LARGE   ErrorCode = "UPLOAD_TOO_LARGE"
	ErrorCode_UNSUPPORTED_MEDIA  ErrorCode = "UNSUPPORTED_MEDIA"
	ErrorCode_MEETING_NOT_READY  ErrorCode = "MEETING_NOT_READY"
	ErrorCode_PIPELINE_REJECTED  ErrorCode = "PIPELINE_REJECTED"
	ErrorCode_SEARCH_UNAVAILABLE ErrorCode = "SEARCH_UNAVAILABLE"
)

// String returns the code as a string
func (c ErrorCode) String() string {
	return string(c)
}

// AppError is the custom error type carried from use cases to HTTP handlers
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped cause
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrAlreadyExists(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_ALREADY_EXISTS,
		Message:  fmt.Sprintf("%s already exists", resource),
	}
}

// Upload Errors
func ErrUploadTooLarge(limitBytes int64) AppError {
	return AppError{
		HTTPCode: http.StatusRequestEntityTooLarge,
		Code:     ErrorCode_UPLOAD_TOO_LARGE,
		Message:  fmt.Sprintf("Upload exceeds the %d byte limit", limitBytes),
	}
}

func ErrUnsupportedMedia(contentType string) AppError {
	return AppError{
		HTTPCode: http.StatusUnsupportedMediaType,
		Code:     ErrorCode_UNSUPPORTED_MEDIA,
		Message:  fmt.Sprintf("Unsupported content type: %s", contentType),
	}
}

// Pipeline Errors
func ErrMeetingNotReady(status string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_MEETING_NOT_READY,
		Message:  fmt.Sprintf("Meeting is not ready (status: %s)", status),
	}
}

func ErrPipelineRejected(reason string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_PIPELINE_REJECTED,
		Message:  fmt.Sprintf("Pipeline cannot be started: %s", reason),
	}
}

// Search Errors
func ErrSearchUnavailable(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_SEARCH_UNAVAILABLE,
		Message:  "Search is temporarily unavailable",
	}
}
