// Package errors provides structured error types for FitPlan.
//
// All errors crossing a package boundary should use these types so that
// the HTTP wrapper, execution logging and retry logic can classify them
// consistently.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error identifier for categorization.
type ErrorCode string

// Common error codes used throughout FitPlan.
const (
	// Lookup errors
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Request errors
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeRateLimited     ErrorCode = "RATE_LIMITED"

	// Pipeline errors
	CodeGenerationUnusable   ErrorCode = "GENERATION_UNUSABLE"
	CodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	CodePropagationFailed    ErrorCode = "PROPAGATION_FAILED"
	CodeGenerationInProgress ErrorCode = "GENERATION_IN_PROGRESS"

	// Infrastructure errors
	CodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	CodePublishFailed    ErrorCode = "PUBLISH_FAILED"
	CodeSecretFailed     ErrorCode = "SECRET_FAILED"
	CodeArtifactFailed   ErrorCode = "ARTIFACT_FAILED"

	// General errors
	CodeInternal ErrorCode = "INTERNAL"
	CodeTimeout  ErrorCode = "TIMEOUT"
)

// FitPlanError is the base error type for all FitPlan errors.
// It carries a code for categorization, retry semantics and
// contextual metadata.
type FitPlanError struct {
	Code      ErrorCode         // Unique error code for categorization
	Message   string            // Human-readable error message
	Cause     error             // Underlying error (if any)
	Retryable bool              // Whether the operation can be retried
	Metadata  map[string]string // Additional context
}

// Error implements the error interface.
func (e *FitPlanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *FitPlanError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a FitPlanError with the same code, so that
// sentinels keep matching after WithCause/WithMessage copies.
func (e *FitPlanError) Is(target error) bool {
	t, ok := target.(*FitPlanError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *FitPlanError) WithCause(cause error) *FitPlanError {
	return &FitPlanError{
		Code:      e.Code,
		Message:   e.Message,
		Cause:     cause,
		Retryable: e.Retryable,
		Metadata:  e.Metadata,
	}
}

// WithMessage adds a custom message.
func (e *FitPlanError) WithMessage(msg string) *FitPlanError {
	return &FitPlanError{
		Code:      e.Code,
		Message:   msg,
		Cause:     e.Cause,
		Retryable: e.Retryable,
		Metadata:  e.Metadata,
	}
}

// WithMetadata adds contextual metadata.
func (e *FitPlanError) WithMetadata(key, value string) *FitPlanError {
	meta := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		meta[k] = v
	}
	meta[key] = value
	return &FitPlanError{
		Code:      e.Code,
		Message:   e.Message,
		Cause:     e.Cause,
		Retryable: e.Retryable,
		Metadata:  meta,
	}
}

// Pre-defined sentinel errors for common cases.
// Use these with errors.Is() or wrap them with .WithCause().
var (
	ErrNotFound      = &FitPlanError{Code: CodeNotFound, Message: "not found", Retryable: false}
	ErrAlreadyExists = &FitPlanError{Code: CodeAlreadyExists, Message: "already exists", Retryable: false}

	ErrInvalidArgument = &FitPlanError{Code: CodeInvalidArgument, Message: "invalid argument", Retryable: false}
	ErrRateLimited     = &FitPlanError{Code: CodeRateLimited, Message: "too many generation requests", Retryable: true}

	// ErrGenerationUnusable marks external output that could not become a
	// candidate program. It always routes to deterministic synthesis.
	ErrGenerationUnusable   = &FitPlanError{Code: CodeGenerationUnusable, Message: "generated content unusable", Retryable: false}
	ErrValidationFailed     = &FitPlanError{Code: CodeValidationFailed, Message: "program failed structural validation", Retryable: false}
	ErrPropagationFailed    = &FitPlanError{Code: CodePropagationFailed, Message: "calendar propagation failed", Retryable: true}
	ErrGenerationInProgress = &FitPlanError{Code: CodeGenerationInProgress, Message: "program generation already in progress", Retryable: true}

	ErrStoreUnavailable = &FitPlanError{Code: CodeStoreUnavailable, Message: "store unavailable", Retryable: true}
	ErrPublishFailed    = &FitPlanError{Code: CodePublishFailed, Message: "publish failed", Retryable: true}
	ErrSecretFailed     = &FitPlanError{Code: CodeSecretFailed, Message: "secret access error", Retryable: true}
	ErrArtifactFailed   = &FitPlanError{Code: CodeArtifactFailed, Message: "artifact upload failed", Retryable: true}

	ErrInternal = &FitPlanError{Code: CodeInternal, Message: "internal error", Retryable: false}
	ErrTimeout  = &FitPlanError{Code: CodeTimeout, Message: "timeout", Retryable: true}
)

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var fpErr *FitPlanError
	if stderrors.As(err, &fpErr) {
		return fpErr.Retryable
	}
	return false
}

// GetCode extracts the error code from an error, if available.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var fpErr *FitPlanError
	if stderrors.As(err, &fpErr) {
		return fpErr.Code
	}
	return CodeInternal
}

// HTTPStatus maps an error to the status code returned by HTTP handlers.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case "":
		return http.StatusOK
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeGenerationInProgress:
		return http.StatusConflict
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeStoreUnavailable, CodeTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
