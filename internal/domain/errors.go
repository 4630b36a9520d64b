package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that carry their own HTTP status code.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - classify with errors.Is()
var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("already exists")
	ErrValidation          = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrGenerationFailed    = errors.New("generation failed")
	ErrInternal            = errors.New("internal error")
)

// Machine-readable error kinds returned to API clients
const (
	KindUnauthorized        = "unauthorized"
	KindNotFound            = "not_found"
	KindInvalidInput        = "invalid_input"
	KindInsufficientCredits = "insufficient_credits"
	KindGenerationFailed    = "generation_failed"
	KindConflict            = "conflict"
	KindInternal            = "internal"
)

// KindOf classifies an error into one of the Kind* constants.
// Unknown errors are reported as internal. A generation failure wins over
// whatever caused it.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrGenerationFailed):
		return KindGenerationFailed
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindInvalidInput
	case errors.Is(err, ErrInsufficientCredits):
		return KindInsufficientCredits
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindInternal
	}
}

// StatusForKind returns the HTTP status used for an error kind.
func StatusForKind(kind string) int {
	switch kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindInsufficientCredits:
		return http.StatusPaymentRequired
	case KindGenerationFailed:
		return http.StatusBadGateway
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GenerationError reports a failed generation attempt.
// The attempt's credits have already been refunded when this is returned.
type GenerationError struct {
	ProjectID string
	Reason    string
	Cause     error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return "generation failed: " + e.Reason + ": " + e.Cause.Error()
	}
	return "generation failed: " + e.Reason
}

// StatusCode implements HTTPError
func (e *GenerationError) StatusCode() int { return http.StatusBadGateway }

// Is allows errors.Is() to match against ErrGenerationFailed
func (e *GenerationError) Is(target error) bool { return target == ErrGenerationFailed }

func (e *GenerationError) Unwrap() error { return e.Cause }

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (project, purchase)
	ResourceID   string // ID of the existing/conflicting resource
}

func (e *ConflictError) Error() string { return e.Message }

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
