package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")

	// ErrQuotaExceeded means the daily OCR call budget is spent; the document
	// was not processed at all. Distinct from a zero-result extraction.
	ErrQuotaExceeded = errors.New("daily processing quota exceeded")

	// ErrNoTransactions means every extraction strategy ran and found nothing.
	ErrNoTransactions = errors.New("no transactions found in document")

	// ErrProviderUnavailable means an external provider (OCR/LLM) was unreachable
	// or returned an unusable payload after all fallbacks.
	ErrProviderUnavailable = errors.New("external provider unavailable")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
