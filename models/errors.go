package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodePoolExhausted = "POOL_EXHAUSTED"
	ErrCodeTimeout       = "FETCH_TIMEOUT"
	ErrCodeNavigation    = "NAVIGATION_FAILED"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeExtraction    = "EXTRACTION_FATAL"
	ErrCodeCancelled     = "CANCELLED"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Attempts int    `json:"attempts,omitempty"`
}

// ScrapeError is the internal error type carrying an error code and,
// for transport failures, the number of navigation attempts made.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code     string
	Message  string
	Attempts int
	Err      error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// NewFetchError creates a transport-level error carrying the attempt count.
func NewFetchError(code, message string, attempts int, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Attempts: attempts, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message, Attempts: e.Attempts}
}

// CodeOf extracts the error code from err, or INTERNAL_ERROR for plain errors.
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// IsNotFound reports whether err is the semantic not-found result.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsFatal reports whether err must abort pagination immediately rather
// than being retried: structure mismatches, cancellation, pool exhaustion.
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case ErrCodeExtraction, ErrCodeCancelled, ErrCodePoolExhausted, ErrCodeNotFound:
		return true
	}
	return false
}

// RetryableExtractionError marks an extraction error as transient (selector not yet
// rendered); the paginator re-fetches the page once before giving up.
type RetryableExtractionError struct {
	Selector string
	Err      error
}

func (e *RetryableExtractionError) Error() string {
	return fmt.Sprintf("extraction retryable (selector %q): %v", e.Selector, e.Err)
}

func (e *RetryableExtractionError) Unwrap() error { return e.Err }

// IsRetryableExtraction reports whether err is a transient extraction failure.
func IsRetryableExtraction(err error) bool {
	var re *RetryableExtractionError
	return errors.As(err, &re)
}
