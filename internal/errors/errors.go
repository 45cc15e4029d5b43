package errors

import (
	"errors"
	"fmt"
)

// ErrCode represents an error code
type ErrCode string

const (
	ErrCodeConfig      ErrCode = "CONFIG"
	ErrCodeTransport   ErrCode = "TRANSPORT"
	ErrCodeSource      ErrCode = "SOURCE"
	ErrCodeEmptyPage   ErrCode = "EMPTY_PAGE"
	ErrCodeDerivation  ErrCode = "DERIVATION"
	ErrCodePersistence ErrCode = "PERSISTENCE"
	ErrCodeRateLimited ErrCode = "RATE_LIMITED"
)

// AppError represents an application error
type AppError struct {
	Code    ErrCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewConfigError creates an error for an invalid or missing configuration value
func NewConfigError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConfig,
		Message: message,
	}
}

// NewTransportError creates an error for a failed HTTP exchange
func NewTransportError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeTransport,
		Message: message,
		Err:     err,
	}
}

// NewSourceError creates an error for an application-level error payload.
// Partial data accompanying the payload is still usable by the caller.
func NewSourceError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeSource,
		Message: message,
	}
}

// NewEmptyPageError creates the end-of-stream signal for a page with zero records
func NewEmptyPageError() *AppError {
	return &AppError{
		Code:    ErrCodeEmptyPage,
		Message: "page returned no records",
	}
}

// NewDerivationError creates an error for a single record that could not be derived
func NewDerivationError(url string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeDerivation,
		Message: fmt.Sprintf("cannot derive metrics for %s", url),
		Err:     err,
	}
}

// NewPersistenceError creates an error for a failed durable write or read
func NewPersistenceError(path string, err error) *AppError {
	return &AppError{
		Code:    ErrCodePersistence,
		Message: fmt.Sprintf("persistence failed for %s", path),
		Err:     err,
	}
}

// NewRateLimitedError creates an error for a rate-limit rejection
func NewRateLimitedError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeRateLimited,
		Message: message,
	}
}

func hasCode(err error, code ErrCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsConfig checks if the error is a configuration error
func IsConfig(err error) bool { return hasCode(err, ErrCodeConfig) }

// IsTransport checks if the error is a transport error
func IsTransport(err error) bool { return hasCode(err, ErrCodeTransport) }

// IsSource checks if the error is a source error
func IsSource(err error) bool { return hasCode(err, ErrCodeSource) }

// IsEmptyPage checks if the error is the end-of-stream signal
func IsEmptyPage(err error) bool { return hasCode(err, ErrCodeEmptyPage) }

// IsDerivation checks if the error is a per-record derivation error
func IsDerivation(err error) bool { return hasCode(err, ErrCodeDerivation) }

// IsPersistence checks if the error is a persistence error
func IsPersistence(err error) bool { return hasCode(err, ErrCodePersistence) }

// IsRateLimited checks if the error is a rate-limit rejection
func IsRateLimited(err error) bool { return hasCode(err, ErrCodeRateLimited) }
