package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Retryable  bool   `json:"-"` // Transient failure; callers may re-attempt
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Ledger Business Logic (LED) ----

func ErrInsufficientFunds() *AppError {
	return New("LED_001", "Insufficient balance in wallet", http.StatusPaymentRequired)
}

func ErrInvalidAmount() *AppError {
	return New("LED_002", "Amount must be positive with at most two decimal places", http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("LED_003", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ErrVersionConflict signals an optimistic-concurrency mismatch: the
// predecessor version named by a write is no longer the active version.
func ErrVersionConflict() *AppError {
	e := New("LED_004", "Wallet was modified concurrently, retry the operation", http.StatusConflict)
	e.Retryable = true
	return e
}

func ErrDuplicateWallet() *AppError {
	return New("LED_005", "User already owns an active wallet", http.StatusConflict)
}

func ErrAlreadyDeleted(entity string) *AppError {
	return New("LED_006", fmt.Sprintf("%s is already deleted", entity), http.StatusGone)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a LED_002-style validation error with a custom message.
func Validation(message string) *AppError {
	return New("LED_002", message, http.StatusBadRequest)
}

// IsConflict reports whether err is a retryable version conflict.
func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Retryable
}

// Code extracts the stable error code from err, or "" if err is not an AppError.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
