// Package errors provides typed errors for the portfolio tracker.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error cases.
var (
	// ErrNotFound indicates a resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates the user is not authenticated.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the user lacks permission.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation indicates a structural validation error.
	ErrValidation = errors.New("validation error")

	// ErrInsufficientFunds indicates a transaction would overdraw cash
	// or sell more of a holding than the portfolio owns.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConflict indicates a resource conflict (e.g., duplicate).
	ErrConflict = errors.New("resource conflict")

	// ErrPersistence indicates a storage-layer failure.
	ErrPersistence = errors.New("persistence error")

	// ErrRateLimit indicates too many requests.
	ErrRateLimit = errors.New("rate limit exceeded")
)

// Stable machine-readable codes carried by validation errors so clients
// can highlight the offending field without parsing messages.
const (
	CodeRequired             = "required"
	CodeInvalidType          = "invalid_type"
	CodeInvalidFormat        = "invalid_format"
	CodeInvalidDate          = "invalid_date"
	CodeMustBePositive       = "must_be_positive"
	CodeMustBeNonNegative    = "must_be_non_negative"
	CodeMustBeAbsent         = "must_be_absent"
	CodeAmountMismatch       = "amount_mismatch"
	CodeOutOfRange           = "out_of_range"
	CodeInsufficientFunds    = "insufficient_funds"
	CodeInsufficientHoldings = "insufficient_holdings"
)

// AppError is a structured application error.
type AppError struct {
	// Type is the error kind (sentinel error).
	Type error
	// Message is the user-facing error message.
	Message string
	// Field names the offending input field for validation errors.
	Field string
	// Code is a stable machine-readable code for the condition.
	Code string
	// Details contains additional structured payload (shortfall, symbol, ...).
	Details map[string]any
	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error kind.
func (e *AppError) Unwrap() error {
	return e.Type
}

// Is checks if this error matches the target.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Type, target)
}

// WithDetails adds details to an AppError.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError.
func New(errType error, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
	}
}

// NotFound creates a not found error.
func NotFound(resource string) *AppError {
	return &AppError{
		Type:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return &AppError{
		Type:    ErrUnauthorized,
		Message: message,
	}
}

// Forbidden creates a forbidden error.
func Forbidden(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	return &AppError{
		Type:    ErrForbidden,
		Message: message,
	}
}

// Validation creates a validation error without a field.
func Validation(message string) *AppError {
	return &AppError{
		Type:    ErrValidation,
		Message: message,
	}
}

// ValidationField creates a validation error for a specific field with a
// stable code.
func ValidationField(field, code, message string) *AppError {
	return &AppError{
		Type:    ErrValidation,
		Message: message,
		Field:   field,
		Code:    code,
	}
}

// InsufficientFunds creates a cash-shortfall error.
func InsufficientFunds(shortfall float64) *AppError {
	return &AppError{
		Type:    ErrInsufficientFunds,
		Message: fmt.Sprintf("insufficient funds: short %.2f", shortfall),
		Field:   "total_amount",
		Code:    CodeInsufficientFunds,
		Details: map[string]any{"shortfall": shortfall},
	}
}

// InsufficientHoldings creates a holding-quantity-shortfall error.
func InsufficientHoldings(symbol string, shortfall float64) *AppError {
	return &AppError{
		Type:    ErrInsufficientFunds,
		Message: fmt.Sprintf("insufficient holdings of %s: short %g", symbol, shortfall),
		Field:   "quantity",
		Code:    CodeInsufficientHoldings,
		Details: map[string]any{"symbol": symbol, "shortfall": shortfall},
	}
}

// Conflict creates a conflict error.
func Conflict(message string) *AppError {
	return &AppError{
		Type:    ErrConflict,
		Message: message,
	}
}

// Persistence wraps a storage-layer failure.
func Persistence(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrPersistence,
		Message: message,
		Cause:   cause,
	}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInsufficientFunds checks if an error is an insufficient funds error.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

// IsPersistence checks if an error is a persistence error.
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// AsAppError extracts an *AppError from err, if any.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrUnauthorized):
		return 401
	case errors.Is(err, ErrForbidden):
		return 403
	case errors.Is(err, ErrValidation):
		return 400
	case errors.Is(err, ErrInsufficientFunds):
		return 422
	case errors.Is(err, ErrConflict):
		return 409
	case errors.Is(err, ErrRateLimit):
		return 429
	default:
		return 500
	}
}
