// Package errors defines the application error taxonomy and its central handler.
package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Error codes, one per taxonomy class.
const (
	CodeValidation          = "E100"
	CodeInsufficientBalance = "E110"
	CodeInsufficientStock   = "E111"
	CodeNotFound            = "E120"
	CodeDelivery            = "E130"
	CodeDatabase            = "E200"
	CodeTransport           = "E300"
	CodeRateLimit           = "E500"
)

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// Is matches AppErrors by code so sentinel comparisons survive wrapping.
func (e *AppError) Is(target error) bool {
	other, ok := target.(*AppError)
	if !ok || e == nil || other == nil {
		return false
	}

	return e.Code == other.Code
}

// NewValidationError flags malformed user input; the flow is re-prompted, never advanced.
func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        CodeValidation,
		Message:     msg,
		UserMessage: fmt.Sprintf("❌ %s", msg),
		Severity:    SeverityLow,
	}
}

// NewInsufficientBalanceError refuses a purchase the user cannot pay for.
func NewInsufficientBalanceError() *AppError {
	return &AppError{
		Code:        CodeInsufficientBalance,
		Message:     "balance below total price",
		UserMessage: "❌ Not enough balance!",
		Severity:    SeverityLow,
	}
}

// NewInsufficientStockError refuses a purchase exceeding the available stock.
func NewInsufficientStockError() *AppError {
	return &AppError{
		Code:        CodeInsufficientStock,
		Message:     "not enough stock rows for service",
		UserMessage: "❌ Not enough stock!",
		Severity:    SeverityLow,
	}
}

// NewNotFoundError refuses an action on a missing or already-decided entity.
func NewNotFoundError(what string) *AppError {
	return &AppError{
		Code:        CodeNotFound,
		Message:     fmt.Sprintf("%s not found or already decided", what),
		UserMessage: "❌ Not found or already processed.",
		Severity:    SeverityLow,
	}
}

// NewDeliveryError records a single failed broadcast delivery; counted, never surfaced per recipient.
func NewDeliveryError(userID int64, cause error) *AppError {
	return &AppError{
		Code:      CodeDelivery,
		Message:   fmt.Sprintf("delivery to %d failed", userID),
		Severity:  SeverityLow,
		Retryable: false,
		cause:     cause,
	}
}

// NewDatabaseError wraps a store-level failure.
func NewDatabaseError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        CodeDatabase,
		Message:     fmt.Sprintf("database error: %s", underlyingMsg),
		UserMessage: "⚠️ Temporary problem, please try again later.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewTransportError wraps a telegram API failure.
func NewTransportError(cause error) *AppError {
	return &AppError{
		Code:        CodeTransport,
		Message:     "telegram transport error",
		UserMessage: "⚠️ Service temporarily unavailable.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewRateLimitError tells the user to slow down.
func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        CodeRateLimit,
		Message:     fmt.Sprintf("rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("⏳ Too many requests. Try again in %d seconds.", retryAfter),
		Severity:    SeverityLow,
	}
}
