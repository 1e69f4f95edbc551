package types

import (
	"fmt"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants.
// All components MUST use these constants instead of hardcoded strings.
const (
	// Configuration
	ErrCodeConfigInvalid ErrorCode = "config_invalid"

	// Inbound envelope
	ErrCodeEnvelopeNoRecords ErrorCode = "envelope_no_records"
	ErrCodeEnvelopeMalformed ErrorCode = "envelope_malformed"

	// Formatting
	ErrCodeEnumUnknownKey      ErrorCode = "enum_unknown_key"
	ErrCodePayloadMissingField ErrorCode = "payload_missing_field"
	ErrCodeConsoleUnsupported  ErrorCode = "console_service_unsupported"

	// Delivery
	ErrCodeDecryptFailed  ErrorCode = "decrypt_failed"
	ErrCodeDeliveryFailed ErrorCode = "delivery_failed"

	// Internal
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// Fatal reports whether an error with this code must abort the current
// invocation. Delivery failures are captured results, not aborts; everything
// else indicates a payload or configuration problem that a retry of the same
// event would hit again.
func (c ErrorCode) Fatal() bool {
	switch c {
	case ErrCodeDecryptFailed, ErrCodeDeliveryFailed:
		return false
	default:
		return true
	}
}

// AppError is the standard application error type used throughout the relay.
// All domain errors should be expressed as AppError to enable consistent
// error formatting, severity mapping, and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of the error with the provided details merged in.
// This is useful for adding context without mutating the original error.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error. This is the standard constructor for domain errors.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError with the given code, message,
// underlying error, and structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}
