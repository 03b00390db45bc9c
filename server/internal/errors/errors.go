// Package errors defines the coded error type shared by the companion
// turn pipeline and the HTTP boundary.
package errors

import (
	"fmt"
)

// ErrorCode classifies a failure for callers and for HTTP status mapping.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates authentication failure.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeInvalidInput indicates invalid request parameters
	// (unknown persona, empty message with no image). Rejected before
	// any provider call.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeUnconfigured indicates a required provider credential is
	// absent at the server. No retry is meaningful.
	ErrCodeUnconfigured ErrorCode = "UNCONFIGURED"
	// ErrCodeProviderUnavailable indicates a network failure or
	// non-success response from the generative provider.
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	// ErrCodeProviderOutputInvalid indicates the provider response could
	// not be parsed into a supported result shape. Treated like
	// ErrCodeProviderUnavailable by callers but logged distinctly since
	// it indicates contract drift rather than a network issue.
	ErrCodeProviderOutputInvalid ErrorCode = "PROVIDER_OUTPUT_INVALID"
	// ErrCodeResourceExhausted indicates a consumable balance (chat
	// points, gems) is too low for the requested operation.
	ErrCodeResourceExhausted ErrorCode = "RESOURCE_EXHAUSTED"
	// ErrCodeTurnInFlight indicates a second turn was attempted while
	// one is already outstanding for the same session.
	ErrCodeTurnInFlight ErrorCode = "TURN_IN_FLIGHT"
	// ErrCodeRateLimited indicates the per-user rate limit was exceeded.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeNotFound indicates the requested object does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInternal indicates an unexpected server-side failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// CodedError carries an ErrorCode alongside a human-readable message. The
// session manager only ever receives this shape from the turn responder,
// never a raw transport error.
type CodedError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// Convenience constructors.

func Unauthorized(msg string) *CodedError {
	return &CodedError{Code: ErrCodeUnauthorized, Message: msg}
}

func InvalidInput(msg string) *CodedError {
	return &CodedError{Code: ErrCodeInvalidInput, Message: msg}
}

func Unconfigured(msg string) *CodedError {
	return &CodedError{Code: ErrCodeUnconfigured, Message: msg}
}

func ProviderUnavailable(msg string, cause error) *CodedError {
	return &CodedError{Code: ErrCodeProviderUnavailable, Message: msg, Cause: cause}
}

func ProviderOutputInvalid(msg string, cause error) *CodedError {
	return &CodedError{Code: ErrCodeProviderOutputInvalid, Message: msg, Cause: cause}
}

func ResourceExhausted(msg string) *CodedError {
	return &CodedError{Code: ErrCodeResourceExhausted, Message: msg}
}

func TurnInFlight(msg string) *CodedError {
	return &CodedError{Code: ErrCodeTurnInFlight, Message: msg}
}

func RateLimited(msg string) *CodedError {
	return &CodedError{Code: ErrCodeRateLimited, Message: msg}
}

func NotFound(msg string) *CodedError {
	return &CodedError{Code: ErrCodeNotFound, Message: msg}
}

func Internal(msg string, cause error) *CodedError {
	return &CodedError{Code: ErrCodeInternal, Message: msg, Cause: cause}
}

// Wrap wraps an existing error with a code and message.
func Wrap(cause error, code ErrorCode, msg string) *CodedError {
	return &CodedError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error carries a specific code.
func IsCode(err error, code ErrorCode) bool {
	if coded, ok := err.(*CodedError); ok {
		return coded.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a CodedError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	if coded, ok := err.(*CodedError); ok {
		return coded.Code
	}
	return defaultCode
}
