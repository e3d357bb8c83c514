package domain

import (
	"fmt"
	"maps"
	"time"

	apperrors "github.com/md-riaz/domaindesk/internal/errors"
)

// ErrorKind classifies registrar failures independently of the backend.
type ErrorKind string

const (
	KindConnectionFailed     ErrorKind = "connection_failed"
	KindAuthenticationFailed ErrorKind = "authentication_failed"
	KindRateLimitExceeded    ErrorKind = "rate_limit_exceeded"
	KindDomainNotFound       ErrorKind = "domain_not_found"
	KindValidationError      ErrorKind = "validation_error"
	KindTimeout              ErrorKind = "timeout"
	KindUnknown              ErrorKind = "unknown"
)

// Registrar configuration errors.
var (
	// ErrRegistrarNotFound indicates no registrar configuration matches the request.
	ErrRegistrarNotFound = apperrors.Wrap(apperrors.ErrNotFound, "registrar not found")

	// ErrRegistrarInactive indicates the registrar configuration exists but is disabled.
	ErrRegistrarInactive = apperrors.Wrap(apperrors.ErrNotFound, "registrar is inactive")

	// ErrMissingRegistrarConfiguration indicates no usable registrar could be resolved:
	// none configured, inactive, or an unknown backend.
	ErrMissingRegistrarConfiguration = apperrors.Wrap(apperrors.ErrNotFound, "missing registrar configuration")

	// ErrUnknownBackend indicates the configured backend id has no registered constructor.
	ErrUnknownBackend = apperrors.Wrap(apperrors.ErrInvalidInput, "unknown registrar backend")

	// ErrFeatureNotSupported indicates the registrar does not offer the requested capability.
	ErrFeatureNotSupported = apperrors.Wrap(apperrors.ErrInvalidInput, "feature not supported by registrar")
)

// RegistrarError is the structured failure every backend returns. The Kind fixes
// which Details keys are present.
type RegistrarError struct {
	Kind      ErrorKind
	Registrar string
	// Code is the registrar's own error code, empty when the registrar gave none.
	Code    string
	Message string
	Details map[string]any
	Raw     any
	Cause   error
}

// Error implements error.
func (e *RegistrarError) Error() string {
	msg := fmt.Sprintf("registrar %s: %s", e.Registrar, e.Kind)
	if e.Code != "" {
		msg += " [" + e.Code + "]"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RegistrarError) Unwrap() error {
	return e.Cause
}

// Is maps registrar error kinds onto the shared application sentinels.
func (e *RegistrarError) Is(target error) bool {
	switch target {
	case apperrors.ErrInvalidInput:
		return e.Kind == KindValidationError
	case apperrors.ErrNotFound:
		return e.Kind == KindDomainNotFound
	case apperrors.ErrTooManyRequests:
		return e.Kind == KindRateLimitExceeded
	case apperrors.ErrUpstream:
		switch e.Kind {
		case KindConnectionFailed, KindAuthenticationFailed, KindTimeout, KindUnknown:
			return true
		}
	}
	return false
}

// Detail returns one details value.
func (e *RegistrarError) Detail(key string) any {
	return e.Details[key]
}

// RetryAfter returns the retry_after detail of a rate limit error in seconds.
func (e *RegistrarError) RetryAfter() int {
	v, _ := e.Details["retry_after"].(int)
	return v
}

// FieldErrors returns the field errors of a validation error.
func (e *RegistrarError) FieldErrors() map[string]string {
	v, _ := e.Details["errors"].(map[string]string)
	return maps.Clone(v)
}

// NewConnectionFailed reports a transport-level failure.
func NewConnectionFailed(registrar string, cause error) *RegistrarError {
	reason := "connection failed"
	if cause != nil {
		reason = cause.Error()
	}
	return &RegistrarError{
		Kind:      KindConnectionFailed,
		Registrar: registrar,
		Message:   "could not reach registrar",
		Details:   map[string]any{"reason": reason},
		Cause:     cause,
	}
}

// NewAuthenticationFailed reports rejected registrar credentials.
func NewAuthenticationFailed(registrar, message string, raw any) *RegistrarError {
	if message == "" {
		message = "registrar rejected the configured credentials"
	}
	return &RegistrarError{
		Kind:      KindAuthenticationFailed,
		Registrar: registrar,
		Message:   message,
		Details:   map[string]any{},
		Raw:       raw,
	}
}

// NewRateLimitExceeded reports a local or remote rate limit. retryAfter is in seconds.
func NewRateLimitExceeded(registrar, operation string, retryAfter int) *RegistrarError {
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &RegistrarError{
		Kind:      KindRateLimitExceeded,
		Registrar: registrar,
		Message:   fmt.Sprintf("rate limit exceeded for %s, retry after %ds", operation, retryAfter),
		Details: map[string]any{
			"operation":   operation,
			"retry_after": retryAfter,
		},
	}
}

// NewDomainNotFound reports a registrar "not found" answer for domain.
func NewDomainNotFound(registrar, domain string, raw any) *RegistrarError {
	return &RegistrarError{
		Kind:      KindDomainNotFound,
		Registrar: registrar,
		Message:   fmt.Sprintf("domain %s not found", domain),
		Details:   map[string]any{"domain": domain},
		Raw:       raw,
	}
}

// NewValidationError reports invalid input, collecting every field error.
func NewValidationError(registrar string, fieldErrors map[string]string, raw any) *RegistrarError {
	return &RegistrarError{
		Kind:      KindValidationError,
		Registrar: registrar,
		Message:   "validation failed",
		Details:   map[string]any{"errors": maps.Clone(fieldErrors)},
		Raw:       raw,
	}
}

// NewTimeout reports an operation that exceeded its configured timeout.
func NewTimeout(registrar, operation string, timeout time.Duration, cause error) *RegistrarError {
	return &RegistrarError{
		Kind:      KindTimeout,
		Registrar: registrar,
		Message:   fmt.Sprintf("%s timed out after %s", operation, timeout),
		Details: map[string]any{
			"operation":       operation,
			"timeout_seconds": timeout.Seconds(),
		},
		Cause: cause,
	}
}

// NewOutcomeUnknown reports a mutating call the registrar may or may not have applied.
// It is a timeout: callers reconcile against the registrar's state before retrying or
// compensating.
func NewOutcomeUnknown(registrar, operation string, cause error) *RegistrarError {
	return &RegistrarError{
		Kind:      KindTimeout,
		Registrar: registrar,
		Code:      "outcome_unknown",
		Message:   operation + " outcome unknown",
		Details:   map[string]any{"operation": operation},
		Cause:     cause,
	}
}

// NewUnknown reports any other registrar failure, preserving the registrar's code.
func NewUnknown(registrar, code, message string, raw any) *RegistrarError {
	return &RegistrarError{
		Kind:      KindUnknown,
		Registrar: registrar,
		Code:      code,
		Message:   message,
		Details:   map[string]any{"message": message},
		Raw:       raw,
	}
}

// AsRegistrarError extracts a *RegistrarError from err's chain.
func AsRegistrarError(err error) (*RegistrarError, bool) {
	var regErr *RegistrarError
	if apperrors.As(err, &regErr) {
		return regErr, true
	}
	return nil, false
}

// KindOf returns the registrar error kind of err, or "" when err is not a registrar error.
func KindOf(err error) ErrorKind {
	if regErr, ok := AsRegistrarError(err); ok {
		return regErr.Kind
	}
	return ""
}
