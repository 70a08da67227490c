// Package domainerrors provides the error taxonomy used across services.
//
// Errors carry a Code that classifies the failure for callers and for the
// HTTP layer. Services construct these directly (New) or wrap infrastructure
// errors (Wrap); handlers translate them with ToHTTPStatus. Sentinel errors
// for infrastructure facts live in pkg/platform/sentinel.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks input that fails a business validation rule,
	// including missing onboarding-step prerequisites.
	CodeValidation Code = "validation"
	// CodeBadRequest marks a structurally malformed request.
	CodeBadRequest Code = "bad_request"
	// CodeInvalidInput marks a malformed domain primitive (IDs, enums).
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound marks a missing entity.
	CodeNotFound Code = "not_found"
	// CodeConflict marks an illegal state transition: locked records,
	// skipped onboarding steps, re-deciding a settled verification.
	CodeConflict Code = "conflict"
	// CodeInvariantViolation marks a broken model invariant. Services
	// usually translate these into CodeValidation or CodeConflict before
	// they reach a caller.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeUnauthorized marks a missing or invalid credential.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks an authenticated caller without permission.
	CodeForbidden Code = "forbidden"
	// CodeTimeout marks a cancelled or deadline-exceeded operation.
	CodeTimeout Code = "timeout"
	// CodeExhausted marks a bounded retry budget that ran out, such as
	// official worker ID issuance collisions.
	CodeExhausted Code = "exhausted"
	// CodeExternal marks a failure inside an external collaborator
	// (asset store, biometric provider, QR generator, notifier). The
	// message always names the collaborator.
	CodeExternal Code = "external"
	// CodeInternal marks everything else. Handlers never leak its message.
	CodeInternal Code = "internal_error"
)

// Error is a domain error with a classification code.
type Error struct {
	Code    Code
	Message string
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.wrapped }

// New constructs a domain error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, wrapped: err}
}

// External wraps a collaborator failure, always recording which collaborator
// failed so it is never silently swallowed.
func External(collaborator string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: CodeExternal, Message: collaborator + " failed", wrapped: err}
}

// HasCode reports whether any error in the chain carries the given code.
// IsDomainError reports whether the chain contains a domain error, i.e.
// something already carries a code and needs no further wrapping.
func IsDomainError(err error) bool {
	var dErr *Error
	return errors.As(err, &dErr)
}

func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.wrapped
		de = nil
	}
	return false
}

// Is is a readable alias for HasCode at call sites that test one code.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error is not a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost domain message, or an empty string.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// ToHTTPStatus maps a domain error code to an HTTP status.
func ToHTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation, CodeBadRequest, CodeInvalidInput, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeExhausted:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
