// Package apperr is the error taxonomy shared by every HTTP-facing
// component. Handlers render an *Error as {"error": Message, "code": Code}.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	CodeValidation       = "validation"
	CodeNotFound         = "not_found"
	CodeMethodNotAllowed = "method_not_allowed"
	CodePayloadTooLarge  = "payload_too_large"
	CodeRateLimited      = "rate_limited"
	CodeNotConfigured    = "not_configured"
	CodeUnavailable      = "unavailable"
	CodeUpstream         = "upstream"
	CodeTimeout          = "timeout"
	CodeInternal         = "internal"
)

type Error struct {
	Code       string
	Message    string
	Transient  bool
	RetryAfter int
	Status     int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func statusForCode(code string) int {
	switch code {
	case CodeValidation:
		return 400
	case CodeNotFound:
		return 404
	case CodeMethodNotAllowed:
		return 405
	case CodePayloadTooLarge:
		return 413
	case CodeRateLimited:
		return 429
	case CodeNotConfigured, CodeUnavailable:
		return 503
	case CodeUpstream:
		return 502
	case CodeTimeout:
		return 504
	default:
		return 500
	}
}

func newError(code, message string, transient bool, retryAfter time.Duration, cause error) *Error {
	retryAfterSec := 0
	if retryAfter > 0 {
		retryAfterSec = int(retryAfter.Seconds())
		if retryAfterSec <= 0 {
			retryAfterSec = 1
		}
	}
	return &Error{
		Code:       code,
		Message:    message,
		Transient:  transient,
		RetryAfter: retryAfterSec,
		Status:     statusForCode(code),
		Err:        cause,
	}
}

func Validation(message string) *Error {
	return newError(CodeValidation, message, false, 0, nil)
}

func NotFound(message string) *Error {
	return newError(CodeNotFound, message, false, 0, nil)
}

func MethodNotAllowed() *Error {
	return newError(CodeMethodNotAllowed, "method not allowed", false, 0, nil)
}

func PayloadTooLarge(message string) *Error {
	return newError(CodePayloadTooLarge, message, false, 0, nil)
}

func NotConfigured(feature string) *Error {
	return newError(CodeNotConfigured, feature+" is not configured", false, 0, nil)
}

func RateLimited(message string, retryAfter time.Duration, cause error) *Error {
	return newError(CodeRateLimited, message, true, retryAfter, cause)
}

func Upstream(message string, cause error) *Error {
	return newError(CodeUpstream, message, true, 0, cause)
}

func Unavailable(message string, cause error) *Error {
	return newError(CodeUnavailable, message, true, 0, cause)
}

func Internal(message string, cause error) *Error {
	return newError(CodeInternal, message, true, 0, cause)
}

// From returns the *Error in err's chain, or classifies err: deadline
// exceeded becomes a timeout, everything else an internal error.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(CodeTimeout, "the request timed out", true, 0, err)
	}
	if errors.Is(err, context.Canceled) {
		return newError(CodeUnavailable, "the request was cancelled", true, 0, err)
	}
	return Internal("internal server error", err)
}
