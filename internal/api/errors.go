package api

import (
	"encoding/json"
	"fmt"
)

// Code is the machine-readable kind of a backend failure. The backend
// shares one error shape across every endpoint; unrecognized wire codes
// pass through verbatim so callers can still log them.
type Code string

const (
	CodeForbiddenScope       Code = "FORBIDDEN_SCOPE"
	CodeForbiddenActor       Code = "FORBIDDEN_ACTOR"
	CodeStateConflict        Code = "STATE_CONFLICT"
	CodeIdempotencyConflict  Code = "IDEMPOTENCY_CONFLICT"
	CodeTemporaryUnavailable Code = "TEMPORARY_UNAVAILABLE"
	CodeValidationFailed     Code = "VALIDATION_FAILED"
	CodeUnauthorized         Code = "UNAUTHORIZED"
	CodeUnknown              Code = "UNKNOWN"
)

// Throttle codes the backend uses on 429 responses.
const (
	CodeSlowDown        Code = "SLOW_DOWN"
	CodeTooManyAttempts Code = "TOO_MANY_ATTEMPTS"
	CodeRateLimited     Code = "RATE_LIMITED"
)

// Error is a normalized backend failure. Every layer above the engine
// receives failures in this shape regardless of whether the transport
// produced a structured body, a mangled payload, or no response at all.
type Error struct {
	Status        int    // HTTP status, 0 for network-level failures
	Code          Code   // normalized failure kind
	Message       string // human-readable message
	Retryable     bool   // true iff Code is TEMPORARY_UNAVAILABLE or Status >= 500
	CorrelationID string // backend-assigned trace identifier, may be empty
}

func (e *Error) Error() string {
	if e.CorrelationID != "" {
		return fmt.Sprintf("%s (%s): %s [%s]", e.Code, httpStatusLabel(e.Status), e.Message, e.CorrelationID)
	}
	return fmt.Sprintf("%s (%s): %s", e.Code, httpStatusLabel(e.Status), e.Message)
}

// Throttled reports whether the failure is a rate-limit signal: a 429
// carrying one of the throttle codes, or a 429 with no usable code.
func (e *Error) Throttled() bool {
	if e.Status != 429 {
		return false
	}
	switch e.Code {
	case CodeSlowDown, CodeTooManyAttempts, CodeRateLimited, CodeUnknown, "":
		return true
	}
	return false
}

// AuthFailure reports whether the failure should trigger the caller's
// re-authentication side channel.
func (e *Error) AuthFailure() bool {
	return e.Status == 401 || e.Status == 403
}

// Conflict reports whether the failure indicates the asset changed under
// the operator, which flags it for a forced refresh.
func (e *Error) Conflict() bool {
	return e.Code == CodeStateConflict
}

func httpStatusLabel(status int) string {
	if status == 0 {
		return "network"
	}
	return fmt.Sprintf("HTTP %d", status)
}

// wireError is the error body shared by every backend endpoint.
type wireError struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	Retryable     bool   `json:"retryable"`
	CorrelationID string `json:"correlation_id"`
}

// Classify normalizes a non-2xx response into an [Error]. A body that
// parses and carries a code is taken at its word for the code and
// message; the retryable bit is always recomputed locally so a backend
// bug can never talk the engine into retrying a conflict.
func Classify(status int, body []byte) *Error {
	e := &Error{Status: status, Code: CodeUnknown}

	var we wireError
	if len(body) > 0 && json.Unmarshal(body, &we) == nil && we.Code != "" {
		e.Code = Code(we.Code)
		e.Message = we.Message
		e.CorrelationID = we.CorrelationID
	}

	if e.Message == "" {
		e.Message = httpStatusLabel(status)
	}

	e.Retryable = e.Code == CodeTemporaryUnavailable || status >= 500
	return e
}

// NetworkError normalizes a transport-level failure (connection refused,
// DNS, reset) into a retryable [Error]. Context cancellation is not a
// network error and must not reach this function.
func NetworkError(err error) *Error {
	return &Error{
		Status:    0,
		Code:      CodeTemporaryUnavailable,
		Message:   err.Error(),
		Retryable: true,
	}
}

// ValidationError marks a 2xx response whose body failed the caller's
// structural contract. The status is pinned to 502 to make clear the
// payload, not the transport, is at fault; never retryable.
func ValidationError(err error) *Error {
	return &Error{
		Status:    502,
		Code:      CodeValidationFailed,
		Message:   err.Error(),
		Retryable: false,
	}
}
