package workflow

import (
	"errors"
	"fmt"

	"github.com/desertthunder/screener/internal/api"
)

// MessageFor maps a failure to the operator-facing status text. Each
// message is scoped to the operation that failed so one failure never
// overwrites an unrelated operation's status.
func MessageFor(err error) string {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return err.Error()
	}

	switch apiErr.Code {
	case api.CodeForbiddenScope, api.CodeForbiddenActor:
		return "missing scope for this action"
	case api.CodeStateConflict:
		return "asset changed on the server, refresh before retrying"
	case api.CodeIdempotencyConflict:
		return fmt.Sprintf("idempotency key conflict: %s", apiErr.Message)
	case api.CodeTemporaryUnavailable:
		return "backend temporarily unavailable, try again shortly"
	case api.CodeValidationFailed:
		return fmt.Sprintf("malformed response from backend: %s", apiErr.Message)
	case api.CodeUnauthorized:
		return "session expired, sign in again"
	}

	if apiErr.Status >= 500 {
		return "backend temporarily unavailable, try again shortly"
	}
	return fmt.Sprintf("HTTP %d: %s", apiErr.Status, apiErr.Message)
}
