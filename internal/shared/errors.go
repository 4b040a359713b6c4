package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrMissingToken  = fmt.Errorf("missing access token")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrAssetNotFound      = fmt.Errorf("asset not found")
	ErrBatchNotFound      = fmt.Errorf("batch not found")

	// Workflow errors
	ErrBatchInFlight   = fmt.Errorf("a batch operation is already in flight")
	ErrUndoExpired     = fmt.Errorf("undo window already expired")
	ErrPreviewRequired = fmt.Errorf("preview required before confirm")
	ErrBulkDisabled    = fmt.Errorf("bulk actions disabled by server policy")
	ErrPurgeDisabled   = fmt.Errorf("purge disabled by server policy")
	ErrMovesDisabled   = fmt.Errorf("batch moves disabled by server policy")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
