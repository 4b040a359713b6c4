// Package api implements the resilient request engine for the review backend.
//
// # Request Engine
//
// [Engine.Do] is the single entry point for every backend call. It attaches
// bearer credentials from a pull-based token accessor, adds Idempotency-Key
// headers for unsafe operations, retries transient failures with exponential
// backoff, and validates response shapes before returning them.
//
// The engine is the only layer that retries. Higher layers (workflow
// controller, batch orchestrator, policy poller) treat every error as
// terminal for that call.
//
// # Error Classification
//
// [Classify] normalizes any failure into the closed [Error] taxonomy. The
// retryable bit is recomputed locally from the code and status:
//
//	retryable == (code == TEMPORARY_UNAVAILABLE || status >= 500)
//
// so a malformed or lying error body cannot change the retry behavior.
// Network-level failures become retryable TEMPORARY_UNAVAILABLE errors;
// 2xx responses with malformed bodies become non-retryable
// VALIDATION_FAILED errors pinned to status 502.
//
// # Side Channels
//
// [Hooks] expose two observation ports decoupled from the request/response
// contract: OnRetry before each backoff wait, and OnAuthError on every
// 401/403 so the UI can prompt re-authentication without being told the
// condition is retryable.
package api
