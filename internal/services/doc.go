// Package services defines the [Review] interface for the media review backend and implements it over HTTP.
//
// # Review Interface
//
// Every remote operation the client performs goes through [Review]:
// asset listing and detail, metadata patches, decisions, purges, batch
// moves with their asynchronous reports, and the policy document. The
// workflow controller, batch orchestrator, and policy poller depend only
// on this interface, so tests substitute in-memory doubles.
//
// # HTTP Implementation
//
// [ReviewService] maps each operation to one endpoint and delegates all
// transport concerns (bearer auth, retries, idempotency headers, error
// normalization) to the request engine in the api package. Each request
// declares the minimal structural contract of its endpoint (an items
// array, a summary object with a uuid, a batch_id), and malformed
// responses surface as VALIDATION_FAILED rather than leaking partial
// data.
//
// Listing is deliberately lenient at the item level: a malformed entry
// gets a positional fallback identifier instead of failing the page.
//
// # Error Handling
//
// All failures are [api.Error] values; services add no wrapping of their
// own so callers can inspect code, status, and correlation ID directly.
package services
