// package services defines interface [Review] for the media review backend API
package services

import (
	"context"

	"github.com/desertthunder/screener/internal/models"
)

// Review defines the typed surface of the review backend. The workflow
// controller, batch orchestrator, and policy poller all depend on this
// interface rather than the concrete HTTP implementation, allowing test
// doubles to stand in for the backend.
type Review interface {
	// ListAssets retrieves a page of asset summaries.
	ListAssets(ctx context.Context, opts ListOpts) (*models.AssetPage, error)

	// GetAsset retrieves the full detail for a single asset.
	GetAsset(ctx context.Context, id string) (*models.Asset, error)

	// PatchAsset updates an asset's tags and/or notes. The payload is
	// normalized (trimmed, deduplicated) before submission.
	PatchAsset(ctx context.Context, id string, patch models.MetadataPatch) error

	// SubmitDecision applies a KEEP/REJECT/CLEAR action to one asset.
	// key is the idempotency key for this logical decision.
	SubmitDecision(ctx context.Context, id string, action models.DecisionAction, key string) error

	// PurgePreview dry-runs a purge for the asset.
	PurgePreview(ctx context.Context, id string) error

	// Purge permanently removes the asset. key is the idempotency key
	// for this purge attempt.
	Purge(ctx context.Context, id string, key string) error

	// PreviewBatchMove dry-runs a batch move for the selection.
	PreviewBatchMove(ctx context.Context, selection []string) error

	// ExecuteBatchMove starts a batch move and returns the
	// server-assigned batch ID. key is the idempotency key for this
	// execution attempt.
	ExecuteBatchMove(ctx context.Context, mode string, selection []string, key string) (string, error)

	// BatchReport fetches the current report for a batch move. The
	// report may be in progress or terminal; errors are sorted by asset
	// ID for deterministic display.
	BatchReport(ctx context.Context, batchID string) (*models.BatchReport, error)

	// FetchPolicy retrieves the server-controlled feature flags and the
	// minimum poll interval.
	FetchPolicy(ctx context.Context) (*Policy, error)
}

// ListOpts narrows an asset listing.
type ListOpts struct {
	State  models.AssetState
	Limit  int
	Cursor string
}

// Policy is the server-controlled policy document.
type Policy struct {
	FeatureFlags           map[string]bool
	MinPollIntervalSeconds float64
}

// Enabled reports whether a feature flag is on. Missing flags are off.
func (p *Policy) Enabled(flag string) bool {
	if p == nil {
		return false
	}
	return p.FeatureFlags[flag]
}

// Feature flags the client consumes.
const (
	FlagBulkDecisions = "bulk_decisions"
	FlagBatchMoves    = "batch_moves"
	FlagPurge         = "purge"
)
