// Package workflow applies single-asset and bulk review decisions and
// drives the two-phase purge flow.
//
// The controller is deliberately conservative: a decision that would not
// change an asset's state makes no network call at all, partial bulk
// failures are tolerated and reported rather than retried, and a state
// conflict only flags the asset for a manual refresh. Blind retries
// could mask a legitimate concurrent edit by another operator.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/screener/internal/api"
	"github.com/desertthunder/screener/internal/models"
	"github.com/desertthunder/screener/internal/services"
	"github.com/desertthunder/screener/internal/shared"
	"golang.org/x/time/rate"
)

// PolicyFunc reports whether a feature flag is currently enabled,
// typically backed by the policy poller's snapshot.
type PolicyFunc func(flag string) bool

// Opts contains configuration options for creating a [Controller].
type Opts struct {
	Service services.Review
	Logger  *log.Logger

	// Policy gates bulk decisions and purges. Nil permits everything,
	// for sessions running without a poller.
	Policy PolicyFunc

	// BulkRateLimit caps bulk decision submissions per second.
	BulkRateLimit float64
}

// Controller owns the client-side decision state for a review session:
// last known asset states, needs-refresh flags, and the current purge
// selection.
type Controller struct {
	svc     services.Review
	logger  *log.Logger
	policy  PolicyFunc
	limiter *rate.Limiter

	mu             sync.Mutex
	states         map[string]models.AssetState
	needsRefresh   map[string]bool
	purgeTarget    string
	purgePreviewed bool
}

// NewController creates a [Controller]. Service is required.
func NewController(opts Opts) *Controller {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.BulkRateLimit <= 0 {
		opts.BulkRateLimit = 5.0
	}

	return &Controller{
		svc:          opts.Service,
		logger:       opts.Logger,
		policy:       opts.Policy,
		limiter:      rate.NewLimiter(rate.Limit(opts.BulkRateLimit), 1),
		states:       make(map[string]models.AssetState),
		needsRefresh: make(map[string]bool),
	}
}

// Track records the last known state of an asset, fed from listings and
// detail fetches so decisions can be computed without a round trip.
func (c *Controller) Track(id string, state models.AssetState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[id] = state
}

// TrackPage records states for a whole listing page.
func (c *Controller) TrackPage(page *models.AssetPage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range page.Items {
		c.states[item.ID] = item.State
	}
}

// State returns the last known state for an asset.
func (c *Controller) State(id string) (models.AssetState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.states[id]
	return s, ok
}

// NeedsRefresh reports whether a state conflict has flagged the asset
// for a forced refresh.
func (c *Controller) NeedsRefresh(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.needsRefresh[id]
}

// Decide applies an action to one asset. Returns false with no error,
// and makes no network call, when the action would not change the state.
// On success the new state is applied locally; on failure local state is
// left untouched and a conflict flags the asset for refresh.
func (c *Controller) Decide(ctx context.Context, id string, action models.DecisionAction) (bool, error) {
	c.mu.Lock()
	current, known := c.states[id]
	c.mu.Unlock()

	if !known {
		asset, err := c.svc.GetAsset(ctx, id)
		if err != nil {
			return false, err
		}
		current = asset.Summary.State
		c.Track(id, current)
	}

	target := models.NextState(action, current)
	if target == current {
		return false, nil
	}

	key := shared.GenerateID()
	if err := c.svc.SubmitDecision(ctx, id, action, key); err != nil {
		c.flagConflict(id, err)
		return false, err
	}

	c.mu.Lock()
	c.states[id] = target
	c.mu.Unlock()
	c.logger.Info("decision applied", "asset", id, "action", action, "state", target)
	return true, nil
}

// BulkResult summarizes a bulk decision run.
type BulkResult struct {
	Succeeded int
	Failed    int
	FirstErr  string
}

// Status renders the combined "N succeeded, M failed" line for display.
func (r BulkResult) Status() string {
	if r.Failed == 0 {
		return fmt.Sprintf("%d succeeded", r.Succeeded)
	}
	return fmt.Sprintf("%d succeeded, %d failed: %s", r.Succeeded, r.Failed, r.FirstErr)
}

// DecideMany applies one action across a set of assets sequentially
// under the rate limiter, tolerating partial failure. Assets whose
// decision would be a no-op count as succeeded without a network call.
func (c *Controller) DecideMany(ctx context.Context, ids []string, action models.DecisionAction) (BulkResult, error) {
	if c.policy != nil && !c.policy(services.FlagBulkDecisions) {
		return BulkResult{}, shared.ErrBulkDisabled
	}

	var result BulkResult
	for _, id := range ids {
		if err := c.limiter.Wait(ctx); err != nil {
			return result, err
		}

		if _, err := c.Decide(ctx, id, action); err != nil {
			result.Failed++
			if result.FirstErr == "" {
				result.FirstErr = MessageFor(err)
			}
			continue
		}
		result.Succeeded++
	}

	c.logger.Info("bulk decision finished", "action", action, "succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}

// PatchMetadata updates tags/notes for an asset. A conflict flags the
// asset for refresh; the patch is never retried here.
func (c *Controller) PatchMetadata(ctx context.Context, id string, patch models.MetadataPatch) error {
	if err := c.svc.PatchAsset(ctx, id, patch); err != nil {
		c.flagConflict(id, err)
		return err
	}
	return nil
}

// Refresh re-fetches the asset detail, reconciles the locally tracked
// state, and clears the needs-refresh flag. This is the only recovery
// path from a state conflict.
func (c *Controller) Refresh(ctx context.Context, id string) (*models.Asset, error) {
	asset, err := c.svc.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.states[id] = asset.Summary.State
	delete(c.needsRefresh, id)
	c.mu.Unlock()
	return asset, nil
}

// SelectForPurge sets the purge target. Selecting a different asset
// invalidates any previous preview, so confirm is disabled again until
// the new target has been previewed.
func (c *Controller) SelectForPurge(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.purgeTarget != id {
		c.purgeTarget = id
		c.purgePreviewed = false
	}
}

// PurgePreview dry-runs the purge for the currently selected asset.
// Confirm is enabled only after this succeeds.
func (c *Controller) PurgePreview(ctx context.Context) error {
	if c.policy != nil && !c.policy(services.FlagPurge) {
		return shared.ErrPurgeDisabled
	}

	c.mu.Lock()
	target := c.purgeTarget
	c.mu.Unlock()

	if target == "" {
		return fmt.Errorf("%w: no asset selected for purge", shared.ErrInvalidInput)
	}

	if err := c.svc.PurgePreview(ctx, target); err != nil {
		c.flagConflict(target, err)
		return err
	}

	c.mu.Lock()
	// Re-check: the selection may have moved while the preview was in
	// flight, in which case its result no longer applies.
	if c.purgeTarget == target {
		c.purgePreviewed = true
	}
	c.mu.Unlock()
	return nil
}

// PurgeConfirm permanently removes the previewed asset. Requires a
// successful preview for the current selection.
func (c *Controller) PurgeConfirm(ctx context.Context) error {
	c.mu.Lock()
	target := c.purgeTarget
	previewed := c.purgePreviewed
	c.mu.Unlock()

	if c.policy != nil && !c.policy(services.FlagPurge) {
		return shared.ErrPurgeDisabled
	}
	if target == "" || !previewed {
		return shared.ErrPreviewRequired
	}

	key := shared.GenerateID()
	if err := c.svc.Purge(ctx, target, key); err != nil {
		c.flagConflict(target, err)
		return err
	}

	c.mu.Lock()
	delete(c.states, target)
	delete(c.needsRefresh, target)
	c.purgeTarget = ""
	c.purgePreviewed = false
	c.mu.Unlock()
	c.logger.Info("asset purged", "asset", target)
	return nil
}

// flagConflict marks the asset for a forced refresh when the failure was
// a state conflict.
func (c *Controller) flagConflict(id string, err error) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Conflict() {
		c.mu.Lock()
		c.needsRefresh[id] = true
		c.mu.Unlock()
		c.logger.Warn("state conflict, asset flagged for refresh", "asset", id)
	}
}
