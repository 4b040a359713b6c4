// Package batch drives the multi-step batch move state machine.
//
// One orchestrator owns one batch execution record at a time: preview
// (dry-run validation), a pending-execution window allowing undo, the
// execute request itself, and polling for the asynchronous terminal
// report. Only one execution may be in flight; queueing another while one
// is pending, executing, or polling is rejected until the current one
// reaches a terminal phase or is cancelled.
package batch

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/screener/internal/models"
	"github.com/desertthunder/screener/internal/services"
	"github.com/desertthunder/screener/internal/shared"
)

// Phase enumerates the batch move lifecycle.
type Phase int

const (
	Idle Phase = iota
	Previewing
	Previewed
	PendingExecution
	Executing
	Executed
	PollingReport
	Done
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Previewing:
		return "previewing"
	case Previewed:
		return "previewed"
	case PendingExecution:
		return "pending_execution"
	case Executing:
		return "executing"
	case Executed:
		return "executed"
	case PollingReport:
		return "polling_report"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// inFlight reports whether an execution is underway, which blocks
// queueing another batch.
func (p Phase) inFlight() bool {
	switch p {
	case PendingExecution, Executing, Executed, PollingReport:
		return true
	}
	return false
}

// Snapshot is a point-in-time view of the orchestrator for UIs.
type Snapshot struct {
	Phase     Phase
	Selection []string
	ExpiresAt time.Time // valid only in PendingExecution
	BatchID   string    // valid from Executed onward
	Report    *models.BatchReport
	Err       error
}

// Remaining returns the time left in the undo window at now, zero once
// expired or outside PendingExecution.
func (s Snapshot) Remaining(now time.Time) time.Duration {
	if s.Phase != PendingExecution {
		return 0
	}
	if r := s.ExpiresAt.Sub(now); r > 0 {
		return r
	}
	return 0
}

// Opts contains configuration options for creating an [Orchestrator].
type Opts struct {
	Service services.Review
	Clock   shared.Clock
	Logger  *log.Logger

	// UndoWindow is the grace period between queueing and execution.
	UndoWindow time.Duration

	// ReportInterval is the delay between report polls.
	ReportInterval time.Duration
}

// Orchestrator owns the batch execution record for the lifetime of one
// batch operation.
type Orchestrator struct {
	svc            services.Review
	clock          shared.Clock
	logger         *log.Logger
	undoWindow     time.Duration
	reportInterval time.Duration

	mu        sync.Mutex
	phase     Phase
	selection []string
	mode      string
	expiresAt time.Time
	undoTimer shared.Timer
	execCtx   context.Context
	batchID   string
	report    *models.BatchReport
	lastErr   error
	done      chan struct{}
}

// NewOrchestrator creates an [Orchestrator]. Service is required.
func NewOrchestrator(opts Opts) *Orchestrator {
	if opts.Clock == nil {
		opts.Clock = shared.NewClock()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.UndoWindow <= 0 {
		opts.UndoWindow = 5 * time.Second
	}
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = 2 * time.Second
	}

	return &Orchestrator{
		svc:            opts.Service,
		clock:          opts.Clock,
		logger:         opts.Logger,
		undoWindow:     opts.UndoWindow,
		reportInterval: opts.ReportInterval,
	}
}

// SetSelection replaces the batch selection, deduplicating while
// preserving order. Rejected while an execution is in flight: the
// selection is immutable once execution starts.
func (o *Orchestrator) SetSelection(ids []string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase.inFlight() || o.phase == Previewing {
		return fmt.Errorf("%w: cannot change selection in phase %s", shared.ErrBatchInFlight, o.phase)
	}

	seen := make(map[string]bool, len(ids))
	selection := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		selection = append(selection, id)
	}
	o.selection = selection
	o.phase = Idle
	o.lastErr = nil
	return nil
}

// Snapshot returns the current state. Safe from any goroutine.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	sel := make([]string, len(o.selection))
	copy(sel, o.selection)
	return Snapshot{
		Phase:     o.phase,
		Selection: sel,
		ExpiresAt: o.expiresAt,
		BatchID:   o.batchID,
		Report:    o.report,
		Err:       o.lastErr,
	}
}

// Preview dry-runs the move for the current selection. On failure the
// phase returns to idle with the error surfaced; the selection itself is
// never retried automatically.
func (o *Orchestrator) Preview(ctx context.Context) error {
	o.mu.Lock()
	if o.phase != Idle && o.phase != Previewed {
		phase := o.phase
		o.mu.Unlock()
		return fmt.Errorf("%w: cannot preview in phase %s", shared.ErrBatchInFlight, phase)
	}
	if len(o.selection) == 0 {
		o.mu.Unlock()
		return fmt.Errorf("%w: empty batch selection", shared.ErrInvalidInput)
	}
	o.phase = Previewing
	sel := make([]string, len(o.selection))
	copy(sel, o.selection)
	o.mu.Unlock()

	err := o.svc.PreviewBatchMove(ctx, sel)

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.phase = Idle
		o.lastErr = err
		return err
	}
	o.phase = Previewed
	o.lastErr = nil
	o.logger.Info("batch preview ready", "assets", len(sel))
	return nil
}

// QueueExecution arms the undo window. When it elapses the move
// auto-confirms; [Orchestrator.CancelPending] before then resets to idle
// without any network call. ctx outlives the window: it is the session
// context the eventual execution and report polling run under.
func (o *Orchestrator) QueueExecution(ctx context.Context, mode string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase.inFlight() {
		return fmt.Errorf("%w: phase %s", shared.ErrBatchInFlight, o.phase)
	}
	if len(o.selection) == 0 {
		return fmt.Errorf("%w: empty batch selection", shared.ErrInvalidInput)
	}

	o.phase = PendingExecution
	o.mode = mode
	o.expiresAt = o.clock.Now().Add(o.undoWindow)
	o.execCtx = ctx
	o.batchID = ""
	o.report = nil
	o.lastErr = nil
	o.done = make(chan struct{})

	// The timer may race a concurrent cancel; execute re-checks the
	// phase under the mutex before proceeding.
	o.undoTimer = o.clock.AfterFunc(o.undoWindow, func() { o.execute(ctx) })

	o.logger.Info("batch execution queued", "assets", len(o.selection), "undo_window", o.undoWindow)
	return nil
}

// CancelPending cancels a queued execution before the undo window
// elapses. Pure local state reset: no network call, selection untouched.
// Safe to call at any time; once the phase has left PendingExecution it
// is a no-op returning false.
func (o *Orchestrator) CancelPending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != PendingExecution {
		return false
	}

	if o.undoTimer != nil {
		o.undoTimer.Stop()
		o.undoTimer = nil
	}
	o.phase = Idle
	o.expiresAt = time.Time{}
	if o.done != nil {
		close(o.done)
		o.done = nil
	}
	o.logger.Info("batch execution cancelled within undo window")
	return true
}

// ConfirmNow skips the remainder of the undo window and executes
// immediately.
func (o *Orchestrator) ConfirmNow() error {
	o.mu.Lock()
	if o.phase != PendingExecution {
		phase := o.phase
		o.mu.Unlock()
		return fmt.Errorf("%w: nothing pending in phase %s", shared.ErrUndoExpired, phase)
	}
	if o.undoTimer != nil {
		o.undoTimer.Stop()
		o.undoTimer = nil
	}
	ctx := o.execCtx
	o.mu.Unlock()

	o.execute(ctx)
	return nil
}

// Await blocks until the queued execution reaches a terminal phase or is
// cancelled, returning the batch error if it failed.
func (o *Orchestrator) Await(ctx context.Context) error {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()

	if done == nil {
		return o.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return o.Err()
	}
}

// Err returns the batch error, nil unless the phase is Failed.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// RefreshReport re-fetches the report on demand. It stores the fresh
// report for display but never changes the state machine phase; callers
// may invoke it any number of times.
func (o *Orchestrator) RefreshReport(ctx context.Context) (*models.BatchReport, error) {
	o.mu.Lock()
	batchID := o.batchID
	o.mu.Unlock()

	if batchID == "" {
		return nil, fmt.Errorf("%w: no batch executed", shared.ErrBatchNotFound)
	}

	report, err := o.svc.BatchReport(ctx, batchID)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.report = report
	o.mu.Unlock()
	return report, nil
}

// Reset discards a terminal batch record so a new batch can be composed.
// The selection is preserved. No-op while an execution is in flight.
func (o *Orchestrator) Reset() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase.inFlight() || o.phase == Previewing {
		return false
	}
	o.phase = Idle
	o.batchID = ""
	o.report = nil
	o.lastErr = nil
	o.expiresAt = time.Time{}
	return true
}

// execute runs the move. Entered from the undo timer or ConfirmNow,
// whichever fires first; the phase re-check under the mutex makes the
// race with CancelPending safe.
func (o *Orchestrator) execute(ctx context.Context) {
	o.mu.Lock()
	if o.phase != PendingExecution {
		o.mu.Unlock()
		return
	}
	o.phase = Executing
	o.expiresAt = time.Time{}
	o.undoTimer = nil
	sel := make([]string, len(o.selection))
	copy(sel, o.selection)
	mode := o.mode
	o.mu.Unlock()

	// Fresh key per execution attempt; the engine reuses it across its
	// internal retries of this attempt.
	key := shared.GenerateID()
	batchID, err := o.svc.ExecuteBatchMove(ctx, mode, sel, key)

	o.mu.Lock()
	if o.phase != Executing {
		// Torn down while the request was in flight; discard the result.
		o.mu.Unlock()
		return
	}
	if err != nil {
		o.phase = Failed
		o.lastErr = err
		done := o.done
		o.done = nil
		o.mu.Unlock()
		o.logger.Error("batch execution failed", "err", err)
		if done != nil {
			close(done)
		}
		return
	}

	o.phase = Executed
	o.batchID = batchID
	o.mu.Unlock()
	o.logger.Info("batch execution accepted", "batch_id", batchID)

	o.pollReport(ctx, batchID)
}

// pollReport polls until the report reaches a terminal status or ctx is
// cancelled.
func (o *Orchestrator) pollReport(ctx context.Context, batchID string) {
	o.mu.Lock()
	o.phase = PollingReport
	o.mu.Unlock()

	for {
		report, err := o.svc.BatchReport(ctx, batchID)
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			o.finish(Failed, nil, err)
			return
		}

		o.mu.Lock()
		o.report = report
		o.mu.Unlock()

		if report.Status.Terminal() {
			o.finish(Done, report, nil)
			return
		}

		if err := o.clock.Sleep(ctx, o.reportInterval); err != nil {
			return
		}
	}
}

func (o *Orchestrator) finish(phase Phase, report *models.BatchReport, err error) {
	o.mu.Lock()
	o.phase = phase
	if report != nil {
		o.report = report
	}
	o.lastErr = err
	done := o.done
	o.done = nil
	o.mu.Unlock()

	if done != nil {
		close(done)
	}
}
