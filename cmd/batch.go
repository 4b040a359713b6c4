package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/screener/internal/batch"
	"github.com/desertthunder/screener/internal/formatter"
	"github.com/desertthunder/screener/internal/services"
	"github.com/desertthunder/screener/internal/shared"
	"github.com/desertthunder/screener/internal/workflow"
	"github.com/urfave/cli/v3"
)

func (r *Runner) orchestrator() (*batch.Orchestrator, error) {
	svc, err := r.service()
	if err != nil {
		return nil, err
	}
	return batch.NewOrchestrator(batch.Opts{
		Service:        svc,
		Clock:          r.clock,
		Logger:         r.logger,
		UndoWindow:     r.config.Batch.UndoWindow(),
		ReportInterval: r.config.Batch.ReportInterval(),
	}), nil
}

// BatchPreview validates a batch move selection without executing it.
func (r *Runner) BatchPreview(ctx context.Context, cmd *cli.Command) error {
	r.applyConfig(cmd)

	ids := cmd.StringSlice("id")
	orch, err := r.orchestrator()
	if err != nil {
		return err
	}

	if err := orch.SetSelection(ids); err != nil {
		return err
	}
	if err := orch.Preview(ctx); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, workflow.MessageFor(err))
	}

	snap := orch.Snapshot()
	return r.writePlain("✓ preview passed for %d assets\n", len(snap.Selection))
}

// BatchRun queues a batch move, honors the undo window, and waits for
// the terminal report.
func (r *Runner) BatchRun(ctx context.Context, cmd *cli.Command) error {
	r.applyConfig(cmd)

	ids := cmd.StringSlice("id")
	mode := cmd.String("mode")

	svc, err := r.service()
	if err != nil {
		return err
	}
	if policy, perr := svc.FetchPolicy(ctx); perr == nil && !policy.Enabled(services.FlagBatchMoves) {
		return shared.ErrMovesDisabled
	}

	orch, err := r.orchestrator()
	if err != nil {
		return err
	}

	if err := orch.SetSelection(ids); err != nil {
		return err
	}

	r.logger.Info("previewing batch move", "count", len(ids), "mode", mode)
	if err := orch.Preview(ctx); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, workflow.MessageFor(err))
	}

	if err := orch.QueueExecution(ctx, mode); err != nil {
		return err
	}

	if cmd.Bool("now") {
		if err := orch.ConfirmNow(); err != nil {
			return err
		}
	} else {
		snap := orch.Snapshot()
		remaining := snap.Remaining(r.clock.Now()).Round(time.Second)
		r.writePlain("executing in %s (ctrl+c to abandon)\n", remaining)
	}

	if err := orch.Await(ctx); err != nil {
		// Interrupted before execution fired; nothing was sent.
		if orch.CancelPending() {
			r.writePlain("batch move cancelled\n")
			return nil
		}
		return err
	}

	snap := orch.Snapshot()
	r.writePlain("%s\n", formatter.Timeline(batch.Timeline(snap.Phase)))

	if snap.Err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, workflow.MessageFor(snap.Err))
	}
	if snap.Report != nil {
		r.writePlain("%s", formatter.Report(snap.Report))
	}
	return nil
}

// BatchReport fetches the report for a previously executed batch.
func (r *Runner) BatchReport(ctx context.Context, cmd *cli.Command) error {
	r.applyConfig(cmd)

	batchID := cmd.StringArg("batch-id")
	if batchID == "" {
		return fmt.Errorf("%w: batch id is required", shared.ErrMissingArgument)
	}

	svc, err := r.service()
	if err != nil {
		return err
	}

	report, err := svc.BatchReport(ctx, batchID)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, workflow.MessageFor(err))
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}
	return r.writePlain("%s", formatter.Report(report))
}
