package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/screener/internal/policy"
	"github.com/desertthunder/screener/internal/shared"
	"github.com/desertthunder/screener/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive review queue.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	r.applyConfig(cmd)

	svc, err := r.service()
	if err != nil {
		return err
	}

	// Silence logs so they do not interfere with TUI rendering.
	shared.SetLogOutput(r.logger, io.Discard)

	poller := policy.NewPoller(policy.PollerOpts{
		Service:         svc,
		Clock:           r.clock,
		Logger:          r.logger,
		DefaultInterval: r.config.Policy.DefaultInterval(),
	})

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go poller.Run(pollCtx)

	gate := func(flag string) bool { return poller.Snapshot().Enabled(flag) }

	controller, err := r.controller(gate)
	if err != nil {
		return err
	}
	orch, err := r.orchestrator()
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, svc, controller, orch, gate)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
