package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/screener/internal/formatter"
	"github.com/desertthunder/screener/internal/policy"
	"github.com/desertthunder/screener/internal/shared"
	"github.com/desertthunder/screener/internal/workflow"
	"github.com/urfave/cli/v3"
)

// PolicyShow fetches the server policy once and prints the flags.
func (r *Runner) PolicyShow(ctx context.Context, cmd *cli.Command) error {
	r.applyConfig(cmd)

	svc, err := r.service()
	if err != nil {
		return err
	}

	pol, err := svc.FetchPolicy(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, workflow.MessageFor(err))
	}

	if cmd.Bool("json") {
		return r.writeJSON(pol, true)
	}

	r.writePlain("%s", formatter.Flags(pol.FeatureFlags))
	return r.writePlain("poll interval: %.0fs\n", pol.MinPollIntervalSeconds)
}

// PolicyWatch runs the adaptive poller until interrupted, logging every
// flag update.
func (r *Runner) PolicyWatch(ctx context.Context, cmd *cli.Command) error {
	r.applyConfig(cmd)

	svc, err := r.service()
	if err != nil {
		return err
	}

	poller := policy.NewPoller(policy.PollerOpts{
		Service:         svc,
		Clock:           r.clock,
		Logger:          r.logger,
		DefaultInterval: r.config.Policy.DefaultInterval(),
		OnUpdate: func(snap policy.Snapshot) {
			r.writePlain("%s", formatter.Flags(snap.FeatureFlags))
			r.writePlain("next poll in %s\n\n", snap.Interval)
		},
	})

	r.logger.Info("watching policy, ctrl+c to stop")
	poller.Run(ctx)
	return ctx.Err()
}
