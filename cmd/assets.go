package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/screener/internal/formatter"
	"github.com/desertthunder/screener/internal/models"
	"github.com/desertthunder/screener/internal/services"
	"github.com/desertthunder/screener/internal/shared"
	"github.com/desertthunder/screener/internal/workflow"
	"github.com/urfave/cli/v3"
)

// applyConfig reloads configuration when the command's --config path
// points at an existing file.
func (r *Runner) applyConfig(cmd *cli.Command) {
	path := cmd.String("config")
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, keeping current settings", "path", path, "error", err)
		return
	}
	r.config = config
}

// AssetsList prints a page of the review queue.
func (r *Runner) AssetsList(ctx context.Context, cmd *cli.Command) error {
	r.applyConfig(cmd)

	svc, err := r.service()
	if err != nil {
		return err
	}

	opts := services.ListOpts{
		State:  models.AssetState(cmd.String("state")),
		Limit:  int(cmd.Int("limit")),
		Cursor: cmd.String("cursor"),
	}

	r.logger.Info("listing assets", "state", opts.State, "limit", opts.Limit)

	page, err := svc.ListAssets(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, workflow.MessageFor(err))
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, true)
	}

	r.writePlain("%s", formatter.AssetTable(page))
	if page.NextCursor != "" {
		r.writePlainln("next page: --cursor %s", page.NextCursor)
	}
	return nil
}

// AssetsShow prints the full detail for one asset.
func (r *Runner) AssetsShow(ctx context.Context, cmd *cli.Command) error {
	r.applyConfig(cmd)

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: asset id is required", shared.ErrMissingArgument)
	}

	svc, err := r.service()
	if err != nil {
		return err
	}

	asset, err := svc.GetAsset(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, workflow.MessageFor(err))
	}

	if cmd.Bool("json") {
		return r.writeJSON(asset, true)
	}

	return r.writePlain("%s", formatter.AssetDetail(asset))
}

// AssetsDecide records one decision for one asset.
func (r *Runner) AssetsDecide(ctx context.Context, cmd *cli.Command) error {
	r.applyConfig(cmd)

	action, err := models.ParseAction(cmd.StringArg("action"))
	if err != nil {
		return err
	}
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: asset id is required", shared.ErrMissingArgument)
	}

	controller, err := r.controller(nil)
	if err != nil {
		return err
	}

	changed, err := controller.Decide(ctx, id, action)
	if err != nil {
		if controller.NeedsRefresh(id) {
			r.writePlain("✗ %s\n", workflow.MessageFor(err))
			return r.writePlain("run 'screener assets refresh %s' and decide again\n", id)
		}
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, workflow.MessageFor(err))
	}

	if !changed {
		return r.writePlain("no change: asset already in the requested state\n")
	}

	state, _ := controller.State(id)
	return r.writePlain("✓ %s is now %s\n", id, state)
}

// AssetsBulk applies one decision to several assets, tolerating partial failure.
func (r *Runner) AssetsBulk(ctx context.Context, cmd *cli.Command) error {
	r.applyConfig(cmd)

	action, err := models.ParseAction(cmd.StringArg("action"))
	if err != nil {
		return err
	}
	ids := cmd.StringSlice("id")

	svc, err := r.service()
	if err != nil {
		return err
	}

	// One-shot policy fetch; the long-lived poller belongs to the TUI.
	policy, err := svc.FetchPolicy(ctx)
	if err != nil {
		r.logger.Warn("policy fetch failed, bulk decisions may be rejected", "error", err)
	}
	var gate workflow.PolicyFunc
	if policy != nil {
		gate = func(flag string) bool { return policy.Enabled(flag) }
	}

	controller, err := r.controller(gate)
	if err != nil {
		return err
	}

	r.logger.Info("submitting bulk decision", "action", action, "count", len(ids))

	result, err := controller.DecideMany(ctx, ids, action)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, workflow.MessageFor(err))
	}

	return r.writePlain("%s\n", result.Status())
}

// AssetsTag replaces an asset's tags or notes.
func (r *Runner) AssetsTag(ctx context.Context, cmd *cli.Command) error {
	r.applyConfig(cmd)

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: asset id is required", shared.ErrMissingArgument)
	}

	patch := models.MetadataPatch{}
	if cmd.IsSet("tag") {
		patch.Tags = cmd.StringSlice("tag")
	}
	if cmd.IsSet("notes") {
		notes := cmd.String("notes")
		patch.Notes = &notes
	}
	if patch.Tags == nil && patch.Notes == nil {
		return fmt.Errorf("%w: provide --tag or --notes", shared.ErrMissingArgument)
	}

	controller, err := r.controller(nil)
	if err != nil {
		return err
	}

	if err := controller.PatchMetadata(ctx, id, patch); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, workflow.MessageFor(err))
	}

	return r.writePlain("✓ metadata updated for %s\n", id)
}

// AssetsRefresh reloads server state for an asset and clears its
// needs-refresh flag.
func (r *Runner) AssetsRefresh(ctx context.Context, cmd *cli.Command) error {
	r.applyConfig(cmd)

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: asset id is required", shared.ErrMissingArgument)
	}

	controller, err := r.controller(nil)
	if err != nil {
		return err
	}

	asset, err := controller.Refresh(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, workflow.MessageFor(err))
	}

	return r.writePlain("%s", formatter.AssetDetail(asset))
}

// AssetsPurge previews a purge and, with --confirm, executes it.
func (r *Runner) AssetsPurge(ctx context.Context, cmd *cli.Command) error {
	r.applyConfig(cmd)

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: asset id is required", shared.ErrMissingArgument)
	}

	svc, err := r.service()
	if err != nil {
		return err
	}

	policy, err := svc.FetchPolicy(ctx)
	if err != nil {
		r.logger.Warn("policy fetch failed, purge may be rejected", "error", err)
	}
	var gate workflow.PolicyFunc
	if policy != nil {
		gate = func(flag string) bool { return policy.Enabled(flag) }
	}

	controller, err := r.controller(gate)
	if err != nil {
		return err
	}

	controller.SelectForPurge(id)
	if err := controller.PurgePreview(ctx); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, workflow.MessageFor(err))
	}

	r.writePlain("purge preview passed for %s\n", id)

	if !cmd.Bool("confirm") {
		return r.writePlain("re-run with --confirm to delete permanently\n")
	}

	if err := controller.PurgeConfirm(ctx); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, workflow.MessageFor(err))
	}

	return r.writePlain("✓ %s purged\n", id)
}
