package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/desertthunder/screener/internal/models"
	"github.com/desertthunder/screener/internal/services"
	"github.com/desertthunder/screener/internal/session"
	"github.com/desertthunder/screener/internal/shared"
	tu "github.com/desertthunder/screener/internal/testing"
	"github.com/urfave/cli/v3"
)

// newTestRunner builds a runner over a stubbed service with captured
// output, plus the root command for dispatching.
func newTestRunner(t *testing.T, svc services.Review) (*Runner, *bytes.Buffer, *cli.Command) {
	t.Helper()

	out := &bytes.Buffer{}
	logger := shared.NewLogger(io.Discard)
	runner := NewRunner(RunnerOpts{
		Service: svc,
		Logger:  logger,
		Output:  out,
		Clock:   tu.NewFakeClock(),
	})
	t.Cleanup(func() { runner.Close() })

	root := &cli.Command{
		Name:     "screener",
		Commands: runner.register(),
	}
	return runner, out, root
}

func run(t *testing.T, root *cli.Command, args ...string) error {
	t.Helper()
	return root.Run(context.Background(), append([]string{"screener"}, args...))
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(RunnerOpts{})

	if r.config == nil {
		t.Error("expected a default config")
	}
	if r.logger == nil {
		t.Error("expected a default logger")
	}
	if r.httpClient == nil {
		t.Error("expected a default HTTP client")
	}
	if r.clock == nil {
		t.Error("expected a default clock")
	}
}

func TestAssetsList(t *testing.T) {
	svc := &tu.ReviewStub{
		ListAssetsFn: func(ctx context.Context, opts services.ListOpts) (*models.AssetPage, error) {
			if opts.State != models.DecisionPending {
				t.Errorf("expected the state filter forwarded, got %q", opts.State)
			}
			return &models.AssetPage{
				Items: []models.AssetSummary{
					{ID: "a1", State: models.DecisionPending, MediaType: "video", Title: "Clip 1"},
				},
				NextCursor: "1",
			}, nil
		},
	}
	_, out, root := newTestRunner(t, svc)

	if err := run(t, root, "assets", "list", "--state", "DECISION_PENDING"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "a1") {
		t.Errorf("expected the asset listed:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "next page: --cursor 1") {
		t.Errorf("expected the pagination hint:\n%s", out.String())
	}
}

func TestAssetsShow(t *testing.T) {
	t.Run("requires an id", func(t *testing.T) {
		_, _, root := newTestRunner(t, &tu.ReviewStub{})
		if err := run(t, root, "assets", "show"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("renders the detail", func(t *testing.T) {
		svc := &tu.ReviewStub{
			GetAssetFn: func(ctx context.Context, id string) (*models.Asset, error) {
				return &models.Asset{
					Summary: models.AssetSummary{ID: id, Title: "Clip 9", State: models.DecisionPending},
					Tags:    []string{"flagged"},
				}, nil
			},
		}
		_, out, root := newTestRunner(t, svc)

		if err := run(t, root, "assets", "show", "a9"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "Clip 9 (a9)") {
			t.Errorf("expected the detail header:\n%s", out.String())
		}
	})
}

func TestAssetsDecide(t *testing.T) {
	t.Run("records a decision", func(t *testing.T) {
		svc := &tu.ReviewStub{
			GetAssetFn: func(ctx context.Context, id string) (*models.Asset, error) {
				return &models.Asset{Summary: models.AssetSummary{ID: id, State: models.DecisionPending}}, nil
			},
		}
		_, out, root := newTestRunner(t, svc)

		if err := run(t, root, "assets", "decide", "keep", "a1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "a1 is now DECIDED_KEEP") {
			t.Errorf("expected the new state printed:\n%s", out.String())
		}
	})

	t.Run("reports a no-op without submitting", func(t *testing.T) {
		svc := &tu.ReviewStub{
			GetAssetFn: func(ctx context.Context, id string) (*models.Asset, error) {
				return &models.Asset{Summary: models.AssetSummary{ID: id, State: models.DecidedKeep}}, nil
			},
			SubmitDecisionFn: func(ctx context.Context, id string, action models.DecisionAction, key string) error {
				t.Error("no submission expected for a no-op")
				return nil
			},
		}
		_, out, root := newTestRunner(t, svc)

		if err := run(t, root, "assets", "decide", "keep", "a1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "no change") {
			t.Errorf("expected the no-op notice:\n%s", out.String())
		}
	})

	t.Run("rejects an unknown action", func(t *testing.T) {
		_, _, root := newTestRunner(t, &tu.ReviewStub{})
		if err := run(t, root, "assets", "decide", "destroy", "a1"); err == nil {
			t.Error("expected an error for an unknown action")
		}
	})
}

func TestAssetsBulk(t *testing.T) {
	t.Run("honors the policy gate", func(t *testing.T) {
		svc := &tu.ReviewStub{
			FetchPolicyFn: func(ctx context.Context) (*services.Policy, error) {
				return &services.Policy{FeatureFlags: map[string]bool{services.FlagBulkDecisions: false}}, nil
			},
		}
		_, _, root := newTestRunner(t, svc)

		err := run(t, root, "assets", "bulk", "--id", "a1", "--id", "a2", "keep")
		if err == nil || !strings.Contains(err.Error(), "bulk actions disabled") {
			t.Errorf("expected the bulk-disabled error, got %v", err)
		}
	})

	t.Run("prints the summary line", func(t *testing.T) {
		svc := &tu.ReviewStub{
			FetchPolicyFn: func(ctx context.Context) (*services.Policy, error) {
				return &services.Policy{FeatureFlags: map[string]bool{services.FlagBulkDecisions: true}}, nil
			},
			GetAssetFn: func(ctx context.Context, id string) (*models.Asset, error) {
				return &models.Asset{Summary: models.AssetSummary{ID: id, State: models.DecisionPending}}, nil
			},
		}
		_, out, root := newTestRunner(t, svc)

		if err := run(t, root, "assets", "bulk", "--id", "a1", "--id", "a2", "keep"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "2 succeeded") {
			t.Errorf("expected the summary line:\n%s", out.String())
		}
	})
}

func TestAssetsTag(t *testing.T) {
	t.Run("requires a tag or notes", func(t *testing.T) {
		_, _, root := newTestRunner(t, &tu.ReviewStub{})
		if err := run(t, root, "assets", "tag", "a1"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("forwards the patch", func(t *testing.T) {
		var got models.MetadataPatch
		svc := &tu.ReviewStub{
			PatchAssetFn: func(ctx context.Context, id string, patch models.MetadataPatch) error {
				got = patch
				return nil
			},
		}
		_, out, root := newTestRunner(t, svc)

		if err := run(t, root, "assets", "tag", "--tag", "flagged", "--notes", "check later", "a1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got.Tags) != 1 || got.Tags[0] != "flagged" {
			t.Errorf("expected tags forwarded, got %v", got.Tags)
		}
		if got.Notes == nil || *got.Notes != "check later" {
			t.Errorf("expected notes forwarded, got %v", got.Notes)
		}
		if !strings.Contains(out.String(), "metadata updated") {
			t.Errorf("expected the confirmation:\n%s", out.String())
		}
	})
}

func TestAssetsPurge(t *testing.T) {
	t.Run("preview only without --confirm", func(t *testing.T) {
		purged := false
		svc := &tu.ReviewStub{
			PurgeFn: func(ctx context.Context, id string, key string) error {
				purged = true
				return nil
			},
			FetchPolicyFn: func(ctx context.Context) (*services.Policy, error) {
				return &services.Policy{FeatureFlags: map[string]bool{services.FlagPurge: true}}, nil
			},
		}
		_, out, root := newTestRunner(t, svc)

		if err := run(t, root, "assets", "purge", "a1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if purged {
			t.Error("purge must not execute without --confirm")
		}
		if !strings.Contains(out.String(), "--confirm") {
			t.Errorf("expected the confirm hint:\n%s", out.String())
		}
	})

	t.Run("purges with --confirm", func(t *testing.T) {
		purged := false
		svc := &tu.ReviewStub{
			PurgeFn: func(ctx context.Context, id string, key string) error {
				purged = true
				return nil
			},
			FetchPolicyFn: func(ctx context.Context) (*services.Policy, error) {
				return &services.Policy{FeatureFlags: map[string]bool{services.FlagPurge: true}}, nil
			},
		}
		_, out, root := newTestRunner(t, svc)

		if err := run(t, root, "assets", "purge", "--confirm", "a1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !purged {
			t.Error("expected the purge executed")
		}
		if !strings.Contains(out.String(), "a1 purged") {
			t.Errorf("expected the confirmation:\n%s", out.String())
		}
	})
}

func TestBatchRun(t *testing.T) {
	svc := &tu.ReviewStub{
		FetchPolicyFn: func(ctx context.Context) (*services.Policy, error) {
			return &services.Policy{FeatureFlags: map[string]bool{services.FlagBatchMoves: true}}, nil
		},
		BatchReportFn: func(ctx context.Context, batchID string) (*models.BatchReport, error) {
			return &models.BatchReport{BatchID: batchID, Status: models.ReportDone, MovedCount: 2}, nil
		},
	}
	_, out, root := newTestRunner(t, svc)

	if err := run(t, root, "batch", "run", "--now", "--id", "a1", "--id", "a2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "moved: 2") {
		t.Errorf("expected the report rendered:\n%s", out.String())
	}

	t.Run("rejected when moves are disabled", func(t *testing.T) {
		svc := &tu.ReviewStub{
			FetchPolicyFn: func(ctx context.Context) (*services.Policy, error) {
				return &services.Policy{FeatureFlags: map[string]bool{}}, nil
			},
		}
		_, _, root := newTestRunner(t, svc)

		err := run(t, root, "batch", "run", "--now", "--id", "a1")
		if !errors.Is(err, shared.ErrMovesDisabled) {
			t.Errorf("expected ErrMovesDisabled, got %v", err)
		}
	})
}

func TestBatchReportCommand(t *testing.T) {
	svc := &tu.ReviewStub{
		BatchReportFn: func(ctx context.Context, batchID string) (*models.BatchReport, error) {
			return &models.BatchReport{BatchID: batchID, Status: models.ReportPartial, MovedCount: 1, FailedCount: 1}, nil
		},
	}
	_, out, root := newTestRunner(t, svc)

	if err := run(t, root, "batch", "report", "b7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "batch b7: PARTIAL") {
		t.Errorf("expected the report header:\n%s", out.String())
	}
}

func TestPolicyShow(t *testing.T) {
	svc := &tu.ReviewStub{
		FetchPolicyFn: func(ctx context.Context) (*services.Policy, error) {
			return &services.Policy{
				FeatureFlags:           map[string]bool{"bulk_decisions": true, "purge": false},
				MinPollIntervalSeconds: 45,
			}, nil
		},
	}
	_, out, root := newTestRunner(t, svc)

	if err := run(t, root, "policy", "show"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "bulk_decisions") {
		t.Errorf("expected the flags table:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "poll interval: 45s") {
		t.Errorf("expected the interval line:\n%s", out.String())
	}
}

func TestSessionCommands(t *testing.T) {
	newStore := func(t *testing.T) *session.Store {
		db, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		store, err := session.NewStore(db)
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}
		return store
	}

	t.Run("token stores a bearer token", func(t *testing.T) {
		store := newStore(t)
		out := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Service: &tu.ReviewStub{},
			Store:   store,
			Logger:  shared.NewLogger(io.Discard),
			Output:  out,
		})
		root := &cli.Command{Name: "screener", Commands: runner.register()}

		if err := root.Run(context.Background(), []string{"screener", "session", "token", "tok-42"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		token, _ := store.Token()
		if token != "tok-42" {
			t.Errorf("expected tok-42 stored, got %q", token)
		}
	})

	t.Run("backend rejects a malformed URL", func(t *testing.T) {
		store := newStore(t)
		runner := NewRunner(RunnerOpts{
			Service: &tu.ReviewStub{},
			Store:   store,
			Logger:  shared.NewLogger(io.Discard),
			Output:  &bytes.Buffer{},
		})
		root := &cli.Command{Name: "screener", Commands: runner.register()}

		if err := root.Run(context.Background(), []string{"screener", "session", "backend", "not a url"}); err == nil {
			t.Error("expected an error for a malformed URL")
		}
		url, _ := store.BaseURL()
		if url != "" {
			t.Errorf("nothing should be stored on failure, got %q", url)
		}
	})

	t.Run("logout clears the token", func(t *testing.T) {
		store := newStore(t)
		store.SetToken("tok-9")
		runner := NewRunner(RunnerOpts{
			Service: &tu.ReviewStub{},
			Store:   store,
			Logger:  shared.NewLogger(io.Discard),
			Output:  &bytes.Buffer{},
		})
		root := &cli.Command{Name: "screener", Commands: runner.register()}

		if err := root.Run(context.Background(), []string{"screener", "session", "logout"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		token, _ := store.Token()
		if token != "" {
			t.Errorf("expected the token cleared, got %q", token)
		}
	})
}
