package models

import (
	"reflect"
	"testing"
)

func TestParseAction(t *testing.T) {
	t.Run("accepts known actions case-insensitively", func(t *testing.T) {
		cases := map[string]DecisionAction{
			"KEEP":    ActionKeep,
			"keep":    ActionKeep,
			" Reject": ActionReject,
			"clear":   ActionClear,
		}
		for input, want := range cases {
			got, err := ParseAction(input)
			if err != nil {
				t.Errorf("ParseAction(%q) returned error: %v", input, err)
			}
			if got != want {
				t.Errorf("ParseAction(%q) = %q, want %q", input, got, want)
			}
		}
	})

	t.Run("rejects unknown input", func(t *testing.T) {
		if _, err := ParseAction("delete"); err == nil {
			t.Error("expected error for unknown action")
		}
	})
}

func TestNextState(t *testing.T) {
	cases := []struct {
		name    string
		action  DecisionAction
		current AssetState
		want    AssetState
	}{
		{"keep from pending", ActionKeep, DecisionPending, DecidedKeep},
		{"keep from rejected", ActionKeep, DecidedReject, DecidedKeep},
		{"keep is idempotent", ActionKeep, DecidedKeep, DecidedKeep},
		{"reject from pending", ActionReject, DecisionPending, DecidedReject},
		{"reject from kept", ActionReject, DecidedKeep, DecidedReject},
		{"clear kept", ActionClear, DecidedKeep, DecisionPending},
		{"clear rejected", ActionClear, DecidedReject, DecisionPending},
		{"clear pending is a no-op", ActionClear, DecisionPending, DecisionPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextState(tc.action, tc.current); got != tc.want {
				t.Errorf("NextState(%s, %s) = %s, want %s", tc.action, tc.current, got, tc.want)
			}
		})
	}
}

func TestAssetState(t *testing.T) {
	t.Run("known states are valid", func(t *testing.T) {
		for _, s := range []AssetState{DecisionPending, DecidedKeep, DecidedReject} {
			if !s.Valid() {
				t.Errorf("expected %s to be valid", s)
			}
		}
	})

	t.Run("unknown state is invalid", func(t *testing.T) {
		if AssetState("ARCHIVED").Valid() {
			t.Error("expected ARCHIVED to be invalid")
		}
	})
}

func TestNormalizeTags(t *testing.T) {
	t.Run("trims, drops empties, deduplicates", func(t *testing.T) {
		got := NormalizeTags([]string{" sports ", "", "news", "sports", "  "})
		want := []string{"sports", "news"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("NormalizeTags = %v, want %v", got, want)
		}
	})

	t.Run("preserves first-seen order", func(t *testing.T) {
		got := NormalizeTags([]string{"b", "a", "b", "c"})
		want := []string{"b", "a", "c"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("NormalizeTags = %v, want %v", got, want)
		}
	})

	t.Run("already normal input is unchanged", func(t *testing.T) {
		in := []string{"one", "two"}
		if got := NormalizeTags(in); !reflect.DeepEqual(got, in) {
			t.Errorf("NormalizeTags = %v, want %v", got, in)
		}
	})
}

func TestReportStatus(t *testing.T) {
	terminal := []ReportStatus{ReportDone, ReportPartial, ReportFailed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	for _, s := range []ReportStatus{ReportPending, ReportRunning} {
		if s.Terminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestBatchReportSortErrors(t *testing.T) {
	report := &BatchReport{
		Errors: []ReportError{
			{AssetID: "c", Reason: "locked"},
			{AssetID: "a", Reason: "missing"},
			{AssetID: "b", Reason: "missing"},
		},
	}
	report.SortErrors()

	got := make([]string, len(report.Errors))
	for i, e := range report.Errors {
		got[i] = e.AssetID
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sorted error IDs = %v, want %v", got, want)
	}
}
