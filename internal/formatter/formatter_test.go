package formatter

import (
	"strings"
	"testing"

	"github.com/desertthunder/screener/internal/batch"
	"github.com/desertthunder/screener/internal/models"
)

func TestAssetTable(t *testing.T) {
	page := &models.AssetPage{
		Items: []models.AssetSummary{
			{ID: "a1", State: models.DecisionPending, MediaType: "video", Title: "Clip 1"},
			{ID: "a2", State: models.DecidedKeep, MediaType: "audio", Title: "Clip 2"},
		},
		NextCursor: "2",
	}

	out := AssetTable(page)
	for _, want := range []string{"ID", "STATE", "a1", "DECISION_PENDING", "a2", "Clip 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "next cursor: 2") {
		t.Errorf("expected the cursor hint:\n%s", out)
	}

	t.Run("omits cursor hint on the last page", func(t *testing.T) {
		page.NextCursor = ""
		if strings.Contains(AssetTable(page), "next cursor") {
			t.Error("no cursor hint expected on the last page")
		}
	})
}

func TestAssetDetail(t *testing.T) {
	notes := "needs a second look"
	asset := &models.Asset{
		Summary: models.AssetSummary{
			ID: "a1", Title: "Clip 1", State: models.DecisionPending, MediaType: "video",
		},
		Tags:       []string{"flagged", "audio-issue"},
		Notes:      notes,
		Transcript: "hello world",
	}

	out := AssetDetail(asset)
	for _, want := range []string{"Clip 1 (a1)", "state: DECISION_PENDING", "flagged, audio-issue", notes, "hello world"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	t.Run("skips empty sections", func(t *testing.T) {
		out := AssetDetail(&models.Asset{Summary: models.AssetSummary{ID: "a2", Title: "Bare"}})
		if strings.Contains(out, "tags:") || strings.Contains(out, "notes:") {
			t.Errorf("unexpected empty sections:\n%s", out)
		}
	})
}

func TestReport(t *testing.T) {
	report := &models.BatchReport{
		BatchID: "b1", Status: models.ReportPartial,
		MovedCount: 2, FailedCount: 2,
		Errors: []models.ReportError{
			{AssetID: "z9", Reason: "locked"},
			{AssetID: "a1", Reason: "missing"},
		},
	}

	out := Report(report)
	if !strings.Contains(out, "batch b1: PARTIAL") {
		t.Errorf("expected the header:\n%s", out)
	}
	if !strings.Contains(out, "moved: 2, failed: 2") {
		t.Errorf("expected the counts:\n%s", out)
	}
	if strings.Index(out, "a1") > strings.Index(out, "z9") {
		t.Errorf("expected errors sorted by asset ID:\n%s", out)
	}

	t.Run("clean report has no error table", func(t *testing.T) {
		out := Report(&models.BatchReport{BatchID: "b2", Status: models.ReportDone, MovedCount: 3})
		if strings.Contains(out, "REASON") {
			t.Errorf("unexpected error table:\n%s", out)
		}
	})
}

func TestTimeline(t *testing.T) {
	out := Timeline(batch.Timeline(batch.PollingReport))
	for _, want := range []string{"[x] queued", "[x] confirmed", "[x] executing", "[>] report"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestFlags(t *testing.T) {
	out := Flags(map[string]bool{"purge": true, "bulk_decisions": false})

	if strings.Index(out, "bulk_decisions") > strings.Index(out, "purge") {
		t.Errorf("expected flags sorted by name:\n%s", out)
	}
	if !strings.Contains(out, "false") || !strings.Contains(out, "true") {
		t.Errorf("expected both values rendered:\n%s", out)
	}
}
