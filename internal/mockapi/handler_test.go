package mockapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/screener/internal/models"
)

func newTestServer(t *testing.T) (*Store, *httptest.Server) {
	t.Helper()
	store := NewStore()
	srv := httptest.NewServer(NewServer(store, nil))
	t.Cleanup(srv.Close)
	return store, srv
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return resp, data
}

func TestListAssets(t *testing.T) {
	store, srv := newTestServer(t)
	ids := store.Seed(5)
	store.SeedAsset(models.Asset{
		Summary: models.AssetSummary{ID: "kept-1", State: models.DecidedKeep},
	})

	t.Run("paginates with a cursor", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, srv.URL+"/assets?limit=3", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("unexpected status %d", resp.StatusCode)
		}

		var page struct {
			Items      []models.AssetSummary `json:"items"`
			NextCursor string                `json:"next_cursor"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			t.Fatalf("failed to decode page: %v", err)
		}
		if len(page.Items) != 3 {
			t.Fatalf("expected 3 items, got %d", len(page.Items))
		}
		if page.NextCursor != "3" {
			t.Errorf("expected cursor 3, got %q", page.NextCursor)
		}
		if page.Items[0].ID != ids[0] {
			t.Errorf("expected seed order preserved, got %q", page.Items[0].ID)
		}

		_, body = doJSON(t, http.MethodGet, srv.URL+"/assets?limit=3&cursor="+page.NextCursor, "")
		if err := json.Unmarshal(body, &page); err != nil {
			t.Fatalf("failed to decode second page: %v", err)
		}
		if page.NextCursor != "" {
			t.Errorf("expected exhausted cursor, got %q", page.NextCursor)
		}
	})

	t.Run("filters by state", func(t *testing.T) {
		_, body := doJSON(t, http.MethodGet, srv.URL+"/assets?state=DECIDED_KEEP", "")
		var page struct {
			Items []models.AssetSummary `json:"items"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			t.Fatalf("failed to decode page: %v", err)
		}
		if len(page.Items) != 1 || page.Items[0].ID != "kept-1" {
			t.Errorf("expected only kept-1, got %+v", page.Items)
		}
	})
}

func TestDecisionIdempotency(t *testing.T) {
	store, srv := newTestServer(t)
	id := store.Seed(1)[0]

	submit := func(key string) int {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/assets/"+id+"/decision", strings.NewReader(`{"action":"KEEP"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", key)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if status := submit("key-1"); status != http.StatusNoContent {
		t.Fatalf("unexpected status %d", status)
	}
	// Replay of the same key acknowledges without reapplying.
	if status := submit("key-1"); status != http.StatusNoContent {
		t.Fatalf("unexpected replay status %d", status)
	}

	if store.DecisionsMade() != 1 {
		t.Errorf("expected one applied decision, got %d", store.DecisionsMade())
	}
	asset, _ := store.Asset(id)
	if asset.Summary.State != models.DecidedKeep {
		t.Errorf("expected DECIDED_KEEP, got %s", asset.Summary.State)
	}
}

func TestPatchAsset(t *testing.T) {
	store, srv := newTestServer(t)
	id := store.Seed(1)[0]

	resp, _ := doJSON(t, http.MethodPatch, srv.URL+"/assets/"+id, `{"tags":["flagged"],"notes":"check audio"}`)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	asset, _ := store.Asset(id)
	if len(asset.Tags) != 1 || asset.Tags[0] != "flagged" {
		t.Errorf("expected tags replaced, got %v", asset.Tags)
	}
	if asset.Notes != "check audio" {
		t.Errorf("expected notes set, got %q", asset.Notes)
	}

	t.Run("omitted fields are untouched", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPatch, srv.URL+"/assets/"+id, `{"notes":"second pass"}`)
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("unexpected status %d", resp.StatusCode)
		}
		asset, _ := store.Asset(id)
		if len(asset.Tags) != 1 {
			t.Errorf("tags must survive a notes-only patch, got %v", asset.Tags)
		}
	})
}

func TestPurge(t *testing.T) {
	store, srv := newTestServer(t)
	id := store.Seed(2)[0]

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/assets/"+id+"/purge/preview", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unexpected preview status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/assets/"+id+"/purge", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unexpected purge status %d", resp.StatusCode)
	}

	if _, ok := store.Asset(id); ok {
		t.Error("purged asset must be gone")
	}
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/assets/"+id, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after purge, got %d", resp.StatusCode)
	}
}

func TestBatchExecute(t *testing.T) {
	store, srv := newTestServer(t)
	ids := store.Seed(2)
	body := `{"mode":"move","selection":["` + ids[0] + `","` + ids[1] + `"]}`

	execute := func(key string) string {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/batches/moves", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", key)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		var out struct {
			BatchID string `json:"batch_id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		return out.BatchID
	}

	first := execute("key-1")
	if first == "" {
		t.Fatal("expected a batch ID")
	}
	// Same key replays the original batch instead of starting a new one.
	if second := execute("key-1"); second != first {
		t.Errorf("expected the same batch ID on replay, got %q then %q", first, second)
	}
	if store.ExecuteCount() != 1 {
		t.Errorf("expected one execution, got %d", store.ExecuteCount())
	}

	if third := execute("key-2"); third == first {
		t.Error("a fresh key must start a fresh batch")
	}
}

func TestBatchReport(t *testing.T) {
	store, srv := newTestServer(t)
	ids := store.Seed(1)
	store.SetReportPolls(2)

	_, body := doJSON(t, http.MethodPost, srv.URL+"/batches/moves",
		`{"mode":"move","selection":["`+ids[0]+`","missing-1"]}`)
	var exec struct {
		BatchID string `json:"batch_id"`
	}
	if err := json.Unmarshal(body, &exec); err != nil {
		t.Fatalf("failed to decode execution: %v", err)
	}

	fetch := func() models.BatchReport {
		_, body := doJSON(t, http.MethodGet, srv.URL+"/batches/moves/"+exec.BatchID, "")
		var report models.BatchReport
		if err := json.Unmarshal(body, &report); err != nil {
			t.Fatalf("failed to decode report: %v", err)
		}
		return report
	}

	for i := 0; i < 2; i++ {
		if report := fetch(); report.Status != models.ReportRunning {
			t.Fatalf("poll %d: expected RUNNING, got %s", i+1, report.Status)
		}
	}

	report := fetch()
	if report.Status != models.ReportPartial {
		t.Fatalf("expected PARTIAL, got %s", report.Status)
	}
	if report.MovedCount != 1 || report.FailedCount != 1 {
		t.Errorf("expected 1 moved and 1 failed, got %d/%d", report.MovedCount, report.FailedCount)
	}
	if len(report.Errors) != 1 || report.Errors[0].AssetID != "missing-1" {
		t.Errorf("expected the missing asset reported, got %+v", report.Errors)
	}
}

func TestScriptedFailures(t *testing.T) {
	store, srv := newTestServer(t)
	store.Seed(1)
	store.FailNext(Failure{Status: 503, Code: "TEMPORARY_UNAVAILABLE", Retry: true})

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/assets", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected the scripted 503, got %d", resp.StatusCode)
	}
	var envelope struct {
		Code      string `json:"code"`
		Retryable bool   `json:"retryable"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if envelope.Code != "TEMPORARY_UNAVAILABLE" || !envelope.Retryable {
		t.Errorf("unexpected envelope %+v", envelope)
	}

	// The queue is one-shot; the next request goes through.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/assets", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected recovery after the scripted failure, got %d", resp.StatusCode)
	}
}

func TestPolicyDocument(t *testing.T) {
	store, srv := newTestServer(t)
	store.SetFlags(map[string]bool{"bulk_decisions": false, "batch_moves": true})
	store.SetPollInterval(45)

	_, body := doJSON(t, http.MethodGet, srv.URL+"/app/policy", "")
	var doc struct {
		ServerPolicy struct {
			FeatureFlags           map[string]bool `json:"feature_flags"`
			MinPollIntervalSeconds float64         `json:"min_poll_interval_seconds"`
		} `json:"server_policy"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		t.Fatalf("failed to decode policy: %v", err)
	}
	if doc.ServerPolicy.FeatureFlags["bulk_decisions"] {
		t.Error("expected bulk_decisions disabled")
	}
	if !doc.ServerPolicy.FeatureFlags["batch_moves"] {
		t.Error("expected batch_moves enabled")
	}
	if doc.ServerPolicy.MinPollIntervalSeconds != 45 {
		t.Errorf("expected 45s interval, got %v", doc.ServerPolicy.MinPollIntervalSeconds)
	}
}
