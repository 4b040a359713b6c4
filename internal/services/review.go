package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/screener/internal/api"
	"github.com/desertthunder/screener/internal/models"
)

var _ Review = (*ReviewService)(nil)

// ReviewService implements [Review] against the HTTP backend through the
// request engine. It is stateless; retry, auth, and error normalization
// all live in the engine.
type ReviewService struct {
	engine *api.Engine
}

// NewReviewService creates a [ReviewService] over the given engine.
func NewReviewService(engine *api.Engine) *ReviewService {
	return &ReviewService{engine: engine}
}

// listItem tolerates malformed entries: uuid may be absent or null.
type listItem struct {
	ID        string            `json:"uuid"`
	State     models.AssetState `json:"state"`
	MediaType string            `json:"media_type"`
	Title     string            `json:"title"`
	CreatedAt string            `json:"created_at"`
}

// ListAssets retrieves one page of assets. Items that are individually
// malformed (missing uuid) are kept in the listing with a deterministic
// fallback identifier derived from their position, so one bad record
// never fails the whole page.
func (s *ReviewService) ListAssets(ctx context.Context, opts ListOpts) (*models.AssetPage, error) {
	query := url.Values{}
	if opts.State != "" {
		query.Set("state", string(opts.State))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Cursor != "" {
		query.Set("cursor", opts.Cursor)
	}

	resp, err := s.engine.Do(ctx, api.Request{
		Method:   http.MethodGet,
		Path:     "/assets",
		Query:    query,
		Validate: api.ExpectArray("items"),
	})
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Items      []json.RawMessage `json:"items"`
		NextCursor string            `json:"next_cursor"`
	}
	if err := resp.Decode(&envelope); err != nil {
		return nil, err
	}

	page := &models.AssetPage{NextCursor: envelope.NextCursor}
	for i, raw := range envelope.Items {
		var item listItem
		// Decode errors leave a zero item; the fallback ID below keeps
		// the row renderable.
		_ = json.Unmarshal(raw, &item)

		if item.ID == "" {
			item.ID = fmt.Sprintf("asset-%d", i)
		}
		page.Items = append(page.Items, models.AssetSummary{
			ID:        item.ID,
			State:     item.State,
			MediaType: item.MediaType,
			Title:     item.Title,
			CreatedAt: item.CreatedAt,
		})
	}
	return page, nil
}

// GetAsset retrieves full asset detail.
func (s *ReviewService) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	resp, err := s.engine.Do(ctx, api.Request{
		Method:   http.MethodGet,
		Path:     "/assets/" + url.PathEscape(id),
		Validate: api.ExpectObject("summary", "uuid"),
	})
	if err != nil {
		return nil, err
	}

	var asset models.Asset
	if err := resp.Decode(&asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// PatchAsset submits a metadata patch, normalizing tags and notes first
// so a subsequent read returns exactly what was sent.
func (s *ReviewService) PatchAsset(ctx context.Context, id string, patch models.MetadataPatch) error {
	if patch.Tags != nil {
		patch.Tags = models.NormalizeTags(patch.Tags)
	}
	if patch.Notes != nil {
		trimmed := models.NormalizeNotes(*patch.Notes)
		patch.Notes = &trimmed
	}

	_, err := s.engine.Do(ctx, api.Request{
		Method: http.MethodPatch,
		Path:   "/assets/" + url.PathEscape(id),
		Body:   patch,
	})
	return err
}

// SubmitDecision applies a decision action to one asset.
func (s *ReviewService) SubmitDecision(ctx context.Context, id string, action models.DecisionAction, key string) error {
	_, err := s.engine.Do(ctx, api.Request{
		Method:         http.MethodPost,
		Path:           "/assets/" + url.PathEscape(id) + "/decision",
		Body:           map[string]string{"action": string(action)},
		IdempotencyKey: key,
	})
	return err
}

// PurgePreview dry-runs a purge.
func (s *ReviewService) PurgePreview(ctx context.Context, id string) error {
	_, err := s.engine.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/assets/" + url.PathEscape(id) + "/purge/preview",
	})
	return err
}

// Purge permanently removes an asset.
func (s *ReviewService) Purge(ctx context.Context, id string, key string) error {
	_, err := s.engine.Do(ctx, api.Request{
		Method:         http.MethodPost,
		Path:           "/assets/" + url.PathEscape(id) + "/purge",
		Body:           map[string]bool{"confirm": true},
		IdempotencyKey: key,
	})
	return err
}

// PreviewBatchMove dry-runs a batch move for the selection.
func (s *ReviewService) PreviewBatchMove(ctx context.Context, selection []string) error {
	_, err := s.engine.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   "/batches/moves/preview",
		Body:   map[string]any{"selection": selection},
	})
	return err
}

// ExecuteBatchMove starts a batch move and returns the server-assigned
// batch ID.
func (s *ReviewService) ExecuteBatchMove(ctx context.Context, mode string, selection []string, key string) (string, error) {
	resp, err := s.engine.Do(ctx, api.Request{
		Method:         http.MethodPost,
		Path:           "/batches/moves",
		Body:           map[string]any{"mode": mode, "selection": selection},
		IdempotencyKey: key,
		Validate:       api.ExpectKeys("batch_id"),
	})
	if err != nil {
		return "", err
	}

	var body struct {
		BatchID string `json:"batch_id"`
	}
	if err := resp.Decode(&body); err != nil {
		return "", err
	}
	return body.BatchID, nil
}

// reportBody tolerates both field spellings the backend has shipped for
// counts (moved vs moved_count, failed vs failed_count).
type reportBody struct {
	Status      models.ReportStatus  `json:"status"`
	Moved       *int                 `json:"moved"`
	MovedCount  *int                 `json:"moved_count"`
	Failed      *int                 `json:"failed"`
	FailedCount *int                 `json:"failed_count"`
	Errors      []models.ReportError `json:"errors"`
}

// BatchReport fetches the current report for a batch move.
func (s *ReviewService) BatchReport(ctx context.Context, batchID string) (*models.BatchReport, error) {
	resp, err := s.engine.Do(ctx, api.Request{
		Method:   http.MethodGet,
		Path:     "/batches/moves/" + url.PathEscape(batchID),
		Validate: api.ExpectKeys("status"),
	})
	if err != nil {
		return nil, err
	}

	var body reportBody
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}

	report := &models.BatchReport{
		BatchID:     batchID,
		Status:      body.Status,
		MovedCount:  coalesce(body.MovedCount, body.Moved),
		FailedCount: coalesce(body.FailedCount, body.Failed),
		Errors:      body.Errors,
	}
	report.SortErrors()
	return report, nil
}

// FetchPolicy retrieves server policy.
func (s *ReviewService) FetchPolicy(ctx context.Context) (*Policy, error) {
	resp, err := s.engine.Do(ctx, api.Request{
		Method:   http.MethodGet,
		Path:     "/app/policy",
		Validate: api.ExpectKeys("server_policy"),
	})
	if err != nil {
		return nil, err
	}

	var body struct {
		ServerPolicy struct {
			FeatureFlags           map[string]bool `json:"feature_flags"`
			MinPollIntervalSeconds float64         `json:"min_poll_interval_seconds"`
		} `json:"server_policy"`
	}
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}

	return &Policy{
		FeatureFlags:           body.ServerPolicy.FeatureFlags,
		MinPollIntervalSeconds: body.ServerPolicy.MinPollIntervalSeconds,
	}, nil
}

func coalesce(vals ...*int) int {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}
