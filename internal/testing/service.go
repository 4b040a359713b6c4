package testing

import (
	"context"

	"github.com/desertthunder/screener/internal/models"
	"github.com/desertthunder/screener/internal/services"
)

var _ services.Review = (*ReviewStub)(nil)

// ReviewStub implements [services.Review] with overridable function
// fields. Unset methods succeed with zero values, so tests only script
// the calls they care about.
type ReviewStub struct {
	ListAssetsFn     func(ctx context.Context, opts services.ListOpts) (*models.AssetPage, error)
	GetAssetFn       func(ctx context.Context, id string) (*models.Asset, error)
	PatchAssetFn     func(ctx context.Context, id string, patch models.MetadataPatch) error
	SubmitDecisionFn func(ctx context.Context, id string, action models.DecisionAction, key string) error
	PurgePreviewFn   func(ctx context.Context, id string) error
	PurgeFn          func(ctx context.Context, id string, key string) error
	PreviewBatchFn   func(ctx context.Context, selection []string) error
	ExecuteBatchFn   func(ctx context.Context, mode string, selection []string, key string) (string, error)
	BatchReportFn    func(ctx context.Context, batchID string) (*models.BatchReport, error)
	FetchPolicyFn    func(ctx context.Context) (*services.Policy, error)
}

func (s *ReviewStub) ListAssets(ctx context.Context, opts services.ListOpts) (*models.AssetPage, error) {
	if s.ListAssetsFn != nil {
		return s.ListAssetsFn(ctx, opts)
	}
	return &models.AssetPage{}, nil
}

func (s *ReviewStub) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	if s.GetAssetFn != nil {
		return s.GetAssetFn(ctx, id)
	}
	return &models.Asset{Summary: models.AssetSummary{ID: id, State: models.DecisionPending}}, nil
}

func (s *ReviewStub) PatchAsset(ctx context.Context, id string, patch models.MetadataPatch) error {
	if s.PatchAssetFn != nil {
		return s.PatchAssetFn(ctx, id, patch)
	}
	return nil
}

func (s *ReviewStub) SubmitDecision(ctx context.Context, id string, action models.DecisionAction, key string) error {
	if s.SubmitDecisionFn != nil {
		return s.SubmitDecisionFn(ctx, id, action, key)
	}
	return nil
}

func (s *ReviewStub) PurgePreview(ctx context.Context, id string) error {
	if s.PurgePreviewFn != nil {
		return s.PurgePreviewFn(ctx, id)
	}
	return nil
}

func (s *ReviewStub) Purge(ctx context.Context, id string, key string) error {
	if s.PurgeFn != nil {
		return s.PurgeFn(ctx, id, key)
	}
	return nil
}

func (s *ReviewStub) PreviewBatchMove(ctx context.Context, selection []string) error {
	if s.PreviewBatchFn != nil {
		return s.PreviewBatchFn(ctx, selection)
	}
	return nil
}

func (s *ReviewStub) ExecuteBatchMove(ctx context.Context, mode string, selection []string, key string) (string, error) {
	if s.ExecuteBatchFn != nil {
		return s.ExecuteBatchFn(ctx, mode, selection, key)
	}
	return "batch-1", nil
}

func (s *ReviewStub) BatchReport(ctx context.Context, batchID string) (*models.BatchReport, error) {
	if s.BatchReportFn != nil {
		return s.BatchReportFn(ctx, batchID)
	}
	return &models.BatchReport{BatchID: batchID, Status: models.ReportDone}, nil
}

func (s *ReviewStub) FetchPolicy(ctx context.Context) (*services.Policy, error) {
	if s.FetchPolicyFn != nil {
		return s.FetchPolicyFn(ctx)
	}
	return &services.Policy{}, nil
}
