// Package usage persists one usage record per provider attempt and serves
// the usage query surface. Writes are synchronous but isolated: a failing
// store is logged and never fails the generation that produced the record.
package usage

import (
	"context"

	"go.uber.org/zap"

	"github.com/upb/genai-gateway/models"
	"github.com/upb/genai-gateway/repositories"
	"github.com/upb/genai-gateway/services/costing"
)

const (
	defaultRecordLimit = 50
	maxRecordLimit     = 500
)

// Attempt identifies the provider invocation a record belongs to.
type Attempt struct {
	RequestID string
	Provider  string
	Model     string
	Task      models.Task
	Priority  models.Priority
}

// Recorder estimates attempt costs and appends usage records to the store.
type Recorder struct {
	repo      repositories.UsageRepository
	estimator *costing.Estimator
	pricing   map[string]costing.Pricing
	enabled   bool
	logger    *zap.Logger
}

// NewRecorder creates a Recorder. pricing maps provider names to their
// per-1K unit prices; providers absent from the map estimate at zero cost.
// When enabled is false, estimates are still computed but nothing is
// persisted.
func NewRecorder(repo repositories.UsageRepository, estimator *costing.Estimator, pricing map[string]costing.Pricing, enabled bool, logger *zap.Logger) *Recorder {
	if estimator == nil {
		estimator = costing.New(nil)
	}
	return &Recorder{
		repo:      repo,
		estimator: estimator,
		pricing:   pricing,
		enabled:   enabled,
		logger:    logger,
	}
}

// RecordSuccess estimates the cost of a completed attempt, persists a
// success record, and returns the estimate for the response payload.
func (r *Recorder) RecordSuccess(ctx context.Context, attempt Attempt, promptText, outputText string, latencyMs int) models.CostEstimate {
	est := r.estimator.Estimate(r.pricing[attempt.Provider], promptText, outputText)

	record := models.NewUsageRecord(attempt.RequestID, attempt.Provider, attempt.Model, attempt.Task, attempt.Priority).
		MarkSuccess(est, latencyMs)
	r.persist(ctx, record)

	return est
}

// RecordFailure persists a failure record for an attempt that produced no
// output: input tokens only, zero cost and latency, truncated error text.
func (r *Recorder) RecordFailure(ctx context.Context, attempt Attempt, promptText string, attemptErr error) {
	est := r.estimator.InputOnlyEstimate(promptText)

	record := models.NewUsageRecord(attempt.RequestID, attempt.Provider, attempt.Model, attempt.Task, attempt.Priority).
		MarkFailure(est, attemptErr.Error())
	r.persist(ctx, record)
}

func (r *Recorder) persist(ctx context.Context, record *models.UsageRecord) {
	if !r.enabled {
		return
	}

	if err := r.repo.Insert(ctx, record); err != nil {
		// The store must never fail a generation that already has a result.
		r.logger.Error("failed to persist usage record",
			zap.String("request_id", record.RequestID),
			zap.String("provider", record.Provider),
			zap.Bool("success", record.Success),
			zap.Error(err))
	}
}

// Records returns usage records for one request when requestID is set, or
// the most recent records otherwise. A non-positive limit falls back to the
// default; oversized limits are clamped.
func (r *Recorder) Records(ctx context.Context, requestID string, limit int) ([]*models.UsageRecord, error) {
	if requestID != "" {
		return r.repo.GetByRequestID(ctx, requestID)
	}

	if limit <= 0 {
		limit = defaultRecordLimit
	}
	if limit > maxRecordLimit {
		limit = maxRecordLimit
	}
	return r.repo.List(ctx, limit)
}

// Summary returns per provider/model aggregates over all recorded attempts.
func (r *Recorder) Summary(ctx context.Context) ([]*models.UsageSummary, error) {
	return r.repo.Summarize(ctx)
}
