package handlers

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/upb/genai-gateway/models"
	"github.com/upb/genai-gateway/utils"
)

// UsageService defines the read side of the usage log
type UsageService interface {
	// Records returns records for one request id, or the most recent ones
	Records(ctx context.Context, requestID string, limit int) ([]*models.UsageRecord, error)

	// Summary returns per provider/model aggregates
	Summary(ctx context.Context) ([]*models.UsageSummary, error)
}

// UsageRecordsResponse wraps a page of usage records
type UsageRecordsResponse struct {
	Records []*models.UsageRecord `json:"records"`
	Count   int                   `json:"count"`
}

// UsageSummaryResponse wraps the per provider/model aggregates
type UsageSummaryResponse struct {
	Summaries []*models.UsageSummary `json:"summaries"`
	Count     int                    `json:"count"`
}

// UsageHandler handles usage query HTTP requests
type UsageHandler struct {
	service UsageService
	logger  *zap.Logger
}

// NewUsageHandler creates a new UsageHandler
func NewUsageHandler(service UsageService, logger *zap.Logger) *UsageHandler {
	return &UsageHandler{
		service: service,
		logger:  logger,
	}
}

// HandleRecords handles GET /v1/usage/records
// Query parameters: request_id (optional UUID), limit (optional integer,
// ignored when request_id is set).
func (h *UsageHandler) HandleRecords(w http.ResponseWriter, r *http.Request) {
	requestID := r.URL.Query().Get("request_id")
	if requestID != "" {
		if err := utils.ValidateUUID(requestID); err != nil {
			_ = utils.WriteBadRequest(w, "request_id must be a valid UUID", nil)
			return
		}
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			_ = utils.WriteBadRequest(w, "limit must be an integer", nil)
			return
		}
		limit = parsed
	}

	records, err := h.service.Records(r.Context(), requestID, limit)
	if err != nil {
		h.logger.Error("failed to query usage records",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	if records == nil {
		records = []*models.UsageRecord{}
	}

	_ = utils.WriteOK(w, UsageRecordsResponse{
		Records: records,
		Count:   len(records),
	})
}

// HandleSummary handles GET /v1/usage/summary
func (h *UsageHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.Summary(r.Context())
	if err != nil {
		h.logger.Error("failed to summarize usage", zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	if summaries == nil {
		summaries = []*models.UsageSummary{}
	}

	_ = utils.WriteOK(w, UsageSummaryResponse{
		Summaries: summaries,
		Count:     len(summaries),
	})
}
