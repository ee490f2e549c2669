package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/genai-gateway/models"
	"github.com/upb/genai-gateway/services/prompting"
	"github.com/upb/genai-gateway/utils"
)

// Documented defaults applied to absent request fields.
const (
	defaultMaxOutputTokens = 512
	defaultTemperature     = 0.2
	defaultTopP            = 0.9
)

// GenerateRequest represents an inbound text-generation request. Optional
// fields are pointers so absent and zero values stay distinguishable.
type GenerateRequest struct {
	Prompt          string                 `json:"prompt" validate:"required,min=1"`
	Task            string                 `json:"task,omitempty" validate:"omitempty,oneof=chat summarise extract classify rewrite qa"`
	Priority        string                 `json:"priority,omitempty" validate:"omitempty,oneof=low_cost low_latency high_quality"`
	MaxOutputTokens *int                   `json:"max_output_tokens,omitempty" validate:"omitempty,gte=1,lte=4096"`
	Temperature     *float64               `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=1.5"`
	TopP            *float64               `json:"top_p,omitempty" validate:"omitempty,gte=0,lte=1"`
	ProviderHint    string                 `json:"provider_hint,omitempty" validate:"omitempty,oneof=azure bedrock"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// ToGenerationRequest applies defaults and builds the normalized request
// handed to the orchestrator.
func (r *GenerateRequest) ToGenerationRequest() *models.GenerationRequest {
	req := &models.GenerationRequest{
		Prompt:          r.Prompt,
		Task:            models.TaskChat,
		Priority:        models.PriorityLowCost,
		MaxOutputTokens: defaultMaxOutputTokens,
		Temperature:     defaultTemperature,
		TopP:            defaultTopP,
		ProviderHint:    r.ProviderHint,
		Metadata:        r.Metadata,
	}

	if r.Task != "" {
		req.Task = models.Task(r.Task)
	}
	if r.Priority != "" {
		req.Priority = models.Priority(r.Priority)
	}
	if r.MaxOutputTokens != nil {
		req.MaxOutputTokens = *r.MaxOutputTokens
	}
	if r.Temperature != nil {
		req.Temperature = *r.Temperature
	}
	if r.TopP != nil {
		req.TopP = *r.TopP
	}

	return req
}

// GenerateService defines the interface for generation operations
type GenerateService interface {
	// Run executes one generation request end to end
	Run(ctx context.Context, req *models.GenerationRequest) (*models.GenerationResult, error)
}

// GenerateHandler handles generation HTTP requests
type GenerateHandler struct {
	service GenerateService
	logger  *zap.Logger
}

// NewGenerateHandler creates a new GenerateHandler
func NewGenerateHandler(service GenerateService, logger *zap.Logger) *GenerateHandler {
	return &GenerateHandler{
		service: service,
		logger:  logger,
	}
}

// HandleGenerate handles POST /v1/generate
func (h *GenerateHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var genReq GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&genReq); err != nil {
		h.logger.Warn("failed to parse request body", zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&genReq); err != nil {
		h.logger.Warn("request validation failed", zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	if err := prompting.ValidatePrompt(genReq.Prompt); err != nil {
		h.logger.Warn("prompt rejected", zap.Error(err))
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	result, err := h.service.Run(r.Context(), genReq.ToGenerationRequest())
	if err != nil {
		h.logger.Error("generation failed", zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("generation complete",
		zap.String("request_id", result.RequestID),
		zap.String("provider", result.ChosenProvider),
		zap.String("model", result.ChosenModel),
		zap.Bool("fallback_used", result.FallbackUsed),
		zap.Int("latency_ms", result.LatencyMs))

	// The result is the response body; no envelope.
	if err := utils.WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", result.RequestID),
			zap.Error(err))
	}
}
