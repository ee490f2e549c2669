// Package orchestrator drives a generation request end to end: mint a
// request id, compose the system prompt, route, attempt the primary
// provider, fall back to the secondary on failure, and record one usage
// entry per attempt. Provider invocation is strictly sequential; each
// attempt gets exactly one call bounded by the configured hard timeout.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/genai-gateway/models"
	"github.com/upb/genai-gateway/services"
	"github.com/upb/genai-gateway/services/prompting"
	"github.com/upb/genai-gateway/services/providers"
	"github.com/upb/genai-gateway/services/routing"
	"github.com/upb/genai-gateway/services/usage"
)

// Service coordinates routing, provider invocation, and usage recording.
type Service struct {
	registry    *providers.Registry
	router      *routing.RoutingService
	recorder    *usage.Recorder
	hardTimeout time.Duration
	logger      *zap.Logger
}

// NewService creates a new orchestrator service
func NewService(registry *providers.Registry, router *routing.RoutingService, recorder *usage.Recorder, hardTimeout time.Duration, logger *zap.Logger) *Service {
	return &Service{
		registry:    registry,
		router:      router,
		recorder:    recorder,
		hardTimeout: hardTimeout,
		logger:      logger,
	}
}

// Run executes one generation request. It returns a GenerationResult when
// either provider produced text, or a composite external error after both
// attempts failed. Usage records are written for every attempt regardless
// of outcome.
func (s *Service) Run(ctx context.Context, req *models.GenerationRequest) (*models.GenerationResult, error) {
	requestID := uuid.New().String()
	systemPrompt := prompting.ComposeSystemPrompt(req.Task)
	decision := s.router.Choose(req)

	s.logger.Debug("routed generation request",
		zap.String("request_id", requestID),
		zap.String("task", string(req.Task)),
		zap.String("priority", string(req.Priority)),
		zap.String("primary", decision.Primary.Provider),
		zap.String("primary_model", decision.Primary.Model),
		zap.String("secondary", decision.Secondary.Provider),
		zap.String("reason", decision.Reason))

	primary, primaryErr := s.attempt(ctx, requestID, decision.Primary, req, systemPrompt)
	if primaryErr == nil {
		return s.buildResult(requestID, primary, false), nil
	}

	s.logger.Warn("primary provider failed, falling back",
		zap.String("request_id", requestID),
		zap.String("primary", decision.Primary.Provider),
		zap.String("secondary", decision.Secondary.Provider),
		zap.Error(primaryErr))

	secondary, secondaryErr := s.attempt(ctx, requestID, decision.Secondary, req, systemPrompt)
	if secondaryErr == nil {
		return s.buildResult(requestID, secondary, true), nil
	}

	s.logger.Error("both providers failed",
		zap.String("request_id", requestID),
		zap.NamedError("primary_error", primaryErr),
		zap.NamedError("secondary_error", secondaryErr))

	return nil, services.NewBothProvidersFailed(primaryErr, secondaryErr)
}

// attempt performs one provider invocation and records its usage entry.
// A nil error means the attempt produced text and a success record.
func (s *Service) attempt(ctx context.Context, requestID string, sel models.ProviderSelection, req *models.GenerationRequest, systemPrompt string) (*models.ProviderAttempt, error) {
	usageAttempt := usage.Attempt{
		RequestID: requestID,
		Provider:  sel.Provider,
		Model:     sel.Model,
		Task:      req.Task,
		Priority:  req.Priority,
	}

	provider, err := s.registry.Get(sel.Provider)
	if err != nil {
		s.recorder.RecordFailure(ctx, usageAttempt, req.Prompt, err)
		return nil, err
	}

	result, err := provider.Generate(ctx, &providers.GenerateRequest{
		Prompt:          req.Prompt,
		SystemPrompt:    systemPrompt,
		Model:           sel.Model,
		MaxOutputTokens: req.MaxOutputTokens,
		Temperature:     req.Temperature,
		TopP:            req.TopP,
		Timeout:         s.hardTimeout,
	})
	if err != nil {
		s.recorder.RecordFailure(ctx, usageAttempt, req.Prompt, err)
		return nil, err
	}

	est := s.recorder.RecordSuccess(ctx, usageAttempt, req.Prompt, result.Text, result.LatencyMs)

	return &models.ProviderAttempt{
		Provider:  sel.Provider,
		Model:     sel.Model,
		Text:      result.Text,
		LatencyMs: result.LatencyMs,
		Usage:     est,
	}, nil
}

// buildResult assembles the terminal result from the winning attempt. Only
// attempts that produced text appear in the attempts list, so it always
// holds exactly the winner.
func (s *Service) buildResult(requestID string, attempt *models.ProviderAttempt, fallbackUsed bool) *models.GenerationResult {
	return &models.GenerationResult{
		RequestID:      requestID,
		ChosenProvider: attempt.Provider,
		ChosenModel:    attempt.Model,
		Text:           attempt.Text,
		LatencyMs:      attempt.LatencyMs,
		FallbackUsed:   fallbackUsed,
		Attempts:       []models.ProviderAttempt{*attempt},
	}
}
