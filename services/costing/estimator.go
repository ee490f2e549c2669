// Package costing converts prompt and output text into token and USD cost
// estimates. The default token estimator is a coarse characters/4 heuristic,
// not a real tokenizer; callers that need accuracy can plug in their own
// TokenEstimator.
package costing

import (
	"math"
	"unicode/utf8"

	"github.com/upb/genai-gateway/models"
)

// costPrecision is the number of decimal places cost estimates are rounded to.
const costPrecision = 8

// Pricing holds per-1K-token unit prices in USD for one provider.
type Pricing struct {
	InputPer1K  float64
	OutputPer1K float64
}

// TokenEstimator estimates the token count of a piece of text.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// HeuristicEstimator approximates tokens as characters divided by four.
// Empty text is zero tokens; any non-empty text counts as at least one.
type HeuristicEstimator struct{}

// EstimateTokens estimates the number of tokens in text.
func (HeuristicEstimator) EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := utf8.RuneCountInString(text) / 4
	if n < 1 {
		return 1
	}
	return n
}

// Estimator produces CostEstimates from text lengths and unit pricing.
// It is pure and safe for concurrent use.
type Estimator struct {
	tokens TokenEstimator
}

// New creates an Estimator. A nil tokens estimator falls back to the
// characters/4 heuristic.
func New(tokens TokenEstimator) *Estimator {
	if tokens == nil {
		tokens = HeuristicEstimator{}
	}
	return &Estimator{tokens: tokens}
}

// Estimate computes the token counts and USD cost for one completed attempt.
func (e *Estimator) Estimate(pricing Pricing, promptText, outputText string) models.CostEstimate {
	inTok := e.tokens.EstimateTokens(promptText)
	outTok := e.tokens.EstimateTokens(outputText)

	cost := (float64(inTok)/1000.0)*pricing.InputPer1K + (float64(outTok)/1000.0)*pricing.OutputPer1K

	return models.CostEstimate{
		InputTokensEst:  inTok,
		OutputTokensEst: outTok,
		TotalTokensEst:  inTok + outTok,
		CostEstUSD:      roundCost(cost),
	}
}

// InputOnlyEstimate computes the estimate recorded for a failed attempt:
// input tokens only, zero output tokens, zero cost.
func (e *Estimator) InputOnlyEstimate(promptText string) models.CostEstimate {
	inTok := e.tokens.EstimateTokens(promptText)
	return models.CostEstimate{
		InputTokensEst: inTok,
		TotalTokensEst: inTok,
	}
}

func roundCost(cost float64) float64 {
	shift := math.Pow10(costPrecision)
	return math.Round(cost*shift) / shift
}
