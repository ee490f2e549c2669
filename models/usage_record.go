package models

import (
	"time"
)

// MaxErrorLength bounds the error text stored on a failed attempt.
const MaxErrorLength = 500

// UsageRecord is one immutable audit entry for a single provider attempt,
// successful or failed. Records are append-only; they are never updated or
// deleted after being written.
type UsageRecord struct {
	ID        int64     `json:"id" db:"id"`
	Timestamp time.Time `json:"timestamp" db:"ts"`
	RequestID string    `json:"request_id" db:"request_id"`
	Provider  string    `json:"provider" db:"provider"`
	Model     string    `json:"model" db:"model"`
	Task      Task      `json:"task" db:"task"`
	Priority  Priority  `json:"priority" db:"priority"`

	// Estimates
	InputTokensEst  int     `json:"input_tokens_est" db:"input_tokens_est"`
	OutputTokensEst int     `json:"output_tokens_est" db:"output_tokens_est"`
	TotalTokensEst  int     `json:"total_tokens_est" db:"total_tokens_est"`
	CostEstUSD      float64 `json:"cost_est_usd" db:"cost_est_usd"`

	// Outcome
	LatencyMs int     `json:"latency_ms" db:"latency_ms"`
	Success   bool    `json:"success" db:"success"`
	Error     *string `json:"error,omitempty" db:"error"`
}

// TableName returns the table name for the UsageRecord model
func (UsageRecord) TableName() string {
	return "usage_logs"
}

// NewUsageRecord creates a usage record for one attempt belonging to the
// given request.
func NewUsageRecord(requestID, provider, model string, task Task, priority Priority) *UsageRecord {
	return &UsageRecord{
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
		Provider:  provider,
		Model:     model,
		Task:      task,
		Priority:  priority,
	}
}

// MarkSuccess fills in the estimate and latency for a successful attempt.
func (ur *UsageRecord) MarkSuccess(est CostEstimate, latencyMs int) *UsageRecord {
	ur.InputTokensEst = est.InputTokensEst
	ur.OutputTokensEst = est.OutputTokensEst
	ur.TotalTokensEst = est.TotalTokensEst
	ur.CostEstUSD = est.CostEstUSD
	ur.LatencyMs = latencyMs
	ur.Success = true
	ur.Error = nil
	return ur
}

// MarkFailure fills in a failed attempt: the estimate covers input tokens
// only, cost and latency are zero, and the error text is truncated to
// MaxErrorLength.
func (ur *UsageRecord) MarkFailure(est CostEstimate, errMsg string) *UsageRecord {
	ur.InputTokensEst = est.InputTokensEst
	ur.OutputTokensEst = 0
	ur.TotalTokensEst = est.InputTokensEst
	ur.CostEstUSD = 0
	ur.LatencyMs = 0
	ur.Success = false
	truncated := TruncateError(errMsg)
	ur.Error = &truncated
	return ur
}

// TruncateError bounds an error message to MaxErrorLength characters.
func TruncateError(msg string) string {
	runes := []rune(msg)
	if len(runes) > MaxErrorLength {
		return string(runes[:MaxErrorLength])
	}
	return msg
}

// UsageSummary aggregates usage records per provider and model.
type UsageSummary struct {
	Provider       string  `json:"provider" db:"provider"`
	Model          string  `json:"model" db:"model"`
	Requests       int     `json:"requests" db:"requests"`
	Successes      int     `json:"successes" db:"successes"`
	TotalTokensEst int64   `json:"total_tokens_est" db:"total_tokens_est"`
	CostEstUSD     float64 `json:"cost_est_usd" db:"cost_est_usd"`
}
