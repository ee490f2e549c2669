package models

// Task is the caller-declared intent of a generation request. It selects the
// task-specific instruction appended to the system prompt.
type Task string

const (
	TaskChat      Task = "chat"
	TaskSummarise Task = "summarise"
	TaskExtract   Task = "extract"
	TaskClassify  Task = "classify"
	TaskRewrite   Task = "rewrite"
	TaskQA        Task = "qa"
)

// IsValid reports whether t is one of the known task labels.
func (t Task) IsValid() bool {
	switch t {
	case TaskChat, TaskSummarise, TaskExtract, TaskClassify, TaskRewrite, TaskQA:
		return true
	}
	return false
}

// Priority is the caller's routing preference.
type Priority string

const (
	PriorityLowCost     Priority = "low_cost"
	PriorityLowLatency  Priority = "low_latency"
	PriorityHighQuality Priority = "high_quality"
)

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLowCost, PriorityLowLatency, PriorityHighQuality:
		return true
	}
	return false
}

// Known provider identifiers. These are the only two upstream backends the
// gateway routes between.
const (
	ProviderAzure   = "azure"
	ProviderBedrock = "bedrock"
)

// GenerationRequest is a validated, normalized text-generation request.
// Instances are immutable once constructed; the orchestrator never mutates
// them.
type GenerationRequest struct {
	Prompt          string                 `json:"prompt"`
	Task            Task                   `json:"task"`
	Priority        Priority               `json:"priority"`
	MaxOutputTokens int                    `json:"max_output_tokens"`
	Temperature     float64                `json:"temperature"`
	TopP            float64                `json:"top_p"`
	ProviderHint    string                 `json:"provider_hint,omitempty"` // "azure", "bedrock", or empty
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// ProviderSelection names one (provider, model-or-deployment) pair produced
// by the routing policy.
type ProviderSelection struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// RouteDecision is the ordered outcome of routing a single request. Primary
// and Secondary never share a provider.
type RouteDecision struct {
	Primary   ProviderSelection `json:"primary"`
	Secondary ProviderSelection `json:"secondary"`
	Reason    string            `json:"reason"` // human-readable routing rationale
}

// CostEstimate holds approximate token counts and USD cost for one attempt.
// Token counts come from a character heuristic, not a real tokenizer.
type CostEstimate struct {
	InputTokensEst  int     `json:"input_tokens_est"`
	OutputTokensEst int     `json:"output_tokens_est"`
	TotalTokensEst  int     `json:"total_tokens_est"`
	CostEstUSD      float64 `json:"cost_est_usd"`
}

// ProviderAttempt captures one provider invocation that returned text.
// Invocations that fail before producing text leave no attempt entry, only a
// failure usage record.
type ProviderAttempt struct {
	Provider  string       `json:"provider"`
	Model     string       `json:"model"`
	Text      string       `json:"text"`
	LatencyMs int          `json:"latency_ms"`
	Usage     CostEstimate `json:"usage"`
}

// GenerationResult is the terminal success outcome of a generation request.
type GenerationResult struct {
	RequestID      string            `json:"request_id"`
	ChosenProvider string            `json:"chosen_provider"`
	ChosenModel    string            `json:"chosen_model"`
	Text           string            `json:"text"`
	LatencyMs      int               `json:"latency_ms"`
	FallbackUsed   bool              `json:"fallback_used"`
	Attempts       []ProviderAttempt `json:"attempts"`
}
