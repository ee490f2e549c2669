package providers

import (
	"context"
	"errors"
	"time"
)

// Provider is the unified capability interface every upstream adapter
// implements against its own wire protocol. The core treats adapters as
// opaque: one Generate call per attempt, all failure causes surfaced
// uniformly as a *ProviderError.
type Provider interface {
	// Name returns the provider identifier ("azure", "bedrock")
	Name() string

	// Generate performs a single text-generation call. The request timeout
	// bounds the call; context cancellation aborts it in flight.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)
}

// GenerateRequest carries the inputs for one provider invocation
type GenerateRequest struct {
	// Prompt is the user input text
	Prompt string

	// SystemPrompt is the composed system instruction
	SystemPrompt string

	// Model is the model identifier, or the deployment name on Azure
	Model string

	// MaxOutputTokens limits the response length
	MaxOutputTokens int

	// Temperature controls randomness
	Temperature float64

	// TopP controls nucleus sampling
	TopP float64

	// Timeout is the hard bound for this single attempt
	Timeout time.Duration
}

// GenerateResult is the outcome of one successful provider invocation
type GenerateResult struct {
	// Provider that produced the text
	Provider string

	// Model that produced the text
	Model string

	// Text is the generated completion
	Text string

	// LatencyMs is the wall-clock call duration in milliseconds
	LatencyMs int
}

// ProviderError represents an error from a provider
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Retryable indicates if another attempt could succeed
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, retryable bool, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Retryable
	}
	return false
}

// Error codes shared by the adapters.
const (
	ErrCodeHTTPError      = "http_error"
	ErrCodeInvalidFormat  = "invalid_response_format"
	ErrCodeEmptyResponse  = "empty_response"
	ErrCodeTransportError = "transport_error"
	ErrCodeTimeout        = "timeout"
)
