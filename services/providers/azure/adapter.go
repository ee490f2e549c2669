package azure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/upb/genai-gateway/services/providers"
)

const providerName = "azure"

// Config holds the Azure OpenAI connection settings
type Config struct {
	// Endpoint is the resource endpoint, e.g. https://myres.openai.azure.com
	Endpoint string

	// APIKey is the resource API key, sent in the api-key header
	APIKey string

	// APIVersion selects the REST API version, e.g. 2024-02-15-preview
	APIVersion string
}

// Adapter implements the Provider interface against the Azure OpenAI
// Chat Completions REST API:
//
//	POST {endpoint}/openai/deployments/{deployment}/chat/completions?api-version=...
type Adapter struct {
	config     Config
	httpClient *http.Client
}

// NewAdapter creates a new Azure OpenAI adapter
func NewAdapter(config Config) *Adapter {
	config.Endpoint = strings.TrimRight(config.Endpoint, "/")

	return &Adapter{
		config:     config,
		httpClient: &http.Client{},
	}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return providerName
}

// Generate performs a single chat completion call against the deployment
// named in req.Model. The system prompt and user prompt travel as separate
// messages. req.Timeout bounds the whole call.
func (a *Adapter) Generate(ctx context.Context, req *providers.GenerateRequest) (*providers.GenerateResult, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		a.config.Endpoint, req.Model, a.config.APIVersion)

	payload := &ChatRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.Prompt},
		},
		MaxTokens:   req.MaxOutputTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, providers.NewProviderError(providerName, "marshal_error", "failed to marshal request", 0, false, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, providers.NewProviderError(providerName, "request_error", "failed to create request", 0, false, err)
	}

	httpReq.Header.Set("api-key", a.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, providers.NewProviderError(providerName, providers.ErrCodeTimeout, "request timed out", 0, true, err)
		}
		return nil, providers.NewProviderError(providerName, providers.ErrCodeTransportError, "http request failed", 0, true, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	latencyMs := int(time.Since(startTime).Milliseconds())
	if err != nil {
		return nil, providers.NewProviderError(providerName, "read_error", "failed to read response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode >= 400 {
		return nil, a.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, providers.NewProviderError(providerName, providers.ErrCodeInvalidFormat, "failed to unmarshal response", httpResp.StatusCode, false, err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, providers.NewProviderError(providerName, providers.ErrCodeInvalidFormat,
			fmt.Sprintf("unexpected azure response format: %s", string(respBody)), httpResp.StatusCode, false, nil)
	}

	return &providers.GenerateResult{
		Provider:  providerName,
		Model:     req.Model,
		Text:      chatResp.Choices[0].Message.Content,
		LatencyMs: latencyMs,
	}, nil
}

// handleErrorResponse converts an Azure error body into a ProviderError
func (a *Adapter) handleErrorResponse(statusCode int, body []byte) error {
	message := strings.TrimSpace(string(body))

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	retryable := statusCode >= 500 || statusCode == http.StatusTooManyRequests

	return providers.NewProviderError(
		providerName,
		providers.ErrCodeHTTPError,
		fmt.Sprintf("azure openai error %d: %s", statusCode, message),
		statusCode,
		retryable,
		nil,
	)
}

// Azure-specific request/response types

type ChatRequest struct {
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
}

type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
