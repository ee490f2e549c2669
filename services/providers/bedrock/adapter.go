package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/upb/genai-gateway/services/providers"
)

const (
	providerName = "bedrock"

	anthropicVersion = "bedrock-2023-05-31"
)

// InvokeClient is the subset of the Bedrock runtime client the adapter needs
type InvokeClient interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Adapter implements the Provider interface on top of the Bedrock
// InvokeModel API, targeting Anthropic Claude-style message payloads.
type Adapter struct {
	client InvokeClient
}

// NewAdapter creates a Bedrock adapter for the given region. Credentials
// come from the default AWS chain. The SDK client retries transient
// failures up to twice in standard mode.
func NewAdapter(ctx context.Context, region string) (*Adapter, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithRetryMaxAttempts(2),
		awsconfig.WithRetryMode(aws.RetryModeStandard),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return &Adapter{client: bedrockruntime.NewFromConfig(cfg)}, nil
}

// NewAdapterWithClient creates an adapter around an existing client
func NewAdapterWithClient(client InvokeClient) *Adapter {
	return &Adapter{client: client}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return providerName
}

// Generate performs a single InvokeModel call. Bedrock has no separate
// system role in this payload shape, so the system prompt is prepended to
// the user text in one message. req.Timeout bounds the whole call.
func (a *Adapter) Generate(ctx context.Context, req *providers.GenerateRequest) (*providers.GenerateResult, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	combined := strings.TrimSpace(req.SystemPrompt + "\n\n" + req.Prompt)

	body := &InvokeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        req.MaxOutputTokens,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		Messages: []Message{
			{
				Role:    "user",
				Content: []ContentBlock{{Type: "text", Text: combined}},
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, providers.NewProviderError(providerName, "marshal_error", "failed to marshal request", 0, false, err)
	}

	startTime := time.Now()
	output, err := a.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(req.Model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	latencyMs := int(time.Since(startTime).Milliseconds())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, providers.NewProviderError(providerName, providers.ErrCodeTimeout, "request timed out", 0, true, err)
		}
		return nil, providers.NewProviderError(providerName, providers.ErrCodeTransportError,
			fmt.Sprintf("bedrock invoke failed for model %s", req.Model), 0, true, err)
	}

	var invokeResp InvokeResponse
	if err := json.Unmarshal(output.Body, &invokeResp); err != nil {
		return nil, providers.NewProviderError(providerName, providers.ErrCodeInvalidFormat, "failed to unmarshal response", 0, false, err)
	}

	text := ""
	if len(invokeResp.Content) > 0 {
		text = invokeResp.Content[0].Text
	}
	if text == "" {
		// Some models return a bare completion field instead
		text = invokeResp.Completion
	}

	if strings.TrimSpace(text) == "" {
		return nil, providers.NewProviderError(providerName, providers.ErrCodeEmptyResponse,
			fmt.Sprintf("empty bedrock completion: %s", string(output.Body)), 0, false, nil)
	}

	return &providers.GenerateResult{
		Provider:  providerName,
		Model:     req.Model,
		Text:      text,
		LatencyMs: latencyMs,
	}, nil
}

// Bedrock-specific request/response types

type InvokeRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature"`
	TopP             float64   `json:"top_p"`
	Messages         []Message `json:"messages"`
}

type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type InvokeResponse struct {
	Content    []ContentBlock `json:"content"`
	Completion string         `json:"completion"`
	StopReason string         `json:"stop_reason"`
}
