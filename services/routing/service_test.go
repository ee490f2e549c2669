package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/upb/genai-gateway/models"
)

func testConfig() RoutingConfig {
	return RoutingConfig{
		Azure: ModelSet{
			LowCost:     "gpt-4o-mini",
			HighQuality: "gpt-4o",
			LowLatency:  "gpt-4o-mini-fast",
		},
		Bedrock: ModelSet{
			LowCost:     "anthropic.claude-3-haiku-20240307-v1:0",
			HighQuality: "anthropic.claude-3-5-sonnet-20240620-v1:0",
			LowLatency:  "anthropic.claude-3-haiku-20240307-v1:0",
		},
	}
}

func TestChooseDecisionTable(t *testing.T) {
	s := NewRoutingService(testConfig())

	tests := []struct {
		name          string
		priority      models.Priority
		wantPrimary   models.ProviderSelection
		wantSecondary models.ProviderSelection
	}{
		{
			name:          "low_cost prefers bedrock",
			priority:      models.PriorityLowCost,
			wantPrimary:   models.ProviderSelection{Provider: "bedrock", Model: "anthropic.claude-3-haiku-20240307-v1:0"},
			wantSecondary: models.ProviderSelection{Provider: "azure", Model: "gpt-4o-mini"},
		},
		{
			name:          "high_quality prefers bedrock",
			priority:      models.PriorityHighQuality,
			wantPrimary:   models.ProviderSelection{Provider: "bedrock", Model: "anthropic.claude-3-5-sonnet-20240620-v1:0"},
			wantSecondary: models.ProviderSelection{Provider: "azure", Model: "gpt-4o"},
		},
		{
			name:          "low_latency prefers azure",
			priority:      models.PriorityLowLatency,
			wantPrimary:   models.ProviderSelection{Provider: "azure", Model: "gpt-4o-mini-fast"},
			wantSecondary: models.ProviderSelection{Provider: "bedrock", Model: "anthropic.claude-3-haiku-20240307-v1:0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := s.Choose(&models.GenerationRequest{Priority: tt.priority})

			assert.Equal(t, tt.wantPrimary, decision.Primary)
			assert.Equal(t, tt.wantSecondary, decision.Secondary)
		})
	}
}

func TestChooseProvidersNeverEqual(t *testing.T) {
	s := NewRoutingService(testConfig())

	priorities := []models.Priority{
		models.PriorityLowCost,
		models.PriorityHighQuality,
		models.PriorityLowLatency,
	}
	hints := []string{"", "azure", "bedrock", "openai"}

	for _, p := range priorities {
		for _, h := range hints {
			decision := s.Choose(&models.GenerationRequest{Priority: p, ProviderHint: h})
			assert.NotEqual(t, decision.Primary.Provider, decision.Secondary.Provider,
				"priority=%s hint=%s", p, h)
		}
	}
}

func TestChooseHintSwapsPair(t *testing.T) {
	s := NewRoutingService(testConfig())

	t.Run("azure hint on low_cost", func(t *testing.T) {
		decision := s.Choose(&models.GenerationRequest{
			Priority:     models.PriorityLowCost,
			ProviderHint: "azure",
		})

		assert.Equal(t, "azure", decision.Primary.Provider)
		assert.Equal(t, "bedrock", decision.Secondary.Provider)
		// The hinted primary keeps the low-cost tier model.
		assert.Equal(t, "gpt-4o-mini", decision.Primary.Model)
	})

	t.Run("bedrock hint on low_latency", func(t *testing.T) {
		decision := s.Choose(&models.GenerationRequest{
			Priority:     models.PriorityLowLatency,
			ProviderHint: "bedrock",
		})

		assert.Equal(t, "bedrock", decision.Primary.Provider)
		assert.Equal(t, "azure", decision.Secondary.Provider)
	})

	t.Run("hint matching primary is a no-op", func(t *testing.T) {
		decision := s.Choose(&models.GenerationRequest{
			Priority:     models.PriorityLowCost,
			ProviderHint: "bedrock",
		})

		assert.Equal(t, "bedrock", decision.Primary.Provider)
		assert.Equal(t, "azure", decision.Secondary.Provider)
	})
}

func TestChooseInvalidHintIgnored(t *testing.T) {
	s := NewRoutingService(testConfig())

	hinted := s.Choose(&models.GenerationRequest{
		Priority:     models.PriorityHighQuality,
		ProviderHint: "gcp",
	})
	unhinted := s.Choose(&models.GenerationRequest{
		Priority: models.PriorityHighQuality,
	})

	assert.Equal(t, unhinted.Primary, hinted.Primary)
	assert.Equal(t, unhinted.Secondary, hinted.Secondary)
}

func TestChooseIdempotent(t *testing.T) {
	s := NewRoutingService(testConfig())
	req := &models.GenerationRequest{
		Priority:     models.PriorityHighQuality,
		ProviderHint: "azure",
	}

	first := s.Choose(req)
	second := s.Choose(req)

	assert.Equal(t, first, second)
}
