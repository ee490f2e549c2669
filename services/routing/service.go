package routing

import (
	"fmt"

	"github.com/upb/genai-gateway/models"
)

// ModelSet names one provider's model (or deployment) per routing tier.
type ModelSet struct {
	LowCost     string
	HighQuality string
	LowLatency  string
}

// RoutingConfig holds the model sets the policy selects from. It is loaded
// once at startup and never mutated afterwards.
type RoutingConfig struct {
	Azure   ModelSet
	Bedrock ModelSet
}

// RoutingService maps a request's priority (and optional provider hint) to
// an ordered (primary, secondary) pair of provider selections. It is pure
// and deterministic: no I/O, no state, identical inputs give identical
// decisions.
type RoutingService struct {
	config RoutingConfig
}

// NewRoutingService creates a new routing service
func NewRoutingService(config RoutingConfig) *RoutingService {
	return &RoutingService{config: config}
}

// Choose resolves the ordered provider pair for a request.
//
// Decision table:
//
//	low_cost     -> bedrock low-cost model,     azure low-cost deployment
//	high_quality -> bedrock high-quality model, azure high-quality deployment
//	low_latency  -> azure low-latency deployment, bedrock low-latency model
//
// A provider hint that names the secondary's provider swaps the pair so the
// hinted provider is attempted first; the other provider stays available as
// fallback. Unrecognized hints are ignored. The two slots never share a
// provider.
func (s *RoutingService) Choose(req *models.GenerationRequest) models.RouteDecision {
	var primary, secondary models.ProviderSelection

	switch req.Priority {
	case models.PriorityLowCost:
		primary = models.ProviderSelection{Provider: models.ProviderBedrock, Model: s.config.Bedrock.LowCost}
		secondary = models.ProviderSelection{Provider: models.ProviderAzure, Model: s.config.Azure.LowCost}
	case models.PriorityHighQuality:
		primary = models.ProviderSelection{Provider: models.ProviderBedrock, Model: s.config.Bedrock.HighQuality}
		secondary = models.ProviderSelection{Provider: models.ProviderAzure, Model: s.config.Azure.HighQuality}
	default: // low_latency
		primary = models.ProviderSelection{Provider: models.ProviderAzure, Model: s.config.Azure.LowLatency}
		secondary = models.ProviderSelection{Provider: models.ProviderBedrock, Model: s.config.Bedrock.LowLatency}
	}

	reason := fmt.Sprintf("priority %s prefers %s", req.Priority, primary.Provider)

	switch req.ProviderHint {
	case models.ProviderAzure:
		if primary.Provider != models.ProviderAzure {
			primary, secondary = secondary, primary
			reason += ", hint azure promoted fallback to primary"
		}
	case models.ProviderBedrock:
		if primary.Provider != models.ProviderBedrock {
			primary, secondary = secondary, primary
			reason += ", hint bedrock promoted fallback to primary"
		}
	}

	return models.RouteDecision{
		Primary:   primary,
		Secondary: secondary,
		Reason:    reason,
	}
}
