package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog declares the tiered models and per-1K pricing for both
// providers. It is resolved once at startup and treated as immutable
// afterwards; routing and costing read from it.
type Catalog struct {
	Azure   ProviderCatalog `yaml:"azure"`
	Bedrock ProviderCatalog `yaml:"bedrock"`
}

// ProviderCatalog holds one provider's model tiers and pricing
type ProviderCatalog struct {
	Models  ModelTiers   `yaml:"models"`
	Pricing TokenPricing `yaml:"pricing"`
}

// ModelTiers names the model (or Azure deployment) serving each routing tier
type ModelTiers struct {
	LowCost     string `yaml:"low_cost"`
	HighQuality string `yaml:"high_quality"`
	LowLatency  string `yaml:"low_latency"`
}

// TokenPricing is the per-1K-token price in USD
type TokenPricing struct {
	InputPer1K  float64 `yaml:"input_per_1k"`
	OutputPer1K float64 `yaml:"output_per_1k"`
}

// DefaultCatalog builds the catalog from the env-derived settings
func (c *Config) DefaultCatalog() *Catalog {
	return &Catalog{
		Azure: ProviderCatalog{
			Models: ModelTiers{
				LowCost:     c.Azure.DeploymentLowCost,
				HighQuality: c.Azure.DeploymentHighQuality,
				LowLatency:  c.Azure.DeploymentLowLatency,
			},
			Pricing: TokenPricing{
				InputPer1K:  c.Pricing.AzureInputPer1K,
				OutputPer1K: c.Pricing.AzureOutputPer1K,
			},
		},
		Bedrock: ProviderCatalog{
			Models: ModelTiers{
				LowCost:     c.Bedrock.ModelLowCost,
				HighQuality: c.Bedrock.ModelHighQuality,
				LowLatency:  c.Bedrock.ModelLowLatency,
			},
			Pricing: TokenPricing{
				InputPer1K:  c.Pricing.BedrockInputPer1K,
				OutputPer1K: c.Pricing.BedrockOutputPer1K,
			},
		},
	}
}

// LoadCatalog resolves the effective catalog: env-derived defaults,
// overlaid with the YAML file at CatalogPath when set. Environment
// variables in the file are expanded before parsing; keys absent from
// the file keep their default values.
func LoadCatalog(cfg *Config) (*Catalog, error) {
	catalog := cfg.DefaultCatalog()

	if cfg.CatalogPath == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), catalog); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	return catalog, nil
}

// Validate checks that every routing tier names a model. Called before
// the gateway starts serving generation traffic.
func (cat *Catalog) Validate() error {
	tiers := []struct {
		provider string
		tier     string
		model    string
	}{
		{"azure", "low_cost", cat.Azure.Models.LowCost},
		{"azure", "high_quality", cat.Azure.Models.HighQuality},
		{"azure", "low_latency", cat.Azure.Models.LowLatency},
		{"bedrock", "low_cost", cat.Bedrock.Models.LowCost},
		{"bedrock", "high_quality", cat.Bedrock.Models.HighQuality},
		{"bedrock", "low_latency", cat.Bedrock.Models.LowLatency},
	}

	for _, t := range tiers {
		if t.model == "" {
			return fmt.Errorf("catalog is missing the %s %s model", t.provider, t.tier)
		}
	}

	return nil
}
