package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/upb/genai-gateway/config"
	"github.com/upb/genai-gateway/handlers"
	"github.com/upb/genai-gateway/repositories"
	"github.com/upb/genai-gateway/services/costing"
	"github.com/upb/genai-gateway/services/orchestrator"
	"github.com/upb/genai-gateway/services/providers"
	"github.com/upb/genai-gateway/services/providers/azure"
	"github.com/upb/genai-gateway/services/providers/bedrock"
	"github.com/upb/genai-gateway/services/routing"
	"github.com/upb/genai-gateway/services/usage"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	Catalog *config.Catalog
	Logger  *zap.Logger

	// Storage
	Store repositories.UsageRepository

	// Services
	Registry     *providers.Registry
	Router       *routing.RoutingService
	Estimator    *costing.Estimator
	Recorder     *usage.Recorder
	Orchestrator *orchestrator.Service

	// Handlers
	GenerateHandler *handlers.GenerateHandler
	UsageHandler    *handlers.UsageHandler
	HealthHandler   *handlers.HealthHandler
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Resolve the model/pricing catalog
	if err := deps.initCatalog(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}

	// Open the usage store
	if err := deps.initStore(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize usage store: %w", err)
	}

	// Initialize provider adapters
	if err := deps.initProviders(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	// Wire services and handlers
	deps.initServices(cfg)
	deps.initHandlers(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initCatalog loads and validates the effective model catalog
func (d *Dependencies) initCatalog(cfg *config.Config) error {
	catalog, err := config.LoadCatalog(cfg)
	if err != nil {
		return err
	}
	if err := catalog.Validate(); err != nil {
		return err
	}

	d.Catalog = catalog
	if cfg.CatalogPath != "" {
		d.Logger.Info("model catalog loaded", zap.String("path", cfg.CatalogPath))
	}
	return nil
}

// initStore opens the configured usage store and verifies the connection
func (d *Dependencies) initStore(ctx context.Context, cfg *config.Config) error {
	store, err := repositories.NewStore(cfg, d.Logger)
	if err != nil {
		return err
	}

	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("usage store ping failed: %w", err)
	}

	d.Store = store
	d.Logger.Info("usage store ready", zap.String("driver", cfg.Store.Driver))
	return nil
}

// initProviders registers the Azure OpenAI and Bedrock adapters
func (d *Dependencies) initProviders(ctx context.Context, cfg *config.Config) error {
	registry := providers.NewRegistry()

	azureAdapter := azure.NewAdapter(azure.Config{
		Endpoint:   cfg.Azure.Endpoint,
		APIKey:     cfg.Azure.APIKey,
		APIVersion: cfg.Azure.APIVersion,
	})
	if err := registry.Register(azureAdapter); err != nil {
		return fmt.Errorf("failed to register azure provider: %w", err)
	}

	bedrockAdapter, err := bedrock.NewAdapter(ctx, cfg.Bedrock.Region)
	if err != nil {
		return fmt.Errorf("failed to create bedrock provider: %w", err)
	}
	if err := registry.Register(bedrockAdapter); err != nil {
		return fmt.Errorf("failed to register bedrock provider: %w", err)
	}

	d.Registry = registry
	d.Logger.Info("providers registered", zap.Strings("providers", registry.Names()))
	return nil
}

// initServices wires the routing, costing, usage and orchestration services
func (d *Dependencies) initServices(cfg *config.Config) {
	d.Router = routing.NewRoutingService(routing.RoutingConfig{
		Azure:   modelSet(d.Catalog.Azure.Models),
		Bedrock: modelSet(d.Catalog.Bedrock.Models),
	})

	d.Estimator = costing.New(nil)

	pricing := map[string]costing.Pricing{
		"azure":   tokenPricing(d.Catalog.Azure.Pricing),
		"bedrock": tokenPricing(d.Catalog.Bedrock.Pricing),
	}
	d.Recorder = usage.NewRecorder(d.Store, d.Estimator, pricing, cfg.EnableRequestLogging, d.Logger)

	d.Orchestrator = orchestrator.NewService(d.Registry, d.Router, d.Recorder, cfg.HardTimeout, d.Logger)
}

// initHandlers builds the HTTP handlers on top of the services
func (d *Dependencies) initHandlers(cfg *config.Config) {
	d.GenerateHandler = handlers.NewGenerateHandler(d.Orchestrator, d.Logger)
	d.UsageHandler = handlers.NewUsageHandler(d.Recorder, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.Store, cfg.Environment, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close usage store: %w", err))
		} else {
			d.Logger.Info("usage store closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}

func modelSet(tiers config.ModelTiers) routing.ModelSet {
	return routing.ModelSet{
		LowCost:     tiers.LowCost,
		HighQuality: tiers.HighQuality,
		LowLatency:  tiers.LowLatency,
	}
}

func tokenPricing(p config.TokenPricing) costing.Pricing {
	return costing.Pricing{
		InputPer1K:  p.InputPer1K,
		OutputPer1K: p.OutputPer1K,
	}
}
