package repositories

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/upb/genai-gateway/config"
	"github.com/upb/genai-gateway/repositories/postgres"
	"github.com/upb/genai-gateway/repositories/sqlite"
)

// NewStore opens the usage store selected by cfg.Store.Driver.
// SQLite is the default engine; Postgres is for shared deployments.
func NewStore(cfg *config.Config, logger *zap.Logger) (UsageRepository, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return sqlite.New(cfg.Store.Path, logger)
	case "postgres":
		return postgres.New(cfg.Database, logger)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
