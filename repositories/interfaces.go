package repositories

import (
	"context"

	"github.com/upb/genai-gateway/models"
)

// UsageRepository persists one usage record per provider attempt and
// serves the read side of the usage API.
type UsageRepository interface {
	// Insert appends a usage record and fills in its assigned ID
	Insert(ctx context.Context, record *models.UsageRecord) error

	// GetByRequestID retrieves all records logged under a request ID,
	// in insertion order
	GetByRequestID(ctx context.Context, requestID string) ([]*models.UsageRecord, error)

	// List retrieves the most recent records, newest first
	List(ctx context.Context, limit int) ([]*models.UsageRecord, error)

	// Summarize aggregates request counts, token estimates and cost
	// per provider and model
	Summarize(ctx context.Context) ([]*models.UsageSummary, error)

	// Ping reports whether the underlying store is reachable
	Ping(ctx context.Context) error

	// Close releases the underlying store
	Close() error
}
