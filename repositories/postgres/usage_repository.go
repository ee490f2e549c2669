package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/upb/genai-gateway/config"
	"github.com/upb/genai-gateway/models"
)

// UsageRepository implements repositories.UsageRepository on PostgreSQL
type UsageRepository struct {
	db     *DB
	logger *zap.Logger
}

// New connects to PostgreSQL, initializes the schema and returns the
// usage repository.
func New(cfg config.DatabaseConfig, logger *zap.Logger) (*UsageRepository, error) {
	db, err := NewDB(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := db.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return NewUsageRepository(db, logger), nil
}

// NewUsageRepository creates a usage repository on an existing connection
func NewUsageRepository(db *DB, logger *zap.Logger) *UsageRepository {
	return &UsageRepository{
		db:     db,
		logger: logger,
	}
}

// Insert appends a usage record and fills in its assigned ID
func (r *UsageRepository) Insert(ctx context.Context, record *models.UsageRecord) error {
	query := `
		INSERT INTO usage_logs (
			ts, request_id, provider, model, task, priority,
			input_tokens_est, output_tokens_est, total_tokens_est,
			cost_est_usd, latency_ms, success, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		record.Timestamp.Unix(),
		record.RequestID,
		record.Provider,
		record.Model,
		string(record.Task),
		string(record.Priority),
		record.InputTokensEst,
		record.OutputTokensEst,
		record.TotalTokensEst,
		record.CostEstUSD,
		record.LatencyMs,
		record.Success,
		record.Error,
	).Scan(&record.ID)

	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}

	r.logger.Debug("usage record inserted",
		zap.String("request_id", record.RequestID),
		zap.String("provider", record.Provider),
		zap.Bool("success", record.Success))
	return nil
}

// GetByRequestID retrieves all records logged under a request ID
func (r *UsageRepository) GetByRequestID(ctx context.Context, requestID string) ([]*models.UsageRecord, error) {
	query := `
		SELECT id, ts, request_id, provider, model, task, priority,
		       input_tokens_est, output_tokens_est, total_tokens_est,
		       cost_est_usd, latency_ms, success, error
		FROM usage_logs
		WHERE request_id = $1
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// List retrieves the most recent records, newest first
func (r *UsageRepository) List(ctx context.Context, limit int) ([]*models.UsageRecord, error) {
	query := `
		SELECT id, ts, request_id, provider, model, task, priority,
		       input_tokens_est, output_tokens_est, total_tokens_est,
		       cost_est_usd, latency_ms, success, error
		FROM usage_logs
		ORDER BY id DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Summarize aggregates per provider and model totals
func (r *UsageRepository) Summarize(ctx context.Context) ([]*models.UsageSummary, error) {
	query := `
		SELECT provider, model, COUNT(*),
		       COUNT(*) FILTER (WHERE success),
		       COALESCE(SUM(total_tokens_est), 0),
		       COALESCE(SUM(cost_est_usd), 0)
		FROM usage_logs
		GROUP BY provider, model
		ORDER BY provider, model
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize usage: %w", err)
	}
	defer rows.Close()

	var summaries []*models.UsageSummary
	for rows.Next() {
		summary := &models.UsageSummary{}
		if err := rows.Scan(
			&summary.Provider,
			&summary.Model,
			&summary.Requests,
			&summary.Successes,
			&summary.TotalTokensEst,
			&summary.CostEstUSD,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage summary: %w", err)
		}
		summaries = append(summaries, summary)
	}

	return summaries, rows.Err()
}

// Ping reports whether the database is reachable
func (r *UsageRepository) Ping(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// Close closes the underlying connection pool
func (r *UsageRepository) Close() error {
	return r.db.Close()
}

func scanRecords(rows *sql.Rows) ([]*models.UsageRecord, error) {
	var records []*models.UsageRecord

	for rows.Next() {
		record := &models.UsageRecord{}
		var ts int64
		var errMsg sql.NullString

		if err := rows.Scan(
			&record.ID,
			&ts,
			&record.RequestID,
			&record.Provider,
			&record.Model,
			&record.Task,
			&record.Priority,
			&record.InputTokensEst,
			&record.OutputTokensEst,
			&record.TotalTokensEst,
			&record.CostEstUSD,
			&record.LatencyMs,
			&record.Success,
			&errMsg,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}

		record.Timestamp = time.Unix(ts, 0).UTC()
		if errMsg.Valid {
			record.Error = &errMsg.String
		}

		records = append(records, record)
	}

	return records, rows.Err()
}
