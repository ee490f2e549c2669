package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/upb/genai-gateway/models"
)

const createTable = `
CREATE TABLE IF NOT EXISTS usage_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts INTEGER NOT NULL,
	request_id TEXT NOT NULL,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	task TEXT NOT NULL,
	priority TEXT NOT NULL,
	input_tokens_est INTEGER NOT NULL,
	output_tokens_est INTEGER NOT NULL,
	total_tokens_est INTEGER NOT NULL,
	cost_est_usd REAL NOT NULL,
	latency_ms INTEGER NOT NULL,
	success INTEGER NOT NULL,
	error TEXT
);
CREATE INDEX IF NOT EXISTS idx_usage_logs_request_id ON usage_logs(request_id);
CREATE INDEX IF NOT EXISTS idx_usage_logs_ts ON usage_logs(ts);
`

// UsageRepository implements repositories.UsageRepository on a local
// SQLite file. The ts column stores unix seconds.
type UsageRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// New opens (or creates) the database at dbPath and runs auto-migration
func New(dbPath string, logger *zap.Logger) (*UsageRepository, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open usage db: %w", err)
	}

	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate usage db: %w", err)
	}

	logger.Info("usage store opened", zap.String("driver", "sqlite"), zap.String("path", dbPath))

	return &UsageRepository{db: db, logger: logger}, nil
}

// Insert appends a usage record and fills in its assigned ID
func (r *UsageRepository) Insert(ctx context.Context, record *models.UsageRecord) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO usage_logs (
			ts, request_id, provider, model, task, priority,
			input_tokens_est, output_tokens_est, total_tokens_est,
			cost_est_usd, latency_ms, success, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
		boolToInt(record.Success),
		record.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		record.ID = id
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
		WHERE request_id = ?
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
		LIMIT ?
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
		SELECT provider, model, COUNT(*), SUM(success),
		       SUM(total_tokens_est), SUM(cost_est_usd)
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

// Ping reports whether the database file is still usable
func (r *UsageRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database
func (r *UsageRepository) Close() error {
	return r.db.Close()
}

func scanRecords(rows *sql.Rows) ([]*models.UsageRecord, error) {
	var records []*models.UsageRecord

	for rows.Next() {
		record := &models.UsageRecord{}
		var ts int64
		var success int
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
			&success,
			&errMsg,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}

		record.Timestamp = time.Unix(ts, 0).UTC()
		record.Success = success != 0
		if errMsg.Valid {
			record.Error = &errMsg.String
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
