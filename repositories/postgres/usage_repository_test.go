package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/genai-gateway/models"
)

func newMockRepository(t *testing.T) (*UsageRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := &DB{DB: mockDB, logger: zap.NewNop()}
	return NewUsageRepository(db, zap.NewNop()), mock
}

func TestUsageRepository_Insert(t *testing.T) {
	repo, mock := newMockRepository(t)

	record := models.NewUsageRecord("req-1", "azure", "gpt4o-mini", models.TaskChat, models.PriorityLowCost)
	record.MarkSuccess(models.CostEstimate{
		InputTokensEst:  100,
		OutputTokensEst: 50,
		TotalTokensEst:  150,
		CostEstUSD:      0.000045,
	}, 320)

	mock.ExpectQuery("INSERT INTO usage_logs").
		WithArgs(
			record.Timestamp.Unix(),
			"req-1",
			"azure",
			"gpt4o-mini",
			"chat",
			"low_cost",
			100,
			50,
			150,
			0.000045,
			320,
			true,
			nil,
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	err := repo.Insert(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, int64(7), record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageRepository_Insert_FailureRecord(t *testing.T) {
	repo, mock := newMockRepository(t)

	record := models.NewUsageRecord("req-2", "bedrock", "claude-haiku", models.TaskChat, models.PriorityLowCost)
	record.MarkFailure(models.CostEstimate{InputTokensEst: 80, TotalTokensEst: 80}, "invoke failed")

	mock.ExpectQuery("INSERT INTO usage_logs").
		WithArgs(
			record.Timestamp.Unix(),
			"req-2",
			"bedrock",
			"claude-haiku",
			"chat",
			"low_cost",
			80,
			0,
			80,
			0.0,
			0,
			false,
			"invoke failed",
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)))

	err := repo.Insert(context.Background(), record)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageRepository_Insert_DBError(t *testing.T) {
	repo, mock := newMockRepository(t)

	record := models.NewUsageRecord("req-3", "azure", "gpt4o", models.TaskChat, models.PriorityHighQuality)
	record.MarkSuccess(models.CostEstimate{}, 10)

	mock.ExpectQuery("INSERT INTO usage_logs").
		WillReturnError(sql.ErrConnDone)

	err := repo.Insert(context.Background(), record)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert usage record")
}

func usageRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "ts", "request_id", "provider", "model", "task", "priority",
		"input_tokens_est", "output_tokens_est", "total_tokens_est",
		"cost_est_usd", "latency_ms", "success", "error",
	})
}

func TestUsageRepository_GetByRequestID(t *testing.T) {
	repo, mock := newMockRepository(t)

	ts := time.Now().Unix()
	mock.ExpectQuery("SELECT (.+) FROM usage_logs").
		WithArgs("req-4").
		WillReturnRows(usageRows().
			AddRow(int64(1), ts, "req-4", "bedrock", "claude-haiku", "chat", "low_cost",
				100, 0, 100, 0.0, 0, false, "primary down").
			AddRow(int64(2), ts, "req-4", "azure", "gpt4o-mini", "chat", "low_cost",
				100, 40, 140, 0.000039, 250, true, nil))

	records, err := repo.GetByRequestID(context.Background(), "req-4")
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Failed primary first, successful fallback second
	assert.False(t, records[0].Success)
	require.NotNil(t, records[0].Error)
	assert.Equal(t, "primary down", *records[0].Error)

	assert.True(t, records[1].Success)
	assert.Nil(t, records[1].Error)
	assert.Equal(t, models.TaskChat, records[1].Task)
	assert.Equal(t, models.PriorityLowCost, records[1].Priority)
	assert.Equal(t, 140, records[1].TotalTokensEst)
	assert.Equal(t, time.Unix(ts, 0).UTC(), records[1].Timestamp)
}

func TestUsageRepository_List(t *testing.T) {
	repo, mock := newMockRepository(t)

	ts := time.Now().Unix()
	mock.ExpectQuery("SELECT (.+) FROM usage_logs").
		WithArgs(2).
		WillReturnRows(usageRows().
			AddRow(int64(9), ts, "req-b", "azure", "gpt4o-mini", "chat", "low_latency",
				10, 5, 15, 0.0000045, 90, true, nil).
			AddRow(int64(8), ts, "req-a", "azure", "gpt4o-mini", "chat", "low_latency",
				10, 5, 15, 0.0000045, 120, true, nil))

	records, err := repo.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(9), records[0].ID)
	assert.Equal(t, int64(8), records[1].ID)
}

func TestUsageRepository_Summarize(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT provider, model, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{
			"provider", "model", "count", "successes", "total_tokens_est", "cost_est_usd",
		}).
			AddRow("azure", "gpt4o-mini", 5, 4, int64(700), 0.00021).
			AddRow("bedrock", "claude-haiku", 2, 1, int64(150), 0.0001))

	summaries, err := repo.Summarize(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "azure", summaries[0].Provider)
	assert.Equal(t, 5, summaries[0].Requests)
	assert.Equal(t, 4, summaries[0].Successes)
	assert.Equal(t, int64(700), summaries[0].TotalTokensEst)

	assert.Equal(t, "bedrock", summaries[1].Provider)
	assert.Equal(t, 1, summaries[1].Successes)
}

func TestUsageRepository_Summarize_DBError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT provider, model, COUNT").
		WillReturnError(sql.ErrConnDone)

	_, err := repo.Summarize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to summarize usage")
}
