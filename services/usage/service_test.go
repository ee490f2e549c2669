package usage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/genai-gateway/models"
	"github.com/upb/genai-gateway/services/costing"
)

// MockUsageRepository is a mock implementation of UsageRepository
type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) Insert(ctx context.Context, record *models.UsageRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockUsageRepository) GetByRequestID(ctx context.Context, requestID string) ([]*models.UsageRecord, error) {
	args := m.Called(ctx, requestID)
	if records := args.Get(0); records != nil {
		return records.([]*models.UsageRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsageRepository) List(ctx context.Context, limit int) ([]*models.UsageRecord, error) {
	args := m.Called(ctx, limit)
	if records := args.Get(0); records != nil {
		return records.([]*models.UsageRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsageRepository) Summarize(ctx context.Context) ([]*models.UsageSummary, error) {
	args := m.Called(ctx)
	if summaries := args.Get(0); summaries != nil {
		return summaries.([]*models.UsageSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsageRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUsageRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

func testPricing() map[string]costing.Pricing {
	return map[string]costing.Pricing{
		models.ProviderAzure:   {InputPer1K: 0.00015, OutputPer1K: 0.00060},
		models.ProviderBedrock: {InputPer1K: 0.00025, OutputPer1K: 0.00125},
	}
}

func testAttempt() Attempt {
	return Attempt{
		RequestID: "req-123",
		Provider:  models.ProviderAzure,
		Model:     "gpt4o-mini",
		Task:      models.TaskChat,
		Priority:  models.PriorityLowCost,
	}
}

func TestRecorder_RecordSuccess(t *testing.T) {
	mockRepo := new(MockUsageRepository)
	recorder := NewRecorder(mockRepo, costing.New(nil), testPricing(), true, zap.NewNop())

	var inserted *models.UsageRecord
	mockRepo.On("Insert", mock.Anything, mock.AnythingOfType("*models.UsageRecord")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(*models.UsageRecord)
		}).
		Return(nil)

	// 40 chars of prompt -> 10 tokens, 20 chars of output -> 5 tokens
	prompt := strings.Repeat("p", 40)
	output := strings.Repeat("o", 20)

	est := recorder.RecordSuccess(context.Background(), testAttempt(), prompt, output, 321)

	assert.Equal(t, 10, est.InputTokensEst)
	assert.Equal(t, 5, est.OutputTokensEst)
	assert.Equal(t, 15, est.TotalTokensEst)
	assert.InDelta(t, 0.0000045, est.CostEstUSD, 1e-12)

	require.NotNil(t, inserted)
	assert.Equal(t, "req-123", inserted.RequestID)
	assert.Equal(t, "azure", inserted.Provider)
	assert.Equal(t, "gpt4o-mini", inserted.Model)
	assert.Equal(t, models.TaskChat, inserted.Task)
	assert.Equal(t, models.PriorityLowCost, inserted.Priority)
	assert.Equal(t, 15, inserted.TotalTokensEst)
	assert.Equal(t, 321, inserted.LatencyMs)
	assert.True(t, inserted.Success)
	assert.Nil(t, inserted.Error)

	mockRepo.AssertExpectations(t)
}

func TestRecorder_RecordSuccess_UnknownProviderCostsZero(t *testing.T) {
	mockRepo := new(MockUsageRepository)
	recorder := NewRecorder(mockRepo, costing.New(nil), testPricing(), true, zap.NewNop())

	mockRepo.On("Insert", mock.Anything, mock.AnythingOfType("*models.UsageRecord")).Return(nil)

	attempt := testAttempt()
	attempt.Provider = "unknown"

	est := recorder.RecordSuccess(context.Background(), attempt, "some prompt", "some output", 10)

	assert.Equal(t, 0.0, est.CostEstUSD)
	assert.NotZero(t, est.TotalTokensEst)
}

func TestRecorder_RecordFailure(t *testing.T) {
	mockRepo := new(MockUsageRepository)
	recorder := NewRecorder(mockRepo, costing.New(nil), testPricing(), true, zap.NewNop())

	var inserted *models.UsageRecord
	mockRepo.On("Insert", mock.Anything, mock.AnythingOfType("*models.UsageRecord")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(*models.UsageRecord)
		}).
		Return(nil)

	prompt := strings.Repeat("p", 40)
	recorder.RecordFailure(context.Background(), testAttempt(), prompt, errors.New("upstream exploded"))

	require.NotNil(t, inserted)
	assert.Equal(t, 10, inserted.InputTokensEst)
	assert.Equal(t, 0, inserted.OutputTokensEst)
	assert.Equal(t, 10, inserted.TotalTokensEst)
	assert.Equal(t, 0.0, inserted.CostEstUSD)
	assert.Equal(t, 0, inserted.LatencyMs)
	assert.False(t, inserted.Success)
	require.NotNil(t, inserted.Error)
	assert.Equal(t, "upstream exploded", *inserted.Error)

	mockRepo.AssertExpectations(t)
}

func TestRecorder_RecordFailure_TruncatesLongError(t *testing.T) {
	mockRepo := new(MockUsageRepository)
	recorder := NewRecorder(mockRepo, costing.New(nil), testPricing(), true, zap.NewNop())

	var inserted *models.UsageRecord
	mockRepo.On("Insert", mock.Anything, mock.AnythingOfType("*models.UsageRecord")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(*models.UsageRecord)
		}).
		Return(nil)

	recorder.RecordFailure(context.Background(), testAttempt(), "p", errors.New(strings.Repeat("x", 800)))

	require.NotNil(t, inserted)
	require.NotNil(t, inserted.Error)
	assert.Len(t, *inserted.Error, models.MaxErrorLength)
}

func TestRecorder_DisabledSkipsPersistence(t *testing.T) {
	mockRepo := new(MockUsageRepository)
	recorder := NewRecorder(mockRepo, costing.New(nil), testPricing(), false, zap.NewNop())

	est := recorder.RecordSuccess(context.Background(), testAttempt(), strings.Repeat("p", 40), "out", 5)
	recorder.RecordFailure(context.Background(), testAttempt(), "p", errors.New("boom"))

	// Estimates are still computed for the response payload.
	assert.Equal(t, 10, est.InputTokensEst)
	mockRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestRecorder_StoreFailureIsSwallowed(t *testing.T) {
	mockRepo := new(MockUsageRepository)
	recorder := NewRecorder(mockRepo, costing.New(nil), testPricing(), true, zap.NewNop())

	mockRepo.On("Insert", mock.Anything, mock.AnythingOfType("*models.UsageRecord")).
		Return(errors.New("disk full"))

	est := recorder.RecordSuccess(context.Background(), testAttempt(), strings.Repeat("p", 40), "out", 5)

	// The estimate is returned even though the append failed.
	assert.Equal(t, 10, est.InputTokensEst)
	mockRepo.AssertExpectations(t)
}

func TestRecorder_Records(t *testing.T) {
	t.Run("by request id", func(t *testing.T) {
		mockRepo := new(MockUsageRepository)
		recorder := NewRecorder(mockRepo, nil, nil, true, zap.NewNop())

		expected := []*models.UsageRecord{{RequestID: "req-123"}}
		mockRepo.On("GetByRequestID", mock.Anything, "req-123").Return(expected, nil)

		records, err := recorder.Records(context.Background(), "req-123", 10)
		require.NoError(t, err)
		assert.Equal(t, expected, records)
		mockRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("recent with default limit", func(t *testing.T) {
		mockRepo := new(MockUsageRepository)
		recorder := NewRecorder(mockRepo, nil, nil, true, zap.NewNop())

		mockRepo.On("List", mock.Anything, 50).Return([]*models.UsageRecord{}, nil)

		_, err := recorder.Records(context.Background(), "", 0)
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("oversized limit is clamped", func(t *testing.T) {
		mockRepo := new(MockUsageRepository)
		recorder := NewRecorder(mockRepo, nil, nil, true, zap.NewNop())

		mockRepo.On("List", mock.Anything, 500).Return([]*models.UsageRecord{}, nil)

		_, err := recorder.Records(context.Background(), "", 10000)
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}

func TestRecorder_Summary(t *testing.T) {
	mockRepo := new(MockUsageRepository)
	recorder := NewRecorder(mockRepo, nil, nil, true, zap.NewNop())

	expected := []*models.UsageSummary{{Provider: "azure", Model: "gpt4o-mini", Requests: 3}}
	mockRepo.On("Summarize", mock.Anything).Return(expected, nil)

	summaries, err := recorder.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expected, summaries)
	mockRepo.AssertExpectations(t)
}
