package providers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderError_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := NewProviderError("azure", ErrCodeHTTPError, "azure api error (status 500)", 500, true, nil)
		assert.Equal(t, "azure api error (status 500)", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewProviderError("bedrock", ErrCodeTransportError, "bedrock invoke failed", 0, true, cause)
		assert.Equal(t, "bedrock invoke failed: connection refused", err.Error())
	})
}

func TestProviderError_Unwrap(t *testing.T) {
	cause := errors.New("tcp reset")
	err := NewProviderError("azure", ErrCodeTransportError, "request failed", 0, true, cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestNewProviderError(t *testing.T) {
	cause := errors.New("boom")
	err := NewProviderError("bedrock", ErrCodeTimeout, "attempt timed out", 0, true, cause)

	assert.Equal(t, "bedrock", err.Provider)
	assert.Equal(t, ErrCodeTimeout, err.Code)
	assert.Equal(t, "attempt timed out", err.Message)
	assert.Zero(t, err.StatusCode)
	assert.True(t, err.Retryable)
	assert.Equal(t, cause, err.Cause)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "retryable provider error",
			err:  NewProviderError("azure", ErrCodeHTTPError, "throttled", 429, true, nil),
			want: true,
		},
		{
			name: "non retryable provider error",
			err:  NewProviderError("azure", ErrCodeHTTPError, "bad request", 400, false, nil),
			want: false,
		},
		{
			name: "wrapped provider error",
			err:  fmt.Errorf("attempt: %w", NewProviderError("bedrock", ErrCodeTimeout, "timed out", 0, true, nil)),
			want: true,
		},
		{
			name: "plain error",
			err:  errors.New("oops"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
