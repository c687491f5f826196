package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRateLimitError(t *testing.T) {
	assert.False(t, IsRateLimitError(nil))
	assert.False(t, IsRateLimitError(errors.New("connection refused")))
	assert.True(t, IsRateLimitError(errors.New("HTTP 429 Too Many Requests")))
	assert.True(t, IsRateLimitError(errors.New("rpc error: RESOURCE_EXHAUSTED")))
	assert.True(t, IsRateLimitError(errors.New("quota exceeded for metric")))
}

func TestExtractRetryDelay(t *testing.T) {
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(nil))
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(errors.New("some error")))

	d := ExtractRetryDelay(errors.New("429: Please retry in 30s"))
	assert.Equal(t, 30*time.Second, d)

	d = ExtractRetryDelay(errors.New("RESOURCE_EXHAUSTED retryDelay: 12.5s"))
	assert.Equal(t, 12500*time.Millisecond, d)
}

func TestCalculateBackoff(t *testing.T) {
	cfg := NewDefaultRetryConfig()

	// First attempt uses the initial backoff
	assert.Equal(t, 45*time.Second, cfg.CalculateBackoff(0, 0))

	// Growth is multiplicative, then capped at MaxBackoff
	assert.Equal(t, 67500*time.Millisecond, cfg.CalculateBackoff(1, 0))
	assert.Equal(t, 90*time.Second, cfg.CalculateBackoff(2, 0))
	assert.Equal(t, 90*time.Second, cfg.CalculateBackoff(4, 0))

	// An API-provided delay overrides the base with a small cushion
	assert.Equal(t, 15*time.Second, cfg.CalculateBackoff(0, 10*time.Second))
}
