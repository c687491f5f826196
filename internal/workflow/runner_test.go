package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
)

func TestRunPhase_Success(t *testing.T) {
	outcome := RunPhase(context.Background(), arbor.NewLogger(), "test phase", time.Second, func(ctx context.Context) error {
		return nil
	})

	assert.True(t, outcome.Success)
	assert.False(t, outcome.TimedOut)
	assert.Equal(t, "test phase", outcome.Phase)
}

func TestRunPhase_Error(t *testing.T) {
	outcome := RunPhase(context.Background(), arbor.NewLogger(), "test phase", time.Second, func(ctx context.Context) error {
		return errors.New("no such element")
	})

	assert.False(t, outcome.Success)
	assert.False(t, outcome.TimedOut)
	assert.ErrorContains(t, outcome.Err, "no such element")
}

func TestRunPhase_Timeout(t *testing.T) {
	outcome := RunPhase(context.Background(), arbor.NewLogger(), "test phase", 20*time.Millisecond, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})

	assert.False(t, outcome.Success)
	assert.True(t, outcome.TimedOut)
}

func TestRunPhase_PanicIsContained(t *testing.T) {
	outcome := RunPhase(context.Background(), arbor.NewLogger(), "test phase", time.Second, func(ctx context.Context) error {
		panic("boom")
	})

	assert.False(t, outcome.Success)
	assert.False(t, outcome.TimedOut)
	// The recovered value must survive into the diagnostic
	assert.ErrorContains(t, outcome.Err, "boom")
}

func TestRunPhase_RespectsParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := RunPhase(ctx, arbor.NewLogger(), "test phase", time.Second, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	assert.False(t, outcome.Success)
	assert.False(t, outcome.TimedOut)
}
