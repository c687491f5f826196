// Package workflow drives the posting state machine: each phase is a
// natural-language browser instruction run under a wall-clock guard,
// and the orchestrator sequences phases with session saves at the
// points where browser state has materially changed.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kraig/internal/models"
)

// PhaseFunc is the unit of work a phase guard wraps.
type PhaseFunc func(ctx context.Context) error

// RunPhase executes fn under the given timeout and collapses every
// failure mode (error, timeout, cancellation) into a boolean outcome.
// Phases never return errors upward; the orchestrator branches on
// Success and decides whether the failure is fatal.
func RunPhase(ctx context.Context, logger arbor.ILogger, phase string, timeout time.Duration, fn PhaseFunc) models.PhaseOutcome {
	logger.Info().Str("phase", phase).Str("timeout", timeout.String()).Msg("Starting phase")

	phaseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().Str("phase", phase).Str("panic", fmt.Sprint(r)).Msg("Phase panicked")
				done <- fmt.Errorf("phase panicked: %v", r)
			}
		}()
		done <- fn(phaseCtx)
	}()

	var err error
	select {
	case err = <-done:
	case <-phaseCtx.Done():
		err = phaseCtx.Err()
	}
	elapsed := time.Since(start)

	outcome := models.PhaseOutcome{
		Phase:    phase,
		Elapsed:  elapsed,
		TimedOut: phaseCtx.Err() == context.DeadlineExceeded,
	}
	switch {
	case outcome.TimedOut:
		outcome.Err = phaseCtx.Err()
		logger.Warn().Str("phase", phase).Str("elapsed", elapsed.Round(time.Second).String()).Msg("Phase timed out")
	case err != nil:
		outcome.Err = err
		logger.Warn().Str("phase", phase).Err(err).Msg("Phase failed")
	default:
		outcome.Success = true
		logger.Info().Str("phase", phase).Str("elapsed", elapsed.Round(time.Second).String()).Msg("Phase completed")
	}
	return outcome
}
