package syncer

import (
	"context"
	"time"

	"github.com/sosanhsach/pricesync/internal/logger"
)

// CycleRunner runs one sync cycle and reports the delay to observe
// before the next one.
type CycleRunner interface {
	RunCycle(ctx context.Context) (time.Duration, error)
}

// Supervisor runs cycles forever. A failed cycle is logged and the loop
// continues; only context cancellation stops it.
type Supervisor struct {
	runner        CycleRunner
	fallbackDelay func() time.Duration
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithFallbackDelay sets the delay provider used after failed cycles.
// The provider is consulted on every failure so that hot-reloaded
// configuration takes effect between cycles.
func WithFallbackDelay(provider func() time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		s.fallbackDelay = provider
	}
}

// NewSupervisor creates a supervisor over the given cycle runner.
func NewSupervisor(runner CycleRunner, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		runner: runner,
		fallbackDelay: func() time.Duration {
			return 10 * time.Second
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run loops cycles until the context is cancelled and returns the
// context error.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		delay, err := s.runner.RunCycle(ctx)
		if err != nil {
			logger.Errorf("Sync cycle failed: %v", err)
			delay = s.fallbackDelay()
		}

		logger.Infof("Next sync cycle in %s", delay)
		if err := sleepContext(ctx, delay); err != nil {
			return err
		}
	}
}

// sleepContext waits for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
