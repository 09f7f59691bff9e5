// Package retrypolicy wraps fallible operations with bounded, fixed-delay
// retry. It is a local resilience primitive: it knows nothing about
// idempotency, so it must only wrap operations that are safe to repeat.
package retrypolicy

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/sosanhsach/pricesync/internal/logger"
)

// Policy is a bounded fixed-delay retry: an operation runs up to
// MaxRetries+1 times with Interval between attempts. There is no backoff
// growth, and the last error is returned unchanged on exhaustion.
type Policy struct {
	MaxRetries int
	Interval   time.Duration
}

// Permanent marks an error as not retryable; the wrapped operation stops
// immediately and the error propagates.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op under the policy. name is used for retry logging only.
func (p Policy) Do(ctx context.Context, name string, op func() error) error {
	_, err := DoValue(ctx, p, name, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}

// DoValue runs op under the policy and returns its value.
func DoValue[T any](ctx context.Context, p Policy, name string, op func() (T, error)) (T, error) {
	attempt := 0
	return backoff.Retry(ctx,
		func() (T, error) {
			attempt++
			return op()
		},
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Interval)),
		backoff.WithMaxTries(uint(p.MaxRetries+1)),
		backoff.WithNotify(func(err error, _ time.Duration) {
			logger.Infof("Retry: %s, %d times, failed reason: %v", name, attempt, err)
		}),
	)
}
