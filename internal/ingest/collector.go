package ingest

import (
	"context"
	"errors"

	"github.com/tokenpulse/oracle/internal/domain"
	"github.com/tokenpulse/oracle/internal/platform/retry"
)

// FuncCollector adapts a fetch function into a domain.Collector. Used for
// wiring simple sources and as a test double.
type FuncCollector struct {
	name string
	fn   func(ctx context.Context) ([]domain.RawSignal, error)
}

func NewFuncCollector(name string, fn func(ctx context.Context) ([]domain.RawSignal, error)) *FuncCollector {
	return &FuncCollector{name: name, fn: fn}
}

func (c *FuncCollector) Name() string { return c.name }

func (c *FuncCollector) Fetch(ctx context.Context) ([]domain.RawSignal, error) {
	return c.fn(ctx)
}

// RateLimitedError marks a fetch failure caused by the source throttling
// us. The retry policy backs off longer for these.
type RateLimitedError struct {
	Err error
}

func (e *RateLimitedError) Error() string { return e.Err.Error() }
func (e *RateLimitedError) Unwrap() error { return e.Err }

// classifyFetchErr maps collector errors onto retry actions. Context
// cancellation is permanent; throttling gets the longer backoff;
// everything else is assumed transient.
func classifyFetchErr(err error) retry.Action {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Stop
	}
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return retry.After
	}
	return retry.Retry
}

// retryingCollector wraps a collector so transient fetch failures are
// retried with backoff. The pipeline downstream never retries.
type retryingCollector struct {
	inner  domain.Collector
	policy retry.Policy
}

// WithRetry wraps c with the given retry policy.
func WithRetry(c domain.Collector, policy retry.Policy) domain.Collector {
	return &retryingCollector{inner: c, policy: policy}
}

func (c *retryingCollector) Name() string { return c.inner.Name() }

func (c *retryingCollector) Fetch(ctx context.Context) ([]domain.RawSignal, error) {
	return retry.Do(ctx, c.policy, classifyFetchErr, func() ([]domain.RawSignal, error) {
		return c.inner.Fetch(ctx)
	})
}
