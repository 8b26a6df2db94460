package retry

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/vvka-141/cruload/pkg/cru"
)

// RetryFunc is called before each retry with the 0-based retry number, the
// error that caused it and the upcoming delay.
type RetryFunc func(attempt int, err error, delay time.Duration)

// Executor runs an operation, retrying it while its error is transient.
// An Executor is immutable and safe for concurrent use.
type Executor struct {
	classifier cru.ErrorClassifier
	strategy   cru.BackoffStrategy
	clock      clockwork.Clock
	onRetry    RetryFunc
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithClock sets the clock used to wait between attempts.
func WithClock(clock clockwork.Clock) ExecutorOption {
	return func(e *Executor) { e.clock = clock }
}

// WithOnRetry sets a callback invoked before every retry.
func WithOnRetry(fn RetryFunc) ExecutorOption {
	return func(e *Executor) { e.onRetry = fn }
}

// NewExecutor creates an Executor. It panics if classifier or strategy is nil.
func NewExecutor(classifier cru.ErrorClassifier, strategy cru.BackoffStrategy, opts ...ExecutorOption) *Executor {
	if classifier == nil {
		panic("retry: classifier cannot be nil")
	}
	if strategy == nil {
		panic("retry: strategy cannot be nil")
	}

	e := &Executor{
		classifier: classifier,
		strategy:   strategy,
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// With returns a copy of e with opts applied; e is left unchanged.
func (e *Executor) With(opts ...ExecutorOption) *Executor {
	clone := *e
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// Execute runs operation once and then retries it, waiting between attempts,
// until it succeeds, fails with a fatal error, runs out of attempts, or ctx
// is done. The last error is returned.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	err := operation(ctx)
	maxAttempts := e.strategy.MaxAttempts()

	for attempt := 0; err != nil && e.classifier.IsTransient(err); attempt++ {
		if maxAttempts >= 0 && attempt >= maxAttempts {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, err, delay)
		}

		timer := e.clock.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.Chan():
		}

		err = operation(ctx)
	}

	return err
}
