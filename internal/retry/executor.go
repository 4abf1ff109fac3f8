package retry

import (
	"context"
	"time"

	"github.com/vvka-141/ingest/pkg/ingest"
)

// RetryFunc is notified before each retry with the zero-based retry number,
// the error that triggered it and the delay about to be waited.
type RetryFunc func(attempt int, err error, delay time.Duration)

// Executor runs an operation until it succeeds, fails permanently, runs out
// of attempts or the context ends.
type Executor struct {
	classifier ingest.ErrorClassifier
	strategy   ingest.BackoffStrategy
	onRetry    RetryFunc
}

// NewExecutor creates an Executor.
//
// Panics if classifier or strategy is nil.
func NewExecutor(classifier ingest.ErrorClassifier, strategy ingest.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{classifier: classifier, strategy: strategy}
}

// WithOnRetry returns a copy of e that calls fn before every retry.
func (e *Executor) WithOnRetry(fn RetryFunc) *Executor {
	clone := *e
	clone.onRetry = fn
	return &clone
}

// Execute runs op and returns the error of the last attempt.
func (e *Executor) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	_, err := Do(ctx, e, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Do runs op through e and returns the value of the successful attempt.
func Do[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	limit := e.strategy.MaxAttempts()

	for retry := 0; ; retry++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if !e.classifier.IsTransient(err) || (limit >= 0 && retry >= limit) {
			return v, err
		}

		delay := e.strategy.NextDelay(retry)
		if e.onRetry != nil {
			e.onRetry(retry, err, delay)
		}
		if werr := wait(ctx, delay); werr != nil {
			return v, werr
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
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
