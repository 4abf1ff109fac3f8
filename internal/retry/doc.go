// Package retry retries transient failures while establishing the destination
// connection.
//
// Only connection setup goes through an Executor. Once a load has started,
// failures are reported as they are; a partially written batch is never
// replayed.
//
//	exec := retry.NewExecutor(
//	    retry.NewPostgreSQLErrorClassifier(),
//	    retry.NewExponentialBackoff(3),
//	)
//	pool, err := retry.Do(ctx, exec, func(ctx context.Context) (*pgxpool.Pool, error) {
//	    return pgxpool.NewWithConfig(ctx, cfg)
//	})
package retry
