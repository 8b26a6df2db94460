// Package retry re-runs database operations that fail for transient reasons.
//
// cruload uses it twice: when opening the connection pool and around every
// COPY batch. A batch is a single statement, so retrying it cannot write a
// row twice.
//
//	executor := retry.NewExecutor(
//	    retry.NewPostgreSQLErrorClassifier(),
//	    retry.NewExponentialBackoff(cru.DefaultRetryMaxAttempts),
//	)
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    _, err := conn.CopyFrom(ctx, table, columns, rows)
//	    return err
//	})
//
// Waiting goes through a clockwork.Clock so tests can advance time by hand.
package retry
