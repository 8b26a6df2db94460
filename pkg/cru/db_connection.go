package cru

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBConnection abstracts the database operations the loader needs.
// It decouples the loader from *pgxpool.Pool so it can be tested without a server.
//
// Thread-Safety: Implementations follow their underlying connection's
// guarantees; pool-backed implementations are safe for concurrent use.
type DBConnection interface {
	// Exec executes a statement without returning any rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// QueryRow executes a query that is expected to return at most one row.
	// Errors are deferred until Row's Scan method is called.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// CopyFrom bulk-loads rows with the PostgreSQL COPY protocol.
	// A single call is a single statement: it commits or fails as a whole.
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, rows pgx.CopyFromSource) (int64, error)
}

// Row represents a single row returned by QueryRow.
type Row interface {
	// Scan reads the values from the row into dest values.
	Scan(dest ...any) error
}
