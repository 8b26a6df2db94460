package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"

	"github.com/vvka-141/cruload/internal/retry"
	"github.com/vvka-141/cruload/pkg/cru"
)

// Columns are the table columns in COPY order, matching cru.DataPoint.Values.
var Columns = []string{"Xref", "Yref", "Date", "Value"}

const (
	createTableSQL = `CREATE TABLE %s%s (
	"Xref" integer NOT NULL,
	"Yref" integer NOT NULL,
	"Date" date NOT NULL,
	"Value" integer NOT NULL,
	PRIMARY KEY ("Xref", "Yref", "Date")
)`
	dropTableSQL    = "DROP TABLE IF EXISTS %s"
	tableExistsSQL  = "SELECT to_regclass($1::text) IS NOT NULL"
	ifNotExistsWord = "IF NOT EXISTS "
)

// PointSource hands out data points in batches. An empty batch with a nil
// error means the source is exhausted. *datafile.DataPointStream implements it.
type PointSource interface {
	Batch(n int) ([]cru.DataPoint, error)
}

// BatchFunc is called after every committed batch.
type BatchFunc func(batch int, rows int64, elapsed time.Duration)

// Stats counts what AddRows committed.
type Stats struct {
	Rows    int64
	Batches int
}

// Table is a CRU data table in one database.
type Table struct {
	conn     cru.DBConnection
	name     pgx.Identifier
	executor *retry.Executor
	clock    clockwork.Clock
	logger   cru.Logger
	onBatch  BatchFunc
}

// Option configures a Table.
type Option func(*Table)

// WithRetryExecutor replaces the retry policy applied to each COPY.
func WithRetryExecutor(e *retry.Executor) Option {
	return func(t *Table) { t.executor = e }
}

// WithClock sets the clock used to time batches.
func WithClock(c clockwork.Clock) Option {
	return func(t *Table) { t.clock = c }
}

// WithLogger sets the logger for per-batch progress.
func WithLogger(l cru.Logger) Option {
	return func(t *Table) { t.logger = l }
}

// WithBatchFunc registers a callback run after every committed batch.
func WithBatchFunc(fn BatchFunc) Option {
	return func(t *Table) { t.onBatch = fn }
}

// NewTable returns a Table for name, which may be "table" or "schema.table".
func NewTable(conn cru.DBConnection, name string, opts ...Option) (*Table, error) {
	ident, err := ParseTableName(name)
	if err != nil {
		return nil, err
	}

	t := &Table{
		conn: conn,
		name: ident,
		executor: retry.NewExecutor(
			retry.NewPostgreSQLErrorClassifier(),
			retry.NewExponentialBackoff(cru.DefaultRetryMaxAttempts),
		),
		clock:  clockwork.NewRealClock(),
		logger: nopLogger{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// ParseTableName splits "schema.table" into an identifier. Quotes are not
// interpreted: each part is taken literally and quoted when rendered.
func ParseTableName(name string) (pgx.Identifier, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("table name is empty: %w", cru.ErrInvalidConfig)
	}

	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("table name %q has more than one schema separator: %w", name, cru.ErrInvalidConfig)
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("table name %q has an empty part: %w", name, cru.ErrInvalidConfig)
		}
	}
	return pgx.Identifier(parts), nil
}

// Name returns the quoted, possibly schema-qualified table name.
func (t *Table) Name() string {
	return t.name.Sanitize()
}

// Identifier returns the table name as a pgx.Identifier.
func (t *Table) Identifier() pgx.Identifier {
	return t.name
}

// Exists reports whether the table is present.
func (t *Table) Exists(ctx context.Context) (bool, error) {
	var exists bool
	if err := t.conn.QueryRow(ctx, tableExistsSQL, t.Name()).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check whether table %s exists: %w", t.Name(), err)
	}
	return exists, nil
}

// Create prepares the table. Unless appendMode is set, an existing table is
// dropped first; in append mode an existing table is kept as is.
func (t *Table) Create(ctx context.Context, appendMode bool) error {
	ifNotExists := ""
	if appendMode {
		ifNotExists = ifNotExistsWord
	} else {
		if _, err := t.conn.Exec(ctx, fmt.Sprintf(dropTableSQL, t.Name())); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", t.Name(), err)
		}
		t.logger.Verbose("Dropped table %s (if it existed)", t.Name())
	}

	if _, err := t.conn.Exec(ctx, fmt.Sprintf(createTableSQL, ifNotExists, t.Name())); err != nil {
		return fmt.Errorf("failed to create table %s: %w", t.Name(), err)
	}
	t.logger.Verbose("Created table %s", t.Name())
	return nil
}

// AddRows copies every point of src into the table, batchSize points per
// COPY. It stops at the first error; Stats then counts the batches committed
// before it. A batch that could not be read completely is not written.
func (t *Table) AddRows(ctx context.Context, src PointSource, batchSize int) (Stats, error) {
	var stats Stats
	if batchSize <= 0 {
		return stats, fmt.Errorf("batch size must be positive, got %d: %w", batchSize, cru.ErrInvalidConfig)
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		batch, readErr := src.Batch(batchSize)
		if readErr != nil {
			return stats, fmt.Errorf("failed to read batch %d: %w", stats.Batches+1, readErr)
		}
		if len(batch) == 0 {
			return stats, nil
		}

		start := t.clock.Now()
		n, err := t.copyBatch(ctx, batch)
		if err != nil {
			return stats, fmt.Errorf("failed to copy batch %d (%d rows) into %s: %w: %w",
				stats.Batches+1, len(batch), t.Name(), cru.ErrLoadFailed, err)
		}
		elapsed := t.clock.Since(start)

		stats.Batches++
		stats.Rows += n
		t.logger.Verbose("Batch %d: %d rows in %v", stats.Batches, n, elapsed.Round(time.Millisecond))
		if t.onBatch != nil {
			t.onBatch(stats.Batches, n, elapsed)
		}
	}
}

func (t *Table) copyBatch(ctx context.Context, batch []cru.DataPoint) (int64, error) {
	var copied int64
	err := t.executor.Execute(ctx, func(ctx context.Context) error {
		rows := pgx.CopyFromSlice(len(batch), func(i int) ([]any, error) {
			return batch[i].Values(), nil
		})
		n, err := t.conn.CopyFrom(ctx, t.name, Columns, rows)
		if err != nil {
			return err
		}
		copied = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	if copied != int64(len(batch)) {
		return copied, errors.New("row count reported by COPY does not match the batch")
	}
	return copied, nil
}

type nopLogger struct{}

func (nopLogger) Verbose(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})    {}
func (nopLogger) Error(string, ...interface{})   {}
