package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/cruload/pkg/cru"
)

var referenceFile = filepath.Join("..", "datafile", "testdata", "cru_ts_2_10.1991-2000.pre")

type mockConnector struct {
	pool *pgxpool.Pool
	err  error
}

func (m *mockConnector) Connect(_ context.Context) (*pgxpool.Pool, error) {
	return m.pool, m.err
}

type closingConnector struct {
	mockConnector
	closed bool
}

func (c *closingConnector) Close() error {
	c.closed = true
	return nil
}

type mockApprover struct {
	approved bool
	err      error
	asked    []string
}

func (m *mockApprover) RequestApproval(_ context.Context, tableName string) (bool, error) {
	m.asked = append(m.asked, tableName)
	return m.approved, m.err
}

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Verbose(string, ...interface{}) {}

func (m *mockLogger) Info(format string, _ ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, format)
}

func (m *mockLogger) Error(format string, _ ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, format)
}

// mockConn is an in-memory cru.DBConnection.
type mockConn struct {
	exists   bool
	execs    []string
	rows     int
	copies   int
	copyErr  error
	failFrom int // CopyFrom call number (1-based) that starts failing; 0 never
}

func (m *mockConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	m.execs = append(m.execs, sql)
	return pgconn.CommandTag{}, nil
}

func (m *mockConn) QueryRow(_ context.Context, _ string, _ ...any) cru.Row {
	return existsRow(m.exists)
}

func (m *mockConn) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, src pgx.CopyFromSource) (int64, error) {
	if m.failFrom > 0 && m.copies+1 >= m.failFrom {
		return 0, m.copyErr
	}
	var n int64
	for src.Next() {
		if _, err := src.Values(); err != nil {
			return 0, err
		}
		n++
	}
	m.copies++
	m.rows += int(n)
	return n, nil
}

type existsRow bool

func (r existsRow) Scan(dest ...any) error {
	if len(dest) != 1 {
		return errors.New("unexpected scan targets")
	}
	*dest[0].(*bool) = bool(r)
	return nil
}
