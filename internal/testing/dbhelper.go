// Package testing holds helpers shared by cruload's integration tests.
package testing

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/cruload/internal/testinfra"
)

// TestConnEnvVar points integration tests at an existing server instead of
// a container.
const TestConnEnvVar = "CRULOAD_TEST_CONN"

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		container, err := testinfra.StartPostgres(context.Background())
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns $CRULOAD_TEST_CONN, or the connection
// string of a container shared by the test binary. The test is skipped when
// neither is available.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv(TestConnEnvVar); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("%s not set and Docker unavailable: %v", TestConnEnvVar, err)
	}
	return connString
}

// SkipIfShort skips the test in -short mode.
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase skips the test unless a database is available and
// returns its connection string.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// GetTestPool opens a pool that is closed when the test ends.
func GetTestPool(t *testing.T, connString string) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// UniqueTableName returns a table name no other test uses and drops the
// table when the test ends.
func UniqueTableName(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()

	name := "cru_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	t.Cleanup(func() {
		DropTable(t, pool, name)
	})
	return name
}

// DropTable drops a table if it exists, logging rather than failing on error.
func DropTable(t *testing.T, pool *pgxpool.Pool, name string) {
	t.Helper()

	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{name}.Sanitize())
	if _, err := pool.Exec(context.Background(), sql); err != nil {
		t.Logf("Warning: failed to drop table %s: %v", name, err)
	}
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, pool *pgxpool.Pool, table pgx.Identifier) int64 {
	t.Helper()

	var n int64
	sql := fmt.Sprintf("SELECT count(*) FROM %s", table.Sanitize())
	if err := pool.QueryRow(context.Background(), sql).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table.Sanitize(), err)
	}
	return n
}

// ForceApprover approves every request. It records the tables it was asked about.
type ForceApprover struct {
	mu     sync.Mutex
	Tables []string
}

func (a *ForceApprover) RequestApproval(ctx context.Context, tableName string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Tables = append(a.Tables, tableName)
	return true, nil
}

// DenyApprover declines every request.
type DenyApprover struct{}

func (DenyApprover) RequestApproval(ctx context.Context, tableName string) (bool, error) {
	return false, nil
}
