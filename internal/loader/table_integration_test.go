package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/cruload/internal/datafile"
	"github.com/vvka-141/cruload/internal/db"
	"github.com/vvka-141/cruload/internal/loader"
	testhelpers "github.com/vvka-141/cruload/internal/testing"
	"github.com/vvka-141/cruload/pkg/cru"
)

func openReference(t *testing.T) *datafile.DataFile {
	t.Helper()
	f, err := os.Open(filepath.Join("..", "datafile", "testdata", "cru_ts_2_10.1991-2000.pre"))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return datafile.New(f)
}

func TestTable_LoadReferenceFile(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)
	pool := testhelpers.GetTestPool(t, connString)
	name := testhelpers.UniqueTableName(t, pool)
	ctx := context.Background()

	table, err := loader.NewTable(db.NewPoolAdapter(pool), name)
	require.NoError(t, err)

	exists, err := table.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, table.Create(ctx, false))
	exists, err = table.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	stats, err := table.AddRows(ctx, openReference(t).DataPoints(), 100)
	require.NoError(t, err)
	assert.Equal(t, loader.Stats{Rows: 240, Batches: 3}, stats)
	assert.Equal(t, int64(240), testhelpers.CountRows(t, pool, table.Identifier()))

	var value int
	var date time.Time
	err = pool.QueryRow(ctx,
		`SELECT "Value", "Date" FROM `+table.Name()+` WHERE "Xref" = 1 AND "Yref" = 311 ORDER BY "Date" DESC LIMIT 1`,
	).Scan(&value, &date)
	require.NoError(t, err)
	assert.Equal(t, 450, value)
	assert.Equal(t, time.Date(2000, time.December, 1, 0, 0, 0, 0, time.UTC), date)
}

func TestTable_RecreateReplacesRows(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)
	pool := testhelpers.GetTestPool(t, connString)
	name := testhelpers.UniqueTableName(t, pool)
	ctx := context.Background()

	table, err := loader.NewTable(db.NewPoolAdapter(pool), name)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.NoError(t, table.Create(ctx, false))
		_, err := table.AddRows(ctx, openReference(t).DataPoints(), cru.DefaultBatchSize)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(240), testhelpers.CountRows(t, pool, table.Identifier()))
}

func TestTable_AppendDuplicateFailsBatch(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)
	pool := testhelpers.GetTestPool(t, connString)
	name := testhelpers.UniqueTableName(t, pool)
	ctx := context.Background()

	table, err := loader.NewTable(db.NewPoolAdapter(pool), name)
	require.NoError(t, err)

	require.NoError(t, table.Create(ctx, false))
	_, err = table.AddRows(ctx, openReference(t).DataPoints(), 100)
	require.NoError(t, err)

	require.NoError(t, table.Create(ctx, true))
	stats, err := table.AddRows(ctx, openReference(t).DataPoints(), 100)

	require.Error(t, err)
	assert.ErrorIs(t, err, cru.ErrLoadFailed)
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "23505", pgErr.Code)
	assert.Equal(t, 0, stats.Batches)
	assert.Equal(t, int64(240), testhelpers.CountRows(t, pool, table.Identifier()))
}

func TestTable_SchemaQualified(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)
	pool := testhelpers.GetTestPool(t, connString)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `CREATE SCHEMA IF NOT EXISTS "cru_test_schema"`)
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DROP SCHEMA IF EXISTS "cru_test_schema" CASCADE`) //nolint:errcheck
	})

	table, err := loader.NewTable(db.NewPoolAdapter(pool), "cru_test_schema.Precipitation")
	require.NoError(t, err)
	require.NoError(t, table.Create(ctx, false))

	_, err = table.AddRows(ctx, openReference(t).DataPoints(), 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(240), testhelpers.CountRows(t, pool, table.Identifier()))
}
