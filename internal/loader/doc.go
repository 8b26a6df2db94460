// Package loader writes flattened CRU data points into a PostgreSQL table.
//
// The table has one row per grid box and month:
//
//	"Xref"  integer
//	"Yref"  integer
//	"Date"  date
//	"Value" integer
//	PRIMARY KEY ("Xref", "Yref", "Date")
//
// Rows are written with COPY, one statement per batch, so each batch commits
// on its own. A failed batch leaves earlier batches in place.
//
//	table, err := loader.NewTable(conn, "tyndall_centre_grim_precipitation")
//	if err := table.Create(ctx, false); err != nil { ... }
//	stats, err := table.AddRows(ctx, df.DataPoints(), cru.DefaultBatchSize)
//
// Table names may be schema-qualified ("climate.precipitation"); every part
// is quoted with pgx.Identifier.
package loader
