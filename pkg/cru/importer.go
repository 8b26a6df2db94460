package cru

import "context"

// Importer is the main interface for loading a CRU TS 2.1 file into PostgreSQL.
// Implementations handle the full workflow: parsing the header, preparing the
// table, streaming data points and writing them in batches.
type Importer interface {
	// Import loads the file described by config.
	// Batches committed before a failure are not rolled back.
	Import(ctx context.Context, config LoadConfig) (*LoadResult, error)
}
