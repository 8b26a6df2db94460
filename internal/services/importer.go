package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/vvka-141/cruload/internal/datafile"
	"github.com/vvka-141/cruload/internal/db"
	"github.com/vvka-141/cruload/internal/loader"
	"github.com/vvka-141/cruload/internal/observability"
	"github.com/vvka-141/cruload/pkg/cru"
)

type dbConnFunc func(ctx context.Context, connConfig *cru.ConnectionConfig) (cru.DBConnection, func(), error)

// ImportService implements the Importer interface.
// Thread-Safety: NOT safe for concurrent Import() calls on the same instance.
type ImportService struct {
	connectorFactory cru.ConnectorFactory
	approver         cru.Approver
	logger           cru.Logger
	clock            clockwork.Clock
	metrics          *observability.Metrics
	dbConnector      dbConnFunc
	tableOptions     []loader.Option
}

// Option configures an ImportService.
type Option func(*ImportService)

// WithClock sets the clock used to time the run and its batches.
func WithClock(c clockwork.Clock) Option {
	return func(s *ImportService) { s.clock = c }
}

// WithMetrics records the run into m. Without it a registry is created per
// run, and only when LoadConfig.MetricsFile is set.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *ImportService) { s.metrics = m }
}

// WithTableOptions passes extra options to every loader.Table the service creates.
func WithTableOptions(opts ...loader.Option) Option {
	return func(s *ImportService) { s.tableOptions = append(s.tableOptions, opts...) }
}

// NewImportService creates an ImportService. It panics on nil dependencies:
// those are wiring mistakes, not runtime conditions.
func NewImportService(
	connectorFactory cru.ConnectorFactory,
	approver cru.Approver,
	logger cru.Logger,
	opts ...Option,
) *ImportService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if approver == nil {
		panic("approver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	svc := &ImportService{
		connectorFactory: connectorFactory,
		approver:         approver,
		logger:           logger,
		clock:            clockwork.NewRealClock(),
	}
	svc.dbConnector = svc.defaultDBConnector
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *ImportService) defaultDBConnector(ctx context.Context, connConfig *cru.ConnectionConfig) (cru.DBConnection, func(), error) {
	connector, err := s.connectorFactory(connConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connector: %w", err)
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		if c, ok := connector.(io.Closer); ok {
			c.Close()
		}
		return nil, nil, fmt.Errorf("%w: %w", cru.ErrConnectionFailed, err)
	}

	cleanup := func() {
		pool.Close()
		if c, ok := connector.(io.Closer); ok {
			if err := c.Close(); err != nil {
				s.logger.Verbose("Closing connector: %v", err)
			}
		}
	}
	return db.NewPoolAdapter(pool), cleanup, nil
}

// Import loads the data file described by config into PostgreSQL.
func (s *ImportService) Import(ctx context.Context, config cru.LoadConfig) (*cru.LoadResult, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	metrics := s.metrics
	if metrics == nil && config.MetricsFile != "" {
		metrics = observability.NewMetrics()
	}

	runID := uuid.NewString()
	s.logger.Verbose("Load run %s", runID)

	start := s.clock.Now()
	result, err := s.load(ctx, config, runID, metrics)
	elapsed := s.clock.Since(start)

	if metrics != nil {
		table, boxes := config.TableName, 0
		if result != nil {
			table, boxes = result.TableName, result.GridBoxes
		}
		metrics.ObserveRun(table, boxes, elapsed, s.clock.Now(), err)
		if config.MetricsFile != "" {
			if werr := metrics.WriteTextfile(config.MetricsFile); werr != nil {
				s.logger.Error("%v", werr)
			} else {
				s.logger.Verbose("Metrics written to %s", config.MetricsFile)
			}
		}
	}

	if err != nil {
		return nil, err
	}
	result.Duration = elapsed
	return result, nil
}

// load does the work of Import. On failure after the table is known it still
// returns a partial result so the run can be recorded.
func (s *ImportService) load(ctx context.Context, config cru.LoadConfig, runID string, metrics *observability.Metrics) (*cru.LoadResult, error) {
	f, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	df := datafile.New(f, datafile.WithStrictBoxCount(config.StrictBoxCount))
	if err := df.ReadHeader(); err != nil {
		return nil, fmt.Errorf("%s: %w", config.FilePath, err)
	}
	meta, err := df.Metadata()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.FilePath, err)
	}
	s.logger.Verbose("Dataset: %s %s, %d-%d, %d grid boxes declared",
		meta.Info, meta.Parameter, meta.MinYear, meta.MaxYear, meta.NumBoxes)

	tableName := config.TableName
	if tableName == "" {
		tableName = meta.DefaultTableName()
		s.logger.Verbose("Using table name %s from file header", tableName)
	}
	if _, err := loader.ParseTableName(tableName); err != nil {
		return nil, err
	}

	connConfig, err := s.connectionConfig(config, runID)
	if err != nil {
		return nil, err
	}
	s.logger.Verbose("Connecting to %s:%d/%s (%s)", connConfig.Host, connConfig.Port, connConfig.Database, connConfig.AuthMethod)

	conn, cleanup, err := s.dbConnector(ctx, connConfig)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	opts := []loader.Option{
		loader.WithLogger(s.logger),
		loader.WithClock(s.clock),
	}
	if metrics != nil {
		opts = append(opts, loader.WithBatchFunc(func(_ int, rows int64, elapsed time.Duration) {
			metrics.ObserveBatch(rows, elapsed)
		}))
	}
	opts = append(opts, s.tableOptions...)

	table, err := loader.NewTable(conn, tableName, opts...)
	if err != nil {
		return nil, err
	}

	result := &cru.LoadResult{RunID: runID, TableName: tableName, Metadata: meta}

	if err := s.prepareTable(ctx, table, tableName, config.Append); err != nil {
		return result, err
	}

	points := df.DataPoints()
	stats, err := table.AddRows(ctx, points, config.BatchSize)
	result.GridBoxes = points.Boxes()
	result.Points = stats.Rows
	result.Batches = stats.Batches
	if err != nil {
		if stats.Batches > 0 {
			s.logger.Error("%d rows in %d batches were committed to %s before the failure",
				stats.Rows, stats.Batches, table.Name())
		}
		if errors.Is(err, cru.ErrMalformedFile) {
			return result, fmt.Errorf("%s: %w", config.FilePath, err)
		}
		return result, err
	}

	s.logger.Info("✓ Loaded %d data points from %d grid boxes into %s", stats.Rows, result.GridBoxes, table.Name())
	return result, nil
}

// prepareTable creates the table, asking for approval before an existing
// table is dropped.
func (s *ImportService) prepareTable(ctx context.Context, table *loader.Table, tableName string, appendMode bool) error {
	if !appendMode {
		exists, err := table.Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			s.logger.Verbose("Table %s exists. Requesting approval to drop it.", table.Name())
			approved, err := s.approver.RequestApproval(ctx, tableName)
			if err != nil {
				return fmt.Errorf("approval request failed: %w", err)
			}
			if !approved {
				return cru.ErrApprovalDenied
			}
		}
	}
	return table.Create(ctx, appendMode)
}

// connectionConfig parses the connection string and applies the run's auth
// settings and application name.
func (s *ImportService) connectionConfig(config cru.LoadConfig, runID string) (*cru.ConnectionConfig, error) {
	var connConfig *cru.ConnectionConfig
	if config.ConnectionString == "" {
		connConfig = &cru.ConnectionConfig{Database: cru.DefaultDatabase, AdditionalParams: map[string]string{}}
	} else {
		parsed, err := db.ParseConnectionString(config.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("failed to parse connection string: %w: %w", cru.ErrInvalidConfig, err)
		}
		connConfig = parsed
	}

	if connConfig.AppName == "" || connConfig.AppName == cru.ApplicationName {
		connConfig.AppName = cru.ApplicationName + "/" + runID
	}

	connConfig.AuthMethod = config.AuthMethod
	connConfig.AWSRegion = config.AWSRegion
	connConfig.GoogleInstance = config.GoogleInstance
	connConfig.AzureTenantID = config.AzureTenantID
	connConfig.AzureClientID = config.AzureClientID
	connConfig.AzureClientSecret = config.AzureClientSecret
	return connConfig, nil
}

var _ cru.Importer = (*ImportService)(nil)
