package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/cruload/internal/retry"
	"github.com/vvka-141/cruload/pkg/cru"
)

const (
	// DefaultMaxConns covers one loader connection plus one spare for the
	// table existence check.
	DefaultMaxConns = 2

	// DefaultMaxConnIdleTime keeps the loader connection open between batches.
	DefaultMaxConnIdleTime = 30 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config, appName string) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = 0
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	if appName == "" {
		appName = cru.ApplicationName
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = appName
}

func newRetryExecutor() *retry.Executor {
	return retry.NewExecutor(
		retry.NewPostgreSQLErrorClassifier(),
		retry.NewExponentialBackoff(cru.DefaultRetryMaxAttempts,
			retry.WithInitialDelay(cru.DefaultRetryInitialDelay),
			retry.WithMaxDelay(cru.DefaultRetryMaxDelay),
		),
	)
}

// openPool creates and pings a pool for connStr.
func openPool(ctx context.Context, connStr string, config *cru.ConnectionConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	configurePool(poolConfig, config.AppName)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, config)
	}
	return pool, nil
}

// StandardConnector connects with a username and password, retrying
// transient failures.
type StandardConnector struct {
	config        *cru.ConnectionConfig
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a StandardConnector using the default retry policy.
func NewStandardConnector(config *cru.ConnectionConfig) *StandardConnector {
	return &StandardConnector{config: config, retryExecutor: newRetryExecutor()}
}

// Connect opens a connection pool.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	connStr := BuildConnectionString(c.config)

	var pool *pgxpool.Pool
	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		var err error
		pool, err = openPool(ctx, connStr, c.config)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// NewConnector returns the Connector for config.AuthMethod.
// It satisfies cru.ConnectorFactory.
func NewConnector(config *cru.ConnectionConfig) (cru.Connector, error) {
	switch config.AuthMethod {
	case cru.AuthMethodStandard:
		return NewStandardConnector(config), nil
	case cru.AuthMethodAWSIAM:
		return newAWSConnector(config)
	case cru.AuthMethodGoogleIAM:
		return newGoogleConnector(config)
	case cru.AuthMethodAzureEntraID:
		return newAzureConnector(config)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, cru.ErrUnsupportedAuthMethod)
	}
}

var _ cru.ConnectorFactory = NewConnector

// wrapConnectionError adds a hint for the most common connection failures.
func wrapConnectionError(err error, config *cru.ConnectionConfig) error {
	msg := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)

	var hint string
	switch {
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "actively refused"):
		hint = fmt.Sprintf("connection refused by %s; is PostgreSQL running (pg_isready -h %s -p %d)?",
			addr, config.Host, config.Port)
	case strings.Contains(msg, "no such host"):
		hint = fmt.Sprintf("cannot resolve host %q", config.Host)
	case strings.Contains(msg, "password authentication failed"):
		hint = fmt.Sprintf("password authentication failed for user %q (check $PGPASSWORD or ~/.pgpass)", config.Username)
	case strings.Contains(msg, "does not exist") && strings.Contains(msg, "database"):
		hint = fmt.Sprintf("database %q does not exist (create it with: createdb %s)", config.Database, config.Database)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		hint = fmt.Sprintf("connection to %s timed out", addr)
	case strings.Contains(msg, "ssl") || strings.Contains(msg, "tls"):
		hint = "SSL/TLS negotiation failed (check --sslmode)"
	case strings.Contains(msg, "too many connections"):
		hint = fmt.Sprintf("too many connections to database %q", config.Database)
	default:
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return fmt.Errorf("failed to connect to database: %s: %w", hint, err)
}

func newAWSConnector(config *cru.ConnectionConfig) (cru.Connector, error) {
	endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)
	provider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %w", err)
	}
	return NewTokenBasedConnector(config, provider, "AWS IAM"), nil
}

func newGoogleConnector(config *cru.ConnectionConfig) (cru.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", cru.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires a username (-U): %w", cru.ErrInvalidConfig)
	}
	return NewGoogleCloudSQLConnector(config), nil
}

// newAzureConnector uses Service Principal credentials when tenant, client
// and secret are all known, and the DefaultAzureCredential chain otherwise.
func newAzureConnector(config *cru.ConnectionConfig) (cru.Connector, error) {
	var (
		provider TokenProvider
		err      error
	)
	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		provider, err = NewAzureServicePrincipalProvider(config.AzureTenantID, config.AzureClientID, config.AzureClientSecret)
	} else {
		provider, err = NewAzureDefaultCredentialProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure token provider: %w", err)
	}
	return NewTokenBasedConnector(config, provider, "Azure"), nil
}
