package db

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/cruload/internal/retry"
	"github.com/vvka-141/cruload/pkg/cru"
)

// tokenExpiryWarning is the remaining lifetime below which a token is reported.
// A load must finish opening its connection before the token expires.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector authenticates with a token from a TokenProvider
// (AWS IAM, Azure Entra ID). A fresh token is requested for every attempt.
type TokenBasedConnector struct {
	config        *cru.ConnectionConfig
	tokenProvider TokenProvider
	retryExecutor *retry.Executor
	providerName  string
	warnings      io.Writer
	now           func() time.Time
}

// NewTokenBasedConnector creates a connector; providerName is used in messages.
func NewTokenBasedConnector(config *cru.ConnectionConfig, tokenProvider TokenProvider, providerName string) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		retryExecutor: newRetryExecutor(),
		providerName:  providerName,
		warnings:      os.Stderr,
		now:           time.Now,
	}
}

// Connect opens a connection pool with a freshly acquired token as password.
func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		withToken, err := c.configWithToken(ctx)
		if err != nil {
			return err
		}
		pool, err = openPool(ctx, BuildConnectionString(withToken), withToken)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

func (c *TokenBasedConnector) configWithToken(ctx context.Context) (*cru.ConnectionConfig, error) {
	token, expiresOn, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire %s token from %s: %w", c.providerName, c.tokenProvider, err)
	}

	if remaining := expiresOn.Sub(c.now()); remaining < tokenExpiryWarning {
		fmt.Fprintf(c.warnings, "Warning: %s token expires in %v\n", c.providerName, remaining.Round(time.Second))
	}

	withToken := *c.config
	withToken.Password = token
	return &withToken, nil
}
