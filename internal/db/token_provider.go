package db

import (
	"context"
	"time"
)

// TokenProvider supplies short-lived cloud tokens used as the PostgreSQL password.
type TokenProvider interface {
	// GetToken returns a token and its expiry.
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider for logs. It must not include secrets.
	String() string
}

// AzurePostgreSQLScope is the OAuth scope for Azure Database for PostgreSQL.
const AzurePostgreSQLScope = "https://ossrdbms-aad.database.windows.net/.default"
