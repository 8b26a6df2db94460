package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/cruload/pkg/cru"
)

func TestResolveConnection_Defaults(t *testing.T) {
	config, err := ResolveConnection("", nil, nil, &EnvVars{USER: "alice"})
	require.NoError(t, err)

	assert.Equal(t, "localhost", config.Host)
	assert.Equal(t, 5432, config.Port)
	assert.Equal(t, "postgres", config.Database)
	assert.Equal(t, "prefer", config.SSLMode)
	assert.Equal(t, "alice", config.Username)
	assert.Equal(t, "cruload", config.AppName)
	assert.Equal(t, cru.AuthMethodStandard, config.AuthMethod)
}

func TestResolveConnection_Precedence(t *testing.T) {
	env := &EnvVars{
		CRULOAD_CONNECTION_STRING: "postgresql://env@envhost:5001/envdb",
		DATABASE_URL:              "postgresql://url@urlhost:5002/urldb",
		PGHOST:                    "pghost",
		PGDATABASE:                "pgdb",
	}

	tests := []struct {
		name     string
		flag     string
		env      *EnvVars
		wantHost string
		wantDB   string
	}{
		{"flag wins", "postgresql://flag@flaghost:5000/flagdb", env, "flaghost", "flagdb"},
		{"CRULOAD_CONNECTION_STRING next", "", env, "envhost", "envdb"},
		{"DATABASE_URL next", "", &EnvVars{DATABASE_URL: env.DATABASE_URL, PGHOST: "pghost"}, "urlhost", "urldb"},
		{"PG variables last", "", &EnvVars{PGHOST: "pghost", PGDATABASE: "pgdb"}, "pghost", "pgdb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := ResolveConnection(tt.flag, nil, nil, tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, config.Host)
			assert.Equal(t, tt.wantDB, config.Database)
		})
	}
}

func TestResolveConnection_GranularFlagsOverrideConnectionString(t *testing.T) {
	flags := &GranularConnFlags{Host: "override", Port: 7000, Database: "climate", SSLMode: "disable"}

	config, err := ResolveConnection("postgresql://loader:pw@original:5432/postgres?sslmode=require", flags, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "override", config.Host)
	assert.Equal(t, 7000, config.Port)
	assert.Equal(t, "climate", config.Database)
	assert.Equal(t, "disable", config.SSLMode)
	assert.Equal(t, "loader", config.Username)
	assert.Equal(t, "pw", config.Password)
}

func TestResolveConnection_GranularFlagsOverrideEnvironment(t *testing.T) {
	env := &EnvVars{PGHOST: "envhost", PGPORT: "5999", PGUSER: "envuser", PGPASSWORD: "envpw", PGSSLMODE: "require"}
	flags := &GranularConnFlags{Host: "flaghost", Username: "flaguser"}

	config, err := ResolveConnection("", flags, nil, env)
	require.NoError(t, err)

	assert.Equal(t, "flaghost", config.Host)
	assert.Equal(t, 5999, config.Port)
	assert.Equal(t, "flaguser", config.Username)
	assert.Equal(t, "envpw", config.Password)
	assert.Equal(t, "require", config.SSLMode)
}

func TestResolveConnection_PasswordInConnectionStringWins(t *testing.T) {
	config, err := ResolveConnection("postgresql://u:inline@h/db", nil, nil, &EnvVars{PGPASSWORD: "env"})
	require.NoError(t, err)
	assert.Equal(t, "inline", config.Password)
}

func TestResolveConnection_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  *EnvVars
	}{
		{"bad connection string", "nonsense", nil},
		{"bad DATABASE_URL", "", &EnvVars{DATABASE_URL: "postgresql://h:port/db"}},
		{"bad PGPORT", "", &EnvVars{PGPORT: "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveConnection(tt.flag, nil, nil, tt.env)
			require.Error(t, err)
			assert.ErrorIs(t, err, cru.ErrInvalidConfig)
		})
	}
}

func TestResolveConnection_CloudAuth(t *testing.T) {
	tests := []struct {
		name    string
		cloud   *CloudAuthFlags
		env     *EnvVars
		check   func(t *testing.T, c *cru.ConnectionConfig)
		wantErr bool
	}{
		{
			name:  "aws region from flag",
			cloud: &CloudAuthFlags{AWS: true, AWSRegion: "eu-west-1"},
			env:   &EnvVars{AWS_REGION: "us-east-1"},
			check: func(t *testing.T, c *cru.ConnectionConfig) {
				assert.Equal(t, cru.AuthMethodAWSIAM, c.AuthMethod)
				assert.Equal(t, "eu-west-1", c.AWSRegion)
			},
		},
		{
			name:  "aws region from default region variable",
			cloud: &CloudAuthFlags{AWS: true},
			env:   &EnvVars{AWS_DEFAULT_REGION: "ap-south-1"},
			check: func(t *testing.T, c *cru.ConnectionConfig) {
				assert.Equal(t, "ap-south-1", c.AWSRegion)
			},
		},
		{
			name:    "aws without region",
			cloud:   &CloudAuthFlags{AWS: true},
			env:     &EnvVars{},
			wantErr: true,
		},
		{
			name:  "azure flags override environment",
			cloud: &CloudAuthFlags{Azure: true, AzureClientID: "flag-client"},
			env:   &EnvVars{AZURE_TENANT_ID: "env-tenant", AZURE_CLIENT_ID: "env-client", AZURE_CLIENT_SECRET: "secret"},
			check: func(t *testing.T, c *cru.ConnectionConfig) {
				assert.Equal(t, cru.AuthMethodAzureEntraID, c.AuthMethod)
				assert.Equal(t, "env-tenant", c.AzureTenantID)
				assert.Equal(t, "flag-client", c.AzureClientID)
				assert.Equal(t, "secret", c.AzureClientSecret)
			},
		},
		{
			name:  "azure variables alone do not enable azure",
			cloud: &CloudAuthFlags{},
			env:   &EnvVars{AZURE_TENANT_ID: "tenant"},
			check: func(t *testing.T, c *cru.ConnectionConfig) {
				assert.Equal(t, cru.AuthMethodStandard, c.AuthMethod)
				assert.Empty(t, c.AzureTenantID)
			},
		},
		{
			name:  "google",
			cloud: &CloudAuthFlags{Google: true, GoogleInstance: "proj:region:inst"},
			env:   &EnvVars{},
			check: func(t *testing.T, c *cru.ConnectionConfig) {
				assert.Equal(t, cru.AuthMethodGoogleIAM, c.AuthMethod)
				assert.Equal(t, "proj:region:inst", c.GoogleInstance)
			},
		},
		{
			name:    "google without instance",
			cloud:   &CloudAuthFlags{Google: true},
			env:     &EnvVars{},
			wantErr: true,
		},
		{
			name:    "more than one provider",
			cloud:   &CloudAuthFlags{AWS: true, AWSRegion: "eu-west-1", Google: true, GoogleInstance: "p:r:i"},
			env:     &EnvVars{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := ResolveConnection("", nil, tt.cloud, tt.env)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, cru.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			tt.check(t, config)
		})
	}
}
