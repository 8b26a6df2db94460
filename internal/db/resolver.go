package db

import (
	"fmt"
	"os"

	"github.com/vvka-141/cruload/pkg/cru"
)

// GranularConnFlags holds the libpq-style connection flags (-h, -p, -U, -d,
// --sslmode). There is no password flag: use $PGPASSWORD,
// ~/.pgpass or a connection string.
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// CloudAuthFlags selects and configures cloud IAM authentication.
type CloudAuthFlags struct {
	AWS       bool
	AWSRegion string

	Azure         bool
	AzureTenantID string
	AzureClientID string

	Google         bool
	GoogleInstance string
}

// EnvVars is the connection-related environment.
type EnvVars struct {
	CRULOAD_CONNECTION_STRING string
	DATABASE_URL              string

	PGHOST     string
	PGPORT     string
	PGUSER     string
	PGPASSWORD string
	PGDATABASE string
	PGSSLMODE  string

	AWS_REGION         string
	AWS_DEFAULT_REGION string

	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string

	USER string
}

// LoadFromEnvironment reads EnvVars from the process environment.
func LoadFromEnvironment() *EnvVars {
	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME")
	}
	return &EnvVars{
		CRULOAD_CONNECTION_STRING: os.Getenv("CRULOAD_CONNECTION_STRING"),
		DATABASE_URL:              os.Getenv("DATABASE_URL"),
		PGHOST:                    os.Getenv("PGHOST"),
		PGPORT:                    os.Getenv("PGPORT"),
		PGUSER:                    os.Getenv("PGUSER"),
		PGPASSWORD:                os.Getenv("PGPASSWORD"),
		PGDATABASE:                os.Getenv("PGDATABASE"),
		PGSSLMODE:                 os.Getenv("PGSSLMODE"),
		AWS_REGION:                os.Getenv("AWS_REGION"),
		AWS_DEFAULT_REGION:        os.Getenv("AWS_DEFAULT_REGION"),
		AZURE_TENANT_ID:           os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:           os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET:       os.Getenv("AZURE_CLIENT_SECRET"),
		USER:                      user,
	}
}

// ResolveConnection combines flags and environment into one ConnectionConfig.
//
// The base is the first connection string found in --connection,
// $CRULOAD_CONNECTION_STRING and $DATABASE_URL. Without one, each field comes
// from its PG* variable or the default (localhost:5432/postgres,
// sslmode=prefer). Granular flags override the corresponding field either way.
func ResolveConnection(connStringFlag string, flags *GranularConnFlags, cloud *CloudAuthFlags, env *EnvVars) (*cru.ConnectionConfig, error) {
	if flags == nil {
		flags = &GranularConnFlags{}
	}
	if cloud == nil {
		cloud = &CloudAuthFlags{}
	}
	if env == nil {
		env = &EnvVars{}
	}

	config, err := resolveBase(connStringFlag, env)
	if err != nil {
		return nil, err
	}

	applyGranularFlags(config, flags)

	if config.Password == "" {
		config.Password = env.PGPASSWORD
	}
	if config.AppName == "" {
		config.AppName = cru.ApplicationName
	}

	if err := applyCloudAuth(config, cloud, env); err != nil {
		return nil, err
	}
	return config, nil
}

func resolveBase(connStringFlag string, env *EnvVars) (*cru.ConnectionConfig, error) {
	sources := []struct {
		name  string
		value string
	}{
		{"--connection", connStringFlag},
		{"$CRULOAD_CONNECTION_STRING", env.CRULOAD_CONNECTION_STRING},
		{"$DATABASE_URL", env.DATABASE_URL},
	}
	for _, src := range sources {
		if src.value == "" {
			continue
		}
		config, err := ParseConnectionString(src.value)
		if err != nil {
			return nil, fmt.Errorf("invalid connection string in %s: %v: %w", src.name, err, cru.ErrInvalidConfig)
		}
		return config, nil
	}

	config := newDefaultConfig()
	if env.PGHOST != "" {
		config.Host = env.PGHOST
	}
	if env.PGPORT != "" {
		if err := setPort(config, env.PGPORT); err != nil {
			return nil, fmt.Errorf("invalid $PGPORT: %v: %w", err, cru.ErrInvalidConfig)
		}
	}
	if env.PGDATABASE != "" {
		config.Database = env.PGDATABASE
	}
	if env.PGSSLMODE != "" {
		config.SSLMode = env.PGSSLMODE
	}
	config.Username = env.PGUSER
	if config.Username == "" {
		config.Username = env.USER
	}
	return config, nil
}

func applyGranularFlags(config *cru.ConnectionConfig, flags *GranularConnFlags) {
	if flags.Host != "" {
		config.Host = flags.Host
	}
	if flags.Port != 0 {
		config.Port = flags.Port
	}
	if flags.Username != "" {
		config.Username = flags.Username
	}
	if flags.Database != "" {
		config.Database = flags.Database
	}
	if flags.SSLMode != "" {
		config.SSLMode = flags.SSLMode
	}
}

// applyCloudAuth switches config to the selected cloud IAM method.
// Flags win over the AWS_* and AZURE_* variables; the Azure client secret is
// only read from the environment.
func applyCloudAuth(config *cru.ConnectionConfig, cloud *CloudAuthFlags, env *EnvVars) error {
	selected := 0
	for _, on := range []bool{cloud.AWS, cloud.Azure, cloud.Google} {
		if on {
			selected++
		}
	}
	if selected > 1 {
		return fmt.Errorf("--aws, --azure and --google are mutually exclusive: %w", cru.ErrInvalidConfig)
	}

	switch {
	case cloud.AWS:
		config.AuthMethod = cru.AuthMethodAWSIAM
		config.AWSRegion = firstNonEmpty(cloud.AWSRegion, env.AWS_REGION, env.AWS_DEFAULT_REGION)
		if config.AWSRegion == "" {
			return fmt.Errorf("--aws requires --aws-region or $AWS_REGION: %w", cru.ErrInvalidConfig)
		}
	case cloud.Azure:
		config.AuthMethod = cru.AuthMethodAzureEntraID
		config.AzureTenantID = firstNonEmpty(cloud.AzureTenantID, env.AZURE_TENANT_ID)
		config.AzureClientID = firstNonEmpty(cloud.AzureClientID, env.AZURE_CLIENT_ID)
		config.AzureClientSecret = env.AZURE_CLIENT_SECRET
	case cloud.Google:
		config.AuthMethod = cru.AuthMethodGoogleIAM
		config.GoogleInstance = cloud.GoogleInstance
		if config.GoogleInstance == "" {
			return fmt.Errorf("--google requires --google-instance (project:region:instance): %w", cru.ErrInvalidConfig)
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
