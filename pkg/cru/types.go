package cru

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DatasetMetadata holds the dataset-wide fields decoded from the five-line
// header of a CRU TS 2.1 file.
type DatasetMetadata struct {
	// Info is the free-text label preceding "file created on" on the first line,
	// e.g. "Tyndall Centre grim".
	Info string

	// Extension is the file extension the dataset was written with, e.g. ".pre".
	Extension string

	// Parameter is the display name of the measured quantity, e.g. "precipitation".
	Parameter string

	// Units is the display string for the value units, e.g. "mm".
	Units string

	MinYear  int
	MaxYear  int
	NumBoxes int
}

// NumYears returns the number of years covered by each grid box.
func (m DatasetMetadata) NumYears() int {
	return m.MaxYear - m.MinYear + 1
}

// PointsPerBox returns the number of monthly values every grid box must hold.
func (m DatasetMetadata) PointsPerBox() int {
	return m.NumYears() * 12
}

// DefaultTableName derives a table name from the info label and parameter:
// lower-cased, with spaces replaced by underscores.
func (m DatasetMetadata) DefaultTableName() string {
	name := strings.TrimSpace(m.Info + " " + m.Parameter)
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// MonthlyValue is one observation of a grid box: the first day of the month
// and the integer value recorded for it.
type MonthlyValue struct {
	Date  time.Time
	Value int
}

// GridBox is the monthly time series of one spatial cell.
// Data is ordered chronologically and holds NumYears()*12 values.
type GridBox struct {
	Xref int
	Yref int
	Data []MonthlyValue
}

// DataPoint is a flattened (grid box, month) observation as written to the database.
type DataPoint struct {
	Xref  int
	Yref  int
	Date  time.Time
	Value int
}

// Values returns the point in table column order: Xref, Yref, Date, Value.
func (p DataPoint) Values() []any {
	return []any{p.Xref, p.Yref, p.Date, p.Value}
}

// LoadConfig contains all parameters needed for a load operation.
type LoadConfig struct {
	// FilePath is the CRU TS 2.1 data file to read
	FilePath string

	// TableName is the target table. Empty means derive it from the file header.
	TableName string

	// ConnectionString is the PostgreSQL connection string (URI format)
	ConnectionString string

	// BatchSize is the number of data points written per COPY statement
	BatchSize int

	// Append keeps an existing table and adds rows to it instead of recreating it
	Append bool

	// Force bypasses interactive approval when an existing table would be dropped
	Force bool

	// StrictBoxCount fails the load when the number of grid boxes read
	// differs from the count declared in the header
	StrictBoxCount bool

	// Timeout is the global timeout for the entire load
	Timeout time.Duration

	// MetricsFile, when set, receives Prometheus metrics for the run in text format
	MetricsFile string

	// Verbose enables detailed logging
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Cloud authentication parameters, see ConnectionConfig.
	AWSRegion         string
	GoogleInstance    string
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// Validate checks if the LoadConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *LoadConfig) Validate() error {
	var errs []error

	if c.FilePath == "" {
		errs = append(errs, fmt.Errorf("FilePath is required: %w", ErrInvalidConfig))
	}

	if c.ConnectionString == "" && c.AuthMethod != AuthMethodGoogleIAM {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch size must be positive, got %d: %w", c.BatchSize, ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	if !c.AuthMethod.IsValid() {
		errs = append(errs, fmt.Errorf("auth method %v: %w", c.AuthMethod, ErrUnsupportedAuthMethod))
	}

	return errors.Join(errs...)
}

// LoadResult summarizes a completed load.
type LoadResult struct {
	RunID     string
	TableName string
	Metadata  DatasetMetadata
	GridBoxes int
	Points    int64
	Batches   int
	Duration  time.Duration
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWSRegion is used with AuthMethodAWSIAM.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name (project:region:instance),
	// used with AuthMethodGoogleIAM.
	GoogleInstance string

	// Azure Entra ID parameters. If all three are set, Service Principal
	// authentication is used; otherwise the DefaultAzureCredential chain.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}
