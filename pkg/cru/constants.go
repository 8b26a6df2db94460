package cru

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Load completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or parameters
	ExitConnectionError = 11 // Failed to connect to database
	ExitApprovalDenied  = 12 // User denied dropping the table
	ExitLoadFailed      = 13 // Writing rows failed
	ExitMalformedFile   = 14 // Data file is not valid CRU TS 2.1
)

const (
	// DefaultBatchSize is the number of data points written per COPY statement.
	DefaultBatchSize = 120000

	// DefaultTimeout bounds an entire load run.
	DefaultTimeout = 30 * time.Minute

	// DefaultForceApprovalCountdown is the countdown before a forced table drop proceeds.
	DefaultForceApprovalCountdown = 3 * time.Second

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultDatabase is used when no database is given by flag, connection string or environment.
	DefaultDatabase = "postgres"

	// ApplicationName is reported to PostgreSQL as application_name.
	ApplicationName = "cruload"
)
