package ingest

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess           = 0  // Load completed successfully
	ExitGeneralError      = 1  // Unknown or unclassified error
	ExitUsageError        = 2  // CLI usage error (invalid flags or values)
	ExitPanic             = 3  // Internal panic (unexpected crash)
	ExitConfigError       = 10 // Invalid configuration or parameters
	ExitConnectionError   = 11 // Failed to connect to database
	ExitSourceUnavailable = 20 // Source archive could not be fetched
	ExitSchemaMismatch    = 21 // Source columns or values disagree with the schema
	ExitWriteFailure      = 22 // Destination rejected a write
)

const (
	// DefaultBatchSize is the number of records decoded and written per batch.
	DefaultBatchSize = 100000

	// DefaultTable is the destination table used when none is configured.
	DefaultTable = "yellow_taxi_data"

	// DefaultYear and DefaultMonth select the source archive when not configured.
	DefaultYear  = 2021
	DefaultMonth = 1

	// MinYear and MaxYear bound the accepted source year.
	MinYear = 1900
	MaxYear = 9999

	// DefaultRetryInitialDelay is the default initial delay before the first connection retry.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between connection retries.
	DefaultRetryMaxDelay = 30 * time.Second

	// DefaultRetryMaxAttempts is the default number of connection retries.
	DefaultRetryMaxAttempts = 3

	// CompletionMessage is printed to stdout after the last batch is written.
	CompletionMessage = "Ingestion completed successfully."
)
