package ingest

import (
	"errors"
	"fmt"
	"time"
)

// SourceLocator identifies one monthly source archive.
type SourceLocator struct {
	Year  int
	Month int
}

// Validate checks that the locator is within the accepted year and month ranges.
func (s SourceLocator) Validate() error {
	var errs []error
	if s.Year < MinYear || s.Year > MaxYear {
		errs = append(errs, fmt.Errorf("year %d out of range [%d, %d]: %w", s.Year, MinYear, MaxYear, ErrInvalidConfig))
	}
	if s.Month < 1 || s.Month > 12 {
		errs = append(errs, fmt.Errorf("month %d out of range [1, 12]: %w", s.Month, ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// String returns the locator as YYYY-MM.
func (s SourceLocator) String() string {
	return fmt.Sprintf("%04d-%02d", s.Year, s.Month)
}

// LoadMode selects how a mid-run failure affects the destination table.
type LoadMode int

const (
	// LoadModeBestEffort commits every write on its own. A failure after K batches
	// leaves the destination with those K batches.
	LoadModeBestEffort LoadMode = iota

	// LoadModeAtomic loads into a staging table and swaps it in only after the
	// last batch is written. A failure leaves the destination untouched.
	LoadModeAtomic
)

// String returns the flag spelling of the mode.
func (m LoadMode) String() string {
	switch m {
	case LoadModeBestEffort:
		return "best-effort"
	case LoadModeAtomic:
		return "atomic"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// ParseLoadMode converts a flag value into a LoadMode.
func ParseLoadMode(s string) (LoadMode, error) {
	switch s {
	case "", "best-effort":
		return LoadModeBestEffort, nil
	case "atomic":
		return LoadModeAtomic, nil
	default:
		return LoadModeBestEffort, fmt.Errorf("unknown load mode %q (want best-effort or atomic): %w", s, ErrInvalidConfig)
	}
}

// LoadConfig contains the parameters of one extract-transform-load run.
type LoadConfig struct {
	// Source selects the monthly archive to load.
	Source SourceLocator

	// Table is the destination table. It is dropped and recreated by the run.
	Table string

	// BatchSize is the maximum number of records per batch.
	BatchSize int

	// Mode selects best-effort or all-or-nothing loading.
	Mode LoadMode

	// WithIndex adds a leading "index" column holding each record's source row number.
	WithIndex bool
}

// Validate checks if the LoadConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *LoadConfig) Validate() error {
	var errs []error

	if err := c.Source.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Table == "" {
		errs = append(errs, fmt.Errorf("Table is required: %w", ErrInvalidConfig))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch size must be positive, got %d: %w", c.BatchSize, ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// IngestConfig combines a load run with the destination connection settings.
type IngestConfig struct {
	Load       LoadConfig
	Connection ConnectionConfig

	// Timeout bounds the whole run. Zero means no timeout.
	Timeout time.Duration

	Verbose bool
}

// Validate checks the load and connection settings together.
func (c *IngestConfig) Validate() error {
	var errs []error

	if err := c.Load.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Connection.Host == "" && c.Connection.GoogleInstance == "" {
		errs = append(errs, fmt.Errorf("database host is required: %w", ErrInvalidConfig))
	}
	if c.Connection.Database == "" {
		errs = append(errs, fmt.Errorf("database name is required: %w", ErrInvalidConfig))
	}
	if c.Connection.Port <= 0 || c.Connection.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range: %w", c.Connection.Port, ErrInvalidConfig))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// LoadResult summarizes a completed run.
type LoadResult struct {
	Table    string
	Address  string
	Batches  int
	Rows     int64
	Duration time.Duration
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

	AppName        string
	ConnectTimeout time.Duration

	// ConnectRetries is the number of retries for transient connection failures.
	ConnectRetries int

	// Cloud IAM parameters, used only by the matching AuthMethod.
	AWSRegion         string
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
	GoogleInstance    string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS RDS IAM Database Authentication
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

// RowBatch is an ordered group of decoded records written as one unit.
// Values in each row follow the order of Columns.
type RowBatch struct {
	Columns []string
	Rows    [][]any

	// Seq is the 1-based position of the batch in its source.
	Seq int

	// Offset is the 0-based source row number of the first record.
	Offset int64
}

// Len returns the number of records in the batch.
func (b *RowBatch) Len() int {
	return len(b.Rows)
}

// Empty returns a zero-record batch with the same columns.
func (b *RowBatch) Empty() *RowBatch {
	cols := make([]string, len(b.Columns))
	copy(cols, b.Columns)
	return &RowBatch{Columns: cols, Rows: [][]any{}, Seq: b.Seq, Offset: b.Offset}
}
