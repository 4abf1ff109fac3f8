package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vvka-141/ingest/pkg/ingest"
)

// Flag names shared with the command line.
const (
	FlagPGUser          = "pg-user"
	FlagPGPassword      = "pg-password"
	FlagPGHost          = "pg-host"
	FlagPGPort          = "pg-port"
	FlagPGDatabase      = "pg-db"
	FlagYear            = "year"
	FlagMonth           = "month"
	FlagTargetTable     = "target-table"
	FlagChunksize       = "chunksize"
	FlagSSLMode         = "sslmode"
	FlagMode            = "mode"
	FlagIndex           = "index"
	FlagSourceURLPrefix = "source-url-prefix"
	FlagSourceDir       = "source-dir"
	FlagConfig          = "config"
	FlagMetricsFile     = "metrics-file"
	FlagLogFormat       = "log-format"
	FlagProgress        = "progress"
	FlagTimeout         = "timeout"
	FlagConnectRetries  = "connect-retries"
	FlagVerbose         = "verbose"
	FlagAWS             = "aws"
	FlagAWSRegion       = "aws-region"
	FlagAzure           = "azure"
	FlagAzureTenantID   = "azure-tenant-id"
	FlagAzureClientID   = "azure-client-id"
	FlagGoogleInstance  = "google-instance"
)

// Log formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Progress display modes.
const (
	ProgressAuto  = "auto"
	ProgressPlain = "plain"
	ProgressTUI   = "tui"
	ProgressNone  = "none"
)

// Flags carries the raw command-line values. Unset flags hold their defaults.
type Flags struct {
	PGUser     string
	PGPassword string
	PGHost     string
	PGPort     int
	PGDatabase string
	SSLMode    string

	Year      int
	Month     int
	Table     string
	Chunksize int
	Mode      string
	Index     bool

	SourceURLPrefix string
	SourceDir       string

	MetricsFile    string
	LogFormat      string
	Progress       string
	Timeout        time.Duration
	ConnectRetries int
	Verbose        bool

	AWS            bool
	AWSRegion      string
	Azure          bool
	AzureTenantID  string
	AzureClientID  string
	GoogleInstance string

	// Changed reports whether the named flag was set on the command line.
	Changed func(name string) bool
}

// Settings is the fully resolved configuration of a run.
type Settings struct {
	Ingest ingest.IngestConfig

	SourceURLPrefix string
	SourceDir       string
	MetricsFile     string
	LogFormat       string
	Progress        string
}

// Resolve merges flags, the optional file and the environment.
// Validation failures are joined and wrap ingest.ErrInvalidConfig.
func Resolve(flags Flags, file *File, env Env) (*Settings, error) {
	if flags.Changed == nil {
		flags.Changed = func(string) bool { return false }
	}
	if file == nil {
		file = &File{}
	}
	r := resolver{flags: flags}

	conn := ingest.ConnectionConfig{
		Host:           r.str(FlagPGHost, flags.PGHost, file.Connection.Host, env.PGHOST),
		Port:           r.num(FlagPGPort, flags.PGPort, file.Connection.Port, env.PGPORT),
		Database:       r.str(FlagPGDatabase, flags.PGDatabase, file.Connection.Database, env.PGDATABASE),
		Username:       r.str(FlagPGUser, flags.PGUser, file.Connection.Username, env.PGUSER),
		Password:       r.str(FlagPGPassword, flags.PGPassword, file.Connection.Password, env.PGPASSWORD),
		SSLMode:        r.str(FlagSSLMode, flags.SSLMode, file.Connection.SSLMode, env.PGSSLMODE),
		ConnectRetries: flags.ConnectRetries,
		AWSRegion:      r.str(FlagAWSRegion, flags.AWSRegion, file.Connection.AWSRegion, env.AWS_REGION),
		AzureTenantID:  r.str(FlagAzureTenantID, flags.AzureTenantID, file.Connection.AzureTenantID, env.AZURE_TENANT_ID),
		AzureClientID:  r.str(FlagAzureClientID, flags.AzureClientID, file.Connection.AzureClientID, env.AZURE_CLIENT_ID),
		GoogleInstance: r.str(FlagGoogleInstance, flags.GoogleInstance, file.Connection.GoogleInstance, ""),

		AzureClientSecret: env.AZURE_CLIENT_SECRET,
	}
	if !flags.Changed(FlagConnectRetries) && file.Connection.ConnectRetries != nil {
		conn.ConnectRetries = *file.Connection.ConnectRetries
	}
	conn.AuthMethod = r.authMethod(file.Connection.AuthMethod, conn.GoogleInstance)

	mode, err := ingest.ParseLoadMode(r.str(FlagMode, flags.Mode, file.Load.Mode, ""))
	r.add(err)

	withIndex := flags.Index
	if !flags.Changed(FlagIndex) && file.Load.Index != nil {
		withIndex = *file.Load.Index
	}

	load := ingest.LoadConfig{
		Source: ingest.SourceLocator{
			Year:  r.num(FlagYear, flags.Year, file.Load.Year, ""),
			Month: r.num(FlagMonth, flags.Month, file.Load.Month, ""),
		},
		Table:     r.str(FlagTargetTable, flags.Table, file.Load.Table, ""),
		BatchSize: r.num(FlagChunksize, flags.Chunksize, file.Load.Chunksize, ""),
		Mode:      mode,
		WithIndex: withIndex,
	}

	s := &Settings{
		Ingest: ingest.IngestConfig{
			Load:       load,
			Connection: conn,
			Timeout:    r.duration(FlagTimeout, flags.Timeout, file.Timeout),
			Verbose:    flags.Verbose,
		},
		SourceURLPrefix: r.str(FlagSourceURLPrefix, flags.SourceURLPrefix, file.Load.SourceURLPrefix, ""),
		SourceDir:       r.str(FlagSourceDir, flags.SourceDir, file.Load.SourceDir, ""),
		MetricsFile:     r.str(FlagMetricsFile, flags.MetricsFile, file.MetricsFile, ""),
		LogFormat:       r.oneOf(FlagLogFormat, r.str(FlagLogFormat, flags.LogFormat, file.LogFormat, ""), LogFormatConsole, LogFormatJSON),
		Progress:        r.oneOf(FlagProgress, r.str(FlagProgress, flags.Progress, file.Progress, ""), ProgressAuto, ProgressPlain, ProgressTUI, ProgressNone),
	}

	if conn.ConnectRetries < 0 {
		r.add(fmt.Errorf("--%s cannot be negative: %w", FlagConnectRetries, ingest.ErrInvalidConfig))
	}
	r.add(s.Ingest.Validate())

	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}
	return s, nil
}

type resolver struct {
	flags Flags
	errs  []error
}

func (r *resolver) add(err error) {
	if err != nil {
		r.errs = append(r.errs, err)
	}
}

func (r *resolver) str(name, flag, file, env string) string {
	switch {
	case r.flags.Changed(name):
		return flag
	case file != "":
		return file
	case env != "":
		return env
	default:
		return flag
	}
}

func (r *resolver) num(name string, flag, file int, env string) int {
	switch {
	case r.flags.Changed(name):
		return flag
	case file != 0:
		return file
	case env != "":
		v, err := strconv.Atoi(env)
		if err != nil {
			r.add(fmt.Errorf("invalid integer %q for %s from environment: %w", env, name, ingest.ErrInvalidConfig))
			return flag
		}
		return v
	default:
		return flag
	}
}

func (r *resolver) duration(name string, flag time.Duration, file string) time.Duration {
	if r.flags.Changed(name) || file == "" {
		return flag
	}
	d, err := time.ParseDuration(file)
	if err != nil {
		r.add(fmt.Errorf("invalid %s %q in %s: %w", name, file, FileName, ingest.ErrInvalidConfig))
		return flag
	}
	return d
}

func (r *resolver) oneOf(name, value string, allowed ...string) string {
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	r.add(fmt.Errorf("invalid --%s %q (want %s): %w", name, value, strings.Join(allowed, ", "), ingest.ErrInvalidConfig))
	return allowed[0]
}

// authMethod picks the authentication method from the cloud flags or the
// file's auth_method. Selecting more than one is an error.
func (r *resolver) authMethod(fileMethod, googleInstance string) ingest.AuthMethod {
	var selected []ingest.AuthMethod
	if r.flags.AWS {
		selected = append(selected, ingest.AuthMethodAWSIAM)
	}
	if r.flags.Azure {
		selected = append(selected, ingest.AuthMethodAzureEntraID)
	}
	if googleInstance != "" && (r.flags.Changed(FlagGoogleInstance) || fileMethod == "") {
		selected = append(selected, ingest.AuthMethodGoogleIAM)
	}

	switch len(selected) {
	case 0:
	case 1:
		return selected[0]
	default:
		r.add(fmt.Errorf("--%s, --%s and --%s are mutually exclusive: %w", FlagAWS, FlagAzure, FlagGoogleInstance, ingest.ErrInvalidConfig))
		return ingest.AuthMethodStandard
	}

	switch strings.ToLower(fileMethod) {
	case "", "standard":
		return ingest.AuthMethodStandard
	case "aws":
		return ingest.AuthMethodAWSIAM
	case "azure":
		return ingest.AuthMethodAzureEntraID
	case "google":
		return ingest.AuthMethodGoogleIAM
	default:
		r.add(fmt.Errorf("unknown auth_method %q in %s (want standard, aws, azure or google): %w", fileMethod, FileName, ingest.ErrUnsupportedAuthMethod))
		return ingest.AuthMethodStandard
	}
}
