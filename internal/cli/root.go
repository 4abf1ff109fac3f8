package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vvka-141/ingest/internal/config"
	"github.com/vvka-141/ingest/pkg/ingest"
)

const longDescription = `ingest downloads one monthly NYC yellow-taxi trip archive, decodes it in
fixed-size batches and writes it to a PostgreSQL table. The table is dropped
and recreated from the first batch, then every batch is appended in order.

Settings are resolved per field: explicit flag, then ingest.yaml (or --config),
then the PG* environment variables (a .env file in the working directory is
loaded first), then the built-in default.

Load modes:
  best-effort  each batch is committed on its own; a failure keeps earlier batches
  atomic       batches go to a staging table that replaces the target at the end

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  20 - Source archive unavailable
  21 - Source does not match the column schema
  22 - Destination rejected a write`

var rootCmd = newRootCmd()

// newRootCmd builds the ingest command with its own flag storage.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "ingest",
		Short:        "Load a monthly NYC yellow-taxi archive into PostgreSQL",
		Long:         longDescription,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngest(cmd, opts)
		},
	}

	registerFlags(cmd.Flags(), opts)
	registerCompletions(cmd)
	cmd.AddCommand(newVersionCmd())
	return cmd
}

type rootOptions struct {
	flags      config.Flags
	configPath string
}

func registerFlags(fs *pflag.FlagSet, opts *rootOptions) {
	f := &opts.flags

	fs.StringVar(&f.PGUser, config.FlagPGUser, "root", "PostgreSQL user")
	fs.StringVar(&f.PGPassword, config.FlagPGPassword, "root", "PostgreSQL password")
	fs.StringVar(&f.PGHost, config.FlagPGHost, "localhost", "PostgreSQL host")
	fs.IntVar(&f.PGPort, config.FlagPGPort, 5432, "PostgreSQL port")
	fs.StringVar(&f.PGDatabase, config.FlagPGDatabase, "ny_taxi", "PostgreSQL database")
	fs.StringVar(&f.SSLMode, config.FlagSSLMode, "", "SSL mode (disable, allow, prefer, require, verify-ca, verify-full)")

	fs.IntVar(&f.Year, config.FlagYear, ingest.DefaultYear, "Year of the archive to load")
	fs.IntVar(&f.Month, config.FlagMonth, ingest.DefaultMonth, "Month of the archive to load (1-12)")
	fs.StringVar(&f.Table, config.FlagTargetTable, ingest.DefaultTable, "Destination table, dropped and recreated by the run")
	fs.IntVar(&f.Chunksize, config.FlagChunksize, ingest.DefaultBatchSize, "Records per batch")
	fs.StringVar(&f.Mode, config.FlagMode, ingest.LoadModeBestEffort.String(), "Load mode: best-effort or atomic")
	fs.BoolVar(&f.Index, config.FlagIndex, false, `Add an "index" column with each record's row number`)

	fs.StringVar(&f.SourceURLPrefix, config.FlagSourceURLPrefix, "", "URL prefix the archive name is appended to")
	fs.StringVar(&f.SourceDir, config.FlagSourceDir, "", "Read archives from this directory instead of downloading")

	fs.StringVar(&opts.configPath, config.FlagConfig, "", "Configuration file (default ./"+config.FileName+" if present)")
	fs.StringVar(&f.MetricsFile, config.FlagMetricsFile, "", "Write Prometheus metrics to this file after the run")
	fs.StringVar(&f.LogFormat, config.FlagLogFormat, config.LogFormatConsole, "Log format: console or json")
	fs.StringVar(&f.Progress, config.FlagProgress, config.ProgressAuto, "Progress display: auto, plain, tui or none")
	fs.DurationVar(&f.Timeout, config.FlagTimeout, 0, "Abort the run after this duration (0 = no limit)")
	fs.IntVar(&f.ConnectRetries, config.FlagConnectRetries, ingest.DefaultRetryMaxAttempts, "Retries for transient connection failures")
	fs.BoolVarP(&f.Verbose, config.FlagVerbose, "v", false, "Enable verbose output")

	fs.BoolVar(&f.AWS, config.FlagAWS, false, "Authenticate with AWS RDS IAM")
	fs.StringVar(&f.AWSRegion, config.FlagAWSRegion, "", "AWS region for RDS IAM (env: AWS_REGION)")
	fs.BoolVar(&f.Azure, config.FlagAzure, false, "Authenticate with Azure Entra ID")
	fs.StringVar(&f.AzureTenantID, config.FlagAzureTenantID, "", "Azure tenant ID (env: AZURE_TENANT_ID)")
	fs.StringVar(&f.AzureClientID, config.FlagAzureClientID, "", "Azure client ID (env: AZURE_CLIENT_ID)")
	fs.StringVar(&f.GoogleInstance, config.FlagGoogleInstance, "", "Cloud SQL instance connection name (project:region:instance)")
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout)
		return nil
	}
	return rootCmd.Execute()
}
