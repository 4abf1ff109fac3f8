package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vvka-141/ingest/internal/config"
	"github.com/vvka-141/ingest/internal/db"
	"github.com/vvka-141/ingest/internal/logging"
	"github.com/vvka-141/ingest/internal/progress"
	"github.com/vvka-141/ingest/internal/services"
	"github.com/vvka-141/ingest/pkg/ingest"
)

// resolveSettings loads .env and the optional config file, then merges them
// with the command-line flags.
func resolveSettings(cmd *cobra.Command, opts *rootOptions) (*config.Settings, error) {
	config.LoadDotEnv()

	file, err := config.LoadOptional(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := opts.flags
	flags.Changed = cmd.Flags().Changed
	return config.Resolve(flags, file, config.LoadEnvironment())
}

// newLogger returns the logger for format and a flush function to run on exit.
func newLogger(format string, verbose bool, out io.Writer) (ingest.Logger, func()) {
	if format == config.LogFormatJSON {
		zl := logging.NewZapLoggerTo(out, verbose)
		return zl, func() { _ = zl.Sync() }
	}
	return logging.NewConsoleLoggerTo(out, verbose), func() {}
}

func runIngest(cmd *cobra.Command, opts *rootOptions) error {
	settings, err := resolveSettings(cmd, opts)
	if err != nil {
		return err
	}

	logger, flush := newLogger(settings.LogFormat, settings.Ingest.Verbose, cmd.ErrOrStderr())
	defer flush()

	if settings.Ingest.Verbose {
		logVerboseSettings(logger, settings)
	}

	// Ctrl+C and SIGTERM cancel the run; the current batch is abandoned.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := services.NewSessionManager(db.NewConnector, logger)
	svc := services.NewIngestService(sessions, logger, services.WithUserAgent("ingest/"+version))

	display := progress.New(settings.Progress, cmd.ErrOrStderr(), logger)
	result, err := svc.Run(ctx, settings, display)
	display.Wait()
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) && cmd.Context().Err() == nil && settings.Ingest.Load.Mode == ingest.LoadModeBestEffort {
			logger.Error("Interrupted after %d batches; %s may hold a partial load", result.Batches, result.Table)
		}
		return fmt.Errorf("ingestion failed: %w", err)
	}

	logger.Verbose("Loaded %d rows in %d batches into %s in %s", result.Rows, result.Batches, result.Table, result.Duration)
	fmt.Fprintln(cmd.OutOrStdout(), ingest.CompletionMessage)
	return nil
}

func logVerboseSettings(logger ingest.Logger, s *config.Settings) {
	load := s.Ingest.Load
	logger.Verbose("Destination: %s (%s)", db.RedactedConnectionString(&s.Ingest.Connection), s.Ingest.Connection.AuthMethod)
	logger.Verbose("Source: %s, table %s, batch size %d, mode %s, index %t",
		load.Source, load.Table, load.BatchSize, load.Mode, load.WithIndex)
	if s.SourceDir != "" {
		logger.Verbose("Reading archives from %s", s.SourceDir)
	}
}
