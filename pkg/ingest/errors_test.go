package ingest_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vvka-141/ingest/pkg/ingest"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ingest.ExitSuccess},
		{"general error", errors.New("something went wrong"), ingest.ExitGeneralError},
		{"unknown flag", errors.New("unknown flag: --foo"), ingest.ExitUsageError},
		{"invalid argument", errors.New("invalid argument \"abc\" for \"--pg-port\" flag"), ingest.ExitUsageError},
		{"invalid config", fmt.Errorf("month 13: %w", ingest.ErrInvalidConfig), ingest.ExitConfigError},
		{"unsupported auth", ingest.ErrUnsupportedAuthMethod, ingest.ExitConfigError},
		{"connection failed", ingest.ErrConnectionFailed, ingest.ExitConnectionError},
		{"connection refused text", errors.New("dial tcp: connection refused"), ingest.ExitConnectionError},
		{"source unavailable", fmt.Errorf("fetch: %w", ingest.ErrSourceUnavailable), ingest.ExitSourceUnavailable},
		{"schema mismatch", fmt.Errorf("batch 1: %w", ingest.ErrSchemaMismatch), ingest.ExitSchemaMismatch},
		{"write failure", fmt.Errorf("append batch 3: %w", ingest.ErrWriteFailure), ingest.ExitWriteFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ingest.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodeForError_WrappedTwice(t *testing.T) {
	inner := fmt.Errorf("copy rows: %w", ingest.ErrWriteFailure)
	outer := fmt.Errorf("ingestion failed: %w", inner)

	if got := ingest.ExitCodeForError(outer); got != ingest.ExitWriteFailure {
		t.Errorf("expected %d, got %d", ingest.ExitWriteFailure, got)
	}
}
