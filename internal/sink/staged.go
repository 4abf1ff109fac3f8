package sink

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vvka-141/ingest/pkg/ingest"
)

// maxIdentifierLen is PostgreSQL's NAMEDATALEN - 1.
const maxIdentifierLen = 63

// StagingTarget is a sink that can swap a staging table into place.
type StagingTarget interface {
	ingest.TableSink
	Promote(ctx context.Context, from, to string) error
	Discard(ctx context.Context, table string) error
}

// Staged redirects writes to a staging table and publishes it on Commit.
type Staged struct {
	target  StagingTarget
	newID   func() string
	staging string
}

// NewStaged wraps target for all-or-nothing loading.
func NewStaged(target StagingTarget) *Staged {
	return &Staged{
		target: target,
		newID: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		},
	}
}

// StagingTable returns the name of the current staging table, or "" before
// DefineSchema.
func (s *Staged) StagingTable() string {
	return s.staging
}

// DefineSchema creates a fresh staging table for table.
func (s *Staged) DefineSchema(ctx context.Context, table string, empty *ingest.RowBatch) error {
	s.staging = stagingName(table, s.newID())
	return s.target.DefineSchema(ctx, s.staging, empty)
}

// Append writes batch into the staging table.
func (s *Staged) Append(ctx context.Context, _ string, batch *ingest.RowBatch) error {
	return s.target.Append(ctx, s.staging, batch)
}

// Commit replaces table with the staging table. It is a no-op if no schema
// was defined.
func (s *Staged) Commit(ctx context.Context, table string) error {
	if s.staging == "" {
		return nil
	}
	if err := s.target.Promote(ctx, s.staging, table); err != nil {
		return err
	}
	s.staging = ""
	return nil
}

// Abort drops the staging table, if any.
func (s *Staged) Abort(ctx context.Context, _ string) error {
	if s.staging == "" {
		return nil
	}
	err := s.target.Discard(ctx, s.staging)
	s.staging = ""
	return err
}

func stagingName(table, id string) string {
	suffix := "_staging_" + id
	if len(table)+len(suffix) > maxIdentifierLen {
		n := maxIdentifierLen - len(suffix)
		for n > 0 && !utf8.RuneStart(table[n]) {
			n--
		}
		table = table[:n]
	}
	return table + suffix
}

var (
	_ ingest.TableSink = (*Staged)(nil)
	_ ingest.Finalizer = (*Staged)(nil)
	_ StagingTarget    = (*PostgresSink)(nil)
)
