package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/ingest/internal/schema"
	"github.com/vvka-141/ingest/pkg/ingest"
)

// PostgresSink implements ingest.TableSink on one PostgreSQL connection.
// NOT safe for concurrent use.
type PostgresSink struct {
	conn   ingest.DBConn
	schema *schema.Schema
	logger ingest.Logger
}

// NewPostgresSink creates a sink writing through conn.
//
// Panics if any dependency is nil.
func NewPostgresSink(conn ingest.DBConn, s *schema.Schema, logger ingest.Logger) *PostgresSink {
	if conn == nil {
		panic("conn cannot be nil")
	}
	if s == nil {
		panic("schema cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &PostgresSink{conn: conn, schema: s, logger: logger}
}

// DefineSchema drops table if it exists and creates it with the columns of
// empty, which must carry zero records.
func (s *PostgresSink) DefineSchema(ctx context.Context, table string, empty *ingest.RowBatch) error {
	if empty.Len() != 0 {
		return fmt.Errorf("schema definition for %q carries %d records, expected none: %w", table, empty.Len(), ingest.ErrInvalidConfig)
	}

	withIndex, err := s.schema.Validate(empty.Columns)
	if err != nil {
		return fmt.Errorf("define schema of %q: %w", table, err)
	}

	statements := []string{
		schema.DropTableSQL(table),
		s.schema.CreateTableSQL(table, withIndex),
	}
	if withIndex {
		statements = append(statements, schema.CreateIndexSQL(table))
	}

	if err := s.inTx(ctx, statements); err != nil {
		return fmt.Errorf("define schema of %q: %v: %w", table, err, ingest.ErrWriteFailure)
	}

	s.logger.Verbose("Recreated table %s with %d columns", table, len(empty.Columns))
	return nil
}

// Append copies every record of batch into table.
func (s *PostgresSink) Append(ctx context.Context, table string, batch *ingest.RowBatch) error {
	if _, err := s.schema.Validate(batch.Columns); err != nil {
		return fmt.Errorf("append batch %d to %q: %w", batch.Seq, table, err)
	}

	copied, err := s.conn.CopyFrom(ctx, pgx.Identifier{table}, batch.Columns, pgx.CopyFromRows(batch.Rows))
	if err != nil {
		return fmt.Errorf("append batch %d to %q: %v: %w", batch.Seq, table, err, ingest.ErrWriteFailure)
	}
	if copied != int64(batch.Len()) {
		return fmt.Errorf("append batch %d to %q: copied %d of %d rows: %w", batch.Seq, table, copied, batch.Len(), ingest.ErrWriteFailure)
	}

	s.logger.Verbose("Appended batch %d (%d rows) to %s", batch.Seq, copied, table)
	return nil
}

// Promote replaces table to with table from in one transaction.
func (s *PostgresSink) Promote(ctx context.Context, from, to string) error {
	statements := []string{
		schema.DropTableSQL(to),
		schema.RenameTableSQL(from, to),
		schema.RenameIndexSQL(from, to),
	}
	if err := s.inTx(ctx, statements); err != nil {
		return fmt.Errorf("promote %q to %q: %v: %w", from, to, err, ingest.ErrWriteFailure)
	}
	s.logger.Verbose("Promoted %s to %s", from, to)
	return nil
}

// Discard drops table if it exists.
func (s *PostgresSink) Discard(ctx context.Context, table string) error {
	if _, err := s.conn.Exec(ctx, schema.DropTableSQL(table)); err != nil {
		return fmt.Errorf("discard %q: %v: %w", table, err, ingest.ErrWriteFailure)
	}
	s.logger.Verbose("Dropped %s", table)
	return nil
}

func (s *PostgresSink) inTx(ctx context.Context, statements []string) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

var _ ingest.TableSink = (*PostgresSink)(nil)
