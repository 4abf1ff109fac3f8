package ingest

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connector is a unified interface for establishing database connections.
// Different implementations handle various authentication methods
// (standard credentials, cloud IAM, etc.).
type Connector interface {
	// Connect establishes a connection pool to the database.
	// The returned pool should be closed by the caller when done.
	Connect(ctx context.Context) (*pgxpool.Pool, error)
}

// DBConn is the subset of a pgx connection used to write batches.
// *pgxpool.Conn and *pgx.Conn both satisfy it.
type DBConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Fetcher resolves a source locator into an address and opens it as a stream
// of CSV bytes.
type Fetcher interface {
	// Resolve derives the source address deterministically from the locator.
	Resolve(locator SourceLocator) (string, error)

	// Open returns a reader over the decompressed CSV content of address.
	// Failures wrap ErrSourceUnavailable. The caller closes the reader.
	Open(ctx context.Context, address string) (io.ReadCloser, error)
}

// Decoder turns delimited text into typed batches.
type Decoder interface {
	// Decode starts a forward-only decode session over r. Each produced batch
	// holds at most batchSize records.
	Decode(r io.Reader, batchSize int) (BatchIterator, error)
}

// BatchIterator yields successive batches. Next returns io.EOF once the source
// is exhausted and never returns an empty batch.
type BatchIterator interface {
	Next() (*RowBatch, error)
}

// TableSink accepts the two writes of a load run.
type TableSink interface {
	// DefineSchema drops and recreates table with the columns of empty.
	DefineSchema(ctx context.Context, table string, empty *RowBatch) error

	// Append inserts every record of batch into table without altering its schema.
	Append(ctx context.Context, table string, batch *RowBatch) error
}

// Finalizer is implemented by sinks that need to publish or discard their
// writes once the run ends.
type Finalizer interface {
	// Commit publishes the loaded data under table.
	Commit(ctx context.Context, table string) error

	// Abort discards everything written during the run.
	Abort(ctx context.Context, table string) error
}

// Observer receives progress notifications from a load run.
// Notifications are informational; an Observer cannot fail the run.
type Observer interface {
	// Started is called once the source address is resolved.
	Started(table, address string)

	// BatchWritten is called after each successful append.
	BatchWritten(batch *RowBatch, totalRows int64)

	// Finished is called once with the outcome of the run.
	Finished(result LoadResult, err error)
}
