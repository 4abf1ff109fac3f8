package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vvka-141/ingest/pkg/ingest"
)

// abortTimeout bounds cleanup after a failed or cancelled run.
const abortTimeout = 30 * time.Second

type state int

const (
	awaitingSchema state = iota
	streaming
)

func (s state) String() string {
	switch s {
	case awaitingSchema:
		return "awaiting-schema"
	case streaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// ChunkedLoader loads one monthly source into one destination table.
// NOT safe for concurrent use.
type ChunkedLoader struct {
	fetcher  ingest.Fetcher
	decoder  ingest.Decoder
	sink     ingest.TableSink
	logger   ingest.Logger
	observer ingest.Observer
	now      func() time.Time
}

// Option configures a ChunkedLoader.
type Option func(*ChunkedLoader)

// WithObserver registers an observer for progress notifications.
func WithObserver(o ingest.Observer) Option {
	return func(l *ChunkedLoader) {
		if o != nil {
			l.observer = o
		}
	}
}

// WithClock overrides the time source used to measure run duration.
func WithClock(now func() time.Time) Option {
	return func(l *ChunkedLoader) {
		l.now = now
	}
}

// New creates a ChunkedLoader.
//
// Panics if any required dependency is nil.
func New(fetcher ingest.Fetcher, decoder ingest.Decoder, sink ingest.TableSink, logger ingest.Logger, opts ...Option) *ChunkedLoader {
	if fetcher == nil {
		panic("fetcher cannot be nil")
	}
	if decoder == nil {
		panic("decoder cannot be nil")
	}
	if sink == nil {
		panic("sink cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	l := &ChunkedLoader{
		fetcher:  fetcher,
		decoder:  decoder,
		sink:     sink,
		logger:   logger,
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run loads the source selected by cfg into cfg.Table.
//
// The returned result describes what was written even when err is non-nil.
// Errors wrap ingest.ErrSourceUnavailable, ingest.ErrSchemaMismatch or
// ingest.ErrWriteFailure depending on the failing stage.
func (l *ChunkedLoader) Run(ctx context.Context, cfg ingest.LoadConfig) (result ingest.LoadResult, err error) {
	result.Table = cfg.Table
	if err := cfg.Validate(); err != nil {
		return result, err
	}

	start := l.now()
	defer func() {
		result.Duration = l.now().Sub(start)
		l.observer.Finished(result, err)
	}()

	address, err := l.fetcher.Resolve(cfg.Source)
	if err != nil {
		return result, err
	}
	result.Address = address
	l.observer.Started(cfg.Table, address)
	l.logger.Verbose("Loading %s into %s in batches of %d", address, cfg.Table, cfg.BatchSize)

	body, err := l.fetcher.Open(ctx, address)
	if err != nil {
		return result, err
	}
	defer body.Close()

	batches, err := l.decoder.Decode(body, cfg.BatchSize)
	if err != nil {
		return result, err
	}

	if err := l.stream(ctx, cfg.Table, batches, &result); err != nil {
		l.abort(ctx, cfg.Table)
		return result, err
	}

	if fin, ok := l.sink.(ingest.Finalizer); ok {
		if err := fin.Commit(ctx, cfg.Table); err != nil {
			l.abort(ctx, cfg.Table)
			return result, fmt.Errorf("commit %s: %w", cfg.Table, err)
		}
	}

	if result.Batches == 0 {
		l.logger.Info("Source %s has no records; %s was not modified", address, cfg.Table)
	}
	return result, nil
}

func (l *ChunkedLoader) stream(ctx context.Context, table string, batches ingest.BatchIterator, result *ingest.LoadResult) error {
	st := awaitingSchema
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("load interrupted after %d batches: %w", result.Batches, err)
		}

		batch, err := batches.Next()
		if errors.Is(err, io.EOF) {
			l.logger.Verbose("Source exhausted in state %s after %d batches", st, result.Batches)
			return nil
		}
		if err != nil {
			return err
		}

		if st == awaitingSchema {
			if err := l.sink.DefineSchema(ctx, table, batch.Empty()); err != nil {
				return err
			}
			st = streaming
		}

		if err := l.sink.Append(ctx, table, batch); err != nil {
			return err
		}

		result.Batches++
		result.Rows += int64(batch.Len())
		l.observer.BatchWritten(batch, result.Rows)
	}
}

// abort discards pending writes of a finalizing sink. The original error is
// what the caller sees, so a cleanup failure is only logged.
func (l *ChunkedLoader) abort(ctx context.Context, table string) {
	fin, ok := l.sink.(ingest.Finalizer)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abortTimeout)
	defer cancel()
	if err := fin.Abort(ctx, table); err != nil {
		l.logger.Error("Failed to discard partial load of %s: %v", table, err)
	}
}

type nopObserver struct{}

func (nopObserver) Started(string, string)               {}
func (nopObserver) BatchWritten(*ingest.RowBatch, int64) {}
func (nopObserver) Finished(ingest.LoadResult, error)    {}
