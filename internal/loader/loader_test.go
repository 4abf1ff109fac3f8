package loader

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vvka-141/ingest/internal/decoder"
	"github.com/vvka-141/ingest/internal/logging"
	"github.com/vvka-141/ingest/internal/schema"
	"github.com/vvka-141/ingest/internal/source"
	"github.com/vvka-141/ingest/pkg/ingest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func tripCSV(n int) string {
	var b strings.Builder
	b.WriteString(strings.Join(schema.Yellow().Names(), ",") + "\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "2,2021-01-01 00:%02d:00,2021-01-01 00:%02d:30,1,3.5,1,N,142,43,2,8,3,0.5,0,0,0.3,11.8,2.5\n", i%60, i%60)
	}
	return b.String()
}

type fakeFetcher struct {
	body     string
	openErr  error
	resolved []ingest.SourceLocator
	closed   bool
}

func (f *fakeFetcher) Resolve(locator ingest.SourceLocator) (string, error) {
	f.resolved = append(f.resolved, locator)
	return source.ResolveURL(source.DefaultURLPrefix, locator)
}

func (f *fakeFetcher) Open(context.Context, string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &trackingReader{Reader: strings.NewReader(f.body), f: f}, nil
}

type trackingReader struct {
	io.Reader
	f *fakeFetcher
}

func (r *trackingReader) Close() error {
	r.f.closed = true
	return nil
}

type sinkCall struct {
	op      string
	table   string
	columns []string
	rows    int
}

type recordingSink struct {
	calls        []sinkCall
	failDefine   error
	failAppendAt int
}

func (s *recordingSink) DefineSchema(_ context.Context, table string, empty *ingest.RowBatch) error {
	if s.failDefine != nil {
		return s.failDefine
	}
	s.calls = append(s.calls, sinkCall{op: "define", table: table, columns: empty.Columns, rows: empty.Len()})
	return nil
}

func (s *recordingSink) Append(_ context.Context, table string, batch *ingest.RowBatch) error {
	if s.failAppendAt > 0 && s.appends()+1 == s.failAppendAt {
		return fmt.Errorf("connection reset: %w", ingest.ErrWriteFailure)
	}
	s.calls = append(s.calls, sinkCall{op: "append", table: table, columns: batch.Columns, rows: batch.Len()})
	return nil
}

func (s *recordingSink) appends() int {
	n := 0
	for _, c := range s.calls {
		if c.op == "append" {
			n++
		}
	}
	return n
}

type finalizingSink struct {
	recordingSink
	commitErr error
	commits   int
	aborts    int
	abortCtx  error
}

func (s *finalizingSink) Commit(context.Context, string) error {
	s.commits++
	return s.commitErr
}

func (s *finalizingSink) Abort(ctx context.Context, _ string) error {
	s.aborts++
	s.abortCtx = ctx.Err()
	return nil
}

type recordingObserver struct {
	started  []string
	totals   []int64
	finished int
	result   ingest.LoadResult
	err      error
}

func (o *recordingObserver) Started(table, address string) {
	o.started = append(o.started, table, address)
}

func (o *recordingObserver) BatchWritten(_ *ingest.RowBatch, total int64) {
	o.totals = append(o.totals, total)
}

func (o *recordingObserver) Finished(result ingest.LoadResult, err error) {
	o.finished++
	o.result = result
	o.err = err
}

func loadConfig(batchSize int) ingest.LoadConfig {
	return ingest.LoadConfig{
		Source:    ingest.SourceLocator{Year: 2021, Month: 1},
		Table:     "yellow_taxi_data",
		BatchSize: batchSize,
	}
}

func newLoader(f ingest.Fetcher, s ingest.TableSink, opts ...Option) *ChunkedLoader {
	return New(f, decoder.NewCSVDecoder(schema.Yellow()), s, logging.NewNullLogger(), opts...)
}

func TestNew_PanicsOnNil(t *testing.T) {
	d := decoder.NewCSVDecoder(schema.Yellow())
	l := logging.NewNullLogger()
	assert.Panics(t, func() { New(nil, d, &recordingSink{}, l) })
	assert.Panics(t, func() { New(&fakeFetcher{}, nil, &recordingSink{}, l) })
	assert.Panics(t, func() { New(&fakeFetcher{}, d, nil, l) })
	assert.Panics(t, func() { New(&fakeFetcher{}, d, &recordingSink{}, nil) })
}

func TestRun_AppendCountIsCeilOfRecordsOverBatchSize(t *testing.T) {
	tests := []struct {
		records   int
		batchSize int
		appends   int
	}{
		{records: 10, batchSize: 3, appends: 4},
		{records: 9, batchSize: 3, appends: 3},
		{records: 1, batchSize: 100, appends: 1},
		{records: 250, batchSize: 100, appends: 3},
		{records: 7, batchSize: 1, appends: 7},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_by_%d", tt.records, tt.batchSize), func(t *testing.T) {
			sink := &recordingSink{}
			result, err := newLoader(&fakeFetcher{body: tripCSV(tt.records)}, sink).Run(context.Background(), loadConfig(tt.batchSize))
			require.NoError(t, err)

			assert.Equal(t, tt.appends, sink.appends())
			total := 0
			for _, c := range sink.calls {
				if c.op == "append" {
					assert.LessOrEqual(t, c.rows, tt.batchSize)
					total += c.rows
				}
			}
			assert.Equal(t, tt.records, total)
			assert.Equal(t, int64(tt.records), result.Rows)
			assert.Equal(t, tt.appends, result.Batches)
		})
	}
}

func TestRun_DefinesSchemaOnceBeforeFirstAppend(t *testing.T) {
	sink := &recordingSink{}
	_, err := newLoader(&fakeFetcher{body: tripCSV(5)}, sink).Run(context.Background(), loadConfig(2))
	require.NoError(t, err)

	require.Len(t, sink.calls, 4)
	define := sink.calls[0]
	assert.Equal(t, "define", define.op)
	assert.Equal(t, "yellow_taxi_data", define.table)
	assert.Equal(t, 0, define.rows)
	assert.Equal(t, schema.Yellow().Names(), define.columns)
	for _, c := range sink.calls[1:] {
		assert.Equal(t, "append", c.op)
		assert.Equal(t, define.columns, c.columns)
	}
}

func TestRun_ResolvesAddressFromLocator(t *testing.T) {
	f := &fakeFetcher{body: tripCSV(1)}
	obs := &recordingObserver{}
	result, err := newLoader(f, &recordingSink{}, WithObserver(obs)).Run(context.Background(), loadConfig(10))
	require.NoError(t, err)

	assert.Equal(t, []ingest.SourceLocator{{Year: 2021, Month: 1}}, f.resolved)
	assert.True(t, strings.HasSuffix(result.Address, "/yellow_tripdata_2021-01.csv.gz"))
	assert.Equal(t, []string{"yellow_taxi_data", result.Address}, obs.started)
	assert.True(t, f.closed)
}

func TestRun_WriteFailureOnThirdOfFiveBatches(t *testing.T) {
	f := &fakeFetcher{body: tripCSV(10)}
	sink := &recordingSink{failAppendAt: 3}
	obs := &recordingObserver{}

	result, err := newLoader(f, sink, WithObserver(obs)).Run(context.Background(), loadConfig(2))

	require.Error(t, err)
	assert.ErrorIs(t, err, ingest.ErrWriteFailure)
	assert.Equal(t, 2, sink.appends())
	assert.Equal(t, 2, result.Batches)
	assert.Equal(t, int64(4), result.Rows)
	assert.Equal(t, []int64{2, 4}, obs.totals)
	assert.Equal(t, 1, obs.finished)
	assert.ErrorIs(t, obs.err, ingest.ErrWriteFailure)
	assert.True(t, f.closed)
}

func TestRun_DefineFailureWritesNothing(t *testing.T) {
	sink := &recordingSink{failDefine: fmt.Errorf("permission denied: %w", ingest.ErrWriteFailure)}
	_, err := newLoader(&fakeFetcher{body: tripCSV(3)}, sink).Run(context.Background(), loadConfig(2))

	assert.ErrorIs(t, err, ingest.ErrWriteFailure)
	assert.Empty(t, sink.calls)
}

func TestRun_SourceUnavailable(t *testing.T) {
	f := &fakeFetcher{openErr: fmt.Errorf("GET: 404 Not Found: %w", ingest.ErrSourceUnavailable)}
	sink := &recordingSink{}
	obs := &recordingObserver{}

	_, err := newLoader(f, sink, WithObserver(obs)).Run(context.Background(), loadConfig(2))

	assert.ErrorIs(t, err, ingest.ErrSourceUnavailable)
	assert.Empty(t, sink.calls)
	assert.Equal(t, 1, obs.finished)
}

func TestRun_SchemaMismatchInHeader(t *testing.T) {
	body := strings.Replace(tripCSV(3), "VendorID", "vendor_id", 1)
	sink := &recordingSink{}

	_, err := newLoader(&fakeFetcher{body: body}, sink).Run(context.Background(), loadConfig(2))

	assert.ErrorIs(t, err, ingest.ErrSchemaMismatch)
	assert.Empty(t, sink.calls)
}

func TestRun_SchemaMismatchMidStream(t *testing.T) {
	lines := strings.Split(tripCSV(6), "\n")
	lines[5] = strings.Replace(lines[5], "3.5", "three", 1)
	sink := &recordingSink{}

	result, err := newLoader(&fakeFetcher{body: strings.Join(lines, "\n")}, sink).Run(context.Background(), loadConfig(2))

	assert.ErrorIs(t, err, ingest.ErrSchemaMismatch)
	assert.Equal(t, 2, sink.appends())
	assert.Equal(t, int64(4), result.Rows)
}

func TestRun_HeaderOnlySourceLeavesTableUntouched(t *testing.T) {
	sink := &recordingSink{}
	result, err := newLoader(&fakeFetcher{body: tripCSV(0)}, sink).Run(context.Background(), loadConfig(2))

	require.NoError(t, err)
	assert.Empty(t, sink.calls)
	assert.Zero(t, result.Batches)
}

func TestRun_InvalidConfig(t *testing.T) {
	sink := &recordingSink{}
	cfg := loadConfig(0)
	cfg.Source.Month = 13

	_, err := newLoader(&fakeFetcher{body: tripCSV(1)}, sink).Run(context.Background(), cfg)

	assert.ErrorIs(t, err, ingest.ErrInvalidConfig)
	assert.Empty(t, sink.calls)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &finalizingSink{}

	_, err := newLoader(&fakeFetcher{body: tripCSV(3)}, sink).Run(ctx, loadConfig(2))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.calls)
	assert.Equal(t, 1, sink.aborts)
	assert.NoError(t, sink.abortCtx, "cleanup must not inherit cancellation")
}

func TestRun_FinalizerCommittedOnSuccess(t *testing.T) {
	sink := &finalizingSink{}
	_, err := newLoader(&fakeFetcher{body: tripCSV(3)}, sink).Run(context.Background(), loadConfig(2))

	require.NoError(t, err)
	assert.Equal(t, 1, sink.commits)
	assert.Zero(t, sink.aborts)
}

func TestRun_FinalizerAbortedOnFailure(t *testing.T) {
	sink := &finalizingSink{recordingSink: recordingSink{failAppendAt: 2}}
	_, err := newLoader(&fakeFetcher{body: tripCSV(5)}, sink).Run(context.Background(), loadConfig(2))

	assert.ErrorIs(t, err, ingest.ErrWriteFailure)
	assert.Zero(t, sink.commits)
	assert.Equal(t, 1, sink.aborts)
}

func TestRun_CommitFailureAborts(t *testing.T) {
	sink := &finalizingSink{commitErr: fmt.Errorf("rename: %w", ingest.ErrWriteFailure)}
	_, err := newLoader(&fakeFetcher{body: tripCSV(1)}, sink).Run(context.Background(), loadConfig(2))

	assert.ErrorIs(t, err, ingest.ErrWriteFailure)
	assert.Equal(t, 1, sink.aborts)
}

func TestRun_MeasuresDuration(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}

	result, err := newLoader(&fakeFetcher{body: tripCSV(1)}, &recordingSink{}, WithClock(clock)).Run(context.Background(), loadConfig(2))
	require.NoError(t, err)
	assert.Equal(t, time.Second, result.Duration)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "awaiting-schema", awaitingSchema.String())
	assert.Equal(t, "streaming", streaming.String())
}
