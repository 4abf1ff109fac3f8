package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/ingest/internal/config"
	"github.com/vvka-141/ingest/internal/db"
	"github.com/vvka-141/ingest/internal/logging"
	testhelpers "github.com/vvka-141/ingest/internal/testing"
	"github.com/vvka-141/ingest/pkg/ingest"
)

var jan2021 = ingest.SourceLocator{Year: 2021, Month: 1}

func newTestService(conn *fakeConn, opts ...Option) *IngestService {
	logger := logging.NewNullLogger()
	svc := NewIngestService(NewSessionManager(db.NewConnector, logger), logger, opts...)
	svc.openDestination = func(context.Context, *ingest.ConnectionConfig) (ingest.DBConn, func(), error) {
		return conn, func() {}, nil
	}
	return svc
}

func testSettings(dir string) *config.Settings {
	return &config.Settings{
		Ingest: ingest.IngestConfig{
			Load: ingest.LoadConfig{
				Source:    jan2021,
				Table:     "trips",
				BatchSize: 2,
			},
			Connection: ingest.ConnectionConfig{Host: "localhost", Port: 5432, Database: "ny_taxi"},
		},
		SourceDir: dir,
	}
}

func TestNewIngestService_NilDeps(t *testing.T) {
	logger := logging.NewNullLogger()
	assert.Panics(t, func() { NewIngestService(nil, logger) })
	assert.Panics(t, func() { NewIngestService(NewSessionManager(db.NewConnector, logger), nil) })
}

func TestRun_BestEffortWritesToTarget(t *testing.T) {
	dir := t.TempDir()
	testhelpers.WriteArchive(t, dir, jan2021, testhelpers.YellowCSV(5))
	conn := newFakeConn()
	obs := &countingObserver{}

	result, err := newTestService(conn).Run(context.Background(), testSettings(dir), obs)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Batches)
	assert.Equal(t, int64(5), result.Rows)
	assert.Equal(t, map[string]int{"trips": 5}, conn.copies)
	assert.Equal(t, 1, obs.started)
	assert.Equal(t, 3, obs.batches)
	assert.Equal(t, 1, obs.finished)
	assert.NoError(t, obs.err)

	stmts := conn.statements()
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], `DROP TABLE IF EXISTS "trips"`)
	assert.Contains(t, stmts[1], `CREATE TABLE "trips"`)
}

func TestRun_AtomicLoadsThroughStaging(t *testing.T) {
	dir := t.TempDir()
	testhelpers.WriteArchive(t, dir, jan2021, testhelpers.YellowCSV(3))
	conn := newFakeConn()
	settings := testSettings(dir)
	settings.Ingest.Load.Mode = ingest.LoadModeAtomic

	_, err := newTestService(conn).Run(context.Background(), settings)
	require.NoError(t, err)

	require.Len(t, conn.copies, 1)
	for table, rows := range conn.copies {
		assert.True(t, strings.HasPrefix(table, "trips_staging_"), table)
		assert.Equal(t, 3, rows)
	}

	all := strings.Join(conn.statements(), "\n")
	assert.Contains(t, all, `ALTER TABLE "trips_staging_`)
	assert.Contains(t, all, `RENAME TO "trips"`)
}

func TestRun_AtomicFailureDiscardsStaging(t *testing.T) {
	dir := t.TempDir()
	testhelpers.WriteArchive(t, dir, jan2021, testhelpers.YellowCSV(3))
	conn := newFakeConn()
	conn.failOn = "RENAME"
	settings := testSettings(dir)
	settings.Ingest.Load.Mode = ingest.LoadModeAtomic

	_, err := newTestService(conn).Run(context.Background(), settings)
	require.Error(t, err)
	assert.ErrorIs(t, err, ingest.ErrWriteFailure)

	stmts := conn.statements()
	last := stmts[len(stmts)-1]
	assert.Contains(t, last, `DROP TABLE IF EXISTS "trips_staging_`)
	assert.NotContains(t, stmts, `DROP TABLE IF EXISTS "trips"`, "target must survive a failed promote")
}

func TestRun_WithIndexColumn(t *testing.T) {
	dir := t.TempDir()
	testhelpers.WriteArchive(t, dir, jan2021, testhelpers.YellowCSV(2))
	conn := newFakeConn()
	settings := testSettings(dir)
	settings.Ingest.Load.WithIndex = true

	_, err := newTestService(conn).Run(context.Background(), settings)
	require.NoError(t, err)

	all := strings.Join(conn.statements(), "\n")
	assert.Contains(t, all, `"index" BIGINT`)
	assert.Contains(t, all, `CREATE INDEX "ix_trips_index"`)
}

func TestRun_DownloadsFromURLPrefix(t *testing.T) {
	var gotPath, gotAgent string
	body := testhelpers.Gzip(t, testhelpers.YellowCSV(4))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.UserAgent()
		w.Write(body) //nolint:errcheck
	}))
	defer srv.Close()

	conn := newFakeConn()
	settings := testSettings("")
	settings.SourceURLPrefix = srv.URL + "/yellow/"

	result, err := newTestService(conn, WithHTTPClient(srv.Client()), WithUserAgent("ingest-test")).
		Run(context.Background(), settings)
	require.NoError(t, err)

	assert.Equal(t, "/yellow/yellow_tripdata_2021-01.csv.gz", gotPath)
	assert.Equal(t, "ingest-test", gotAgent)
	assert.Equal(t, srv.URL+"/yellow/yellow_tripdata_2021-01.csv.gz", result.Address)
	assert.Equal(t, int64(4), result.Rows)
}

func TestRun_WritesMetricsFile(t *testing.T) {
	dir := t.TempDir()
	testhelpers.WriteArchive(t, dir, jan2021, testhelpers.YellowCSV(5))
	settings := testSettings(dir)
	settings.MetricsFile = filepath.Join(t.TempDir(), "ingest.prom")

	_, err := newTestService(newFakeConn()).Run(context.Background(), settings)
	require.NoError(t, err)

	data, err := os.ReadFile(settings.MetricsFile)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `ingest_rows_total{table="trips"} 5`)
	assert.Contains(t, text, `ingest_batches_total{table="trips"} 3`)
	assert.Contains(t, text, `ingest_last_run_success{table="trips"} 1`)
}

func TestRun_DestinationFailure(t *testing.T) {
	dir := t.TempDir()
	settings := testSettings(dir)
	settings.MetricsFile = filepath.Join(t.TempDir(), "ingest.prom")

	svc := newTestService(newFakeConn())
	svc.openDestination = func(context.Context, *ingest.ConnectionConfig) (ingest.DBConn, func(), error) {
		return nil, nil, fmt.Errorf("%w: connection refused", ingest.ErrConnectionFailed)
	}
	obs := &countingObserver{}

	result, err := svc.Run(context.Background(), settings, obs)
	require.Error(t, err)
	assert.ErrorIs(t, err, ingest.ErrConnectionFailed)
	assert.Equal(t, "trips", result.Table)
	assert.Zero(t, obs.started, "source must not be touched before the destination is reachable")

	data, err := os.ReadFile(settings.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `ingest_errors_total{kind="connection",table="trips"} 1`)
	assert.Contains(t, string(data), `ingest_last_run_success{table="trips"} 0`)
}

func TestRun_MissingArchive(t *testing.T) {
	conn := newFakeConn()

	_, err := newTestService(conn).Run(context.Background(), testSettings(t.TempDir()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ingest.ErrSourceUnavailable)
	assert.Empty(t, conn.statements())
}

func TestRun_TimeoutInterruptsLoad(t *testing.T) {
	dir := t.TempDir()
	testhelpers.WriteArchive(t, dir, jan2021, testhelpers.YellowCSV(3))
	settings := testSettings(dir)
	settings.Ingest.Timeout = 1

	_, err := newTestService(newFakeConn()).Run(context.Background(), settings)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
