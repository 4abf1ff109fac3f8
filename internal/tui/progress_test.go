package tui

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/ingest/pkg/ingest"
)

func update(t *testing.T, m progressModel, msg tea.Msg) (progressModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	pm, ok := next.(progressModel)
	require.True(t, ok)
	return pm, cmd
}

func TestProgressModel_TracksBatches(t *testing.T) {
	m := newProgressModel()
	m, _ = update(t, m, startedMsg{table: "yellow_taxi_data", address: "https://example.com/yellow/yellow_tripdata_2021-01.csv.gz"})
	m, _ = update(t, m, batchMsg{seq: 2, total: 200000})

	view := m.View()
	assert.Contains(t, view, "yellow_tripdata_2021-01.csv.gz")
	assert.Contains(t, view, "yellow_taxi_data")
	assert.Contains(t, view, "200,000")
	assert.Contains(t, view, "2 batches")
}

func TestProgressModel_FinishQuits(t *testing.T) {
	m := newProgressModel()
	m, cmd := update(t, m, finishedMsg{result: ingest.LoadResult{Duration: 1500 * time.Millisecond}})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, m.View(), SymbolCheck)
	assert.Contains(t, m.View(), "1.5s")
}

func TestProgressModel_FinishWithError(t *testing.T) {
	m := newProgressModel()
	m, _ = update(t, m, batchMsg{seq: 2, total: 4})
	m, _ = update(t, m, finishedMsg{err: errors.New("write failure")})

	view := m.View()
	assert.Contains(t, view, SymbolCross)
	assert.Contains(t, view, "failed after")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestProgressObserver_RendersFinalFrame(t *testing.T) {
	var out syncBuffer
	obs := NewProgressObserver(&out, &recordingLogger{})

	obs.Started("trips", "/data/yellow_tripdata_2021-01.csv.gz")
	obs.BatchWritten(&ingest.RowBatch{Seq: 1}, 3)
	obs.Finished(ingest.LoadResult{Table: "trips", Batches: 1, Rows: 3}, nil)
	obs.Wait()

	assert.True(t, strings.Contains(out.String(), "trips"))
	assert.Contains(t, out.String(), SymbolCheck)
}

func TestProgressObserver_WaitWithoutFinish(t *testing.T) {
	var out syncBuffer
	obs := NewProgressObserver(&out, &recordingLogger{})

	done := make(chan struct{})
	go func() {
		obs.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return")
	}
}

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Verbose(string, ...interface{}) {}
func (l *recordingLogger) Info(string, ...interface{})    {}

func (l *recordingLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func TestNewProgressObserver_PanicsOnNilLogger(t *testing.T) {
	assert.Panics(t, func() { NewProgressObserver(&syncBuffer{}, nil) })
}

func TestProgressObserver_LogsRendererFailure(t *testing.T) {
	logger := &recordingLogger{}
	obs := newProgressObserver(&syncBuffer{}, logger, func(p *tea.Program) (tea.Model, error) {
		p.Kill()
		return nil, errors.New("terminal went away")
	})
	obs.Wait()

	logger.mu.Lock()
	defer logger.mu.Unlock()
	require.Len(t, logger.errors, 1)
	assert.Contains(t, logger.errors[0], "terminal went away")
}
