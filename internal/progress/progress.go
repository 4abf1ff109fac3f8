// Package progress reports the batches of a load run to the invoking user.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vvka-141/ingest/internal/config"
	"github.com/vvka-141/ingest/internal/tui"
	"github.com/vvka-141/ingest/pkg/ingest"
)

// Display is an observer that may own background rendering. Wait returns
// once all output has been flushed.
type Display interface {
	ingest.Observer
	Wait()
}

// New returns the display for mode. ProgressAuto picks the live terminal
// display when out is an interactive terminal and plain lines otherwise.
func New(mode string, out io.Writer, logger ingest.Logger) Display {
	switch mode {
	case config.ProgressNone:
		return None{}
	case config.ProgressTUI:
		return tui.NewProgressObserver(out, logger)
	case config.ProgressAuto:
		if tui.IsInteractive(out) {
			return tui.NewProgressObserver(out, logger)
		}
	}
	return NewPlain(out)
}

// Plain writes one line per batch.
type Plain struct {
	out io.Writer
	mu  sync.Mutex
}

// NewPlain creates a Plain display writing to out.
func NewPlain(out io.Writer) *Plain {
	return &Plain{out: out}
}

func (p *Plain) Started(table, address string) {
	p.printf("Loading %s into %s\n", address, table)
}

func (p *Plain) BatchWritten(batch *ingest.RowBatch, totalRows int64) {
	p.printf("Batch %d: %s rows (total %s)\n", batch.Seq, humanize.Comma(int64(batch.Len())), humanize.Comma(totalRows))
}

func (p *Plain) Finished(result ingest.LoadResult, err error) {
	if err != nil {
		return
	}
	p.printf("Loaded %s rows in %d batches into %s (%s)\n",
		humanize.Comma(result.Rows), result.Batches, result.Table, result.Duration.Round(time.Millisecond))
}

func (p *Plain) Wait() {}

func (p *Plain) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

// None discards progress.
type None struct{}

func (None) Started(string, string)               {}
func (None) BatchWritten(*ingest.RowBatch, int64) {}
func (None) Finished(ingest.LoadResult, error)    {}
func (None) Wait()                                {}

// Multi fans notifications out to several observers in order.
type Multi []ingest.Observer

func (m Multi) Started(table, address string) {
	for _, o := range m {
		o.Started(table, address)
	}
}

func (m Multi) BatchWritten(batch *ingest.RowBatch, totalRows int64) {
	for _, o := range m {
		o.BatchWritten(batch, totalRows)
	}
}

func (m Multi) Finished(result ingest.LoadResult, err error) {
	for _, o := range m {
		o.Finished(result, err)
	}
}

var (
	_ Display         = (*Plain)(nil)
	_ Display         = None{}
	_ Display         = (*tui.ProgressObserver)(nil)
	_ ingest.Observer = Multi(nil)
)
