package tui

import (
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/vvka-141/ingest/pkg/ingest"
)

type startedMsg struct {
	table   string
	address string
}

type batchMsg struct {
	seq   int
	total int64
}

type finishedMsg struct {
	result ingest.LoadResult
	err    error
}

// progressModel is the bubbletea model of a running load.
type progressModel struct {
	spinner spinner.Model
	table   string
	source  string
	batches int
	rows    int64
	done    bool
	result  ingest.LoadResult
	err     error
}

func newProgressModel() progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle
	return progressModel{spinner: s, source: "source"}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		m.table = msg.table
		m.source = path.Base(msg.address)
		return m, nil
	case batchMsg:
		m.batches = msg.seq
		m.rows = msg.total
		return m, nil
	case finishedMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	target := fmt.Sprintf("%s %s %s", m.source, SymbolArrowRight, m.table)
	counts := fmt.Sprintf("%s rows in %d batches", CountStyle.Render(humanize.Comma(m.rows)), m.batches)

	if !m.done {
		return fmt.Sprintf("%s Loading %s  %s\n", m.spinner.View(), target, MutedStyle.Render(counts))
	}
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("%s %s failed after %s", SymbolCross, target, counts)) + "\n"
	}
	return SuccessStyle.Render(fmt.Sprintf("%s %s: %s in %s", SymbolCheck, target, counts, m.result.Duration.Round(time.Millisecond))) + "\n"
}

// ProgressObserver renders a live progress line with a bubbletea program.
// It implements ingest.Observer; Wait must be called after the load finishes.
type ProgressObserver struct {
	program *tea.Program
	done    chan struct{}
	once    sync.Once
}

// NewProgressObserver starts rendering to out. Renderer failures are reported
// to logger; the load itself is not affected.
func NewProgressObserver(out io.Writer, logger ingest.Logger) *ProgressObserver {
	return newProgressObserver(out, logger, (*tea.Program).Run)
}

func newProgressObserver(out io.Writer, logger ingest.Logger, run func(*tea.Program) (tea.Model, error)) *ProgressObserver {
	if logger == nil {
		panic("logger cannot be nil")
	}

	p := &ProgressObserver{
		program: tea.NewProgram(newProgressModel(),
			tea.WithOutput(out),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		done: make(chan struct{}),
	}
	go func() {
		defer close(p.done)
		if _, err := run(p.program); err != nil {
			logger.Error("Progress display stopped: %v", err)
		}
	}()
	return p
}

func (p *ProgressObserver) Started(table, address string) {
	p.program.Send(startedMsg{table: table, address: address})
}

func (p *ProgressObserver) BatchWritten(batch *ingest.RowBatch, totalRows int64) {
	p.program.Send(batchMsg{seq: batch.Seq, total: totalRows})
}

func (p *ProgressObserver) Finished(result ingest.LoadResult, err error) {
	p.program.Send(finishedMsg{result: result, err: err})
}

// Wait blocks until the display has rendered its final frame. If Finished
// was never called, the program is stopped.
func (p *ProgressObserver) Wait() {
	p.once.Do(func() {
		select {
		case <-p.done:
		default:
			p.program.Quit()
		}
	})
	<-p.done
}

var _ ingest.Observer = (*ProgressObserver)(nil)
