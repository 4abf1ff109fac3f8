// Package decoder turns delimited trip records into typed batches.
package decoder

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/vvka-141/ingest/internal/schema"
	"github.com/vvka-141/ingest/pkg/ingest"
)

// maxPrealloc caps the rows reserved up front for one batch.
const maxPrealloc = 8192

// CSVDecoder decodes CSV text with a header row against a fixed schema.
type CSVDecoder struct {
	schema    *schema.Schema
	withIndex bool
	comma     rune
}

// Option configures a CSVDecoder.
type Option func(*CSVDecoder)

// WithRowIndex prepends the "index" column holding each record's 0-based
// row number, counted across the whole source.
func WithRowIndex(enabled bool) Option {
	return func(d *CSVDecoder) {
		d.withIndex = enabled
	}
}

// WithDelimiter sets the field delimiter. Defaults to ','.
func WithDelimiter(r rune) Option {
	return func(d *CSVDecoder) {
		d.comma = r
	}
}

// NewCSVDecoder returns a decoder for s.
func NewCSVDecoder(s *schema.Schema, opts ...Option) *CSVDecoder {
	d := &CSVDecoder{schema: s, comma: ','}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Columns returns the column list of the batches this decoder produces.
func (d *CSVDecoder) Columns() []string {
	if d.withIndex {
		return append([]string{schema.IndexColumn}, d.schema.Names()...)
	}
	return d.schema.Names()
}

// Decode reads the header of r and returns an iterator over its records.
// The header must name every schema column exactly once.
func (d *CSVDecoder) Decode(r io.Reader, batchSize int) (ingest.BatchIterator, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d: %w", batchSize, ingest.ErrInvalidConfig)
	}

	reader := csv.NewReader(r)
	reader.Comma = d.comma
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("source has no header row: %w", ingest.ErrSchemaMismatch)
		}
		return nil, readError(err)
	}

	positions, err := d.schema.Resolve(header)
	if err != nil {
		return nil, err
	}

	columns := d.schema.Columns()
	base := 0
	if d.withIndex {
		base = 1
	}

	return &iterator{
		reader:    reader,
		batchSize: batchSize,
		columns:   d.Columns(),
		schema:    columns,
		positions: positions,
		base:      base,
		withIndex: d.withIndex,
	}, nil
}

type iterator struct {
	reader    *csv.Reader
	batchSize int
	columns   []string
	schema    []schema.Column
	positions []int
	base      int
	withIndex bool

	seq    int
	offset int64
	done   bool
}

// Next returns the next batch of at most batchSize records, or io.EOF.
func (it *iterator) Next() (*ingest.RowBatch, error) {
	if it.done {
		return nil, io.EOF
	}

	rows := make([][]any, 0, min(it.batchSize, maxPrealloc))
	for len(rows) < it.batchSize {
		record, err := it.reader.Read()
		if errors.Is(err, io.EOF) {
			it.done = true
			break
		}
		if err != nil {
			it.done = true
			return nil, readError(err)
		}

		row, err := it.convert(record, it.offset+int64(len(rows)))
		if err != nil {
			it.done = true
			return nil, err
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, io.EOF
	}

	it.seq++
	batch := &ingest.RowBatch{
		Columns: it.columns,
		Rows:    rows,
		Seq:     it.seq,
		Offset:  it.offset,
	}
	it.offset += int64(len(rows))
	return batch, nil
}

func (it *iterator) convert(record []string, rowNum int64) ([]any, error) {
	row := make([]any, it.base+len(it.schema))
	if it.withIndex {
		row[0] = rowNum
	}

	for i, field := range record {
		pos := it.positions[i]
		v, err := it.schema[pos].Parse(field)
		if err != nil {
			line, _ := it.reader.FieldPos(i)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row[it.base+pos] = v
	}
	return row, nil
}

// readError classifies a csv.Reader failure. Malformed CSV is a schema
// mismatch; anything else came from the underlying stream.
func readError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("malformed record: %v: %w", parseErr, ingest.ErrSchemaMismatch)
	}
	return fmt.Errorf("read source: %v: %w", err, ingest.ErrSourceUnavailable)
}

var _ ingest.Decoder = (*CSVDecoder)(nil)
