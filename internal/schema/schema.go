package schema

import (
	"fmt"
	"strings"

	"github.com/vvka-141/ingest/pkg/ingest"
)

// Kind is the value type of a column.
type Kind int

const (
	KindInt64 Kind = iota
	KindFloat64
	KindText
	KindTimestamp
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindText:
		return "text"
	case KindTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// SQLType returns the PostgreSQL column type for the kind.
func (k Kind) SQLType() string {
	switch k {
	case KindInt64:
		return "BIGINT"
	case KindFloat64:
		return "DOUBLE PRECISION"
	case KindTimestamp:
		return "TIMESTAMP WITHOUT TIME ZONE"
	default:
		return "TEXT"
	}
}

// IndexColumn is the optional leading column holding the source row number.
const IndexColumn = "index"

// Column is a named, typed column.
type Column struct {
	Name string
	Kind Kind
}

// Schema is an ordered set of columns.
type Schema struct {
	columns []Column
	byName  map[string]int
}

// New builds a schema from columns. Panics on duplicate names.
func New(columns ...Column) *Schema {
	s := &Schema{
		columns: columns,
		byName:  make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, dup := s.byName[c.Name]; dup {
			panic(fmt.Sprintf("duplicate column %q", c.Name))
		}
		s.byName[c.Name] = i
	}
	return s
}

var yellow = New(
	Column{"VendorID", KindInt64},
	Column{"tpep_pickup_datetime", KindTimestamp},
	Column{"tpep_dropoff_datetime", KindTimestamp},
	Column{"passenger_count", KindInt64},
	Column{"trip_distance", KindFloat64},
	Column{"RatecodeID", KindInt64},
	Column{"store_and_fwd_flag", KindText},
	Column{"PULocationID", KindInt64},
	Column{"DOLocationID", KindInt64},
	Column{"payment_type", KindInt64},
	Column{"fare_amount", KindFloat64},
	Column{"extra", KindFloat64},
	Column{"mta_tax", KindFloat64},
	Column{"tip_amount", KindFloat64},
	Column{"tolls_amount", KindFloat64},
	Column{"improvement_surcharge", KindFloat64},
	Column{"total_amount", KindFloat64},
	Column{"congestion_surcharge", KindFloat64},
)

// Yellow returns the schema of the yellow-taxi trip archives.
func Yellow() *Schema {
	return yellow
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.columns)
}

// Columns returns a copy of the columns in canonical order.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Names returns the column names in canonical order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the canonical position of name, or -1.
func (s *Schema) Index(name string) int {
	if i, ok := s.byName[name]; ok {
		return i
	}
	return -1
}

// Column returns the column called name.
func (s *Schema) Column(name string) (Column, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

// Resolve maps a CSV header onto the schema. The result has one entry per
// header field holding the canonical index of that field's column.
// Header order may differ from canonical order, but the header must name
// every column exactly once and nothing else.
func (s *Schema) Resolve(header []string) ([]int, error) {
	positions := make([]int, len(header))
	seen := make(map[string]bool, len(header))
	var unknown, duplicate []string

	for i, raw := range header {
		name := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
		idx := s.Index(name)
		if idx < 0 {
			unknown = append(unknown, name)
			continue
		}
		if seen[name] {
			duplicate = append(duplicate, name)
			continue
		}
		seen[name] = true
		positions[i] = idx
	}

	var missing []string
	for _, c := range s.columns {
		if !seen[c.Name] {
			missing = append(missing, c.Name)
		}
	}

	if len(unknown) > 0 || len(duplicate) > 0 || len(missing) > 0 {
		return nil, mismatch(unknown, duplicate, missing)
	}
	return positions, nil
}

// Validate checks that columns is exactly the canonical column list,
// optionally preceded by IndexColumn. It reports whether the index column
// is present.
func (s *Schema) Validate(columns []string) (withIndex bool, err error) {
	if len(columns) > 0 && columns[0] == IndexColumn {
		withIndex = true
		columns = columns[1:]
	}

	if len(columns) != len(s.columns) {
		return withIndex, fmt.Errorf("expected %d columns, got %d: %w", len(s.columns), len(columns), ingest.ErrSchemaMismatch)
	}
	for i, name := range columns {
		if name != s.columns[i].Name {
			return withIndex, fmt.Errorf("column %d is %q, expected %q: %w", i, name, s.columns[i].Name, ingest.ErrSchemaMismatch)
		}
	}
	return withIndex, nil
}

func mismatch(unknown, duplicate, missing []string) error {
	var parts []string
	if len(unknown) > 0 {
		parts = append(parts, "unknown columns: "+strings.Join(unknown, ", "))
	}
	if len(duplicate) > 0 {
		parts = append(parts, "duplicate columns: "+strings.Join(duplicate, ", "))
	}
	if len(missing) > 0 {
		parts = append(parts, "missing columns: "+strings.Join(missing, ", "))
	}
	return fmt.Errorf("header does not match schema (%s): %w", strings.Join(parts, "; "), ingest.ErrSchemaMismatch)
}
