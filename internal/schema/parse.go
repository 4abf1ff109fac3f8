package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vvka-141/ingest/pkg/ingest"
)

// TimestampLayout is the datetime format used by the trip archives.
const TimestampLayout = "2006-01-02 15:04:05"

var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// Parse converts a raw field into the column's Go value.
// An empty field yields nil. Conversion failures wrap ErrSchemaMismatch.
func (c Column) Parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	switch c.Kind {
	case KindInt64:
		return parseInt(c.Name, raw)
	case KindFloat64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, c.parseError(raw)
		}
		return f, nil
	case KindTimestamp:
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, raw); err == nil {
				return ts, nil
			}
		}
		return nil, c.parseError(raw)
	default:
		return raw, nil
	}
}

// parseInt accepts plain integers and integral decimals such as "2.0",
// which appear in archives written by float-typed exporters.
func parseInt(name, raw string) (any, error) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return nil, Column{Name: name, Kind: KindInt64}.parseError(raw)
	}
	return int64(f), nil
}

func (c Column) parseError(raw string) error {
	return fmt.Errorf("column %s: cannot parse %q as %s: %w", c.Name, raw, c.Kind, ingest.ErrSchemaMismatch)
}
