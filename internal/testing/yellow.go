package testing

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/vvka-141/ingest/internal/schema"
	"github.com/vvka-141/ingest/internal/source"
	"github.com/vvka-141/ingest/pkg/ingest"
)

// YellowCSV renders a yellow-taxi archive with the canonical header and rows
// synthetic trips. Trip i has VendorID 1 + i%2 and passenger_count i%6.
func YellowCSV(rows int) string {
	var b strings.Builder
	b.WriteString(strings.Join(schema.Yellow().Names(), ","))
	b.WriteByte('\n')
	for i := 0; i < rows; i++ {
		minute := i % 60
		fmt.Fprintf(&b, "%d,2021-01-01 00:%02d:00,2021-01-01 00:%02d:30,%d,%.2f,1,N,142,236,1,%.1f,0.5,0.5,0,0,0.3,%.2f,2.5\n",
			1+i%2, minute, minute, i%6, 1.5+float64(i%10)/10, 8.0+float64(i%5), 11.8+float64(i%5))
	}
	return b.String()
}

// Gzip compresses s.
func Gzip(t *testing.T, s string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

// WriteArchive stores content as the gzip archive for locator inside dir,
// named the way the release mirror names it.
func WriteArchive(t *testing.T, dir string, locator ingest.SourceLocator, content string) string {
	t.Helper()

	path := filepath.Join(dir, source.FileName(locator))
	if err := os.WriteFile(path, Gzip(t, content), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	return path
}
