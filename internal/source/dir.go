package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vvka-141/ingest/pkg/ingest"
)

// DirFetcher reads archives from a local directory using the same file
// naming convention as the release mirror.
type DirFetcher struct {
	dir string
}

// NewDirFetcher creates a fetcher rooted at dir.
func NewDirFetcher(dir string) *DirFetcher {
	return &DirFetcher{dir: dir}
}

// Resolve returns the path of the archive for locator inside the directory.
func (f *DirFetcher) Resolve(locator ingest.SourceLocator) (string, error) {
	if err := locator.Validate(); err != nil {
		return "", err
	}
	return filepath.Join(f.dir, FileName(locator)), nil
}

// Open opens the file at address and returns its decompressed content.
func (f *DirFetcher) Open(_ context.Context, address string) (io.ReadCloser, error) {
	file, err := os.Open(address)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v: %w", address, err, ingest.ErrSourceUnavailable)
	}
	return decompress(file, address)
}

var _ ingest.Fetcher = (*DirFetcher)(nil)
