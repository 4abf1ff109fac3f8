package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/vvka-141/ingest/pkg/ingest"
)

var gzipMagic = []byte{0x1f, 0x8b}

// readCloser pairs a reader with the closers that must run when it is done.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// decompress wraps body in a gzip reader when it starts with the gzip magic.
// body is closed on error.
func decompress(body io.ReadCloser, address string) (io.ReadCloser, error) {
	br := bufio.NewReaderSize(body, 64*1024)

	head, err := br.Peek(len(gzipMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		body.Close()
		return nil, fmt.Errorf("read %s: %v: %w", address, err, ingest.ErrSourceUnavailable)
	}

	if len(head) < len(gzipMagic) || head[0] != gzipMagic[0] || head[1] != gzipMagic[1] {
		return &readCloser{Reader: br, closers: []io.Closer{body}}, nil
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		body.Close()
		return nil, fmt.Errorf("open gzip stream %s: %v: %w", address, err, ingest.ErrSourceUnavailable)
	}
	return &readCloser{Reader: zr, closers: []io.Closer{body, zr}}, nil
}
