package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/vvka-141/ingest/pkg/ingest"
)

// HTTPFetcher downloads archives over HTTP(S).
type HTTPFetcher struct {
	client    *http.Client
	prefix    string
	userAgent string
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithClient sets the HTTP client. The default client has no timeout.
func WithClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		f.client = c
	}
}

// WithURLPrefix sets the prefix the archive name is appended to.
func WithURLPrefix(prefix string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.prefix = prefix
	}
}

// WithUserAgent sets the User-Agent header of requests.
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// NewHTTPFetcher creates a fetcher for DefaultURLPrefix unless overridden.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    http.DefaultClient,
		prefix:    DefaultURLPrefix,
		userAgent: "ingest",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Resolve returns the archive URL for locator.
func (f *HTTPFetcher) Resolve(locator ingest.SourceLocator) (string, error) {
	return ResolveURL(f.prefix, locator)
}

// Open issues a GET for address and returns the decompressed body.
// Redirects are followed by the client; any final status other than 2xx
// is reported as ErrSourceUnavailable.
func (f *HTTPFetcher) Open(ctx context.Context, address string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid source address %q: %v: %w", address, err, ingest.ErrSourceUnavailable)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %v: %w", address, err, ingest.ErrSourceUnavailable)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s: %w", address, resp.Status, ingest.ErrSourceUnavailable)
	}

	return decompress(resp.Body, address)
}

var _ ingest.Fetcher = (*HTTPFetcher)(nil)
