package services

import (
	"context"
	"net/http"

	"github.com/vvka-141/ingest/internal/config"
	"github.com/vvka-141/ingest/internal/decoder"
	"github.com/vvka-141/ingest/internal/loader"
	"github.com/vvka-141/ingest/internal/metrics"
	"github.com/vvka-141/ingest/internal/progress"
	"github.com/vvka-141/ingest/internal/schema"
	"github.com/vvka-141/ingest/internal/sink"
	"github.com/vvka-141/ingest/internal/source"
	"github.com/vvka-141/ingest/pkg/ingest"
)

type destinationFunc func(ctx context.Context, connConfig *ingest.ConnectionConfig) (ingest.DBConn, func(), error)

// IngestService runs one load per call to Run.
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
type IngestService struct {
	sessions   *SessionManager
	logger     ingest.Logger
	httpClient *http.Client
	userAgent  string

	openDestination destinationFunc
}

// Option configures an IngestService.
type Option func(*IngestService)

// WithHTTPClient sets the client used to download archives.
func WithHTTPClient(c *http.Client) Option {
	return func(s *IngestService) {
		s.httpClient = c
	}
}

// WithUserAgent sets the User-Agent of archive downloads.
func WithUserAgent(ua string) Option {
	return func(s *IngestService) {
		s.userAgent = ua
	}
}

// NewIngestService creates an IngestService.
//
// Panics if sessions or logger is nil.
func NewIngestService(sessions *SessionManager, logger ingest.Logger, opts ...Option) *IngestService {
	if sessions == nil {
		panic("sessions cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	svc := &IngestService{
		sessions:   sessions,
		logger:     logger,
		httpClient: http.DefaultClient,
		userAgent:  "ingest",
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.openDestination = svc.defaultOpenDestination
	return svc
}

func (s *IngestService) defaultOpenDestination(ctx context.Context, connConfig *ingest.ConnectionConfig) (ingest.DBConn, func(), error) {
	session, err := s.sessions.Open(ctx, connConfig)
	if err != nil {
		return nil, nil, err
	}
	return session.Conn(), func() { session.Close() }, nil
}

// Run loads the archive selected by settings into its destination table.
//
// The destination connection is opened before the archive is fetched, so a
// connection failure never costs a download. observers are notified in order.
func (s *IngestService) Run(ctx context.Context, settings *config.Settings, observers ...ingest.Observer) (ingest.LoadResult, error) {
	cfg := settings.Ingest

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	var collector *metrics.Metrics
	if settings.MetricsFile != "" {
		collector = metrics.New()
		observers = append(observers, collector)
		defer s.writeMetrics(collector, settings.MetricsFile)
	}

	conn, release, err := s.openDestination(ctx, &cfg.Connection)
	if err != nil {
		result := ingest.LoadResult{Table: cfg.Load.Table}
		if collector != nil {
			collector.Finished(result, err)
		}
		return result, err
	}
	defer release()

	ldr := loader.New(
		s.fetcher(settings),
		decoder.NewCSVDecoder(schema.Yellow(), decoder.WithRowIndex(cfg.Load.WithIndex)),
		s.tableSink(conn, cfg.Load.Mode),
		s.logger,
		loader.WithObserver(progress.Multi(observers)),
	)

	s.logger.Verbose("Loading %s into %s (mode %s, batch size %d)", cfg.Load.Source, cfg.Load.Table, cfg.Load.Mode, cfg.Load.BatchSize)
	return ldr.Run(ctx, cfg.Load)
}

func (s *IngestService) fetcher(settings *config.Settings) ingest.Fetcher {
	if settings.SourceDir != "" {
		return source.NewDirFetcher(settings.SourceDir)
	}

	opts := []source.HTTPOption{
		source.WithClient(s.httpClient),
		source.WithUserAgent(s.userAgent),
	}
	if settings.SourceURLPrefix != "" {
		opts = append(opts, source.WithURLPrefix(settings.SourceURLPrefix))
	}
	return source.NewHTTPFetcher(opts...)
}

func (s *IngestService) tableSink(conn ingest.DBConn, mode ingest.LoadMode) ingest.TableSink {
	pg := sink.NewPostgresSink(conn, schema.Yellow(), s.logger)
	if mode == ingest.LoadModeAtomic {
		return sink.NewStaged(pg)
	}
	return pg
}

func (s *IngestService) writeMetrics(collector *metrics.Metrics, path string) {
	if err := collector.WriteTextfile(path); err != nil {
		s.logger.Error("Failed to write metrics: %v", err)
		return
	}
	s.logger.Verbose("Wrote metrics to %s", path)
}
