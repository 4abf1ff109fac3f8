package db

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/ingest/internal/retry"
	"github.com/vvka-141/ingest/pkg/ingest"
)

// GoogleCloudSQLConnector connects through the Cloud SQL dialer with IAM
// database authentication. Close releases the dialer once the pool is closed.
type GoogleCloudSQLConnector struct {
	config   *ingest.ConnectionConfig
	instance string
	logger   ingest.Logger
	executor *retry.Executor
	dialer   *cloudsqlconn.Dialer
}

// NewGoogleCloudSQLConnector creates a connector for instance
// (project:region:instance).
func NewGoogleCloudSQLConnector(config *ingest.ConnectionConfig, instance string, logger ingest.Logger) *GoogleCloudSQLConnector {
	return &GoogleCloudSQLConnector{
		config:   config,
		instance: instance,
		logger:   logger,
		executor: newExecutor(config, logger),
	}
}

// Connect creates the dialer and opens a verified pool.
func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w: %w", ingest.ErrConnectionFailed, err)
	}

	dsn := fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable application_name=%s",
		c.instance, c.config.Username, c.config.Database, DefaultAppName)

	pool, err := retry.Do(ctx, c.executor, func(ctx context.Context) (*pgxpool.Pool, error) {
		return openPool(ctx, dsn, c.config, c.logger, func(pc *pgxpool.Config) {
			pc.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
				return dialer.Dial(ctx, c.instance)
			}
		})
	})
	if err != nil {
		dialer.Close()
		return nil, err
	}

	c.dialer = dialer
	return pool, nil
}

// Close releases the dialer. Safe to call more than once.
func (c *GoogleCloudSQLConnector) Close() error {
	if c.dialer == nil {
		return nil
	}
	err := c.dialer.Close()
	c.dialer = nil
	return err
}

func newGoogleConnector(config *ingest.ConnectionConfig, logger ingest.Logger) (ingest.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", ingest.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --pg-user: %w", ingest.ErrInvalidConfig)
	}
	return NewGoogleCloudSQLConnector(config, config.GoogleInstance, logger), nil
}

var _ ingest.Connector = (*GoogleCloudSQLConnector)(nil)
