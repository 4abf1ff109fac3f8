package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/ingest/internal/retry"
	"github.com/vvka-141/ingest/pkg/ingest"
)

const (
	// DefaultMaxConns leaves one spare connection next to the one held by a run.
	DefaultMaxConns = 2

	DefaultMinConns = 1

	DefaultMaxConnIdleTime = 30 * time.Minute

	// DefaultAppName is reported to the server as application_name.
	DefaultAppName = "ingest"
)

func configurePool(poolConfig *pgxpool.Config, logger ingest.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("%s: %s", notice.Severity, notice.Message)
	}
}

func newExecutor(config *ingest.ConnectionConfig, logger ingest.Logger) *retry.Executor {
	strategy := retry.NewExponentialBackoff(config.ConnectRetries,
		retry.WithInitialDelay(ingest.DefaultRetryInitialDelay),
		retry.WithMaxDelay(ingest.DefaultRetryMaxDelay),
	)
	return retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), strategy).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Info("Connection attempt %d failed, retrying in %v: %v", attempt+1, delay, err)
		})
}

// openPool creates a pool from connStr and verifies it with a ping.
func openPool(ctx context.Context, connStr string, config *ingest.ConnectionConfig, logger ingest.Logger, tune func(*pgxpool.Config)) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", ingest.ErrInvalidConfig)
	}

	configurePool(poolConfig, logger)
	if tune != nil {
		tune(poolConfig)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	return pool, nil
}

// StandardConnector authenticates with a username and password.
type StandardConnector struct {
	config   *ingest.ConnectionConfig
	logger   ingest.Logger
	executor *retry.Executor
}

// NewStandardConnector creates a connector for password authentication.
func NewStandardConnector(config *ingest.ConnectionConfig, logger ingest.Logger) *StandardConnector {
	return &StandardConnector{
		config:   config,
		logger:   logger,
		executor: newExecutor(config, logger),
	}
}

// Connect opens a verified connection pool, retrying transient failures.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	connStr := BuildConnectionString(c.config)
	return retry.Do(ctx, c.executor, func(ctx context.Context) (*pgxpool.Pool, error) {
		return openPool(ctx, connStr, c.config, c.logger, nil)
	})
}

// NewConnector creates the connector matching config.AuthMethod.
func NewConnector(config *ingest.ConnectionConfig, logger ingest.Logger) (ingest.Connector, error) {
	switch config.AuthMethod {
	case ingest.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case ingest.AuthMethodAWSIAM:
		return newAWSConnector(config, logger)
	case ingest.AuthMethodGoogleIAM:
		return newGoogleConnector(config, logger)
	case ingest.AuthMethodAzureEntraID:
		return newAzureConnector(config, logger)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, ingest.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError adds troubleshooting hints for common failures.
// The result wraps both err and ingest.ErrConnectionFailed.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	var hint string
	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		hint = fmt.Sprintf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong --pg-host or --pg-port`, addr, host, port)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		hint = fmt.Sprintf(`cannot resolve host %q

Possible causes:
  - Hostname is misspelled
  - The database container is not on the same network`, host)

	case strings.Contains(errStr, "password authentication failed"):
		hint = fmt.Sprintf(`password authentication failed for database %q

Check --pg-user and --pg-password (or $PGUSER and $PGPASSWORD).`, database)

	case strings.Contains(errStr, "does not exist"):
		hint = fmt.Sprintf(`database %q does not exist

To create it:
  createdb %s`, database, database)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		hint = fmt.Sprintf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets`, addr)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		hint = `SSL/TLS connection error

Check --sslmode (the server may require or refuse SSL).`

	case strings.Contains(errStr, "too many connections"):
		hint = fmt.Sprintf(`too many connections to database %q

The server's max_connections limit is reached.`, database)

	default:
		return fmt.Errorf("%w: %w", ingest.ErrConnectionFailed, err)
	}

	return fmt.Errorf("%s\n\n%w: %w", hint, ingest.ErrConnectionFailed, err)
}

var _ ingest.Connector = (*StandardConnector)(nil)
