package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/ingest/internal/retry"
	"github.com/vvka-141/ingest/pkg/ingest"
)

// tokenExpiryWarning is the remaining token lifetime below which a warning is logged.
const tokenExpiryWarning = 5 * time.Minute

// TokenProvider issues short-lived database passwords.
type TokenProvider interface {
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider for logs. It must not include secrets.
	String() string
}

// TokenBasedConnector connects with a token from a TokenProvider as the password.
type TokenBasedConnector struct {
	config       *ingest.ConnectionConfig
	provider     TokenProvider
	providerName string
	logger       ingest.Logger
	executor     *retry.Executor
}

// NewTokenBasedConnector creates a connector using provider for credentials.
func NewTokenBasedConnector(config *ingest.ConnectionConfig, provider TokenProvider, providerName string, logger ingest.Logger) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:       config,
		provider:     provider,
		providerName: providerName,
		logger:       logger,
		executor:     newExecutor(config, logger),
	}
}

// Connect acquires a fresh token on every attempt and opens a verified pool.
func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	return retry.Do(ctx, c.executor, func(ctx context.Context) (*pgxpool.Pool, error) {
		token, expiresOn, err := c.provider.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire %s token: %w: %w", c.providerName, ingest.ErrConnectionFailed, err)
		}
		if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
			c.logger.Info("Warning: %s token expires in %v", c.providerName, remaining.Round(time.Second))
		}
		c.logger.Verbose("Acquired token from %s", c.provider)

		withToken := *c.config
		withToken.Password = token
		return openPool(ctx, BuildConnectionString(&withToken), c.config, c.logger, nil)
	})
}

var _ ingest.Connector = (*TokenBasedConnector)(nil)
