package services

import (
	"context"
	"fmt"
	"io"

	"github.com/vvka-141/ingest/internal/db"
	"github.com/vvka-141/ingest/pkg/ingest"
)

// ConnectorFactory builds the connector matching a connection's auth method.
type ConnectorFactory func(*ingest.ConnectionConfig, ingest.Logger) (ingest.Connector, error)

// SessionManager opens the single destination connection of a load run.
type SessionManager struct {
	connectorFactory ConnectorFactory
	logger           ingest.Logger
}

// NewSessionManager creates a SessionManager.
//
// Panics if connectorFactory or logger is nil.
func NewSessionManager(connectorFactory ConnectorFactory, logger ingest.Logger) *SessionManager {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &SessionManager{
		connectorFactory: connectorFactory,
		logger:           logger,
	}
}

// Open connects to the destination and acquires one connection from the pool.
// The caller must Close the returned session.
func (sm *SessionManager) Open(ctx context.Context, connConfig *ingest.ConnectionConfig) (*ingest.Session, error) {
	sm.logger.Verbose("Connecting to %s (%s)", db.Describe(connConfig), connConfig.AuthMethod)

	connector, err := sm.connectorFactory(connConfig, sm.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	var onClose []func()
	if closer, ok := connector.(io.Closer); ok {
		onClose = append(onClose, func() {
			if err := closer.Close(); err != nil {
				sm.logger.Verbose("Closing connector: %v", err)
			}
		})
	}
	cleanup := func() {
		for _, fn := range onClose {
			fn()
		}
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to connect to database %q: %w", connConfig.Database, err)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		cleanup()
		return nil, fmt.Errorf("failed to acquire connection: %v: %w", err, ingest.ErrConnectionFailed)
	}

	sm.logger.Verbose("Connected to %s", db.Describe(connConfig))
	return ingest.NewSession(pool, conn, onClose...), nil
}
