package ingest

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Session holds the single destination connection of a load run.
//
// The pool and the acquired connection are released together by Close(),
// which is safe to call on every exit path.
//
// Thread-Safety: NOT safe for concurrent use.
//
// Example usage:
//
//	session, err := sessions.Open(ctx, connConfig)
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
type Session struct {
	pool    *pgxpool.Pool
	conn    *pgxpool.Conn
	onClose []func()
}

// NewSession creates a new Session instance.
// onClose callbacks run after the pool is closed, in order.
//
// Panics if pool or conn is nil.
func NewSession(pool *pgxpool.Pool, conn *pgxpool.Conn, onClose ...func()) *Session {
	if pool == nil {
		panic("pool cannot be nil")
	}
	if conn == nil {
		panic("conn cannot be nil")
	}

	return &Session{
		pool:    pool,
		conn:    conn,
		onClose: onClose,
	}
}

// Conn returns the acquired connection used for all writes of the run.
// The connection is valid until Close() is called.
func (s *Session) Conn() *pgxpool.Conn {
	return s.conn
}

// Close releases the connection, closes the pool, then runs the onClose callbacks.
// This method is idempotent.
func (s *Session) Close() error {
	if s.conn != nil {
		s.conn.Release()
		s.conn = nil
	}

	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}

	for _, fn := range s.onClose {
		fn()
	}
	s.onClose = nil

	return nil
}
