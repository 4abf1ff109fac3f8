package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/ingest/pkg/ingest"
)

type mockConnector struct {
	pool   *pgxpool.Pool
	err    error
	closed bool
}

func (m *mockConnector) Connect(_ context.Context) (*pgxpool.Pool, error) {
	return m.pool, m.err
}

type closingConnector struct {
	mockConnector
}

func (c *closingConnector) Close() error {
	c.closed = true
	return nil
}

// fakeConn records writes instead of sending them to a server.
type fakeConn struct {
	mu     sync.Mutex
	failOn string

	copies    map[string]int
	committed [][]string
}

func newFakeConn() *fakeConn {
	return &fakeConn{copies: map[string]int{}}
}

func (c *fakeConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.committed = append(c.committed, []string{sql})
	return pgconn.NewCommandTag("OK"), nil
}

func (c *fakeConn) CopyFrom(_ context.Context, table pgx.Identifier, _ []string, src pgx.CopyFromSource) (int64, error) {
	var n int64
	for src.Next() {
		if _, err := src.Values(); err != nil {
			return 0, err
		}
		n++
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.copies[table[0]] += int(n)
	return n, nil
}

func (c *fakeConn) Begin(context.Context) (pgx.Tx, error) {
	return &fakeTx{conn: c}, nil
}

func (c *fakeConn) statements() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var all []string
	for _, stmts := range c.committed {
		all = append(all, stmts...)
	}
	return all
}

type fakeTx struct {
	pgx.Tx
	conn  *fakeConn
	stmts []string
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if t.conn.failOn != "" && strings.Contains(sql, t.conn.failOn) {
		return pgconn.CommandTag{}, errors.New("permission denied")
	}
	t.stmts = append(t.stmts, sql)
	return pgconn.NewCommandTag("OK"), nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()
	t.conn.committed = append(t.conn.committed, t.stmts)
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	return nil
}

type countingObserver struct {
	started  int
	batches  int
	finished int
	err      error
}

func (o *countingObserver) Started(string, string)               { o.started++ }
func (o *countingObserver) BatchWritten(*ingest.RowBatch, int64) { o.batches++ }
func (o *countingObserver) Finished(_ ingest.LoadResult, err error) {
	o.finished++
	o.err = err
}
