// Package db keeps one database handle per connection triple and runs the
// setup and teardown scripts of fixtures.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"go.squit.io/squit/pkg/models"
	"go.uber.org/zap"
)

// Opener opens a handle for a driver and DSN. sql.Open satisfies it.
type Opener func(driver, dsn string) (*sql.DB, error)

// Pool hands out at most one *sql.DB per (jdbc, username, password). Lookup
// and creation are serialized; using a handle is the caller's business.
type Pool struct {
	logger *zap.Logger
	open   Opener

	mu     sync.Mutex
	conns  map[models.DatabaseConfig]*sql.DB
	closed bool
}

func NewPool(logger *zap.Logger) *Pool {
	return NewPoolWithOpener(logger, sql.Open)
}

func NewPoolWithOpener(logger *zap.Logger, open Opener) *Pool {
	return &Pool{
		logger: logger,
		open:   open,
		conns:  map[models.DatabaseConfig]*sql.DB{},
	}
}

var errPoolClosed = errors.New("connection pool is closed")

// Get returns the handle for cfg, opening it on first use.
func (p *Pool) Get(cfg models.DatabaseConfig) (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, errPoolClosed
	}
	if conn, ok := p.conns[cfg]; ok {
		return conn, nil
	}

	driver, dsn, err := DataSource(cfg)
	if err != nil {
		return nil, err
	}
	conn, err := p.open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.JdbcAddress, err)
	}
	p.conns[cfg] = conn
	p.logger.Debug("opened database connection", zap.String("jdbc", cfg.JdbcAddress), zap.String("driver", driver))
	return conn, nil
}

// Len is the number of distinct open handles.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// Close closes every handle exactly once. Later calls are no-ops.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	for cfg, conn := range p.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s: %w", cfg.JdbcAddress, err))
		}
	}
	p.conns = nil
	return errors.Join(errs...)
}

// RunScript executes the SQL file at path against the database inside one
// transaction. A missing file is skipped. Any failure rolls the transaction
// back and is reported as a ConnectionError.
func (p *Pool) RunScript(ctx context.Context, name string, cfg models.DatabaseConfig, path string) (err error) {
	script, found, err := readScript(path)
	if err != nil || !found {
		return err
	}
	wrap := func(err error) error {
		return &models.ConnectionError{Path: path, Database: name, Err: err}
	}

	conn, err := p.Get(cfg)
	if err != nil {
		return wrap(err)
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return wrap(err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				p.logger.Warn("failed to roll back script", zap.String("path", path), zap.Error(rbErr))
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, script); err != nil {
		return wrap(err)
	}
	if err = tx.Commit(); err != nil {
		return wrap(err)
	}
	p.logger.Debug("executed database script", zap.String("database", name), zap.String("path", path))
	return nil
}
