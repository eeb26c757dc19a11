package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"
)

// Executor runs SQL text against the target server.
type Executor interface {
	Execute(ctx context.Context, query string, args ...any) ([][]any, error)
	Close() error
}

// ExecutionError is returned when the server rejects a statement.
type ExecutionError struct {
	Statement string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("failed to execute %q: %v", preview(e.Statement, 80), e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// OpenFunc opens a database handle; sql.Open by default.
type OpenFunc func(driver, dsn string) (*sql.DB, error)

type connState int

const (
	unconnected connState = iota
	connected
)

// SQLExecutor connects on the first statement and keeps a single
// connection for its whole lifetime, so a USE statement applies to every
// statement that follows it.
type SQLExecutor struct {
	driver string
	dsn    string
	open   OpenFunc
	logger *slog.Logger

	state connState
	db    *sql.DB
	conn  *sql.Conn
}

// NewSQLExecutor never touches the network.
func NewSQLExecutor(driver, dsn string, logger *slog.Logger) *SQLExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLExecutor{driver: driver, dsn: dsn, open: sql.Open, logger: logger}
}

// WithOpener replaces sql.Open, mostly for tests.
func (e *SQLExecutor) WithOpener(open OpenFunc) *SQLExecutor {
	e.open = open
	return e
}

// Connected reports whether the connection has been established.
func (e *SQLExecutor) Connected() bool {
	return e.state == connected
}

func (e *SQLExecutor) ensureConnected(ctx context.Context) error {
	if e.state == connected {
		return nil
	}

	db, err := e.open(e.driver, e.dsn)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to acquire connection: %w", err)
	}

	e.db, e.conn, e.state = db, conn, connected
	e.logger.Debug("connected", "driver", e.driver)
	return nil
}

// Execute runs query and returns its rows. A statement that produces no
// result set yields zero rows and no error.
func (e *SQLExecutor) Execute(ctx context.Context, query string, args ...any) ([][]any, error) {
	e.logger.Debug("executing sql", "sql", preview(query, 280))
	if err := e.ensureConnected(ctx); err != nil {
		return nil, err
	}

	rows, err := e.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &ExecutionError{Statement: query, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &ExecutionError{Statement: query, Err: err}
	}

	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &ExecutionError{Statement: query, Err: err}
		}
		e.logger.Debug("row", "values", vals)
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, &ExecutionError{Statement: query, Err: err}
	}
	e.logger.Debug("sql done", "rows", len(out))
	return out, nil
}

// Close releases the connection. Closing an unconnected executor is a no-op.
func (e *SQLExecutor) Close() error {
	if e.state != connected {
		return nil
	}
	err := errors.Join(e.conn.Close(), e.db.Close())
	e.db, e.conn, e.state = nil, nil, unconnected
	return err
}

// preview shortens s to at most n bytes without splitting a rune.
func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
