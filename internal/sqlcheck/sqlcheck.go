// Package sqlcheck asks a real database whether rendered SQL is valid.
//
// A Checker prepares statements and closes them again; nothing is ever
// executed. Preparing makes the server parse and plan the statement, which
// catches syntax errors and references to unknown windows, tables or
// columns.
package sqlcheck

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Engine names accepted by Open.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// ErrUnknownEngine is returned by Open for an engine it has no driver for.
var ErrUnknownEngine = errors.New("sqlcheck: unknown engine")

// Engines lists the supported engine names.
func Engines() []string {
	return []string{Postgres, MySQL, SQLite}
}

// Checker validates statements against one database connection pool.
type Checker struct {
	db     *sql.DB
	engine string
	logger *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets the logger used for connection and prepare events.
// If logger is nil, a discard logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New wraps an open database. The Checker takes ownership of db.
func New(db *sql.DB, engine string, opts ...Option) *Checker {
	c := &Checker{db: db, engine: engine, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Open connects to engine using dsn and verifies the connection.
//
// MySQL sessions get ANSI_QUOTES added to sql_mode so that double-quoted
// identifiers parse. SQLite pools are limited to one connection so that an
// in-memory database is shared by every call.
func Open(ctx context.Context, engine, dsn string, opts ...Option) (*Checker, error) {
	var db *sql.DB
	switch engine {
	case Postgres:
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("sqlcheck: parse postgres dsn: %w", err)
		}
		db = stdlib.OpenDB(*cfg)
	case MySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("sqlcheck: parse mysql dsn: %w", err)
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]string)
		}
		cfg.Params["sql_mode"] = "CONCAT(@@sql_mode, ',ANSI_QUOTES')"
		connector, err := mysql.NewConnector(cfg)
		if err != nil {
			return nil, fmt.Errorf("sqlcheck: mysql connector: %w", err)
		}
		db = sql.OpenDB(connector)
	case SQLite:
		var err error
		if db, err = sql.Open("sqlite", dsn); err != nil {
			return nil, fmt.Errorf("sqlcheck: open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownEngine, engine)
	}

	c := New(db, engine, opts...)
	c.logger.Debug("connecting", slog.String("engine", engine))
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlcheck: ping %s: %w", engine, err)
	}
	return c, nil
}

// Check prepares query on a dedicated connection and closes the statement.
// A nil error means the database accepted the statement. The statement is
// bound to the connection so that a failing driver Close is reported.
func (c *Checker) Check(ctx context.Context, query string) (err error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("sqlcheck: acquire connection: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("sqlcheck: release connection: %w", cerr)
		}
	}()

	c.logger.Debug("preparing statement", slog.String("engine", c.engine), slog.Int("bytes", len(query)))
	stmt, err := conn.PrepareContext(ctx, query)
	if err != nil {
		c.logger.Debug("statement rejected", slog.String("error", err.Error()))
		return fmt.Errorf("sqlcheck: %s rejected statement: %w", c.engine, err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("sqlcheck: close statement: %w", err)
	}
	return nil
}

// Tables lists the tables visible in the current schema.
func (c *Checker) Tables(ctx context.Context) ([]string, error) {
	var query string
	switch c.engine {
	case Postgres:
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name"
	case MySQL:
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name"
	case SQLite:
		query = "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownEngine, c.engine)
	}
	return c.queryStrings(ctx, query)
}

// Columns lists the columns of table in ordinal order.
func (c *Checker) Columns(ctx context.Context, table string) ([]string, error) {
	var query string
	switch c.engine {
	case Postgres:
		query = "SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1 ORDER BY ordinal_position"
	case MySQL:
		query = "SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position"
	case SQLite:
		query = "SELECT name FROM pragma_table_info(?)"
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownEngine, c.engine)
	}
	return c.queryStrings(ctx, query, table)
}

func (c *Checker) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlcheck: schema query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("sqlcheck: scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlcheck: rows: %w", err)
	}
	return out, nil
}

// DB returns the underlying pool.
func (c *Checker) DB() *sql.DB { return c.db }

// Engine returns the engine name.
func (c *Checker) Engine() string { return c.engine }

// Close closes the underlying pool.
func (c *Checker) Close() error {
	c.logger.Debug("closing database connection", slog.String("engine", c.engine))
	return c.db.Close()
}
