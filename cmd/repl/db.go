package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/bawdo/sqlwindow/internal/sqlcheck"
)

const maxRows = 1000

type schemaCache struct {
	tables  []string
	columns map[string][]string // table name -> column names
}

// dbConn is the session's database connection, used to check and run the
// rendered statement and to feed schema names to tab completion.
type dbConn struct {
	checker *sqlcheck.Checker
	dsn     string
	schema  schemaCache
	logger  *slog.Logger
}

func connect(ctx context.Context, engine, dsn string, logger *slog.Logger) (*dbConn, error) {
	checker, err := sqlcheck.Open(ctx, engine, dsn, sqlcheck.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	conn := &dbConn{checker: checker, dsn: dsn, logger: logger}
	conn.schema.columns = make(map[string][]string)
	if conn.schema.tables, err = checker.Tables(ctx); err != nil {
		// Best effort: only completion depends on it.
		logger.Warn("schema introspection failed", slog.String("error", err.Error()))
	}
	return conn, nil
}

func (c *dbConn) engine() string { return c.checker.Engine() }

func (c *dbConn) close() error {
	return c.checker.Close()
}

func (c *dbConn) check(ctx context.Context, sqlStr string) error {
	return c.checker.Check(ctx, sqlStr)
}

func (c *dbConn) execQuery(ctx context.Context, sqlStr string, params []any) (string, error) {
	rows, err := c.checker.DB().QueryContext(ctx, sqlStr, params...)
	if err != nil {
		return "", fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return formatRows(rows)
}

func formatRows(rows *sql.Rows) (string, error) {
	columns, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("columns: %w", err)
	}

	var data [][]string
	truncated := false
	for rows.Next() {
		if len(data) >= maxRows {
			truncated = true
			break
		}
		vals := make([]*sql.NullString, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			vals[i] = &sql.NullString{}
			ptrs[i] = vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", fmt.Errorf("scan: %w", err)
		}
		row := make([]string, len(columns))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			} else {
				row[i] = "NULL"
			}
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("rows: %w", err)
	}

	result := formatTable(columns, data)
	if truncated {
		result += fmt.Sprintf("(truncated at %d rows)\n", maxRows)
	}
	return result, nil
}

func formatTable(columns []string, rows [][]string) string {
	if len(columns) == 0 {
		return "(0 rows)\n"
	}

	// Calculate column widths.
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len(c)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder

	// Separator line.
	sep := buildSeparator(widths)

	b.WriteString(sep)
	// Header.
	b.WriteByte('|')
	for i, c := range columns {
		fmt.Fprintf(&b, " %-*s |", widths[i], c)
	}
	b.WriteByte('\n')
	b.WriteString(sep)

	// Data rows.
	for _, row := range rows {
		b.WriteByte('|')
		for i, cell := range row {
			fmt.Fprintf(&b, " %-*s |", widths[i], cell)
		}
		b.WriteByte('\n')
	}

	b.WriteString(sep)

	// Row count.
	n := len(rows)
	if n == 1 {
		b.WriteString("(1 row)\n")
	} else {
		fmt.Fprintf(&b, "(%d rows)\n", n)
	}

	return b.String()
}

func buildSeparator(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		for j := 0; j < w+2; j++ {
			b.WriteByte('-')
		}
		b.WriteByte('+')
	}
	b.WriteByte('\n')
	return b.String()
}

func (c *dbConn) schemaTables() []string {
	return c.schema.tables
}

func (c *dbConn) schemaColumns(table string) []string {
	if cols, ok := c.schema.columns[table]; ok {
		return cols
	}
	cols, err := c.checker.Columns(context.Background(), table)
	if err != nil {
		c.logger.Debug("column introspection failed", slog.String("table", table), slog.String("error", err.Error()))
		return nil
	}
	c.schema.columns[table] = cols
	return cols
}

func sanitizeDSN(dsn string) string {
	// Try parsing as URL (postgres style).
	u, err := url.Parse(dsn)
	if err == nil && u.Scheme != "" && u.User != nil {
		if _, hasPass := u.User.Password(); hasPass {
			// Rebuild manually to avoid percent-encoding the mask.
			masked := u.Scheme + "://" + u.User.Username() + ":****@" + u.Host + u.Path
			if u.RawQuery != "" {
				masked += "?" + u.RawQuery
			}
			return masked
		}
		return dsn
	}

	// Try MySQL-style DSN: user:pass@tcp(host)/db
	if atIdx := strings.Index(dsn, "@"); atIdx > 0 {
		userPass := dsn[:atIdx]
		if colonIdx := strings.Index(userPass, ":"); colonIdx >= 0 {
			return userPass[:colonIdx+1] + "****" + dsn[atIdx:]
		}
	}

	return dsn
}
