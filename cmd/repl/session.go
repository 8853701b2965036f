package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/bawdo/sqlwindow/internal/sqlcheck"
	"github.com/bawdo/sqlwindow/managers"
	"github.com/bawdo/sqlwindow/nodes"
	"github.com/bawdo/sqlwindow/plugins/windowrefs"
	"github.com/bawdo/sqlwindow/visitors"
)

var errNoQuery = errors.New("no query defined (use 'from <table>' first)")

// WINDOW clause checking modes for the current query.
const (
	refsOff    = "off"
	refsVerify = "verify"
	refsAuto   = "auto"
)

func parseRefsMode(s string) (string, error) {
	switch m := strings.ToLower(strings.TrimSpace(s)); m {
	case refsOff, refsVerify, refsAuto:
		return m, nil
	}
	return "", fmt.Errorf("invalid window refs mode %q (choose: off, verify, auto)", s)
}

// Session holds the REPL state: registered tables, defined windows, the
// current query and the optional database connection.
type Session struct {
	tables       map[string]*nodes.Table
	windows      map[string]*nodes.Window
	windowOrder  []string // definition order
	query        *managers.SelectManager
	engine       string
	parameterize bool
	multiline    bool
	refs         string
	commands     []commandEntry // command registry (sorted by prefix length desc)
	conn         *dbConn        // nil when disconnected
	lastDSN      string         // remembers the previous DSN for reconnect
	logger       *slog.Logger
	out          io.Writer // destination for REPL output (default os.Stdout)
}

// NewSession creates a session from cfg. logger may be nil.
func NewSession(cfg *Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	refs, err := parseRefsMode(cfg.WindowRefs)
	if err != nil {
		refs = refsAuto
	}
	s := &Session{
		tables:       make(map[string]*nodes.Table),
		windows:      make(map[string]*nodes.Window),
		engine:       cfg.Engine,
		parameterize: cfg.Parameterize,
		multiline:    cfg.Multiline,
		refs:         refs,
		lastDSN:      cfg.DSN,
		logger:       logger,
		out:          os.Stdout,
	}
	s.initCommands()
	return s
}

// visitor returns a renderer for display. Statements sent to a MySQL or
// SQLite connection are rendered without bind parameters; see execVisitor.
func (s *Session) visitor() *visitors.PostgresVisitor {
	var opts []visitors.Option
	if !s.parameterize {
		opts = append(opts, visitors.WithoutParams())
	}
	if s.multiline {
		opts = append(opts, visitors.WithMultiline())
	}
	return visitors.NewPostgresVisitor(opts...)
}

// execVisitor returns a renderer whose output the connected engine accepts.
// Only PostgreSQL understands $N placeholders.
func (s *Session) execVisitor() *visitors.PostgresVisitor {
	if s.conn != nil && s.conn.engine() == sqlcheck.Postgres && s.parameterize {
		return visitors.NewPostgresVisitor()
	}
	return visitors.NewPostgresVisitor(visitors.WithoutParams())
}

// ensureTable returns the table if registered, otherwise registers it.
func (s *Session) ensureTable(name string) *nodes.Table {
	if t, ok := s.tables[name]; ok {
		return t
	}
	t := nodes.NewTable(name)
	s.tables[name] = t
	return t
}

// newQuery starts a query on from with the session's window refs mode.
func (s *Session) newQuery(from nodes.Node) *managers.SelectManager {
	q := managers.NewSelectManager(from)
	switch s.refs {
	case refsVerify:
		q.Use(windowrefs.New())
	case refsAuto:
		q.Use(windowrefs.New(windowrefs.AutoAttach()))
	}
	return q
}

// GenerateSQL renders the current query with v.
func (s *Session) GenerateSQL(v nodes.Visitor) (string, []any, error) {
	if s.query == nil {
		return "", nil, errNoQuery
	}
	return s.query.ToSQL(v)
}

// Execute runs one REPL line.
func (s *Session) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	lower := strings.ToLower(line)

	for _, cmd := range s.commands {
		if strings.HasSuffix(cmd.prefix, " ") {
			if strings.HasPrefix(lower, cmd.prefix) {
				return cmd.handler(line[len(cmd.prefix):])
			}
		} else if lower == cmd.prefix {
			return cmd.handler("")
		}
	}

	word := strings.Fields(line)[0]
	return fmt.Errorf("unknown command: %s (type 'help' for commands)", word)
}

// close releases the database connection, if any.
func (s *Session) close() {
	if s.conn != nil {
		_ = s.conn.close()
		s.conn = nil
	}
}

// --- Command handlers ---

func (s *Session) cmdTable(args string) error {
	name := strings.TrimSpace(args)
	if !isIdentifier(name) {
		return errors.New("usage: table <name>")
	}
	s.ensureTable(name)
	_, _ = fmt.Fprintf(s.out, "  Registered table %q\n", name)
	return nil
}

func (s *Session) cmdTables() error {
	var names []string
	for name := range s.tables {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(s.out, "  table: %s\n", name)
	}
	if s.conn != nil {
		for _, name := range s.conn.schemaTables() {
			_, _ = fmt.Fprintf(s.out, "  db:    %s\n", name)
		}
	}
	if len(names) == 0 && (s.conn == nil || len(s.conn.schemaTables()) == 0) {
		_, _ = fmt.Fprintln(s.out, "  No tables registered")
	}
	return nil
}

func (s *Session) cmdFrom(args string) error {
	name := strings.TrimSpace(args)
	if !isIdentifier(name) {
		return errors.New("usage: from <table>")
	}
	s.query = s.newQuery(s.ensureTable(name))
	_, _ = fmt.Fprintf(s.out, "  Query FROM %q\n", name)
	return nil
}

func (s *Session) cmdSelect(args string) error {
	if s.query == nil {
		return errNoQuery
	}
	var projs []nodes.Node
	for _, part := range splitTopLevel(tokenize(args)) {
		if len(part) == 1 && part[0] == "*" {
			projs = append(projs, nodes.Star())
			continue
		}
		n, err := s.parseProjection(part)
		if err != nil {
			return fmt.Errorf("select: %w", err)
		}
		projs = append(projs, n)
	}
	if len(projs) == 0 {
		return errors.New("usage: select <expr> [as <alias>], ...")
	}
	s.query.Select(projs...)
	_, _ = fmt.Fprintf(s.out, "  Projections set (%d columns)\n", len(projs))
	return nil
}

func (s *Session) cmdDistinct() error {
	if s.query == nil {
		return errNoQuery
	}
	s.query.Distinct()
	_, _ = fmt.Fprintln(s.out, "  DISTINCT enabled")
	return nil
}

func (s *Session) cmdWhere(args string) error {
	if s.query == nil {
		return errNoQuery
	}
	cond, err := s.parseCondition(args)
	if err != nil {
		return fmt.Errorf("where: %w", err)
	}
	s.query.Where(cond)
	_, _ = fmt.Fprintln(s.out, "  WHERE condition added")
	return nil
}

func (s *Session) cmdJoin(args string, joinType nodes.JoinType) error {
	if s.query == nil {
		return errNoQuery
	}
	lower := strings.ToLower(args)
	onIdx := strings.Index(lower, " on ")
	if onIdx < 0 {
		return errors.New("expected: <table> on <condition>")
	}
	name := strings.TrimSpace(args[:onIdx])
	if !isIdentifier(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	table := s.ensureTable(name)
	cond, err := s.parseCondition(args[onIdx+4:])
	if err != nil {
		return fmt.Errorf("join: %w", err)
	}
	s.query.Join(table, joinType).On(cond)
	_, _ = fmt.Fprintf(s.out, "  %s %q added\n", joinType, name)
	return nil
}

func (s *Session) cmdGroup(args string) error {
	if s.query == nil {
		return errNoQuery
	}
	var cols []nodes.Node
	for _, part := range splitTopLevel(tokenize(args)) {
		n, pos, err := s.parseExpr(part, 0)
		if err != nil {
			return fmt.Errorf("group: %w", err)
		}
		if pos != len(part) {
			return fmt.Errorf("group: unexpected token %q", part[pos])
		}
		cols = append(cols, n)
	}
	if len(cols) == 0 {
		return errors.New("usage: group <expr>, ...")
	}
	s.query.Group(cols...)
	_, _ = fmt.Fprintf(s.out, "  GROUP BY added (%d columns)\n", len(cols))
	return nil
}

func (s *Session) cmdHaving(args string) error {
	if s.query == nil {
		return errNoQuery
	}
	cond, err := s.parseCondition(args)
	if err != nil {
		return fmt.Errorf("having: %w", err)
	}
	s.query.Having(cond)
	_, _ = fmt.Fprintln(s.out, "  HAVING condition added")
	return nil
}

// cmdWindow defines a named window and attaches it to the current query,
// if there is one.
func (s *Session) cmdWindow(args string) error {
	tokens := tokenize(args)
	if len(tokens) == 0 {
		return errors.New("usage: window <name> [as] ([based on <window>] [partition by ...] [order by ...] [rows|range|groups ...] [exclude ...])")
	}
	name := tokens[0]
	if _, ok := s.windows[name]; ok {
		return fmt.Errorf("window %q is already defined (use 'reset windows' to clear definitions)", name)
	}
	w, err := s.parseWindow(name, tokens[1:])
	if err != nil {
		return fmt.Errorf("window: %w", err)
	}
	s.windows[name] = w
	s.windowOrder = append(s.windowOrder, name)
	if s.query != nil {
		s.query.Window(w)
		_, _ = fmt.Fprintf(s.out, "  Window %q defined and attached\n", name)
		return nil
	}
	_, _ = fmt.Fprintf(s.out, "  Window %q defined\n", name)
	return nil
}

// cmdAttach attaches already defined windows to the current query.
func (s *Session) cmdAttach(args string) error {
	if s.query == nil {
		return errNoQuery
	}
	names := strings.FieldsFunc(args, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(names) == 0 {
		return errors.New("usage: attach <window>[, <window> ...]")
	}
	ws := make([]*nodes.Window, 0, len(names))
	for _, name := range names {
		w, ok := s.windows[name]
		if !ok {
			return fmt.Errorf("unknown window %q", name)
		}
		ws = append(ws, w)
	}
	s.query.Window(ws...)
	_, _ = fmt.Fprintf(s.out, "  Attached %s\n", strings.Join(names, ", "))
	return nil
}

// cmdWindows lists window definitions in definition order.
func (s *Session) cmdWindows() error {
	if len(s.windowOrder) == 0 {
		_, _ = fmt.Fprintln(s.out, "  No windows defined")
		return nil
	}
	v := visitors.NewPostgresVisitor(visitors.WithoutParams())
	attached := make(map[*nodes.Window]bool)
	if s.query != nil {
		for _, w := range s.query.Windows() {
			attached[w] = true
		}
	}
	for _, name := range s.windowOrder {
		w := s.windows[name]
		mark := " "
		if attached[w] {
			mark = "*"
		}
		_, _ = fmt.Fprintf(s.out, "  %s %s\n", mark, w.Accept(v))
	}
	return nil
}

func (s *Session) cmdOrder(args string) error {
	if s.query == nil {
		return errNoQuery
	}
	var orderings []nodes.Node
	for _, part := range splitTopLevel(tokenize(args)) {
		n, pos, err := s.parseOrdering(part, 0)
		if err != nil {
			return fmt.Errorf("order: %w", err)
		}
		if pos != len(part) {
			return fmt.Errorf("order: unexpected token %q", part[pos])
		}
		orderings = append(orderings, n)
	}
	if len(orderings) == 0 {
		return errors.New("usage: order <expr> [asc|desc] [nulls first|last], ...")
	}
	s.query.Order(orderings...)
	_, _ = fmt.Fprintf(s.out, "  ORDER BY set (%d columns)\n", len(orderings))
	return nil
}

func (s *Session) cmdLimit(args string) error {
	if s.query == nil {
		return errNoQuery
	}
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return fmt.Errorf("limit requires an integer, got %q", args)
	}
	s.query.Limit(n)
	_, _ = fmt.Fprintf(s.out, "  LIMIT set to %d\n", n)
	return nil
}

func (s *Session) cmdOffset(args string) error {
	if s.query == nil {
		return errNoQuery
	}
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return fmt.Errorf("offset requires an integer, got %q", args)
	}
	s.query.Offset(n)
	_, _ = fmt.Fprintf(s.out, "  OFFSET set to %d\n", n)
	return nil
}

// cmdSQL renders the current query and prints it with its parameters.
func (s *Session) cmdSQL() error {
	sql, params, err := s.GenerateSQL(s.visitor())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  %s;\n", sql)
	if len(params) > 0 {
		_, _ = fmt.Fprintf(s.out, "  Params: %v\n", params)
	}
	return nil
}

func (s *Session) cmdParameterize() error {
	s.parameterize = !s.parameterize
	if s.parameterize {
		_, _ = fmt.Fprintln(s.out, "  Parameterized queries enabled")
	} else {
		_, _ = fmt.Fprintln(s.out, "  Parameterized queries disabled")
	}
	return nil
}

func (s *Session) cmdMultiline() error {
	s.multiline = !s.multiline
	if s.multiline {
		_, _ = fmt.Fprintln(s.out, "  Multiline output enabled")
	} else {
		_, _ = fmt.Fprintln(s.out, "  Multiline output disabled")
	}
	return nil
}

// cmdRefs changes how the WINDOW clause is checked and rebuilds the current
// query's transformer pipeline.
func (s *Session) cmdRefs(args string) error {
	if strings.TrimSpace(args) == "" {
		_, _ = fmt.Fprintf(s.out, "  Window refs: %s\n", s.refs)
		return nil
	}
	mode, err := parseRefsMode(args)
	if err != nil {
		return err
	}
	s.refs = mode
	if s.query != nil {
		core := s.query.Core
		s.query = s.newQuery(core.From)
		s.query.Core = core
	}
	_, _ = fmt.Fprintf(s.out, "  Window refs: %s\n", s.refs)
	return nil
}

func (s *Session) cmdConnect(args string) error {
	dsn := strings.TrimSpace(args)
	if s.conn != nil {
		return fmt.Errorf("already connected to %s (use 'disconnect' first)", sanitizeDSN(s.conn.dsn))
	}
	if dsn == "" {
		dsn = s.lastDSN
	}
	if dsn == "" {
		return errors.New("usage: connect <dsn>")
	}
	conn, err := connect(context.Background(), s.engine, dsn, s.logger)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	s.conn = conn
	s.lastDSN = dsn
	_, _ = fmt.Fprintf(s.out, "  Connected to %s (%s)\n", sanitizeDSN(dsn), s.engine)
	return nil
}

func (s *Session) cmdDisconnect() error {
	if s.conn == nil {
		return errors.New("not connected")
	}
	dsn := sanitizeDSN(s.conn.dsn)
	s.close()
	_, _ = fmt.Fprintf(s.out, "  Disconnected from %s\n", dsn)
	return nil
}

func (s *Session) cmdEngine(args string) error {
	name := strings.TrimSpace(strings.ToLower(args))
	if !isValidEngine(name) {
		return fmt.Errorf("unknown engine %q (choose: %s)", name, strings.Join(sqlcheck.Engines(), ", "))
	}
	if s.conn != nil {
		return errors.New("cannot change engine while connected (use 'disconnect' first)")
	}
	s.engine = name
	_, _ = fmt.Fprintf(s.out, "  Engine set to %s\n", s.engine)
	return nil
}

// cmdCheck asks the connected database to prepare the current statement.
func (s *Session) cmdCheck() error {
	if s.conn == nil {
		return errors.New("not connected (use 'connect <dsn>' first)")
	}
	sql, _, err := s.GenerateSQL(s.execVisitor())
	if err != nil {
		return err
	}
	if err := s.conn.check(context.Background(), sql); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  OK: %s accepted the statement\n", s.conn.engine())
	return nil
}

// cmdRun executes the current statement and prints the result table.
func (s *Session) cmdRun() error {
	if s.conn == nil {
		return errors.New("not connected (use 'connect <dsn>' first)")
	}
	sql, params, err := s.GenerateSQL(s.execVisitor())
	if err != nil {
		return err
	}
	s.logger.Debug("executing", slog.String("sql", sql), slog.Int("params", len(params)))
	result, err := s.conn.execQuery(context.Background(), sql, params)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(s.out, result)
	return nil
}

// cmdReset clears the query; "reset windows" also drops window definitions
// and "reset all" drops tables too.
func (s *Session) cmdReset(args string) error {
	switch strings.ToLower(strings.TrimSpace(args)) {
	case "":
		s.query = nil
		_, _ = fmt.Fprintln(s.out, "  Query cleared")
	case "windows":
		s.query = nil
		s.windows = make(map[string]*nodes.Window)
		s.windowOrder = nil
		_, _ = fmt.Fprintln(s.out, "  Query and windows cleared")
	case "all":
		s.query = nil
		s.windows = make(map[string]*nodes.Window)
		s.windowOrder = nil
		s.tables = make(map[string]*nodes.Table)
		_, _ = fmt.Fprintln(s.out, "  Session cleared")
	default:
		return errors.New("usage: reset [windows|all]")
	}
	return nil
}

func (s *Session) cmdHelp() {
	_, _ = fmt.Fprintln(s.out, `
  Query Building:
    table <name>              Register a table
    tables                    List registered and database tables
    from <table>              Start a new query (sets FROM)
    select <exprs>            Set projections (table.col, fn(...) over w, ... as alias)
    distinct                  Enable DISTINCT
    join <t> on <cond>        Add an INNER JOIN
    left join <t> on <cond>   Add a LEFT OUTER JOIN
    where <condition>         Add a WHERE condition
    group <exprs>             Add GROUP BY
    having <condition>        Add a HAVING condition
    order <expr> [asc|desc] [nulls first|last]  Set ORDER BY
    limit <n>                 Set LIMIT
    offset <n>                Set OFFSET

  Named Windows:
    window <name> [as] ([based on <w>] [partition by ...] [order by ...]
                        [rows|range|groups between <b> and <b>]
                        [exclude current row|group|ties|no others])
                              Define a window; attach it if a query exists
    attach <w>[, <w> ...]     Attach defined windows to the current query
    windows                   List definitions (* = attached)
    refs [off|verify|auto]    How the WINDOW clause is checked before rendering

  Output:
    sql                       Show the generated SQL
    params                    Toggle parameterized output
    multiline                 Toggle one clause per line
    ast                       Show the query structure

  Database:
    engine <postgres|mysql|sqlite>  Set the engine used by connect
    connect [dsn]             Connect (reuses the last DSN when omitted)
    disconnect                Close the connection
    check                     Ask the database to prepare the statement
    run                       Execute the statement and print rows

  Session:
    reset [windows|all]       Clear the query (and windows / tables)
    help                      Show this help
    exit                      Quit`)
}
