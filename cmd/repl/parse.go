package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bawdo/sqlwindow/nodes"
)

// tokenize splits input into tokens. Quoted strings stay whole (with their
// quotes); parentheses, commas and comparison operators are single tokens.
func tokenize(input string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(input); i++ {
		ch := input[i]

		if inQuote {
			cur.WriteByte(ch)
			if ch == '\'' {
				if i+1 < len(input) && input[i+1] == '\'' {
					cur.WriteByte('\'')
					i++
				} else {
					inQuote = false
					flush()
				}
			}
			continue
		}

		switch {
		case ch == '\'':
			flush()
			cur.WriteByte(ch)
			inQuote = true
		case ch == '(' || ch == ')' || ch == ',':
			flush()
			tokens = append(tokens, string(ch))
		case ch == '!' && i+1 < len(input) && input[i+1] == '=':
			flush()
			tokens = append(tokens, "!=")
			i++
		case ch == '<' && i+1 < len(input) && (input[i+1] == '>' || input[i+1] == '='):
			flush()
			tokens = append(tokens, input[i:i+2])
			i++
		case ch == '>' && i+1 < len(input) && input[i+1] == '=':
			flush()
			tokens = append(tokens, ">=")
			i++
		case ch == '=' || ch == '>' || ch == '<':
			flush()
			tokens = append(tokens, string(ch))
		case ch == ' ' || ch == '\t':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return tokens
}

// parseValue converts a token string to a Go value suitable for Literal().
func parseValue(token string) (any, error) {
	lower := strings.ToLower(token)
	if lower == "true" {
		return true, nil
	}
	if lower == "false" {
		return false, nil
	}
	if lower == "null" {
		return nil, nil
	}
	if strings.HasPrefix(token, "'") && strings.HasSuffix(token, "'") && len(token) >= 2 {
		inner := token[1 : len(token)-1]
		return strings.ReplaceAll(inner, "''", "'"), nil
	}
	if i, err := strconv.Atoi(token); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("cannot parse value: %s", token)
}

func isValueToken(token string) bool {
	_, err := parseValue(token)
	return err == nil
}

// isIdentifier reports whether token is a bare identifier.
func isIdentifier(token string) bool {
	if token == "" {
		return false
	}
	for i, c := range token {
		isAlpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
		if !isAlpha && (i == 0 || c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// is reports whether tokens[pos] equals one of words, ignoring case.
func is(tokens []string, pos int, words ...string) bool {
	if pos >= len(tokens) {
		return false
	}
	for _, w := range words {
		if strings.EqualFold(tokens[pos], w) {
			return true
		}
	}
	return false
}

// expect consumes words in sequence or fails naming the first missing one.
func expect(tokens []string, pos int, words ...string) (int, error) {
	for _, w := range words {
		if !is(tokens, pos, w) {
			if pos >= len(tokens) {
				return pos, fmt.Errorf("expected %s", strings.ToUpper(w))
			}
			return pos, fmt.Errorf("expected %s, got %q", strings.ToUpper(w), tokens[pos])
		}
		pos++
	}
	return pos, nil
}

// splitTopLevel splits tokens on commas outside parentheses.
func splitTopLevel(tokens []string) [][]string {
	var parts [][]string
	var cur []string
	depth := 0
	for _, t := range tokens {
		switch {
		case t == "(":
			depth++
		case t == ")":
			depth--
		case t == "," && depth == 0:
			parts = append(parts, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		parts = append(parts, cur)
	}
	return parts
}

// resolveColRef resolves "table.column" or "table.*" against the session's
// tables, registering the table on first use.
func (s *Session) resolveColRef(ref string) (nodes.Node, error) {
	table, col, ok := strings.Cut(ref, ".")
	if !ok || !isIdentifier(table) {
		return nil, fmt.Errorf("expected table.column, got %q", ref)
	}
	t := s.ensureTable(table)
	if col == "*" {
		return t.Star(), nil
	}
	if !isIdentifier(col) {
		return nil, fmt.Errorf("expected table.column, got %q", ref)
	}
	return t.Col(col), nil
}

var aggregateFuncs = map[string]func(nodes.Node) *nodes.AggregateNode{
	"count": nodes.Count,
	"sum":   nodes.Sum,
	"avg":   nodes.Avg,
	"min":   nodes.Min,
	"max":   nodes.Max,
}

var windowFuncs = map[string]nodes.WindowFunc{
	"row_number":   nodes.WinRowNumber,
	"rank":         nodes.WinRank,
	"dense_rank":   nodes.WinDenseRank,
	"ntile":        nodes.WinNtile,
	"lag":          nodes.WinLag,
	"lead":         nodes.WinLead,
	"first_value":  nodes.WinFirstValue,
	"last_value":   nodes.WinLastValue,
	"nth_value":    nodes.WinNthValue,
	"cume_dist":    nodes.WinCumeDist,
	"percent_rank": nodes.WinPercentRank,
}

// parseExpr parses one value expression starting at pos: a literal, a
// table.column reference, or a function call optionally followed by
// OVER <window>.
func (s *Session) parseExpr(tokens []string, pos int) (nodes.Node, int, error) {
	if pos >= len(tokens) {
		return nil, pos, errors.New("expected expression")
	}
	tok := tokens[pos]

	var node nodes.Node
	switch {
	case isValueToken(tok):
		v, _ := parseValue(tok)
		node = nodes.Literal(v)
		pos++
	case isIdentifier(tok) && is(tokens, pos+1, "("):
		var err error
		if node, pos, err = s.parseFuncCall(tokens, pos); err != nil {
			return nil, pos, err
		}
	case strings.Contains(tok, "."):
		var err error
		if node, err = s.resolveColRef(tok); err != nil {
			return nil, pos, err
		}
		pos++
	default:
		return nil, pos, fmt.Errorf("unexpected token %q (expected table.column, a value or a function call)", tok)
	}

	if is(tokens, pos, "over") {
		return s.parseOver(node, tokens, pos)
	}
	return node, pos, nil
}

// parseFuncCall parses name ( [DISTINCT] args ) with pos at the name.
func (s *Session) parseFuncCall(tokens []string, pos int) (nodes.Node, int, error) {
	name := tokens[pos]
	pos += 2 // name (

	distinct := false
	if is(tokens, pos, "distinct") {
		distinct = true
		pos++
	}

	var args []nodes.Node
	star := false
	for !is(tokens, pos, ")") {
		if pos >= len(tokens) {
			return nil, pos, fmt.Errorf("expected ) to close %s(", name)
		}
		if len(args) > 0 || star {
			next, err := expect(tokens, pos, ",")
			if err != nil {
				return nil, pos, err
			}
			pos = next
		}
		if is(tokens, pos, "*") {
			star = true
			pos++
			continue
		}
		arg, next, err := s.parseExpr(tokens, pos)
		if err != nil {
			return nil, pos, err
		}
		args = append(args, arg)
		pos = next
	}
	pos++ // )

	lower := strings.ToLower(name)
	if agg, ok := aggregateFuncs[lower]; ok {
		switch {
		case star && lower == "count" && len(args) == 0 && !distinct:
			return agg(nil), pos, nil
		case !star && len(args) == 1:
			n := agg(args[0])
			n.Distinct = distinct
			return n, pos, nil
		}
		return nil, pos, fmt.Errorf("%s takes exactly one argument", strings.ToUpper(lower))
	}
	if star {
		return nil, pos, fmt.Errorf("* is only allowed in COUNT(*)")
	}
	if fn, ok := windowFuncs[lower]; ok {
		if distinct {
			return nil, pos, fmt.Errorf("DISTINCT is not allowed in %s", strings.ToUpper(lower))
		}
		return &nodes.WindowFuncNode{Func: fn, Args: args}, pos, nil
	}
	n := nodes.NewNamedFunction(name, args...)
	n.Distinct = distinct
	return n, pos, nil
}

// parseOver parses OVER <name> with pos at OVER. Only named windows are
// accepted; they must have been defined with the window command.
func (s *Session) parseOver(expr nodes.Node, tokens []string, pos int) (nodes.Node, int, error) {
	pos++ // OVER
	if pos >= len(tokens) {
		return nil, pos, errors.New("expected window name after OVER")
	}
	if tokens[pos] == "(" {
		return nil, pos, errors.New("inline window definitions are not supported (define a named window with 'window <name> ...')")
	}
	name := tokens[pos]
	w, ok := s.windows[name]
	if !ok {
		return nil, pos, fmt.Errorf("unknown window %q (define it with 'window %s ...')", name, name)
	}
	return nodes.OverWindow(expr, w), pos + 1, nil
}

// parseProjection parses expr [AS alias].
func (s *Session) parseProjection(tokens []string) (nodes.Node, error) {
	node, pos, err := s.parseExpr(tokens, 0)
	if err != nil {
		return nil, err
	}
	if is(tokens, pos, "as") {
		pos++
		if pos >= len(tokens) || !isIdentifier(tokens[pos]) {
			return nil, errors.New("expected alias name after AS")
		}
		node = &nodes.AliasNode{Expr: node, Name: tokens[pos]}
		pos++
	}
	if pos != len(tokens) {
		return nil, fmt.Errorf("unexpected token %q in projection", tokens[pos])
	}
	return node, nil
}

// parseOrdering parses expr [ASC|DESC] [NULLS FIRST|LAST] starting at pos.
// Without a direction or NULLS option, the bare expression is returned.
func (s *Session) parseOrdering(tokens []string, pos int) (nodes.Node, int, error) {
	expr, pos, err := s.parseExpr(tokens, pos)
	if err != nil {
		return nil, pos, err
	}
	var ord *nodes.OrderingNode
	switch {
	case is(tokens, pos, "asc"):
		ord = &nodes.OrderingNode{Expr: expr, Direction: nodes.Asc}
		pos++
	case is(tokens, pos, "desc"):
		ord = &nodes.OrderingNode{Expr: expr, Direction: nodes.Desc}
		pos++
	}
	if is(tokens, pos, "nulls") {
		if ord == nil {
			ord = &nodes.OrderingNode{Expr: expr, Direction: nodes.Asc}
		}
		pos++
		switch {
		case is(tokens, pos, "first"):
			ord.Nulls = nodes.NullsFirst
		case is(tokens, pos, "last"):
			ord.Nulls = nodes.NullsLast
		default:
			return nil, pos, errors.New("expected FIRST or LAST after NULLS")
		}
		pos++
	}
	if ord == nil {
		return expr, pos, nil
	}
	return ord, pos, nil
}

// --- Conditions ---

// condition is implemented by every node that embeds nodes.Combinable.
type condition interface {
	nodes.Node
	And(other nodes.Node) *nodes.AndNode
	Or(other nodes.Node) *nodes.GroupingNode
	Not() *nodes.NotNode
}

var comparisonOps = map[string]nodes.ComparisonOp{
	"=":    nodes.OpEq,
	"!=":   nodes.OpNotEq,
	"<>":   nodes.OpNotEq,
	">":    nodes.OpGt,
	">=":   nodes.OpGtEq,
	"<":    nodes.OpLt,
	"<=":   nodes.OpLtEq,
	"like": nodes.OpLike,
}

// parseCondition parses comparisons joined by AND / OR / NOT with
// parentheses. AND binds tighter than OR.
func (s *Session) parseCondition(input string) (nodes.Node, error) {
	tokens := tokenize(input)
	if len(tokens) == 0 {
		return nil, errors.New("expected condition")
	}
	cond, pos, err := s.parseOr(tokens, 0)
	if err != nil {
		return nil, err
	}
	if pos != len(tokens) {
		return nil, fmt.Errorf("unexpected token %q in condition", tokens[pos])
	}
	return cond, nil
}

func (s *Session) parseOr(tokens []string, pos int) (condition, int, error) {
	left, pos, err := s.parseAnd(tokens, pos)
	if err != nil {
		return nil, pos, err
	}
	for is(tokens, pos, "or") {
		right, next, err := s.parseAnd(tokens, pos+1)
		if err != nil {
			return nil, next, err
		}
		left, pos = left.Or(right), next
	}
	return left, pos, nil
}

func (s *Session) parseAnd(tokens []string, pos int) (condition, int, error) {
	left, pos, err := s.parseNot(tokens, pos)
	if err != nil {
		return nil, pos, err
	}
	for is(tokens, pos, "and") {
		right, next, err := s.parseNot(tokens, pos+1)
		if err != nil {
			return nil, next, err
		}
		left, pos = left.And(right), next
	}
	return left, pos, nil
}

func (s *Session) parseNot(tokens []string, pos int) (condition, int, error) {
	if is(tokens, pos, "not") {
		c, next, err := s.parseNot(tokens, pos+1)
		if err != nil {
			return nil, next, err
		}
		return c.Not(), next, nil
	}
	if is(tokens, pos, "(") {
		c, next, err := s.parseOr(tokens, pos+1)
		if err != nil {
			return nil, next, err
		}
		next, err = expect(tokens, next, ")")
		return c, next, err
	}
	return s.parseComparison(tokens, pos)
}

func (s *Session) parseComparison(tokens []string, pos int) (condition, int, error) {
	left, pos, err := s.parseExpr(tokens, pos)
	if err != nil {
		return nil, pos, err
	}
	if pos >= len(tokens) {
		return nil, pos, errors.New("expected comparison operator")
	}
	op, ok := comparisonOps[strings.ToLower(tokens[pos])]
	if !ok {
		return nil, pos, fmt.Errorf("unknown comparison operator %q", tokens[pos])
	}
	right, pos, err := s.parseExpr(tokens, pos+1)
	if err != nil {
		return nil, pos, err
	}
	return nodes.NewComparisonNode(left, right, op), pos, nil
}

// --- Window definitions ---

// windowClauseEnd lists the words that end a PARTITION BY or ORDER BY list.
var windowClauseEnd = []string{"order", "rows", "range", "groups", "exclude", ")"}

// parseWindow parses a window definition:
//
//	[AS] [(] [<base> | BASED ON <base>] [PARTITION BY exprs] [ORDER BY orderings]
//	[ROWS|RANGE|GROUPS <frame>] [EXCLUDE CURRENT ROW|GROUP|TIES|NO OTHERS] [)]
//
// where <frame> is BETWEEN <bound> AND <bound> or a single lower bound.
func (s *Session) parseWindow(name string, tokens []string) (*nodes.Window, error) {
	pos := 0
	if is(tokens, pos, "as") {
		pos++
	}
	wrapped := is(tokens, pos, "(")
	if wrapped {
		pos++
	}

	var opts []nodes.WindowOption

	switch {
	case is(tokens, pos, "based"):
		next, err := expect(tokens, pos, "based", "on")
		if err != nil {
			return nil, err
		}
		pos = next
		if pos >= len(tokens) {
			return nil, errors.New("expected window name after BASED ON")
		}
		fallthrough
	case pos < len(tokens) && s.windows[tokens[pos]] != nil:
		base, ok := s.windows[tokens[pos]]
		if !ok {
			return nil, fmt.Errorf("unknown window %q", tokens[pos])
		}
		opts = append(opts, nodes.BasedOn(base))
		pos++
	}

	if is(tokens, pos, "partition") {
		next, err := expect(tokens, pos, "partition", "by")
		if err != nil {
			return nil, err
		}
		exprs, next, err := s.parseWindowList(tokens, next, false)
		if err != nil {
			return nil, fmt.Errorf("partition by: %w", err)
		}
		opts = append(opts, nodes.PartitionBy(exprs...))
		pos = next
	}

	if is(tokens, pos, "order") {
		next, err := expect(tokens, pos, "order", "by")
		if err != nil {
			return nil, err
		}
		exprs, next, err := s.parseWindowList(tokens, next, true)
		if err != nil {
			return nil, fmt.Errorf("order by: %w", err)
		}
		opts = append(opts, nodes.OrderBy(exprs...))
		pos = next
	}

	if is(tokens, pos, "rows", "range", "groups") {
		opt, next, err := parseFrame(tokens, pos)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
		pos = next
	}

	if is(tokens, pos, "exclude") {
		pos++
		end := pos
		for end < len(tokens) && tokens[end] != ")" {
			end++
		}
		x, err := nodes.ParseFrameExclusion(strings.Join(tokens[pos:end], " "))
		if err != nil {
			return nil, err
		}
		opts = append(opts, nodes.Exclude(x))
		pos = end
	}

	if wrapped {
		next, err := expect(tokens, pos, ")")
		if err != nil {
			return nil, err
		}
		pos = next
	}
	if pos != len(tokens) {
		return nil, fmt.Errorf("unexpected token %q in window definition", tokens[pos])
	}

	return nodes.NewWindow(name, opts...)
}

// parseWindowList parses comma-separated expressions (or orderings) until
// a word that starts the next window sub-clause.
func (s *Session) parseWindowList(tokens []string, pos int, ordering bool) ([]nodes.Node, int, error) {
	var out []nodes.Node
	for pos < len(tokens) && !is(tokens, pos, windowClauseEnd...) {
		if len(out) > 0 {
			next, err := expect(tokens, pos, ",")
			if err != nil {
				return nil, pos, err
			}
			pos = next
		}
		var n nodes.Node
		var err error
		if ordering {
			n, pos, err = s.parseOrdering(tokens, pos)
		} else {
			n, pos, err = s.parseExpr(tokens, pos)
		}
		if err != nil {
			return nil, pos, err
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, pos, errors.New("expected at least one expression")
	}
	return out, pos, nil
}

// parseFrame parses ROWS|RANGE|GROUPS and its bounds into a frame option.
// A single bound is the lower bound with CURRENT ROW as the upper.
func parseFrame(tokens []string, pos int) (nodes.WindowOption, int, error) {
	kind := strings.ToLower(tokens[pos])
	pos++

	var lower, upper any
	var err error
	if is(tokens, pos, "between") {
		if lower, pos, err = parseFrameBound(tokens, pos+1, true); err != nil {
			return nil, pos, err
		}
		if pos, err = expect(tokens, pos, "and"); err != nil {
			return nil, pos, err
		}
		if upper, pos, err = parseFrameBound(tokens, pos, false); err != nil {
			return nil, pos, err
		}
	} else {
		if lower, pos, err = parseFrameBound(tokens, pos, true); err != nil {
			return nil, pos, err
		}
		upper = 0
	}

	spec := [2]any{lower, upper}
	switch kind {
	case "range":
		return nodes.Range(spec), pos, nil
	case "groups":
		return nodes.Groups(spec), pos, nil
	default:
		return nodes.Rows(spec), pos, nil
	}
}

// parseFrameBound maps a bound to its frame-spec value: UNBOUNDED is nil,
// CURRENT ROW is 0, N PRECEDING is -N and N FOLLOWING is N. lower selects
// which side UNBOUNDED may appear on.
func parseFrameBound(tokens []string, pos int, lower bool) (any, int, error) {
	switch {
	case pos >= len(tokens):
		return nil, pos, errors.New("expected frame bound")
	case is(tokens, pos, "unbounded"):
		want := "following"
		if lower {
			want = "preceding"
		}
		next, err := expect(tokens, pos, "unbounded", want)
		if err != nil {
			return nil, pos, fmt.Errorf("frame %s bound: %w", boundSide(lower), err)
		}
		return nil, next, nil
	case is(tokens, pos, "current"):
		next, err := expect(tokens, pos, "current", "row")
		return 0, next, err
	}

	n, err := strconv.Atoi(tokens[pos])
	if err != nil || n < 0 {
		return nil, pos, fmt.Errorf("expected non-negative frame offset, got %q", tokens[pos])
	}
	pos++
	switch {
	case is(tokens, pos, "preceding"):
		return -n, pos + 1, nil
	case is(tokens, pos, "following"):
		return n, pos + 1, nil
	}
	return nil, pos, errors.New("expected PRECEDING or FOLLOWING after frame offset")
}

func boundSide(lower bool) string {
	if lower {
		return "lower"
	}
	return "upper"
}
