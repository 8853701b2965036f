// Package visitors renders the nodes AST to SQL text.
package visitors

import (
	"fmt"
	"strings"

	"github.com/bawdo/sqlwindow/internal/quoting"
	"github.com/bawdo/sqlwindow/nodes"
)

// Operator SQL strings for ComparisonOp values.
var comparisonOpSQL = [...]string{
	nodes.OpEq:    "=",
	nodes.OpNotEq: "!=",
	nodes.OpGt:    ">",
	nodes.OpGtEq:  ">=",
	nodes.OpLt:    "<",
	nodes.OpLtEq:  "<=",
	nodes.OpLike:  "LIKE",
}

// Aggregate function SQL names.
var aggregateFuncSQL = [...]string{
	nodes.AggCount: "COUNT",
	nodes.AggSum:   "SUM",
	nodes.AggAvg:   "AVG",
	nodes.AggMin:   "MIN",
	nodes.AggMax:   "MAX",
}

// Window function SQL names.
var windowFuncSQL = [...]string{
	nodes.WinRowNumber:   "ROW_NUMBER",
	nodes.WinRank:        "RANK",
	nodes.WinDenseRank:   "DENSE_RANK",
	nodes.WinNtile:       "NTILE",
	nodes.WinLag:         "LAG",
	nodes.WinLead:        "LEAD",
	nodes.WinFirstValue:  "FIRST_VALUE",
	nodes.WinLastValue:   "LAST_VALUE",
	nodes.WinNthValue:    "NTH_VALUE",
	nodes.WinCumeDist:    "CUME_DIST",
	nodes.WinPercentRank: "PERCENT_RANK",
}

// Option configures a visitor at construction time.
type Option func(*baseVisitor)

// WithParams enables parameterized mode: literal values are replaced with
// bind placeholders and collected for Params. This is the default.
func WithParams() Option {
	return func(b *baseVisitor) {
		b.parameterize = true
	}
}

// WithoutParams interpolates literal values into the SQL with basic
// escaping. Only use it for debugging or trusted values.
func WithoutParams() Option {
	return func(b *baseVisitor) {
		b.parameterize = false
	}
}

// WithMultiline starts each SELECT clause on its own line and puts every
// WINDOW entry on a separate indented line. Output is meant for display.
func WithMultiline() Option {
	return func(b *baseVisitor) {
		b.clauseBreak = "\n"
		b.windowSep = ",\n       "
	}
}

// baseVisitor implements the shared SQL generation logic. A dialect visitor
// embeds *baseVisitor and sets outer to itself so that recursive Accept calls
// go through the dialect's overrides.
type baseVisitor struct {
	outer nodes.Visitor

	quoteIdent   func(string) string
	placeholder  func(int) string
	parameterize bool

	params     []any
	paramIndex int

	clauseBreak string
	windowSep   string

	// selectClauses is the ordered list of SELECT sub-clause emitters.
	selectClauses []clauseEmitter
}

func (b *baseVisitor) applyOptions(opts []Option) {
	for _, o := range opts {
		o(b)
	}
}

// Params returns the collected bind parameters from the last SQL generation.
func (b *baseVisitor) Params() []any {
	return b.params
}

// Reset clears collected parameters for reuse.
func (b *baseVisitor) Reset() {
	b.params = nil
	b.paramIndex = 0
}

func (b *baseVisitor) bind(val any) string {
	b.paramIndex++
	b.params = append(b.params, val)
	return b.placeholder(b.paramIndex)
}

// acceptAll renders each node and joins the results with sep.
func (b *baseVisitor) acceptAll(items []nodes.Node, sep string) string {
	parts := make([]string, len(items))
	for i, n := range items {
		parts[i] = n.Accept(b.outer)
	}
	return strings.Join(parts, sep)
}

func (b *baseVisitor) VisitTable(n *nodes.Table) string {
	return b.quoteIdent(n.Name)
}

func (b *baseVisitor) VisitAttribute(n *nodes.Attribute) string {
	if n.Relation == nil {
		return b.quoteIdent(n.Name)
	}
	return b.quoteIdent(n.Relation.Name) + "." + b.quoteIdent(n.Name)
}

func (b *baseVisitor) VisitLiteral(n *nodes.LiteralNode) string {
	return b.literalToSQL(n.Value)
}

func (b *baseVisitor) literalToSQL(val any) string {
	if val == nil {
		return "NULL"
	}
	if b.parameterize {
		return b.bind(val)
	}

	switch v := val.(type) {
	case string:
		return "'" + quoting.EscapeString(v) + "'"
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%g", v)
	default:
		panic(fmt.Sprintf("sqlwindow: unsupported literal type %T", v))
	}
}

func (b *baseVisitor) VisitStar(n *nodes.StarNode) string {
	if n.Table != nil {
		return b.quoteIdent(n.Table.Name) + ".*"
	}
	return "*"
}

func (b *baseVisitor) VisitSqlLiteral(n *nodes.SqlLiteral) string {
	return n.Raw
}

func (b *baseVisitor) VisitBindParam(n *nodes.BindParamNode) string {
	if b.parameterize {
		return b.bind(n.Value)
	}
	return b.literalToSQL(n.Value)
}

func (b *baseVisitor) VisitComparison(n *nodes.ComparisonNode) string {
	left := n.Left.Accept(b.outer)
	right := n.Right.Accept(b.outer)
	return left + " " + comparisonOpSQL[n.Op] + " " + right
}

func (b *baseVisitor) VisitAnd(n *nodes.AndNode) string {
	return n.Left.Accept(b.outer) + " AND " + n.Right.Accept(b.outer)
}

func (b *baseVisitor) VisitOr(n *nodes.OrNode) string {
	return n.Left.Accept(b.outer) + " OR " + n.Right.Accept(b.outer)
}

func (b *baseVisitor) VisitNot(n *nodes.NotNode) string {
	return "NOT (" + n.Expr.Accept(b.outer) + ")"
}

func (b *baseVisitor) VisitGrouping(n *nodes.GroupingNode) string {
	return "(" + n.Expr.Accept(b.outer) + ")"
}

func (b *baseVisitor) VisitOrdering(n *nodes.OrderingNode) string {
	expr := n.Expr.Accept(b.outer)
	if n.Direction == nodes.Desc {
		expr += " DESC"
	} else {
		expr += " ASC"
	}
	switch n.Nulls {
	case nodes.NullsFirst:
		expr += " NULLS FIRST"
	case nodes.NullsLast:
		expr += " NULLS LAST"
	}
	return expr
}

func (b *baseVisitor) VisitNamedFunction(n *nodes.NamedFunctionNode) string {
	validateSQLFunctionName(n.Name)
	var sb strings.Builder
	sb.WriteString(n.Name)
	sb.WriteString("(")
	if n.Distinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(b.acceptAll(n.Args, ", "))
	sb.WriteString(")")
	return sb.String()
}

func (b *baseVisitor) VisitAggregate(n *nodes.AggregateNode) string {
	var sb strings.Builder
	sb.WriteString(aggregateFuncSQL[n.Func])
	sb.WriteString("(")
	if n.Distinct {
		sb.WriteString("DISTINCT ")
	}
	if n.Expr == nil {
		sb.WriteString("*")
	} else {
		sb.WriteString(n.Expr.Accept(b.outer))
	}
	sb.WriteString(")")
	return sb.String()
}

func (b *baseVisitor) VisitWindowFunction(n *nodes.WindowFuncNode) string {
	return windowFuncSQL[n.Func] + "(" + b.acceptAll(n.Args, ", ") + ")"
}

func (b *baseVisitor) VisitAlias(n *nodes.AliasNode) string {
	return n.Expr.Accept(b.outer) + " AS " + b.quoteIdent(n.Name)
}

func (b *baseVisitor) VisitJoin(n *nodes.JoinNode) string {
	var sb strings.Builder
	sb.WriteString(n.Type.String())
	sb.WriteString(" ")
	sb.WriteString(n.Right.Accept(b.outer))
	if n.On != nil {
		sb.WriteString(" ON ")
		sb.WriteString(n.On.Accept(b.outer))
	}
	return sb.String()
}

// validateSQLFunctionName panics if the function name contains characters
// outside the set of letters, digits, and underscores.
func validateSQLFunctionName(name string) {
	for _, c := range name {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') &&
			(c < '0' || c > '9') && c != '_' {
			panic(fmt.Sprintf("sqlwindow: invalid SQL function name character %q in %q", string(c), name))
		}
	}
}
