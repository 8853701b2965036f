// Package nodes defines the expression tree used to describe SELECT
// statements, including reusable named windows and OVER references.
package nodes

// Node is the interface that all AST nodes implement.
type Node interface {
	Accept(visitor Visitor) string
}

// Visitor is the rendering dispatch table: one method per node kind.
// A renderer is chosen explicitly by the caller (see visitors.NewPostgresVisitor)
// rather than registered globally.
type Visitor interface {
	VisitTable(node *Table) string
	VisitAttribute(node *Attribute) string
	VisitLiteral(node *LiteralNode) string
	VisitStar(node *StarNode) string
	VisitSqlLiteral(node *SqlLiteral) string
	VisitBindParam(node *BindParamNode) string
	VisitComparison(node *ComparisonNode) string
	VisitAnd(node *AndNode) string
	VisitOr(node *OrNode) string
	VisitNot(node *NotNode) string
	VisitGrouping(node *GroupingNode) string
	VisitOrdering(node *OrderingNode) string
	VisitNamedFunction(node *NamedFunctionNode) string
	VisitAggregate(node *AggregateNode) string
	VisitWindowFunction(node *WindowFuncNode) string
	VisitAlias(node *AliasNode) string
	VisitJoin(node *JoinNode) string
	VisitSelectCore(node *SelectCore) string
	VisitWindow(node *Window) string
	VisitOver(node *OverNode) string
}

// Parameterizer is implemented by visitors that support parameterized queries.
// Callers use type assertion to extract collected parameters after SQL generation.
type Parameterizer interface {
	Params() []any
	Reset()
}

// Literal wraps a raw Go value into a LiteralNode. If val already
// implements Node, it is returned as-is.
func Literal(val any) Node {
	if n, ok := val.(Node); ok {
		return n
	}
	lit := &LiteralNode{Value: val}
	lit.Predications.self = lit
	lit.Combinable.self = lit
	return lit
}
