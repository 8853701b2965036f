// Package testutil provides shared test helpers for the sqlwindow project.
package testutil

import (
	"strings"

	"github.com/bawdo/sqlwindow/nodes"
)

// StubVisitor implements nodes.Visitor with short, dialect-free output so
// tests can check tree shape without depending on a real renderer.
type StubVisitor struct{}

var _ nodes.Visitor = StubVisitor{}

func (sv StubVisitor) VisitTable(n *nodes.Table) string           { return n.Name }
func (sv StubVisitor) VisitAttribute(n *nodes.Attribute) string   { return n.Name }
func (sv StubVisitor) VisitLiteral(n *nodes.LiteralNode) string   { return "lit" }
func (sv StubVisitor) VisitStar(n *nodes.StarNode) string         { return "*" }
func (sv StubVisitor) VisitSqlLiteral(n *nodes.SqlLiteral) string { return n.Raw }
func (sv StubVisitor) VisitBindParam(n *nodes.BindParamNode) string {
	return "?"
}
func (sv StubVisitor) VisitComparison(n *nodes.ComparisonNode) string {
	return n.Left.Accept(sv) + "=?" + n.Right.Accept(sv)
}
func (sv StubVisitor) VisitAnd(n *nodes.AndNode) string             { return "and" }
func (sv StubVisitor) VisitOr(n *nodes.OrNode) string               { return "or" }
func (sv StubVisitor) VisitNot(n *nodes.NotNode) string             { return "not" }
func (sv StubVisitor) VisitGrouping(n *nodes.GroupingNode) string   { return "grouping" }
func (sv StubVisitor) VisitOrdering(n *nodes.OrderingNode) string   { return "ordering" }
func (sv StubVisitor) VisitAggregate(n *nodes.AggregateNode) string { return "aggregate" }
func (sv StubVisitor) VisitAlias(n *nodes.AliasNode) string         { return "alias" }
func (sv StubVisitor) VisitJoin(n *nodes.JoinNode) string           { return "join" }
func (sv StubVisitor) VisitSelectCore(n *nodes.SelectCore) string   { return "select_core" }
func (sv StubVisitor) VisitNamedFunction(n *nodes.NamedFunctionNode) string {
	return n.Name + "()"
}
func (sv StubVisitor) VisitWindowFunction(n *nodes.WindowFuncNode) string {
	return "window_func"
}

// VisitWindow renders the window as name(parts) where parts lists which
// clauses are set, e.g. "w(base,partition,order,frame)".
func (sv StubVisitor) VisitWindow(n *nodes.Window) string {
	var parts []string
	if n.Base() != nil {
		parts = append(parts, "base")
	}
	if len(n.PartitionBy()) > 0 {
		parts = append(parts, "partition")
	}
	if len(n.OrderBy()) > 0 {
		parts = append(parts, "order")
	}
	if _, ok := n.Frame(); ok {
		parts = append(parts, "frame")
	}
	return n.Name() + "(" + strings.Join(parts, ",") + ")"
}

func (sv StubVisitor) VisitOver(n *nodes.OverNode) string {
	return n.Expr.Accept(sv) + " over " + n.Window.Name()
}
