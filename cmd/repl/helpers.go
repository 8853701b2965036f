package main

import (
	"fmt"
	"strings"

	"github.com/bawdo/sqlwindow/nodes"
	"github.com/bawdo/sqlwindow/plugins"
	"github.com/bawdo/sqlwindow/visitors"
)

// cmdAST displays a summary of the current query, one line per clause.
// Windows are listed with their base chains.
func (s *Session) cmdAST() error {
	if s.query == nil {
		return errNoQuery
	}
	c := s.query.Core

	_, _ = fmt.Fprintf(s.out, "  Engine: %s\n", s.engine)
	if c.From != nil {
		_, _ = fmt.Fprintf(s.out, "  FROM:   %s\n", nodeSummary(c.From))
	}
	if c.Distinct {
		_, _ = fmt.Fprintln(s.out, "  DISTINCT: true")
	}
	if len(c.Projections) > 0 {
		_, _ = fmt.Fprintf(s.out, "  SELECT: %s\n", summarizeAll(c.Projections))
	} else {
		_, _ = fmt.Fprintln(s.out, "  SELECT: *")
	}
	for i, j := range c.Joins {
		_, _ = fmt.Fprintf(s.out, "  JOIN[%d]: %s %s\n", i, j.Type, nodeSummary(j.Right))
	}
	if len(c.Wheres) > 0 {
		_, _ = fmt.Fprintf(s.out, "  WHERE:  %d condition(s)\n", len(c.Wheres))
	}
	if len(c.Groups) > 0 {
		_, _ = fmt.Fprintf(s.out, "  GROUP:  %s\n", summarizeAll(c.Groups))
	}
	if len(c.Havings) > 0 {
		_, _ = fmt.Fprintf(s.out, "  HAVING: %d condition(s)\n", len(c.Havings))
	}
	s.printASTWindows(c)
	if len(c.Orders) > 0 {
		_, _ = fmt.Fprintf(s.out, "  ORDER:  %s\n", summarizeAll(c.Orders))
	}
	if c.Limit != nil {
		_, _ = fmt.Fprintf(s.out, "  LIMIT:  %s\n", nodeSummary(c.Limit))
	}
	if c.Offset != nil {
		_, _ = fmt.Fprintf(s.out, "  OFFSET: %s\n", nodeSummary(c.Offset))
	}

	_, _ = fmt.Fprintf(s.out, "  Window refs: %s\n", s.refs)
	if s.parameterize {
		_, _ = fmt.Fprintln(s.out, "  Parameterize: on")
	}
	if s.conn != nil {
		_, _ = fmt.Fprintf(s.out, "  Connected: %s (%s)\n", sanitizeDSN(s.conn.dsn), s.conn.engine())
	}
	return nil
}

// printASTWindows lists attached windows, then windows referenced by OVER
// but not attached.
func (s *Session) printASTWindows(c *nodes.SelectCore) {
	attached := make(map[*nodes.Window]bool, len(c.Windows))
	for _, w := range c.Windows {
		attached[w] = true
		_, _ = fmt.Fprintf(s.out, "  WINDOW: %s\n", windowChain(w))
	}
	for _, w := range plugins.CollectWindowRefs(c) {
		if !attached[w] {
			_, _ = fmt.Fprintf(s.out, "  OVER:   %s (not attached)\n", windowChain(w))
		}
	}
}

// windowChain renders w's base chain as "root <- ... <- w".
func windowChain(w *nodes.Window) string {
	chain := plugins.BaseChain(w)
	names := make([]string, len(chain))
	for i, b := range chain {
		names[i] = b.Name()
	}
	return strings.Join(names, " <- ")
}

func summarizeAll(ns []nodes.Node) string {
	names := make([]string, len(ns))
	for i, n := range ns {
		names[i] = nodeSummary(n)
	}
	return strings.Join(names, ", ")
}

// nodeSummary returns a concise human-readable label for a node.
func nodeSummary(n nodes.Node) string {
	switch v := n.(type) {
	case *nodes.Table:
		return v.Name
	case *nodes.Attribute:
		return nodeSummary(v.Relation) + "." + v.Name
	case *nodes.StarNode:
		if v.Table != nil {
			return v.Table.Name + ".*"
		}
		return "*"
	case *nodes.LiteralNode:
		return fmt.Sprintf("%v", v.Value)
	case *nodes.SqlLiteral:
		return v.Raw
	case *nodes.NamedFunctionNode:
		return v.Name + "(...)"
	case *nodes.AggregateNode, *nodes.WindowFuncNode:
		return n.Accept(visitors.NewPostgresVisitor(visitors.WithoutParams()))
	case *nodes.OverNode:
		return nodeSummary(v.Expr) + " OVER " + v.Window.Name()
	case *nodes.AliasNode:
		return nodeSummary(v.Expr) + " AS " + v.Name
	case *nodes.OrderingNode:
		dir := "ASC"
		if v.Direction == nodes.Desc {
			dir = "DESC"
		}
		switch v.Nulls {
		case nodes.NullsFirst:
			dir += " NULLS FIRST"
		case nodes.NullsLast:
			dir += " NULLS LAST"
		}
		return nodeSummary(v.Expr) + " " + dir
	default:
		return fmt.Sprintf("%T", n)
	}
}
