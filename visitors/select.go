package visitors

import (
	"strings"

	"github.com/bawdo/sqlwindow/nodes"
)

// clauseEmitter writes one sub-clause of a SELECT statement, including its
// leading clause break, or nothing when the clause is absent.
type clauseEmitter struct {
	name string
	emit func(b *baseVisitor, sb *strings.Builder, n *nodes.SelectCore)
}

// defaultSelectClauses returns the SELECT rendering pipeline. WINDOW sits
// between HAVING and ORDER BY.
func defaultSelectClauses() []clauseEmitter {
	return []clauseEmitter{
		{"comment", emitComment},
		{"select", emitSelect},
		{"projections", emitProjections},
		{"from", emitFrom},
		{"joins", emitJoins},
		{"where", listEmitter("WHERE ", " AND ", func(n *nodes.SelectCore) []nodes.Node { return n.Wheres })},
		{"group", listEmitter("GROUP BY ", ", ", func(n *nodes.SelectCore) []nodes.Node { return n.Groups })},
		{"having", listEmitter("HAVING ", " AND ", func(n *nodes.SelectCore) []nodes.Node { return n.Havings })},
		{"window", emitWindows},
		{"order", listEmitter("ORDER BY ", ", ", func(n *nodes.SelectCore) []nodes.Node { return n.Orders })},
		{"limit", nodeEmitter("LIMIT ", func(n *nodes.SelectCore) nodes.Node { return n.Limit })},
		{"offset", nodeEmitter("OFFSET ", func(n *nodes.SelectCore) nodes.Node { return n.Offset })},
		{"lock", emitLock},
	}
}

func (b *baseVisitor) VisitSelectCore(n *nodes.SelectCore) string {
	var sb strings.Builder
	for _, c := range b.selectClauses {
		c.emit(b, &sb, n)
	}
	return sb.String()
}

// listEmitter writes "keyword item1 sep item2 ..." when the list is non-empty.
func listEmitter(keyword, sep string, items func(*nodes.SelectCore) []nodes.Node) func(*baseVisitor, *strings.Builder, *nodes.SelectCore) {
	return func(b *baseVisitor, sb *strings.Builder, n *nodes.SelectCore) {
		list := items(n)
		if len(list) == 0 {
			return
		}
		sb.WriteString(b.clauseBreak)
		sb.WriteString(keyword)
		sb.WriteString(b.acceptAll(list, sep))
	}
}

// nodeEmitter writes "keyword node" when the node is set.
func nodeEmitter(keyword string, item func(*nodes.SelectCore) nodes.Node) func(*baseVisitor, *strings.Builder, *nodes.SelectCore) {
	return func(b *baseVisitor, sb *strings.Builder, n *nodes.SelectCore) {
		node := item(n)
		if node == nil {
			return
		}
		sb.WriteString(b.clauseBreak)
		sb.WriteString(keyword)
		sb.WriteString(node.Accept(b.outer))
	}
}

func emitComment(b *baseVisitor, sb *strings.Builder, n *nodes.SelectCore) {
	if n.Comment == "" {
		return
	}
	sb.WriteString("/* ")
	sb.WriteString(strings.ReplaceAll(n.Comment, "*/", "* /"))
	sb.WriteString(" */")
	sb.WriteString(b.clauseBreak)
}

func emitSelect(_ *baseVisitor, sb *strings.Builder, n *nodes.SelectCore) {
	sb.WriteString("SELECT ")
	if n.Distinct {
		sb.WriteString("DISTINCT ")
	}
}

func emitProjections(b *baseVisitor, sb *strings.Builder, n *nodes.SelectCore) {
	if len(n.Projections) == 0 {
		sb.WriteString("*")
		return
	}
	sb.WriteString(b.acceptAll(n.Projections, ", "))
}

func emitFrom(b *baseVisitor, sb *strings.Builder, n *nodes.SelectCore) {
	if n.From == nil {
		return
	}
	sb.WriteString(b.clauseBreak)
	sb.WriteString("FROM ")
	sb.WriteString(n.From.Accept(b.outer))
}

func emitJoins(b *baseVisitor, sb *strings.Builder, n *nodes.SelectCore) {
	for _, j := range n.Joins {
		sb.WriteString(b.clauseBreak)
		sb.WriteString(j.Accept(b.outer))
	}
}

// emitWindows writes the WINDOW clause in attachment order.
func emitWindows(b *baseVisitor, sb *strings.Builder, n *nodes.SelectCore) {
	if len(n.Windows) == 0 {
		return
	}
	sb.WriteString(b.clauseBreak)
	sb.WriteString("WINDOW ")
	for i, w := range n.Windows {
		if i > 0 {
			sb.WriteString(b.windowSep)
		}
		sb.WriteString(w.Accept(b.outer))
	}
}

func emitLock(b *baseVisitor, sb *strings.Builder, n *nodes.SelectCore) {
	if n.Lock == nodes.NoLock {
		return
	}
	sb.WriteString(b.clauseBreak)
	sb.WriteString(n.Lock.String())
}
