package plugins

import "github.com/bawdo/sqlwindow/nodes"

// CollectWindowRefs returns the windows referenced by OVER expressions in
// the projections, WHERE, HAVING and ORDER BY lists, in first-seen order.
// Each window appears once.
func CollectWindowRefs(core *nodes.SelectCore) []*nodes.Window {
	c := &refCollector{seen: make(map[*nodes.Window]bool)}
	for _, list := range [][]nodes.Node{core.Projections, core.Wheres, core.Havings, core.Orders} {
		for _, n := range list {
			c.walk(n)
		}
	}
	return c.refs
}

// BaseChain returns w preceded by every window it is based on, root first.
func BaseChain(w *nodes.Window) []*nodes.Window {
	var chain []*nodes.Window
	for cur := w; cur != nil; cur = cur.Base() {
		chain = append([]*nodes.Window{cur}, chain...)
	}
	return chain
}

type refCollector struct {
	seen map[*nodes.Window]bool
	refs []*nodes.Window
}

func (c *refCollector) walk(n nodes.Node) {
	switch v := n.(type) {
	case *nodes.OverNode:
		if !c.seen[v.Window] {
			c.seen[v.Window] = true
			c.refs = append(c.refs, v.Window)
		}
		c.walk(v.Expr)
	case *nodes.AliasNode:
		c.walk(v.Expr)
	case *nodes.OrderingNode:
		c.walk(v.Expr)
	case *nodes.ComparisonNode:
		c.walk(v.Left)
		c.walk(v.Right)
	case *nodes.AndNode:
		c.walk(v.Left)
		c.walk(v.Right)
	case *nodes.OrNode:
		c.walk(v.Left)
		c.walk(v.Right)
	case *nodes.NotNode:
		c.walk(v.Expr)
	case *nodes.GroupingNode:
		c.walk(v.Expr)
	case *nodes.NamedFunctionNode:
		for _, a := range v.Args {
			c.walk(a)
		}
	case *nodes.AggregateNode:
		if v.Expr != nil {
			c.walk(v.Expr)
		}
	case *nodes.WindowFuncNode:
		for _, a := range v.Args {
			c.walk(a)
		}
	}
}
