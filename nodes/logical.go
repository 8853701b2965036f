package nodes

// AndNode represents a logical AND between two expressions.
type AndNode struct {
	Combinable
	Left  Node
	Right Node
}

func (n *AndNode) Accept(v Visitor) string { return v.VisitAnd(n) }

// OrNode represents a logical OR between two expressions.
type OrNode struct {
	Combinable
	Left  Node
	Right Node
}

func (n *OrNode) Accept(v Visitor) string { return v.VisitOr(n) }

// NotNode represents a logical NOT of an expression.
type NotNode struct {
	Combinable
	Expr Node
}

func (n *NotNode) Accept(v Visitor) string { return v.VisitNot(n) }

// GroupingNode wraps an expression in parentheses for precedence control.
type GroupingNode struct {
	Combinable
	Expr Node
}

func (n *GroupingNode) Accept(v Visitor) string { return v.VisitGrouping(n) }

// Combinable provides logical chaining methods to types that embed it.
// The self field must be set to the embedding node.
type Combinable struct {
	self Node
}

// And creates an AndNode combining self with other.
func (c Combinable) And(other Node) *AndNode {
	n := &AndNode{Left: c.self, Right: other}
	n.self = n
	return n
}

// Or creates an OrNode wrapped in a GroupingNode for correct precedence.
func (c Combinable) Or(other Node) *GroupingNode {
	or := &OrNode{Left: c.self, Right: other}
	or.self = or
	g := &GroupingNode{Expr: or}
	g.self = g
	return g
}

// Not creates a NotNode negating self.
func (c Combinable) Not() *NotNode {
	n := &NotNode{Expr: c.self}
	n.self = n
	return n
}
