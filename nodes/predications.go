package nodes

// ComparisonOp represents a binary comparison operator.
type ComparisonOp int

const (
	OpEq ComparisonOp = iota
	OpNotEq
	OpGt
	OpGtEq
	OpLt
	OpLtEq
	OpLike
)

// ComparisonNode represents a binary comparison: Left Op Right.
type ComparisonNode struct {
	Combinable
	Left  Node
	Right Node
	Op    ComparisonOp
}

func (n *ComparisonNode) Accept(v Visitor) string { return v.VisitComparison(n) }

// NewComparisonNode creates a ComparisonNode usable in And/Or chains.
func NewComparisonNode(left, right Node, op ComparisonOp) *ComparisonNode {
	n := &ComparisonNode{Left: left, Right: right, Op: op}
	n.self = n
	return n
}

// Predications provides comparison, aliasing and ordering helpers to the
// node that embeds it. self must point at the embedding node.
type Predications struct {
	self Node
}

func (p Predications) compare(op ComparisonOp, val any) *ComparisonNode {
	return NewComparisonNode(p.self, Literal(val), op)
}

// Eq creates an equality comparison: self = val.
func (p Predications) Eq(val any) *ComparisonNode { return p.compare(OpEq, val) }

// NotEq creates an inequality comparison: self != val.
func (p Predications) NotEq(val any) *ComparisonNode { return p.compare(OpNotEq, val) }

// Gt creates a greater-than comparison: self > val.
func (p Predications) Gt(val any) *ComparisonNode { return p.compare(OpGt, val) }

// GtEq creates a greater-than-or-equal comparison: self >= val.
func (p Predications) GtEq(val any) *ComparisonNode { return p.compare(OpGtEq, val) }

// Lt creates a less-than comparison: self < val.
func (p Predications) Lt(val any) *ComparisonNode { return p.compare(OpLt, val) }

// LtEq creates a less-than-or-equal comparison: self <= val.
func (p Predications) LtEq(val any) *ComparisonNode { return p.compare(OpLtEq, val) }

// Like creates a LIKE comparison: self LIKE val.
func (p Predications) Like(val any) *ComparisonNode { return p.compare(OpLike, val) }

// As labels the expression: self AS "name".
func (p Predications) As(name string) *AliasNode {
	return &AliasNode{Expr: p.self, Name: name}
}

// Asc orders by self ascending.
func (p Predications) Asc() *OrderingNode {
	return &OrderingNode{Expr: p.self, Direction: Asc}
}

// Desc orders by self descending.
func (p Predications) Desc() *OrderingNode {
	return &OrderingNode{Expr: p.self, Direction: Desc}
}
