package nodes

// OrderDirection represents ASC or DESC ordering.
type OrderDirection int

const (
	Asc OrderDirection = iota
	Desc
)

// NullsDirection controls NULLS FIRST/LAST positioning.
type NullsDirection int

const (
	NullsDefault NullsDirection = iota
	NullsFirst
	NullsLast
)

// OrderingNode is one sort key: an expression with a direction.
type OrderingNode struct {
	Expr      Node
	Direction OrderDirection
	Nulls     NullsDirection
}

func (n *OrderingNode) Accept(v Visitor) string { return v.VisitOrdering(n) }

// WithNulls returns a copy of the ordering with NULLS FIRST/LAST set.
func (n *OrderingNode) WithNulls(nulls NullsDirection) *OrderingNode {
	return &OrderingNode{Expr: n.Expr, Direction: n.Direction, Nulls: nulls}
}

// AliasNode represents a labelled expression: expr AS "name".
type AliasNode struct {
	Expr Node
	Name string
}

func (n *AliasNode) Accept(v Visitor) string { return v.VisitAlias(n) }
