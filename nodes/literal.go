package nodes

// LiteralNode wraps a raw Go value (string, int, float, bool, etc.) as an AST node.
type LiteralNode struct {
	Predications
	Combinable
	Value any
}

func (n *LiteralNode) Accept(v Visitor) string { return v.VisitLiteral(n) }

// StarNode represents a SQL star (*) or qualified star (table.*).
type StarNode struct {
	Table *Table // nil for unqualified *
}

func (n *StarNode) Accept(v Visitor) string { return v.VisitStar(n) }

// Star returns an unqualified StarNode representing SQL *.
func Star() *StarNode {
	return &StarNode{}
}

// SqlLiteral represents a raw SQL fragment injected verbatim into the query,
// such as an unqualified column name used in a window definition.
//
// SECURITY: Raw is rendered without escaping or parameterization. Never pass
// user-controlled input to NewSqlLiteral.
type SqlLiteral struct {
	Predications
	Combinable
	Raw string
}

func NewSqlLiteral(raw string) *SqlLiteral {
	n := &SqlLiteral{Raw: raw}
	n.Predications.self = n
	n.Combinable.self = n
	return n
}

func (n *SqlLiteral) Accept(v Visitor) string { return v.VisitSqlLiteral(n) }

// BindParamNode is a value that is always sent as a bind parameter when the
// visitor is in parameterized mode.
type BindParamNode struct {
	Value any
}

func (n *BindParamNode) Accept(v Visitor) string { return v.VisitBindParam(n) }

// NewBindParam creates a bind parameter placeholder for value.
func NewBindParam(value any) *BindParamNode {
	return &BindParamNode{Value: value}
}
