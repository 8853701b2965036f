package nodes

// LockMode represents row-level locking for SELECT queries.
type LockMode int

const (
	NoLock    LockMode = iota
	ForUpdate          // FOR UPDATE
	ForShare           // FOR SHARE
)

// String returns the SQL keyword for this lock mode.
func (m LockMode) String() string {
	switch m {
	case ForUpdate:
		return "FOR UPDATE"
	case ForShare:
		return "FOR SHARE"
	default:
		return ""
	}
}

// JoinType represents the type of SQL JOIN.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftOuterJoin
)

// String returns the SQL keyword for this join type.
func (t JoinType) String() string {
	if t == LeftOuterJoin {
		return "LEFT OUTER JOIN"
	}
	return "INNER JOIN"
}

// JoinNode represents a SQL JOIN clause.
type JoinNode struct {
	Right Node
	Type  JoinType
	On    Node
}

func (n *JoinNode) Accept(v Visitor) string { return v.VisitJoin(n) }

// SelectCore holds the parts of a SELECT statement. Windows keeps the
// attached named windows in attachment order.
// The fluent API for building queries lives in the managers package.
type SelectCore struct {
	From        Node
	Projections []Node
	Wheres      []Node
	Joins       []*JoinNode
	Groups      []Node    // GROUP BY expressions
	Havings     []Node    // HAVING conditions
	Windows     []*Window // WINDOW definitions
	Orders      []Node    // OrderingNode values
	Limit       Node      // nil or LiteralNode
	Offset      Node      // nil or LiteralNode
	Distinct    bool
	Lock        LockMode
	Comment     string // query comment /* ... */
}

func (n *SelectCore) Accept(v Visitor) string { return v.VisitSelectCore(n) }
