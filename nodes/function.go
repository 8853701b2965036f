package nodes

// NamedFunctionNode is a function call rendered with its name verbatim,
// e.g. first_value(price) or COALESCE(a, b).
type NamedFunctionNode struct {
	Predications
	Combinable
	Name     string
	Args     []Node
	Distinct bool
}

func (n *NamedFunctionNode) Accept(v Visitor) string { return v.VisitNamedFunction(n) }

// NewNamedFunction creates a call to the function name with args.
func NewNamedFunction(name string, args ...Node) *NamedFunctionNode {
	n := &NamedFunctionNode{Name: name, Args: args}
	n.Predications.self = n
	n.Combinable.self = n
	return n
}

// Over references the named window w: name(args) OVER w.
func (n *NamedFunctionNode) Over(w *Window) *OverNode {
	return OverWindow(n, w)
}

// AggregateFunc identifies the aggregate function.
type AggregateFunc int

const (
	AggCount AggregateFunc = iota
	AggSum
	AggAvg
	AggMin
	AggMax
)

// AggregateNode represents COUNT, SUM, AVG, MIN or MAX.
type AggregateNode struct {
	Predications
	Combinable
	Func     AggregateFunc
	Expr     Node // nil for COUNT(*)
	Distinct bool
}

func (n *AggregateNode) Accept(v Visitor) string { return v.VisitAggregate(n) }

func newAggregate(fn AggregateFunc, expr Node) *AggregateNode {
	n := &AggregateNode{Func: fn, Expr: expr}
	n.Predications.self = n
	n.Combinable.self = n
	return n
}

// Count creates a COUNT aggregate. Pass nil for COUNT(*).
func Count(expr Node) *AggregateNode { return newAggregate(AggCount, expr) }

// Sum creates a SUM aggregate.
func Sum(expr Node) *AggregateNode { return newAggregate(AggSum, expr) }

// Avg creates an AVG aggregate.
func Avg(expr Node) *AggregateNode { return newAggregate(AggAvg, expr) }

// Min creates a MIN aggregate.
func Min(expr Node) *AggregateNode { return newAggregate(AggMin, expr) }

// Max creates a MAX aggregate.
func Max(expr Node) *AggregateNode { return newAggregate(AggMax, expr) }

// CountDistinct creates a COUNT(DISTINCT expr) aggregate.
func CountDistinct(expr Node) *AggregateNode {
	n := newAggregate(AggCount, expr)
	n.Distinct = true
	return n
}

// Over references the named window w.
func (n *AggregateNode) Over(w *Window) *OverNode {
	return OverWindow(n, w)
}

// WindowFunc identifies a built-in window function.
type WindowFunc int

const (
	WinRowNumber WindowFunc = iota
	WinRank
	WinDenseRank
	WinNtile
	WinLag
	WinLead
	WinFirstValue
	WinLastValue
	WinNthValue
	WinCumeDist
	WinPercentRank
)

// WindowFuncNode represents a window function call such as ROW_NUMBER().
// It only makes sense wrapped in an OverNode.
type WindowFuncNode struct {
	Func WindowFunc
	Args []Node
}

func (n *WindowFuncNode) Accept(v Visitor) string { return v.VisitWindowFunction(n) }

// Over references the named window w.
func (n *WindowFuncNode) Over(w *Window) *OverNode {
	return OverWindow(n, w)
}

func RowNumber() *WindowFuncNode   { return &WindowFuncNode{Func: WinRowNumber} }
func Rank() *WindowFuncNode        { return &WindowFuncNode{Func: WinRank} }
func DenseRank() *WindowFuncNode   { return &WindowFuncNode{Func: WinDenseRank} }
func CumeDist() *WindowFuncNode    { return &WindowFuncNode{Func: WinCumeDist} }
func PercentRank() *WindowFuncNode { return &WindowFuncNode{Func: WinPercentRank} }

// Ntile creates NTILE(n).
func Ntile(n Node) *WindowFuncNode {
	return &WindowFuncNode{Func: WinNtile, Args: []Node{n}}
}

// FirstValue creates FIRST_VALUE(expr).
func FirstValue(expr Node) *WindowFuncNode {
	return &WindowFuncNode{Func: WinFirstValue, Args: []Node{expr}}
}

// LastValue creates LAST_VALUE(expr).
func LastValue(expr Node) *WindowFuncNode {
	return &WindowFuncNode{Func: WinLastValue, Args: []Node{expr}}
}

// Lag creates LAG(expr [, offset [, default]]).
func Lag(args ...Node) *WindowFuncNode {
	return &WindowFuncNode{Func: WinLag, Args: args}
}

// Lead creates LEAD(expr [, offset [, default]]).
func Lead(args ...Node) *WindowFuncNode {
	return &WindowFuncNode{Func: WinLead, Args: args}
}

// NthValue creates NTH_VALUE(expr, n).
func NthValue(expr, n Node) *WindowFuncNode {
	return &WindowFuncNode{Func: WinNthValue, Args: []Node{expr, n}}
}
