package visitors

import (
	"strconv"
	"strings"

	"github.com/bawdo/sqlwindow/nodes"
)

// VisitWindow renders a WINDOW clause entry:
// name AS ([base] [PARTITION BY ...] [ORDER BY ...] [frame [EXCLUDE ...]]).
func (b *baseVisitor) VisitWindow(w *nodes.Window) string {
	var parts []string
	if base := w.Base(); base != nil {
		parts = append(parts, base.Name())
	}
	if p := w.PartitionBy(); len(p) > 0 {
		parts = append(parts, "PARTITION BY "+b.acceptAll(p, ", "))
	}
	if o := w.OrderBy(); len(o) > 0 {
		parts = append(parts, "ORDER BY "+b.acceptAll(o, ", "))
	}
	if f, ok := w.Frame(); ok {
		frame := renderFrame(f)
		if x := w.Exclude(); x != 0 {
			frame += " EXCLUDE " + x.String()
		}
		parts = append(parts, frame)
	}
	return w.Name() + " AS (" + strings.Join(parts, " ") + ")"
}

// VisitOver renders fn OVER name. Only the window's name is written.
func (b *baseVisitor) VisitOver(n *nodes.OverNode) string {
	return n.Expr.Accept(b.outer) + " OVER " + n.Window.Name()
}

// renderFrame renders <KIND> BETWEEN <lower> AND <upper>.
func renderFrame(f nodes.Frame) string {
	return f.Kind.String() + " BETWEEN " +
		renderBound(f.Lower, "PRECEDING") + " AND " +
		renderBound(f.Upper, "FOLLOWING")
}

// renderBound renders one normalized bound. unboundedSide is the direction
// written for an unbounded bound on this side of the frame.
func renderBound(fb nodes.FrameBound, unboundedSide string) string {
	switch fb.Type {
	case nodes.BoundUnbounded:
		return "UNBOUNDED " + unboundedSide
	case nodes.BoundCurrentRow:
		return "CURRENT ROW"
	}
	// Trimming the sign avoids overflow when negating math.MinInt.
	magnitude := strings.TrimPrefix(strconv.Itoa(fb.Offset), "-")
	if fb.Offset < 0 {
		return magnitude + " PRECEDING"
	}
	return magnitude + " FOLLOWING"
}
