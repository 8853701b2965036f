package nodes

import (
	"slices"
	"strings"

	"github.com/bawdo/sqlwindow/internal/quoting"
)

// FrameExclusion is the EXCLUDE option of a window frame.
// The zero value means no EXCLUDE clause.
type FrameExclusion int

const (
	ExcludeCurrentRow FrameExclusion = iota + 1
	ExcludeGroup
	ExcludeTies
	ExcludeNoOthers
)

var frameExclusionSQL = [...]string{
	ExcludeCurrentRow: "CURRENT ROW",
	ExcludeGroup:      "GROUP",
	ExcludeTies:       "TIES",
	ExcludeNoOthers:   "NO OTHERS",
}

// String returns the SQL text following EXCLUDE, or "" for an unknown value.
func (e FrameExclusion) String() string {
	if !e.valid() {
		return ""
	}
	return frameExclusionSQL[e]
}

func (e FrameExclusion) valid() bool {
	return e >= ExcludeCurrentRow && e <= ExcludeNoOthers
}

// ParseFrameExclusion parses "current row", "CURRENT_ROW", "no others", etc.
func ParseFrameExclusion(s string) (FrameExclusion, error) {
	norm := strings.ToUpper(strings.Join(strings.Fields(strings.ReplaceAll(s, "_", " ")), " "))
	for e := ExcludeCurrentRow; e <= ExcludeNoOthers; e++ {
		if frameExclusionSQL[e] == norm {
			return e, nil
		}
	}
	return 0, invalidArgument("unknown frame exclusion %q", s)
}

// Window is a named window definition, rendered in a WINDOW clause as
// name AS ([base] [PARTITION BY ...] [ORDER BY ...] [frame]).
//
// A Window is immutable once built by NewWindow, so the same value can be
// attached to several statements and referenced by later windows.
type Window struct {
	name        string
	base        *Window
	partitionBy []Node
	orderBy     []Node
	frame       *Frame
	exclude     FrameExclusion
}

func (w *Window) Accept(v Visitor) string { return v.VisitWindow(w) }

// Name returns the window name.
func (w *Window) Name() string { return w.name }

// Base returns the window this one is based on, or nil.
func (w *Window) Base() *Window { return w.base }

// PartitionBy returns a copy of the PARTITION BY expressions.
func (w *Window) PartitionBy() []Node { return slices.Clone(w.partitionBy) }

// OrderBy returns a copy of the ORDER BY expressions.
func (w *Window) OrderBy() []Node { return slices.Clone(w.orderBy) }

// Frame returns the frame clause and whether one is set.
func (w *Window) Frame() (Frame, bool) {
	if w.frame == nil {
		return Frame{}, false
	}
	return *w.frame, true
}

// Exclude returns the EXCLUDE option; zero when unset.
func (w *Window) Exclude() FrameExclusion { return w.exclude }

// OverSelf wraps fn so that it renders as fn OVER <this window>.
func (w *Window) OverSelf(fn Node) *OverNode {
	return OverWindow(fn, w)
}

// WindowOption configures a window built by NewWindow.
type WindowOption func(*windowConfig)

type windowConfig struct {
	base        *Window
	partitionBy []Node
	orderBy     []Node
	frames      map[FrameKind]any
	exclude     FrameExclusion
}

// BasedOn makes the new window extend base. base is referenced by name in
// the rendered SQL, so it must be attached to the statement first.
func BasedOn(base *Window) WindowOption {
	return func(c *windowConfig) { c.base = base }
}

// PartitionBy sets the PARTITION BY expressions.
func PartitionBy(exprs ...Node) WindowOption {
	return func(c *windowConfig) { c.partitionBy = append([]Node{}, exprs...) }
}

// OrderBy sets the ORDER BY expressions (OrderingNode values or plain
// expressions).
func OrderBy(exprs ...Node) WindowOption {
	return func(c *windowConfig) { c.orderBy = append([]Node{}, exprs...) }
}

// Range sets a RANGE frame. See NormalizeFrame for accepted specs; a nil
// spec leaves the frame unset.
func Range(spec any) WindowOption { return frameOption(FrameRange, spec) }

// Rows sets a ROWS frame.
func Rows(spec any) WindowOption { return frameOption(FrameRows, spec) }

// Groups sets a GROUPS frame.
func Groups(spec any) WindowOption { return frameOption(FrameGroups, spec) }

func frameOption(kind FrameKind, spec any) WindowOption {
	return func(c *windowConfig) {
		if spec == nil {
			delete(c.frames, kind)
			return
		}
		if c.frames == nil {
			c.frames = make(map[FrameKind]any)
		}
		c.frames[kind] = spec
	}
}

// Exclude sets the EXCLUDE option of the frame. It is only rendered when a
// frame is set.
func Exclude(e FrameExclusion) WindowOption {
	return func(c *windowConfig) { c.exclude = e }
}

// NewWindow validates the options and builds a named window. Every failure
// wraps ErrInvalidArgument.
//
// A window based on another may not set PARTITION BY and may set ORDER BY
// only when the base has none. Basing a window on one with a frame is
// accepted here; PostgreSQL rejects it, and windowrefs reports it.
func NewWindow(name string, opts ...WindowOption) (*Window, error) {
	if !quoting.IsBareIdentifier(name) {
		return nil, invalidArgument("window name %q is not a plain identifier", name)
	}

	var c windowConfig
	for _, o := range opts {
		o(&c)
	}

	w := &Window{name: name, base: c.base}

	if c.partitionBy != nil {
		if c.base != nil {
			return nil, invalidArgument("cannot override PARTITION BY clause of window %q", c.base.name)
		}
		w.partitionBy = c.partitionBy
	}

	if c.orderBy != nil {
		if c.base != nil && c.base.orderBy != nil {
			return nil, invalidArgument("cannot override ORDER BY clause of window %q", c.base.name)
		}
		w.orderBy = c.orderBy
	}

	if len(c.frames) > 1 {
		return nil, invalidArgument("range, rows and groups are mutually exclusive")
	}
	for _, kind := range []FrameKind{FrameRange, FrameRows, FrameGroups} {
		spec, ok := c.frames[kind]
		if !ok {
			continue
		}
		lower, upper, err := NormalizeFrame(spec)
		if err != nil {
			return nil, err
		}
		w.frame = &Frame{Kind: kind, Lower: lower, Upper: upper}
	}

	if c.exclude != 0 && !c.exclude.valid() {
		return nil, invalidArgument("exclude must be one of CURRENT ROW, GROUP, TIES, NO OTHERS, got %d", int(c.exclude))
	}
	w.exclude = c.exclude

	return w, nil
}

// MustWindow is like NewWindow but panics on invalid options.
func MustWindow(name string, opts ...WindowOption) *Window {
	w, err := NewWindow(name, opts...)
	if err != nil {
		panic("sqlwindow: " + err.Error())
	}
	return w
}

// OverNode is a function call evaluated over a named window:
// <function> OVER <window name>.
type OverNode struct {
	Predications
	Combinable
	Expr   Node
	Window *Window
}

func (n *OverNode) Accept(v Visitor) string { return v.VisitOver(n) }

// OverWindow wraps fn with a reference to w. Only w's name is rendered; the
// caller attaches w to the enclosing statement. Panics if w is nil.
func OverWindow(fn Node, w *Window) *OverNode {
	if w == nil {
		panic("sqlwindow: OverWindow requires a window")
	}
	o := &OverNode{Expr: fn, Window: w}
	o.Predications.self = o
	o.Combinable.self = o
	return o
}
