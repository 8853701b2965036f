// Package sqlwindow builds SELECT statements with reusable named windows:
// a WINDOW clause of named definitions and function calls that reference
// them with OVER <name>.
//
// This package re-exports commonly used types and functions from subpackages
// for convenience. Advanced users can import subpackages directly:
//   - github.com/bawdo/sqlwindow/managers (query builder)
//   - github.com/bawdo/sqlwindow/nodes (AST nodes, windows, frames)
//   - github.com/bawdo/sqlwindow/visitors (SQL generation)
//   - github.com/bawdo/sqlwindow/plugins (query transformers)
package sqlwindow

import (
	"github.com/bawdo/sqlwindow/managers"
	"github.com/bawdo/sqlwindow/nodes"
	"github.com/bawdo/sqlwindow/visitors"
)

// --- Manager ---

// SelectManager provides a fluent API for building SELECT queries.
type SelectManager = managers.SelectManager

// NewSelect creates a new SelectManager with the given table as FROM.
func NewSelect(from nodes.Node) *managers.SelectManager {
	return managers.NewSelectManager(from)
}

// --- Core Node Types ---

// Node is the base interface all AST nodes implement.
type Node = nodes.Node

// Table represents a SQL table reference.
type Table = nodes.Table

// NewTable creates a new table reference.
func NewTable(name string) *nodes.Table {
	return nodes.NewTable(name)
}

// Literal creates a SQL literal node (e.g., numbers, strings).
func Literal(value any) nodes.Node {
	return nodes.Literal(value)
}

// BindParam creates a parameterised placeholder ($1, $2, ...).
func BindParam(value any) *nodes.BindParamNode {
	return nodes.NewBindParam(value)
}

// Raw injects a SQL fragment verbatim, e.g. an unqualified column.
// Never pass user-controlled input.
func Raw(sql string) *nodes.SqlLiteral {
	return nodes.NewSqlLiteral(sql)
}

// Func calls a function by name: Func("first_value", price).
func Func(name string, args ...nodes.Node) *nodes.NamedFunctionNode {
	return nodes.NewNamedFunction(name, args...)
}

// --- Windows ---

// Window is an immutable named window definition.
type Window = nodes.Window

// WindowOption configures NewWindow.
type WindowOption = nodes.WindowOption

// Span is a frame spec: Span{-3, 2} is BETWEEN 3 PRECEDING AND 2 FOLLOWING.
type Span = nodes.Span

// FrameExclusion is the EXCLUDE option of a window frame.
type FrameExclusion = nodes.FrameExclusion

// ErrInvalidArgument is wrapped by every window construction error.
var ErrInvalidArgument = nodes.ErrInvalidArgument

// Frame exclusions.
const (
	ExcludeCurrentRow = nodes.ExcludeCurrentRow
	ExcludeGroup      = nodes.ExcludeGroup
	ExcludeTies       = nodes.ExcludeTies
	ExcludeNoOthers   = nodes.ExcludeNoOthers
)

// ParseFrameExclusion parses "current row", "CURRENT_ROW", "no others", etc.
func ParseFrameExclusion(s string) (nodes.FrameExclusion, error) {
	return nodes.ParseFrameExclusion(s)
}

// NewWindow validates opts and builds a named window.
func NewWindow(name string, opts ...nodes.WindowOption) (*nodes.Window, error) {
	return nodes.NewWindow(name, opts...)
}

// MustWindow is like NewWindow but panics on invalid options.
func MustWindow(name string, opts ...nodes.WindowOption) *nodes.Window {
	return nodes.MustWindow(name, opts...)
}

// Over renders fn OVER w.Name().
func Over(fn nodes.Node, w *nodes.Window) *nodes.OverNode {
	return nodes.OverWindow(fn, w)
}

func BasedOn(base *nodes.Window) nodes.WindowOption      { return nodes.BasedOn(base) }
func PartitionBy(exprs ...nodes.Node) nodes.WindowOption { return nodes.PartitionBy(exprs...) }
func OrderBy(exprs ...nodes.Node) nodes.WindowOption     { return nodes.OrderBy(exprs...) }
func Range(spec any) nodes.WindowOption                  { return nodes.Range(spec) }
func Rows(spec any) nodes.WindowOption                   { return nodes.Rows(spec) }
func Groups(spec any) nodes.WindowOption                 { return nodes.Groups(spec) }
func Exclude(e nodes.FrameExclusion) nodes.WindowOption  { return nodes.Exclude(e) }

// --- Aggregate and Window Functions ---

// Count creates a COUNT(expr) aggregate. Pass nil for COUNT(*).
func Count(expr nodes.Node) *nodes.AggregateNode { return nodes.Count(expr) }

// Sum creates a SUM(expr) aggregate.
func Sum(expr nodes.Node) *nodes.AggregateNode { return nodes.Sum(expr) }

// Avg creates an AVG(expr) aggregate.
func Avg(expr nodes.Node) *nodes.AggregateNode { return nodes.Avg(expr) }

// Min creates a MIN(expr) aggregate.
func Min(expr nodes.Node) *nodes.AggregateNode { return nodes.Min(expr) }

// Max creates a MAX(expr) aggregate.
func Max(expr nodes.Node) *nodes.AggregateNode { return nodes.Max(expr) }

func RowNumber() *nodes.WindowFuncNode { return nodes.RowNumber() }
func Rank() *nodes.WindowFuncNode      { return nodes.Rank() }
func DenseRank() *nodes.WindowFuncNode { return nodes.DenseRank() }

// --- Visitors ---

// PostgresVisitor generates PostgreSQL SQL.
type PostgresVisitor = visitors.PostgresVisitor

// NewPostgresVisitor creates a PostgreSQL visitor. Parameterized by default.
func NewPostgresVisitor(opts ...visitors.Option) *visitors.PostgresVisitor {
	return visitors.NewPostgresVisitor(opts...)
}

// WithoutParams inlines literal values instead of binding them.
func WithoutParams() visitors.Option { return visitors.WithoutParams() }

// WithMultiline renders each clause on its own line.
func WithMultiline() visitors.Option { return visitors.WithMultiline() }
