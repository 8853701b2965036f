// Package managers provides the fluent SELECT builder.
package managers

import (
	"slices"

	"github.com/bawdo/sqlwindow/nodes"
	"github.com/bawdo/sqlwindow/plugins"
)

// SelectManager provides a fluent API for building SELECT queries with
// named windows. It wraps a SelectCore and applies transformer plugins
// before SQL generation.
//
// Builder methods mutate the manager in place and return it for chaining.
// Use Clone to branch a query.
type SelectManager struct {
	treeManager
	Core *nodes.SelectCore
}

// NewSelectManager creates a new SelectManager with the given table as FROM.
// If from is nil, the FROM clause is left unset.
func NewSelectManager(from nodes.Node) *SelectManager {
	return &SelectManager{
		Core: &nodes.SelectCore{From: from},
	}
}

// Select sets the projection list, replacing any existing projections.
func (m *SelectManager) Select(projections ...nodes.Node) *SelectManager {
	m.Core.Projections = projections
	return m
}

// Distinct enables or disables the DISTINCT modifier on the SELECT clause.
func (m *SelectManager) Distinct(on ...bool) *SelectManager {
	m.Core.Distinct = len(on) == 0 || on[0]
	return m
}

// Where appends one or more conditions to the WHERE clause.
// Multiple calls to Where are combined with AND at the visitor level.
func (m *SelectManager) Where(conditions ...nodes.Node) *SelectManager {
	m.Core.Wheres = append(m.Core.Wheres, conditions...)
	return m
}

// From sets or changes the FROM source.
func (m *SelectManager) From(table nodes.Node) *SelectManager {
	m.Core.From = table
	return m
}

// Join adds a join to the query and returns a JoinContext for specifying
// the ON condition. The default join type is InnerJoin.
func (m *SelectManager) Join(table nodes.Node, joinTypes ...nodes.JoinType) *JoinContext {
	jt := nodes.InnerJoin
	if len(joinTypes) > 0 {
		jt = joinTypes[0]
	}
	join := &nodes.JoinNode{Right: table, Type: jt}
	m.Core.Joins = append(m.Core.Joins, join)
	return &JoinContext{manager: m, join: join}
}

// OuterJoin is a convenience for Join with LeftOuterJoin type.
func (m *SelectManager) OuterJoin(table nodes.Node) *JoinContext {
	return m.Join(table, nodes.LeftOuterJoin)
}

// JoinContext is a join waiting for its ON condition.
type JoinContext struct {
	manager *SelectManager
	join    *nodes.JoinNode
}

// On sets the join condition and hands back the manager.
func (jc *JoinContext) On(condition nodes.Node) *SelectManager {
	jc.join.On = condition
	return jc.manager
}

// Group appends one or more expressions to the GROUP BY clause.
func (m *SelectManager) Group(columns ...nodes.Node) *SelectManager {
	m.Core.Groups = append(m.Core.Groups, columns...)
	return m
}

// Having appends one or more conditions to the HAVING clause.
// Multiple calls to Having are combined with AND at the visitor level.
func (m *SelectManager) Having(conditions ...nodes.Node) *SelectManager {
	m.Core.Havings = append(m.Core.Havings, conditions...)
	return m
}

// Window attaches named window definitions to the WINDOW clause, after any
// already attached. The windows render between HAVING and ORDER BY in
// attachment order. A window based on another must be attached after it.
//
// Window mutates m and returns it. The list is reallocated rather than
// appended in place, so a clone made earlier never sees the new windows.
func (m *SelectManager) Window(windows ...*nodes.Window) *SelectManager {
	for _, w := range windows {
		if w == nil {
			panic("sqlwindow: Window requires non-nil windows")
		}
	}
	m.Core.Windows = append(slices.Clip(m.Core.Windows), windows...)
	return m
}

// Windows returns a copy of the attached windows in attachment order.
func (m *SelectManager) Windows() []*nodes.Window {
	return slices.Clone(m.Core.Windows)
}

// Order appends to the ORDER BY clause. Pass OrderingNode values
// (e.g., table.Col("name").Asc()).
func (m *SelectManager) Order(orderings ...nodes.Node) *SelectManager {
	m.Core.Orders = append(m.Core.Orders, orderings...)
	return m
}

// Limit sets the LIMIT value.
func (m *SelectManager) Limit(n int) *SelectManager {
	m.Core.Limit = nodes.Literal(n)
	return m
}

// Offset sets the OFFSET value.
func (m *SelectManager) Offset(n int) *SelectManager {
	m.Core.Offset = nodes.Literal(n)
	return m
}

// ForUpdate sets the FOR UPDATE lock mode.
func (m *SelectManager) ForUpdate() *SelectManager {
	m.Core.Lock = nodes.ForUpdate
	return m
}

// ForShare sets the FOR SHARE lock mode.
func (m *SelectManager) ForShare() *SelectManager {
	m.Core.Lock = nodes.ForShare
	return m
}

// Comment sets a query comment (rendered as /* ... */).
// Any occurrence of */ in the text is sanitized to prevent comment breakout.
func (m *SelectManager) Comment(text string) *SelectManager {
	m.Core.Comment = text
	return m
}

// Use registers a transformer plugin to be applied before SQL generation.
func (m *SelectManager) Use(t plugins.Transformer) *SelectManager {
	m.addTransformer(t)
	return m
}

// ToSQL runs the transformers on a copy of the core and renders the result.
// params holds the bind values when v collects them. The manager's own core
// is left untouched, so ToSQL can be called repeatedly.
func (m *SelectManager) ToSQL(v nodes.Visitor) (sql string, params []any, err error) {
	return render(v, func(v nodes.Visitor) (string, error) {
		core, err := m.transform(m.CloneCore())
		if err != nil {
			return "", err
		}
		return core.Accept(v), nil
	})
}

// Accept implements the Node interface. It renders the core without
// running transformers.
func (m *SelectManager) Accept(v nodes.Visitor) string {
	return m.Core.Accept(v)
}

// Clone returns an independent manager with a copy of the core and the
// same transformers.
func (m *SelectManager) Clone() *SelectManager {
	return &SelectManager{
		treeManager: treeManager{transformers: slices.Clone(m.transformers)},
		Core:        m.CloneCore(),
	}
}

// CloneCore returns a copy of the SelectCore whose slices do not share
// backing arrays with the original. Nodes and windows are shared; windows
// are immutable.
func (m *SelectManager) CloneCore() *nodes.SelectCore {
	c := *m.Core
	c.Projections = slices.Clone(m.Core.Projections)
	c.Wheres = slices.Clone(m.Core.Wheres)
	c.Joins = slices.Clone(m.Core.Joins)
	c.Groups = slices.Clone(m.Core.Groups)
	c.Havings = slices.Clone(m.Core.Havings)
	c.Windows = slices.Clone(m.Core.Windows)
	c.Orders = slices.Clone(m.Core.Orders)
	return &c
}
