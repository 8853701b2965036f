package managers

import (
	"fmt"
	"slices"

	"github.com/bawdo/sqlwindow/nodes"
	"github.com/bawdo/sqlwindow/plugins"
)

// treeManager owns the transformer pipeline that runs on a copy of the
// SelectCore before it is rendered.
type treeManager struct {
	transformers []plugins.Transformer
}

func (tm *treeManager) addTransformer(t plugins.Transformer) {
	if t == nil {
		panic("sqlwindow: Use requires a non-nil transformer")
	}
	tm.transformers = append(slices.Clip(tm.transformers), t)
}

// Transformers returns a copy of the registered pipeline, in order.
func (tm *treeManager) Transformers() []plugins.Transformer {
	return slices.Clone(tm.transformers)
}

// transform runs every transformer over core in registration order. A
// transformer returning a nil core is a bug in the transformer.
func (tm *treeManager) transform(core *nodes.SelectCore) (*nodes.SelectCore, error) {
	for i, t := range tm.transformers {
		next, err := t.TransformSelect(core)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, fmt.Errorf("sqlwindow: transformer %d (%T) returned no select core", i, t)
		}
		core = next
	}
	return core, nil
}

// render resets v's collected parameters, if it keeps any, so that the
// returned params belong to this rendering only.
func render(v nodes.Visitor, generate func(nodes.Visitor) (string, error)) (string, []any, error) {
	p, ok := v.(nodes.Parameterizer)
	if ok {
		p.Reset()
	}
	sql, err := generate(v)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return sql, nil, nil
	}
	return sql, p.Params(), nil
}
