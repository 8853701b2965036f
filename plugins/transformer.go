// Package plugins defines the Transformer interface for AST middleware.
package plugins

import "github.com/bawdo/sqlwindow/nodes"

// Transformer rewrites or validates a SELECT before it is rendered.
// Transformers receive a clone of the statement's core and may modify it.
type Transformer interface {
	TransformSelect(core *nodes.SelectCore) (*nodes.SelectCore, error)
}

// TransformerFunc adapts a plain function to the Transformer interface.
type TransformerFunc func(core *nodes.SelectCore) (*nodes.SelectCore, error)

func (f TransformerFunc) TransformSelect(core *nodes.SelectCore) (*nodes.SelectCore, error) {
	return f(core)
}
