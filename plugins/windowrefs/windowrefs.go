// Package windowrefs provides a Transformer that checks the WINDOW clause
// against the windows a query references.
//
// The renderer writes "fn OVER w" using only the window's name, so a query
// that references a window it never attaches renders SQL the database
// rejects. WindowRefs catches that before rendering:
//
//   - every window referenced by an OVER expression must be attached;
//   - every base window must be attached before the windows built on it;
//   - a window name may appear only once in the WINDOW clause;
//   - no window is based on a window that has a frame clause.
//
// # Basic usage
//
//	query := managers.NewSelectManager(trades).
//	    Select(nodes.Sum(trades.Col("qty")).Over(w)).
//	    Window(w).
//	    Use(windowrefs.New())
//
// # Attaching automatically
//
// With AutoAttach, missing windows (and their bases) are appended to the
// WINDOW clause instead of reported, bases are moved ahead of the windows
// built on them and repeated attachments are dropped. A framed base is
// reported in both modes:
//
//	query.Use(windowrefs.New(windowrefs.AutoAttach()))
package windowrefs

import (
	"fmt"

	"github.com/bawdo/sqlwindow/nodes"
	"github.com/bawdo/sqlwindow/plugins"
)

// WindowRefs is a Transformer that validates or completes the WINDOW clause.
type WindowRefs struct {
	autoAttach bool
}

// Option configures a WindowRefs transformer.
type Option func(*WindowRefs)

// AutoAttach appends referenced but unattached windows, bases first.
func AutoAttach() Option {
	return func(wr *WindowRefs) { wr.autoAttach = true }
}

// New creates a WindowRefs transformer with the given options.
func New(opts ...Option) *WindowRefs {
	wr := &WindowRefs{}
	for _, o := range opts {
		o(wr)
	}
	return wr
}

// AutoAttaches reports whether missing windows are appended.
func (wr *WindowRefs) AutoAttaches() bool { return wr.autoAttach }

// TransformSelect checks core.Windows. Errors wrap nodes.ErrInvalidArgument.
func (wr *WindowRefs) TransformSelect(core *nodes.SelectCore) (*nodes.SelectCore, error) {
	attached := make(map[string]*nodes.Window, len(core.Windows))
	for _, w := range core.Windows {
		if prev, ok := attached[w.Name()]; ok {
			if prev != w {
				return nil, invalidArgument("window %q is attached twice with different definitions", w.Name())
			}
			if !wr.autoAttach {
				return nil, invalidArgument("window %q is attached twice", w.Name())
			}
		}
		if base := w.Base(); base != nil && attached[base.Name()] != base && !wr.autoAttach {
			return nil, invalidArgument("window %q is based on %q, which is not attached before it", w.Name(), base.Name())
		}
		attached[w.Name()] = w
	}

	if wr.autoAttach {
		var err error
		if core.Windows, err = reorder(core.Windows, attached); err != nil {
			return nil, err
		}
	}

	for _, ref := range plugins.CollectWindowRefs(core) {
		for _, w := range plugins.BaseChain(ref) {
			got, ok := attached[w.Name()]
			switch {
			case ok && got != w:
				return nil, invalidArgument("window %q is referenced but a different definition is attached", w.Name())
			case ok:
			case wr.autoAttach:
				core.Windows = append(core.Windows, w)
				attached[w.Name()] = w
			default:
				return nil, invalidArgument("window %q is referenced but not attached", w.Name())
			}
		}
	}

	for _, w := range core.Windows {
		if base := w.Base(); base != nil {
			if _, framed := base.Frame(); framed {
				return nil, invalidArgument("window %q cannot be based on %q because it has a frame clause", w.Name(), base.Name())
			}
		}
	}
	return core, nil
}

// reorder returns windows with every attached window's bases placed before
// it, keeping the original order otherwise. Missing bases are added.
func reorder(windows []*nodes.Window, attached map[string]*nodes.Window) ([]*nodes.Window, error) {
	placed := make(map[*nodes.Window]bool, len(windows))
	out := make([]*nodes.Window, 0, len(windows))
	for _, w := range windows {
		for _, cw := range plugins.BaseChain(w) {
			if placed[cw] {
				continue
			}
			if got, ok := attached[cw.Name()]; ok && got != cw {
				return nil, invalidArgument("window %q is based on a different definition of %q than the one attached", w.Name(), cw.Name())
			}
			attached[cw.Name()] = cw
			placed[cw] = true
			out = append(out, cw)
		}
	}
	return out, nil
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", nodes.ErrInvalidArgument, fmt.Sprintf(format, args...))
}
