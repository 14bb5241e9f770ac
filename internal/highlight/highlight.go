// Package highlight defines the highlighter contract every concrete
// highlighter (simple.*, regexhl.*, region.*) implements, the registry
// factories are looked up from, and the group/chain machinery that
// composes them into the highlighter pipeline a view renders through.
package highlight

import (
	"fmt"

	"github.com/davidaciko/panecore/internal/corectx"
	"github.com/davidaciko/panecore/internal/display"
	"github.com/davidaciko/panecore/internal/face"
)

// Flags tells a highlighter why it is being invoked: to actually paint
// faces (Highlight), or only to let highlighters that affect layout (such
// as tab expansion) run while skipping pure-cosmetic ones, mirroring the
// original's distinction between a full redraw and a cursor-only move.
type Flags uint8

const (
	// FlagHighlight means the highlighter should apply faces.
	FlagHighlight Flags = 1 << iota
	// FlagMoveOnly means only layout-affecting highlighters should act.
	FlagMoveOnly
)

// Has reports whether f contains flag.
func (f Flags) Has(flag Flags) bool { return f&flag != 0 }

// Highlighter mutates a DisplayBuffer in place: splitting atoms, applying
// faces, inserting gutter atoms, or replacing buffer-range atoms with
// synthesized text.
type Highlighter func(ctx corectx.Context, flags Flags, buf *display.DisplayBuffer)

// ConfigError reports a problem parsing or constructing a highlighter from
// its configuration parameters, naming which highlighter kind and
// parameters were at fault.
type ConfigError struct {
	Kind   string
	Params []string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("highlight: %s%v: %v", e.Kind, e.Params, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Factory builds a Highlighter from its configuration parameters, the Go
// equivalent of the original's HighlighterParameters-taking factory
// functions registered per highlighter kind.
type Factory func(params []string) (Highlighter, error)

// Registry maps a highlighter kind name ("fill", "regex", "regions", ...)
// to the Factory that builds it, the counterpart of the original's global
// HighlighterRegistry populated by register_highlighters.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces the factory for kind.
func (r *Registry) Register(kind string, f Factory) {
	r.factories[kind] = f
}

// Build looks up kind's factory and invokes it with params, wrapping any
// error in a ConfigError that names the offending highlighter and
// parameters.
func (r *Registry) Build(kind string, params []string) (Highlighter, error) {
	f, ok := r.factories[kind]
	if !ok {
		return nil, &ConfigError{Kind: kind, Params: params, Err: fmt.Errorf("unknown highlighter kind")}
	}
	h, err := f(params)
	if err != nil {
		return nil, &ConfigError{Kind: kind, Params: params, Err: err}
	}
	return h, nil
}

// ApplyFace returns a function suitable as HighlightRange's callback: it
// merges f onto whatever face the atom already carries, leaving default
// components of f untouched so an earlier highlighter's fg/bg survives
// where f doesn't override it.
func ApplyFace(f face.Face) func(*display.DisplayAtom) {
	return func(atom *display.DisplayAtom) {
		atom.Face = atom.Face.Merge(f)
	}
}

// ReferenceFactory builds the "ref" highlighter: params[0] names another
// group, resolved through resolve, that this highlighter dispatches to
// every time it runs. A path resolve can't find is silently skipped
// rather than an error, mirroring the original's reference_factory not
// treating a dangling reference as fatal.
func ReferenceFactory(resolve func(path string) (Highlighter, bool)) Factory {
	return func(params []string) (Highlighter, error) {
		if len(params) != 1 {
			return nil, fmt.Errorf("wrong parameter count")
		}
		path := params[0]
		return func(ctx corectx.Context, flags Flags, buf *display.DisplayBuffer) {
			if h, ok := resolve(path); ok {
				h(ctx, flags, buf)
			}
		}, nil
	}
}

// entry is one named, enabled-or-not step of a Group's chain.
type entry struct {
	id      string
	h       Highlighter
	enabled bool
}

// Group is an ordered, named chain of highlighters applied in sequence,
// each seeing the display buffer as the previous one left it — the Go
// counterpart of the original's HighlighterGroup. Groups may themselves be
// registered under a name and referenced from another group, letting a
// configuration build out a tree of highlighter groups.
type Group struct {
	entries []entry
}

// NewGroup returns an empty highlighter group.
func NewGroup() *Group { return &Group{} }

// Add appends a named highlighter to the end of the chain.
func (g *Group) Add(id string, h Highlighter) {
	g.entries = append(g.entries, entry{id: id, h: h, enabled: true})
}

// Remove removes the named highlighter, reporting whether it was found.
func (g *Group) Remove(id string) bool {
	for i, e := range g.entries {
		if e.id == id {
			g.entries = append(g.entries[:i], g.entries[i+1:]...)
			return true
		}
	}
	return false
}

// SetEnabled toggles whether the named highlighter runs without removing
// it from the chain, reporting whether it was found.
func (g *Group) SetEnabled(id string, enabled bool) bool {
	for i := range g.entries {
		if g.entries[i].id == id {
			g.entries[i].enabled = enabled
			return true
		}
	}
	return false
}

// Get returns the named highlighter's function, if present.
func (g *Group) Get(id string) (Highlighter, bool) {
	for _, e := range g.entries {
		if e.id == id {
			return e.h, true
		}
	}
	return nil, false
}

// Highlighter returns a Highlighter that runs every enabled entry in
// order against the same DisplayBuffer, so the group itself can be
// registered under another group or passed directly to a renderer.
func (g *Group) Highlighter() Highlighter {
	return func(ctx corectx.Context, flags Flags, buf *display.DisplayBuffer) {
		for _, e := range g.entries {
			if e.enabled {
				e.h(ctx, flags, buf)
			}
		}
	}
}

// Len returns the number of entries (enabled or not) in the group.
func (g *Group) Len() int { return len(g.entries) }
