// Package corectx defines the selection model and the Context every
// highlighter factory closes over: the buffer being displayed, its
// options, its selections, and the face registry faces are looked up
// against.
package corectx

import (
	"fmt"

	"github.com/davidaciko/panecore/internal/face"
	"github.com/davidaciko/panecore/internal/option"
	"github.com/davidaciko/panecore/internal/textbuf"
	"github.com/davidaciko/panecore/internal/unit"
)

// Selection is a range of selected text. Anchor is where the selection
// started; Head is the current cursor position, the end that typing and
// extension operate on. When Anchor == Head the selection is a bare
// cursor. Selection is an immutable value type.
type Selection struct {
	Anchor unit.Position
	Head   unit.Position
}

// NewCursor creates a selection representing just a cursor.
func NewCursor(p unit.Position) Selection { return Selection{Anchor: p, Head: p} }

// IsEmpty reports whether the selection has no extent.
func (s Selection) IsEmpty() bool { return s.Anchor.Equal(s.Head) }

// Min returns the lower bound of the selection.
func (s Selection) Min() unit.Position {
	if s.Anchor.LessEq(s.Head) {
		return s.Anchor
	}
	return s.Head
}

// Max returns the upper bound of the selection.
func (s Selection) Max() unit.Position {
	if s.Anchor.GreaterEq(s.Head) {
		return s.Anchor
	}
	return s.Head
}

// Range returns the selection as a half-open [Min, Max) range.
func (s Selection) Range() unit.LineRange {
	return unit.LineRange{Begin: s.Min(), End: s.Max()}
}

// IsForward reports whether the selection extends forward (head >= anchor).
func (s Selection) IsForward() bool { return s.Head.GreaterEq(s.Anchor) }

// Flip swaps anchor and head.
func (s Selection) Flip() Selection { return Selection{Anchor: s.Head, Head: s.Anchor} }

// Normalize returns a forward selection covering the same range.
func (s Selection) Normalize() Selection {
	if s.IsForward() {
		return s
	}
	return s.Flip()
}

// Collapse collapses the selection to a cursor at its head.
func (s Selection) Collapse() Selection { return NewCursor(s.Head) }

// Contains reports whether p falls within [Min, Max).
func (s Selection) Contains(p unit.Position) bool { return s.Range().Contains(p) }

// Overlaps reports whether s and other share any position.
func (s Selection) Overlaps(other Selection) bool {
	return s.Min().Less(other.Max()) && other.Min().Less(s.Max())
}

func (s Selection) String() string {
	if s.IsEmpty() {
		return fmt.Sprintf("cursor(%s)", s.Head)
	}
	arrow := "->"
	if !s.IsForward() {
		arrow = "<-"
	}
	return fmt.Sprintf("selection(%s%s%s)", s.Anchor, arrow, s.Head)
}

// Equals reports whether s and other share anchor and head.
func (s Selection) Equals(other Selection) bool {
	return s.Anchor.Equal(other.Anchor) && s.Head.Equal(other.Head)
}

// SelectionList is the ordered set of selections active in a Context, one
// of which is distinguished as the main selection that most single-target
// operations act on.
type SelectionList struct {
	Selections []Selection
	MainIndex  int
}

// NewSelectionList wraps sels with the first selection as main.
func NewSelectionList(sels ...Selection) SelectionList {
	return SelectionList{Selections: sels, MainIndex: 0}
}

// Main returns the distinguished main selection.
func (l SelectionList) Main() Selection {
	return l.Selections[l.MainIndex]
}

// Len returns the number of selections in the list.
func (l SelectionList) Len() int { return len(l.Selections) }

// Context is the read-only view every highlighter factory and highlighter
// function receives: which buffer it is rendering, that buffer's option
// table, the active selections, and the face registry names resolve
// against. It mirrors the role of the original's Context class, trimmed
// to what highlighters actually read from it.
type Context interface {
	Buffer() textbuf.Buffer
	Options() *option.Table
	Selections() SelectionList
	Face(name string) (face.Face, bool)
}

// StaticContext is a plain Context implementation backed by fixed values,
// used by tests, the demo command, and any caller that doesn't need a
// live editing session backing its highlighter chain.
type StaticContext struct {
	buf   textbuf.Buffer
	opts  *option.Table
	sels  SelectionList
	faces map[string]face.Face
}

// NewStaticContext builds a Context over buf with the given option table
// and selections, plus the named faces highlighters may look up.
func NewStaticContext(buf textbuf.Buffer, opts *option.Table, sels SelectionList, faces map[string]face.Face) *StaticContext {
	return &StaticContext{buf: buf, opts: opts, sels: sels, faces: faces}
}

func (c *StaticContext) Buffer() textbuf.Buffer        { return c.buf }
func (c *StaticContext) Options() *option.Table        { return c.opts }
func (c *StaticContext) Selections() SelectionList     { return c.sels }

func (c *StaticContext) Face(name string) (face.Face, bool) {
	f, ok := c.faces[name]
	return f, ok
}
