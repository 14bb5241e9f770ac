package corectx

import (
	"testing"

	"github.com/davidaciko/panecore/internal/face"
	"github.com/davidaciko/panecore/internal/option"
	"github.com/davidaciko/panecore/internal/textbuf"
	"github.com/davidaciko/panecore/internal/unit"
)

func TestSelectionNormalizeAndRange(t *testing.T) {
	s := Selection{Anchor: unit.Pos(0, 5), Head: unit.Pos(0, 2)}
	if s.IsForward() {
		t.Fatalf("expected backward selection")
	}
	n := s.Normalize()
	if !n.IsForward() {
		t.Fatalf("expected normalized selection to be forward")
	}
	r := s.Range()
	if r.Begin != unit.Pos(0, 2) || r.End != unit.Pos(0, 5) {
		t.Fatalf("expected range [0.2, 0.5), got %v", r)
	}
}

func TestSelectionOverlaps(t *testing.T) {
	a := Selection{Anchor: unit.Pos(0, 0), Head: unit.Pos(0, 5)}
	b := Selection{Anchor: unit.Pos(0, 3), Head: unit.Pos(0, 8)}
	c := Selection{Anchor: unit.Pos(0, 5), Head: unit.Pos(0, 9)}
	if !a.Overlaps(b) {
		t.Fatalf("expected a and b to overlap")
	}
	if a.Overlaps(c) {
		t.Fatalf("expected a and c (touching, not overlapping) not to overlap")
	}
}

func TestSelectionListMain(t *testing.T) {
	l := NewSelectionList(NewCursor(unit.Pos(0, 0)), NewCursor(unit.Pos(1, 0)))
	l.MainIndex = 1
	if l.Main().Head.Line != 1 {
		t.Fatalf("expected main selection on line 1, got %v", l.Main())
	}
}

func TestStaticContextFaceLookup(t *testing.T) {
	buf := textbuf.NewMemBuffer("x", "hello")
	ctx := NewStaticContext(buf, option.DefaultTable(), NewSelectionList(NewCursor(unit.Pos(0, 0))),
		map[string]face.Face{"Default": face.DefaultFace()})

	if _, ok := ctx.Face("missing"); ok {
		t.Fatalf("expected missing face lookup to fail")
	}
	f, ok := ctx.Face("Default")
	if !ok || !f.IsDefault() {
		t.Fatalf("expected to find the Default face, got %v, ok=%v", f, ok)
	}
}
