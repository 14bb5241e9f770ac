package display

import (
	"testing"

	"github.com/davidaciko/panecore/internal/face"
	"github.com/davidaciko/panecore/internal/unit"
)

type fakeSource struct {
	lines [][]byte
}

func (f fakeSource) Line(n unit.LineCount) []byte { return f.lines[n] }

func newLineBuffer(src fakeSource, lineIdx unit.LineCount) *DisplayBuffer {
	line := src.lines[lineIdx]
	atom := NewBufferRangeAtom(src, unit.Pos(lineIdx, 0), unit.Pos(lineIdx, unit.ByteCount(len(line))))
	buf := &DisplayBuffer{Lines: []DisplayLine{{Atoms: []DisplayAtom{atom}}}}
	buf.ComputeRange()
	return buf
}

func TestHighlightRangeSplitsAroundBoundary(t *testing.T) {
	src := fakeSource{lines: [][]byte{[]byte("hello world")}}
	buf := newLineBuffer(src, 0)

	var touched []string
	HighlightRange(buf, unit.Pos(0, 6), unit.Pos(0, 11), false, func(a *DisplayAtom) {
		touched = append(touched, string(a.Content()))
		a.Face = face.Face{Attrs: face.AttrBold}
	})

	if len(touched) != 1 || touched[0] != "world" {
		t.Fatalf("expected exactly the %q atom to be visited, got %v", "world", touched)
	}
	if len(buf.Lines[0].Atoms) != 2 {
		t.Fatalf("expected the atom to be split into 2, got %d", len(buf.Lines[0].Atoms))
	}
	if string(buf.Lines[0].Atoms[0].Content()) != "hello " {
		t.Fatalf("expected first half to be %q, got %q", "hello ", buf.Lines[0].Atoms[0].Content())
	}
	if !buf.Lines[0].Atoms[1].Face.Attrs.Has(face.AttrBold) {
		t.Fatalf("expected second half to carry the applied face")
	}
}

func TestHighlightRangeSkipsReplacedWhenRequested(t *testing.T) {
	src := fakeSource{lines: [][]byte{[]byte("abc")}}
	buf := newLineBuffer(src, 0)
	buf.Lines[0].Atoms[0].Replace("XYZ")

	calls := 0
	HighlightRange(buf, unit.Pos(0, 0), unit.Pos(0, 3), true, func(a *DisplayAtom) { calls++ })
	if calls != 0 {
		t.Fatalf("expected replaced atom to be skipped, got %d calls", calls)
	}
}

func TestApplyHighlighterRewritesExtractedRegion(t *testing.T) {
	src := fakeSource{lines: [][]byte{[]byte("abcdef")}}
	buf := newLineBuffer(src, 0)

	ApplyHighlighter(buf, unit.Pos(0, 2), unit.Pos(0, 4), func(region *DisplayBuffer) {
		for li := range region.Lines {
			for ai := range region.Lines[li].Atoms {
				region.Lines[li].Atoms[ai].Face = face.Face{Attrs: face.AttrItalic}
			}
		}
	})

	var found bool
	for _, a := range buf.Lines[0].Atoms {
		if string(a.Content()) == "cd" {
			found = true
			if !a.Face.Attrs.Has(face.AttrItalic) {
				t.Fatalf("expected extracted region's face change to survive splice-back")
			}
		}
	}
	if !found {
		t.Fatalf("expected the 'cd' atom to survive the round trip, got %+v", buf.Lines[0].Atoms)
	}
}

func TestDisplayLineOptimizeMergesAdjacentSameFace(t *testing.T) {
	src := fakeSource{lines: [][]byte{[]byte("abcdef")}}
	line := DisplayLine{Atoms: []DisplayAtom{
		NewBufferRangeAtom(src, unit.Pos(0, 0), unit.Pos(0, 3)),
		NewBufferRangeAtom(src, unit.Pos(0, 3), unit.Pos(0, 6)),
	}}
	line.Optimize()
	if len(line.Atoms) != 1 {
		t.Fatalf("expected adjacent same-face atoms to merge, got %d atoms", len(line.Atoms))
	}
}
