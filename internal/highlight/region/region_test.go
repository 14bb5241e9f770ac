package region

import (
	"regexp"
	"testing"

	"github.com/davidaciko/panecore/internal/corectx"
	"github.com/davidaciko/panecore/internal/display"
	"github.com/davidaciko/panecore/internal/face"
	"github.com/davidaciko/panecore/internal/highlight"
	"github.com/davidaciko/panecore/internal/option"
	"github.com/davidaciko/panecore/internal/textbuf"
	"github.com/davidaciko/panecore/internal/unit"
)

type fakeSource struct{ buf textbuf.Buffer }

func (f fakeSource) Line(n unit.LineCount) []byte { return f.buf.Line(n) }

func bufferDisplay(buf textbuf.Buffer) *display.DisplayBuffer {
	src := fakeSource{buf: buf}
	var lines []display.DisplayLine
	for i := unit.LineCount(0); i < buf.LineCount(); i++ {
		l := buf.Line(i)
		lines = append(lines, display.DisplayLine{Atoms: []display.DisplayAtom{
			display.NewBufferRangeAtom(src, unit.Pos(i, 0), unit.Pos(i, unit.ByteCount(len(l)))),
		}})
	}
	d := &display.DisplayBuffer{Lines: lines}
	d.ComputeRange()
	return d
}

func TestPartitionFindsSingleRegion(t *testing.T) {
	buf := textbuf.NewMemBuffer("a", `x = "hello" + 1`)
	descs := []Desc{{Begin: regexp.MustCompile(`"`), End: regexp.MustCompile(`"`)}}
	matches := []Matches{descs[0].FindMatches(buf)}
	spans := partition([]namedDesc{{name: "string", desc: descs[0]}}, matches, buf)

	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d: %+v", len(spans), spans)
	}
	if spans[0].Group != "string" {
		t.Fatalf("expected group 'string', got %q", spans[0].Group)
	}
}

func TestHighlighterDispatchesToNamedGroup(t *testing.T) {
	buf := textbuf.NewMemBuffer("a", `x = "hello"`)
	descs := []Desc{{Begin: regexp.MustCompile(`"`), End: regexp.MustCompile(`"`)}}
	var stringRan, defaultRan bool
	groups := map[string]highlight.Highlighter{
		"string": func(ctx corectx.Context, flags highlight.Flags, buf *display.DisplayBuffer) {
			stringRan = true
			for li := range buf.Lines {
				for ai := range buf.Lines[li].Atoms {
					buf.Lines[li].Atoms[ai].Face = face.Face{Attrs: face.AttrBold}
				}
			}
		},
		"code": func(ctx corectx.Context, flags highlight.Flags, buf *display.DisplayBuffer) {
			defaultRan = true
		},
	}
	h, err := New([]string{"string"}, descs, "code", groups)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := corectx.NewStaticContext(buf, option.DefaultTable(), corectx.NewSelectionList(corectx.NewCursor(unit.Pos(0, 0))), nil)

	disp := bufferDisplay(buf)
	h.Highlight(ctx, highlight.FlagHighlight, disp)

	if !stringRan || !defaultRan {
		t.Fatalf("expected both the string region and the default group to run: string=%v default=%v", stringRan, defaultRan)
	}

	var boldFound bool
	for _, a := range disp.Lines[0].Atoms {
		if a.Face.Attrs.Has(face.AttrBold) {
			boldFound = true
		}
	}
	if !boldFound {
		t.Fatalf("expected the quoted span to carry the bold face applied by the string group")
	}
}

func TestNewRejectsEmptyRegions(t *testing.T) {
	if _, err := New(nil, nil, "", nil); err == nil {
		t.Fatalf("expected error constructing a region highlighter with no regions")
	}
}

// TestPartitionRecurseBalancesNestedPair is spec.md's §8 end-to-end
// scenario 4 verbatim: begin "(", end ")", recurse "(|)" over
// "a(b(c)d)e". The inner "(c)" must not produce its own span; it is
// consumed as nesting depth while finding the outer pair's match, so the
// result is a single span covering columns 1..8 (the outer parens).
func TestPartitionRecurseBalancesNestedPair(t *testing.T) {
	buf := textbuf.NewMemBuffer("a", "a(b(c)d)e")
	desc := Desc{
		Begin:   regexp.MustCompile(`\(`),
		End:     regexp.MustCompile(`\)`),
		Recurse: regexp.MustCompile(`\(|\)`),
	}
	matches := []Matches{desc.FindMatches(buf)}
	spans := partition([]namedDesc{{name: "paren", desc: desc}}, matches, buf)

	if len(spans) != 1 {
		t.Fatalf("expected exactly 1 span for the whole nested pair, got %d: %+v", len(spans), spans)
	}
	got := spans[0]
	if got.Begin != unit.Pos(0, 1) || got.End != unit.Pos(0, 8) {
		t.Fatalf("expected the outer pair to span [1,8), got [%v,%v)", got.Begin, got.End)
	}
}

// TestFindMatchingEndCountsOnlyRecurseBeforeEnd exercises findMatchingEnd
// directly against the same positions, pinning the nesting-level walk
// spec.md §4.5 describes: recurse matches strictly before the candidate
// end's begin count toward the level, and the begin delimiter's own
// recurse match (at or before the begin match's own end) must not be
// double-counted or cause the walk to stall.
func TestFindMatchingEndCountsOnlyRecurseBeforeEnd(t *testing.T) {
	buf := textbuf.NewMemBuffer("a", "a(b(c)d)e")
	desc := Desc{
		Begin:   regexp.MustCompile(`\(`),
		End:     regexp.MustCompile(`\)`),
		Recurse: regexp.MustCompile(`\(|\)`),
	}
	m := desc.FindMatches(buf)

	idx, found := findMatchingEnd(m, unit.Pos(0, 2))
	if !found {
		t.Fatalf("expected a matching end to be found")
	}
	if got := m.End[idx].EndPos(); got != unit.Pos(0, 8) {
		t.Fatalf("expected the outer end match to end at column 8, got %v", got)
	}
}
