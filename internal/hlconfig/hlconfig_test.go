package hlconfig

import (
	"strings"
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

func newCtx(buf textbuf.Buffer) corectx.Context {
	return corectx.NewStaticContext(buf, option.DefaultTable(), corectx.NewSelectionList(corectx.NewCursor(unit.Pos(0, 0))), nil)
}

func TestDecodeParsesDocument(t *testing.T) {
	doc, err := Decode(strings.NewReader(`
[options]
tabstop = 4

[faces.Default]
fg = "white"

[[highlighters]]
group = "window"
id = "fill"
kind = "fill"
params = ["Default"]
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Options["tabstop"] != int64(4) {
		t.Fatalf("expected tabstop to decode as int64(4), got %v (%T)", doc.Options["tabstop"], doc.Options["tabstop"])
	}
	if doc.Faces["Default"].FG != "white" {
		t.Fatalf("expected Default face fg %q, got %q", "white", doc.Faces["Default"].FG)
	}
	if len(doc.Highlighters) != 1 || doc.Highlighters[0].Kind != "fill" {
		t.Fatalf("expected one fill highlighter entry, got %+v", doc.Highlighters)
	}
}

func TestApplyOptionsSetsTabstop(t *testing.T) {
	doc, err := Decode(strings.NewReader(`
[options]
tabstop = 4
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	table := option.DefaultTable()
	if err := ApplyOptions(table, doc.Options); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := table.Int("tabstop")
	if err != nil || got != 4 {
		t.Fatalf("expected tabstop 4, got %d err %v", got, err)
	}
}

func TestBuildRunsFillThenNumberLines(t *testing.T) {
	doc, err := Decode(strings.NewReader(`
[faces.Default]
fg = "white"

[faces.LineNumbers]
fg = "gray"

[[highlighters]]
group = "window"
id = "fill"
kind = "fill"
params = ["Default"]

[[highlighters]]
group = "window"
id = "numbers"
kind = "number_lines"
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewBuilder(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	buf := textbuf.NewMemBuffer("a", "hello\n")
	disp := bufferDisplay(buf)
	g.Highlighter()(newCtx(buf), highlight.FlagHighlight, disp)

	if len(disp.Lines[0].Atoms) != 2 {
		t.Fatalf("expected the gutter atom inserted ahead of the filled text atom, got %d atoms", len(disp.Lines[0].Atoms))
	}
	gutter := disp.Lines[0].Atoms[0]
	if !strings.Contains(string(gutter.Content()), "1") {
		t.Fatalf("expected the gutter atom to show line number 1, got %q", gutter.Content())
	}
	text := disp.Lines[0].Atoms[1]
	if !text.Face.FG.Equals(face.RGB(255, 255, 255)) {
		t.Fatalf("expected the fill highlighter's white face to survive past the later number_lines entry")
	}
}

func TestBuildRegionsDispatchesToNamedSubgroups(t *testing.T) {
	doc, err := Decode(strings.NewReader(`
[faces.Default]
fg = "white"

[faces.String]
fg = "green"

[[highlighters]]
group = "window"
id = "strings"
kind = "regions"
params = ["quoted"]

[[highlighters]]
group = "dquote"
id = "face"
kind = "fill"
params = ["String"]

[[highlighters]]
group = "code"
id = "face"
kind = "fill"
params = ["Default"]

[[regionsets]]
name = "quoted"
default_group = "code"

[[regionsets.regions]]
name = "dquote"
begin = "\""
end = "\""
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewBuilder(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	buf := textbuf.NewMemBuffer("a", `x "y" z` + "\n")
	disp := bufferDisplay(buf)
	g.Highlighter()(newCtx(buf), highlight.FlagHighlight, disp)

	var gotGreen, gotWhite bool
	for _, atom := range disp.Lines[0].Atoms {
		if atom.Face.FG.Equals(face.RGB(0, 255, 0)) {
			gotGreen = true
		}
		if atom.Face.FG.Equals(face.RGB(255, 255, 255)) {
			gotWhite = true
		}
	}
	if !gotGreen {
		t.Fatalf("expected the quoted span to carry the String face")
	}
	if !gotWhite {
		t.Fatalf("expected the code outside the quotes to carry the Default face")
	}
}

func TestBuildGroupDetectsCircularRegionReference(t *testing.T) {
	doc, err := Decode(strings.NewReader(`
[[highlighters]]
group = "window"
id = "r"
kind = "regions"
params = ["rs"]

[[regionsets]]
name = "rs"
default_group = "window"

[[regionsets.regions]]
name = "q"
begin = "\""
end = "\""
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewBuilder(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := b.Build(); err == nil || !strings.Contains(err.Error(), "circular") {
		t.Fatalf("expected a circular group reference error, got %v", err)
	}
}

func TestBuildRefDispatchesToNamedGroup(t *testing.T) {
	doc, err := Decode(strings.NewReader(`
[faces.Default]
fg = "white"

[[highlighters]]
group = "window"
id = "r"
kind = "ref"
params = ["shared"]

[[highlighters]]
group = "window"
id = "dangling"
kind = "ref"
params = ["nowhere"]

[[highlighters]]
group = "shared"
id = "face"
kind = "fill"
params = ["Default"]
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewBuilder(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	buf := textbuf.NewMemBuffer("a", "hello\n")
	disp := bufferDisplay(buf)
	g.Highlighter()(newCtx(buf), highlight.FlagHighlight, disp)

	if !disp.Lines[0].Atoms[0].Face.FG.Equals(face.RGB(255, 255, 255)) {
		t.Fatalf("expected the ref entry to apply the shared group's fill face")
	}
}

func TestDecodeFileReportsPathOnError(t *testing.T) {
	_, err := DecodeFile("/nonexistent/path/panecore-hlconfig-test.toml")
	if err == nil {
		t.Fatalf("expected an error for a missing file")
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected a *ParseError, got %T", err)
	}
	if !strings.Contains(pe.Error(), "panecore-hlconfig-test.toml") {
		t.Fatalf("expected the error to name the missing path, got %q", pe.Error())
	}
}
