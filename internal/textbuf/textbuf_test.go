package textbuf

import (
	"testing"

	"github.com/davidaciko/panecore/internal/unit"
)

func TestMemBufferLines(t *testing.T) {
	b := NewMemBuffer("a", "one\ntwo\nthree")
	if b.LineCount() != 3 {
		t.Fatalf("expected 3 lines, got %d", b.LineCount())
	}
	if string(b.Line(0)) != "one\n" {
		t.Fatalf("expected first line to keep its newline, got %q", b.Line(0))
	}
	if string(b.Line(2)) != "three" {
		t.Fatalf("expected last line without a newline, got %q", b.Line(2))
	}
}

func TestComputeLineModificationsInsertAndDelete(t *testing.T) {
	old := [][]byte{[]byte("a\n"), []byte("b\n"), []byte("c\n")}
	next := [][]byte{[]byte("a\n"), []byte("x\n"), []byte("b\n"), []byte("c\n")}

	mods := ComputeLineModifications(old, next)
	if len(mods) != 1 {
		t.Fatalf("expected a single insertion run, got %d mods: %+v", len(mods), mods)
	}
	if mods[0].Kind != Inserted || mods[0].NumLine != 1 {
		t.Fatalf("expected an Inserted run of 1 line, got %+v", mods[0])
	}
}

func TestComputeLineModificationsNoChange(t *testing.T) {
	lines := [][]byte{[]byte("a\n"), []byte("b\n")}
	mods := ComputeLineModifications(lines, lines)
	if len(mods) != 0 {
		t.Fatalf("expected no modifications for identical content, got %+v", mods)
	}
}

func TestSetContentBumpsTimestamp(t *testing.T) {
	b := NewMemBuffer("a", "one\ntwo")
	before := b.Timestamp()
	b.SetContent("one\ntwo\nthree")
	if b.Timestamp() == before {
		t.Fatalf("expected timestamp to advance after SetContent")
	}
	if b.LineCount() != unit.LineCount(3) {
		t.Fatalf("expected 3 lines after SetContent, got %d", b.LineCount())
	}
}
