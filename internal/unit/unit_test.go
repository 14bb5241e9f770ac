package unit

import "testing"

func TestPositionCompare(t *testing.T) {
	a := Pos(0, 3)
	b := Pos(0, 5)
	c := Pos(1, 0)

	if !a.Less(b) {
		t.Fatalf("expected %v < %v", a, b)
	}
	if !b.Less(c) {
		t.Fatalf("expected %v < %v", b, c)
	}
	if a.Compare(a) != 0 {
		t.Fatalf("expected equal position to compare 0")
	}
	if !c.Greater(a) {
		t.Fatalf("expected %v > %v", c, a)
	}
}

func TestLineRangeContains(t *testing.T) {
	r := LineRange{Begin: Pos(0, 2), End: Pos(0, 5)}
	if !r.Contains(Pos(0, 2)) {
		t.Fatalf("expected range to contain its begin")
	}
	if r.Contains(Pos(0, 5)) {
		t.Fatalf("expected range to exclude its end")
	}
	if r.Contains(Pos(1, 0)) {
		t.Fatalf("expected range not to contain a position on another line")
	}
}

func TestCodepointWalkASCII(t *testing.T) {
	line := []byte("abc")
	if n := CodepointCount(line); n != 3 {
		t.Fatalf("expected 3 codepoints, got %d", n)
	}
	if b := ByteIndexOfChar(line, 2); b != 2 {
		t.Fatalf("expected byte index 2, got %d", b)
	}
}

func TestCodepointWalkMultibyte(t *testing.T) {
	line := []byte("aéb") // 'a', 'é' (2 bytes), 'b'
	if n := CodepointCount(line); n != 3 {
		t.Fatalf("expected 3 codepoints, got %d", n)
	}
	if b := ByteIndexOfChar(line, 2); b != 3 {
		t.Fatalf("expected byte index 3 for 3rd char, got %d", b)
	}
	if c := CharIndexOfByte(line, 3); c != 2 {
		t.Fatalf("expected char index 2 at byte 3, got %d", c)
	}
}

func TestNextCharWidthOutOfRange(t *testing.T) {
	line := []byte("ab")
	if w := NextCharWidth(line, 5); w != 1 {
		t.Fatalf("expected width 1 for out-of-range column, got %d", w)
	}
}
