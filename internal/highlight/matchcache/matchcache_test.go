package matchcache

import (
	"regexp"
	"testing"

	"github.com/davidaciko/panecore/internal/textbuf"
)

func TestFindMatchesAcrossLines(t *testing.T) {
	buf := textbuf.NewMemBuffer("a", "foo bar\nbaz foo\n")
	re := regexp.MustCompile(`foo`)
	matches := FindMatches(buf, re)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d: %+v", len(matches), matches)
	}
	if matches[0].Line != 0 || matches[1].Line != 1 {
		t.Fatalf("expected matches on lines 0 and 1, got %+v", matches)
	}
}

func TestUpdateMatchesDropsRemovedLineMatches(t *testing.T) {
	buf := textbuf.NewMemBuffer("a", "foo\nbar\nfoo\n")
	re := regexp.MustCompile(`foo`)
	matches := FindMatches(buf, re)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches before edit, got %d", len(matches))
	}

	mods := buf.SetContent("bar\nfoo\n")
	matches = UpdateMatches(buf, mods, matches, re)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match after removing a matching line, got %d: %+v", len(matches), matches)
	}
	if matches[0].Line != 1 {
		t.Fatalf("expected remaining match on line 1, got %+v", matches[0])
	}
}

func TestUpdateMatchesFindsNewInsertedLine(t *testing.T) {
	buf := textbuf.NewMemBuffer("a", "bar\n")
	re := regexp.MustCompile(`foo`)
	matches := FindMatches(buf, re)
	if len(matches) != 0 {
		t.Fatalf("expected no initial matches, got %d", len(matches))
	}

	mods := buf.SetContent("bar\nfoo\n")
	matches = UpdateMatches(buf, mods, matches, re)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match after inserting a matching line, got %d: %+v", len(matches), matches)
	}
}

func TestBufferSideCacheIsPerBuffer(t *testing.T) {
	cache := NewBufferSideCache[int]()
	a := textbuf.NewMemBuffer("a", "x")
	b := textbuf.NewMemBuffer("b", "y")

	*cache.Get(a) = 1
	*cache.Get(b) = 2

	if *cache.Get(a) != 1 || *cache.Get(b) != 2 {
		t.Fatalf("expected independent per-buffer values, got a=%d b=%d", *cache.Get(a), *cache.Get(b))
	}
}
