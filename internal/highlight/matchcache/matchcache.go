// Package matchcache implements the incremental regex-match cache every
// regex-driven highlighter (RegexHighlighter, RegionsHighlighter) uses to
// avoid rescanning the whole buffer on every keystroke: a generic
// per-buffer value cache, plus the shift/rescan/merge logic that replays a
// buffer's line modifications against previously found matches.
package matchcache

import (
	"regexp"
	"sort"
	"sync"

	"github.com/davidaciko/panecore/internal/textbuf"
	"github.com/davidaciko/panecore/internal/unit"
)

// BufferSideCache holds one value of type T per buffer, keyed by the
// buffer's identity, so a highlighter can memoize expensive per-buffer
// state (matches, region boundaries) across render calls without leaking
// across buffers. It mirrors the original's BufferSideCache<T>.
type BufferSideCache[T any] struct {
	mu     sync.Mutex
	values map[string]*T
}

// NewBufferSideCache returns an empty cache.
func NewBufferSideCache[T any]() *BufferSideCache[T] {
	return &BufferSideCache[T]{values: map[string]*T{}}
}

// Get returns buf's cached value, creating a zero value on first access.
func (c *BufferSideCache[T]) Get(buf textbuf.Buffer) *T {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[buf.ID()]
	if !ok {
		v = new(T)
		c.values[buf.ID()] = v
	}
	return v
}

// Match is a single regex match: which line it starts on, and its byte
// span within that line. It carries no capture-group index; callers that
// track several groups keep one MatchList per group.
type Match struct {
	Timestamp int64
	Line      unit.LineCount
	Begin     unit.ByteCount
	End       unit.ByteCount
}

// BeginPos returns the match's start position.
func (m Match) BeginPos() unit.Position { return unit.Pos(m.Line, m.Begin) }

// EndPos returns the match's end position.
func (m Match) EndPos() unit.Position { return unit.Pos(m.Line, m.End) }

// MatchList is an ordered-by-position list of matches for a single regex
// against a single buffer.
type MatchList []Match

// FindMatches scans every line of buf for regex and returns the matches in
// buffer order, the non-incremental counterpart used the first time a
// highlighter sees a buffer.
func FindMatches(buf textbuf.Buffer, regex *regexp.Regexp) MatchList {
	var matches MatchList
	ts := buf.Timestamp()
	for line := unit.LineCount(0); line < buf.LineCount(); line++ {
		l := buf.Line(line)
		for _, loc := range regex.FindAllIndex(l, -1) {
			matches = append(matches, Match{Timestamp: ts, Line: line, Begin: unit.ByteCount(loc[0]), End: unit.ByteCount(loc[1])})
		}
	}
	return matches
}

// UpdateMatches incrementally refreshes matches against buf's current
// content given the line modifications since matches was last computed:
// matches on removed lines are dropped, matches on unaffected lines have
// their line index shifted by the net insert/remove delta above them, and
// only the lines touched by an insertion are rescanned for new matches.
// This mirrors the original's update_matches, trading a full rescan for
// one bounded by the edit's extent.
func UpdateMatches(buf textbuf.Buffer, mods []textbuf.LineModification, matches MatchList, regex *regexp.Regexp) MatchList {
	ts := buf.Timestamp()
	kept := matches[:0]

	for _, m := range matches {
		newLine, dropped := shiftLine(mods, m.Line)
		if dropped || newLine >= buf.LineCount() {
			continue
		}
		m.Line = newLine
		m.Timestamp = ts
		kept = append(kept, m)
	}
	matches = kept

	var fresh MatchList
	for _, mod := range mods {
		if mod.Kind != textbuf.Inserted {
			continue
		}
		end := mod.NewLine + mod.NumLine
		if end > buf.LineCount() {
			end = buf.LineCount()
		}
		for line := mod.NewLine; line < end; line++ {
			l := buf.Line(line)
			for _, loc := range regex.FindAllIndex(l, -1) {
				fresh = append(fresh, Match{Timestamp: ts, Line: line, Begin: unit.ByteCount(loc[0]), End: unit.ByteCount(loc[1])})
			}
		}
	}

	matches = append(matches, fresh...)
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].BeginPos().Less(matches[j].BeginPos())
	})
	return matches
}

// shiftLine finds line's position after mods have been applied, reporting
// dropped if line fell inside a removed run.
func shiftLine(mods []textbuf.LineModification, line unit.LineCount) (shifted unit.LineCount, dropped bool) {
	var delta unit.LineCount
	for _, mod := range mods {
		if mod.OldLine > line {
			break
		}
		switch mod.Kind {
		case textbuf.Removed:
			if line < mod.OldLine+mod.NumLine {
				return 0, true
			}
			delta -= mod.NumLine
		case textbuf.Inserted:
			delta += mod.NumLine
		}
	}
	return line + delta, false
}

// FindNextBegin returns the index of the first match in matches whose
// begin position is at or after pos, the equivalent of the original's
// RegionMatches::find_next_begin binary search.
func FindNextBegin(matches MatchList, pos unit.Position) int {
	return sort.Search(len(matches), func(i int) bool {
		return !matches[i].BeginPos().Less(pos)
	})
}
