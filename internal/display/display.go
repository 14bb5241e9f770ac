// Package display implements the intermediate representation highlighters
// operate on: DisplayAtom, DisplayLine, and DisplayBuffer, together with
// the two primitives every highlighter is built from, HighlightRange and
// ApplyHighlighter.
package display

import (
	"fmt"

	"github.com/davidaciko/panecore/internal/face"
	"github.com/davidaciko/panecore/internal/unit"
)

// LineSource is the minimal view onto buffer content a DisplayAtom needs
// to resolve its text when it references a byte range rather than holding
// literal replacement text.
type LineSource interface {
	Line(n unit.LineCount) []byte
}

// AtomType distinguishes an atom that mirrors a live buffer range from one
// that carries literal, synthesized text.
type AtomType int

const (
	// BufferRange atoms render the buffer's own bytes at [Begin, End).
	BufferRange AtomType = iota
	// ReplacedBufferRange atoms still address [Begin, End) for highlighter
	// bookkeeping, but render Text instead of the buffer's bytes.
	ReplacedBufferRange
	// Text atoms have no buffer range at all: pure synthesized content,
	// such as a line-number gutter entry or a tab-expansion filler.
	Text
)

// DisplayAtom is the smallest unit of display: a span of text carrying a
// single Face. It either mirrors [Begin, End) in some buffer or carries
// literal Text.
type DisplayAtom struct {
	Type  AtomType
	Face  face.Face
	Begin unit.Position
	End   unit.Position
	Text  string

	source LineSource
}

// NewBufferRangeAtom creates an atom that renders buffer bytes.
func NewBufferRangeAtom(source LineSource, begin, end unit.Position) DisplayAtom {
	return DisplayAtom{Type: BufferRange, Begin: begin, End: end, source: source}
}

// NewTextAtom creates an atom with no buffer range, carrying literal text.
func NewTextAtom(text string, f face.Face) DisplayAtom {
	return DisplayAtom{Type: Text, Text: text, Face: f}
}

// HasBufferRange reports whether the atom addresses a span of buffer bytes,
// whether or not it has been replaced.
func (a DisplayAtom) HasBufferRange() bool {
	return a.Type == BufferRange || a.Type == ReplacedBufferRange
}

// Content returns the bytes this atom renders.
func (a DisplayAtom) Content() []byte {
	switch a.Type {
	case BufferRange:
		line := a.source.Line(a.Begin.Line)
		if a.Begin.Line == a.End.Line {
			return line[a.Begin.Column:a.End.Column]
		}
		if a.Begin.Line+1 == a.End.Line && a.End.Column == 0 {
			return line[a.Begin.Column:]
		}
		panic(fmt.Sprintf("display: atom spans multiple lines without a line-end boundary: %v..%v", a.Begin, a.End))
	default:
		return []byte(a.Text)
	}
}

// Length returns the number of codepoints the atom renders.
func (a DisplayAtom) Length() unit.CharCount {
	if a.Type == BufferRange {
		return unit.CodepointCount(a.Content())
	}
	return unit.CodepointCount([]byte(a.Text))
}

// Replace turns a BufferRange atom into a ReplacedBufferRange atom that
// renders text instead of the buffer's own bytes, while keeping its begin
// and end for range bookkeeping (show_whitespaces and expand_tabulations
// both do this to one character at a time).
func (a *DisplayAtom) Replace(text string) {
	if a.Type != BufferRange && a.Type != ReplacedBufferRange {
		panic("display: Replace called on an atom with no buffer range")
	}
	a.Type = ReplacedBufferRange
	a.Text = text
}

// splitAt divides a into two atoms at pos, which must fall strictly
// between a.Begin and a.End. It returns the atom covering [a.Begin, pos)
// and the atom covering [pos, a.End); only BufferRange atoms may be split.
func (a DisplayAtom) splitAt(pos unit.Position) (before, after DisplayAtom) {
	if a.Type != BufferRange {
		panic("display: splitAt called on a non-BufferRange atom")
	}
	before = a
	before.End = pos
	after = a
	after.Begin = pos
	return before, after
}

// DisplayLine is an ordered run of atoms covering one on-screen line, plus
// the buffer range the line as a whole spans.
type DisplayLine struct {
	Atoms []DisplayAtom
	Range unit.LineRange
}

// NewDisplayLine builds a line from a text string rendered in a single
// face, used for synthesized lines such as the status line or a
// line-number gutter row.
func NewDisplayLine(text string, f face.Face) DisplayLine {
	return DisplayLine{Atoms: []DisplayAtom{NewTextAtom(text, f)}}
}

// Length returns the total codepoint length of the line.
func (l *DisplayLine) Length() unit.CharCount {
	var n unit.CharCount
	for _, a := range l.Atoms {
		n += a.Length()
	}
	return n
}

// ComputeRange recomputes Range from the buffer-range atoms the line holds.
func (l *DisplayLine) ComputeRange() {
	l.Range = unit.LineRange{}
	first := true
	for _, a := range l.Atoms {
		if !a.HasBufferRange() {
			continue
		}
		if first {
			l.Range.Begin = a.Begin
			l.Range.End = a.End
			first = false
			continue
		}
		if a.Begin.Less(l.Range.Begin) {
			l.Range.Begin = a.Begin
		}
		if a.End.Greater(l.Range.End) {
			l.Range.End = a.End
		}
	}
}

// Split divides the atom at index i at pos, inserting the tail as a new
// atom immediately after it, and returns the index of the first half.
// pos must fall strictly within the atom's buffer range.
func (l *DisplayLine) Split(i int, pos unit.Position) int {
	before, after := l.Atoms[i].splitAt(pos)
	l.Atoms[i] = before
	tail := append([]DisplayAtom{after}, l.Atoms[i+1:]...)
	l.Atoms = append(l.Atoms[:i+1], tail...)
	return i
}

// Insert inserts atom at index i, shifting subsequent atoms right.
func (l *DisplayLine) Insert(i int, atom DisplayAtom) {
	l.Atoms = append(l.Atoms[:i], append([]DisplayAtom{atom}, l.Atoms[i:]...)...)
}

// Erase removes the atoms in [begin, end).
func (l *DisplayLine) Erase(begin, end int) {
	l.Atoms = append(l.Atoms[:begin], l.Atoms[end:]...)
}

// PushBack appends atom to the end of the line.
func (l *DisplayLine) PushBack(atom DisplayAtom) {
	l.Atoms = append(l.Atoms, atom)
}

// Optimize merges adjacent atoms that share a face and are contiguous in
// the buffer, reducing the number of atoms the UI backend has to paint.
func (l *DisplayLine) Optimize() {
	if len(l.Atoms) < 2 {
		return
	}
	merged := l.Atoms[:1]
	for _, a := range l.Atoms[1:] {
		last := &merged[len(merged)-1]
		if last.Type == BufferRange && a.Type == BufferRange &&
			last.Face.Equals(a.Face) && last.End.Equal(a.Begin) {
			last.End = a.End
			continue
		}
		merged = append(merged, a)
	}
	l.Atoms = merged
}

// DisplayBuffer is the full on-screen representation built each frame: one
// DisplayLine per visible row, plus the overall buffer range they cover.
type DisplayBuffer struct {
	Lines []DisplayLine
	Range unit.LineRange
}

// ComputeRange recomputes Range as the union of every line's range.
func (b *DisplayBuffer) ComputeRange() {
	b.Range = unit.LineRange{}
	first := true
	for i := range b.Lines {
		b.Lines[i].ComputeRange()
		r := b.Lines[i].Range
		if r.IsEmpty() && len(b.Lines[i].Atoms) == 0 {
			continue
		}
		if first {
			b.Range = r
			first = false
			continue
		}
		if r.Begin.Less(b.Range.Begin) {
			b.Range.Begin = r.Begin
		}
		if r.End.Greater(b.Range.End) {
			b.Range.End = r.End
		}
	}
}

// Optimize runs DisplayLine.Optimize over every line.
func (b *DisplayBuffer) Optimize() {
	for i := range b.Lines {
		b.Lines[i].Optimize()
	}
}

// HighlightRange calls fn on every atom (after splitting atoms at begin
// and end so fn only ever sees atoms fully inside the range) that
// intersects [begin, end). If skipReplaced is set, atoms already replaced
// by an earlier highlighter are left untouched, so highlighters lower in
// a chain cannot re-style text a higher one has already substituted.
func HighlightRange(buf *DisplayBuffer, begin, end unit.Position, skipReplaced bool, fn func(*DisplayAtom)) {
	if begin.Equal(end) || end.LessEq(buf.Range.Begin) || begin.GreaterEq(buf.Range.End) {
		return
	}
	for li := range buf.Lines {
		line := &buf.Lines[li]
		if line.Range.End.LessEq(begin) || end.Less(line.Range.Begin) {
			continue
		}
		for ai := 0; ai < len(line.Atoms); ai++ {
			atom := &line.Atoms[ai]
			isReplaced := atom.Type == ReplacedBufferRange
			if !atom.HasBufferRange() || (skipReplaced && isReplaced) {
				continue
			}
			if end.LessEq(atom.Begin) || begin.GreaterEq(atom.End) {
				continue
			}

			if !isReplaced && begin.Greater(atom.Begin) {
				line.Split(ai, begin)
				ai++
				atom = &line.Atoms[ai]
			}

			if !isReplaced && end.Less(atom.End) {
				line.Split(ai, end)
				fn(&line.Atoms[ai])
			} else {
				fn(atom)
			}
		}
	}
}

// ApplyHighlighter extracts the sub-region of buf covering [begin, end)
// into a standalone DisplayBuffer, invokes highlighter on it, then splices
// the (possibly rewritten) atoms back into buf. This lets a highlighter
// such as a nested region or a group operate on exactly its slice of the
// display without needing to understand the rest of the buffer, mirroring
// the original's apply_highlighter.
func ApplyHighlighter(buf *DisplayBuffer, begin, end unit.Position, highlighter func(*DisplayBuffer)) {
	type splice struct {
		lineIdx  int
		beginIdx int
	}
	var region DisplayBuffer
	var positions []splice

	for li := range buf.Lines {
		line := &buf.Lines[li]
		if line.Range.End.LessEq(begin) || end.LessEq(line.Range.Begin) {
			continue
		}

		beginIdx, endIdx := 0, len(line.Atoms)
		if line.Range.Begin.Less(begin) || line.Range.End.Greater(end) {
			beginIdx, endIdx = line.splitBoundsFor(begin, end)
		}

		extracted := append([]DisplayAtom{}, line.Atoms[beginIdx:endIdx]...)
		line.Erase(beginIdx, endIdx)

		region.Lines = append(region.Lines, DisplayLine{Atoms: extracted})
		positions = append(positions, splice{lineIdx: li, beginIdx: beginIdx})
	}

	region.ComputeRange()
	highlighter(&region)

	for i, line := range region.Lines {
		sp := positions[i]
		buf.Lines[sp.lineIdx].Insert(sp.beginIdx, line.Atoms[0])
		for _, atom := range line.Atoms[1:] {
			sp.beginIdx++
			buf.Lines[sp.lineIdx].Insert(sp.beginIdx, atom)
		}
	}
	buf.ComputeRange()
}

// splitBoundsFor returns the [beginIdx, endIdx) atom index range fully
// covering [begin, end), splitting boundary atoms as needed.
func (l *DisplayLine) splitBoundsFor(begin, end unit.Position) (beginIdx, endIdx int) {
	beginIdx, endIdx = 0, len(l.Atoms)
	for ai := 0; ai < len(l.Atoms); ai++ {
		atom := l.Atoms[ai]
		if !atom.HasBufferRange() || end.LessEq(atom.Begin) || begin.GreaterEq(atom.End) {
			continue
		}
		isReplaced := atom.Type == ReplacedBufferRange

		if atom.Begin.LessEq(begin) {
			if isReplaced || atom.Begin.Equal(begin) {
				beginIdx = ai
			} else {
				l.Split(ai, begin)
				ai++
				beginIdx = ai
				endIdx++
			}
		}

		atom = l.Atoms[ai]
		if atom.End.GreaterEq(end) {
			if isReplaced || atom.End.Equal(end) {
				endIdx = ai + 1
			} else {
				l.Split(ai, end)
				endIdx = ai + 1
			}
		}
	}
	return beginIdx, endIdx
}
