// Package unit defines the strongly typed coordinate and counting types
// shared by every other package in this module: byte counts, character
// counts, line counts, and buffer positions built from them.
package unit

import (
	"fmt"
	"unicode"

	"github.com/rivo/uniseg"
	"golang.org/x/text/runes"
	"golang.org/x/text/unicode/rangetable"
)

// wordSet classifies the codepoints that make up a "word" for the purposes
// of word-database indexing and word-motion boundaries: letters, numbers,
// and the combining marks that attach to them (so an accented letter formed
// from a base rune plus a combining mark stays one word), merged into a
// single table via rangetable.Merge and wrapped as a runes.Set.
var wordSet = runes.In(rangetable.Merge(unicode.L, unicode.N, unicode.Mn))

// IsWord reports whether r is a word constituent: a letter, digit,
// combining mark, or underscore.
func IsWord(r rune) bool {
	return r == '_' || wordSet.Contains(r)
}

// unprintableSet is the Unicode "Other" category (control, format,
// surrogate, private-use, and unassigned codepoints), the set expand_unprintable
// escapes rather than rendering literally.
var unprintableSet = runes.In(unicode.C)

// IsPrintable reports whether r can be rendered as itself rather than
// needing a "U+XXXX" escape.
func IsPrintable(r rune) bool {
	return !unprintableSet.Contains(r)
}

// ByteCount is a count of bytes, or a byte offset within a line.
type ByteCount int

// CharCount is a count of UTF-8 codepoints, or a character offset within a line.
type CharCount int

// LineCount is a count of lines, or a line index within a buffer.
type LineCount int

// Position addresses a single byte within a buffer: a line and a byte
// column within that line's UTF-8 encoding.
type Position struct {
	Line   LineCount
	Column ByteCount
}

// Pos is a convenience constructor for Position.
func Pos(line LineCount, column ByteCount) Position {
	return Position{Line: line, Column: column}
}

// Compare orders positions lexicographically: line first, then column.
// It returns -1, 0, or 1.
func (p Position) Compare(other Position) int {
	if p.Line != other.Line {
		if p.Line < other.Line {
			return -1
		}
		return 1
	}
	if p.Column != other.Column {
		if p.Column < other.Column {
			return -1
		}
		return 1
	}
	return 0
}

// Less reports whether p sorts before other.
func (p Position) Less(other Position) bool { return p.Compare(other) < 0 }

// LessEq reports whether p sorts before or equal to other.
func (p Position) LessEq(other Position) bool { return p.Compare(other) <= 0 }

// Greater reports whether p sorts after other.
func (p Position) Greater(other Position) bool { return p.Compare(other) > 0 }

// GreaterEq reports whether p sorts after or equal to other.
func (p Position) GreaterEq(other Position) bool { return p.Compare(other) >= 0 }

// Equal reports whether p and other address the same byte.
func (p Position) Equal(other Position) bool { return p.Line == other.Line && p.Column == other.Column }

func (p Position) String() string {
	return fmt.Sprintf("%d.%d", p.Line, p.Column)
}

// LineRange is a half-open [Begin, End) span measured in bytes, whose
// Begin and End may fall on different lines. It is the currency of
// DisplayAtom, the match cache, and the region partitioner alike.
type LineRange struct {
	Begin Position
	End   Position
}

// IsEmpty reports whether the range spans no bytes.
func (r LineRange) IsEmpty() bool { return r.Begin.Equal(r.End) }

// Contains reports whether p falls within [r.Begin, r.End).
func (r LineRange) Contains(p Position) bool {
	return r.Begin.LessEq(p) && p.Less(r.End)
}

// LineReader is the minimal view onto a single line's bytes that the
// codepoint walkers in this package need: the UTF-8 encoded content,
// with no trailing newline.
type LineReader interface {
	Bytes() []byte
}

// NextCodepoint decodes the grapheme cluster beginning at byte offset col
// in line, returning its first rune and the cluster's byte width, or
// (0, 0) when col is at or past the end of line.
// Invalid UTF-8 is passed through as utf8.RuneError with width 1, mirroring
// the original's InvalidPolicy::Pass behavior: never block on bad input.
func NextCodepoint(line []byte, col ByteCount) (r rune, width ByteCount) {
	if int(col) >= len(line) {
		return 0, 0
	}
	g, _, _, _ := uniseg.FirstGraphemeClusterInString(string(line[col:]), -1)
	if g == "" {
		return 0, 0
	}
	rs := []rune(g)
	return rs[0], ByteCount(len(g))
}

// CodepointCount returns the number of UTF-8 codepoints encoded in b.
func CodepointCount(b []byte) CharCount {
	n := 0
	for i := 0; i < len(b); {
		_, width := NextCodepoint(b, ByteCount(i))
		if width == 0 {
			break
		}
		i += int(width)
		n++
	}
	return CharCount(n)
}

// ByteIndexOfChar returns the byte offset of the charIdx'th codepoint in b,
// or len(b) if charIdx is at or beyond the end of the line.
func ByteIndexOfChar(b []byte, charIdx CharCount) ByteCount {
	i, c := ByteCount(0), CharCount(0)
	for c < charIdx {
		_, width := NextCodepoint(b, i)
		if width == 0 {
			return ByteCount(len(b))
		}
		i += width
		c++
	}
	return i
}

// CharIndexOfByte returns the number of whole codepoints preceding byte
// offset byteIdx in b.
func CharIndexOfByte(b []byte, byteIdx ByteCount) CharCount {
	i, c := ByteCount(0), CharCount(0)
	for i < byteIdx {
		_, width := NextCodepoint(b, i)
		if width == 0 {
			break
		}
		i += width
		c++
	}
	return c
}

// NextCharWidth returns the byte width of the codepoint starting at col, or
// 1 if col is out of range (so callers advancing a cursor never stall).
func NextCharWidth(line []byte, col ByteCount) ByteCount {
	_, width := NextCodepoint(line, col)
	if width == 0 {
		return 1
	}
	return width
}
