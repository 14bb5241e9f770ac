// Package simple implements the highlighters with no persistent state of
// their own: fill, line numbers, matching-bracket highlighting, tab and
// whitespace expansion, unprintable-codepoint escaping, selection
// highlighting, and the line-flag gutter.
package simple

import (
	"fmt"
	"strconv"

	"github.com/davidaciko/panecore/internal/corectx"
	"github.com/davidaciko/panecore/internal/display"
	"github.com/davidaciko/panecore/internal/face"
	"github.com/davidaciko/panecore/internal/highlight"
	"github.com/davidaciko/panecore/internal/unit"
)

// FaceResolver looks up a named face (from a face registry/theme), used
// by every factory below that takes a facespec parameter.
type FaceResolver func(name string) (face.Face, error)

// FillFactory builds the "fill" highlighter: params[0] names the face to
// apply across the whole visible buffer range.
func FillFactory(resolve FaceResolver) highlight.Factory {
	return func(params []string) (highlight.Highlighter, error) {
		if len(params) != 1 {
			return nil, fmt.Errorf("wrong parameter count")
		}
		f, err := resolve(params[0])
		if err != nil {
			return nil, err
		}
		return func(ctx corectx.Context, flags highlight.Flags, buf *display.DisplayBuffer) {
			if !flags.Has(highlight.FlagHighlight) {
				return
			}
			display.HighlightRange(buf, buf.Range.Begin, buf.Range.End, true, highlight.ApplyFace(f))
		}, nil
	}
}

// visualColumn returns the display column of byte offset col within line,
// expanding any preceding tab characters to tabstop-aligned stops, the Go
// counterpart of the original's get_column helper.
func visualColumn(line []byte, col unit.ByteCount, tabstop int) int {
	column := 0
	for i := unit.ByteCount(0); i < col; {
		width := unit.NextCharWidth(line, i)
		if line[i] == '\t' {
			column += tabstop - (column % tabstop)
		} else {
			column++
		}
		i += width
	}
	return column
}

// ExpandTabulations replaces each literal tab byte with the run of spaces
// needed to reach the next tabstop-aligned column, splitting its atom so
// only the tab itself is replaced.
func ExpandTabulations(ctx corectx.Context, flags highlight.Flags, buf *display.DisplayBuffer) {
	tabstop, err := ctx.Options().Int("tabstop")
	if err != nil {
		tabstop = 8
	}
	bufr := ctx.Buffer()
	for li := range buf.Lines {
		line := &buf.Lines[li]
		for ai := 0; ai < len(line.Atoms); ai++ {
			replaceRunsInAtom(line, &ai, bufr, func(c byte) bool {
				return c == '\t'
			}, tabPaddingFor(tabstop))
		}
	}
}

// tabPaddingFor returns a function producing the space padding for a tab
// found at byte offset col within line.
func tabPaddingFor(tabstop int) func(line []byte, col unit.ByteCount) string {
	return func(line []byte, col unit.ByteCount) string {
		column := visualColumn(line, col, tabstop)
		count := tabstop - (column % tabstop)
		padding := make([]byte, count)
		for i := range padding {
			padding[i] = ' '
		}
		return string(padding)
	}
}

// replaceRunsInAtom scans the BufferRange atom at *ai for the first byte
// matched by shouldReplace, splits the atom around it, and replaces it
// with buildReplacement's result, leaving *ai at the replaced atom.
// It mirrors the split-find-replace-break loop repeated across
// expand_tabulations, show_whitespaces, and expand_unprintable.
func replaceRunsInAtom(line *display.DisplayLine, ai *int, buf interface {
	Line(unit.LineCount) []byte
}, shouldReplace func(byte) bool, buildReplacement func([]byte, unit.ByteCount) string) {
	atom := &line.Atoms[*ai]
	if atom.Type != display.BufferRange {
		return
	}
	if atom.Begin.Line != atom.End.Line {
		return
	}
	content := buf.Line(atom.Begin.Line)

	for col := atom.Begin.Column; col < atom.End.Column; {
		width := unit.NextCharWidth(content, col)
		if shouldReplace(content[col]) {
			pos := unit.Pos(atom.Begin.Line, col)
			next := unit.Pos(atom.Begin.Line, col+width)

			if pos.Greater(atom.Begin) {
				line.Split(*ai, pos)
				*ai++
			}
			if next.Less(line.Atoms[*ai].End) {
				line.Split(*ai, next)
			}
			line.Atoms[*ai].Replace(buildReplacement(content, col))
			return
		}
		col += width
	}
}

// ShowWhitespaces replaces tabs, spaces, and the implicit trailing newline
// with visible glyphs: "→" padded to the tabstop for tabs, "·" for spaces,
// "¬" for the newline.
func ShowWhitespaces(ctx corectx.Context, flags highlight.Flags, buf *display.DisplayBuffer) {
	tabstop, err := ctx.Options().Int("tabstop")
	if err != nil {
		tabstop = 8
	}
	bufr := ctx.Buffer()
	for li := range buf.Lines {
		line := &buf.Lines[li]
		for ai := 0; ai < len(line.Atoms); ai++ {
			replaceRunsInAtom(line, &ai, bufr, func(c byte) bool {
				return c == '\t' || c == ' ' || c == '\n'
			}, func(content []byte, col unit.ByteCount) string {
				switch content[col] {
				case '\t':
					column := visualColumn(content, col, tabstop)
					count := tabstop - (column % tabstop)
					padding := []byte("→")
					for i := 1; i < count; i++ {
						padding = append(padding, ' ')
					}
					return string(padding)
				case ' ':
					return "·"
				default:
					return "¬"
				}
			})
		}
	}
}

// NumberLines inserts a right-aligned line-number atom at the start of
// every display line, sized to the buffer's total line count.
func NumberLines(resolve FaceResolver) highlight.Highlighter {
	return func(ctx corectx.Context, flags highlight.Flags, buf *display.DisplayBuffer) {
		f, err := resolve("LineNumbers")
		if err != nil {
			return
		}
		digits := len(strconv.Itoa(int(ctx.Buffer().LineCount())))
		for li := range buf.Lines {
			line := &buf.Lines[li]
			lineNo := int(line.Range.Begin.Line) + 1
			text := fmt.Sprintf("%*d│", digits, lineNo)
			line.Insert(0, display.NewTextAtom(text, f))
		}
	}
}

var matchingPairs = [][2]byte{{'(', ')'}, {'{', '}'}, {'[', ']'}, {'<', '>'}}

// ShowMatching highlights the bracket matching the one under each
// selection's cursor, walking forward or backward and tracking a nesting
// level so an inner pair of the same kind doesn't fool the search.
func ShowMatching(resolve FaceResolver) highlight.Highlighter {
	return func(ctx corectx.Context, flags highlight.Flags, buf *display.DisplayBuffer) {
		if !flags.Has(highlight.FlagHighlight) {
			return
		}
		f, err := resolve("MatchingChar")
		if err != nil {
			return
		}
		bufr := ctx.Buffer()
		rng := buf.Range
		for _, sel := range ctx.Selections().Selections {
			pos := sel.Head
			if pos.Less(rng.Begin) || pos.GreaterEq(rng.End) {
				continue
			}
			line := bufr.Line(pos.Line)
			if int(pos.Column) >= len(line) {
				continue
			}
			c := line[pos.Column]
			for _, pair := range matchingPairs {
				if c == pair[0] {
					if end, ok := scanForward(bufr, pos, pair[0], pair[1], rng.End); ok {
						display.HighlightRange(buf, end, unit.Pos(end.Line, end.Column+1), false, highlight.ApplyFace(f))
					}
					break
				}
				if c == pair[1] {
					if begin, ok := scanBackward(bufr, pos, pair[0], pair[1], rng.Begin); ok {
						display.HighlightRange(buf, begin, unit.Pos(begin.Line, begin.Column+1), false, highlight.ApplyFace(f))
					}
					break
				}
			}
		}
	}
}

func scanForward(buf interface {
	Line(unit.LineCount) []byte
	LineCount() unit.LineCount
}, from unit.Position, open, close byte, limit unit.Position) (unit.Position, bool) {
	level := 1
	pos := unit.Pos(from.Line, from.Column+1)
	for pos.Less(limit) {
		line := buf.Line(pos.Line)
		if int(pos.Column) >= len(line) {
			pos = unit.Pos(pos.Line+1, 0)
			continue
		}
		switch line[pos.Column] {
		case open:
			level++
		case close:
			level--
			if level == 0 {
				return pos, true
			}
		}
		pos.Column++
	}
	return unit.Position{}, false
}

func scanBackward(buf interface {
	Line(unit.LineCount) []byte
}, from unit.Position, open, close byte, limit unit.Position) (unit.Position, bool) {
	level := 1
	pos := from
	for pos.Greater(limit) {
		if pos.Column == 0 {
			if pos.Line == 0 {
				break
			}
			pos = unit.Pos(pos.Line-1, 0)
			line := buf.Line(pos.Line)
			pos.Column = unit.ByteCount(len(line))
			if pos.Column == 0 {
				continue
			}
			pos.Column--
		} else {
			pos.Column--
		}
		line := buf.Line(pos.Line)
		if int(pos.Column) >= len(line) {
			continue
		}
		switch line[pos.Column] {
		case close:
			level++
		case open:
			level--
			if level == 0 {
				return pos, true
			}
		}
	}
	return unit.Position{}, false
}

// HighlightSelections applies PrimarySelection/SecondarySelection faces to
// every selection's extent and PrimaryCursor/SecondaryCursor to its head,
// the cursor pass running after the extent pass so the cursor face always
// wins where they overlap.
func HighlightSelections(resolve FaceResolver) highlight.Highlighter {
	return func(ctx corectx.Context, flags highlight.Flags, buf *display.DisplayBuffer) {
		if !flags.Has(highlight.FlagHighlight) {
			return
		}
		bufr := ctx.Buffer()
		sels := ctx.Selections()
		for i, sel := range sels.Selections {
			if sel.IsEmpty() {
				continue
			}
			primary := i == sels.MainIndex
			name := "SecondarySelection"
			if primary {
				name = "PrimarySelection"
			}
			f, err := resolve(name)
			if err != nil {
				continue
			}
			r := sel.Range()
			display.HighlightRange(buf, r.Begin, charNext(bufr, r.End), false, highlight.ApplyFace(f))
		}
		for i, sel := range sels.Selections {
			primary := i == sels.MainIndex
			name := "SecondaryCursor"
			if primary {
				name = "PrimaryCursor"
			}
			f, err := resolve(name)
			if err != nil {
				continue
			}
			display.HighlightRange(buf, sel.Head, unit.Pos(sel.Head.Line, sel.Head.Column+1), false, highlight.ApplyFace(f))
		}
	}
}

// charNext returns the position one codepoint past p, crossing onto the
// next line at column 0 when p sits at end-of-line, the Go counterpart of
// the original's char_next used to extend a backward selection's anchor
// (and, symmetrically here, any selection's upper bound) by one character
// so the cell under the cursor is always part of the highlighted extent.
func charNext(buf interface {
	Line(unit.LineCount) []byte
	LineCount() unit.LineCount
}, p unit.Position) unit.Position {
	if p.Line >= buf.LineCount() {
		return p
	}
	line := buf.Line(p.Line)
	if int(p.Column) >= len(line) {
		return unit.Pos(p.Line+1, 0)
	}
	width := unit.NextCharWidth(line, p.Column)
	return unit.Pos(p.Line, p.Column+width)
}

// ExpandUnprintable replaces any codepoint outside the printable set
// (besides the line-ending newline) with its "U+XXXX" escape, styled in
// UnprintableCodepoint face.
func ExpandUnprintable(resolve FaceResolver) highlight.Highlighter {
	return func(ctx corectx.Context, flags highlight.Flags, buf *display.DisplayBuffer) {
		f, err := resolve("UnprintableCodepoint")
		if err != nil {
			f = face.Face{FG: face.RGB(255, 0, 0), BG: face.RGB(0, 0, 0)}
		}
		for li := range buf.Lines {
			line := &buf.Lines[li]
			for ai := 0; ai < len(line.Atoms); ai++ {
				atom := &line.Atoms[ai]
				if atom.Type != display.BufferRange || atom.Begin.Line != atom.End.Line {
					continue
				}
				content := ctx.Buffer().Line(atom.Begin.Line)
				for col := atom.Begin.Column; col < atom.End.Column; {
					r, width := unit.NextCodepoint(content, col)
					if width == 0 {
						break
					}
					if r != '\n' && !unit.IsPrintable(r) {
						pos := unit.Pos(atom.Begin.Line, col)
						next := unit.Pos(atom.Begin.Line, col+width)
						if pos.Greater(atom.Begin) {
							line.Split(ai, pos)
							ai++
						}
						if next.Less(line.Atoms[ai].End) {
							line.Split(ai, next)
						}
						line.Atoms[ai].Replace(fmt.Sprintf("U+%X", r))
						line.Atoms[ai].Face = f
						break
					}
					col += width
				}
			}
		}
	}
}

// LineFlagFactory builds the "flag_lines" highlighter: params[0] is the
// background color shared by every flag, params[1] names an
// option.LineFlag list option whose entries supply each flagged line's
// text. Flagged lines are drawn with a white foreground and unflagged
// lines with the default foreground, both on the params[0] background;
// the entries carry no color of their own.
func LineFlagFactory(parseColor func(string) (face.Color, error)) highlight.Factory {
	return func(params []string) (highlight.Highlighter, error) {
		if len(params) != 2 {
			return nil, fmt.Errorf("wrong parameter count")
		}
		bg, err := parseColor(params[0])
		if err != nil {
			return nil, err
		}
		optionName := params[1]
		return func(ctx corectx.Context, flags highlight.Flags, buf *display.DisplayBuffer) {
			lines, err := ctx.Options().LineFlagList(optionName)
			if err != nil {
				return
			}
			width := 0
			for _, l := range lines {
				if n := len(l.Text); n > width {
					width = n
				}
			}
			for li := range buf.Lines {
				line := &buf.Lines[li]
				lineNo := int(line.Range.Begin.Line) + 1
				text := ""
				fg := face.ColorDefault
				for _, l := range lines {
					if l.Line == lineNo {
						text = l.Text
						fg = face.RGB(255, 255, 255)
						break
					}
				}
				for len(text) < width {
					text += " "
				}
				line.Insert(0, display.DisplayAtom{Type: display.Text, Text: text, Face: face.Face{FG: fg, BG: bg}})
			}
		}, nil
	}
}

// LineOptionFactory builds the "line_option" highlighter: params[0] names
// an int option holding a 1-based line number, params[1] is the face to
// apply to that whole line.
func LineOptionFactory(resolve FaceResolver) highlight.Factory {
	return func(params []string) (highlight.Highlighter, error) {
		if len(params) != 2 {
			return nil, fmt.Errorf("wrong parameter count")
		}
		f, err := resolve(params[1])
		if err != nil {
			return nil, err
		}
		optionName := params[0]
		return func(ctx corectx.Context, flags highlight.Flags, buf *display.DisplayBuffer) {
			if !flags.Has(highlight.FlagHighlight) {
				return
			}
			line, err := ctx.Options().Int(optionName)
			if err != nil {
				return
			}
			begin := unit.Pos(unit.LineCount(line-1), 0)
			end := unit.Pos(unit.LineCount(line), 0)
			display.HighlightRange(buf, begin, end, false, highlight.ApplyFace(f))
		}, nil
	}
}
