// Package textbuf defines the Buffer contract every highlighter reads
// from, an in-memory reference implementation of it, and the line
// modification deltas the incremental match cache replays against.
package textbuf

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/davidaciko/panecore/internal/unit"
)

// NewBufferID returns a fresh, globally unique buffer identity, for callers
// (a file-opening command, a new scratch buffer) that have no natural name
// to key a BufferSideCache entry by.
func NewBufferID() string { return uuid.NewString() }

// Buffer is the read surface highlighters and the display package need:
// line-addressed content plus an identity used to key per-buffer caches.
type Buffer interface {
	// ID is a stable identity for this buffer's content-independent
	// identity, used as the key into BufferSideCache-style per-buffer
	// caches that must survive edits.
	ID() string
	// LineCount returns the number of lines in the buffer.
	LineCount() unit.LineCount
	// Line returns the raw bytes of line n, including its trailing
	// newline except possibly on the last line.
	Line(n unit.LineCount) []byte
	// Timestamp increases every time the buffer's content changes, letting
	// caches cheaply detect staleness without diffing content.
	Timestamp() int64
}

// ModificationKind distinguishes how a LineModification changed content,
// mirroring the original's LineModification { num, new_line, diff }.
type ModificationKind int

const (
	// Unchanged lines around an edit still shift by the same delta as
	// their neighbors when lines are inserted or removed above them.
	Unchanged ModificationKind = iota
	Inserted
	Removed
	Modified
)

// LineModification describes how a single buffer line moved and/or
// changed between two revisions, the unit the incremental match cache
// replays to shift or invalidate stale matches without a full rescan.
type LineModification struct {
	Kind    ModificationKind
	OldLine unit.LineCount
	NewLine unit.LineCount
	NumLine unit.LineCount // for Inserted/Removed runs, how many lines
}

// ComputeLineModifications diffs oldLines against newLines using the Myers
// algorithm and returns the ordered list of line modifications between
// them, the same shape the incremental match cache consumes to shift its
// cached matches instead of recomputing them.
func ComputeLineModifications(oldLines, newLines [][]byte) []LineModification {
	eq := func(a, b []byte) bool { return string(a) == string(b) }
	script := myersDiff(oldLines, newLines, eq)

	var mods []LineModification
	var oldIdx, newIdx unit.LineCount
	for _, op := range script {
		switch op.kind {
		case opEqual:
			oldIdx += unit.LineCount(op.n)
			newIdx += unit.LineCount(op.n)
		case opDelete:
			mods = append(mods, LineModification{Kind: Removed, OldLine: oldIdx, NewLine: newIdx, NumLine: unit.LineCount(op.n)})
			oldIdx += unit.LineCount(op.n)
		case opInsert:
			mods = append(mods, LineModification{Kind: Inserted, OldLine: oldIdx, NewLine: newIdx, NumLine: unit.LineCount(op.n)})
			newIdx += unit.LineCount(op.n)
		}
	}
	return mods
}

type diffOpKind int

const (
	opEqual diffOpKind = iota
	opDelete
	opInsert
)

type diffOp struct {
	kind diffOpKind
	n    int
}

type diffSnapshot struct {
	d int
	v map[int]int
}

// myersDiff computes a minimal edit script between a and b using the
// classic O(ND) greedy algorithm, grounded on the same approach the
// teacher's revision-tracking diff uses for change sets.
func myersDiff(a, b [][]byte, eq func([]byte, []byte) bool) []diffOp {
	n, m := len(a), len(b)
	max := n + m
	if max == 0 {
		return nil
	}
	v := make(map[int]int, 2*max+1)
	v[1] = 0
	var trace []diffSnapshot

	for d := 0; d <= max; d++ {
		snap := make(map[int]int, len(v))
		for k, val := range v {
			snap[k] = val
		}
		trace = append(trace, diffSnapshot{d: d, v: snap})

		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[k-1] < v[k+1]) {
				x = v[k+1]
			} else {
				x = v[k-1] + 1
			}
			y := x - k
			for x < n && y < m && eq(a[x], b[y]) {
				x++
				y++
			}
			v[k] = x
			if x >= n && y >= m {
				return backtrack(trace, n, m)
			}
		}
	}
	return backtrack(trace, n, m)
}

func backtrack(trace []diffSnapshot, n, m int) []diffOp {
	x, y := n, m
	var ops []diffOp
	for d := len(trace) - 1; d > 0; d-- {
		v := trace[d].v
		k := x - y
		var prevK int
		if k == -d || (k != d && v[k-1] < v[k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := v[prevK]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			ops = append(ops, diffOp{kind: opEqual, n: 1})
			x--
			y--
		}
		if x == prevX {
			ops = append(ops, diffOp{kind: opInsert, n: 1})
			y--
		} else {
			ops = append(ops, diffOp{kind: opDelete, n: 1})
			x--
		}
	}
	for x > 0 && y > 0 {
		ops = append(ops, diffOp{kind: opEqual, n: 1})
		x--
		y--
	}
	reverse(ops)
	return coalesce(ops)
}

func reverse(ops []diffOp) {
	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
}

func coalesce(ops []diffOp) []diffOp {
	if len(ops) == 0 {
		return ops
	}
	out := ops[:1]
	for _, op := range ops[1:] {
		last := &out[len(out)-1]
		if last.kind == op.kind {
			last.n += op.n
			continue
		}
		out = append(out, op)
	}
	return out
}

// MemBuffer is a small in-memory Buffer implementation, useful for tests,
// demos, and anywhere content doesn't come from a live editing session.
type MemBuffer struct {
	id        string
	lines     [][]byte
	timestamp int64
}

// NewMemBuffer splits content into lines (splitting on "\n", keeping each
// line's trailing newline except possibly the last) and wraps it as a
// Buffer identified by id.
func NewMemBuffer(id string, content string) *MemBuffer {
	lines := splitLines(content)
	return &MemBuffer{id: id, lines: lines}
}

func splitLines(content string) [][]byte {
	if content == "" {
		return [][]byte{[]byte("")}
	}
	parts := strings.SplitAfter(content, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	lines := make([][]byte, len(parts))
	for i, p := range parts {
		lines[i] = []byte(p)
	}
	return lines
}

func (b *MemBuffer) ID() string                 { return b.id }
func (b *MemBuffer) LineCount() unit.LineCount   { return unit.LineCount(len(b.lines)) }
func (b *MemBuffer) Timestamp() int64            { return b.timestamp }

func (b *MemBuffer) Line(n unit.LineCount) []byte {
	if n < 0 || int(n) >= len(b.lines) {
		panic(fmt.Sprintf("textbuf: line %d out of range [0, %d)", n, len(b.lines)))
	}
	return b.lines[n]
}

// SetContent replaces the buffer's content wholesale and returns the line
// modifications between the old and new content, bumping Timestamp.
func (b *MemBuffer) SetContent(content string) []LineModification {
	newLines := splitLines(content)
	mods := ComputeLineModifications(b.lines, newLines)
	b.lines = newLines
	b.timestamp++
	return mods
}
