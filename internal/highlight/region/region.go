// Package region implements the region highlighter: a buffer is
// partitioned into named spans delimited by begin/end regex pairs (with
// an optional recurse pattern for nesting, as in matching string quotes
// that must not end on an escaped quote), and each span is rendered by
// the sub-highlighter group registered under its name.
package region

import (
	"fmt"
	"regexp"

	"github.com/davidaciko/panecore/internal/corectx"
	"github.com/davidaciko/panecore/internal/display"
	"github.com/davidaciko/panecore/internal/highlight"
	"github.com/davidaciko/panecore/internal/highlight/matchcache"
	"github.com/davidaciko/panecore/internal/textbuf"
	"github.com/davidaciko/panecore/internal/unit"
)

// Desc is one named region's delimiters: text from a Begin match up to
// the next Matching End match, skipping over any Begin/End pairs nested
// inside according to Recurse, which (when non-nil) is balanced against
// End the same way parentheses would be.
type Desc struct {
	Begin   *regexp.Regexp
	End     *regexp.Regexp
	Recurse *regexp.Regexp // nil if this region does not nest
}

// Matches holds the begin/end/recurse match lists found for one Desc
// against one buffer.
type Matches struct {
	Begin   matchcache.MatchList
	End     matchcache.MatchList
	Recurse matchcache.MatchList
}

// FindMatches performs a full scan for d's delimiters against buf.
func (d Desc) FindMatches(buf textbuf.Buffer) Matches {
	m := Matches{
		Begin: matchcache.FindMatches(buf, d.Begin),
		End:   matchcache.FindMatches(buf, d.End),
	}
	if d.Recurse != nil {
		m.Recurse = matchcache.FindMatches(buf, d.Recurse)
	}
	return m
}

// UpdateMatches incrementally refreshes m in place against buf's current
// content given mods.
func (d Desc) UpdateMatches(buf textbuf.Buffer, mods []textbuf.LineModification, m *Matches) {
	m.Begin = matchcache.UpdateMatches(buf, mods, m.Begin, d.Begin)
	m.End = matchcache.UpdateMatches(buf, mods, m.End, d.End)
	if d.Recurse != nil {
		m.Recurse = matchcache.UpdateMatches(buf, mods, m.Recurse, d.Recurse)
	}
}

// findMatchingEnd returns the index into m.End of the end match balancing
// a begin match at beginEnd, consuming one End for each Recurse match that
// opens before it, mirroring the original's nesting-level walk in
// RegionMatches::find_matching_end.
func findMatchingEnd(m Matches, beginEnd unit.Position) (idx int, found bool) {
	endIdx := matchcache.FindNextBegin(m.End, beginEnd)
	recIdx := matchcache.FindNextBegin(m.Recurse, beginEnd)
	level := 0
	cursor := beginEnd
	for {
		endIdx = advanceTo(m.End, endIdx, cursor)
		recIdx = advanceTo(m.Recurse, recIdx, cursor)
		if endIdx >= len(m.End) {
			return endIdx, false
		}
		for recIdx < len(m.Recurse) && m.Recurse[recIdx].BeginPos().Less(m.End[endIdx].BeginPos()) {
			level++
			recIdx++
		}
		if level == 0 {
			return endIdx, true
		}
		level--
		cursor = m.End[endIdx].EndPos()
		endIdx++
	}
}

func advanceTo(list matchcache.MatchList, from int, pos unit.Position) int {
	for from < len(list) && list[from].BeginPos().Less(pos) {
		from++
	}
	return from
}

// namedDesc pairs a Desc with the name of the sub-highlighter group that
// renders text inside it.
type namedDesc struct {
	name string
	desc Desc
}

// Span is one partitioned region of the buffer: [Begin, End) rendered by
// the sub-highlighter named Group.
type Span struct {
	Begin unit.Position
	End   unit.Position
	Group string
}

type regionCache struct {
	matches     []Matches
	spans       []Span
	timestamp   int64
	initialized bool
}

// Highlighter partitions a buffer into named spans and dispatches each
// span, plus the gaps between them, to per-name sub-highlighters,
// grounded on the original's RegionsHighlighter/regions_factory.
type Highlighter struct {
	regions      []namedDesc
	defaultGroup string
	groups       map[string]highlight.Highlighter

	cache       *matchcache.BufferSideCache[regionCache]
	pendingMods []textbuf.LineModification
}

// New builds a region Highlighter. names must line up 1:1 with descs.
// groups maps a region name (and defaultGroup, if set) to the
// sub-highlighter that renders its contents; a region whose name has no
// entry in groups is left unstyled, matching the original skipping
// begin->end spans whose group wasn't found.
func New(names []string, descs []Desc, defaultGroup string, groups map[string]highlight.Highlighter) (*Highlighter, error) {
	if len(names) != len(descs) {
		return nil, fmt.Errorf("region: names and descs must have matching length")
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("region: at least one region must be defined")
	}
	regions := make([]namedDesc, len(names))
	for i, name := range names {
		if descs[i].Begin == nil || descs[i].End == nil {
			return nil, fmt.Errorf("region: invalid regex for region %q", name)
		}
		regions[i] = namedDesc{name: name, desc: descs[i]}
	}
	return &Highlighter{
		regions:      regions,
		defaultGroup: defaultGroup,
		groups:       groups,
		cache:        matchcache.NewBufferSideCache[regionCache](),
	}, nil
}

// Notify records line modifications the highlighter should replay against
// its cached matches the next time it runs, instead of a full rescan.
// Callers that edit the buffer outside this package should call this so
// the region cache stays incremental.
func (h *Highlighter) Notify(mods []textbuf.LineModification) {
	h.pendingMods = append(h.pendingMods, mods...)
}

// Highlight partitions the buffer and dispatches each span (and the gaps
// between them, if defaultGroup is set) to its sub-highlighter.
func (h *Highlighter) Highlight(ctx corectx.Context, flags highlight.Flags, buf *display.DisplayBuffer) {
	if !flags.Has(highlight.FlagHighlight) {
		return
	}
	spans := h.updateCacheIfNeeded(ctx.Buffer())

	defaultHL, hasDefault := h.groups[h.defaultGroup]

	lastBegin := buf.Range.Begin
	for _, sp := range spans {
		if sp.End.LessEq(buf.Range.Begin) || buf.Range.End.LessEq(sp.Begin) {
			continue
		}
		if hasDefault && lastBegin.Less(sp.Begin) {
			display.ApplyHighlighter(buf, correct(ctx, lastBegin), correct(ctx, sp.Begin), func(region *display.DisplayBuffer) {
				defaultHL(ctx, flags, region)
			})
		}
		if hl, ok := h.groups[sp.Group]; ok {
			display.ApplyHighlighter(buf, correct(ctx, sp.Begin), correct(ctx, sp.End), func(region *display.DisplayBuffer) {
				hl(ctx, flags, region)
			})
		}
		lastBegin = sp.End
	}
	if hasDefault && lastBegin.Less(buf.Range.End) {
		display.ApplyHighlighter(buf, correct(ctx, lastBegin), buf.Range.End, func(region *display.DisplayBuffer) {
			defaultHL(ctx, flags, region)
		})
	}
}

// correct nudges a position sitting exactly at a line's length onto the
// start of the next line, the same normalization the original applies
// before calling apply_highlighter with a region boundary.
func correct(ctx corectx.Context, p unit.Position) unit.Position {
	buf := ctx.Buffer()
	if p.Line < buf.LineCount() && unit.ByteCount(len(buf.Line(p.Line))) == p.Column {
		return unit.Pos(p.Line+1, 0)
	}
	return p
}

func (h *Highlighter) updateCacheIfNeeded(buf textbuf.Buffer) []Span {
	cache := h.cache.Get(buf)
	if cache.initialized && cache.timestamp == buf.Timestamp() {
		return cache.spans
	}

	if !cache.initialized {
		cache.matches = make([]Matches, len(h.regions))
		for i, r := range h.regions {
			cache.matches[i] = r.desc.FindMatches(buf)
		}
	} else if len(h.pendingMods) > 0 {
		for i, r := range h.regions {
			r.desc.UpdateMatches(buf, h.pendingMods, &cache.matches[i])
		}
	} else {
		for i, r := range h.regions {
			cache.matches[i] = r.desc.FindMatches(buf)
		}
	}
	h.pendingMods = nil

	cache.spans = partition(h.regions, cache.matches, buf)
	cache.timestamp = buf.Timestamp()
	cache.initialized = true
	return cache.spans
}

// advanceOneCodepoint returns p moved forward by one character width
// (unit.NextCharWidth), or p unchanged when p.Line is past the last line.
func advanceOneCodepoint(buf textbuf.Buffer, p unit.Position) unit.Position {
	if p.Line >= buf.LineCount() {
		return p
	}
	width := unit.NextCharWidth(buf.Line(p.Line), p.Column)
	return unit.Pos(p.Line, p.Column+width)
}

// partition walks every region's begin matches in position order,
// greedily consuming from pos = buffer start, each time picking whichever
// region has the earliest next begin match, finding its matching end (or
// the end of the buffer), and resuming the search just past it.
func partition(regions []namedDesc, matches []Matches, buf textbuf.Buffer) []Span {
	var spans []Span
	pos := unit.Pos(0, 0)
	bufEnd := unit.Pos(buf.LineCount(), 0)

	idx := make([]int, len(regions))
	for {
		bestRegion := -1
		var bestPos unit.Position
		for i := range regions {
			idx[i] = advanceTo(matches[i].Begin, idx[i], pos)
			if idx[i] >= len(matches[i].Begin) {
				continue
			}
			candidate := matches[i].Begin[idx[i]].BeginPos()
			if bestRegion == -1 || candidate.Less(bestPos) {
				bestRegion = i
				bestPos = candidate
			}
		}
		if bestRegion == -1 {
			break
		}

		beginMatch := matches[bestRegion].Begin[idx[bestRegion]]
		endIdx, found := findMatchingEnd(matches[bestRegion], beginMatch.EndPos())
		var end unit.Position
		if !found {
			end = bufEnd
			spans = append(spans, Span{Begin: beginMatch.BeginPos(), End: end, Group: regions[bestRegion].name})
			break
		}
		end = matches[bestRegion].End[endIdx].EndPos()
		spans = append(spans, Span{Begin: beginMatch.BeginPos(), End: end, Group: regions[bestRegion].name})

		if end.Equal(beginMatch.BeginPos()) {
			end = advanceOneCodepoint(buf, end)
		}
		pos = end
	}
	return spans
}
