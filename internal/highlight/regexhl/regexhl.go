// Package regexhl implements the regex-driven highlighters: a static
// RegexHighlighter built once from a compiled pattern and a per-capture
// face list, a DynamicRegexHighlighter that rebuilds itself when the
// regex or faces it's fed change, and the factories that build each from
// highlighter configuration parameters.
package regexhl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/davidaciko/panecore/internal/corectx"
	"github.com/davidaciko/panecore/internal/display"
	"github.com/davidaciko/panecore/internal/face"
	"github.com/davidaciko/panecore/internal/highlight"
	"github.com/davidaciko/panecore/internal/highlight/matchcache"
	"github.com/davidaciko/panecore/internal/textbuf"
	"github.com/davidaciko/panecore/internal/unit"
)

// RegexHighlighter highlights every match of a compiled regex against the
// visible portion of the buffer, applying faces[n] to capture group n
// (group 0 being the whole match), skipping groups with no face assigned.
type RegexHighlighter struct {
	Regex *regexp.Regexp
	Faces []face.Face // index 0 is the whole-match face; zero-value entries are unset.

	cache *matchcache.BufferSideCache[captureCache]
}

type captureCache struct {
	// one match list per capture group index, since each group has an
	// independent begin/end span per match
	groups    []matchcache.MatchList
	lineRange unit.LineRange
	timestamp int64
}

// NewRegexHighlighter builds a highlighter for regex with per-capture
// faces. faces[n] may be the zero Face to leave capture n unstyled.
func NewRegexHighlighter(regex *regexp.Regexp, faces []face.Face) *RegexHighlighter {
	return &RegexHighlighter{Regex: regex, Faces: faces, cache: matchcache.NewBufferSideCache[captureCache]()}
}

// Highlight applies this highlighter's faces to buf. It is exported as a
// highlight.Highlighter-shaped method so callers can pass h.Highlight
// directly into a highlight.Group.
func (h *RegexHighlighter) Highlight(ctx corectx.Context, flags highlight.Flags, buf *display.DisplayBuffer) {
	if !flags.Has(highlight.FlagHighlight) {
		return
	}
	groups := h.matchesForRange(ctx.Buffer(), buf.Range)
	for n, ms := range groups {
		if n >= len(h.Faces) || h.Faces[n].IsDefault() || h.Faces[n].Equals(face.Face{}) {
			continue
		}
		f := h.Faces[n]
		for _, m := range ms {
			display.HighlightRange(buf, m.BeginPos(), m.EndPos(), true, highlight.ApplyFace(f))
		}
	}
}

// matchesForRange returns, per capture group, the matches for the buffer,
// reusing a cached scan from a prior call at the same timestamp instead of
// rescanning every line on every frame, mirroring the original's
// update_cache_ifn for RegexHighlighter.
func (h *RegexHighlighter) matchesForRange(buf textbuf.Buffer, visRange unit.LineRange) map[int]matchcache.MatchList {
	cache := h.cache.Get(buf)
	if cache.timestamp == buf.Timestamp() && cache.groups != nil {
		return toMap(cache.groups)
	}

	groups := map[int]matchcache.MatchList{}
	for line := unit.LineCount(0); line < buf.LineCount(); line++ {
		l := buf.Line(line)
		for _, loc := range h.Regex.FindAllSubmatchIndex(l, -1) {
			for n := 0; n*2+1 < len(loc); n++ {
				if loc[n*2] < 0 {
					continue
				}
				groups[n] = append(groups[n], matchcache.Match{
					Line: line, Begin: unit.ByteCount(loc[n*2]), End: unit.ByteCount(loc[n*2+1]),
				})
			}
		}
	}

	cache.groups = toSlice(groups)
	cache.lineRange = visRange
	cache.timestamp = buf.Timestamp()
	return groups
}

func toSlice(groups map[int]matchcache.MatchList) []matchcache.MatchList {
	maxN := -1
	for n := range groups {
		if n > maxN {
			maxN = n
		}
	}
	slice := make([]matchcache.MatchList, maxN+1)
	for n, ms := range groups {
		slice[n] = ms
	}
	return slice
}

func toMap(slice []matchcache.MatchList) map[int]matchcache.MatchList {
	groups := map[int]matchcache.MatchList{}
	for n, ms := range slice {
		if ms != nil {
			groups[n] = ms
		}
	}
	return groups
}

// DynamicRegexHighlighter rebuilds its underlying RegexHighlighter
// whenever the regex or face list produced by its getters changes,
// letting a highlighter track a live option or search register instead
// of a fixed pattern baked in at configuration time.
type DynamicRegexHighlighter struct {
	RegexGetter func(corectx.Context) *regexp.Regexp
	FaceGetter  func(corectx.Context) []face.Face

	lastPattern string
	lastFaces   []face.Face
	inner       *RegexHighlighter
}

// NewDynamicRegexHighlighter builds a DynamicRegexHighlighter from its
// regex and face getters.
func NewDynamicRegexHighlighter(regexGetter func(corectx.Context) *regexp.Regexp, faceGetter func(corectx.Context) []face.Face) *DynamicRegexHighlighter {
	return &DynamicRegexHighlighter{RegexGetter: regexGetter, FaceGetter: faceGetter}
}

// Highlight resolves the current regex and faces and, if either changed
// since the last call, rebuilds the inner RegexHighlighter before
// delegating to it.
func (h *DynamicRegexHighlighter) Highlight(ctx corectx.Context, flags highlight.Flags, buf *display.DisplayBuffer) {
	if !flags.Has(highlight.FlagHighlight) {
		return
	}
	regex := h.RegexGetter(ctx)
	faces := h.FaceGetter(ctx)
	pattern := ""
	if regex != nil {
		pattern = regex.String()
	}
	if pattern != h.lastPattern || !facesEqual(faces, h.lastFaces) {
		h.lastPattern = pattern
		h.lastFaces = faces
		if regex != nil {
			h.inner = NewRegexHighlighter(regex, faces)
		} else {
			h.inner = nil
		}
	}
	if h.inner != nil && pattern != "" {
		h.inner.Highlight(ctx, flags, buf)
	}
}

func facesEqual(a, b []face.Face) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}

// faceSpecPattern matches a "<capture>:<facespec>" parameter, the format
// highlight_regex_factory's per-capture face arguments use.
var faceSpecPattern = regexp.MustCompile(`^(\d+):(.*)$`)

// RegexFactory builds a highlight.Factory for the static "regex"
// highlighter kind: params[0] is the pattern, the rest are
// "<capture>:<facespec>" pairs.
func RegexFactory(resolveFace func(string) (face.Face, error)) highlight.Factory {
	return func(params []string) (highlight.Highlighter, error) {
		if len(params) < 2 {
			return nil, fmt.Errorf("wrong parameter count")
		}
		regex, err := regexp.Compile(params[0])
		if err != nil {
			return nil, fmt.Errorf("regex error: %w", err)
		}

		var faces []face.Face
		for _, p := range params[1:] {
			m := faceSpecPattern.FindStringSubmatch(p)
			if m == nil {
				return nil, fmt.Errorf("wrong face spec: %q, expected <capture>:<facespec>", p)
			}
			capture, _ := strconv.Atoi(m[1])
			f, err := resolveFace(m[2])
			if err != nil {
				return nil, err
			}
			for len(faces) <= capture {
				faces = append(faces, face.Face{})
			}
			faces[capture] = f
		}

		h := NewRegexHighlighter(regex, faces)
		return h.Highlight, nil
	}
}

// RegexOptionFactory builds a highlight.Factory for the "regex_option"
// kind: params[0] names an option.Table regex option to track dynamically,
// params[1] is the face to apply to every match.
func RegexOptionFactory(resolveFace func(string) (face.Face, error), optionRegex func(corectx.Context, string) *regexp.Regexp) highlight.Factory {
	return func(params []string) (highlight.Highlighter, error) {
		if len(params) != 2 {
			return nil, fmt.Errorf("wrong parameter count")
		}
		optionName := params[0]
		f, err := resolveFace(params[1])
		if err != nil {
			return nil, err
		}
		h := NewDynamicRegexHighlighter(
			func(ctx corectx.Context) *regexp.Regexp { return optionRegex(ctx, optionName) },
			func(corectx.Context) []face.Face { return []face.Face{f} },
		)
		return h.Highlight, nil
	}
}

// SearchFactory builds a highlight.Factory for the "search" kind, which
// tracks an externally maintained search pattern (the equivalent of the
// original's main_sel_register_value("/")) supplied via patternGetter and
// always renders it with the "Search" face.
func SearchFactory(resolveFace func(string) (face.Face, error), patternGetter func(corectx.Context) string) highlight.Factory {
	return func(params []string) (highlight.Highlighter, error) {
		if len(params) != 0 {
			return nil, fmt.Errorf("wrong parameter count")
		}
		searchFace, err := resolveFace("Search")
		if err != nil {
			return nil, err
		}
		h := NewDynamicRegexHighlighter(
			func(ctx corectx.Context) *regexp.Regexp {
				pattern := patternGetter(ctx)
				if strings.TrimSpace(pattern) == "" {
					return nil
				}
				re, err := regexp.Compile(pattern)
				if err != nil {
					return nil
				}
				return re
			},
			func(corectx.Context) []face.Face { return []face.Face{searchFace} },
		)
		return h.Highlight, nil
	}
}
