// Package hlconfig loads a highlighter chain — faces, options, and the
// named groups of highlighters that render them — from a TOML document,
// the declarative counterpart of issuing a sequence of add-highlighter
// commands by hand. It wires the highlighter factories in
// internal/highlight/simple, internal/highlight/regexhl, and
// internal/highlight/region together under named groups addressable from
// a "regions" entry's sub-groups.
package hlconfig

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"

	"github.com/davidaciko/panecore/internal/corectx"
	"github.com/davidaciko/panecore/internal/face"
	"github.com/davidaciko/panecore/internal/highlight"
	"github.com/davidaciko/panecore/internal/highlight/region"
	"github.com/davidaciko/panecore/internal/highlight/regexhl"
	"github.com/davidaciko/panecore/internal/highlight/simple"
	"github.com/davidaciko/panecore/internal/option"
)

// FaceSpec is one named face's TOML representation: color names or
// facespec strings (anything face.ParseColor accepts) plus a list of
// attribute names.
type FaceSpec struct {
	FG    string   `toml:"fg"`
	BG    string   `toml:"bg"`
	Attrs []string `toml:"attrs"`
}

// HighlighterSpec is one add-highlighter-equivalent entry: Kind names a
// registered factory, Params are its configuration parameters, ID names
// this entry uniquely within Group so it can later be toggled or removed,
// and Group is the name of the chain it belongs to ("window" for the
// root chain, or a region's own name for a sub-chain rendering that
// region's contents).
type HighlighterSpec struct {
	Group  string   `toml:"group"`
	ID     string   `toml:"id"`
	Kind   string   `toml:"kind"`
	Params []string `toml:"params"`
}

// RegionDefSpec is one named region's delimiters within a RegionSetSpec.
// Name doubles as the group name its contents render through — the
// region highlighter looks up its sub-chain by this same name, mirroring
// region.Desc/region.New's contract.
type RegionDefSpec struct {
	Name    string `toml:"name"`
	Begin   string `toml:"begin"`
	End     string `toml:"end"`
	Recurse string `toml:"recurse"`
}

// RegionSetSpec is a named collection of regions a "regions"-kind
// HighlighterSpec refers to by Name in its first parameter.
type RegionSetSpec struct {
	Name         string          `toml:"name"`
	DefaultGroup string          `toml:"default_group"`
	Regions      []RegionDefSpec `toml:"regions"`
}

// Document is the full parsed shape of a highlighter-chain TOML file.
type Document struct {
	Options      map[string]any    `toml:"options"`
	Faces        map[string]FaceSpec `toml:"faces"`
	Highlighters []HighlighterSpec `toml:"highlighters"`
	RegionSets   []RegionSetSpec   `toml:"regionsets"`
}

// ParseError reports a problem decoding or building a configuration,
// naming the source path when one is known.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("hlconfig: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("hlconfig: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Decode parses a TOML highlighter configuration from r.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	var doc Document
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &doc, nil
}

// DecodeFile parses a TOML highlighter configuration from the file at path.
func DecodeFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()
	doc, err := Decode(f)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = path
			return nil, pe
		}
		return nil, err
	}
	return doc, nil
}

var attrNames = map[string]face.Attribute{
	"underline":       face.AttrUnderline,
	"curly_underline": face.AttrCurlyUnderline,
	"reverse":         face.AttrReverse,
	"blink":           face.AttrBlink,
	"bold":            face.AttrBold,
	"dim":             face.AttrDim,
	"italic":          face.AttrItalic,
	"strikethrough":   face.AttrStrikethrough,
	"final":           face.AttrFinal,
}

func buildFaces(specs map[string]FaceSpec) (map[string]face.Face, error) {
	faces := map[string]face.Face{}
	for name, spec := range specs {
		f := face.DefaultFace()
		if spec.FG != "" {
			c, err := face.ParseColor(spec.FG)
			if err != nil {
				return nil, fmt.Errorf("hlconfig: face %q fg: %w", name, err)
			}
			f.FG = c
		}
		if spec.BG != "" {
			c, err := face.ParseColor(spec.BG)
			if err != nil {
				return nil, fmt.Errorf("hlconfig: face %q bg: %w", name, err)
			}
			f.BG = c
		}
		for _, a := range spec.Attrs {
			attr, ok := attrNames[a]
			if !ok {
				return nil, fmt.Errorf("hlconfig: face %q: unknown attribute %q", name, a)
			}
			f.Attrs = f.Attrs.With(attr)
		}
		faces[name] = f
	}
	return faces, nil
}

// ApplyOptions sets every entry of values on table, converting TOML's
// int64 decode type to the plain int option.Table.Set expects.
func ApplyOptions(table *option.Table, values map[string]any) error {
	for name, v := range values {
		if n, ok := v.(int64); ok {
			v = int(n)
		}
		if err := table.Set(name, v); err != nil {
			return fmt.Errorf("hlconfig: option %q: %w", name, err)
		}
	}
	return nil
}

// Builder turns a parsed Document into a tree of highlight.Group values,
// resolving "regions" entries into fully built region.Highlighter values
// whose sub-groups are themselves built (recursively) from the same
// Document's highlighter entries.
type Builder struct {
	doc        *Document
	faces      map[string]face.Face
	registry   *highlight.Registry
	byGroup    map[string][]HighlighterSpec
	regionSets map[string]RegionSetSpec
	groupCache map[string]*highlight.Group
	building   map[string]bool
}

// NewBuilder validates doc's faces and indexes its highlighter entries
// and region sets, ready for Build or BuildGroup.
func NewBuilder(doc *Document) (*Builder, error) {
	faces, err := buildFaces(doc.Faces)
	if err != nil {
		return nil, err
	}
	b := &Builder{
		doc:        doc,
		faces:      faces,
		byGroup:    map[string][]HighlighterSpec{},
		regionSets: map[string]RegionSetSpec{},
		groupCache: map[string]*highlight.Group{},
		building:   map[string]bool{},
	}
	for _, h := range doc.Highlighters {
		b.byGroup[h.Group] = append(b.byGroup[h.Group], h)
	}
	for _, rs := range doc.RegionSets {
		b.regionSets[rs.Name] = rs
	}
	b.registry = b.buildRegistry()
	return b, nil
}

// Faces returns the faces this Document defined, suitable for
// corectx.NewStaticContext's faces parameter.
func (b *Builder) Faces() map[string]face.Face { return b.faces }

// ResolveFace looks up a face by name, the FaceResolver every
// face-taking factory in this module closes over.
func (b *Builder) ResolveFace(name string) (face.Face, error) {
	f, ok := b.faces[name]
	if !ok {
		return face.Face{}, fmt.Errorf("hlconfig: unknown face %q", name)
	}
	return f, nil
}

func (b *Builder) buildRegistry() *highlight.Registry {
	r := highlight.NewRegistry()
	resolve := b.ResolveFace
	r.Register("fill", simple.FillFactory(resolve))
	r.Register("number_lines", wrapHighlighter(simple.NumberLines(resolve)))
	r.Register("matching_char", wrapHighlighter(simple.ShowMatching(resolve)))
	r.Register("show_selections", wrapHighlighter(simple.HighlightSelections(resolve)))
	r.Register("expand_tabulations", wrapHighlighter(simple.ExpandTabulations))
	r.Register("show_whitespaces", wrapHighlighter(simple.ShowWhitespaces))
	r.Register("expand_unprintable", wrapHighlighter(simple.ExpandUnprintable(resolve)))
	r.Register("flag_lines", simple.LineFlagFactory(face.ParseColor))
	r.Register("line_option", simple.LineOptionFactory(resolve))
	r.Register("regex", regexhl.RegexFactory(resolve))
	r.Register("regex_option", regexhl.RegexOptionFactory(resolve, optionRegex))
	r.Register("search", regexhl.SearchFactory(resolve, searchPattern))
	r.Register("regions", b.regionsFactory())
	r.Register("ref", highlight.ReferenceFactory(b.resolveGroupHighlighter))
	return r
}

// resolveGroupHighlighter builds (or fetches the cached build of) the
// named group for the "ref" highlighter. A name with no entries builds an
// empty group, which highlights nothing; a group that fails to build (a
// circular reference, for one) is treated as not found rather than
// propagating the error, so in both cases a dangling path is a silent
// no-op.
func (b *Builder) resolveGroupHighlighter(path string) (highlight.Highlighter, bool) {
	g, err := b.BuildGroup(path)
	if err != nil {
		return nil, false
	}
	return g.Highlighter(), true
}

// wrapHighlighter adapts a parameterless highlight.Highlighter into a
// highlight.Factory, for the kinds whose builder function takes no
// configuration parameters of its own.
func wrapHighlighter(h highlight.Highlighter) highlight.Factory {
	return func(params []string) (highlight.Highlighter, error) {
		if len(params) != 0 {
			return nil, fmt.Errorf("wrong parameter count")
		}
		return h, nil
	}
}

func optionRegex(ctx corectx.Context, name string) *regexp.Regexp {
	re, err := ctx.Options().Regex(name)
	if err != nil {
		return nil
	}
	return re
}

// searchPattern reads the live search pattern from the "search_pattern"
// string option, the option-table equivalent of the original reading the
// "/" search register.
func searchPattern(ctx corectx.Context) string {
	s, err := ctx.Options().String("search_pattern")
	if err != nil {
		return ""
	}
	return s
}

func (b *Builder) regionsFactory() highlight.Factory {
	return func(params []string) (highlight.Highlighter, error) {
		if len(params) != 1 {
			return nil, fmt.Errorf("wrong parameter count")
		}
		h, err := b.buildRegionSet(params[0])
		if err != nil {
			return nil, err
		}
		return h.Highlight, nil
	}
}

func (b *Builder) buildRegionSet(name string) (*region.Highlighter, error) {
	rs, ok := b.regionSets[name]
	if !ok {
		return nil, fmt.Errorf("hlconfig: unknown region set %q", name)
	}

	names := make([]string, len(rs.Regions))
	descs := make([]region.Desc, len(rs.Regions))
	groupNames := map[string]bool{}
	for i, rd := range rs.Regions {
		begin, err := regexp.Compile(rd.Begin)
		if err != nil {
			return nil, fmt.Errorf("hlconfig: region %q begin: %w", rd.Name, err)
		}
		end, err := regexp.Compile(rd.End)
		if err != nil {
			return nil, fmt.Errorf("hlconfig: region %q end: %w", rd.Name, err)
		}
		var recurse *regexp.Regexp
		if rd.Recurse != "" {
			recurse, err = regexp.Compile(rd.Recurse)
			if err != nil {
				return nil, fmt.Errorf("hlconfig: region %q recurse: %w", rd.Name, err)
			}
		}
		names[i] = rd.Name
		descs[i] = region.Desc{Begin: begin, End: end, Recurse: recurse}
		groupNames[rd.Name] = true
	}
	if rs.DefaultGroup != "" {
		groupNames[rs.DefaultGroup] = true
	}

	groups := map[string]highlight.Highlighter{}
	for gname := range groupNames {
		g, err := b.BuildGroup(gname)
		if err != nil {
			return nil, err
		}
		groups[gname] = g.Highlighter()
	}

	return region.New(names, descs, rs.DefaultGroup, groups)
}

// BuildGroup builds (or returns the cached build of) the named
// highlighter chain, detecting a region set whose own sub-groups
// circularly depend on it rather than recursing forever.
func (b *Builder) BuildGroup(name string) (*highlight.Group, error) {
	if g, ok := b.groupCache[name]; ok {
		return g, nil
	}
	if b.building[name] {
		return nil, fmt.Errorf("hlconfig: circular group reference involving %q", name)
	}
	b.building[name] = true
	defer delete(b.building, name)

	g := highlight.NewGroup()
	for _, spec := range b.byGroup[name] {
		h, err := b.registry.Build(spec.Kind, spec.Params)
		if err != nil {
			return nil, fmt.Errorf("hlconfig: group %q entry %q: %w", name, spec.ID, err)
		}
		g.Add(spec.ID, h)
	}
	b.groupCache[name] = g
	return g, nil
}

// Build builds the root "window" chain, the group every other group in
// the Document is reachable from.
func (b *Builder) Build() (*highlight.Group, error) {
	return b.BuildGroup("window")
}

// Load decodes a TOML highlighter configuration from r, applies its
// [options] onto table, and builds its root "window" highlighter chain,
// returning it alongside the faces it defined.
func Load(r io.Reader, table *option.Table) (*highlight.Group, map[string]face.Face, error) {
	doc, err := Decode(r)
	if err != nil {
		return nil, nil, err
	}
	if err := ApplyOptions(table, doc.Options); err != nil {
		return nil, nil, err
	}
	b, err := NewBuilder(doc)
	if err != nil {
		return nil, nil, err
	}
	g, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	return g, b.Faces(), nil
}
