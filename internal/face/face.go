// Package face defines the color and attribute model attached to display
// atoms: Color, Attribute, and Face, together with the merge semantics
// used whenever two highlighters assign conflicting faces to the same
// range of text.
package face

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Attribute is a bitset of text attributes independent of color.
type Attribute uint16

const (
	AttrNone Attribute = 0
	AttrUnderline Attribute = 1 << iota
	AttrCurlyUnderline
	AttrReverse
	AttrBlink
	AttrBold
	AttrDim
	AttrItalic
	AttrStrikethrough
	AttrFinal // marks a face whose attributes should not be overridden by later merges, mirroring the original's Attribute::Final
)

// Has reports whether a contains attr.
func (a Attribute) Has(attr Attribute) bool { return a&attr != 0 }

// With returns a with attr set.
func (a Attribute) With(attr Attribute) Attribute { return a | attr }

// Without returns a with attr cleared.
func (a Attribute) Without(attr Attribute) Attribute { return a &^ attr }

// Color is either the terminal's default color, an indexed palette color,
// or a true RGB color. The zero Color is the default color, matching the
// original's Color::Default being color index 0.
type Color struct {
	R, G, B uint8
	Indexed bool
	Default bool
}

// ColorDefault is the terminal's default foreground/background color.
var ColorDefault = Color{Default: true}

// RGB constructs a true color from components.
func RGB(r, g, b uint8) Color { return Color{R: r, G: g, B: b} }

// Indexed constructs an indexed palette color (0-255).
func Indexed(index uint8) Color { return Color{R: index, Indexed: true} }

// ParseColor parses a color name the way Kakoune's face specification
// strings do: "default", "rgb:RRGGBB" / "#RRGGBB", or a bare palette index.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || s == "default":
		return ColorDefault, nil
	case strings.HasPrefix(s, "rgb:"):
		return parseHex(s[len("rgb:"):])
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	}
	if idx, err := strconv.ParseUint(s, 10, 8); err == nil {
		return Indexed(uint8(idx)), nil
	}
	if named, ok := namedColors[s]; ok {
		return named, nil
	}
	return Color{}, fmt.Errorf("face: unknown color %q", s)
}

func parseHex(hex string) (Color, error) {
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("face: invalid hex color length %q", hex)
	}
	r, err := strconv.ParseUint(hex[0:2], 16, 8)
	if err != nil {
		return Color{}, fmt.Errorf("face: invalid hex color %q: %w", hex, err)
	}
	g, err := strconv.ParseUint(hex[2:4], 16, 8)
	if err != nil {
		return Color{}, fmt.Errorf("face: invalid hex color %q: %w", hex, err)
	}
	b, err := strconv.ParseUint(hex[4:6], 16, 8)
	if err != nil {
		return Color{}, fmt.Errorf("face: invalid hex color %q: %w", hex, err)
	}
	return RGB(uint8(r), uint8(g), uint8(b)), nil
}

var namedColors = map[string]Color{
	"black":   RGB(0, 0, 0),
	"white":   RGB(255, 255, 255),
	"red":     RGB(255, 0, 0),
	"green":   RGB(0, 255, 0),
	"blue":    RGB(0, 0, 255),
	"yellow":  RGB(255, 255, 0),
	"cyan":    RGB(0, 255, 255),
	"magenta": RGB(255, 0, 255),
	"gray":    RGB(128, 128, 128),
}

// IsDefault reports whether c is the terminal's inherited default color.
func (c Color) IsDefault() bool { return c.Default }

// Equals reports whether c and other denote the same color.
func (c Color) Equals(other Color) bool {
	if c.Default != other.Default {
		return false
	}
	if c.Default {
		return true
	}
	if c.Indexed != other.Indexed {
		return false
	}
	if c.Indexed {
		return c.R == other.R
	}
	return c.R == other.R && c.G == other.G && c.B == other.B
}

func (c Color) String() string {
	if c.IsDefault() {
		return "default"
	}
	if c.Indexed {
		return fmt.Sprintf("idx(%d)", c.R)
	}
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func fromColorful(cc colorful.Color) Color {
	r, g, b := cc.Clamped().RGB255()
	return RGB(r, g, b)
}

// Lighten blends c towards white in perceptual (Lab) space rather than
// with gamma-naive RGB math.
func (c Color) Lighten(amount float64) Color {
	if c.Indexed || c.Default {
		return c
	}
	return fromColorful(c.colorful().BlendLab(colorful.Color{R: 1, G: 1, B: 1}, amount))
}

// Darken blends c towards black in perceptual (Lab) space.
func (c Color) Darken(amount float64) Color {
	if c.Indexed || c.Default {
		return c
	}
	return fromColorful(c.colorful().BlendLab(colorful.Color{}, amount))
}

// Blend interpolates between c and other in perceptual (Lab) space.
func (c Color) Blend(other Color, amount float64) Color {
	if c.Indexed || other.Indexed {
		if amount < 0.5 {
			return c
		}
		return other
	}
	return fromColorful(c.colorful().BlendLab(other.colorful(), amount))
}

// Face is a foreground/background color pair plus attributes, the unit of
// styling attached to every DisplayAtom.
type Face struct {
	FG    Color
	BG    Color
	Attrs Attribute
}

// DefaultFace is the face inherited by text with no highlighter applied.
func DefaultFace() Face {
	return Face{FG: ColorDefault, BG: ColorDefault, Attrs: AttrNone}
}

// IsDefault reports whether f is indistinguishable from DefaultFace.
func (f Face) IsDefault() bool {
	return f.FG.IsDefault() && f.BG.IsDefault() && f.Attrs == AttrNone
}

// Merge layers other on top of f: non-default colors and set attributes in
// other take precedence, matching the original's merge_faces, where later
// highlighters in a chain win over earlier ones. If f carries AttrFinal,
// other's attributes are ignored entirely.
func (f Face) Merge(other Face) Face {
	result := f
	if !other.FG.IsDefault() {
		result.FG = other.FG
	}
	if !other.BG.IsDefault() {
		result.BG = other.BG
	}
	if f.Attrs.Has(AttrFinal) {
		return result
	}
	result.Attrs |= other.Attrs
	return result
}

// Reverse swaps foreground and background.
func (f Face) Reverse() Face {
	return Face{FG: f.BG, BG: f.FG, Attrs: f.Attrs}
}

// Equals reports whether f and other are visually identical.
func (f Face) Equals(other Face) bool {
	return f.FG.Equals(other.FG) && f.BG.Equals(other.BG) && f.Attrs == other.Attrs
}
