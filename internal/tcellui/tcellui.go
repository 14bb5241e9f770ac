// Package tcellui renders a DisplayBuffer to a real terminal through
// tcell, the Go counterpart of the original's ncurses-backed display
// driver: it owns the terminal screen, translates face.Face into
// tcell's style model, and downsamples true color to the terminal's
// palette when it can't show 24-bit color directly.
package tcellui

import (
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"

	"github.com/davidaciko/panecore/internal/display"
	"github.com/davidaciko/panecore/internal/face"
)

// Screen owns a tcell terminal screen and renders DisplayBuffer frames
// onto it, the narrow slice of the original's ncurses display driver
// this module needs: no input handling, just painting what the
// highlighter chain produced.
type Screen struct {
	screen tcell.Screen
	mu     sync.Mutex
}

// NewScreen creates a Screen backed by a freshly allocated tcell
// terminal screen. Init must be called before rendering.
func NewScreen() (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Screen{screen: s}, nil
}

// Init puts the terminal into the raw, fullscreen mode tcell needs.
func (s *Screen) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen.Init()
}

// Shutdown restores the terminal to its original state.
func (s *Screen) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen.Fini()
}

// Size returns the terminal's current width and height in columns/rows.
func (s *Screen) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen.Size()
}

// Render paints buf starting at row 0, one DisplayLine per row, clipped
// to the terminal's current width and height, then moves the cursor
// to cursorRow/cursorCol if it falls within the rendered area.
func (s *Screen) Render(buf *display.DisplayBuffer, cursorRow, cursorCol int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	width, height := s.screen.Size()
	s.screen.Clear()

	for row, line := range buf.Lines {
		if row >= height {
			break
		}
		col := 0
		for _, atom := range line.Atoms {
			col = s.paintAtom(row, col, width, atom)
			if col >= width {
				break
			}
		}
	}

	if cursorRow >= 0 && cursorRow < height && cursorCol >= 0 && cursorCol < width {
		s.screen.ShowCursor(cursorCol, cursorRow)
	} else {
		s.screen.HideCursor()
	}
	s.screen.Show()
}

// WaitForKeyPress blocks until the next key press, discarding resize
// and mouse events in between. It exists for callers (panedemo's
// --live mode) that just need to hold a rendered frame on screen until
// the user is done looking at it; it is not a general input pump.
func (s *Screen) WaitForKeyPress() {
	for {
		if _, ok := s.screen.PollEvent().(*tcell.EventKey); ok {
			return
		}
	}
}

// paintAtom writes atom's content onto row starting at col, advancing
// one screen column per rendered cell (two for a wide grapheme cluster),
// and returns the column just past what it painted.
func (s *Screen) paintAtom(row, col, width int, atom display.DisplayAtom) int {
	style := s.convertFace(atom.Face)
	text := string(atom.Content())
	for len(text) > 0 && col < width {
		cluster, rest, w, _ := uniseg.FirstGraphemeClusterInString(text, -1)
		if cluster == "" {
			break
		}
		text = rest
		if w <= 0 {
			w = 1
		}
		r := []rune(cluster)
		var main rune
		var combining []rune
		if len(r) > 0 {
			main, combining = r[0], r[1:]
		}
		s.screen.SetContent(col, row, main, combining, style)
		col += w
	}
	return col
}

// convertFace translates a face.Face into a tcell.Style, downsampling
// true color through the nearest-palette search when the terminal
// can't render 24-bit color directly.
func (s *Screen) convertFace(f face.Face) tcell.Style {
	style := tcell.StyleDefault
	colors := s.screen.Colors()

	if !f.FG.IsDefault() {
		style = style.Foreground(s.convertColor(f.FG, colors))
	}
	if !f.BG.IsDefault() {
		style = style.Background(s.convertColor(f.BG, colors))
	}

	if f.Attrs.Has(face.AttrBold) {
		style = style.Bold(true)
	}
	if f.Attrs.Has(face.AttrDim) {
		style = style.Dim(true)
	}
	if f.Attrs.Has(face.AttrItalic) {
		style = style.Italic(true)
	}
	if f.Attrs.Has(face.AttrUnderline) {
		style = style.Underline(true)
	}
	if f.Attrs.Has(face.AttrCurlyUnderline) {
		style = style.Underline(true, tcell.UnderlineStyleCurly)
	}
	if f.Attrs.Has(face.AttrBlink) {
		style = style.Blink(true)
	}
	if f.Attrs.Has(face.AttrReverse) {
		style = style.Reverse(true)
	}
	if f.Attrs.Has(face.AttrStrikethrough) {
		style = style.StrikeThrough(true)
	}
	return style
}

// convertColor converts one face.Color to a tcell.Color, downsampling a
// true color to the nearest of the terminal's available palette entries
// when colors is 256 or fewer.
func (s *Screen) convertColor(c face.Color, colors int) tcell.Color {
	if c.Indexed {
		return tcell.PaletteColor(int(c.R))
	}
	if colors > 256 {
		return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
	}
	return tcell.PaletteColor(nearestPaletteIndex(c))
}

// palette256 holds the RGB value of every xterm-256 palette index,
// built once from the standard 16-color, 6x6x6 cube, and 24-step
// grayscale layout, the same three-tier layout the original's
// terminal-capability downsampling assumes.
var palette256 = buildPalette256()

func buildPalette256() [256]face.Color {
	var p [256]face.Color
	base := [16][3]uint8{
		{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
		{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
		{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
		{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
	}
	for i, rgb := range base {
		p[i] = face.RGB(rgb[0], rgb[1], rgb[2])
	}
	steps := [6]uint8{0, 95, 135, 175, 215, 255}
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				p[16+36*r+6*g+b] = face.RGB(steps[r], steps[g], steps[b])
			}
		}
	}
	for i := 0; i < 24; i++ {
		level := uint8(8 + 10*i)
		p[232+i] = face.RGB(level, level, level)
	}
	return p
}

// nearestPaletteIndex returns the xterm-256 palette index perceptually
// closest to c, measured in CIE Lab space via go-colorful so the match
// tracks how the colors actually look rather than raw RGB distance.
func nearestPaletteIndex(c face.Color) int {
	target := rgbColor(c)
	best := 0
	bestDist := target.DistanceLab(rgbColor(palette256[0]))
	for i := 1; i < len(palette256); i++ {
		d := target.DistanceLab(rgbColor(palette256[i]))
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func rgbColor(c face.Color) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}
