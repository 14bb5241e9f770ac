package tcellui

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/davidaciko/panecore/internal/face"
)

func TestBuildPalette256CubeAndGrayscale(t *testing.T) {
	p := buildPalette256()
	if !p[16].Equals(face.RGB(0, 0, 0)) {
		t.Fatalf("expected palette index 16 to be black, got %v", p[16])
	}
	if !p[231].Equals(face.RGB(255, 255, 255)) {
		t.Fatalf("expected palette index 231 to be white, got %v", p[231])
	}
	if !p[232].Equals(face.RGB(8, 8, 8)) {
		t.Fatalf("expected the grayscale ramp to start at level 8, got %v", p[232])
	}
	if !p[255].Equals(face.RGB(238, 238, 238)) {
		t.Fatalf("expected the grayscale ramp to end at level 238, got %v", p[255])
	}
}

func TestNearestPaletteIndexPicksExactCubeMatch(t *testing.T) {
	red := face.RGB(255, 0, 0)
	idx := nearestPaletteIndex(red)
	if !buildPalette256()[idx].Equals(red) {
		t.Fatalf("expected an exact cube match for pure red, got index %d (%v)", idx, buildPalette256()[idx])
	}
}

func TestConvertColorPassesThroughIndexedColors(t *testing.T) {
	s := &Screen{}
	c := s.convertColor(face.Indexed(42), 256)
	if c != tcell.PaletteColor(42) {
		t.Fatalf("expected an indexed color to pass through unchanged, got %v", c)
	}
}
