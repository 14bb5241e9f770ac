package face

import "testing"

func TestParseColorHexShortAndLong(t *testing.T) {
	short, err := ParseColor("#abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	long, err := ParseColor("#aabbcc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !short.Equals(long) {
		t.Fatalf("expected short and expanded hex to match: %v vs %v", short, long)
	}
}

func TestParseColorNamedAndIndexed(t *testing.T) {
	red, err := ParseColor("red")
	if err != nil || !red.Equals(RGB(255, 0, 0)) {
		t.Fatalf("expected red, got %v, err %v", red, err)
	}
	idx, err := ParseColor("12")
	if err != nil || !idx.Indexed || idx.R != 12 {
		t.Fatalf("expected indexed color 12, got %v, err %v", idx, err)
	}
	def, err := ParseColor("default")
	if err != nil || !def.IsDefault() {
		t.Fatalf("expected default color, got %v, err %v", def, err)
	}
}

func TestParseColorInvalid(t *testing.T) {
	if _, err := ParseColor("#zz"); err == nil {
		t.Fatalf("expected error for invalid hex")
	}
	if _, err := ParseColor("notacolor"); err == nil {
		t.Fatalf("expected error for unknown name")
	}
}

func TestFaceMergePrefersOtherNonDefault(t *testing.T) {
	base := Face{FG: RGB(255, 0, 0), BG: ColorDefault, Attrs: AttrBold}
	overlay := Face{FG: ColorDefault, BG: RGB(0, 0, 255), Attrs: AttrItalic}

	merged := base.Merge(overlay)
	if !merged.FG.Equals(RGB(255, 0, 0)) {
		t.Fatalf("expected fg to survive from base, got %v", merged.FG)
	}
	if !merged.BG.Equals(RGB(0, 0, 255)) {
		t.Fatalf("expected bg from overlay, got %v", merged.BG)
	}
	if !merged.Attrs.Has(AttrBold) || !merged.Attrs.Has(AttrItalic) {
		t.Fatalf("expected attributes to be unioned, got %v", merged.Attrs)
	}
}

func TestFaceMergeFinalBlocksAttributeOverride(t *testing.T) {
	base := Face{FG: RGB(255, 0, 0), Attrs: AttrBold | AttrFinal}
	overlay := Face{Attrs: AttrItalic}

	merged := base.Merge(overlay)
	if merged.Attrs.Has(AttrItalic) {
		t.Fatalf("expected final face to block attribute override, got %v", merged.Attrs)
	}
}

func TestColorBlendTowardsTarget(t *testing.T) {
	black := RGB(0, 0, 0)
	white := RGB(255, 255, 255)

	full := black.Blend(white, 1.0)
	if !full.Equals(white) {
		t.Fatalf("expected full blend to reach target, got %v", full)
	}
	none := black.Blend(white, 0.0)
	if !none.Equals(black) {
		t.Fatalf("expected zero blend to stay at source, got %v", none)
	}
}

func TestColorIndexedBlendIsDiscrete(t *testing.T) {
	a := Indexed(1)
	b := Indexed(2)
	if got := a.Blend(b, 0.9); !got.Equals(b) {
		t.Fatalf("expected indexed blend to snap to target past midpoint, got %v", got)
	}
	if got := a.Blend(b, 0.1); !got.Equals(a) {
		t.Fatalf("expected indexed blend to stay at source before midpoint, got %v", got)
	}
}
