package pixel

import (
	"testing"

	"github.com/submersibletoaster/charanim/charset"
)

func TestNewRejectsContrast259(t *testing.T) {
	cfg := &charset.Config{Width: 10, Contrast: 259, Brightness: 100, Glyphs: charset.Standard}
	if _, err := New(cfg); err == nil {
		t.Error("expected New to reject contrast of 259, got nil error")
	}
}

func TestApplyBlackMapsToDensestGlyph(t *testing.T) {
	cfg, err := charset.New(10, charset.WithCharset(charset.NameStandard))
	if err != nil {
		t.Fatalf("charset.New returned error: %v", err)
	}
	tr, err := New(cfg)
	if err != nil {
		t.Fatalf("pixel.New returned error: %v", err)
	}

	res := tr.Apply(0, 0, 0, 255)
	if res.Glyph != cfg.Glyphs[0] {
		t.Errorf("black pixel mapped to %q, want the densest glyph %q", res.Glyph, cfg.Glyphs[0])
	}
}

func TestApplyWhiteMapsToBlankGlyph(t *testing.T) {
	cfg, err := charset.New(10, charset.WithCharset(charset.NameStandard))
	if err != nil {
		t.Fatalf("charset.New returned error: %v", err)
	}
	tr, err := New(cfg)
	if err != nil {
		t.Fatalf("pixel.New returned error: %v", err)
	}

	res := tr.Apply(255, 255, 255, 255)
	last := cfg.Glyphs[len(cfg.Glyphs)-1]
	if res.Glyph != last {
		t.Errorf("white pixel mapped to %q, want the lightest glyph %q", res.Glyph, last)
	}
}

func TestApplyInvertFlipsMapping(t *testing.T) {
	cfg, err := charset.New(10, charset.WithCharset(charset.NameStandard), charset.WithInvert(true))
	if err != nil {
		t.Fatalf("charset.New returned error: %v", err)
	}
	tr, err := New(cfg)
	if err != nil {
		t.Fatalf("pixel.New returned error: %v", err)
	}

	res := tr.Apply(0, 0, 0, 255)
	last := cfg.Glyphs[len(cfg.Glyphs)-1]
	if res.Glyph != last {
		t.Errorf("inverted black pixel mapped to %q, want %q", res.Glyph, last)
	}
}

func TestGridHeightHalvesAspectRatio(t *testing.T) {
	tests := []struct {
		name          string
		width, wSrc, hSrc int
		want          int
	}{
		{name: "square source", width: 100, wSrc: 100, hSrc: 100, want: 50},
		{name: "16:9 source", width: 160, wSrc: 1920, hSrc: 1080, want: 45},
		{name: "zero source width", width: 100, wSrc: 0, hSrc: 100, want: 0},
	}

	for i := range tests {
		tc := tests[i]
		got := GridHeight(tc.width, tc.wSrc, tc.hSrc)
		if got != tc.want {
			t.Errorf("%s: GridHeight(%d, %d, %d) = %d, want %d", tc.name, tc.width, tc.wSrc, tc.hSrc, got, tc.want)
		}
	}
}

func TestApplyClampsOutOfRangeBrightness(t *testing.T) {
	cfg, err := charset.New(10, charset.WithBrightness(400))
	if err != nil {
		t.Fatalf("charset.New returned error: %v", err)
	}
	tr, err := New(cfg)
	if err != nil {
		t.Fatalf("pixel.New returned error: %v", err)
	}

	res := tr.Apply(255, 255, 255, 255)
	if res.Color.R != 255 || res.Color.G != 255 || res.Color.B != 255 {
		t.Errorf("expected clamped color to stay at 255, got %+v", res.Color)
	}
}
