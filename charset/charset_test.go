package charset

import "testing"

func TestNewDefaults(t *testing.T) {
	c, err := New(80)
	if err != nil {
		t.Fatalf("New(80) returned error: %v", err)
	}
	if c.Width != 80 {
		t.Errorf("Width = %d, want 80", c.Width)
	}
	if c.Contrast != 100 || c.Brightness != 100 {
		t.Errorf("Contrast/Brightness = %d/%d, want 100/100", c.Contrast, c.Brightness)
	}
	if string(c.Glyphs) != string(Standard) {
		t.Errorf("Glyphs = %q, want the standard ramp", string(c.Glyphs))
	}
}

func TestNewValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		width int
	}{
		{name: "zero width", width: 0},
		{name: "contrast below range", width: 80, opts: []Option{WithContrast(-1)}},
		{name: "contrast above range", width: 80, opts: []Option{WithContrast(256)}},
		{name: "contrast exactly 259 clamped away but still checked", width: 80, opts: []Option{WithContrast(259)}},
		{name: "brightness too low", width: 80, opts: []Option{WithBrightness(0)}},
		{name: "brightness too high", width: 80, opts: []Option{WithBrightness(401)}},
		{name: "font size too small", width: 80, opts: []Option{WithFontSize(0)}},
		{name: "line height too small", width: 80, opts: []Option{WithLineHeight(0.1)}},
		{name: "raster scale too small", width: 80, opts: []Option{WithRasterScale(0)}},
		{name: "gif sample factor too low", width: 80, opts: []Option{WithGIFSampleFactor(0)}},
		{name: "gif sample factor too high", width: 80, opts: []Option{WithGIFSampleFactor(31)}},
		{name: "custom charset with too few glyphs", width: 80, opts: []Option{WithCustomCharset("#")}},
	}

	for i := range tests {
		tc := tests[i]
		if _, err := New(tc.width, tc.opts...); err == nil {
			t.Errorf("%s: expected an error, got nil", tc.name)
		}
	}
}

func TestCustomCharsetAppendsBlankWhenMissing(t *testing.T) {
	c, err := New(40, WithCustomCharset("#%"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if !containsBlank(c.Glyphs) {
		t.Error("expected a blank glyph to be appended when the custom ramp lacks one")
	}
	if string(c.Glyphs) != "#% " {
		t.Errorf("Glyphs = %q, want %q", string(c.Glyphs), "#% ")
	}
}

func TestCustomCharsetEmptyStringIsIgnored(t *testing.T) {
	c, err := New(40, WithCustomCharset(""))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if string(c.Glyphs) != string(Standard) {
		t.Errorf("empty custom charset should leave the default ramp, got %q", string(c.Glyphs))
	}
}

func TestWithCharsetSelectsNamedRamp(t *testing.T) {
	tests := []struct {
		name Name
		want []rune
	}{
		{name: NameBlocks, want: Blocks},
		{name: NameBinary, want: Binary},
		{name: NameDots, want: Dots},
	}

	for i := range tests {
		tc := tests[i]
		c, err := New(10, WithCharset(tc.name))
		if err != nil {
			t.Fatalf("%s: New returned error: %v", tc.name, err)
		}
		if string(c.Glyphs) != string(tc.want) {
			t.Errorf("%s: Glyphs = %q, want %q", tc.name, string(c.Glyphs), string(tc.want))
		}
	}
}

func TestIsBlankAndNormalize(t *testing.T) {
	if !IsBlank(' ') || !IsBlank(BraillePatternBlank) {
		t.Error("expected both ASCII space and U+2800 to be blank")
	}
	if IsBlank('#') {
		t.Error("did not expect '#' to be blank")
	}
	if Normalize(BraillePatternBlank) != ' ' {
		t.Error("expected Normalize to map U+2800 to ASCII space")
	}
	if Normalize('#') != '#' {
		t.Error("expected Normalize to leave non-blank glyphs untouched")
	}
}

func TestResolvePaletteFullIsNil(t *testing.T) {
	c, err := New(10)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if c.ResolvePalette() != nil {
		t.Error("expected ResolvePalette() to return nil for PaletteFull")
	}
}

func TestResolvePaletteNamedModes(t *testing.T) {
	tests := []PaletteMode{PaletteAnsi256, PaletteAnsi16, PaletteCGA, PaletteGameboy}
	for i := range tests {
		mode := tests[i]
		c, err := New(10, WithPaletteMode(mode))
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		if c.ResolvePalette() == nil {
			t.Errorf("%s: expected a non-nil palette", mode)
		}
	}
}
