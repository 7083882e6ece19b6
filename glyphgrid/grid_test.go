package glyphgrid

import (
	"strings"
	"testing"

	"github.com/submersibletoaster/charanim/charset"
	"github.com/submersibletoaster/charanim/pixel"
)

func mustTransform(t *testing.T, opts ...charset.Option) (*charset.Config, *pixel.Transform) {
	cfg, err := charset.New(4, opts...)
	if err != nil {
		t.Fatalf("charset.New returned error: %v", err)
	}
	tr, err := pixel.New(cfg)
	if err != nil {
		t.Fatalf("pixel.New returned error: %v", err)
	}
	return cfg, tr
}

func TestBuildProducesRowMajorGrid(t *testing.T) {
	_, tr := mustTransform(t)

	// 2x2 grid: black, white, white, black.
	pixels := []byte{
		0, 0, 0, 255, 255, 255, 255, 255,
		255, 255, 255, 255, 0, 0, 0, 255,
	}
	g := Build(pixels, 2, 2, tr, charset.ColorModeColor)

	if g.Width != 2 || g.Height != 2 {
		t.Fatalf("Build() dims = %dx%d, want 2x2", g.Width, g.Height)
	}
	if len(g.Cells) != 4 {
		t.Fatalf("len(Cells) = %d, want 4", len(g.Cells))
	}
}

func TestBuildGrayscaleModeFlattensColor(t *testing.T) {
	_, tr := mustTransform(t)

	pixels := []byte{120, 40, 200, 255}
	g := Build(pixels, 1, 1, tr, charset.ColorModeGrayscale)

	c := g.At(0, 0)
	if c.Color.R != c.Color.G || c.Color.G != c.Color.B {
		t.Errorf("expected grayscale color to have equal channels, got %+v", c.Color)
	}
}

func TestToTextNormalizesBlankGlyphs(t *testing.T) {
	g := New(2, 1)
	g.Set(0, 0, Cell{Glyph: charset.BraillePatternBlank})
	g.Set(1, 0, Cell{Glyph: '#'})

	text := g.ToText()
	if text != " #" {
		t.Errorf("ToText() = %q, want %q", text, " #")
	}
}

func TestToTextEmptyGrid(t *testing.T) {
	g := New(0, 0)
	if got := g.ToText(); got != "" {
		t.Errorf("ToText() on an empty grid = %q, want empty string", got)
	}
}

func TestToColoredMarkupWrapsWithDocument(t *testing.T) {
	cfg, err := charset.New(2)
	if err != nil {
		t.Fatalf("charset.New returned error: %v", err)
	}
	g := New(1, 1)
	g.Set(0, 0, Cell{Glyph: '#', Color: pixel.RGB{R: 10, G: 20, B: 30}})

	markup := g.ToColoredMarkup(cfg, MarkupOptions{IncludeDocument: true})
	if !strings.HasPrefix(markup, "<pre") {
		t.Errorf("expected markup to start with <pre, got %q", markup)
	}
	if !strings.HasSuffix(markup, "</pre>") {
		t.Errorf("expected markup to end with </pre>, got %q", markup)
	}
}

func TestToColoredMarkupWithoutDocumentOmitsWrapper(t *testing.T) {
	cfg, err := charset.New(2)
	if err != nil {
		t.Fatalf("charset.New returned error: %v", err)
	}
	g := New(1, 1)
	g.Set(0, 0, Cell{Glyph: '#', Color: pixel.RGB{R: 10, G: 20, B: 30}})

	markup := g.ToColoredMarkup(cfg, MarkupOptions{})
	if strings.Contains(markup, "<pre") {
		t.Errorf("did not expect a <pre> wrapper, got %q", markup)
	}
}

func TestToColoredMarkupCoalescesSameColorRuns(t *testing.T) {
	cfg, err := charset.New(3)
	if err != nil {
		t.Fatalf("charset.New returned error: %v", err)
	}
	g := New(3, 1)
	same := pixel.RGB{R: 50, G: 50, B: 50}
	g.Set(0, 0, Cell{Glyph: '#', Color: same})
	g.Set(1, 0, Cell{Glyph: '#', Color: same})
	g.Set(2, 0, Cell{Glyph: '#', Color: pixel.RGB{R: 200, G: 0, B: 0}})

	markup := g.ToColoredMarkup(cfg, MarkupOptions{})
	if strings.Count(markup, "##") != 1 {
		t.Errorf("expected the first two same-color glyphs coalesced into one run, got %q", markup)
	}
}

func TestAtAndSetRoundTrip(t *testing.T) {
	g := New(3, 2)
	c := Cell{Glyph: '@', Color: pixel.RGB{R: 1, G: 2, B: 3}}
	g.Set(2, 1, c)
	if got := g.At(2, 1); got != c {
		t.Errorf("At(2,1) = %+v, want %+v", got, c)
	}
}
