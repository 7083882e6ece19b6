// Package glyphgrid holds the GlyphGrid result type (spec §3/§4.4): a
// width x height grid of (glyph, color) cells, plus its serializers to
// plain text, styled markup, and a raster image.
package glyphgrid

import (
	"strings"

	"github.com/gookit/color"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/submersibletoaster/charanim/charset"
	"github.com/submersibletoaster/charanim/palette"
	"github.com/submersibletoaster/charanim/pixel"
)

// Cell is one glyph-grid position: a glyph character and its color.
type Cell struct {
	Glyph rune
	Color pixel.RGB
}

// Grid is the in-memory result of converting one frame: width, height, and
// a row-major slice of length Width*Height cells. A Grid is exclusively
// owned by its producer until handed to a serializer; serializers below
// only ever read it.
type Grid struct {
	Width  int
	Height int
	Cells  []Cell
}

// New allocates an empty Width x Height grid.
func New(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{Width: width, Height: height, Cells: make([]Cell, width*height)}
}

// At returns the cell at (col, row).
func (g *Grid) At(col, row int) Cell {
	return g.Cells[row*g.Width+col]
}

// Set assigns the cell at (col, row).
func (g *Grid) Set(col, row int, c Cell) {
	g.Cells[row*g.Width+col] = c
}

// Build converts a resized RGBA pixel buffer (exactly Width*Height pixels,
// stride Width*4 -- i.e. one source pixel per output cell, already
// downsampled by the caller) into a Grid using t for the brightness/
// contrast/glyph math and mode for cell-color semantics.
func Build(pixels []byte, width, height int, t *pixel.Transform, mode charset.ColorMode) *Grid {
	g := New(width, height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			off := (row*width + col) * 4
			if off+3 >= len(pixels) {
				continue
			}
			r, gg, b, a := pixels[off], pixels[off+1], pixels[off+2], pixels[off+3]
			res := t.Apply(r, gg, b, a)

			c := res.Color
			if mode == charset.ColorModeGrayscale {
				gray := byte(clampLum(res.Luminance))
				c = pixel.RGB{R: gray, G: gray, B: gray}
			}
			g.Set(col, row, Cell{Glyph: res.Glyph, Color: c})
		}
	}
	return g
}

func clampLum(y float64) float64 {
	if y < 0 {
		return 0
	}
	if y > 255 {
		return 255
	}
	return y
}

// ToText concatenates rows with newline separators, normalizing blank
// glyphs per spec §4.3/§4.4.
func (g *Grid) ToText() string {
	if g.Height == 0 || g.Width == 0 {
		return ""
	}
	var b strings.Builder
	for row := 0; row < g.Height; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		for col := 0; col < g.Width; col++ {
			b.WriteRune(charset.Normalize(g.At(col, row).Glyph))
		}
	}
	return b.String()
}

// MarkupOptions configures ToColoredMarkup's output.
type MarkupOptions struct {
	// IncludeDocument wraps the spans in a full <pre> document when true;
	// otherwise only the spans themselves are emitted (spec §6).
	IncludeDocument bool
}

// cellColor quantizes a cell's color per cfg.PaletteMode, matching the
// raw adjusted RGB triplet when PaletteMode is "full".
func cellColor(cfg *charset.Config, c pixel.RGB) pixel.RGB {
	pal := cfg.ResolvePalette()
	if pal == nil {
		return c
	}
	nearest, _, ok := palette.Nearest(c.R, c.G, c.B, pal)
	if !ok {
		return c
	}
	r, g, b, _ := nearest.RGBA()
	return pixel.RGB{R: byte(r >> 8), G: byte(g >> 8), B: byte(b >> 8)}
}

// ToColoredMarkup produces monospace markup where maximal runs of cells
// with identical quantized color are coalesced into one styled span per
// row; blank cells emit no style.
func (g *Grid) ToColoredMarkup(cfg *charset.Config, opts MarkupOptions) string {
	var b strings.Builder
	if opts.IncludeDocument {
		b.WriteString(`<pre style="font-family:monospace;white-space:pre;">`)
	}

	for row := 0; row < g.Height; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		g.writeRowSpans(&b, cfg, row)
	}

	if opts.IncludeDocument {
		b.WriteString(`</pre>`)
	}
	return b.String()
}

func (g *Grid) writeRowSpans(b *strings.Builder, cfg *charset.Config, row int) {
	col := 0
	for col < g.Width {
		cell := g.At(col, row)
		if charset.IsBlank(cell.Glyph) {
			b.WriteRune(charset.BlankGlyph)
			col++
			continue
		}

		runColor := cellColor(cfg, cell.Color)
		var glyphs strings.Builder
		for col < g.Width {
			c := g.At(col, row)
			if charset.IsBlank(c.Glyph) {
				break
			}
			if cellColor(cfg, c.Color) != runColor {
				break
			}
			glyphs.WriteRune(charset.Normalize(c.Glyph))
			col++
		}

		hex := colorful.Color{R: float64(runColor.R) / 255, G: float64(runColor.G) / 255, B: float64(runColor.B) / 255}.Hex()
		style := color.HEX(hex)
		b.WriteString(style.Sprint(glyphs.String()))
	}
}
