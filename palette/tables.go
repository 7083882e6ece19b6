// Package palette builds the fixed color tables (ANSI-16, xterm-256,
// CGA, Game Boy) used for colored markup, and the nearest-color lookup
// shared by every palette mode.
//
// The process-wide ansi256 table is computed once in init(), following the
// teacher's own idiom of precomputing lookup tables as package-level
// globals inside init() (font.go's lookup/density, glyph.go's
// ThresholdPalette/white/black, examine.go's White/Black) rather than
// lazily guarding every access — spec Design Notes call this out
// explicitly as the one piece of "global mutable state" the system
// tolerates, and it is immutable after first initialization.
package palette

import "image/color"

// Palette is an ordered list of colors, compatible with image/color.Palette.
type Palette []color.Color

var ansi16Table = Palette{
	rgb(0x00, 0x00, 0x00), // black
	rgb(0xAA, 0x00, 0x00), // red
	rgb(0x00, 0xAA, 0x00), // green
	rgb(0xAA, 0x55, 0x00), // yellow/brown
	rgb(0x00, 0x00, 0xAA), // blue
	rgb(0xAA, 0x00, 0xAA), // magenta
	rgb(0x00, 0xAA, 0xAA), // cyan
	rgb(0xAA, 0xAA, 0xAA), // white/gray
	rgb(0x55, 0x55, 0x55), // bright black
	rgb(0xFF, 0x55, 0x55), // bright red
	rgb(0x55, 0xFF, 0x55), // bright green
	rgb(0xFF, 0xFF, 0x55), // bright yellow
	rgb(0x55, 0x55, 0xFF), // bright blue
	rgb(0xFF, 0x55, 0xFF), // bright magenta
	rgb(0x55, 0xFF, 0xFF), // bright cyan
	rgb(0xFF, 0xFF, 0xFF), // bright white
}

var cgaTable = Palette{
	rgb(0x00, 0x00, 0x00),
	rgb(0x00, 0x00, 0xAA),
	rgb(0x00, 0xAA, 0x00),
	rgb(0x00, 0xAA, 0xAA),
	rgb(0xAA, 0x00, 0x00),
	rgb(0xAA, 0x00, 0xAA),
	rgb(0xAA, 0x55, 0x00),
	rgb(0xAA, 0xAA, 0xAA),
	rgb(0x55, 0x55, 0x55),
	rgb(0x55, 0x55, 0xFF),
	rgb(0x55, 0xFF, 0x55),
	rgb(0x55, 0xFF, 0xFF),
	rgb(0xFF, 0x55, 0x55),
	rgb(0xFF, 0x55, 0xFF),
	rgb(0xFF, 0xFF, 0x55),
	rgb(0xFF, 0xFF, 0xFF),
}

var gameboyTable = Palette{
	rgb(0x0F, 0x38, 0x0F), // darkest
	rgb(0x30, 0x62, 0x30),
	rgb(0x8B, 0xAC, 0x0F),
	rgb(0x9B, 0xBC, 0x0F), // lightest
}

var ansi256Table Palette

func init() {
	ansi256Table = make(Palette, 0, 256)
	ansi256Table = append(ansi256Table, ansi16Table...)

	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				ansi256Table = append(ansi256Table, rgb(cubeStep(r), cubeStep(g), cubeStep(b)))
			}
		}
	}

	for i := 0; i < 24; i++ {
		v := byte(8 + i*10)
		ansi256Table = append(ansi256Table, rgb(v, v, v))
	}
}

// cubeStep implements spec §4.2's 6x6x6 cube channel formula: 0 if i=0,
// else i*40+55.
func cubeStep(i int) byte {
	if i == 0 {
		return 0
	}
	return byte(i*40 + 55)
}

func rgb(r, g, b byte) color.Color {
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// Ansi16 returns the 16 VGA/DOS console colors.
func Ansi16() Palette { return ansi16Table }

// Ansi256 returns the 256-entry xterm palette: entries 0..15 are Ansi16,
// 16..231 are the 6x6x6 RGB cube, 232..255 are grays.
func Ansi256() Palette { return ansi256Table }

// CGA returns the fixed 16-color CGA palette.
func CGA() Palette { return cgaTable }

// Gameboy returns the four DMG-green shades.
func Gameboy() Palette { return gameboyTable }

// Nearest returns the palette entry minimizing squared Euclidean distance
// to (r,g,b), its index, and true if pal is non-empty. Ties resolve to the
// earliest index.
func Nearest(r, g, b byte, pal Palette) (color.Color, int, bool) {
	if len(pal) == 0 {
		return nil, -1, false
	}
	best := 0
	bestDist := sqDist(r, g, b, pal[0])
	for i := 1; i < len(pal); i++ {
		d := sqDist(r, g, b, pal[i])
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return pal[best], best, true
}

func sqDist(r, g, b byte, c color.Color) int {
	cr, cg, cb, _ := c.RGBA()
	dr := int(r) - int(cr>>8)
	dg := int(g) - int(cg>>8)
	db := int(b) - int(cb>>8)
	return dr*dr + dg*dg + db*db
}
