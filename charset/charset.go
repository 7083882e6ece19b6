// Package charset holds the named glyph ramps and the immutable
// ConverterConfig value that drives every stage of the conversion pipeline.
//
// ConverterConfig construction follows the teacher's own pattern of
// validating once at the boundary (compare RasterFont.makeInfo skipping
// unusable runes up front in glyph/glyph.go) rather than re-checking on
// every call.
package charset

import (
	"image/color"
	"unicode/utf8"

	"github.com/submersibletoaster/charanim/coreerr"
	"github.com/submersibletoaster/charanim/palette"
)

// Named glyph ramps, ordered darkest-glyph-first per spec §4.3's indexing
// (index 0 is the densest glyph when invert is false and luminance is low).
var (
	Standard = []rune("@%#*+=-:. ")
	Detailed = []rune("$@B%8&WM#*oahkbdpqwmZO0QLCJUYXzcvunxrjft/\\|()1{}[]?-_+~<>i!lI;:,\"^`'. ")
	Blocks   = []rune("█▓▒░ ")
	Simple   = []rune("#. ")
	Binary   = []rune("10 ")
	Braille  = []rune("⣿⣦⣀ ")
	Dots     = []rune("●◉○. ")
)

// Name identifies a named glyph ramp.
type Name string

const (
	NameStandard Name = "standard"
	NameDetailed Name = "detailed"
	NameBlocks   Name = "blocks"
	NameSimple   Name = "simple"
	NameBinary   Name = "binary"
	NameBraille  Name = "braille"
	NameDots     Name = "dots"
	NameCustom   Name = "custom"
)

func rampFor(n Name) []rune {
	switch n {
	case NameStandard:
		return Standard
	case NameDetailed:
		return Detailed
	case NameBlocks:
		return Blocks
	case NameSimple:
		return Simple
	case NameBinary:
		return Binary
	case NameBraille:
		return Braille
	case NameDots:
		return Dots
	default:
		return nil
	}
}

// ColorMode selects cell color semantics.
type ColorMode string

const (
	ColorModeColor     ColorMode = "color"
	ColorModeGrayscale ColorMode = "grayscale"
)

// PaletteMode selects the palette used for colored markup (and, if
// requested, raster export).
type PaletteMode string

const (
	PaletteFull    PaletteMode = "full"
	PaletteAnsi256 PaletteMode = "ansi256"
	PaletteAnsi16  PaletteMode = "ansi16"
	PaletteCGA     PaletteMode = "cga"
	PaletteGameboy PaletteMode = "gameboy"
)

// BlankGlyph is the ASCII space used to normalize blank cells.
const BlankGlyph = ' '

// BraillePatternBlank is U+2800, semantically blank per spec §4.3.
const BraillePatternBlank = '⠀'

// IsBlank reports whether r is a blank glyph (ASCII space or braille
// pattern blank) per the blank-glyph rule.
func IsBlank(r rune) bool {
	return r == BlankGlyph || r == BraillePatternBlank
}

// Normalize maps the braille-pattern-blank to ASCII space, leaving all
// other glyphs untouched.
func Normalize(r rune) rune {
	if r == BraillePatternBlank {
		return BlankGlyph
	}
	return r
}

// Config is the immutable per-conversion configuration (spec §3).
type Config struct {
	Width int // target column count, >= 1

	Glyphs []rune // resolved glyph ramp, len >= 2

	ColorMode   ColorMode
	PaletteMode PaletteMode

	Contrast   int // 0..255, 0 = identity
	Brightness int // percent, 1..400

	Invert bool

	Background color.RGBA

	FontSize          int // pixels, >= 1, raster export only
	LineHeightMult    float64
	RasterScale       int // png_scale, >= 1
	GIFSampleFactor   int // gif_quality, 1..30
}

// Option mutates a Config during construction.
type Option func(*Config)

// New builds a validated, immutable Config, filling in the defaults
// (contrast 100, brightness 100%, the Standard ramp, full color). Width is
// New's first argument; it has no default.
func New(width int, opts ...Option) (*Config, error) {
	c := &Config{
		Width:           width,
		ColorMode:       ColorModeColor,
		PaletteMode:     PaletteFull,
		Contrast:        100,
		Brightness:      100,
		FontSize:        12,
		LineHeightMult:  1.0,
		RasterScale:     1,
		GIFSampleFactor: 10,
	}
	c.Glyphs = append([]rune{}, Standard...)

	for _, opt := range opts {
		opt(c)
	}

	return c, c.validate()
}

func (c *Config) validate() error {
	if c.Width < 1 {
		return coreerr.New(coreerr.InvalidConfig, "charset", "width must be >= 1")
	}
	if len(c.Glyphs) < 2 {
		return coreerr.New(coreerr.InvalidConfig, "charset", "glyph set must contain at least 2 characters")
	}
	if c.Contrast < 0 || c.Contrast > 255 {
		return coreerr.New(coreerr.InvalidConfig, "charset", "contrast must be in [0, 255]")
	}
	if c.Contrast == 259 {
		// unreachable given the [0,255] clamp above, but spec §9 Open
		// Question 3 calls this out explicitly: treat as invalid_config
		// rather than letting the contrast curve divide by zero.
		return coreerr.New(coreerr.InvalidConfig, "charset", "contrast of 259 divides by zero in the contrast curve")
	}
	if c.Brightness < 1 || c.Brightness > 400 {
		return coreerr.New(coreerr.InvalidConfig, "charset", "brightness must be in [1, 400]")
	}
	if c.FontSize < 1 {
		return coreerr.New(coreerr.InvalidConfig, "charset", "font_size must be >= 1")
	}
	if c.LineHeightMult < 0.5 {
		return coreerr.New(coreerr.InvalidConfig, "charset", "line_height must be >= 0.5")
	}
	if c.RasterScale < 1 {
		return coreerr.New(coreerr.InvalidConfig, "charset", "png_scale must be >= 1")
	}
	if c.GIFSampleFactor < 1 || c.GIFSampleFactor > 30 {
		return coreerr.New(coreerr.InvalidConfig, "charset", "gif_quality must be in [1, 30]")
	}
	if !containsBlank(c.Glyphs) {
		// spec §3: "S contains the ASCII space at some position or the
		// blank-glyph substitution is applied" -- we apply the
		// substitution by appending a trailing space rather than
		// rejecting, since every named ramp already ends in a blank and
		// a caller-supplied custom ramp without one is easy to fix up
		// silently.
		c.Glyphs = append(c.Glyphs, BlankGlyph)
	}
	return nil
}

func containsBlank(glyphs []rune) bool {
	for _, g := range glyphs {
		if IsBlank(g) {
			return true
		}
	}
	return false
}

// WithCharset selects a named glyph ramp.
func WithCharset(name Name) Option {
	return func(c *Config) {
		if r := rampFor(name); r != nil {
			c.Glyphs = append([]rune{}, r...)
		}
	}
}

// WithCustomCharset overrides the named ramp with a caller-supplied
// sequence, provided it is non-empty (spec §6: "overrides charset when
// non-empty").
func WithCustomCharset(s string) Option {
	return func(c *Config) {
		if s == "" {
			return
		}
		glyphs := make([]rune, 0, utf8.RuneCountInString(s))
		for _, r := range s {
			glyphs = append(glyphs, r)
		}
		c.Glyphs = glyphs
	}
}

// WithColorMode sets cell color semantics.
func WithColorMode(m ColorMode) Option {
	return func(c *Config) { c.ColorMode = m }
}

// WithPaletteMode sets the palette used for colored markup.
func WithPaletteMode(m PaletteMode) Option {
	return func(c *Config) { c.PaletteMode = m }
}

// WithContrast sets the contrast curve parameter, 0..255.
func WithContrast(v int) Option {
	return func(c *Config) { c.Contrast = v }
}

// WithBrightness sets the pre-contrast brightness multiplier, percent.
func WithBrightness(v int) Option {
	return func(c *Config) { c.Brightness = v }
}

// WithInvert flips the dark<->light glyph ramp direction.
func WithInvert(v bool) Option {
	return func(c *Config) { c.Invert = v }
}

// WithBackground sets the raster/markup background color.
func WithBackground(c2 color.RGBA) Option {
	return func(c *Config) { c.Background = c2 }
}

// WithFontSize sets the raster glyph pixel size.
func WithFontSize(v int) Option {
	return func(c *Config) { c.FontSize = v }
}

// WithLineHeight sets the raster line spacing multiplier.
func WithLineHeight(v float64) Option {
	return func(c *Config) { c.LineHeightMult = v }
}

// WithRasterScale sets the raster render scale (png_scale).
func WithRasterScale(v int) Option {
	return func(c *Config) { c.RasterScale = v }
}

// WithGIFSampleFactor sets the NeuQuant sample factor (gif_quality).
func WithGIFSampleFactor(v int) Option {
	return func(c *Config) { c.GIFSampleFactor = v }
}

// ResolvePalette returns the fixed palette table named by c.PaletteMode, or
// nil for PaletteFull (pass-through 24-bit, no palette).
func (c *Config) ResolvePalette() palette.Palette {
	switch c.PaletteMode {
	case PaletteAnsi256:
		return palette.Ansi256()
	case PaletteAnsi16:
		return palette.Ansi16()
	case PaletteCGA:
		return palette.CGA()
	case PaletteGameboy:
		return palette.Gameboy()
	default:
		return nil
	}
}
