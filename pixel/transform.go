// Package pixel implements the stateless per-pixel math: brightness scale,
// contrast curve, luminance, and brightness-to-glyph indexing.
//
// Transform is built once per charset.Config, mirroring the teacher's
// pattern of precomputing a reusable value (glyph.RasterFont) rather than
// recomputing configuration on every call.
package pixel

import (
	"github.com/submersibletoaster/charanim/charset"
	"github.com/submersibletoaster/charanim/coreerr"
)

// RGB is an adjusted, clamped 8-bit color triplet.
type RGB struct {
	R, G, B byte
}

// Result is the outcome of transforming one source pixel: its adjusted
// color, luminance, and the glyph it maps to.
type Result struct {
	Color     RGB
	Luminance float64
	Glyph     rune
	GlyphIdx  int
}

// Transform holds the precomputed contrast factor and glyph ramp for one
// ConverterConfig.
type Transform struct {
	brightness float64 // percent/100
	contrast   int
	factor     float64
	invert     bool
	glyphs     []rune
}

// New validates cfg (spec §9 Open Question 3: contrast == 259 is
// invalid_config) and returns a reusable Transform.
func New(cfg *charset.Config) (*Transform, error) {
	if cfg.Contrast == 259 {
		return nil, coreerr.New(coreerr.InvalidConfig, "pixel", "contrast of 259 divides by zero in the contrast curve")
	}
	// cfg.Contrast plugs directly into factor = 259(c+255)/(255(259-c)); a
	// contrast of 0 gives factor 1 and leaves colors unchanged.
	c := float64(cfg.Contrast)
	denom := 255.0 * (259.0 - c)
	if denom == 0 {
		return nil, coreerr.New(coreerr.InvalidConfig, "pixel", "contrast curve denominator is zero")
	}
	factor := 259.0 * (c + 255.0) / denom

	return &Transform{
		brightness: float64(cfg.Brightness) / 100.0,
		contrast:   cfg.Contrast,
		factor:     factor,
		invert:     cfg.Invert,
		glyphs:     cfg.Glyphs,
	}, nil
}

// Apply runs the full per-pixel transform from spec §4.3 on one RGBA pixel.
// Alpha is accepted but does not influence the math (compositing against a
// background, if any, happens downstream of Transform, in glyphgrid.ToRaster).
func (t *Transform) Apply(r, g, b, _ byte) Result {
	rb := clamp(float64(r) * t.brightness)
	gb := clamp(float64(g) * t.brightness)
	bb := clamp(float64(b) * t.brightness)

	rc := clamp(t.factor*(rb-128) + 128)
	gc := clamp(t.factor*(gb-128) + 128)
	bc := clamp(t.factor*(bb-128) + 128)

	y := 0.299*rc + 0.587*gc + 0.114*bc

	n := len(t.glyphs)
	var frac float64
	if t.invert {
		frac = 1.0 - y/255.0
	} else {
		frac = y / 255.0
	}
	idx := int(frac * float64(n-1))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}

	return Result{
		Color:     RGB{R: byte(rc), G: byte(gc), B: byte(bc)},
		Luminance: y,
		Glyph:     t.glyphs[idx],
		GlyphIdx:  idx,
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// GridHeight computes H = floor(W * (hSrc/wSrc) * 0.5), the fixed terminal
// character aspect correction from spec §3.
func GridHeight(width, wSrc, hSrc int) int {
	if wSrc <= 0 {
		return 0
	}
	h := float64(width) * (float64(hSrc) / float64(wSrc)) * 0.5
	return int(h)
}
