// Shared global GIF palette construction, completing the encoder's
// SetGlobalPalette hook with an actual builder.
//
// Adapted from the teacher's pickPalette (root redraw.go), which calls
// Nykakin/quantize's hierarchical quantizer over a single image; here it
// runs over every frame's pixels concatenated, so one palette serves the
// whole animation instead of one still frame.
package gifenc

import (
	"image"

	"github.com/Nykakin/quantize"

	"github.com/submersibletoaster/charanim/coreerr"
)

// BuildGlobalPalette quantizes frames down to at most colorCount colors
// using a hierarchical quantizer over their combined color distribution,
// returning an RGB-triplet palette suitable for Encoder.SetGlobalPalette.
func BuildGlobalPalette(frames []image.Image, colorCount int) ([]byte, error) {
	if len(frames) == 0 {
		return nil, coreerr.New(coreerr.InvalidConfig, "gifenc", "cannot build a global palette from zero frames")
	}
	if colorCount < 2 {
		colorCount = 2
	}
	if colorCount > 256 {
		colorCount = 256
	}

	montage := montageOf(frames)

	q := quantize.NewHierarhicalQuantizer()
	colors, err := q.Quantize(montage, colorCount)
	if err != nil {
		return nil, coreerr.Wrap(coreerr.Quantize, "gifenc", "hierarchical quantization of combined frames", err)
	}

	out := make([]byte, 0, len(colors)*3)
	for _, c := range colors {
		r, g, b, _ := c.RGBA()
		out = append(out, byte(r>>8), byte(g>>8), byte(b>>8))
	}
	return out, nil
}

// montageOf tiles every frame into one wide strip so the quantizer sees
// every frame's colors without this package depending on a sampling
// scheme of its own.
func montageOf(frames []image.Image) image.Image {
	b0 := frames[0].Bounds()
	w, h := b0.Dx(), b0.Dy()

	strip := image.NewRGBA(image.Rect(0, 0, w*len(frames), h))
	for i, f := range frames {
		b := f.Bounds()
		for y := 0; y < h && y < b.Dy(); y++ {
			for x := 0; x < w && x < b.Dx(); x++ {
				strip.Set(i*w+x, y, f.At(b.Min.X+x, b.Min.Y+y))
			}
		}
	}
	return strip
}
