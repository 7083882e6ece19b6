// Dithering support for gifenc, completing the dither flag the reference
// GIF encoder declared but left as a TODO.
//
// The kernel weights are adapted from the teacher's root-level dither.go
// kernel map (moved here since this encoder, not the teacher's redraw
// path, is the thing that now owns palette mapping); esimov/colorquant
// does the actual error-diffusion pass against a fixed target palette, the
// way the teacher's DitherToPalette feeds a pre-built color.Palette into
// colorquant.Dither.Quantize.
package gifenc

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/esimov/colorquant"

	"github.com/submersibletoaster/charanim/neuquant"
)

var ditherKernels = map[string]colorquant.Dither{
	"FloydSteinberg": {Filter: [][]float32{
		{0.0, 0.0, 0.0, 7.0 / 48.0, 5.0 / 48.0},
		{3.0 / 48.0, 5.0 / 48.0, 7.0 / 48.0, 5.0 / 48.0, 3.0 / 48.0},
		{1.0 / 48.0, 3.0 / 48.0, 5.0 / 48.0, 3.0 / 48.0, 1.0 / 48.0},
	}},
	"Burkes": {Filter: [][]float32{
		{0.0, 0.0, 0.0, 8.0 / 32.0, 4.0 / 32.0},
		{2.0 / 32.0, 4.0 / 32.0, 8.0 / 32.0, 4.0 / 32.0, 2.0 / 32.0},
		{0.0, 0.0, 0.0, 0.0, 0.0},
		{4.0 / 32.0, 8.0 / 32.0, 0.0, 0.0, 0.0},
	}},
	"Stucki": {Filter: [][]float32{
		{0.0, 0.0, 0.0, 8.0 / 42.0, 4.0 / 42.0},
		{2.0 / 42.0, 4.0 / 42.0, 8.0 / 42.0, 4.0 / 42.0, 2.0 / 42.0},
		{1.0 / 42.0, 2.0 / 42.0, 4.0 / 42.0, 2.0 / 42.0, 1.0 / 42.0},
	}},
	"Atkinson": {Filter: [][]float32{
		{0.0, 0.0, 1.0 / 8.0, 1.0 / 8.0},
		{1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0, 0.0},
		{0.0, 1.0 / 8.0, 0.0, 0.0},
	}},
	"Sierra-3": {Filter: [][]float32{
		{0.0, 0.0, 0.0, 5.0 / 32.0, 3.0 / 32.0},
		{2.0 / 32.0, 4.0 / 32.0, 5.0 / 32.0, 4.0 / 32.0, 2.0 / 32.0},
		{0.0, 2.0 / 32.0, 3.0 / 32.0, 2.0 / 32.0, 0.0},
	}},
	"Sierra-2": {Filter: [][]float32{
		{0.0, 0.0, 0.0, 4.0 / 16.0, 3.0 / 16.0},
		{1.0 / 16.0, 2.0 / 16.0, 3.0 / 16.0, 2.0 / 16.0, 1.0 / 16.0},
		{0.0, 0.0, 0.0, 0.0, 0.0},
	}},
	"Sierra-Lite": {Filter: [][]float32{
		{0.0, 0.0, 2.0 / 4.0},
		{1.0 / 4.0, 1.0 / 4.0, 0.0},
		{0.0, 0.0, 0.0},
	}},
}

// ditherIndex maps width*height RGB triplets onto colorTab (or nq, when a
// NeuQuant network built it) using the named error-diffusion kernel,
// falling back to nearest-color mapping if kernel is unrecognized.
func ditherIndex(pixels []byte, width, height int, colorTab []byte, nq *neuquant.Network, kernel string) []byte {
	k, ok := ditherKernels[kernel]
	if !ok {
		return nearestIndex(pixels, colorTab, nq)
	}

	src := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, p := 0, 0; p < len(pixels); i, p = i+4, p+3 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = pixels[p], pixels[p+1], pixels[p+2], 0xff
	}

	pal := buildColorPalette(colorTab)
	dst := image.NewPaletted(src.Bounds(), pal)

	var out draw.Image = dst
	k.Quantize(src, out, len(pal), true, false)

	// pal was built in colorTab order, which is also the order Colormap/
	// Lookup use, so dst.Pix already holds the indices this GIF frame's
	// color table expects -- no second nearest-color pass needed.
	indexed := make([]byte, width*height)
	copy(indexed, dst.Pix)
	return indexed
}

func nearestIndex(pixels, colorTab []byte, nq *neuquant.Network) []byte {
	n := len(pixels) / 3
	out := make([]byte, n)
	for i, k := 0, 0; i < n; i++ {
		out[i] = byte(lookupIndex(colorTab, nq, pixels[k], pixels[k+1], pixels[k+2]))
		k += 3
	}
	return out
}

func buildColorPalette(colorTab []byte) color.Palette {
	pal := make(color.Palette, 0, len(colorTab)/3)
	for i := 0; i < len(colorTab); i += 3 {
		pal = append(pal, color.RGBA{R: colorTab[i], G: colorTab[i+1], B: colorTab[i+2], A: 0xff})
	}
	return pal
}
