// Package gifenc assembles the GIF89a byte stream directly: header,
// logical screen descriptor, optional NETSCAPE2.0 loop extension, then per
// frame a graphic control extension, image descriptor, optional local
// color table, and LZW-compressed pixel data, finished with the trailer
// byte.
//
// Grounded on the GIF encoder bundled alongside this corpus's GIF
// reference material, restructured around this module's neuquant, lzw,
// and bytesink packages; SetGlobalPalette/SetDither -- present but unused
// by that reference encoder -- are completed here by globalpalette.go and
// dither.go rather than dropped.
package gifenc

import (
	"image"
	"image/color"

	"github.com/submersibletoaster/charanim/bytesink"
	"github.com/submersibletoaster/charanim/lzw"
	"github.com/submersibletoaster/charanim/neuquant"
)

// Encoder builds a GIF89a stream frame by frame.
type Encoder struct {
	width, height int

	transparent    *color.RGBA
	transIndex     int
	hasTransparent bool

	repeat int
	delay  int
	sample int
	dither string

	dispose       int
	globalPalette []byte

	firstFrame bool
	out        *bytesink.Sink
}

// New creates an Encoder for a width x height GIF. Default repeat is -1
// (play once), default quantization sample factor is 10, default
// disposal is "no action" once written.
func New(width, height int) *Encoder {
	return &Encoder{
		width: width, height: height,
		repeat: -1, dispose: -1,
		sample: 10, firstFrame: true,
		out: bytesink.New(),
	}
}

// SetDelay sets the frame delay for frames added after this call, in
// milliseconds, stored internally in 1/100s units.
func (e *Encoder) SetDelay(ms int) { e.delay = ms / 10 }

// SetRepeat sets the NETSCAPE2.0 loop count: -1 plays once, 0 loops
// forever, N > 0 plays N extra times. Must be called before AddFrame.
func (e *Encoder) SetRepeat(repeat int) { e.repeat = repeat }

// SetDispose overrides the GIF disposal method (0..3) for frames added
// after this call; -1 restores the encoder's default choice.
func (e *Encoder) SetDispose(code int) {
	if code < 0 {
		code = -1
	}
	e.dispose = code
}

// SetTransparent marks c as the transparent color; the nearest palette
// entry to c becomes the transparent index for each frame.
func (e *Encoder) SetTransparent(c *color.RGBA) { e.transparent = c }

// SetQuality sets the NeuQuant sampling factor (1 = best quality/slowest,
// 30 = fastest/coarsest). Default is 10.
func (e *Encoder) SetQuality(quality int) {
	if quality < 1 {
		quality = 1
	}
	e.sample = quality
}

// SetDither selects an error-diffusion kernel by name ("FloydSteinberg",
// "Burkes", "Stucki", "Atkinson", "Sierra-3", "Sierra-2", "Sierra-Lite")
// applied when mapping pixels onto the chosen palette; "" disables
// dithering.
func (e *Encoder) SetDither(kernel string) { e.dither = kernel }

// SetGlobalPalette fixes one 256-color RGB-triplet palette for every
// frame, skipping per-frame NeuQuant training. Pass nil to go back to
// per-frame quantization.
func (e *Encoder) SetGlobalPalette(palette []byte) { e.globalPalette = palette }

// AddFrame quantizes img onto either the global palette or a freshly
// trained NeuQuant palette, then appends it to the stream. The header,
// logical screen descriptor, and global color table are written on the
// first call.
func (e *Encoder) AddFrame(img image.Image) error {
	pixels := extractRGB(img, e.width, e.height)

	var colorTab []byte
	var nq *neuquant.Network
	if len(e.globalPalette) > 0 {
		colorTab = e.globalPalette
	} else {
		nq = neuquant.New(pixels, e.sample)
		nq.BuildColormap()
		colorTab = nq.Colormap()
	}

	indexed := e.indexPixels(pixels, colorTab, nq)

	transIndex := 0
	hasTransparent := false
	if e.transparent != nil {
		used := usedEntries(indexed, len(colorTab)/3)
		if idx, ok := nearestUsedIndex(colorTab, used, e.transparent.R, e.transparent.G, e.transparent.B); ok {
			transIndex = idx
			hasTransparent = true
		}
	}
	e.transIndex = transIndex
	e.hasTransparent = hasTransparent

	if e.firstFrame {
		e.writeHeader()
		e.writeLSD(colorTab)
		e.writePalette(colorTab)
		if e.repeat >= 0 {
			e.writeNetscapeExt()
		}
	}

	e.writeGraphicCtrlExt()
	e.writeImageDesc(len(e.globalPalette) > 0)

	if !e.firstFrame && len(e.globalPalette) == 0 {
		e.writePalette(colorTab)
	}

	lzw.Encode(e.out, e.width, e.height, indexed, 8)

	e.firstFrame = false
	return nil
}

// Finish appends the GIF trailer byte. Required once, after the last
// AddFrame call.
func (e *Encoder) Finish() {
	e.out.WriteU8(0x3b)
}

// Bytes returns the assembled GIF stream so far.
func (e *Encoder) Bytes() []byte { return e.out.Bytes() }

func (e *Encoder) indexPixels(pixels, colorTab []byte, nq *neuquant.Network) []byte {
	if e.dither != "" {
		return ditherIndex(pixels, e.width, e.height, colorTab, nq, e.dither)
	}
	n := len(pixels) / 3
	out := make([]byte, n)
	for i, k := 0, 0; i < n; i++ {
		out[i] = byte(lookupIndex(colorTab, nq, pixels[k], pixels[k+1], pixels[k+2]))
		k += 3
	}
	return out
}

// usedEntries reports, for each palette entry, whether indexed actually
// references it -- spec §4.8 restricts the transparent-index search to
// entries the quantized frame uses, not every slot in the color table.
func usedEntries(indexed []byte, paletteSize int) []bool {
	used := make([]bool, paletteSize)
	for _, i := range indexed {
		if int(i) < paletteSize {
			used[i] = true
		}
	}
	return used
}

// nearestUsedIndex finds the palette entry closest to (r, g, b) among the
// entries used marks true, reporting ok=false when none are used.
func nearestUsedIndex(colorTab []byte, used []bool, r, g, b byte) (int, bool) {
	best, bestDist, found := 0, 1<<30, false
	for i, k := 0, 0; k < len(colorTab); i, k = i+1, k+3 {
		if !used[i] {
			continue
		}
		dr := int(r) - int(colorTab[k])
		dg := int(g) - int(colorTab[k+1])
		db := int(b) - int(colorTab[k+2])
		d := dr*dr + dg*dg + db*db
		if !found || d < bestDist {
			bestDist = d
			best = i
			found = true
		}
	}
	return best, found
}

func lookupIndex(colorTab []byte, nq *neuquant.Network, r, g, b byte) int {
	if nq != nil {
		return nq.Lookup(r, g, b)
	}
	best, bestDist := 0, 1<<30
	for i, k := 0, 0; k < len(colorTab); i, k = i+1, k+3 {
		dr := int(r) - int(colorTab[k])
		dg := int(g) - int(colorTab[k+1])
		db := int(b) - int(colorTab[k+2])
		d := dr*dr + dg*dg + db*db
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func extractRGB(img image.Image, w, h int) []byte {
	out := make([]byte, w*h*3)
	b := img.Bounds()
	k := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			out[k], out[k+1], out[k+2] = byte(r>>8), byte(g>>8), byte(bl>>8)
			k += 3
		}
	}
	return out
}

func (e *Encoder) writeHeader() { e.out.WriteASCII("GIF89a") }

func (e *Encoder) writeLSD(colorTab []byte) {
	e.writeShort(e.width)
	e.writeShort(e.height)
	e.out.WriteU8(0x80 | 0x70 | palSizeBits(colorTab))
	e.out.WriteU8(0)
	e.out.WriteU8(0)
}

func (e *Encoder) writeNetscapeExt() {
	e.out.WriteU8(0x21)
	e.out.WriteU8(0xff)
	e.out.WriteU8(11)
	e.out.WriteASCII("NETSCAPE2.0")
	e.out.WriteU8(3)
	e.out.WriteU8(1)
	e.writeShort(e.repeat)
	e.out.WriteU8(0)
}

func (e *Encoder) writeGraphicCtrlExt() {
	e.out.WriteU8(0x21)
	e.out.WriteU8(0xf9)
	e.out.WriteU8(4)

	transp := 0
	disp := 0
	if e.hasTransparent {
		transp = 1
		disp = 2
	}
	if e.dispose >= 0 {
		disp = e.dispose & 7
	}

	e.out.WriteU8(byte(disp<<2 | transp))
	e.writeShort(e.delay)
	e.out.WriteU8(byte(e.transIndex))
	e.out.WriteU8(0)
}

func (e *Encoder) writeImageDesc(usingGlobalPalette bool) {
	e.out.WriteU8(0x2c)
	e.writeShort(0)
	e.writeShort(0)
	e.writeShort(e.width)
	e.writeShort(e.height)

	if e.firstFrame || usingGlobalPalette {
		e.out.WriteU8(0)
	} else {
		e.out.WriteU8(0x80 | 7)
	}
}

func (e *Encoder) writePalette(colorTab []byte) {
	e.out.WriteBytes(colorTab)
	for i := 0; i < (3*256)-len(colorTab); i++ {
		e.out.WriteU8(0)
	}
}

func (e *Encoder) writeShort(v int) {
	e.out.WriteU8(byte(v & 0xff))
	e.out.WriteU8(byte((v >> 8) & 0xff))
}

func palSizeBits(colorTab []byte) byte {
	entries := len(colorTab) / 3
	bits := 1
	for 1<<bits < entries && bits < 8 {
		bits++
	}
	return byte(bits - 1)
}
