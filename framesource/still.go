// Still-image and animated-GIF FrameSource variants.
//
// Decode/orientation handling is grounded on cathugger-nksrv's
// thumbnailer/gothm/gothm.go: image.DecodeConfig for a cheap probe,
// image.Decode for the real decode, disintegration/imaging for EXIF
// orientation and resize-to-fit. WebP/BMP decoder registration follows the
// same file's blank imports of golang.org/x/image/{webp,bmp}.
package framesource

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/submersibletoaster/charanim/coreerr"
)

type stillSource struct {
	img image.Image
}

// NewStillImageSource decodes r as a still bitmap (PNG/JPEG/WebP/BMP) and
// returns a Source yielding exactly one Frame with DelayMs = 0.
func NewStillImageSource(r io.Reader) (Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, coreerr.Wrap(coreerr.SourceOpen, "framesource", "reading still image bytes", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, coreerr.Wrap(coreerr.SourceOpen, "framesource", "decoding still image", err)
	}

	return &stillSource{img: img}, nil
}

func (s *stillSource) Describe(ctx context.Context) (Description, error) {
	var d Description
	err := withTimeoutErr(ctx, ProbeTimeout, "framesource", "probe still image", func(context.Context) error {
		w, h := boundsOf(s.img)
		d = Description{Width: w, Height: h, FrameCount: 1, HasFrameCount: true}
		return nil
	})
	return d, err
}

func (s *stillSource) Iter(ctx context.Context, _ float64) (<-chan Frame, <-chan error) {
	frames := make(chan Frame, 1)
	errc := make(chan error, 1)

	go func() {
		defer close(frames)
		defer close(errc)

		select {
		case <-ctx.Done():
			errc <- coreerr.New(coreerr.Cancelled, "framesource", "cancelled before still frame delivered")
			return
		default:
		}

		rgba := toRGBA(s.img)
		w, h := boundsOf(s.img)
		frames <- Frame{Pixels: rgba.Pix, Width: w, Height: h, TimestampUs: 0, DelayMs: 0}
	}()

	return frames, errc
}

// NewOrientedStillImageSource decodes r the same way as
// NewStillImageSource but additionally applies EXIF orientation and fits
// the result within maxW x maxH, the way gothm.go's ThumbProcess does
// before handing pixels to any downstream consumer.
func NewOrientedStillImageSource(r io.Reader, maxW, maxH int) (Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, coreerr.Wrap(coreerr.SourceOpen, "framesource", "reading still image bytes", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, coreerr.Wrap(coreerr.SourceOpen, "framesource", "decoding still image with orientation", err)
	}

	if maxW > 0 && maxH > 0 {
		img = imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	}

	return &stillSource{img: img}, nil
}

type animatedGIFSource struct {
	g *gif.GIF
}

// NewAnimatedGIFSource decodes r as an animated GIF and returns a Source
// yielding one Frame per sub-image at its native delay.
func NewAnimatedGIFSource(r io.Reader) (Source, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, coreerr.Wrap(coreerr.SourceOpen, "framesource", "decoding animated GIF", err)
	}
	if len(g.Image) == 0 {
		return nil, coreerr.New(coreerr.SourceOpen, "framesource", "animated GIF has no frames")
	}
	return &animatedGIFSource{g: g}, nil
}

func (s *animatedGIFSource) Describe(ctx context.Context) (Description, error) {
	var d Description
	err := withTimeoutErr(ctx, ProbeTimeout, "framesource", "probe animated GIF", func(context.Context) error {
		b := s.g.Image[0].Bounds()
		d = Description{
			Width: b.Dx(), Height: b.Dy(),
			FrameCount: len(s.g.Image), HasFrameCount: true,
		}
		if fps := nominalFPS(s.g); fps > 0 {
			d.NominalFPS, d.HasNominalFPS = fps, true
		}
		return nil
	})
	return d, err
}

func nominalFPS(g *gif.GIF) float64 {
	if len(g.Delay) == 0 {
		return 0
	}
	var total int
	for _, d := range g.Delay {
		total += d
	}
	if total == 0 {
		return 0
	}
	avgCenti := float64(total) / float64(len(g.Delay))
	if avgCenti <= 0 {
		return 0
	}
	return 100.0 / avgCenti
}

func (s *animatedGIFSource) Iter(ctx context.Context, targetFPS float64) (<-chan Frame, <-chan error) {
	frames := make(chan Frame, 4)
	errc := make(chan error, 1)

	go func() {
		defer close(frames)
		defer close(errc)

		native := decodeNativeFrames(s.g)

		out := native
		if targetFPS > 0 {
			out = resampleUniform(native, targetFPS)
		}

		for _, f := range out {
			select {
			case <-ctx.Done():
				errc <- coreerr.New(coreerr.Cancelled, "framesource", "cancelled mid-stream")
				return
			default:
			}
			frames <- f
		}
	}()

	return frames, errc
}

// decodeNativeFrames composites each GIF sub-image onto a full-size RGBA
// canvas (GIF frames are often smaller than the logical screen) and
// attaches each frame's native delay.
func decodeNativeFrames(g *gif.GIF) []Frame {
	bounds := g.Image[0].Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	out := make([]Frame, 0, len(g.Image))

	var tsUs int64
	for i, frame := range g.Image {
		drawOver(canvas, frame)

		rgba := image.NewRGBA(canvas.Bounds())
		copy(rgba.Pix, canvas.Pix)

		delayMs := g.Delay[i] * 10
		out = append(out, Frame{
			Pixels: rgba.Pix, Width: w, Height: h,
			TimestampUs: tsUs, DelayMs: delayMs,
		})
		tsUs += int64(delayMs) * 1000

		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalBackground {
			canvas = image.NewRGBA(image.Rect(0, 0, w, h))
		}
	}
	return out
}

func drawOver(dst *image.RGBA, src *image.Paletted) {
	draw.Draw(dst, src.Bounds(), src, src.Bounds().Min, draw.Over)
}

// resampleUniform down/up-samples frames to produce frames spaced evenly at
// targetFPS, per spec §4.5: "the source produces uniformly spaced frames."
func resampleUniform(src []Frame, targetFPS float64) []Frame {
	if len(src) == 0 || targetFPS <= 0 {
		return src
	}
	totalMs := 0
	for _, f := range src {
		totalMs += f.DelayMs
	}
	if totalMs <= 0 {
		return src
	}

	frameIntervalUs := int64(1_000_000.0 / targetFPS)
	count := int(float64(totalMs*1000) / float64(frameIntervalUs))
	if count < 1 {
		count = 1
	}

	out := make([]Frame, 0, count)
	for i := 0; i < count; i++ {
		tsUs := int64(i) * frameIntervalUs
		f := pickAtTimestamp(src, tsUs)
		f.TimestampUs = tsUs
		f.DelayMs = int(frameIntervalUs / 1000)
		out = append(out, f)
	}
	return out
}

func pickAtTimestamp(frames []Frame, tsUs int64) Frame {
	var acc int64
	for _, f := range frames {
		acc += int64(f.DelayMs) * 1000
		if tsUs < acc {
			return f
		}
	}
	return frames[len(frames)-1]
}
