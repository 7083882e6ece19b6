// Command asciiforge converts a still image, animated GIF, or video into
// ASCII-art output, either a styled text render or an animated GIF/MP4.
//
// Flag wiring, the pb/v3 progress bar, and the verbose-logging switch
// follow this module's own teacher-derived CLI idiom (root main.go and
// cmd/cli/main.go's flag.Int/flag.Parse pattern, cmd/sheet/main.go's
// verbose -> logrus.SetLevel(DebugLevel) switch, and main.go's
// pb.StartNew/bar.Increment progress bar).
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	pb "github.com/cheggaaa/pb/v3"
	"github.com/nfnt/resize"
	log "github.com/sirupsen/logrus"

	"github.com/submersibletoaster/charanim/charset"
	"github.com/submersibletoaster/charanim/encoder"
	"github.com/submersibletoaster/charanim/framesource"
	"github.com/submersibletoaster/charanim/gifenc"
	"github.com/submersibletoaster/charanim/glyphgrid"
	"github.com/submersibletoaster/charanim/pipeline"
	"github.com/submersibletoaster/charanim/pixel"
)

var (
	width       = flag.Int("w", 80, "Output width in character cells")
	outPath     = flag.String("o", "", "Output file path (required)")
	outFormat   = flag.String("format", "text", "Output format: text, markup, png, gif, mp4")
	charsetName = flag.String("charset", "standard", "Glyph ramp: standard, detailed, blocks, simple, binary, braille, dots")
	colorMode   = flag.String("color", "color", "color or grayscale")
	paletteMode = flag.String("palette", "full", "full, ansi256, ansi16, cga, gameboy")
	contrast    = flag.Int("contrast", 100, "Contrast 0..255")
	brightness  = flag.Int("brightness", 100, "Brightness percent, 1..400")
	invert      = flag.Bool("invert", false, "Invert the brightness-to-glyph mapping")
	fps         = flag.Float64("fps", 0, "Target frame rate for animated sources, 0 = native/auto")
	repeat      = flag.Int("repeat", 0, "GIF loop count: -1 once, 0 forever, N extra plays")
	quality     = flag.Int("quality", 10, "NeuQuant quantization sample factor, 1 best..30 fastest")
	dither      = flag.String("dither", "", "Dithering kernel: FloydSteinberg, Burkes, Stucki, Atkinson, Sierra-3, Sierra-2, Sierra-Lite")
	globalPal   = flag.Bool("global-palette", false, "Build one shared GIF palette across all frames instead of per-frame")
	workers     = flag.Int("workers", 0, "Conversion worker count, 0 = NumCPU")
	verbose     = flag.Bool("v", false, "Verbose logging")
	ffmpegPath  = flag.String("ffmpeg", "", "Path to the ffmpeg binary (video sources/output)")
	ffprobePath = flag.String("ffprobe", "", "Path to the ffprobe binary (video sources)")
)

func main() {
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if *outPath == "" {
		fmt.Fprintln(os.Stderr, "asciiforge: -o output path is required")
		os.Exit(2)
	}
	srcFile := flag.Arg(0)
	if srcFile == "" {
		fmt.Fprintln(os.Stderr, "asciiforge: input file path is required")
		os.Exit(2)
	}

	if err := run(srcFile); err != nil {
		log.WithError(err).Error("conversion failed")
		os.Exit(1)
	}
}

func run(srcFile string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	source, err := openSource(srcFile)
	if err != nil {
		return err
	}

	switch *outFormat {
	case "text", "markup", "png":
		return renderSingleShot(source, cfg)
	case "gif":
		return renderGIF(source, cfg)
	case "mp4":
		return renderMP4(source, cfg)
	default:
		return fmt.Errorf("asciiforge: unrecognized -format %q", *outFormat)
	}
}

func buildConfig() (*charset.Config, error) {
	opts := []charset.Option{
		charset.WithCharset(charset.Name(*charsetName)),
		charset.WithContrast(*contrast),
		charset.WithBrightness(*brightness),
		charset.WithInvert(*invert),
	}
	if *colorMode == "grayscale" {
		opts = append(opts, charset.WithColorMode(charset.ColorModeGrayscale))
	}
	switch *paletteMode {
	case "ansi256":
		opts = append(opts, charset.WithPaletteMode(charset.PaletteAnsi256))
	case "ansi16":
		opts = append(opts, charset.WithPaletteMode(charset.PaletteAnsi16))
	case "cga":
		opts = append(opts, charset.WithPaletteMode(charset.PaletteCGA))
	case "gameboy":
		opts = append(opts, charset.WithPaletteMode(charset.PaletteGameboy))
	}
	return charset.New(*width, opts...)
}

func openSource(path string) (framesource.Source, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gif":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return framesource.NewAnimatedGIFSource(f)
	case ".mp4", ".webm", ".mkv", ".mov", ".avi":
		return framesource.NewVideoSource(path, framesource.NewFFmpegDecodeFunc(*ffprobePath, *ffmpegPath)), nil
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return framesource.NewStillImageSource(f)
	}
}

func renderSingleShot(source framesource.Source, cfg *charset.Config) error {
	ctx := context.Background()
	frames, errc := source.Iter(ctx, 0)

	frame, ok := <-frames
	if !ok {
		return <-errc
	}

	t, err := pixelTransform(cfg)
	if err != nil {
		return err
	}

	out, err := renderOneFrame(frame, cfg, t)
	if err != nil {
		return err
	}
	return os.WriteFile(*outPath, out, 0o644)
}

func renderGIF(source framesource.Source, cfg *charset.Config) error {
	ctx := context.Background()
	desc, err := source.Describe(ctx)
	if err != nil {
		return err
	}

	height := gridHeightFor(cfg.Width, desc)
	// GIFHost takes the rasterized frame size in pixels, so measure it from
	// a grid of the same cell dimensions.
	sizing, err := glyphgrid.New(cfg.Width, height).ToRaster(cfg)
	if err != nil {
		return err
	}
	host := encoder.NewGIFHost(sizing.Bounds().Dx(), sizing.Bounds().Dy(), cfg, *repeat)
	host.SetQuality(*quality)
	if *dither != "" {
		host.SetDither(*dither)
	}

	if *globalPal {
		pal, err := collectGlobalPalette(ctx, source, cfg)
		if err != nil {
			return fmt.Errorf("building global palette: %w", err)
		}
		host.SetGlobalPalette(pal)
	}

	p := pipeline.New(source, pipeline.Options{
		Charset:   cfg,
		TargetFPS: *fps,
		Output:    pipeline.OutputGIF,
		Workers:   *workers,
		Encoder:   host,
	})

	bar := pb.StartNew(desc.FrameCount)
	defer bar.Finish()
	go reportProgress(p, bar)

	result, err := p.Run(ctx)
	if err != nil {
		return err
	}
	log.WithField("frames", result.FrameCount).Info("GIF encoded")
	return os.WriteFile(*outPath, result.Output, 0o644)
}

func renderMP4(source framesource.Source, cfg *charset.Config) error {
	ctx := context.Background()
	desc, err := source.Describe(ctx)
	if err != nil {
		return err
	}

	outFPS := *fps
	if outFPS <= 0 {
		if desc.HasNominalFPS && desc.NominalFPS > 0 {
			outFPS = desc.NominalFPS
		} else {
			outFPS = 24
		}
	}

	host := encoder.NewMP4Host(cfg, outFPS, encoder.NewFFmpegEncoder(*ffmpegPath))

	p := pipeline.New(source, pipeline.Options{
		Charset:   cfg,
		TargetFPS: outFPS,
		Output:    pipeline.OutputMP4,
		Workers:   *workers,
		Encoder:   host,
	})

	bar := pb.StartNew(desc.FrameCount)
	defer bar.Finish()
	go reportProgress(p, bar)

	result, err := p.Run(ctx)
	if err != nil {
		return err
	}
	log.WithField("frames", result.FrameCount).Info("MP4 encoded")
	return os.WriteFile(*outPath, result.Output, 0o644)
}

func reportProgress(p *pipeline.AnimationPipeline, bar *pb.ProgressBar) {
	for ev := range p.Progress() {
		if ev.FramesTotal > 0 {
			bar.SetTotal(int64(ev.FramesTotal))
		}
		bar.SetCurrent(int64(ev.FramesDone))
	}
}

func pixelTransform(cfg *charset.Config) (*pixel.Transform, error) {
	return pixel.New(cfg)
}

func renderOneFrame(f framesource.Frame, cfg *charset.Config, t *pixel.Transform) ([]byte, error) {
	height := pixel.GridHeight(cfg.Width, f.Width, f.Height)
	if height < 1 {
		height = 1
	}
	resized := resizeFrame(f.Pixels, f.Width, f.Height, cfg.Width, height)
	grid := glyphgrid.Build(resized, cfg.Width, height, t, cfg.ColorMode)

	switch *outFormat {
	case "markup":
		return []byte(grid.ToColoredMarkup(cfg, glyphgrid.MarkupOptions{IncludeDocument: true})), nil
	case "png":
		return grid.PNGBytes(cfg, true)
	default:
		return []byte(grid.ToText()), nil
	}
}

func gridHeightFor(width int, desc framesource.Description) int {
	if desc.Width <= 0 {
		return width / 2
	}
	h := width * desc.Height / desc.Width / 2
	if h < 1 {
		h = 1
	}
	return h
}

// collectGlobalPalette runs the conversion stage once up front (a second
// full Iter pass over source, separate from the pipeline's own pass) to
// rasterize every frame and quantize a single shared palette across all of
// them, for -global-palette.
func collectGlobalPalette(ctx context.Context, source framesource.Source, cfg *charset.Config) ([]byte, error) {
	t, err := pixelTransform(cfg)
	if err != nil {
		return nil, err
	}

	frames, errc := source.Iter(ctx, *fps)
	var rendered []image.Image
	for f := range frames {
		height := pixel.GridHeight(cfg.Width, f.Width, f.Height)
		if height < 1 {
			height = 1
		}
		resized := resizeFrame(f.Pixels, f.Width, f.Height, cfg.Width, height)
		grid := glyphgrid.Build(resized, cfg.Width, height, t, cfg.ColorMode)
		img, err := grid.ToRaster(cfg)
		if err != nil {
			return nil, err
		}
		rendered = append(rendered, img)
	}
	if err := <-errc; err != nil {
		return nil, err
	}

	return gifenc.BuildGlobalPalette(rendered, 256)
}

func resizeFrame(pixels []byte, srcW, srcH, width, height int) []byte {
	src := &image.RGBA{Pix: pixels, Stride: srcW * 4, Rect: image.Rect(0, 0, srcW, srcH)}
	dst := resize.Resize(uint(width), uint(height), src, resize.NearestNeighbor)

	out := make([]byte, width*height*4)
	b := dst.Bounds()
	k := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := dst.At(x, y).RGBA()
			out[k], out[k+1], out[k+2], out[k+3] = byte(r>>8), byte(g>>8), byte(bl>>8), byte(a>>8)
			k += 4
		}
	}
	return out
}
