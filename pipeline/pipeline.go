// Package pipeline drives one end-to-end conversion job: extract frames
// from a framesource.Source, convert each to a glyphgrid.Grid in parallel
// while preserving frame order, then hand the rendered frames to an
// encoder.
//
// The worker-pool-plus-reorder-buffer shape of the Convert stage is
// grounded on the teacher's cmd/sheet/main.go Workers function: N worker
// goroutines drain a work channel into a shared results channel, and a
// single collector goroutine buffers out-of-order results, sorts them, and
// only releases a prefix once it is contiguous from the last released
// index.
package pipeline

import (
	"context"
	"image"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nfnt/resize"
	"github.com/sirupsen/logrus"

	"github.com/submersibletoaster/charanim/charset"
	"github.com/submersibletoaster/charanim/coreerr"
	"github.com/submersibletoaster/charanim/framesource"
	"github.com/submersibletoaster/charanim/glyphgrid"
	"github.com/submersibletoaster/charanim/pixel"
)

// Phase identifies one of the four pipeline stages for progress reporting.
type Phase string

const (
	PhaseExtract  Phase = "extract"
	PhaseConvert  Phase = "convert"
	PhaseEncode   Phase = "encode"
	PhaseFinalize Phase = "finalize"
)

// ProgressEvent reports pipeline advancement; sent over AnimationPipeline's
// progress channel as each phase makes headway.
type ProgressEvent struct {
	Phase       Phase
	FramesDone  int
	FramesTotal int // 0 if unknown
	Message     string
}

// OutputKind distinguishes the two render targets spec §4.9/§4.10 define.
type OutputKind string

const (
	OutputGIF OutputKind = "gif"
	OutputMP4 OutputKind = "mp4"
)

// FrameEncoder is the seam pipeline uses to hand off rendered frames,
// implemented by encoder.GIFHost and encoder.MP4Host.
type FrameEncoder interface {
	AddFrame(ctx context.Context, grid *glyphgrid.Grid, delayMs int) error
	Finalize(ctx context.Context) ([]byte, error)
	Cancel()
}

// Options configures one pipeline run.
type Options struct {
	Charset     *charset.Config
	TargetFPS   float64 // 0 = native
	Output      OutputKind
	Workers     int // 0 = runtime.NumCPU()-based default
	Encoder     FrameEncoder
}

var log = logrus.WithField("component", "pipeline")

// GIFBatchSize returns the GIF-path conversion batch size, spec's
// max(12, 2*hw_threads) rule.
func GIFBatchSize() int {
	n := 2 * runtime.NumCPU()
	if n < 12 {
		return 12
	}
	return n
}

// VideoTimestampUs computes the i'th output frame's timestamp in
// microseconds at outputFPS, per spec §4.10's rounding rule.
func VideoTimestampUs(i int, outputFPS float64) int64 {
	if outputFPS <= 0 {
		return 0
	}
	return int64(roundHalfAwayFromZero(float64(i) * 1_000_000.0 / outputFPS))
}

// VideoKeyframeInterval computes max(1, round(outputFPS*2)), the fixed
// GOP size spec §4.10 assigns for video encoding.
func VideoKeyframeInterval(outputFPS float64) int {
	v := int(roundHalfAwayFromZero(outputFPS * 2))
	if v < 1 {
		return 1
	}
	return v
}

func roundHalfAwayFromZero(v float64) float64 {
	if v < 0 {
		return -roundHalfAwayFromZero(-v)
	}
	i := float64(int64(v))
	if v-i >= 0.5 {
		return i + 1
	}
	return i
}

// AnimationPipeline runs one conversion job from source to encoded output.
type AnimationPipeline struct {
	source   framesource.Source
	opts     Options
	progress chan ProgressEvent
	cancel   atomic.Bool
}

// New builds a pipeline over source with opts. Progress events are sent
// without blocking; an event is dropped when the Progress channel is full.
func New(source framesource.Source, opts Options) *AnimationPipeline {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &AnimationPipeline{
		source:   source,
		opts:     opts,
		progress: make(chan ProgressEvent, 16),
	}
}

// Progress returns the channel ProgressEvents are sent on; closed when Run
// returns.
func (p *AnimationPipeline) Progress() <-chan ProgressEvent { return p.progress }

// Cancel requests cooperative cancellation; checked at every suspension
// point in Run (each frame boundary in extract/convert/encode).
func (p *AnimationPipeline) Cancel() { p.cancel.Store(true) }

func (p *AnimationPipeline) cancelled() bool { return p.cancel.Load() }

// Result is the outcome of a completed pipeline run.
type Result struct {
	Output     []byte
	FrameCount int
	Elapsed    time.Duration
}

// Run executes all four phases in order and returns the encoded output.
// Run owns closing its own Progress channel; callers should range over
// Progress concurrently with this call if they want live updates.
func (p *AnimationPipeline) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	defer close(p.progress)

	if p.opts.Encoder == nil {
		return Result{}, coreerr.New(coreerr.InvalidConfig, "pipeline", "no encoder configured")
	}

	t, err := pixel.New(p.opts.Charset)
	if err != nil {
		return Result{}, err
	}

	p.emit(ProgressEvent{Phase: PhaseExtract, Message: "describing source"})
	desc, err := p.source.Describe(ctx)
	if err != nil {
		return Result{}, coreerr.Wrap(coreerr.SourceOpen, "pipeline", "describing source", err)
	}

	frames, errc := p.source.Iter(ctx, p.opts.TargetFPS)

	converted, convErrc := p.convert(ctx, frames, t, desc.FrameCount)

	frameCount := 0
	for cf := range converted {
		if p.cancelled() {
			p.opts.Encoder.Cancel()
			return Result{}, coreerr.New(coreerr.Cancelled, "pipeline", "cancelled during encode")
		}

		p.emit(ProgressEvent{Phase: PhaseEncode, FramesDone: frameCount + 1, FramesTotal: desc.FrameCount})
		if err := p.opts.Encoder.AddFrame(ctx, cf.grid, cf.delayMs); err != nil {
			p.opts.Encoder.Cancel()
			return Result{}, err
		}
		frameCount++
	}

	if err := firstNonNil(<-errc, <-convErrc); err != nil {
		p.opts.Encoder.Cancel()
		return Result{}, err
	}

	p.emit(ProgressEvent{Phase: PhaseFinalize, Message: "finalizing output"})
	out, err := p.opts.Encoder.Finalize(ctx)
	if err != nil {
		return Result{}, err
	}

	return Result{Output: out, FrameCount: frameCount, Elapsed: time.Since(start)}, nil
}

func (p *AnimationPipeline) emit(ev ProgressEvent) {
	select {
	case p.progress <- ev:
	default:
		log.WithField("phase", ev.Phase).Debug("progress channel full, dropping event")
	}
}

type convertedFrame struct {
	idx     int
	grid    *glyphgrid.Grid
	delayMs int
}

// convert runs glyphgrid.Build over each frame using a worker pool sized
// by p.opts.Workers, then reorders results back to source order via the
// Workers/RenderBuff pattern before handing them downstream in order.
func (p *AnimationPipeline) convert(ctx context.Context, frames <-chan framesource.Frame, t *pixel.Transform, total int) (<-chan convertedFrame, <-chan error) {
	out := make(chan convertedFrame, p.opts.Workers)
	errc := make(chan error, 1)

	type indexed struct {
		idx int
		f   framesource.Frame
	}
	work := make(chan indexed, p.opts.Workers)
	mid := make(chan convertedFrame, p.opts.Workers)

	go func() {
		defer close(work)
		i := 0
		for f := range frames {
			if p.cancelled() {
				return
			}
			work <- indexed{idx: i, f: f}
			i++
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < p.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				grid, err := p.convertOne(item.f, t)
				if err != nil {
					select {
					case errc <- err:
					default:
					}
					continue
				}
				mid <- convertedFrame{idx: item.idx, grid: grid, delayMs: item.f.DelayMs}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(mid)
	}()

	go func() {
		defer close(out)
		defer close(errc)
		next := 0
		var buffer []convertedFrame
		done := 0
		for cf := range mid {
			buffer = append(buffer, cf)
			sort.Slice(buffer, func(i, j int) bool { return buffer[i].idx < buffer[j].idx })
			for len(buffer) > 0 && buffer[0].idx == next {
				p.emit(ProgressEvent{Phase: PhaseConvert, FramesDone: done + 1, FramesTotal: total})
				out <- buffer[0]
				buffer = buffer[1:]
				next++
				done++
			}
		}
	}()

	return out, errc
}

func (p *AnimationPipeline) convertOne(f framesource.Frame, t *pixel.Transform) (*glyphgrid.Grid, error) {
	height := pixel.GridHeight(p.opts.Charset.Width, f.Width, f.Height)
	if height < 1 {
		height = 1
	}
	resized := resizeNearest(f.Pixels, f.Width, f.Height, p.opts.Charset.Width, height)
	return glyphgrid.Build(resized, p.opts.Charset.Width, height, t, p.opts.Charset.ColorMode), nil
}

// resizeNearest downsamples a raw RGBA buffer to width x height using
// nfnt/resize's nearest-neighbor interpolation -- the cheapest of its
// kernels, appropriate since each output cell already discards all but one
// representative pixel's worth of detail in the glyph/luminance mapping
// downstream.
func resizeNearest(pixels []byte, srcW, srcH, width, height int) []byte {
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

func firstNonNil(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
