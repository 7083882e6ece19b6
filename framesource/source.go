// Package framesource provides the FrameSource abstraction (spec §4.5): an
// ordered sequence of decoded RGBA frames with per-frame delay, for a still
// image, an animated still (GIF), or a video.
//
// The channel-producer-plus-context.Context-cancellation shape here follows
// svanichkin-say/device.StartCameraStream: a goroutine feeds a buffered
// channel and watches ctx.Done(), the caller ranges over the channel.
package framesource

import (
	"context"
	"image"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/submersibletoaster/charanim/coreerr"
)

// Frame is one decoded RGBA frame plus its timing.
type Frame struct {
	Pixels      []byte // RGBA, row-major, stride = Width*4
	Width       int
	Height      int
	TimestampUs int64
	DelayMs     int
}

// Description answers capability queries without decoding the whole
// sequence.
type Description struct {
	Width       int
	Height      int
	FrameCount  int  // 0 if unknown
	NominalFPS  float64 // 0 if unknown
	HasFrameCount bool
	HasNominalFPS bool
}

// Source produces an ordered sequence of decoded RGBA frames.
type Source interface {
	// Describe answers capability queries, subject to the 9s probe
	// timeout (spec §5).
	Describe(ctx context.Context) (Description, error)

	// Iter returns a channel of frames in source order. If targetFPS > 0,
	// frames are resampled to that rate (spec §4.5); targetFPS == 0 means
	// "native". The channel is closed when the sequence ends, is
	// cancelled, or fails; callers must drain it to avoid leaking the
	// producer goroutine. A failure mid-stream is reported via errc,
	// which receives at most one error and is then closed; a successful
	// full sequence closes errc with no value sent.
	Iter(ctx context.Context, targetFPS float64) (<-chan Frame, <-chan error)
}

// OpenTimeout and ProbeTimeout are the fixed timeouts spec §5 assigns to
// the FrameSource open step and the Describe (probe) step respectively.
const (
	OpenTimeout  = 20 * time.Second
	ProbeTimeout = 9 * time.Second
)

var log = logrus.WithField("component", "framesource")

// boundsOf returns the RGBA bounds of img as (width, height).
func boundsOf(img image.Image) (int, int) {
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out
}

func withTimeoutErr(ctx context.Context, d time.Duration, component, op string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return coreerr.New(coreerr.Timeout, component, op+" exceeded its configured timeout")
	}
}
