// Package encoder implements the EncoderHost lifecycle (spec §4.11):
// Created -> Writing -> Finalized, with Cancelled reachable from any
// state. GIFHost and MP4Host both satisfy pipeline.FrameEncoder.
package encoder

import (
	"bytes"
	"context"
	"sync"

	"github.com/submersibletoaster/charanim/charset"
	"github.com/submersibletoaster/charanim/coreerr"
	"github.com/submersibletoaster/charanim/gifenc"
	"github.com/submersibletoaster/charanim/glyphgrid"
)

// State is one EncoderHost lifecycle state.
type State string

const (
	StateCreated   State = "created"
	StateWriting   State = "writing"
	StateFinalized State = "finalized"
	StateCancelled State = "cancelled"
)

// hostState is embedded by both hosts to share the lifecycle guard.
type hostState struct {
	mu    sync.Mutex
	state State
}

func newHostState() hostState { return hostState{state: StateCreated} }

func (h *hostState) transitionToWriting(component string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.state {
	case StateCreated, StateWriting:
		h.state = StateWriting
		return nil
	case StateCancelled:
		return coreerr.New(coreerr.Cancelled, component, "encoder was cancelled")
	default:
		return coreerr.New(coreerr.InvalidState, component, "cannot add frames after finalize")
	}
}

func (h *hostState) transitionToFinalized(component string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.state {
	case StateCreated, StateWriting:
		h.state = StateFinalized
		return nil
	case StateCancelled:
		return coreerr.New(coreerr.Cancelled, component, "encoder was cancelled")
	default:
		return coreerr.New(coreerr.InvalidState, component, "already finalized")
	}
}

func (h *hostState) cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = StateCancelled
}

func (h *hostState) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// GIFHost adapts gifenc.Encoder to the pipeline.FrameEncoder lifecycle.
type GIFHost struct {
	hostState
	enc *gifenc.Encoder
	cfg *charset.Config
}

// NewGIFHost creates a GIFHost of the given pixel dimensions, applying
// cfg's raster settings to frames as they arrive. repeatCount follows
// gifenc.Encoder.SetRepeat's convention.
func NewGIFHost(width, height int, cfg *charset.Config, repeatCount int) *GIFHost {
	enc := gifenc.New(width, height)
	enc.SetRepeat(repeatCount)
	return &GIFHost{hostState: newHostState(), enc: enc, cfg: cfg}
}

// SetGlobalPalette forwards to the underlying gifenc.Encoder, for callers
// who pre-built a shared palette via gifenc.BuildGlobalPalette.
func (h *GIFHost) SetGlobalPalette(palette []byte) { h.enc.SetGlobalPalette(palette) }

// SetDither forwards to the underlying gifenc.Encoder.
func (h *GIFHost) SetDither(kernel string) { h.enc.SetDither(kernel) }

// SetQuality forwards to the underlying gifenc.Encoder.
func (h *GIFHost) SetQuality(quality int) { h.enc.SetQuality(quality) }

func (h *GIFHost) AddFrame(ctx context.Context, grid *glyphgrid.Grid, delayMs int) error {
	if err := h.transitionToWriting("encoder.gif"); err != nil {
		return err
	}
	img, err := grid.ToRaster(h.cfg)
	if err != nil {
		return coreerr.Wrap(coreerr.Encode, "encoder.gif", "rasterizing grid", err)
	}
	h.enc.SetDelay(delayMs)
	if err := h.enc.AddFrame(img); err != nil {
		return coreerr.Wrap(coreerr.Encode, "encoder.gif", "adding GIF frame", err)
	}
	return nil
}

func (h *GIFHost) Finalize(ctx context.Context) ([]byte, error) {
	if err := h.transitionToFinalized("encoder.gif"); err != nil {
		return nil, err
	}
	h.enc.Finish()
	out := h.enc.Bytes()
	if err := ValidateGIF(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *GIFHost) Cancel() { h.cancel() }

// ValidateGIF checks that data begins with a recognized GIF version tag.
func ValidateGIF(data []byte) error {
	if len(data) < 6 || (!bytes.HasPrefix(data, []byte("GIF87a")) && !bytes.HasPrefix(data, []byte("GIF89a"))) {
		return coreerr.New(coreerr.Encode, "encoder.gif", "output does not start with a GIF signature")
	}
	return nil
}
