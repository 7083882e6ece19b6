package encoder

import (
	"context"
	"testing"

	"github.com/submersibletoaster/charanim/charset"
	"github.com/submersibletoaster/charanim/glyphgrid"
)

func testGrid() *glyphgrid.Grid {
	g := glyphgrid.New(2, 2)
	g.Set(0, 0, glyphgrid.Cell{Glyph: '#'})
	g.Set(1, 0, glyphgrid.Cell{Glyph: '#'})
	g.Set(0, 1, glyphgrid.Cell{Glyph: '#'})
	g.Set(1, 1, glyphgrid.Cell{Glyph: '#'})
	return g
}

func testConfig(t *testing.T) *charset.Config {
	cfg, err := charset.New(2)
	if err != nil {
		t.Fatalf("charset.New returned error: %v", err)
	}
	return cfg
}

func TestGIFHostLifecycle(t *testing.T) {
	ctx := context.Background()
	host := NewGIFHost(2, 2, testConfig(t), -1)

	if host.State() != StateCreated {
		t.Fatalf("initial state = %v, want %v", host.State(), StateCreated)
	}

	if err := host.AddFrame(ctx, testGrid(), 100); err != nil {
		t.Fatalf("AddFrame returned error: %v", err)
	}
	if host.State() != StateWriting {
		t.Errorf("state after AddFrame = %v, want %v", host.State(), StateWriting)
	}

	out, err := host.Finalize(ctx)
	if err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}
	if host.State() != StateFinalized {
		t.Errorf("state after Finalize = %v, want %v", host.State(), StateFinalized)
	}
	if err := ValidateGIF(out); err != nil {
		t.Errorf("Finalize output failed validation: %v", err)
	}
}

func TestGIFHostRejectsFrameAfterFinalize(t *testing.T) {
	ctx := context.Background()
	host := NewGIFHost(2, 2, testConfig(t), -1)

	if err := host.AddFrame(ctx, testGrid(), 100); err != nil {
		t.Fatalf("AddFrame returned error: %v", err)
	}
	if _, err := host.Finalize(ctx); err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}
	if err := host.AddFrame(ctx, testGrid(), 100); err == nil {
		t.Error("expected AddFrame after Finalize to fail")
	}
}

func TestGIFHostCancelBlocksFurtherWrites(t *testing.T) {
	ctx := context.Background()
	host := NewGIFHost(2, 2, testConfig(t), -1)
	host.Cancel()

	if host.State() != StateCancelled {
		t.Fatalf("state after Cancel = %v, want %v", host.State(), StateCancelled)
	}
	if err := host.AddFrame(ctx, testGrid(), 100); err == nil {
		t.Error("expected AddFrame after Cancel to fail")
	}
	if _, err := host.Finalize(ctx); err == nil {
		t.Error("expected Finalize after Cancel to fail")
	}
}

func TestValidateGIFRejectsBadSignature(t *testing.T) {
	if err := ValidateGIF([]byte("not a gif")); err == nil {
		t.Error("expected ValidateGIF to reject a non-GIF byte stream")
	}
}

func TestValidateGIFAcceptsKnownSignatures(t *testing.T) {
	for _, sig := range []string{"GIF87a", "GIF89a"} {
		if err := ValidateGIF([]byte(sig + "\x00\x00")); err != nil {
			t.Errorf("ValidateGIF rejected a stream starting with %q: %v", sig, err)
		}
	}
}
