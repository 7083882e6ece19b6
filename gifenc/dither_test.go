package gifenc

import (
	"image/color"
	"testing"
)

func TestAddFrameWithDitherKernelProducesValidSignature(t *testing.T) {
	kernels := []string{"FloydSteinberg", "Burkes", "Stucki", "Atkinson", "Sierra-3", "Sierra-2", "Sierra-Lite"}
	for _, k := range kernels {
		e := New(6, 6)
		e.SetDither(k)
		if err := e.AddFrame(solidImage(6, 6, color.RGBA{R: 80, G: 120, B: 160, A: 255})); err != nil {
			t.Errorf("kernel %s: AddFrame returned error: %v", k, err)
			continue
		}
		e.Finish()
		if err := ValidateGIFBytes(e.Bytes()); err != nil {
			t.Errorf("kernel %s: %v", k, err)
		}
	}
}

func TestAddFrameWithUnknownDitherFallsBackToNearest(t *testing.T) {
	e := New(4, 4)
	e.SetDither("not-a-real-kernel")
	if err := e.AddFrame(solidImage(4, 4, color.RGBA{R: 10, G: 10, B: 10, A: 255})); err != nil {
		t.Fatalf("AddFrame returned error: %v", err)
	}
	e.Finish()
	if err := ValidateGIFBytes(e.Bytes()); err != nil {
		t.Error(err)
	}
}

func TestBuildColorPaletteOrderMatchesColorTab(t *testing.T) {
	tab := []byte{10, 20, 30, 40, 50, 60}
	pal := buildColorPalette(tab)
	if len(pal) != 2 {
		t.Fatalf("len(pal) = %d, want 2", len(pal))
	}
	r, g, b, _ := pal[0].RGBA()
	if byte(r>>8) != 10 || byte(g>>8) != 20 || byte(b>>8) != 30 {
		t.Errorf("pal[0] = %v, want (10,20,30)", pal[0])
	}
}

// ValidateGIFBytes duplicates the minimal signature check encoder.ValidateGIF
// performs, kept local so this package's tests do not import encoder (which
// itself imports gifenc).
func ValidateGIFBytes(data []byte) error {
	if len(data) < 6 {
		return errShortGIF
	}
	sig := string(data[:6])
	if sig != "GIF87a" && sig != "GIF89a" {
		return errBadGIFSignature
	}
	return nil
}

var (
	errShortGIF        = simpleErr("gif output too short to contain a signature")
	errBadGIFSignature = simpleErr("gif output missing a GIF87a/GIF89a signature")
)

type simpleErr string

func (e simpleErr) Error() string { return string(e) }
