package gifenc

import (
	"image"
	"image/color"
	"testing"
)

func TestBuildGlobalPaletteReturnsAtMostRequestedColorCount(t *testing.T) {
	frames := []image.Image{
		solidImage(4, 4, color.RGBA{R: 255, G: 0, B: 0, A: 255}),
		solidImage(4, 4, color.RGBA{R: 0, G: 255, B: 0, A: 255}),
		solidImage(4, 4, color.RGBA{R: 0, G: 0, B: 255, A: 255}),
	}

	pal, err := BuildGlobalPalette(frames, 16)
	if err != nil {
		t.Fatalf("BuildGlobalPalette returned error: %v", err)
	}
	if len(pal)%3 != 0 {
		t.Fatalf("palette length %d is not a multiple of 3", len(pal))
	}
	if len(pal)/3 > 16 {
		t.Errorf("palette has %d entries, want at most 16", len(pal)/3)
	}
}

func TestBuildGlobalPaletteRejectsEmptyFrameList(t *testing.T) {
	if _, err := BuildGlobalPalette(nil, 16); err == nil {
		t.Error("expected an error building a palette from zero frames")
	}
}

func TestBuildGlobalPaletteClampsColorCount(t *testing.T) {
	frames := []image.Image{solidImage(2, 2, color.RGBA{R: 1, G: 2, B: 3, A: 255})}
	if _, err := BuildGlobalPalette(frames, 0); err != nil {
		t.Errorf("expected colorCount below 2 to be clamped rather than rejected, got error: %v", err)
	}
	if _, err := BuildGlobalPalette(frames, 9999); err != nil {
		t.Errorf("expected colorCount above 256 to be clamped rather than rejected, got error: %v", err)
	}
}

func TestMontageOfTilesFramesHorizontally(t *testing.T) {
	frames := []image.Image{
		solidImage(2, 2, color.RGBA{R: 1, G: 1, B: 1, A: 255}),
		solidImage(2, 2, color.RGBA{R: 2, G: 2, B: 2, A: 255}),
	}
	m := montageOf(frames)
	b := m.Bounds()
	if b.Dx() != 4 || b.Dy() != 2 {
		t.Errorf("montage bounds = %dx%d, want 4x2", b.Dx(), b.Dy())
	}
}
