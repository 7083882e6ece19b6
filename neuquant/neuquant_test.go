package neuquant

import "testing"

// twoColorSample builds an RGB triplet stream split between two solid
// colors, large enough to clear minPictureBytes so learn() takes its
// full-stride sampling path.
func twoColorSample(n int, c1, c2 [3]byte) []byte {
	out := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		c := c1
		if i%2 == 1 {
			c = c2
		}
		out = append(out, c[0], c[1], c[2])
	}
	return out
}

func TestColormapHas256Entries(t *testing.T) {
	pixels := twoColorSample(4000, [3]byte{220, 20, 20}, [3]byte{20, 20, 220})
	n := New(pixels, 10)
	n.BuildColormap()

	cm := n.Colormap()
	if len(cm) != 256*3 {
		t.Fatalf("Colormap() length = %d, want %d", len(cm), 256*3)
	}
}

func TestLookupIndexMatchesColormapEntry(t *testing.T) {
	pixels := twoColorSample(4000, [3]byte{220, 20, 20}, [3]byte{20, 20, 220})
	n := New(pixels, 10)
	n.BuildColormap()
	cm := n.Colormap()

	tests := []struct {
		name     string
		r, g, b  byte
		wantNear [3]int // approximate RGB the palette entry should be near
	}{
		{name: "near red sample", r: 220, g: 20, b: 20, wantNear: [3]int{220, 20, 20}},
		{name: "near blue sample", r: 20, g: 20, b: 220, wantNear: [3]int{20, 20, 220}},
	}

	for i := range tests {
		tc := tests[i]
		idx := n.Lookup(tc.r, tc.g, tc.b)
		if idx < 0 || idx >= 256 {
			t.Errorf("%s: Lookup returned out-of-range index %d", tc.name, idx)
			continue
		}
		gotR, gotG, gotB := int(cm[idx*3]), int(cm[idx*3+1]), int(cm[idx*3+2])
		dist := absInt(gotR-tc.wantNear[0]) + absInt(gotG-tc.wantNear[1]) + absInt(gotB-tc.wantNear[2])
		if dist > 120 {
			t.Errorf("%s: nearest palette entry (%d,%d,%d) too far from trained color %v (dist=%d)",
				tc.name, gotR, gotG, gotB, tc.wantNear, dist)
		}
	}
}

func TestNewClampsSampleFactor(t *testing.T) {
	pixels := twoColorSample(100, [3]byte{1, 1, 1}, [3]byte{2, 2, 2})

	tests := []struct {
		name  string
		input int
		want  int
	}{
		{name: "below minimum", input: 0, want: 1},
		{name: "above maximum", input: 99, want: 30},
		{name: "in range", input: 5, want: 5},
	}

	for i := range tests {
		tc := tests[i]
		n := New(pixels, tc.input)
		if n.sampleFactor != tc.want {
			t.Errorf("%s: sampleFactor = %d, want %d", tc.name, n.sampleFactor, tc.want)
		}
	}
}
