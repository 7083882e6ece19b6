package encoder

import (
	"context"
	"testing"
)

type fakeExternalEncoder struct {
	started   bool
	width     int
	height    int
	fps       float64
	gop       int
	frames    [][]byte
	finished  bool
	aborted   bool
	finishErr error
}

func (f *fakeExternalEncoder) Start(width, height int, fps float64, keyframeInterval int) error {
	f.started = true
	f.width, f.height, f.fps, f.gop = width, height, fps, keyframeInterval
	return nil
}

func (f *fakeExternalEncoder) WriteFrame(pixels []byte) error {
	f.frames = append(f.frames, pixels)
	return nil
}

func (f *fakeExternalEncoder) Finish() ([]byte, error) {
	f.finished = true
	if f.finishErr != nil {
		return nil, f.finishErr
	}
	return []byte("ftypmoovdata"), nil
}

func (f *fakeExternalEncoder) Abort() { f.aborted = true }

func TestMP4HostAddFrameStartsExternalEncoderOnce(t *testing.T) {
	ctx := context.Background()
	fake := &fakeExternalEncoder{}
	host := NewMP4Host(testConfig(t), 25, fake)

	if err := host.AddFrame(ctx, testGrid(), 40); err != nil {
		t.Fatalf("AddFrame returned error: %v", err)
	}
	if err := host.AddFrame(ctx, testGrid(), 40); err != nil {
		t.Fatalf("AddFrame returned error: %v", err)
	}

	if !fake.started {
		t.Fatal("expected the external encoder to have been started")
	}
	if len(fake.frames) != 2 {
		t.Errorf("wrote %d frames, want 2", len(fake.frames))
	}
	if fake.fps != 25 {
		t.Errorf("fps = %v, want 25", fake.fps)
	}
	if fake.gop != keyframeInterval(25) {
		t.Errorf("gop = %d, want %d", fake.gop, keyframeInterval(25))
	}
}

func TestMP4HostFinalizeValidatesOutput(t *testing.T) {
	ctx := context.Background()
	fake := &fakeExternalEncoder{}
	host := NewMP4Host(testConfig(t), 25, fake)

	if err := host.AddFrame(ctx, testGrid(), 40); err != nil {
		t.Fatalf("AddFrame returned error: %v", err)
	}
	out, err := host.Finalize(ctx)
	if err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}
	if !fake.finished {
		t.Error("expected the external encoder's Finish to have been called")
	}
	if len(out) == 0 {
		t.Error("expected non-empty output")
	}
}

func TestMP4HostCancelAbortsStartedEncoder(t *testing.T) {
	ctx := context.Background()
	fake := &fakeExternalEncoder{}
	host := NewMP4Host(testConfig(t), 25, fake)

	if err := host.AddFrame(ctx, testGrid(), 40); err != nil {
		t.Fatalf("AddFrame returned error: %v", err)
	}
	host.Cancel()
	if !fake.aborted {
		t.Error("expected Cancel to call Abort on a started external encoder")
	}
}

func TestMP4HostCancelBeforeStartDoesNotAbort(t *testing.T) {
	fake := &fakeExternalEncoder{}
	host := NewMP4Host(testConfig(t), 25, fake)
	host.Cancel()
	if fake.aborted {
		t.Error("did not expect Abort to be called before the encoder ever started")
	}
}

func TestKeyframeIntervalIsAtLeastOne(t *testing.T) {
	if got := keyframeInterval(0); got != 1 {
		t.Errorf("keyframeInterval(0) = %d, want 1", got)
	}
	if got := keyframeInterval(30); got != 60 {
		t.Errorf("keyframeInterval(30) = %d, want 60", got)
	}
}

func TestCodecStringResolutionTiers(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		want          string
	}{
		{name: "720p", width: 1280, height: 720, want: "avc1.42001f"},
		{name: "1080p", width: 1920, height: 1080, want: "avc1.640028"},
		{name: "4k", width: 3840, height: 2160, want: "avc1.640033"},
	}
	for i := range tests {
		tc := tests[i]
		if got := CodecString(tc.width, tc.height); got != tc.want {
			t.Errorf("%s: CodecString(%d,%d) = %q, want %q", tc.name, tc.width, tc.height, got, tc.want)
		}
	}
}

func TestValidateMP4RejectsMissingMoov(t *testing.T) {
	if err := ValidateMP4([]byte("ftypdata")); err == nil {
		t.Error("expected ValidateMP4 to reject output without a moov atom")
	}
	if err := ValidateMP4(nil); err == nil {
		t.Error("expected ValidateMP4 to reject empty output")
	}
}
