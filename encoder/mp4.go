// MP4Host delegates actual H.264/MP4 muxing to an injected
// ExternalEncoder, the same exec.Cmd-based seam framesource/video.go uses
// for decoding, since no dependency in this module's stack implements an
// MP4 muxer in pure Go.
package encoder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"

	"github.com/submersibletoaster/charanim/charset"
	"github.com/submersibletoaster/charanim/coreerr"
	"github.com/submersibletoaster/charanim/glyphgrid"
)

// ExternalEncoder streams raw RGBA frames into a video encoding process
// and returns the finished container bytes on Finish.
type ExternalEncoder interface {
	Start(width, height int, fps float64, keyframeInterval int) error
	WriteFrame(pixels []byte) error
	Finish() ([]byte, error)
	Abort()
}

// MP4Host adapts an ExternalEncoder to the pipeline.FrameEncoder lifecycle,
// rasterizing each grid and computing the video timing/codec parameters
// spec §4.10 specifies.
type MP4Host struct {
	hostState
	cfg      *charset.Config
	ext      ExternalEncoder
	fps      float64
	started  bool
	width    int
	height   int
}

// NewMP4Host creates an MP4Host targeting outputFPS (used for both pacing
// and the keyframe-interval formula) using ext as the underlying encoder.
func NewMP4Host(cfg *charset.Config, outputFPS float64, ext ExternalEncoder) *MP4Host {
	return &MP4Host{hostState: newHostState(), cfg: cfg, ext: ext, fps: outputFPS}
}

func (h *MP4Host) AddFrame(ctx context.Context, grid *glyphgrid.Grid, delayMs int) error {
	if err := h.transitionToWriting("encoder.mp4"); err != nil {
		return err
	}

	img, err := grid.ToRaster(h.cfg)
	if err != nil {
		return coreerr.Wrap(coreerr.Encode, "encoder.mp4", "rasterizing grid", err)
	}
	rgba := toRGBAImage(img)

	if !h.started {
		h.width, h.height = rgba.Bounds().Dx(), rgba.Bounds().Dy()
		gop := keyframeInterval(h.fps)
		if err := h.ext.Start(h.width, h.height, h.fps, gop); err != nil {
			return coreerr.Wrap(coreerr.Encode, "encoder.mp4", "starting external encoder", err)
		}
		h.started = true
	}

	if err := h.ext.WriteFrame(rgba.Pix); err != nil {
		return coreerr.Wrap(coreerr.Encode, "encoder.mp4", "writing frame to external encoder", err)
	}
	return nil
}

func (h *MP4Host) Finalize(ctx context.Context) ([]byte, error) {
	if err := h.transitionToFinalized("encoder.mp4"); err != nil {
		return nil, err
	}
	out, err := h.ext.Finish()
	if err != nil {
		return nil, coreerr.Wrap(coreerr.Encode, "encoder.mp4", "finishing external encoder", err)
	}
	if err := ValidateMP4(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *MP4Host) Cancel() {
	h.cancel()
	if h.started {
		h.ext.Abort()
	}
}

func keyframeInterval(outputFPS float64) int {
	v := int(outputFPS*2 + 0.5)
	if v < 1 {
		return 1
	}
	return v
}

// CodecString picks the H.264 profile level by output resolution, per
// spec §4.10's resolution tiers.
func CodecString(width, height int) string {
	longEdge := width
	if height > longEdge {
		longEdge = height
	}
	switch {
	case longEdge <= 1280:
		return "avc1.42001f"
	case longEdge <= 1920:
		return "avc1.640028"
	default:
		return "avc1.640033"
	}
}

// ValidateMP4 checks that data is non-empty and contains a moov atom,
// the minimal signal that ffmpeg produced a well-formed container rather
// than an empty or truncated stream.
func ValidateMP4(data []byte) error {
	if len(data) == 0 {
		return coreerr.New(coreerr.Encode, "encoder.mp4", "output is empty")
	}
	if !bytes.Contains(data, []byte("moov")) {
		return coreerr.New(coreerr.Encode, "encoder.mp4", "output has no moov atom")
	}
	return nil
}

func toRGBAImage(img image.Image) *image.RGBA {
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

// ffmpegEncoder is the default ExternalEncoder, shelling out to ffmpeg the
// way framesource.NewFFmpegDecodeFunc shells out to ffprobe/ffmpeg for the
// decode direction.
type ffmpegEncoder struct {
	path   string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	outTmp *os.File
}

// NewFFmpegEncoder returns an ExternalEncoder that pipes raw RGBA frames
// into ffmpeg and reads back the muxed MP4 from a temp file (ffmpeg needs
// a seekable output for the moov atom, so stdout piping is not viable).
func NewFFmpegEncoder(ffmpegPath string) ExternalEncoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &ffmpegEncoder{path: ffmpegPath}
}

func (e *ffmpegEncoder) Start(width, height int, fps float64, keyframeInterval int) error {
	tmp, err := os.CreateTemp("", "charanim-*.mp4")
	if err != nil {
		return err
	}
	tmp.Close()
	e.outTmp = tmp

	e.cmd = exec.Command(e.path,
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", fmt.Sprintf("%f", fps),
		"-i", "-",
		"-an",
		"-c:v", "libx264",
		"-g", fmt.Sprintf("%d", keyframeInterval),
		"-pix_fmt", "yuv420p",
		tmp.Name(),
	)
	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return err
	}
	e.stdin = stdin
	return e.cmd.Start()
}

func (e *ffmpegEncoder) WriteFrame(pixels []byte) error {
	_, err := e.stdin.Write(pixels)
	return err
}

func (e *ffmpegEncoder) Finish() ([]byte, error) {
	e.stdin.Close()
	if err := e.cmd.Wait(); err != nil {
		return nil, err
	}
	defer os.Remove(e.outTmp.Name())
	return os.ReadFile(e.outTmp.Name())
}

func (e *ffmpegEncoder) Abort() {
	if e.stdin != nil {
		e.stdin.Close()
	}
	if e.cmd != nil && e.cmd.Process != nil {
		e.cmd.Process.Kill()
	}
	if e.outTmp != nil {
		os.Remove(e.outTmp.Name())
	}
}
