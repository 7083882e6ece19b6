// Video FrameSource, decoupled from any concrete video decoder behind the
// VideoDecodeFunc seam.
//
// The select-on-ctx.Done()-plus-producer-goroutine shape follows
// svanichkin-say/device.StartCameraStream; the default decoder shells out
// to ffmpeg the way cathugger-nksrv's thumbnailer/extthm/ffmpeg.go drives
// ffprobe/ffmpeg via exec.Cmd, since Go has no first-class video codec in
// the standard library or this dependency set.
package framesource

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/submersibletoaster/charanim/coreerr"
)

// VideoDecodeFunc opens a video at path and returns its Description plus a
// RawFrameReader that yields raw RGBA frames at their native timestamps.
// Implementations may shell out to an external decoder; charanim supplies
// one (NewFFmpegDecodeFunc) but callers can inject any other.
type VideoDecodeFunc func(ctx context.Context, path string) (Description, RawFrameReader, error)

// RawFrameReader yields successive native-resolution RGBA frames with their
// native timestamps until io.EOF.
type RawFrameReader interface {
	ReadFrame() (pixels []byte, timestampUs int64, err error)
	Close() error
}

type videoSource struct {
	path   string
	decode VideoDecodeFunc
}

// NewVideoSource opens a video file at path for later Describe/Iter calls,
// using decode to do the actual demuxing/decoding.
func NewVideoSource(path string, decode VideoDecodeFunc) Source {
	return &videoSource{path: path, decode: decode}
}

func (s *videoSource) Describe(ctx context.Context) (Description, error) {
	var d Description
	err := withTimeoutErr(ctx, ProbeTimeout, "framesource", "probe video", func(ctx context.Context) error {
		desc, reader, err := s.decode(ctx, s.path)
		if err != nil {
			return err
		}
		d = desc
		return reader.Close()
	})
	return d, err
}

func (s *videoSource) Iter(ctx context.Context, targetFPS float64) (<-chan Frame, <-chan error) {
	frames := make(chan Frame, 8)
	errc := make(chan error, 1)

	go func() {
		defer close(frames)
		defer close(errc)

		desc, reader, err := s.decode(ctx, s.path)
		if err != nil {
			errc <- err
			return
		}
		defer reader.Close()

		outFPS := targetFPS
		if outFPS <= 0 {
			outFPS = resolveAutoFPS(desc, reader)
		}
		frameIntervalUs := int64(1_000_000.0 / outFPS)

		var nextOutUs int64
		var emitted int64

		for {
			select {
			case <-ctx.Done():
				errc <- coreerr.New(coreerr.Cancelled, "framesource", "cancelled mid-stream")
				return
			default:
			}

			pixels, ts, err := reader.ReadFrame()
			if err == io.EOF {
				return
			}
			if err != nil {
				errc <- coreerr.Wrap(coreerr.Decode, "framesource", "reading video frame", err)
				return
			}

			for ts >= nextOutUs {
				outTs := emitted * frameIntervalUs
				frames <- Frame{
					Pixels: pixels, Width: desc.Width, Height: desc.Height,
					TimestampUs: outTs, DelayMs: int(frameIntervalUs / 1000),
				}
				emitted++
				nextOutUs = emitted * frameIntervalUs
			}
		}
	}()

	return frames, errc
}

// resolveAutoFPS implements spec §9 Open Question 1: frame_rate=auto uses
// the source's declared nominal rate if known, otherwise falls back to a
// conservative default since measuring from the first two timestamps would
// require buffering frames this abstraction does not keep around.
func resolveAutoFPS(d Description, _ RawFrameReader) float64 {
	if d.HasNominalFPS && d.NominalFPS > 0 {
		return d.NominalFPS
	}
	return 24.0
}

type ffmpegFrameReader struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	r      *bufio.Reader
	width  int
	height int
	frameN int64
	fps    float64
}

// NewFFmpegDecodeFunc returns a VideoDecodeFunc that drives ffprobe to
// determine dimensions/frame rate and ffmpeg to stream raw RGBA frames on
// stdout (rawvideo, pix_fmt rgba), one command invocation per ReadFrame
// loop, mirroring the ffprobe-then-ffmpeg sequencing in
// extthm/ffmpeg.go's doThumbnailing.
func NewFFmpegDecodeFunc(ffprobePath, ffmpegPath string) VideoDecodeFunc {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return func(ctx context.Context, path string) (Description, RawFrameReader, error) {
		w, h, fps, err := probeVideo(ctx, ffprobePath, path)
		if err != nil {
			return Description{}, nil, err
		}

		cmd := exec.CommandContext(ctx, ffmpegPath,
			"-i", path,
			"-f", "rawvideo",
			"-pix_fmt", "rgba",
			"-vcodec", "rawvideo",
			"-",
		)
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return Description{}, nil, coreerr.Wrap(coreerr.SourceOpen, "framesource", "opening ffmpeg stdout pipe", err)
		}
		if err := cmd.Start(); err != nil {
			return Description{}, nil, coreerr.Wrap(coreerr.SourceOpen, "framesource", "starting ffmpeg", err)
		}

		desc := Description{
			Width: w, Height: h,
			NominalFPS: fps, HasNominalFPS: fps > 0,
		}
		reader := &ffmpegFrameReader{
			cmd: cmd, stdout: stdout, r: bufio.NewReaderSize(stdout, 1<<20),
			width: w, height: h, fps: fps,
		}
		return desc, reader, nil
	}
}

func (f *ffmpegFrameReader) ReadFrame() ([]byte, int64, error) {
	size := f.width * f.height * 4
	buf := make([]byte, size)
	if _, err := io.ReadFull(f.r, buf); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, 0, io.EOF
		}
		return nil, 0, err
	}

	var tsUs int64
	if f.fps > 0 {
		tsUs = int64(float64(f.frameN) * 1_000_000.0 / f.fps)
	}
	f.frameN++
	return buf, tsUs, nil
}

func (f *ffmpegFrameReader) Close() error {
	f.stdout.Close()
	return f.cmd.Wait()
}

// probeVideo shells out to ffprobe for width, height, and average frame
// rate, reading its CSV output, in the same invocation style as
// extthm/ffmpeg.go's ffmpegSoxBackend, trimmed to the fields charanim
// needs.
func probeVideo(ctx context.Context, ffprobePath, path string) (width, height int, fps float64, err error) {
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,avg_frame_rate",
		"-of", "csv=p=0",
		path,
	)
	out, runErr := cmd.Output()
	if runErr != nil {
		return 0, 0, 0, coreerr.Wrap(coreerr.SourceOpen, "framesource", "running ffprobe", runErr)
	}

	var w, h int
	var rateStr string
	n, scanErr := fmt.Sscanf(string(out), "%d,%d,%s", &w, &h, &rateStr)
	if scanErr != nil || n < 2 {
		return 0, 0, 0, coreerr.New(coreerr.SourceOpen, "framesource", "unrecognized ffprobe output")
	}

	return w, h, parseRate(rateStr), nil
}

func parseRate(s string) float64 {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			num, err1 := strconv.ParseFloat(s[:i], 64)
			den, err2 := strconv.ParseFloat(s[i+1:], 64)
			if err1 == nil && err2 == nil && den != 0 {
				return num / den
			}
			return 0
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
