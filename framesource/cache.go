// FrameCache holds zstd-compressed decoded frames for one FrameSource,
// invalidated wholesale whenever the underlying source changes or a job is
// cancelled (spec §4.5 FrameSource caching notes).
//
// Compression follows svanichkin-babe/codec.go's mustNewZstdEncoder /
// mustNewZstdDecoder pairing: a pooled *zstd.Encoder/*zstd.Decoder with
// SpeedBetterCompression and low-memory mode, since frame buffers are
// produced and consumed in short bursts rather than streamed continuously.
//
// Near-duplicate detection reuses the difference-hash-plus-Hamming-distance
// idiom from the teacher's glyph.DHash/SHash (glyph/glyph.go): a coarse 8x8
// grayscale gradient hash compared via steakknife/hamming.Uint8s against the
// previous frame's hash. This only informs a Debug log line -- it never
// skips or alters an output frame -- because hash collisions on visually
// distinct frames would silently corrupt output, and spec §4.5 makes no
// promise of deduplicated output.
package framesource

import (
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
	"github.com/steakknife/hamming"

	"github.com/submersibletoaster/charanim/coreerr"
)

type cacheEntry struct {
	compressed  []byte
	width       int
	height      int
	timestampUs int64
	delayMs     int
}

// FrameCache buffers zstd-compressed frames so a pipeline stage can re-read
// a source's decoded frames without re-invoking the decoder, at the cost of
// memory rather than CPU.
type FrameCache struct {
	mu       sync.Mutex
	enc      *zstd.Encoder
	dec      *zstd.Decoder
	entries  []cacheEntry
	lastHash []byte
}

// NewFrameCache builds an empty cache with its own pooled zstd codec pair.
func NewFrameCache() (*FrameCache, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		return nil, coreerr.Wrap(coreerr.InvalidState, "framesource", "constructing zstd encoder", err)
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		return nil, coreerr.Wrap(coreerr.InvalidState, "framesource", "constructing zstd decoder", err)
	}
	return &FrameCache{enc: enc, dec: dec}, nil
}

// Put appends f to the cache, compressing its pixel buffer and logging a
// Debug line if f looks like a near-duplicate of the previously cached
// frame.
func (c *FrameCache) Put(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash := differenceHash(f.Pixels, f.Width, f.Height)
	if c.lastHash != nil {
		dist := hamming.Uint8s(c.lastHash, hash)
		if dist <= nearDuplicateThreshold {
			log.WithFields(logrus.Fields{
				"frame_index":      len(c.entries),
				"hamming_distance": dist,
			}).Debug("near-duplicate frame detected")
		}
	}
	c.lastHash = hash

	compressed := c.enc.EncodeAll(f.Pixels, nil)
	c.entries = append(c.entries, cacheEntry{
		compressed: compressed, width: f.Width, height: f.Height,
		timestampUs: f.TimestampUs, delayMs: f.DelayMs,
	})
	return nil
}

// Len returns the number of cached frames.
func (c *FrameCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Get decompresses and returns the frame at index i.
func (c *FrameCache) Get(i int) (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i < 0 || i >= len(c.entries) {
		return Frame{}, coreerr.New(coreerr.InvalidState, "framesource", "frame cache index out of range")
	}
	e := c.entries[i]
	pixels, err := c.dec.DecodeAll(e.compressed, nil)
	if err != nil {
		return Frame{}, coreerr.Wrap(coreerr.Decode, "framesource", "decompressing cached frame", err)
	}
	return Frame{
		Pixels: pixels, Width: e.width, Height: e.height,
		TimestampUs: e.timestampUs, DelayMs: e.delayMs,
	}, nil
}

// Reset discards every cached frame, for wholesale invalidation on source
// change or job cancellation.
func (c *FrameCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.lastHash = nil
}

// Close releases the cache's zstd codec resources.
func (c *FrameCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enc.Close()
	c.dec.Close()
}

const (
	hashGrid               = 8
	nearDuplicateThreshold = 4 // out of hashGrid*hashGrid bits
)

// differenceHash downsamples pixels to an 8x8 grayscale grid and sets one
// bit per cell for "brighter than the row average", the same gradient-hash
// shape as the teacher's MakeDHash, adapted from a palette index difference
// to a coarse luminance grid since this package has no image.Paletted.
func differenceHash(pixels []byte, width, height int) []byte {
	out := make([]byte, (hashGrid*hashGrid+7)/8)
	if width <= 0 || height <= 0 || len(pixels) < width*height*4 {
		return out
	}

	var cell [hashGrid][hashGrid]float64
	for gy := 0; gy < hashGrid; gy++ {
		for gx := 0; gx < hashGrid; gx++ {
			x := gx * width / hashGrid
			y := gy * height / hashGrid
			off := (y*width + x) * 4
			r, g, b := float64(pixels[off]), float64(pixels[off+1]), float64(pixels[off+2])
			cell[gy][gx] = 0.299*r + 0.587*g + 0.114*b
		}
	}

	bit := 0
	for gy := 0; gy < hashGrid; gy++ {
		var rowAvg float64
		for gx := 0; gx < hashGrid; gx++ {
			rowAvg += cell[gy][gx]
		}
		rowAvg /= hashGrid
		for gx := 0; gx < hashGrid; gx++ {
			if cell[gy][gx] > rowAvg {
				out[bit/8] |= 1 << uint(bit%8)
			}
			bit++
		}
	}
	return out
}
