// Package bytesink provides an append-only byte buffer with integer-width
// writers, the output primitive the GIF assembler and LZW encoder build on.
//
// Grounded on the teacher's ByteArray-style accumulator used throughout
// ManInM00N-nicogif's GIFEncoder/LZWEncoder: no seeking, no random access,
// just Write* calls followed by a final Bytes() read.
package bytesink

// Sink is an append-only byte buffer.
type Sink struct {
	buf []byte
}

// New returns an empty Sink.
func New() *Sink {
	return &Sink{}
}

// NewWithCapacity returns an empty Sink with pre-allocated capacity.
func NewWithCapacity(n int) *Sink {
	return &Sink{buf: make([]byte, 0, n)}
}

// WriteU8 appends a single byte.
func (s *Sink) WriteU8(v byte) {
	s.buf = append(s.buf, v)
}

// WriteLEU16 appends a 16-bit value in little-endian order.
func (s *Sink) WriteLEU16(v uint16) {
	s.buf = append(s.buf, byte(v&0xff), byte((v>>8)&0xff))
}

// WriteBytes appends all of buf verbatim.
func (s *Sink) WriteBytes(buf []byte) {
	s.buf = append(s.buf, buf...)
}

// WriteASCII appends the bytes of an ASCII/UTF-8 string verbatim.
func (s *Sink) WriteASCII(str string) {
	s.buf = append(s.buf, str...)
}

// Bytes returns a contiguous read-only view of all appended bytes in order.
// Callers must not mutate the returned slice.
func (s *Sink) Bytes() []byte {
	return s.buf
}

// Len reports the number of bytes appended so far.
func (s *Sink) Len() int {
	return len(s.buf)
}

// Reset discards all appended bytes, allowing the underlying array to be
// reused by an encoder handle after cancel.
func (s *Sink) Reset() {
	s.buf = s.buf[:0]
}
