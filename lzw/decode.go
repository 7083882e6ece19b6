// Decode is the inverse of Encode, primarily exercised by this package's
// round-trip tests (spec §8 invariant: LZW-compress then LZW-decompress
// reproduces the original indexed pixel stream exactly).
package lzw

import "github.com/submersibletoaster/charanim/coreerr"

// Decode reads a GIF sub-block LZW stream (as produced by Encode, starting
// with the init-code-size byte) from data and returns outputLen decoded
// palette indices.
func Decode(data []byte, outputLen int) ([]byte, error) {
	if len(data) < 1 {
		return nil, coreerr.New(coreerr.Decode, "lzw", "empty LZW stream")
	}
	initCodeSize := int(data[0])
	if initCodeSize < 2 || initCodeSize > 8 {
		return nil, coreerr.New(coreerr.Decode, "lzw", "invalid init code size")
	}

	bits, err := readSubBlocks(data[1:])
	if err != nil {
		return nil, err
	}

	br := &bitReader{data: bits}
	minCodeSize := initCodeSize + 1
	clearCode := 1 << initCodeSize
	eofCode := clearCode + 1

	out := make([]byte, 0, outputLen)

	var dict [][]byte
	resetDict := func() {
		dict = make([][]byte, eofCode+1, maxHashCode)
		for i := 0; i < clearCode; i++ {
			dict[i] = []byte{byte(i)}
		}
	}
	resetDict()

	codeSize := minCodeSize
	var prev []byte

	for len(out) < outputLen {
		code, ok := br.read(codeSize)
		if !ok {
			break
		}

		switch {
		case code == clearCode:
			resetDict()
			codeSize = minCodeSize
			prev = nil
			continue
		case code == eofCode:
			return out, nil
		}

		var entry []byte
		switch {
		case code < len(dict) && dict[code] != nil:
			entry = dict[code]
		case code == len(dict) && prev != nil:
			entry = append(append([]byte{}, prev...), prev[0])
		default:
			return nil, coreerr.New(coreerr.Decode, "lzw", "invalid LZW code")
		}

		out = append(out, entry...)

		if prev != nil && len(dict) < maxHashCode {
			dict = append(dict, append(append([]byte{}, prev...), entry[0]))
			if len(dict) == (1<<codeSize) && codeSize < maxBits {
				codeSize++
			}
		}
		prev = entry
	}

	if len(out) > outputLen {
		out = out[:outputLen]
	}
	return out, nil
}

// readSubBlocks concatenates each length-prefixed sub-block's payload
// until the zero-length terminator, returning the raw bit stream.
func readSubBlocks(data []byte) ([]byte, error) {
	var out []byte
	i := 0
	for i < len(data) {
		n := int(data[i])
		i++
		if n == 0 {
			return out, nil
		}
		if i+n > len(data) {
			return nil, coreerr.New(coreerr.Decode, "lzw", "truncated sub-block")
		}
		out = append(out, data[i:i+n]...)
		i += n
	}
	return out, nil
}

// bitReader reads LSB-first variable-width codes, the packing order
// GIF LZW uses.
type bitReader struct {
	data    []byte
	bytePos int
	bitPos  int
}

func (r *bitReader) read(n int) (int, bool) {
	var v int
	for i := 0; i < n; i++ {
		if r.bytePos >= len(r.data) {
			return 0, false
		}
		bit := (r.data[r.bytePos] >> r.bitPos) & 1
		v |= int(bit) << i
		r.bitPos++
		if r.bitPos == 8 {
			r.bitPos = 0
			r.bytePos++
		}
	}
	return v, true
}
