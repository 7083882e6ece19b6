// Package lzw implements the GIF-variant LZW compressor: LSB-first bit
// packing into 1..12-bit codes, a 5003-slot open-addressed hash table, and
// the CLEAR/EOF code convention GIF89a requires. This is deliberately not
// compress/lzw from the standard library, which packs MSB-first and has no
// CLEAR code -- GIF readers require this exact variant.
//
// Algorithmically grounded on the LZW encoder bundled alongside this
// corpus's GIF reference material, restructured around bytesink.Sink
// instead of a bespoke byte accumulator.
package lzw

import "github.com/submersibletoaster/charanim/bytesink"

const (
	eofPixel    = -1
	maxBits     = 12
	hashSize    = 5003
	maxHashCode = 1 << maxBits
)

var bitMasks = [...]int{
	0x0000, 0x0001, 0x0003, 0x0007, 0x000F, 0x001F,
	0x003F, 0x007F, 0x00FF, 0x01FF, 0x03FF, 0x07FF,
	0x0FFF, 0x1FFF, 0x3FFF, 0x7FFF, 0xFFFF,
}

// Encode compresses indexed (one palette index per pixel, row-major,
// width*height entries) and appends the GIF sub-block stream -- the
// initial code-size byte, one or more 255-byte-max data sub-blocks, and the
// zero-length block terminator -- to sink. colorDepth is the number of
// bits needed to represent the largest palette index in use (2..8).
func Encode(sink *bytesink.Sink, width, height int, indexed []byte, colorDepth int) {
	initCodeSize := colorDepth
	if initCodeSize < 2 {
		initCodeSize = 2
	}

	sink.WriteU8(byte(initCodeSize))
	compress(sink, initCodeSize+1, indexed)
	sink.WriteU8(0)
}

func compress(sink *bytesink.Sink, initBits int, pixels []byte) {
	remaining := len(pixels)
	curPixel := 0
	nextPixel := func() int {
		if remaining == 0 {
			return eofPixel
		}
		remaining--
		p := int(pixels[curPixel]) & 0xff
		curPixel++
		return p
	}

	hashShift := 0
	for f := hashSize; f < 65536; f *= 2 {
		hashShift++
	}
	hashShift = 8 - hashShift

	var hashTab [hashSize]int
	var codeTab [hashSize]int
	clearHash := func() {
		for i := range hashTab {
			hashTab[i] = -1
		}
	}
	clearHash()

	genInitBits := initBits
	clearCode := 1 << (initBits - 1)
	eofCode := clearCode + 1
	freeEnt := clearCode + 2
	nBits := genInitBits
	maxCode := maxCodeFor(nBits)
	clearPending := false

	var accum [256]byte
	accCount := 0
	var curAccum, curBits int

	flushChar := func() {
		if accCount > 0 {
			sink.WriteU8(byte(accCount))
			sink.WriteBytes(accum[:accCount])
			accCount = 0
		}
	}
	charOut := func(c byte) {
		accum[accCount] = c
		accCount++
		if accCount >= 254 {
			flushChar()
		}
	}

	output := func(code int) {
		curAccum &= bitMasks[curBits]
		if curBits > 0 {
			curAccum |= code << curBits
		} else {
			curAccum = code
		}
		curBits += nBits

		for curBits >= 8 {
			charOut(byte(curAccum & 0xff))
			curAccum >>= 8
			curBits -= 8
		}

		if freeEnt > maxCode || clearPending {
			if clearPending {
				nBits = genInitBits
				maxCode = maxCodeFor(nBits)
				clearPending = false
			} else {
				nBits++
				if nBits == maxBits {
					maxCode = maxHashCode
				} else {
					maxCode = maxCodeFor(nBits)
				}
			}
		}

		if code == eofCode {
			for curBits > 0 {
				charOut(byte(curAccum & 0xff))
				curAccum >>= 8
				curBits -= 8
			}
			flushChar()
		}
	}

	clearBlock := func() {
		clearHash()
		freeEnt = clearCode + 2
		clearPending = true
		output(clearCode)
	}

	ent := nextPixel()
	output(clearCode)

outer:
	for {
		c := nextPixel()
		if c == eofPixel {
			break
		}

		fcode := (c << maxBits) + ent
		i := (c << hashShift) ^ ent

		if hashTab[i] == fcode {
			ent = codeTab[i]
			continue
		} else if hashTab[i] >= 0 {
			disp := hashSize - i
			if i == 0 {
				disp = 1
			}
			for {
				i -= disp
				if i < 0 {
					i += hashSize
				}
				if hashTab[i] == fcode {
					ent = codeTab[i]
					continue outer
				}
				if hashTab[i] < 0 {
					break
				}
			}
		}

		output(ent)
		ent = c

		if freeEnt < maxHashCode {
			codeTab[i] = freeEnt
			freeEnt++
			hashTab[i] = fcode
		} else {
			clearBlock()
		}
	}

	output(ent)
	output(eofCode)
}

func maxCodeFor(nBits int) int {
	return (1 << nBits) - 1
}
