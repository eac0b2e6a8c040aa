package pngn

import "fmt"

// Bitstream handling

// bitReader reads bits from an in-memory byte slice, least significant bit first.
// This is the bit order DEFLATE uses for Huffman codes and extra-bit fields alike.
type bitReader struct {
	data []byte // Input buffer containing the compressed stream.
	pos  int    // Cursor in bits from the start of data.
}

// errDecode is used for internal panics during the hot decoding path.
type errDecode struct{ error }

// panic triggers an internal panic to signal a decoding error in the hot path.
// It is recovered at the inflate boundary and returned as a normal error.
func (br *bitReader) panic(err error) {
	panic(errDecode{err})
}

// remaining returns the number of unread bits.
func (br *bitReader) remaining() int {
	return len(br.data)*8 - br.pos
}

// exhausted reports whether every bit of the input has been consumed.
func (br *bitReader) exhausted() bool {
	return br.pos >= len(br.data)*8
}

// readBit reads and consumes a single bit.
func (br *bitReader) readBit() uint32 {
	if br.pos >= len(br.data)*8 {
		br.panic(fmt.Errorf("read past bit %d: %w", br.pos, ErrUnexpectedEndOfStream))
	}

	bit := uint32(br.data[br.pos>>3]>>(br.pos&7)) & 1
	br.pos++

	return bit
}

// readBits reads and consumes n bits (n <= 32). The first bit read ends up in the least significant position.
func (br *bitReader) readBits(n int) uint32 {
	if n > br.remaining() {
		br.panic(fmt.Errorf("need %d bits at bit %d, have %d: %w", n, br.pos, br.remaining(), ErrUnexpectedEndOfStream))
	}

	var v uint32
	for i := 0; i < n; i++ {
		v |= br.readBit() << i
	}

	return v
}

// alignToByte skips to the next byte boundary.
func (br *bitReader) alignToByte() {
	br.pos = (br.pos + 7) &^ 7
}

// bytePos returns the index of the byte containing the cursor.
// After alignToByte it is the index of the next unread byte.
func (br *bitReader) bytePos() int {
	return br.pos >> 3
}

// seekByte moves the cursor to the start of byte p.
func (br *bitReader) seekByte(p int) {
	br.pos = p << 3
}

// msbReader reads bits most significant bit first.
// PNG packs samples narrower than a byte this way, leftmost pixel in the high bits.
type msbReader struct {
	data []byte
	pos  int // Cursor in bits.
}

// readBits reads and consumes n bits (n <= 8).
func (r *msbReader) readBits(n int) byte {
	if r.pos+n > len(r.data)*8 {
		panic(errDecode{fmt.Errorf("packed sample at bit %d: %w", r.pos, ErrUnexpectedEndOfStream)})
	}

	var v byte
	for i := 0; i < n; i++ {
		v = v<<1 | (r.data[r.pos>>3]>>(7-r.pos&7))&1
		r.pos++
	}

	return v
}
