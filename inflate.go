package pngn

import (
	"encoding/binary"
	"fmt"
)

const (
	numLitLenCodes = 288 // Literal/length alphabet, including the two unused codes 286 and 287.
	numDistCodes   = 32  // Distance alphabet, including the two unused codes 30 and 31.
	maxHLIT        = 286
	maxHDIST       = 30
	endOfBlock     = 256
)

// DEFLATE block types.
const (
	btStored  = 0
	btFixed   = 1
	btDynamic = 2
)

// Base lengths and extra bits for length codes 257-285 (RFC 1951 section 3.2.5).
var lengthBase = [29]uint16{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
	35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258,
}

var lengthExtra = [29]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
	3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
}

// Base distances and extra bits for distance codes 0-29.
var distBase = [30]uint16{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
	257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
}

var distExtra = [30]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
	7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// codeLengthOrder is the order in which code-length code lengths are stored in a dynamic block header.
var codeLengthOrder = [19]uint8{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// inflater holds the state of one DEFLATE decompression.
type inflater struct {
	br      bitReader                            // Input bitstream.
	out     []byte                               // Decompressed output produced so far.
	limit   int                                  // Maximum number of output bytes.
	lit     huffmanTree                          // Literal/length tree of the current block.
	dist    huffmanTree                          // Distance tree of the current block.
	codeLen huffmanTree                          // Code-length tree of the current dynamic block.
	lengths [numLitLenCodes + numDistCodes]uint8 // Scratch code lengths.
}

// inflate decompresses a raw DEFLATE stream held entirely in data.
// It produces at most limit bytes and returns the output together with the
// number of input bytes consumed, rounded up to a whole byte.
func inflate(data []byte, limit int) ([]byte, int, error) {
	f := &inflater{
		br:    bitReader{data: data},
		limit: limit,
	}

	if err := f.run(); err != nil {
		return nil, 0, err
	}

	f.br.alignToByte()

	return f.out, f.br.bytePos(), nil
}

// run decodes blocks until the final one. Handles panics from the hot path.
func (f *inflater) run() (err error) {
	// Recovery for panics raised by bit reads and Huffman decoding.
	defer func() {
		if r := recover(); r != nil {
			if de, ok := r.(errDecode); ok {
				err = de.error
			} else {
				// Propagate other panics (e.g., runtime errors like index out of bounds)
				panic(r)
			}
		}
	}()

	for final := false; !final; {
		final = f.br.readBit() == 1

		switch typ := f.br.readBits(2); typ {
		case btStored:
			err = f.storedBlock()
		case btFixed:
			err = f.fixedBlock()
		case btDynamic:
			err = f.dynamicBlock()
		default:
			err = fmt.Errorf("block type %d: %w", typ, ErrInvalidBlockType)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// errTooMuchData reports output beyond the limit given to inflate.
func (f *inflater) errTooMuchData() error {
	return fmt.Errorf("more than %d bytes of decompressed data: %w", f.limit, ErrCorruptStream)
}

// storedBlock copies an uncompressed block verbatim.
func (f *inflater) storedBlock() error {
	f.br.alignToByte()

	data := f.br.data
	p := f.br.bytePos()
	if p+4 > len(data) {
		return fmt.Errorf("stored block header at byte %d: %w", p, ErrUnexpectedEndOfStream)
	}

	n := int(binary.LittleEndian.Uint16(data[p:]))
	nn := int(binary.LittleEndian.Uint16(data[p+2:]))
	if n+nn != 0xFFFF {
		return fmt.Errorf("LEN %#04x, NLEN %#04x: %w", n, nn, ErrInvalidStoredBlockLength)
	}

	p += 4
	if p+n > len(data) {
		return fmt.Errorf("stored block of %d bytes at byte %d: %w", n, p, ErrUnexpectedEndOfStream)
	}

	if len(f.out)+n > f.limit {
		return f.errTooMuchData()
	}

	f.out = append(f.out, data[p:p+n]...)
	f.br.seekByte(p + n)

	return nil
}

// fixedBlock decodes a block compressed with the fixed Huffman codes.
func (f *inflater) fixedBlock() error {
	lengths := f.lengths[:numLitLenCodes+numDistCodes]

	for i := 0; i < numLitLenCodes; i++ {
		switch {
		case i < 144:
			lengths[i] = 8
		case i < 256:
			lengths[i] = 9
		case i < 280:
			lengths[i] = 7
		default:
			lengths[i] = 8
		}
	}

	for i := numLitLenCodes; i < len(lengths); i++ {
		lengths[i] = 5
	}

	if err := f.lit.build(lengths[:numLitLenCodes], maxCodeBits); err != nil {
		return err
	}

	if err := f.dist.build(lengths[numLitLenCodes:], maxCodeBits); err != nil {
		return err
	}

	return f.huffmanBlock()
}

// dynamicBlock reads the Huffman code definitions of a dynamic block and then decodes it.
func (f *inflater) dynamicBlock() error {
	hlit := int(f.br.readBits(5)) + 257
	hdist := int(f.br.readBits(5)) + 1
	hclen := int(f.br.readBits(4)) + 4

	if hlit > maxHLIT || hdist > maxHDIST {
		return fmt.Errorf("HLIT %d, HDIST %d: %w", hlit, hdist, ErrInvalidCodeLengths)
	}

	var codeLengths [19]uint8
	for i := 0; i < hclen; i++ {
		codeLengths[codeLengthOrder[i]] = uint8(f.br.readBits(3))
	}

	if err := f.codeLen.build(codeLengths[:], maxCodeLengthBits); err != nil {
		return err
	}

	total := hlit + hdist
	lengths := f.lengths[:total]

	for i := 0; i < total; {
		sym := f.codeLen.decode(&f.br)
		if sym < 16 {
			lengths[i] = uint8(sym)
			i++

			continue
		}

		var rep int
		var val uint8

		switch sym {
		case 16:
			if i == 0 {
				return fmt.Errorf("repeat code with no previous length: %w", ErrInvalidCodeLengths)
			}

			val = lengths[i-1]
			rep = 3 + int(f.br.readBits(2))
		case 17:
			rep = 3 + int(f.br.readBits(3))
		default:
			rep = 11 + int(f.br.readBits(7))
		}

		if i+rep > total {
			return fmt.Errorf("repeat of %d at length %d overruns %d lengths: %w", rep, i, total, ErrInvalidCodeLengths)
		}

		for ; rep > 0; rep-- {
			lengths[i] = val
			i++
		}
	}

	if lengths[endOfBlock] == 0 {
		return ErrMissingEndOfBlockCode
	}

	if err := f.lit.build(lengths[:hlit], maxCodeBits); err != nil {
		return err
	}

	if err := f.dist.build(lengths[hlit:], maxCodeBits); err != nil {
		return err
	}

	return f.huffmanBlock()
}

// huffmanBlock decodes literal/length and distance symbols with the current trees until the end-of-block symbol.
func (f *inflater) huffmanBlock() error {
	for {
		sym := f.lit.decode(&f.br)

		switch {
		case sym < endOfBlock:
			if len(f.out) >= f.limit {
				return f.errTooMuchData()
			}

			f.out = append(f.out, byte(sym))
		case sym == endOfBlock:
			return nil
		case sym-257 < len(lengthBase):
			i := sym - 257
			length := int(lengthBase[i]) + int(f.br.readBits(int(lengthExtra[i])))

			dsym := f.dist.decode(&f.br)
			if dsym >= len(distBase) {
				return fmt.Errorf("distance code %d: %w", dsym, ErrInvalidDistanceCode)
			}

			dist := int(distBase[dsym]) + int(f.br.readBits(int(distExtra[dsym])))
			if dist > len(f.out) {
				return fmt.Errorf("distance %d with only %d bytes of output: %w", dist, len(f.out), ErrInvalidBackReference)
			}

			if len(f.out)+length > f.limit {
				return f.errTooMuchData()
			}

			// Copy one byte at a time: source and destination may overlap,
			// in which case the copied bytes repeat.
			for k := 0; k < length; k++ {
				f.out = append(f.out, f.out[len(f.out)-dist])
			}
		default:
			return fmt.Errorf("literal/length code %d: %w", sym, ErrCorruptStream)
		}
	}
}
