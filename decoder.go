package pngn

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image/color"
)

// decoder holds the state of the PNG decoding process.
type decoder struct {
	data      []byte // Input buffer containing the entire PNG file.
	pos       int    // Current position index in the input buffer.
	info      Info   // Image description collected from IHDR, PLTE and tRNS.
	idat      []byte // Concatenated payload of all IDAT chunks.
	seenIDAT  bool   // Whether an IDAT chunk has been read.
	samples   []byte // Reconstructed samples, see Raw.Samples.
	verify    bool   // Whether to verify CRC-32 and Adler-32 checksums.
	maxPixels int    // Largest accepted width*height.
}

// chunk is one PNG chunk as laid out in the input buffer.
type chunk struct {
	typ  string // Four-letter chunk type.
	data []byte // Chunk payload, a sub-slice of the input buffer.
}

// newDecoder creates a new decoder instance with default settings.
func newDecoder() *decoder {
	return &decoder{maxPixels: DefaultMaxPixels}
}

// isAncillary reports whether bit 5 of the first type byte is set.
// Unknown ancillary chunks may be skipped; unknown critical chunks may not.
func (c chunk) isAncillary() bool {
	return c.typ[0]&0x20 != 0
}

// nextChunk reads the chunk at d.pos and advances past its CRC.
func (d *decoder) nextChunk() (chunk, error) {
	p := d.pos
	if p+chunkHeader > len(d.data) {
		return chunk{}, fmt.Errorf("chunk header at offset %d: %w", p, ErrUnexpectedEndOfStream)
	}

	length := binary.BigEndian.Uint32(d.data[p:])
	if length > maxChunkLen {
		return chunk{}, fmt.Errorf("chunk length %d at offset %d: %w", length, p, ErrCorruptStream)
	}

	c := chunk{typ: string(d.data[p+4 : p+8])}

	end := p + chunkHeader + int(length)
	if end+chunkCRC > len(d.data) {
		return chunk{}, fmt.Errorf("%s chunk of %d bytes at offset %d: %w", c.typ, length, p, ErrUnexpectedEndOfStream)
	}

	c.data = d.data[p+chunkHeader : end]

	if d.verify {
		want := binary.BigEndian.Uint32(d.data[end:])
		if got := crc32.ChecksumIEEE(d.data[p+4 : end]); got != want {
			return chunk{}, fmt.Errorf("%s chunk crc-32 %#08x, want %#08x: %w", c.typ, got, want, ErrChecksumMismatch)
		}
	}

	d.pos = end + chunkCRC

	return c, nil
}

// decodeHeader validates the signature and reads the mandatory leading IHDR chunk.
func (d *decoder) decodeHeader() error {
	if len(d.data) < len(pngSignature) {
		if bytes.HasPrefix([]byte(pngSignature), d.data) {
			return fmt.Errorf("signature: %w", ErrUnexpectedEndOfStream)
		}

		return fmt.Errorf("not a PNG file: %w", ErrMalformedHeader)
	}

	if string(d.data[:len(pngSignature)]) != pngSignature {
		return fmt.Errorf("not a PNG file: %w", ErrMalformedHeader)
	}

	d.pos = len(pngSignature)

	// The type of the first chunk is checked before its length so that a
	// truncated IHDR is reported as such and anything else as a bad header.
	if len(d.data) >= 16 && string(d.data[12:16]) != "IHDR" {
		return fmt.Errorf("first chunk is %q, not IHDR: %w", d.data[12:16], ErrMalformedHeader)
	}

	c, err := d.nextChunk()
	if err != nil {
		return err
	}

	if len(c.data) != ihdrLength {
		return fmt.Errorf("IHDR length %d: %w", len(c.data), ErrMalformedHeader)
	}

	return d.decodeIHDR(c.data)
}

// decodePLTE stores the palette. Alpha defaults to opaque.
func (d *decoder) decodePLTE(b []byte) error {
	if d.seenIDAT {
		return fmt.Errorf("PLTE after IDAT: %w", ErrMalformedHeader)
	}

	if len(b) == 0 || len(b)%3 != 0 || len(b)/3 > 256 {
		return fmt.Errorf("PLTE length %d: %w", len(b), ErrChunkShapeMismatch)
	}

	d.info.Palette = make([]color.NRGBA, len(b)/3)
	for i := range d.info.Palette {
		d.info.Palette[i] = color.NRGBA{R: b[3*i], G: b[3*i+1], B: b[3*i+2], A: 255}
	}

	return nil
}

// decodeTRNS stores palette alpha values or the single transparent color key.
func (d *decoder) decodeTRNS(b []byte) error {
	if d.seenIDAT {
		return fmt.Errorf("tRNS after IDAT: %w", ErrMalformedHeader)
	}

	switch d.info.ColorType {
	case Indexed:
		if len(b) > len(d.info.Palette) {
			return fmt.Errorf("tRNS has %d entries for a palette of %d: %w", len(b), len(d.info.Palette), ErrChunkShapeMismatch)
		}

		for i, a := range b {
			d.info.Palette[i].A = a
		}
	case Grayscale:
		if len(b) != 2 {
			return fmt.Errorf("grayscale tRNS length %d: %w", len(b), ErrChunkShapeMismatch)
		}

		d.info.HasTransparentKey = true
		d.info.TransparentKey[0] = binary.BigEndian.Uint16(b)
	case TrueColor:
		if len(b) != 6 {
			return fmt.Errorf("truecolor tRNS length %d: %w", len(b), ErrChunkShapeMismatch)
		}

		d.info.HasTransparentKey = true
		for i := range d.info.TransparentKey {
			d.info.TransparentKey[i] = binary.BigEndian.Uint16(b[2*i:])
		}
	default:
		return fmt.Errorf("tRNS with %s color type: %w", d.info.ColorType, ErrChunkShapeMismatch)
	}

	return nil
}

// decode parses the PNG stream from a byte slice, inflates the image data and
// reconstructs the samples into d.samples.
// If configOnly is true, it stops after reading the image header (IHDR chunk).
func (d *decoder) decode(data []byte, configOnly bool) error {
	d.data = data
	d.pos = 0

	if err := d.decodeHeader(); err != nil {
		return err
	}

	if configOnly {
		return nil // Success for config-only path.
	}

chunkLoop:
	for {
		c, err := d.nextChunk()
		if err != nil {
			return err
		}

		switch c.typ {
		case "IDAT":
			d.seenIDAT = true
			d.idat = append(d.idat, c.data...)
		case "PLTE":
			err = d.decodePLTE(c.data)
		case "tRNS":
			err = d.decodeTRNS(c.data)
		case "IEND":
			break chunkLoop
		case "IHDR":
			err = fmt.Errorf("second IHDR at offset %d: %w", d.pos, ErrMalformedHeader)
		default:
			if !c.isAncillary() {
				err = fmt.Errorf("chunk %q: %w", c.typ, ErrUnsupportedCriticalChunk)
			}
		}

		if err != nil {
			return err
		}
	}

	raw, err := zlibDecompress(d.idat, d.info.rawSize(), d.verify)
	if err != nil {
		return err
	}

	d.samples, err = reconstruct(raw, &d.info)

	return err
}
