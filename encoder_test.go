package pngn

import (
	"bytes"
	"encoding/binary"
	"hash/adler32"
	"hash/crc32"
	"image/color"
	"testing"

	"github.com/klauspost/compress/zlib"
)

// This file holds a minimal reference PNG encoder used by the tests.
// It is written independently of the decoder: its filters and bit packing
// follow the PNG specification directly, and compression is done by klauspost/compress.

// cycleFilters makes encodeImageData use a different filter type on every row.
const cycleFilters = -1

// testImage describes an image for the reference encoder.
type testImage struct {
	width, height int
	depth         int
	colorType     ColorType
	interlaced    bool
	samples       []byte        // Same layout as Raw.Samples.
	palette       []color.NRGBA // Written as PLTE, plus tRNS when an entry is not opaque.
	trns          []byte        // Explicit tRNS payload; overrides the palette alpha.
	filter        int           // Filter type for every row, or cycleFilters.
	level         int           // zlib compression level.
	idatSplit     int           // Maximum IDAT payload size; 0 writes a single IDAT.
}

// pngFile assembles a PNG stream chunk by chunk.
type pngFile struct {
	buf bytes.Buffer
}

// newPNGFile starts a stream with the PNG signature.
func newPNGFile() *pngFile {
	p := new(pngFile)
	p.buf.WriteString(pngSignature)

	return p
}

// chunk appends a chunk with a correct CRC-32.
func (p *pngFile) chunk(typ string, data []byte) *pngFile {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(data)))
	copy(hdr[4:], typ)

	crc := crc32.NewIEEE()
	crc.Write(hdr[4:])
	crc.Write(data)

	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())

	p.buf.Write(hdr[:])
	p.buf.Write(data)
	p.buf.Write(sum[:])

	return p
}

// ihdr appends an IHDR chunk.
func (p *pngFile) ihdr(width, height, depth int, ct ColorType, interlaced bool) *pngFile {
	return p.chunk("IHDR", ihdrData(width, height, depth, ct, interlaced))
}

// bytes returns the assembled stream.
func (p *pngFile) bytes() []byte {
	return p.buf.Bytes()
}

// ihdrData returns the 13-byte IHDR payload.
func ihdrData(width, height, depth int, ct ColorType, interlaced bool) []byte {
	b := make([]byte, ihdrLength)
	binary.BigEndian.PutUint32(b[0:], uint32(width))
	binary.BigEndian.PutUint32(b[4:], uint32(height))
	b[8] = byte(depth)
	b[9] = byte(ct)
	if interlaced {
		b[12] = 1
	}

	return b
}

// refPaeth is the Paeth predictor exactly as written in the PNG specification.
func refPaeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := p-int(a), p-int(b), p-int(c)
	if pa < 0 {
		pa = -pa
	}

	if pb < 0 {
		pb = -pb
	}

	if pc < 0 {
		pc = -pc
	}

	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}

	return c
}

// filterScanline applies a forward PNG filter to cur. prior nil stands for a row of zeros.
func filterScanline(cur, prior []byte, bytewidth int, ft byte) []byte {
	out := make([]byte, len(cur))
	for i := range cur {
		var left, up, upLeft byte
		if i >= bytewidth {
			left = cur[i-bytewidth]
		}

		if prior != nil {
			up = prior[i]
			if i >= bytewidth {
				upLeft = prior[i-bytewidth]
			}
		}

		switch ft {
		case ftNone:
			out[i] = cur[i]
		case ftSub:
			out[i] = cur[i] - left
		case ftUp:
			out[i] = cur[i] - up
		case ftAverage:
			out[i] = cur[i] - byte((int(left)+int(up))/2)
		case ftPaeth:
			out[i] = cur[i] - refPaeth(left, up, upLeft)
		}
	}

	return out
}

// packRow packs pixels of one pass row into scanline bytes.
func (img *testImage) packRow(s interlaceScan, y, pw int) []byte {
	bpp := img.colorType.channels() * img.depth
	row := make([]byte, (pw*bpp+7)/8)
	dy := s.yOffset + y*s.yFactor

	for x := 0; x < pw; x++ {
		idx := dy*img.width + s.xOffset + x*s.xFactor
		if bpp < 8 {
			bit := x * bpp
			row[bit/8] |= img.samples[idx] << (8 - bpp - bit%8)

			continue
		}

		ps := bpp / 8
		copy(row[x*ps:(x+1)*ps], img.samples[idx*ps:(idx+1)*ps])
	}

	return row
}

// encodeImageData returns the filtered, uncompressed image data.
func (img *testImage) encodeImageData() []byte {
	bpp := img.colorType.channels() * img.depth
	bytewidth := (bpp + 7) / 8

	passes := progressive[:]
	if img.interlaced {
		passes = adam7[:]
	}

	var out []byte
	for pass, s := range passes {
		pw, ph := s.size(img.width, img.height)
		if pw == 0 || ph == 0 {
			continue
		}

		var prior []byte
		for y := 0; y < ph; y++ {
			row := img.packRow(s, y, pw)

			ft := byte(img.filter)
			if img.filter == cycleFilters {
				ft = byte((y + pass) % 5)
			}

			out = append(out, ft)
			out = append(out, filterScanline(row, prior, bytewidth, ft)...)
			prior = row
		}
	}

	return out
}

// zlibCompress compresses data with klauspost/compress at the given level.
func zlibCompress(t testing.TB, data []byte, level int) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		t.Fatalf("zlib.NewWriterLevel(%d): %v", level, err)
	}

	if _, err := w.Write(data); err != nil {
		t.Fatalf("zlib write: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}

	return buf.Bytes()
}

// zlibStored wraps data in a zlib stream made only of stored DEFLATE blocks.
func zlibStored(data []byte) []byte {
	out := []byte{0x78, 0x01}
	sum := adler32.Checksum(data)

	for {
		n := len(data)
		if n > 0xFFFF {
			n = 0xFFFF
		}

		final := byte(0)
		if n == len(data) {
			final = 1
		}

		out = append(out, final,
			byte(n), byte(n>>8),
			^byte(n), ^byte(n>>8))
		out = append(out, data[:n]...)
		data = data[n:]

		if final == 1 {
			break
		}
	}

	return binary.BigEndian.AppendUint32(out, sum)
}

// encode produces a complete PNG file for img.
func encode(t testing.TB, img *testImage) []byte {
	t.Helper()

	p := newPNGFile().ihdr(img.width, img.height, img.depth, img.colorType, img.interlaced)

	if len(img.palette) > 0 {
		plte := make([]byte, 0, 3*len(img.palette))
		alpha := make([]byte, 0, len(img.palette))
		opaque := true

		for _, c := range img.palette {
			plte = append(plte, c.R, c.G, c.B)
			alpha = append(alpha, c.A)
			if c.A != 255 {
				opaque = false
			}
		}

		p.chunk("PLTE", plte)
		if !opaque && img.trns == nil {
			p.chunk("tRNS", alpha)
		}
	}

	if img.trns != nil {
		p.chunk("tRNS", img.trns)
	}

	z := zlibCompress(t, img.encodeImageData(), img.level)
	if img.idatSplit > 0 {
		for len(z) > img.idatSplit {
			p.chunk("IDAT", z[:img.idatSplit])
			z = z[img.idatSplit:]
		}
	}

	p.chunk("IDAT", z)
	p.chunk("IEND", nil)

	return p.bytes()
}

// patternSamples fills a sample buffer with a deterministic pattern.
// Every sample is below limit (0 means any byte value).
func patternSamples(width, height, bytesPerPixel, limit int) []byte {
	s := make([]byte, width*height*bytesPerPixel)
	for i := range s {
		x, y := (i/bytesPerPixel)%width, (i/bytesPerPixel)/width
		v := x*37 + y*91 + (i%bytesPerPixel)*53 + x*y*7
		if limit > 0 {
			v %= limit
		}

		s[i] = byte(v)
	}

	return s
}

// grayPalette returns n opaque palette entries.
func grayPalette(n int) []color.NRGBA {
	p := make([]color.NRGBA, n)
	for i := range p {
		v := byte(i * 255 / max(n-1, 1))
		p[i] = color.NRGBA{R: v, G: 255 - v, B: byte(i), A: 255}
	}

	return p
}
