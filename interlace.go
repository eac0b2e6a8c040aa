package pngn

import "fmt"

// interlaceScan defines the placement and size of a pass for Adam7 interlacing.
type interlaceScan struct {
	xFactor, yFactor, xOffset, yOffset int
}

// adam7 lists the seven Adam7 passes in storage order.
var adam7 = [7]interlaceScan{
	{8, 8, 0, 0},
	{8, 8, 4, 0},
	{4, 8, 0, 4},
	{4, 4, 2, 0},
	{2, 4, 0, 2},
	{2, 2, 1, 0},
	{1, 2, 0, 1},
}

// progressive is the single full-resolution pass of a non-interlaced image.
var progressive = [1]interlaceScan{{1, 1, 0, 0}}

// size returns the dimensions of the pass's sub-image for a width x height image.
func (s interlaceScan) size(width, height int) (int, int) {
	w := (width - s.xOffset + s.xFactor - 1) / s.xFactor
	h := (height - s.yOffset + s.yFactor - 1) / s.yFactor
	if w < 0 || width <= s.xOffset {
		w = 0
	}

	if h < 0 || height <= s.yOffset {
		h = 0
	}

	return w, h
}

// reconstruct unfilters the inflated image data pass by pass and scatters the pixels
// into a full-resolution sample buffer (see Raw.Samples).
// A non-interlaced image is treated as a single pass covering every pixel.
func reconstruct(raw []byte, info *Info) (samples []byte, err error) {
	// Recovery for panics raised while unpacking sub-byte samples.
	defer func() {
		if r := recover(); r != nil {
			if de, ok := r.(errDecode); ok {
				samples, err = nil, de.error
			} else {
				panic(r)
			}
		}
	}()

	width, height := info.Width, info.Height
	bpp := info.bitsPerPixel()
	ps := info.sampleBytes()

	bytewidth := (bpp + 7) / 8
	if bytewidth < 1 {
		bytewidth = 1
	}

	samples = make([]byte, width*height*ps)

	// Two row buffers: the row being reconstructed and the one above it in the same pass.
	rowBytes := (width*bpp + 7) / 8
	cur := make([]byte, rowBytes)
	prev := make([]byte, rowBytes)

	pos := 0
	for pass, s := range info.scans() {
		pw, ph := s.size(width, height)
		if pw == 0 || ph == 0 {
			continue
		}

		n := (pw*bpp + 7) / 8

		var prior []byte
		for y := 0; y < ph; y++ {
			if pos+1+n > len(raw) {
				return nil, fmt.Errorf("pass %d row %d: %d bytes of image data: %w", pass, y, len(raw), ErrUnexpectedEndOfStream)
			}

			row := cur[:n]
			if err := unfilterScanline(row, raw[pos+1:pos+1+n], prior, bytewidth, raw[pos]); err != nil {
				return nil, fmt.Errorf("pass %d row %d: %w", pass, y, err)
			}

			pos += 1 + n

			dy := s.yOffset + y*s.yFactor
			base := dy*width + s.xOffset

			switch {
			case bpp < 8:
				r := msbReader{data: row}
				for x := 0; x < pw; x++ {
					samples[base+x*s.xFactor] = r.readBits(bpp)
				}
			case s.xFactor == 1:
				copy(samples[base*ps:], row)
			default:
				for x := 0; x < pw; x++ {
					dst := (base + x*s.xFactor) * ps
					copy(samples[dst:dst+ps], row[x*ps:(x+1)*ps])
				}
			}

			prior = row
			cur, prev = prev, cur
		}
	}

	return samples, nil
}
