package pngn

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"math"
)

// ColorType is the PNG color type from the IHDR chunk.
type ColorType uint8

// Color types, as per the PNG spec.
const (
	Grayscale      ColorType = 0
	TrueColor      ColorType = 2
	Indexed        ColorType = 3
	GrayscaleAlpha ColorType = 4
	TrueColorAlpha ColorType = 6
)

// String returns the name of the color type.
func (c ColorType) String() string {
	switch c {
	case Grayscale:
		return "grayscale"
	case TrueColor:
		return "truecolor"
	case Indexed:
		return "indexed"
	case GrayscaleAlpha:
		return "grayscale+alpha"
	case TrueColorAlpha:
		return "truecolor+alpha"
	default:
		return fmt.Sprintf("ColorType(%d)", uint8(c))
	}
}

// channels returns the number of samples per pixel.
func (c ColorType) channels() int {
	switch c {
	case TrueColor:
		return 3
	case GrayscaleAlpha:
		return 2
	case TrueColorAlpha:
		return 4
	default:
		return 1
	}
}

// Info describes a PNG image as read from its IHDR, PLTE and tRNS chunks.
type Info struct {
	Width, Height int
	BitDepth      int       // 1, 2, 4, 8 or 16.
	ColorType     ColorType // One of the five PNG color types.
	Interlaced    bool      // Adam7 interlacing.

	// Palette holds the PLTE entries. Alpha is 255 unless a tRNS chunk overrides it.
	Palette []color.NRGBA

	// HasTransparentKey reports a tRNS chunk for a grayscale or truecolor image.
	// TransparentKey then holds the gray value in [0] or the R, G, B values.
	HasTransparentKey bool
	TransparentKey    [3]uint16
}

// bitsPerPixel returns the number of bits one pixel occupies in a scanline.
func (info *Info) bitsPerPixel() int {
	return info.ColorType.channels() * info.BitDepth
}

// sampleBytes returns the number of bytes one pixel occupies in the sample buffer.
// Depths below 8 are unpacked to one sample per byte.
func (info *Info) sampleBytes() int {
	if bpp := info.bitsPerPixel(); bpp >= 8 {
		return bpp / 8
	}

	return 1
}

// rawSize returns the number of bytes of filtered image data the IDAT stream must inflate to.
func (info *Info) rawSize() int {
	bpp := info.bitsPerPixel()
	size := 0
	for _, p := range info.scans() {
		w, h := p.size(info.Width, info.Height)
		if w == 0 || h == 0 {
			continue
		}

		size += h * (1 + (w*bpp+7)/8)
	}

	return size
}

// scans returns the passes the image data is stored in.
func (info *Info) scans() []interlaceScan {
	if info.Interlaced {
		return adam7[:]
	}

	return progressive[:]
}

// PNG file layout constants.
const (
	pngSignature = "\x89PNG\r\n\x1a\n"
	ihdrLength   = 13
	chunkHeader  = 8 // Length and type.
	chunkCRC     = 4 // Trailing CRC-32.
	maxChunkLen  = math.MaxInt32

	// Signature plus the complete IHDR chunk.
	headerSize = len(pngSignature) + chunkHeader + ihdrLength + chunkCRC
)

// checkColorValidity reports whether a bit depth is allowed for a color type.
func checkColorValidity(ct ColorType, depth int) error {
	var ok bool

	switch ct {
	case Grayscale:
		ok = depth == 1 || depth == 2 || depth == 4 || depth == 8 || depth == 16
	case Indexed:
		ok = depth == 1 || depth == 2 || depth == 4 || depth == 8
	case TrueColor, GrayscaleAlpha, TrueColorAlpha:
		ok = depth == 8 || depth == 16
	default:
		return fmt.Errorf("color type %d: %w", uint8(ct), ErrMalformedHeader)
	}

	if !ok {
		return fmt.Errorf("bit depth %d with %s color type: %w", depth, ct, ErrMalformedHeader)
	}

	return nil
}

// decodeIHDR parses the 13 data bytes of the IHDR chunk into d.info.
func (d *decoder) decodeIHDR(b []byte) error {
	width := binary.BigEndian.Uint32(b[0:4])
	height := binary.BigEndian.Uint32(b[4:8])
	if width == 0 || height == 0 || width > math.MaxInt32 || height > math.MaxInt32 {
		return fmt.Errorf("dimensions %dx%d: %w", width, height, ErrMalformedHeader)
	}

	depth, ct := int(b[8]), ColorType(b[9])
	if err := checkColorValidity(ct, depth); err != nil {
		return err
	}

	if b[10] != 0 {
		return fmt.Errorf("compression method %d: %w", b[10], ErrMalformedHeader)
	}

	if b[11] != 0 {
		return fmt.Errorf("filter method %d: %w", b[11], ErrMalformedHeader)
	}

	if b[12] > 1 {
		return fmt.Errorf("interlace method %d: %w", b[12], ErrMalformedHeader)
	}

	if uint64(width)*uint64(height) > uint64(d.maxPixels) {
		return fmt.Errorf("%dx%d exceeds %d pixels: %w", width, height, d.maxPixels, ErrImageTooLarge)
	}

	d.info = Info{
		Width:      int(width),
		Height:     int(height),
		BitDepth:   depth,
		ColorType:  ct,
		Interlaced: b[12] == 1,
	}

	return nil
}
