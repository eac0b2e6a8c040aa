package pngn

import (
	"fmt"
	"image/color"
)

// toRGBA converts reconstructed samples to 8-bit RGBA, 4 bytes per pixel.
// 16-bit samples keep only their high byte.
func toRGBA(samples []byte, info *Info) ([]byte, error) {
	n := info.Width * info.Height
	dst := make([]byte, n*4)

	switch info.ColorType {
	case Grayscale:
		if info.BitDepth < 8 {
			grayLowToRGBA(dst, samples, info)
		} else {
			grayToRGBA(dst, samples, info)
		}
	case TrueColor:
		rgbToRGBA(dst, samples, info)
	case Indexed:
		if err := indexedToRGBA(dst, samples, info.Palette); err != nil {
			return nil, err
		}
	case GrayscaleAlpha:
		grayAlphaToRGBA(dst, samples, info.BitDepth/8)
	case TrueColorAlpha:
		rgbaToRGBA(dst, samples, info.BitDepth/8)
	}

	return dst, nil
}

// grayToRGBA converts 8- and 16-bit grayscale samples.
// A pixel equal to the transparency key becomes fully transparent.
func grayToRGBA(dst, src []byte, info *Info) {
	bs := info.BitDepth / 8
	key := info.TransparentKey[0]

	for i := 0; i < len(dst)/4; i++ {
		s := src[i*bs:]
		v := uint16(s[0])
		if bs == 2 {
			v = v<<8 | uint16(s[1])
		}

		d := dst[i*4 : i*4+4]
		d[0], d[1], d[2], d[3] = s[0], s[0], s[0], 255

		if info.HasTransparentKey && v == key {
			d[3] = 0
		}
	}
}

// grayLowToRGBA converts 1-, 2- and 4-bit grayscale samples, scaling them to the full 8-bit range.
// The transparency key is compared against the unscaled sample.
func grayLowToRGBA(dst, src []byte, info *Info) {
	maxVal := uint(1)<<info.BitDepth - 1
	key := info.TransparentKey[0]

	for i := 0; i < len(dst)/4; i++ {
		s := src[i]
		v := byte(uint(s) * 255 / maxVal)

		d := dst[i*4 : i*4+4]
		d[0], d[1], d[2], d[3] = v, v, v, 255

		if info.HasTransparentKey && uint16(s) == key {
			d[3] = 0
		}
	}
}

// rgbToRGBA converts 8- and 16-bit truecolor samples.
// A pixel whose three channels all equal the transparency key becomes fully transparent.
func rgbToRGBA(dst, src []byte, info *Info) {
	bs := info.BitDepth / 8
	key := info.TransparentKey

	for i := 0; i < len(dst)/4; i++ {
		s := src[i*3*bs:]
		d := dst[i*4 : i*4+4]

		match := info.HasTransparentKey
		for c := 0; c < 3; c++ {
			hi := s[c*bs]
			d[c] = hi

			v := uint16(hi)
			if bs == 2 {
				v = v<<8 | uint16(s[c*bs+1])
			}

			if v != key[c] {
				match = false
			}
		}

		d[3] = 255
		if match {
			d[3] = 0
		}
	}
}

// indexedToRGBA looks up palette indices of any bit depth.
func indexedToRGBA(dst, src []byte, palette []color.NRGBA) error {
	for i := 0; i < len(dst)/4; i++ {
		idx := int(src[i])
		if idx >= len(palette) {
			return fmt.Errorf("index %d with %d palette entries: %w", idx, len(palette), ErrPaletteIndexOutOfRange)
		}

		c := palette[idx]
		dst[i*4], dst[i*4+1], dst[i*4+2], dst[i*4+3] = c.R, c.G, c.B, c.A
	}

	return nil
}

// grayAlphaToRGBA converts grayscale+alpha samples; bs is the bytes per sample (1 or 2).
func grayAlphaToRGBA(dst, src []byte, bs int) {
	for i := 0; i < len(dst)/4; i++ {
		s := src[i*2*bs:]
		g, a := s[0], s[bs]
		dst[i*4], dst[i*4+1], dst[i*4+2], dst[i*4+3] = g, g, g, a
	}
}

// rgbaToRGBA converts truecolor+alpha samples; bs is the bytes per sample (1 or 2).
func rgbaToRGBA(dst, src []byte, bs int) {
	if bs == 1 {
		copy(dst, src)

		return
	}

	for i := 0; i < len(dst); i++ {
		dst[i] = src[i*bs]
	}
}
