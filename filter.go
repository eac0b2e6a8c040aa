package pngn

import "fmt"

// Filter types, as per the PNG spec.
const (
	ftNone    = 0
	ftSub     = 1
	ftUp      = 2
	ftAverage = 3
	ftPaeth   = 4
)

// unfilterScanline reverses the filter of one scanline into recon.
// scanline is the filtered row without its filter-type byte and has the same length as recon.
// prior is the previous reconstructed row of the same (sub-)image, or nil for its first row,
// which behaves like a row of zeros. bytewidth is the distance in bytes to the corresponding
// byte of the pixel on the left, at least 1.
func unfilterScanline(recon, scanline, prior []byte, bytewidth int, filterType byte) error {
	n := len(recon)
	if bytewidth > n {
		bytewidth = n
	}

	switch filterType {
	case ftNone:
		copy(recon, scanline)
	case ftSub:
		copy(recon[:bytewidth], scanline[:bytewidth])
		for i := bytewidth; i < n; i++ {
			recon[i] = scanline[i] + recon[i-bytewidth]
		}
	case ftUp:
		if prior == nil {
			copy(recon, scanline)

			break
		}

		for i := 0; i < n; i++ {
			recon[i] = scanline[i] + prior[i]
		}
	case ftAverage:
		if prior == nil {
			copy(recon[:bytewidth], scanline[:bytewidth])
			for i := bytewidth; i < n; i++ {
				recon[i] = scanline[i] + recon[i-bytewidth]/2
			}

			break
		}

		for i := 0; i < bytewidth; i++ {
			recon[i] = scanline[i] + prior[i]/2
		}

		for i := bytewidth; i < n; i++ {
			recon[i] = scanline[i] + byte((int(recon[i-bytewidth])+int(prior[i]))/2)
		}
	case ftPaeth:
		if prior == nil {
			// With a zero prior row the predictor always picks the left neighbor.
			copy(recon[:bytewidth], scanline[:bytewidth])
			for i := bytewidth; i < n; i++ {
				recon[i] = scanline[i] + recon[i-bytewidth]
			}

			break
		}

		for i := 0; i < bytewidth; i++ {
			recon[i] = scanline[i] + prior[i]
		}

		for i := bytewidth; i < n; i++ {
			recon[i] = scanline[i] + paeth(recon[i-bytewidth], prior[i], prior[i-bytewidth])
		}
	default:
		return fmt.Errorf("filter type %d: %w", filterType, ErrInvalidFilterType)
	}

	return nil
}

// paeth implements the Paeth predictor: it returns whichever of the left (a),
// upper (b) and upper-left (c) neighbors is closest to a + b - c, preferring a, then b.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))

	if pa <= pb && pa <= pc {
		return a
	}

	if pb <= pc {
		return b
	}

	return c
}

// abs returns the absolute value of x.
func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}
