package pngn

import (
	"encoding/binary"
	"fmt"
	"hash/adler32"
)

const zlibDeflate = 8 // The only compression method defined for zlib.

// zlibDecompress checks the two-byte zlib header, inflates the DEFLATE payload
// into at most limit bytes and, if verify is set, checks the Adler-32 trailer.
func zlibDecompress(data []byte, limit int, verify bool) ([]byte, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("zlib header: %w", ErrUnexpectedEndOfStream)
	}

	cmf, flg := data[0], data[1]

	if (uint(cmf)<<8|uint(flg))%31 != 0 {
		return nil, fmt.Errorf("header check bits %#02x%02x: %w", cmf, flg, ErrInvalidZlibHeader)
	}

	if cmf&0x0F != zlibDeflate {
		return nil, fmt.Errorf("compression method %d: %w", cmf&0x0F, ErrInvalidZlibHeader)
	}

	if cmf>>4 > 7 {
		return nil, fmt.Errorf("window size 2^%d: %w", cmf>>4+8, ErrInvalidZlibHeader)
	}

	if flg&0x20 != 0 {
		return nil, fmt.Errorf("preset dictionary: %w", ErrInvalidZlibHeader)
	}

	out, n, err := inflate(data[2:], limit)
	if err != nil {
		return nil, err
	}

	if verify {
		p := 2 + n
		if p+4 > len(data) {
			return nil, fmt.Errorf("adler-32 trailer: %w", ErrUnexpectedEndOfStream)
		}

		want := binary.BigEndian.Uint32(data[p:])
		if got := adler32.Checksum(out); got != want {
			return nil, fmt.Errorf("adler-32 %#08x, want %#08x: %w", got, want, ErrChecksumMismatch)
		}
	}

	return out, nil
}
