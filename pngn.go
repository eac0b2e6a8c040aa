// Package pngn implements a from-scratch PNG decoder, including its own
// zlib/DEFLATE decompressor, that produces 8-bit RGBA pixels.
package pngn

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

// Standard error types for PNG decoding.
// Errors returned by this package wrap one of these values; test for them with errors.Is.
var (
	ErrMalformedHeader          = errors.New("malformed header")
	ErrUnsupportedCriticalChunk = errors.New("unsupported critical chunk")
	ErrChunkShapeMismatch       = errors.New("chunk shape mismatch")
	ErrCorruptStream            = errors.New("corrupt stream")
	ErrUnexpectedEndOfStream    = errors.New("unexpected end of stream")
	ErrImageTooLarge            = errors.New("image too large")
	ErrChecksumMismatch         = errors.New("checksum mismatch")

	// DEFLATE and zlib.
	ErrInvalidZlibHeader        = errors.New("invalid zlib header")
	ErrInvalidBlockType         = errors.New("invalid block type")
	ErrInvalidStoredBlockLength = errors.New("invalid stored block length")
	ErrInvalidCodeLengths       = errors.New("invalid code lengths")
	ErrMissingEndOfBlockCode    = errors.New("missing end-of-block code")
	ErrInvalidDistanceCode      = errors.New("invalid distance code")
	ErrInvalidBackReference     = errors.New("invalid back-reference")

	// Scanline reconstruction and color conversion.
	ErrInvalidFilterType      = errors.New("invalid filter type")
	ErrPaletteIndexOutOfRange = errors.New("palette index out of range")
)

// DefaultMaxPixels is the largest width*height accepted when Options.MaxPixels is zero.
const DefaultMaxPixels = 1 << 26

// Options specifies decoding parameters.
type Options struct {
	// VerifyChecksums enables strict mode: every chunk CRC-32 and the zlib
	// Adler-32 trailer are verified. By default both are skipped.
	VerifyChecksums bool
	// MaxPixels limits width*height of the decoded image. Zero means DefaultMaxPixels.
	MaxPixels int
}

// Raw holds the reconstructed image samples before color conversion.
type Raw struct {
	Info

	// Samples holds Width*Height pixels, row-major, top to bottom.
	// Depths below 8 store one sample per byte. 16-bit samples are big endian.
	Samples []byte
}

// Interface to check if a reader knows its remaining length.
type readerWithLen interface {
	Len() int
}

// readAllData reads data from r, pre-allocating if the size is known.
func readAllData(r io.Reader) ([]byte, error) {
	if rl, ok := r.(readerWithLen); ok {
		size := rl.Len()
		if size > 0 {
			data := make([]byte, size)
			_, err := io.ReadFull(r, data)
			if err != nil {
				return nil, fmt.Errorf("failed to read image data: %w", err)
			}

			return data, nil
		}
	}

	// Fallback for readers that don't implement Len() (e.g., network streams, os.File) or were empty.
	return io.ReadAll(r)
}

// newDecoderWithOptions returns a fresh decoder configured from the optional Options.
func newDecoderWithOptions(opts []*Options) *decoder {
	d := newDecoder()
	if len(opts) > 0 && opts[0] != nil {
		d.verify = opts[0].VerifyChecksums
		if opts[0].MaxPixels > 0 {
			d.maxPixels = opts[0].MaxPixels
		}
	}

	return d
}

// DecodePNG decodes a complete PNG file held in data.
// It returns width*height RGBA pixels (4 bytes each, not premultiplied, row-major,
// without padding) together with the image dimensions.
// No partial image is ever returned: on error pix is nil.
func DecodePNG(data []byte, opts ...*Options) (pix []byte, width, height int, err error) {
	d := newDecoderWithOptions(opts)
	if err := d.decode(data, false); err != nil {
		return nil, 0, 0, err
	}

	pix, err = toRGBA(d.samples, &d.info)
	if err != nil {
		return nil, 0, 0, err
	}

	return pix, d.info.Width, d.info.Height, nil
}

// DecodeRaw decodes a PNG file but skips the conversion to RGBA.
// The returned samples keep the image's own color type and bit depth.
func DecodeRaw(data []byte, opts ...*Options) (*Raw, error) {
	d := newDecoderWithOptions(opts)
	if err := d.decode(data, false); err != nil {
		return nil, err
	}

	return &Raw{Info: d.info, Samples: d.samples}, nil
}

// Decode reads a PNG image from r and returns it as an [image.NRGBA].
// It accepts an optional Options struct to control decoding parameters.
func Decode(r io.Reader, opts ...*Options) (image.Image, error) {
	data, err := readAllData(r)
	if err != nil {
		return nil, err
	}

	pix, width, height, err := DecodePNG(data, opts...)
	if err != nil {
		return nil, err
	}

	return &image.NRGBA{
		Pix:    pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}, nil
}

// DecodeConfig returns the color model and dimensions of a PNG image without decoding the entire image data.
// The color model is always NRGBA, the model of the images returned by Decode.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var header [headerSize]byte

	// A short read is not fatal here; the decoder reports truncation itself.
	n, err := io.ReadFull(r, header[:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return image.Config{}, err
	}

	d := newDecoder()
	if err := d.decode(header[:n], true); err != nil {
		return image.Config{}, err
	}

	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      d.info.Width,
		Height:     d.info.Height,
	}, nil
}

// init registers the PNG format with the standard library's image package.
// This allows image.Decode to automatically recognize and decode PNG files using this package.
func init() {
	decodeWrapper := func(r io.Reader) (image.Image, error) {
		return Decode(r)
	}

	image.RegisterFormat("png", pngSignature, decodeWrapper, DecodeConfig)
}
