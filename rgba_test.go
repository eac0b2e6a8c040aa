package pngn

import (
	"bytes"
	"errors"
	"image/color"
	"testing"
)

// TestToRGBA verifies the conversion of every color type to 8-bit RGBA.
func TestToRGBA(t *testing.T) {
	testCases := []struct {
		name    string
		info    Info
		samples []byte
		want    []byte
	}{
		{
			name:    "Gray1",
			info:    Info{Width: 2, Height: 1, BitDepth: 1, ColorType: Grayscale},
			samples: []byte{0, 1},
			want:    []byte{0, 0, 0, 255, 255, 255, 255, 255},
		},
		{
			name:    "Gray2",
			info:    Info{Width: 4, Height: 1, BitDepth: 2, ColorType: Grayscale},
			samples: []byte{0, 1, 2, 3},
			want:    []byte{0, 0, 0, 255, 85, 85, 85, 255, 170, 170, 170, 255, 255, 255, 255, 255},
		},
		{
			name:    "Gray4",
			info:    Info{Width: 2, Height: 1, BitDepth: 4, ColorType: Grayscale},
			samples: []byte{7, 15},
			want:    []byte{119, 119, 119, 255, 255, 255, 255, 255},
		},
		{
			name:    "Gray8",
			info:    Info{Width: 2, Height: 1, BitDepth: 8, ColorType: Grayscale},
			samples: []byte{0x12, 0xFE},
			want:    []byte{0x12, 0x12, 0x12, 255, 0xFE, 0xFE, 0xFE, 255},
		},
		{
			name:    "Gray16",
			info:    Info{Width: 2, Height: 1, BitDepth: 16, ColorType: Grayscale},
			samples: []byte{0x12, 0x34, 0xAB, 0xCD},
			want:    []byte{0x12, 0x12, 0x12, 255, 0xAB, 0xAB, 0xAB, 255},
		},
		{
			name:    "RGB8",
			info:    Info{Width: 2, Height: 1, BitDepth: 8, ColorType: TrueColor},
			samples: []byte{1, 2, 3, 4, 5, 6},
			want:    []byte{1, 2, 3, 255, 4, 5, 6, 255},
		},
		{
			name:    "RGB16",
			info:    Info{Width: 1, Height: 1, BitDepth: 16, ColorType: TrueColor},
			samples: []byte{0x10, 0x01, 0x20, 0x02, 0x30, 0x03},
			want:    []byte{0x10, 0x20, 0x30, 255},
		},
		{
			name:    "GrayAlpha8",
			info:    Info{Width: 2, Height: 1, BitDepth: 8, ColorType: GrayscaleAlpha},
			samples: []byte{50, 128, 200, 0},
			want:    []byte{50, 50, 50, 128, 200, 200, 200, 0},
		},
		{
			name:    "GrayAlpha16",
			info:    Info{Width: 1, Height: 1, BitDepth: 16, ColorType: GrayscaleAlpha},
			samples: []byte{0x80, 0xFF, 0x40, 0x00},
			want:    []byte{0x80, 0x80, 0x80, 0x40},
		},
		{
			name:    "RGBA8",
			info:    Info{Width: 1, Height: 1, BitDepth: 8, ColorType: TrueColorAlpha},
			samples: []byte{9, 8, 7, 6},
			want:    []byte{9, 8, 7, 6},
		},
		{
			name:    "RGBA16",
			info:    Info{Width: 1, Height: 1, BitDepth: 16, ColorType: TrueColorAlpha},
			samples: []byte{0xA0, 1, 0xB0, 2, 0xC0, 3, 0xD0, 4},
			want:    []byte{0xA0, 0xB0, 0xC0, 0xD0},
		},
		{
			name: "Indexed",
			info: Info{
				Width: 3, Height: 1, BitDepth: 2, ColorType: Indexed,
				Palette: []color.NRGBA{{255, 0, 0, 255}, {0, 255, 0, 128}, {0, 0, 255, 0}},
			},
			samples: []byte{2, 0, 1},
			want:    []byte{0, 0, 255, 0, 255, 0, 0, 255, 0, 255, 0, 128},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := toRGBA(tc.samples, &tc.info)
			if err != nil {
				t.Fatalf("toRGBA failed: %v", err)
			}

			if !bytes.Equal(got, tc.want) {
				t.Errorf("toRGBA got %v, want %v", got, tc.want)
			}
		})
	}
}

// TestToRGBATransparentKey verifies that only pixels matching the tRNS color key become transparent.
func TestToRGBATransparentKey(t *testing.T) {
	testCases := []struct {
		name      string
		info      Info
		samples   []byte
		wantAlpha []byte
	}{
		{
			name:      "Gray2",
			info:      Info{Width: 4, Height: 1, BitDepth: 2, ColorType: Grayscale, HasTransparentKey: true, TransparentKey: [3]uint16{2}},
			samples:   []byte{0, 1, 2, 3},
			wantAlpha: []byte{255, 255, 0, 255},
		},
		{
			name:      "Gray8",
			info:      Info{Width: 3, Height: 1, BitDepth: 8, ColorType: Grayscale, HasTransparentKey: true, TransparentKey: [3]uint16{7}},
			samples:   []byte{6, 7, 8},
			wantAlpha: []byte{255, 0, 255},
		},
		{
			// Only the exact 16-bit value matches, not every sample with the same high byte.
			name:      "Gray16",
			info:      Info{Width: 3, Height: 1, BitDepth: 16, ColorType: Grayscale, HasTransparentKey: true, TransparentKey: [3]uint16{0x1234}},
			samples:   []byte{0x12, 0x34, 0x12, 0x35, 0x00, 0x34},
			wantAlpha: []byte{0, 255, 255},
		},
		{
			name:      "RGB8",
			info:      Info{Width: 3, Height: 1, BitDepth: 8, ColorType: TrueColor, HasTransparentKey: true, TransparentKey: [3]uint16{1, 2, 3}},
			samples:   []byte{1, 2, 3, 1, 2, 4, 3, 2, 1},
			wantAlpha: []byte{0, 255, 255},
		},
		{
			name:      "RGB16",
			info:      Info{Width: 2, Height: 1, BitDepth: 16, ColorType: TrueColor, HasTransparentKey: true, TransparentKey: [3]uint16{0x0102, 0x0304, 0x0506}},
			samples:   []byte{1, 2, 3, 4, 5, 6, 1, 2, 3, 4, 5, 7},
			wantAlpha: []byte{0, 255},
		},
		{
			name:      "NoKey",
			info:      Info{Width: 2, Height: 1, BitDepth: 8, ColorType: Grayscale},
			samples:   []byte{0, 0},
			wantAlpha: []byte{255, 255},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := toRGBA(tc.samples, &tc.info)
			if err != nil {
				t.Fatalf("toRGBA failed: %v", err)
			}

			for i, want := range tc.wantAlpha {
				if got[i*4+3] != want {
					t.Errorf("pixel %d alpha got %d, want %d", i, got[i*4+3], want)
				}
			}
		})
	}
}

// TestToRGBAPaletteIndexOutOfRange verifies that an index past the palette is an error, not a panic.
func TestToRGBAPaletteIndexOutOfRange(t *testing.T) {
	info := Info{
		Width: 2, Height: 1, BitDepth: 8, ColorType: Indexed,
		Palette: []color.NRGBA{{1, 2, 3, 255}, {4, 5, 6, 255}},
	}

	_, err := toRGBA([]byte{1, 2}, &info)
	if !errors.Is(err, ErrPaletteIndexOutOfRange) {
		t.Errorf("toRGBA got %v, want %v", err, ErrPaletteIndexOutOfRange)
	}
}
