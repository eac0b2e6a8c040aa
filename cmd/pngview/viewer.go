package main

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// checkerSize is the edge length of the squares drawn behind transparent pixels.
const checkerSize = 8

// viewer is the ebiten game that displays one decoded image.
type viewer struct {
	img    *image.NRGBA
	tex    *ebiten.Image // Uploaded on the first Draw.
	bg     *ebiten.Image
	width  int
	height int
}

// newViewer wraps RGBA pixels as returned by pngn.DecodePNG.
func newViewer(pix []byte, w, h int) *viewer {
	return &viewer{
		img:    &image.NRGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)},
		width:  w,
		height: h,
	}
}

// checkerboard returns a w x h gray checkerboard that shows through transparent pixels.
func checkerboard(w, h int) *image.RGBA {
	light := color.RGBA{R: 0xCC, G: 0xCC, B: 0xCC, A: 0xFF}
	dark := color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xFF}

	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := light
			if (x/checkerSize+y/checkerSize)%2 == 1 {
				c = dark
			}

			m.SetRGBA(x, y, c)
		}
	}

	return m
}

func (v *viewer) Update() error {
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	if v.tex == nil {
		// NewImageFromImage premultiplies the non-premultiplied source.
		v.tex = ebiten.NewImageFromImage(v.img)
		v.bg = ebiten.NewImageFromImage(checkerboard(v.width, v.height))
	}

	screen.DrawImage(v.bg, nil)
	screen.DrawImage(v.tex, nil)
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.width, v.height
}

// runWindow opens a window scaled by scale and blocks until it is closed.
func runWindow(title string, v *viewer, scale int) error {
	if scale < 1 {
		scale = 1
	}

	ebiten.SetWindowTitle("pngview - " + title)
	ebiten.SetWindowSize(v.width*scale, v.height*scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	return ebiten.RunGame(v)
}
