package main

import (
	"fmt"
	"image"
	"os"

	"github.com/gen2brain/pngn"
	"github.com/spf13/cobra"
	"golang.org/x/image/bmp"
)

func newConvertCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "convert [in.png] [out.bmp]",
		Short: "Decode a PNG file and write it as BMP",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]

			data, err := os.ReadFile(in)
			if err != nil {
				return err
			}

			pix, w, h, err := pngn.DecodePNG(data, g.options())
			if err != nil {
				g.log.Error().Err(err).Str("file", in).Msg("Failed to decode")

				return err
			}

			g.log.Debug().Str("file", in).Int("width", w).Int("height", h).Msg("Decoded")

			img := &image.NRGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
			if err := writeBMP(out, img); err != nil {
				return err
			}

			g.log.Info().Str("from", in).Str("to", out).Msg("Converted")

			return nil
		},
	}
}

// writeBMP encodes img to a new file at path.
func writeBMP(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := bmp.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	return nil
}
