package main

import (
	"fmt"
	"io"
	"os"

	"github.com/gen2brain/pngn"
	"github.com/spf13/cobra"
)

func newInfoCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "info [file.png]...",
		Short: "Decode PNG files and print their header information",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				if err := printInfo(cmd.OutOrStdout(), path, g.options()); err != nil {
					g.log.Error().Err(err).Str("file", path).Msg("Failed to decode")
					failed++
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed to decode", failed, len(args))
			}

			return nil
		},
	}
}

// printInfo fully decodes the file at path and writes one line describing it.
func printInfo(w io.Writer, path string, opts *pngn.Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	raw, err := pngn.DecodeRaw(data, opts)
	if err != nil {
		return err
	}

	interlace := "progressive"
	if raw.Interlaced {
		interlace = "adam7"
	}

	_, err = fmt.Fprintf(w, "%s: %dx%d, %d-bit %s, %s", path, raw.Width, raw.Height, raw.BitDepth, raw.ColorType, interlace)
	if err != nil {
		return err
	}

	if raw.ColorType == pngn.Indexed {
		fmt.Fprintf(w, ", %d palette entries", len(raw.Palette))
	}

	if raw.HasTransparentKey {
		fmt.Fprintf(w, ", transparent key %v", transparentKey(raw))
	}

	_, err = fmt.Fprintln(w)

	return err
}

// transparentKey returns the meaningful part of the tRNS color key.
func transparentKey(raw *pngn.Raw) []uint16 {
	if raw.ColorType == pngn.Grayscale {
		return raw.TransparentKey[:1]
	}

	return raw.TransparentKey[:]
}
