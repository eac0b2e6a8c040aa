// Command pngview decodes a PNG file with pngn and shows it in a window.
package main

import (
	"fmt"
	"os"

	"github.com/gen2brain/pngn"
	"github.com/gen2brain/pngn/internal/logging"
	"github.com/spf13/cobra"
)

func main() {
	if err := newViewCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pngview:", err)
		os.Exit(1)
	}
}

// newViewCommand builds the pngview command.
func newViewCommand() *cobra.Command {
	var (
		scale           int
		verifyChecksums bool
		logLevel        string
	)

	cmd := &cobra.Command{
		Use:           "pngview [file.png]",
		Short:         "Show a PNG file in a window",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(cmd.ErrOrStderr(), logLevel)
			if err != nil {
				return err
			}

			path := args[0]

			data, err := os.ReadFile(path)
			if err != nil {
				log.Error().Err(err).Str("file", path).Msg("Failed to read")

				return err
			}

			pix, w, h, err := pngn.DecodePNG(data, &pngn.Options{VerifyChecksums: verifyChecksums})
			if err != nil {
				log.Error().Err(err).Str("file", path).Msg("Failed to decode")

				return err
			}

			log.Info().Str("file", path).Int("width", w).Int("height", h).Int("scale", scale).Msg("Opening window")

			return runWindow(path, newViewer(pix, w, h), scale)
		},
	}

	cmd.Flags().IntVar(&scale, "scale", 1, "window scale factor")
	cmd.Flags().BoolVar(&verifyChecksums, "verify-checksums", false, "verify chunk CRC-32 and zlib Adler-32 checksums")
	cmd.Flags().StringVar(&logLevel, "log-level", logging.DefaultLevel, "log level (trace, debug, info, warn, error)")

	return cmd
}
