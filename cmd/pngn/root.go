package main

import (
	"github.com/gen2brain/pngn"
	"github.com/gen2brain/pngn/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// globalFlags holds the flags shared by every subcommand.
type globalFlags struct {
	verifyChecksums bool
	maxPixels       int
	logLevel        string

	log zerolog.Logger
}

// options returns the decoder options selected on the command line.
func (g *globalFlags) options() *pngn.Options {
	return &pngn.Options{
		VerifyChecksums: g.verifyChecksums,
		MaxPixels:       g.maxPixels,
	}
}

// newRootCommand builds the pngn command tree.
func newRootCommand() *cobra.Command {
	g := &globalFlags{}

	rootCommand := &cobra.Command{
		Use:           "pngn",
		Short:         "Inspect and convert PNG files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(cmd.ErrOrStderr(), g.logLevel)
			if err != nil {
				return err
			}

			g.log = log

			return nil
		},
	}

	flags := rootCommand.PersistentFlags()
	flags.BoolVar(&g.verifyChecksums, "verify-checksums", false, "verify chunk CRC-32 and zlib Adler-32 checksums")
	flags.IntVar(&g.maxPixels, "max-pixels", pngn.DefaultMaxPixels, "largest accepted width*height")
	flags.StringVar(&g.logLevel, "log-level", logging.DefaultLevel, "log level (trace, debug, info, warn, error)")

	rootCommand.AddCommand(newInfoCommand(g))
	rootCommand.AddCommand(newConvertCommand(g))

	return rootCommand
}
