// Command pngn inspects PNG files and converts them to BMP using the pngn decoder.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pngn:", err)
		os.Exit(1)
	}
}
