package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/nmm/cmd/nmm"
	"github.com/arthur-debert/nmm/internal/version"
)

// Writes the nmm man pages into the directory given as the only argument,
// one page per command.
func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <output-dir>\n", os.Args[0])
		os.Exit(1)
	}
	dir := os.Args[1]
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", dir, err)
		os.Exit(1)
	}

	rootCmd := nmm.NewRootCmd()
	header := &doc.GenManHeader{
		Title:   "NMM",
		Section: "1",
		Source:  "nmm " + version.Version,
		Manual:  "nmm manual",
	}

	if err := doc.GenManTree(rootCmd, header, dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man pages: %v\n", err)
		os.Exit(1)
	}
}
