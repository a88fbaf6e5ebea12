package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/nmm/cmd/nmm"
	"github.com/arthur-debert/nmm/pkg/display"
)

func main() {
	rootCmd := nmm.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		errorStyle := display.GetStyle("Error")
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		os.Exit(1)
	}
}
