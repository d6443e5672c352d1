// Package main is the entry point for tot, the terminal token overlay.
package main

import (
	"fmt"
	"os"

	"github.com/j-veylop/token-overlay-tui/internal/command"
)

func main() {
	if err := command.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
