// Package main is the entry point for the headbang CLI.
//
// Usage:
//
//	headbang [flags] <command> [args]
//
// Commands:
//
//	run      - Listen to the microphone and headbang to the detected BPM
//	devices  - List available audio input devices
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/kinetobot/headbang/cmd/headbang/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
