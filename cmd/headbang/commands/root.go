// Package commands implements the headbang CLI command tree.
package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kinetobot/headbang/cmd/headbang/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "headbang",
	Short: "Make a Reachy Mini headbang to live music",
	Long: `headbang - realtime BPM detection and robot choreography.

Listens to the microphone, estimates the music's tempo, and drives a
Reachy Mini to nod on the beat while a BLE LED strip flashes in sync.

Configuration is read from the OS config directory:
  macOS:   ~/Library/Application Support/headbang/config.yaml
  Linux:   ~/.config/headbang/config.yaml

Examples:
  # List audio input devices
  headbang devices

  # Dance until ctrl-c (or the configured session length)
  headbang run

  # Pick a specific microphone and shorter session
  headbang run --device usb --duration 10m`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: OS config dir)")
}

// setupLogging installs the default slog handler according to --verbose.
func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig resolves --config and loads the configuration.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return config.Load(path)
}
