package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kinetobot/headbang/pkg/audio/portaudio"
	"github.com/kinetobot/headbang/pkg/cli"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available audio input devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := portaudio.Devices()
		if err != nil {
			return fmt.Errorf("list devices: %w", err)
		}
		defer portaudio.Terminate()

		styles := cli.NewStyles(cli.DefaultTheme)
		fmt.Println(styles.Header("Input Devices"))
		found := 0
		for _, d := range devices {
			if d.MaxInputChannels == 0 {
				continue
			}
			found++
			name := d.Name
			if d.IsDefaultInput {
				name += " (default)"
			}
			fmt.Println(styles.KeyValue(4, fmt.Sprintf("[%d]", d.Index), name))
			fmt.Println(styles.Note(fmt.Sprintf("       %d ch, %.0f Hz", d.MaxInputChannels, d.DefaultSampleRate)))
		}
		if found == 0 {
			fmt.Println(styles.Note("  no input devices found"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
