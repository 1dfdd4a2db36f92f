package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kinetobot/headbang/pkg/audio/portaudio"
	"github.com/kinetobot/headbang/pkg/beat"
	"github.com/kinetobot/headbang/pkg/ble"
	"github.com/kinetobot/headbang/pkg/cli"
	"github.com/kinetobot/headbang/pkg/dance"
	"github.com/kinetobot/headbang/pkg/reachy"
)

var (
	flagDevice   []string
	flagAddr     string
	flagDuration time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Listen to the microphone and headbang to the detected BPM",
	Long: `Runs the full pipeline: microphone capture, BPM detection, robot
motion, and BLE LED sync.

The robot nods head-down on each beat and head-up on the off-beat,
alternating antenna and body direction every beat. The LED strip runs a
rainbow effect while dancing and goes dark between beats and when the
music stops.

The Reachy Mini daemon must be running. The BLE LED is optional: if it
cannot be found within the discovery timeout the program continues
without LED sync.`,
	RunE: runHeadbang,
}

func init() {
	runCmd.Flags().StringSliceVar(&flagDevice, "device", nil, "input device name keywords (default: system default input)")
	runCmd.Flags().StringVar(&flagAddr, "addr", "", "Reachy Mini daemon address (overrides config)")
	runCmd.Flags().DurationVar(&flagDuration, "duration", 0, "session length (overrides config)")
	rootCmd.AddCommand(runCmd)
}

func runHeadbang(cmd *cobra.Command, args []string) error {
	setupLogging()
	logger := slog.Default()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.Robot.Addr = flagAddr
	}
	duration := seconds(cfg.Dance.DurationSeconds)
	if flagDuration > 0 {
		duration = flagDuration
	}
	keywords := cfg.Audio.DeviceKeywords
	if len(flagDevice) > 0 {
		keywords = flagDevice
	}

	styles := cli.NewStyles(cli.DefaultTheme)
	fmt.Println(styles.Header("headbang"))
	fmt.Println(styles.KeyValue(9, "robot", cfg.Robot.Addr))
	fmt.Println(styles.KeyValue(9, "led", cfg.LED.DeviceName))
	fmt.Println(styles.KeyValue(9, "duration", duration))
	fmt.Println(styles.Note("  press ctrl-c to stop"))

	// The robot is mandatory; without the daemon there is nothing to drive.
	robot, err := reachy.Dial(cfg.Robot.Addr, logger)
	if err != nil {
		return fmt.Errorf("is the Reachy Mini daemon running? %w", err)
	}
	defer robot.Close()

	// The LED is best-effort: the channel degrades to a no-op when the
	// peripheral cannot be found.
	led := ble.NewChannel(ble.Config{
		DeviceName:         cfg.LED.DeviceName,
		ServiceUUID:        cfg.LED.ServiceUUID,
		CharacteristicUUID: cfg.LED.CharacteristicUUID,
		DiscoveryTimeout:   seconds(cfg.LED.DiscoverySeconds),
		Logger:             logger,
	})
	led.Start()
	defer led.Stop()

	detector := beat.NewDetector(beat.Config{
		SampleRate:       cfg.Audio.SampleRate,
		ChunkSize:        cfg.Audio.ChunkSize,
		ListenDuration:   seconds(cfg.Detector.ListenSeconds),
		SilenceThreshold: cfg.Detector.SilenceThreshold,
		SilenceDuration:  seconds(cfg.Detector.SilenceSeconds),
		HistorySize:      cfg.Detector.HistorySize,
		OpenSource: func() (beat.Source, error) {
			return portaudio.NewInputStream(float64(cfg.Audio.SampleRate), cfg.Audio.ChunkSize, keywords)
		},
		Logger: logger,
	})
	detector.Start()
	defer detector.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	dance.Run(ctx, detector, robot, led, dance.Config{
		HeadDownDeg: cfg.Dance.HeadDownDeg,
		HeadUpDeg:   cfg.Dance.HeadUpDeg,
		AntennaDeg:  cfg.Dance.AntennaDeg,
		BodyYawDeg:  cfg.Dance.BodyYawDeg,
		Logger:      logger,
	})
	return nil
}

// seconds converts a config value in seconds to a Duration.
func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
