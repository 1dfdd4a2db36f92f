// Package config loads the headbang configuration file.
//
// The config is a single YAML file, by default at
// os.UserConfigDir()/headbang/config.yaml:
//
//	~/Library/Application Support/headbang/config.yaml   (macOS)
//	~/.config/headbang/config.yaml                       (Linux)
//
// Every field is optional; missing fields keep their defaults. Durations
// are plain seconds so the file reads like the knobs it tunes.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/kinetobot/headbang/pkg/ble"
)

const (
	appDir     = "headbang"
	configFile = "config.yaml"
)

// Audio selects and shapes the microphone input.
type Audio struct {
	// SampleRate in Hz.
	SampleRate int `yaml:"sample_rate"`
	// ChunkSize is the number of samples per capture read.
	ChunkSize int `yaml:"chunk_size"`
	// DeviceKeywords select an input device by substring match on its
	// name. Empty means the system default input.
	DeviceKeywords []string `yaml:"device_keywords"`
}

// Detector tunes the beat detection state machine.
type Detector struct {
	// ListenSeconds is how much continuous music is accumulated before
	// a tempo estimate.
	ListenSeconds float64 `yaml:"listen_seconds"`
	// SilenceThreshold is the RMS level below which a chunk counts as
	// silence.
	SilenceThreshold float64 `yaml:"silence_threshold"`
	// SilenceSeconds is how long silence must persist before the music
	// is considered over.
	SilenceSeconds float64 `yaml:"silence_seconds"`
	// HistorySize is the number of recent estimates the published BPM
	// is the median of.
	HistorySize int `yaml:"history_size"`
}

// LED configures the BLE LED peripheral.
type LED struct {
	DeviceName         string  `yaml:"device_name"`
	ServiceUUID        string  `yaml:"service_uuid"`
	CharacteristicUUID string  `yaml:"characteristic_uuid"`
	DiscoverySeconds   float64 `yaml:"discovery_seconds"`
}

// Robot points at the Reachy Mini daemon.
type Robot struct {
	// Addr is the daemon's websocket host:port.
	Addr string `yaml:"addr"`
}

// Dance sets the motion amplitudes and session length.
type Dance struct {
	HeadDownDeg float64 `yaml:"head_down_deg"`
	HeadUpDeg   float64 `yaml:"head_up_deg"`
	AntennaDeg  float64 `yaml:"antenna_deg"`
	BodyYawDeg  float64 `yaml:"body_yaw_deg"`
	// DurationSeconds bounds the whole session.
	DurationSeconds float64 `yaml:"duration_seconds"`
}

// Config is the full configuration tree.
type Config struct {
	Audio    Audio    `yaml:"audio"`
	Detector Detector `yaml:"detector"`
	LED      LED      `yaml:"led"`
	Robot    Robot    `yaml:"robot"`
	Dance    Dance    `yaml:"dance"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Audio: Audio{
			SampleRate: 44100,
			ChunkSize:  2048,
		},
		Detector: Detector{
			ListenSeconds:    5,
			SilenceThreshold: 0.01,
			SilenceSeconds:   2,
			HistorySize:      5,
		},
		LED: LED{
			DeviceName:         ble.DefaultDeviceName,
			ServiceUUID:        ble.DefaultServiceUUID,
			CharacteristicUUID: ble.DefaultCharacteristicUUID,
			DiscoverySeconds:   10,
		},
		Robot: Robot{
			Addr: "localhost:8000",
		},
		Dance: Dance{
			HeadDownDeg:     12,
			HeadUpDeg:       -8,
			AntennaDeg:      30,
			BodyYawDeg:      15,
			DurationSeconds: 3000,
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, configFile), nil
}

// Load reads the config at path, layering it over the defaults. A missing
// file is not an error: the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.ChunkSize <= 0 {
		return fmt.Errorf("audio.chunk_size must be positive, got %d", c.Audio.ChunkSize)
	}
	if c.Detector.ListenSeconds <= 0 {
		return fmt.Errorf("detector.listen_seconds must be positive, got %v", c.Detector.ListenSeconds)
	}
	if c.Detector.SilenceThreshold <= 0 {
		return fmt.Errorf("detector.silence_threshold must be positive, got %v", c.Detector.SilenceThreshold)
	}
	if c.Detector.HistorySize <= 0 {
		return fmt.Errorf("detector.history_size must be positive, got %d", c.Detector.HistorySize)
	}
	if c.Dance.DurationSeconds <= 0 {
		return fmt.Errorf("dance.duration_seconds must be positive, got %v", c.Dance.DurationSeconds)
	}
	return nil
}
