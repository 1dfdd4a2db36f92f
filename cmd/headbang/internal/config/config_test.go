package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := Default(); !reflect.DeepEqual(cfg, want) {
		t.Errorf("cfg=%+v, want defaults %+v", cfg, want)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
audio:
  sample_rate: 48000
detector:
  listen_seconds: 3
dance:
  body_yaw_deg: 20
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("sample_rate=%d, want 48000", cfg.Audio.SampleRate)
	}
	if cfg.Detector.ListenSeconds != 3 {
		t.Errorf("listen_seconds=%v, want 3", cfg.Detector.ListenSeconds)
	}
	if cfg.Dance.BodyYawDeg != 20 {
		t.Errorf("body_yaw_deg=%v, want 20", cfg.Dance.BodyYawDeg)
	}
	// Untouched fields keep their defaults.
	if cfg.Audio.ChunkSize != 2048 {
		t.Errorf("chunk_size=%d, want default 2048", cfg.Audio.ChunkSize)
	}
	if cfg.Detector.HistorySize != 5 {
		t.Errorf("history_size=%d, want default 5", cfg.Detector.HistorySize)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	for name, data := range map[string]string{
		"zero sample rate":   "audio:\n  sample_rate: 0\n",
		"negative threshold": "detector:\n  silence_threshold: -1\n",
		"zero duration":      "dance:\n  duration_seconds: 0\n",
		"malformed yaml":     "audio: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load: got nil error")
			}
		})
	}
}
