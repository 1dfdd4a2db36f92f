package beat

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"
)

// testConfig uses a small sample rate so the analysis window is cheap:
// 1000 Hz * 1s listen duration = 1000 samples, chunks of 100.
func testConfig() Config {
	return Config{
		SampleRate:       1000,
		ChunkSize:        100,
		ListenDuration:   time.Second,
		SilenceThreshold: 0.01,
		SilenceDuration:  2 * time.Second,
		HistorySize:      5,
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func soundChunk(n int) []float32 {
	chunk := make([]float32, n)
	for i := range chunk {
		chunk[i] = float32(0.2 * math.Sin(2*math.Pi*float64(i)/50))
	}
	return chunk
}

func silentChunk(n int) []float32 {
	return make([]float32, n)
}

// feedSound feeds dur worth of sound chunks starting at t0 and returns the
// time after the last chunk.
func feedSound(d *Detector, t0 time.Time, dur time.Duration) time.Time {
	chunkDur := 100 * time.Millisecond // 100 samples at 1kHz
	for elapsed := time.Duration(0); elapsed <= dur; elapsed += chunkDur {
		d.process(soundChunk(100), t0.Add(elapsed))
	}
	return t0.Add(dur + chunkDur)
}

func TestDetectorStateMachine(t *testing.T) {
	t0 := time.Unix(1000, 0)

	t.Run("initial state is waiting", func(t *testing.T) {
		d := NewDetector(testConfig())
		snap := d.Snapshot()
		if snap.State != Waiting || snap.HasBPM {
			t.Errorf("snapshot=%+v", snap)
		}
		if d.CanDance() {
			t.Error("can dance before any sound")
		}
	})

	t.Run("silence keeps waiting", func(t *testing.T) {
		d := NewDetector(testConfig())
		for i := 0; i < 50; i++ {
			d.process(silentChunk(100), t0.Add(time.Duration(i)*100*time.Millisecond))
		}
		if s := d.Snapshot().State; s != Waiting {
			t.Errorf("state=%v", s)
		}
	})

	t.Run("sound enters listening", func(t *testing.T) {
		d := NewDetector(testConfig())
		d.process(soundChunk(100), t0)
		if s := d.Snapshot().State; s != Listening {
			t.Errorf("state=%v", s)
		}
	})

	t.Run("listening returns to waiting after silence timeout", func(t *testing.T) {
		d := NewDetector(testConfig())
		d.process(soundChunk(100), t0)

		d.process(silentChunk(100), t0.Add(time.Second)) // starts silence timer
		if s := d.Snapshot().State; s != Listening {
			t.Fatalf("state=%v after first silent chunk", s)
		}
		d.process(silentChunk(100), t0.Add(3100*time.Millisecond))
		if s := d.Snapshot().State; s != Waiting {
			t.Errorf("state=%v", s)
		}
		if d.window.Len() != 0 {
			t.Errorf("window not cleared: len=%d", d.window.Len())
		}
		if d.historyLen() != 0 {
			t.Errorf("history not cleared: len=%d", d.historyLen())
		}
	})

	t.Run("silence shorter than timeout stays listening", func(t *testing.T) {
		d := NewDetector(testConfig())
		d.process(soundChunk(100), t0)
		d.process(silentChunk(100), t0.Add(100*time.Millisecond))
		d.process(silentChunk(100), t0.Add(200*time.Millisecond))
		d.process(soundChunk(100), t0.Add(300*time.Millisecond))
		if s := d.Snapshot().State; s != Listening {
			t.Errorf("state=%v", s)
		}
	})

	t.Run("valid estimate publishes tempo", func(t *testing.T) {
		d := NewDetector(testConfig())
		d.estimate = func([]float32) (float64, error) { return 120, nil }

		end := feedSound(d, t0, 1200*time.Millisecond)
		snap := d.Snapshot()
		if snap.State != Ready || !snap.HasBPM || snap.BPM != 120 {
			t.Errorf("snapshot=%+v", snap)
		}
		if !d.CanDance() {
			t.Error("cannot dance after publish")
		}
		_ = end
	})

	t.Run("estimator error stays listening", func(t *testing.T) {
		d := NewDetector(testConfig())
		d.estimate = func([]float32) (float64, error) { return 0, errors.New("degenerate") }

		feedSound(d, t0, 1500*time.Millisecond)
		if s := d.Snapshot().State; s != Listening {
			t.Errorf("state=%v", s)
		}
	})

	t.Run("estimation not attempted before listen duration", func(t *testing.T) {
		d := NewDetector(testConfig())
		called := false
		d.estimate = func([]float32) (float64, error) { called = true; return 120, nil }

		// 0.5s of sound: below both the duration and sample gates.
		feedSound(d, t0, 500*time.Millisecond)
		if called {
			t.Error("estimator ran before listen duration elapsed")
		}
	})

	t.Run("ready to silent and back clears history", func(t *testing.T) {
		d := NewDetector(testConfig())
		d.estimate = func([]float32) (float64, error) { return 120, nil }

		end := feedSound(d, t0, 1200*time.Millisecond)
		if s := d.Snapshot().State; s != Ready {
			t.Fatalf("state=%v", s)
		}
		if d.historyLen() != 1 {
			t.Fatalf("history len=%d", d.historyLen())
		}

		d.process(silentChunk(100), end)
		d.process(silentChunk(100), end.Add(2100*time.Millisecond))
		if s := d.Snapshot().State; s != Silent {
			t.Fatalf("state=%v", s)
		}

		d.process(soundChunk(100), end.Add(3*time.Second))
		if s := d.Snapshot().State; s != Listening {
			t.Errorf("state=%v", s)
		}
		if d.historyLen() != 0 {
			t.Errorf("history len=%d immediately after silent->listening", d.historyLen())
		}
	})

	t.Run("short silence while ready keeps dancing", func(t *testing.T) {
		d := NewDetector(testConfig())
		d.estimate = func([]float32) (float64, error) { return 120, nil }

		end := feedSound(d, t0, 1200*time.Millisecond)
		d.process(silentChunk(100), end)
		d.process(soundChunk(100), end.Add(500*time.Millisecond))
		if s := d.Snapshot().State; s != Ready {
			t.Errorf("state=%v", s)
		}
		if !d.CanDance() {
			t.Error("short silence should not stop the dance")
		}
	})
}

func TestDetectorBoundaryEstimates(t *testing.T) {
	cases := []struct {
		bpm    float64
		accept bool
	}{
		{40, false},  // open interval: exactly 40 rejected
		{250, false}, // exactly 250 rejected
		{39, false},
		{251, false},
		{40.5, true},
		{249.5, true},
		{120, true},
	}
	t0 := time.Unix(1000, 0)
	for _, tc := range cases {
		d := NewDetector(testConfig())
		d.estimate = func([]float32) (float64, error) { return tc.bpm, nil }

		feedSound(d, t0, 1200*time.Millisecond)
		snap := d.Snapshot()
		if tc.accept {
			if snap.State != Ready || snap.BPM != tc.bpm {
				t.Errorf("bpm=%v: snapshot=%+v, want accepted", tc.bpm, snap)
			}
		} else {
			if snap.State != Listening || snap.HasBPM {
				t.Errorf("bpm=%v: snapshot=%+v, want rejected", tc.bpm, snap)
			}
		}
	}
}

func TestDetectorPublishesMedian(t *testing.T) {
	// Estimates within one listening phase keep being rejected until the
	// sliding window yields a valid one; the published value is always the
	// median of the accepted history.
	d := NewDetector(testConfig())
	estimates := []float64{300, 118, 0} // first rejected (range), second accepted
	i := 0
	d.estimate = func([]float32) (float64, error) {
		v := estimates[i%len(estimates)]
		i++
		if v == 0 {
			return 0, errors.New("degenerate")
		}
		return v, nil
	}

	feedSound(d, time.Unix(1000, 0), 1500*time.Millisecond)
	snap := d.Snapshot()
	if snap.State != Ready || snap.BPM != 118 {
		t.Errorf("snapshot=%+v", snap)
	}
	if d.historyLen() != 1 {
		t.Errorf("history len=%d", d.historyLen())
	}
}

func TestDetectorWindowBounded(t *testing.T) {
	cfg := testConfig()
	d := NewDetector(cfg)
	d.estimate = func([]float32) (float64, error) { return 120, nil }

	// Dance for a long time: the accumulation window must stay bounded to
	// twice the analysis window.
	end := feedSound(d, time.Unix(1000, 0), 1200*time.Millisecond)
	for i := 0; i < 500; i++ {
		d.process(soundChunk(100), end.Add(time.Duration(i)*100*time.Millisecond))
	}
	if max := 2 * d.analysisWindow; d.window.Len() > max {
		t.Errorf("window len=%d max=%d", d.window.Len(), max)
	}
}

// TestDetectorEndToEnd runs the real estimator against a synthetic click
// track pushed through the state machine chunk by chunk.
func TestDetectorEndToEnd(t *testing.T) {
	const rate = 44100
	cfg := testConfig()
	cfg.SampleRate = rate
	cfg.ChunkSize = 2048
	cfg.ListenDuration = 3 * time.Second
	d := NewDetector(cfg)

	samples, want := clickTrack(120, rate, 6)
	t0 := time.Unix(1000, 0)
	chunkDur := time.Duration(cfg.ChunkSize) * time.Second / rate

	for i := 0; i+cfg.ChunkSize <= len(samples); i += cfg.ChunkSize {
		d.process(samples[i:i+cfg.ChunkSize], t0.Add(time.Duration(i/cfg.ChunkSize)*chunkDur))
	}

	snap := d.Snapshot()
	if snap.State != Ready || !snap.HasBPM {
		t.Fatalf("snapshot=%+v", snap)
	}
	if math.Abs(snap.BPM-want) > 3 {
		t.Errorf("bpm=%.1f want=%.1f", snap.BPM, want)
	}
}

// fakeSource blocks reads on a channel and returns io.EOF once closed,
// mimicking a capture device released mid-read.
type fakeSource struct {
	chunks chan []float32
	closed chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		chunks: make(chan []float32, 16),
		closed: make(chan struct{}),
	}
}

func (f *fakeSource) Read() ([]float32, error) {
	select {
	case c := <-f.chunks:
		return c, nil
	case <-f.closed:
		return nil, io.EOF
	}
}

func (f *fakeSource) Close() error {
	select {
	case <-f.closed:
	default:
		close(f.closed)
	}
	return nil
}

func TestDetectorStartStop(t *testing.T) {
	t.Run("stop joins and closes source", func(t *testing.T) {
		src := newFakeSource()
		cfg := testConfig()
		cfg.OpenSource = func() (Source, error) { return src, nil }
		d := NewDetector(cfg)

		d.Start()
		src.chunks <- soundChunk(100)

		done := make(chan struct{})
		go func() {
			d.Stop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			t.Fatal("stop did not return")
		}

		select {
		case <-src.closed:
		default:
			t.Error("source not closed on stop")
		}
	})

	t.Run("start is idempotent", func(t *testing.T) {
		opens := 0
		cfg := testConfig()
		cfg.OpenSource = func() (Source, error) {
			opens++
			return newFakeSource(), nil
		}
		d := NewDetector(cfg)
		d.Start()
		d.Start()
		if opens != 1 {
			t.Errorf("opens=%d", opens)
		}
		d.Stop()
	})

	t.Run("open failure leaves detector idle", func(t *testing.T) {
		cfg := testConfig()
		cfg.OpenSource = func() (Source, error) { return nil, errors.New("no device") }
		d := NewDetector(cfg)
		d.Start()
		if d.CanDance() {
			t.Error("can dance without a device")
		}
		d.Stop() // must not panic or block
	})
}
