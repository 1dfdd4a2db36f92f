package beat

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/kinetobot/headbang/pkg/audio/pcm"
	"github.com/kinetobot/headbang/pkg/buffer"
)

// Config controls the detector. Zero fields take the defaults below.
type Config struct {
	// SampleRate is the capture sample rate in Hz (default 44100).
	SampleRate int

	// ChunkSize is the number of samples per capture read (default 2048).
	ChunkSize int

	// ListenDuration is the minimum time of continuous sound required
	// before tempo estimation runs (default 5s).
	ListenDuration time.Duration

	// SilenceThreshold is the RMS level below which a chunk counts as
	// silence (default 0.01).
	SilenceThreshold float64

	// SilenceDuration is how long silence must persist before the
	// detector gives up on the current music (default 2s).
	SilenceDuration time.Duration

	// HistorySize is the capacity of the tempo smoothing ring (default 5).
	HistorySize int

	// JoinTimeout bounds how long Stop waits for the capture loop
	// (default 2s).
	JoinTimeout time.Duration

	// OpenSource opens the capture device. Required.
	OpenSource func() (Source, error)

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = 44100
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 2048
	}
	if c.ListenDuration <= 0 {
		c.ListenDuration = 5 * time.Second
	}
	if c.SilenceThreshold <= 0 {
		c.SilenceThreshold = 0.01
	}
	if c.SilenceDuration <= 0 {
		c.SilenceDuration = 2 * time.Second
	}
	if c.HistorySize <= 0 {
		c.HistorySize = 5
	}
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = 2 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Snapshot is the atomically-read view of the detector exposed to other
// goroutines. BPM is only meaningful when State is Ready and HasBPM is true.
type Snapshot struct {
	State  State
	BPM    float64
	HasBPM bool
}

// Detector listens to a capture source, classifies sound vs silence per
// chunk, and estimates the tempo once enough signal has accumulated.
//
// Start runs the capture loop on its own goroutine; the only state shared
// with other goroutines is the snapshot, guarded by a mutex. Everything
// else (accumulation window, tempo history, timers) is owned by the loop.
type Detector struct {
	cfg    Config
	logger *slog.Logger

	// analysisWindow is the minimum sample count for estimation:
	// SampleRate * ListenDuration. The accumulation window is bounded
	// to twice that.
	analysisWindow int

	// estimate is swappable for tests; defaults to Estimator.Estimate.
	estimate func([]float32) (float64, error)

	window  *buffer.Window[float32]
	history *buffer.Ring[float64]

	// timers owned by the capture loop
	musicStart   time.Time
	silenceStart time.Time

	mu      sync.Mutex
	state   State
	bpm     float64
	hasBPM  bool
	running bool
	src     Source
	done    chan struct{}
}

// NewDetector creates a Detector. The returned detector is idle until
// Start is called.
func NewDetector(cfg Config) *Detector {
	cfg = cfg.withDefaults()
	analysisWindow := cfg.SampleRate * int(cfg.ListenDuration/time.Millisecond) / 1000

	est := NewEstimator(cfg.SampleRate)
	return &Detector{
		cfg:            cfg,
		logger:         cfg.Logger,
		analysisWindow: analysisWindow,
		estimate:       est.Estimate,
		window:         buffer.WindowN[float32](2 * analysisWindow),
		history:        buffer.RingN[float64](cfg.HistorySize),
		state:          Waiting,
	}
}

// Start begins the capture loop. It is idempotent while running. If the
// capture device cannot be opened the failure is logged and the detector
// stays idle; the caller continues without beat detection.
func (d *Detector) Start() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	src, err := d.cfg.OpenSource()
	if err != nil {
		d.logger.Error("beat: cannot open capture device, detection disabled", "err", err)
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
		return
	}

	done := make(chan struct{})
	d.mu.Lock()
	d.src = src
	d.done = done
	d.mu.Unlock()

	d.logger.Info("beat: capture started",
		"sample_rate", d.cfg.SampleRate, "chunk_size", d.cfg.ChunkSize)
	go d.captureLoop(src, done)
}

// Stop signals the capture loop to terminate, closes the capture device to
// unblock any pending read, and waits up to JoinTimeout for the loop to
// exit. A timed-out join is logged, not fatal.
func (d *Detector) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	src := d.src
	done := d.done
	d.mu.Unlock()

	// Closing the source unblocks the loop's blocking read.
	if src != nil {
		_ = src.Close()
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(d.cfg.JoinTimeout):
			d.logger.Warn("beat: capture loop did not exit within join timeout")
		}
	}
}

// Snapshot returns the latest committed state and BPM. Never blocks on
// capture work.
func (d *Detector) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{State: d.state, BPM: d.bpm, HasBPM: d.hasBPM}
}

// CanDance reports whether the detector has a published tempo.
func (d *Detector) CanDance() bool {
	s := d.Snapshot()
	return s.State == Ready && s.HasBPM
}

func (d *Detector) captureLoop(src Source, done chan struct{}) {
	defer close(done)
	defer src.Close()

	for {
		if d.stopped() {
			return
		}
		chunk, err := src.Read()
		if err != nil {
			if d.stopped() || err == io.EOF {
				return
			}
			// Transient device hiccup: log and keep capturing.
			d.logger.Debug("beat: capture read failed", "err", err)
			continue
		}
		d.process(chunk, time.Now())
	}
}

func (d *Detector) stopped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.running
}

// process feeds one captured chunk through the state machine. Called only
// from the capture loop (or tests); now is the chunk's arrival time.
func (d *Detector) process(chunk []float32, now time.Time) {
	rms := pcm.RMS(chunk)
	isSound := rms >= d.cfg.SilenceThreshold

	switch d.currentState() {
	case Waiting:
		if isSound {
			d.enterListening(chunk, now)
		}

	case Listening:
		if isSound {
			d.window.Append(chunk)
			d.silenceStart = time.Time{}
			d.tryEstimate(now)
		} else if d.silenceElapsed(now) {
			d.logger.Info("beat: music lost before tempo found, waiting again")
			d.window.Reset()
			d.history.Reset()
			d.musicStart = time.Time{}
			d.silenceStart = time.Time{}
			d.setState(Waiting)
		}

	case Ready:
		if isSound {
			d.window.Append(chunk)
			d.silenceStart = time.Time{}
		} else if d.silenceElapsed(now) {
			d.logger.Info("beat: silence detected, dancing stops")
			d.silenceStart = time.Time{}
			d.setState(Silent)
		}

	case Silent:
		if isSound {
			// New song: forget the previous tempo history.
			d.history.Reset()
			d.enterListening(chunk, now)
		}
	}
}

func (d *Detector) enterListening(chunk []float32, now time.Time) {
	d.logger.Info("beat: music detected, estimating tempo")
	d.musicStart = now
	d.silenceStart = time.Time{}
	d.window.Reset()
	d.window.Append(chunk)
	d.setState(Listening)
}

// silenceElapsed starts the silence timer on first call and reports whether
// SilenceDuration has passed since.
func (d *Detector) silenceElapsed(now time.Time) bool {
	if d.silenceStart.IsZero() {
		d.silenceStart = now
		return false
	}
	return now.Sub(d.silenceStart) >= d.cfg.SilenceDuration
}

// tryEstimate runs tempo estimation once the listen duration and minimum
// sample count are both satisfied. Failures and out-of-range estimates are
// skipped; estimation is retried on the next qualifying chunk.
func (d *Detector) tryEstimate(now time.Time) {
	if d.musicStart.IsZero() || now.Sub(d.musicStart) < d.cfg.ListenDuration {
		return
	}
	if d.window.Len() < d.analysisWindow {
		return
	}

	tempo, err := d.estimate(d.window.Tail(d.analysisWindow))
	if err != nil {
		d.logger.Debug("beat: tempo estimation failed", "err", err)
		return
	}
	if tempo <= MinBPM || tempo >= MaxBPM {
		d.logger.Debug("beat: tempo out of range, discarded", "bpm", tempo)
		return
	}

	d.history.Push(tempo)
	published := pcm.Median(d.history.Values())

	d.mu.Lock()
	d.bpm = published
	d.hasBPM = true
	d.state = Ready
	d.mu.Unlock()

	d.logger.Info("beat: tempo published, dance on", "bpm", published)
}

func (d *Detector) currentState() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Detector) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// historyLen is exposed for tests.
func (d *Detector) historyLen() int {
	return d.history.Len()
}
