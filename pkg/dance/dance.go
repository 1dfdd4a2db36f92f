// Package dance drives the headbang motion loop. It polls the beat detector
// and, once a tempo is locked, runs a two-phase nod per beat: head down on
// the beat with the LED in rainbow mode, head up on the off-beat with the
// LED dark. Antenna and body-yaw direction alternate every beat.
package dance

import (
	"context"
	"log/slog"
	"time"

	"github.com/kinetobot/headbang/pkg/beat"
	"github.com/kinetobot/headbang/pkg/reachy"
)

// Beats reports the current detection state.
type Beats interface {
	Snapshot() beat.Snapshot
}

// Actuator receives pose targets.
type Actuator interface {
	SetTarget(pose reachy.Pose) error
}

// LED stages LED commands via the peripheral channel.
type LED interface {
	Rainbow()
	Off()
}

// Config sets the motion amplitudes. Zero fields take the defaults.
type Config struct {
	// HeadDownDeg and HeadUpDeg are the pitch amplitudes of the two nod
	// phases, in degrees (defaults 12 and -8).
	HeadDownDeg float64
	HeadUpDeg   float64

	// AntennaDeg is the antenna swing amplitude in degrees (default 30).
	AntennaDeg float64

	// BodyYawDeg is the body rotation amplitude in degrees (default 15).
	BodyYawDeg float64

	// IdlePoll is how often the loop re-checks the detector while no
	// tempo is locked (default 100ms).
	IdlePoll time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.HeadDownDeg == 0 {
		c.HeadDownDeg = 12
	}
	if c.HeadUpDeg == 0 {
		c.HeadUpDeg = -8
	}
	if c.AntennaDeg == 0 {
		c.AntennaDeg = 30
	}
	if c.BodyYawDeg == 0 {
		c.BodyYawDeg = 15
	}
	if c.IdlePoll <= 0 {
		c.IdlePoll = 100 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// halfBeat returns half a beat period at the given tempo: the duration of
// one nod phase.
func halfBeat(bpm float64) time.Duration {
	return time.Duration(30 / bpm * float64(time.Second))
}

// Run drives the motion loop until ctx is done. On return the robot has
// been sent exactly one neutral pose and the LED exactly one final off.
func Run(ctx context.Context, beats Beats, actuator Actuator, led LED, cfg Config) {
	cfg = cfg.withDefaults()
	logger := cfg.Logger

	defer func() {
		if err := actuator.SetTarget(reachy.Neutral()); err != nil {
			logger.Warn("dance: neutral pose failed", "err", err)
		}
		led.Off()
		logger.Info("dance: stopped")
	}()

	left := true
	dancing := false
	for ctx.Err() == nil {
		snap := beats.Snapshot()
		if snap.State != beat.Ready || !snap.HasBPM {
			if dancing {
				dancing = false
				logger.Info("dance: tempo lost, idling")
			}
			sleep(ctx, cfg.IdlePoll)
			continue
		}
		if !dancing {
			dancing = true
			logger.Info("dance: locked", "bpm", snap.BPM)
		}

		phase := halfBeat(snap.BPM)
		sign := 1.0
		if !left {
			sign = -1
		}
		antenna := sign * reachy.Deg(cfg.AntennaDeg)
		bodyYaw := sign * reachy.Deg(cfg.BodyYawDeg)

		// Beat: head down, antennas and body toward the parity side.
		down := reachy.HeadPose(cfg.HeadDownDeg)
		down.Antennas = [2]float64{antenna, antenna}
		down.BodyYaw = bodyYaw
		if err := actuator.SetTarget(down); err != nil {
			logger.Warn("dance: set target failed", "err", err)
		}
		led.Rainbow()
		if !sleep(ctx, phase) {
			break
		}

		// Off-beat: head up, antennas and body swung back.
		up := reachy.HeadPose(cfg.HeadUpDeg)
		up.Antennas = [2]float64{-antenna, -antenna}
		up.BodyYaw = -bodyYaw
		if err := actuator.SetTarget(up); err != nil {
			logger.Warn("dance: set target failed", "err", err)
		}
		led.Off()
		if !sleep(ctx, phase) {
			break
		}

		left = !left
	}
}

// sleep waits for d or until ctx is done, reporting whether the full wait
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
