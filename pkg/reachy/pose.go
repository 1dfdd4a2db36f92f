// Package reachy is a minimal client for the Reachy Mini daemon. It models
// robot poses (head orientation, antennas, body yaw) and pushes pose targets
// to the daemon over its websocket control endpoint.
package reachy

import "math"

// Offset is a head orientation in radians.
type Offset struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Clamp returns the offset restricted to the head's safe range.
func (o Offset) Clamp() Offset {
	return Offset{
		Roll:  clamp(o.Roll, -0.6, 0.6),
		Pitch: clamp(o.Pitch, -0.6, 0.6),
		Yaw:   clamp(o.Yaw, -1.5, 1.5),
	}
}

// Pose is a complete pose target.
type Pose struct {
	Head     Offset     `json:"head"`
	Antennas [2]float64 `json:"antennas"`
	BodyYaw  float64    `json:"body_yaw"`
}

// Neutral returns the rest pose: head level, antennas centered, body forward.
func Neutral() Pose {
	return Pose{}
}

// HeadPose returns a pose with only the head pitched, in degrees. Positive
// pitch tilts the head down.
func HeadPose(pitchDeg float64) Pose {
	return Pose{Head: Offset{Pitch: Deg(pitchDeg)}}
}

// Clamp returns the pose with every joint restricted to its safe range.
func (p Pose) Clamp() Pose {
	return Pose{
		Head: p.Head.Clamp(),
		Antennas: [2]float64{
			clamp(p.Antennas[0], -math.Pi, math.Pi),
			clamp(p.Antennas[1], -math.Pi, math.Pi),
		},
		BodyYaw: clamp(p.BodyYaw, -2.8, 2.8),
	}
}

// Deg converts degrees to radians.
func Deg(deg float64) float64 {
	return deg * math.Pi / 180
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
