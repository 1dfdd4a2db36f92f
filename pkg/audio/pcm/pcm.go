// Package pcm provides sample-level math for mono float32 PCM audio.
//
// The beat detector works on normalized float32 samples in [-1, 1]. This
// package holds the small numeric helpers shared by the detector and its
// tests: RMS energy (the sound/silence classifier) and the median used to
// smooth tempo estimates.
package pcm

import (
	"math"
	"slices"
)

// RMS returns the root-mean-square energy of the samples.
// Returns 0 for an empty slice.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		f := float64(s)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Median returns the median of vs. For an even count it returns the mean
// of the two middle values. Returns 0 for an empty slice.
// The input is not modified.
func Median(vs []float64) float64 {
	n := len(vs)
	if n == 0 {
		return 0
	}
	sorted := slices.Clone(vs)
	slices.Sort(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
