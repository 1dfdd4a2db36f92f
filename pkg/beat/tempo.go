package beat

import (
	"errors"
	"math"
)

// Tempo bounds. Estimates are accepted only strictly inside this range.
const (
	MinBPM = 40.0
	MaxBPM = 250.0
)

var (
	// ErrShortSignal is returned when the analysis window holds too few
	// samples for a meaningful estimate.
	ErrShortSignal = errors.New("beat: not enough samples for tempo estimation")

	// ErrNoTempo is returned for degenerate signals with no usable
	// periodicity (flat energy, DC, pure noise floor).
	ErrNoTempo = errors.New("beat: no periodicity found in signal")
)

// Estimator derives a tempo in BPM from a window of mono float32 samples.
//
// The approach is onset-energy autocorrelation: a short-time energy envelope
// is computed over Hann-windowed frames, differentiated and half-wave
// rectified to emphasize note onsets, then autocorrelated. The strongest
// autocorrelation peak in the 40-250 BPM lag range gives the beat period.
// Peaks at integer multiples of the true period score similarly, so the
// sub-multiples of the strongest lag are probed and the smallest one with
// comparable evidence (the fundamental) wins.
type Estimator struct {
	sampleRate int
	winSize    int
	hopSize    int
}

// NewEstimator creates an Estimator for the given capture sample rate.
func NewEstimator(sampleRate int) *Estimator {
	return &Estimator{
		sampleRate: sampleRate,
		winSize:    1024,
		hopSize:    512,
	}
}

// Estimate returns the estimated tempo of the samples in BPM.
// The caller is responsible for range validation; Estimate only rejects
// inputs it cannot analyze at all.
func (e *Estimator) Estimate(samples []float32) (float64, error) {
	// Below ~2 seconds the autocorrelation lag range for slow tempos
	// does not fit in the envelope.
	if len(samples) < 2*e.sampleRate {
		return 0, ErrShortSignal
	}

	onset := e.onsetStrength(samples)
	if len(onset) == 0 {
		return 0, ErrShortSignal
	}

	// Remove the mean so the autocorrelation is not dominated by DC.
	var mean, peak float64
	for _, v := range onset {
		mean += v
	}
	mean /= float64(len(onset))
	for i, v := range onset {
		onset[i] = v - mean
		if a := math.Abs(onset[i]); a > peak {
			peak = a
		}
	}
	if peak < 1e-12 {
		return 0, ErrNoTempo
	}

	ac := autocorrelate(onset)
	if ac[0] <= 0 {
		return 0, ErrNoTempo
	}

	frameRate := float64(e.sampleRate) / float64(e.hopSize)
	minLag := int(math.Round(60 * frameRate / MaxBPM))
	maxLag := int(math.Round(60 * frameRate / MinBPM))
	if maxLag >= len(onset) {
		maxLag = len(onset) - 1
	}
	if minLag < 1 {
		minLag = 1
	}
	if minLag >= maxLag {
		return 0, ErrShortSignal
	}

	lag := pickPeakLag(ac, minLag, maxLag)
	if lag == 0 {
		return 0, ErrNoTempo
	}

	refined := parabolicInterp(ac, lag)
	return 60 * frameRate / refined, nil
}

// onsetStrength computes the half-wave rectified first difference of the
// Hann-weighted short-time energy envelope.
func (e *Estimator) onsetStrength(samples []float32) []float64 {
	n := len(samples)
	if n < e.winSize {
		return nil
	}
	numFrames := (n-e.winSize)/e.hopSize + 1

	window := make([]float64, e.winSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(e.winSize-1)))
	}

	env := make([]float64, numFrames)
	for t := 0; t < numFrames; t++ {
		start := t * e.hopSize
		var sum float64
		for i := 0; i < e.winSize; i++ {
			s := float64(samples[start+i]) * window[i]
			sum += s * s
		}
		env[t] = sum / float64(e.winSize)
	}

	onset := make([]float64, numFrames)
	for t := 1; t < numFrames; t++ {
		if d := env[t] - env[t-1]; d > 0 {
			onset[t] = d
		}
	}
	return onset
}

// autocorrelate computes the (biased) autocorrelation of x via FFT.
func autocorrelate(x []float64) []float64 {
	n := nextPow2(2 * len(x))
	re := make([]float64, n)
	im := make([]float64, n)
	copy(re, x)

	fft(re, im)
	for i := range re {
		re[i] = re[i]*re[i] + im[i]*im[i]
		im[i] = 0
	}
	ifft(re, im)

	return re[:len(x)]
}

// pickPeakLag returns the lag of the autocorrelation peak in [minLag, maxLag]
// that corresponds to the fundamental beat period.
//
// A beat period that falls between envelope bins splits its peak across two
// neighbors, so peaks are scored by a 3-bin sum rather than a single bin.
// The strongest peak can still sit on a multiple of the beat period (the
// autocorrelation of a periodic signal peaks at every multiple), so after
// finding the global maximum the sub-multiple lags are probed smallest
// first, and the first one carrying comparable evidence wins.
func pickPeakLag(ac []float64, minLag, maxLag int) int {
	strength := func(lag int) float64 {
		s := ac[lag]
		if lag > 0 {
			s += ac[lag-1]
		}
		if lag+1 < len(ac) {
			s += ac[lag+1]
		}
		return s
	}

	best := 0
	var bestS float64
	for lag := minLag; lag <= maxLag; lag++ {
		if s := strength(lag); s > bestS {
			best, bestS = lag, s
		}
	}
	if best == 0 || bestS <= 0 {
		return 0
	}

	chosen := best
	for div := 8; div >= 2; div-- {
		cand := int(math.Round(float64(best) / float64(div)))
		if cand < minLag || cand > maxLag {
			continue
		}
		// best itself carries up to a bin of rounding, so the
		// sub-multiple may land one bin off.
		lag := cand
		for _, c := range []int{cand - 1, cand + 1} {
			if c >= minLag && c <= maxLag && strength(c) > strength(lag) {
				lag = c
			}
		}
		if strength(lag) >= 0.85*bestS {
			chosen = lag
			break
		}
	}

	// Snap to the raw-ac maximum so parabolic refinement centers on the
	// actual peak bin.
	for _, c := range []int{chosen - 1, chosen + 1} {
		if c >= minLag && c <= maxLag && ac[c] > ac[chosen] {
			chosen = c
		}
	}
	return chosen
}

// parabolicInterp refines an integer peak lag to sub-bin precision by
// fitting a parabola through the peak and its neighbors.
func parabolicInterp(ac []float64, lag int) float64 {
	if lag <= 0 || lag+1 >= len(ac) {
		return float64(lag)
	}
	y0, y1, y2 := ac[lag-1], ac[lag], ac[lag+1]
	denom := y0 - 2*y1 + y2
	if denom == 0 {
		return float64(lag)
	}
	delta := 0.5 * (y0 - y2) / denom
	if delta > 0.5 || delta < -0.5 {
		return float64(lag)
	}
	return float64(lag) + delta
}
