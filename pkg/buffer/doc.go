// Package buffer provides the two bounded buffer shapes used by the beat
// detector.
//
//   - Window: a growable sample buffer with a hard upper bound. When the
//     bound is exceeded the oldest samples are discarded, so the buffer
//     always holds the most recent data. Used to accumulate audio while
//     listening for a tempo.
//
//   - Ring: a fixed-capacity ring of the last N values. Pushing to a full
//     ring evicts the oldest value. Used to smooth tempo estimates.
//
// Neither type is synchronized: both are owned by a single goroutine
// (the detector's capture loop) and must not be shared without external
// locking.
package buffer
