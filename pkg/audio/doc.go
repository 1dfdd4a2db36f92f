// Package audio provides audio capture and sample processing utilities.
//
// This package serves as an umbrella for audio-related sub-packages:
//
//   - pcm: sample-level math (RMS energy, medians)
//   - portaudio: CGO bindings for microphone capture via PortAudio
//
// For the bounded buffers used by the beat detector, see the separate
// github.com/kinetobot/headbang/pkg/buffer package.
package audio
