package portaudio

import (
	"io"
	"sync"
)

// InputStream captures mono float32 audio from one input device.
// Reads block until a full buffer of samples is available.
type InputStream struct {
	stream *Stream
	mu     sync.Mutex
	closed bool
}

// NewInputStream opens and starts a capture stream on the first device whose
// name contains one of nameKeywords, falling back to the default input
// device when no keyword matches (or none are given).
func NewInputStream(sampleRate float64, framesPerBuffer int, nameKeywords []string) (*InputStream, error) {
	deviceIndex := -1
	if len(nameKeywords) > 0 {
		dev, err := FindInputDevice(nameKeywords)
		if err != nil {
			return nil, err
		}
		if dev != nil {
			deviceIndex = dev.Index
		}
	}

	stream, err := openInputStream(deviceIndex, sampleRate, framesPerBuffer)
	if err != nil {
		return nil, err
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, err
	}

	return &InputStream{stream: stream}, nil
}

// Read performs one blocking read and returns a freshly allocated chunk of
// framesPerBuffer samples.
func (is *InputStream) Read() ([]float32, error) {
	is.mu.Lock()
	defer is.mu.Unlock()

	if is.closed {
		return nil, io.EOF
	}
	return is.stream.Read()
}

// Close stops and closes the stream. Safe to call multiple times.
func (is *InputStream) Close() error {
	is.mu.Lock()
	defer is.mu.Unlock()

	if is.closed {
		return nil
	}
	is.closed = true

	return is.stream.Close()
}
