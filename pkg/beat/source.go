package beat

// Source captures audio from a microphone or other input.
// Read blocks until one chunk of mono float32 samples is available.
// Close releases the device and unblocks any pending Read.
type Source interface {
	Read() ([]float32, error)
	Close() error
}
