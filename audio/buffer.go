// Package audio is the boundary between the players and the sound card: a mono PCM buffer type,
// the scheduling contracts a player drives (Sink, Bus, Param, Sound), a software Mixer that implements
// them against a sample clock, a real-time Output and WAV export.
package audio

// Buffer is a mono PCM sample in the range [-1, 1].
// Buffers are read-only once rendered and may be shared between any number of voices.
type Buffer struct {
	SampleRate int
	Data       []float32
}

// NewBuffer allocates a silent buffer of the given length.
func NewBuffer(sampleRate, length int) *Buffer {
	if length < 0 {
		length = 0
	}
	return &Buffer{
		SampleRate: sampleRate,
		Data:       make([]float32, length),
	}
}

// Len returns the number of frames in the buffer.
func (b *Buffer) Len() int {
	return len(b.Data)
}

// Duration returns the length of the buffer in seconds at its natural rate.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Data)) / float64(b.SampleRate)
}
