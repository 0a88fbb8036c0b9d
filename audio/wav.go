package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavBitDepth = 16

// WriteWAV encodes interleaved float samples as 16-bit PCM. Samples are clamped to [-1, 1].
func WriteWAV(w io.WriteSeeker, sampleRate, channels int, samples []float32) error {
	if channels <= 0 {
		return fmt.Errorf("invalid channel count %d", channels)
	}

	enc := wav.NewEncoder(w, sampleRate, wavBitDepth, channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: wavBitDepth,
	}
	for i, s := range samples {
		s = max(-1, min(1, s))
		buf.Data[i] = int(s * 32767)
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("could not write wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("could not finish wav file: %w", err)
	}
	return nil
}

// WriteBufferWAV writes a mono buffer at its own sample rate.
func WriteBufferWAV(w io.WriteSeeker, b *Buffer) error {
	return WriteWAV(w, b.SampleRate, 1, b.Data)
}
