// Package pixtone renders the procedural sound effects used by Organya-era games.
// A sound is described by a small set of Parameters (three stacked oscillators and an envelope)
// and rendered to 8-bit PCM with the same integer truncation the game engine used.
package pixtone

import "fmt"

// SampleRate is the rate every PixTone sample is rendered at.
const SampleRate = 22050

// WaveformType selects one of the six built-in 256-sample waveform tables.
type WaveformType int32

const (
	Sine WaveformType = iota
	Triangle
	SawUp
	SawDown
	Square
	Random

	waveformTypeCount = iota
)

var waveformTypeNames = [waveformTypeCount]string{"sine", "triangle", "saw up", "saw down", "square", "random"}

func (t WaveformType) String() string {
	if t >= 0 && t < waveformTypeCount {
		return waveformTypeNames[t]
	}
	return fmt.Sprintf("unknown (%d)", int32(t))
}

// Valid returns true if the type selects one of the built-in tables.
func (t WaveformType) Valid() bool {
	return t >= 0 && t < waveformTypeCount
}

// Waveform configures one oscillator.
type Waveform struct {
	Type      WaveformType
	Frequency float64 // Cycles over the whole sample (not Hz).
	Amplitude int32
	Offset    int32 // Initial phase, in table entries.
}

// Envelope is a four segment linear volume curve over the sample:
// (0,Y0) to (X1,Y1) to (X2,Y2) to (X3,Y3) to (256,0). X values are in 1/256ths of the sample length.
type Envelope struct {
	Y0     int32
	X1, Y1 int32
	X2, Y2 int32
	X3, Y3 int32
}

// Parameters describes one layer of a sound effect.
type Parameters struct {
	Size      int32 // Length in frames.
	Carrier   Waveform
	Frequency Waveform // Modulates the carrier's phase step.
	Amplitude Waveform // Modulates the carrier's amplitude.
	Envelope  Envelope
}
