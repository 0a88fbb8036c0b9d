package pixtone

import (
	"math"

	"github.com/QEStudios/OrganyaPlayer/audio"
)

const (
	silenceLevel = 128
	envelopeEnd  = 256
)

// Synth renders PixTone sounds.
//
// It owns the envelope lookup table. Segments of the table that a sound's envelope does not cover
// keep whatever the previous render left there, so rendering the same sounds in the same order
// with one Synth always gives the same result. A Synth is not safe for concurrent use.
type Synth struct {
	envelope [tableSize]int8
}

func NewSynth() *Synth {
	return &Synth{}
}

// Render renders one or more layers into a single sample. The layers are mixed into a shared
// 8-bit buffer as long as the longest layer, starting at silence and saturating at the byte range.
func (s *Synth) Render(first Parameters, rest ...Parameters) *audio.Buffer {
	layers := append([]Parameters{first}, rest...)

	length := 0
	for _, p := range layers {
		length = max(length, int(p.Size))
	}
	pcm := make([]uint8, length)
	for i := range pcm {
		pcm[i] = silenceLevel
	}

	for _, p := range layers {
		s.renderLayer(pcm, p)
	}

	out := audio.NewBuffer(SampleRate, length)
	for i, b := range pcm {
		out.Data[i] = float32(int(b)-silenceLevel) / silenceLevel
	}
	return out
}

// Render renders with a fresh Synth.
func Render(first Parameters, rest ...Parameters) *audio.Buffer {
	return NewSynth().Render(first, rest...)
}

// fillEnvelope writes the segment from (x0,y0) up to (x1,y1). Entries outside the table are skipped.
func (s *Synth) fillEnvelope(x0, y0, x1, y1 int32) {
	y := float64(y0)
	yStep := (float64(y1) - float64(y0)) / (float64(x1) - float64(x0))

	// y accumulates one step at a time from x0, even over entries before the table,
	// so that rounding matches the game's walk.
	for x := x0; x < x1 && x < tableSize; x++ {
		if x >= 0 {
			s.envelope[x] = int8(toInt32(y))
		}
		y += yStep
	}
}

// phaseStep returns how far an oscillator advances through its table per frame.
func phaseStep(size int32, frequency float64) float64 {
	if frequency == 0 {
		return 0
	}
	return 256 / (float64(size) / frequency)
}

func (s *Synth) renderLayer(pcm []uint8, p Parameters) {
	if p.Size == 0 {
		return
	}

	e := p.Envelope
	s.fillEnvelope(0, e.Y0, e.X1, e.Y1)
	s.fillEnvelope(e.X1, e.Y1, e.X2, e.Y2)
	s.fillEnvelope(e.X2, e.Y2, e.X3, e.Y3)
	s.fillEnvelope(e.X3, e.Y3, envelopeEnd, 0)

	carrier := table(p.Carrier.Type)
	carrierOffset := float64(p.Carrier.Offset)
	carrierStep := phaseStep(p.Size, p.Carrier.Frequency)
	carrierAmplitude := float64(p.Carrier.Amplitude)

	frequency := table(p.Frequency.Type)
	frequencyOffset := float64(p.Frequency.Offset)
	frequencyStep := phaseStep(p.Size, p.Frequency.Frequency)
	frequencyAmplitude := float64(p.Frequency.Amplitude)

	amplitude := table(p.Amplitude.Type)
	amplitudeOffset := float64(p.Amplitude.Offset)
	amplitudeStep := phaseStep(p.Size, p.Amplitude.Frequency)
	amplitudeAmplitude := float64(p.Amplitude.Amplitude)

	size := float64(p.Size)

	// Every division truncates, and every intermediate wraps to 32 bits, as in the game engine.
	for i := 0; i < int(p.Size); i++ {
		sample := float64(carrier[toInt32(carrierOffset)&0xFF]) * carrierAmplitude
		sample = float64(toInt32(sample / 64))
		sample *= float64(toInt32(float64(amplitude[toInt32(amplitudeOffset)&0xFF])*amplitudeAmplitude/64) + 64)
		sample = float64(toInt32(sample / 64))
		sample *= float64(s.envelope[toInt32(256*float64(i)/size)])
		sample = float64(toInt32(sample / 64))

		pcm[i] = saturate(int64(pcm[i]) + int64(sample))

		v := float64(frequency[toInt32(frequencyOffset)&0xFF])
		carrierOffset += carrierStep + math.Pow(2, sign(v))*carrierStep*v*frequencyAmplitude/4096
		frequencyOffset += frequencyStep
		amplitudeOffset += amplitudeStep
	}
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func saturate(v int64) uint8 {
	return uint8(max(0, min(255, v)))
}
