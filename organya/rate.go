package organya

import (
	"math"

	"github.com/QEStudios/OrganyaPlayer/audio"
)

const (
	octaveCount      = 8
	pitchClassCount  = 12
	waveformLength   = 256   // Bytes per instrument in the melody waveform bank.
	sourceSampleRate = 22050 // Rate the game engine's mixer ran at.
)

// Length of the melody loop buffer per octave. Higher octaves use shorter cycles.
var octaveBaseLengths = [octaveCount]int{256, 256, 128, 128, 64, 32, 16, 8}

// Frequencies of the twelve pitch classes of the lowest octave.
var pitchClassFrequencies = [pitchClassCount]int{262, 277, 294, 311, 330, 349, 370, 392, 415, 440, 466, 494}

// melodySamplesPerSecond returns the rate at which a melody buffer must be read to sound the pitch.
func melodySamplesPerSecond(pitch uint8, frequencyShift uint16) float64 {
	octave := int(pitch) / pitchClassCount
	pitchClass := int(pitch) % pitchClassCount
	base := (1 << octave) * octaveBaseLengths[octave] * pitchClassFrequencies[pitchClass] / 8
	return float64(base + int(frequencyShift) - 1000)
}

func percussionSamplesPerSecond(pitch uint8) float64 {
	return 800*float64(pitch) + 100
}

// playbackRate converts a read rate into a multiplier of the buffer's natural rate.
func playbackRate(samplesPerSecond float64, sampleRate int) float64 {
	sr := float64(sampleRate)
	return sourceSampleRate * samplesPerSecond / (sr * sr)
}

// The volume and pan curves are close to, but not exactly, the lookup tables the game engine used.

func volumeMillibels(volume uint8) float64 {
	return 8 * (float64(volume) - 254) * (256.0 / 254)
}

func panMillibels(pan uint8) float64 {
	return 10 * (float64(pan) - 6) * (256.0 / 6)
}

func millibelsToGain(mb float64) float64 {
	return math.Pow(10, min(mb, 0)/2000)
}

func volumeGain(volume uint8) float64 {
	return millibelsToGain(volumeMillibels(volume))
}

// panGains returns the left and right gains for a pan position. 6 is centre.
func panGains(pan uint8) (left, right float64) {
	mb := panMillibels(pan)
	return millibelsToGain(-mb), millibelsToGain(mb)
}

// loopEndTime returns when a looping sound started at start should stop so that it has played
// for at least steps steps and ends on a whole cycle of its buffer.
func loopEndTime(buf *audio.Buffer, rate, start float64, steps int, stepDuration float64) float64 {
	if rate <= 0 {
		return start
	}
	period := buf.Duration() / rate
	if period <= 0 {
		return start
	}
	loops := math.Ceil(float64(steps) * stepDuration / period)
	return start + loops*period
}
