package song

import (
	"fmt"
	"math"
	"strings"
)

const (
	TrackCount            = 16 // Number of tracks in every song.
	MelodyTrackCount      = 8  // Tracks 0-7 are melody, 8-15 are percussion.
	MaxNotesPerTrack      = 4096
	MinStepDuration       = 1
	MaxStepDuration       = 2000
	MinStepsPerBeat       = 1
	MaxStepsPerBeat       = 127
	MinBeatsPerBar        = 1
	MaxBeatsPerBar        = 127
	MinFrequencyShift     = 100
	MaxFrequencyShift     = 1900
	DefaultFrequencyShift = 1000
	MaxInstrument         = 99  // Instruments above this still decode but are outside the stock bank.
	MaxPitch              = 95  // 8 octaves of 12 pitch classes.
	MaxPan                = 12  // 6 is centre.
	unchangedByte         = 255 // Raw byte used by the file format for "leave as is".
)

// Attribute is a per-step channel attribute (pitch, volume or pan) that may be left unchanged.
// The file format overloads the byte value 255 to mean "no change"; an Attribute keeps that case
// apart from real values so nothing does arithmetic on the sentinel by accident.
type Attribute struct {
	value uint8
	set   bool
}

// Unchanged is the attribute value meaning "do not alter this channel attribute at this step".
var Unchanged = Attribute{}

// AttributeFromByte converts a raw file byte into an Attribute. 255 becomes Unchanged.
func AttributeFromByte(b uint8) Attribute {
	if b == unchangedByte {
		return Unchanged
	}
	return Attribute{value: b, set: true}
}

// Get returns the value and whether the attribute changes the channel at all.
func (a Attribute) Get() (uint8, bool) {
	return a.value, a.set
}

// IsSet returns true if the attribute carries a value.
func (a Attribute) IsSet() bool {
	return a.set
}

// Byte returns the raw file representation of the attribute.
func (a Attribute) Byte() uint8 {
	if !a.set {
		return unchangedByte
	}
	return a.value
}

func (a Attribute) String() string {
	if !a.set {
		return "--"
	}
	return fmt.Sprintf("%d", a.value)
}

// A single Organya song. Songs are immutable once decoded; players keep their own cursors.
type Song struct {
	Version      int    // File format version (1-3), taken from the file signature.
	StepDuration uint16 // Length of one step in milliseconds.
	StepsPerBeat uint8
	BeatsPerBar  uint8
	RepeatStart  int32 // First step of the loop.
	RepeatEnd    int32 // Step at which playback jumps back to RepeatStart. Always greater than RepeatStart.

	Tracks [TrackCount]Track
}

// A single track (one channel's worth of notes).
type Track struct {
	Instrument     uint8  // Melody: index into the waveform bank. Percussion: index into the drum samples.
	FrequencyShift uint16 // Fine tuning around 1000.
	Pipi           bool   // Melody only: play each note as a one-shot burst instead of a held loop. Version 2+.

	// Notes in file order, which is expected to be ascending by Start. The decoder does not sort them.
	Notes []Note
}

// A single note event.
type Note struct {
	Start    int32     // Step index at which the note's changes take effect.
	Pitch    Attribute // 0-95, or Unchanged to keep the current sound.
	Duration uint8     // Length in steps.
	Volume   Attribute // 0-254, or Unchanged.
	Pan      Attribute // 0-12, or Unchanged.
}

// IsPercussion returns true if the track index belongs to a percussion channel.
func IsPercussion(trackIndex int) bool {
	return trackIndex >= MelodyTrackCount
}

// StepDurationSeconds returns the length of one step in seconds.
func (s *Song) StepDurationSeconds() float64 {
	return float64(s.StepDuration) / 1000
}

// BoundStep folds a step index into the loop range. Steps before RepeatEnd are returned as is;
// anything at or past RepeatEnd wraps back into [RepeatStart, RepeatEnd).
func (s *Song) BoundStep(step int) int {
	end := int(s.RepeatEnd)
	if step < end {
		return step
	}
	start := int(s.RepeatStart)
	return (step-start)%(end-start) + start
}

// BoundPosition is BoundStep for fractional positions.
func (s *Song) BoundPosition(position float64) float64 {
	end := float64(s.RepeatEnd)
	if position < end {
		return position
	}
	start := float64(s.RepeatStart)
	return math.Mod(position-start, end-start) + start
}

// WithFixedPercussion returns a copy of the song whose percussion tracks use instruments 0-7 in
// channel order, ignoring the instrument stored in the file. Cave Story assigns its drum kit this way.
func (s *Song) WithFixedPercussion() *Song {
	c := *s
	for i := MelodyTrackCount; i < TrackCount; i++ {
		c.Tracks[i].Instrument = uint8(i - MelodyTrackCount)
	}
	return &c
}

// NoteCount returns the total number of notes over all tracks.
func (s *Song) NoteCount() int {
	n := 0
	for _, track := range s.Tracks {
		n += len(track.Notes)
	}
	return n
}

// Pretty-print
func (s *Song) String() string {
	var b strings.Builder
	b.WriteString("Organya Song:\n")
	fmt.Fprintf(&b, "- Version: Org-%02d\n", s.Version)
	fmt.Fprintf(&b, "- Step duration: %d ms\n", s.StepDuration)
	fmt.Fprintf(&b, "- Time signature: %d steps per beat, %d beats per bar\n", s.StepsPerBeat, s.BeatsPerBar)
	fmt.Fprintf(&b, "- Loop: steps %d to %d\n", s.RepeatStart, s.RepeatEnd)
	b.WriteString("- Tracks:\n")

	for i, track := range s.Tracks {
		kind := "melody"
		if IsPercussion(i) {
			kind = "percussion"
		}
		fmt.Fprintf(&b, "  - Track #%d (%s): instrument %d, frequency shift %d", i, kind, track.Instrument, track.FrequencyShift)
		if track.Pipi {
			b.WriteString(", pipi")
		}
		fmt.Fprintf(&b, ", %d note", len(track.Notes))
		if len(track.Notes) != 1 {
			b.WriteString("s") // Pluralise the word "note" if needed.
		}
		b.WriteString("\n")
	}

	size := s.CalculateSize()
	fmt.Fprintf(&b, "[Total file size: %d byte", size)
	if size != 1 {
		b.WriteString("s")
	}
	b.WriteString("]\n")

	return b.String()
}
