package song

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	signatureLength   = 6
	songHeaderSize    = signatureLength + 2 + 1 + 1 + 4 + 4 // Signature, step duration, beats, steps, repeat range.
	trackHeaderSize   = 2 + 1 + 1 + 2                        // Frequency shift, instrument, pipi, note count.
	noteSize          = 4 + 1 + 1 + 1 + 1                    // Start, pitch, duration, volume, pan.
	minFormatVersion  = 1
	maxFormatVersion  = 3
	signatureTemplate = "Org-%02d"
)

// Signature returns the six byte file signature for a format version ("Org-01" to "Org-03").
func Signature(version int) string {
	return fmt.Sprintf(signatureTemplate, version)
}

// CalculateSize returns the size in bytes of the encoded song.
func (s *Song) CalculateSize() int {
	return songHeaderSize + TrackCount*trackHeaderSize + s.NoteCount()*noteSize
}

// Encode converts the song back into the Organya file format.
// Notes are written per track in columns (all starts, then all pitches, durations, volumes and pans),
// which is the layout the decoder expects.
func (s *Song) Encode() ([]byte, error) {
	if s.Version < minFormatVersion || s.Version > maxFormatVersion {
		return nil, fmt.Errorf("unsupported format version %d (must be %d-%d)", s.Version, minFormatVersion, maxFormatVersion)
	}
	for i, track := range s.Tracks {
		if len(track.Notes) > MaxNotesPerTrack {
			return nil, fmt.Errorf("track %d has %d notes, maximum is %d", i, len(track.Notes), MaxNotesPerTrack)
		}
	}

	totalSize := s.CalculateSize()
	buffer := bytes.NewBuffer(make([]byte, 0, totalSize))
	le := binary.LittleEndian

	buffer.WriteString(Signature(s.Version))
	buffer.Write(le.AppendUint16(nil, s.StepDuration))
	buffer.WriteByte(s.BeatsPerBar)
	buffer.WriteByte(s.StepsPerBeat)
	buffer.Write(le.AppendUint32(nil, uint32(s.RepeatStart)))
	buffer.Write(le.AppendUint32(nil, uint32(s.RepeatEnd)))

	for _, track := range s.Tracks {
		buffer.Write(le.AppendUint16(nil, track.FrequencyShift))
		buffer.WriteByte(track.Instrument)
		var pipi byte
		if track.Pipi {
			pipi = 1
		}
		buffer.WriteByte(pipi)
		buffer.Write(le.AppendUint16(nil, uint16(len(track.Notes))))
	}

	for _, track := range s.Tracks {
		for _, note := range track.Notes {
			buffer.Write(le.AppendUint32(nil, uint32(note.Start)))
		}
		for _, note := range track.Notes {
			buffer.WriteByte(note.Pitch.Byte())
		}
		for _, note := range track.Notes {
			buffer.WriteByte(note.Duration)
		}
		for _, note := range track.Notes {
			buffer.WriteByte(note.Volume.Byte())
		}
		for _, note := range track.Notes {
			buffer.WriteByte(note.Pan.Byte())
		}
	}

	// Sanity check to make sure the output is the expected size.
	if buffer.Len() != totalSize {
		return nil, fmt.Errorf("song size mismatch: got %d bytes, expected %d", buffer.Len(), totalSize)
	}
	return buffer.Bytes(), nil
}
