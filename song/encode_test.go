package song

import (
	"bytes"
	"testing"
)

func TestEncodeLayout(t *testing.T) {
	s := &Song{
		Version:      2,
		StepDuration: 0x0102,
		StepsPerBeat: 4,
		BeatsPerBar:  3,
		RepeatStart:  1,
		RepeatEnd:    0x10,
	}
	s.Tracks[0] = Track{
		Instrument:     7,
		FrequencyShift: 1000,
		Pipi:           true,
		Notes: []Note{
			{Start: 0, Pitch: AttributeFromByte(10), Duration: 2, Volume: AttributeFromByte(200), Pan: AttributeFromByte(6)},
			{Start: 5, Pitch: Unchanged, Duration: 1, Volume: Unchanged, Pan: Unchanged},
		},
	}

	data, err := s.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != s.CalculateSize() {
		t.Fatalf("len = %d, CalculateSize = %d", len(data), s.CalculateSize())
	}

	header := []byte{'O', 'r', 'g', '-', '0', '2', 0x02, 0x01, 3, 4, 1, 0, 0, 0, 0x10, 0, 0, 0}
	if !bytes.Equal(data[:18], header) {
		t.Errorf("song header = % X, want % X", data[:18], header)
	}

	track0 := []byte{0xE8, 0x03, 7, 1, 2, 0}
	if !bytes.Equal(data[18:24], track0) {
		t.Errorf("track 0 header = % X, want % X", data[18:24], track0)
	}

	notes := data[18+16*6:]
	want := []byte{
		0, 0, 0, 0, 5, 0, 0, 0, // starts
		10, 255, // pitches
		2, 1, // durations
		200, 255, // volumes
		6, 255, // pans
	}
	if !bytes.Equal(notes, want) {
		t.Errorf("note columns = % X, want % X", notes, want)
	}
}

func TestEncodeRejectsBadInput(t *testing.T) {
	if _, err := (&Song{Version: 4, RepeatEnd: 1}).Encode(); err == nil {
		t.Error("expected an error for version 4")
	}

	s := &Song{Version: 1, RepeatEnd: 1}
	s.Tracks[3].Notes = make([]Note, MaxNotesPerTrack+1)
	if _, err := s.Encode(); err == nil {
		t.Error("expected an error for too many notes")
	}
}

func TestSignature(t *testing.T) {
	for v, want := range map[int]string{1: "Org-01", 2: "Org-02", 3: "Org-03"} {
		if got := Signature(v); got != want {
			t.Errorf("Signature(%d) = %q, want %q", v, got, want)
		}
	}
}
