package org

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/QEStudios/OrganyaPlayer/fieldreader"
	"github.com/QEStudios/OrganyaPlayer/song"
)

var (
	// ErrSignature is returned when the file does not start with Org-01, Org-02 or Org-03.
	ErrSignature = errors.New("unknown or unsupported file signature")
	// ErrOutOfRange is returned when a field holds a value the format does not allow.
	ErrOutOfRange = errors.New("value out of range")
)

var le = binary.LittleEndian

// Field names, as reported in errors and warnings.
const (
	fieldSignature      = "fileSignature"
	fieldStepDuration   = "Song.stepDuration"
	fieldBeatsPerBar    = "Song.beatsPerBar"
	fieldStepsPerBeat   = "Song.stepsPerBeat"
	fieldRepeatStart    = "Song.repeatStart"
	fieldRepeatEnd      = "Song.repeatEnd"
	fieldFrequencyShift = "Track.frequencyShift"
	fieldInstrument     = "Track.instrument"
	fieldPipi           = "Track.pipi"
	fieldNoteCount      = "Track.noteCount"
	fieldStart          = "Note.start"
	fieldPitch          = "Note.pitch"
	fieldDuration       = "Note.duration"
	fieldVolume         = "Note.volume"
	fieldPan            = "Note.pan"
)

// A legal (or safe) range for a field. Either end may be missing, and the lower end may be
// another field's value rather than a constant.
type Range struct {
	Min, Max       int64
	HasMin, HasMax bool
	MinField       string // If set, the lower limit is the value of this field.
}

func between(min, max int64) Range { return Range{Min: min, Max: max, HasMin: true, HasMax: true} }
func atLeast(min int64) Range      { return Range{Min: min, HasMin: true} }
func atMost(max int64) Range       { return Range{Max: max, HasMax: true} }
func above(field string) Range     { return Range{HasMin: true, MinField: field} }

func (r Range) minString() string {
	if r.MinField != "" {
		return fmt.Sprintf("'%s'", r.MinField)
	}
	return fmt.Sprint(r.Min)
}

// describe phrases the range as a requirement, e.g. "must be between 1 and 2000".
func (r Range) describe(modal string) string {
	switch {
	case r.HasMin && r.HasMax:
		return fmt.Sprintf("%s be between %s and %d", modal, r.minString(), r.Max)
	case r.HasMin:
		return fmt.Sprintf("%s not be less than %s", modal, r.minString())
	case r.HasMax:
		return fmt.Sprintf("%s not be greater than %d", modal, r.Max)
	default:
		return "outside legal range"
	}
}

// ReadError is a fatal decoding error. Err is one of ErrSignature, ErrOutOfRange or
// fieldreader.ErrEndOfBuffer, so callers can use errors.Is on the returned error.
type ReadError struct {
	Err       error
	Field     fieldreader.Field
	Range     Range  // The violated range (ErrOutOfRange only).
	Actual    int64  // The offending value (ErrOutOfRange only).
	Signature string // The signature that was found (ErrSignature only).
}

func (e *ReadError) Error() string {
	prefix := fmt.Sprintf("error reading field '%s' at file offset %s", e.Field.Name, e.Field.HexOffset())
	switch {
	case errors.Is(e.Err, ErrSignature):
		return fmt.Sprintf("%s: %s: '%s'", prefix, ErrSignature, e.Signature)
	case errors.Is(e.Err, ErrOutOfRange):
		return fmt.Sprintf("%s: value %s: %d", prefix, e.Range.describe("must"), e.Actual)
	case errors.Is(e.Err, fieldreader.ErrEndOfBuffer):
		return prefix + ": end of file"
	default:
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	}
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Warning is a non-fatal problem: the value is structurally fine but may not play back as intended.
type Warning struct {
	Field  fieldreader.Field
	Range  Range
	Actual int64
}

func (w Warning) String() string {
	return fmt.Sprintf("value of field '%s' at file offset %s %s: %d. playback may result in unintended behavior",
		w.Field.Name, w.Field.HexOffset(), w.Range.describe("should"), w.Actual)
}

// Parser decodes a single Organya song from memory.
type Parser struct {
	r       *fieldreader.Reader
	logger  *log.Logger
	version int

	// Collect any warnings whilst parsing.
	warnings []Warning

	// Whether or not the parser has already been used.
	// Parsing can only be done once per Parser.
	used bool
}

type ParseResult struct {
	Song     *song.Song
	Warnings []Warning
}

// NewParser creates a new parser to decode a song file. Warnings and errors are also written to logger.
func NewParser(data []byte, logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.Default()
	}
	return &Parser{
		r:      fieldreader.New(data),
		logger: logger,
	}
}

// Decode parses a song and discards the warnings (they are still logged).
func Decode(data []byte, logger *log.Logger) (*song.Song, error) {
	result, err := NewParser(data, logger).Parse()
	if err != nil {
		return nil, err
	}
	return result.Song, nil
}

// warnOutOfRange records a warning for the field that was just read.
func (p *Parser) warnOutOfRange(r Range, actual int64) {
	w := Warning{Field: p.r.Last(), Range: r, Actual: actual}
	p.warnings = append(p.warnings, w)
	p.logger.Printf("warning: %s", w)
}

// fatal logs a fatal error and returns it.
func (p *Parser) fatal(err *ReadError) error {
	p.logger.Printf("error: %s", err)
	return err
}

func (p *Parser) outOfRange(r Range, actual int64) error {
	return p.fatal(&ReadError{Err: ErrOutOfRange, Field: p.r.Last(), Range: r, Actual: actual})
}

// readFailed turns a reader error into a ReadError for the field that was being read.
func (p *Parser) readFailed(err error) error {
	if errors.Is(err, fieldreader.ErrEndOfBuffer) {
		return p.fatal(&ReadError{Err: fieldreader.ErrEndOfBuffer, Field: p.r.Last()})
	}
	return p.fatal(&ReadError{Err: fmt.Errorf("could not read song: %w", err), Field: p.r.Last()})
}

// sanitizeSignature replaces control characters so a garbage signature can be printed safely.
func sanitizeSignature(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || (r >= 0x7F && r <= 0x9F) {
			return '.'
		}
		return r
	}, s)
}

// Parse decodes the song. On a fatal error no song is returned.
func (p *Parser) Parse() (*ParseResult, error) {
	if p.used {
		return nil, fmt.Errorf("parser already used")
	}
	p.used = true

	s, err := p.parseSong()
	if err != nil {
		return nil, err
	}
	return &ParseResult{
		Song:     s,
		Warnings: p.warnings,
	}, nil
}

func (p *Parser) parseSong() (*song.Song, error) {
	signature, err := p.r.String(fieldSignature, 6)
	if err != nil {
		return nil, p.readFailed(err)
	}
	switch signature {
	case song.Signature(1):
		p.version = 1
	case song.Signature(2):
		p.version = 2
	case song.Signature(3):
		p.version = 3
	default:
		return nil, p.fatal(&ReadError{Err: ErrSignature, Field: p.r.Last(), Signature: sanitizeSignature(signature)})
	}

	s := &song.Song{Version: p.version}

	if s.StepDuration, err = p.r.Uint16(fieldStepDuration, le); err != nil {
		return nil, p.readFailed(err)
	}
	if s.StepDuration < song.MinStepDuration || s.StepDuration > song.MaxStepDuration {
		return nil, p.outOfRange(between(song.MinStepDuration, song.MaxStepDuration), int64(s.StepDuration))
	}

	if s.BeatsPerBar, err = p.r.Uint8(fieldBeatsPerBar); err != nil {
		return nil, p.readFailed(err)
	}
	if s.BeatsPerBar < song.MinBeatsPerBar || s.BeatsPerBar > song.MaxBeatsPerBar {
		return nil, p.outOfRange(between(song.MinBeatsPerBar, song.MaxBeatsPerBar), int64(s.BeatsPerBar))
	}

	if s.StepsPerBeat, err = p.r.Uint8(fieldStepsPerBeat); err != nil {
		return nil, p.readFailed(err)
	}
	if s.StepsPerBeat < song.MinStepsPerBeat || s.StepsPerBeat > song.MaxStepsPerBeat {
		return nil, p.outOfRange(between(song.MinStepsPerBeat, song.MaxStepsPerBeat), int64(s.StepsPerBeat))
	}

	if s.RepeatStart, err = p.r.Int32(fieldRepeatStart, le); err != nil {
		return nil, p.readFailed(err)
	}
	if s.RepeatStart < 0 {
		p.warnOutOfRange(atLeast(0), int64(s.RepeatStart))
	}

	if s.RepeatEnd, err = p.r.Int32(fieldRepeatEnd, le); err != nil {
		return nil, p.readFailed(err)
	}
	if s.RepeatEnd <= s.RepeatStart {
		return nil, p.outOfRange(above(fieldRepeatStart), int64(s.RepeatEnd))
	}
	if s.RepeatEnd < 0 {
		p.warnOutOfRange(atLeast(0), int64(s.RepeatEnd))
	}

	for i := range s.Tracks {
		if err := p.parseTrackHeader(&s.Tracks[i]); err != nil {
			return nil, err
		}
	}
	for i := range s.Tracks {
		if err := p.parseNotes(s.Tracks[i].Notes); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// parseTrackHeader reads the per-track fields and allocates the track's notes.
func (p *Parser) parseTrackHeader(track *song.Track) error {
	var err error

	if track.FrequencyShift, err = p.r.Uint16(fieldFrequencyShift, le); err != nil {
		return p.readFailed(err)
	}
	if track.FrequencyShift < song.MinFrequencyShift || track.FrequencyShift > song.MaxFrequencyShift {
		p.warnOutOfRange(between(song.MinFrequencyShift, song.MaxFrequencyShift), int64(track.FrequencyShift))
	}

	if track.Instrument, err = p.r.Uint8(fieldInstrument); err != nil {
		return p.readFailed(err)
	}
	if track.Instrument > song.MaxInstrument {
		p.warnOutOfRange(atMost(song.MaxInstrument), int64(track.Instrument))
	}

	// Pipi only exists since version 2. Version 1 files still store the byte but it means nothing.
	pipi, err := p.r.Uint8(fieldPipi)
	if err != nil {
		return p.readFailed(err)
	}
	track.Pipi = pipi != 0 && p.version >= 2

	noteCount, err := p.r.Uint16(fieldNoteCount, le)
	if err != nil {
		return p.readFailed(err)
	}
	if noteCount > song.MaxNotesPerTrack {
		return p.outOfRange(atMost(song.MaxNotesPerTrack), int64(noteCount))
	}
	if noteCount > 0 {
		track.Notes = make([]song.Note, noteCount)
	}
	return nil
}

// parseNotes reads one track's notes. The file stores them in columns: every start, then every
// pitch, duration, volume and pan.
func (p *Parser) parseNotes(notes []song.Note) error {
	for j := range notes {
		start, err := p.r.Int32(fieldStart, le)
		if err != nil {
			return p.readFailed(err)
		}
		if start < 0 {
			p.warnOutOfRange(atLeast(0), int64(start))
		}
		notes[j].Start = start
	}

	for j := range notes {
		pitch, err := p.r.Uint8(fieldPitch)
		if err != nil {
			return p.readFailed(err)
		}
		notes[j].Pitch = song.AttributeFromByte(pitch)
		if _, ok := notes[j].Pitch.Get(); ok && pitch > song.MaxPitch {
			return p.outOfRange(atMost(song.MaxPitch), int64(pitch))
		}
	}

	for j := range notes {
		duration, err := p.r.Uint8(fieldDuration)
		if err != nil {
			return p.readFailed(err)
		}
		if duration < 1 {
			p.warnOutOfRange(atLeast(1), int64(duration))
		}
		notes[j].Duration = duration
	}

	for j := range notes {
		// Any volume byte is accepted.
		volume, err := p.r.Uint8(fieldVolume)
		if err != nil {
			return p.readFailed(err)
		}
		notes[j].Volume = song.AttributeFromByte(volume)
	}

	for j := range notes {
		pan, err := p.r.Uint8(fieldPan)
		if err != nil {
			return p.readFailed(err)
		}
		notes[j].Pan = song.AttributeFromByte(pan)
		if _, ok := notes[j].Pan.Get(); ok && pan > song.MaxPan {
			return p.outOfRange(atMost(song.MaxPan), int64(pan))
		}
	}

	return nil
}
