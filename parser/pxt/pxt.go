// Package pxt reads PixTone parameter tables: a flat array of fixed-size little-endian records,
// one per sound layer, as stored in the game executable.
package pxt

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/QEStudios/OrganyaPlayer/fieldreader"
	"github.com/QEStudios/OrganyaPlayer/pixtone"
)

const (
	waveformRecordSize = 4 + 4 + 8 + 4 + 4 // Type, padding, frequency, amplitude, offset.
	// RecordSize is the size of one parameter record in bytes.
	RecordSize = 4 + 4 + 3*waveformRecordSize + 7*4 + 4
)

var le = binary.LittleEndian

// ReadError reports where a table could not be read. The only failure is running out of data,
// so it always wraps fieldreader.ErrEndOfBuffer.
type ReadError struct {
	Field fieldreader.Field
	Err   error
}

func (e *ReadError) Error() string {
	if errors.Is(e.Err, fieldreader.ErrEndOfBuffer) {
		return fmt.Sprintf("error reading field '%s' at file offset %s: end of file", e.Field.Name, e.Field.HexOffset())
	}
	return fmt.Sprintf("could not read PixTone parameters: %v", e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Records returns how many whole records a table of the given size holds.
func Records(data []byte) int {
	return len(data) / RecordSize
}

// Decode reads every record in data and returns the enabled ones in table order.
// Disabled records are skipped but still consumed. A trailing partial record is an error.
func Decode(data []byte) ([]pixtone.Parameters, error) {
	r := fieldreader.New(data)
	var params []pixtone.Parameters

	for r.Offset() < r.Len() {
		p, enabled, err := readRecord(r)
		if err != nil {
			return nil, &ReadError{Field: r.Last(), Err: err}
		}
		if enabled {
			params = append(params, p)
		}
	}
	return params, nil
}

func readRecord(r *fieldreader.Reader) (pixtone.Parameters, bool, error) {
	var p pixtone.Parameters

	enabled, err := r.Int32("Parameters.enabled", le)
	if err != nil {
		return p, false, err
	}
	if p.Size, err = r.Int32("Parameters.size", le); err != nil {
		return p, false, err
	}

	for _, w := range []*pixtone.Waveform{&p.Carrier, &p.Frequency, &p.Amplitude} {
		if err := readWaveform(r, w); err != nil {
			return p, false, err
		}
	}

	e := &p.Envelope
	fields := []struct {
		name string
		dst  *int32
	}{
		{"EnvelopeParameters.y0", &e.Y0},
		{"EnvelopeParameters.x1", &e.X1},
		{"EnvelopeParameters.y1", &e.Y1},
		{"EnvelopeParameters.x2", &e.X2},
		{"EnvelopeParameters.y2", &e.Y2},
		{"EnvelopeParameters.x3", &e.X3},
		{"EnvelopeParameters.y3", &e.Y3},
	}
	for _, f := range fields {
		if *f.dst, err = r.Int32(f.name, le); err != nil {
			return p, false, err
		}
	}
	if err := r.Skip("(padding)", 4); err != nil {
		return p, false, err
	}

	return p, enabled != 0, nil
}

func readWaveform(r *fieldreader.Reader, w *pixtone.Waveform) error {
	typ, err := r.Int32("WaveformParameters.type", le)
	if err != nil {
		return err
	}
	w.Type = pixtone.WaveformType(typ)
	if err := r.Skip("(padding)", 4); err != nil {
		return err
	}
	if w.Frequency, err = r.Float64("WaveformParameters.frequency", le); err != nil {
		return err
	}
	if w.Amplitude, err = r.Int32("WaveformParameters.amplitude", le); err != nil {
		return err
	}
	if w.Offset, err = r.Int32("WaveformParameters.offset", le); err != nil {
		return err
	}
	return nil
}
