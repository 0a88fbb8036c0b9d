package pixtone

import (
	"math"
	"testing"
)

func TestWaveformTables(t *testing.T) {
	tests := []struct {
		typ   WaveformType
		index int
		want  int8
	}{
		{Sine, 0, 0},
		{Sine, 32, 45},
		{Sine, 64, 63}, // Single precision pi lands just past the peak.
		{Sine, 128, 0},
		{Sine, 192, -63},
		{Triangle, 0, 0},
		{Triangle, 63, 63},
		{Triangle, 64, 64},
		{Triangle, 191, -63},
		{Triangle, 192, -64},
		{Triangle, 255, -1},
		{SawUp, 0, -64},
		{SawUp, 255, 63},
		{SawDown, 0, 64},
		{SawDown, 255, -63},
		{Square, 127, 64},
		{Square, 128, -64},
		{Random, 0, 19},
		{Random, 1, 19},
		{Random, 2, -5},
		{Random, 3, -61},
		{Random, 4, -52},
		{Random, 5, 10},
	}
	for _, tt := range tests {
		if got := waveforms[tt.typ][tt.index]; got != tt.want {
			t.Errorf("%s[%d] = %d, want %d", tt.typ, tt.index, got, tt.want)
		}
	}
}

func TestMSVCRand(t *testing.T) {
	r := msvcRand{}
	for i, want := range []int32{38, 7719, 21238, 2437, 8855, 11797} {
		if got := r.next(); got != want {
			t.Errorf("draw %d = %d, want %d", i, got, want)
		}
	}
}

func TestToInt32(t *testing.T) {
	tests := []struct {
		in   float64
		want int32
	}{
		{0, 0},
		{1.9, 1},
		{-1.9, -1},
		{math.MaxInt32, math.MaxInt32},
		{1 << 31, math.MinInt32},
		{1<<32 + 5, 5},
		{-(1<<32 + 5), -5},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, tt := range tests {
		if got := toInt32(tt.in); got != tt.want {
			t.Errorf("toInt32(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWaveformTypeString(t *testing.T) {
	if Random.String() != "random" || WaveformType(9).String() != "unknown (9)" {
		t.Errorf("got %q and %q", Random.String(), WaveformType(9).String())
	}
	if WaveformType(-1).Valid() || !Square.Valid() {
		t.Error("Valid misreports")
	}
}

func TestFillEnvelope(t *testing.T) {
	s := NewSynth()

	s.fillEnvelope(0, 0, 4, 8)
	if got := s.envelope[:4]; got[0] != 0 || got[1] != 2 || got[2] != 4 || got[3] != 6 {
		t.Errorf("linear segment = %v", got)
	}

	// Values are truncated, not rounded.
	s.fillEnvelope(0, 0, 3, 2)
	if got := s.envelope[:3]; got[0] != 0 || got[1] != 0 || got[2] != 1 {
		t.Errorf("truncated segment = %v", got)
	}

	// Entries outside the table are skipped.
	s.fillEnvelope(250, 0, 300, 50)
	if s.envelope[255] != 5 {
		t.Errorf("envelope[255] = %d, want 5", s.envelope[255])
	}
	s.fillEnvelope(-2, 0, 2, 4)
	if s.envelope[0] != 2 || s.envelope[1] != 3 {
		t.Errorf("segment starting before the table = %v", s.envelope[:2])
	}
	if s.envelope[2] != 1 {
		t.Error("fillEnvelope wrote past its segment")
	}
}

// A segment starting before the table must accumulate its value one step at a time over the
// skipped entries; a single multiply rounds differently for steps that are not exact in binary.
func TestFillEnvelopeAccumulatesBeforeTable(t *testing.T) {
	walk := func(x0, y0, x1, y1 int32) [tableSize]int8 {
		var lut [tableSize]int8
		y := float64(y0)
		yStep := (float64(y1) - float64(y0)) / (float64(x1) - float64(x0))
		for x := x0; x < x1; x++ {
			if x >= 0 && x < tableSize {
				lut[x] = int8(toInt32(y))
			}
			y += yStep
		}
		return lut
	}

	segments := [][2]int32{{200, 127}, {256, -100}, {37, 63}, {129, 1}}
	for x0 := int32(-300); x0 < 0; x0++ {
		for _, seg := range segments {
			s := NewSynth()
			s.fillEnvelope(x0, 0, seg[0], seg[1])
			if want := walk(x0, 0, seg[0], seg[1]); s.envelope != want {
				t.Fatalf("x0=%d to %v: got %v, want %v", x0, seg, s.envelope[:8], want[:8])
			}
		}
	}
}

// flat returns a layer that renders a constant: a square carrier at zero frequency with a flat envelope.
// Phase 0 gives +64, phase 128 gives -64; either way the result is half scale.
func flat(size, phase int32) Parameters {
	return Parameters{
		Size:      size,
		Carrier:   Waveform{Type: Square, Amplitude: 64, Offset: phase},
		Frequency: Waveform{Type: Sine},
		Amplitude: Waveform{Type: Sine},
		Envelope:  Envelope{Y0: 64, X1: 256, Y1: 64, X2: 256, Y2: 64, X3: 256, Y3: 64},
	}
}

func TestRenderFlat(t *testing.T) {
	b := Render(flat(10, 0))
	if b.SampleRate != SampleRate || b.Len() != 10 {
		t.Fatalf("got %d frames at %d Hz", b.Len(), b.SampleRate)
	}
	for i, v := range b.Data {
		if v != 0.5 {
			t.Fatalf("frame %d = %v, want 0.5", i, v)
		}
	}
}

func TestRenderLayersSaturate(t *testing.T) {
	tests := []struct {
		name   string
		layers []Parameters
		want   []float32
	}{
		{"positive", []Parameters{flat(2, 0), flat(2, 0)}, []float32{127.0 / 128, 127.0 / 128}},
		{"negative", []Parameters{flat(2, 128), flat(2, 128)}, []float32{-1, -1}},
		{"cancel", []Parameters{flat(2, 0), flat(2, 128)}, []float32{0, 0}},
		{"longest wins", []Parameters{flat(1, 0), flat(3, 128)}, []float32{0, -0.5, -0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Render(tt.layers[0], tt.layers[1:]...)
			if b.Len() != len(tt.want) {
				t.Fatalf("length %d, want %d", b.Len(), len(tt.want))
			}
			for i := range tt.want {
				if b.Data[i] != tt.want[i] {
					t.Errorf("frame %d = %v, want %v", i, b.Data[i], tt.want[i])
				}
			}
		})
	}
}

func TestZeroSizeLayerChangesNothing(t *testing.T) {
	noisy := Parameters{
		Size:      500,
		Carrier:   Waveform{Type: Random, Frequency: 40, Amplitude: 50},
		Frequency: Waveform{Type: Sine, Frequency: 3, Amplitude: 20},
		Amplitude: Waveform{Type: Triangle, Frequency: 2, Amplitude: 30},
		Envelope:  Envelope{Y0: 63, X1: 64, Y1: 40, X2: 128, Y2: 20, X3: 200, Y3: 10},
	}
	empty := Parameters{Size: 0, Carrier: Waveform{Type: Square, Amplitude: 64}}

	want := Render(noisy)
	got := Render(noisy, empty)
	if got.Len() != want.Len() {
		t.Fatalf("length changed from %d to %d", want.Len(), got.Len())
	}
	for i := range want.Data {
		if got.Data[i] != want.Data[i] {
			t.Fatalf("frame %d changed from %v to %v", i, want.Data[i], got.Data[i])
		}
	}

	if b := Render(empty); b.Len() != 0 {
		t.Errorf("zero size render has %d frames", b.Len())
	}
	if b := Render(Parameters{Size: -4}); b.Len() != 0 {
		t.Errorf("negative size render has %d frames", b.Len())
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	layers := []Parameters{
		{
			Size:      2000,
			Carrier:   Waveform{Type: Random, Frequency: 120.5, Amplitude: 63, Offset: 17},
			Frequency: Waveform{Type: Random, Frequency: 9, Amplitude: 40},
			Amplitude: Waveform{Type: Random, Frequency: 4, Amplitude: 32},
			Envelope:  Envelope{Y0: 40, X1: 20, Y1: 63, X2: 100, Y2: 30, X3: 180, Y3: 12},
		},
		{
			Size:      1500,
			Carrier:   Waveform{Type: Sine, Frequency: 300, Amplitude: 32},
			Frequency: Waveform{Type: SawDown, Frequency: 1, Amplitude: 90},
			Amplitude: Waveform{Type: Square, Frequency: 10, Amplitude: 16},
			Envelope:  Envelope{Y0: 63, X1: 10, Y1: 50, X2: 60, Y2: 30, X3: 120, Y3: 0},
		},
	}

	a := NewSynth().Render(layers[0], layers[1:]...)
	b := NewSynth().Render(layers[0], layers[1:]...)
	silent := true
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("frame %d differs between runs: %v vs %v", i, a.Data[i], b.Data[i])
		}
		if a.Data[i] != 0 {
			silent = false
		}
	}
	if silent {
		t.Error("render produced silence")
	}
}

func TestUnknownWaveformIsSilent(t *testing.T) {
	p := flat(4, 0)
	p.Carrier.Type = 42
	for i, v := range Render(p).Data {
		if v != 0 {
			t.Errorf("frame %d = %v, want silence", i, v)
		}
	}
}
