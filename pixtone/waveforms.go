package pixtone

import "math"

const tableSize = 256

// msvcRand reproduces the C runtime rand() of the compiler the game was built with.
type msvcRand struct {
	state uint32
}

func (r *msvcRand) next() int32 {
	r.state = r.state*214013 + 2531011
	return int32(r.state>>16) & 0x7FFF
}

// waveforms holds the built-in tables indexed by WaveformType. Built once at init.
var waveforms = buildWaveforms()

// silence stands in for unknown waveform types.
var silence [tableSize]int8

func buildWaveforms() [waveformTypeCount][tableSize]int8 {
	var t [waveformTypeCount][tableSize]int8

	// Pi is rounded to single precision before use.
	pi := float64(float32(math.Pi))
	rng := msvcRand{}

	for i := 0; i < tableSize; i++ {
		t[Sine][i] = int8(toInt32(64 * math.Sin(2*pi*float64(i)/tableSize)))

		switch {
		case i < 64:
			t[Triangle][i] = int8(i)
		case i < 192:
			t[Triangle][i] = int8(128 - i)
		default:
			t[Triangle][i] = int8(i - 256)
		}

		t[SawUp][i] = int8(i/2 - 64)
		t[SawDown][i] = int8(64 - i/2)

		if i < 128 {
			t[Square][i] = 64
		} else {
			t[Square][i] = -64
		}

		// Integer division truncates towards zero.
		t[Random][i] = int8(rng.next()) / 2
	}

	return t
}

// table returns the waveform table for a type, or silence if the type is unknown.
func table(t WaveformType) *[tableSize]int8 {
	if !t.Valid() {
		return &silence
	}
	return &waveforms[t]
}

// toInt32 truncates a float64 and wraps it into the int32 range (NaN and infinities become 0).
func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	m := math.Mod(math.Trunc(f), 1<<32)
	if m < 0 {
		m += 1 << 32
	}
	return int32(uint32(m))
}
