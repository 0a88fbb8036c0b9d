package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

// A mixer running at 100 Hz so that frame numbers and hundredths of a second line up.
func testMixer() *Mixer {
	return NewMixer(MixerConfig{SampleRate: 100, MasterGain: 1})
}

func ramp4() *Buffer {
	return &Buffer{SampleRate: 100, Data: []float32{0.125, 0.25, 0.375, 0.5}}
}

func render(m *Mixer, frames int) (left, right []float32) {
	buf := make([]float32, 2*frames)
	m.Render(buf)
	left = make([]float32, frames)
	right = make([]float32, frames)
	for i := 0; i < frames; i++ {
		left[i] = buf[2*i]
		right[i] = buf[2*i+1]
	}
	return left, right
}

func equal(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMixerDefaults(t *testing.T) {
	m := NewMixer(MixerConfig{})
	if m.SampleRate() != DefaultSampleRate || m.masterGain != DefaultMasterGain {
		t.Errorf("defaults not applied: %d Hz, gain %v", m.SampleRate(), m.masterGain)
	}
	if m.Now() != 0 {
		t.Errorf("clock starts at %v", m.Now())
	}
}

func TestMixerClock(t *testing.T) {
	m := testMixer()
	render(m, 50)
	if got := m.Now(); got != 0.5 {
		t.Errorf("Now() = %v after 50 frames, want 0.5", got)
	}
}

func TestOneShotStartsOnTime(t *testing.T) {
	m := testMixer()
	b := m.NewBus()
	b.Connect()
	b.Play(ramp4(), 1, false, 0.05)

	left, right := render(m, 12)
	want := []float32{0, 0, 0, 0, 0, 0.125, 0.25, 0.375, 0.5, 0, 0, 0}
	if !equal(left, want) || !equal(right, want) {
		t.Errorf("got L %v R %v, want %v", left, right, want)
	}
}

func TestPlaybackRate(t *testing.T) {
	m := testMixer()
	b := m.NewBus()
	b.Connect()
	b.Play(ramp4(), 2, false, 0)

	left, _ := render(m, 4)
	want := []float32{0.125, 0.375, 0, 0}
	if !equal(left, want) {
		t.Errorf("got %v, want %v", left, want)
	}
}

func TestLoopFinishesCycleWhenCleared(t *testing.T) {
	m := testMixer()
	b := m.NewBus()
	b.Connect()
	s := b.Play(ramp4(), 1, true, 0)

	left, _ := render(m, 6)
	if want := []float32{0.125, 0.25, 0.375, 0.5, 0.125, 0.25}; !equal(left, want) {
		t.Fatalf("looping: got %v, want %v", left, want)
	}

	s.SetLoop(false)
	left, _ = render(m, 4)
	if want := []float32{0.375, 0.5, 0, 0}; !equal(left, want) {
		t.Errorf("after SetLoop(false): got %v, want %v", left, want)
	}
}

func TestStop(t *testing.T) {
	m := testMixer()
	b := m.NewBus()
	b.Connect()
	b.Play(ramp4(), 1, true, 0).Stop(0.03)
	b.Play(ramp4(), 1, false, 0.06).Stop(0.05) // Stopped before it starts.

	left, _ := render(m, 10)
	want := []float32{0.125, 0.25, 0.375, 0, 0, 0, 0, 0, 0, 0}
	if !equal(left, want) {
		t.Errorf("got %v, want %v", left, want)
	}
}

func TestStopInThePastStopsNow(t *testing.T) {
	m := testMixer()
	b := m.NewBus()
	b.Connect()
	s := b.Play(ramp4(), 1, true, 0)
	render(m, 2)
	s.Stop(0)

	left, _ := render(m, 2)
	if !equal(left, []float32{0, 0}) {
		t.Errorf("got %v after Stop(0)", left)
	}
}

func TestDisconnectedBusIsSilentButAdvances(t *testing.T) {
	m := testMixer()
	b := m.NewBus()
	b.Play(ramp4(), 1, false, 0)

	left, _ := render(m, 2)
	if !equal(left, []float32{0, 0}) {
		t.Errorf("disconnected bus produced %v", left)
	}

	b.Connect()
	left, _ = render(m, 3)
	if want := []float32{0.375, 0.5, 0}; !equal(left, want) {
		t.Errorf("after Connect: got %v, want %v", left, want)
	}
}

func TestPanAndVolume(t *testing.T) {
	m := testMixer()
	b := m.NewBus()
	b.Connect()
	b.Volume().Ramp(0.5, 0, 0.5, 0)
	b.PanLeft().Ramp(0.5, 0, 0.5, 0)
	b.PanRight().Ramp(1, 0, 0.25, 0)
	b.Play(&Buffer{SampleRate: 100, Data: []float32{1}}, 1, false, 0)

	left, right := render(m, 1)
	if left[0] != 0.25 || right[0] != 0.125 {
		t.Errorf("got L %v R %v, want 0.25 and 0.125", left[0], right[0])
	}
}

func TestParamRamp(t *testing.T) {
	m := testMixer()
	p := m.NewBus().Volume()
	if p.Value() != 1 {
		t.Fatalf("initial value %v, want 1", p.Value())
	}

	p.Ramp(1, 0.1, 0, 0.2)
	render(m, 5)
	if v := p.Value(); v != 1 {
		t.Errorf("before the ramp: %v, want 1", v)
	}
	render(m, 10)
	if v := p.Value(); math.Abs(v-0.5) > 1e-9 {
		t.Errorf("mid ramp: %v, want 0.5", v)
	}

	p.Cancel()
	render(m, 20)
	if v := p.Value(); math.Abs(v-0.5) > 1e-9 {
		t.Errorf("after Cancel: %v, want the value held at 0.5", v)
	}
}

func TestParamRampReplacesLaterEvents(t *testing.T) {
	m := testMixer()
	p := m.NewBus().Volume()
	p.Ramp(1, 0.5, 0, 0.6)
	p.Ramp(1, 0.2, 0.25, 0.3)

	render(m, 80)
	if v := p.Value(); v != 0.25 {
		t.Errorf("got %v, want 0.25 (the later ramp should have been dropped)", v)
	}
}

func TestRead(t *testing.T) {
	m := testMixer()
	b := m.NewBus()
	b.Connect()
	b.PanRight().Ramp(0.5, 0, 0.5, 0)
	b.Play(&Buffer{SampleRate: 100, Data: []float32{0.5, 0.5}}, 1, false, 0)

	p := make([]byte, 17) // Trailing partial frame is left alone.
	n, err := m.Read(p)
	if err != nil || n != 16 {
		t.Fatalf("Read = %d, %v; want 16, nil", n, err)
	}
	want := []float32{0.5, 0.25, 0.5, 0.25}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[4*i:]))
		if got != w {
			t.Errorf("sample %d = %v, want %v", i, got, w)
		}
	}
	if m.Now() != 0.02 {
		t.Errorf("clock = %v after Read, want 0.02", m.Now())
	}
}

func TestBufferDuration(t *testing.T) {
	b := NewBuffer(22050, 11025)
	if b.Len() != 11025 || b.Duration() != 0.5 {
		t.Errorf("Len %d Duration %v", b.Len(), b.Duration())
	}
	if NewBuffer(22050, -5).Len() != 0 {
		t.Error("negative length should give an empty buffer")
	}
}
