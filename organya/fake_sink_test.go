package organya

import (
	"math"
	"sync"

	"github.com/QEStudios/OrganyaPlayer/audio"
)

// fakeSink records everything a player schedules. Its clock only moves when a test sets it.
type fakeSink struct {
	mu    sync.Mutex
	now   float64
	buses []*fakeBus
}

func (s *fakeSink) Now() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *fakeSink) setNow(t float64) {
	s.mu.Lock()
	s.now = t
	s.mu.Unlock()
}

func (s *fakeSink) NewBus() audio.Bus {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := &fakeBus{
		sink:     s,
		volume:   &fakeParam{sink: s, value: 1},
		panLeft:  &fakeParam{sink: s, value: 1},
		panRight: &fakeParam{sink: s, value: 1},
	}
	s.buses = append(s.buses, b)
	return b
}

// soundsOn returns a snapshot of the sounds played on bus i.
func (s *fakeSink) soundsOn(i int) []fakeSound {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]fakeSound, len(s.buses[i].sounds))
	for j, snd := range s.buses[i].sounds {
		out[j] = *snd
	}
	return out
}

func (s *fakeSink) rampsOn(i int) (volume, left, right []fakeRamp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.buses[i]
	return append([]fakeRamp(nil), b.volume.ramps...),
		append([]fakeRamp(nil), b.panLeft.ramps...),
		append([]fakeRamp(nil), b.panRight.ramps...)
}

type fakeBus struct {
	sink      *fakeSink
	volume    *fakeParam
	panLeft   *fakeParam
	panRight  *fakeParam
	sounds    []*fakeSound
	connected bool
}

func (b *fakeBus) Volume() audio.Param   { return b.volume }
func (b *fakeBus) PanLeft() audio.Param  { return b.panLeft }
func (b *fakeBus) PanRight() audio.Param { return b.panRight }

func (b *fakeBus) Play(buf *audio.Buffer, rate float64, loop bool, at float64) audio.Sound {
	b.sink.mu.Lock()
	defer b.sink.mu.Unlock()
	s := &fakeSound{sink: b.sink, buf: buf, rate: rate, loop: loop, start: at, stop: math.Inf(1)}
	b.sounds = append(b.sounds, s)
	return s
}

func (b *fakeBus) Connect() {
	b.sink.mu.Lock()
	b.connected = true
	b.sink.mu.Unlock()
}

func (b *fakeBus) Disconnect() {
	b.sink.mu.Lock()
	b.connected = false
	b.sink.mu.Unlock()
}

type fakeSound struct {
	sink      *fakeSink
	buf       *audio.Buffer
	rate      float64
	loop      bool
	start     float64
	stop      float64
	stopCalls int
	unlooped  bool // SetLoop(false) was called after the sound was created.
}

func (s *fakeSound) Stop(at float64) {
	s.sink.mu.Lock()
	defer s.sink.mu.Unlock()
	s.stop = at
	s.stopCalls++
}

func (s *fakeSound) SetLoop(loop bool) {
	s.sink.mu.Lock()
	defer s.sink.mu.Unlock()
	if s.loop && !loop {
		s.unlooped = true
	}
	s.loop = loop
}

type fakeRamp struct {
	from, at, to, end float64
}

type fakeParam struct {
	sink      *fakeSink
	value     float64
	ramps     []fakeRamp
	cancelled int
}

func (p *fakeParam) Value() float64 {
	p.sink.mu.Lock()
	defer p.sink.mu.Unlock()
	return p.value
}

func (p *fakeParam) Ramp(from, at, to, end float64) {
	p.sink.mu.Lock()
	defer p.sink.mu.Unlock()
	p.ramps = append(p.ramps, fakeRamp{from, at, to, end})
}

func (p *fakeParam) Cancel() {
	p.sink.mu.Lock()
	defer p.sink.mu.Unlock()
	p.cancelled++
}
