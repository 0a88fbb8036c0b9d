package audio

import (
	"encoding/binary"
	"math"
	"sync"
)

const (
	DefaultSampleRate = 44100
	DefaultMasterGain = 0.75
)

// MixerConfig configures a Mixer. Zero values select the defaults.
type MixerConfig struct {
	SampleRate int
	MasterGain float64 // Applied to the sum of all buses.
}

// Mixer is a software Sink. Its clock is the number of frames rendered so far, so it only moves
// when output is pulled, either by Render (offline) or by Read (from a sound card stream).
// Output is interleaved stereo float32.
type Mixer struct {
	mu         sync.Mutex
	sampleRate int
	masterGain float64
	frame      int64
	buses      []*bus

	// Only used by Read.
	scratch []float32
}

// NewMixer creates a mixer with its clock at zero.
func NewMixer(cfg MixerConfig) *Mixer {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.MasterGain <= 0 {
		cfg.MasterGain = DefaultMasterGain
	}
	return &Mixer{
		sampleRate: cfg.SampleRate,
		masterGain: cfg.MasterGain,
	}
}

// SampleRate returns the output rate in frames per second.
func (m *Mixer) SampleRate() int {
	return m.sampleRate
}

// Now returns the time in seconds of the next frame to be rendered.
func (m *Mixer) Now() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeOf(m.frame)
}

// NewBus adds a disconnected bus at unity volume and centre pan.
func (m *Mixer) NewBus() Bus {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := &bus{m: m}
	b.volume = &param{m: m, base: 1}
	b.panLeft = &param{m: m, base: 1}
	b.panRight = &param{m: m, base: 1}
	m.buses = append(m.buses, b)
	return b
}

func (m *Mixer) timeOf(frame int64) float64 {
	return float64(frame) / float64(m.sampleRate)
}

// frameOf converts a time to the first frame at or after it. Times within a rounding error
// of a frame boundary snap to that frame.
func (m *Mixer) frameOf(t float64) int64 {
	f := t * float64(m.sampleRate)
	if r := math.Round(f); math.Abs(f-r) < 1e-6 {
		return int64(r)
	}
	return int64(math.Ceil(f))
}

// Render mixes the next len(dst)/2 stereo frames into dst and advances the clock.
func (m *Mixer) Render(dst []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frames := len(dst) / 2
	dst = dst[:frames*2]
	clear(dst)

	for _, b := range m.buses {
		b.render(dst, m.frame)
	}

	gain := float32(m.masterGain)
	for i := range dst {
		dst[i] *= gain
	}
	m.frame += int64(frames)
}

// Read implements io.Reader for sound card streams: float32 little endian, two channels.
func (m *Mixer) Read(p []byte) (int, error) {
	frames := len(p) / 8
	if cap(m.scratch) < frames*2 {
		m.scratch = make([]float32, frames*2)
	}
	samples := m.scratch[:frames*2]
	m.Render(samples)

	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(s))
	}
	return frames * 8, nil
}

type bus struct {
	m         *Mixer
	volume    *param
	panLeft   *param
	panRight  *param
	voices    []*voice
	connected bool
}

func (b *bus) Volume() Param   { return b.volume }
func (b *bus) PanLeft() Param  { return b.panLeft }
func (b *bus) PanRight() Param { return b.panRight }

func (b *bus) Play(buf *Buffer, rate float64, loop bool, at float64) Sound {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()

	step := 0.0
	if buf != nil && rate > 0 {
		step = rate * float64(buf.SampleRate) / float64(b.m.sampleRate)
	}
	v := &voice{
		m:     b.m,
		buf:   buf,
		step:  step,
		loop:  loop,
		start: max(b.m.frameOf(at), b.m.frame),
		stop:  math.MaxInt64,
	}
	b.voices = append(b.voices, v)
	return v
}

func (b *bus) Connect() {
	b.m.mu.Lock()
	b.connected = true
	b.m.mu.Unlock()
}

func (b *bus) Disconnect() {
	b.m.mu.Lock()
	b.connected = false
	b.m.mu.Unlock()
}

// render adds the bus output for the frames starting at start. The mixer lock is held.
func (b *bus) render(dst []float32, start int64) {
	t0 := b.m.timeOf(start)
	b.volume.prune(t0)
	b.panLeft.prune(t0)
	b.panRight.prune(t0)

	if len(b.voices) == 0 {
		return
	}

	frames := len(dst) / 2
	for i := 0; i < frames; i++ {
		f := start + int64(i)
		var s float32
		for _, v := range b.voices {
			s += v.next(f)
		}
		if !b.connected || s == 0 {
			continue
		}
		t := b.m.timeOf(f)
		s *= float32(b.volume.valueAt(t))
		dst[2*i] += s * float32(b.panLeft.valueAt(t))
		dst[2*i+1] += s * float32(b.panRight.valueAt(t))
	}

	// Drop finished voices.
	kept := b.voices[:0]
	for _, v := range b.voices {
		if !v.done {
			kept = append(kept, v)
		}
	}
	clear(b.voices[len(kept):])
	b.voices = kept
}

type voice struct {
	m     *Mixer
	buf   *Buffer
	step  float64 // Source frames per output frame.
	loop  bool
	start int64 // First output frame.
	stop  int64 // Output frame at which playback is cut.
	pos   float64
	done  bool
}

func (v *voice) Stop(at float64) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	v.stop = max(v.m.frameOf(at), v.m.frame)
}

func (v *voice) SetLoop(loop bool) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	v.loop = loop
}

// next returns the voice's sample for output frame f. Frames must be requested in order.
func (v *voice) next(f int64) float32 {
	if v.done || f < v.start {
		return 0
	}
	if f >= v.stop || v.buf == nil || len(v.buf.Data) == 0 {
		v.done = true
		return 0
	}

	n := len(v.buf.Data)
	idx := int(v.pos)
	if idx >= n {
		v.done = true
		return 0
	}

	s := v.buf.Data[idx]
	v.pos += v.step
	// Wrap eagerly so that clearing the loop flag ends the sound at the end of the current cycle.
	if v.loop && v.pos >= float64(n) {
		v.pos = math.Mod(v.pos, float64(n))
	}
	return s
}

// A linear ramp: the value holds from at time at, reaching to at time end.
type ramp struct {
	from, at, to, end float64
}

type param struct {
	m      *Mixer
	base   float64 // Value before the first event.
	events []ramp  // Ascending by at.
}

func (p *param) Value() float64 {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	return p.valueAt(p.m.timeOf(p.m.frame))
}

func (p *param) Ramp(from, at, to, end float64) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()

	kept := p.events[:0]
	for _, e := range p.events {
		if e.at < at {
			kept = append(kept, e)
		}
	}
	p.events = append(kept, ramp{from: from, at: at, to: to, end: end})
}

func (p *param) Cancel() {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	p.base = p.valueAt(p.m.timeOf(p.m.frame))
	p.events = nil
}

func (p *param) valueAt(t float64) float64 {
	v := p.base
	for _, e := range p.events {
		if t < e.at {
			break
		}
		if t < e.end {
			return e.from + (e.to-e.from)*(t-e.at)/(e.end-e.at)
		}
		v = e.to
	}
	return v
}

// prune folds events that have fully completed by time t into the base value.
func (p *param) prune(t float64) {
	n := 0
	for n < len(p.events) && p.events[n].end <= t {
		p.base = p.events[n].to
		n++
	}
	if n > 0 {
		p.events = append(p.events[:0], p.events[n:]...)
	}
}
