// Package organya plays Organya songs. A Player walks a decoded song step by step and schedules
// sounds and gain ramps on an audio.Sink ahead of the sink's clock.
package organya

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/QEStudios/OrganyaPlayer/audio"
	"github.com/QEStudios/OrganyaPlayer/song"
)

const (
	// DefaultLookahead is how far ahead of the sink clock events are scheduled.
	DefaultLookahead = time.Second
	// Volume and pan changes ramp over this many seconds instead of jumping.
	rampDuration = 0.004
)

// State is whether a Player is scheduling sounds.
type State int

const (
	Paused State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "paused"
}

// Config holds the optional player settings. The zero value is usable.
type Config struct {
	// Lookahead is the scheduling window. Ticks run every Lookahead/2. Zero selects DefaultLookahead.
	Lookahead time.Duration
	// ManualTick disables the internal ticker; the caller must call Tick often enough
	// (at least every Lookahead/2 of sink time). Used for offline rendering.
	ManualTick bool
	Logger     *log.Logger
}

// A sound that has been handed to the sink and may still need to be cut short.
type scheduledSound struct {
	sound     audio.Sound
	buf       *audio.Buffer
	rate      float64
	startTime float64
	endTime   float64
	startStep int
	endStep   int
}

// channel is the playback cursor for one track. It is reset whenever the song changes.
type channel struct {
	percussion bool
	bus        audio.Bus

	track   *song.Track
	octaves []*audio.Buffer // Melody channels.
	sample  *audio.Buffer   // Percussion channels.

	repeatStartNote int // First note at or after the song's repeat start, or -1.
	repeatEndNote   int // First note at or after the song's repeat end, or the note count.
	nextNote        int

	lastVolume   float64
	lastPanLeft  float64
	lastPanRight float64

	// Ascending by start time, since notes are processed in step order.
	sounds []scheduledSound
}

// seek points the channel at the first note at or after step, or back at the loop start if there is none.
func (c *channel) seek(step int) {
	c.nextNote = firstNoteFrom(c.track.Notes, step)
	if c.nextNote == -1 {
		c.nextNote = c.repeatStartNote
	}
}

// firstNoteFrom returns the index of the first note starting at or after step, or -1.
func firstNoteFrom(notes []song.Note, step int) int {
	for i, n := range notes {
		if int(n.Start) >= step {
			return i
		}
	}
	return -1
}

// collect drops sounds that need no further handling: melody sounds that have ended and
// percussion sounds that have started.
func (c *channel) collect(now float64) {
	n := 0
	for n < len(c.sounds) {
		s := c.sounds[n]
		if c.percussion && s.startTime > now || !c.percussion && s.endTime > now {
			break
		}
		n++
	}
	if n > 0 {
		clear(c.sounds[:n])
		c.sounds = append(c.sounds[:0], c.sounds[n:]...)
	}
}

// Player is a song scheduler. All methods are safe for concurrent use.
type Player struct {
	mu sync.Mutex

	sink       audio.Sink
	melody     *MelodyBank
	percussion []*audio.Buffer
	channels   [song.TrackCount]*channel
	logger     *log.Logger

	lookahead float64 // Seconds.
	interval  time.Duration
	manual    bool

	song   *song.Song
	state  State
	offset float64 // Sink time of step 0 of the current play run.
	step   int     // Next step to schedule while playing, resume step while paused.

	// Ticker control. generation changes whenever the ticker stops, so a tick that was already
	// waiting for the lock when it stopped does nothing.
	stop       chan struct{}
	generation int
}

// NewPlayer creates a paused player with no song. percussion holds the drum samples indexed by
// percussion instrument; missing entries (or a nil melody bank) leave those channels silent.
func NewPlayer(sink audio.Sink, melody *MelodyBank, percussion []*audio.Buffer, cfg Config) *Player {
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = DefaultLookahead
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	p := &Player{
		sink:       sink,
		melody:     melody,
		percussion: percussion,
		logger:     cfg.Logger,
		lookahead:  cfg.Lookahead.Seconds(),
		interval:   cfg.Lookahead / 2,
		manual:     cfg.ManualTick,
	}
	for i := range p.channels {
		p.channels[i] = &channel{
			percussion:      song.IsPercussion(i),
			bus:             sink.NewBus(),
			repeatStartNote: -1,
			nextNote:        -1,
			lastVolume:      1,
			lastPanLeft:     1,
			lastPanRight:    1,
		}
	}
	return p
}

// Connect routes every channel to the sink's output.
func (p *Player) Connect() {
	for _, c := range p.channels {
		c.bus.Connect()
	}
}

// Disconnect silences every channel. Scheduling carries on.
func (p *Player) Disconnect() {
	for _, c := range p.channels {
		c.bus.Disconnect()
	}
}

// Song returns the current song, or nil.
func (p *Player) Song() *song.Song {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.song
}

// SetSong replaces the current song and rewinds to step 0. A playing player keeps playing the new song.
// The song must not be modified while the player holds it.
func (p *Player) SetSong(s *song.Song) {
	p.mu.Lock()
	defer p.mu.Unlock()

	wasPlaying := p.state == Playing
	if wasPlaying {
		p.pause()
	}

	for i, c := range p.channels {
		if s == nil {
			c.track, c.octaves, c.sample = nil, nil, nil
			continue
		}
		p.bindTrack(i, c, s)
	}

	p.song = s
	p.step = 0
	if s != nil {
		p.logger.Printf("Song loaded: %d notes, %d ms per step, loop %d-%d", s.NoteCount(), s.StepDuration, s.RepeatStart, s.RepeatEnd)
	}

	if wasPlaying {
		p.play()
	}
}

func (p *Player) bindTrack(i int, c *channel, s *song.Song) {
	track := &s.Tracks[i]
	c.track = track

	if c.percussion {
		c.sample = nil
		if int(track.Instrument) < len(p.percussion) {
			c.sample = p.percussion[track.Instrument]
		}
		if c.sample == nil && len(track.Notes) > 0 {
			p.logger.Printf("Track %d: no percussion sample for instrument %d, track will be silent", i, track.Instrument)
		}
	} else {
		c.octaves = nil
		if p.melody != nil {
			c.octaves = p.melody.Get(track.Instrument, track.Pipi)
		}
		if c.octaves == nil && len(track.Notes) > 0 {
			p.logger.Printf("Track %d: no melody waveform for instrument %d, track will be silent", i, track.Instrument)
		}
	}

	c.repeatStartNote = firstNoteFrom(track.Notes, int(s.RepeatStart))
	c.repeatEndNote = firstNoteFrom(track.Notes, int(s.RepeatEnd))
	if c.repeatEndNote == -1 {
		c.repeatEndNote = len(track.Notes)
	}
}

// State reports whether the player is playing or paused.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Position returns the playback position in steps. While playing it follows the sink clock
// (fractional, folded into the loop); while paused it is the step playback will resume from.
func (p *Player) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Paused || p.song == nil {
		return float64(p.step)
	}
	return p.song.BoundPosition(p.clockStep(p.sink.Now()))
}

// SetPosition moves playback to the given step, rounded up and folded into the loop.
func (p *Player) SetPosition(position float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	wasPlaying := p.state == Playing
	if wasPlaying {
		p.pause()
	}
	if p.song != nil {
		p.step = p.song.BoundStep(int(math.Ceil(position)))
	}
	if wasPlaying {
		p.play()
	}
}

// Play starts scheduling from the current position. Without a song it only changes the state.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.play()
}

// Pause stops scheduling. Ringing melody notes finish their current cycle.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pause()
}

// Tick runs one scheduling pass. Players created with ManualTick must call it regularly;
// otherwise it is only needed to schedule ahead sooner than the ticker would.
func (p *Player) Tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Playing && p.song != nil {
		p.schedule()
	}
}

// clockStep converts a sink time to a (fractional, unbounded) step of the current run.
func (p *Player) clockStep(now float64) float64 {
	return (now - p.offset) / p.song.StepDurationSeconds()
}

func (p *Player) play() {
	if p.state == Playing {
		return
	}
	if p.song == nil {
		p.state = Playing
		return
	}

	bounded := p.song.BoundStep(p.step)
	for _, c := range p.channels {
		c.seek(bounded)
		c.lastVolume = c.bus.Volume().Value()
		c.lastPanLeft = c.bus.PanLeft().Value()
		c.lastPanRight = c.bus.PanRight().Value()
	}

	p.offset = p.sink.Now() - float64(p.step)*p.song.StepDurationSeconds()
	p.state = Playing

	if !p.manual {
		p.startTicker()
	}
	p.schedule()
}

func (p *Player) pause() {
	if p.state == Paused {
		return
	}
	if p.song == nil {
		p.state = Paused
		return
	}

	p.stopTicker()

	now := p.sink.Now()
	for _, c := range p.channels {
		for _, s := range c.sounds {
			switch {
			case s.startTime > now:
				// Not started yet.
				s.sound.Stop(now)
			case !c.percussion && s.endTime > now:
				// Ringing. Let it finish its current cycle rather than cutting it mid-wave.
				// Percussion always plays out in full.
				s.sound.SetLoop(false)
			}
		}
		clear(c.sounds)
		c.sounds = c.sounds[:0]

		c.bus.Volume().Cancel()
		c.bus.PanLeft().Cancel()
		c.bus.PanRight().Cancel()
	}

	p.step = p.song.BoundStep(int(math.Floor(p.clockStep(now))) + 1)
	p.state = Paused
}

func (p *Player) startTicker() {
	stop := make(chan struct{})
	p.stop = stop
	generation := p.generation

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.tickFrom(generation)
			}
		}
	}()
}

func (p *Player) stopTicker() {
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
	p.generation++
}

func (p *Player) tickFrom(generation int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if generation != p.generation || p.state != Playing || p.song == nil {
		return
	}
	p.schedule()
}

// schedule emits every event that falls inside the lookahead window.
func (p *Player) schedule() {
	now := p.sink.Now()
	for _, c := range p.channels {
		c.collect(now)
	}

	stepDuration := p.song.StepDurationSeconds()

	// If ticks ran late, skip the steps that should already have played instead of bursting them out.
	if clockStep := p.clockStep(now); float64(p.step) < clockStep {
		p.step = int(math.Floor(clockStep))
		bounded := p.song.BoundStep(p.step)
		for _, c := range p.channels {
			c.seek(bounded)
		}
	}

	for p.offset+float64(p.step)*stepDuration < now+p.lookahead {
		bounded := p.song.BoundStep(p.step)
		start := p.offset + float64(p.step)*stepDuration
		for _, c := range p.channels {
			p.scheduleNote(c, bounded, start, stepDuration)
		}
		p.step++
	}
}

// scheduleNote handles the channel's next note if it falls on the bounded step.
func (p *Player) scheduleNote(c *channel, bounded int, start, stepDuration float64) {
	if c.track == nil || c.nextNote < 0 || c.nextNote >= len(c.track.Notes) {
		return
	}
	note := c.track.Notes[c.nextNote]
	if int(note.Start) != bounded {
		return
	}

	if pitch, ok := note.Pitch.Get(); ok {
		if c.percussion {
			p.playPercussion(c, pitch, start)
		} else {
			p.playMelody(c, pitch, int(note.Duration), start, stepDuration)
		}
	}

	if volume, ok := note.Volume.Get(); ok {
		gain := volumeGain(volume)
		c.bus.Volume().Ramp(c.lastVolume, start, gain, start+rampDuration)
		c.lastVolume = gain
	}

	if pan, ok := note.Pan.Get(); ok {
		left, right := panGains(pan)
		c.bus.PanLeft().Ramp(c.lastPanLeft, start, left, start+rampDuration)
		c.bus.PanRight().Ramp(c.lastPanRight, start, right, start+rampDuration)
		c.lastPanLeft = left
		c.lastPanRight = right
	}

	c.nextNote++
	if c.nextNote >= c.repeatEndNote {
		c.nextNote = c.repeatStartNote
	}
}

func (p *Player) playMelody(c *channel, pitch uint8, duration int, start, stepDuration float64) {
	octave := int(pitch) / pitchClassCount
	if c.octaves == nil || octave >= len(c.octaves) {
		return
	}

	// Cut off the previous note if it would ring past this one, on a cycle boundary.
	if n := len(c.sounds); n > 0 {
		prev := &c.sounds[n-1]
		if prev.endStep > p.step {
			prev.endTime = loopEndTime(prev.buf, prev.rate, prev.startTime, p.step-prev.startStep, stepDuration)
			prev.endStep = p.step
			prev.sound.Stop(prev.endTime)
		}
	}

	buf := c.octaves[octave]
	rate := playbackRate(melodySamplesPerSecond(pitch, c.track.FrequencyShift), buf.SampleRate)
	s := scheduledSound{
		buf:       buf,
		rate:      rate,
		startTime: start,
		startStep: p.step,
	}

	if c.track.Pipi {
		// One-shot: the pipi buffer already holds the whole burst.
		s.sound = c.bus.Play(buf, rate, false, start)
		s.endTime = start
		s.endStep = p.step
	} else {
		s.sound = c.bus.Play(buf, rate, true, start)
		s.endTime = loopEndTime(buf, rate, start, duration, stepDuration)
		s.endStep = p.step + duration
		s.sound.Stop(s.endTime)
	}

	c.sounds = append(c.sounds, s)
}

func (p *Player) playPercussion(c *channel, pitch uint8, start float64) {
	if c.sample == nil {
		return
	}
	rate := playbackRate(percussionSamplesPerSecond(pitch), c.sample.SampleRate)
	sound := c.bus.Play(c.sample, rate, false, start)
	c.sounds = append(c.sounds, scheduledSound{
		sound:     sound,
		buf:       c.sample,
		rate:      rate,
		startTime: start,
		endTime:   start,
		startStep: p.step,
		endStep:   p.step,
	})
}
