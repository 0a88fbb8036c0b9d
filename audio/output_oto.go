//go:build !headless

package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Output streams a Mixer to the default sound card.
type Output struct {
	ctx     *oto.Context
	player  *oto.Player
	started bool
	mutex   sync.Mutex
}

// NewOutput opens the sound card at the mixer's sample rate. Only one Output may exist per process.
func NewOutput(m *Mixer) (*Output, error) {
	op := &oto.NewContextOptions{
		SampleRate:   m.SampleRate(),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   50 * time.Millisecond,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("could not open audio device: %w", err)
	}
	<-ready

	return &Output{
		ctx:    ctx,
		player: ctx.NewPlayer(m),
	}, nil
}

// Start begins pulling audio from the mixer. The mixer clock runs from then on.
func (o *Output) Start() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if !o.started && o.player != nil {
		o.player.Play()
		o.started = true
	}
}

// Stop pauses the stream, which also stops the mixer clock.
func (o *Output) Stop() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.started && o.player != nil {
		o.player.Pause()
		o.started = false
	}
}

func (o *Output) Close() error {
	o.Stop()
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	return err
}

func (o *Output) IsStarted() bool {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.started
}
