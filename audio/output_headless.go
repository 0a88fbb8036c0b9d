//go:build headless

package audio

import (
	"sync"
	"time"
)

// headlessChunk is how much audio the headless output renders per wakeup.
const headlessChunk = 10 * time.Millisecond

// Output drives a Mixer in real time without a sound card. The rendered audio is discarded.
type Output struct {
	m       *Mixer
	started bool
	stop    chan struct{}
	done    chan struct{}
	mutex   sync.Mutex
}

func NewOutput(m *Mixer) (*Output, error) {
	return &Output{m: m}, nil
}

func (o *Output) Start() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.started {
		return
	}
	o.started = true
	o.stop = make(chan struct{})
	o.done = make(chan struct{})
	go o.run(o.stop, o.done)
}

func (o *Output) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	frames := int(headlessChunk.Seconds() * float64(o.m.SampleRate()))
	buf := make([]float32, 2*frames)
	ticker := time.NewTicker(headlessChunk)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			o.m.Render(buf)
		}
	}
}

func (o *Output) Stop() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if !o.started {
		return
	}
	close(o.stop)
	<-o.done
	o.started = false
}

func (o *Output) Close() error {
	o.Stop()
	return nil
}

func (o *Output) IsStarted() bool {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.started
}
