package organya

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/QEStudios/OrganyaPlayer/audio"
)

// MelodyBank turns the raw melody waveform bank (256 signed bytes per instrument) into
// per-octave loop buffers. Buffers are rendered on first use and kept for the life of the bank.
// A MelodyBank is safe for concurrent use and may be shared by several players.
type MelodyBank struct {
	data []byte

	mu    sync.Mutex
	cache map[melodyKey][]*audio.Buffer
	group singleflight.Group
}

type melodyKey struct {
	instrument uint8
	pipi       bool
}

func (k melodyKey) String() string {
	return fmt.Sprintf("%d/%t", k.instrument, k.pipi)
}

func NewMelodyBank(data []byte) *MelodyBank {
	return &MelodyBank{
		data:  data,
		cache: make(map[melodyKey][]*audio.Buffer),
	}
}

// Instruments returns the number of complete instruments in the bank.
func (b *MelodyBank) Instruments() int {
	return len(b.data) / waveformLength
}

// Get returns the eight octave buffers for an instrument, or nil if the bank has no such instrument.
// The returned buffers are shared and must not be modified.
func (b *MelodyBank) Get(instrument uint8, pipi bool) []*audio.Buffer {
	key := melodyKey{instrument: instrument, pipi: pipi}

	b.mu.Lock()
	buffers, ok := b.cache[key]
	b.mu.Unlock()
	if ok {
		return buffers
	}

	offset := waveformLength * int(instrument)
	if offset+waveformLength > len(b.data) {
		return nil
	}

	v, _, _ := b.group.Do(key.String(), func() (any, error) {
		b.mu.Lock()
		buffers, ok := b.cache[key]
		b.mu.Unlock()
		if ok {
			return buffers, nil
		}

		buffers = renderMelody(b.data[offset:offset+waveformLength], pipi)
		b.mu.Lock()
		b.cache[key] = buffers
		b.mu.Unlock()
		return buffers, nil
	})
	return v.([]*audio.Buffer)
}

// renderMelody resamples one waveform cycle to each octave's buffer length by nearest neighbour.
// Pipi buffers hold 4*(octave+1) cycles so that a one-shot note lasts a fixed number of cycles.
func renderMelody(source []byte, pipi bool) []*audio.Buffer {
	buffers := make([]*audio.Buffer, octaveCount)
	for octave := range buffers {
		length := octaveBaseLengths[octave]
		if pipi {
			length *= 4 * (octave + 1)
		}
		buf := audio.NewBuffer(sourceSampleRate, length)
		step := waveformLength / length

		src := 0
		for i := range buf.Data {
			buf.Data[i] = float32(int8(source[src])) / 128
			src = (src + step) % waveformLength
		}
		buffers[octave] = buf
	}
	return buffers
}
