package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/QEStudios/OrganyaPlayer/audio"
	"github.com/QEStudios/OrganyaPlayer/organya"
	"github.com/QEStudios/OrganyaPlayer/sfx"
)

// Offline renders tick the player once per block, well inside the lookahead.
const renderBlock = 0.01

// renderSong plays the first song into a stereo .wav file as fast as it can be mixed.
func renderSong(songs *playlist, melody *organya.MelodyBank, percussion []*audio.Buffer, opts options) error {
	s, err := songs.load(0)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	if opts.seconds <= 0 {
		return fmt.Errorf("render length must be positive, got %v seconds", opts.seconds)
	}

	mixer := audio.NewMixer(audio.MixerConfig{MasterGain: opts.gain})
	player := organya.NewPlayer(mixer, melody, percussion, organya.Config{ManualTick: true, Logger: logger})
	player.Connect()
	player.SetSong(s)
	player.SetPosition(opts.position)
	player.Play()

	rate := mixer.SampleRate()
	total := int(opts.seconds * float64(rate))
	block := make([]float32, 2*int(renderBlock*float64(rate)))
	samples := make([]float32, 0, 2*total)
	for len(samples) < 2*total {
		player.Tick()
		mixer.Render(block)
		samples = append(samples, block...)
	}
	samples = samples[:2*total]
	player.Pause()

	file, err := os.Create(opts.renderPath)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer file.Close()

	if err := audio.WriteWAV(file, rate, 2, samples); err != nil {
		return fmt.Errorf("error writing output file: %w", err)
	}
	logger.Printf("Rendered %.1f s of %s to %s", opts.seconds, songs.name(0), opts.renderPath)
	return nil
}

// exportSFX writes each sound effect to dir as <id>.wav.
func exportSFX(bank *sfx.Bank, dir string) error {
	if bank == nil {
		return errors.New("no sound effects to export, the PixTone table has no enabled records")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	for _, id := range bank.IDs() {
		if err := writeSample(filepath.Join(dir, id+".wav"), bank.Get(id)); err != nil {
			return fmt.Errorf("sound %s: %w", id, err)
		}
	}
	logger.Printf("Wrote %d sound effects to %s", len(bank.IDs()), dir)
	return nil
}

func writeSample(path string, b *audio.Buffer) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := audio.WriteBufferWAV(file, b); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
