package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"golang.org/x/term"

	"github.com/QEStudios/OrganyaPlayer/audio"
	"github.com/QEStudios/OrganyaPlayer/organya"
)

const statusInterval = 100 * time.Millisecond

const keyHelp = "space: play/pause  s: stop  n/p: next/previous song  q: quit"

// playLive streams the playlist to the sound card. On a terminal, keys control playback;
// otherwise the first song plays until interrupted.
func playLive(songs *playlist, melody *organya.MelodyBank, percussion []*audio.Buffer, opts options) error {
	mixer := audio.NewMixer(audio.MixerConfig{MasterGain: opts.gain})
	out, err := audio.NewOutput(mixer)
	if err != nil {
		return err
	}
	defer out.Close()
	out.Start()

	player := organya.NewPlayer(mixer, melody, percussion, organya.Config{Logger: logger})
	player.Connect()
	defer player.Pause()

	current := 0
	s, err := songs.load(current)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	player.SetSong(s)
	player.SetPosition(opts.position)
	player.Play()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		logger.Printf("Playing %s, interrupt to stop", songs.name(current))
		<-interrupt
		return nil
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	// Raw mode turns off output newline translation; the terminal writer puts it back.
	screen := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, "")
	logger.SetOutput(screen)
	defer logger.SetOutput(os.Stdout)
	fmt.Fprintln(screen, keyHelp)

	keys := make(chan byte)
	done := make(chan struct{})
	defer close(done)
	go readKeys(os.Stdin, keys, done)

	status := time.NewTicker(statusInterval)
	defer status.Stop()

	for {
		select {
		case <-interrupt:
			fmt.Fprintln(screen)
			return nil

		case <-status.C:
			fmt.Fprintf(screen, "\r\x1b[K%s  %-7s  %9.3f", songs.name(current), player.State(), player.Position())

		case key, ok := <-keys:
			if !ok {
				fmt.Fprintln(screen)
				return nil
			}
			switch key {
			case 'q', 3: // 3 is Ctrl-C in raw mode.
				fmt.Fprintln(screen)
				return nil
			case ' ':
				if player.State() == organya.Paused {
					player.Play()
				} else {
					player.Pause()
				}
			case 's':
				player.Pause()
				player.SetPosition(0)
			case 'n', 'p':
				next := current + 1
				if key == 'p' {
					next = current - 1 + songs.len()
				}
				next %= songs.len()

				fmt.Fprintln(screen)
				s, err := songs.load(next)
				if err != nil {
					logger.Printf("parse error: %v", err)
					continue
				}
				current = next
				if player.Song() != s {
					player.SetSong(s)
				}
			}
		}
	}
}

// readKeys forwards single key presses until r fails or done is closed.
// A Read already blocked on r is only abandoned once it returns.
func readKeys(r io.Reader, keys chan<- byte, done <-chan struct{}) {
	defer close(keys)
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			select {
			case keys <- buf[0]:
			case <-done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}
