package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/QEStudios/OrganyaPlayer/parser/org"
	"github.com/QEStudios/OrganyaPlayer/song"
)

// playlist decodes songs on first use and keeps them, so that switching back to a song hands
// the player the same *song.Song.
type playlist struct {
	paths     []string
	caveStory bool
	cache     map[string]*song.Song
}

func newPlaylist(paths []string, caveStory bool) *playlist {
	return &playlist{
		paths:     paths,
		caveStory: caveStory,
		cache:     make(map[string]*song.Song),
	}
}

func (p *playlist) len() int {
	return len(p.paths)
}

func (p *playlist) name(i int) string {
	return filepath.Base(p.paths[i])
}

func (p *playlist) load(i int) (*song.Song, error) {
	path := p.paths[i]
	if s, ok := p.cache[path]; ok {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	s, err := org.Decode(data, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.name(i), err)
	}

	if p.caveStory {
		s = s.WithFixedPercussion()
	}
	p.cache[path] = s
	return s, nil
}
