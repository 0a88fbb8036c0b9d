package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"
	"github.com/sqweek/dialog"

	"github.com/QEStudios/OrganyaPlayer/audio"
	"github.com/QEStudios/OrganyaPlayer/organya"
	"github.com/QEStudios/OrganyaPlayer/parser/pxt"
	"github.com/QEStudios/OrganyaPlayer/pixtone"
	"github.com/QEStudios/OrganyaPlayer/sfx"
)

var logger *log.Logger

type options struct {
	wavePath    string
	pixtonePath string
	renderPath  string
	seconds     float64
	exportDir   string
	dump        bool
	position    float64
	gain        float64
	caveStory   bool
}

func main() {
	logger = log.New(os.Stdout, "", log.Ldate|log.Ltime)

	// Get the current working directory.
	cwd, err := os.Getwd()
	if err != nil {
		logger.Fatalf("failed to get current working directory: %v", err)
	}

	var opts options
	pflag.StringVarP(&opts.wavePath, "wave", "w", "data/WAVE/WAVE100", "melody waveform bank")
	pflag.StringVarP(&opts.pixtonePath, "pixtone", "p", "data/PIXTONEPARAMETERS", "PixTone parameter table")
	pflag.StringVarP(&opts.renderPath, "render", "r", "", "render the first song to this .wav file instead of playing it")
	pflag.Float64Var(&opts.seconds, "seconds", 60, "length of a --render in seconds")
	pflag.StringVar(&opts.exportDir, "export-sfx", "", "write every sound effect as a .wav file into this directory")
	pflag.BoolVar(&opts.dump, "dump", false, "print the decoded songs (or the parameter table) and exit")
	pflag.Float64Var(&opts.position, "position", 0, "step to start the first song from")
	pflag.Float64Var(&opts.gain, "gain", audio.DefaultMasterGain, "master gain")
	pflag.BoolVar(&opts.caveStory, "cave-story", true, "use fixed percussion instruments per channel, as the game does")
	pflag.Parse()

	params, err := loadParameters(opts.pixtonePath)
	if err != nil {
		if opts.exportDir != "" || pflag.CommandLine.Changed("pixtone") {
			logger.Fatalf("error loading PixTone parameters: %v", err)
		}
		logger.Printf("No PixTone parameters (%v), percussion will be silent", err)
	}

	var bank *sfx.Bank
	if params != nil {
		bank, err = sfx.Build(params, logger)
		if err != nil {
			logger.Fatalf("error building sound effects: %v", err)
		}
		logger.Printf("Rendered %d sound effects", len(bank.IDs()))
	}

	if opts.exportDir != "" {
		if err := exportSFX(bank, opts.exportDir); err != nil {
			logger.Fatalf("export error: %v", err)
		}
		if pflag.NArg() == 0 {
			return
		}
	}

	if opts.dump && pflag.NArg() == 0 && params != nil {
		spew.Dump(params)
		return
	}

	// Get the paths of the songs to play.
	paths, err := choosePaths(cwd, pflag.Args())
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			logger.Printf("User cancelled the file dialog")
			os.Exit(1)
		}
		logger.Fatalf("failed to determine file path: %v", err)
	}

	songs := newPlaylist(paths, opts.caveStory)

	if opts.dump {
		for i := range paths {
			s, err := songs.load(i)
			if err != nil {
				logger.Fatalf("parse error: %v", err)
			}
			spew.Dump(s)
		}
		return
	}

	waveData, err := os.ReadFile(opts.wavePath)
	if err != nil {
		logger.Fatalf("error reading melody waveforms: %v", err)
	}
	melody := organya.NewMelodyBank(waveData)
	logger.Printf("Loaded %d melody instruments", melody.Instruments())

	var percussion []*audio.Buffer
	if bank != nil {
		percussion = bank.Percussion()
	}

	if opts.renderPath != "" {
		err = renderSong(songs, melody, percussion, opts)
	} else {
		err = playLive(songs, melody, percussion, opts)
	}
	if err != nil {
		logger.Fatalf("%v", err)
	}
}

func loadParameters(path string) ([]pixtone.Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	params, err := pxt.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return params, nil
}
