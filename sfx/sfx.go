// Package sfx builds the game's sound effect bank from a PixTone parameter table.
package sfx

import (
	"fmt"
	"log"

	"github.com/QEStudios/OrganyaPlayer/audio"
	"github.com/QEStudios/OrganyaPlayer/pixtone"
)

// Entry maps a sound ID to a run of consecutive parameter records. Each record in the run is one layer.
type Entry struct {
	ID       string
	Start    int
	Channels int
}

// PercussionIDs are the sounds the music player uses as percussion instruments 0-5.
var PercussionIDs = []string{"150", "151", "152", "153", "154", "155"}

// Registry is the game's sound table, in the order the game registers it.
// 104 is registered twice and the second registration wins.
// The X entries have parameter data but the game never renders them.
var Registry = []Entry{
	{"001", 33, 1},
	{"002", 38, 1},
	{"003", 136, 1},
	{"004", 35, 1},
	{"005", 30, 1},
	{"006", 137, 1},
	{"007", 138, 1},
	{"011", 32, 1},
	{"012", 44, 2},
	{"014", 39, 1},
	{"015", 6, 1},
	{"016", 23, 2},
	{"017", 25, 3},
	{"018", 34, 1},
	{"020", 36, 2},
	{"021", 43, 1},
	{"022", 31, 1},
	{"023", 8, 1},
	{"024", 7, 1},
	{"025", 46, 2},
	{"026", 41, 2},
	{"027", 48, 1},
	{"028", 54, 2},
	{"029", 56, 1},
	{"030", 86, 1},
	{"031", 59, 1},
	{"032", 0, 2},
	{"033", 2, 2},
	{"034", 4, 2},
	{"035", 49, 3},
	{"037", 107, 2},
	{"038", 57, 2},
	{"039", 52, 3},
	{"040", 105, 2},
	{"041", 105, 2},
	{"042", 60, 1},
	{"043", 61, 1},
	{"044", 62, 3},
	{"045", 65, 1},
	{"046", 66, 1},
	{"047", 68, 1},
	{"048", 69, 1},
	{"049", 70, 2},
	{"050", 9, 2},
	{"051", 11, 2},
	{"052", 13, 2},
	{"053", 28, 2},
	{"054", 76, 2},
	{"055", 122, 2},
	{"056", 103, 2},
	{"057", 109, 2},
	{"058", 120, 2},
	{"059", 126, 1},
	{"060", 127, 1},
	{"061", 128, 1},
	{"062", 129, 2},
	{"063", 131, 2},
	{"064", 133, 2},
	{"065", 135, 1},
	{"070", 15, 2},
	{"071", 17, 2},
	{"072", 19, 2},
	{"100", 72, 1},
	{"101", 73, 3},
	{"102", 78, 2},
	{"103", 80, 2},
	{"104", 116, 1},
	{"104", 81, 1},
	{"105", 82, 1}, // Woof!
	{"106", 83, 2},
	{"107", 85, 1},
	{"108", 87, 1},
	{"109", 88, 1},
	{"110", 89, 1},
	{"111", 90, 1},
	{"112", 91, 1},
	{"113", 92, 1},
	{"114", 93, 2},
	{"115", 113, 3},
	{"116", 117, 3},
	{"117", 124, 2},
	{"150", 95, 2},
	{"151", 97, 2},
	{"152", 99, 1},
	{"153", 100, 1},
	{"154", 101, 2},
	{"155", 111, 2},
	{"X21", 21, 2}, // Close to 053.
	{"X40", 40, 1},
	{"X67", 67, 1},
}

// Bank holds rendered sound effects by ID.
type Bank struct {
	ids     []string
	samples map[string]*audio.Buffer
}

// Build renders every Registry entry from params. Entries are rendered in Registry order with one
// Synth, since a render can depend on envelope state left by the previous one.
func Build(params []pixtone.Parameters, logger *log.Logger) (*Bank, error) {
	return BuildEntries(Registry, params, logger)
}

// BuildEntries renders the given entries in order. An entry whose records fall outside params is an error.
func BuildEntries(entries []Entry, params []pixtone.Parameters, logger *log.Logger) (*Bank, error) {
	if logger == nil {
		logger = log.Default()
	}

	b := &Bank{samples: make(map[string]*audio.Buffer, len(entries))}
	synth := pixtone.NewSynth()
	for _, e := range entries {
		if e.Channels < 1 {
			return nil, fmt.Errorf("sound %s: invalid channel count %d", e.ID, e.Channels)
		}
		if e.Start < 0 || e.Start+e.Channels > len(params) {
			return nil, fmt.Errorf("sound %s: records %d to %d are outside the parameter table (%d records)",
				e.ID, e.Start, e.Start+e.Channels-1, len(params))
		}

		buf := synth.Render(params[e.Start], params[e.Start+1:e.Start+e.Channels]...)
		if _, ok := b.samples[e.ID]; ok {
			logger.Printf("sound %s registered again, replacing the earlier sample", e.ID)
		} else {
			b.ids = append(b.ids, e.ID)
		}
		b.samples[e.ID] = buf
	}
	return b, nil
}

// Get returns the sample for id, or nil if there is none.
func (b *Bank) Get(id string) *audio.Buffer {
	return b.samples[id]
}

// IDs returns the sound IDs in the order they were first registered.
func (b *Bank) IDs() []string {
	return append([]string(nil), b.ids...)
}

// Percussion returns the music player's percussion instruments. Missing sounds are nil.
func (b *Bank) Percussion() []*audio.Buffer {
	out := make([]*audio.Buffer, len(PercussionIDs))
	for i, id := range PercussionIDs {
		out[i] = b.samples[id]
	}
	return out
}
