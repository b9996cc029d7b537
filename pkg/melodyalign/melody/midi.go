// Package melody loads and synthesises reference melodies: note lists from
// Standard MIDI Files or JSON, and pitch contours from notes, JSON or
// CREPE-style CSV.
package melody

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	defaultBPM   = 120.0
	midiTicksPQN = 480
)

var (
	ErrNoNotes               = errors.New("melody: no notes found")
	ErrUnsupportedTimeFormat = errors.New("melody: only metric (ticks per quarter) MIDI files are supported")
)

type tempoChange struct {
	tick uint64
	bpm  float64
}

type rawNote struct {
	start, end float64
	key        uint8
}

// ReadMIDI extracts a monophonic melody from a Standard MIDI File. Notes
// from every track and channel are merged; where notes overlap the highest
// one wins and a lower note that outlasts it resumes afterwards.
func ReadMIDI(path string) ([]alignment.NoteBoundary, error) {
	s, err := smf.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read midi file: %w", err)
	}
	return notesFromSMF(s)
}

func notesFromSMF(s *smf.SMF) ([]alignment.NoteBoundary, error) {
	mt, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, ErrUnsupportedTimeFormat
	}

	// 1. Tempo map across all tracks
	tempos := []tempoChange{{tick: 0, bpm: defaultBPM}}
	for _, tr := range s.Tracks {
		var abs uint64
		for _, ev := range tr {
			abs += uint64(ev.Delta)
			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) && bpm > 0 {
				tempos = append(tempos, tempoChange{tick: abs, bpm: bpm})
			}
		}
	}
	sort.SliceStable(tempos, func(i, j int) bool { return tempos[i].tick < tempos[j].tick })
	seconds := func(tick uint64) float64 {
		var sec float64
		for i, tc := range tempos {
			next := tick
			if i+1 < len(tempos) && tempos[i+1].tick < tick {
				next = tempos[i+1].tick
			}
			if next > tc.tick {
				sec += mt.Duration(tc.bpm, uint32(next-tc.tick)).Seconds()
			}
			if next == tick {
				break
			}
		}
		return sec
	}

	// 2. Pair note on/off per channel and key
	var notes []rawNote
	for _, tr := range s.Tracks {
		var abs uint64
		open := map[[2]uint8][]float64{}
		for _, ev := range tr {
			abs += uint64(ev.Delta)
			msg := midi.Message(ev.Message)
			var ch, key, vel uint8
			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				k := [2]uint8{ch, key}
				open[k] = append(open[k], seconds(abs))
			case msg.GetNoteEnd(&ch, &key):
				k := [2]uint8{ch, key}
				if starts := open[k]; len(starts) > 0 {
					notes = append(notes, rawNote{start: starts[0], end: seconds(abs), key: key})
					open[k] = starts[1:]
				}
			}
		}
	}

	// 3. Skyline
	mono := skyline(notes)
	if len(mono) == 0 {
		return nil, ErrNoNotes
	}
	out := make([]alignment.NoteBoundary, len(mono))
	for i, n := range mono {
		out[i] = alignment.NoteBoundary{
			StartTime:           n.start,
			Duration:            n.end - n.start,
			ExpectedFrequencyHz: alignment.MIDIToFrequency(int(n.key)),
		}
	}
	return out, nil
}

func skyline(notes []rawNote) []rawNote {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].start != notes[j].start {
			return notes[i].start < notes[j].start
		}
		return notes[i].key > notes[j].key
	})

	var out []rawNote
	for _, n := range notes {
		if n.end <= n.start {
			continue
		}
		if len(out) == 0 {
			out = append(out, n)
			continue
		}
		last := &out[len(out)-1]
		switch {
		case n.start >= last.end:
			out = append(out, n)
		case n.key > last.key:
			tail := rawNote{start: n.end, end: last.end, key: last.key}
			last.end = n.start
			if last.end <= last.start {
				out = out[:len(out)-1]
			}
			out = append(out, n)
			if tail.end > tail.start {
				out = append(out, tail)
			}
		case n.end > last.end:
			out = append(out, rawNote{start: last.end, end: n.end, key: n.key})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

// WriteMIDI renders notes as a single-track Standard MIDI File at 120 BPM.
// Frequencies are rounded to the nearest MIDI key; rests are kept as gaps.
func WriteMIDI(path string, notes []alignment.NoteBoundary) error {
	if len(notes) == 0 {
		return ErrNoNotes
	}
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(midiTicksPQN)

	ticks := func(sec float64) uint64 {
		return uint64(math.Round(sec * defaultBPM / 60 * midiTicksPQN))
	}

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(defaultBPM))
	var cursor uint64
	for _, n := range notes {
		if n.ExpectedFrequencyHz <= 0 || n.Duration <= 0 {
			continue
		}
		key := uint8(math.Max(0, math.Min(127, math.Round(frequencyToKey(n.ExpectedFrequencyHz)))))
		on, off := ticks(n.StartTime), ticks(n.EndTime())
		if on < cursor {
			on = cursor
		}
		if off <= on {
			continue
		}
		tr.Add(uint32(on-cursor), midi.NoteOn(0, key, 100))
		tr.Add(uint32(off-on), midi.NoteOff(0, key))
		cursor = off
	}
	tr.Close(0)

	if err := s.Add(tr); err != nil {
		return fmt.Errorf("failed to add midi track: %w", err)
	}
	if err := s.WriteFile(path); err != nil {
		return fmt.Errorf("failed to write midi file: %w", err)
	}
	return nil
}

func frequencyToKey(freq float64) float64 {
	return 69 + 12*math.Log2(freq/alignment.A4)
}
