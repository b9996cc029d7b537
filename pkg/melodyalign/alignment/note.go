package alignment

import (
	"fmt"
	"math"
)

// A4 is the tuning reference in Hz.
const A4 = 440.0

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Note is a frequency expressed as the nearest equal-tempered pitch.
type Note struct {
	Name   string  `json:"name"`   // e.g. "A", "C#"
	Octave int     `json:"octave"` // scientific pitch notation, A4 = 440 Hz
	Cents  float64 `json:"cents"`  // deviation from the named pitch, in [-50, 50]
}

// String renders the note as e.g. "A4+12c".
func (n Note) String() string {
	if n.Name == "" {
		return "-"
	}
	return fmt.Sprintf("%s%d%+.0fc", n.Name, n.Octave, n.Cents)
}

// NoteName converts a frequency into the nearest named pitch. Non-positive
// frequencies yield the zero Note.
func NoteName(freq float64) Note {
	if !(freq > 0) || math.IsInf(freq, 0) {
		return Note{}
	}
	semis := 12 * math.Log2(freq/A4)
	nearest := math.Round(semis)
	midi := int(nearest) + 69
	return Note{
		Name:   noteNames[((midi%12)+12)%12],
		Octave: floorDiv(midi, 12) - 1,
		Cents:  100 * (semis - nearest),
	}
}

// MIDIToFrequency returns the equal-tempered frequency of a MIDI key.
func MIDIToFrequency(key int) float64 {
	return A4 * math.Pow(2, float64(key-69)/12)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
