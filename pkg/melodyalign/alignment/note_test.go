package alignment_test

import (
	"testing"

	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"github.com/stretchr/testify/assert"
)

func TestNoteName(t *testing.T) {
	tests := []struct {
		freq   float64
		name   string
		octave int
		cents  float64
	}{
		{440, "A", 4, 0},
		{261.6256, "C", 4, 0},
		{466.1638, "A#", 4, 0},
		{27.5, "A", 0, 0},
		{16.3516, "C", 0, 0},
		{246.9417, "B", 3, 0},
	}
	for _, tt := range tests {
		n := alignment.NoteName(tt.freq)
		assert.Equal(t, tt.name, n.Name, "freq %v", tt.freq)
		assert.Equal(t, tt.octave, n.Octave, "freq %v", tt.freq)
		assert.InDelta(t, tt.cents, n.Cents, 0.1, "freq %v", tt.freq)
	}
}

func TestNoteName_Unvoiced(t *testing.T) {
	assert.Equal(t, alignment.Note{}, alignment.NoteName(0))
	assert.Equal(t, alignment.Note{}, alignment.NoteName(-5))
	assert.Equal(t, "-", alignment.NoteName(0).String())
}

func TestNote_String(t *testing.T) {
	assert.Equal(t, "A4+0c", alignment.NoteName(440).String())
	assert.Equal(t, "C4-10c", alignment.Note{Name: "C", Octave: 4, Cents: -10}.String())
}

func TestMIDIToFrequency(t *testing.T) {
	assert.InDelta(t, 440, alignment.MIDIToFrequency(69), 1e-9)
	assert.InDelta(t, 261.6256, alignment.MIDIToFrequency(60), 1e-4)
	assert.InDelta(t, 880, alignment.MIDIToFrequency(81), 1e-9)
}
