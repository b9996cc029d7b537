package alignment_test

import (
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
)

const hop = 0.01

type segment struct {
	freq float64
	dur  float64
}

// contour renders segments back to back starting at frame 0, one frame per
// hop. Frame times are k*hop so they stay exact multiples.
func contour(segments ...segment) alignment.PitchContour {
	var c alignment.PitchContour
	k := 0
	for _, seg := range segments {
		frames := int(seg.dur/hop + 0.5)
		for f := 0; f < frames; f++ {
			conf := 1.0
			if seg.freq <= 0 {
				conf = 0
			}
			c = append(c, alignment.PitchSample{
				TimeSeconds: float64(k) * hop,
				FrequencyHz: seg.freq,
				Confidence:  conf,
			})
			k++
		}
	}
	return c
}

func notesOf(freqs ...float64) []alignment.NoteBoundary {
	notes := make([]alignment.NoteBoundary, len(freqs))
	for i, f := range freqs {
		notes[i] = alignment.NoteBoundary{StartTime: float64(i), Duration: 1, ExpectedFrequencyHz: f}
	}
	return notes
}

func assertPathShape(t interface {
	Errorf(string, ...interface{})
}, path []alignment.AlignmentPoint, n, m int) {
	if len(path) == 0 {
		t.Errorf("empty path")
		return
	}
	if path[0] != (alignment.AlignmentPoint{}) {
		t.Errorf("path starts at %+v, want (0,0)", path[0])
	}
	if last := path[len(path)-1]; last.ReferenceIndex != n-1 || last.UserIndex != m-1 {
		t.Errorf("path ends at %+v, want (%d,%d)", last, n-1, m-1)
	}
	for k := 1; k < len(path); k++ {
		di := path[k].ReferenceIndex - path[k-1].ReferenceIndex
		dj := path[k].UserIndex - path[k-1].UserIndex
		ok := (di == 1 && dj == 0) || (di == 0 && dj == 1) || (di == 1 && dj == 1)
		if !ok {
			t.Errorf("illegal step %+v -> %+v", path[k-1], path[k])
			return
		}
	}
}
