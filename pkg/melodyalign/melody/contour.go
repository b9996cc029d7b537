package melody

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
)

// DefaultHopSeconds is the frame spacing used when synthesising reference
// contours; it matches the pitch tracker at 16 kHz with a 160-sample hop.
const DefaultHopSeconds = 0.01

var ErrInvalidHop = errors.New("melody: hop must be positive")

// ContourFromNotes renders notes as an ideal pitch contour: one frame every
// hopSeconds from t=0 to the end of the last note, the note's frequency with
// confidence 1 inside a note and unvoiced frames in the gaps.
func ContourFromNotes(notes []alignment.NoteBoundary, hopSeconds float64) (alignment.PitchContour, error) {
	if !(hopSeconds > 0) || math.IsInf(hopSeconds, 0) {
		return nil, ErrInvalidHop
	}
	if len(notes) == 0 {
		return nil, ErrNoNotes
	}

	sorted := make([]alignment.NoteBoundary, len(notes))
	copy(sorted, notes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartTime < sorted[j].StartTime })

	var end float64
	for _, n := range sorted {
		if n.Duration <= 0 || math.IsNaN(n.StartTime) {
			return nil, fmt.Errorf("%w: note at %.3fs has duration %v", alignment.ErrInvalidNoteBoundaries, n.StartTime, n.Duration)
		}
		end = math.Max(end, n.EndTime())
	}

	frames := int(math.Ceil(end/hopSeconds - 1e-9))
	contour := make(alignment.PitchContour, frames)
	for k := range contour {
		t := float64(k) * hopSeconds
		contour[k] = alignment.PitchSample{TimeSeconds: t}

		// last note starting at or before t
		i := sort.Search(len(sorted), func(i int) bool { return sorted[i].StartTime > t+1e-9 }) - 1
		for ; i >= 0; i-- {
			if t < sorted[i].EndTime()-1e-9 {
				contour[k].FrequencyHz = sorted[i].ExpectedFrequencyHz
				contour[k].Confidence = 1
				break
			}
		}
	}
	return contour, nil
}
