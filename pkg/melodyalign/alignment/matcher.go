package alignment

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// UnmatchedTimingError is the timing error reported for a note that no
// path point maps onto.
const UnmatchedTimingError = 1e9

// NoteMatcher segments a warping path into per-note matchings.
type NoteMatcher struct {
	ToleranceCents float64
}

// NewNoteMatcher builds a matcher for cfg.
func NewNoteMatcher(cfg Config) NoteMatcher {
	return NoteMatcher{ToleranceCents: cfg.ToleranceCents}
}

// Match returns exactly one NoteMatching per note, in note order.
func (nm NoteMatcher) Match(ref, user PitchContour, path []AlignmentPoint, notes []NoteBoundary) []NoteMatching {
	out := make([]NoteMatching, len(notes))
	for k, note := range notes {
		s, e := referenceSpan(ref, note)
		if s > e {
			out[k] = unmatched(note)
			continue
		}
		p0, p1, ok := pathSpan(path, s, e)
		if !ok {
			out[k] = unmatched(note)
			continue
		}
		out[k] = nm.matchNote(note, ref, user, path[p0:p1+1])
	}
	return out
}

// matchNote scores one note from its slice of the warping path. Timing drift
// is the mean time offset of the path pairs whose user frame is voiced, or of
// every pair when none is.
func (nm NoteMatcher) matchNote(note NoteBoundary, ref, user PitchContour, pts []AlignmentPoint) NoteMatching {
	var (
		freqs   []float64
		weights []float64
		voiced  []float64
		all     = make([]float64, 0, len(pts))
	)
	// user indices along a monotone path arrive in order, so repeats are adjacent
	last := -1
	for _, p := range pts {
		u := user[p.UserIndex]
		drift := u.TimeSeconds - ref[p.ReferenceIndex].TimeSeconds
		all = append(all, drift)
		if !u.Voiced() {
			continue
		}
		voiced = append(voiced, drift)
		if p.UserIndex == last {
			continue
		}
		last = p.UserIndex
		freqs = append(freqs, u.FrequencyHz)
		weights = append(weights, clamp01(u.Confidence))
	}

	m := NoteMatching{
		ReferenceNoteFreq: note.ExpectedFrequencyHz,
		ReferenceTime:     note.StartTime,
	}

	drifts := voiced
	if len(drifts) == 0 {
		drifts = all
	}
	m.TimingErrorSeconds = stat.Mean(drifts, nil)
	m.UserTime = note.StartTime + m.TimingErrorSeconds

	if len(freqs) == 0 {
		return m
	}
	if floats.Sum(weights) > 0 {
		m.UserNoteFreq = stat.Mean(freqs, weights)
	} else {
		m.UserNoteFreq = stat.Mean(freqs, nil)
	}
	m.PitchErrorCents = Cents(m.UserNoteFreq, note.ExpectedFrequencyHz)
	m.IsCorrect = abs(m.PitchErrorCents) <= nm.ToleranceCents
	return m
}

func unmatched(note NoteBoundary) NoteMatching {
	return NoteMatching{
		ReferenceNoteFreq:  note.ExpectedFrequencyHz,
		TimingErrorSeconds: UnmatchedTimingError,
		ReferenceTime:      note.StartTime,
		UserTime:           note.StartTime,
	}
}

// referenceSpan returns the inclusive index range of reference frames whose
// time falls in [start, end). s > e means the note covers no frame.
func referenceSpan(ref PitchContour, note NoteBoundary) (s, e int) {
	start, end := note.StartTime, note.EndTime()
	s = sort.Search(len(ref), func(i int) bool { return ref[i].TimeSeconds >= start })
	e = sort.Search(len(ref), func(i int) bool { return ref[i].TimeSeconds >= end }) - 1
	return s, e
}

// pathSpan returns the inclusive range of path positions whose reference
// index falls in [s, e].
func pathSpan(path []AlignmentPoint, s, e int) (p0, p1 int, ok bool) {
	p0 = sort.Search(len(path), func(i int) bool { return path[i].ReferenceIndex >= s })
	if p0 == len(path) || path[p0].ReferenceIndex > e {
		return 0, 0, false
	}
	p1 = sort.Search(len(path), func(i int) bool { return path[i].ReferenceIndex > e }) - 1
	return p0, p1, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
