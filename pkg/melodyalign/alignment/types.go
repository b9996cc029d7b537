package alignment

// PitchSample is one frame produced by a pitch engine.
// FrequencyHz <= 0 marks an unvoiced (or undetected) frame.
type PitchSample struct {
	TimeSeconds float64 `json:"time"`
	FrequencyHz float64 `json:"frequency"`
	Confidence  float64 `json:"confidence"`
}

// Voiced reports whether a fundamental frequency was detected for the frame.
func (s PitchSample) Voiced() bool {
	return s.FrequencyHz > 0
}

// PitchContour is a time-ordered sequence of pitch samples.
type PitchContour []PitchSample

// VoicedCount returns the number of voiced frames in the contour.
func (c PitchContour) VoicedCount() int {
	n := 0
	for _, s := range c {
		if s.Voiced() {
			n++
		}
	}
	return n
}

// Span returns the first and last timestamps of the contour.
func (c PitchContour) Span() (start, end float64) {
	if len(c) == 0 {
		return 0, 0
	}
	return c[0].TimeSeconds, c[len(c)-1].TimeSeconds
}

// Hop returns the mean spacing between consecutive frames, or 0 for
// contours shorter than two frames.
func (c PitchContour) Hop() float64 {
	if len(c) < 2 {
		return 0
	}
	start, end := c.Span()
	return (end - start) / float64(len(c)-1)
}

// NoteBoundary is one note of the reference melody as supplied by the
// melody source.
type NoteBoundary struct {
	StartTime           float64 `json:"start_time"`
	Duration            float64 `json:"duration"`
	ExpectedFrequencyHz float64 `json:"expected_frequency_hz"`
}

// EndTime is the exclusive end of the note.
func (n NoteBoundary) EndTime() float64 {
	return n.StartTime + n.Duration
}

// AlignmentPoint is one cell of the warping path.
type AlignmentPoint struct {
	ReferenceIndex int `json:"reference_index"`
	UserIndex      int `json:"user_index"`
}

// NoteMatching describes how the user sang a single reference note.
type NoteMatching struct {
	ReferenceNoteFreq  float64 `json:"reference_note_freq"`
	UserNoteFreq       float64 `json:"user_note_freq"`
	PitchErrorCents    float64 `json:"pitch_error_cents"`
	TimingErrorSeconds float64 `json:"timing_error_seconds"`
	IsCorrect          bool    `json:"is_correct"`
	ReferenceTime      float64 `json:"reference_time"`
	UserTime           float64 `json:"user_time"`
}

// Matched reports whether any user frame was mapped onto the note.
func (m NoteMatching) Matched() bool {
	return m.TimingErrorSeconds != UnmatchedTimingError
}

// AlignmentResult is the outcome of one Align call.
type AlignmentResult struct {
	AlignmentPath      []AlignmentPoint `json:"alignment_path"`
	NoteMatchings      []NoteMatching   `json:"note_matchings"`
	AlignmentQuality   float64          `json:"alignment_quality"`
	NormalizedDistance float64          `json:"normalized_distance"`
	TimingAccuracy     float64          `json:"timing_accuracy"`
}

// CorrectCount returns how many notes were sung within pitch tolerance.
func (r *AlignmentResult) CorrectCount() int {
	n := 0
	for _, m := range r.NoteMatchings {
		if m.IsCorrect {
			n++
		}
	}
	return n
}
