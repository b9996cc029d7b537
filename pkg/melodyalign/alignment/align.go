package alignment

import (
	"context"
	"fmt"
	"math"
)

// timeEpsilon absorbs float noise when comparing note times to frame times.
const timeEpsilon = 1e-9

// Align aligns user against reference, segments the path by notes and scores
// the result. It is a pure function of its inputs.
//
// Errors: ErrInvalidConfig, ErrInvalidContour, ErrInsufficientData,
// ErrInvalidNoteBoundaries, ErrCancelled.
func Align(ctx context.Context, reference, user PitchContour, notes []NoteBoundary, cfg Config) (*AlignmentResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateContour(reference); err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	if err := ValidateContour(user); err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}
	if len(reference) == 0 || len(user) == 0 {
		return nil, fmt.Errorf("%w: empty contour (reference=%d, user=%d frames)", ErrInsufficientData, len(reference), len(user))
	}
	if reference.VoicedCount() == 0 {
		return nil, fmt.Errorf("%w: reference contour has no voiced frames", ErrInsufficientData)
	}
	if user.VoicedCount() == 0 {
		return nil, fmt.Errorf("%w: user contour has no voiced frames", ErrInsufficientData)
	}
	if err := ValidateNotes(notes, reference); err != nil {
		return nil, err
	}

	warp, err := NewDTWAligner(cfg).Align(ctx, reference, user)
	if err != nil {
		return nil, err
	}

	matchings := NewNoteMatcher(cfg).Match(reference, user, warp.Path, notes)
	scores := NewScoreAggregator(cfg).Aggregate(matchings, notes)

	return &AlignmentResult{
		AlignmentPath:      warp.Path,
		NoteMatchings:      matchings,
		AlignmentQuality:   scores.AlignmentQuality,
		NormalizedDistance: warp.NormalizedDistance,
		TimingAccuracy:     scores.TimingAccuracy,
	}, nil
}

// ValidateContour checks that timestamps are finite and non-decreasing.
// An empty contour is valid here; Align rejects it as insufficient data.
func ValidateContour(c PitchContour) error {
	prev := math.Inf(-1)
	for i, s := range c {
		t := s.TimeSeconds
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: frame %d has non-finite time", ErrInvalidContour, i)
		}
		if t < prev {
			return fmt.Errorf("%w: frame %d time %.4fs precedes %.4fs", ErrInvalidContour, i, t, prev)
		}
		prev = t
	}
	return nil
}

// ValidateNotes checks the note list against the reference contour: non-empty,
// sorted by start, positive durations and frequencies, and every note inside
// the reference span (one frame hop of slack on either side).
func ValidateNotes(notes []NoteBoundary, reference PitchContour) error {
	if len(notes) == 0 {
		return fmt.Errorf("%w: no notes", ErrInvalidNoteBoundaries)
	}

	refStart, refEnd := reference.Span()
	hop := reference.Hop()
	slack := hop + timeEpsilon

	for k, n := range notes {
		switch {
		case math.IsNaN(n.StartTime) || math.IsInf(n.StartTime, 0):
			return fmt.Errorf("%w: note %d has non-finite start", ErrInvalidNoteBoundaries, k)
		case !positive(n.Duration):
			return fmt.Errorf("%w: note %d has duration %v", ErrInvalidNoteBoundaries, k, n.Duration)
		case !positive(n.ExpectedFrequencyHz):
			return fmt.Errorf("%w: note %d has expected frequency %v", ErrInvalidNoteBoundaries, k, n.ExpectedFrequencyHz)
		case k > 0 && n.StartTime < notes[k-1].StartTime:
			return fmt.Errorf("%w: note %d starts at %.3fs before note %d at %.3fs",
				ErrInvalidNoteBoundaries, k, n.StartTime, k-1, notes[k-1].StartTime)
		}
		if len(reference) == 0 {
			continue
		}
		// A single-frame reference has no hop, so only its start is checked.
		pastEnd := hop > 0 && n.EndTime() > refEnd+slack
		if n.StartTime < refStart-slack || n.StartTime > refEnd+timeEpsilon || pastEnd {
			return fmt.Errorf("%w: note %d [%.3fs, %.3fs) outside reference span [%.3fs, %.3fs]",
				ErrInvalidNoteBoundaries, k, n.StartTime, n.EndTime(), refStart, refEnd)
		}
	}
	return nil
}
