// Package alignment aligns a sung pitch contour against a reference melody
// and scores the performance note by note.
//
// The pipeline is:
//
//	reference × user contour → DTW path → per-note matchings → session metrics
//
// Costs are measured in cents between the two contours, with a fixed penalty
// whenever a voiced frame meets an unvoiced one. The optimal monotonic path is
// found by dynamic time warping, optionally restricted to a Sakoe–Chiba band
// around the slope-adjusted diagonal. Each reference note then collects the
// user frames the path maps onto it, and those frames give the sung pitch
// (confidence-weighted) and the timing drift.
//
// Everything here is a pure function of its inputs: no I/O, no logging and no
// package-level mutable state, so independent alignments may run in parallel.
//
//	res, err := alignment.Align(ctx, reference, user, notes, alignment.DefaultConfig())
//	if errors.Is(err, alignment.ErrInsufficientData) {
//		// not enough signal to score
//	}
package alignment
