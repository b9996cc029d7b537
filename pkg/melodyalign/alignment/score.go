package alignment

import "math"

// Scores are the session-level metrics derived from note matchings.
type Scores struct {
	AlignmentQuality float64
	TimingAccuracy   float64
}

// ScoreAggregator reduces note matchings to session metrics.
type ScoreAggregator struct {
	TimingToleranceSeconds float64
	WeightByDuration       bool
}

// NewScoreAggregator builds an aggregator for cfg.
func NewScoreAggregator(cfg Config) ScoreAggregator {
	return ScoreAggregator{
		TimingToleranceSeconds: cfg.TimingToleranceSeconds,
		WeightByDuration:       cfg.WeightByDuration,
	}
}

// Aggregate scores matchings against their notes; both slices must have the
// same length and at least one element.
func (a ScoreAggregator) Aggregate(matchings []NoteMatching, notes []NoteBoundary) Scores {
	return Scores{
		AlignmentQuality: a.quality(matchings, notes),
		TimingAccuracy:   a.timing(matchings),
	}
}

func (a ScoreAggregator) quality(matchings []NoteMatching, notes []NoteBoundary) float64 {
	if len(matchings) == 0 {
		return 0
	}

	if a.WeightByDuration {
		var correct, total float64
		for k, m := range matchings {
			total += notes[k].Duration
			if m.IsCorrect {
				correct += notes[k].Duration
			}
		}
		if total > 0 {
			return clamp01(correct / total)
		}
	}

	n := 0
	for _, m := range matchings {
		if m.IsCorrect {
			n++
		}
	}
	return float64(n) / float64(len(matchings))
}

// timing is 1 − clamp(mean|err| / tolerance, 0, 1). Unmatched notes count
// as a full tolerance of drift.
func (a ScoreAggregator) timing(matchings []NoteMatching) float64 {
	if len(matchings) == 0 {
		return 0
	}
	var sum float64
	for _, m := range matchings {
		if !m.Matched() {
			sum += a.TimingToleranceSeconds
			continue
		}
		sum += math.Abs(m.TimingErrorSeconds)
	}
	mean := sum / float64(len(matchings))
	return 1 - clamp01(mean/a.TimingToleranceSeconds)
}
