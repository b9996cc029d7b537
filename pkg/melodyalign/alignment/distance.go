package alignment

import "math"

// DistanceMetric turns a pair of frames into a non-negative dissimilarity.
// Implementations must be deterministic and free of side effects.
type DistanceMetric interface {
	Cost(a, b PitchSample) float64
}

// CentsDistance is the default metric: absolute cents between the two
// frequencies, inflated when either frame has low confidence.
type CentsDistance struct {
	// UnvoicedPenalty is charged when exactly one frame is unvoiced. Voiced
	// pairs are capped just below it, so a voiced/unvoiced pair is always the
	// more expensive match.
	UnvoicedPenalty float64
}

// NewCentsDistance builds the metric for cfg.
func NewCentsDistance(cfg Config) CentsDistance {
	return CentsDistance{UnvoicedPenalty: cfg.UnvoicedPenaltyCents}
}

// Cost implements DistanceMetric.
func (d CentsDistance) Cost(a, b PitchSample) float64 {
	av, bv := a.Voiced(), b.Voiced()
	switch {
	case !av && !bv:
		return 0
	case !av || !bv:
		return d.UnvoicedPenalty
	}

	cost := math.Abs(Cents(a.FrequencyHz, b.FrequencyHz)) * (2 - math.Min(clamp01(a.Confidence), clamp01(b.Confidence)))
	return math.Min(cost, math.Nextafter(d.UnvoicedPenalty, 0))
}

// Cents returns 1200·log2(f/ref). Both frequencies must be positive.
func Cents(f, ref float64) float64 {
	return 1200 * math.Log2(f/ref)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
