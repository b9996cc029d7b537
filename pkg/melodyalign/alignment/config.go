package alignment

import (
	"fmt"
	"math"
)

// Default tuning values.
const (
	DefaultToleranceCents         = 50.0
	DefaultTimingToleranceSeconds = 0.3
	DefaultBandFraction           = 0.15
	DefaultUnvoicedPenaltyCents   = 1000.0
)

// Config holds the recognised alignment options.
//
//   - ToleranceCents: a note is correct when |pitch error| ≤ ToleranceCents.
//   - TimingToleranceSeconds: mean absolute drift at which timing accuracy reaches 0.
//   - SakoeChibaBandFraction: band half-width as a fraction of max(N, M); 0 disables the band.
//   - UnvoicedPenaltyCents: cost of matching a voiced frame against an unvoiced one.
//   - WeightByDuration: weight note correctness by note duration when computing quality.
type Config struct {
	ToleranceCents         float64 `json:"tolerance_cents"`
	TimingToleranceSeconds float64 `json:"timing_tolerance_seconds"`
	SakoeChibaBandFraction float64 `json:"sakoe_chiba_band_fraction"`
	UnvoicedPenaltyCents   float64 `json:"unvoiced_penalty_cents"`
	WeightByDuration       bool    `json:"weight_by_duration"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		ToleranceCents:         DefaultToleranceCents,
		TimingToleranceSeconds: DefaultTimingToleranceSeconds,
		SakoeChibaBandFraction: DefaultBandFraction,
		UnvoicedPenaltyCents:   DefaultUnvoicedPenaltyCents,
		WeightByDuration:       true,
	}
}

// Validate checks that every option is finite and in range.
func (c Config) Validate() error {
	switch {
	case !positive(c.ToleranceCents):
		return fmt.Errorf("%w: tolerance cents must be > 0, got %v", ErrInvalidConfig, c.ToleranceCents)
	case !positive(c.TimingToleranceSeconds):
		return fmt.Errorf("%w: timing tolerance must be > 0, got %v", ErrInvalidConfig, c.TimingToleranceSeconds)
	case !positive(c.UnvoicedPenaltyCents):
		return fmt.Errorf("%w: unvoiced penalty must be > 0, got %v", ErrInvalidConfig, c.UnvoicedPenaltyCents)
	case math.IsNaN(c.SakoeChibaBandFraction) || c.SakoeChibaBandFraction < 0:
		return fmt.Errorf("%w: band fraction must be >= 0, got %v", ErrInvalidConfig, c.SakoeChibaBandFraction)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
