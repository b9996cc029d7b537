// Package pitch turns mono PCM audio into a pitch contour.
//
// AutocorrelationTracker is a plain time-domain estimator: every frame is
// autocorrelated through the FFT and the strongest periodicity inside the
// configured frequency range becomes the frame's fundamental. It is good
// enough for clean solo vocals and test material; anything that produces an
// alignment.PitchContour can be used instead through the Engine interface.
package pitch

import (
	"errors"
	"fmt"
	"math"

	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	WindowSize = 1024
	HopSize    = 256

	DefaultMinFrequency        = 80.0
	DefaultMaxFrequency        = 800.0
	DefaultConfidenceThreshold = 0.5
	DefaultSilenceRMS          = 0.01

	// peakRatio picks the shortest lag whose correlation is within this
	// fraction of the best one, which keeps multiples of the period out.
	peakRatio = 0.9
)

var (
	ErrEmptyAudio        = errors.New("pitch: samples cannot be empty")
	ErrInvalidSampleRate = errors.New("pitch: sample rate must be positive")
	ErrAudioTooShort     = errors.New("pitch: audio too short for window size")
	ErrInvalidConfig     = errors.New("pitch: invalid tracker config")
)

// Engine produces a pitch contour from mono samples in [-1, 1].
type Engine interface {
	Track(samples []float64, sampleRate int) (alignment.PitchContour, error)
}

// Config tunes the autocorrelation tracker. Zero fields take the defaults.
type Config struct {
	WindowSize          int
	HopSize             int
	MinFrequency        float64
	MaxFrequency        float64
	ConfidenceThreshold float64
	SilenceRMS          float64
}

// DefaultConfig returns the tracker defaults.
func DefaultConfig() Config {
	return Config{
		WindowSize:          WindowSize,
		HopSize:             HopSize,
		MinFrequency:        DefaultMinFrequency,
		MaxFrequency:        DefaultMaxFrequency,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		SilenceRMS:          DefaultSilenceRMS,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.WindowSize == 0 {
		c.WindowSize = d.WindowSize
	}
	if c.HopSize == 0 {
		c.HopSize = d.HopSize
	}
	if c.MinFrequency == 0 {
		c.MinFrequency = d.MinFrequency
	}
	if c.MaxFrequency == 0 {
		c.MaxFrequency = d.MaxFrequency
	}
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = d.ConfidenceThreshold
	}
	if c.SilenceRMS == 0 {
		c.SilenceRMS = d.SilenceRMS
	}
	return c
}

func (c Config) validate() error {
	switch {
	case c.WindowSize < 16:
		return fmt.Errorf("%w: window size %d", ErrInvalidConfig, c.WindowSize)
	case c.HopSize <= 0:
		return fmt.Errorf("%w: hop size %d", ErrInvalidConfig, c.HopSize)
	case c.MinFrequency <= 0 || c.MaxFrequency <= c.MinFrequency:
		return fmt.Errorf("%w: frequency range %v-%v Hz", ErrInvalidConfig, c.MinFrequency, c.MaxFrequency)
	case c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1:
		return fmt.Errorf("%w: confidence threshold %v", ErrInvalidConfig, c.ConfidenceThreshold)
	}
	return nil
}

// AutocorrelationTracker implements Engine.
type AutocorrelationTracker struct {
	cfg Config
}

var _ Engine = (*AutocorrelationTracker)(nil)

// NewAutocorrelationTracker returns a tracker for cfg.
func NewAutocorrelationTracker(cfg Config) (*AutocorrelationTracker, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &AutocorrelationTracker{cfg: cfg}, nil
}

// Config returns the effective configuration.
func (t *AutocorrelationTracker) Config() Config {
	return t.cfg
}

// HopSeconds is the frame spacing of contours produced at sampleRate.
func (t *AutocorrelationTracker) HopSeconds(sampleRate int) float64 {
	return float64(t.cfg.HopSize) / float64(sampleRate)
}

// Track estimates one pitch sample per hop. Frames are centred, so frame k
// describes the audio around k*hop seconds.
func (t *AutocorrelationTracker) Track(samples []float64, sampleRate int) (alignment.PitchContour, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyAudio
	}
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	ws, hs := t.cfg.WindowSize, t.cfg.HopSize
	if len(samples) < ws {
		return nil, fmt.Errorf("%w: %d samples, window %d", ErrAudioTooShort, len(samples), ws)
	}

	minLag := int(math.Floor(float64(sampleRate) / t.cfg.MaxFrequency))
	maxLag := int(math.Ceil(float64(sampleRate) / t.cfg.MinFrequency))
	if minLag < 2 {
		minLag = 2
	}
	if limit := ws * 3 / 4; maxLag > limit {
		maxLag = limit
	}
	if maxLag <= minLag+1 {
		return nil, fmt.Errorf("%w: no lags between %d and %d at %d Hz", ErrInvalidConfig, minLag, maxLag, sampleRate)
	}

	padded := make([]float64, len(samples)+ws)
	copy(padded[ws/2:], samples)

	nFrames := len(samples)/hs + 1
	contour := make(alignment.PitchContour, 0, nFrames)
	frame := make([]float64, ws)
	for k := 0; k < nFrames; k++ {
		start := k * hs
		if start+ws > len(padded) {
			break
		}
		copy(frame, padded[start:start+ws])
		freq, conf := t.estimate(frame, sampleRate, minLag, maxLag)
		contour = append(contour, alignment.PitchSample{
			TimeSeconds: float64(start) / float64(sampleRate),
			FrequencyHz: freq,
			Confidence:  conf,
		})
	}
	return contour, nil
}

// estimate returns (0, conf) for unvoiced frames.
func (t *AutocorrelationTracker) estimate(frame []float64, sampleRate, minLag, maxLag int) (float64, float64) {
	floats.AddConst(-stat.Mean(frame, nil), frame)
	energy := floats.Dot(frame, frame)
	if math.Sqrt(energy/float64(len(frame))) < t.cfg.SilenceRMS {
		return 0, 0
	}

	r := Autocorrelation(frame)
	n := len(frame)
	// unbiased and normalised so a perfectly periodic frame peaks at 1
	norm := make([]float64, maxLag+2)
	for lag := minLag - 1; lag <= maxLag+1 && lag < n; lag++ {
		norm[lag] = r[lag] * float64(n) / float64(n-lag) / r[0]
	}

	best := minLag
	for lag := minLag; lag <= maxLag; lag++ {
		if norm[lag] > norm[best] {
			best = lag
		}
	}
	if norm[best] <= 0 {
		return 0, 0
	}
	threshold := peakRatio * norm[best]
	for lag := minLag; lag < best; lag++ {
		if norm[lag] >= threshold && norm[lag] >= norm[lag-1] && norm[lag] >= norm[lag+1] {
			best = lag
			break
		}
	}

	shift, peak := parabolic(norm[best-1], norm[best], norm[best+1])
	conf := clamp01(peak)
	if conf < t.cfg.ConfidenceThreshold {
		return 0, conf
	}
	return float64(sampleRate) / (float64(best) + shift), conf
}

// Autocorrelation returns the linear (non-circular) autocorrelation of x for
// lags 0..len(x)-1, computed as the inverse FFT of the power spectrum.
func Autocorrelation(x []float64) []float64 {
	n := len(x)
	size := nextPow2(2 * n)
	buf := make([]float64, size)
	copy(buf, x)

	spec := fft.FFTReal(buf)
	for i, c := range spec {
		spec[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	inv := fft.IFFT(spec)

	out := make([]float64, n)
	for i := range out {
		out[i] = real(inv[i])
	}
	return out
}

// parabolic fits a parabola through three equally spaced points and returns
// the vertex offset from the middle one and the vertex height.
func parabolic(a, b, c float64) (float64, float64) {
	den := a - 2*b + c
	if den == 0 {
		return 0, b
	}
	shift := 0.5 * (a - c) / den
	if shift < -0.5 || shift > 0.5 {
		return 0, b
	}
	return shift, b - 0.25*(a-c)*shift
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
