package main

import (
	"image/color"
	"math"

	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
)

// contourPoint maps a frame onto image coordinates. Time runs left to right
// and frequency bottom to top, 0 Hz to Nyquist.
func contourPoint(s alignment.PitchSample, duration float64, sampleRate, w, h int) (x, y int, ok bool) {
	if !s.Voiced() || duration <= 0 || sampleRate <= 0 || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	nyquist := float64(sampleRate) / 2
	if s.FrequencyHz >= nyquist || s.TimeSeconds < 0 || s.TimeSeconds > duration {
		return 0, 0, false
	}
	x = int(math.Min(float64(w-1), s.TimeSeconds/duration*float64(w)))
	y = h - 1 - int(s.FrequencyHz/nyquist*float64(h))
	return x, y, true
}

func contourColor(confidence float64) color.RGBA {
	c := math.Max(0, math.Min(1, confidence))
	return color.RGBA{R: 255, G: uint8(80 + 175*c), B: 0, A: 255}
}
