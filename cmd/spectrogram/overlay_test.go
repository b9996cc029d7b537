package main

import (
	"image"
	"image/color"
	"testing"

	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"github.com/stretchr/testify/assert"
)

func TestContourPoint(t *testing.T) {
	s := alignment.PitchSample{TimeSeconds: 1, FrequencyHz: 2000, Confidence: 1}
	x, y, ok := contourPoint(s, 2, 8000, 100, 100)
	assert.True(t, ok)
	assert.Equal(t, 50, x)
	assert.Equal(t, 49, y)

	_, _, ok = contourPoint(alignment.PitchSample{TimeSeconds: 1}, 2, 8000, 100, 100)
	assert.False(t, ok, "unvoiced")

	_, _, ok = contourPoint(alignment.PitchSample{TimeSeconds: 1, FrequencyHz: 4000, Confidence: 1}, 2, 8000, 100, 100)
	assert.False(t, ok, "at nyquist")

	x, _, ok = contourPoint(alignment.PitchSample{TimeSeconds: 2, FrequencyHz: 100, Confidence: 1}, 2, 8000, 100, 100)
	assert.True(t, ok)
	assert.Equal(t, 99, x)
}

func TestDrawContour(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	contour := alignment.PitchContour{
		{TimeSeconds: 0, FrequencyHz: 2000, Confidence: 1},
		{TimeSeconds: 0.5},
	}
	drawContour(img, contour, 1, 8000)

	assert.Equal(t, color.RGBA{R: 255, G: 255, A: 255}, img.RGBAAt(0, 4))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(5, 4))
}
