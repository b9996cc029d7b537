package audio

import (
	"context"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tone(freq float64, n, rate int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return out
}

func TestWavRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	in := tone(440, 8000, 8000)
	require.NoError(t, WriteWavFloat64(path, in, 8000))

	out, sr, err := ReadWavAsFloat64(path)
	require.NoError(t, err)
	assert.Equal(t, 8000, sr)
	require.Len(t, out, len(in))
	for i := range in {
		assert.InDelta(t, in[i], out[i], 1.0/math.MaxInt16+1e-9, "sample %d", i)
	}
}

func TestWriteWavFloat64_Clips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loud.wav")
	require.NoError(t, WriteWavFloat64(path, []float64{2, -2, 0}, 8000))

	out, _, err := ReadWavAsFloat64(path)
	require.NoError(t, err)
	assert.InDelta(t, 1, out[0], 1e-3)
	assert.InDelta(t, -1, out[1], 1e-3)
	assert.Zero(t, out[2])
}

func TestWriteWavFloat64_InvalidRate(t *testing.T) {
	assert.ErrorIs(t, WriteWavFloat64(filepath.Join(t.TempDir(), "x.wav"), []float64{0}, 0), ErrInvalidRate)
}

func TestReadWavAsFloat64_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a riff file"), 0o644))

	_, _, err := ReadWavAsFloat64(path)
	assert.ErrorIs(t, err, ErrInvalidWAV)

	_, _, err = ReadWavAsFloat64(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}

func TestLoadMono_WavAtTargetRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.wav")
	require.NoError(t, WriteWavFloat64(path, tone(220, 1600, 16000), 16000))

	samples, sr, err := LoadMono(context.Background(), path, t.TempDir(), 16000)
	require.NoError(t, err)
	assert.Equal(t, 16000, sr)
	assert.Len(t, samples, 1600)
}

func TestConvertToMonoWAV(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "take.wav")
	require.NoError(t, WriteWavFloat64(src, tone(220, 44100, 44100), 44100))

	out, err := ConvertToMonoWAV(context.Background(), src, filepath.Join(dir, "out"), ConvertWAVConfig{SampleRate: 16000})
	require.NoError(t, err)

	samples, sr, err := ReadWavAsFloat64(out)
	require.NoError(t, err)
	assert.Equal(t, 16000, sr)
	assert.InDelta(t, 16000, len(samples), 200)
}
