package audio

import (
	"errors"
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var (
	ErrInvalidWAV  = errors.New("audio: not a valid WAV file")
	ErrEmptyWAV    = errors.New("audio: WAV file has no samples")
	ErrInvalidRate = errors.New("audio: sample rate must be positive")
)

// ReadWavAsFloat64 decodes a PCM WAV file into mono samples in [-1, 1],
// averaging channels, and returns them with the file's sample rate.
func ReadWavAsFloat64(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("reading samples: %w", err)
	}
	if len(buf.Data) == 0 {
		return nil, 0, ErrEmptyWAV
	}

	channels := int(decoder.NumChans)
	if channels < 1 {
		channels = 1
	}
	maxVal := float64(int(1) << (uint(decoder.BitDepth) - 1))

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch])
		}
		samples[i] = sum / float64(channels) / maxVal
	}
	return samples, int(decoder.SampleRate), nil
}

// WriteWavFloat64 encodes mono samples in [-1, 1] as a 16-bit PCM WAV.
// Samples outside the range are clipped.
func WriteWavFloat64(path string, samples []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return ErrInvalidRate
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(math.Round(math.Max(-1, math.Min(1, s)) * math.MaxInt16))
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}
	return enc.Close()
}
