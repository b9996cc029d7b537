package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/himanishpuri/MelodyAlign/pkg/utils"
)

// DefaultSampleRate is the rate recordings are resampled to before pitch
// tracking.
const DefaultSampleRate = 16000

var ErrFFmpegNotFound = errors.New("audio: ffmpeg not found in PATH")

type ConvertWAVConfig struct {
	SampleRate int
	Timeout    time.Duration
}

// ConvertToMonoWAV transcodes any ffmpeg-readable recording into a 16-bit
// mono WAV at cfg.SampleRate inside outputDir and returns its path.
func ConvertToMonoWAV(
	ctx context.Context,
	inputPath string,
	outputDir string,
	cfg ConvertWAVConfig,
) (string, error) {

	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return "", ErrFFmpegNotFound
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", err
	}

	baseName := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputPath := filepath.Join(outputDir, baseName+".wav")

	tmpPath := outputPath + ".tmp.wav"
	defer utils.DeleteFile(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-ac", "1", // mono
		"-ar", fmt.Sprintf("%d", cfg.SampleRate),
		"-c:a", "pcm_s16le",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg failed: %v (%s)", err, out)
	}

	if err := utils.MoveFile(tmpPath, outputPath); err != nil {
		return "", err
	}

	return outputPath, nil
}

// LoadMono reads a recording as mono samples at sampleRate. WAV files
// already at that rate are decoded directly; everything else goes through
// ffmpeg into tempDir first.
func LoadMono(ctx context.Context, path, tempDir string, sampleRate int) ([]float64, int, error) {
	if sampleRate == 0 {
		sampleRate = DefaultSampleRate
	}
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		samples, sr, err := ReadWavAsFloat64(path)
		if err == nil && sr == sampleRate {
			return samples, sr, nil
		}
	}

	workDir, err := os.MkdirTemp(tempDir, "melodyalign-*")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer utils.DeleteDir(workDir)

	wavPath, err := ConvertToMonoWAV(ctx, path, workDir, ConvertWAVConfig{SampleRate: sampleRate})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to convert %s: %w", filepath.Base(path), err)
	}
	return ReadWavAsFloat64(wavPath)
}
