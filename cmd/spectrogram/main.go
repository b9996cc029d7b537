//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"flag"
	"image"
	"image/draw"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/eligwz/spectrogram"
	"github.com/himanishpuri/MelodyAlign/pkg/logger"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/audio"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/pitch"
	"github.com/himanishpuri/MelodyAlign/pkg/utils"
)

var (
	inputDir  string
	outputDir string
	width     int
	height    int
	overlay   bool
)

func init() {
	flag.StringVar(&inputDir, "in", "testdata/takes", "Directory of WAV files")
	flag.StringVar(&outputDir, "out", "testdata/spectrograms", "Directory for PNG output")
	flag.IntVar(&width, "width", 2048, "Image width in pixels")
	flag.IntVar(&height, "height", 512, "Image height in pixels (frequency bins)")
	flag.BoolVar(&overlay, "contour", true, "Draw the tracked pitch contour over the spectrogram")
}

func main() {
	flag.Parse()
	log := logger.GetLogger().With("[spectrogram]")

	if err := utils.MakeDir(outputDir); err != nil {
		log.Errorf("Failed to create %s: %v", outputDir, err)
		os.Exit(1)
	}

	tracker, err := pitch.NewAutocorrelationTracker(pitch.DefaultConfig())
	if err != nil {
		log.Errorf("Failed to create tracker: %v", err)
		os.Exit(1)
	}

	// Process all WAV files in the input directory
	count := 0
	err = filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".wav") {
			return nil
		}

		log.Infof("Processing %s...", path)
		samples, sampleRate, err := audio.ReadWavAsFloat64(path)
		if err != nil {
			log.Warnf("Skipping %s: %v", path, err)
			return nil
		}

		img := spectrogram.NewImage128(image.Rect(0, 0, width, height))
		black := spectrogram.ParseColor("000000")
		draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

		// Hamming window, FFT, linear magnitude
		spectrogram.Drawfft(img, samples, uint32(sampleRate), uint32(height), false, false, true, false)

		if overlay {
			contour, err := tracker.Track(samples, sampleRate)
			if err != nil {
				log.Warnf("Pitch tracking failed for %s: %v", path, err)
			} else {
				duration := float64(len(samples)) / float64(sampleRate)
				drawContour(img, contour, duration, sampleRate)
				log.Debugf("%s: %d/%d voiced frames", path, contour.VoicedCount(), len(contour))
			}
		}

		outputPath := filepath.Join(outputDir, filepath.Base(path)+".png")
		if err := spectrogram.SavePng(img, outputPath); err != nil {
			log.Warnf("Error saving PNG for %s: %v", outputPath, err)
			return nil
		}
		count++
		log.Infof("Saved spectrogram to %s", outputPath)
		return nil
	})
	if err != nil {
		log.Errorf("Walk failed: %v", err)
		os.Exit(1)
	}

	log.Infof("Done! %d spectrogram(s) written", count)
}

// drawContour marks each voiced frame, brighter for higher confidence
func drawContour(img draw.Image, contour alignment.PitchContour, duration float64, sampleRate int) {
	b := img.Bounds()
	for _, s := range contour {
		x, y, ok := contourPoint(s, duration, sampleRate, b.Dx(), b.Dy())
		if !ok {
			continue
		}
		c := contourColor(s.Confidence)
		for dy := -1; dy <= 1; dy++ {
			if py := y + dy; py >= 0 && py < b.Dy() {
				img.Set(b.Min.X+x, b.Min.Y+py, c)
			}
		}
	}
}
