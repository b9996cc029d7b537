package melody

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
)

var ErrMalformedCSV = errors.New("melody: malformed contour csv")

// LoadContourJSON reads a JSON array of {"time","frequency","confidence"}.
func LoadContourJSON(path string) (alignment.PitchContour, error) {
	var c alignment.PitchContour
	if err := readJSON(path, &c); err != nil {
		return nil, err
	}
	return c, nil
}

// SaveContourJSON writes c as an indented JSON array.
func SaveContourJSON(path string, c alignment.PitchContour) error {
	return writeJSON(path, c)
}

// LoadNotesJSON reads a JSON array of note boundaries.
func LoadNotesJSON(path string) ([]alignment.NoteBoundary, error) {
	var notes []alignment.NoteBoundary
	if err := readJSON(path, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// SaveNotesJSON writes notes as an indented JSON array.
func SaveNotesJSON(path string, notes []alignment.NoteBoundary) error {
	return writeJSON(path, notes)
}

// LoadContourCSV reads a CREPE-style file with columns
// time,frequency,confidence. A header row is optional.
func LoadContourCSV(path string) (alignment.PitchContour, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open contour csv: %w", err)
	}
	defer f.Close()
	return ReadContourCSV(f)
}

// ReadContourCSV is LoadContourCSV over an arbitrary reader.
func ReadContourCSV(r io.Reader) (alignment.PitchContour, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var contour alignment.PitchContour
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("%w: line %d has %d fields", ErrMalformedCSV, line, len(rec))
		}
		if line == 1 && isHeader(rec) {
			continue
		}

		vals := make([]float64, 3)
		vals[2] = 1
		for i := 0; i < len(rec) && i < 3; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d field %d: %v", ErrMalformedCSV, line, i+1, err)
			}
			vals[i] = v
		}
		sample := alignment.PitchSample{TimeSeconds: vals[0], FrequencyHz: vals[1], Confidence: vals[2]}
		if !sample.Voiced() {
			sample.FrequencyHz = 0
		}
		contour = append(contour, sample)
	}
	return contour, nil
}

// WriteContourCSV writes c with a time,frequency,confidence header.
func WriteContourCSV(w io.Writer, c alignment.PitchContour) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "frequency", "confidence"}); err != nil {
		return err
	}
	for _, s := range c {
		rec := []string{
			strconv.FormatFloat(s.TimeSeconds, 'f', -1, 64),
			strconv.FormatFloat(s.FrequencyHz, 'f', -1, 64),
			strconv.FormatFloat(s.Confidence, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func isHeader(rec []string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
	return err != nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
