package models

import (
	"time"

	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
)

// Melody is a stored reference melody.
type Melody struct {
	ID         string                   `json:"id"`     // UUID
	Title      string                   `json:"title"`  // Song or exercise title
	Artist     string                   `json:"artist"` // Composer, artist or source
	Notes      []alignment.NoteBoundary `json:"notes"`  // Reference segmentation
	Reference  alignment.PitchContour   `json:"reference,omitempty"`
	HopSeconds float64                  `json:"hop_seconds"`
	DurationMs int                      `json:"duration_ms"`
	CreatedAt  time.Time                `json:"created_at"`
}

// Session is one scored take against a melody.
type Session struct {
	ID                 string                   `json:"id"`
	MelodyID           string                   `json:"melody_id"`
	AlignmentQuality   float64                  `json:"alignment_quality"`
	TimingAccuracy     float64                  `json:"timing_accuracy"`
	NormalizedDistance float64                  `json:"normalized_distance"`
	NoteCount          int                      `json:"note_count"`
	CorrectCount       int                      `json:"correct_count"`
	UserFrames         int                      `json:"user_frames"`
	Matchings          []alignment.NoteMatching `json:"matchings,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
}

// Stats summarises what the store holds.
type Stats struct {
	Melodies int64 `json:"melodies"`
	Sessions int64 `json:"sessions"`
	Cached   int   `json:"cached_melodies"`
}
