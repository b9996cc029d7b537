package main

import (
	"fmt"
	"time"

	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"github.com/himanishpuri/MelodyAlign/pkg/models"
)

// Request size limits
const (
	// MaxNotes caps the notes of a single melody
	MaxNotes = 5000

	// MaxFrames caps a contour (~16 minutes at a 10 ms hop)
	MaxFrames = 100000

	// FrameWarningThreshold triggers logging for large contours
	FrameWarningThreshold = 30000
)

// AddMelodyRequest is the request body for POST /api/melodies
type AddMelodyRequest struct {
	Title     string                   `json:"title"`
	Artist    string                   `json:"artist,omitempty"`
	Notes     []alignment.NoteBoundary `json:"notes"`
	Reference alignment.PitchContour   `json:"reference,omitempty"`
}

// Validate checks if the request is valid
func (r *AddMelodyRequest) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(r.Notes) == 0 {
		return fmt.Errorf("notes cannot be empty")
	}
	if len(r.Notes) > MaxNotes {
		return fmt.Errorf("too many notes: %d (maximum: %d)", len(r.Notes), MaxNotes)
	}
	if len(r.Reference) > MaxFrames {
		return fmt.Errorf("reference too long: %d frames (maximum: %d)", len(r.Reference), MaxFrames)
	}
	return nil
}

// AlignRequest is the request body for POST /api/melodies/{id}/align
type AlignRequest struct {
	Contour alignment.PitchContour `json:"contour"`
}

// Validate checks if the request is valid
func (r *AlignRequest) Validate() error {
	return validateContourSize("contour", r.Contour)
}

// CompareRequest is the request body for POST /api/align. Nothing is stored.
type CompareRequest struct {
	Reference alignment.PitchContour   `json:"reference"`
	User      alignment.PitchContour   `json:"user"`
	Notes     []alignment.NoteBoundary `json:"notes"`
	Config    *alignment.Config        `json:"config,omitempty"`
}

// Validate checks if the request is valid
func (r *CompareRequest) Validate() error {
	if err := validateContourSize("reference", r.Reference); err != nil {
		return err
	}
	if err := validateContourSize("user", r.User); err != nil {
		return err
	}
	if len(r.Notes) > MaxNotes {
		return fmt.Errorf("too many notes: %d (maximum: %d)", len(r.Notes), MaxNotes)
	}
	return nil
}

func validateContourSize(name string, c alignment.PitchContour) error {
	if len(c) == 0 {
		return fmt.Errorf("%s cannot be empty", name)
	}
	if len(c) > MaxFrames {
		return fmt.Errorf("%s too long: %d frames (maximum: %d)", name, len(c), MaxFrames)
	}
	return nil
}

// AddMelodyResponse is the response for successful melody addition
type AddMelodyResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
	Title   string `json:"title"`
	Artist  string `json:"artist"`
}

// MelodyDTO represents a melody in API responses
type MelodyDTO struct {
	ID         string                   `json:"id"`
	Title      string                   `json:"title"`
	Artist     string                   `json:"artist"`
	NoteCount  int                      `json:"note_count"`
	DurationMs int                      `json:"duration_ms"`
	CreatedAt  time.Time                `json:"created_at"`
	Notes      []alignment.NoteBoundary `json:"notes,omitempty"`
}

func toMelodyDTO(m models.Melody, withNotes bool) MelodyDTO {
	dto := MelodyDTO{
		ID:         m.ID,
		Title:      m.Title,
		Artist:     m.Artist,
		NoteCount:  len(m.Notes),
		DurationMs: m.DurationMs,
		CreatedAt:  m.CreatedAt,
	}
	if withNotes {
		dto.Notes = m.Notes
	}
	return dto
}

// ListMelodiesResponse is the response for GET /api/melodies
type ListMelodiesResponse struct {
	Melodies []MelodyDTO `json:"melodies"`
	Count    int         `json:"count"`
}

// DeleteMelodyResponse is the response for DELETE /api/melodies/{id}
type DeleteMelodyResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// NoteReportDTO is a note matching with readable note names
type NoteReportDTO struct {
	alignment.NoteMatching
	ReferenceNote string `json:"reference_note"`
	UserNote      string `json:"user_note"`
	Matched       bool   `json:"matched"`
}

// AlignResponse is the response for the align endpoints
type AlignResponse struct {
	SessionID          string                     `json:"session_id,omitempty"`
	AlignmentQuality   float64                    `json:"alignment_quality"`
	TimingAccuracy     float64                    `json:"timing_accuracy"`
	NormalizedDistance float64                    `json:"normalized_distance"`
	CorrectCount       int                        `json:"correct_count"`
	NoteCount          int                        `json:"note_count"`
	Notes              []NoteReportDTO            `json:"notes"`
	Path               []alignment.AlignmentPoint `json:"path,omitempty"`
}

func toAlignResponse(sessionID string, res *alignment.AlignmentResult, withPath bool) AlignResponse {
	notes := make([]NoteReportDTO, len(res.NoteMatchings))
	for i, m := range res.NoteMatchings {
		notes[i] = NoteReportDTO{
			NoteMatching:  m,
			ReferenceNote: alignment.NoteName(m.ReferenceNoteFreq).String(),
			UserNote:      alignment.NoteName(m.UserNoteFreq).String(),
			Matched:       m.Matched(),
		}
	}
	resp := AlignResponse{
		SessionID:          sessionID,
		AlignmentQuality:   res.AlignmentQuality,
		TimingAccuracy:     res.TimingAccuracy,
		NormalizedDistance: res.NormalizedDistance,
		CorrectCount:       res.CorrectCount(),
		NoteCount:          len(res.NoteMatchings),
		Notes:              notes,
	}
	if withPath {
		resp.Path = res.AlignmentPath
	}
	return resp
}

// ListSessionsResponse is the response for GET /api/melodies/{id}/sessions
type ListSessionsResponse struct {
	MelodyID string           `json:"melody_id"`
	Sessions []models.Session `json:"sessions"`
	Count    int              `json:"count"`
}

// MetricsResponse provides server health and database metrics
type MetricsResponse struct {
	Status         string `json:"status"`
	DatabasePath   string `json:"database_path"`
	MelodyCount    int64  `json:"melody_count"`
	SessionCount   int64  `json:"session_count"`
	CachedMelodies int    `json:"cached_melodies"`
	SampleRate     int    `json:"sample_rate"`
	Started        string `json:"started"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
