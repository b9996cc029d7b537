package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/himanishpuri/MelodyAlign/pkg/logger"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/audio"
	"github.com/himanishpuri/MelodyAlign/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service melodyalign.Service
	config  *ServerConfig
	log     melodyalign.Logger
	started time.Time
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	SampleRate     int
	AllowedOrigins []string
	MaxUploadBytes int64
}

// NewServer creates a new server instance
func NewServer(service melodyalign.Service, config *ServerConfig) *Server {
	if config.MaxUploadBytes == 0 {
		config.MaxUploadBytes = 50 << 20
	}
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger().With("[server]"),
		started: time.Now(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// respondServiceError maps service and alignment errors onto HTTP statuses
func (s *Server) respondServiceError(w http.ResponseWriter, action string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.log.Errorf("Failed to %s: %v", action, err)
	} else {
		s.log.Warnf("Rejected %s: %v", action, err)
	}

	message := err.Error()
	if errors.Is(err, alignment.ErrInsufficientData) {
		message = "Not enough signal to score: " + err.Error()
	}
	s.respondError(w, status, message)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, melodyalign.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, alignment.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, alignment.ErrInvalidNoteBoundaries),
		errors.Is(err, alignment.ErrInvalidContour),
		errors.Is(err, alignment.ErrInvalidConfig),
		errors.Is(err, melodyalign.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, alignment.ErrCancelled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, audio.ErrFFmpegNotFound):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "MelodyAlign API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":         "GET /health",
			"metrics":        "GET /api/health/metrics",
			"melodies":       "GET /api/melodies",
			"addMelody":      "POST /api/melodies",
			"getMelody":      "GET /api/melodies/{id}",
			"deleteMelody":   "DELETE /api/melodies/{id}",
			"alignContour":   "POST /api/melodies/{id}/align",
			"alignAudio":     "POST /api/melodies/{id}/align/audio",
			"listSessions":   "GET /api/melodies/{id}/sessions",
			"alignStateless": "POST /api/align",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats()
	if err != nil {
		s.log.Errorf("Failed to get stats: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:         "healthy",
		DatabasePath:   s.config.DBPath,
		MelodyCount:    stats.Melodies,
		SessionCount:   stats.Sessions,
		CachedMelodies: stats.Cached,
		SampleRate:     s.config.SampleRate,
		Started:        humanize.Time(s.started),
	})
}

// handleListMelodies handles GET /api/melodies
func (s *Server) handleListMelodies(w http.ResponseWriter, r *http.Request) {
	melodies, err := s.service.ListMelodies()
	if err != nil {
		s.log.Errorf("Failed to list melodies: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve melodies")
		return
	}

	dtos := make([]MelodyDTO, len(melodies))
	for i, m := range melodies {
		dtos[i] = toMelodyDTO(m, false)
	}

	s.respondJSON(w, http.StatusOK, ListMelodiesResponse{
		Melodies: dtos,
		Count:    len(dtos),
	})
}

// handleAddMelody handles POST /api/melodies (JSON notes)
func (s *Server) handleAddMelody(w http.ResponseWriter, r *http.Request) {
	var req AddMelodyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Errorf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.service.AddMelody(r.Context(), req.Title, req.Artist, req.Notes, req.Reference)
	if err != nil {
		s.respondServiceError(w, "add melody", err)
		return
	}

	m, err := s.service.GetMelody(id)
	if err != nil {
		s.respondServiceError(w, "load melody", err)
		return
	}

	s.respondJSON(w, http.StatusCreated, AddMelodyResponse{
		Message: "Melody added successfully",
		ID:      id,
		Title:   m.Title,
		Artist:  m.Artist,
	})
}

// handleGetMelody handles GET /api/melodies/{id}
func (s *Server) handleGetMelody(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, err := s.service.GetMelody(id)
	if err != nil {
		s.respondServiceError(w, "get melody", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMelodyDTO(*m, true))
}

// handleDeleteMelody handles DELETE /api/melodies/{id}
func (s *Server) handleDeleteMelody(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.service.DeleteMelody(id); err != nil {
		s.respondServiceError(w, "delete melody", err)
		return
	}

	s.respondJSON(w, http.StatusOK, DeleteMelodyResponse{
		Message: "Melody deleted successfully",
		ID:      id,
	})
}

// handleAlignContour handles POST /api/melodies/{id}/align (JSON contour)
func (s *Server) handleAlignContour(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	var req AlignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Errorf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Contour) >= FrameWarningThreshold {
		s.log.Warnf("Large contour received: %d frames", len(req.Contour))
	}

	res, err := s.service.AlignContour(ctx, id, req.Contour)
	if err != nil {
		s.respondServiceError(w, "align contour", err)
		return
	}

	s.respondJSON(w, http.StatusOK, toAlignResponse(res.Session.ID, res.Result, wantPath(r)))
}

// handleAlignAudio handles POST /api/melodies/{id}/align/audio (multipart file upload)
func (s *Server) handleAlignAudio(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	id := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	// Get uploaded file
	file, header, err := r.FormFile("audio")
	if err != nil {
		s.log.Errorf("Failed to get audio file: %v", err)
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	// Save to temporary file
	tempFile := filepath.Join(s.config.TempDir, fmt.Sprintf("take_%d_%s", time.Now().UnixNano(), filepath.Base(header.Filename)))
	out, err := os.Create(tempFile)
	if err != nil {
		s.log.Errorf("Failed to create temp file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}
	defer out.Close()
	defer utils.DeleteFile(tempFile)

	n, err := io.Copy(out, file)
	if err != nil {
		s.log.Errorf("Failed to save file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	out.Close()

	s.log.Infof("Aligning uploaded take %s (%s) against %s", header.Filename, humanize.Bytes(uint64(n)), id)
	res, err := s.service.AlignRecording(ctx, id, tempFile)
	if err != nil {
		s.respondServiceError(w, "align recording", err)
		return
	}

	s.respondJSON(w, http.StatusOK, toAlignResponse(res.Session.ID, res.Result, wantPath(r)))
}

// handleListSessions handles GET /api/melodies/{id}/sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	sessions, err := s.service.ListSessions(id, limit)
	if err != nil {
		s.respondServiceError(w, "list sessions", err)
		return
	}

	s.respondJSON(w, http.StatusOK, ListSessionsResponse{
		MelodyID: id,
		Sessions: sessions,
		Count:    len(sessions),
	})
}

// handleCompare handles POST /api/align (stateless alignment)
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	// Fields missing from a partial config keep their defaults.
	cfg := alignment.DefaultConfig()
	req := CompareRequest{Config: &cfg}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Errorf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.service.Compare(ctx, req.Reference, req.User, req.Notes, req.Config)
	if err != nil {
		s.respondServiceError(w, "align", err)
		return
	}

	s.respondJSON(w, http.StatusOK, toAlignResponse("", res, wantPath(r)))
}

func wantPath(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("path"))
	return v
}
