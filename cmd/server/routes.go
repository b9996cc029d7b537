package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/himanishpuri/MelodyAlign/pkg/logger"
)

// setupRoutes registers all HTTP routes and middleware
func (s *Server) setupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware)
	r.Use(corsMiddleware(s.config.AllowedOrigins))

	// Root endpoint
	r.Get("/", s.handleRoot)

	// Health endpoints
	r.Get("/health", s.handleHealth)
	r.Get("/api/health/metrics", s.handleMetrics)

	r.Route("/api/melodies", func(r chi.Router) {
		r.Get("/", s.handleListMelodies)
		r.Post("/", s.handleAddMelody)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetMelody)
			r.Delete("/", s.handleDeleteMelody)
			r.Post("/align", s.handleAlignContour)
			r.Post("/align/audio", s.handleAlignAudio)
			r.Get("/sessions", s.handleListSessions)
		})
	})

	// Stateless alignment
	r.Post("/api/align", s.handleCompare)

	return r
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Check if origin is allowed
			allowed := false
			if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
				// Allow all origins
				w.Header().Set("Access-Control-Allow-Origin", "*")
				allowed = true
			} else {
				// Check if origin is in allowed list
				for _, allowedOrigin := range allowedOrigins {
					if allowedOrigin == origin {
						w.Header().Set("Access-Control-Allow-Origin", origin)
						allowed = true
						break
					}
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, X-Request-Id")
				w.Header().Set("Access-Control-Max-Age", "3600")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			// Handle preflight requests
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs all HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Create a response writer wrapper to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		start := time.Now()
		log := logger.GetLogger().With("[http]")
		log.Debugf("%s %s from %s", r.Method, r.URL.Path, getClientIP(r))

		next.ServeHTTP(wrapped, r)

		log.Infof("%s %s -> %d (%s) [%s]", r.Method, r.URL.Path, wrapped.statusCode,
			time.Since(start).Round(time.Millisecond), middleware.GetReqID(r.Context()))
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// Check X-Real-IP header
	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	ip := r.RemoteAddr
	// Remove port if present
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.setupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Infof("🎤 MelodyAlign server starting on %s", addr)
	s.log.Infof("   Database: %s", s.config.DBPath)
	s.log.Infof("   Sample Rate: %d Hz", s.config.SampleRate)
	s.log.Infof("   CORS Origins: %v", s.config.AllowedOrigins)
	s.log.Infof("Endpoints:")
	s.log.Infof("   GET    /health                          - Health check")
	s.log.Infof("   GET    /api/health/metrics              - Server metrics")
	s.log.Infof("   GET    /api/melodies                    - List all melodies")
	s.log.Infof("   POST   /api/melodies                    - Add melody from notes")
	s.log.Infof("   GET    /api/melodies/{id}               - Get melody by ID")
	s.log.Infof("   DELETE /api/melodies/{id}               - Delete melody by ID")
	s.log.Infof("   POST   /api/melodies/{id}/align         - Score a pitch contour")
	s.log.Infof("   POST   /api/melodies/{id}/align/audio   - Score an audio recording")
	s.log.Infof("   GET    /api/melodies/{id}/sessions      - Past sessions")
	s.log.Infof("   POST   /api/align                       - Stateless alignment")

	return srv.ListenAndServe()
}
