package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/himanishpuri/MelodyAlign/pkg/logger"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/melody"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNotes = []alignment.NoteBoundary{
	{StartTime: 0, Duration: 1, ExpectedFrequencyHz: 220},
	{StartTime: 1, Duration: 1, ExpectedFrequencyHz: 330},
}

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	svc, err := melodyalign.NewService(
		melodyalign.WithDBPath(filepath.Join(t.TempDir(), "server_test.sqlite3")),
		melodyalign.WithTempDir(t.TempDir()),
		melodyalign.WithLogger(logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})),
	)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	s := NewServer(svc, &ServerConfig{
		DBPath:         "server_test.sqlite3",
		TempDir:        t.TempDir(),
		SampleRate:     16000,
		AllowedOrigins: []string{"https://example.com"},
	})
	s.log = logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})

	ts := httptest.NewServer(s.setupRoutes())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func addTestMelody(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	var added AddMelodyResponse
	code := doJSON(t, http.MethodPost, ts.URL+"/api/melodies", AddMelodyRequest{
		Title: "Fifth",
		Notes: testNotes,
	}, &added)
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, added.ID)
	assert.Equal(t, "Unknown Artist", added.Artist)
	return added.ID
}

func testContour(t *testing.T) alignment.PitchContour {
	t.Helper()
	c, err := melody.ContourFromNotes(testNotes, melody.DefaultHopSeconds)
	require.NoError(t, err)
	return c
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)

	var body map[string]string
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/health", nil, &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestMelodyLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	id := addTestMelody(t, ts)

	var list ListMelodiesResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/api/melodies", nil, &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, 2, list.Melodies[0].NoteCount)
	assert.Empty(t, list.Melodies[0].Notes)

	var got MelodyDTO
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/api/melodies/"+id, nil, &got))
	assert.Equal(t, 2000, got.DurationMs)
	assert.Equal(t, testNotes, got.Notes)

	var del DeleteMelodyResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodDelete, ts.URL+"/api/melodies/"+id, nil, &del))
	assert.Equal(t, id, del.ID)

	var errResp ErrorResponse
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, ts.URL+"/api/melodies/"+id, nil, &errResp))
	assert.Equal(t, http.StatusNotFound, errResp.Code)
}

func TestAddMelody_BadRequest(t *testing.T) {
	ts := setupTestServer(t)

	var errResp ErrorResponse
	code := doJSON(t, http.MethodPost, ts.URL+"/api/melodies", AddMelodyRequest{Notes: testNotes}, &errResp)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, errResp.Message, "title")

	backwards := []alignment.NoteBoundary{testNotes[1], testNotes[0]}
	code = doJSON(t, http.MethodPost, ts.URL+"/api/melodies", AddMelodyRequest{Title: "x", Notes: backwards}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/melodies", bytes.NewBufferString("{"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAlignContour(t *testing.T) {
	ts := setupTestServer(t)
	id := addTestMelody(t, ts)

	var res AlignResponse
	code := doJSON(t, http.MethodPost, ts.URL+"/api/melodies/"+id+"/align", AlignRequest{Contour: testContour(t)}, &res)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, 1.0, res.AlignmentQuality)
	assert.Equal(t, 2, res.CorrectCount)
	require.Len(t, res.Notes, 2)
	assert.Equal(t, "A3+0c", res.Notes[0].ReferenceNote)
	assert.True(t, res.Notes[0].Matched)
	assert.Empty(t, res.Path)

	var sessions ListSessionsResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/api/melodies/"+id+"/sessions?limit=5", nil, &sessions))
	require.Equal(t, 1, sessions.Count)
	assert.Equal(t, res.SessionID, sessions.Sessions[0].ID)

	var metrics MetricsResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/api/health/metrics", nil, &metrics))
	assert.EqualValues(t, 1, metrics.MelodyCount)
	assert.EqualValues(t, 1, metrics.SessionCount)
}

func TestAlignContour_Errors(t *testing.T) {
	ts := setupTestServer(t)
	id := addTestMelody(t, ts)

	assert.Equal(t, http.StatusNotFound,
		doJSON(t, http.MethodPost, ts.URL+"/api/melodies/missing/align", AlignRequest{Contour: testContour(t)}, nil))

	assert.Equal(t, http.StatusBadRequest,
		doJSON(t, http.MethodPost, ts.URL+"/api/melodies/"+id+"/align", AlignRequest{}, nil))

	silent := make(alignment.PitchContour, 50)
	for i := range silent {
		silent[i].TimeSeconds = float64(i) * 0.01
	}
	var errResp ErrorResponse
	code := doJSON(t, http.MethodPost, ts.URL+"/api/melodies/"+id+"/align", AlignRequest{Contour: silent}, &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, errResp.Message, "Not enough signal")

	assert.Equal(t, http.StatusBadRequest,
		doJSON(t, http.MethodGet, ts.URL+"/api/melodies/"+id+"/sessions?limit=abc", nil, nil))
}

func TestCompare(t *testing.T) {
	ts := setupTestServer(t)
	c := testContour(t)

	var res AlignResponse
	code := doJSON(t, http.MethodPost, ts.URL+"/api/align?path=true", CompareRequest{
		Reference: c,
		User:      c,
		Notes:     testNotes,
	}, &res)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, res.SessionID)
	assert.Equal(t, 1.0, res.AlignmentQuality)
	assert.Len(t, res.Path, len(c))

	bad := alignment.DefaultConfig()
	bad.ToleranceCents = -1
	code = doJSON(t, http.MethodPost, ts.URL+"/api/align", CompareRequest{
		Reference: c,
		User:      c,
		Notes:     testNotes,
		Config:    &bad,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCompare_PartialConfig(t *testing.T) {
	ts := setupTestServer(t)
	c := testContour(t)

	var res AlignResponse
	code := doJSON(t, http.MethodPost, ts.URL+"/api/align", map[string]any{
		"reference": c,
		"user":      c,
		"notes":     testNotes,
		"config":    json.RawMessage(`{"tolerance_cents":30}`),
	}, &res)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, res.AlignmentQuality)
	assert.Len(t, res.Notes, len(testNotes))
}

func TestCORSPreflight(t *testing.T) {
	ts := setupTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/melodies", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://example.com", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrapped: %w", melodyalign.ErrNotFound), http.StatusNotFound},
		{alignment.ErrInsufficientData, http.StatusUnprocessableEntity},
		{alignment.ErrInvalidNoteBoundaries, http.StatusBadRequest},
		{alignment.ErrInvalidContour, http.StatusBadRequest},
		{melodyalign.ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("%w: %w", alignment.ErrCancelled, context.Canceled), http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForError(tt.err), tt.err.Error())
	}
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1", getClientIP(r))

	r.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	assert.Equal(t, "1.2.3.4", getClientIP(r))
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, parseOrigins("*"))
	assert.Equal(t, []string{"a", "b"}, parseOrigins("a, b"))
}
