//go:build !js && !wasm

package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a temporary test database
func setupTestDB(t *testing.T) (*DBClient, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test_melodyalign.sqlite3")
	t.Setenv("MELODYALIGN_DB_PATH", dbPath)

	client, err := NewDBClient()
	require.NoError(t, err, "failed to create test DB client")
	t.Cleanup(func() {
		client.Close()
	})

	return client, dbPath
}

func testMelody(title string) *Melody {
	return &Melody{
		Title:  title,
		Artist: "Traditional",
		Notes: []alignment.NoteBoundary{
			{StartTime: 0, Duration: 0.5, ExpectedFrequencyHz: 261.63},
			{StartTime: 0.5, Duration: 0.5, ExpectedFrequencyHz: 392},
		},
		Reference: alignment.PitchContour{
			{TimeSeconds: 0, FrequencyHz: 261.63, Confidence: 1},
			{TimeSeconds: 0.5, FrequencyHz: 392, Confidence: 1},
		},
		HopSeconds: 0.5,
		DurationMs: 1000,
	}
}

func TestNewDBClient(t *testing.T) {
	client, dbPath := setupTestDB(t)

	require.NotNil(t, client.DB)
	require.NotNil(t, client.db)

	_, err := os.Stat(dbPath)
	assert.NoError(t, err, "database file was not created")
}

func TestNewDBClientWithPath_CreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "custom.db")
	client, err := NewDBClientWithPath(path)
	require.NoError(t, err)
	defer client.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestRegisterMelody(t *testing.T) {
	client, _ := setupTestDB(t)

	m := testMelody("Twinkle")
	id, err := client.RegisterMelody(m)
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.Equal(t, id, m.ID)

	got, err := client.GetMelodyByID(id)
	require.NoError(t, err)
	assert.Equal(t, "Twinkle", got.Title)
	assert.Equal(t, m.Notes, got.Notes)
	assert.Equal(t, m.Reference, got.Reference)
	assert.Equal(t, 1000, got.DurationMs)
}

func TestRegisterMelody_SameTitleArtistReplacesNotes(t *testing.T) {
	client, _ := setupTestDB(t)

	first, err := client.RegisterMelody(testMelody("Twinkle"))
	require.NoError(t, err)

	updated := testMelody("Twinkle")
	updated.Notes = updated.Notes[:1]
	updated.DurationMs = 500
	second, err := client.RegisterMelody(updated)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	got, err := client.GetMelodyByID(first)
	require.NoError(t, err)
	assert.Len(t, got.Notes, 1)
	assert.Equal(t, 500, got.DurationMs)

	n, err := client.CountMelodies()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestGetMelodyByID_NotFound(t *testing.T) {
	client, _ := setupTestDB(t)

	_, err := client.GetMelodyByID("not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.GetMelodyByID("00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListMelodies(t *testing.T) {
	client, _ := setupTestDB(t)

	for _, title := range []string{"One", "Two", "Three"} {
		_, err := client.RegisterMelody(testMelody(title))
		require.NoError(t, err)
	}

	rows, err := client.ListMelodies()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Len(t, r.Notes, 2)
		assert.Empty(t, r.Reference, "list omits the reference contour")
	}
}

func TestSessions(t *testing.T) {
	client, _ := setupTestDB(t)

	melodyID, err := client.RegisterMelody(testMelody("Twinkle"))
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		s := &Session{
			MelodyID:         melodyID,
			AlignmentQuality: float64(i) / 2,
			NoteCount:        2,
			CorrectCount:     i,
			Matchings: []alignment.NoteMatching{
				{ReferenceNoteFreq: 261.63, UserNoteFreq: 262, IsCorrect: true},
				{ReferenceNoteFreq: 392, TimingErrorSeconds: alignment.UnmatchedTimingError},
			},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		id, err := client.SaveSession(s)
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	}

	all, err := client.ListSessions(melodyID, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 2, all[0].CorrectCount, "newest first")
	assert.Len(t, all[0].Matchings, 2)
	assert.False(t, all[0].Matchings[1].Matched())

	limited, err := client.ListSessions(melodyID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	n, err := client.CountSessions()
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestDeleteMelodyByID(t *testing.T) {
	client, _ := setupTestDB(t)

	melodyID, err := client.RegisterMelody(testMelody("Twinkle"))
	require.NoError(t, err)
	_, err = client.SaveSession(&Session{MelodyID: melodyID, NoteCount: 2})
	require.NoError(t, err)

	require.NoError(t, client.DeleteMelodyByID(melodyID))

	_, err = client.GetMelodyByID(melodyID)
	assert.ErrorIs(t, err, ErrNotFound)

	sessions, err := client.ListSessions(melodyID, 0)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	assert.ErrorIs(t, client.DeleteMelodyByID(melodyID), ErrNotFound)
}

func TestNilClient(t *testing.T) {
	var c *DBClient
	_, err := c.GetMelodyByID("x")
	assert.EqualError(t, err, errDBClientNil)
	assert.NoError(t, c.Close())
}
