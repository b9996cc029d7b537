//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/melody"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cliNotes = []alignment.NoteBoundary{
	{StartTime: 0, Duration: 0.5, ExpectedFrequencyHz: 261.6255653005986},
	{StartTime: 0.5, Duration: 0.5, ExpectedFrequencyHz: 329.6275569128699},
	{StartTime: 1, Duration: 1, ExpectedFrequencyHz: 391.99543598174927},
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

var idPattern = regexp.MustCompile(`ID:\s+([0-9a-f-]{36})`)

func TestCLI_Workflow(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "cli.sqlite3")

	notesPath := filepath.Join(dir, "arpeggio.json")
	require.NoError(t, melody.SaveNotesJSON(notesPath, cliNotes))

	out, err := runCLI(t, "--db", db, "--temp", dir, "add", "--notes", notesPath, "--title", "Arpeggio")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully added melody")
	m := idPattern.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	id := m[1]

	out, err = runCLI(t, "--db", db, "list")
	require.NoError(t, err)
	assert.Contains(t, out, `"Arpeggio" by Unknown Artist`)
	assert.Contains(t, out, "3 notes | 0:02.0")

	out, err = runCLI(t, "--db", db, "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "C4")
	assert.Contains(t, out, "G4")

	// A perfect take written as CSV
	take, err := melody.ContourFromNotes(cliNotes, melody.DefaultHopSeconds)
	require.NoError(t, err)
	takePath := filepath.Join(dir, "take.csv")
	require.NoError(t, writeCSVFile(takePath, take))

	out, err = runCLI(t, "--db", db, "align", id, takePath)
	require.NoError(t, err)
	assert.Contains(t, out, "100.0% (3/3 notes in tune)")

	// Two takes go through the batch path
	refPath := filepath.Join(dir, "ref.json")
	require.NoError(t, melody.SaveContourJSON(refPath, take))
	out, err = runCLI(t, "--db", db, "align", id, takePath, refPath)
	require.NoError(t, err)
	assert.Contains(t, out, "take.csv")
	assert.Contains(t, out, "ref.json")

	out, err = runCLI(t, "--db", db, "sessions", id)
	require.NoError(t, err)
	assert.Contains(t, out, "3 session(s)")

	out, err = runCLI(t, "--db", db, "compare", "-r", refPath, "-u", takePath, "-n", notesPath)
	require.NoError(t, err)
	assert.Contains(t, out, "100.0%")
	assert.NotContains(t, out, "Session:")

	out, err = runCLI(t, "--db", db, "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully deleted melody")

	_, err = runCLI(t, "--db", db, "show", id)
	assert.Error(t, err)
}

func TestCLI_AlignSilentTake(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "cli.sqlite3")

	notesPath := filepath.Join(dir, "notes.json")
	require.NoError(t, melody.SaveNotesJSON(notesPath, cliNotes))
	out, err := runCLI(t, "--db", db, "add", "-n", notesPath, "-t", "Silent")
	require.NoError(t, err)
	id := idPattern.FindStringSubmatch(out)[1]

	silent := make(alignment.PitchContour, 100)
	for i := range silent {
		silent[i].TimeSeconds = float64(i) * 0.01
	}
	takePath := filepath.Join(dir, "silent.json")
	require.NoError(t, melody.SaveContourJSON(takePath, silent))

	_, err = runCLI(t, "--db", db, "align", id, takePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough signal")
	assert.ErrorIs(t, err, alignment.ErrInsufficientData)
}

func TestCLI_Args(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.sqlite3")

	_, err := runCLI(t, "--db", db, "align", "only-id")
	assert.Error(t, err)

	_, err = runCLI(t, "--db", db, "add", "--title", "x")
	assert.Error(t, err, "--notes is required")
}

func TestLoadContour_UnsupportedExtension(t *testing.T) {
	_, err := loadContour("take.mp3")
	assert.Error(t, err)
	assert.False(t, isContourFile("take.mp3"))
	assert.True(t, isContourFile("TAKE.CSV"))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:00.0", formatDuration(0))
	assert.Equal(t, "1:01.5", formatDuration(61500))
}
