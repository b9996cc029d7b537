//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/melody"
	"github.com/himanishpuri/MelodyAlign/pkg/models"
	"github.com/spf13/cobra"
)

func (a *app) alignCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "align <melody-id> <take>...",
		Short: "Score one or more takes against a stored melody",
		Long: `Score takes against a stored melody. A take is a pitch contour (.json,
.csv) or an audio recording (any format ffmpeg can read). Several takes are
scored concurrently.

Examples:
  melodyalign align 6f1c... take.wav
  melodyalign align 6f1c... take1.csv take2.csv take3.json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			id, takes := args[0], args[1:]
			return a.withService(func(svc melodyalign.Service) error {
				m, err := svc.GetMelody(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "🎤 Scoring %d take(s) against \"%s\" by %s\n", len(takes), m.Title, m.Artist)

				contours := make([]alignment.PitchContour, len(takes))
				for i, path := range takes {
					if contours[i], err = loadTake(ctx, svc, path); err != nil {
						return fmt.Errorf("take %s: %w", path, err)
					}
				}

				if len(takes) == 1 {
					res, err := svc.AlignContour(ctx, id, contours[0])
					if err != nil {
						return explain(err)
					}
					printReport(out, takes[0], res)
					return nil
				}

				items, err := svc.AlignBatch(ctx, id, contours)
				if err != nil {
					return err
				}
				failed := 0
				for _, it := range items {
					if it.Err != nil {
						failed++
						fmt.Fprintf(out, "\n❌ %s: %v\n", takes[it.Index], explain(it.Err))
						continue
					}
					printReport(out, takes[it.Index], it.Result)
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d takes failed", failed, len(takes))
				}
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall time limit")
	return cmd
}

func (a *app) sessionsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions <melody-id>",
		Short: "List past scored takes of a melody, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return a.withService(func(svc melodyalign.Service) error {
				sessions, err := svc.ListSessions(args[0], limit)
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					fmt.Fprintln(out, "\n📭 No sessions recorded")
					return nil
				}
				fmt.Fprintf(out, "\n📈 %d session(s):\n\n", len(sessions))
				for _, s := range sessions {
					printSessionLine(out, s)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum sessions to show (0 = all)")
	return cmd
}

func (a *app) extractCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "extract <audio>",
		Short: "Track the pitch of a recording and write its contour",
		Long: `Track the pitch of a recording and write the contour as CSV (default) or
JSON, chosen by the output extension. Without --output the CSV goes to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(func(svc melodyalign.Service) error {
				contour, err := svc.ExtractContour(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				if output == "" {
					return melody.WriteContourCSV(cmd.OutOrStdout(), contour)
				}
				if strings.EqualFold(filepath.Ext(output), ".json") {
					err = melody.SaveContourJSON(output, contour)
				} else {
					err = writeCSVFile(output, contour)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "✅ Wrote %s frames (%s voiced) to %s\n",
					humanize.Comma(int64(len(contour))), humanize.Comma(int64(contour.VoicedCount())), output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (.csv or .json)")
	return cmd
}

func (a *app) compareCmd() *cobra.Command {
	var refPath, userPath, notesPath string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Align two contours without touching the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := loadContour(refPath)
			if err != nil {
				return err
			}
			user, err := loadContour(userPath)
			if err != nil {
				return err
			}
			notes, err := melody.LoadNotesJSON(notesPath)
			if err != nil {
				return err
			}

			return a.withService(func(svc melodyalign.Service) error {
				res, err := svc.Compare(cmd.Context(), ref, user, notes, nil)
				if err != nil {
					return explain(err)
				}
				printReport(cmd.OutOrStdout(), userPath, &melodyalign.SessionResult{Result: res})
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&refPath, "reference", "r", "", "Reference contour (.json or .csv)")
	cmd.Flags().StringVarP(&userPath, "user", "u", "", "User contour (.json or .csv)")
	cmd.Flags().StringVarP(&notesPath, "notes", "n", "", "JSON file of note boundaries")
	cmd.MarkFlagRequired("reference")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("notes")
	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return a.withService(func(svc melodyalign.Service) error {
				st, err := svc.Stats()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Database: %s\n", a.dbPath)
				fmt.Fprintf(out, "Melodies: %s\n", humanize.Comma(st.Melodies))
				fmt.Fprintf(out, "Sessions: %s\n", humanize.Comma(st.Sessions))
				if fi, err := os.Stat(a.dbPath); err == nil {
					fmt.Fprintf(out, "Size:     %s\n", humanize.Bytes(uint64(fi.Size())))
				}
				return nil
			})
		},
	}
}

// loadTake returns the contour of a take, tracking pitch for audio files
func loadTake(ctx context.Context, svc melodyalign.Service, path string) (alignment.PitchContour, error) {
	if isContourFile(path) {
		return loadContour(path)
	}
	return svc.ExtractContour(ctx, path)
}

func explain(err error) error {
	if errors.Is(err, alignment.ErrInsufficientData) {
		return fmt.Errorf("not enough signal to score this take (is it silent or too short?): %w", err)
	}
	return err
}

func writeCSVFile(path string, c alignment.PitchContour) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := melody.WriteContourCSV(f, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printMelodySummary(w io.Writer, m *models.Melody) {
	fmt.Fprintf(w, "   ID:       %s\n", m.ID)
	fmt.Fprintf(w, "   Title:    %s\n", m.Title)
	fmt.Fprintf(w, "   Artist:   %s\n", m.Artist)
	fmt.Fprintf(w, "   Notes:    %d\n", len(m.Notes))
	fmt.Fprintf(w, "   Duration: %s\n", formatDuration(m.DurationMs))
}

func printReport(w io.Writer, label string, res *melodyalign.SessionResult) {
	r := res.Result
	fmt.Fprintf(w, "\n🎯 %s\n", label)
	if res.Session.ID != "" {
		fmt.Fprintf(w, "   Session:   %s\n", res.Session.ID)
	}
	fmt.Fprintf(w, "   Pitch:     %5.1f%% (%d/%d notes in tune)\n", 100*r.AlignmentQuality, r.CorrectCount(), len(r.NoteMatchings))
	fmt.Fprintf(w, "   Timing:    %5.1f%%\n", 100*r.TimingAccuracy)
	fmt.Fprintf(w, "   Distance:  %.1f cents/step\n\n", r.NormalizedDistance)

	for i, m := range r.NoteMatchings {
		mark := "✅"
		if !m.IsCorrect {
			mark = "❌"
		}
		if !m.Matched() {
			fmt.Fprintf(w, "   %s %3d. %-8s missed\n", mark, i+1, alignment.NoteName(m.ReferenceNoteFreq))
			continue
		}
		fmt.Fprintf(w, "   %s %3d. %-8s sung %-8s %+7.1f cents  %+6.3fs\n", mark, i+1,
			alignment.NoteName(m.ReferenceNoteFreq), alignment.NoteName(m.UserNoteFreq),
			m.PitchErrorCents, m.TimingErrorSeconds)
	}
}

func printSessionLine(w io.Writer, s models.Session) {
	fmt.Fprintf(w, "%s  pitch %5.1f%%  timing %5.1f%%  %d/%d notes  (%s)\n",
		s.ID[:min(8, len(s.ID))], 100*s.AlignmentQuality, 100*s.TimingAccuracy,
		s.CorrectCount, s.NoteCount, humanize.Time(s.CreatedAt))
}

func formatDuration(ms int) string {
	sec := ms / 1000
	return fmt.Sprintf("%d:%02d.%d", sec/60, sec%60, (ms%1000)/100)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
