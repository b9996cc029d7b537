//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/himanishpuri/MelodyAlign/pkg/logger"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/melody"
	"github.com/spf13/cobra"
)

func (a *app) addCmd() *cobra.Command {
	var notesPath, contourPath, title, artist string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a reference melody from a note list",
		Long: `Add a reference melody from a JSON list of notes. Without --contour the
reference pitch contour is synthesised from the notes.

Examples:
  melodyalign add --notes twinkle.json --title "Twinkle" --artist "Traditional"
  melodyalign add --notes aria.json --contour aria_ref.csv --title "Aria"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.GetLogger()
			out := cmd.OutOrStdout()

			notes, err := melody.LoadNotesJSON(notesPath)
			if err != nil {
				return err
			}
			var reference alignment.PitchContour
			if contourPath != "" {
				if reference, err = loadContour(contourPath); err != nil {
					return err
				}
			}

			return a.withService(func(svc melodyalign.Service) error {
				fmt.Fprintln(out, "🎵 Adding melody...")
				id, err := svc.AddMelody(cmd.Context(), title, artist, notes, reference)
				if err != nil {
					log.Errorf("AddMelody failed: %v", err)
					return fmt.Errorf("failed to add melody: %w", err)
				}
				m, err := svc.GetMelody(id)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "\n✅ Successfully added melody to database!")
				printMelodySummary(out, m)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&notesPath, "notes", "n", "", "JSON file of note boundaries")
	cmd.Flags().StringVarP(&contourPath, "contour", "c", "", "Reference contour (JSON or CSV)")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Melody title")
	cmd.Flags().StringVarP(&artist, "artist", "a", "", "Artist or composer")
	cmd.MarkFlagRequired("notes")
	cmd.MarkFlagRequired("title")
	return cmd
}

func (a *app) importMIDICmd() *cobra.Command {
	var title, artist string

	cmd := &cobra.Command{
		Use:   "import-midi <file.mid>",
		Short: "Add a reference melody from a Standard MIDI File",
		Long: `Import the melody line of a MIDI file. Overlapping notes are reduced to
the highest sounding pitch. The title defaults to the file name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return a.withService(func(svc melodyalign.Service) error {
				fmt.Fprintln(out, "🎹 Importing MIDI file...")
				id, err := svc.ImportMIDI(cmd.Context(), args[0], title, artist)
				if err != nil {
					return err
				}
				m, err := svc.GetMelody(id)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "\n✅ Successfully imported melody!")
				printMelodySummary(out, m)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Melody title (default: file name)")
	cmd.Flags().StringVarP(&artist, "artist", "a", "", "Artist or composer")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored melodies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return a.withService(func(svc melodyalign.Service) error {
				melodies, err := svc.ListMelodies()
				if err != nil {
					return fmt.Errorf("failed to list melodies: %w", err)
				}
				if len(melodies) == 0 {
					fmt.Fprintln(out, "\n📭 No melodies in database")
					return nil
				}

				fmt.Fprintf(out, "\n📚 Found %d melod%s:\n\n", len(melodies), plural(len(melodies), "y", "ies"))
				for i, m := range melodies {
					fmt.Fprintf(out, "%d. \"%s\" by %s\n", i+1, m.Title, m.Artist)
					fmt.Fprintf(out, "   ID: %s\n", m.ID)
					fmt.Fprintf(out, "   %d notes | %s | added %s\n\n",
						len(m.Notes), formatDuration(m.DurationMs), humanize.Time(m.CreatedAt))
				}
				return nil
			})
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <melody-id>",
		Short: "Show the notes of a melody",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return a.withService(func(svc melodyalign.Service) error {
				m, err := svc.GetMelody(args[0])
				if err != nil {
					return err
				}
				printMelodySummary(out, m)
				fmt.Fprintln(out)
				for i, n := range m.Notes {
					fmt.Fprintf(out, "%3d. %7.3fs  +%.3fs  %-8s %8.2f Hz\n",
						i+1, n.StartTime, n.Duration, alignment.NoteName(n.ExpectedFrequencyHz), n.ExpectedFrequencyHz)
				}
				return nil
			})
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <melody-id>",
		Short: "Delete a melody and its sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return a.withService(func(svc melodyalign.Service) error {
				// Get melody info before deletion
				m, err := svc.GetMelody(args[0])
				if err != nil {
					return fmt.Errorf("melody not found (ID: %s): %w", args[0], err)
				}
				if err := svc.DeleteMelody(m.ID); err != nil {
					return fmt.Errorf("failed to delete melody: %w", err)
				}

				fmt.Fprintln(out, "\n✅ Successfully deleted melody:")
				fmt.Fprintf(out, "   ID:     %s\n", m.ID)
				fmt.Fprintf(out, "   Title:  %s\n", m.Title)
				fmt.Fprintf(out, "   Artist: %s\n", m.Artist)
				return nil
			})
		},
	}
}

// loadContour reads a contour file, choosing the codec by extension
func loadContour(path string) (alignment.PitchContour, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return melody.LoadContourJSON(path)
	case ".csv", ".txt":
		return melody.LoadContourCSV(path)
	default:
		return nil, fmt.Errorf("unsupported contour format: %s", path)
	}
}

func isContourFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".csv", ".txt":
		return true
	}
	return false
}
