//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/himanishpuri/MelodyAlign/pkg/logger"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/audio"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// app holds the global flags shared by every command
type app struct {
	dbPath     string
	tempDir    string
	sampleRate int
	tolerance  float64
	band       float64
	verbose    bool
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// createService creates a new MelodyAlign service with configured options
func (a *app) createService() (melodyalign.Service, error) {
	cfg := alignment.DefaultConfig()
	cfg.ToleranceCents = a.tolerance
	cfg.SakoeChibaBandFraction = a.band

	return melodyalign.NewService(
		melodyalign.WithDBPath(a.dbPath),
		melodyalign.WithTempDir(a.tempDir),
		melodyalign.WithSampleRate(a.sampleRate),
		melodyalign.WithAlignConfig(cfg),
	)
}

// withService opens the service for the duration of fn
func (a *app) withService(fn func(svc melodyalign.Service) error) error {
	svc, err := a.createService()
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()
	return fn(svc)
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "melodyalign",
		Short: "Score sung or played takes against reference melodies",
		Long: `MelodyAlign aligns a pitch contour against a reference melody with
dynamic time warping and reports per-note pitch and timing accuracy.

Reference melodies come from note lists (JSON) or MIDI files; takes come
from pitch contours (JSON or CSV) or audio recordings.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.verbose {
				logger.SetLevel(logger.DEBUG)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			printBanner(cmd.OutOrStdout())
			cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.dbPath, "db", getEnvOrDefault("MELODYALIGN_DB_PATH", "melodyalign.sqlite3"), "Path to the SQLite database file")
	pf.StringVar(&a.tempDir, "temp", getEnvOrDefault("MELODYALIGN_TEMP_DIR", os.TempDir()), "Directory for temporary audio conversion files")
	pf.IntVar(&a.sampleRate, "rate", audio.DefaultSampleRate, "Audio sample rate for pitch tracking")
	pf.Float64Var(&a.tolerance, "tolerance", alignment.DefaultToleranceCents, "Pitch tolerance in cents")
	pf.Float64Var(&a.band, "band", alignment.DefaultBandFraction, "Sakoe-Chiba band fraction (0 = unbounded)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(
		a.addCmd(),
		a.importMIDICmd(),
		a.listCmd(),
		a.showCmd(),
		a.deleteCmd(),
		a.alignCmd(),
		a.sessionsCmd(),
		a.extractCmd(),
		a.compareCmd(),
		a.statsCmd(),
	)
	return root
}

func printBanner(w io.Writer) {
	banner := `
 __  __      _           _       _   _ _
|  \/  | ___| | ___   __| |_   _/_\ | (_) __ _ _ __
| |\/| |/ _ \ |/ _ \ / _' | | | //_\\| | |/ _' | '_ \
| |  | |  __/ | (_) | (_| | |_| /  _  \ | | (_| | | | |
|_|  |_|\___|_|\___/ \__,_|\__, \_/ \_/_|_|\__, |_| |_|
                           |___/           |___/
            Melody Alignment & Scoring CLI
`
	fmt.Fprintln(w, banner)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
