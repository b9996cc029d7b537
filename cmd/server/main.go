//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"flag"
	"os"
	"strings"

	"github.com/himanishpuri/MelodyAlign/pkg/logger"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/audio"
)

var (
	port           int
	dbPath         string
	tempDir        string
	sampleRate     int
	allowedOrigins string
	tolerance      float64
	band           float64
	workers        int
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("MELODYALIGN_DB_PATH", "melodyalign.sqlite3"), "Path to SQLite database")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("MELODYALIGN_TEMP_DIR", os.TempDir()), "Temporary directory")
	flag.IntVar(&sampleRate, "rate", audio.DefaultSampleRate, "Audio sample rate for pitch tracking")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
	flag.Float64Var(&tolerance, "tolerance", alignment.DefaultToleranceCents, "Pitch tolerance in cents")
	flag.Float64Var(&band, "band", alignment.DefaultBandFraction, "Sakoe-Chiba band as a fraction of the longer contour (0 = unbounded)")
	flag.IntVar(&workers, "workers", 0, "Batch alignment workers (0 = number of CPUs)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseOrigins(s string) []string {
	if s == "*" {
		return []string{"*"}
	}
	origins := strings.Split(s, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

func main() {
	flag.Parse()
	log := logger.GetLogger()

	alignCfg := alignment.DefaultConfig()
	alignCfg.ToleranceCents = tolerance
	alignCfg.SakoeChibaBandFraction = band

	opts := []melodyalign.Option{
		melodyalign.WithDBPath(dbPath),
		melodyalign.WithTempDir(tempDir),
		melodyalign.WithSampleRate(sampleRate),
		melodyalign.WithAlignConfig(alignCfg),
	}
	if workers > 0 {
		opts = append(opts, melodyalign.WithWorkers(workers))
	}

	// Create MelodyAlign service
	service, err := melodyalign.NewService(opts...)
	if err != nil {
		log.Errorf("Failed to create service: %v", err)
		os.Exit(1)
	}
	defer service.Close()

	// Create server configuration
	config := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		TempDir:        tempDir,
		SampleRate:     sampleRate,
		AllowedOrigins: parseOrigins(allowedOrigins),
	}

	// Create and start server
	server := NewServer(service, config)
	if err := server.Start(); err != nil {
		log.Errorf("Server failed: %v", err)
		service.Close()
		os.Exit(1)
	}
}
