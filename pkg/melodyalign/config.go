package melodyalign

import (
	"os"
	"runtime"

	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/audio"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/melody"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/pitch"
)

type Config struct {
	DBPath     string
	TempDir    string
	SampleRate int
	HopSeconds float64
	Align      alignment.Config
	Pitch      pitch.Config
	Engine     pitch.Engine
	CacheSize  int
	Workers    int
	Logger     Logger
	Storage    Storage
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

// WithSampleRate sets the rate recordings are resampled to. The pitch hop
// is kept at 10 ms unless WithPitchConfig overrides it.
func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
		c.Pitch.HopSize = rate / 100
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func WithAlignConfig(cfg alignment.Config) Option {
	return func(c *Config) {
		c.Align = cfg
	}
}

func WithPitchConfig(cfg pitch.Config) Option {
	return func(c *Config) {
		c.Pitch = cfg
	}
}

// WithPitchEngine replaces the built-in autocorrelation tracker.
func WithPitchEngine(engine pitch.Engine) Option {
	return func(c *Config) {
		c.Engine = engine
	}
}

func WithCacheSize(size int) Option {
	return func(c *Config) {
		c.CacheSize = size
	}
}

func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:     "melodyalign.sqlite3",
		TempDir:    os.TempDir(),
		SampleRate: audio.DefaultSampleRate,
		HopSeconds: melody.DefaultHopSeconds,
		Align:      alignment.DefaultConfig(),
		Pitch:      pitch.Config{HopSize: audio.DefaultSampleRate / 100},
		CacheSize:  64,
		Workers:    runtime.NumCPU(),
		Logger:     nil,
	}
}
