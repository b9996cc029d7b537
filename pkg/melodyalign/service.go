package melodyalign

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/himanishpuri/MelodyAlign/pkg/logger"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/audio"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/melody"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/pitch"
	"github.com/himanishpuri/MelodyAlign/pkg/models"
)

// melodyService is the default implementation of the Service interface.
type melodyService struct {
	storage Storage
	engine  pitch.Engine
	cache   *lru.Cache[string, *models.Melody]
	log     Logger
	config  *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Align.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.CacheSize < 1 {
		cfg.CacheSize = 1
	}

	// Set default logger if none provided
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger().With("[melodyalign]")
	}

	engine := cfg.Engine
	if engine == nil {
		tracker, err := pitch.NewAutocorrelationTracker(cfg.Pitch)
		if err != nil {
			return nil, fmt.Errorf("failed to create pitch tracker: %w", err)
		}
		engine = tracker
	}

	cache, err := lru.New[string, *models.Melody](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create melody cache: %w", err)
	}

	// Create or use provided storage
	var stor Storage
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	return &melodyService{
		storage: stor,
		engine:  engine,
		cache:   cache,
		log:     cfg.Logger,
		config:  cfg,
	}, nil
}

// AddMelody validates and stores a reference melody. Without a reference
// contour one is synthesised from the notes.
func (s *melodyService) AddMelody(ctx context.Context, title, artist string, notes []alignment.NoteBoundary, reference alignment.PitchContour) (string, error) {
	title, artist = strings.TrimSpace(title), strings.TrimSpace(artist)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if artist == "" {
		artist = "Unknown Artist"
	}
	s.log.Infof("Adding melody: %s by %s (%d notes)", title, artist, len(notes))

	// 1. Reference contour
	hop := s.config.HopSeconds
	if len(reference) == 0 {
		var err error
		reference, err = melody.ContourFromNotes(notes, hop)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	} else {
		if err := alignment.ValidateContour(reference); err != nil {
			return "", err
		}
		hop = reference.Hop()
	}

	// 2. Notes must fit the reference
	if err := alignment.ValidateNotes(notes, reference); err != nil {
		return "", err
	}

	// 3. Persist
	var end float64
	for _, n := range notes {
		end = math.Max(end, n.EndTime())
	}
	m := &models.Melody{
		Title:      title,
		Artist:     artist,
		Notes:      notes,
		Reference:  reference,
		HopSeconds: hop,
		DurationMs: int(math.Round(end * 1000)),
	}
	id, err := s.storage.RegisterMelody(m)
	if err != nil {
		return "", fmt.Errorf("failed to register melody: %w", err)
	}
	s.cache.Add(id, m)

	s.log.Infof("Successfully added melody ID=%s", id)
	return id, nil
}

// ImportMIDI reads the melody line of a MIDI file and stores it. An empty
// title falls back to the file name.
func (s *melodyService) ImportMIDI(ctx context.Context, path, title, artist string) (string, error) {
	s.log.Infof("Importing MIDI: %s", path)

	notes, err := melody.ReadMIDI(path)
	if err != nil {
		return "", fmt.Errorf("failed to import midi: %w", err)
	}
	s.log.Debugf("Extracted %d notes from %s", len(notes), path)

	if strings.TrimSpace(title) == "" {
		title = baseName(path)
	}
	return s.AddMelody(ctx, title, artist, notes, nil)
}

func (s *melodyService) GetMelody(melodyID string) (*models.Melody, error) {
	if m, ok := s.cache.Get(melodyID); ok {
		return m, nil
	}
	m, err := s.storage.GetMelodyByID(melodyID)
	if err != nil {
		return nil, err
	}
	s.cache.Add(melodyID, m)
	return m, nil
}

func (s *melodyService) ListMelodies() ([]models.Melody, error) {
	return s.storage.ListMelodies()
}

func (s *melodyService) DeleteMelody(melodyID string) error {
	s.cache.Remove(melodyID)
	if err := s.storage.DeleteMelodyByID(melodyID); err != nil {
		return err
	}
	s.log.Infof("Deleted melody ID=%s", melodyID)
	return nil
}

// AlignContour scores a user contour against a stored melody and records
// the session.
func (s *melodyService) AlignContour(ctx context.Context, melodyID string, user alignment.PitchContour) (*SessionResult, error) {
	// 1. Load reference
	m, err := s.GetMelody(melodyID)
	if err != nil {
		return nil, err
	}
	reference, err := s.referenceOf(m)
	if err != nil {
		return nil, err
	}

	// 2. Align
	start := time.Now()
	res, err := alignment.Align(ctx, reference, user, m.Notes, s.config.Align)
	if err != nil {
		if errors.Is(err, alignment.ErrInsufficientData) {
			s.log.Warnf("Not enough signal to score take for %s: %v", melodyID, err)
		}
		return nil, err
	}
	s.log.Debugf("Aligned %dx%d frames in %s", len(reference), len(user), time.Since(start))

	// 3. Record session
	sess := models.Session{
		MelodyID:           melodyID,
		AlignmentQuality:   res.AlignmentQuality,
		TimingAccuracy:     res.TimingAccuracy,
		NormalizedDistance: res.NormalizedDistance,
		NoteCount:          len(res.NoteMatchings),
		CorrectCount:       res.CorrectCount(),
		UserFrames:         len(user),
		Matchings:          res.NoteMatchings,
		CreatedAt:          time.Now(),
	}
	if _, err := s.storage.SaveSession(&sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.log.Infof("Session %s: quality=%.2f timing=%.2f (%d/%d notes)",
		sess.ID, sess.AlignmentQuality, sess.TimingAccuracy, sess.CorrectCount, sess.NoteCount)
	return &SessionResult{Session: sess, Result: res}, nil
}

// AlignRecording tracks the pitch of an audio file and aligns it.
func (s *melodyService) AlignRecording(ctx context.Context, melodyID, audioPath string) (*SessionResult, error) {
	s.log.Infof("Aligning recording: %s", audioPath)

	user, err := s.ExtractContour(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	return s.AlignContour(ctx, melodyID, user)
}

// AlignBatch scores several takes against one melody on a bounded worker
// pool. Items come back in input order; a failing take does not stop the
// others.
func (s *melodyService) AlignBatch(ctx context.Context, melodyID string, users []alignment.PitchContour) ([]BatchItem, error) {
	if _, err := s.GetMelody(melodyID); err != nil {
		return nil, err
	}

	items := make([]BatchItem, len(users))
	jobs := make(chan int, len(users))
	for i := range users {
		jobs <- i
	}
	close(jobs)

	workers := s.config.Workers
	if workers > len(users) {
		workers = len(users)
	}
	s.log.Infof("Aligning %d takes with %d workers", len(users), workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				item := BatchItem{Index: i}
				if err := ctx.Err(); err != nil {
					item.Err = fmt.Errorf("%w: %w", alignment.ErrCancelled, err)
				} else {
					item.Result, item.Err = s.AlignContour(ctx, melodyID, users[i])
				}
				items[i] = item
			}
		}()
	}
	wg.Wait()

	failed := 0
	for _, it := range items {
		if it.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		s.log.Warnf("%d of %d takes failed", failed, len(users))
	}
	return items, nil
}

// Compare aligns ad-hoc contours without touching storage. A nil cfg uses
// the service configuration.
func (s *melodyService) Compare(ctx context.Context, reference, user alignment.PitchContour, notes []alignment.NoteBoundary, cfg *alignment.Config) (*alignment.AlignmentResult, error) {
	c := s.config.Align
	if cfg != nil {
		c = *cfg
	}
	return alignment.Align(ctx, reference, user, notes, c)
}

// ExtractContour decodes an audio file and runs the pitch engine over it.
func (s *melodyService) ExtractContour(ctx context.Context, audioPath string) (alignment.PitchContour, error) {
	// 1. Decode (converting through ffmpeg when needed)
	samples, sampleRate, err := audio.LoadMono(ctx, audioPath, s.config.TempDir, s.config.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to load audio: %w", err)
	}

	// 2. Track pitch
	contour, err := s.engine.Track(samples, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("pitch tracking failed: %w", err)
	}
	s.log.Infof("Tracked %d frames (%d voiced) from %.1fs of audio",
		len(contour), contour.VoicedCount(), float64(len(samples))/float64(sampleRate))
	return contour, nil
}

func (s *melodyService) ListSessions(melodyID string, limit int) ([]models.Session, error) {
	if _, err := s.GetMelody(melodyID); err != nil {
		return nil, err
	}
	return s.storage.ListSessions(melodyID, limit)
}

func (s *melodyService) Stats() (models.Stats, error) {
	melodies, sessions, err := s.storage.Counts()
	if err != nil {
		return models.Stats{}, err
	}
	return models.Stats{Melodies: melodies, Sessions: sessions, Cached: s.cache.Len()}, nil
}

func (s *melodyService) Close() error {
	s.cache.Purge()
	return s.storage.Close()
}

// referenceOf returns the stored reference, re-synthesising it for
// melodies loaded without one.
func (s *melodyService) referenceOf(m *models.Melody) (alignment.PitchContour, error) {
	if len(m.Reference) > 0 {
		return m.Reference, nil
	}
	hop := m.HopSeconds
	if hop <= 0 {
		hop = s.config.HopSeconds
	}
	ref, err := melody.ContourFromNotes(m.Notes, hop)
	if err != nil {
		return nil, fmt.Errorf("failed to build reference for %s: %w", m.ID, err)
	}
	return ref, nil
}

func baseName(path string) string {
	name := path
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}
