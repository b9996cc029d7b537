package melodyalign

import (
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/storage"
	"github.com/himanishpuri/MelodyAlign/pkg/models"
)

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) RegisterMelody(m *models.Melody) (string, error) {
	row := &storage.Melody{
		Title:      m.Title,
		Artist:     m.Artist,
		Notes:      m.Notes,
		Reference:  m.Reference,
		HopSeconds: m.HopSeconds,
		DurationMs: m.DurationMs,
	}
	id, err := s.db.RegisterMelody(row)
	if err != nil {
		return "", err
	}
	m.ID = id
	m.CreatedAt = row.CreatedAt
	return id, nil
}

func (s *storageAdapter) GetMelodyByID(melodyID string) (*models.Melody, error) {
	row, err := s.db.GetMelodyByID(melodyID)
	if err != nil {
		return nil, err
	}
	m := toMelody(*row)
	return &m, nil
}

func (s *storageAdapter) ListMelodies() ([]models.Melody, error) {
	rows, err := s.db.ListMelodies()
	if err != nil {
		return nil, err
	}
	melodies := make([]models.Melody, len(rows))
	for i, r := range rows {
		melodies[i] = toMelody(r)
	}
	return melodies, nil
}

func (s *storageAdapter) DeleteMelodyByID(melodyID string) error {
	return s.db.DeleteMelodyByID(melodyID)
}

func (s *storageAdapter) SaveSession(sess *models.Session) (string, error) {
	row := &storage.Session{
		ID:                 sess.ID,
		MelodyID:           sess.MelodyID,
		AlignmentQuality:   sess.AlignmentQuality,
		TimingAccuracy:     sess.TimingAccuracy,
		NormalizedDistance: sess.NormalizedDistance,
		NoteCount:          sess.NoteCount,
		CorrectCount:       sess.CorrectCount,
		UserFrames:         sess.UserFrames,
		Matchings:          sess.Matchings,
		CreatedAt:          sess.CreatedAt,
	}
	id, err := s.db.SaveSession(row)
	if err != nil {
		return "", err
	}
	sess.ID = id
	sess.CreatedAt = row.CreatedAt
	return id, nil
}

func (s *storageAdapter) ListSessions(melodyID string, limit int) ([]models.Session, error) {
	rows, err := s.db.ListSessions(melodyID, limit)
	if err != nil {
		return nil, err
	}
	sessions := make([]models.Session, len(rows))
	for i, r := range rows {
		sessions[i] = models.Session{
			ID:                 r.ID,
			MelodyID:           r.MelodyID,
			AlignmentQuality:   r.AlignmentQuality,
			TimingAccuracy:     r.TimingAccuracy,
			NormalizedDistance: r.NormalizedDistance,
			NoteCount:          r.NoteCount,
			CorrectCount:       r.CorrectCount,
			UserFrames:         r.UserFrames,
			Matchings:          r.Matchings,
			CreatedAt:          r.CreatedAt,
		}
	}
	return sessions, nil
}

func (s *storageAdapter) Counts() (int64, int64, error) {
	melodies, err := s.db.CountMelodies()
	if err != nil {
		return 0, 0, err
	}
	sessions, err := s.db.CountSessions()
	if err != nil {
		return 0, 0, err
	}
	return melodies, sessions, nil
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}

func toMelody(r storage.Melody) models.Melody {
	return models.Melody{
		ID:         r.ID,
		Title:      r.Title,
		Artist:     r.Artist,
		Notes:      r.Notes,
		Reference:  r.Reference,
		HopSeconds: r.HopSeconds,
		DurationMs: r.DurationMs,
		CreatedAt:  r.CreatedAt,
	}
}
