package melodyalign

import (
	"context"

	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"github.com/himanishpuri/MelodyAlign/pkg/models"
)

type Service interface {
	AddMelody(ctx context.Context, title, artist string, notes []alignment.NoteBoundary, reference alignment.PitchContour) (string, error)
	ImportMIDI(ctx context.Context, path, title, artist string) (string, error)
	GetMelody(melodyID string) (*models.Melody, error)
	ListMelodies() ([]models.Melody, error)
	DeleteMelody(melodyID string) error

	AlignContour(ctx context.Context, melodyID string, user alignment.PitchContour) (*SessionResult, error)
	AlignRecording(ctx context.Context, melodyID, audioPath string) (*SessionResult, error)
	AlignBatch(ctx context.Context, melodyID string, users []alignment.PitchContour) ([]BatchItem, error)
	Compare(ctx context.Context, reference, user alignment.PitchContour, notes []alignment.NoteBoundary, cfg *alignment.Config) (*alignment.AlignmentResult, error)
	ExtractContour(ctx context.Context, audioPath string) (alignment.PitchContour, error)

	ListSessions(melodyID string, limit int) ([]models.Session, error)
	Stats() (models.Stats, error)
	Close() error
}

type Storage interface {
	RegisterMelody(m *models.Melody) (string, error)
	GetMelodyByID(melodyID string) (*models.Melody, error)
	ListMelodies() ([]models.Melody, error)
	DeleteMelodyByID(melodyID string) error
	SaveSession(s *models.Session) (string, error)
	ListSessions(melodyID string, limit int) ([]models.Session, error)
	Counts() (melodies, sessions int64, err error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
