//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
	"github.com/himanishpuri/MelodyAlign/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "melodyalign.sqlite3"
const errDBClientNil = "db client is nil"

var ErrNotFound = errors.New("storage: record not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type Melody struct {
	ID         string                   `gorm:"primaryKey;type:varchar(36)"`
	Title      string                   `gorm:"uniqueIndex:idx_melody_unique,priority:1;index:idx_melody_meta,priority:1" json:"title"`
	Artist     string                   `gorm:"uniqueIndex:idx_melody_unique,priority:2;index:idx_melody_meta,priority:2" json:"artist"`
	Notes      []alignment.NoteBoundary `gorm:"serializer:json" json:"notes"`
	Reference  alignment.PitchContour   `gorm:"serializer:json" json:"reference"`
	HopSeconds float64                  `json:"hop_seconds"`
	DurationMs int                      `json:"duration_ms"`
	CreatedAt  time.Time
}

type Session struct {
	ID                 string                   `gorm:"primaryKey;type:varchar(36)"`
	MelodyID           string                   `gorm:"type:varchar(36);index:idx_session_melody" json:"melody_id"`
	AlignmentQuality   float64                  `json:"alignment_quality"`
	TimingAccuracy     float64                  `json:"timing_accuracy"`
	NormalizedDistance float64                  `json:"normalized_distance"`
	NoteCount          int                      `json:"note_count"`
	CorrectCount       int                      `json:"correct_count"`
	UserFrames         int                      `json:"user_frames"`
	Matchings          []alignment.NoteMatching `gorm:"serializer:json" json:"matchings"`
	CreatedAt          time.Time                `gorm:"index:idx_session_created"`
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("MELODYALIGN_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !os.IsExist(err) {
		if filepath.Dir(dbPath) != "." {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	// concurrent session writes from batch alignment wait on the lock
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Melody{}, &Session{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// RegisterMelody stores a melody keyed on title and artist. Registering the
// same pair again replaces its notes and reference and keeps the ID, so
// existing sessions stay attached.
func (c *DBClient) RegisterMelody(m *Melody) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}

	var existing Melody
	err := c.DB.Where("title = ? AND artist = ?", m.Title, m.Artist).First(&existing).Error
	if err == nil {
		err := c.DB.Model(&existing).
			Select("Notes", "Reference", "HopSeconds", "DurationMs").
			Updates(Melody{Notes: m.Notes, Reference: m.Reference, HopSeconds: m.HopSeconds, DurationMs: m.DurationMs}).Error
		if err != nil {
			return "", fmt.Errorf("updating melody: %w", err)
		}
		m.ID = existing.ID
		m.CreatedAt = existing.CreatedAt
		return existing.ID, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("querying existing melody: %w", err)
	}

	m.ID = utils.GenerateUUID()
	err = c.DB.Create(m).Error
	if err != nil {
		if isConstraintErr(err) {
			if fetchErr := c.DB.Where("title = ? AND artist = ?", m.Title, m.Artist).First(&existing).Error; fetchErr != nil {
				return "", fmt.Errorf("fetching melody after constraint violation: %w", fetchErr)
			}
			m.ID = existing.ID
			return existing.ID, nil
		}
		return "", fmt.Errorf("creating melody: %w", err)
	}

	return m.ID, nil
}

func (c *DBClient) GetMelodyByID(id string) (*Melody, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	if !utils.IsUUID(id) {
		return nil, fmt.Errorf("%w: melody %s", ErrNotFound, id)
	}
	var m Melody
	if err := c.DB.Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: melody %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("querying melody: %w", err)
	}
	return &m, nil
}

// ListMelodies returns every melody without its reference contour, oldest
// first.
func (c *DBClient) ListMelodies() ([]Melody, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []Melody
	if err := c.DB.Omit("reference").Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing melodies: %w", err)
	}
	return rows, nil
}

// DeleteMelodyByID removes a melody and all of its sessions.
func (c *DBClient) DeleteMelodyByID(id string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("melody_id = ?", id).Delete(&Session{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Melody{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: melody %s", ErrNotFound, id)
		}
		return nil
	})
}

func (c *DBClient) SaveSession(s *Session) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}
	if s.ID == "" {
		s.ID = utils.GenerateUUID()
	}
	if err := c.DB.Create(s).Error; err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return s.ID, nil
}

// ListSessions returns the most recent sessions of a melody, newest first.
// limit <= 0 returns all of them.
func (c *DBClient) ListSessions(melodyID string, limit int) ([]Session, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	q := c.DB.Where("melody_id = ?", melodyID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []Session
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return rows, nil
}

func (c *DBClient) CountMelodies() (int64, error) {
	var n int64
	if err := c.DB.Model(&Melody{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting melodies: %w", err)
	}
	return n, nil
}

func (c *DBClient) CountSessions() (int64, error) {
	var n int64
	if err := c.DB.Model(&Session{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}

func isConstraintErr(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed")
}
