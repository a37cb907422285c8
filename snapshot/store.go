// Package snapshot persists timestamped scrape payloads per subject and
// computes structural differences between two captures.
package snapshot

import (
	"encoding/json"
	"time"

	"github.com/use-agent/reelscout/models"
)

// Snapshot is one timestamped capture of a subject's scraped payload.
// Snapshots are append-only; the latest one for a subject is the one
// with the maximum timestamp.
type Snapshot struct {
	SubjectID string          `json:"subject_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Backend is the persistence surface: an append-only store keyed by
// subject. In-memory by default; the sqlite backend survives restarts.
type Backend interface {
	// Append stores a snapshot. Snapshots are immutable once written.
	Append(snap Snapshot) error

	// Latest returns the most recent snapshot for a subject, or
	// (nil, nil) when none exists.
	Latest(subjectID string) (*Snapshot, error)

	// List returns all snapshots for a subject, newest first.
	List(subjectID string) ([]Snapshot, error)

	// Close releases backend resources.
	Close() error
}

// Store is the snapshot store facade over a pluggable backend.
type Store struct {
	backend Backend
}

// NewStore creates a Store over the given backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Save marshals payload and appends a snapshot stamped with the current time.
func (s *Store) Save(subjectID string, payload any) (*Snapshot, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal,
			"failed to marshal snapshot payload", err)
	}
	snap := Snapshot{
		SubjectID: subjectID,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	}
	if err := s.backend.Append(snap); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal,
			"failed to append snapshot", err)
	}
	return &snap, nil
}

// LoadLatest returns the most recent snapshot for a subject, or nil.
func (s *Store) LoadLatest(subjectID string) (*Snapshot, error) {
	return s.backend.Latest(subjectID)
}

// List returns all snapshots for a subject, newest first.
func (s *Store) List(subjectID string) ([]Snapshot, error) {
	return s.backend.List(subjectID)
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
