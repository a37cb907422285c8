package snapshot

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	subject_id TEXT NOT NULL,
	taken_at   INTEGER NOT NULL,
	payload    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_subject ON snapshots(subject_id, taken_at DESC);
`

// SQLiteBackend persists snapshots in a local SQLite database.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) the database at path and applies
// the schema. WAL mode keeps concurrent scrape appends from blocking
// API reads.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("snapshot: %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshot: apply schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (s *SQLiteBackend) Append(snap Snapshot) error {
	_, err := s.db.Exec(
		`INSERT INTO snapshots (subject_id, taken_at, payload) VALUES (?, ?, ?)`,
		snap.SubjectID, snap.Timestamp.UnixNano(), string(snap.Payload),
	)
	if err != nil {
		return fmt.Errorf("snapshot: append %s: %w", snap.SubjectID, err)
	}
	return nil
}

func (s *SQLiteBackend) Latest(subjectID string) (*Snapshot, error) {
	row := s.db.QueryRow(
		`SELECT taken_at, payload FROM snapshots
		 WHERE subject_id = ? ORDER BY taken_at DESC LIMIT 1`,
		subjectID,
	)
	var takenAt int64
	var payload string
	if err := row.Scan(&takenAt, &payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot: latest %s: %w", subjectID, err)
	}
	return &Snapshot{
		SubjectID: subjectID,
		Timestamp: time.Unix(0, takenAt).UTC(),
		Payload:   []byte(payload),
	}, nil
}

func (s *SQLiteBackend) List(subjectID string) ([]Snapshot, error) {
	rows, err := s.db.Query(
		`SELECT taken_at, payload FROM snapshots
		 WHERE subject_id = ? ORDER BY taken_at DESC`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot: list %s: %w", subjectID, err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var takenAt int64
		var payload string
		if err := rows.Scan(&takenAt, &payload); err != nil {
			return nil, fmt.Errorf("snapshot: scan %s: %w", subjectID, err)
		}
		snaps = append(snaps, Snapshot{
			SubjectID: subjectID,
			Timestamp: time.Unix(0, takenAt).UTC(),
			Payload:   []byte(payload),
		})
	}
	return snaps, rows.Err()
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
