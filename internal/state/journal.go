// Package state keeps a journal of executed operations in SQLite.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Status of a journaled operation
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Journal records every operation a directory executes
type Journal struct {
	db *sql.DB
}

// Record is one executed operation. Operations of one pipeline run share
// a RunID.
type Record struct {
	ID        int64
	RunID     string
	Directory string
	Action    string
	Kind      string
	StartTime time.Time
	EndTime   time.Time
	Status    string
	FilesIn   int
	FilesOut  int
	Error     string
}

// Duration returns how long the operation ran
func (r Record) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.NewString()
}

// Open opens or creates the journal database in dataDir
func Open(dataDir string) (*Journal, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dataDir, "aud.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// a single connection avoids "database is locked" between writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode and busy timeout: %w", err)
	}

	j := &Journal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return j, nil
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS operations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		directory TEXT NOT NULL,
		action TEXT NOT NULL,
		kind TEXT NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		status TEXT NOT NULL,
		files_in INTEGER DEFAULT 0,
		files_out INTEGER DEFAULT 0,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_operations_dir_time ON operations(directory, start_time DESC);
	CREATE INDEX IF NOT EXISTS idx_operations_run ON operations(run_id);
	`

	_, err := j.db.Exec(schema)
	return err
}

// Save appends record and returns its run ID, generating one when
// record.RunID is empty.
func (j *Journal) Save(record Record) (string, error) {
	if record.Status != StatusSuccess && record.Status != StatusFailed {
		return "", fmt.Errorf("invalid status: %s (must be '%s' or '%s')", record.Status, StatusSuccess, StatusFailed)
	}
	if record.RunID == "" {
		record.RunID = NewRunID()
	}

	query := `
		INSERT INTO operations (run_id, directory, action, kind, start_time, end_time, status, files_in, files_out, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := j.db.Exec(query,
		record.RunID,
		record.Directory,
		record.Action,
		record.Kind,
		record.StartTime,
		record.EndTime,
		record.Status,
		record.FilesIn,
		record.FilesOut,
		record.Error,
	)
	if err != nil {
		return "", fmt.Errorf("failed to save operation record: %w", err)
	}

	return record.RunID, nil
}

const selectColumns = `
	SELECT id, run_id, directory, action, kind, start_time, end_time, status, files_in, files_out, error
	FROM operations
`

// History returns the latest operations on dir, newest first
func (j *Journal) History(dir string, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := j.db.Query(selectColumns+`
		WHERE directory = ?
		ORDER BY start_time DESC, id DESC
		LIMIT ?
	`, dir, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return scanRecords(rows)
}

// Run returns the operations of one run in execution order
func (j *Journal) Run(runID string) ([]Record, error) {
	rows, err := j.db.Query(selectColumns+`
		WHERE run_id = ?
		ORDER BY start_time, id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return scanRecords(rows)
}

// LastSuccess returns the latest successful operation on dir, or nil
func (j *Journal) LastSuccess(dir string) (*Record, error) {
	row := j.db.QueryRow(selectColumns+`
		WHERE directory = ? AND status = ?
		ORDER BY start_time DESC, id DESC
		LIMIT 1
	`, dir, StatusSuccess)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last success: %w", err)
	}
	return &record, nil
}

// AllHistory returns the latest operations on every directory
func (j *Journal) AllHistory(limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := j.db.Query(selectColumns+`
		ORDER BY start_time DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query all history: %w", err)
	}
	return scanRecords(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var r Record
	var errText sql.NullString
	err := s.Scan(
		&r.ID,
		&r.RunID,
		&r.Directory,
		&r.Action,
		&r.Kind,
		&r.StartTime,
		&r.EndTime,
		&r.Status,
		&r.FilesIn,
		&r.FilesOut,
		&errText,
	)
	r.Error = errText.String
	return r, err
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}
