// Package history persists completed-job outcomes for the blend
// performance scorer.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fieldops/dispatchd/core/performance"
)

// outcomeWindow caps how many records feed a technician's blend. Older
// outcomes stay in the table but stop influencing the score.
const outcomeWindow = 50

// SQLiteStore keeps job outcomes in a SQLite database, one row per
// technician and job. Re-adding a job outcome replaces the earlier row, so
// corrections after a billing review overwrite rather than double-count.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS job_outcomes (
        technician_id TEXT,
        job_id TEXT,
        first_time_fix INTEGER,
        customer_rating REAL,
        estimated_minutes REAL,
        actual_minutes REAL,
        completed_at INTEGER,
        PRIMARY KEY(technician_id, job_id)
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add inserts or replaces the outcome record for the technician's job.
func (s *SQLiteStore) Add(techID string, completedAt time.Time, o performance.JobOutcome) error {
	fix := 0
	if o.FirstTimeFix {
		fix = 1
	}
	_, err := s.db.Exec(`INSERT INTO job_outcomes
        (technician_id, job_id, first_time_fix, customer_rating, estimated_minutes, actual_minutes, completed_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(technician_id, job_id) DO UPDATE SET
            first_time_fix = excluded.first_time_fix,
            customer_rating = excluded.customer_rating,
            estimated_minutes = excluded.estimated_minutes,
            actual_minutes = excluded.actual_minutes,
            completed_at = excluded.completed_at`,
		techID, o.JobID, fix, o.CustomerRating, o.EstimatedMinute, o.ActualMinute, completedAt.Unix())
	return err
}

// Outcomes returns the technician's most recent outcome records.
func (s *SQLiteStore) Outcomes(techID string) ([]performance.JobOutcome, error) {
	rows, err := s.db.Query(`SELECT job_id, first_time_fix, customer_rating, estimated_minutes, actual_minutes
        FROM job_outcomes WHERE technician_id = ? ORDER BY completed_at DESC LIMIT ?`,
		techID, outcomeWindow)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []performance.JobOutcome
	for rows.Next() {
		var o performance.JobOutcome
		var fix int
		if err := rows.Scan(&o.JobID, &fix, &o.CustomerRating, &o.EstimatedMinute, &o.ActualMinute); err != nil {
			return nil, err
		}
		o.FirstTimeFix = fix != 0
		res = append(res, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
