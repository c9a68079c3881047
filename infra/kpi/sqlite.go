// Package kpi persists dispatch KPI records in SQLite.
package kpi

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	core "github.com/fieldops/dispatchd/core/metrics/kpi"
)

// SQLiteStore persists KPI records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS dispatch_kpi (
        technician_id TEXT,
        day INTEGER,
        offers INTEGER,
        acceptances INTEGER,
        assignments INTEGER,
        PRIMARY KEY(technician_id, day)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add accumulates the record into the technician's daily aggregate.
func (s *SQLiteStore) Add(r core.Record) error {
	d := core.Day(r.Date)
	_, err := s.db.Exec(`INSERT INTO dispatch_kpi (technician_id, day, offers, acceptances, assignments)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(technician_id, day) DO UPDATE SET
            offers = offers + excluded.offers,
            acceptances = acceptances + excluded.acceptances,
            assignments = assignments + excluded.assignments`,
		r.TechnicianID, d.Unix(), r.Offers, r.Acceptances, r.Assignments)
	return err
}

// Query returns records in the range [start,end].
func (s *SQLiteStore) Query(technicianID string, start, end time.Time) ([]core.Record, error) {
	start = core.Day(start)
	end = core.Day(end)
	rows, err := s.db.Query(`SELECT technician_id, day, offers, acceptances, assignments
        FROM dispatch_kpi WHERE technician_id = ? AND day >= ? AND day <= ? ORDER BY day`,
		technicianID, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []core.Record
	for rows.Next() {
		var tid string
		var ts int64
		var offers, acks, assigns int
		if err := rows.Scan(&tid, &ts, &offers, &acks, &assigns); err != nil {
			return nil, err
		}
		res = append(res, core.Record{
			TechnicianID: tid,
			Date:         time.Unix(ts, 0).UTC(),
			Offers:       offers,
			Acceptances:  acks,
			Assignments:  assigns,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
