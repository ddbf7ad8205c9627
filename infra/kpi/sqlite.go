// Package kpi persists per-charger energy aggregates.
package kpi

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/evsched/core/metrics/eco"
)

// SQLiteStore persists daily charger records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	schema := `CREATE TABLE IF NOT EXISTS charger_kpi (
        charger_id TEXT,
        day INTEGER,
        delivered REAL,
        renewable REAL,
        sessions INTEGER,
        PRIMARY KEY(charger_id, day)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add inserts or accumulates the record for its charger and day.
func (s *SQLiteStore) Add(r eco.Record) error {
	d := eco.Day(r.Date)
	_, err := s.db.Exec(`INSERT INTO charger_kpi (charger_id, day, delivered, renewable, sessions)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(charger_id, day) DO UPDATE SET
            delivered = delivered + excluded.delivered,
            renewable = renewable + excluded.renewable,
            sessions = sessions + excluded.sessions`,
		r.ChargerID, d.Unix(), r.DeliveredKWh, r.RenewableKWh, r.Sessions)
	return err
}

// Query returns records in the range [start,end] ordered by day.
func (s *SQLiteStore) Query(chargerID string, start, end time.Time) ([]eco.Record, error) {
	start = eco.Day(start)
	end = eco.Day(end)
	rows, err := s.db.Query(`SELECT charger_id, day, delivered, renewable, sessions
        FROM charger_kpi WHERE charger_id = ? AND day >= ? AND day <= ? ORDER BY day`,
		chargerID, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []eco.Record
	for rows.Next() {
		var (
			id        string
			ts        int64
			delivered float64
			renewable float64
			sessions  int
		)
		if err := rows.Scan(&id, &ts, &delivered, &renewable, &sessions); err != nil {
			return nil, err
		}
		res = append(res, eco.Record{
			ChargerID:    id,
			Date:         time.Unix(ts, 0).UTC(),
			DeliveredKWh: delivered,
			RenewableKWh: renewable,
			Sessions:     sessions,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
