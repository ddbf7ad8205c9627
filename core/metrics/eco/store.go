// Package eco aggregates the energy delivered by each charger per day and
// derives the renewable share and avoided CO2 from it.
package eco

import "time"

// Store persists daily energy records.
type Store interface {
	Add(Record) error
	Query(chargerID string, start, end time.Time) ([]Record, error)
}

// Day aligns t to the start of its day in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
