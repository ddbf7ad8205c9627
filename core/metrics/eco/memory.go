package eco

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore stores records in memory.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[time.Time]*Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[time.Time]*Record{}}
}

// Add inserts or updates the record aggregated by day and charger.
func (s *MemoryStore) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[r.ChargerID] == nil {
		s.data[r.ChargerID] = map[time.Time]*Record{}
	}
	d := Day(r.Date)
	rec := s.data[r.ChargerID][d]
	if rec == nil {
		rec = &Record{ChargerID: r.ChargerID, Date: d}
		s.data[r.ChargerID][d] = rec
	}
	rec.DeliveredKWh += r.DeliveredKWh
	rec.RenewableKWh += r.RenewableKWh
	rec.Sessions += r.Sessions
	return nil
}

// Query returns records between start and end inclusive.
func (s *MemoryStore) Query(chargerID string, start, end time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start = Day(start)
	end = Day(end)
	var res []Record
	for d, r := range s.data[chargerID] {
		if d.Before(start) || d.After(end) {
			continue
		}
		res = append(res, *r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.Before(res[j].Date) })
	return res, nil
}
