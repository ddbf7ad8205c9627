package results

import (
	"context"
	"sync"

	"github.com/kilianp07/evsched/core/metrics"
)

// MemoryStore keeps records in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	recs []metrics.StepRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Append(_ context.Context, rec metrics.StepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, q Query) ([]metrics.StepRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []metrics.StepRecord
	for _, r := range s.recs {
		var full bool
		if res, full = apply(res, r, q); full {
			break
		}
	}
	return res, nil
}

func (s *MemoryStore) Close() error { return nil }
