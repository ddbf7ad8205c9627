// Package results persists the step records of simulation runs and answers
// queries by run, step range, time window and user.
package results

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/evsched/core/metrics"
)

// Query filters step records. Zero values disable a filter.
type Query struct {
	RunID    string
	FromStep int
	ToStep   int
	Start    time.Time
	End      time.Time
	UserID   string // only steps in which the user was assigned
	Limit    int
}

// Matches reports whether rec satisfies every filter of q.
func (q Query) Matches(rec metrics.StepRecord) bool {
	if q.RunID != "" && rec.RunID != q.RunID {
		return false
	}
	if q.FromStep > 0 && rec.Step < q.FromStep {
		return false
	}
	if q.ToStep > 0 && rec.Step > q.ToStep {
		return false
	}
	if !q.Start.IsZero() && rec.Time.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && rec.Time.After(q.End) {
		return false
	}
	if q.UserID != "" && !rec.Assigned(q.UserID) {
		return false
	}
	return true
}

// Store persists step records and supports querying.
type Store interface {
	Append(ctx context.Context, rec metrics.StepRecord) error
	Query(ctx context.Context, q Query) ([]metrics.StepRecord, error)
	Close() error
}

// Config selects and configures the store backend.
type Config struct {
	Backend    string `json:"backend"` // none, memory, jsonl or rotating
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "none"
	}
	if c.Path == "" {
		c.Path = "data/steps.jsonl"
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 5
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 30
	}
}

// Validate rejects unknown backends.
func (c Config) Validate() error {
	switch c.Backend {
	case "none", "memory", "jsonl", "rotating":
		return nil
	default:
		return fmt.Errorf("unknown results backend %q", c.Backend)
	}
}

// New opens the configured store. The "none" backend yields a nil Store.
func New(c Config) (Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "jsonl":
		return NewJSONLStore(c.Path)
	case "rotating":
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	default:
		return nil, nil
	}
}

func apply(res []metrics.StepRecord, rec metrics.StepRecord, q Query) ([]metrics.StepRecord, bool) {
	if !q.Matches(rec) {
		return res, false
	}
	res = append(res, rec)
	return res, q.Limit > 0 && len(res) >= q.Limit
}
