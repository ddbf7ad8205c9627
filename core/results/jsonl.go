package results

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/kilianp07/evsched/core/metrics"
)

const maxLine = 4 << 20

// JSONLStore stores one step record per line in a single file.
type JSONLStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONLStore creates the file and its directory if needed.
func NewJSONLStore(path string) (*JSONLStore, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &JSONLStore{path: path}, nil
}

func (s *JSONLStore) Append(_ context.Context, rec metrics.StepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return json.NewEncoder(f).Encode(rec)
}

func (s *JSONLStore) Query(ctx context.Context, q Query) ([]metrics.StepRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, _, err := scanFile(ctx, s.path, q, nil)
	return res, err
}

func (s *JSONLStore) Close() error { return nil }

// scanFile appends the matching records of path to res. Malformed lines are
// skipped. The boolean reports whether the query limit was reached.
func scanFile(ctx context.Context, path string, q Query, res []metrics.StepRecord) ([]metrics.StepRecord, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return res, false, nil
		}
		return res, false, err
	}
	defer func() { _ = f.Close() }()
	return scan(ctx, f, q, res)
}

func scan(ctx context.Context, r io.Reader, q Query, res []metrics.StepRecord) ([]metrics.StepRecord, bool, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return res, false, err
		}
		var rec metrics.StepRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		var full bool
		if res, full = apply(res, rec, q); full {
			return res, true, nil
		}
	}
	return res, false, scanner.Err()
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}
