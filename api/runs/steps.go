package runs

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/evsched/core/results"
	"github.com/kilianp07/evsched/pkg/export"
)

// RequireToken rejects requests without an "Authorization: Bearer <token>"
// header. An empty token disables the check.
func RequireToken(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewStepHandler returns an HTTP handler exposing step records via
// GET /api/runs/steps. Supported query parameters are run_id, from, to,
// start, end (RFC3339), user_id and limit. format=csv switches the body to
// CSV.
func NewStepHandler(store results.Store, token string) http.Handler {
	return RequireToken(token, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if r.URL.Query().Get("format") == "csv" {
			w.Header().Set("Content-Type", "text/csv")
			if err := export.WriteStepsCSV(w, records); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}))
}

func parseQuery(r *http.Request) (results.Query, error) {
	v := r.URL.Query()
	q := results.Query{
		RunID:  v.Get("run_id"),
		UserID: v.Get("user_id"),
	}
	ints := []struct {
		key string
		dst *int
	}{{"from", &q.FromStep}, {"to", &q.ToStep}, {"limit", &q.Limit}}
	for _, p := range ints {
		s := v.Get(p.key)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, &paramError{p.key, s}
		}
		*p.dst = n
	}
	times := []struct {
		key string
		dst *time.Time
	}{{"start", &q.Start}, {"end", &q.End}}
	for _, p := range times {
		s := v.Get(p.key)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, &paramError{p.key, s}
		}
		*p.dst = t
	}
	return q, nil
}

type paramError struct {
	key, value string
}

func (e *paramError) Error() string {
	return "invalid " + e.key + ": " + strconv.Quote(e.value)
}
