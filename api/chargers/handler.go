package chargers

import (
	"encoding/json"
	"net/http"

	"github.com/kilianp07/evsched/core/model"
	"github.com/kilianp07/evsched/core/scheduler"
)

// SnapshotSource yields the current simulation state.
type SnapshotSource interface {
	Snapshot() model.Snapshot
}

// Recommender ranks chargers for a user.
type Recommender interface {
	Recommend(userID string, state model.Snapshot) []scheduler.Recommendation
}

// NewStatusHandler returns an HTTP handler exposing charger state via
// GET /api/chargers/status. The type and location query parameters filter
// the list.
func NewStatusHandler(src SnapshotSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		typ := r.URL.Query().Get("type")
		loc := r.URL.Query().Get("location")
		state := src.Snapshot()
		out := make([]model.Charger, 0, len(state.Chargers))
		for _, c := range state.Chargers {
			if typ != "" && string(c.Type) != typ {
				continue
			}
			if loc != "" && c.Location != loc {
				continue
			}
			out = append(out, c)
		}
		writeJSON(w, out)
	})
}

// NewRecommendationHandler ranks feasible chargers for a user via
// GET /api/recommendations?user_id=<id>.
func NewRecommendationHandler(src SnapshotSource, rec Recommender) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id := r.URL.Query().Get("user_id")
		if id == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}
		state := src.Snapshot()
		if _, ok := state.User(id); !ok {
			http.NotFound(w, r)
			return
		}
		recs := rec.Recommend(id, state)
		if recs == nil {
			recs = []scheduler.Recommendation{}
		}
		writeJSON(w, recs)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
