package chargers

import (
	"net/http"
	"strings"
	"time"

	"github.com/kilianp07/evsched/core/metrics/eco"
)

// NewKPIHandler exposes daily energy KPIs via GET /api/chargers/{id}/kpis.
func NewKPIHandler(store eco.Store, factor float64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, "/api/chargers/")
		parts := strings.Split(path, "/")
		if len(parts) < 2 || parts[0] == "" || parts[1] != "kpis" {
			http.NotFound(w, r)
			return
		}
		id := parts[0]
		start, _ := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
		end, _ := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
		if end.IsZero() {
			end = time.Now()
		}
		recs, err := store.Query(id, start, end)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		type out struct {
			Date           string  `json:"date"`
			DeliveredKWh   float64 `json:"delivered_kwh"`
			RenewableKWh   float64 `json:"renewable_kwh"`
			RenewableShare float64 `json:"renewable_share"`
			CO2Avoided     float64 `json:"co2_avoided"`
			Sessions       int     `json:"sessions"`
		}
		outSlice := make([]out, len(recs))
		for i, r := range recs {
			outSlice[i] = out{
				Date:           r.Date.Format("2006-01-02"),
				DeliveredKWh:   r.DeliveredKWh,
				RenewableKWh:   r.RenewableKWh,
				RenewableShare: r.RenewableShare(),
				CO2Avoided:     r.CO2Avoided(factor),
				Sessions:       r.Sessions,
			}
		}
		writeJSON(w, outSlice)
	})
}
