package technicians

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fieldops/dispatchd/core/metrics/kpi"
)

// NewKPIHandler exposes per-technician dispatch KPIs via
// GET /api/technicians/{id}/kpis.
func NewKPIHandler(store kpi.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, "/api/technicians/")
		parts := strings.Split(path, "/")
		if len(parts) < 2 || parts[1] != "kpis" {
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
			Offers         int     `json:"offers"`
			Acceptances    int     `json:"acceptances"`
			Assignments    int     `json:"assignments"`
			AcceptanceRate float64 `json:"acceptance_rate"`
			MissedOffers   int     `json:"missed_offers"`
		}
		outSlice := make([]out, len(recs))
		for i, rec := range recs {
			outSlice[i] = out{
				Date:           rec.Date.Format("2006-01-02"),
				Offers:         rec.Offers,
				Acceptances:    rec.Acceptances,
				Assignments:    rec.Assignments,
				AcceptanceRate: rec.AcceptanceRate(),
				MissedOffers:   rec.MissedOffers(),
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(outSlice)
	})
}
