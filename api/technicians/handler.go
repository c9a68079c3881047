// Package technicians exposes the technician status view over HTTP.
package technicians

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fieldops/dispatchd/core/techstatus"
)

// NewStatusHandler returns an HTTP handler exposing technician status via
// GET /api/technicians/status.
func NewStatusHandler(store techstatus.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		f := techstatus.Filter{
			Region: r.URL.Query().Get("region"),
			Team:   r.URL.Query().Get("team"),
		}
		if a := r.URL.Query().Get("available"); a != "" {
			if v, err := strconv.ParseBool(a); err == nil {
				f.Available = &v
			}
		}
		entries := store.List(f)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
