package dispatch

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fieldops/dispatchd/core/dispatch/logging"
	"github.com/fieldops/dispatchd/core/model"
)

// NewLogHandler returns an HTTP handler exposing dispatch decisions via
// GET /api/dispatch/logs. Requests must include an Authorization header with
// "Bearer <token>" when token is non-empty.
func NewLogHandler(store logging.LogStore, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		q := logging.LogQuery{}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		q.JobID = r.URL.Query().Get("job_id")
		q.TechnicianID = r.URL.Query().Get("technician_id")
		if p := r.URL.Query().Get("priority"); p != "" {
			if _, err := model.ParseJobPriority(p); err == nil {
				q.Priority = p
			}
		}
		if m := r.URL.Query().Get("manual"); m != "" {
			if v, err := strconv.ParseBool(m); err == nil {
				q.ManualOnly = v
			}
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
