// Package dispatch exposes the dispatch manager over HTTP.
package dispatch

import (
	"context"
	"encoding/json"
	"net/http"

	coredispatch "github.com/fieldops/dispatchd/core/dispatch"
	"github.com/fieldops/dispatchd/core/model"
)

// Manager is the subset of the dispatch manager used by the handler.
type Manager interface {
	Dispatch(ctx context.Context, job model.Job, pool []model.Technician) (coredispatch.Outcome, error)
}

// DispatchRequest is the POST /api/jobs/dispatch body. Technicians is an
// optional inline pool; when present it takes precedence over MQTT
// discovery.
type DispatchRequest struct {
	Job         model.Job          `json:"job"`
	Technicians []model.Technician `json:"technicians,omitempty"`
}

// NewDispatchHandler returns an HTTP handler running a dispatch evaluation
// via POST /api/jobs/dispatch. Requests must include an Authorization header
// with "Bearer <token>" when token is non-empty.
func NewDispatchHandler(mgr Manager, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		var req DispatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := req.Job.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out, err := mgr.Dispatch(r.Context(), req.Job, req.Technicians)
		if err != nil {
			// Provider or discovery failure, not a business outcome.
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
