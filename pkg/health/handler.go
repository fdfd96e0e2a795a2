package health

import (
	"encoding/json"
	"net/http"
)

// LivenessHandler returns an http.HandlerFunc that always responds
// 200 {"status":"healthy"}. It never touches a dependency.
func LivenessHandler(opts ...Option) http.HandlerFunc {
	cfg := newConfig(opts...)

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, runChecks(r.Context(), nil, cfg))
	}
}

// ReadinessHandler returns an http.HandlerFunc that runs all provided checks.
// Responds 503 when any check fails.
func ReadinessHandler(checks Checks, opts ...Option) http.HandlerFunc {
	cfg := newConfig(opts...)

	return func(w http.ResponseWriter, r *http.Request) {
		resp := runChecks(r.Context(), checks, cfg)

		status := http.StatusOK
		if resp.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
