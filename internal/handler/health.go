// Package handler implements the HTTP endpoints of the mwpipe server: plain
// handlers for health, version and docs, and the pipeline handlers that end
// the chains mounted under /v1.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/menezmethod/mwpipe/internal/version"
)

// Health handles liveness checks. It always returns 200 while the server
// runs, with the build version and whole seconds since started.
//
//	GET /health
func Health(started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(struct {
			Status        string `json:"status"`
			Version       string `json:"version"`
			UptimeSeconds int64  `json:"uptime_seconds"`
		}{"ok", version.Version, int64(time.Since(started).Seconds())})
	}
}

// VersionInfo handles version info. Returns JSON with version and optional commit.
//
//	GET /version
func VersionInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		out := map[string]string{"version": version.Version}
		if version.Commit != "" {
			out["commit"] = version.Commit
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
