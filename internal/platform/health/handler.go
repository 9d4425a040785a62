// Package health serves the liveness probe and the repository health report.
package health

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tutela/internal/consent/monitor"
	"tutela/pkg/platform/httputil"
)

// Snapshotter produces the current repository health classification.
// The monitor satisfies it.
type Snapshotter interface {
	Snapshot() monitor.Snapshot
}

// Handler answers the two probe routes.
type Handler struct {
	snapshots Snapshotter
}

// New builds a handler reading from the given snapshot source.
func New(snapshots Snapshotter) *Handler {
	return &Handler{snapshots: snapshots}
}

// Register mounts the probe routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
}

// LivenessResponse is the fixed liveness body.
type LivenessResponse struct {
	Status string `json:"status"`
}

// HandleLiveness reports that the process is up. Always 200 while serving.
func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{
		Status: "alive",
	})
}

// HandleStatus renders the monitor snapshot: classification, active backend,
// and per-operation-class counters. Always 200: unhealthy describes data-loss
// risk on a process that is still answering, and is alerted on through the
// body and the health gauge, not the HTTP status.
func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.snapshots.Snapshot())
}
