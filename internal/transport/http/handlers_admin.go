package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"tutela/internal/consent/store"
	"tutela/pkg/platform/httputil"
	"tutela/pkg/requestcontext"
)

// Reconnect attempts are throttled so a flapping operator cannot hammer an
// unreachable primary with connection probes.
const (
	reconnectEvery = 10 * time.Second
	reconnectBurst = 3
)

// Rebinder upgrades the bound repository toward the primary backend. The
// selector implements it against the process binding.
type Rebinder interface {
	Reconnect(ctx context.Context) (store.Backend, bool)
}

// RebinderFunc adapts a closure over selector and binding to Rebinder.
type RebinderFunc func(ctx context.Context) (store.Backend, bool)

func (f RebinderFunc) Reconnect(ctx context.Context) (store.Backend, bool) { return f(ctx) }

// AdminHandler serves operator endpoints. Every route it registers is expected
// to sit behind RequireAdminToken.
type AdminHandler struct {
	rebinder Rebinder
	logger   *slog.Logger
	limiter  *rate.Limiter
}

func NewAdminHandler(rebinder Rebinder, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		rebinder: rebinder,
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Every(reconnectEvery), reconnectBurst),
	}
}

// Register mounts admin routes on the given router.
func (h *AdminHandler) Register(r chi.Router) {
	r.Post("/admin/reconnect", h.HandleReconnect)
}

// ReconnectResponse reports the backend bound after a reconnect attempt.
type ReconnectResponse struct {
	Backend string `json:"backend"`
	Changed bool   `json:"changed"`
}

// HandleReconnect asks the selector to upgrade the binding toward the primary.
// Rebinding an established repository stays administrative; this endpoint is
// the only path that switches one.
func (h *AdminHandler) HandleReconnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if !h.limiter.Allow() {
		h.logger.WarnContext(ctx, "reconnect throttled", "request_id", requestID)
		httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
			"error":             "rate_limited",
			"error_description": "reconnect attempts are throttled",
		})
		return
	}

	backend, changed := h.rebinder.Reconnect(ctx)

	h.logger.InfoContext(ctx, "reconnect attempt served",
		"request_id", requestID,
		"backend", string(backend),
		"changed", changed,
	)
	httputil.WriteJSON(w, http.StatusOK, ReconnectResponse{
		Backend: string(backend),
		Changed: changed,
	})
}
