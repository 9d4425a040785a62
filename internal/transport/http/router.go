// Package httptransport assembles the HTTP surface: the shared middleware
// stack, consent and rights routes, health probes, Prometheus metrics, and the
// administrative reconnect endpoint.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tutela/internal/consent/handler"
	"tutela/internal/platform/health"
	"tutela/internal/platform/metrics"
	"tutela/internal/platform/middleware"
	"tutela/pkg/platform/validation"
)

const defaultRequestTimeout = 30 * time.Second

// Options tune the transport stack. The zero value is serviceable for tests.
type Options struct {
	// TrustedProxies lists CIDRs whose forwarding headers are honored when
	// resolving client IPs. Empty trusts no proxy.
	TrustedProxies []string

	// AdminToken gates administrative routes. Empty leaves them unmounted.
	AdminToken string
}

// NewRouter wires all endpoints with middleware.
// Client metadata is resolved before logging so the access log can carry the
// anonymized origin prefix.
func NewRouter(consent *handler.Handler, healthH *health.Handler, admin *AdminHandler, logger *slog.Logger, m *metrics.Metrics, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	if trusted := middleware.ParseTrustedProxies(opts.TrustedProxies); len(trusted) > 0 {
		r.Use(middleware.ClientMetadataStrict(trusted))
	} else {
		r.Use(middleware.ClientMetadata)
	}
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(defaultRequestTimeout))
	r.Use(middleware.BodyLimit(validation.MaxBodySize))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Latency(m))

	healthH.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	consent.Register(r)

	// Admin endpoints (admin token required)
	if admin != nil && opts.AdminToken != "" {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdminToken(opts.AdminToken, logger))
			admin.Register(r)
		})
	}

	return r
}
