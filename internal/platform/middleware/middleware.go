// Package middleware holds the HTTP middleware chain the router assembles:
// panic recovery, request IDs, client metadata capture, request logging,
// timeouts, body caps, and the admin token gate.
package middleware

import (
	"log/slog"
	"mime"
	"net/http"
	"regexp"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"tutela/internal/platform/metrics"
	"tutela/internal/platform/privacy"
	"tutela/pkg/requestcontext"
)

// MaxRequestIDLength caps the X-Request-ID header; anything longer is
// replaced with a generated ID instead of reaching the logs.
const MaxRequestIDLength = 128

// validRequestID admits the characters a client-supplied request ID may
// carry into log streams.
var validRequestID = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Recovery converts a handler panic into a 500 response and a logged stack
// so one bad request cannot take the process down.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				ctx := r.Context()
				logger.ErrorContext(ctx, "panic recovered",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
					"stack", string(debug.Stack()),
				)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID stamps every request with an ID, echoed in the X-Request-ID
// response header and carried in the context for log correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := sanitizeRequestID(r.Header.Get("X-Request-ID"))
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), id)))
	})
}

// sanitizeRequestID keeps the client-supplied ID when it is safe to log and
// mints a UUID when it is empty, oversized, or carries characters outside
// the allowed set.
func sanitizeRequestID(id string) string {
	if id == "" || len(id) > MaxRequestIDLength || !validRequestID.MatchString(id) {
		return uuid.New().String()
	}
	return id
}

// Logger emits one line per request: method, path, status, elapsed time,
// request ID. Client IPs are anonymized before logging; the full origin IP
// belongs in consent records, not in log streams.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			// Healthy liveness probes would drown out everything else.
			if r.URL.Path == "/health" && sw.status < http.StatusInternalServerError {
				return
			}

			ctx := r.Context()
			logger.InfoContext(ctx, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(started).Milliseconds(),
				"request_id", requestcontext.RequestID(ctx),
				"remote_addr_prefix", privacy.AnonymizeIP(requestcontext.ClientIP(ctx)),
			)
		})
	}
}

// statusWriter remembers the status code the handler wrote.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// Timeout aborts requests that outlive d; http.TimeoutHandler answers them
// with 503 and the body below.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "Request Timeout")
	}
}

// BodyLimit caps request body size. MaxBytesReader fails the read and closes
// the connection on overflow, so decoding stops before the body is buffered.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeJSON rejects body-carrying requests whose declared media type
// is not application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if badJSONContentType(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnsupportedMediaType)
			_, _ = w.Write([]byte(`{"error":"invalid_content_type","error_description":"Content-Type must be application/json"}`)) //nolint:errcheck // headers already sent
			return
		}
		next.ServeHTTP(w, r)
	})
}

// badJSONContentType reports whether a POST, PUT, or PATCH declares a media
// type other than application/json. A missing header passes; an empty body
// fails at the decode layer with a clearer message.
func badJSONContentType(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	media, _, err := mime.ParseMediaType(ct)
	return err != nil || media != "application/json"
}

// Latency feeds per-endpoint response times into the metrics registry.
// A nil registry disables observation, which tests rely on.
func Latency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}
			started := time.Now()
			next.ServeHTTP(w, r)
			m.ObserveEndpointLatency(r.URL.Path, time.Since(started).Seconds())
		})
	}
}
