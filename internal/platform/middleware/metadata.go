package middleware

import (
	"context"
	"net/http"
	"net/netip"
	"strings"

	"tutela/pkg/requestcontext"
)

// MaxForwardedHeaderLength caps X-Forwarded-For / X-Real-IP values to prevent
// header injection into consent records.
const MaxForwardedHeaderLength = 500

// ClientMetadata extracts the client IP and User-Agent into the context for
// handlers and services. Forwarded headers are honored from any peer; use
// ClientMetadataStrict behind untrusted networks.
func ClientMetadata(next http.Handler) http.Handler {
	return clientMetadata(nil)(next)
}

// ClientMetadataStrict honors X-Forwarded-For and X-Real-IP only when the
// direct peer is inside one of the trusted prefixes, otherwise the socket
// address wins.
func ClientMetadataStrict(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return clientMetadata(trusted)
}

func clientMetadata(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := resolveClientIP(r, trusted)
			userAgent := r.Header.Get("User-Agent")

			ctx := requestcontext.WithClientMetadata(r.Context(), ip, userAgent)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClientIP retrieves the resolved client IP from the context.
func GetClientIP(ctx context.Context) string {
	return requestcontext.ClientIP(ctx)
}

// GetUserAgent retrieves the User-Agent from the context.
func GetUserAgent(ctx context.Context) string {
	return requestcontext.UserAgent(ctx)
}

// getClientIP resolves the client IP honoring forwarded headers from any peer.
func getClientIP(r *http.Request) string {
	return resolveClientIP(r, nil)
}

func resolveClientIP(r *http.Request, trusted []netip.Prefix) string {
	remote := stripPort(r.RemoteAddr)

	// With a trusted proxy list, forwarded headers from other peers are noise.
	if len(trusted) > 0 && !isTrustedPeer(remote, trusted) {
		return remote
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" && len(xff) <= MaxForwardedHeaderLength {
		// First hop in the chain is the original client.
		first := xff
		if before, _, ok := strings.Cut(xff, ","); ok {
			first = before
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" && len(xri) <= MaxForwardedHeaderLength {
		return strings.TrimSpace(xri)
	}

	return remote
}

func isTrustedPeer(ip string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(strings.Trim(ip, "[]"))
	if err != nil {
		return false
	}
	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// stripPort removes the port from a RemoteAddr value. Bracketed IPv6
// addresses keep their brackets.
func stripPort(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 && !strings.HasSuffix(remoteAddr, "]") {
		return remoteAddr[:idx]
	}
	return remoteAddr
}

// ParseTrustedProxies parses CIDR strings, skipping invalid entries.
func ParseTrustedProxies(cidrs []string) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		if prefix, err := netip.ParsePrefix(c); err == nil {
			out = append(out, prefix)
		}
	}
	return out
}
