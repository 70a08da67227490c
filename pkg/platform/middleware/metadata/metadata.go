// Package metadata extracts client metadata from incoming requests.
// IP address and User-Agent feed audit events and incident reports, so the
// middleware should be applied early in the chain.
package metadata

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"suraksha/pkg/requestcontext"
)

// ClientMetadata extracts the client IP address and User-Agent from the
// request and adds them to the context for handlers and services. The
// User-Agent is condensed to a device label before it enters the context,
// so audit events never carry the raw header.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIPFromRequest(r)
		device := DeviceSummary(r.Header.Get("User-Agent"))

		ctx := requestcontext.WithClientMetadata(r.Context(), ip, device)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...).
	// The first entry is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	// X-Real-IP is set by nginx and similar proxies.
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" for IPv4 and "[::1]:port" for IPv6.
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}

	return ""
}

// DeviceSummary condenses a raw User-Agent into a short "browser/os" label
// suitable for audit trails and incident reports. Unknown agents fall back
// to the raw string truncated to a reasonable length.
func DeviceSummary(rawUA string) string {
	if rawUA == "" {
		return "unknown"
	}

	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	os := ua.OS()

	if name == "" && os == "" {
		if len(rawUA) > 64 {
			return rawUA[:64]
		}
		return rawUA
	}

	switch {
	case name == "":
		return os
	case os == "":
		return fmt.Sprintf("%s %s", name, version)
	default:
		return fmt.Sprintf("%s %s/%s", name, version, os)
	}
}
