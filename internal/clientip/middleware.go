// Package clientip extracts the real client IP behind edge proxies
// (Fly.io, Cloudflare, nginx) and builds a spoof-resistant rate-limit key.
package clientip

import (
	"context"
	"net/http"
	"sort"
	"strings"
)

type contextKey struct{}

var clientIPKey = contextKey{}

// Info holds the extracted client IP information for one request.
type Info struct {
	// Primary is the single most trusted IP, for logging and display.
	Primary string

	// RateLimitKey is a composite of every observed IP. Spoofed headers
	// cannot shake off the key because RemoteAddr always anchors it.
	RateLimitKey string
}

// trustedHeaders are consulted in priority order; the first non-empty one
// supplies the primary IP.
var trustedHeaders = []string{
	"Fly-Client-IP",
	"CF-Connecting-IP",
	"True-Client-IP",
	"X-Real-IP",
}

// Middleware extracts client IPs, rewrites r.RemoteAddr to the primary IP,
// and stores Info in the request context for the rate limiter and logger.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := extract(r)
		r.RemoteAddr = info.Primary
		ctx := context.WithValue(r.Context(), clientIPKey, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext retrieves Info from context. Returns a zero Info when the
// middleware did not run.
func FromContext(ctx context.Context) Info {
	if info, ok := ctx.Value(clientIPKey).(Info); ok {
		return info
	}
	return Info{}
}

// FromRequest is a convenience wrapper around FromContext.
func FromRequest(r *http.Request) Info {
	return FromContext(r.Context())
}

func extract(r *http.Request) Info {
	all := make(map[string]bool)

	// The TCP peer address is always trusted.
	remoteIP := stripPort(r.RemoteAddr)
	if remoteIP != "" {
		all[remoteIP] = true
	}

	var primary string
	for _, h := range trustedHeaders {
		if ip := strings.TrimSpace(r.Header.Get(h)); ip != "" {
			all[ip] = true
			if primary == "" {
				primary = ip
			}
		}
	}

	// X-Forwarded-For is only partially trusted: first hop only.
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			all[ip] = true
			if primary == "" {
				primary = ip
			}
		}
	}

	if primary == "" {
		primary = remoteIP
	}

	ips := make([]string, 0, len(all))
	for ip := range all {
		ips = append(ips, ip)
	}
	sort.Strings(ips)

	return Info{Primary: primary, RateLimitKey: strings.Join(ips, "|")}
}

// stripPort removes a trailing :port from "IP:port" or "[IPv6]:port".
func stripPort(addr string) string {
	if addr == "" {
		return ""
	}
	if strings.HasPrefix(addr, "[") {
		if idx := strings.LastIndex(addr, "]:"); idx != -1 {
			return strings.Trim(addr[:idx+1], "[]")
		}
		return strings.Trim(addr, "[]")
	}
	if strings.Count(addr, ":") == 1 {
		host, _, _ := strings.Cut(addr, ":")
		return host
	}
	return addr
}
