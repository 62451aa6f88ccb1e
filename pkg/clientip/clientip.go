// Package clientip resolves the originating client address of a request.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// GetIP returns the peer address from RemoteAddr. Proxy headers are
// ignored since any client can set them.
// Returns an empty string when nothing parses.
func GetIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// GetForwardedIP returns the client IP reported by a reverse proxy.
// Order: X-Forwarded-For (first valid entry), X-Real-IP, RemoteAddr.
// Only use it when every request passes through a proxy that overwrites
// these headers.
func GetForwardedIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for ip := range strings.SplitSeq(forwarded, ",") {
			if parsed := parseIP(ip); parsed != "" {
				return parsed
			}
		}
	}

	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	return GetIP(r)
}

func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
