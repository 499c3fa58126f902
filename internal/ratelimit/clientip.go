package ratelimit

import (
	"net/http"
	"strings"
)

// UnknownIP is the key used when no proxy header identifies the client.
const UnknownIP = "unknown"

// ClientIP derives the rate-limit identity from proxy headers: the first
// X-Forwarded-For entry, then X-Real-IP, then UnknownIP.
//
// The headers are trusted as set by the fronting proxy. A client talking to
// the server directly can spoof them.
func ClientIP(h http.Header) string {
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(h.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return UnknownIP
}
