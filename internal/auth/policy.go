// Package auth holds the access policies of the API as plain functions over
// request data.  The echo middleware and the debug handler only translate
// these decisions into responses.
package auth

import (
	"crypto/subtle"
	"net/http"
	"sort"
	"strings"
)

// HeaderAPIKey is the request header carrying the shared secret.
const HeaderAPIKey = "X-Api-Key"

// Decision reasons reported by Evaluate.
const (
	ReasonAuthDisabled = "auth_disabled"
	ReasonLocalHost    = "local_host"
	ReasonMissingKey   = "missing_key"
	ReasonKeyMismatch  = "key_mismatch"
	ReasonKeyMatch     = "key_match"
)

// Decision is the outcome of the API key gate for one request.
type Decision struct {
	Admit  bool
	Reason string
}

// IsLocalHostHeader reports whether a Host header value points at the local
// machine.  The check is a case-insensitive substring match, so any host
// mentioning localhost or 127.0.0.1 qualifies.
func IsLocalHostHeader(host string) bool {
	h := strings.ToLower(host)
	return strings.Contains(h, "localhost") || strings.Contains(h, "127.0.0.1")
}

// KeyFromHeaders returns the first non-blank X-Api-Key value, untrimmed.
// Header names are matched case-insensitively.
func KeyFromHeaders(h http.Header) string {
	for name, values := range h {
		if !strings.EqualFold(name, HeaderAPIKey) {
			continue
		}
		for _, v := range values {
			if strings.TrimSpace(v) != "" {
				return v
			}
		}
	}
	return ""
}

// SecretMatches compares a provided secret with the expected one after
// trimming surrounding whitespace.  A blank provided secret never matches.
func SecretMatches(provided, expected string) bool {
	p := strings.TrimSpace(provided)
	e := strings.TrimSpace(expected)
	if p == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(p), []byte(e)) == 1
}

// Evaluate applies the API key gate.  Rules are checked in order and the
// first match wins:
//
//  1. no expected secret configured: admit
//  2. Host header names the local machine: admit
//  3. X-Api-Key equals the expected secret after trimming: admit, else reject
func Evaluate(expected, host string, h http.Header) Decision {
	if expected == "" {
		return Decision{Admit: true, Reason: ReasonAuthDisabled}
	}
	if IsLocalHostHeader(host) {
		return Decision{Admit: true, Reason: ReasonLocalHost}
	}
	provided := KeyFromHeaders(h)
	if strings.TrimSpace(provided) == "" {
		return Decision{Admit: false, Reason: ReasonMissingKey}
	}
	if !SecretMatches(provided, expected) {
		return Decision{Admit: false, Reason: ReasonKeyMismatch}
	}
	return Decision{Admit: true, Reason: ReasonKeyMatch}
}

// IsWatchedPath reports whether auth decisions on path are traced.
func IsWatchedPath(path string) bool {
	switch {
	case path == "/api/test", path == "/api/tickets":
		return true
	case strings.HasPrefix(path, "/api/tickets/"):
		return true
	}
	return false
}

// HeaderNames returns the sorted, lower-cased header names of h.
func HeaderNames(h http.Header) []string {
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, strings.ToLower(k))
	}
	sort.Strings(names)
	return names
}

// DebugVerdict is the outcome of the debug endpoint policy.
type DebugVerdict int

const (
	DebugAllowed DebugVerdict = iota
	DebugDisabledInProduction
	DebugUnauthorized
	DebugOnlyLocalhost
)

// DebugAccess decides whether the debug dump may be served.  It is separate
// from Evaluate and stricter on locality: the Host header must be exactly
// localhost, 127.0.0.1 or ::1, so a Host carrying a port is refused.
func DebugAccess(production bool, expected, queryKey, host string) DebugVerdict {
	if production {
		return DebugDisabledInProduction
	}
	if expected != "" && strings.TrimSpace(queryKey) != strings.TrimSpace(expected) {
		return DebugUnauthorized
	}
	if !IsLoopbackHost(host) {
		return DebugOnlyLocalhost
	}
	return DebugAllowed
}

// IsLoopbackHost reports whether a raw Host header value is exactly one of
// the loopback names.  No port stripping or case folding is applied.
func IsLoopbackHost(host string) bool {
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
