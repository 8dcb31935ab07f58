package handlers

import (
	"log"
	"net/http"
	"net/url"
	"strings"
)

// originPolicy decides which browser origins may open a socket.
type originPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
}

func newOriginPolicy(origins []string) *originPolicy {
	p := &originPolicy{allowed: make(map[string]struct{})}
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			p.allowAll = true
			continue
		}
		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Printf("Ignoring invalid origin in configuration: %q", origin)
			continue
		}
		p.allowed[normalized] = struct{}{}
	}
	return p
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return "", false
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

// check is used as the upgrader's CheckOrigin. Requests without an Origin
// header come from non-browser clients and are let through. With no
// configured origins only same-host pages may connect.
func (p *originPolicy) check(r *http.Request) bool {
	header := r.Header.Get("Origin")
	if header == "" || p.allowAll {
		return true
	}
	origin, ok := normalizeOrigin(header)
	if !ok {
		log.Printf("Blocked WebSocket connection with malformed origin: %q", header)
		return false
	}
	if len(p.allowed) == 0 {
		u, _ := url.Parse(origin)
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
	} else if _, exists := p.allowed[origin]; exists {
		return true
	}
	log.Printf("Blocked WebSocket connection from disallowed origin: %q", header)
	return false
}
