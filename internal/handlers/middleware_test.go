package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusTeapot, map[string]any{"ok": true})

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestLogRequestsRecovers(t *testing.T) {
	h := LogRequests(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLogRequestsTagsRequests(t *testing.T) {
	h := LogRequests(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get("X-Request-Id"), 16)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-Id", "upstream-1")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "upstream-1", w.Header().Get("X-Request-Id"))
}

func TestRateLimiterRefills(t *testing.T) {
	now := time.Unix(0, 0)
	rl := newRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }
	rl.lastCheck = now

	assert.True(t, rl.allow())
	assert.True(t, rl.allow())
	assert.False(t, rl.allow())

	now = now.Add(500 * time.Millisecond)
	assert.True(t, rl.allow())
	assert.False(t, rl.allow())

	// idle time never banks more than the burst
	now = now.Add(time.Hour)
	assert.True(t, rl.allow())
	assert.True(t, rl.allow())
	assert.False(t, rl.allow())
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := newRateLimiter(0, 0)
	assert.True(t, rl.allow())
	assert.False(t, rl.allow())
}

func TestOriginPolicy(t *testing.T) {
	req := func(origin, host string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.Host = host
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	tests := []struct {
		name    string
		allowed []string
		origin  string
		host    string
		want    bool
	}{
		{"wildcard", []string{"*"}, "http://evil.test", "chess.test", true},
		{"no origin header", []string{"http://chess.test"}, "", "chess.test", true},
		{"listed", []string{"HTTP://Chess.Test"}, "http://chess.test", "chess.test", true},
		{"not listed", []string{"http://chess.test"}, "http://evil.test", "chess.test", false},
		{"malformed", []string{"http://chess.test"}, "::", "chess.test", false},
		{"same host when none configured", nil, "http://chess.test:8080", "chess.test:8080", true},
		{"other host when none configured", nil, "http://evil.test", "chess.test:8080", false},
		{"invalid config entries ignored", []string{"not-a-url"}, "http://chess.test", "chess.test", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newOriginPolicy(tt.allowed)
			assert.Equal(t, tt.want, p.check(req(tt.origin, tt.host)))
		})
	}
}
