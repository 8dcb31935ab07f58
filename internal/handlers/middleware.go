package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"chessroom/internal/logging"
	"chessroom/pkg/utils"
)

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// LogRequests tags every request with an X-Request-Id, logs it at debug level
// and turns a handler panic into a 500.
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = utils.RandomHex(8)
		}
		w.Header().Set("X-Request-Id", id)
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Printf("[%s] panic serving %s %s: %v", id, r.Method, r.URL.Path, rec)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
		logging.Debugf("[%s] %s %s from %s in %s", id, r.Method, r.URL.Path, ClientIP(r), time.Since(start))
	})
}
