package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"chessroom/internal/config"
	"chessroom/internal/game"
	"chessroom/internal/logging"
	"chessroom/internal/storage"
	"chessroom/internal/templates"
	"chessroom/pkg/utils"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Hub    *game.Hub
	Store  *storage.Store
	Config config.Config

	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewHandler creates a new handler instance. store may be nil.
func NewHandler(hub *game.Hub, store *storage.Store, cfg config.Config) *Handler {
	origins := newOriginPolicy(cfg.AllowedOrigins)
	return &Handler{
		Hub:    hub,
		Store:  store,
		Config: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /new", h.HandleNew)
	mux.HandleFunc("GET /white", h.HandleWhite)
	mux.HandleFunc("GET /black", h.HandleBlack)
	mux.HandleFunc("GET /ws", h.HandleWS)
	mux.HandleFunc("GET /api/rooms/{code}", h.HandleRoom)
	mux.HandleFunc("GET /api/matches/{id}", h.HandleMatch)
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.HandleFunc("/", h.HandlePage)
}

// HandlePage serves the home page
func (h *Handler) HandlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	data := templates.HomeData{
		InvalidCode: r.URL.Query().Get("error") == "invalidCode",
		Archive:     h.Store != nil,
		Rooms:       h.Hub.Len(),
	}
	if stats, err := h.Store.FetchStats(r.Context()); err != nil {
		log.Printf("fetch stats: %v", err)
	} else {
		data.Started, data.Completed, data.Active = stats.Started, stats.Completed, stats.Active
	}
	templates.WriteHomeHTML(w, data)
}

// HandleNew picks a fresh room code and sends the creator to the white seat
func (h *Handler) HandleNew(w http.ResponseWriter, r *http.Request) {
	code := utils.RoomCode()
	for h.Hub.Exists(code) {
		code = utils.RoomCode()
	}
	q := url.Values{"code": {code}}
	if name := strings.TrimSpace(r.URL.Query().Get("name")); name != "" {
		q.Set("name", name)
	}
	http.Redirect(w, r, "/white?"+q.Encode(), http.StatusFound)
}

// HandleWhite serves the game page for the player opening a room
func (h *Handler) HandleWhite(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		http.Redirect(w, r, "/new", http.StatusFound)
		return
	}
	h.writeGame(w, r, code, game.White)
}

// HandleBlack serves the game page for the player joining an open room
func (h *Handler) HandleBlack(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" || !h.Hub.Exists(code) {
		logging.Debugf("join page for unknown room %q from %s", code, ClientIP(r))
		http.Redirect(w, r, "/?error=invalidCode", http.StatusFound)
		return
	}
	h.writeGame(w, r, code, game.Black)
}

func (h *Handler) writeGame(w http.ResponseWriter, r *http.Request, code string, color game.Color) {
	templates.WriteGameHTML(w, templates.GameData{
		Code:       code,
		Color:      string(color),
		PlayerName: strings.TrimSpace(r.URL.Query().Get("name")),
	})
}

// HandleRoom reports the state of an open room as JSON
func (h *Handler) HandleRoom(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Hub.Snapshot(r.PathValue("code"))
	if errors.Is(err, game.ErrNoRoom) {
		WriteJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "room not found"})
		return
	}
	if err != nil {
		WriteJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}

// HandleMatch returns an archived match with its players and moves
func (h *Handler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad match id"})
		return
	}
	m, err := h.Store.LoadMatch(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrDisabled):
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "archive disabled"})
	case errors.Is(err, storage.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "match not found"})
	case err != nil:
		log.Printf("load match %s: %v", id, err)
		WriteJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "archive unavailable"})
	default:
		WriteJSON(w, http.StatusOK, m)
	}
}

// HandleHealth is a plain-text liveness check
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "ok %s\n", templates.Commit())
}

// HandleWS upgrades the request and starts the socket pumps
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	conn.SetReadLimit(h.Config.MaxMessageSize)

	send := make(chan []byte, h.Config.SendBuffer)
	s := h.Hub.Attach(send)
	c := &client{
		conn:    conn,
		send:    send,
		hub:     h.Hub,
		id:      s.ID,
		addr:    ClientIP(r),
		limiter: newRateLimiter(h.Config.RateLimit.Burst, h.Config.RateLimit.RefillInterval),
		rate:    h.Config.RateLimit,
	}

	h.track(conn)
	go c.writePump()
	go c.readPump(func() { h.untrack(conn) })
}

func (h *Handler) track(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Handler) untrack(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// CloseSockets sends a going-away close frame to every open socket and
// waits until their sessions have left the hub or ctx expires.
func (h *Handler) CloseSockets(ctx context.Context) error {
	h.mu.Lock()
	for conn := range h.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
	}
	h.mu.Unlock()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		h.mu.Lock()
		n := len(h.conns)
		h.mu.Unlock()
		if n == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ClientIP extracts the client IP from the request
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
