package game

import (
	"encoding/json"
	"fmt"
	"time"

	"chessroom/internal/logging"
	"chessroom/internal/protocol"
	"chessroom/pkg/utils"

	"github.com/google/uuid"
)

// Option configures a Hub.
type Option func(*Hub)

// WithHistoryLimit caps the chat backlog per room.
func WithHistoryLimit(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.historyLimit = n
		}
	}
}

// WithArchive records match history through a.
func WithArchive(a Archive) Option {
	return func(h *Hub) { h.archive = a }
}

// NewHub creates an empty room registry.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		rooms:        make(map[string]*Room),
		sessions:     make(map[string]*Session),
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Attach registers a live connection. Outbound frames for it are queued on send.
func (h *Hub) Attach(send chan<- []byte) *Session {
	s := &Session{ID: uuid.NewString(), send: send}
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()
	logging.Debugf("session %s attached", s.ID)
	return s
}

// Detach forgets a connection, leaving its room first.
func (h *Hub) Detach(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[connID]; !ok {
		return
	}
	h.leaveLocked(connID)
	delete(h.sessions, connID)
	logging.Debugf("session %s detached", connID)
}

// Exists reports whether a room with code is open.
func (h *Hub) Exists(code string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.rooms[code]
	return ok
}

// Len returns the number of open rooms.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Session returns a copy of the session record for connID.
func (h *Hub) Session(connID string) (Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[connID]
	if !ok {
		return Session{}, false
	}
	return Session{ID: s.ID, Code: s.Code, Name: s.Name, Color: s.Color}, true
}

// Snapshot copies the state of room code.
func (h *Hub) Snapshot(code string) (RoomSnapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[code]
	if !ok {
		return RoomSnapshot{}, fmt.Errorf("snapshot %q: %w", code, ErrNoRoom)
	}
	snap := RoomSnapshot{
		Code:      r.Code,
		MatchID:   r.MatchID.String(),
		Players:   make([]Player, 0, len(r.Players)),
		Messages:  len(r.Messages),
		CreatedAt: r.CreatedAt,
		LastSeen:  r.LastSeen,
	}
	for _, p := range r.Players {
		snap.Players = append(snap.Players, *p)
	}
	if r.State != nil {
		snap.State = *r.State
	}
	if r.Rematch != nil {
		snap.Rematch = &Rematch{
			Requests: append([]string{}, r.Rematch.Requests...),
			Agreed:   append([]string{}, r.Rematch.Agreed...),
		}
	}
	return snap, nil
}

// History returns a copy of the chat backlog of room code.
func (h *Hub) History(code string) ([]Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[code]
	if !ok {
		return nil, fmt.Errorf("history %q: %w", code, ErrNoRoom)
	}
	return append([]Message{}, r.Messages...), nil
}

// roomOf resolves the room and seated player behind a connection.
func (h *Hub) roomOf(connID string) (*Session, *Room, *Player, error) {
	s, ok := h.sessions[connID]
	if !ok {
		return nil, nil, nil, ErrUnknownSession
	}
	if s.Code == "" {
		return s, nil, nil, ErrNoRoom
	}
	r, ok := h.rooms[s.Code]
	if !ok {
		return s, nil, nil, ErrNoRoom
	}
	for _, p := range r.Players {
		if p.ConnID == connID {
			return s, r, p, nil
		}
	}
	return s, r, nil, ErrUnknownPlayer
}

func (h *Hub) sendTo(s *Session, event string, payload any) {
	data, err := protocol.Encode(event, payload)
	if err != nil {
		logging.Warnf("encode %s: %v", event, err)
		return
	}
	h.deliver(s, event, data)
}

func (h *Hub) deliver(s *Session, event string, data []byte) {
	if s == nil || s.send == nil {
		return
	}
	select {
	case s.send <- data:
	default:
		logging.Debugf("session %s buffer full, dropped %s", s.ID, event)
	}
}

// broadcast sends an event to every seated player except the connection skip.
func (h *Hub) broadcast(r *Room, event string, payload any, skip string) {
	data, err := protocol.Encode(event, payload)
	if err != nil {
		logging.Warnf("encode %s: %v", event, err)
		return
	}
	for _, p := range r.Players {
		if p.ConnID == skip {
			continue
		}
		h.deliver(h.sessions[p.ConnID], event, data)
	}
}

func (h *Hub) announce(r *Room, content string) {
	h.broadcast(r, protocol.EventChatMessage, systemMessage(content), "")
}

func systemMessage(content string) Message {
	return Message{
		ID:        utils.RandomToken(9),
		Content:   content,
		Timestamp: timestamp(time.Now()),
		Type:      MessageSystem,
	}
}

func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// rawOrNil keeps json.RawMessage payloads intact through protocol.Encode.
func rawOrNil(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}
