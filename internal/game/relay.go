package game

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"chessroom/internal/logging"
	"chessroom/internal/protocol"
	"chessroom/pkg/utils"
)

// RelayMove broadcasts a client-validated move to the whole room, sender
// included. The payload is never checked; the shadow board follows it if it can.
func (h *Hub) RelayMove(connID string, move json.RawMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, r, p, err := h.roomOf(connID)
	if err != nil {
		return fmt.Errorf("relay move: %w", err)
	}
	if r.State == nil {
		r.State = defaultState()
	}
	r.LastSeen = time.Now()

	h.broadcast(r, protocol.EventNewMove, rawOrNil(move), "")

	mover := r.board.turn()
	tracked := r.board.apply(move) == nil
	if tracked {
		st := r.board.state()
		r.State = &st
	}
	r.plies++
	if mover != p.Color {
		logging.Debugf("room %s: %s moved on %s's turn", r.Code, p.Color, mover)
	}

	if h.archive != nil {
		h.archive.MoveRelayed(MoveRecord{
			MatchID: r.MatchID,
			Code:    r.Code,
			Ply:     r.plies,
			Color:   p.Color,
			Payload: append(json.RawMessage(nil), move...),
			FEN:     r.State.FEN,
			Tracked: tracked,
			At:      r.LastSeen,
		})
	}
	return nil
}

// SendChat appends a chat line to the room history and broadcasts it to every
// member, sender included. History keeps only the most recent lines.
func (h *Hub) SendChat(connID, content string) (Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, r, _, err := h.roomOf(connID)
	if err != nil {
		return Message{}, fmt.Errorf("send chat: %w", err)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, fmt.Errorf("send chat: %w", ErrEmptyMessage)
	}

	now := time.Now()
	msg := Message{
		ID:          utils.RandomToken(9),
		Content:     content,
		Sender:      s.Name,
		SenderColor: s.Color,
		Timestamp:   timestamp(now),
		Type:        MessageUser,
	}
	r.Messages = append(r.Messages, msg)
	if over := len(r.Messages) - h.historyLimit; over > 0 {
		n := copy(r.Messages, r.Messages[over:])
		r.Messages = r.Messages[:n]
	}
	r.LastSeen = now

	h.broadcast(r, protocol.EventChatMessage, msg, "")
	logging.Debugf("message sent by %s in room %s", s.Name, r.Code)

	if h.archive != nil {
		h.archive.ChatPosted(ChatRecord{MatchID: r.MatchID, Code: r.Code, Message: msg})
	}
	return msg, nil
}

// Typing tells the other members whether connID is typing. Nothing is stored.
func (h *Hub) Typing(connID string, isTyping bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, r, _, err := h.roomOf(connID)
	if err != nil {
		return fmt.Errorf("typing: %w", err)
	}
	h.broadcast(r, protocol.EventUserTyping, protocol.TypingNotice{User: s.Name, IsTyping: isTyping}, connID)
	return nil
}

// Ping answers a liveness check on the same connection.
func (h *Hub) Ping(connID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[connID]
	if !ok {
		return fmt.Errorf("ping: %w", ErrUnknownSession)
	}
	h.sendTo(s, protocol.EventPong, nil)
	return nil
}

// ChatError reports a failed chat send back to its sender only.
func (h *Hub) ChatError(connID, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.sessions[connID]; ok {
		h.sendTo(s, protocol.EventChatError, protocol.ChatError{Message: message})
	}
}
