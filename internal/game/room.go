package game

import (
	"fmt"
	"time"

	"chessroom/internal/logging"
	"chessroom/internal/protocol"
	"chessroom/pkg/utils"

	"github.com/google/uuid"
)

const maxPlayers = 2

// Join seats connID in room code. The first entrant plays white and the second
// black; requestedColor is accepted for compatibility and ignored. A third join
// returns ErrRoomFull without touching the room.
func (h *Hub) Join(connID, code, name, requestedColor string) (JoinResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[connID]
	if !ok {
		return JoinResult{}, fmt.Errorf("join %q: %w", code, ErrUnknownSession)
	}
	if s.Code != "" {
		return JoinResult{}, fmt.Errorf("join %q while in %q: %w", code, s.Code, ErrAlreadyJoined)
	}
	if name == "" {
		name = "Player_" + utils.RandomToken(5)
	}
	if requestedColor != "" {
		logging.Debugf("join %s: requested color %q ignored", code, requestedColor)
	}

	now := time.Now()
	r, ok := h.rooms[code]
	if !ok {
		r = &Room{
			Code:      code,
			Messages:  make([]Message, 0),
			State:     defaultState(),
			MatchID:   uuid.New(),
			CreatedAt: now,
			LastSeen:  now,
			board:     newTracker(),
		}
		h.rooms[code] = r
		h.seat(s, r, name, White)
		logging.Debugf("room %s created by %s", code, name)
		return JoinResult{Color: White, IsFirstPlayer: true}, nil
	}

	if len(r.Players) >= maxPlayers {
		return JoinResult{}, fmt.Errorf("join %q: %w", code, ErrRoomFull)
	}

	// color is positional: whoever joins an occupied room plays black, even
	// when the remaining player is black too
	color := Black
	if r.Players[0].Color == Black {
		logging.Debugf("room %s: %s seated black next to black %s", code, name, r.Players[0].Name)
	}
	h.seat(s, r, name, color)
	r.LastSeen = now

	h.sendTo(s, protocol.EventChatHistory, append([]Message{}, r.Messages...))
	h.startMatch(r)
	h.broadcast(r, protocol.EventStartGame, nil, "")
	h.announce(r, fmt.Sprintf("%s đã tham gia game!", name))
	return JoinResult{Color: color, IsFirstPlayer: false}, nil
}

func (h *Hub) seat(s *Session, r *Room, name string, color Color) {
	r.Players = append(r.Players, &Player{ConnID: s.ID, Name: name, Color: color})
	s.Code = r.Code
	s.Name = name
	s.Color = color
}

// startMatch resets the shadow board for a fresh game between the seated players.
func (h *Hub) startMatch(r *Room) {
	if r.matchLive {
		h.endMatch(r, EndRematch)
	}
	if r.matches > 0 {
		r.MatchID = uuid.New()
	}
	r.matches++
	r.board = newTracker()
	r.State = defaultState()
	r.plies = 0
	r.matchLive = true

	if h.archive == nil {
		return
	}
	start := MatchStart{MatchID: r.MatchID, Code: r.Code, At: time.Now()}
	for _, p := range r.Players {
		if p.Color == White {
			start.White = p.Name
		} else {
			start.Black = p.Name
		}
	}
	h.archive.MatchStarted(start)
}

func (h *Hub) endMatch(r *Room, reason string) {
	if !r.matchLive {
		return
	}
	r.matchLive = false
	if h.archive == nil {
		return
	}
	end := MatchEnd{MatchID: r.MatchID, Code: r.Code, Reason: reason, At: time.Now()}
	if r.State != nil {
		end.FEN = r.State.FEN
		end.PGN = r.State.PGN
	}
	h.archive.MatchEnded(end)
}

// Leave removes connID from its room. The opponent, if any, wins by disconnect
// and any rematch negotiation is dropped. An emptied room is deleted.
func (h *Hub) Leave(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(connID)
}

func (h *Hub) leaveLocked(connID string) {
	s, r, p, err := h.roomOf(connID)
	if err != nil {
		if s != nil {
			s.Code = ""
		}
		return
	}

	for i, cur := range r.Players {
		if cur == p {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			break
		}
	}
	s.Code = ""
	s.Color = ""
	h.endMatch(r, EndDisconnect)

	h.announce(r, fmt.Sprintf("%s đã rời game.", p.Name))
	if len(r.Players) == 0 {
		delete(h.rooms, r.Code)
		logging.Debugf("room %s closed", r.Code)
		return
	}
	r.Rematch = &Rematch{Requests: []string{}, Agreed: []string{}}
	r.LastSeen = time.Now()
	h.broadcast(r, protocol.EventGameOverDisconnect, nil, "")
}
