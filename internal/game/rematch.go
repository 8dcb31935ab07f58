package game

import (
	"fmt"
	"slices"

	"chessroom/internal/logging"
	"chessroom/internal/protocol"
)

// Rematch negotiation per room:
//
//	idle --request--> requested --accept--> reset --> idle
//	  ^                   |
//	  +------decline------+   (disconnect also returns to idle)
//
// One request and one acceptance are enough to reset, and they may come from
// the same player.

// rematchThreshold is how many requests, and separately how many agreements,
// a room needs before it is ready and then reset.
const rematchThreshold = 1

// RequestRematch records connID's wish for a new game. A single request already
// makes the room ready, so rematchReady follows immediately.
func (h *Hub) RequestRematch(connID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, r, p, err := h.roomOf(connID)
	if err != nil {
		return fmt.Errorf("request rematch: %w", err)
	}
	rm := ensureRematch(r)
	if slices.Contains(rm.Requests, connID) {
		return nil
	}
	rm.Requests = append(rm.Requests, connID)

	h.announce(r, fmt.Sprintf("%s muốn chơi lại!", p.Name))
	h.broadcast(r, protocol.EventRematchRequested, protocol.PlayerRef{PlayerID: connID, PlayerName: p.Name}, "")
	if len(rm.Requests) >= rematchThreshold {
		h.broadcast(r, protocol.EventRematchReady, nil, "")
	}
	return nil
}

// AcceptRematch records connID's agreement and resets the board once at least
// one request and one agreement are present.
func (h *Hub) AcceptRematch(connID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, r, p, err := h.roomOf(connID)
	if err != nil {
		return fmt.Errorf("accept rematch: %w", err)
	}
	rm := ensureRematch(r)
	if !slices.Contains(rm.Agreed, connID) {
		rm.Agreed = append(rm.Agreed, connID)
		h.announce(r, fmt.Sprintf("%s đã đồng ý chơi lại!", p.Name))
	}
	if len(rm.Requests) < rematchThreshold || len(rm.Agreed) < rematchThreshold {
		return nil
	}

	h.startMatch(r)
	r.Rematch = &Rematch{Requests: []string{}, Agreed: []string{}}
	logging.Debugf("room %s: rematch accepted, new match %s", r.Code, r.MatchID)

	// order matters: the chat line must land before the board visibly resets
	h.announce(r, "🎮 Game mới đang bắt đầu!")
	h.broadcast(r, protocol.EventRematchAccepted, nil, "")
	h.broadcast(r, protocol.EventResetBoard, protocol.ResetBoard{FEN: StartFEN}, "")
	h.broadcast(r, protocol.EventForceResetGame, nil, "")
	return nil
}

// DeclineRematch drops any negotiation in progress, whatever its state.
func (h *Hub) DeclineRematch(connID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, r, p, err := h.roomOf(connID)
	if err != nil {
		return fmt.Errorf("decline rematch: %w", err)
	}
	r.Rematch = &Rematch{Requests: []string{}, Agreed: []string{}}

	h.announce(r, fmt.Sprintf("%s đã từ chối chơi lại.", p.Name))
	h.broadcast(r, protocol.EventRematchDeclined, protocol.PlayerRef{PlayerID: connID, PlayerName: p.Name}, "")
	return nil
}

func ensureRematch(r *Room) *Rematch {
	if r.Rematch == nil {
		r.Rematch = &Rematch{Requests: []string{}, Agreed: []string{}}
	}
	return r.Rematch
}
