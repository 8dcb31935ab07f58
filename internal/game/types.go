package game

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryLimit bounds the chat backlog kept per room.
const DefaultHistoryLimit = 100

var (
	ErrNoRoom         = errors.New("room not found")
	ErrUnknownPlayer  = errors.New("player not in room")
	ErrUnknownSession = errors.New("unknown session")
	ErrRoomFull       = errors.New("room is full")
	ErrAlreadyJoined  = errors.New("session already joined a room")
	ErrEmptyMessage   = errors.New("empty chat message")
)

// Color is the side a player controls.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// MessageType separates server announcements from player chat.
type MessageType string

const (
	MessageSystem MessageType = "system"
	MessageUser   MessageType = "user"
)

// Hub is the process-wide room registry. A single mutex serialises every
// operation so events are applied one at a time in arrival order.
type Hub struct {
	mu           sync.Mutex
	rooms        map[string]*Room
	sessions     map[string]*Session
	historyLimit int
	archive      Archive
}

// Room is the state of one two-player match and its chat.
type Room struct {
	Code      string
	Players   []*Player
	Messages  []Message
	State     *GameState
	Rematch   *Rematch
	MatchID   uuid.UUID
	CreatedAt time.Time
	LastSeen  time.Time

	board     *tracker
	matchLive bool
	matches   int
	plies     int
}

// Player is a seated participant; identity lives only as long as the connection.
type Player struct {
	ConnID string `json:"id"`
	Name   string `json:"name"`
	Color  Color  `json:"color"`
}

// Message is a chat line or a system announcement.
type Message struct {
	ID          string      `json:"id"`
	Content     string      `json:"content"`
	Sender      string      `json:"sender,omitempty"`
	SenderColor Color       `json:"senderColor,omitempty"`
	Timestamp   string      `json:"timestamp"`
	Type        MessageType `json:"type"`
}

// GameState is the last known board snapshot. It is informational only and never
// used to accept or reject a move.
type GameState struct {
	FEN      string `json:"fen"`
	PGN      string `json:"pgn"`
	GameOver bool   `json:"gameOver"`
	Turn     Color  `json:"turn"`
}

// Rematch holds the connection ids that asked for and agreed to a new game.
type Rematch struct {
	Requests []string `json:"requests"`
	Agreed   []string `json:"agreed"`
}

// Session is the association between one live connection and the room it joined.
type Session struct {
	ID    string
	Code  string
	Name  string
	Color Color
	send  chan<- []byte
}

// JoinResult reports the seat assigned to a joining connection.
type JoinResult struct {
	Color         Color
	IsFirstPlayer bool
}

// RoomSnapshot is a read-only copy of a room for status pages.
type RoomSnapshot struct {
	Code      string    `json:"code"`
	MatchID   string    `json:"matchId"`
	Players   []Player  `json:"players"`
	Messages  int       `json:"messages"`
	State     GameState `json:"state"`
	Rematch   *Rematch  `json:"rematch,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	LastSeen  time.Time `json:"lastSeen"`
}

// Archive receives match history. Implementations must not block.
type Archive interface {
	MatchStarted(MatchStart)
	MoveRelayed(MoveRecord)
	ChatPosted(ChatRecord)
	MatchEnded(MatchEnd)
}

// MatchStart is emitted when the second player sits down or a rematch begins.
type MatchStart struct {
	MatchID uuid.UUID
	Code    string
	White   string
	Black   string
	At      time.Time
}

// MoveRecord is one relayed move with the tracker's view of it.
type MoveRecord struct {
	MatchID uuid.UUID
	Code    string
	Ply     int
	Color   Color
	Payload json.RawMessage
	FEN     string
	Tracked bool
	At      time.Time
}

// ChatRecord is a user chat line as it was broadcast.
type ChatRecord struct {
	MatchID uuid.UUID
	Code    string
	Message Message
}

// MatchEnd closes a match started with MatchStart.
type MatchEnd struct {
	MatchID uuid.UUID
	Code    string
	Reason  string
	FEN     string
	PGN     string
	At      time.Time
}

// Match end reasons.
const (
	EndRematch    = "rematch"
	EndDisconnect = "disconnect"
)
