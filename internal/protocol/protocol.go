// Package protocol defines the JSON envelopes exchanged over the room socket.
//
// Every frame is {"event": "<name>", "data": <payload>}. Inbound frames are
// decoded into one concrete type per event so malformed input is rejected here,
// before anything reaches the room registry.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Inbound event names.
const (
	EventJoinGame       = "joinGame"
	EventMove           = "move"
	EventSendMessage    = "sendMessage"
	EventTyping         = "typing"
	EventRequestRematch = "requestRematch"
	EventAcceptRematch  = "acceptRematch"
	EventDeclineRematch = "declineRematch"
	EventPing           = "ping"
)

// Outbound event names.
const (
	EventStartGame          = "startGame"
	EventNewMove            = "newMove"
	EventChatMessage        = "chatMessage"
	EventChatHistory        = "chatHistory"
	EventUserTyping         = "userTyping"
	EventChatError          = "chatError"
	EventRematchRequested   = "rematchRequested"
	EventRematchReady       = "rematchReady"
	EventRematchAccepted    = "rematchAccepted"
	EventResetBoard         = "resetBoard"
	EventForceResetGame     = "forceResetGame"
	EventRematchDeclined    = "rematchDeclined"
	EventGameOverDisconnect = "gameOverDisconnect"
	EventPong               = "pong"
)

var (
	// ErrMalformed is returned when a frame or its payload has the wrong shape.
	ErrMalformed = errors.New("malformed event")
	// ErrUnknownEvent is returned for an event name the server does not handle.
	ErrUnknownEvent = errors.New("unknown event")
)

// Envelope is the frame shape in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound is implemented by every decoded client event.
type Inbound interface {
	EventName() string
}

// JoinGame asks to enter the room identified by Code.
type JoinGame struct {
	Code       string `json:"code"`
	PlayerName string `json:"playerName,omitempty"`
	Color      string `json:"color,omitempty"`
}

// Move carries a client-validated move; the server relays it untouched.
type Move struct {
	Payload json.RawMessage
}

// SendMessage is a chat line typed by a player.
type SendMessage struct {
	Content string `json:"content"`
}

// Typing toggles the typing indicator shown to the opponent.
type Typing struct {
	IsTyping bool
}

type RequestRematch struct{}
type AcceptRematch struct{}
type DeclineRematch struct{}
type Ping struct{}

func (JoinGame) EventName() string       { return EventJoinGame }
func (Move) EventName() string           { return EventMove }
func (SendMessage) EventName() string    { return EventSendMessage }
func (Typing) EventName() string         { return EventTyping }
func (RequestRematch) EventName() string { return EventRequestRematch }
func (AcceptRematch) EventName() string  { return EventAcceptRematch }
func (DeclineRematch) EventName() string { return EventDeclineRematch }
func (Ping) EventName() string           { return EventPing }

// Decode parses a raw frame into its typed inbound event.
func Decode(raw []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("%w: missing event name", ErrMalformed)
	}

	switch env.Event {
	case EventJoinGame:
		var j JoinGame
		if err := decodeObject(env.Data, &j); err != nil {
			return nil, err
		}
		j.Code = strings.TrimSpace(j.Code)
		if j.Code == "" {
			return nil, fmt.Errorf("%w: joinGame without code", ErrMalformed)
		}
		j.PlayerName = strings.TrimSpace(j.PlayerName)
		return j, nil

	case EventMove:
		data := bytes.TrimSpace(env.Data)
		if len(data) == 0 || data[0] != '{' || !json.Valid(data) {
			return nil, fmt.Errorf("%w: move must be an object", ErrMalformed)
		}
		return Move{Payload: append(json.RawMessage(nil), data...)}, nil

	case EventSendMessage:
		var m SendMessage
		if err := decodeObject(env.Data, &m); err != nil {
			return nil, err
		}
		return m, nil

	case EventTyping:
		var b bool
		if err := json.Unmarshal(env.Data, &b); err != nil {
			return nil, fmt.Errorf("%w: typing expects a boolean", ErrMalformed)
		}
		return Typing{IsTyping: b}, nil

	case EventRequestRematch:
		return RequestRematch{}, nil
	case EventAcceptRematch:
		return AcceptRematch{}, nil
	case EventDeclineRematch:
		return DeclineRematch{}, nil
	case EventPing:
		return Ping{}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
}

func decodeObject(data json.RawMessage, v any) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return fmt.Errorf("%w: payload must be an object", ErrMalformed)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// Encode builds an outbound frame. A nil payload omits the data field.
func Encode(event string, payload any) ([]byte, error) {
	env := Envelope{Event: event}
	if payload != nil {
		if raw, ok := payload.(json.RawMessage); ok {
			env.Data = raw
		} else {
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", event, err)
			}
			env.Data = data
		}
	}
	return json.Marshal(env)
}

// PlayerRef identifies the player behind a rematch request or decline.
type PlayerRef struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// TypingNotice is relayed to the opponent while a player types.
type TypingNotice struct {
	User     string `json:"user"`
	IsTyping bool   `json:"isTyping"`
}

// ChatError is sent to a sender whose chat line could not be delivered.
type ChatError struct {
	Message string `json:"message"`
}

// ResetBoard carries the position clients must reset to.
type ResetBoard struct {
	FEN string `json:"fen"`
}
