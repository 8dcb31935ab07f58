package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Inbound
	}{
		{
			name: "join with name and color",
			raw:  `{"event":"joinGame","data":{"code":" ABC12 ","playerName":"Alice","color":"black"}}`,
			want: JoinGame{Code: "ABC12", PlayerName: "Alice", Color: "black"},
		},
		{
			name: "join without name",
			raw:  `{"event":"joinGame","data":{"code":"ABC12"}}`,
			want: JoinGame{Code: "ABC12"},
		},
		{
			name: "move keeps payload verbatim",
			raw:  `{"event":"move","data":{"from":"e2","to":"e4","promotion":"q"}}`,
			want: Move{Payload: json.RawMessage(`{"from":"e2","to":"e4","promotion":"q"}`)},
		},
		{
			name: "chat line",
			raw:  `{"event":"sendMessage","data":{"content":"hello"}}`,
			want: SendMessage{Content: "hello"},
		},
		{
			name: "typing true",
			raw:  `{"event":"typing","data":true}`,
			want: Typing{IsTyping: true},
		},
		{
			name: "rematch request without data",
			raw:  `{"event":"requestRematch"}`,
			want: RequestRematch{},
		},
		{
			name: "accept",
			raw:  `{"event":"acceptRematch","data":null}`,
			want: AcceptRematch{},
		},
		{
			name: "decline",
			raw:  `{"event":"declineRematch"}`,
			want: DeclineRematch{},
		},
		{
			name: "ping",
			raw:  `{"event":"ping"}`,
			want: Ping{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.EventName(), got.EventName())
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", `hello`, ErrMalformed},
		{"missing event", `{"data":{}}`, ErrMalformed},
		{"join without code", `{"event":"joinGame","data":{"playerName":"Bob"}}`, ErrMalformed},
		{"join with array", `{"event":"joinGame","data":[1,2]}`, ErrMalformed},
		{"move as string", `{"event":"move","data":"e2e4"}`, ErrMalformed},
		{"move missing", `{"event":"move"}`, ErrMalformed},
		{"typing as string", `{"event":"typing","data":"yes"}`, ErrMalformed},
		{"chat content wrong type", `{"event":"sendMessage","data":{"content":5}}`, ErrMalformed},
		{"unknown", `{"event":"resign"}`, ErrUnknownEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestEncode(t *testing.T) {
	raw, err := Encode(EventPong, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"pong"}`, string(raw))

	raw, err = Encode(EventUserTyping, TypingNotice{User: "Alice", IsTyping: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"userTyping","data":{"user":"Alice","isTyping":true}}`, string(raw))

	raw, err = Encode(EventNewMove, json.RawMessage(`{"from":"e2","to":"e4"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"newMove","data":{"from":"e2","to":"e4"}}`, string(raw))
}
