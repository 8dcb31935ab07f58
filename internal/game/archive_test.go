package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingArchive struct {
	starts []MatchStart
	moves  []MoveRecord
	chats  []ChatRecord
	ends   []MatchEnd
}

func (a *recordingArchive) MatchStarted(m MatchStart) { a.starts = append(a.starts, m) }
func (a *recordingArchive) MoveRelayed(m MoveRecord)  { a.moves = append(a.moves, m) }
func (a *recordingArchive) ChatPosted(c ChatRecord)   { a.chats = append(a.chats, c) }
func (a *recordingArchive) MatchEnded(m MatchEnd)     { a.ends = append(a.ends, m) }

func TestArchiveFollowsMatchLifecycle(t *testing.T) {
	rec := &recordingArchive{}
	h := NewHub(WithArchive(rec))
	alice, bob := attach(h), attach(h)

	_, err := h.Join(alice.id, "arch", "Alice", "")
	require.NoError(t, err)
	assert.Empty(t, rec.starts, "a lone player has no match yet")

	_, err = h.Join(bob.id, "arch", "Bob", "")
	require.NoError(t, err)
	require.Len(t, rec.starts, 1)
	first := rec.starts[0]
	assert.Equal(t, "Alice", first.White)
	assert.Equal(t, "Bob", first.Black)

	require.NoError(t, h.RelayMove(alice.id, json.RawMessage(`{"from":"e2","to":"e4"}`)))
	require.NoError(t, h.RelayMove(bob.id, json.RawMessage(`{"from":"e7","to":"e5"}`)))
	_, err = h.SendChat(bob.id, "gl")
	require.NoError(t, err)

	require.Len(t, rec.moves, 2)
	assert.Equal(t, 1, rec.moves[0].Ply)
	assert.Equal(t, White, rec.moves[0].Color)
	assert.True(t, rec.moves[0].Tracked)
	assert.Equal(t, 2, rec.moves[1].Ply)
	assert.Equal(t, Black, rec.moves[1].Color)
	assert.Equal(t, first.MatchID, rec.moves[1].MatchID)

	require.Len(t, rec.chats, 1)
	assert.Equal(t, "gl", rec.chats[0].Message.Content)

	require.NoError(t, h.RequestRematch(alice.id))
	require.NoError(t, h.AcceptRematch(bob.id))
	require.Len(t, rec.ends, 1)
	assert.Equal(t, EndRematch, rec.ends[0].Reason)
	assert.Equal(t, first.MatchID, rec.ends[0].MatchID)
	assert.NotEmpty(t, rec.ends[0].PGN)
	require.Len(t, rec.starts, 2)
	assert.NotEqual(t, first.MatchID, rec.starts[1].MatchID)

	h.Detach(alice.id)
	require.Len(t, rec.ends, 2)
	assert.Equal(t, EndDisconnect, rec.ends[1].Reason)
	assert.Equal(t, rec.starts[1].MatchID, rec.ends[1].MatchID)

	h.Detach(bob.id)
	assert.Len(t, rec.ends, 2, "a match ends only once")
}
