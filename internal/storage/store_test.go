package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"chessroom/internal/game"
)

// newTestStore starts a throwaway PostgreSQL container and migrates it.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in -short mode")
	}
	tc.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("chessroom"),
		tcpostgres.WithUsername("chessroom"),
		tcpostgres.WithPassword("chessroom"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := New(dsn)
	require.NoError(t, err)
	return NewStore(db)
}

func TestStoreMatchRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := uuid.New()
	start := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, s.CreateMatch(ctx, game.MatchStart{MatchID: id, Code: "ABC12", White: "Alice", Black: "Bob", At: start}))
	// a repeated start is ignored
	require.NoError(t, s.CreateMatch(ctx, game.MatchStart{MatchID: id, Code: "ABC12", White: "Alice", Black: "Bob", At: start}))

	require.NoError(t, s.RecordMove(ctx, game.MoveRecord{
		MatchID: id, Code: "ABC12", Ply: 1, Color: game.White,
		Payload: json.RawMessage(`{"from":"e2","to":"e4"}`),
		FEN:     "after-e4", Tracked: true, At: start,
	}))
	require.NoError(t, s.RecordChat(ctx, game.ChatRecord{MatchID: id, Code: "ABC12", Message: game.Message{
		ID: "m1", Content: "hello", Sender: "Alice", SenderColor: game.White,
		Timestamp: start.Format(time.RFC3339), Type: game.MessageUser,
	}}))

	stats, err := s.FetchStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Started: 1, Active: 1}, stats)

	require.NoError(t, s.EndMatch(ctx, game.MatchEnd{MatchID: id, Code: "ABC12", Reason: game.EndDisconnect, PGN: "1. e4 *", At: start}))

	got, err := s.LoadMatch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ABC12", got.Match.RoomCode)
	assert.Equal(t, "after-e4", got.Match.FEN)
	assert.Equal(t, "1. e4 *", got.Match.PGN)
	assert.Equal(t, game.EndDisconnect, got.Match.EndReason)
	assert.False(t, got.Match.Active)
	require.Len(t, got.Players, 2)
	assert.Equal(t, "Alice", got.Players[0].Name)
	assert.Equal(t, "white", got.Players[0].Color)
	require.Len(t, got.Moves, 1)
	assert.JSONEq(t, `{"from":"e2","to":"e4"}`, got.Moves[0].Payload)

	stats, err = s.FetchStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Started: 1, Completed: 1}, stats)

	_, err = s.LoadMatch(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreAbandonActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, s.CreateMatch(ctx, game.MatchStart{MatchID: uuid.New(), Code: "R", White: "A", At: time.Now()}))
	}
	n, err := s.AbandonActive(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	stats, err := s.FetchStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Active)
	assert.Equal(t, int64(2), stats.Completed)
}
