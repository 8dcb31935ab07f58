package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chessroom/internal/game"
)

// Store wraps a gorm DB instance and provides helper methods for the match
// archive. A nil *Store is valid and turns every write into a no-op.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new store helper from a gorm DB.
func NewStore(db *gorm.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// DB exposes the underlying gorm DB instance.
func (s *Store) DB() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// ErrNotFound is returned when a record is not found.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDisabled is returned by reads when no database is configured.
var ErrDisabled = errors.New("archive disabled")

// MatchUpdate represents a partial update to a match row.
type MatchUpdate struct {
	FEN       *string
	PGN       *string
	EndReason *string
	Active    *bool
	EndedAt   *time.Time
}

// CreateMatch inserts a match and its seated players.
func (s *Store) CreateMatch(ctx context.Context, m game.MatchStart) error {
	if s == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		match := Match{
			ID:        m.MatchID,
			RoomCode:  m.Code,
			FEN:       game.StartFEN,
			Active:    true,
			StartedAt: m.At,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&match).Error; err != nil {
			return err
		}
		players := make([]MatchPlayer, 0, 2)
		if m.White != "" {
			players = append(players, MatchPlayer{MatchID: m.MatchID, Name: m.White, Color: string(game.White)})
		}
		if m.Black != "" {
			players = append(players, MatchPlayer{MatchID: m.MatchID, Name: m.Black, Color: string(game.Black)})
		}
		if len(players) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&players).Error
	})
}

// SaveMatchState applies partial updates to the match row.
func (s *Store) SaveMatchState(ctx context.Context, id uuid.UUID, upd MatchUpdate) error {
	if s == nil {
		return nil
	}
	updates := make(map[string]any)
	if upd.FEN != nil {
		updates["fen"] = *upd.FEN
	}
	if upd.PGN != nil {
		updates["pgn"] = *upd.PGN
	}
	if upd.EndReason != nil {
		updates["end_reason"] = *upd.EndReason
	}
	if upd.Active != nil {
		updates["active"] = *upd.Active
	}
	if upd.EndedAt != nil {
		updates["ended_at"] = *upd.EndedAt
	}
	if len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&Match{}).Where("id = ?", id).Updates(updates).Error
}

// RecordMove inserts a move row and moves the match FEN forward.
func (s *Store) RecordMove(ctx context.Context, mv game.MoveRecord) error {
	if s == nil {
		return nil
	}
	row := MatchMove{
		MatchID:   mv.MatchID,
		Ply:       mv.Ply,
		Color:     string(mv.Color),
		Payload:   string(mv.Payload),
		FEN:       mv.FEN,
		Tracked:   mv.Tracked,
		CreatedAt: mv.At,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	return s.SaveMatchState(ctx, mv.MatchID, MatchUpdate{FEN: &mv.FEN})
}

// RecordChat inserts a chat line. Duplicate message ids are ignored.
func (s *Store) RecordChat(ctx context.Context, c game.ChatRecord) error {
	if s == nil {
		return nil
	}
	sent, err := time.Parse(time.RFC3339, c.Message.Timestamp)
	if err != nil {
		sent = time.Now()
	}
	line := ChatLine{
		ID:       c.Message.ID,
		MatchID:  c.MatchID,
		RoomCode: c.Code,
		Sender:   c.Message.Sender,
		Color:    string(c.Message.SenderColor),
		Content:  c.Message.Content,
		SentAt:   sent,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&line).Error
}

// EndMatch marks a match as finished.
func (s *Store) EndMatch(ctx context.Context, e game.MatchEnd) error {
	if s == nil {
		return nil
	}
	active := false
	upd := MatchUpdate{
		EndReason: &e.Reason,
		Active:    &active,
		EndedAt:   &e.At,
	}
	if e.FEN != "" {
		upd.FEN = &e.FEN
	}
	if e.PGN != "" {
		upd.PGN = &e.PGN
	}
	return s.SaveMatchState(ctx, e.MatchID, upd)
}

// AbandonActive closes matches a previous process left open. Rooms are never
// restored from the archive, so those matches cannot continue.
func (s *Store) AbandonActive(ctx context.Context, when time.Time) (int64, error) {
	if s == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Model(&Match{}).
		Where("active = ?", true).
		Updates(map[string]any{"active": false, "end_reason": "abandoned", "ended_at": when})
	return res.RowsAffected, res.Error
}

// PersistedMatch is an archived match with its players and moves.
type PersistedMatch struct {
	Match   Match
	Players []MatchPlayer
	Moves   []MatchMove
}

// LoadMatch fetches an archived match.
func (s *Store) LoadMatch(ctx context.Context, id uuid.UUID) (*PersistedMatch, error) {
	if s == nil {
		return nil, ErrDisabled
	}
	var match Match
	if err := s.db.WithContext(ctx).First(&match, "id = ?", id).Error; err != nil {
		return nil, err
	}
	var players []MatchPlayer
	if err := s.db.WithContext(ctx).Where("match_id = ?", id).Order("color desc").Find(&players).Error; err != nil {
		return nil, err
	}
	var moves []MatchMove
	if err := s.db.WithContext(ctx).Where("match_id = ?", id).Order("ply").Find(&moves).Error; err != nil {
		return nil, err
	}
	return &PersistedMatch{Match: match, Players: players, Moves: moves}, nil
}

// Stats represents aggregate counts for matches.
type Stats struct {
	Started   int64 `json:"started"`
	Completed int64 `json:"completed"`
	Active    int64 `json:"active"`
}

// FetchStats aggregates counts for display on the home page.
func (s *Store) FetchStats(ctx context.Context) (Stats, error) {
	var stats Stats
	if s == nil {
		return stats, nil
	}
	if err := s.db.WithContext(ctx).Model(&Match{}).Count(&stats.Started).Error; err != nil {
		return stats, err
	}
	if err := s.db.WithContext(ctx).Model(&Match{}).Where("active = ?", true).Count(&stats.Active).Error; err != nil {
		return stats, err
	}
	if err := s.db.WithContext(ctx).Model(&Match{}).Where("ended_at IS NOT NULL").Count(&stats.Completed).Error; err != nil {
		return stats, err
	}
	return stats, nil
}
