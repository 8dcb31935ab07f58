package storage

import (
	"time"

	"github.com/google/uuid"
)

// Match is one game played in a room, from start to rematch or disconnect.
type Match struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoomCode  string    `gorm:"index"`
	FEN       string
	PGN       string
	EndReason string
	Active    bool `gorm:"index"`
	StartedAt time.Time
	EndedAt   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	Players   []MatchPlayer `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Moves     []MatchMove   `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

// MatchPlayer is a seat in a match. Names are display names only.
type MatchPlayer struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MatchID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_match_color"`
	Name    string
	Color   string `gorm:"uniqueIndex:idx_match_color"`
}

// MatchMove is a relayed move payload as the clients sent it.
type MatchMove struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MatchID   uuid.UUID `gorm:"type:uuid;index"`
	Ply       int
	Color     string
	Payload   string `gorm:"type:jsonb"`
	FEN       string
	Tracked   bool
	CreatedAt time.Time
}

// ChatLine is a user chat message. Rooms chat before a match starts, so it is
// keyed by room code and only loosely tied to a match.
type ChatLine struct {
	ID        string    `gorm:"primaryKey"`
	MatchID   uuid.UUID `gorm:"type:uuid;index"`
	RoomCode  string    `gorm:"index"`
	Sender    string
	Color     string
	Content   string
	SentAt    time.Time
	CreatedAt time.Time
}
