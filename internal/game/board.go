package game

import (
	"encoding/json"
	"fmt"
	"strings"

	"chessroom/internal/logging"

	"github.com/corentings/chess/v2"
)

// StartFEN is the standard starting position sent with resetBoard.
var StartFEN = chess.NewGame().Position().String()

// tracker follows relayed moves on a shadow board so the room snapshot stays
// close to what the clients see. A move it cannot apply is still relayed.
type tracker struct {
	g      *chess.Game
	broken bool
}

type movePayload struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion"`
}

func newTracker() *tracker {
	return &tracker{g: chess.NewGame()}
}

func defaultState() *GameState {
	return &GameState{FEN: StartFEN, Turn: White}
}

// apply tries the move as plain UCI first, then with the promotion suffix the
// client always attaches.
func (t *tracker) apply(raw json.RawMessage) error {
	if t.broken {
		return fmt.Errorf("tracker out of sync")
	}
	var mv movePayload
	if err := json.Unmarshal(raw, &mv); err != nil {
		return err
	}
	from := strings.ToLower(strings.TrimSpace(mv.From))
	to := strings.ToLower(strings.TrimSpace(mv.To))
	if len(from) != 2 || len(to) != 2 {
		t.broken = true
		return fmt.Errorf("move without squares: %s", raw)
	}

	uci := from + to
	err := t.push(uci)
	if err != nil && mv.Promotion != "" {
		err = t.push(uci + strings.ToLower(mv.Promotion[:1]))
	}
	if err != nil {
		// the clients agreed on something we cannot follow; stop guessing
		t.broken = true
		logging.Debugf("tracker: cannot follow %s: %v", uci, err)
		return err
	}
	return nil
}

// push plays uci only when it is one of the legal moves of the current
// position. Game.Move itself accepts anything.
func (t *tracker) push(uci string) error {
	m, err := chess.UCINotation{}.Decode(t.g.Position(), uci)
	if err != nil {
		return err
	}
	valid := t.g.ValidMoves()
	for i := range valid {
		if valid[i].S1() == m.S1() && valid[i].S2() == m.S2() && valid[i].Promo() == m.Promo() {
			return t.g.Move(&valid[i], nil)
		}
	}
	return fmt.Errorf("illegal move %s", uci)
}

// turn reports the side to move before the next move is applied.
func (t *tracker) turn() Color {
	return colorOf(t.g.Position().Turn())
}

func (t *tracker) state() GameState {
	pos := t.g.Position()
	return GameState{
		FEN:      pos.String(),
		PGN:      t.g.String(),
		GameOver: t.g.Outcome() != chess.NoOutcome,
		Turn:     colorOf(pos.Turn()),
	}
}

func colorOf(c chess.Color) Color {
	if c == chess.Black {
		return Black
	}
	return White
}
