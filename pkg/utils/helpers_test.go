package utils

import (
	"strings"
	"testing"
)

func TestRandomHexLength(t *testing.T) {
	if got := RandomHex(4); len(got) != 8 {
		t.Fatalf("expected 8 hex chars, got %q", got)
	}
}

func TestRandomTokenAlphabet(t *testing.T) {
	tok := RandomToken(32)
	if len(tok) != 32 {
		t.Fatalf("expected 32 chars, got %d", len(tok))
	}
	for _, r := range tok {
		if !strings.ContainsRune(base36, r) {
			t.Fatalf("unexpected rune %q in %q", r, tok)
		}
	}
}

func TestRoomCodeUpper(t *testing.T) {
	code := RoomCode()
	if len(code) != 6 || code != strings.ToUpper(code) {
		t.Fatalf("unexpected room code %q", code)
	}
}
