package utils

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strings"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// RandomHex generates a random hexadecimal string of length 2n
func RandomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// RandomToken generates a random lowercase base36 string of length n
func RandomToken(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			sb.WriteByte(base36[i%len(base36)])
			continue
		}
		sb.WriteByte(base36[idx.Int64()])
	}
	return sb.String()
}

// RoomCode generates a short upper-case code suitable for sharing a room
func RoomCode() string {
	return strings.ToUpper(RandomToken(6))
}
