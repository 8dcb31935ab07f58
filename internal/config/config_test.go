package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 100, cfg.HistoryLimit)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.DatabaseDSN)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chessroom.yaml")
	body := `
addr: ":9090"
debug: true
history_limit: 50
allowed_origins:
  - http://localhost:9090
rate_limit:
  burst: 3
  refill_interval: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg := Default()
	require.NoError(t, LoadFile(&cfg, path))
	assert.Equal(t, ":9090", cfg.Addr)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.Equal(t, []string{"http://localhost:9090"}, cfg.AllowedOrigins)
	assert.Equal(t, 3, cfg.RateLimit.Burst)
	assert.Equal(t, 2*time.Second, cfg.RateLimit.RefillInterval)
	// untouched keys keep their defaults
	assert.Equal(t, int64(4096), cfg.MaxMessageSize)
}

func TestLoadFileMissing(t *testing.T) {
	cfg := Default()
	assert.Error(t, LoadFile(&cfg, filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CHESSROOM_ADDR":             ":7000",
		"CHESSROOM_DEBUG":            "true",
		"CHESSROOM_DATABASE_DSN":     "postgres://x",
		"CHESSROOM_ALLOWED_ORIGINS":  "http://a.test, http://b.test",
		"CHESSROOM_MAX_MESSAGE_SIZE": "not-a-number",
		"CHESSROOM_RATE_BURST":       "7",
		"CHESSROOM_HISTORY_LIMIT":    "-1",
	}
	cfg := Default()
	ApplyEnv(&cfg, func(k string) string { return env[k] })

	assert.Equal(t, ":7000", cfg.Addr)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(4096), cfg.MaxMessageSize)
	assert.Equal(t, 7, cfg.RateLimit.Burst)
	assert.Equal(t, 100, cfg.HistoryLimit)
}

func TestLoadFlagsWin(t *testing.T) {
	t.Setenv("CHESSROOM_ADDR", ":7000")
	cfg, err := Load([]string{"-addr", ":6000", "-debug"})
	require.NoError(t, err)
	assert.Equal(t, ":6000", cfg.Addr)
	assert.True(t, cfg.Debug)
}

func TestSanitize(t *testing.T) {
	cfg := Sanitize(Config{AllowedOrigins: []string{" ", "http://x.test "}})
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 100, cfg.HistoryLimit)
	assert.Equal(t, 64, cfg.SendBuffer)
	assert.Equal(t, []string{"http://x.test"}, cfg.AllowedOrigins)
	assert.Equal(t, time.Second, cfg.RateLimit.RefillInterval)
}
