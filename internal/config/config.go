// Package config loads runtime settings from defaults, an optional YAML file,
// the environment and finally command-line flags, in that order.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RateLimitConfig defines per-connection message throttling.
type RateLimitConfig struct {
	Burst          int           `yaml:"burst"`
	RefillInterval time.Duration `yaml:"refill_interval"`
}

// Config holds server settings.
type Config struct {
	Addr            string          `yaml:"addr"`
	Debug           bool            `yaml:"debug"`
	DatabaseDSN     string          `yaml:"database_dsn"`
	AllowedOrigins  []string        `yaml:"allowed_origins"`
	MaxMessageSize  int64           `yaml:"max_message_size"`
	HistoryLimit    int             `yaml:"history_limit"`
	SendBuffer      int             `yaml:"send_buffer"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:            ":8080",
		AllowedOrigins:  []string{"*"},
		MaxMessageSize:  4096,
		HistoryLimit:    100,
		SendBuffer:      64,
		ShutdownTimeout: 10 * time.Second,
		RateLimit: RateLimitConfig{
			Burst:          20,
			RefillInterval: time.Second,
		},
	}
}

// LoadFile overlays settings from a YAML file onto cfg.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays CHESSROOM_* environment variables onto cfg. Unparsable
// values are ignored.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("CHESSROOM_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := getenv("CHESSROOM_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
	if v := getenv("CHESSROOM_DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := getenv("CHESSROOM_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := getenv("CHESSROOM_MAX_MESSAGE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxMessageSize = n
		}
	}
	if v := getenv("CHESSROOM_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimit.Burst = n
		}
	}
	if v := getenv("CHESSROOM_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryLimit = n
		}
	}
}

// Load builds the configuration for a process started with args.
func Load(args []string) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("chessroom", flag.ContinueOnError)
	path := fs.String("config", "", "path to a YAML config file")
	addr := fs.String("addr", "", "listen address")
	debug := fs.Bool("debug", false, "enable debug logging")
	dsn := fs.String("dsn", "", "PostgreSQL DSN for the match archive")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if *path != "" {
		if err := LoadFile(&cfg, *path); err != nil {
			return cfg, err
		}
	}
	ApplyEnv(&cfg, os.Getenv)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "debug":
			cfg.Debug = *debug
		case "dsn":
			cfg.DatabaseDSN = *dsn
		}
	})
	return Sanitize(cfg), nil
}

// Sanitize replaces missing or invalid values with defaults.
func Sanitize(cfg Config) Config {
	def := Default()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = def.HistoryLimit
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = def.RateLimit.Burst
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = def.RateLimit.RefillInterval
	}
	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	cfg.AllowedOrigins = origins
	return cfg
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
