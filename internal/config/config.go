// Package config loads server settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the server settings.
type Config struct {
	Port            string
	DBPath          string
	LogLevel        logrus.Level
	LogFormat       string
	BotDelay        time.Duration
	BotStrategy     string
	RetainFinished  time.Duration
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
	// OriginAllowlist lists accepted websocket origin hosts. Empty allows any.
	OriginAllowlist []string
}

// Load reads the environment after merging the given .env files. Missing
// files are skipped and variables already set win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	c := Config{
		Port:        env("PORT", "8080"),
		DBPath:      env("DB_PATH", "uno.db"),
		LogFormat:   env("LOG_FORMAT", "text"),
		BotStrategy: env("BOT_STRATEGY", "first-legal"),
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return Config{}, fmt.Errorf("LOG_FORMAT: unknown format %q", c.LogFormat)
	}
	var err error
	if c.LogLevel, err = logrus.ParseLevel(env("LOG_LEVEL", "info")); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"BOT_DELAY", "800ms", &c.BotDelay},
		{"ROOM_RETAIN_FINISHED", "10m", &c.RetainFinished},
		{"ROOM_IDLE_TIMEOUT", "1h", &c.IdleTimeout},
		{"ROOM_CLEANUP_INTERVAL", "1m", &c.CleanupInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(env(d.key, d.def))
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", d.key, err)
		}
		if v < 0 {
			return Config{}, fmt.Errorf("%s: must not be negative", d.key)
		}
		*d.dst = v
	}
	if c.CleanupInterval == 0 {
		return Config{}, errors.New("ROOM_CLEANUP_INTERVAL: must be positive")
	}
	for _, o := range strings.Split(os.Getenv("ORIGIN_ALLOWLIST"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			c.OriginAllowlist = append(c.OriginAllowlist, o)
		}
	}
	return c, nil
}

// Logger builds the process logger.
func (c Config) Logger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(c.LogLevel)
	if c.LogFormat == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
