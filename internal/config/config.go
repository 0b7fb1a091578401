package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrInvalid = errors.New("invalid configuration")

// Config holds the settings of the busfahrerd daemon.
type Config struct {
	HTTPAddr     string
	DBPath       string
	LogLevel     slog.Level
	SweepTimeout time.Duration
	// MaxTrials caps the trials per configuration of one request; zero
	// means unlimited.
	MaxTrials uint64
	// ShutdownTimeout bounds the graceful drain of in-flight requests.
	ShutdownTimeout time.Duration
}

// Load reads the configuration from the environment. The env files
// (".env" when none are given) are loaded first; variables already set in
// the environment take precedence and missing files are skipped.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("%w: env file: %w", ErrInvalid, err)
	}

	c := Config{
		HTTPAddr:        envOr("HTTP_ADDR", ":8080"),
		DBPath:          envOr("DB_PATH", "busfahrer.db"),
		SweepTimeout:    60 * time.Second,
		MaxTrials:       1_000_000,
		ShutdownTimeout: 15 * time.Second,
	}

	var err error
	if c.SweepTimeout, err = durationEnv("SWEEP_TIMEOUT", c.SweepTimeout); err != nil {
		return Config{}, err
	}
	if c.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", c.ShutdownTimeout); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("MAX_TRIALS"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%w: MAX_TRIALS %q: %w", ErrInvalid, v, err)
		}
		c.MaxTrials = n
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	c.LogLevel = level
	return c, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %w", ErrInvalid, key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %s", ErrInvalid, key, d)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: LOG_LEVEL %q", ErrInvalid, s)
	}
}
