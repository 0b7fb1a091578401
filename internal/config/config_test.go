package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"HTTP_ADDR", "DB_PATH", "LOG_LEVEL", "SWEEP_TIMEOUT", "SHUTDOWN_TIMEOUT", "MAX_TRIALS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPAddr != ":8080" || c.DBPath != "busfahrer.db" {
		t.Errorf("unexpected defaults %+v", c)
	}
	if c.LogLevel != slog.LevelInfo || c.SweepTimeout != time.Minute || c.MaxTrials != 1_000_000 {
		t.Errorf("unexpected defaults %+v", c)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("SWEEP_TIMEOUT", "5s")
	t.Setenv("MAX_TRIALS", "0")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPAddr != "127.0.0.1:9000" || c.DBPath != ":memory:" {
		t.Errorf("unexpected addresses %+v", c)
	}
	if c.LogLevel != slog.LevelDebug || c.SweepTimeout != 5*time.Second || c.MaxTrials != 0 {
		t.Errorf("unexpected overrides %+v", c)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"log level", "LOG_LEVEL", "loud"},
		{"timeout syntax", "SWEEP_TIMEOUT", "soon"},
		{"negative timeout", "SWEEP_TIMEOUT", "-1s"},
		{"shutdown timeout", "SHUTDOWN_TIMEOUT", "0s"},
		{"max trials", "MAX_TRIALS", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := "HTTP_ADDR=127.0.0.1:7000\nDB_PATH=/tmp/from-file.db\nMAX_TRIALS=500\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DB_PATH", "/tmp/from-env.db")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPAddr != "127.0.0.1:7000" || c.MaxTrials != 500 {
		t.Errorf("env file not applied: %+v", c)
	}
	if c.DBPath != "/tmp/from-env.db" {
		t.Errorf("environment should win over the env file, got DBPath %q", c.DBPath)
	}
}

func TestLoadMissingEnvFile(t *testing.T) {
	clearEnv(t)

	c, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPAddr != ":8080" {
		t.Errorf("unexpected HTTPAddr %q", c.HTTPAddr)
	}
}

func TestLoadMalformedEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("MAX_TRIALS='unterminated\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
