package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// validEnv sets the minimum required env vars for a valid config.
func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "postgres://u:p@localhost:5432/testdb")
}

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: "5s"

database:
  dsn: "postgres://u:p@localhost:5432/testdb"
  max_conns: 10
  min_conns: 2

luna:
  max_concurrent_messages: 2
  detect_window: "12h"
  detect_interval: "10m"
  sweep_interval: "1m"

worker:
  poll_interval: "1s"
  batch_size: 25
  max_attempts: 3
  retry_backoff: "10s"

log:
  level: "debug"
  format: "text"
`

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("server.host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("server.read_timeout = %v, want %v", cfg.Server.ReadTimeout, 5*time.Second)
	}

	if cfg.Database.DSN != "postgres://u:p@localhost:5432/testdb" {
		t.Errorf("database.dsn = %q", cfg.Database.DSN)
	}
	if cfg.Database.MaxConns != 10 {
		t.Errorf("database.max_conns = %d, want 10", cfg.Database.MaxConns)
	}

	if cfg.Luna.MaxConcurrentMessages != 2 {
		t.Errorf("luna.max_concurrent_messages = %d, want 2", cfg.Luna.MaxConcurrentMessages)
	}
	if cfg.Luna.DetectWindow != 12*time.Hour {
		t.Errorf("luna.detect_window = %v, want 12h", cfg.Luna.DetectWindow)
	}
	if cfg.Luna.SweepInterval != time.Minute {
		t.Errorf("luna.sweep_interval = %v, want 1m", cfg.Luna.SweepInterval)
	}

	if cfg.Worker.BatchSize != 25 {
		t.Errorf("worker.batch_size = %d, want 25", cfg.Worker.BatchSize)
	}
	if cfg.Worker.MaxAttempts != 3 {
		t.Errorf("worker.max_attempts = %d, want 3", cfg.Worker.MaxAttempts)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoad_EnvOnlyDefaults(t *testing.T) {
	validEnv(t)
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Luna.MaxConcurrentMessages != 3 {
		t.Errorf("default luna.max_concurrent_messages = %d, want 3", cfg.Luna.MaxConcurrentMessages)
	}
	if cfg.Luna.DetectInterval != 15*time.Minute {
		t.Errorf("default luna.detect_interval = %v, want 15m", cfg.Luna.DetectInterval)
	}
	if cfg.Luna.SweepInterval != 5*time.Minute {
		t.Errorf("default luna.sweep_interval = %v, want 5m", cfg.Luna.SweepInterval)
	}
	if cfg.Worker.MaxAttempts != 5 {
		t.Errorf("default worker.max_attempts = %d, want 5", cfg.Worker.MaxAttempts)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("default log.format = %q, want json", cfg.Log.Format)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("LUNA_MAX_CONCURRENT_MESSAGES", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Luna.MaxConcurrentMessages != 7 {
		t.Errorf("luna.max_concurrent_messages = %d, want 7 (env override)", cfg.Luna.MaxConcurrentMessages)
	}
}

func TestLoad_MissingDSN(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DATABASE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DATABASE_DSN")
	}
}

func TestValidate_BadLunaConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }},
		{"zero cap", func(c *Config) { c.Luna.MaxConcurrentMessages = 0 }},
		{"zero detect window", func(c *Config) { c.Luna.DetectWindow = 0 }},
		{"zero detect interval", func(c *Config) { c.Luna.DetectInterval = 0 }},
		{"zero sweep interval", func(c *Config) { c.Luna.SweepInterval = 0 }},
		{"zero batch size", func(c *Config) { c.Worker.BatchSize = 0 }},
		{"zero max attempts", func(c *Config) { c.Worker.MaxAttempts = 0 }},
		{"zero poll interval", func(c *Config) { c.Worker.PollInterval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{
				Database: DatabaseConfig{
					DSN: "postgres://u:p@localhost:5432/testdb",
				},
				Luna: LunaConfig{
					MaxConcurrentMessages: 3,
					DetectWindow:          24 * time.Hour,
					DetectInterval:        15 * time.Minute,
					SweepInterval:         5 * time.Minute,
				},
				Worker: WorkerConfig{
					PollInterval: time.Second,
					BatchSize:    10,
					MaxAttempts:  5,
				},
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
