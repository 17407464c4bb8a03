package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
matching:
  tick_interval: 10s
  entry_ttl: 12h
  stats_timezone: UTC
storage:
  driver: memory
  memory_seed: configs/seed.yaml
redis:
  enabled: false
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Matching.TickInterval != 10*time.Second {
		t.Fatalf("unexpected tick interval: %s", cfg.Matching.TickInterval)
	}
	if cfg.Matching.EntryTTL != 12*time.Hour {
		t.Fatalf("unexpected entry ttl: %s", cfg.Matching.EntryTTL)
	}
	if cfg.Storage.Driver != StorageDriverMemory || cfg.Storage.MemorySeed != "configs/seed.yaml" {
		t.Fatalf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Redis.Enabled {
		t.Fatalf("expected redis to be disabled")
	}

	if cfg.Matching.TxMaxAttempts != 3 {
		t.Fatalf("tx_max_attempts default should stay 3, got %d", cfg.Matching.TxMaxAttempts)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("http addr default should stay :8080, got %s", cfg.HTTP.Addr)
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.Matching.EntryTTL != 24*time.Hour {
		t.Fatalf("unexpected default entry ttl: %s", cfg.Matching.EntryTTL)
	}
	if cfg.Matching.TickInterval != 30*time.Second {
		t.Fatalf("unexpected default tick interval: %s", cfg.Matching.TickInterval)
	}
	if cfg.Storage.Driver != StorageDriverPostgres {
		t.Fatalf("unexpected default storage driver: %s", cfg.Storage.Driver)
	}
	if _, err := cfg.Matching.Location(); err != nil {
		t.Fatalf("default stats timezone should load: %v", err)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("MATCHING_ENTRY_TTL", "2h")
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REDIS_ENABLED", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Matching.EntryTTL != 2*time.Hour {
		t.Fatalf("unexpected entry ttl: %s", cfg.Matching.EntryTTL)
	}
	if cfg.Storage.Driver != StorageDriverMemory {
		t.Fatalf("unexpected storage driver: %s", cfg.Storage.Driver)
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 || cfg.HTTP.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected allowed origins: %v", cfg.HTTP.AllowedOrigins)
	}
	if cfg.Redis.Enabled {
		t.Fatalf("expected redis disabled by env")
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := map[string]map[string]string{
		"zero ttl":         {"MATCHING_ENTRY_TTL": "0s"},
		"negative tick":    {"MATCHING_TICK_INTERVAL": "-1s"},
		"bad duration":     {"MATCHING_ENTRY_TTL": "soon"},
		"unknown driver":   {"STORAGE_DRIVER": "sqlite"},
		"bad timezone":     {"MATCHING_STATS_TIMEZONE": "Mars/Base"},
		"prod default jwt": {"APP_ENV": "prod"},
		"zero tx attempts": {"MATCHING_TX_MAX_ATTEMPTS": "0"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearConfigEnv(t)
			for key, value := range env {
				t.Setenv(key, value)
			}
			if _, err := Load(""); err == nil {
				t.Fatalf("expected load error")
			}
		})
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"HTTP_ALLOWED_ORIGINS",
		"LOG_LEVEL",
		"POSTGRES_DSN",
		"POSTGRES_AUTO_MIGRATE",
		"REDIS_ENABLED",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"JWT_SECRET",
		"JWT_ACCESS_TTL",
		"MATCHING_TICK_INTERVAL",
		"MATCHING_ENTRY_TTL",
		"MATCHING_TX_MAX_ATTEMPTS",
		"MATCHING_START_PER_MINUTE",
		"MATCHING_STATS_TIMEZONE",
		"MATCHING_SCHEDULER_ENABLED",
		"STORAGE_DRIVER",
		"STORAGE_MEMORY_SEED",
	} {
		t.Setenv(key, "")
	}
}
