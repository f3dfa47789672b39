package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("expected default address :8080, got %q", cfg.Server.Address)
	}
	if cfg.Database.Driver != "mongo" {
		t.Errorf("expected default driver mongo, got %q", cfg.Database.Driver)
	}
	if cfg.JWT.Expiration != time.Hour {
		t.Errorf("expected 1h expiration, got %v", cfg.JWT.Expiration)
	}
	if cfg.S3.PresignExpiry != 15*time.Minute {
		t.Errorf("expected 15m presign expiry, got %v", cfg.S3.PresignExpiry)
	}
	if cfg.Feed.Limit != MaxFeedLimit {
		t.Errorf("expected feed limit %d, got %d", MaxFeedLimit, cfg.Feed.Limit)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  address: ":9090"
database:
  driver: MEMORY
  name: coach_test
jwt:
  secret: from-file
  expiration: 30m
feed:
  limit: 500
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("expected :9090, got %q", cfg.Server.Address)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("expected driver to be lower-cased to memory, got %q", cfg.Database.Driver)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Errorf("expected env to override file secret, got %q", cfg.JWT.Secret)
	}
	if cfg.JWT.Expiration != 30*time.Minute {
		t.Errorf("expected 30m, got %v", cfg.JWT.Expiration)
	}
	if cfg.Feed.Limit != MaxFeedLimit {
		t.Errorf("expected feed limit clamped to %d, got %d", MaxFeedLimit, cfg.Feed.Limit)
	}
}
