package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATABASE_PATH", "CACHE_BACKEND", "LEDGER_LOCK_TIMEOUT", "ALLOW_THIRD_PARTY_RETURNS", "TARIFF_FILE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Path != "bikeshare.db" {
		t.Errorf("Expected default database path, got %s", cfg.Database.Path)
	}
	if cfg.Cache.Backend != "none" {
		t.Errorf("Expected cache backend none, got %s", cfg.Cache.Backend)
	}
	if cfg.Ledger.LockTimeout != 5*time.Second {
		t.Errorf("Expected lock timeout 5s, got %v", cfg.Ledger.LockTimeout)
	}
	if cfg.Ledger.AllowThirdPartyReturns {
		t.Error("Third-party returns must be disabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/tmp/fleet.db")
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("LEDGER_LOCK_TIMEOUT", "250ms")
	t.Setenv("ALLOW_THIRD_PARTY_RETURNS", "true")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Path != "/tmp/fleet.db" {
		t.Errorf("Expected overridden path, got %s", cfg.Database.Path)
	}
	if cfg.Cache.Backend != "redis" {
		t.Errorf("Expected backend redis, got %s", cfg.Cache.Backend)
	}
	if cfg.Ledger.LockTimeout != 250*time.Millisecond {
		t.Errorf("Expected 250ms, got %v", cfg.Ledger.LockTimeout)
	}
	if !cfg.Ledger.AllowThirdPartyReturns {
		t.Error("Expected third-party returns enabled")
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("Expected invalid int to fall back to 25, got %d", cfg.Database.MaxOpenConns)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "memcached")
	if _, err := Load(); err == nil {
		t.Error("Expected error for unknown cache backend")
	}

	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("LEDGER_LOCK_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid duration")
	}
}

func TestLoad_AuditInterval(t *testing.T) {
	t.Setenv("AUDIT_INTERVAL", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Audit.Interval != 5*time.Minute {
		t.Errorf("Expected default audit interval 5m, got %v", cfg.Audit.Interval)
	}

	t.Setenv("AUDIT_INTERVAL", "0s")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Audit.Interval != 0 {
		t.Errorf("Expected audit disabled, got %v", cfg.Audit.Interval)
	}
}

func TestLoad_MaxDistance(t *testing.T) {
	t.Setenv("LEDGER_MAX_DISTANCE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Ledger.MaxDistance != 1_000_000 {
		t.Errorf("Expected default max distance 1000000, got %d", cfg.Ledger.MaxDistance)
	}

	t.Setenv("LEDGER_MAX_DISTANCE", "500")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Ledger.MaxDistance != 500 {
		t.Errorf("Expected max distance 500, got %d", cfg.Ledger.MaxDistance)
	}

	for _, value := range []string{"0", "-3", "far"} {
		t.Setenv("LEDGER_MAX_DISTANCE", value)
		if _, err := Load(); err == nil {
			t.Errorf("Expected error for LEDGER_MAX_DISTANCE=%q", value)
		}
	}
}
