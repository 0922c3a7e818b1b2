package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "REPORT_CACHE_TTL_SECONDS", "EXPORT_LOCK_TTL_SECONDS", "EXPORT_MAX_BYTES", "APP_ENV"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Address() != ":8080" {
		t.Fatalf("expected :8080, got %q", cfg.Address())
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("expected empty database url, got %q", cfg.DatabaseURL)
	}
	if cfg.ReportCacheTTL() != 15*time.Second {
		t.Fatalf("expected 15s report cache ttl, got %s", cfg.ReportCacheTTL())
	}
	if cfg.ExportLockTTL() != 2*time.Minute {
		t.Fatalf("expected 2m export lock ttl, got %s", cfg.ExportLockTTL())
	}
	if cfg.ExportMaxBytes != 37<<20 {
		t.Fatalf("expected 37 MiB export limit, got %d", cfg.ExportMaxBytes)
	}
	if cfg.IsDevelopment() {
		t.Fatalf("expected production by default")
	}
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REPORT_CACHE_TTL_SECONDS", "0")
	t.Setenv("EXPORT_MAX_BYTES", "2048")
	t.Setenv("APP_ENV", "Development")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.ReportCacheTTLSeconds != 0 {
		t.Fatalf("expected explicit 0 ttl to be kept for validation, got %d", cfg.ReportCacheTTLSeconds)
	}
	if cfg.ExportMaxBytes != 2048 {
		t.Fatalf("expected 2048, got %d", cfg.ExportMaxBytes)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development env")
	}
}
