package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// chdirTemp runs the test from an empty dir so no stray config.yaml or .env is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaultsWithRequiredEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("ENRICHMENT_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Fatalf("port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Places.Language != "en" {
		t.Fatalf("language = %q, want en", cfg.Places.Language)
	}
	if cfg.Enrichment.Enabled {
		t.Fatal("enrichment should be disabled by env override")
	}
	if cfg.Enrichment.LookupTimeout != 45*time.Second {
		t.Fatalf("lookup timeout = %v, want 45s", cfg.Enrichment.LookupTimeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("OUTSCRAPER_API_KEY", "key")
	t.Setenv("PORT", "9090")
	t.Setenv("ENRICHMENT_WORKERS", "2")
	t.Setenv("ENRICHMENT_LOOKUP_TIMEOUT", "5s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Enrichment.Workers != 2 {
		t.Fatalf("workers = %d, want 2", cfg.Enrichment.Workers)
	}
	if cfg.Enrichment.LookupTimeout != 5*time.Second {
		t.Fatalf("lookup timeout = %v, want 5s", cfg.Enrichment.LookupTimeout)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors origins = %v", cfg.Security.CORSOrigins)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.yaml")
	yml := "server:\n  port: 7000\nplaces:\n  language: uz\nenrichment:\n  enabled: false\nsecurity:\n  jwt_secret: yaml-secret-value-123\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Fatalf("port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Places.Language != "uz" {
		t.Fatalf("language = %q, want uz", cfg.Places.Language)
	}
}

func TestValidateEnrichmentRequiresAPIKey(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = "0123456789abcdef0123"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error when enrichment is enabled without an api key")
	}
	if !strings.Contains(err.Error(), "places.api_key") {
		t.Fatalf("error = %v, want mention of places.api_key", err)
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Port = 0
	cfg.Database.Driver = "mysql"
	cfg.Places.Language = "de"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "database.driver", "places.language", "security.jwt_secret"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}

func TestLoadDatabaseSkipsServerSections(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("DATABASE_URL", "postgres://app@localhost/screens")

	if _, err := Load(); err == nil {
		t.Fatal("Load: expected error for missing jwt secret")
	}

	cfg, err := LoadDatabase()
	if err != nil {
		t.Fatalf("LoadDatabase: unexpected error: %v", err)
	}
	if cfg.Database.Driver != "pgx" || cfg.Database.DSN != "postgres://app@localhost/screens" {
		t.Fatalf("database = %+v", cfg.Database)
	}

	t.Setenv("DB_DRIVER", "mysql")
	if _, err := LoadDatabase(); err == nil || !strings.Contains(err.Error(), "database.driver") {
		t.Fatalf("LoadDatabase: err = %v, want driver error", err)
	}
}
