// Package config loads service configuration in layers: struct defaults, an
// optional YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	ServiceName = "street-screens-api"
	SiteHeader  = "Street Screens Administration"
	SiteTitle   = "Street Screens Admin"
	IndexTitle  = "Welcome to Street Screens Admin Panel"
)

const ConfigPathEnvVar = "CONFIG_PATH"

var DefaultConfigPaths = []string{"config.yaml", "config.yml", "/etc/street-screens/config.yaml"}

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Places     PlacesConfig     `koanf:"places"`
	Enrichment EnrichmentConfig `koanf:"enrichment"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
}

type ServerConfig struct {
	Port              int           `koanf:"port"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// sqlite or pgx
	Driver      string `koanf:"driver"`
	DSN         string `koanf:"dsn"`
	SeedPath    string `koanf:"seed_path"`
	SeedOnStart bool   `koanf:"seed_on_start"`
}

type PlacesConfig struct {
	APIKey   string        `koanf:"api_key"`
	BaseURL  string        `koanf:"base_url"`
	Language string        `koanf:"language"`
	Timeout  time.Duration `koanf:"timeout"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

type EnrichmentConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Workers       int           `koanf:"workers"`
	QueueSize     int           `koanf:"queue_size"`
	LookupTimeout time.Duration `koanf:"lookup_timeout"`
}

type SecurityConfig struct {
	JWTSecret               string        `koanf:"jwt_secret"`
	TokenTTL                time.Duration `koanf:"token_ttl"`
	CORSOrigins             []string      `koanf:"cors_origins"`
	RateLimitRequests       int           `koanf:"rate_limit_requests"`
	RateLimitWindow         time.Duration `koanf:"rate_limit_window"`
	PublicRateLimitRequests int           `koanf:"public_rate_limit_requests"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8000,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:      "sqlite",
			DSN:         "data/app.db",
			SeedPath:    "data/seeds/taxonomy.json",
			SeedOnStart: true,
		},
		Places: PlacesConfig{
			BaseURL:  "https://api.app.outscraper.com",
			Language: "en",
			Timeout:  30 * time.Second,
			CacheTTL: 24 * time.Hour,
		},
		Enrichment: EnrichmentConfig{
			Enabled:       true,
			Workers:       4,
			QueueSize:     256,
			LookupTimeout: 45 * time.Second,
		},
		Security: SecurityConfig{
			TokenTTL:                24 * time.Hour,
			CORSOrigins:             []string{"*"},
			RateLimitRequests:       300,
			RateLimitWindow:         time.Minute,
			PublicRateLimitRequests: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads .env (if present) and builds the layered configuration.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// LoadDatabase is Load for tools that only touch the database. Sections other
// than database are not validated.
func LoadDatabase() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := errors.Join(cfg.validateDatabase()...); err != nil {
		return nil, fmt.Errorf("load config: invalid configuration: %w", err)
	}
	return cfg, nil
}

func load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load config: defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config: file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load config: environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("load config: unmarshal: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var envMappings = map[string]string{
	"port":                       "server.port",
	"http_port":                  "server.port",
	"shutdown_timeout":           "server.shutdown_timeout",
	"db_driver":                  "database.driver",
	"database_url":               "database.dsn",
	"db_path":                    "database.dsn",
	"seed_path":                  "database.seed_path",
	"seed_on_start":              "database.seed_on_start",
	"outscraper_api_key":         "places.api_key",
	"outscraper_base_url":        "places.base_url",
	"places_language":            "places.language",
	"places_timeout":             "places.timeout",
	"places_cache_ttl":           "places.cache_ttl",
	"enrichment_enabled":         "enrichment.enabled",
	"enrichment_workers":         "enrichment.workers",
	"enrichment_queue_size":      "enrichment.queue_size",
	"enrichment_lookup_timeout":  "enrichment.lookup_timeout",
	"jwt_secret":                 "security.jwt_secret",
	"token_ttl":                  "security.token_ttl",
	"cors_origins":               "security.cors_origins",
	"rate_limit_requests":        "security.rate_limit_requests",
	"rate_limit_window":          "security.rate_limit_window",
	"public_rate_limit_requests": "security.public_rate_limit_requests",
	"log_level":                  "logging.level",
	"log_format":                 "logging.format",
}

// envTransformFunc maps a flat env var name to its koanf path. Unmapped
// variables return "" so koanf ignores them.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

var sliceConfigPaths = []string{"security.cors_origins"}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("split %s: %w", path, err)
		}
	}
	return nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	errs = append(errs, c.validateDatabase()...)

	switch c.Places.Language {
	case "en", "ru", "uz":
	default:
		errs = append(errs, fmt.Errorf("places.language must be one of en, ru, uz, got %q", c.Places.Language))
	}
	if c.Places.Timeout <= 0 {
		errs = append(errs, errors.New("places.timeout must be positive"))
	}

	if c.Enrichment.Enabled {
		if strings.TrimSpace(c.Places.APIKey) == "" {
			errs = append(errs, errors.New("places.api_key is required when enrichment.enabled is true"))
		}
		if c.Enrichment.Workers < 1 {
			errs = append(errs, fmt.Errorf("enrichment.workers must be at least 1, got %d", c.Enrichment.Workers))
		}
		if c.Enrichment.QueueSize < 1 {
			errs = append(errs, fmt.Errorf("enrichment.queue_size must be at least 1, got %d", c.Enrichment.QueueSize))
		}
		if c.Enrichment.LookupTimeout <= 0 {
			errs = append(errs, errors.New("enrichment.lookup_timeout must be positive"))
		}
	}

	if len(c.Security.JWTSecret) < 16 {
		errs = append(errs, errors.New("security.jwt_secret must be at least 16 characters"))
	}
	if c.Security.TokenTTL <= 0 {
		errs = append(errs, errors.New("security.token_ttl must be positive"))
	}
	if c.Security.RateLimitRequests < 1 || c.Security.PublicRateLimitRequests < 1 {
		errs = append(errs, errors.New("security rate limits must be at least 1"))
	}
	if c.Security.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("security.rate_limit_window must be positive"))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) validateDatabase() []error {
	var errs []error
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "sqlite3", "pgx", "postgres", "postgresql":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be sqlite or pgx, got %q", c.Database.Driver))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	return errs
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
