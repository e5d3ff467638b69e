package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/checkbot/core/config"
	coredatabase "github.com/m3rciful/checkbot/core/database"
)

const (
	// CatalogSourceFile loads questions from a JSON file.
	CatalogSourceFile = "file"
	// CatalogSourcePostgres loads questions from the questions table.
	CatalogSourcePostgres = "postgres"
)

// SinkConfig points at the HTTP endpoint that receives answer records.
type SinkConfig struct {
	URL            string `yaml:"url" envconfig:"SINK_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"SINK_TIMEOUT_SECONDS"`
}

// Timeout returns the per-request bound for sink calls.
func (s SinkConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// CatalogConfig selects where the question set is loaded from.
type CatalogConfig struct {
	Source string `yaml:"source" envconfig:"CATALOG_SOURCE"`
	Path   string `yaml:"path" envconfig:"CATALOG_PATH"`
}

// SessionsConfig tunes session lifetime. A zero TTL keeps sessions until
// completion or /cancel.
type SessionsConfig struct {
	IdleTTLMinutes int `yaml:"idle_ttl_minutes" envconfig:"SESSION_IDLE_TTL_MINUTES"`
}

// IdleTTL returns the idle eviction threshold; zero disables eviction.
func (s SessionsConfig) IdleTTL() time.Duration {
	if s.IdleTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(s.IdleTTLMinutes) * time.Minute
}

// Config is the full bot configuration: the reusable core sections plus the
// survey-specific ones.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Sink     SinkConfig          `yaml:"sink"`
	Catalog  CatalogConfig       `yaml:"catalog"`
	Sessions SessionsConfig      `yaml:"sessions"`
	Database coredatabase.Config `yaml:"database"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Load reads the YAML file, applies environment overrides, and validates.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalize(cfg *Config) error {
	if strings.TrimSpace(cfg.Sink.URL) == "" {
		return fmt.Errorf("sink.url is required")
	}
	if cfg.Sink.TimeoutSeconds < 0 {
		return fmt.Errorf("sink.timeout_seconds must be >= 0")
	}
	if cfg.Sessions.IdleTTLMinutes < 0 {
		return fmt.Errorf("sessions.idle_ttl_minutes must be >= 0")
	}

	src := strings.ToLower(strings.TrimSpace(cfg.Catalog.Source))
	if src == "" {
		src = CatalogSourceFile
	}
	switch src {
	case CatalogSourceFile:
		if strings.TrimSpace(cfg.Catalog.Path) == "" {
			cfg.Catalog.Path = "questions.json"
		}
	case CatalogSourcePostgres:
		if strings.TrimSpace(cfg.Database.Host) == "" || strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required when catalog.source is 'postgres'")
		}
	default:
		return fmt.Errorf("invalid catalog.source %q; allowed: file, postgres", cfg.Catalog.Source)
	}
	cfg.Catalog.Source = src

	return nil
}
