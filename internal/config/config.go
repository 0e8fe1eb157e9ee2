package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"demos/internal/bizdate"
)

// Config models demos.yml.
type Config struct {
	Database Database  `yaml:"database"`
	Server   Server    `yaml:"server"`
	Business Business  `yaml:"business"`
	Log      Log       `yaml:"log"`
	Auth     Auth      `yaml:"auth"`
	Webhooks []Webhook `yaml:"webhooks"`
}

type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type Server struct {
	Addr     string `yaml:"addr"`
	BasePath string `yaml:"base_path"`
}

type Business struct {
	Timezone string `yaml:"timezone"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Auth struct {
	JWTSecret        string `yaml:"jwt_secret"`
	AllowActorHeader bool   `yaml:"allow_actor_header"`
}

// Webhook receives engine events as JSON POSTs.
type Webhook struct {
	URL            string   `yaml:"url"`
	Events         []string `yaml:"events"`
	Secret         string   `yaml:"secret"`
	Enabled        *bool    `yaml:"enabled"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// IsEnabled treats an unset enabled flag as on.
func (w Webhook) IsEnabled() bool { return w.Enabled == nil || *w.Enabled }

// Timeout returns the per-delivery timeout, defaulting to five seconds.
func (w Webhook) Timeout() time.Duration {
	if w.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// Wants reports whether the hook subscribes to evtType. An empty list or
// "*" subscribes to everything; "phase.*" matches by prefix.
func (w Webhook) Wants(evtType string) bool {
	if len(w.Events) == 0 {
		return true
	}
	for _, e := range w.Events {
		if e == "*" || e == evtType {
			return true
		}
		if strings.HasSuffix(e, ".*") && strings.HasPrefix(evtType, strings.TrimSuffix(e, "*")) {
			return true
		}
	}
	return false
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with demos config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the defaults if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "", "sqlite", "sqlite3":
	case "postgres", "postgresql", "pgx":
		if c.Database.DSN == "" {
			return fmt.Errorf("config.database.dsn is required for driver %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("config.database.driver %q is not supported", c.Database.Driver)
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	if c.Business.Timezone != "" {
		if _, err := bizdate.Load(c.Business.Timezone); err != nil {
			return fmt.Errorf("config.business.timezone: %w", err)
		}
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("config.log.format must be json or console")
	}
	for i, h := range c.Webhooks {
		if h.URL == "" {
			return fmt.Errorf("config.webhooks[%d].url is required", i)
		}
		if !strings.HasPrefix(h.URL, "http://") && !strings.HasPrefix(h.URL, "https://") {
			return fmt.Errorf("config.webhooks[%d].url must be http or https", i)
		}
		for _, e := range h.Events {
			if e == "" {
				return fmt.Errorf("config.webhooks[%d] has empty event type", i)
			}
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "demos.yml")
}

// Default returns the default Config.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// FromYAML parses and validates config from raw YAML bytes. Unset fields
// keep their defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `database:
  driver: sqlite

server:
  addr: 127.0.0.1:8080
  base_path: /v0

business:
  timezone: America/New_York

log:
  level: info
  format: json

auth:
  allow_actor_header: true
`
