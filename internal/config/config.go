// ABOUTME: Configuration loading and parsing for second-brain
// ABOUTME: Supports YAML or TOML files with ${VAR} expansion, env overrides, and duration parsing

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// DefaultDedupeMaxEntries caps remembered idempotency keys when the config
// leaves capture.dedupe_max_entries unset.
const DefaultDedupeMaxEntries = 10000

// ConfigEnvVar names the environment variable that overrides the config path.
const ConfigEnvVar = "SECOND_BRAIN_CONFIG"

// Config represents the complete second-brain configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Status    StatusConfig    `yaml:"status" toml:"status"`
	Capture   CaptureConfig   `yaml:"capture" toml:"capture"`
	Tailscale TailscaleConfig `yaml:"tailscale" toml:"tailscale"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr" env:"SECOND_BRAIN_HTTP_ADDR" env-default:"localhost:3000"`

	ReadHeaderTimeout time.Duration `yaml:"-" toml:"-"`
	ShutdownTimeout   time.Duration `yaml:"-" toml:"-"`

	// Raw string values for unmarshaling
	ReadHeaderTimeoutRaw string `yaml:"read_header_timeout" toml:"read_header_timeout" env-default:"10s"`
	ShutdownTimeoutRaw   string `yaml:"shutdown_timeout" toml:"shutdown_timeout" env-default:"5s"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	// Driver is one of sqlite (pure Go), sqlite3 (cgo) or pgx (PostgreSQL)
	Driver string `yaml:"driver" toml:"driver" env:"SECOND_BRAIN_DB_DRIVER" env-default:"sqlite"`
	// Path is a file path for the SQLite drivers and a DSN for pgx
	Path string `yaml:"path" toml:"path" env:"SECOND_BRAIN_DB_PATH"`
}

// StatusConfig holds the external status file configuration
type StatusConfig struct {
	Path string `yaml:"path" toml:"path" env:"SECOND_BRAIN_STATUS_PATH"`
	// Watch reloads the status when the file changes on disk. Defaults to true.
	Watch *bool `yaml:"watch" toml:"watch"`
}

// WatchEnabled reports whether the status file should be watched.
func (s StatusConfig) WatchEnabled() bool {
	return s.Watch == nil || *s.Watch
}

// CaptureConfig holds quick-capture configuration
type CaptureConfig struct {
	DefaultSource    string        `yaml:"default_source" toml:"default_source" env-default:"api"`
	DedupeTTL        time.Duration `yaml:"-" toml:"-"`
	DedupeTTLRaw     string        `yaml:"dedupe_ttl" toml:"dedupe_ttl" env-default:"5m"`
	DedupeMaxEntries int           `yaml:"-" toml:"-"`

	// Raw value for unmarshaling; nil means unset, an explicit 0 means unbounded
	DedupeMaxEntriesRaw *int `yaml:"dedupe_max_entries" toml:"dedupe_max_entries"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Hostname  string `yaml:"hostname" toml:"hostname"`
	AuthKey   string `yaml:"auth_key" toml:"auth_key"`
	StateDir  string `yaml:"state_dir" toml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral" toml:"ephemeral"`
	HTTPS     bool   `yaml:"https" toml:"https"` // Serve on :443 with a tailnet certificate
	// Funnel publishes the HTTPS listener to the public internet. Requires https.
	Funnel bool `yaml:"funnel" toml:"funnel"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" env:"SECOND_BRAIN_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" toml:"format" env:"SECOND_BRAIN_LOG_FORMAT" env-default:"text"`
}

// DefaultPath returns the path to the config file.
// Priority: SECOND_BRAIN_CONFIG env var > XDG_CONFIG_HOME/second-brain/config.yaml > ~/.config/second-brain/config.yaml
// The second return value reports whether the path was set explicitly.
func DefaultPath() (string, bool) {
	if envPath := os.Getenv(ConfigEnvVar); envPath != "" {
		return envPath, true
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml", false // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "second-brain", "config.yaml"), false
}

// DataDir returns the second-brain data directory.
// Priority: XDG_DATA_HOME/second-brain > ~/.local/share/second-brain
func DataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "second-brain")
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are parsed as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := parse(path, data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return finish(&cfg)
}

// LoadOrDefault behaves like Load, but a missing file yields the default
// configuration (still subject to environment overrides).
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default()
	}
	return cfg, err
}

// Default returns the configuration used when no file exists.
func Default() (*Config, error) {
	return finish(&Config{})
}

func parse(path string, data []byte, cfg *Config) error {
	// Expand environment variables in the raw content
	expanded := expandEnvVars(string(data))

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.Decode(expanded, cfg)
		return err
	}
	return yaml.Unmarshal([]byte(expanded), cfg)
}

func finish(cfg *Config) (*Config, error) {
	// SECOND_BRAIN_* variables win over the file; env-default fills gaps
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	applyDefaults(cfg)

	// Parse duration fields
	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in values that depend on the environment.
func applyDefaults(cfg *Config) {
	if cfg.Database.Path == "" && cfg.Database.Driver != "pgx" {
		cfg.Database.Path = filepath.Join(DataDir(), "brain.db")
	}
	if cfg.Status.Path == "" {
		cfg.Status.Path = filepath.Join(DataDir(), "status.json")
	}
	if cfg.Capture.DedupeMaxEntriesRaw != nil {
		cfg.Capture.DedupeMaxEntries = *cfg.Capture.DedupeMaxEntriesRaw
	} else {
		cfg.Capture.DedupeMaxEntries = DefaultDedupeMaxEntries
	}
	if cfg.Tailscale.Enabled && cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "second-brain"
	}

	if cfg.Database.Driver != "pgx" {
		cfg.Database.Path = expandHome(cfg.Database.Path)
	}
	cfg.Status.Path = expandHome(cfg.Status.Path)
	cfg.Tailscale.StateDir = expandHome(cfg.Tailscale.StateDir)
}

// expandHome replaces a leading ~/ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[2:])
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	// The TCP listener is only needed when Tailscale is off
	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}

	// Tailscale requires a hostname
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	if c.Tailscale.Funnel && (!c.Tailscale.Enabled || !c.Tailscale.HTTPS) {
		return fmt.Errorf("tailscale.funnel requires tailscale.enabled and tailscale.https")
	}

	switch c.Database.Driver {
	case "sqlite", "sqlite3", "pgx":
	default:
		return fmt.Errorf("database.driver must be sqlite, sqlite3 or pgx (got %q)", c.Database.Driver)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Status.Path == "" {
		return fmt.Errorf("status.path is required")
	}

	if c.Capture.DedupeMaxEntries < 0 {
		return fmt.Errorf("capture.dedupe_max_entries must not be negative")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error (got %q)", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json (got %q)", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Server.ReadHeaderTimeoutRaw != "" {
		cfg.Server.ReadHeaderTimeout, err = time.ParseDuration(cfg.Server.ReadHeaderTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing read_header_timeout %q: %w", cfg.Server.ReadHeaderTimeoutRaw, err)
		}
	}

	if cfg.Server.ShutdownTimeoutRaw != "" {
		cfg.Server.ShutdownTimeout, err = time.ParseDuration(cfg.Server.ShutdownTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing shutdown_timeout %q: %w", cfg.Server.ShutdownTimeoutRaw, err)
		}
	}

	if cfg.Capture.DedupeTTLRaw != "" {
		cfg.Capture.DedupeTTL, err = time.ParseDuration(cfg.Capture.DedupeTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing dedupe_ttl %q: %w", cfg.Capture.DedupeTTLRaw, err)
		}
	}

	return nil
}
