package workshop

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	whttp "github.com/PentesterFlow/workshopgraph/internal/http"
	"github.com/PentesterFlow/workshopgraph/internal/logger"
	"github.com/PentesterFlow/workshopgraph/internal/scope"
	"github.com/PentesterFlow/workshopgraph/internal/server"
)

// Config holds all analyzer configuration.
type Config struct {
	// Address the HTTP front door listens on
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`

	// Outbound HTTP client
	HTTP whttp.ClientConfig `json:"http" yaml:"http"`

	// Maximum concurrent page fetches across all requests
	MaxInFlight int `json:"max_in_flight" yaml:"max_in_flight"`

	// Deadline for resolving one request's whole graph (0 = none)
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`

	// Page selectors
	Selectors Selectors `json:"selectors" yaml:"selectors"`

	// Top-level URL rules
	Scope scope.Rules `json:"scope" yaml:"scope"`

	// HTTP server settings
	Server server.Config `json:"server" yaml:"server"`

	// Log level (debug, info, warn, error)
	LogLevel string `json:"log_level" yaml:"log_level"`

	// Human-readable console logs instead of JSON
	LogPretty bool `json:"log_pretty" yaml:"log_pretty"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:     ":4567",
		HTTP:           whttp.DefaultClientConfig(),
		MaxInFlight:    16,
		RequestTimeout: 2 * time.Minute,
		Selectors:      DefaultSelectors(),
		Scope:          scope.DefaultRules(),
		Server:         server.DefaultConfig(),
		LogLevel:       "info",
		LogPretty:      true,
	}
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()

	if err := yaml.Unmarshal(data, config); err != nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return config, nil
}

// SaveToFile saves configuration to a file. A .json suffix selects JSON,
// anything else YAML.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// ApplyEnv applies environment overrides. PORT replaces the listen port.
func (c *Config) ApplyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.ListenAddr = ":" + port
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}

	if c.MaxInFlight < 1 {
		return fmt.Errorf("max in-flight fetches must be at least 1")
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative")
	}

	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}

	if c.Server.AnalyzeRPS < 0 {
		return fmt.Errorf("analyze rate must not be negative")
	}

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}

	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	data, _ := json.Marshal(c)
	clone := &Config{}
	json.Unmarshal(data, clone)
	return clone
}

// NewLogger builds the logger described by the configuration. An invalid
// level falls back to info.
func (c *Config) NewLogger() *logger.Logger {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		level = logger.InfoLevel
	}

	cfg := logger.DefaultConfig()
	cfg.Level = level
	cfg.Pretty = c.LogPretty
	return logger.New(cfg)
}
