package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read on top of the config file
const (
	EnvAPIURL     = "HABITGRID_API_URL"
	EnvLogLevel   = "HABITGRID_LOG_LEVEL"
	EnvLogFile    = "HABITGRID_LOG_FILE"
	EnvLogConsole = "HABITGRID_LOG_CONSOLE"
	EnvHome       = "HABITGRID_HOME"
)

// DefaultAPIURL is where habitgrid-server listens by default
const DefaultAPIURL = "http://localhost:8080/api"

// Config holds user preferences
type Config struct {
	APIURL          string        `yaml:"api_url" json:"api_url"`                   // Base URL of the habits API
	UserID          int64         `yaml:"user_id" json:"user_id"`                   // Single user the client acts for
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`                   // Per-request HTTP timeout
	RefreshInterval time.Duration `yaml:"refresh_interval" json:"refresh_interval"` // Background refetch in the TUI, 0 disables
	ConfirmRemove   bool          `yaml:"confirm_remove" json:"confirm_remove"`     // Ask before soft-deleting a habit

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging
}

// Dir returns the habitgrid state directory (~/.habitgrid unless HABITGRID_HOME is set)
func Dir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".habitgrid"), nil
}

// Path returns the location of config.yaml
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	logPath := ""
	if dir, err := Dir(); err == nil {
		logPath = filepath.Join(dir, "logs", "habitgrid.log")
	}

	return &Config{
		APIURL:          DefaultAPIURL,
		UserID:          1,
		Timeout:         15 * time.Second,
		RefreshInterval: 30 * time.Second,
		ConfirmRemove:   true,
		LogLevel:        "INFO",
		LogFile:         logPath,
		LogConsole:      false,
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// applyEnv lets the environment override file values
func (c *Config) applyEnv() {
	c.APIURL = getEnv(EnvAPIURL, c.APIURL)
	c.LogLevel = getEnv(EnvLogLevel, c.LogLevel)
	c.LogFile = getEnv(EnvLogFile, c.LogFile)
	if v := os.Getenv(EnvLogConsole); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.LogConsole = b
		}
	}
}

// FromEnv returns the defaults with environment overrides applied, used when
// no usable config file exists
func FromEnv() *Config {
	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg
}

// Load reads .env from the working directory, then ~/.habitgrid/config.yaml,
// then applies environment overrides
func Load() (*Config, error) {
	// A missing .env is the common case.
	_ = godotenv.Load()

	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile loads config from path, falling back to defaults if it does not exist
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return FromEnv(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot work with
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url must not be empty")
	}
	if c.UserID <= 0 {
		return fmt.Errorf("user_id must be positive, got %d", c.UserID)
	}
	if c.Timeout < 0 || c.RefreshInterval < 0 {
		return fmt.Errorf("timeout and refresh_interval must not be negative")
	}
	return nil
}

// Save saves config to ~/.habitgrid/config.yaml
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config as YAML to path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Set updates a single key by its YAML name, used by `habitgrid config set`
func (c *Config) Set(key, value string) error {
	switch key {
	case "api_url":
		c.APIURL = value
	case "user_id":
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("user_id: %w", err)
		}
		c.UserID = id
	case "timeout", "refresh_interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if key == "timeout" {
			c.Timeout = d
		} else {
			c.RefreshInterval = d
		}
	case "confirm_remove", "log_console":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if key == "confirm_remove" {
			c.ConfirmRemove = b
		} else {
			c.LogConsole = b
		}
	case "log_level":
		c.LogLevel = value
	case "log_file":
		c.LogFile = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return c.Validate()
}
