package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Assistant struct {
		BaseURL     string        `yaml:"base_url" validate:"required,url"`
		APIKey      string        `yaml:"-"`
		Model       string        `yaml:"model" validate:"required"`
		Temperature float64       `yaml:"temperature" validate:"gte=0,lte=2"`
		MaxTokens   int           `yaml:"max_tokens" validate:"gt=0"`
		Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
		Referer     string        `yaml:"referer"`
		AppTitle    string        `yaml:"app_title"`
	} `yaml:"assistant"`
	Context struct {
		MaxChars      int `yaml:"max_chars" validate:"gt=0"`
		MinTextLength int `yaml:"min_text_length" validate:"gte=0"`
	} `yaml:"context"`
	Archive struct {
		BaseURL      string        `yaml:"base_url" validate:"required"`
		ProbeTimeout time.Duration `yaml:"probe_timeout" validate:"gte=0"`
	} `yaml:"archive"`
	Logging struct {
		FilePath string `yaml:"file_path"`
		Level    string `yaml:"level" validate:"oneof=debug info warn error"`
	} `yaml:"logging"`
	Paths struct {
		DownloadDir string `yaml:"download_dir"`
	} `yaml:"paths"`
}

// Environment variables that override file settings.
const (
	EnvAPIKey  = "OPENROUTER_API_KEY"
	EnvBaseURL = "IIT_ARCHIVE_BASE_URL"
	EnvModel   = "IIT_ARCHIVE_MODEL"
	EnvTimeout = "IIT_ARCHIVE_TIMEOUT_SECONDS"
)

// DefaultPath returns the location of the user's config file.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".iit-archive", "config.yaml")
}

// Load loads configuration from file or returns defaults. An empty path
// selects DefaultPath. Environment variables (optionally from a .env
// file in the working directory) are applied on top.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// A missing .env is normal; the process environment still applies.
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvAPIKey); ok {
		c.Assistant.APIKey = v
	}
	if v, ok := os.LookupEnv(EnvBaseURL); ok && v != "" {
		c.Archive.BaseURL = v
	}
	if v, ok := os.LookupEnv(EnvModel); ok && v != "" {
		c.Assistant.Model = v
	}
	if v, ok := os.LookupEnv(EnvTimeout); ok {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			c.Assistant.Timeout = time.Duration(secs) * time.Second
		}
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save saves configuration to path (DefaultPath when empty). The API key
// is never written.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.Assistant.BaseURL = "https://openrouter.ai/api/v1"
	cfg.Assistant.Model = "google/gemini-2.0-flash-001"
	cfg.Assistant.Temperature = 0.7
	cfg.Assistant.MaxTokens = 1024
	cfg.Assistant.Timeout = 2 * time.Minute
	cfg.Assistant.Referer = "https://github.com/iit-archive/cli"
	cfg.Assistant.AppTitle = "IIT Archive Study Assistant"
	cfg.Context.MaxChars = 25000
	cfg.Context.MinTextLength = 50
	cfg.Archive.BaseURL = "http://localhost:8080"
	cfg.Archive.ProbeTimeout = 10 * time.Second
	cfg.Logging.Level = "info"

	homeDir := os.Getenv("HOME")
	cfg.Logging.FilePath = filepath.Join(homeDir, ".iit-archive", "iit-archive.log")
	cfg.Paths.DownloadDir = filepath.Join(homeDir, "Downloads")

	return cfg
}
