package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// GitHub search settings
	GitHubURL     string        `yaml:"github_url"`
	GitHubToken   string        `yaml:"github_token"`
	SearchTimeout time.Duration `yaml:"-"`
	MaxResults    int           `yaml:"max_results"`

	// Image recognition settings
	ImageAPIURL    string `yaml:"image_api_url"`
	ImageAPIKey    string `yaml:"image_api_key"`
	ImageAPISecret string `yaml:"image_api_secret"`

	// Speech settings
	SpeechLanguage string        `yaml:"speech_language"`
	AutoStopDelay  time.Duration `yaml:"-"`

	// Preview settings
	PreviewTimeout time.Duration `yaml:"-"`
	MaxPreviewers  int           `yaml:"max_previewers"`
	MaxContentSize int64         `yaml:"max_content_size"`
	UserAgent      string        `yaml:"user_agent"`

	// History settings
	HistoryPath    string `yaml:"history_path"`
	MaxHistorySize int    `yaml:"max_history_size"`

	// Feature flags
	UseMock bool `yaml:"use_mock"`
	Verbose bool `yaml:"verbose"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		// GitHub defaults
		GitHubURL:     "https://api.github.com",
		SearchTimeout: 10 * time.Second,
		MaxResults:    10,

		// Image recognition defaults
		ImageAPIURL: "https://aip.baidubce.com",

		// Speech defaults
		SpeechLanguage: "en-US",
		AutoStopDelay:  2 * time.Second,

		// Preview defaults
		PreviewTimeout: 15 * time.Second,
		MaxPreviewers:  3,
		MaxContentSize: 5 * 1024 * 1024, // 5 MB
		UserAgent:      "voxsearch/1.0",

		// History defaults
		HistoryPath:    expandHome("~/.voxsearch/history.json"),
		MaxHistorySize: 10,

		// Feature flags
		UseMock: false,
		Verbose: false,
	}
}

// LoadFile overlays settings from a YAML config file onto c.
// A missing file is not an error; a malformed one is.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	return expandHome("~/.voxsearch/config.yaml")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.GitHubURL == "" {
		return fmt.Errorf("github URL cannot be empty")
	}
	if c.MaxResults < 1 || c.MaxResults > 50 {
		return fmt.Errorf("max results must be between 1 and 50")
	}
	if c.MaxHistorySize < 1 {
		return fmt.Errorf("max history size must be at least 1")
	}
	if c.AutoStopDelay <= 0 {
		return fmt.Errorf("auto-stop delay must be positive")
	}
	if c.MaxPreviewers < 1 {
		return fmt.Errorf("max previewers must be at least 1")
	}
	return nil
}

// expandHome expands the ~ in file paths to the user's home directory
func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir := getHomeDir()
		return homeDir + path[1:]
	}
	return path
}

// getHomeDir returns the user's home directory
func getHomeDir() string {
	if home := GetEnv("HOME"); home != "" {
		return home
	}
	// Fallback for Windows
	if home := GetEnv("USERPROFILE"); home != "" {
		return home
	}
	return "."
}

// GetEnv is a wrapper around os.Getenv for easier testing
var GetEnv = func(key string) string {
	// Will be replaced with os.Getenv in main
	return ""
}
