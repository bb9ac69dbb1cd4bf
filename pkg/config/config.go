package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the droidz scraper
type Config struct {
	// Target site settings
	Site SiteConfig `yaml:"site" json:"site"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Database settings
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Update (crawl) settings
	Update UpdateConfig `yaml:"update" json:"update"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SiteConfig holds droidz.org-specific configuration
type SiteConfig struct {
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig holds rate limiting configuration.
//
// Page fetches and archive downloads are limited independently: metadata
// pages are small and cheap, archives are not.
type RateLimitConfig struct {
	PageRequests    int           `yaml:"page_requests" json:"page_requests"`
	PagePeriod      time.Duration `yaml:"page_period" json:"page_period"`
	ArchiveRequests int           `yaml:"archive_requests" json:"archive_requests"`
	ArchivePeriod   time.Duration `yaml:"archive_period" json:"archive_period"`
}

// DatabaseConfig holds the sqlite database location
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
}

// UpdateConfig holds crawl-specific configuration
type UpdateConfig struct {
	Threads int `yaml:"threads" json:"threads"`

	// MaxCategoryPages bounds category pagination so a misbehaving server
	// cannot keep the crawl looping forever.
	MaxCategoryPages int `yaml:"max_category_pages" json:"max_category_pages"`
}

// DownloadConfig holds archive download configuration
type DownloadConfig struct {
	Directory   string `yaml:"directory" json:"directory"`
	ExtractTool string `yaml:"extract_tool" json:"extract_tool"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:   "http://droidz.org",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/79.0.3945.130 Safari/537.36",
			Timeout:   30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			PageRequests:    2,
			PagePeriod:      time.Second,
			ArchiveRequests: 1,
			ArchivePeriod:   5 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "sticks.db",
		},
		Update: UpdateConfig{
			Threads:          1,
			MaxCategoryPages: 1000,
		},
		Download: DownloadConfig{
			Directory:   "download",
			ExtractTool: "unrar",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("STICKSCRAPER_BASE_URL"); baseURL != "" {
		c.Site.BaseURL = baseURL
	}
	if userAgent := os.Getenv("STICKSCRAPER_USER_AGENT"); userAgent != "" {
		c.Site.UserAgent = userAgent
	}
	if dbPath := os.Getenv("STICKSCRAPER_DATABASE"); dbPath != "" {
		c.Database.Path = dbPath
	}
	if dir := os.Getenv("STICKSCRAPER_DOWNLOAD_DIR"); dir != "" {
		c.Download.Directory = dir
	}
	if tool := os.Getenv("STICKSCRAPER_EXTRACT_TOOL"); tool != "" {
		c.Download.ExtractTool = tool
	}
	if threads := os.Getenv("STICKSCRAPER_THREADS"); threads != "" {
		var val int
		fmt.Sscanf(threads, "%d", &val)
		if val > 0 {
			c.Update.Threads = val
		}
	}
	if logLevel := os.Getenv("STICKSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".stickscraper.yaml",
		".stickscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "stickscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "stickscraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".stickscraper.yaml"),
		filepath.Join(os.Getenv("HOME"), ".stickscraper.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Site.BaseURL == "" {
		errs = append(errs, errors.New("site base URL is required"))
	}
	if c.Site.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}

	if c.RateLimit.PageRequests <= 0 {
		errs = append(errs, errors.New("page requests per period must be positive"))
	}
	if c.RateLimit.PagePeriod <= 0 {
		errs = append(errs, errors.New("page rate limit period must be positive"))
	}
	if c.RateLimit.ArchiveRequests <= 0 {
		errs = append(errs, errors.New("archive requests per period must be positive"))
	}
	if c.RateLimit.ArchivePeriod <= 0 {
		errs = append(errs, errors.New("archive rate limit period must be positive"))
	}

	if c.Database.Path == "" {
		errs = append(errs, errors.New("database path is required"))
	}

	if c.Update.Threads <= 0 {
		errs = append(errs, errors.New("threads must be positive"))
	}
	if c.Update.MaxCategoryPages <= 0 {
		errs = append(errs, errors.New("max category pages must be positive"))
	}

	if c.Download.Directory == "" {
		errs = append(errs, errors.New("download directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if threads, ok := flags["threads"].(int); ok && threads > 0 {
		c.Update.Threads = threads
	}
	if dir, ok := flags["download-dir"].(string); ok && dir != "" {
		c.Download.Directory = dir
	}
	if dbPath, ok := flags["database"].(string); ok && dbPath != "" {
		c.Database.Path = dbPath
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".stickscraper.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
