// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	CaptureDir        string
	SelectorsPath     string
	LogPath           string
	LogLevel          string
	TokenizerEncoding string
	RefreshInterval   time.Duration
	FrameInterval     time.Duration
	AlertThreshold    int
	Selectors         Selectors
}

// Default values
const (
	defaultRefreshInterval   = 1200 * time.Millisecond
	defaultFrameInterval     = 16 * time.Millisecond
	defaultTokenizerEncoding = "o200k_base"
	defaultLogLevel          = "info"
)

// Capture directory file names.
const (
	PageFileName   = "page.html"
	EventsFileName = "events.jsonl"
)

// Load reads configuration from .env files and environment variables. The
// result is not validated and nothing is created on disk; apply any
// overrides, then call Finalize.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		CaptureDir:        getEnvString("CAPTURE_DIR", getDefaultCaptureDir()),
		SelectorsPath:     getEnvString("SELECTORS_PATH", ""),
		LogPath:           getEnvString("LOG_PATH", getDefaultLogPath()),
		LogLevel:          getEnvString("LOG_LEVEL", defaultLogLevel),
		TokenizerEncoding: getEnvString("TOKENIZER_ENCODING", defaultTokenizerEncoding),
		RefreshInterval:   getEnvDuration("REFRESH_INTERVAL", defaultRefreshInterval),
		FrameInterval:     getEnvDuration("FRAME_INTERVAL", defaultFrameInterval),
		AlertThreshold:    getEnvInt("TOKEN_ALERT_THRESHOLD", 0),
	}
	return cfg, nil
}

// Finalize validates the configuration, loads the selector profile and
// creates the directories the application writes to.
func (c *Config) Finalize() error {
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive, got %v", c.RefreshInterval)
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("FRAME_INTERVAL must be positive, got %v", c.FrameInterval)
	}
	if c.AlertThreshold < 0 {
		return fmt.Errorf("TOKEN_ALERT_THRESHOLD must not be negative, got %d", c.AlertThreshold)
	}

	selectors, err := LoadSelectors(c.SelectorsPath)
	if err != nil {
		return fmt.Errorf("failed to load selector profile: %w", err)
	}
	c.Selectors = selectors

	// Ensure capture directory exists so the watcher can be attached
	// before the exporter writes anything.
	if err := ensureDir(c.CaptureDir); err != nil {
		return err
	}

	// Ensure log directory exists
	if c.LogPath != "" {
		if err := ensureDir(filepath.Dir(c.LogPath)); err != nil {
			return err
		}
	}

	return nil
}

// PagePath returns the path of the page snapshot.
func (c *Config) PagePath() string {
	return filepath.Join(c.CaptureDir, PageFileName)
}

// EventsPath returns the path of the input event log.
func (c *Config) EventsPath() string {
	return filepath.Join(c.CaptureDir, EventsFileName)
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "token-overlay", ".env"),
			filepath.Join(home, ".token-overlay", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
	}

	return paths
}

// getDefaultCaptureDir returns the default capture directory.
func getDefaultCaptureDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "capture"
	}
	return filepath.Join(home, ".config", "token-overlay", "capture")
}

// getDefaultLogPath returns the default log file path.
func getDefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tot.log"
	}
	return filepath.Join(home, ".config", "token-overlay", "tot.log")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "1.2s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
