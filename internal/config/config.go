// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for coach.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.coach/config.toml
//   - ~/.coach/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/bestfit-labs/coach-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete coach configuration.
type Config struct {
	// General settings
	Version string `toml:"version" json:"version"`

	// Backend API configuration
	Backend BackendConfig `toml:"backend" json:"backend"`

	// Voice configuration
	Voice VoiceConfig `toml:"voice" json:"voice"`

	// Local data configuration
	History HistoryConfig `toml:"history" json:"history"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// BackendConfig contains coaching backend API configuration.
type BackendConfig struct {
	// URL is the base URL of the coaching backend
	URL string `toml:"url" json:"url"`
	// TimeoutSecs is the per-request timeout in seconds
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// MaxRetries is the number of retry attempts for transient failures
	MaxRetries int `toml:"max_retries" json:"max_retries"`
	// RequestsPerSec caps outbound request rate (0 = unlimited)
	RequestsPerSec float64 `toml:"requests_per_sec" json:"requests_per_sec"`
}

// VoiceConfig contains voice conversation configuration.
type VoiceConfig struct {
	// Name is the synthesis voice requested from the backend (e.g. "onyx")
	Name string `toml:"name" json:"name"`
	// AutoSpeak plays assistant replies aloud in text mode too
	AutoSpeak bool `toml:"auto_speak" json:"auto_speak"`
	// MaxRecordSecs bounds a single voice turn recording
	MaxRecordSecs int `toml:"max_record_secs" json:"max_record_secs"`
	// RecordCommand is the external capture tool invocation.
	// Args are space-separated; "{out}" is replaced with the output path.
	RecordCommand string `toml:"record_command" json:"record_command"`
	// PlayCommand is the external playback tool invocation.
	// Args are space-separated; "{in}" is replaced with the audio path.
	PlayCommand string `toml:"play_command" json:"play_command"`
}

// HistoryConfig contains local transcript storage configuration.
type HistoryConfig struct {
	// Enabled controls whether sessions are saved locally
	Enabled bool `toml:"enabled" json:"enabled"`
	// DBPath is the SQLite database path (empty = ~/.coach/history.db)
	DBPath string `toml:"db_path" json:"db_path"`
	// MaxSessions is the number of saved sessions to retain (0 = unlimited)
	MaxSessions int `toml:"max_sessions" json:"max_sessions"`
}

// UIConfig contains user interface configuration.
type UIConfig struct {
	// Theme selects the color theme: "dark" or "light"
	Theme string `toml:"theme" json:"theme"`
	// CompactMode reduces padding and hides the status bar
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
	// ShowTimestamps renders a timestamp next to each message
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps"`
	// Markdown renders assistant replies as markdown
	Markdown bool `toml:"markdown" json:"markdown"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Backend: BackendConfig{
			URL:            "http://localhost:8000",
			TimeoutSecs:    60,
			MaxRetries:     3,
			RequestsPerSec: 4,
		},

		Voice: VoiceConfig{
			Name:          "onyx",
			AutoSpeak:     false,
			MaxRecordSecs: 120,
			RecordCommand: defaultRecordCommand(),
			PlayCommand:   defaultPlayCommand(),
		},

		History: HistoryConfig{
			Enabled:     true,
			DBPath:      "",
			MaxSessions: 200,
		},

		UI: UIConfig{
			Theme:          "dark",
			CompactMode:    false,
			ShowTimestamps: false,
			Markdown:       true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the coach configuration directory path.
// COACH_CONFIG_DIR overrides the default ~/.coach location.
func ConfigDir() (string, error) {
	if dir := os.Getenv("COACH_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".coach"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only).
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	// Try TOML first
	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	// Try JSON as fallback
	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	cfg, err = finishLoad(cfg)
	if err != nil {
		return nil, err
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// finishLoad applies env overrides and validation to a loaded config.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Log warning but don't fail - permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadJSON loads configuration from a JSON file.
// SECURITY: Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		// Default to TOML
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finishLoad(cfg)
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Backend
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = defaults.Backend.URL
	}
	if cfg.Backend.TimeoutSecs == 0 {
		cfg.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}
	if cfg.Backend.MaxRetries == 0 {
		cfg.Backend.MaxRetries = defaults.Backend.MaxRetries
	}
	if cfg.Backend.RequestsPerSec == 0 {
		cfg.Backend.RequestsPerSec = defaults.Backend.RequestsPerSec
	}

	// Voice
	if cfg.Voice.Name == "" {
		cfg.Voice.Name = defaults.Voice.Name
	}
	if cfg.Voice.MaxRecordSecs == 0 {
		cfg.Voice.MaxRecordSecs = defaults.Voice.MaxRecordSecs
	}
	if cfg.Voice.RecordCommand == "" {
		cfg.Voice.RecordCommand = defaults.Voice.RecordCommand
	}
	if cfg.Voice.PlayCommand == "" {
		cfg.Voice.PlayCommand = defaults.Voice.PlayCommand
	}

	// History
	if cfg.History.MaxSessions == 0 {
		cfg.History.MaxSessions = defaults.History.MaxSessions
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// SECURITY: Ensure permissions are correct even if file already existed
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	// Write header comment
	fmt.Fprintln(file, "# coach configuration file")
	fmt.Fprintln(file, "# Generated by coach - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// SaveJSON saves the configuration to a JSON file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects multiple validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Backend.URL != "" {
		u, err := url.Parse(c.Backend.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "backend.url",
				Message: fmt.Sprintf("must be a valid http(s) URL, got %q", c.Backend.URL),
			})
		}
	}

	if c.Backend.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "backend.timeout_secs",
			Message: "must not be negative",
		})
	}

	if c.Backend.MaxRetries < 0 || c.Backend.MaxRetries > 10 {
		errs = append(errs, ValidationError{
			Field:   "backend.max_retries",
			Message: fmt.Sprintf("must be in range 0-10, got %d", c.Backend.MaxRetries),
		})
	}

	if c.Backend.RequestsPerSec < 0 {
		errs = append(errs, ValidationError{
			Field:   "backend.requests_per_sec",
			Message: "must not be negative",
		})
	}

	if c.Voice.MaxRecordSecs < 0 || c.Voice.MaxRecordSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "voice.max_record_secs",
			Message: fmt.Sprintf("must be in range 0-600, got %d", c.Voice.MaxRecordSecs),
		})
	}

	if c.History.MaxSessions < 0 {
		errs = append(errs, ValidationError{
			Field:   "history.max_sessions",
			Message: "must not be negative",
		})
	}

	switch c.UI.Theme {
	case "", "dark", "light":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("must be \"dark\" or \"light\", got %q", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - COACH_BACKEND_URL: overrides backend.url
//   - COACH_VOICE: overrides voice.name
//   - COACH_AUTOSPEAK: set to "1" or "true" to enable auto-speak
//   - COACH_THEME: overrides ui.theme
//   - COACH_HISTORY_DB: overrides history.db_path
//   - COACH_NO_HISTORY: set to "1" or "true" to disable local transcripts
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("COACH_BACKEND_URL"); u != "" {
		c.Backend.URL = u
	}

	if voice := os.Getenv("COACH_VOICE"); voice != "" {
		c.Voice.Name = voice
	}

	if auto := os.Getenv("COACH_AUTOSPEAK"); auto != "" {
		c.Voice.AutoSpeak = envBool(auto)
	}

	if theme := os.Getenv("COACH_THEME"); theme != "" {
		c.UI.Theme = theme
	}

	if db := os.Getenv("COACH_HISTORY_DB"); db != "" {
		c.History.DBPath = db
	}

	if no := os.Getenv("COACH_NO_HISTORY"); no != "" {
		c.History.Enabled = !envBool(no)
	}
}

func envBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

// =============================================================================
// DERIVED PATHS
// =============================================================================

// HistoryDBPath resolves the transcript database path.
func (c *Config) HistoryDBPath() (string, error) {
	if c.History.DBPath != "" {
		return c.History.DBPath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// IdentityPath resolves the identity store path.
func IdentityPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "identity.json"), nil
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
