// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Backend.URL == "" {
		t.Error("default backend URL should not be empty")
	}
	if cfg.Voice.Name != "onyx" {
		t.Errorf("default voice = %q, want onyx", cfg.Voice.Name)
	}
	if cfg.Voice.AutoSpeak {
		t.Error("auto-speak should default to off")
	}
	if !cfg.History.Enabled {
		t.Error("history should default to enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_RoundTripTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("COACH_CONFIG_DIR", dir)

	cfg := Default()
	cfg.Backend.URL = "https://coach.example.com"
	cfg.Voice.AutoSpeak = true
	cfg.UI.Theme = "light"

	path := filepath.Join(dir, "config.toml")
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	// SECURITY: config carries session-adjacent data, must be 0600
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("perm = %o, want 0600", info.Mode().Perm())
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Backend.URL != "https://coach.example.com" {
		t.Errorf("Backend.URL = %q", loaded.Backend.URL)
	}
	if !loaded.Voice.AutoSpeak {
		t.Error("Voice.AutoSpeak not preserved")
	}
	if loaded.UI.Theme != "light" {
		t.Errorf("UI.Theme = %q", loaded.UI.Theme)
	}
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("COACH_CONFIG_DIR", dir)

	cfg := Default()
	cfg.Voice.Name = "alloy"
	if err := SaveJSON(cfg, filepath.Join(dir, "config.json")); err != nil {
		t.Fatalf("SaveJSON failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Voice.Name != "alloy" {
		t.Errorf("Voice.Name = %q, want alloy", loaded.Voice.Name)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("COACH_CONFIG_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend.URL != Default().Backend.URL {
		t.Error("missing config file should fall back to defaults")
	}
}

func TestFillDefaults_PartialConfig(t *testing.T) {
	cfg := &Config{
		Backend: BackendConfig{URL: "https://coach.example.com"},
	}
	if err := fillDefaults(cfg); err != nil {
		t.Fatalf("fillDefaults failed: %v", err)
	}

	if cfg.Backend.URL != "https://coach.example.com" {
		t.Error("explicit value should survive fillDefaults")
	}
	if cfg.Backend.TimeoutSecs != Default().Backend.TimeoutSecs {
		t.Error("missing timeout should be defaulted")
	}
	if cfg.Voice.Name != "onyx" {
		t.Error("missing voice should be defaulted")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad backend url",
			mutate:  func(c *Config) { c.Backend.URL = "not a url" },
			wantErr: "backend.url",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Backend.TimeoutSecs = -1 },
			wantErr: "backend.timeout_secs",
		},
		{
			name:    "retries out of range",
			mutate:  func(c *Config) { c.Backend.MaxRetries = 50 },
			wantErr: "backend.max_retries",
		},
		{
			name:    "bad theme",
			mutate:  func(c *Config) { c.UI.Theme = "solarized" },
			wantErr: "ui.theme",
		},
		{
			name:    "record duration too long",
			mutate:  func(c *Config) { c.Voice.MaxRecordSecs = 7200 },
			wantErr: "voice.max_record_secs",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("COACH_BACKEND_URL", "https://override.example.com")
	t.Setenv("COACH_VOICE", "echo")
	t.Setenv("COACH_AUTOSPEAK", "true")
	t.Setenv("COACH_NO_HISTORY", "1")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Backend.URL != "https://override.example.com" {
		t.Errorf("Backend.URL = %q", cfg.Backend.URL)
	}
	if cfg.Voice.Name != "echo" {
		t.Errorf("Voice.Name = %q", cfg.Voice.Name)
	}
	if !cfg.Voice.AutoSpeak {
		t.Error("COACH_AUTOSPEAK=true should enable auto-speak")
	}
	if cfg.History.Enabled {
		t.Error("COACH_NO_HISTORY=1 should disable history")
	}
}

func TestHistoryDBPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("COACH_CONFIG_DIR", dir)

	cfg := Default()
	path, err := cfg.HistoryDBPath()
	if err != nil {
		t.Fatalf("HistoryDBPath failed: %v", err)
	}
	if path != filepath.Join(dir, "history.db") {
		t.Errorf("path = %q", path)
	}

	cfg.History.DBPath = "/tmp/custom.db"
	path, _ = cfg.HistoryDBPath()
	if path != "/tmp/custom.db" {
		t.Errorf("explicit path not honored: %q", path)
	}
}
