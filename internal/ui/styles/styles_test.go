// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewThemeFor(t *testing.T) {
	dark := NewThemeFor("dark")
	if !dark.IsDark {
		t.Error("dark theme should report IsDark")
	}

	light := NewThemeFor("light")
	if light.IsDark {
		t.Error("light theme should not report IsDark")
	}
}

func TestRenderHelpersIncludeShapeIndicators(t *testing.T) {
	tests := []struct {
		name      string
		render    func(string) string
		indicator string
	}{
		{"success", RenderSuccess, "[OK]"},
		{"error", RenderError, "[X]"},
		{"warning", RenderWarning, "[!]"},
		{"info", RenderInfo, "[i]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.render("something happened")
			if !strings.Contains(out, tt.indicator) {
				t.Errorf("output %q missing indicator %q", out, tt.indicator)
			}
			if !strings.Contains(out, "something happened") {
				t.Errorf("output %q missing message", out)
			}
		})
	}
}

func TestSpinnerFrame(t *testing.T) {
	s := PulseSpinner

	if got := s.Frame(0); got != s.Frames[0] {
		t.Errorf("Frame(0) = %q, want %q", got, s.Frames[0])
	}
	if got := s.Frame(len(s.Frames)); got != s.Frames[0] {
		t.Errorf("Frame wraps: got %q, want %q", got, s.Frames[0])
	}
	if got := s.Frame(-1); got != s.Frames[1] {
		t.Errorf("Frame(-1) = %q, want %q", got, s.Frames[1])
	}

	empty := SpinnerConfig{}
	if got := empty.Frame(3); got != "" {
		t.Errorf("empty spinner Frame = %q, want empty", got)
	}
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		percent float64
		want    string
	}{
		{"empty", 4, 0, "----"},
		{"half", 4, 50, "##--"},
		{"full", 4, 100, "####"},
		{"clamped high", 4, 150, "####"},
		{"clamped low", 4, -10, "----"},
		{"zero width", 0, 50, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderProgressBar(tt.width, tt.percent); got != tt.want {
				t.Errorf("RenderProgressBar(%d, %v) = %q, want %q", tt.width, tt.percent, got, tt.want)
			}
		})
	}
}
