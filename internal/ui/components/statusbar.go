// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bestfit-labs/coach-tui/internal/ui/styles"
	"github.com/bestfit-labs/coach-tui/internal/voice"
)

// =============================================================================
// STATUS BAR COMPONENT - Bottom status bar
// =============================================================================

// UsageUnknown marks the usage meter as not yet fetched.
const UsageUnknown = -1

// StatusBar renders the bottom status line: voice state on the left,
// shortcuts in the middle, streak and usage on the right.
type StatusBar struct {
	VoiceState    voice.State
	VoiceActive   bool
	AutoSpeak     bool
	Guest         bool
	Streak        int
	Remaining     int // Messages remaining today, UsageUnknown until fetched
	Premium       bool
	Width         int
	ShowShortcuts bool

	tick  int
	theme *styles.Theme
}

// NewStatusBar creates a status bar with defaults.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		VoiceState:    voice.StateIdle,
		Remaining:     UsageUnknown,
		Width:         80,
		ShowShortcuts: true,
		theme:         theme,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// Advance moves the state animation forward one frame.
func (s *StatusBar) Advance() {
	s.tick++
}

// voiceSegment renders the left voice-state indicator.
func (s *StatusBar) voiceSegment() string {
	switch s.VoiceState {
	case voice.StateListening:
		frame := styles.PulseSpinner.Frame(s.tick)
		return s.theme.StatusListen.Render(frame + " Listening")
	case voice.StateResponding:
		frame := styles.LineSpinner.Frame(s.tick)
		return s.theme.StatusThink.Render(frame + " Thinking")
	case voice.StateSpeaking:
		frame := styles.WaveSpinner.Frame(s.tick)
		return s.theme.StatusSpeak.Render(frame + " Speaking")
	case voice.StateErrorCooldown:
		return s.theme.StatusError.Render(styles.StatusIndicators.Warning + " Retrying")
	default:
		if s.VoiceActive {
			return s.theme.StatusIdle.Render("Voice on")
		}
		return s.theme.StatusIdle.Render("Text")
	}
}

// rightSegment renders streak and usage badges.
func (s *StatusBar) rightSegment() string {
	var parts []string

	if s.Guest {
		parts = append(parts, s.theme.StatusIdle.Render("guest"))
	}

	if s.AutoSpeak {
		parts = append(parts, s.theme.StatusSpeak.Render("auto-speak"))
	}

	if s.Streak > 0 {
		label := fmt.Sprintf("%d day streak", s.Streak)
		if s.Streak == 1 {
			label = "1 day streak"
		}
		parts = append(parts, s.theme.StreakBadge.Render(label))
	}

	switch {
	case s.Premium:
		parts = append(parts, s.theme.UsageBadge.Render("premium"))
	case s.Remaining == UsageUnknown:
		// Usage not fetched yet, show nothing.
	case s.Remaining <= 3:
		parts = append(parts, s.theme.UsageLow.Render(fmt.Sprintf("%d left", s.Remaining)))
	default:
		parts = append(parts, s.theme.UsageBadge.Render(fmt.Sprintf("%d left", s.Remaining)))
	}

	return strings.Join(parts, "  ")
}

// shortcutSegment renders contextual keyboard hints.
func (s *StatusBar) shortcutSegment() string {
	if !s.ShowShortcuts {
		return ""
	}

	type hint struct{ key, desc string }
	var hints []hint

	switch s.VoiceState {
	case voice.StateListening:
		hints = []hint{{"space", "send"}, {"ctrl+v", "stop"}}
	case voice.StateResponding, voice.StateSpeaking, voice.StateErrorCooldown:
		hints = []hint{{"ctrl+v", "stop"}}
	default:
		hints = []hint{{"enter", "send"}, {"ctrl+v", "voice"}, {"ctrl+t", "speak"}}
	}

	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts,
			s.theme.ShortcutKey.Render(h.key)+" "+s.theme.ShortcutDesc.Render(h.desc))
	}
	return strings.Join(parts, "  ")
}

// Render produces the full status bar line.
func (s *StatusBar) Render() string {
	left := s.voiceSegment()
	middle := s.shortcutSegment()
	right := s.rightSegment()

	leftW := lipgloss.Width(left)
	midW := lipgloss.Width(middle)
	rightW := lipgloss.Width(right)

	// Pad the middle so right stays flush. Drop segments that no
	// longer fit rather than wrapping the bar.
	inner := s.Width - 2
	if inner < leftW+rightW+2 {
		middle = ""
		midW = 0
	}
	if inner < leftW+rightW+2 {
		right = ""
		rightW = 0
	}

	gapTotal := inner - leftW - midW - rightW
	if gapTotal < 2 {
		gapTotal = 2
	}
	leftGap := gapTotal / 2
	rightGap := gapTotal - leftGap

	line := left + strings.Repeat(" ", leftGap) + middle + strings.Repeat(" ", rightGap) + right
	return s.theme.StatusBar.Width(s.Width).Render(line)
}
