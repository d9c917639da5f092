// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bestfit-labs/coach-tui/internal/ui/styles"
)

// =============================================================================
// WELCOME SCREEN - First render before any message is sent
// =============================================================================

// Welcome holds the content shown on a fresh session.
type Welcome struct {
	Streak   int
	Guest    bool
	Memories []string // Remembered facts, shown as a short list

	theme *styles.Theme
}

// NewWelcome creates a welcome screen.
func NewWelcome(theme *styles.Theme) *Welcome {
	return &Welcome{theme: theme}
}

// Render renders the welcome box centered in the given area.
func (w *Welcome) Render(width, height int) string {
	var lines []string

	lines = append(lines, w.theme.WelcomeTitle.Render("Best Fit Coach"))
	lines = append(lines, "")

	if w.Guest {
		lines = append(lines, w.theme.WelcomeInfo.Render("Chatting as a guest"))
	} else {
		lines = append(lines, w.theme.WelcomeInfo.Render("Welcome back"))
	}

	if w.Streak > 1 {
		lines = append(lines, w.theme.WelcomeInfo.Render(
			fmt.Sprintf("%d days in a row", w.Streak)))
	}

	if len(w.Memories) > 0 {
		lines = append(lines, "")
		lines = append(lines, w.theme.WelcomeInfo.Render("Your coach remembers:"))
		shown := w.Memories
		if len(shown) > 3 {
			shown = shown[:3]
		}
		for _, m := range shown {
			lines = append(lines, w.theme.WelcomeInfo.Render("- "+m))
		}
	}

	lines = append(lines, "")
	lines = append(lines, w.theme.WelcomePressKey.Render("Type to chat, ctrl+v to talk"))

	box := w.theme.WelcomeBox.Render(strings.Join(lines, "\n"))

	if width > 0 && height > 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}
