// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bestfit-labs/coach-tui/internal/ui/components"
	"github.com/bestfit-labs/coach-tui/internal/voice"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// View renders the complete chat surface.
// Layout: header (1 line) + transcript (viewport) + [notices] +
// input row (3 lines) + status bar (1 line). The transcript shrinks to
// make room for active notices rather than being painted over.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.renderHeader()
	input := m.renderInputRow()
	status := m.statusBar.Render()

	var noticeBlock string
	if m.notices.HasNotices() {
		noticeBlock = m.renderNotices()
	}

	bodyHeight := m.height -
		lipgloss.Height(header) -
		lipgloss.Height(input) -
		lipgloss.Height(status)
	if noticeBlock != "" {
		bodyHeight -= lipgloss.Height(noticeBlock)
	}
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	var body string
	if m.showingWelcome() {
		body = m.welcome.Render(m.width, bodyHeight)
	} else {
		body = m.viewport.View()
	}
	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)

	sections := []string{header, body}
	if noticeBlock != "" {
		sections = append(sections, noticeBlock)
	}
	sections = append(sections, input, status)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the single-line title bar.
func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("Best Fit Coach")
	subtitle := m.theme.HeaderSubtitle.Render(m.conv.GetTitle())

	line := title + "  " + subtitle
	return m.theme.Header.Width(m.width).Render(line)
}

// renderNotices renders the active notice stack, right-aligned above
// the input row.
func (m Model) renderNotices() string {
	stack := components.RenderNoticeStack(m.theme, m.notices.Notices(), 0, 0)
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, stack)
}

// renderInputRow renders either the text input or the voice-mode hint.
func (m Model) renderInputRow() string {
	if m.voiceMode {
		return m.renderVoiceRow()
	}

	return m.theme.InputContainer.Width(m.width - 2).Render(m.input.View())
}

// renderVoiceRow replaces the input box while hands-free mode runs.
func (m Model) renderVoiceRow() string {
	var hint string
	switch m.statusBar.VoiceState {
	case voice.StateListening:
		hint = "Listening... press Space to send, Ctrl+V to stop"
	case voice.StateResponding:
		hint = "Thinking..."
	case voice.StateSpeaking:
		hint = "Speaking... Ctrl+V to stop"
	case voice.StateErrorCooldown:
		hint = "Hmm, retrying in a moment..."
	default:
		hint = "Starting voice mode..."
	}

	return m.theme.InputContainer.Width(m.width - 2).
		Render(m.theme.InputPlaceholder.Render(hint))
}
