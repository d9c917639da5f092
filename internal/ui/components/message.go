// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bestfit-labs/coach-tui/internal/model"
	"github.com/bestfit-labs/coach-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE RENDERER - Conversation transcript bubbles
// =============================================================================

// MessageRenderer renders conversation messages as aligned bubbles.
// User messages sit on the right, coach replies on the left.
type MessageRenderer struct {
	Width          int
	ShowTimestamps bool

	// Markdown renders assistant content. Nil means plain text.
	// Render failures fall back to plain text as well.
	Markdown func(string) (string, error)

	theme *styles.Theme
}

// NewMessageRenderer creates a renderer with the given theme.
func NewMessageRenderer(theme *styles.Theme) *MessageRenderer {
	return &MessageRenderer{
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the render width.
func (r *MessageRenderer) SetWidth(width int) {
	r.Width = width
}

// bubbleWidth caps bubbles at roughly two thirds of the view.
func (r *MessageRenderer) bubbleWidth() int {
	w := r.Width * 2 / 3
	if w < 20 {
		w = 20
	}
	return w
}

// Render renders one message.
func (r *MessageRenderer) Render(msg *model.Message) string {
	if msg == nil {
		return ""
	}

	switch msg.Role {
	case model.RoleUser:
		return r.renderUser(msg)
	case model.RoleAssistant:
		return r.renderCoach(msg)
	default:
		return r.renderSystem(msg)
	}
}

// RenderAll renders the full transcript joined by blank lines.
func (r *MessageRenderer) RenderAll(msgs []*model.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if s := r.Render(m); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (r *MessageRenderer) renderUser(msg *model.Message) string {
	content := msg.Content

	var marks []string
	if msg.Source == model.SourceVoice && !msg.IsPending {
		marks = append(marks, r.theme.VoiceMark.Render("(voice)"))
	}

	var body string
	if msg.IsPending {
		body = r.theme.Pending.Render(content)
	} else {
		body = content
	}

	bubble := r.theme.UserBubble.MaxWidth(r.bubbleWidth()).Render(body)
	block := r.withMeta(bubble, msg, marks)
	return lipgloss.PlaceHorizontal(r.Width, lipgloss.Right, block)
}

func (r *MessageRenderer) renderCoach(msg *model.Message) string {
	content := msg.Content

	if msg.IsPending {
		bubble := r.theme.CoachBubble.MaxWidth(r.bubbleWidth()).
			Render(r.theme.Pending.Render("..."))
		return lipgloss.PlaceHorizontal(r.Width, lipgloss.Left, bubble)
	}

	if r.Markdown != nil {
		if rendered, err := r.Markdown(content); err == nil {
			content = strings.TrimRight(rendered, "\n")
		}
	}

	var marks []string
	if msg.WasSpoken {
		marks = append(marks, r.theme.SpokenMark.Render("(spoken)"))
	}

	bubble := r.theme.CoachBubble.MaxWidth(r.bubbleWidth()).Render(content)
	block := r.withMeta(bubble, msg, marks)
	return lipgloss.PlaceHorizontal(r.Width, lipgloss.Left, block)
}

func (r *MessageRenderer) renderSystem(msg *model.Message) string {
	bubble := r.theme.SystemBubble.MaxWidth(r.bubbleWidth()).Render(msg.Content)
	return lipgloss.PlaceHorizontal(r.Width, lipgloss.Center, bubble)
}

// withMeta appends the sender line under a bubble: display name,
// optional timestamp, and any source marks.
func (r *MessageRenderer) withMeta(bubble string, msg *model.Message, marks []string) string {
	meta := []string{msg.Role.DisplayName()}
	if r.ShowTimestamps {
		meta = append(meta, msg.Timestamp.Format("15:04"))
	}
	meta = append(meta, marks...)

	metaLine := r.theme.Timestamp.Render(strings.Join(meta, " "))
	return lipgloss.JoinVertical(lipgloss.Left, bubble, metaLine)
}
