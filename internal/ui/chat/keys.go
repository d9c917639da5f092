// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Keyboard bindings for the chat interface. Voice mode repurposes a few
// keys (space sends, escape stops), so the bindings are split into text
// and voice sets instead of one flat map.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keyboard bindings for the chat interface.
type KeyMap struct {
	Submit      key.Binding
	VoiceToggle key.Binding
	VoiceSend   key.Binding
	SpeakLast   key.Binding
	Dismiss     key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send message"),
		),
		VoiceToggle: key.NewBinding(
			key.WithKeys("ctrl+v"),
			key.WithHelp("C-v", "toggle voice mode"),
		),
		VoiceSend: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "send recording"),
		),
		SpeakLast: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "speak last reply"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "dismiss notice"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp/C-u", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn/C-d", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
	}
}
