// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/bestfit-labs/coach-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Coach"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// Source records how a message entered the conversation.
type Source string

const (
	SourceText  Source = "text"  // typed in the input box
	SourceVoice Source = "voice" // transcribed from a recording
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`
	Source  Source `json:"source,omitempty"`

	// Pending state (not persisted). While a backend request is in flight
	// the assistant slot holds a placeholder message with IsPending set.
	// The dispatcher replaces its content in place on success and removes
	// the message entirely on failure.
	IsPending bool `json:"-"`

	// Audio annotations (for assistant messages that were spoken aloud)
	WasSpoken bool `json:"was_spoken,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Source:    SourceText,
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewVoiceMessage creates a user message that originated as a transcript.
func NewVoiceMessage(transcript string) *Message {
	msg := NewMessage(RoleUser, transcript)
	msg.Source = SourceVoice
	return msg
}

// ProcessingMarker is the placeholder content shown while a voice capture
// is being transcribed.
const ProcessingMarker = "Processing..."

// NewPendingMessage creates the assistant placeholder shown while a
// backend request is in flight.
func NewPendingMessage() *Message {
	return &Message{
		ID:        generateID(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
		IsPending: true,
	}
}

// NewPendingVoiceMessage creates the optimistic user placeholder shown
// while a voice capture is transcribed. Resolved in place with the
// transcript, or dropped if the capture or request fails.
func NewPendingVoiceMessage() *Message {
	return &Message{
		ID:        generateID(),
		Role:      RoleUser,
		Content:   ProcessingMarker,
		Timestamp: time.Now(),
		Source:    SourceVoice,
		IsPending: true,
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// Resolve fills in a pending placeholder with the final reply text.
// It is a no-op on messages that are not pending.
func (m *Message) Resolve(content string) {
	if !m.IsPending {
		return
	}
	m.Content = content
	m.IsPending = false
	m.Timestamp = time.Now()
}

// Preview returns a one-line truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	return util.TruncateRunes(util.CollapseWhitespace(m.Content), maxLen)
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique message ID.
func generateID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}
