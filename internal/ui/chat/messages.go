// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file defines all Bubble Tea message types used by the chat
// interface:
//   - Session: backend session establishment
//   - Text: typed message dispatch results
//   - Voice: events bridged from the voice loop
//   - Speech: on-demand synthesis results
//   - Usage / Memories: quota and memory fetches
//   - History: save, load, and list results
//   - Ticks: animation frames
//
// All message types follow Bubble Tea conventions and are immutable.
package chat

import (
	"time"

	"github.com/bestfit-labs/coach-tui/internal/api"
	"github.com/bestfit-labs/coach-tui/internal/config"
	"github.com/bestfit-labs/coach-tui/internal/model"
	"github.com/bestfit-labs/coach-tui/internal/voice"
)

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// SessionReadyMsg reports the result of the initial /session call.
type SessionReadyMsg struct {
	Session *api.Session
	Err     error
}

// =============================================================================
// TEXT MESSAGES
// =============================================================================

// TextSentMsg reports the result of a dispatched text message.
type TextSentMsg struct {
	Err error
}

// =============================================================================
// VOICE MESSAGES
// =============================================================================

// VoiceEventMsg wraps one event from the voice loop's stream.
type VoiceEventMsg struct {
	Event voice.Event
}

// VoiceStreamClosedMsg signals that the loop's event channel closed.
type VoiceStreamClosedMsg struct{}

// =============================================================================
// SPEECH MESSAGES
// =============================================================================

// SpeakDoneMsg reports the result of on-demand speech synthesis.
type SpeakDoneMsg struct {
	Err error
}

// =============================================================================
// USAGE AND MEMORY MESSAGES
// =============================================================================

// UsageMsg delivers the daily quota status.
type UsageMsg struct {
	Usage *api.Usage
	Err   error
}

// MemoriesMsg delivers remembered facts for the welcome screen.
type MemoriesMsg struct {
	Memories []api.Memory
	Err      error
}

// =============================================================================
// HISTORY MESSAGES
// =============================================================================

// HistorySavedMsg reports the result of persisting the conversation.
type HistorySavedMsg struct {
	Err error
}

// HistoryListMsg delivers saved session metadata.
type HistoryListMsg struct {
	Metas []model.ConversationMeta
	Err   error
}

// HistoryLoadedMsg delivers a loaded conversation transcript.
type HistoryLoadedMsg struct {
	Conv *model.Conversation
	Err  error
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg delivers a hot-reloaded configuration. The config
// watcher runs outside the program and sends this via Program.Send.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// TICK MESSAGES
// =============================================================================

// FrameTickMsg advances status bar animations.
type FrameTickMsg struct {
	Time time.Time
}

// TranscriptRefreshMsg asks for a one-shot transcript re-render, used
// to surface optimistic messages while a request is in flight.
type TranscriptRefreshMsg struct{}
