// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bestfit-labs/coach-tui/internal/api"
	"github.com/bestfit-labs/coach-tui/internal/audio"
	"github.com/bestfit-labs/coach-tui/internal/config"
	"github.com/bestfit-labs/coach-tui/internal/history"
	"github.com/bestfit-labs/coach-tui/internal/identity"
	"github.com/bestfit-labs/coach-tui/internal/model"
	"github.com/bestfit-labs/coach-tui/internal/ui/components"
	"github.com/bestfit-labs/coach-tui/internal/voice"
)

// =============================================================================
// FAKES
// =============================================================================

type nullRecorder struct{}

func (nullRecorder) Start(context.Context) error { return nil }
func (nullRecorder) Stop() ([]byte, error)       { return []byte("riff"), nil }
func (nullRecorder) Cancel() error               { return nil }
func (nullRecorder) State() audio.RecorderState  { return audio.RecorderState{} }

type nullPlayer struct{}

func (nullPlayer) Play(context.Context, string) error { return nil }

// newTestModel wires a model whose collaborators never touch the
// network; tests here only exercise local state transitions.
func newTestModel(t *testing.T) Model {
	t.Helper()

	cfg := config.Default()
	client := api.NewClient("http://127.0.0.1:1")
	ident, err := identity.NewManager(identity.NewMemStore())
	if err != nil {
		t.Fatalf("identity manager: %v", err)
	}
	conv := model.NewConversation()
	playback := audio.NewPlaybackManager(nullPlayer{})
	dispatcher := voice.NewDispatcher(client, playback, ident, conv, cfg.Voice.Name)
	loop := voice.New(nullRecorder{}, playback, client, ident, conv, cfg.Voice.Name)

	return New(Options{
		Config:     cfg,
		Client:     client,
		Identity:   ident,
		Conv:       conv,
		Dispatcher: dispatcher,
		Loop:       loop,
		Playback:   playback,
		Streak:     2,
	})
}

func resized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

// =============================================================================
// TESTS
// =============================================================================

func TestModel_ViewBeforeResize(t *testing.T) {
	m := newTestModel(t)
	if got := m.View(); got != "Loading..." {
		t.Errorf("View before resize = %q", got)
	}
}

func TestModel_ResizeShowsWelcome(t *testing.T) {
	m := resized(t, newTestModel(t))

	out := m.View()
	if !strings.Contains(out, "Best Fit Coach") {
		t.Errorf("view missing title:\n%s", out)
	}
	if !strings.Contains(out, "2 days in a row") {
		t.Errorf("view missing streak:\n%s", out)
	}
}

func TestModel_SubmitEmptyInputDoesNothing(t *testing.T) {
	m := resized(t, newTestModel(t))

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("empty submit should produce no command")
	}
	if len(next.(Model).conv.Messages) != 0 {
		t.Error("empty submit should not touch the conversation")
	}
}

func TestModel_SlashClearEmptiesConversation(t *testing.T) {
	m := resized(t, newTestModel(t))
	m.conv.AddUserMessage("hello")

	m.input.SetValue("/clear")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if len(next.(Model).conv.Messages) != 0 {
		t.Error("/clear should empty the conversation")
	}
}

func TestModel_SlashClearPersistsTranscriptFirst(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"), 10)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()

	m := resized(t, newTestModel(t))
	m.hist = store
	m.conv.AddUserMessage("remember this")

	m.input.SetValue("/clear")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if len(next.(Model).conv.Messages) != 0 {
		t.Fatal("/clear should empty the conversation")
	}
	metas, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("saved sessions = %d, want 1", len(metas))
	}
}

func TestModel_SlashVoiceWithNameSwitchesVoice(t *testing.T) {
	m := resized(t, newTestModel(t))

	m.input.SetValue("/voice nova")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	nm := next.(Model)
	if got := nm.dispatcher.Voice(); got != "nova" {
		t.Errorf("dispatcher voice = %q, want %q", got, "nova")
	}
	if nm.voiceMode {
		t.Error("/voice with a name should not enter voice mode")
	}
}

func TestModel_SlashHelpAddsSystemMessage(t *testing.T) {
	m := resized(t, newTestModel(t))

	m.input.SetValue("/help")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	msgs := next.(Model).conv.Messages
	if len(msgs) != 1 || msgs[0].Role != model.RoleSystem {
		t.Fatalf("expected one system message, got %d messages", len(msgs))
	}
	if !strings.Contains(msgs[0].Content, "/voice") {
		t.Error("help message missing command list")
	}
}

func TestModel_FatalVoiceErrorLeavesVoiceMode(t *testing.T) {
	m := resized(t, newTestModel(t))
	m.voiceMode = true
	m.statusBar.VoiceActive = true

	next, _ := m.Update(VoiceEventMsg{Event: voice.Event{
		Kind:  voice.EventError,
		Err:   audio.ErrMicAccessDenied,
		Fatal: true,
	}})
	nm := next.(Model)

	if nm.voiceMode {
		t.Error("fatal voice error should drop out of voice mode")
	}
	if !nm.notices.HasNotices() {
		t.Error("fatal voice error should surface a notice")
	}
}

func TestModel_RecoverableVoiceErrorStaysInVoiceMode(t *testing.T) {
	m := resized(t, newTestModel(t))
	m.voiceMode = true

	next, _ := m.Update(VoiceEventMsg{Event: voice.Event{
		Kind: voice.EventError,
		Err:  audio.ErrNoAudioCaptured,
	}})

	if !next.(Model).voiceMode {
		t.Error("recoverable voice error should stay in voice mode")
	}
}

func TestModel_UsageMsgUpdatesStatusBar(t *testing.T) {
	m := resized(t, newTestModel(t))

	next, _ := m.Update(UsageMsg{Usage: &api.Usage{Remaining: 7}})
	nm := next.(Model)

	if nm.statusBar.Remaining != 7 {
		t.Errorf("remaining = %d, want 7", nm.statusBar.Remaining)
	}
}

func TestModel_TextSentErrorShowsNotice(t *testing.T) {
	m := resized(t, newTestModel(t))

	next, _ := m.Update(TextSentMsg{Err: api.ErrUsageExceeded})
	if !next.(Model).notices.HasNotices() {
		t.Error("failed send should surface a notice")
	}
}

func TestModel_TextSentEmptyInputErrorIsSilent(t *testing.T) {
	m := resized(t, newTestModel(t))

	next, _ := m.Update(TextSentMsg{Err: voice.ErrEmptyInput})
	if next.(Model).notices.HasNotices() {
		t.Error("empty-input rejection should not produce a notice")
	}
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestNoticeFor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     components.NoticeKind
		sticky   bool
		contains string
	}{
		{"mic denied is fatal", audio.ErrMicAccessDenied, components.NoticeError, true, "Microphone"},
		{"no audio is recoverable", audio.ErrNoAudioCaptured, components.NoticeWarning, false, "Didn't catch"},
		{"no transcript is recoverable", api.ErrNoTranscript, components.NoticeWarning, false, "Didn't catch"},
		{"playback degrades quietly", audio.ErrPlaybackFailed, components.NoticeStatus, false, "Finished speaking"},
		{"usage exceeded", api.ErrUsageExceeded, components.NoticeError, false, "limit"},
		{"rate limited", api.ErrRateLimited, components.NoticeWarning, false, "Slow down"},
		{"dispatch busy", voice.ErrDispatchBusy, components.NoticeWarning, false, "Still working"},
		{"backend failure", api.ErrBackend, components.NoticeError, false, "trouble"},
		{"unknown error passes through", errors.New("weird thing"), components.NoticeError, false, "weird thing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := noticeFor(tt.err)
			if n.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", n.Kind, tt.kind)
			}
			if n.Sticky != tt.sticky {
				t.Errorf("sticky = %v, want %v", n.Sticky, tt.sticky)
			}
			if tt.contains != "" && !strings.Contains(n.Message, tt.contains) {
				t.Errorf("message %q missing %q", n.Message, tt.contains)
			}
		})
	}
}

func TestNoticeFor_WrappedError(t *testing.T) {
	wrapped := errors.Join(errors.New("request failed"), api.ErrRateLimited)
	if n := noticeFor(wrapped); n.Kind != components.NoticeWarning {
		t.Errorf("wrapped rate-limit kind = %v, want warning", n.Kind)
	}
}
