// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bestfit-labs/coach-tui/internal/api"
	"github.com/bestfit-labs/coach-tui/internal/audio"
	"github.com/bestfit-labs/coach-tui/internal/model"
	"github.com/bestfit-labs/coach-tui/internal/ui/components"
	"github.com/bestfit-labs/coach-tui/internal/voice"
)

// Update handles all Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SessionReadyMsg:
		return m.handleSessionReady(msg)

	case TextSentMsg:
		return m.handleTextSent(msg)

	case VoiceEventMsg:
		return m.handleVoiceEvent(msg)

	case VoiceStreamClosedMsg:
		// Loop shut down; nothing left to pump.
		return m, nil

	case SpeakDoneMsg:
		if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
			m.notices.Add(noticeFor(msg.Err))
		}
		m.refreshTranscript()
		return m, nil

	case UsageMsg:
		if msg.Err == nil && msg.Usage != nil {
			m.statusBar.Remaining = msg.Usage.Remaining
			m.statusBar.Premium = msg.Usage.IsPremium
		}
		return m, nil

	case MemoriesMsg:
		if msg.Err == nil {
			facts := make([]string, 0, len(msg.Memories))
			for _, mem := range msg.Memories {
				facts = append(facts, mem.Content)
			}
			m.welcome.Memories = facts
		}
		return m, nil

	case HistorySavedMsg:
		if msg.Err != nil {
			m.notices.AddWarning("Could not save this session locally.")
		}
		return m, nil

	case HistoryListMsg:
		return m.handleHistoryList(msg)

	case HistoryLoadedMsg:
		return m.handleHistoryLoaded(msg)

	case ConfigReloadedMsg:
		m.ApplyConfig(msg.Config)
		return m, nil

	case TranscriptRefreshMsg:
		m.refreshTranscript()
		return m, nil

	case FrameTickMsg:
		m.statusBar.Advance()
		return m, frameTickCmd()

	case components.NoticeTickMsg:
		m.notices.Tick()
		return m, components.NoticeTickCmd()
	}

	// Everything else feeds the focused bubbles.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	m.renderer.SetWidth(msg.Width)
	m.statusBar.SetWidth(msg.Width)
	m.input.Width = msg.Width - 6

	// header (1) + input row (3) + status (1)
	vpHeight := msg.Height - 5
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = msg.Width
	m.viewport.Height = vpHeight

	m.refreshTranscript()
	return m, nil
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Quit) {
		return m.quit()
	}

	if m.voiceMode {
		return m.handleVoiceKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.VoiceToggle):
		return m.enterVoiceMode()

	case key.Matches(msg, m.keyMap.SpeakLast):
		return m.speakLastReply()

	case key.Matches(msg, m.keyMap.Dismiss):
		m.notices.DismissNewest()
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp), key.Matches(msg, m.keyMap.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleVoiceKey handles keys while hands-free mode is engaged. Typing
// is disabled; space sends, ctrl+v or escape stops.
func (m Model) handleVoiceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.VoiceSend):
		m.loop.TapToSend(context.Background())
		return m, nil

	case key.Matches(msg, m.keyMap.VoiceToggle), key.Matches(msg, m.keyMap.Dismiss):
		return m.exitVoiceMode()
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.voiceMode {
		m.loop.End()
	}
	m.playback.StopAll()
	m.saveNow()
	return m, tea.Quit
}

// saveNow persists the conversation synchronously. Used on quit and
// /clear, where an async command could be dropped before it runs.
func (m Model) saveNow() {
	if m.hist == nil || len(m.conv.Messages) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = m.hist.Save(ctx, m.conv)
}

// =============================================================================
// TEXT DISPATCH
// =============================================================================

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if strings.HasPrefix(text, "/") {
		m.input.Reset()
		return m.handleSlash(text)
	}

	if m.sending || m.dispatcher.Busy() {
		m.notices.AddWarning("Still working on your last message.")
		return m, nil
	}

	m.input.Reset()
	m.sending = true

	// The dispatcher appends the user message and placeholder as soon
	// as the command goroutine starts; a short refresh makes them
	// visible while the request is in flight.
	return m, tea.Batch(sendTextCmd(m.dispatcher, text), transcriptRefreshCmd())
}

func (m Model) handleTextSent(msg TextSentMsg) (tea.Model, tea.Cmd) {
	m.sending = false
	m.refreshTranscript()

	if msg.Err != nil {
		if !errors.Is(msg.Err, voice.ErrEmptyInput) {
			m.notices.Add(noticeFor(msg.Err))
		}
		return m, nil
	}

	return m, tea.Batch(
		saveHistoryCmd(m.hist, m.conv),
		fetchUsageCmd(m.client),
	)
}

// =============================================================================
// VOICE MODE
// =============================================================================

func (m Model) enterVoiceMode() (tea.Model, tea.Cmd) {
	m.voiceMode = true
	m.input.Blur()
	m.statusBar.VoiceActive = true
	m.loop.Begin(context.Background())
	return m, nil
}

func (m Model) exitVoiceMode() (tea.Model, tea.Cmd) {
	m.loop.End()
	m.voiceMode = false
	m.statusBar.VoiceActive = false
	m.statusBar.VoiceState = voice.StateIdle
	m.input.Focus()
	m.refreshTranscript()
	return m, textinput.Blink
}

func (m Model) handleVoiceEvent(msg VoiceEventMsg) (tea.Model, tea.Cmd) {
	ev := msg.Event
	cmds := []tea.Cmd{waitVoiceEventCmd(m.loop)}

	switch ev.Kind {
	case voice.EventState:
		m.statusBar.VoiceState = ev.State
		m.refreshTranscript()

	case voice.EventTurnDone:
		m.refreshTranscript()
		cmds = append(cmds,
			saveHistoryCmd(m.hist, m.conv),
			fetchUsageCmd(m.client),
		)

	case voice.EventError:
		m.refreshTranscript()
		m.notices.Add(noticeFor(ev.Err))
		if ev.Fatal {
			m.voiceMode = false
			m.statusBar.VoiceActive = false
			m.statusBar.VoiceState = voice.StateIdle
			m.input.Focus()
			cmds = append(cmds, textinput.Blink)
		}
	}

	return m, tea.Batch(cmds...)
}

// =============================================================================
// SPEECH ON DEMAND
// =============================================================================

// speakLastReply voices the most recent coach reply.
func (m Model) speakLastReply() (tea.Model, tea.Cmd) {
	last := m.conv.GetLastAssistantMessage()
	if last == nil || last.IsPending {
		return m, nil
	}
	last.WasSpoken = true
	m.refreshTranscript()
	return m, speakCmd(m.client, m.playback, last.Content, m.cfg.Voice.Name)
}

// =============================================================================
// SESSION
// =============================================================================

func (m Model) handleSessionReady(msg SessionReadyMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.notices.AddWarning("Could not reach the coach. Messages will fail until the backend is back.")
		return m, nil
	}

	// A server-suggested id is only adopted when no local id exists.
	// The local identity always wins otherwise.
	if msg.Session.UserID != "" {
		if _, err := m.ident.AdoptServerID(msg.Session.UserID); err != nil {
			m.notices.AddWarning("Could not persist your local identity.")
		}
	}
	m.statusBar.Guest = m.ident.IsGuest()
	m.welcome.Guest = m.ident.IsGuest()

	if msg.Session.HasMemories {
		userID, err := m.ident.UserID()
		if err == nil {
			return m, fetchMemoriesCmd(m.client, userID)
		}
	}
	return m, nil
}

// =============================================================================
// HISTORY
// =============================================================================

func (m Model) handleHistoryList(msg HistoryListMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.notices.AddWarning("Could not read saved sessions.")
		return m, nil
	}
	if len(msg.Metas) == 0 {
		m.conv.AddSystemMessage("No saved sessions yet.")
		m.refreshTranscript()
		return m, nil
	}

	m.lastListing = msg.Metas

	var sb strings.Builder
	sb.WriteString("Saved sessions (use /load <n>):")
	for i, meta := range msg.Metas {
		sb.WriteString("\n")
		sb.WriteString(formatHistoryEntry(i+1, meta))
	}
	m.conv.AddSystemMessage(sb.String())
	m.refreshTranscript()
	return m, nil
}

func (m Model) handleHistoryLoaded(msg HistoryLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.notices.AddWarning("Could not load that session.")
		return m, nil
	}

	// The conversation pointer is shared with the dispatcher and the
	// voice loop, so the transcript is imported in place rather than
	// swapping the object out from under them.
	m.conv.ClearHistory()
	for _, message := range msg.Conv.Messages {
		m.conv.AddMessage(message)
	}
	m.refreshTranscript()
	return m, nil
}

// formatHistoryEntry renders one line of the /history listing.
func formatHistoryEntry(n int, meta model.ConversationMeta) string {
	return fmt.Sprintf("%d. %s (%d messages, %s)",
		n, meta.Title, meta.MessageCount, meta.UpdatedAt.Format("Jan 2"))
}

// =============================================================================
// ERROR PRESENTATION
// =============================================================================

// noticeFor maps an internal error to its user-facing notice. Mic
// denial is the one unrecoverable case; playback failures degrade to a
// quiet status line because the reply text already landed.
func noticeFor(err error) components.Notice {
	switch {
	case errors.Is(err, audio.ErrMicAccessDenied):
		return components.NewFatalNotice("Microphone access denied. Check your system settings and restart voice mode.")
	case errors.Is(err, audio.ErrNoAudioCaptured), errors.Is(err, api.ErrNoTranscript):
		return components.NewWarningNotice("Didn't catch that. Try speaking again.")
	case errors.Is(err, audio.ErrPlaybackFailed):
		return components.NewStatusNotice("Finished speaking.")
	case errors.Is(err, api.ErrUsageExceeded):
		return components.NewErrorNotice("Daily message limit reached. Come back tomorrow or upgrade.")
	case errors.Is(err, api.ErrRateLimited):
		return components.NewWarningNotice("Slow down a little. Trying again shortly.")
	case errors.Is(err, voice.ErrDispatchBusy):
		return components.NewWarningNotice("Still working on your last message.")
	case errors.Is(err, api.ErrBackend):
		return components.NewErrorNotice("The coach is having trouble right now. Please try again.")
	default:
		return components.NewErrorNotice(err.Error())
	}
}
