// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bestfit-labs/coach-tui/internal/api"
	"github.com/bestfit-labs/coach-tui/internal/audio"
	"github.com/bestfit-labs/coach-tui/internal/history"
	"github.com/bestfit-labs/coach-tui/internal/model"
	"github.com/bestfit-labs/coach-tui/internal/voice"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// requestTimeout bounds the one-shot fetches issued from the UI.
const requestTimeout = 30 * time.Second

// sessionGreeting opens the session handshake. The backend uses it to
// seed the coach's first-turn context and memory lookup.
const sessionGreeting = "Hello"

// createSessionCmd establishes the backend session for the local user id.
func createSessionCmd(client *api.Client, userID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		resp, err := client.CreateSession(ctx, api.SessionRequest{
			Query:  sessionGreeting,
			UserID: userID,
		})
		if err != nil {
			return SessionReadyMsg{Err: err}
		}
		return SessionReadyMsg{Session: &resp.Session}
	}
}

// sendTextCmd dispatches a typed message. The dispatcher owns the
// conversation bookkeeping; this command only reports the outcome.
func sendTextCmd(d *voice.Dispatcher, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return TextSentMsg{Err: d.Send(ctx, text)}
	}
}

// waitVoiceEventCmd blocks on the voice loop's event stream and delivers
// the next event. The update loop re-arms it after every message.
func waitVoiceEventCmd(loop *voice.Loop) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-loop.Events()
		if !ok {
			return VoiceStreamClosedMsg{}
		}
		return VoiceEventMsg{Event: ev}
	}
}

// speakCmd synthesizes text and plays it through the playback manager.
func speakCmd(client *api.Client, playback *audio.PlaybackManager, text, voiceName string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		payload, err := client.Speak(ctx, text, voiceName)
		if err != nil {
			return SpeakDoneMsg{Err: err}
		}
		return SpeakDoneMsg{Err: playback.PlayBase64(ctx, payload)}
	}
}

// fetchUsageCmd refreshes the daily quota badge.
func fetchUsageCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		usage, err := client.Usage(ctx)
		return UsageMsg{Usage: usage, Err: err}
	}
}

// fetchMemoriesCmd loads remembered facts for the welcome screen.
func fetchMemoriesCmd(client *api.Client, userID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		memories, err := client.Memories(ctx, "", userID, 5)
		return MemoriesMsg{Memories: memories, Err: err}
	}
}

// saveHistoryCmd persists the conversation snapshot.
func saveHistoryCmd(store *history.Store, conv *model.Conversation) tea.Cmd {
	if store == nil {
		return nil
	}
	snapshot := conv.Clone()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return HistorySavedMsg{Err: store.Save(ctx, snapshot)}
	}
}

// listHistoryCmd fetches saved session metadata.
func listHistoryCmd(store *history.Store, limit int) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		metas, err := store.List(ctx, limit)
		return HistoryListMsg{Metas: metas, Err: err}
	}
}

// searchHistoryCmd searches saved sessions by content.
func searchHistoryCmd(store *history.Store, query string, limit int) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		metas, err := store.Search(ctx, query, limit)
		return HistoryListMsg{Metas: metas, Err: err}
	}
}

// loadHistoryCmd loads a saved session transcript.
func loadHistoryCmd(store *history.Store, id string) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		conv, err := store.Load(ctx, id)
		return HistoryLoadedMsg{Conv: conv, Err: err}
	}
}

// transcriptRefreshCmd schedules a one-shot transcript re-render.
func transcriptRefreshCmd() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
		return TranscriptRefreshMsg{}
	})
}

// frameTickCmd drives the status bar animation at 10fps.
func frameTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return FrameTickMsg{Time: t}
	})
}
