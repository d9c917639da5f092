// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bestfit-labs/coach-tui/internal/api"
	"github.com/bestfit-labs/coach-tui/internal/model"
)

// Dispatch errors.
var (
	// ErrEmptyInput indicates a blank or whitespace-only message.
	ErrEmptyInput = errors.New("message is empty")

	// ErrDispatchBusy indicates a prior send is still outstanding.
	ErrDispatchBusy = errors.New("a message is already in flight")
)

// TextBackend is the slice of the API client the dispatcher needs.
type TextBackend interface {
	SendText(ctx context.Context, message, userID string) (*api.TextResponse, error)
	Speak(ctx context.Context, text, voiceName string) (string, error)
}

// =============================================================================
// TEXT DISPATCHER
// =============================================================================

// Dispatcher sends typed messages through the same identity-tagged,
// memory-backed contract as voice turns, then optionally synthesizes and
// plays the reply.
//
// Auto-speak applies uniformly: when enabled, replies are spoken in text
// mode as well as voice mode.
type Dispatcher struct {
	backend  TextBackend
	speaker  Speaker
	identity Identity
	conv     *model.Conversation

	mu    sync.Mutex
	voice string

	autoSpeak atomic.Bool
	busy      atomic.Bool
}

// NewDispatcher creates a text dispatcher over the given collaborators.
func NewDispatcher(backend TextBackend, speaker Speaker, id Identity, conv *model.Conversation, voiceName string) *Dispatcher {
	return &Dispatcher{
		backend:  backend,
		speaker:  speaker,
		identity: id,
		conv:     conv,
		voice:    voiceName,
	}
}

// SetVoice changes the synthesis voice for subsequent replies.
func (d *Dispatcher) SetVoice(name string) {
	d.mu.Lock()
	d.voice = name
	d.mu.Unlock()
}

// Voice returns the current synthesis voice.
func (d *Dispatcher) Voice() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.voice
}

// SetAutoSpeak toggles spoken replies for text messages.
func (d *Dispatcher) SetAutoSpeak(v bool) {
	d.autoSpeak.Store(v)
}

// AutoSpeak reports whether replies are spoken aloud.
func (d *Dispatcher) AutoSpeak() bool {
	return d.autoSpeak.Load()
}

// Busy reports whether a send is outstanding.
func (d *Dispatcher) Busy() bool {
	return d.busy.Load()
}

// Send dispatches a typed message. Empty input and concurrent sends are
// rejected. On success the conversation gains exactly two messages, the
// user's and the reply, in that order. On failure only the optimistic
// placeholder is rolled back; prior history is never discarded.
func (d *Dispatcher) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}
	if !d.busy.CompareAndSwap(false, true) {
		return ErrDispatchBusy
	}
	defer d.busy.Store(false)

	d.conv.AddUserMessage(text)
	d.conv.AddPendingMessage()

	userID, err := d.identity.UserID()
	if err != nil {
		d.conv.DropPending()
		return err
	}

	resp, err := d.backend.SendText(ctx, text, userID)
	if err != nil {
		d.conv.DropPending()
		return err
	}

	reply := d.conv.ResolvePending(resp.AIResponse)

	if d.autoSpeak.Load() {
		payload, err := d.backend.Speak(ctx, resp.AIResponse, d.Voice())
		if err != nil {
			// Synthesis failure degrades to silent text.
			return nil
		}
		if reply != nil {
			reply.WasSpoken = true
		}
		// Playback failure likewise leaves the text reply in place.
		_ = d.speaker.PlayBase64(ctx, payload)
	}

	return nil
}
