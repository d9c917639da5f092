// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package voice implements the continuous voice conversation loop.
package voice

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bestfit-labs/coach-tui/internal/api"
	"github.com/bestfit-labs/coach-tui/internal/audio"
	"github.com/bestfit-labs/coach-tui/internal/model"
)

// Pacing delays between cycles. The resume delay avoids capturing the
// tail of playback or device click artifacts; the error delay avoids
// tight retry loops.
const (
	ResumeDelay = 500 * time.Millisecond
	ErrorDelay  = 1000 * time.Millisecond
)

// State is the voice loop state.
type State int

const (
	// StateIdle: voice mode off, nothing in flight.
	StateIdle State = iota
	// StateListening: microphone capture active, waiting for tap-to-send.
	StateListening
	// StateResponding: capture finalized, backend request in flight.
	StateResponding
	// StateSpeaking: synthesized reply playing.
	StateSpeaking
	// StateErrorCooldown: recoverable failure, waiting before re-listen.
	StateErrorCooldown
)

// String returns the state name for display and logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateResponding:
		return "responding"
	case StateSpeaking:
		return "speaking"
	case StateErrorCooldown:
		return "error_cooldown"
	default:
		return "unknown"
	}
}

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// Backend is the slice of the API client the loop needs.
type Backend interface {
	SendVoiceMessage(ctx context.Context, audio []byte, filename, voice, userID string) (*api.MessageResponse, error)
}

// Speaker is the slice of the playback manager the loop needs.
type Speaker interface {
	PlayBase64(ctx context.Context, payload string) error
	StopAll()
}

// Identity supplies the stable user ID for request attribution.
type Identity interface {
	UserID() (string, error)
}

// =============================================================================
// EVENTS
// =============================================================================

// EventKind classifies loop events.
type EventKind int

const (
	// EventState signals a state transition.
	EventState EventKind = iota
	// EventTurnDone signals a completed turn (transcript + reply applied).
	EventTurnDone
	// EventError signals a surfaced error.
	EventError
)

// Event is emitted by the loop for the UI to render.
type Event struct {
	Kind  EventKind
	State State
	Err   error
	// Fatal is set on errors that deactivate voice mode (mic denied).
	Fatal bool
}

// =============================================================================
// LOOP
// =============================================================================

// Loop drives the voice conversation cycle:
//
//	idle -> listening -> responding -> speaking -> listening -> ...
//
// All transitions flow through the reducer (transition). Whether voice
// mode is still engaged is read from the live active flag at every
// decision point, never from a value captured before a suspension
// point - the user may End() while a request is in flight, and the loop
// must not re-enter listening afterward.
type Loop struct {
	recorder audio.Recorder
	speaker  Speaker
	backend  Backend
	identity Identity
	conv     *model.Conversation

	// active is the live voice-mode flag.
	active atomic.Bool

	mu    sync.Mutex
	state State
	voice string

	events chan Event

	resumeDelay time.Duration
	errorDelay  time.Duration
}

// New creates a voice loop over the given collaborators.
func New(recorder audio.Recorder, speaker Speaker, backend Backend, id Identity, conv *model.Conversation, voiceName string) *Loop {
	return &Loop{
		recorder:    recorder,
		speaker:     speaker,
		backend:     backend,
		identity:    id,
		conv:        conv,
		voice:       voiceName,
		state:       StateIdle,
		events:      make(chan Event, 64),
		resumeDelay: ResumeDelay,
		errorDelay:  ErrorDelay,
	}
}

// SetVoice changes the synthesis voice for subsequent turns.
func (l *Loop) SetVoice(name string) {
	l.mu.Lock()
	l.voice = name
	l.mu.Unlock()
}

// Events returns the loop's event stream.
func (l *Loop) Events() <-chan Event {
	return l.events
}

// State returns the current loop state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Active reports whether voice mode is engaged.
func (l *Loop) Active() bool {
	return l.active.Load()
}

// Begin engages voice mode and starts listening. Calling Begin while
// voice mode is already engaged is a no-op.
func (l *Loop) Begin(ctx context.Context) {
	if !l.active.CompareAndSwap(false, true) {
		return
	}
	l.startListening(ctx)
}

// TapToSend finalizes the active capture and dispatches it. Ignored
// unless the loop is listening.
func (l *Loop) TapToSend(ctx context.Context) {
	l.mu.Lock()
	if l.state != StateListening {
		l.mu.Unlock()
		return
	}
	l.setStateLocked(StateResponding)
	l.mu.Unlock()

	go l.processTurn(ctx)
}

// End disengages voice mode: cancels any in-flight capture, stops every
// playing audio element, and returns to idle. Effective even while a
// backend request is in flight - the live active flag prevents the
// subsequent re-listen.
func (l *Loop) End() {
	l.active.Store(false)
	l.recorder.Cancel()
	l.speaker.StopAll()

	l.mu.Lock()
	l.setStateLocked(StateIdle)
	l.mu.Unlock()
}

// =============================================================================
// CYCLE INTERNALS
// =============================================================================

// startListening acquires the microphone and enters listening. Mic
// acquisition failure is fatal to voice mode.
func (l *Loop) startListening(ctx context.Context) {
	if !l.active.Load() {
		return
	}

	if err := l.recorder.Start(ctx); err != nil {
		l.active.Store(false)
		l.mu.Lock()
		l.setStateLocked(StateIdle)
		l.mu.Unlock()
		l.emit(Event{Kind: EventError, Err: err, Fatal: true})
		return
	}

	l.mu.Lock()
	l.setStateLocked(StateListening)
	l.mu.Unlock()
}

// processTurn runs one capture -> dispatch -> playback cycle.
// Runs on its own goroutine; every step re-checks the live active flag.
func (l *Loop) processTurn(ctx context.Context) {
	captured, err := l.recorder.Stop()
	if err != nil {
		l.failTurn(ctx, err, false)
		return
	}

	// Optimistic placeholder, resolved with the transcript.
	l.conv.AddMessage(model.NewPendingVoiceMessage())

	userID, err := l.identity.UserID()
	if err != nil {
		l.conv.DropPending()
		l.failTurn(ctx, err, false)
		return
	}

	l.mu.Lock()
	voiceName := l.voice
	l.mu.Unlock()

	resp, err := l.backend.SendVoiceMessage(ctx, captured, audio.CaptureFilename(), voiceName, userID)
	if err != nil {
		// Rollback is minimal: only the placeholder is removed, prior
		// conversation history is untouched.
		l.conv.DropPending()
		l.failTurn(ctx, err, false)
		return
	}

	l.conv.ResolvePending(resp.UserMessage)
	reply := model.NewMessage(model.RoleAssistant, resp.AIResponse)
	if resp.Audio != "" {
		reply.WasSpoken = true
	}
	l.conv.AddMessage(reply)
	l.emit(Event{Kind: EventTurnDone, State: l.State()})

	if resp.Audio != "" {
		l.mu.Lock()
		l.setStateLocked(StateSpeaking)
		l.mu.Unlock()

		// Playback failure degrades to "finished speaking".
		if err := l.speaker.PlayBase64(ctx, resp.Audio); err != nil && !errors.Is(err, context.Canceled) {
			l.emit(Event{Kind: EventError, Err: err})
		}
	}

	l.resume(ctx, l.resumeDelay)
}

// failTurn surfaces a recoverable error and schedules the retry listen.
func (l *Loop) failTurn(ctx context.Context, err error, fatal bool) {
	l.mu.Lock()
	l.setStateLocked(StateErrorCooldown)
	l.mu.Unlock()
	l.emit(Event{Kind: EventError, Err: err, Fatal: fatal})

	l.resume(ctx, l.errorDelay)
}

// resume re-enters listening after delay if voice mode is still engaged.
// The active flag is read after the delay, at the moment of decision.
func (l *Loop) resume(ctx context.Context, delay time.Duration) {
	if !l.active.Load() {
		l.settleIdle()
		return
	}

	select {
	case <-ctx.Done():
		l.settleIdle()
		return
	case <-time.After(delay):
	}

	if !l.active.Load() {
		l.settleIdle()
		return
	}
	l.startListening(ctx)
}

// settleIdle returns the loop to idle without touching the active flag.
func (l *Loop) settleIdle() {
	l.mu.Lock()
	if l.state != StateIdle {
		l.setStateLocked(StateIdle)
	}
	l.mu.Unlock()
}

// setStateLocked is the single reducer: every transition lands here.
// Caller holds l.mu.
func (l *Loop) setStateLocked(s State) {
	if l.state == s {
		return
	}
	l.state = s
	l.emit(Event{Kind: EventState, State: s})
}

// emit sends an event without blocking the loop. The channel is sized
// for bursts; a stalled consumer drops events rather than stalling the
// state machine.
func (l *Loop) emit(ev Event) {
	select {
	case l.events <- ev:
	default:
	}
}
