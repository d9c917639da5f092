// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrBadAudioPayload indicates the base64 audio payload could not be
// decoded into playable bytes.
var ErrBadAudioPayload = errors.New("malformed audio payload")

// =============================================================================
// PLAYBACK MANAGER
// =============================================================================

// PlaybackManager turns base64 audio payloads into temp files, plays them,
// and tracks every in-flight playback so StopAll can silence all of them,
// not just the most recent one.
//
// RELIABILITY: The temp file is removed on every exit path - completion,
// decode error, playback error, and forced stop.
type PlaybackManager struct {
	player Player

	mu     sync.Mutex
	nextID int
	active map[int]context.CancelFunc
}

// NewPlaybackManager creates a manager that plays through player.
func NewPlaybackManager(player Player) *PlaybackManager {
	return &PlaybackManager{
		player: player,
		active: make(map[int]context.CancelFunc),
	}
}

// PlayBase64 decodes payload, plays it, and blocks until playback
// finishes, fails, or is stopped. It returns exactly once per call.
func (pm *PlaybackManager) PlayBase64(ctx context.Context, payload string) error {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return fmt.Errorf("%w: %v", ErrBadAudioPayload, err)
	}

	f, err := os.CreateTemp("", "coach-speech-*.mp3")
	if err != nil {
		return fmt.Errorf("failed to create playback file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write playback file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close playback file: %w", err)
	}

	playCtx, cancel := context.WithCancel(ctx)
	id := pm.register(cancel)
	defer pm.deregister(id)

	return pm.player.Play(playCtx, path)
}

// StopAll cancels every in-flight playback. Safe to call at any time,
// including with no playback active.
func (pm *PlaybackManager) StopAll() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	for id, cancel := range pm.active {
		cancel()
		delete(pm.active, id)
	}
}

// ActiveCount reports the number of in-flight playbacks.
func (pm *PlaybackManager) ActiveCount() int {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return len(pm.active)
}

func (pm *PlaybackManager) register(cancel context.CancelFunc) int {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.nextID++
	id := pm.nextID
	pm.active[id] = cancel
	return id
}

func (pm *PlaybackManager) deregister(id int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if cancel, ok := pm.active[id]; ok {
		cancel()
		delete(pm.active, id)
	}
}
