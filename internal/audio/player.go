// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ErrPlaybackFailed indicates the playback tool exited abnormally.
// Callers treat this as "finished speaking" rather than stalling.
var ErrPlaybackFailed = errors.New("audio playback failed")

// Player plays an audio file and blocks until playback finishes or the
// context is canceled.
type Player interface {
	Play(ctx context.Context, path string) error
}

// =============================================================================
// EXEC PLAYER
// =============================================================================

// ExecPlayer plays audio by running an external playback tool (afplay,
// aplay, ffplay). The command template's "{in}" token is replaced with
// the audio file path.
type ExecPlayer struct {
	template string
}

// NewExecPlayer creates a player from a command template.
func NewExecPlayer(template string) *ExecPlayer {
	return &ExecPlayer{template: template}
}

// Play runs the playback tool and waits for it to exit. Cancellation
// kills the tool, which is how StopAll silences in-progress speech.
func (p *ExecPlayer) Play(ctx context.Context, path string) error {
	args := splitCommand(p.template, "{in}", path)
	if len(args) == 0 {
		return fmt.Errorf("empty play command")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrPlaybackFailed, err)
	}
	return nil
}
