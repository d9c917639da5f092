// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audio provides microphone capture and audio playback.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Error variables for capture failures.
var (
	// ErrMicAccessDenied indicates the capture tool could not open the
	// microphone. Fatal to voice mode; requires manual re-enable.
	ErrMicAccessDenied = errors.New("microphone access denied")

	// ErrNoAudioCaptured indicates a capture finished with no usable audio.
	ErrNoAudioCaptured = errors.New("no audio recorded")

	// ErrNotRecording indicates Stop was called without an active capture.
	ErrNotRecording = errors.New("no capture in progress")
)

// RecorderState is a snapshot of the capture lifecycle.
type RecorderState struct {
	// IsRecording is true while audio is being captured.
	IsRecording bool
	// IsProcessing is true while a stopped capture is being finalized
	// into a deliverable payload.
	IsProcessing bool
	// Err is the last capture error, if any.
	Err error
}

// Recorder captures microphone audio. Implementations must make Start
// idempotent while a capture is active and must release the capture
// device on Stop and Cancel alike.
type Recorder interface {
	// Start begins a capture. Calling Start while already recording is
	// a no-op.
	Start(ctx context.Context) error

	// Stop finalizes the active capture and returns the audio payload.
	Stop() ([]byte, error)

	// Cancel discards the active capture without producing a payload.
	Cancel() error

	// State returns a snapshot of the capture lifecycle.
	State() RecorderState
}

// =============================================================================
// EXEC RECORDER
// =============================================================================

// ExecRecorder captures audio by running an external capture tool
// (arecord, sox rec, ffmpeg). The command template's "{out}" token is
// replaced with a temporary output path.
type ExecRecorder struct {
	template    string
	maxDuration time.Duration

	mu      sync.Mutex
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	outPath string
	state   RecorderState
}

// NewExecRecorder creates a recorder from a command template.
// maxDuration bounds a single capture (0 = unbounded).
func NewExecRecorder(template string, maxDuration time.Duration) *ExecRecorder {
	return &ExecRecorder{
		template:    template,
		maxDuration: maxDuration,
	}
}

// Start begins a capture. A second Start while recording is a no-op.
func (r *ExecRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.IsRecording {
		return nil
	}

	out, err := os.CreateTemp("", "coach-capture-*.wav")
	if err != nil {
		return fmt.Errorf("failed to create capture file: %w", err)
	}
	outPath := out.Name()
	out.Close()

	runCtx := ctx
	var cancel context.CancelFunc
	if r.maxDuration > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.maxDuration)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}

	args := splitCommand(r.template, "{out}", outPath)
	if len(args) == 0 {
		cancel()
		os.Remove(outPath)
		return fmt.Errorf("empty record command")
	}

	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		cancel()
		os.Remove(outPath)
		r.state = RecorderState{Err: ErrMicAccessDenied}
		return fmt.Errorf("%w: %v", ErrMicAccessDenied, err)
	}

	r.cmd = cmd
	r.cancel = cancel
	r.outPath = outPath
	r.state = RecorderState{IsRecording: true}
	return nil
}

// Stop finalizes the capture and returns the recorded audio.
func (r *ExecRecorder) Stop() ([]byte, error) {
	r.mu.Lock()

	if !r.state.IsRecording {
		r.mu.Unlock()
		return nil, ErrNotRecording
	}

	cmd := r.cmd
	cancel := r.cancel
	outPath := r.outPath
	r.state = RecorderState{IsProcessing: true}
	r.mu.Unlock()

	// Ask the tool to finish; most capture tools flush and close the
	// file on interrupt. Fall back to the context kill if that fails.
	if cmd.Process != nil {
		_ = cmd.Process.Signal(os.Interrupt)
	}
	_ = cmd.Wait()
	cancel()

	data, err := os.ReadFile(outPath)
	os.Remove(outPath)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmd = nil
	r.cancel = nil
	r.outPath = ""

	if err != nil || len(data) == 0 {
		r.state = RecorderState{Err: ErrNoAudioCaptured}
		return nil, ErrNoAudioCaptured
	}

	r.state = RecorderState{}
	return data, nil
}

// Cancel discards the active capture.
func (r *ExecRecorder) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.state.IsRecording {
		return nil
	}

	if r.cmd != nil && r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
		_ = r.cmd.Wait()
	}
	if r.cancel != nil {
		r.cancel()
	}
	if r.outPath != "" {
		os.Remove(r.outPath)
	}

	r.cmd = nil
	r.cancel = nil
	r.outPath = ""
	r.state = RecorderState{}
	return nil
}

// State returns a snapshot of the capture lifecycle.
func (r *ExecRecorder) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// splitCommand splits a command template into args, substituting token.
func splitCommand(template, token, value string) []string {
	fields := strings.Fields(template)
	for i, f := range fields {
		if strings.Contains(f, token) {
			fields[i] = strings.ReplaceAll(f, token, value)
		}
	}
	return fields
}

// CaptureFilename returns the upload filename for a capture payload.
func CaptureFilename() string {
	return fmt.Sprintf("capture-%d.wav", time.Now().Unix())
}
