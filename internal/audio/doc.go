// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audio provides microphone capture and audio playback.
//
// Capture and playback delegate to external system tools (arecord/aplay,
// sox, afplay, ffmpeg) configured as command templates; no codec work
// happens in-process. The interfaces keep the voice loop testable with
// in-memory fakes.
//
// # Key Types
//
//   - Recorder: capture lifecycle (Start idempotent, Stop finalizes,
//     Cancel discards); ExecRecorder runs the configured capture tool
//   - Player: blocking playback; ExecPlayer runs the configured tool
//   - PlaybackManager: base64 payload -> temp file -> play, with a
//     registry so StopAll silences every overlapping playback
//
// # Resource Rules
//
// Every capture releases the device on Stop and Cancel alike, and every
// playback removes its temp file on completion, error, and forced stop.
package audio
