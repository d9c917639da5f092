// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package voice implements the continuous voice conversation loop.
//
// The loop cycles idle -> listening -> responding -> speaking and back to
// listening while voice mode stays engaged. Transitions flow through one
// reducer, and the "is voice mode still active" decision is read from a
// live atomic flag at each step, so ending the conversation mid-request
// reliably prevents the automatic re-listen.
//
// # Key Types
//
//   - Loop: the state machine (Begin, TapToSend, End, Events)
//   - Dispatcher: typed-message dispatch over the same identity and
//     memory contract, with optional spoken replies
//
// # Pacing
//
// Listening resumes 500ms after playback completes and 1000ms after a
// recoverable failure. The delays are pacing only; ordering within a
// cycle is enforced by sequential execution.
//
// # Error Policy
//
// Microphone denial is fatal to voice mode. No-audio captures and
// backend failures are recoverable: the optimistic placeholder message
// is removed, the error is surfaced, and listening retries while voice
// mode remains engaged. Playback failures degrade to "finished
// speaking".
package voice
