// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the coaching backend REST client.
//
// The backend exposes a small JSON/multipart surface: session bootstrap,
// text chat with memory, the full voice pipeline (transcribe + respond +
// synthesize), standalone transcription and synthesis, stored memories,
// and the daily usage quota. This package wraps each endpoint with retry,
// rate pacing, and response size limits.
//
// # Key Types
//
//   - Client: HTTP client with cookie-based credentials, retry, and
//     golang.org/x/time rate pacing
//   - SessionResponse, MessageResponse, TextResponse: endpoint replies
//
// # Usage
//
// Create a client and run a text turn:
//
//	client := api.NewClient("https://coach.example.com").WithRateLimit(4)
//	resp, err := client.SendText(ctx, "Hello", userID)
//
// # Errors
//
// Failures map to sentinel errors (ErrBackend, ErrRateLimited,
// ErrUsageExceeded, ErrNoTranscript) checkable with errors.Is. Transient
// failures (5xx, rate limits, network) are retried with exponential
// backoff before surfacing.
package api
