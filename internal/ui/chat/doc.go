// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the Bubble Tea model for the coach conversation view.
//
// The model owns the terminal surface only. Conversation state lives in
// the shared model.Conversation, text sends go through voice.Dispatcher,
// and the hands-free cycle runs inside voice.Loop; this package
// translates their results into Bubble Tea messages and renders the
// transcript, input row, status bar, and notices.
//
// Voice events arrive over the loop's channel. A long-running command
// blocks on the channel and re-arms itself after every event, so the
// loop's goroutines never touch the model directly.
package chat
