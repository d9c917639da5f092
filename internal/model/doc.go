// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types used throughout the application
// for representing coaching sessions and the messages within them.
//
// # Key Types
//
//   - Conversation: Container for a session with messages and metadata
//   - Message: Single message with role, content, source, and timestamp
//   - Role: Message role enumeration (user, assistant, system)
//   - Source: How a message entered the session (typed or transcribed)
//
// # Usage
//
// Create a new conversation and dispatch a message:
//
//	conv := model.NewConversation()
//	conv.AddUserMessage("I keep skipping my morning run.")
//	pending := conv.AddPendingMessage()
//	// ... request completes ...
//	conv.ResolvePending(reply)
//
// The pending placeholder pattern keeps exactly one in-flight assistant
// slot per request: resolved in place on success, dropped on failure.
package model
