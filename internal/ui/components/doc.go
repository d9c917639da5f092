// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the coach TUI.
//
// Components are plain renderers: they hold display state, take a
// *styles.Theme, and produce strings. The Bubble Tea model in the chat
// package owns all update logic and feeds these components.
package components
