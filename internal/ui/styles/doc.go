// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the coach TUI.
//
// All colors are Lip Gloss AdaptiveColor pairs so the same palette works
// on light and dark terminals. The Theme struct bundles every styled
// surface the app renders: message bubbles, the input row, the status
// bar, notices, and the voice indicator. Components take a *Theme rather
// than reaching for package-level styles so tests can construct themes
// with a known background.
//
// ACCESSIBILITY: status states always pair a shape indicator ([OK], [X],
// [!], [i]) with their color so state is readable without color vision.
package styles
