// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history persists session transcripts locally in SQLite.
//
// The backend already remembers conversations server-side; this store
// exists so past sessions are browsable and searchable from the TUI
// without a network round trip. The database lives alongside the rest of
// the client state under ~/.coach.
//
// # Key Types
//
//   - Store: open/save/list/load/search/delete over sessions and
//     messages tables, with retention pruning on save
package history
