// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package identity manages the stable user identity for the coaching backend.
//
// The backend keys all conversation memory on a user ID, so the single
// invariant that matters here is stability: the same ID every launch. A
// fresh install generates a guest ID (guest-<uuid>) and persists it before
// the first request. Server-suggested IDs are adopted only when no local
// ID exists.
//
// # Key Types
//
//   - Manager: identity rules (guest fallback, server adoption, auth flag)
//   - Store: minimal key-value persistence interface
//   - FileStore: JSON-on-disk Store with atomic writes
//   - MemStore: in-memory Store for tests
package identity
