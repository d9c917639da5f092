// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history persists session transcripts locally in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/bestfit-labs/coach-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrSessionNotFound is returned when a saved session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	role       TEXT NOT NULL,
	source     TEXT NOT NULL DEFAULT 'text',
	content    TEXT NOT NULL,
	was_spoken INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, seq);
CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at DESC);
`

// =============================================================================
// STORE
// =============================================================================

// Store persists session transcripts in a local SQLite database.
type Store struct {
	db          *sql.DB
	maxSessions int
}

// Open opens (or creates) the transcript database at path.
// maxSessions bounds retained sessions (0 = unlimited); oldest are
// pruned on save.
func Open(path string, maxSessions int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, maxSessions: maxSessions}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts a session transcript. The full message list is rewritten;
// transcripts are small and this keeps ordering trivially correct.
func (s *Store) Save(ctx context.Context, conv *model.Conversation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at`,
		conv.ID, conv.GetTitle(), conv.CreatedAt.Unix(), conv.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, conv.ID); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (id, session_id, seq, role, source, content, was_spoken, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, msg := range conv.Messages {
		// In-flight placeholders are transient UI state, not transcript.
		if msg.IsPending {
			continue
		}
		spoken := 0
		if msg.WasSpoken {
			spoken = 1
		}
		source := string(msg.Source)
		if source == "" {
			source = string(model.SourceText)
		}
		if _, err := stmt.ExecContext(ctx, msg.ID, conv.ID, i, string(msg.Role), source, msg.Content, spoken, msg.Timestamp.Unix()); err != nil {
			return fmt.Errorf("failed to save message: %w", err)
		}
	}

	if err := s.pruneLocked(ctx, tx); err != nil {
		return err
	}

	return tx.Commit()
}

// pruneLocked deletes the oldest sessions beyond the retention cap.
func (s *Store) pruneLocked(ctx context.Context, tx *sql.Tx) error {
	if s.maxSessions <= 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		DELETE FROM sessions WHERE id IN (
			SELECT id FROM sessions
			ORDER BY updated_at DESC
			LIMIT -1 OFFSET ?
		)`, s.maxSessions)
	if err != nil {
		return fmt.Errorf("failed to prune sessions: %w", err)
	}
	return nil
}

// List returns saved session metadata, most recent first.
func (s *Store) List(ctx context.Context, limit int) ([]model.ConversationMeta, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.title, s.created_at, s.updated_at,
		       (SELECT COUNT(*) FROM messages m WHERE m.session_id = s.id)
		FROM sessions s
		ORDER BY s.updated_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var metas []model.ConversationMeta
	for rows.Next() {
		var meta model.ConversationMeta
		var created, updated int64
		if err := rows.Scan(&meta.ID, &meta.Title, &created, &updated, &meta.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		meta.CreatedAt = time.Unix(created, 0)
		meta.UpdatedAt = time.Unix(updated, 0)
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// Load retrieves a full session transcript by ID.
func (s *Store) Load(ctx context.Context, id string) (*model.Conversation, error) {
	conv := &model.Conversation{ID: id}

	var created, updated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT title, created_at, updated_at FROM sessions WHERE id = ?`, id).
		Scan(&conv.Title, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	conv.CreatedAt = time.Unix(created, 0)
	conv.UpdatedAt = time.Unix(updated, 0)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, source, content, was_spoken, created_at
		FROM messages WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		msg := &model.Message{}
		var role, source string
		var spoken int
		var ts int64
		if err := rows.Scan(&msg.ID, &role, &source, &msg.Content, &spoken, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = model.Role(role)
		msg.Source = model.Source(source)
		msg.WasSpoken = spoken == 1
		msg.Timestamp = time.Unix(ts, 0)
		conv.Messages = append(conv.Messages, msg)
	}
	return conv, rows.Err()
}

// Search finds sessions whose messages contain the query text.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]model.ConversationMeta, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT s.id, s.title, s.created_at, s.updated_at,
		       (SELECT COUNT(*) FROM messages m2 WHERE m2.session_id = s.id)
		FROM sessions s
		JOIN messages m ON m.session_id = s.id
		WHERE m.content LIKE '%' || ? || '%'
		ORDER BY s.updated_at DESC
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search sessions: %w", err)
	}
	defer rows.Close()

	var metas []model.ConversationMeta
	for rows.Next() {
		var meta model.ConversationMeta
		var created, updated int64
		if err := rows.Scan(&meta.ID, &meta.Title, &created, &updated, &meta.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		meta.CreatedAt = time.Unix(created, 0)
		meta.UpdatedAt = time.Unix(updated, 0)
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// Delete removes a saved session.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}
