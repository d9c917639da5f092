// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/bestfit-labs/coach-tui/internal/model"
)

func openTestStore(t *testing.T, maxSessions int) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), maxSessions)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveAndLoad(t *testing.T) {
	s := openTestStore(t, 0)
	ctx := context.Background()

	conv := model.NewConversation()
	conv.AddUserMessage("I want to run more")
	reply := model.NewMessage(model.RoleAssistant, "Let's set a weekly goal")
	reply.WasSpoken = true
	conv.AddMessage(reply)
	conv.AddVoiceMessage("three times a week")

	if err := s.Save(ctx, conv); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := s.Load(ctx, conv.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Title != conv.GetTitle() {
		t.Errorf("Title = %q, want %q", loaded.Title, conv.GetTitle())
	}
	if len(loaded.Messages) != 3 {
		t.Fatalf("loaded %d messages, want 3", len(loaded.Messages))
	}
	if loaded.Messages[1].Role != model.RoleAssistant || !loaded.Messages[1].WasSpoken {
		t.Errorf("assistant message = %+v", loaded.Messages[1])
	}
	if loaded.Messages[2].Source != model.SourceVoice {
		t.Errorf("voice message source = %q", loaded.Messages[2].Source)
	}
}

func TestStore_SaveSkipsPendingPlaceholder(t *testing.T) {
	s := openTestStore(t, 0)
	ctx := context.Background()

	conv := model.NewConversation()
	conv.AddUserMessage("hello")
	conv.AddPendingMessage()

	if err := s.Save(ctx, conv); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, _ := s.Load(ctx, conv.ID)
	if len(loaded.Messages) != 1 {
		t.Errorf("loaded %d messages, want 1 (placeholder excluded)", len(loaded.Messages))
	}
}

func TestStore_SaveIsIdempotentUpsert(t *testing.T) {
	s := openTestStore(t, 0)
	ctx := context.Background()

	conv := model.NewConversation()
	conv.AddUserMessage("first")
	if err := s.Save(ctx, conv); err != nil {
		t.Fatal(err)
	}

	conv.AddMessage(model.NewMessage(model.RoleAssistant, "second"))
	if err := s.Save(ctx, conv); err != nil {
		t.Fatal(err)
	}

	metas, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("listed %d sessions, want 1", len(metas))
	}
	if metas[0].MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", metas[0].MessageCount)
	}
}

func TestStore_ListOrdersByRecency(t *testing.T) {
	s := openTestStore(t, 0)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		conv := model.NewConversation()
		conv.AddUserMessage(fmt.Sprintf("session %d", i))
		conv.UpdatedAt = time.Now().Add(-time.Duration(i) * time.Hour)
		if err := s.Save(ctx, conv); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, conv.ID)
	}

	metas, err := s.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 3 {
		t.Fatalf("listed %d sessions", len(metas))
	}
	if metas[0].ID != ids[0] {
		t.Errorf("most recent session should sort first")
	}
}

func TestStore_PrunesOldestBeyondCap(t *testing.T) {
	s := openTestStore(t, 2)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		conv := model.NewConversation()
		conv.AddUserMessage(fmt.Sprintf("session %d", i))
		if err := s.Save(ctx, conv); err != nil {
			t.Fatal(err)
		}
	}

	metas, err := s.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 2 {
		t.Errorf("retained %d sessions, want 2", len(metas))
	}
}

func TestStore_Search(t *testing.T) {
	s := openTestStore(t, 0)
	ctx := context.Background()

	conv1 := model.NewConversation()
	conv1.AddUserMessage("let's talk about marathon training")
	conv2 := model.NewConversation()
	conv2.AddUserMessage("meal prep ideas")
	for _, c := range []*model.Conversation{conv1, conv2} {
		if err := s.Save(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	metas, err := s.Search(ctx, "marathon", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(metas) != 1 || metas[0].ID != conv1.ID {
		t.Errorf("search results = %+v", metas)
	}
}

func TestStore_LoadMissingSession(t *testing.T) {
	s := openTestStore(t, 0)
	if _, err := s.Load(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestStore_Delete(t *testing.T) {
	s := openTestStore(t, 0)
	ctx := context.Background()

	conv := model.NewConversation()
	conv.AddUserMessage("delete me")
	if err := s.Save(ctx, conv); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(ctx, conv.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, conv.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Delete = %v, want ErrSessionNotFound", err)
	}
	if _, err := s.Load(ctx, conv.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Error("messages should cascade away with the session")
	}
}
