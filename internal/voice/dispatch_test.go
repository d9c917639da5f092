// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bestfit-labs/coach-tui/internal/api"
	"github.com/bestfit-labs/coach-tui/internal/model"
)

// fakeTextBackend answers text turns and synthesis requests.
type fakeTextBackend struct {
	mu        sync.Mutex
	textResp  *api.TextResponse
	textErr   error
	speakErr  error
	release   chan struct{} // if set, SendText blocks until closed
	sendCalls int
	spoke     []string
}

func (b *fakeTextBackend) SendText(ctx context.Context, message, userID string) (*api.TextResponse, error) {
	b.mu.Lock()
	b.sendCalls++
	release := b.release
	b.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if b.textErr != nil {
		return nil, b.textErr
	}
	return b.textResp, nil
}

func (b *fakeTextBackend) Speak(ctx context.Context, text, voiceName string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.speakErr != nil {
		return "", b.speakErr
	}
	b.spoke = append(b.spoke, text)
	return "QUJD", nil
}

// =============================================================================
// DISPATCHER TESTS
// =============================================================================

// Full round trip: "Hello" in, "Hi!" back, exactly two new messages in
// order, no duplicates.
func TestDispatcher_RoundTrip(t *testing.T) {
	be := &fakeTextBackend{textResp: &api.TextResponse{Success: true, AIResponse: "Hi!"}}
	conv := model.NewConversation()
	d := NewDispatcher(be, &fakeSpeaker{}, fixedIdentity{"guest-test"}, conv, "onyx")

	if err := d.Send(context.Background(), "Hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	msgs := conv.GetHistory()
	if len(msgs) != 2 {
		t.Fatalf("conversation has %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != model.RoleUser || msgs[0].Content != "Hello" {
		t.Errorf("first message = %+v", msgs[0])
	}
	if msgs[1].Role != model.RoleAssistant || msgs[1].Content != "Hi!" {
		t.Errorf("second message = %+v", msgs[1])
	}
	if msgs[1].IsPending {
		t.Error("reply should be resolved, not pending")
	}
}

func TestDispatcher_RejectsEmptyInput(t *testing.T) {
	d := NewDispatcher(&fakeTextBackend{}, &fakeSpeaker{}, fixedIdentity{"u"}, model.NewConversation(), "onyx")

	for _, input := range []string{"", "   ", "\n\t"} {
		if err := d.Send(context.Background(), input); !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Send(%q) = %v, want ErrEmptyInput", input, err)
		}
	}
}

func TestDispatcher_RejectsConcurrentSends(t *testing.T) {
	release := make(chan struct{})
	be := &fakeTextBackend{
		textResp: &api.TextResponse{Success: true, AIResponse: "ok"},
		release:  release,
	}
	d := NewDispatcher(be, &fakeSpeaker{}, fixedIdentity{"u"}, model.NewConversation(), "onyx")

	first := make(chan error, 1)
	go func() {
		first <- d.Send(context.Background(), "slow one")
	}()

	waitFor(t, time.Second, d.Busy)

	if err := d.Send(context.Background(), "second"); !errors.Is(err, ErrDispatchBusy) {
		t.Errorf("concurrent Send = %v, want ErrDispatchBusy", err)
	}

	close(release)
	if err := <-first; err != nil {
		t.Errorf("first Send failed: %v", err)
	}
	if d.Busy() {
		t.Error("dispatcher should be free after completion")
	}
}

func TestDispatcher_FailureKeepsHistory(t *testing.T) {
	be := &fakeTextBackend{textErr: api.ErrBackend}
	conv := model.NewConversation()
	conv.AddUserMessage("prior")
	d := NewDispatcher(be, &fakeSpeaker{}, fixedIdentity{"u"}, conv, "onyx")

	err := d.Send(context.Background(), "Hello")
	if !errors.Is(err, api.ErrBackend) {
		t.Fatalf("err = %v, want ErrBackend", err)
	}

	// The user's message stays; only the pending reply is rolled back.
	msgs := conv.GetHistory()
	if len(msgs) != 2 {
		t.Fatalf("conversation has %d messages, want 2", len(msgs))
	}
	if msgs[0].Content != "prior" || msgs[1].Content != "Hello" {
		t.Errorf("history = %q, %q", msgs[0].Content, msgs[1].Content)
	}
	for _, m := range msgs {
		if m.IsPending {
			t.Error("no pending placeholder should survive a failure")
		}
	}
}

func TestDispatcher_AutoSpeakPlaysReply(t *testing.T) {
	be := &fakeTextBackend{textResp: &api.TextResponse{Success: true, AIResponse: "Hi!"}}
	spk := &fakeSpeaker{}
	conv := model.NewConversation()
	d := NewDispatcher(be, spk, fixedIdentity{"u"}, conv, "onyx")
	d.SetAutoSpeak(true)

	if err := d.Send(context.Background(), "Hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if len(be.spoke) != 1 || be.spoke[0] != "Hi!" {
		t.Errorf("synthesis calls = %v", be.spoke)
	}
	if len(spk.played) != 1 {
		t.Errorf("playback ran %d times, want 1", len(spk.played))
	}
	if !conv.GetLastAssistantMessage().WasSpoken {
		t.Error("spoken reply should be annotated")
	}
}

func TestDispatcher_SynthesisFailureDegradesToText(t *testing.T) {
	be := &fakeTextBackend{
		textResp: &api.TextResponse{Success: true, AIResponse: "Hi!"},
		speakErr: api.ErrBackend,
	}
	spk := &fakeSpeaker{}
	conv := model.NewConversation()
	d := NewDispatcher(be, spk, fixedIdentity{"u"}, conv, "onyx")
	d.SetAutoSpeak(true)

	if err := d.Send(context.Background(), "Hello"); err != nil {
		t.Fatalf("synthesis failure should not fail the send: %v", err)
	}
	if len(spk.played) != 0 {
		t.Error("no playback should run when synthesis fails")
	}
	if conv.GetLastAssistantMessage().Content != "Hi!" {
		t.Error("text reply must survive synthesis failure")
	}
}
