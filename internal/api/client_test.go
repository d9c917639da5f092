// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// TEXT DISPATCH TESTS
// =============================================================================

func TestSendText_RoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text" {
			t.Errorf("path = %q, want /text", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"message":"Hello","user_id":"guest-abc"}` {
			t.Errorf("body = %s", body)
		}
		w.Write([]byte(`{"success":true,"ai_response":"Hi!"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.SendText(context.Background(), "Hello", "guest-abc")
	if err != nil {
		t.Fatalf("SendText failed: %v", err)
	}
	if resp.AIResponse != "Hi!" {
		t.Errorf("AIResponse = %q", resp.AIResponse)
	}
}

func TestSendText_RejectsEmptyMessage(t *testing.T) {
	client := NewClient("http://localhost:0")
	_, err := client.SendText(context.Background(), "", "u")
	if !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("err = %v, want ErrEmptyMessage", err)
	}
}

func TestSendText_BackendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"model unavailable"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.SendText(context.Background(), "Hello", "u")
	if !errors.Is(err, ErrBackend) {
		t.Errorf("err = %v, want ErrBackend", err)
	}
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestCreateSession_ReportsServerIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/session" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req SessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Query != "Hello" {
			t.Errorf("query = %q, want %q", req.Query, "Hello")
		}
		w.Write([]byte(`{"success":true,"session":{"user_id":"server-77","has_memories":true}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.CreateSession(context.Background(), SessionRequest{Query: "Hello"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if resp.Session.UserID != "server-77" || !resp.Session.HasMemories {
		t.Errorf("session = %+v", resp.Session)
	}
}

// =============================================================================
// VOICE PIPELINE TESTS
// =============================================================================

func TestSendVoiceMessage_Multipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("not multipart: %v", err)
		}
		if got := r.FormValue("voice"); got != "onyx" {
			t.Errorf("voice = %q", got)
		}
		if got := r.FormValue("user_id"); got != "guest-abc" {
			t.Errorf("user_id = %q", got)
		}
		f, hdr, err := r.FormFile("audio")
		if err != nil {
			t.Fatalf("missing audio part: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "capture.wav" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		data, _ := io.ReadAll(f)
		if string(data) != "RIFFfake" {
			t.Errorf("audio = %q", data)
		}
		w.Write([]byte(`{"success":true,"user_message":"hello there","ai_response":"hey","audio":"QUJD"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.SendVoiceMessage(context.Background(), []byte("RIFFfake"), "capture.wav", "onyx", "guest-abc")
	if err != nil {
		t.Fatalf("SendVoiceMessage failed: %v", err)
	}
	if resp.UserMessage != "hello there" || resp.AIResponse != "hey" || resp.Audio != "QUJD" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSendVoiceMessage_RejectsEmptyAudio(t *testing.T) {
	client := NewClient("http://localhost:0")
	_, err := client.SendVoiceMessage(context.Background(), nil, "a.wav", "onyx", "u")
	if !errors.Is(err, ErrNoTranscript) {
		t.Errorf("err = %v, want ErrNoTranscript", err)
	}
}

func TestTranscribe_EmptyTextIsNoTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":""}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Transcribe(context.Background(), []byte("x"), "a.wav")
	if !errors.Is(err, ErrNoTranscript) {
		t.Errorf("err = %v, want ErrNoTranscript", err)
	}
}

func TestSpeak(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"text":"Hi!","voice":"onyx"}` {
			t.Errorf("body = %s", body)
		}
		w.Write([]byte(`{"success":true,"audio":"QUJD"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	audio, err := client.Speak(context.Background(), "Hi!", "onyx")
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if audio != "QUJD" {
		t.Errorf("audio = %q", audio)
	}
}

// =============================================================================
// RETRY AND ERROR MAPPING TESTS
// =============================================================================

func TestDoWithRetry_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"success":true,"ai_response":"recovered"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.SendText(context.Background(), "Hello", "u")
	if err != nil {
		t.Fatalf("SendText failed after retries: %v", err)
	}
	if resp.AIResponse != "recovered" {
		t.Errorf("AIResponse = %q", resp.AIResponse)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestDoWithRetry_MultipartBodyRebuiltPerAttempt(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		// The retried request must still carry the full audio payload.
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("retry lost multipart body: %v", err)
		}
		f, _, err := r.FormFile("audio")
		if err != nil {
			t.Fatalf("retry lost audio part: %v", err)
		}
		data, _ := io.ReadAll(f)
		f.Close()
		if string(data) != "payload" {
			t.Errorf("retried audio = %q", data)
		}
		w.Write([]byte(`{"text":"ok"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	text, err := client.Transcribe(context.Background(), []byte("payload"), "a.wav")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "ok" {
		t.Errorf("text = %q", text)
	}
}

func TestHandleErrorResponse_Mapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusPaymentRequired, ErrUsageExceeded},
		{http.StatusForbidden, ErrUsageExceeded},
	}
	for _, tc := range tests {
		err := handleErrorResponse(tc.status, []byte(`{"error":"nope"}`))
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: err = %v, want %v", tc.status, err, tc.want)
		}
	}

	err := handleErrorResponse(http.StatusNotFound, []byte(`{}`))
	var be *BackendError
	if !errors.As(err, &be) || be.Status != http.StatusNotFound {
		t.Errorf("404 should map to BackendError, got %v", err)
	}
}

func TestDoWithRetry_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(server.URL)
	_, err := client.SendText(ctx, "Hello", "u")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestWithRateLimit_PacesRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"ai_response":"ok"}`))
	}))
	defer server.Close()

	// 10 req/s limiter: 3 sequential calls need at least ~200ms.
	client := NewClient(server.URL).WithRateLimit(10)
	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.SendText(context.Background(), "Hello", "u"); err != nil {
			t.Fatalf("SendText failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("3 calls at 10/s finished in %v, limiter not pacing", elapsed)
	}
}
