// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the coaching backend REST client.
package api

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SessionRequest initializes or resumes a coaching session.
type SessionRequest struct {
	Query  string `json:"query,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

// TextRequest sends a typed message through the memory-backed chat pipeline.
type TextRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

// SpeakRequest asks the backend to synthesize speech for text.
type SpeakRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// Session describes the server-side session state.
type Session struct {
	UserID       string `json:"user_id"`
	HasMemories  bool   `json:"has_memories"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// SessionResponse is the /session reply.
type SessionResponse struct {
	Success bool    `json:"success"`
	Session Session `json:"session"`
}

// MessageResponse is the /message reply: the full voice pipeline result.
// Audio, when present, is base64-encoded synthesized speech.
type MessageResponse struct {
	Success     bool   `json:"success"`
	UserMessage string `json:"user_message"`
	AIResponse  string `json:"ai_response"`
	Audio       string `json:"audio,omitempty"`
	Error       string `json:"error,omitempty"`
}

// TextResponse is the /text reply.
type TextResponse struct {
	Success        bool   `json:"success"`
	AIResponse     string `json:"ai_response"`
	UserID         string `json:"user_id,omitempty"`
	WorkoutsLogged int    `json:"workouts_logged,omitempty"`
	Error          string `json:"error,omitempty"`
}

// TranscribeResponse is the /transcribe reply.
type TranscribeResponse struct {
	Text string `json:"text"`
}

// SpeakResponse is the /speak reply. Audio is base64-encoded.
type SpeakResponse struct {
	Success bool   `json:"success"`
	Audio   string `json:"audio"`
	Error   string `json:"error,omitempty"`
}

// Memory is one stored memory item.
type Memory struct {
	Content   string  `json:"content"`
	Category  string  `json:"category,omitempty"`
	Relevance float64 `json:"relevance,omitempty"`
}

// MemoriesResponse is the /memories reply.
type MemoriesResponse struct {
	Memories []Memory `json:"memories"`
}

// Usage describes the daily quota status.
type Usage struct {
	Remaining int  `json:"remaining"`
	IsPremium bool `json:"is_premium"`
}

// UsageResponse is the /usage reply.
type UsageResponse struct {
	Usage Usage `json:"usage"`
}

// apiErrorResponse is the generic error envelope some endpoints return.
type apiErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}
