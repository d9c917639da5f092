// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the coaching backend API.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for transient errors.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay is the maximum delay for exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion. Synthesized
	// audio comes back base64-inline, so the cap is generous.
	MaxResponseSize = 32 * 1024 * 1024 // 32MB

	userAgent = "coach-tui/1.0"
)

// Error variables for common backend errors.
var (
	// ErrBackend indicates the backend returned a non-success reply.
	ErrBackend = errors.New("backend request failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrUsageExceeded indicates the daily quota is exhausted.
	ErrUsageExceeded = errors.New("daily usage limit reached")

	// ErrNoTranscript indicates the backend heard no usable speech.
	ErrNoTranscript = errors.New("no speech detected in audio")

	// ErrEmptyMessage indicates a blank message was submitted.
	ErrEmptyMessage = errors.New("message must not be empty")
)

// BackendError carries the status and message of a failed backend call.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error: status %d", e.Status)
	}
	return fmt.Sprintf("backend error: status %d: %s", e.Status, e.Message)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the coaching backend. All requests are credentialed: a
// cookie jar carries the backend's session cookie across calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	limiter    *rate.Limiter
}

// NewClient creates a backend client for baseURL.
func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
			Jar:     jar,
			Timeout: DefaultTimeout,
		},
		maxRetries: DefaultMaxRetries,
		limiter:    nil,
	}
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithMaxRetries sets the retry budget for transient errors.
func (c *Client) WithMaxRetries(n int) *Client {
	c.maxRetries = n
	return c
}

// WithRateLimit caps outbound requests per second (0 disables the cap).
func (c *Client) WithRateLimit(perSec float64) *Client {
	if perSec <= 0 {
		c.limiter = nil
		return c
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
	return c
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// CreateSession initializes or resumes a session for the given identity.
// The caller decides what to do with a server-suggested user ID; this
// method only reports it.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.postJSON(ctx, "/session", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendVoiceMessage runs the full voice pipeline: transcription, chat
// completion with memory, and optional speech synthesis.
func (c *Client) SendVoiceMessage(ctx context.Context, audio []byte, filename, voice, userID string) (*MessageResponse, error) {
	if len(audio) == 0 {
		return nil, ErrNoTranscript
	}

	fields := map[string]string{"voice": voice}
	if userID != "" {
		fields["user_id"] = userID
	}

	var out MessageResponse
	if err := c.postMultipart(ctx, "/message", audio, filename, fields, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, backendFailure(out.Error)
	}
	return &out, nil
}

// SendText sends a typed message through the memory-backed chat pipeline.
func (c *Client) SendText(ctx context.Context, message, userID string) (*TextResponse, error) {
	if message == "" {
		return nil, ErrEmptyMessage
	}

	var out TextResponse
	if err := c.postJSON(ctx, "/text", TextRequest{Message: message, UserID: userID}, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, backendFailure(out.Error)
	}
	return &out, nil
}

// Transcribe converts an audio capture to text without a chat turn.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", ErrNoTranscript
	}

	var out TranscribeResponse
	if err := c.postMultipart(ctx, "/transcribe", audio, filename, nil, &out); err != nil {
		return "", err
	}
	if out.Text == "" {
		return "", ErrNoTranscript
	}
	return out.Text, nil
}

// Speak synthesizes speech for text. Returns the base64 audio payload.
func (c *Client) Speak(ctx context.Context, text, voice string) (string, error) {
	if text == "" {
		return "", ErrEmptyMessage
	}

	var out SpeakResponse
	if err := c.postJSON(ctx, "/speak", SpeakRequest{Text: text, Voice: voice}, &out); err != nil {
		return "", err
	}
	if !out.Success || out.Audio == "" {
		return "", backendFailure(out.Error)
	}
	return out.Audio, nil
}

// Memories fetches stored memories relevant to query.
func (c *Client) Memories(ctx context.Context, query, userID string, limit int) ([]Memory, error) {
	q := url.Values{}
	if query != "" {
		q.Set("query", query)
	}
	if userID != "" {
		q.Set("user_id", userID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var out MemoriesResponse
	if err := c.getJSON(ctx, "/memories", q, &out); err != nil {
		return nil, err
	}
	return out.Memories, nil
}

// Usage fetches the daily quota status.
func (c *Client) Usage(ctx context.Context) (*Usage, error) {
	var out UsageResponse
	if err := c.getJSON(ctx, "/usage", nil, &out); err != nil {
		return nil, err
	}
	return &out.Usage, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// postJSON sends a JSON request and decodes the reply into out.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	mkReq := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	return c.doWithRetry(ctx, mkReq, out)
}

// getJSON sends a GET request and decodes the reply into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	mkReq := func() (*http.Request, error) {
		u := c.baseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	return c.doWithRetry(ctx, mkReq, out)
}

// postMultipart uploads an audio blob plus form fields and decodes the reply.
// Multipart bodies are rebuilt per attempt so retries never send a drained
// reader.
func (c *Client) postMultipart(ctx context.Context, path string, audio []byte, filename string, fields map[string]string, out any) error {
	mkReq := func() (*http.Request, error) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)

		part, err := w.CreateFormFile("audio", filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(audio); err != nil {
			return nil, fmt.Errorf("failed to write audio: %w", err)
		}

		for k, v := range fields {
			if err := w.WriteField(k, v); err != nil {
				return nil, fmt.Errorf("failed to write field %s: %w", k, err)
			}
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", w.FormDataContentType())
		return req, nil
	}

	return c.doWithRetry(ctx, mkReq, out)
}

// doWithRetry performs a request with rate pacing, retry on transient
// failures, and exponential backoff.
func (c *Client) doWithRetry(ctx context.Context, mkReq func() (*http.Request, error), out any) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.calculateBackoff(attempt - 1)):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		req, err := mkReq()
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			lastErr = fmt.Errorf("%w: %v", ErrBackend, err)
			continue
		}

		body, err := readResponse(resp)
		resp.Body.Close()
		if err != nil {
			return err
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = handleErrorResponse(resp.StatusCode, body)
			if isRetryable(lastErr) {
				continue
			}
			return lastErr
		}

		if out != nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// readResponse reads a response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	// SECURITY: Limit response size to prevent memory exhaustion
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}

	return body, nil
}

// handleErrorResponse converts HTTP error replies to Go errors.
func handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	msg := ""
	if err := json.Unmarshal(body, &apiErr); err == nil {
		msg = apiErr.Error
		if msg == "" {
			msg = apiErr.Message
		}
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrRateLimited, msg)
		}
		return ErrRateLimited
	case http.StatusPaymentRequired, http.StatusForbidden:
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrUsageExceeded, msg)
		}
		return ErrUsageExceeded
	default:
		return &BackendError{Status: statusCode, Message: msg}
	}
}

// backendFailure maps a success:false reply to a sentinel error.
func backendFailure(msg string) error {
	if msg == "" {
		return ErrBackend
	}
	return fmt.Errorf("%w: %s", ErrBackend, msg)
}

// isRetryable determines if an error should trigger a retry.
func isRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	var be *BackendError
	if errors.As(err, &be) {
		return be.Status >= 500 && be.Status < 600
	}

	return false
}

// calculateBackoff returns the delay before the next retry.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	// Exponential backoff: 500ms, 1000ms, 2000ms, etc.
	delay := retryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}
