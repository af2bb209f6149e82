// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hfOK = `{
	"id": "chatcmpl-1",
	"model": "deepseek-ai/DeepSeek-V3-0324",
	"choices": [{
		"index": 0,
		"message": {"role": "assistant", "content": "Привет!"},
		"finish_reason": "stop"
	}],
	"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
}`

func fastRetries(r *retrier) {
	r.baseDelay = time.Millisecond
	r.maxDelay = 5 * time.Millisecond
}

// =============================================================================
// HUGGINGFACE
// =============================================================================

func TestHFClient_SendMessage(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(hfOK))
	}))
	defer server.Close()

	client := NewHFClient("hf_test").WithBaseURL(server.URL + "/v1")
	resp, err := client.SendMessage(context.Background(), ChatRequest{
		Model:     "deepseek-ai/DeepSeek-V3-0324",
		Messages:  []ChatMessage{NewUserMessage("Привет")},
		MaxTokens: 1000,
	})
	require.NoError(t, err)

	assert.Equal(t, "Привет!", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 12, resp.PromptTokens())
	assert.Equal(t, 5, resp.CompletionTokens())
	assert.Equal(t, 17, resp.TotalTokens())

	assert.Equal(t, "deepseek-ai/DeepSeek-V3-0324", got["model"])
	assert.EqualValues(t, 1000, got["max_tokens"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
}

func TestHFClient_MissingUsage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer server.Close()

	resp, err := NewHFClient("hf_test").WithBaseURL(server.URL).SendMessage(context.Background(), ChatRequest{
		Messages: []ChatMessage{NewUserMessage("hi")},
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Usage)
	assert.Zero(t, resp.PromptTokens())
	assert.Zero(t, resp.TotalTokens())
}

func TestHFClient_NotConfigured(t *testing.T) {
	_, err := NewHFClient("  ").SendMessage(context.Background(), ChatRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestHFClient_AuthFailureIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid credentials","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := NewHFClient("hf_bad").WithBaseURL(server.URL)
	fastRetries(client.retry)

	_, err := client.SendMessage(context.Background(), ChatRequest{Messages: []ChatMessage{NewUserMessage("hi")}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthFailed)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, int32(1), calls.Load())
	assert.NotContains(t, err.Error(), "hf_bad")
}

func TestHFClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":{"message":"loading","type":"server_error"}}`))
			return
		}
		w.Write([]byte(hfOK))
	}))
	defer server.Close()

	client := NewHFClient("hf_test").WithBaseURL(server.URL)
	fastRetries(client.retry)

	resp, err := client.SendMessage(context.Background(), ChatRequest{Messages: []ChatMessage{NewUserMessage("hi")}})
	require.NoError(t, err)
	assert.Equal(t, "Привет!", resp.Content)
	assert.Equal(t, int32(3), calls.Load())
}

// =============================================================================
// ANTHROPIC
// =============================================================================

func TestClaudeClient_CreateMessage(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("content-type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5-20250929",
			"content": [{"type": "text", "text": "Hello"}, {"type": "text", "text": " there"}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 9, "output_tokens": 3, "service_tier": "standard"}
		}`))
	}))
	defer server.Close()

	client := NewClaudeClient("sk-ant-test").WithBaseURL(server.URL)
	resp, err := client.CreateMessage(context.Background(), ClaudeRequest{
		Messages: []ChatMessage{NewUserMessage("Hi")},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello there", resp.Text())
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Nil(t, resp.StopSequence)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 9, resp.Usage.InputTokens)
	assert.Equal(t, "standard", resp.Usage.ServiceTier)

	assert.Equal(t, "claude-sonnet-4-5-20250929", got["model"])
	assert.EqualValues(t, DefaultClaudeMaxTokens, got["max_tokens"])
	assert.EqualValues(t, 1.0, got["temperature"])
	assert.NotContains(t, got, "system")
}

func TestClients_WithHTTPClient(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/chat/completions":
			w.Write([]byte(hfOK))
		case "/v1/messages":
			w.Write([]byte(`{"role":"assistant","content":[{"type":"text","text":"ok"}],"usage":{"input_tokens":1,"output_tokens":1}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	// The test server's certificate is only trusted by its own client.
	hf := NewHFClient("hf_test").WithBaseURL(server.URL).WithHTTPClient(server.Client())
	resp, err := hf.SendMessage(context.Background(), ChatRequest{Messages: []ChatMessage{NewUserMessage("hi")}})
	require.NoError(t, err)
	assert.Equal(t, "Привет!", resp.Content)

	claude := NewClaudeClient("sk-ant-test").WithBaseURL(server.URL).WithHTTPClient(server.Client())
	cr, err := claude.CreateMessage(context.Background(), ClaudeRequest{Messages: []ChatMessage{NewUserMessage("hi")}})
	require.NoError(t, err)
	assert.Equal(t, "ok", cr.Text())
}

func TestClients_APIKeyMasked(t *testing.T) {
	assert.Equal(t, "[not set]", NewHFClient("").APIKeyMasked())
	masked := NewClaudeClient("sk-ant-secret").APIKeyMasked()
	assert.Contains(t, masked, "length=13")
	assert.NotContains(t, masked, "secret")
}

func TestClaudeClient_ErrorBody(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	client := NewClaudeClient("sk-ant-test").WithBaseURL(server.URL)
	fastRetries(client.retry)
	client.retry.maxRetries = 2

	_, err := client.CreateMessage(context.Background(), ClaudeRequest{Messages: []ChatMessage{NewUserMessage("Hi")}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "max retries exceeded")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "rate_limit_error", apiErr.Type)
	assert.Equal(t, "slow down", apiErr.Message)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClaudeSender_LiftsSystemMessages(t *testing.T) {
	var got ClaudeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"id":"m","content":[{"type":"text","text":"ok"}],"usage":{"input_tokens":4,"output_tokens":2}}`))
	}))
	defer server.Close()

	sender := NewClaudeClient("sk-ant-test").WithBaseURL(server.URL).AsSender("Be brief.")
	resp, err := sender.SendMessage(context.Background(), ChatRequest{
		Model: "haiku",
		Messages: []ChatMessage{
			NewSystemMessage("Answer in Russian."),
			NewUserMessage("Hi"),
			NewAssistantMessage("Привет"),
			NewUserMessage("How are you?"),
		},
		MaxTokens: 1000,
	})
	require.NoError(t, err)

	assert.Equal(t, "claude-haiku-4-5-20251001", got.Model)
	assert.Equal(t, "Be brief.\n\nAnswer in Russian.", got.System)
	assert.Equal(t, 1000, got.MaxTokens)
	require.Len(t, got.Messages, 3)
	for _, m := range got.Messages {
		assert.NotEqual(t, RoleSystem, m.Role)
	}

	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 4, resp.PromptTokens())
	assert.Equal(t, 2, resp.CompletionTokens())
	assert.Equal(t, 6, resp.TotalTokens())
}

func TestClaudeClient_NotConfigured(t *testing.T) {
	_, err := NewClaudeClient("").CreateMessage(context.Background(), ClaudeRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// =============================================================================
// RETRY POLICY
// =============================================================================

func TestCalculateBackoff(t *testing.T) {
	r := newRetrier(DefaultHTTPOptions(), nil)
	assert.Equal(t, 500*time.Millisecond, r.calculateBackoff(1))
	assert.Equal(t, time.Second, r.calculateBackoff(2))
	assert.Equal(t, 2*time.Second, r.calculateBackoff(3))
	assert.Equal(t, 8*time.Second, r.calculateBackoff(5))
	assert.Equal(t, 10*time.Second, r.calculateBackoff(6))
	assert.Equal(t, 10*time.Second, r.calculateBackoff(40))
}

func TestRetrier_StopsOnCancel(t *testing.T) {
	r := newRetrier(HTTPOptions{MaxRetries: 5}, nil)
	r.baseDelay = time.Hour
	r.maxDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := r.do(ctx, func(context.Context) error {
		calls++
		return &APIError{Status: http.StatusBadGateway}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetrier_RateLimiterBoundsAttempts(t *testing.T) {
	r := newRetrier(HTTPOptions{RequestsPerSecond: 1000, Burst: 1}, nil)
	err := r.do(context.Background(), func(context.Context) error { return nil })
	assert.NoError(t, err)
	require.NotNil(t, r.limiter)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&APIError{Status: 429}))
	assert.True(t, isRetryable(&APIError{Status: 500}))
	assert.True(t, isRetryable(&APIError{Status: 529}))
	assert.False(t, isRetryable(&APIError{Status: 400}))
	assert.False(t, isRetryable(&APIError{Status: 401}))
	assert.False(t, isRetryable(context.Canceled))
	assert.False(t, isRetryable(errors.New("boom")))
	assert.False(t, isRetryable(nil))
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "[not set]", maskKey(""))
	masked := maskKey("sk-ant-super-secret")
	assert.False(t, strings.Contains(masked, "secret"))
	assert.Contains(t, masked, "fingerprint="+keyFingerprint("sk-ant-super-secret"))
	assert.Len(t, keyFingerprint("x"), 8)
}
