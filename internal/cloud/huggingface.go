// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultHuggingFaceURL is the OpenAI-compatible HuggingFace router endpoint.
const DefaultHuggingFaceURL = "https://router.huggingface.co/v1"

const providerHuggingFace = "HuggingFace"

// =============================================================================
// CLIENT
// =============================================================================

// HFClient sends chat completions through the HuggingFace router.
type HFClient struct {
	token      string
	baseURL    string
	httpClient *http.Client
	retry      *retrier
	logger     *zap.Logger
	api        *openai.Client
}

// NewHFClient creates a client for the HuggingFace router with the given
// access token. An empty token yields ErrNotConfigured on every request.
func NewHFClient(token string) *HFClient {
	opts := DefaultHTTPOptions()
	logger := zap.NewNop()
	c := &HFClient{
		token:      strings.TrimSpace(token),
		baseURL:    DefaultHuggingFaceURL,
		httpClient: NewHTTPClient(opts),
		retry:      newRetrier(opts, logger),
		logger:     logger,
	}
	c.rebuild()
	return c
}

// rebuild recreates the go-openai client after a setting changed.
func (c *HFClient) rebuild() {
	cfg := openai.DefaultConfig(c.token)
	cfg.BaseURL = c.baseURL
	cfg.HTTPClient = c.httpClient
	c.api = openai.NewClientWithConfig(cfg)
}

// WithBaseURL sets a custom base URL (the part before /chat/completions).
func (c *HFClient) WithBaseURL(url string) *HFClient {
	c.baseURL = strings.TrimSuffix(url, "/")
	c.rebuild()
	return c
}

// WithHTTPOptions rebuilds the transport and retry policy from opts.
func (c *HFClient) WithHTTPOptions(opts HTTPOptions) *HFClient {
	c.httpClient = NewHTTPClient(opts)
	c.retry = newRetrier(opts, c.logger)
	c.rebuild()
	return c
}

// WithHTTPClient replaces the HTTP client.
func (c *HFClient) WithHTTPClient(hc *http.Client) *HFClient {
	c.httpClient = hc
	c.rebuild()
	return c
}

// WithLogger sets the logger.
func (c *HFClient) WithLogger(logger *zap.Logger) *HFClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger.With(zap.String("provider", providerHuggingFace))
	c.retry.logger = c.logger
	return c
}

// IsConfigured returns true if the client has a token configured.
func (c *HFClient) IsConfigured() bool { return c.token != "" }

// APIKeyMasked returns a masked version of the token for display.
func (c *HFClient) APIKeyMasked() string { return maskKey(c.token) }

// SendMessage performs a non-streaming chat completion.
func (c *HFClient) SendMessage(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	apiReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		Stream:      false,
	}

	var resp openai.ChatCompletionResponse
	err := c.retry.do(ctx, func(ctx context.Context) error {
		start := time.Now()
		r, err := c.api.CreateChatCompletion(ctx, apiReq)
		c.logger.Debug("API response",
			zap.String("model", req.Model),
			zap.Duration("duration", time.Since(start)),
			zap.String("key", keyFingerprint(c.token)),
			zap.Bool("ok", err == nil))
		if err != nil {
			return c.convertError(err)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrEmptyResponse)
	}
	choice := resp.Choices[0]
	out := &ChatResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}
	if u := resp.Usage; u.PromptTokens != 0 || u.CompletionTokens != 0 || u.TotalTokens != 0 {
		out.Usage = &Usage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	return out, nil
}

// convertError maps go-openai errors onto *APIError so retry and sentinel
// checks work the same for both providers.
func (c *HFClient) convertError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		c.logger.Warn("API error",
			zap.Int("status", apiErr.HTTPStatusCode),
			zap.String("type", apiErr.Type),
			zap.String("key", keyFingerprint(c.token)))
		return &APIError{
			Provider: providerHuggingFace,
			Status:   apiErr.HTTPStatusCode,
			Type:     apiErr.Type,
			Message:  apiErr.Message,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		c.logger.Warn("API error",
			zap.Int("status", reqErr.HTTPStatusCode),
			zap.String("key", keyFingerprint(c.token)))
		msg := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &APIError{
			Provider: providerHuggingFace,
			Status:   reqErr.HTTPStatusCode,
			Message:  msg,
		}
	}

	return fmt.Errorf("request failed: %w", err)
}
