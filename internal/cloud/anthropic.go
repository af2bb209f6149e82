// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/macdroidapps/WorknoteChallenge/internal/model"
)

// Configuration constants for the Anthropic Messages API.
const (
	// DefaultAnthropicURL is the base URL for the Anthropic API.
	DefaultAnthropicURL = "https://api.anthropic.com"

	// DefaultAnthropicVersion is sent as the anthropic-version header.
	DefaultAnthropicVersion = "2023-06-01"

	// DefaultClaudeMaxTokens is used when a request leaves max_tokens unset.
	DefaultClaudeMaxTokens = 1024

	// DefaultClaudeTemperature is used when a request leaves temperature unset.
	DefaultClaudeTemperature = 1.0

	providerAnthropic = "Anthropic"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// ClaudeRequest is the body of POST /v1/messages.
type ClaudeRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	// System is the top-level system prompt; omitted when empty.
	System string `json:"system,omitempty"`
}

// ContentBlock is one element of a Claude response's content array.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ClaudeUsage is the token accounting of a Claude response.
type ClaudeUsage struct {
	InputTokens              int    `json:"input_tokens"`
	OutputTokens             int    `json:"output_tokens"`
	CacheCreationInputTokens int    `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int    `json:"cache_read_input_tokens,omitempty"`
	ServiceTier              string `json:"service_tier,omitempty"`
}

// ClaudeResponse is a successful Messages API response.
type ClaudeResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Model        string         `json:"model"`
	Content      []ContentBlock `json:"content"`
	StopReason   string         `json:"stop_reason"`
	StopSequence *string        `json:"stop_sequence"`
	Usage        *ClaudeUsage   `json:"usage,omitempty"`
}

// Text concatenates the text blocks of the response.
func (r *ClaudeResponse) Text() string {
	var sb strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// claudeErrorResponse is the error body returned by the Messages API.
type claudeErrorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// ClaudeClient is a client for the Anthropic Messages API.
type ClaudeClient struct {
	apiKey      string
	baseURL     string
	version     string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
	retry       *retrier
	logger      *zap.Logger
}

// NewClaudeClient creates a client with the given API key.
//
// If the API key is empty, the client is still created but every request
// fails with ErrNotConfigured.
func NewClaudeClient(apiKey string) *ClaudeClient {
	opts := DefaultHTTPOptions()
	logger := zap.NewNop()
	return &ClaudeClient{
		apiKey:      strings.TrimSpace(apiKey),
		baseURL:     DefaultAnthropicURL,
		version:     DefaultAnthropicVersion,
		model:       model.DefaultClaudeModel,
		maxTokens:   DefaultClaudeMaxTokens,
		temperature: DefaultClaudeTemperature,
		httpClient:  NewHTTPClient(opts),
		retry:       newRetrier(opts, logger),
		logger:      logger,
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *ClaudeClient) WithBaseURL(url string) *ClaudeClient {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// WithVersion sets the anthropic-version header.
func (c *ClaudeClient) WithVersion(version string) *ClaudeClient {
	if version != "" {
		c.version = version
	}
	return c
}

// WithModel sets the default model. Short names such as "sonnet" resolve.
func (c *ClaudeClient) WithModel(name string) *ClaudeClient {
	if name != "" {
		c.model = model.ResolveClaudeModel(name)
	}
	return c
}

// WithMaxTokens sets the default max_tokens.
func (c *ClaudeClient) WithMaxTokens(n int) *ClaudeClient {
	if n > 0 {
		c.maxTokens = n
	}
	return c
}

// WithTemperature sets the default temperature.
func (c *ClaudeClient) WithTemperature(t float64) *ClaudeClient {
	c.temperature = t
	return c
}

// WithHTTPOptions rebuilds the transport and retry policy from opts.
func (c *ClaudeClient) WithHTTPOptions(opts HTTPOptions) *ClaudeClient {
	c.httpClient = NewHTTPClient(opts)
	c.retry = newRetrier(opts, c.logger)
	return c
}

// WithHTTPClient replaces the HTTP client.
func (c *ClaudeClient) WithHTTPClient(hc *http.Client) *ClaudeClient {
	c.httpClient = hc
	return c
}

// WithLogger sets the logger.
func (c *ClaudeClient) WithLogger(logger *zap.Logger) *ClaudeClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger.With(zap.String("provider", providerAnthropic))
	c.retry.logger = c.logger
	return c
}

// Model returns the default model id.
func (c *ClaudeClient) Model() string { return c.model }

// IsConfigured returns true if the client has an API key configured.
func (c *ClaudeClient) IsConfigured() bool { return c.apiKey != "" }

// APIKeyMasked returns a masked version of the API key for display.
func (c *ClaudeClient) APIKeyMasked() string { return maskKey(c.apiKey) }

// CreateMessage sends a Messages API request. Unset model, max_tokens and
// temperature take the client defaults.
func (c *ClaudeClient) CreateMessage(ctx context.Context, req ClaudeRequest) (*ClaudeResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if req.Model == "" {
		req.Model = c.model
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = c.maxTokens
	}
	if req.Temperature == 0 {
		req.Temperature = c.temperature
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var out *ClaudeResponse
	err = c.retry.do(ctx, func(ctx context.Context) error {
		resp, err := c.doRequest(ctx, body)
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// doRequest performs a single HTTP request to the messages endpoint.
func (c *ClaudeClient) doRequest(ctx context.Context, body []byte) (*ClaudeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", c.version)
	req.Header.Set("content-type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("API response",
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.String("key", keyFingerprint(c.apiKey)))

	data, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, data)
	}

	var out ClaudeResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &out, nil
}

// handleErrorResponse converts HTTP error responses to an *APIError.
func (c *ClaudeClient) handleErrorResponse(statusCode int, body []byte) error {
	apiErr := &APIError{Provider: providerAnthropic, Status: statusCode}

	var parsed claudeErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Type = parsed.Error.Type
		apiErr.Message = parsed.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(statusCode)
		}
	}

	c.logger.Warn("API error",
		zap.Int("status", statusCode),
		zap.String("type", apiErr.Type),
		zap.String("key", keyFingerprint(c.apiKey)))
	return apiErr
}

// =============================================================================
// SENDER ADAPTER
// =============================================================================

// ClaudeSender adapts a ClaudeClient to the provider-neutral chat contract.
type ClaudeSender struct {
	client *ClaudeClient
	system string
}

// AsSender returns an adapter whose SendMessage speaks ChatRequest/ChatResponse.
// system is prepended to any system messages found in the request.
func (c *ClaudeClient) AsSender(system string) *ClaudeSender {
	return &ClaudeSender{client: c, system: system}
}

// SendMessage sends req through the Messages API. System messages are lifted
// into the top-level system prompt, which the Messages API requires.
func (s *ClaudeSender) SendMessage(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var system []string
	if s.system != "" {
		system = append(system, s.system)
	}
	messages := make([]ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		messages = append(messages, m)
	}

	modelID := req.Model
	if modelID != "" {
		modelID = model.ResolveClaudeModel(modelID)
	}
	resp, err := s.client.CreateMessage(ctx, ClaudeRequest{
		Model:       modelID,
		MaxTokens:   req.MaxTokens,
		Messages:    messages,
		Temperature: req.Temperature,
		System:      strings.Join(system, "\n\n"),
	})
	if err != nil {
		return nil, err
	}

	out := &ChatResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      resp.Text(),
		FinishReason: resp.StopReason,
	}
	if resp.Usage != nil {
		out.Usage = &Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		}
	}
	return out, nil
}
