// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/macdroidapps/WorknoteChallenge/internal/cloud"
	"github.com/macdroidapps/WorknoteChallenge/internal/model"
)

// Defaults for weather requests.
const (
	DefaultMaxTokens   = 500
	DefaultConcurrency = 3
)

// SystemPrompt constrains the model to a single JSON object.
const SystemPrompt = `You are a weather service. Reply ONLY with one JSON object and nothing else:
{"city": "<city name as the user wrote it>", "temperature": <current temperature in Celsius as a number>}
Do not add explanations, Markdown or code fences. If the city is ambiguous, pick the most populous one.`

// ErrEmptyResponse is returned when the model replied without text.
var ErrEmptyResponse = errors.New("empty response")

// Messenger sends one Messages API request. *cloud.ClaudeClient implements it.
type Messenger interface {
	CreateMessage(ctx context.Context, req cloud.ClaudeRequest) (*cloud.ClaudeResponse, error)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client asks the model for weather reports.
type Client struct {
	api         Messenger
	model       string
	maxTokens   int
	concurrency int
	logger      *zap.Logger
}

// NewClient creates a weather client on top of api.
func NewClient(api Messenger) *Client {
	return &Client{
		api:         api,
		model:       model.DefaultClaudeModel,
		maxTokens:   DefaultMaxTokens,
		concurrency: DefaultConcurrency,
		logger:      zap.NewNop(),
	}
}

// WithModel sets the Claude model; short names resolve.
func (c *Client) WithModel(name string) *Client {
	if name != "" {
		c.model = model.ResolveClaudeModel(name)
	}
	return c
}

// WithMaxTokens sets max_tokens.
func (c *Client) WithMaxTokens(n int) *Client {
	if n > 0 {
		c.maxTokens = n
	}
	return c
}

// WithConcurrency bounds parallel lookups.
func (c *Client) WithConcurrency(n int) *Client {
	if n > 0 {
		c.concurrency = n
	}
	return c
}

// WithLogger sets the logger.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// complete sends messages and returns the raw reply text.
func (c *Client) complete(ctx context.Context, messages []cloud.ChatMessage) (*cloud.ClaudeResponse, error) {
	resp, err := c.api.CreateMessage(ctx, cloud.ClaudeRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  messages,
		System:    SystemPrompt,
	})
	if err != nil {
		return nil, err
	}
	if resp.Text() == "" {
		return nil, ErrEmptyResponse
	}
	return resp, nil
}

// Ask performs a single-turn lookup for question.
func (c *Client) Ask(ctx context.Context, question string) (Report, error) {
	resp, err := c.complete(ctx, []cloud.ChatMessage{cloud.NewUserMessage(question)})
	if err != nil {
		return Report{}, err
	}
	return Parse(resp.Text())
}

// =============================================================================
// CONCURRENT LOOKUP
// =============================================================================

// LookupResult is the outcome for one city.
type LookupResult struct {
	City   string  `json:"city" yaml:"city"`
	Report *Report `json:"report,omitempty" yaml:"report,omitempty"`
	Err    error   `json:"-" yaml:"-"`
}

// Question returns the prompt used for a city lookup.
func Question(city string) string {
	return fmt.Sprintf("Какая сейчас погода в городе %s?", city)
}

// Lookup queries every city concurrently, at most WithConcurrency at a time.
// Results keep the input order. Per-city failures are reported in the
// result; the returned error is non-nil only when ctx ends.
func (c *Client) Lookup(ctx context.Context, cities []string) ([]LookupResult, error) {
	results := make([]LookupResult, len(cities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, city := range cities {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = LookupResult{City: city, Err: err}
				return err
			}
			report, err := c.Ask(gctx, Question(city))
			if err != nil {
				c.logger.Warn("weather lookup failed", zap.String("city", city), zap.Error(err))
				results[i] = LookupResult{City: city, Err: err}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return nil
			}
			results[i] = LookupResult{City: city, Report: &report}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// =============================================================================
// CONVERSATION
// =============================================================================

// Turn is one message of a weather conversation.
type Turn struct {
	Role    model.Role
	Content string
	// Report is the parsed answer on assistant turns.
	Report *Report
}

// Conversation is a multi-turn weather chat. Follow-up questions see the
// earlier questions and answers. It is safe for concurrent use; asks are
// serialised.
type Conversation struct {
	client *Client

	mu    sync.Mutex
	turns []Turn
}

// NewConversation starts an empty conversation.
func (c *Client) NewConversation() *Conversation {
	return &Conversation{client: c}
}

// Ask appends question, sends the whole conversation and records the
// parsed answer. On failure only the question remains in the history.
func (cv *Conversation) Ask(ctx context.Context, question string) (Report, error) {
	cv.mu.Lock()
	defer cv.mu.Unlock()

	cv.turns = append(cv.turns, Turn{Role: model.RoleUser, Content: question})
	messages := make([]cloud.ChatMessage, len(cv.turns))
	for i, t := range cv.turns {
		messages[i] = cloud.ChatMessage{Role: string(t.Role), Content: t.Content}
	}

	resp, err := cv.client.complete(ctx, messages)
	if err != nil {
		return Report{}, err
	}
	report, err := Parse(resp.Text())
	if err != nil {
		return Report{}, err
	}

	role := model.RoleAssistant
	if resp.Role != "" {
		role = model.Role(resp.Role)
	}
	cv.turns = append(cv.turns, Turn{Role: role, Content: resp.Text(), Report: &report})
	cv.client.logger.Debug("parsed weather response",
		zap.String("city", report.City),
		zap.Float64("temperature", report.Temperature))
	return report, nil
}

// Turns returns a copy of the conversation.
func (cv *Conversation) Turns() []Turn {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	out := make([]Turn, len(cv.turns))
	copy(out, cv.turns)
	return out
}
