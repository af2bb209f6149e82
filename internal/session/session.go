// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/macdroidapps/WorknoteChallenge/internal/cloud"
	"github.com/macdroidapps/WorknoteChallenge/internal/model"
	"github.com/macdroidapps/WorknoteChallenge/internal/tokens"
)

// DefaultMaxTokens is the max_tokens sent with every chat request.
const DefaultMaxTokens = 1000

// ErrClosed is reported by Send after Close.
var ErrClosed = errors.New("session closed")

// Sender performs one non-streaming chat request.
type Sender interface {
	SendMessage(ctx context.Context, req cloud.ChatRequest) (*cloud.ChatResponse, error)
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds configuration for a session.
type Config struct {
	// Model is the initially selected model (default DeepSeek).
	Model model.AiModel

	// ModelID overrides the model id sent to the remote API. Token limits
	// and pricing still come from Model. Used when the sender is not the
	// HuggingFace router.
	ModelID string

	// MaxTokens is sent as max_tokens (default 1000).
	MaxTokens int

	// ExpectedOutputTokens is the reply size assumed by the analysis (default 1024).
	ExpectedOutputTokens int

	// SystemPrompt, when set, is sent as the first message of every request
	// without being stored in the history.
	SystemPrompt string

	UserName string
	Logger   *zap.Logger

	// OnChange receives a snapshot after every state change. It is called
	// outside the session lock; snapshots carry a Version for ordering.
	OnChange func(State)

	// OnEffect receives one-shot effects. It is called outside the session lock.
	OnEffect func(Effect)
}

func (c *Config) setDefaults() {
	if !c.Model.Valid() {
		c.Model = model.DefaultAiModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.ExpectedOutputTokens <= 0 {
		c.ExpectedOutputTokens = tokens.DefaultExpectedOutputTokens
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// =============================================================================
// STATE
// =============================================================================

// Response holds the metrics of the most recent successful reply.
type Response struct {
	Elapsed      time.Duration
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Cost         float64
}

// Totals are the running session aggregates. They never decrease except
// on Clear.
type Totals struct {
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// State is a snapshot of a session. Slices and pointers are private copies.
type State struct {
	ID             string
	Version        uint64
	UserName       string
	Model          model.AiModel
	Messages       model.History
	CurrentMessage string
	// Analysis of CurrentMessage; nil when there is none.
	Analysis      *tokens.Analysis
	Loading       bool
	LastResponse  *Response
	Totals        Totals
	ShowTestPanel bool
}

// Forecast returns the behaviour forecast of the current analysis.
func (st State) Forecast() (tokens.Forecast, bool) {
	if st.Analysis == nil {
		return tokens.Forecast{}, false
	}
	return tokens.NewForecast(*st.Analysis), true
}

// =============================================================================
// SESSION
// =============================================================================

// Session is a single chat conversation. It is safe for concurrent use.
type Session struct {
	sender Sender
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	id       string
	version  uint64
	userName string
	model    model.AiModel
	history  model.History
	current  string
	analysis *tokens.Analysis
	loading  bool
	last     *Response
	totals   Totals
	panel    bool

	// gen identifies the send whose result may be applied. Bumped by every
	// Send and Clear; a result carrying an older generation is discarded.
	gen    uint64
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// New creates a session that sends through sender.
func New(sender Sender, cfg Config) *Session {
	cfg.setDefaults()
	id := uuid.NewString()
	return &Session{
		sender:   sender,
		cfg:      cfg,
		logger:   cfg.Logger.With(zap.String("session", id)),
		id:       id,
		userName: cfg.UserName,
		model:    cfg.Model,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// snapshotLocked copies the state. Caller must hold s.mu.
func (s *Session) snapshotLocked() State {
	st := State{
		ID:             s.id,
		Version:        s.version,
		UserName:       s.userName,
		Model:          s.model,
		Messages:       s.history.Clone(),
		CurrentMessage: s.current,
		Loading:        s.loading,
		Totals:         s.totals,
		ShowTestPanel:  s.panel,
	}
	if s.analysis != nil {
		a := *s.analysis
		st.Analysis = &a
	}
	if s.last != nil {
		r := *s.last
		st.LastResponse = &r
	}
	return st
}

// changedLocked bumps the version and returns what must be delivered once
// the lock is released. Caller must hold s.mu.
func (s *Session) changedLocked() func() {
	s.version++
	onChange := s.cfg.OnChange
	if onChange == nil {
		return func() {}
	}
	st := s.snapshotLocked()
	return func() { onChange(st) }
}

func (s *Session) emit(e Effect) {
	if s.cfg.OnEffect != nil {
		s.cfg.OnEffect(e)
	}
}

// =============================================================================
// SENDING
// =============================================================================

// Send appends text as a user message and requests a reply with the full
// history. Blank text is ignored. Any send still in flight is cancelled and
// its result discarded. The returned channel is closed once this send's
// result has been applied or discarded.
func (s *Session) Send(ctx context.Context, text string) <-chan struct{} {
	done := make(chan struct{})
	if strings.TrimSpace(text) == "" {
		close(done)
		return done
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(done)
		s.emit(Effect{Kind: EffectShowError, Message: ErrClosed.Error(), Err: ErrClosed})
		return done
	}

	s.history = s.history.Append(model.NewUserMessage(text))
	s.current = ""
	s.loading = true
	s.last = nil

	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	selected := s.model
	req := s.buildRequestLocked()
	s.wg.Add(1)
	notify := s.changedLocked()
	s.mu.Unlock()

	notify()
	s.logger.Debug("sending request",
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)),
		zap.Uint64("generation", gen))

	go s.run(reqCtx, cancel, gen, selected, req, done)
	return done
}

// buildRequestLocked builds the request for the current history. Caller must hold s.mu.
func (s *Session) buildRequestLocked() cloud.ChatRequest {
	modelID := s.cfg.ModelID
	if modelID == "" {
		modelID = s.model.ID()
	}
	messages := make([]cloud.ChatMessage, 0, s.history.Len()+1)
	if s.cfg.SystemPrompt != "" {
		messages = append(messages, cloud.NewSystemMessage(s.cfg.SystemPrompt))
	}
	for _, m := range s.history {
		messages = append(messages, cloud.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return cloud.ChatRequest{
		Model:     modelID,
		Messages:  messages,
		MaxTokens: s.cfg.MaxTokens,
		Stream:    false,
	}
}

func (s *Session) run(ctx context.Context, cancel context.CancelFunc, gen uint64, selected model.AiModel, req cloud.ChatRequest, done chan struct{}) {
	defer s.wg.Done()
	defer close(done)
	defer cancel()

	start := time.Now()
	resp, err := s.sender.SendMessage(ctx, req)
	elapsed := time.Since(start)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded response", zap.Uint64("generation", gen))
		return
	}
	s.cancel = nil
	s.loading = false

	if err != nil {
		s.analysis = nil
		notify := s.changedLocked()
		s.mu.Unlock()
		notify()

		if errors.Is(err, context.Canceled) {
			s.logger.Debug("request cancelled", zap.Uint64("generation", gen))
			return
		}
		s.logger.Warn("request failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		s.emit(Effect{Kind: EffectShowError, Message: errorMessage(err), Err: err})
		return
	}

	limits := selected.Limits()
	in, out := resp.PromptTokens(), resp.CompletionTokens()
	cost := limits.Cost(in, out)

	s.history = s.history.Append(model.NewAssistantMessage(resp.Content))
	s.last = &Response{
		Elapsed:      elapsed,
		InputTokens:  in,
		OutputTokens: out,
		TotalTokens:  resp.TotalTokens(),
		Cost:         cost,
	}
	s.totals.InputTokens += in
	s.totals.OutputTokens += out
	s.totals.Cost += cost
	s.analysis = nil
	notify := s.changedLocked()
	s.mu.Unlock()

	notify()
	s.logger.Info("request cost",
		zap.String("cost", tokens.FormatCost(cost)),
		zap.Int("input", in),
		zap.Int("output", out),
		zap.Duration("elapsed", elapsed))
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "request failed"
}

// =============================================================================
// STATE UPDATES
// =============================================================================

// UpdateCurrentMessage records the pending input and recomputes its analysis
// against the selected model and the current history. A warning is also
// delivered as EffectTokenWarning.
func (s *Session) UpdateCurrentMessage(text string) tokens.Analysis {
	s.mu.Lock()
	s.current = text
	a := s.analyzeLocked()
	notify := s.changedLocked()
	s.mu.Unlock()

	notify()
	if a.HasWarning() {
		s.emit(Effect{Kind: EffectTokenWarning, Message: a.Warning})
	}
	return a
}

// analyzeLocked analyses s.current and stores the result. Caller must hold s.mu.
func (s *Session) analyzeLocked() tokens.Analysis {
	a := tokens.Analyze(s.current, s.history.Contents(), s.model.Limits(),
		tokens.WithExpectedOutput(s.cfg.ExpectedOutputTokens))
	s.analysis = &a
	return a
}

// SelectModel changes the model used for subsequent sends and analyses.
// A pending input is re-analysed against the new limits.
func (s *Session) SelectModel(m model.AiModel) error {
	if !m.Valid() {
		return model.ErrUnknownModel
	}

	s.mu.Lock()
	s.model = m
	var a tokens.Analysis
	reanalysed := s.current != ""
	if reanalysed {
		a = s.analyzeLocked()
	}
	notify := s.changedLocked()
	s.mu.Unlock()

	notify()
	if reanalysed && a.HasWarning() {
		s.emit(Effect{Kind: EffectTokenWarning, Message: a.Warning})
	}
	return nil
}

// SetUserName sets the display name of the local user.
func (s *Session) SetUserName(name string) {
	s.mu.Lock()
	s.userName = name
	notify := s.changedLocked()
	s.mu.Unlock()
	notify()
}

// ToggleTestPanel flips the test panel visibility and returns the new value.
func (s *Session) ToggleTestPanel() bool {
	s.mu.Lock()
	s.panel = !s.panel
	shown := s.panel
	notify := s.changedLocked()
	s.mu.Unlock()
	notify()
	return shown
}

// Clear resets the history, response metrics, analysis and totals. A send in
// flight is cancelled and its result discarded.
func (s *Session) Clear() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.history = nil
	s.current = ""
	s.analysis = nil
	s.loading = false
	s.last = nil
	s.totals = Totals{}
	notify := s.changedLocked()
	s.mu.Unlock()

	notify()
	s.logger.Debug("session cleared")
}

// Close cancels any send in flight and waits for it to finish. Later sends
// are rejected with ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.loading = false
	s.mu.Unlock()

	s.wg.Wait()
}
