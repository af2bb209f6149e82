// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/macdroidapps/WorknoteChallenge/internal/cloud"
	"github.com/macdroidapps/WorknoteChallenge/internal/model"
	"github.com/macdroidapps/WorknoteChallenge/internal/tokens"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// TEST DOUBLES
// =============================================================================

type result struct {
	resp *cloud.ChatResponse
	err  error
}

type call struct {
	ctx   context.Context
	req   cloud.ChatRequest
	reply chan result
}

func (c *call) succeed(content string, in, out int) {
	c.reply <- result{resp: &cloud.ChatResponse{
		Content: content,
		Usage:   &cloud.Usage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out},
	}}
}

func (c *call) fail(err error) {
	c.reply <- result{err: err}
}

// fakeSender hands every request to the test, which replies explicitly.
type fakeSender struct {
	calls chan *call
	// ignoreCancel makes the sender wait for a reply even after its
	// context is cancelled, so late results can be observed.
	ignoreCancel bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{calls: make(chan *call, 8)}
}

func (f *fakeSender) SendMessage(ctx context.Context, req cloud.ChatRequest) (*cloud.ChatResponse, error) {
	c := &call{ctx: ctx, req: req, reply: make(chan result, 1)}
	f.calls <- c
	if f.ignoreCancel {
		r := <-c.reply
		return r.resp, r.err
	}
	select {
	case r := <-c.reply:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeSender) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("no request was sent")
		return nil
	}
}

type recorder struct {
	mu      sync.Mutex
	effects []Effect
	states  []State
}

func (r *recorder) onEffect(e Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects = append(r.effects, e)
}

func (r *recorder) onChange(st State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, st)
}

func (r *recorder) Effects() []Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Effect(nil), r.effects...)
}

func newTestSession(t *testing.T, sender Sender, rec *recorder) *Session {
	t.Helper()
	cfg := Config{}
	if rec != nil {
		cfg.OnChange = rec.onChange
		cfg.OnEffect = rec.onEffect
	}
	s := New(sender, cfg)
	t.Cleanup(s.Close)
	return s
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("send did not complete")
	}
}

func contents(h model.History) []string { return h.Contents() }

// =============================================================================
// SEND
// =============================================================================

func TestSend_BlankIsIgnored(t *testing.T) {
	sender := newFakeSender()
	rec := &recorder{}
	s := newTestSession(t, sender, rec)

	for _, text := range []string{"", "   ", "\n\t"} {
		done := s.Send(context.Background(), text)
		select {
		case <-done:
		default:
			t.Fatalf("channel for %q should already be closed", text)
		}
	}

	st := s.State()
	assert.Empty(t, st.Messages)
	assert.False(t, st.Loading)
	assert.Zero(t, st.Version)
	assert.Empty(t, sender.calls)
}

func TestSend_Success(t *testing.T) {
	sender := newFakeSender()
	s := newTestSession(t, sender, nil)

	done := s.Send(context.Background(), "Привет")

	st := s.State()
	assert.True(t, st.Loading)
	assert.Equal(t, []string{"Привет"}, contents(st.Messages))

	c := sender.next(t)
	assert.Equal(t, model.DeepSeek.ID(), c.req.Model)
	assert.Equal(t, 1000, c.req.MaxTokens)
	assert.False(t, c.req.Stream)
	require.Len(t, c.req.Messages, 1)
	assert.Equal(t, cloud.RoleUser, c.req.Messages[0].Role)

	c.succeed("Здравствуйте!", 12, 30)
	wait(t, done)

	st = s.State()
	assert.False(t, st.Loading)
	assert.Nil(t, st.Analysis)
	assert.Equal(t, []string{"Привет", "Здравствуйте!"}, contents(st.Messages))
	assert.Equal(t, model.RoleAssistant, st.Messages[1].Role)

	limits := model.DeepSeek.Limits()
	wantCost := tokens.EstimateCost(12, 30, limits.CostPerInput, limits.CostPerOutput)

	require.NotNil(t, st.LastResponse)
	assert.Equal(t, 12, st.LastResponse.InputTokens)
	assert.Equal(t, 30, st.LastResponse.OutputTokens)
	assert.Equal(t, 42, st.LastResponse.TotalTokens)
	assert.InDelta(t, wantCost, st.LastResponse.Cost, 1e-12)
	assert.GreaterOrEqual(t, st.LastResponse.Elapsed, time.Duration(0))

	assert.Equal(t, Totals{InputTokens: 12, OutputTokens: 30, Cost: st.LastResponse.Cost}, st.Totals)
}

func TestSend_SendsFullHistory(t *testing.T) {
	sender := newFakeSender()
	s := newTestSession(t, sender, nil)

	done := s.Send(context.Background(), "one")
	sender.next(t).succeed("two", 1, 1)
	wait(t, done)

	done = s.Send(context.Background(), "three")
	c := sender.next(t)
	require.Len(t, c.req.Messages, 3)
	assert.Equal(t, "one", c.req.Messages[0].Content)
	assert.Equal(t, cloud.RoleAssistant, c.req.Messages[1].Role)
	assert.Equal(t, "three", c.req.Messages[2].Content)
	c.succeed("four", 1, 1)
	wait(t, done)
}

func TestSend_MissingUsageCountsZero(t *testing.T) {
	sender := newFakeSender()
	s := newTestSession(t, sender, nil)

	done := s.Send(context.Background(), "hi")
	sender.next(t).reply <- result{resp: &cloud.ChatResponse{Content: "hello"}}
	wait(t, done)

	st := s.State()
	require.NotNil(t, st.LastResponse)
	assert.Zero(t, st.LastResponse.InputTokens)
	assert.Zero(t, st.LastResponse.Cost)
	assert.Equal(t, Totals{}, st.Totals)
	assert.Len(t, st.Messages, 2)
}

func TestSend_FailureKeepsTotals(t *testing.T) {
	sender := newFakeSender()
	rec := &recorder{}
	s := newTestSession(t, sender, rec)

	done := s.Send(context.Background(), "first")
	sender.next(t).succeed("ok", 10, 20)
	wait(t, done)
	before := s.State().Totals

	s.UpdateCurrentMessage("second")
	done = s.Send(context.Background(), "second")
	sender.next(t).fail(cloud.ErrRateLimited)
	wait(t, done)

	st := s.State()
	assert.False(t, st.Loading)
	assert.Nil(t, st.Analysis)
	assert.Equal(t, before, st.Totals)
	assert.Equal(t, []string{"first", "ok", "second"}, contents(st.Messages))

	effects := rec.Effects()
	require.Len(t, effects, 1)
	assert.Equal(t, EffectShowError, effects[0].Kind)
	assert.ErrorIs(t, effects[0].Err, cloud.ErrRateLimited)
	assert.Equal(t, cloud.ErrRateLimited.Error(), effects[0].Message)
}

// TestSend_LaterSendSupersedesEarlier sends A then B before A completes. A's
// late result must be discarded and only B's reply and usage recorded.
func TestSend_LaterSendSupersedesEarlier(t *testing.T) {
	sender := newFakeSender()
	sender.ignoreCancel = true
	s := newTestSession(t, sender, nil)

	doneA := s.Send(context.Background(), "A")
	callA := sender.next(t)
	doneB := s.Send(context.Background(), "B")
	callB := sender.next(t)

	assert.Error(t, callA.ctx.Err(), "A's context should be cancelled")
	assert.NoError(t, callB.ctx.Err())
	assert.Equal(t, []string{"A", "B"}, []string{callB.req.Messages[0].Content, callB.req.Messages[1].Content})

	callA.succeed("reply A", 100, 100)
	wait(t, doneA)

	st := s.State()
	assert.True(t, st.Loading, "B is still in flight")
	assert.Equal(t, []string{"A", "B"}, contents(st.Messages))
	assert.Equal(t, Totals{}, st.Totals)
	assert.Nil(t, st.LastResponse)

	callB.succeed("reply B", 7, 3)
	wait(t, doneB)

	st = s.State()
	assert.False(t, st.Loading)
	assert.Equal(t, []string{"A", "B", "reply B"}, contents(st.Messages))
	assert.Equal(t, 7, st.Totals.InputTokens)
	assert.Equal(t, 3, st.Totals.OutputTokens)
}

func TestSend_CostUsesModelAtSendTime(t *testing.T) {
	sender := newFakeSender()
	s := newTestSession(t, sender, nil)

	done := s.Send(context.Background(), "hi")
	c := sender.next(t)
	require.NoError(t, s.SelectModel(model.Llama))
	c.succeed("hello", 1000, 1000)
	wait(t, done)

	deepSeek := model.DeepSeek.Limits()
	want := tokens.EstimateCost(1000, 1000, deepSeek.CostPerInput, deepSeek.CostPerOutput)
	assert.InDelta(t, want, s.State().LastResponse.Cost, 1e-12)
	assert.Equal(t, model.Llama, s.State().Model)
}

func TestSend_TotalsAccumulate(t *testing.T) {
	sender := newFakeSender()
	s := newTestSession(t, sender, nil)

	var prev Totals
	for i, usage := range [][2]int{{10, 5}, {20, 15}, {7, 1}} {
		done := s.Send(context.Background(), strings.Repeat("x", i+1))
		sender.next(t).succeed("ok", usage[0], usage[1])
		wait(t, done)

		cur := s.State().Totals
		assert.GreaterOrEqual(t, cur.InputTokens, prev.InputTokens)
		assert.GreaterOrEqual(t, cur.OutputTokens, prev.OutputTokens)
		assert.GreaterOrEqual(t, cur.Cost, prev.Cost)
		prev = cur
	}
	assert.Equal(t, 37, prev.InputTokens)
	assert.Equal(t, 21, prev.OutputTokens)
}

func TestSend_SystemPromptAndModelOverride(t *testing.T) {
	sender := newFakeSender()
	s := New(sender, Config{ModelID: model.ClaudeSonnet45, SystemPrompt: "Be brief."})
	defer s.Close()

	done := s.Send(context.Background(), "hi")
	c := sender.next(t)
	assert.Equal(t, model.ClaudeSonnet45, c.req.Model)
	require.Len(t, c.req.Messages, 2)
	assert.Equal(t, cloud.RoleSystem, c.req.Messages[0].Role)
	c.succeed("ok", 1, 1)
	wait(t, done)

	assert.Len(t, s.State().Messages, 2, "system prompt is not stored")
}

func TestSend_CancelledByCaller(t *testing.T) {
	sender := newFakeSender()
	rec := &recorder{}
	s := newTestSession(t, sender, rec)

	ctx, cancel := context.WithCancel(context.Background())
	done := s.Send(ctx, "hi")
	sender.next(t)
	cancel()
	wait(t, done)

	assert.False(t, s.State().Loading)
	assert.Empty(t, rec.Effects(), "cancellation is not reported as an error")
}

// =============================================================================
// CLEAR / CLOSE
// =============================================================================

func TestClear_ResetsEverything(t *testing.T) {
	sender := newFakeSender()
	s := newTestSession(t, sender, nil)

	done := s.Send(context.Background(), "hi")
	sender.next(t).succeed("hello", 10, 10)
	wait(t, done)
	s.UpdateCurrentMessage("draft")
	s.SetUserName("Ivan")

	s.Clear()

	st := s.State()
	assert.Empty(t, st.Messages)
	assert.Empty(t, st.CurrentMessage)
	assert.Nil(t, st.Analysis)
	assert.Nil(t, st.LastResponse)
	assert.Equal(t, Totals{}, st.Totals)
	assert.Equal(t, "Ivan", st.UserName)
	assert.True(t, s.Stats().Empty())
}

func TestClear_DiscardsInFlightResult(t *testing.T) {
	sender := newFakeSender()
	sender.ignoreCancel = true
	s := newTestSession(t, sender, nil)

	done := s.Send(context.Background(), "hi")
	c := sender.next(t)
	s.Clear()
	assert.Error(t, c.ctx.Err())

	c.succeed("late", 50, 50)
	wait(t, done)

	st := s.State()
	assert.Empty(t, st.Messages)
	assert.False(t, st.Loading)
	assert.Equal(t, Totals{}, st.Totals)
}

func TestClose_RejectsSends(t *testing.T) {
	sender := newFakeSender()
	rec := &recorder{}
	s := New(sender, Config{OnEffect: rec.onEffect})

	done := s.Send(context.Background(), "hi")
	sender.next(t)
	s.Close()
	wait(t, done)

	wait(t, s.Send(context.Background(), "again"))
	effects := rec.Effects()
	require.NotEmpty(t, effects)
	assert.True(t, errors.Is(effects[len(effects)-1].Err, ErrClosed))
}

// =============================================================================
// ANALYSIS
// =============================================================================

func TestUpdateCurrentMessage_Warning(t *testing.T) {
	rec := &recorder{}
	s := New(newFakeSender(), Config{Model: model.Llama, OnEffect: rec.onEffect})
	defer s.Close()

	a := s.UpdateCurrentMessage(strings.Repeat("a", 30_000))
	assert.Equal(t, 7504, a.EstimatedInputTokens)
	assert.True(t, a.WithinLimits)
	assert.Equal(t, "critical limit usage: 93%", a.Warning)

	st := s.State()
	require.NotNil(t, st.Analysis)
	assert.Equal(t, a, *st.Analysis)

	effects := rec.Effects()
	require.Len(t, effects, 1)
	assert.Equal(t, EffectTokenWarning, effects[0].Kind)
	assert.Equal(t, a.Warning, effects[0].Message)

	f, ok := st.Forecast()
	require.True(t, ok)
	assert.Equal(t, tokens.StatusCritical, f.Status)
}

func TestUpdateCurrentMessage_UsesHistory(t *testing.T) {
	sender := newFakeSender()
	s := newTestSession(t, sender, nil)

	done := s.Send(context.Background(), strings.Repeat("b", 400))
	sender.next(t).succeed(strings.Repeat("c", 400), 1, 1)
	wait(t, done)

	a := s.UpdateCurrentMessage("dddd")
	// two history messages of 100 tokens plus the input, 4 overhead each.
	assert.Equal(t, 100+4+100+4+1+4, a.EstimatedInputTokens)
}

func TestSelectModel_Reanalyses(t *testing.T) {
	rec := &recorder{}
	s := New(newFakeSender(), Config{OnEffect: rec.onEffect})
	defer s.Close()

	a := s.UpdateCurrentMessage(strings.Repeat("a", 28_000))
	assert.False(t, a.HasWarning())

	require.NoError(t, s.SelectModel(model.Llama))
	st := s.State()
	require.NotNil(t, st.Analysis)
	assert.Equal(t, 8000, st.Analysis.MaxInputTokens)
	assert.Equal(t, "high limit usage: 87%", st.Analysis.Warning)

	effects := rec.Effects()
	require.Len(t, effects, 1)
	assert.Equal(t, EffectTokenWarning, effects[0].Kind)

	assert.ErrorIs(t, s.SelectModel(model.AiModel(42)), model.ErrUnknownModel)
}

// =============================================================================
// EVENTS
// =============================================================================

func TestDispatch(t *testing.T) {
	sender := newFakeSender()
	rec := &recorder{}
	s := newTestSession(t, sender, rec)
	ctx := context.Background()

	wait(t, s.Dispatch(ctx, EventSetUserName{Name: "Анна"}))
	wait(t, s.Dispatch(ctx, EventToggleTestPanel{}))
	wait(t, s.Dispatch(ctx, EventSelectModel{Model: model.Qwen}))
	wait(t, s.Dispatch(ctx, EventUpdateCurrentMessage{Text: "draft"}))

	st := s.State()
	assert.Equal(t, "Анна", st.UserName)
	assert.True(t, st.ShowTestPanel)
	assert.Equal(t, model.Qwen, st.Model)
	assert.Equal(t, "draft", st.CurrentMessage)

	done := s.Dispatch(ctx, EventSendTestCase{Message: "test case"})
	c := sender.next(t)
	assert.Equal(t, model.Qwen.ID(), c.req.Model)
	c.succeed("ok", 1, 1)
	wait(t, done)
	assert.Empty(t, s.State().CurrentMessage)

	wait(t, s.Dispatch(ctx, EventClearChat{}))
	assert.Empty(t, s.State().Messages)

	wait(t, s.Dispatch(ctx, EventSelectModel{Model: model.AiModel(-1)}))
	effects := rec.Effects()
	require.NotEmpty(t, effects)
	assert.Equal(t, EffectShowError, effects[len(effects)-1].Kind)
}

func TestOnChange_VersionsIncrease(t *testing.T) {
	sender := newFakeSender()
	rec := &recorder{}
	s := newTestSession(t, sender, rec)

	done := s.Send(context.Background(), "hi")
	sender.next(t).succeed("ok", 1, 1)
	wait(t, done)
	s.ToggleTestPanel()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.states, 3)
	seen := map[uint64]bool{}
	for _, st := range rec.states {
		assert.False(t, seen[st.Version], "duplicate version %d", st.Version)
		seen[st.Version] = true
	}
	assert.Equal(t, uint64(3), s.State().Version)
}

func TestState_IsACopy(t *testing.T) {
	sender := newFakeSender()
	s := newTestSession(t, sender, nil)

	done := s.Send(context.Background(), "hi")
	sender.next(t).succeed("ok", 1, 1)
	wait(t, done)

	st := s.State()
	st.Messages[0].Content = "mutated"
	st.LastResponse.InputTokens = 999
	assert.Equal(t, "hi", s.State().Messages[0].Content)
	assert.Equal(t, 1, s.State().LastResponse.InputTokens)
}
