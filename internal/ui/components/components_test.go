// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macdroidapps/WorknoteChallenge/internal/model"
	"github.com/macdroidapps/WorknoteChallenge/internal/session"
	"github.com/macdroidapps/WorknoteChallenge/internal/tokens"
	"github.com/macdroidapps/WorknoteChallenge/internal/ui/styles"
)

// =============================================================================
// TOASTS
// =============================================================================

func TestToastManager_NewestFirstAndCapped(t *testing.T) {
	m := NewToastManager()
	for _, msg := range []string{"a", "b", "c", "d"} {
		m.AddStatus(msg)
	}

	toasts := m.Toasts()
	require.Len(t, toasts, maxToasts)
	assert.Equal(t, "d", toasts[0].Message)
	assert.Equal(t, "b", toasts[len(toasts)-1].Message)
}

func TestToastManager_TickExpires(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewToastManager()
	m.now = func() time.Time { return now }

	m.AddStatus("info")
	m.AddError("boom")
	assert.Equal(t, 2, m.Len())

	now = now.Add(DefaultToastDuration)
	remaining := m.Tick()
	require.Len(t, remaining, 1)
	assert.Equal(t, ToastKindError, remaining[0].Kind)

	now = now.Add(ErrorToastDuration)
	assert.Empty(t, m.Tick())
}

func TestToastManager_Dismiss(t *testing.T) {
	m := NewToastManager()
	m.AddWarning("first")
	m.AddWarning("second")

	m.Dismiss()
	toasts := m.Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, "first", toasts[0].Message)

	m.Dismiss()
	m.Dismiss()
	assert.Zero(t, m.Len())
}

func TestRenderToastStack(t *testing.T) {
	m := NewToastManager()
	m.AddError("request failed")

	out := RenderToastStack(m.Toasts(), 80)
	assert.Contains(t, out, "request failed")
	assert.Contains(t, out, styles.StatusIndicators.Error)
	assert.Empty(t, RenderToastStack(nil, 80))
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "one two\nthree", wrapText("one two three", 8))
	assert.Equal(t, "слово слово\nслово", wrapText("слово слово слово", 11))
	assert.Equal(t, "unchanged", wrapText("unchanged", 0))
}

// =============================================================================
// PANELS
// =============================================================================

func testTheme() *styles.Theme { return styles.NewTheme() }

func TestTokenPanel_HiddenWithoutAnalysis(t *testing.T) {
	p := NewTokenPanel(testTheme())
	assert.False(t, p.Visible())
	assert.Empty(t, p.View())
}

func TestTokenPanel_View(t *testing.T) {
	a := tokens.Analyze("Привет, как дела?", nil, model.DeepSeek.Limits())
	p := NewTokenPanel(testTheme())
	p.Analysis = &a

	out := p.View()
	assert.Contains(t, out, "Token analysis")
	assert.Contains(t, out, tokens.FormatCount(a.EstimatedInputTokens))
	assert.Contains(t, out, "quality")

	p.ShowForecast = false
	assert.NotContains(t, p.View(), "quality")
}

func TestTokenPanel_ShowsWarning(t *testing.T) {
	limits := tokens.Limits{MaxInputTokens: 10, MaxOutputTokens: 10, MaxTotalTokens: 20}
	a := tokens.Analyze(strings.Repeat("длинное сообщение ", 40), nil, limits)
	require.True(t, a.HasWarning())

	p := NewTokenPanel(testTheme())
	p.Width = 200
	p.Analysis = &a
	assert.Contains(t, p.View(), styles.StatusIndicators.Warning)
}

func TestRenderBar(t *testing.T) {
	assert.Equal(t, "[#####-----]", RenderBar(50, 10, styles.Cyan))
	assert.Equal(t, "[##########]", RenderBar(150, 10, styles.Cyan))
	assert.Equal(t, "[----------]", RenderBar(-5, 10, styles.Cyan))
	assert.Empty(t, RenderBar(50, 0, styles.Cyan))
}

func TestStatusBar_View(t *testing.T) {
	s := NewStatusBar(testTheme())
	s.Model = model.DeepSeek
	assert.Contains(t, s.View(), "no messages")

	s.Stats = session.Stats{Messages: 2, InputTokens: 120, OutputTokens: 80, TotalTokens: 200, TotalCost: 0.0002}
	s.LastResponse = &session.Response{Elapsed: 1500 * time.Millisecond, TotalTokens: 200}
	s.Loading = true
	s.Spinner = "*"
	s.Width = 200

	out := s.View()
	assert.Contains(t, out, model.DeepSeek.DisplayName())
	assert.Contains(t, out, "waiting")
	assert.Contains(t, out, "last")
}

func TestTestPanel(t *testing.T) {
	p := NewTestPanel(testTheme())
	p.Model = model.DeepSeek

	tc, ok := p.Case("1")
	require.True(t, ok)
	assert.Equal(t, "short", tc.Key)

	_, ok = p.Case("x")
	assert.False(t, ok)
	_, ok = p.Case("9")
	assert.False(t, ok)

	out := p.View()
	assert.Contains(t, out, "Test cases")
	assert.Contains(t, out, tc.DisplayName)
}

// =============================================================================
// MESSAGES
// =============================================================================

type upperRenderer struct{ err error }

func (r upperRenderer) Render(in string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "\n" + strings.ToUpper(in) + "\n", nil
}

func TestRenderMessage(t *testing.T) {
	th := testTheme()

	user := RenderMessage(th, model.NewUserMessage("hello"), "Ivan", upperRenderer{}, 80)
	assert.Contains(t, user, "Ivan")
	assert.Contains(t, user, "hello")

	reply := RenderMessage(th, model.NewAssistantMessage("answer"), "", upperRenderer{}, 80)
	assert.Contains(t, reply, "ANSWER")

	raw := RenderMessage(th, model.NewAssistantMessage("answer"), "", upperRenderer{err: errors.New("x")}, 80)
	assert.Contains(t, raw, "answer")

	anon := RenderMessage(th, model.NewUserMessage("hi"), "", nil, 80)
	assert.Contains(t, anon, "You")
}
