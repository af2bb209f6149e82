// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tokens

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deepSeekLimits = Limits{
	MaxInputTokens:  32000,
	MaxOutputTokens: 8000,
	MaxTotalTokens:  40000,
	CostPerInput:    0.00015,
	CostPerOutput:   0.0006,
}

func TestAnalyze_ShortPromptFresh(t *testing.T) {
	a := Analyze("Привет! Расскажи мне интересный факт о программировании.", nil, deepSeekLimits)

	assert.Equal(t, 25, a.EstimatedInputTokens)
	assert.Equal(t, DefaultExpectedOutputTokens, a.EstimatedOutputTokens)
	assert.Equal(t, 25+1024, a.EstimatedTotalTokens)
	assert.Equal(t, UsageLow, a.UsageLevel)
	assert.True(t, a.WithinLimits)
	assert.False(t, a.HasWarning())
	assert.Equal(t, 32000, a.MaxInputTokens)
	assert.Equal(t, 8000, a.MaxOutputTokens)
	assert.Equal(t, 40000, a.MaxTotalTokens)
	assert.InDelta(t, 25*0.00015+1024*0.0006, a.EstimatedCost, 1e-9)
}

func TestAnalyze_IncludesHistory(t *testing.T) {
	history := []string{strings.Repeat("x", 40), strings.Repeat("я", 25)}
	a := Analyze("abcd", history, deepSeekLimits)

	// 10+4, 10+4, 1+4
	assert.Equal(t, 33, a.EstimatedInputTokens)
}

func TestAnalyze_InputLimitExceeded(t *testing.T) {
	history := []string{strings.Repeat("a", 4*32000)}
	a := Analyze("hi", history, deepSeekLimits)

	require.Equal(t, 32009, a.EstimatedInputTokens)
	assert.False(t, a.WithinLimits)
	assert.Equal(t, UsageCritical, a.UsageLevel)
	assert.Equal(t, "input token limit exceeded: 32009 > 32000", a.Warning)
}

func TestAnalyze_InputLimitWinsOverTotal(t *testing.T) {
	limits := Limits{MaxInputTokens: 10, MaxOutputTokens: 5, MaxTotalTokens: 12}
	a := Analyze(strings.Repeat("x", 400), nil, limits)

	assert.True(t, strings.HasPrefix(a.Warning, "input token limit exceeded"))
	assert.False(t, a.WithinLimits)
}

func TestAnalyze_TotalLimitExceeded(t *testing.T) {
	limits := Limits{MaxInputTokens: 100, MaxOutputTokens: 50, MaxTotalTokens: 120}
	a := Analyze(strings.Repeat("x", 40), nil, limits)

	assert.Equal(t, 14, a.EstimatedInputTokens)
	assert.Equal(t, UsageLow, a.UsageLevel)
	assert.False(t, a.WithinLimits)
	assert.Equal(t, "total token limit exceeded: 1038 > 120", a.Warning)
}

func TestAnalyze_UsageWarnings(t *testing.T) {
	tests := []struct {
		name    string
		chars   int
		max     int
		level   UsageLevel
		warning string
	}{
		{"critical", 364, 100, UsageCritical, "critical limit usage: 95%"},
		{"critical truncates", 1084, 300, UsageCritical, "critical limit usage: 91%"},
		{"high", 304, 100, UsageHigh, "high limit usage: 80%"},
		{"medium has none", 240, 100, UsageMedium, ""},
		{"low has none", 40, 100, UsageLow, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limits := Limits{MaxInputTokens: tt.max, MaxOutputTokens: 4000, MaxTotalTokens: 100000}
			a := Analyze(strings.Repeat("x", tt.chars), nil, limits)

			assert.Equal(t, tt.level, a.UsageLevel)
			assert.True(t, a.WithinLimits)
			assert.Equal(t, tt.warning, a.Warning)
		})
	}
}

func TestAnalyze_ExpectedOutputOverride(t *testing.T) {
	a := Analyze("hello", nil, deepSeekLimits, WithExpectedOutput(0))

	assert.Equal(t, 0, a.EstimatedOutputTokens)
	assert.Equal(t, a.EstimatedInputTokens, a.EstimatedTotalTokens)
}

func TestAnalyze_Invariants(t *testing.T) {
	inputs := []string{"", "a", strings.Repeat("ж", 1000), strings.Repeat("w", 200000)}
	for _, in := range inputs {
		a := Analyze(in, []string{"previous"}, deepSeekLimits)
		assert.Equal(t, a.EstimatedInputTokens+a.EstimatedOutputTokens, a.EstimatedTotalTokens)
		assert.Equal(t,
			a.EstimatedInputTokens <= a.MaxInputTokens && a.EstimatedTotalTokens <= a.MaxTotalTokens,
			a.WithinLimits)
		assert.Equal(t, Usage(a.EstimatedInputTokens, a.MaxInputTokens), a.UsageLevel)
		if a.EstimatedInputTokens > a.MaxInputTokens {
			assert.Contains(t, a.Warning, "input token limit exceeded")
		}
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	history := []string{"Привет", "Hello there, how can I help?"}
	first := Analyze("Tell me about Go", history, deepSeekLimits)
	second := Analyze("Tell me about Go", history, deepSeekLimits)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Analyze not idempotent (-first +second):\n%s", diff)
	}
}

func TestAnalyze_DoesNotMutateHistory(t *testing.T) {
	history := make([]string, 1, 4)
	history[0] = "kept"
	Analyze("new", history, deepSeekLimits)

	assert.Equal(t, []string{"kept"}, history)
	assert.Equal(t, "", history[:2][1])
}
