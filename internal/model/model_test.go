// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// AI MODEL TESTS
// =============================================================================

func TestAiModel_Identity(t *testing.T) {
	tests := []struct {
		model   AiModel
		id      string
		display string
	}{
		{DeepSeek, "deepseek-ai/DeepSeek-V3-0324", "DeepSeek V3"},
		{Qwen, "Qwen/Qwen3-235B-A22B", "Qwen3 235B"},
		{Llama, "dicta-il/DictaLM-3.0-24B-Thinking:publicai", "DictaLm 3.0"},
	}

	for _, tt := range tests {
		if got := tt.model.ID(); got != tt.id {
			t.Errorf("%v.ID() = %q, want %q", tt.model, got, tt.id)
		}
		if got := tt.model.DisplayName(); got != tt.display {
			t.Errorf("%v.DisplayName() = %q, want %q", tt.model, got, tt.display)
		}
	}
}

func TestAiModel_Limits(t *testing.T) {
	ds := DeepSeek.Limits()
	assert.Equal(t, 32000, ds.MaxInputTokens)
	assert.Equal(t, 8000, ds.MaxOutputTokens)
	assert.Equal(t, 40000, ds.MaxTotalTokens)
	assert.Equal(t, 0.00015, ds.CostPerInput)
	assert.Equal(t, 0.0006, ds.CostPerOutput)

	qw := Qwen.Limits()
	assert.Equal(t, 32000, qw.MaxInputTokens)
	assert.Equal(t, 0.0002, qw.CostPerInput)
	assert.Equal(t, 0.0008, qw.CostPerOutput)

	ll := Llama.Limits()
	assert.Equal(t, 8000, ll.MaxInputTokens)
	assert.Equal(t, 4000, ll.MaxOutputTokens)
	assert.Equal(t, 12000, ll.MaxTotalTokens)
	assert.Equal(t, 0.0001, ll.CostPerInput)
	assert.Equal(t, 0.0004, ll.CostPerOutput)

	for _, m := range AllAiModels() {
		l := m.Limits()
		assert.Positive(t, l.MaxInputTokens)
		assert.GreaterOrEqual(t, l.MaxTotalTokens, l.MaxInputTokens)
	}
}

func TestParseAiModel(t *testing.T) {
	for _, name := range []string{"qwen", "QWEN", " Qwen3 235B ", "Qwen/Qwen3-235B-A22B"} {
		m, err := ParseAiModel(name)
		require.NoError(t, err, name)
		assert.Equal(t, Qwen, m)
	}

	_, err := ParseAiModel("gpt-5")
	assert.True(t, errors.Is(err, ErrUnknownModel))
}

func TestAiModel_TextRoundTrip(t *testing.T) {
	b, err := Llama.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "llama", string(b))

	var m AiModel
	require.NoError(t, m.UnmarshalText([]byte("deepseek")))
	assert.Equal(t, DeepSeek, m)
	assert.Error(t, m.UnmarshalText([]byte("nope")))
}

func TestAiModel_Next(t *testing.T) {
	assert.Equal(t, Qwen, DeepSeek.Next())
	assert.Equal(t, Llama, Qwen.Next())
	assert.Equal(t, DeepSeek, Llama.Next())
}

func TestAiModel_Invalid(t *testing.T) {
	bad := AiModel(99)
	assert.False(t, bad.Valid())
	assert.Equal(t, "AiModel(99)", bad.String())
	assert.Equal(t, DeepSeek.ID(), bad.ID())
}

func TestResolveClaudeModel(t *testing.T) {
	assert.Equal(t, ClaudeSonnet45, ResolveClaudeModel("sonnet"))
	assert.Equal(t, ClaudeHaiku45, ResolveClaudeModel("Haiku"))
	assert.Equal(t, ClaudeSonnet4, ResolveClaudeModel("sonnet-4"))
	assert.Equal(t, DefaultClaudeModel, ResolveClaudeModel(""))
	assert.Equal(t, "claude-opus-x", ResolveClaudeModel("claude-opus-x"))
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestHistory_AppendDoesNotAlias(t *testing.T) {
	var h History
	h = h.Append(NewUserMessage("one"))
	snapshot := h

	h2 := h.Append(NewAssistantMessage("two"))
	h3 := h.Append(NewAssistantMessage("three"))

	assert.Equal(t, 1, snapshot.Len())
	assert.Equal(t, "two", h2[1].Content)
	assert.Equal(t, "three", h3[1].Content)
}

func TestHistory_Contents(t *testing.T) {
	h := History{}.Append(NewUserMessage("q"), NewAssistantMessage("a"))
	assert.Equal(t, []string{"q", "a"}, h.Contents())

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, RoleAssistant, last.Role)

	_, ok = History(nil).Last()
	assert.False(t, ok)
}

func TestHistory_EstimateTokens(t *testing.T) {
	h := History{}.Append(NewUserMessage("abcdefgh"))
	assert.Equal(t, 2+4, h.EstimateTokens())
}

func TestRole_DisplayName(t *testing.T) {
	assert.Equal(t, "You", RoleUser.DisplayName())
	assert.Equal(t, "Assistant", RoleAssistant.DisplayName())
	assert.Equal(t, "tool", Role("tool").DisplayName())
}
