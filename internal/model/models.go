// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/macdroidapps/WorknoteChallenge/internal/tokens"
)

// ErrUnknownModel is returned when a model name cannot be resolved.
var ErrUnknownModel = errors.New("unknown model")

// =============================================================================
// AI MODEL
// =============================================================================

// AiModel identifies a chat model reachable through the HuggingFace router.
type AiModel int

const (
	// DeepSeek is DeepSeek V3. It is the default selection.
	DeepSeek AiModel = iota
	// Qwen is Qwen3 235B.
	Qwen
	// Llama is DictaLM 3.0 (the small-context model).
	Llama
)

// DefaultAiModel is selected in a fresh session.
const DefaultAiModel = DeepSeek

type aiModelInfo struct {
	key         string
	id          string
	displayName string
	limits      tokens.Limits
}

var aiModels = [...]aiModelInfo{
	DeepSeek: {
		key:         "deepseek",
		id:          "deepseek-ai/DeepSeek-V3-0324",
		displayName: "DeepSeek V3",
		limits: tokens.Limits{
			MaxInputTokens:  32_000,
			MaxOutputTokens: 8_000,
			MaxTotalTokens:  40_000,
			CostPerInput:    0.00015,
			CostPerOutput:   0.0006,
		},
	},
	Qwen: {
		key:         "qwen",
		id:          "Qwen/Qwen3-235B-A22B",
		displayName: "Qwen3 235B",
		limits: tokens.Limits{
			MaxInputTokens:  32_000,
			MaxOutputTokens: 8_000,
			MaxTotalTokens:  40_000,
			CostPerInput:    0.0002,
			CostPerOutput:   0.0008,
		},
	},
	Llama: {
		key:         "llama",
		id:          "dicta-il/DictaLM-3.0-24B-Thinking:publicai",
		displayName: "DictaLm 3.0",
		limits: tokens.Limits{
			MaxInputTokens:  8_000,
			MaxOutputTokens: 4_000,
			MaxTotalTokens:  12_000,
			CostPerInput:    0.0001,
			CostPerOutput:   0.0004,
		},
	},
}

// AllAiModels returns every selectable model in menu order.
func AllAiModels() []AiModel {
	return []AiModel{DeepSeek, Qwen, Llama}
}

func (m AiModel) info() aiModelInfo {
	if m < 0 || int(m) >= len(aiModels) {
		return aiModels[DefaultAiModel]
	}
	return aiModels[m]
}

// Valid reports whether m is one of the defined models.
func (m AiModel) Valid() bool {
	return m >= 0 && int(m) < len(aiModels)
}

// ID returns the remote model identifier sent to the router.
func (m AiModel) ID() string { return m.info().id }

// DisplayName returns the name shown in the UI.
func (m AiModel) DisplayName() string { return m.info().displayName }

// Key returns the short lowercase name used in config and on the command line.
func (m AiModel) Key() string { return m.info().key }

// String implements fmt.Stringer.
func (m AiModel) String() string {
	if !m.Valid() {
		return fmt.Sprintf("AiModel(%d)", int(m))
	}
	return m.info().displayName
}

// Limits returns the token ceilings and prices of m.
func (m AiModel) Limits() tokens.Limits { return m.info().limits }

// Next returns the model after m in menu order, wrapping around.
func (m AiModel) Next() AiModel {
	all := AllAiModels()
	for i, candidate := range all {
		if candidate == m {
			return all[(i+1)%len(all)]
		}
	}
	return DefaultAiModel
}

// ParseAiModel resolves a short name, display name or remote id.
// Matching is case-insensitive.
func ParseAiModel(name string) (AiModel, error) {
	name = strings.TrimSpace(name)
	for _, m := range AllAiModels() {
		info := m.info()
		if strings.EqualFold(name, info.key) ||
			strings.EqualFold(name, info.displayName) ||
			strings.EqualFold(name, info.id) {
			return m, nil
		}
	}
	return DefaultAiModel, fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// MarshalText encodes the model by its short name.
func (m AiModel) MarshalText() ([]byte, error) {
	return []byte(m.Key()), nil
}

// UnmarshalText decodes any name accepted by ParseAiModel.
func (m *AiModel) UnmarshalText(text []byte) error {
	parsed, err := ParseAiModel(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// =============================================================================
// CLAUDE MODELS
// =============================================================================

// Anthropic model identifiers.
const (
	ClaudeSonnet45 = "claude-sonnet-4-5-20250929"
	ClaudeSonnet4  = "claude-sonnet-4-20250514"
	ClaudeHaiku45  = "claude-haiku-4-5-20251001"

	// DefaultClaudeModel is used by the talk and weather flows.
	DefaultClaudeModel = ClaudeSonnet45
)

// ClaudeModels maps friendly names to Anthropic model identifiers.
var ClaudeModels = map[string]string{
	"sonnet":     ClaudeSonnet45,
	"sonnet-4.5": ClaudeSonnet45,
	"sonnet-4":   ClaudeSonnet4,
	"haiku":      ClaudeHaiku45,
}

// ResolveClaudeModel maps a friendly name to its identifier. Unknown names
// are returned unchanged so new model ids work without a release.
func ResolveClaudeModel(name string) string {
	if id, ok := ClaudeModels[strings.ToLower(strings.TrimSpace(name))]; ok {
		return id
	}
	if name == "" {
		return DefaultClaudeModel
	}
	return name
}
