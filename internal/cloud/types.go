// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

// =============================================================================
// PROVIDER-NEUTRAL CHAT TYPES
// =============================================================================

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage is a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleSystem, Content: content}
}

// ChatRequest is a non-streaming chat completion request.
type ChatRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	// Stream is always false; streaming responses are not supported.
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Usage is the token accounting reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the provider-neutral result of a chat request.
type ChatResponse struct {
	ID           string `json:"id"`
	Model        string `json:"model"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	// Usage is nil when the provider did not report token counts.
	Usage *Usage `json:"usage,omitempty"`
}

// PromptTokens returns the reported prompt tokens, or 0 when absent.
func (r *ChatResponse) PromptTokens() int {
	if r == nil || r.Usage == nil {
		return 0
	}
	return r.Usage.PromptTokens
}

// CompletionTokens returns the reported completion tokens, or 0 when absent.
func (r *ChatResponse) CompletionTokens() int {
	if r == nil || r.Usage == nil {
		return 0
	}
	return r.Usage.CompletionTokens
}

// TotalTokens returns the reported total, falling back to prompt plus
// completion when the provider omitted it.
func (r *ChatResponse) TotalTokens() int {
	if r == nil || r.Usage == nil {
		return 0
	}
	if r.Usage.TotalTokens > 0 {
		return r.Usage.TotalTokens
	}
	return r.Usage.PromptTokens + r.Usage.CompletionTokens
}
