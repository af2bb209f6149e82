// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the chat domain types: the selectable models, their
// token limits, and the messages that make up a conversation.
//
// # Key Types
//
//   - AiModel: HuggingFace-router model selectable in the chat (DeepSeek, Qwen, Llama)
//   - ClaudeModel: Anthropic model identifiers used by the talk and weather flows
//   - Message: single immutable chat message (role + content)
//   - History: ordered, append-only list of messages owned by one session
//
// # Usage
//
//	m, err := model.ParseAiModel("qwen")
//	limits := m.Limits()
//	var h model.History
//	h = h.Append(model.NewUserMessage("Привет"))
//	a := tokens.Analyze("next", h.Contents(), limits)
package model
