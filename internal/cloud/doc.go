// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the remote LLM clients used by worknote.
//
// Two providers are supported:
//
//   - HFClient: the HuggingFace router, an OpenAI-compatible chat completions
//     endpoint, driven through github.com/sashabaranov/go-openai.
//   - ClaudeClient: the Anthropic Messages API over plain JSON/HTTP.
//
// Both share one HTTP setup (connect, socket and request timeouts), a
// client-side rate limiter and exponential backoff on 429 and 5xx.
//
// # Usage
//
//	hf := cloud.NewHFClient(token, cloud.WithHTTPOptions(opts))
//	resp, err := hf.SendMessage(ctx, cloud.ChatRequest{
//	    Model:     model.DeepSeek.ID(),
//	    Messages:  []cloud.ChatMessage{cloud.NewUserMessage("Привет")},
//	    MaxTokens: 1000,
//	})
//
// # Security
//
// API keys are never logged. Log lines carry a short SHA-256 fingerprint of
// the key instead.
package cloud
