// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tokens estimates token budgets for chat requests.
//
// Everything here is local and deterministic: no remote tokenizer is ever
// called. Counts are approximations tuned for mixed Latin/Cyrillic text.
//
// # Key Types
//
//   - Limits: per-model token ceilings and per-token prices
//   - UsageLevel: coarse classification of input usage against a ceiling
//   - Analysis: forecast for a prospective request (tokens, cost, warning)
//   - Forecast: human-facing response time, quality and status prediction
//
// # Usage
//
//	n := tokens.Estimate("Привет, world")
//	a := tokens.Analyze(input, history, limits)
//	if a.HasWarning() {
//	    fmt.Println(a.Warning)
//	}
//	f := tokens.NewForecast(a)
//	fmt.Println(tokens.FormatResponseTime(f.ResponseTime))
//
// All functions are pure and safe for concurrent use. Token counts passed in
// must be non-negative; a non-positive ceiling is treated as fully used.
package tokens
